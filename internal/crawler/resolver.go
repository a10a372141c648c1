package crawler

import (
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/ramaerik/webscout/internal/model"
)

// cssURLRegex matches url(...) occurrences in CSS text, capturing the
// referenced URL with optional quoting.
var cssURLRegex = regexp.MustCompile(`url\(\s*['"]?([^'")\s]+)['"]?\s*\)`)

// skippedSchemes are URL schemes that never refer to fetchable assets.
// References using them are logged and skipped, never treated as errors.
var skippedSchemes = []string{"data:", "javascript:", "mailto:", "tel:"}

// iconRels are <link rel> values that reference image assets.
var iconRels = map[string]bool{
	"icon":             true,
	"shortcut icon":    true,
	"apple-touch-icon": true,
}

// Resolver enumerates asset references from a parsed document.
//
// A Resolver performs a single pass: it walks the tree once, resolves
// every reference against the base URL, and deduplicates by absolute URL
// before returning. The dedup guarantee lives here, not downstream, so
// every consumer of the reference list can fetch each URL exactly once.
type Resolver struct {
	// baseURL is the document's URL, used for resolving relative references.
	baseURL *url.URL

	// logger records skipped references at debug level.
	logger *slog.Logger

	// seen tracks absolute URLs already emitted in this pass.
	seen map[string]bool
}

// NewResolver creates a Resolver for a document fetched from baseURL.
func NewResolver(baseURL string, logger *slog.Logger) (*Resolver, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		baseURL: u,
		logger:  logger,
		seen:    make(map[string]bool),
	}, nil
}

// Resolve walks the document tree once and returns every discovered
// asset reference in document order, deduplicated by absolute URL.
//
// The returned sequence is finite and the pass is not restartable:
// a Resolver's dedup state spans its lifetime, so reusing one Resolver
// across Resolve and ResolveCSS calls extends the same dedup scope.
// That is intentional — one mirror run uses one Resolver.
func (r *Resolver) Resolve(doc *model.PageDocument) []model.AssetReference {
	var refs []model.AssetReference

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			refs = append(refs, r.fromElement(n)...)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc.Root)

	return refs
}

// ResolveCSS extracts url(...) references from CSS text. Relative URLs
// are resolved against cssBase, which must be the stylesheet's own URL
// for external CSS or the page URL for inline CSS.
func (r *Resolver) ResolveCSS(cssText, cssBase string) []model.AssetReference {
	base, err := url.Parse(cssBase)
	if err != nil {
		return nil
	}

	var refs []model.AssetReference
	for _, match := range cssURLRegex.FindAllStringSubmatch(cssText, -1) {
		if ref, ok := r.makeRef(base, match[1], model.AssetImage); ok {
			refs = append(refs, ref)
		}
	}
	return refs
}

// fromElement emits asset references for a single element node.
func (r *Resolver) fromElement(n *html.Node) []model.AssetReference {
	var refs []model.AssetReference

	add := func(raw string, kind model.AssetKind) {
		if ref, ok := r.makeRef(r.baseURL, raw, kind); ok {
			refs = append(refs, ref)
		}
	}

	switch n.Data {
	case "link":
		href := getAttr(n, "href")
		if href == "" {
			break
		}
		switch rel := strings.ToLower(getAttr(n, "rel")); {
		case rel == "stylesheet":
			add(href, model.AssetStylesheet)
		case iconRels[rel]:
			add(href, model.AssetImage)
		case rel == "preload" || rel == "manifest":
			add(href, model.AssetOther)
		}

	case "script":
		if src := getAttr(n, "src"); src != "" {
			add(src, model.AssetScript)
		}

	case "img":
		if src := getAttr(n, "src"); src != "" {
			add(src, model.AssetImage)
		}

	case "style":
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				refs = append(refs, r.ResolveCSS(c.Data, r.baseURL.String())...)
			}
		}
	}

	// Inline style attributes can carry background-image url() values
	// on any element.
	if style := getAttr(n, "style"); style != "" {
		refs = append(refs, r.ResolveCSS(style, r.baseURL.String())...)
	}

	return refs
}

// makeRef resolves a raw reference and applies scheme filtering and
// deduplication. Returns false if the reference should be skipped.
func (r *Resolver) makeRef(base *url.URL, raw string, kind model.AssetKind) (model.AssetReference, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "#" {
		return model.AssetReference{}, false
	}

	lower := strings.ToLower(raw)
	for _, scheme := range skippedSchemes {
		if strings.HasPrefix(lower, scheme) {
			r.logger.Debug("skipping unsupported scheme", "reference", truncate(raw, 80))
			return model.AssetReference{}, false
		}
	}

	u, err := url.Parse(raw)
	if err != nil {
		r.logger.Debug("skipping unparsable reference", "reference", truncate(raw, 80), "error", err)
		return model.AssetReference{}, false
	}

	resolved := base.ResolveReference(u)
	resolved.Fragment = ""

	// Only http(s) assets can be mirrored.
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		r.logger.Debug("skipping unsupported scheme", "reference", truncate(resolved.String(), 80))
		return model.AssetReference{}, false
	}

	abs := resolved.String()
	if r.seen[abs] {
		return model.AssetReference{}, false
	}
	r.seen[abs] = true

	return model.AssetReference{Kind: kind, AbsoluteURL: abs}, true
}

// truncate shortens a string for log output.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
