package mirror

import (
	"io"
	"net/url"
	"path"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/ramaerik/webscout/internal/model"
)

// cssURLRegex matches url(...) occurrences for rewriting. Kept in sync
// with the resolver's extraction pattern so everything the resolver
// discovered can be rewritten.
var cssURLRegex = regexp.MustCompile(`url\(\s*['"]?([^'")\s]+)['"]?\s*\)`)

// rewriteDocument replaces asset references in the document tree with
// local relative paths for every stored asset. References to failed
// assets are left untouched, so a partially failed mirror still renders
// with its original remote URLs as the documented fallback.
//
// The entry file sits at the output directory root, so stored paths are
// usable directly as relative references.
func rewriteDocument(doc *model.PageDocument, stored map[string]string) {
	base, err := url.Parse(doc.URL)
	if err != nil {
		return
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			rewriteElement(n, base, stored)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc.Root)
}

// rewriteElement rewrites the URL-bearing attributes of one element.
func rewriteElement(n *html.Node, base *url.URL, stored map[string]string) {
	switch n.Data {
	case "link":
		rewriteAttr(n, "href", base, stored)
	case "script", "img":
		rewriteAttr(n, "src", base, stored)
	case "style":
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				c.Data = rewriteCSS(c.Data, base.String(), "", stored)
			}
		}
	}

	// Inline style attributes may carry url() references on any element.
	for i, attr := range n.Attr {
		if attr.Key == "style" {
			n.Attr[i].Val = rewriteCSS(attr.Val, base.String(), "", stored)
		}
	}
}

// rewriteAttr replaces one attribute value with its local path if the
// referenced asset was stored.
func rewriteAttr(n *html.Node, key string, base *url.URL, stored map[string]string) {
	for i, attr := range n.Attr {
		if attr.Key != key || attr.Val == "" {
			continue
		}
		if local, ok := lookupStored(attr.Val, base, stored); ok {
			n.Attr[i].Val = local
		}
	}
}

// rewriteCSS rewrites url() references in CSS text. cssLocal is the
// stylesheet's own local path ("" for CSS embedded in the entry page);
// rewritten references are made relative to it.
func rewriteCSS(cssText, cssAbsURL, cssLocal string, stored map[string]string) string {
	base, err := url.Parse(cssAbsURL)
	if err != nil {
		return cssText
	}

	fromDir := ""
	if cssLocal != "" {
		fromDir = path.Dir(cssLocal)
	}

	return cssURLRegex.ReplaceAllStringFunc(cssText, func(match string) string {
		sub := cssURLRegex.FindStringSubmatch(match)
		local, ok := lookupStored(sub[1], base, stored)
		if !ok {
			return match
		}
		return `url("` + relativePath(fromDir, local) + `")`
	})
}

// lookupStored resolves a raw reference against base and returns the
// stored local path for it, if any.
func lookupStored(raw string, base *url.URL, stored map[string]string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", false
	}
	resolved := base.ResolveReference(u)
	resolved.Fragment = ""

	local, ok := stored[resolved.String()]
	return local, ok
}

// relativePath computes the slash-separated relative path from a
// directory to a file, both relative to the output directory root.
func relativePath(fromDir, to string) string {
	if fromDir == "" || fromDir == "." {
		return to
	}

	fromParts := strings.Split(fromDir, "/")
	toParts := strings.Split(to, "/")

	// Count shared leading directories; the final element of toParts is
	// the file name and never counts as shared.
	i := 0
	for i < len(fromParts) && i < len(toParts)-1 && fromParts[i] == toParts[i] {
		i++
	}

	parts := make([]string, 0, len(fromParts)-i+len(toParts)-i)
	for j := i; j < len(fromParts); j++ {
		parts = append(parts, "..")
	}
	parts = append(parts, toParts[i:]...)

	return strings.Join(parts, "/")
}

// renderDocument serializes the (rewritten) document tree as HTML.
func renderDocument(w io.Writer, doc *model.PageDocument) error {
	return html.Render(w, doc.Root)
}
