package crawler

import (
	"bytes"
	"errors"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/language"

	"github.com/ramaerik/webscout/internal/model"
)

// Parse errors. Malformed-but-non-empty HTML is never an error; the
// parser produces a best-effort tree. These cover the only two inputs
// that cannot yield a usable document.
var (
	// ErrEmptyDocument is returned for empty or whitespace-only input.
	ErrEmptyDocument = errors.New("empty document")

	// ErrNotHTML is returned for input that contains no markup at all.
	ErrNotHTML = errors.New("input is not HTML")
)

// Parser builds PageDocuments from fetched HTML.
type Parser struct {
	// baseURL is the URL of the page being parsed, used for resolving
	// relative stylesheet and canonical references.
	baseURL *url.URL
}

// NewParser creates a Parser for a page fetched from baseURL.
func NewParser(baseURL string) (*Parser, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	return &Parser{baseURL: u}, nil
}

// Parse parses HTML bytes into a PageDocument.
//
// Metadata fields that are absent from the page are left at their
// explicit NotFound value; a page without a description is a normal
// page, not an error.
func (p *Parser) Parse(htmlBytes []byte) (*model.PageDocument, error) {
	trimmed := bytes.TrimSpace(htmlBytes)
	if len(trimmed) == 0 {
		return nil, ErrEmptyDocument
	}
	if !bytes.ContainsRune(trimmed, '<') {
		return nil, ErrNotHTML
	}

	root, err := html.Parse(bytes.NewReader(htmlBytes))
	if err != nil {
		// x/net/html only fails on reader errors, which cannot happen
		// with a bytes.Reader, but handle it anyway.
		return nil, err
	}

	doc := &model.PageDocument{
		URL:      p.baseURL.String(),
		Root:     root,
		RawHTML:  htmlBytes,
		Metadata: model.NewMetadata(),
	}
	doc.ComputeHash()

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			p.processElement(n, doc)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	return doc, nil
}

// processElement extracts metadata and CSS from a single element node.
func (p *Parser) processElement(n *html.Node, doc *model.PageDocument) {
	switch n.Data {
	case "html":
		if lang := getAttr(n, "lang"); lang != "" {
			doc.Metadata.Language = normalizeLanguage(lang)
		}

	case "title":
		if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
			if title := strings.TrimSpace(n.FirstChild.Data); title != "" {
				doc.Metadata.Title = title
			}
		}

	case "meta":
		p.processMeta(n, doc)

	case "style":
		var text strings.Builder
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				text.WriteString(c.Data)
			}
		}
		if css := strings.TrimSpace(text.String()); css != "" {
			doc.CSSBlocks = append(doc.CSSBlocks, model.CSSBlock{
				Origin: model.CSSOriginInline,
				Text:   css,
			})
		}

	case "link":
		rel := strings.ToLower(getAttr(n, "rel"))
		href := getAttr(n, "href")
		if href == "" {
			return
		}
		switch rel {
		case "stylesheet":
			if resolved := p.resolveURL(href); resolved != "" {
				doc.CSSBlocks = append(doc.CSSBlocks, model.CSSBlock{
					Origin:    model.CSSOriginExternal,
					SourceURL: resolved,
				})
			}
		case "canonical":
			if resolved := p.resolveURL(href); resolved != "" {
				doc.Metadata.CanonicalURL = resolved
			}
		}
	}
}

// processMeta handles <meta> variants: named fields, Open Graph
// properties, and the charset declaration.
func (p *Parser) processMeta(n *html.Node, doc *model.PageDocument) {
	if charset := getAttr(n, "charset"); charset != "" {
		doc.Metadata.Charset = strings.ToLower(charset)
		return
	}

	content := getAttr(n, "content")
	if content == "" {
		return
	}

	switch strings.ToLower(getAttr(n, "name")) {
	case "description":
		doc.Metadata.Description = content
		return
	case "keywords":
		doc.Metadata.Keywords = content
		return
	case "author":
		doc.Metadata.Author = content
		return
	}

	// Open Graph uses the property attribute.
	property := strings.ToLower(getAttr(n, "property"))
	if strings.HasPrefix(property, "og:") {
		doc.Metadata.OpenGraph[strings.TrimPrefix(property, "og:")] = content
	}
}

// resolveURL resolves a possibly-relative URL against the page base URL
// and strips the fragment. Returns "" for unresolvable input.
func (p *Parser) resolveURL(href string) string {
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	resolved := p.baseURL.ResolveReference(u)
	resolved.Fragment = ""
	return resolved.String()
}

// normalizeLanguage canonicalizes a BCP 47 language tag.
// Invalid tags are kept verbatim; a page declaring lang="EN-us" and a
// page declaring lang="klingon" both produce a non-empty value.
func normalizeLanguage(lang string) string {
	tag, err := language.Parse(lang)
	if err != nil {
		return lang
	}
	return tag.String()
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
