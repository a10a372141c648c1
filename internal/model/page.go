package model

import (
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/net/html"
)

// NotFound is the explicit value recorded for metadata fields that are
// absent from a page. A missing field is never an error; callers and
// report writers can rely on this sentinel instead of checking for "".
const NotFound = "N/A"

// CSSOrigin indicates where a CSS block came from.
type CSSOrigin string

// CSS block origins.
const (
	// CSSOriginInline marks CSS found in a <style> element.
	CSSOriginInline CSSOrigin = "inline"
	// CSSOriginExternal marks CSS referenced by <link rel="stylesheet">.
	CSSOriginExternal CSSOrigin = "external"
)

// CSSBlock is one unit of CSS associated with a page: either the content
// of a <style> element or an external stylesheet reference.
type CSSBlock struct {
	// Origin tells whether the block is inline or external.
	Origin CSSOrigin `json:"origin"`

	// SourceURL is the absolute URL of the stylesheet for external blocks.
	// Empty for inline blocks.
	SourceURL string `json:"source_url,omitempty"`

	// Text is the CSS text. For external blocks it is empty until the
	// stylesheet has been fetched.
	Text string `json:"text,omitempty"`
}

// Metadata holds the well-known metadata fields extracted from a page.
// Fields that could not be found are set to NotFound, never left empty.
type Metadata struct {
	// Title is the content of the <title> element.
	Title string `json:"title"`

	// Description is the content of <meta name="description">.
	Description string `json:"description"`

	// Keywords is the content of <meta name="keywords">.
	Keywords string `json:"keywords"`

	// Author is the content of <meta name="author">.
	Author string `json:"author"`

	// Language is the normalized value of the <html lang> attribute.
	Language string `json:"language"`

	// Charset is the document character set from <meta charset>.
	Charset string `json:"charset"`

	// CanonicalURL is the href of <link rel="canonical">.
	CanonicalURL string `json:"canonical_url"`

	// OpenGraph maps og:* property names (without the "og:" prefix)
	// to their content values.
	OpenGraph map[string]string `json:"open_graph,omitempty"`
}

// NewMetadata returns a Metadata with every field initialized to NotFound.
// The parser overwrites fields as it finds them, so anything it never
// touches stays explicitly absent.
func NewMetadata() Metadata {
	return Metadata{
		Title:        NotFound,
		Description:  NotFound,
		Keywords:     NotFound,
		Author:       NotFound,
		Language:     NotFound,
		Charset:      NotFound,
		CanonicalURL: NotFound,
		OpenGraph:    make(map[string]string),
	}
}

// OG returns the Open Graph value for the given property (without the
// "og:" prefix), or NotFound if the page did not declare it.
func (m Metadata) OG(property string) string {
	if v, ok := m.OpenGraph[property]; ok && v != "" {
		return v
	}
	return NotFound
}

// PageDocument is the parsed representation of one fetched HTML page.
// It is owned by the pipeline invocation that created it and is never
// shared across runs.
type PageDocument struct {
	// URL is the absolute URL the page was fetched from.
	URL string `json:"url"`

	// Root is the parsed document tree. The tree is mutable: the mirror
	// writer rewrites attribute values in place before rendering.
	Root *html.Node `json:"-"`

	// RawHTML is the original page bytes as fetched.
	RawHTML []byte `json:"-"`

	// CSSBlocks lists all inline <style> contents and external
	// stylesheet references, in document order.
	CSSBlocks []CSSBlock `json:"css_blocks,omitempty"`

	// Metadata holds the extracted page metadata.
	Metadata Metadata `json:"metadata"`

	// Hash is the SHA-256 hash of RawHTML, used for run history records.
	Hash string `json:"hash,omitempty"`
}

// ComputeHash calculates and sets the SHA-256 hash of the raw page bytes.
func (p *PageDocument) ComputeHash() {
	if len(p.RawHTML) == 0 {
		p.Hash = ""
		return
	}
	sum := sha256.Sum256(p.RawHTML)
	p.Hash = hex.EncodeToString(sum[:])
}

// InlineCSSCount returns the number of inline CSS blocks.
func (p *PageDocument) InlineCSSCount() int {
	return p.countCSS(CSSOriginInline)
}

// ExternalCSSCount returns the number of external stylesheet references.
func (p *PageDocument) ExternalCSSCount() int {
	return p.countCSS(CSSOriginExternal)
}

func (p *PageDocument) countCSS(origin CSSOrigin) int {
	n := 0
	for _, b := range p.CSSBlocks {
		if b.Origin == origin {
			n++
		}
	}
	return n
}
