package model

import "time"

// ExternalCSS pairs an external stylesheet's URL with its fetched text.
// FetchError is set when the stylesheet could not be retrieved; the
// report still lists the URL so readers see the full picture.
type ExternalCSS struct {
	URL        string `json:"url"`
	Content    string `json:"content,omitempty"`
	FetchError string `json:"fetch_error,omitempty"`
}

// ScrapeReport is the complete result of a single page analysis,
// carrying everything the report writers need: metadata, CSS in both
// flavors, and the raw HTML.
type ScrapeReport struct {
	// URL is the scraped page URL.
	URL string `json:"url"`

	// ScrapedAt records when the page was fetched.
	ScrapedAt time.Time `json:"scraped_at"`

	// StatusCode is the HTTP status returned for the page.
	StatusCode int `json:"status_code"`

	// Metadata holds extracted page metadata with "N/A" placeholders
	// for absent fields.
	Metadata Metadata `json:"metadata"`

	// InlineCSS holds the text of each <style> block in document order.
	InlineCSS []string `json:"inline_css"`

	// ExternalCSS holds linked stylesheets with their fetched content.
	ExternalCSS []ExternalCSS `json:"external_css"`

	// HTML is the raw page markup as served.
	HTML string `json:"html"`
}

// CSSCount returns the total number of CSS sources found on the page.
func (r *ScrapeReport) CSSCount() int {
	return len(r.InlineCSS) + len(r.ExternalCSS)
}
