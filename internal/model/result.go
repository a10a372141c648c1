package model

import "time"

// ScrapeResult summarizes one completed scrape run.
// This is the value returned across the public scrape boundary; a failed
// run yields a nil result and an error, never a partial report file.
type ScrapeResult struct {
	// URL is the page that was scraped.
	URL string `json:"url"`

	// FilePath is the path of the written Markdown report.
	FilePath string `json:"filepath"`

	// HTMLLength is the byte length of the fetched page body.
	HTMLLength int `json:"html_length"`

	// CSSCount is the total number of CSS blocks found, inline plus
	// external.
	CSSCount int `json:"css_count"`

	// Metadata holds the extracted page metadata.
	Metadata Metadata `json:"metadata"`

	// ScrapedAt is when the run completed.
	ScrapedAt time.Time `json:"scraped_at"`
}

// CloneResult summarizes one completed clone run for callers that only
// need counts; the full per-asset record is the Manifest.
type CloneResult struct {
	// URL is the page that was cloned.
	URL string `json:"url"`

	// OutputDir is the directory the mirror was written to.
	OutputDir string `json:"output_dir"`

	// EntryFile is the rewritten HTML entry file path.
	EntryFile string `json:"entry_file"`

	// ReportPath is the path of the written manifest report.
	ReportPath string `json:"report_path"`

	// AssetCount, Succeeded, and Failed summarize the manifest.
	AssetCount int `json:"asset_count"`
	Succeeded  int `json:"succeeded"`
	Failed     int `json:"failed"`

	// ClonedAt is when the run completed.
	ClonedAt time.Time `json:"cloned_at"`
}
