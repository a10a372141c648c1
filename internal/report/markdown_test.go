package report

import (
	"strings"
	"testing"
	"time"

	"github.com/ramaerik/webscout/internal/model"
)

var reportTime = time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC)

// TestWriteScrape verifies the section layout of the scrape report.
func TestWriteScrape(t *testing.T) {
	t.Parallel()

	meta := model.NewMetadata()
	meta.Title = "Example"
	meta.Description = "An example page"
	meta.OpenGraph["title"] = "OG Example"

	sr := &model.ScrapeReport{
		URL:        "https://example.com",
		ScrapedAt:  reportTime,
		StatusCode: 200,
		Metadata:   meta,
		InlineCSS:  []string{"body { margin: 0; }"},
		ExternalCSS: []model.ExternalCSS{
			{URL: "https://example.com/main.css", Content: ".a { color: red; }"},
			{URL: "https://example.com/gone.css", FetchError: "404 Not Found"},
		},
		HTML: "<html><body>hi</body></html>",
	}

	var sb strings.Builder
	if _, err := NewMarkdownWriter(&sb).WriteScrape(sr); err != nil {
		t.Fatalf("WriteScrape failed: %v", err)
	}
	out := sb.String()

	for _, want := range []string{
		"# Website Scraping Report",
		"## General Information",
		"## Website Metadata",
		"## CSS Information",
		"### Internal CSS",
		"### External CSS",
		"## HTML Content",
		"body { margin: 0; }",
		".a { color: red; }",
		"https://example.com/gone.css",
		"404 Not Found",
		"*Generated by webscout*",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("scrape report missing %q", want)
		}
	}

	// Absent metadata fields appear with the explicit placeholder, never
	// as empty cells.
	if !strings.Contains(out, model.NotFound) {
		t.Error("absent metadata fields should be rendered as N/A")
	}
}

// TestWriteScrapeTruncatesPreviews verifies the CSS and HTML preview
// limits.
func TestWriteScrapeTruncatesPreviews(t *testing.T) {
	t.Parallel()

	sr := &model.ScrapeReport{
		URL:       "https://example.com",
		ScrapedAt: reportTime,
		Metadata:  model.NewMetadata(),
		ExternalCSS: []model.ExternalCSS{
			{URL: "https://example.com/huge.css", Content: strings.Repeat("x", 5000)},
		},
		HTML: strings.Repeat("y", 10000),
	}

	var sb strings.Builder
	if _, err := NewMarkdownWriter(&sb).WriteScrape(sr); err != nil {
		t.Fatalf("WriteScrape failed: %v", err)
	}
	out := sb.String()

	if strings.Contains(out, strings.Repeat("x", externalCSSPreviewLimit+1)) {
		t.Error("external CSS preview exceeds its limit")
	}
	if strings.Contains(out, strings.Repeat("y", htmlPreviewLimit+1)) {
		t.Error("HTML preview exceeds its limit")
	}
	if !strings.Contains(out, "...") {
		t.Error("truncated previews should end with an ellipsis")
	}
}

// TestWriteClone verifies the manifest summary and the failed-downloads
// inventory.
func TestWriteClone(t *testing.T) {
	t.Parallel()

	manifest := &model.Manifest{
		URL:       "https://example.com",
		EntryFile: "index.html",
		OutputDir: "/tmp/mirror",
		ClonedAt:  reportTime,
		Outcomes: []model.AssetOutcome{
			{
				Ref:   model.AssetReference{Kind: model.AssetStylesheet, AbsoluteURL: "https://example.com/a.css"},
				State: model.StateStored,
			},
			{
				Ref:    model.AssetReference{Kind: model.AssetScript, AbsoluteURL: "https://example.com/b.js"},
				State:  model.StateFailed,
				Reason: "connection refused",
			},
		},
	}

	var sb strings.Builder
	if _, err := NewMarkdownWriter(&sb).WriteClone(manifest); err != nil {
		t.Fatalf("WriteClone failed: %v", err)
	}
	out := sb.String()

	for _, want := range []string{
		"# Website Clone Info",
		"**Total Assets Found**: 2",
		"**Successfully Downloaded**: 1",
		"**Failed Downloads**: 1",
		"## How to View",
		"index.html",
		"## Failed Downloads",
		"https://example.com/b.js - connection refused",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("clone report missing %q", want)
		}
	}
}

// TestWriteCloneNoFailures verifies the all-clear wording.
func TestWriteCloneNoFailures(t *testing.T) {
	t.Parallel()

	manifest := &model.Manifest{
		URL:       "https://example.com",
		EntryFile: "index.html",
		ClonedAt:  reportTime,
		Outcomes: []model.AssetOutcome{
			{
				Ref:   model.AssetReference{Kind: model.AssetImage, AbsoluteURL: "https://example.com/a.png"},
				State: model.StateStored,
			},
		},
	}

	var sb strings.Builder
	if _, err := NewMarkdownWriter(&sb).WriteClone(manifest); err != nil {
		t.Fatalf("WriteClone failed: %v", err)
	}

	if !strings.Contains(sb.String(), "None - all assets downloaded successfully!") {
		t.Error("clean clone should report no failures explicitly")
	}
}

// TestWriteDNS verifies the record, reverse, and probe tables.
func TestWriteDNS(t *testing.T) {
	t.Parallel()

	dr := &model.DNSReport{
		Domain:    "example.com",
		CheckedAt: reportTime,
		Records: []model.DNSRecordSet{
			{Type: "A", Values: []string{"93.184.216.34"}},
			{Type: "AAAA"},
			{Type: "MX", Err: "lookup timed out"},
		},
		Reverse: []model.ReverseLookup{
			{IP: "93.184.216.34", Names: []string{"example.com."}},
		},
		Probes: []model.HTTPProbe{
			{URL: "https://example.com", StatusCode: 200, ResponseTime: 120 * time.Millisecond, Server: "ECS"},
			{URL: "http://example.com", Err: "connection refused"},
		},
	}

	var sb strings.Builder
	if _, err := NewMarkdownWriter(&sb).WriteDNS(dr); err != nil {
		t.Fatalf("WriteDNS failed: %v", err)
	}
	out := sb.String()

	for _, want := range []string{
		"# DNS Inspection Report",
		"`example.com`",
		"## DNS Records",
		"93.184.216.34",
		"not found",
		"lookup failed: lookup timed out",
		"## Reverse DNS",
		"example.com.",
		"## HTTP Status",
		"200",
		"connection refused",
		"ECS",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("dns report missing %q", want)
		}
	}
}

// TestWriteTech verifies category grouping and version fallback.
func TestWriteTech(t *testing.T) {
	t.Parallel()

	tr := &model.TechReport{
		URL:        "https://example.com",
		StatusCode: 200,
		AnalyzedAt: reportTime,
	}
	tr.Add(model.Detection{Category: model.TechCategoryServer, Name: "nginx", Version: "1.24.0", Evidence: "Server header"})
	tr.Add(model.Detection{Category: model.TechCategoryCMS, Name: "WordPress", Evidence: "meta generator"})

	var sb strings.Builder
	if _, err := NewMarkdownWriter(&sb).WriteTech(tr); err != nil {
		t.Fatalf("WriteTech failed: %v", err)
	}
	out := sb.String()

	for _, want := range []string{
		"# Technology Analysis Report",
		"### Web Server",
		"nginx",
		"1.24.0",
		"### CMS",
		"WordPress",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("tech report missing %q", want)
		}
	}

	// Categories with no detections are omitted entirely.
	if strings.Contains(out, "### Analytics") {
		t.Error("empty categories should not get a section")
	}
}

// TestWriteTechEmpty verifies the no-detections wording.
func TestWriteTechEmpty(t *testing.T) {
	t.Parallel()

	tr := &model.TechReport{URL: "https://example.com", AnalyzedAt: reportTime}

	var sb strings.Builder
	if _, err := NewMarkdownWriter(&sb).WriteTech(tr); err != nil {
		t.Fatalf("WriteTech failed: %v", err)
	}

	if !strings.Contains(sb.String(), "No technologies identified.") {
		t.Error("empty report should say so explicitly")
	}
}

// TestTruncateString exercises the edge cases of the shared helper.
func TestTruncateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		in     string
		maxLen int
		want   string
	}{
		{"short string unchanged", "abc", 10, "abc"},
		{"exact length unchanged", "abcde", 5, "abcde"},
		{"long string gets ellipsis", "abcdefghij", 8, "abcde..."},
		{"tiny limit truncates hard", "abcdef", 2, "ab"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := truncateString(tt.in, tt.maxLen); got != tt.want {
				t.Errorf("truncateString(%q, %d) = %q, want %q",
					tt.in, tt.maxLen, got, tt.want)
			}
		})
	}
}
