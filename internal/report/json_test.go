package report

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/ramaerik/webscout/internal/model"
)

// TestJSONWriterCompact verifies compact output and the trailing
// newline.
func TestJSONWriterCompact(t *testing.T) {
	t.Parallel()

	sr := &model.ScrapeReport{
		URL:       "https://example.com",
		ScrapedAt: time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC),
		Metadata:  model.NewMetadata(),
	}

	var sb strings.Builder
	n, err := NewJSONWriter(&sb).WriteScrape(sr)
	if err != nil {
		t.Fatalf("WriteScrape failed: %v", err)
	}

	out := sb.String()
	if n != len(out) {
		t.Errorf("reported %d bytes, wrote %d", n, len(out))
	}
	if !strings.HasSuffix(out, "\n") {
		t.Error("output should end with a newline")
	}
	if strings.Contains(strings.TrimSuffix(out, "\n"), "\n") {
		t.Error("compact output should be a single line")
	}

	var decoded model.ScrapeReport
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.URL != sr.URL {
		t.Errorf("round-tripped URL = %q, want %q", decoded.URL, sr.URL)
	}
	if decoded.Metadata.Title != model.NotFound {
		t.Errorf("round-tripped title = %q, want %q", decoded.Metadata.Title, model.NotFound)
	}
}

// TestJSONWriterPrettyPrint verifies indented output.
func TestJSONWriterPrettyPrint(t *testing.T) {
	t.Parallel()

	tr := &model.TechReport{URL: "https://example.com"}
	tr.Add(model.Detection{Category: model.TechCategoryServer, Name: "nginx", Evidence: "Server header"})

	var sb strings.Builder
	if _, err := NewJSONWriter(&sb, WithPrettyPrint()).WriteTech(tr); err != nil {
		t.Fatalf("WriteTech failed: %v", err)
	}

	out := sb.String()
	if !strings.Contains(out, "\n  \"") {
		t.Errorf("expected two-space indentation:\n%s", out)
	}
	if !strings.Contains(out, `"name": "nginx"`) {
		t.Errorf("detection missing from output:\n%s", out)
	}
}

// TestJSONWriterManifest verifies the clone manifest field names stay
// machine-friendly.
func TestJSONWriterManifest(t *testing.T) {
	t.Parallel()

	manifest := &model.Manifest{
		URL:       "https://example.com",
		EntryFile: "index.html",
		Outcomes: []model.AssetOutcome{
			{
				Ref:    model.AssetReference{Kind: model.AssetImage, AbsoluteURL: "https://example.com/a.png"},
				State:  model.StateFailed,
				Reason: "boom",
			},
		},
	}

	var sb strings.Builder
	if _, err := NewJSONWriter(&sb).WriteClone(manifest); err != nil {
		t.Fatalf("WriteClone failed: %v", err)
	}

	out := sb.String()
	for _, want := range []string{
		`"entry_file":"index.html"`,
		`"absolute_url":"https://example.com/a.png"`,
		`"state":"failed"`,
		`"reason":"boom"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("manifest JSON missing %s:\n%s", want, out)
		}
	}
}

// TestMultiWriter verifies fan-out to several writers.
func TestMultiWriter(t *testing.T) {
	t.Parallel()

	var md, js strings.Builder
	w := NewMultiWriter(NewMarkdownWriter(&md), NewJSONWriter(&js))

	dr := &model.DNSReport{
		Domain:    "example.com",
		CheckedAt: time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC),
		Records:   []model.DNSRecordSet{{Type: "A", Values: []string{"192.0.2.1"}}},
	}

	if _, err := w.WriteDNS(dr); err != nil {
		t.Fatalf("WriteDNS failed: %v", err)
	}

	if !strings.Contains(md.String(), "# DNS Inspection Report") {
		t.Error("markdown writer did not receive the report")
	}
	if !strings.Contains(js.String(), `"domain":"example.com"`) {
		t.Error("json writer did not receive the report")
	}
}
