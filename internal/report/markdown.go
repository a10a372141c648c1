package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/ramaerik/webscout/internal/model"
)

// Preview limits keep scrape reports readable: full stylesheets and
// pages can run to hundreds of kilobytes, which drowns the metadata
// the report exists to surface.
const (
	// externalCSSPreviewLimit caps how much of each external stylesheet
	// is embedded in the scrape report.
	externalCSSPreviewLimit = 1000

	// htmlPreviewLimit caps how much raw HTML is embedded in the
	// scrape report.
	htmlPreviewLimit = 2000
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. Consistent escaping without hand-built string concatenation
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// WriteScrape outputs the page-analysis report in Markdown format.
func (w *MarkdownWriter) WriteScrape(report *model.ScrapeReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Website Scraping Report")
	md.PlainText("")

	w.writeScrapeGeneral(md, report)
	w.writeScrapeMetadata(md, report)
	w.writeScrapeCSS(md, report)
	w.writeScrapeHTML(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeScrapeGeneral writes the general information section.
func (w *MarkdownWriter) writeScrapeGeneral(md *markdown.Markdown, report *model.ScrapeReport) {
	md.H2("General Information")
	md.PlainText("")
	md.BulletList(
		"**URL**: "+report.URL,
		"**Scrape Date**: "+report.ScrapedAt.Format("2006-01-02 15:04:05"),
		"**Title**: "+report.Metadata.Title,
		"**Description**: "+report.Metadata.Description,
	)
	md.PlainText("")
}

// writeScrapeMetadata writes the metadata table. Absent fields carry
// the "N/A" placeholder so every row is always present.
func (w *MarkdownWriter) writeScrapeMetadata(md *markdown.Markdown, report *model.ScrapeReport) {
	meta := report.Metadata

	md.H2("Website Metadata")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Field", "Value"},
		Rows: [][]string{
			{"Title", meta.Title},
			{"Description", truncateString(meta.Description, 100)},
			{"Keywords", truncateString(meta.Keywords, 100)},
			{"Author", meta.Author},
			{"Language", meta.Language},
			{"Charset", meta.Charset},
			{"Canonical URL", meta.CanonicalURL},
			{"OG Title", meta.OG("title")},
			{"OG Description", truncateString(meta.OG("description"), 100)},
			{"OG Image", meta.OG("image")},
		},
	})
	md.PlainText("")
}

// writeScrapeCSS writes the internal and external CSS sections.
func (w *MarkdownWriter) writeScrapeCSS(md *markdown.Markdown, report *model.ScrapeReport) {
	md.H2("CSS Information")
	md.PlainText("")

	md.H3("Internal CSS")
	md.PlainTextf("%d internal CSS blocks found.", len(report.InlineCSS))
	md.PlainText("")

	for i, css := range report.InlineCSS {
		md.PlainTextf("#### Internal CSS Block %d", i+1)
		md.CodeBlocks(markdown.SyntaxHighlightCSS, css)
		md.PlainText("")
	}

	md.H3("External CSS")
	md.PlainTextf("%d external CSS files found.", len(report.ExternalCSS))
	md.PlainText("")

	for i, ext := range report.ExternalCSS {
		md.PlainTextf("#### External CSS %d: %s", i+1, ext.URL)
		if ext.FetchError != "" {
			md.PlainTextf("Fetch failed: %s", ext.FetchError)
			md.PlainText("")
			continue
		}
		md.CodeBlocks(markdown.SyntaxHighlightCSS, truncateString(ext.Content, externalCSSPreviewLimit))
		md.PlainText("")
	}
}

// writeScrapeHTML writes the truncated raw HTML section.
func (w *MarkdownWriter) writeScrapeHTML(md *markdown.Markdown, report *model.ScrapeReport) {
	md.H2("HTML Content")
	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightHTML, truncateString(report.HTML, htmlPreviewLimit))
	md.PlainText("")
}

// WriteClone outputs the mirror manifest summary in Markdown format.
// This is the clone_info.md content written next to the mirrored site.
func (w *MarkdownWriter) WriteClone(manifest *model.Manifest) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Website Clone Info")
	md.PlainText("")
	md.BulletList(
		"**Original URL**: "+manifest.URL,
		"**Clone Date**: "+manifest.ClonedAt.Format("2006-01-02 15:04:05"),
		"**Total Assets Found**: "+strconv.Itoa(manifest.AssetCount()),
		"**Successfully Downloaded**: "+strconv.Itoa(manifest.Succeeded()),
		"**Failed Downloads**: "+strconv.Itoa(manifest.Failed()),
	)
	md.PlainText("")

	md.H2("How to View")
	md.PlainText("")
	md.OrderedList(
		"Open `"+manifest.EntryFile+"` in your web browser",
		"Or serve the directory with a local web server for better compatibility",
	)
	md.PlainText("")

	w.writeCloneFailures(md, manifest)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeCloneFailures lists failed assets with their failure reasons.
// Failed assets keep their original URLs in the mirrored markup, so
// the list doubles as an inventory of remote references left behind.
func (w *MarkdownWriter) writeCloneFailures(md *markdown.Markdown, manifest *model.Manifest) {
	md.H2("Failed Downloads")
	md.PlainText("")

	failed := manifest.FailedOutcomes()
	if len(failed) == 0 {
		md.PlainText("None - all assets downloaded successfully!")
		md.PlainText("")
		return
	}

	items := make([]string, 0, len(failed))
	for _, outcome := range failed {
		items = append(items, outcome.Ref.AbsoluteURL+" - "+outcome.Reason)
	}
	md.BulletList(items...)
	md.PlainText("")
}

// WriteDNS outputs the DNS inspection report in Markdown format.
func (w *MarkdownWriter) WriteDNS(report *model.DNSReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("DNS Inspection Report")
	md.PlainText("")
	md.BulletList(
		"**Domain**: `"+report.Domain+"`",
		"**Checked At**: "+report.CheckedAt.Format("2006-01-02 15:04:05"),
	)
	md.PlainText("")

	w.writeDNSRecords(md, report)
	w.writeDNSReverse(md, report)
	w.writeDNSProbes(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeDNSRecords writes one table row per record type, including
// lookup failures so the reader sees which types were checked.
func (w *MarkdownWriter) writeDNSRecords(md *markdown.Markdown, report *model.DNSReport) {
	md.H2("DNS Records")
	md.PlainText("")

	rows := make([][]string, 0, len(report.Records))
	for _, rs := range report.Records {
		value := "not found"
		if rs.Err != "" {
			value = "lookup failed: " + rs.Err
		} else if len(rs.Values) > 0 {
			value = joinLines(rs.Values)
		}
		rows = append(rows, []string{rs.Type, value})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Type", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeDNSReverse writes the reverse DNS section.
func (w *MarkdownWriter) writeDNSReverse(md *markdown.Markdown, report *model.DNSReport) {
	md.H2("Reverse DNS")
	md.PlainText("")

	if len(report.Reverse) == 0 {
		md.PlainText("No reverse DNS entries resolved.")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, len(report.Reverse))
	for _, rev := range report.Reverse {
		names := "no PTR record"
		if len(rev.Names) > 0 {
			names = joinLines(rev.Names)
		}
		rows = append(rows, []string{rev.IP, names})
	}

	md.Table(markdown.TableSet{
		Header: []string{"IP", "Hostname"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeDNSProbes writes the HTTP/HTTPS reachability section.
func (w *MarkdownWriter) writeDNSProbes(md *markdown.Markdown, report *model.DNSReport) {
	md.H2("HTTP Status")
	md.PlainText("")

	if len(report.Probes) == 0 {
		md.PlainText("No HTTP probes performed.")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, len(report.Probes))
	for _, probe := range report.Probes {
		status := "unreachable"
		server := "-"
		elapsed := "-"
		if probe.Err != "" {
			status = probe.Err
		} else {
			status = strconv.Itoa(probe.StatusCode)
			elapsed = probe.ResponseTime.String()
			if probe.Server != "" {
				server = probe.Server
			}
		}
		rows = append(rows, []string{probe.URL, status, elapsed, server})
	}

	md.Table(markdown.TableSet{
		Header: []string{"URL", "Status", "Response Time", "Server"},
		Rows:   rows,
	})
	md.PlainText("")
}

// WriteTech outputs the technology fingerprint report in Markdown format.
func (w *MarkdownWriter) WriteTech(report *model.TechReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Technology Analysis Report")
	md.PlainText("")
	md.BulletList(
		"**URL**: "+report.URL,
		"**Analyzed At**: "+report.AnalyzedAt.Format("2006-01-02 15:04:05"),
		"**HTTP Status**: "+strconv.Itoa(report.StatusCode),
	)
	md.PlainText("")

	md.H2("Detected Technologies")
	md.PlainText("")

	if len(report.Detections) == 0 {
		md.PlainText("No technologies identified.")
		md.PlainText("")
	} else {
		for _, category := range model.Categories() {
			detections := report.ByCategory(category)
			if len(detections) == 0 {
				continue
			}

			md.H3(categoryTitle(category))
			rows := make([][]string, 0, len(detections))
			for _, d := range detections {
				version := d.Version
				if version == "" {
					version = "-"
				}
				rows = append(rows, []string{d.Name, version, truncateString(d.Evidence, 60)})
			}
			md.Table(markdown.TableSet{
				Header: []string{"Name", "Version", "Evidence"},
				Rows:   rows,
			})
			md.PlainText("")
		}
	}

	w.writeFooter(md)
	return len(md.String()), md.Build()
}

// categoryTitle maps a technology category to its section heading.
func categoryTitle(category model.TechCategory) string {
	switch category {
	case model.TechCategoryServer:
		return "Web Server"
	case model.TechCategoryLanguage:
		return "Programming Language"
	case model.TechCategoryCMS:
		return "CMS"
	case model.TechCategoryFramework:
		return "Framework"
	case model.TechCategoryJavaScript:
		return "JavaScript Libraries"
	case model.TechCategoryAnalytics:
		return "Analytics"
	case model.TechCategoryCDN:
		return "CDN"
	default:
		return string(category)
	}
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("*Generated by webscout*")
}

// joinLines joins values with HTML line breaks for use inside a
// markdown table cell.
func joinLines(values []string) string {
	result := ""
	for i, v := range values {
		if i > 0 {
			result += "<br>"
		}
		result += v
	}
	return result
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
