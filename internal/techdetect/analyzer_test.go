package techdetect

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ramaerik/webscout/internal/fetch"
	"github.com/ramaerik/webscout/internal/model"
)

// detectionNames collects name->category for assertion convenience.
func detectionNames(report *model.TechReport) map[string]model.TechCategory {
	names := make(map[string]model.TechCategory, len(report.Detections))
	for _, d := range report.Detections {
		names[d.Name] = d.Category
	}
	return names
}

// analyze runs a full analysis against a handler.
func analyze(t *testing.T, handler http.Handler) *model.TechReport {
	t.Helper()

	srv := httptest.NewServer(handler)
	defer srv.Close()

	a := New(fetch.New(fetch.WithDelay(0)))
	report, err := a.Analyze(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	return report
}

// TestAnalyzeHeaders verifies server, language, CDN, and cookie
// detections from response headers.
func TestAnalyzeHeaders(t *testing.T) {
	t.Parallel()

	report := analyze(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Server", "nginx/1.24.0")
		w.Header().Set("X-Powered-By", "PHP/8.2.1")
		w.Header().Set("Cf-Ray", "8a7b-FRA")
		w.Header().Add("Set-Cookie", "laravel_session=abc; Path=/")
		_, _ = w.Write([]byte("<html><body></body></html>"))
	}))

	names := detectionNames(report)
	if names["Nginx"] != model.TechCategoryServer {
		t.Errorf("Nginx not detected from Server header: %v", names)
	}
	if names["Cloudflare"] != model.TechCategoryCDN {
		t.Errorf("Cloudflare not detected from CF-Ray header: %v", names)
	}
	if names["Laravel"] != model.TechCategoryFramework {
		t.Errorf("Laravel not detected from session cookie: %v", names)
	}

	var php *model.Detection
	for i, d := range report.Detections {
		if d.Name == "PHP" {
			php = &report.Detections[i]
		}
	}
	if php == nil {
		t.Fatalf("PHP not detected from X-Powered-By: %v", names)
	}
	if php.Version != "8.2.1" {
		t.Errorf("PHP version = %q, want 8.2.1", php.Version)
	}
}

// TestAnalyzeGenerator verifies name/version splitting of the meta
// generator tag.
func TestAnalyzeGenerator(t *testing.T) {
	t.Parallel()

	report := analyze(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><head>
<meta name="generator" content="WordPress 6.4.2">
</head><body></body></html>`))
	}))

	var wp *model.Detection
	for i, d := range report.Detections {
		if d.Name == "WordPress" && d.Category == model.TechCategoryCMS {
			wp = &report.Detections[i]
		}
	}
	if wp == nil {
		t.Fatalf("WordPress not detected from generator tag: %+v", report.Detections)
	}
	if wp.Version != "6.4.2" {
		t.Errorf("version = %q, want 6.4.2", wp.Version)
	}
}

// TestAnalyzeScriptAndLinkURLs verifies URL-substring signatures.
func TestAnalyzeScriptAndLinkURLs(t *testing.T) {
	t.Parallel()

	report := analyze(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><head>
<script src="/assets/jquery.min.js"></script>
<script src="https://www.googletagmanager.com/gtm.js"></script>
<link rel="stylesheet" href="https://cdn.example.com/font-awesome.min.css">
</head><body></body></html>`))
	}))

	names := detectionNames(report)
	if names["jQuery"] != model.TechCategoryJavaScript {
		t.Errorf("jQuery not detected: %v", names)
	}
	if names["Google Tag Manager"] != model.TechCategoryAnalytics {
		t.Errorf("Google Tag Manager not detected: %v", names)
	}
	if names["Font Awesome"] != model.TechCategoryJavaScript {
		t.Errorf("Font Awesome not detected: %v", names)
	}
}

// TestAnalyzeBodySignatures verifies markup-pattern detections.
func TestAnalyzeBodySignatures(t *testing.T) {
	t.Parallel()

	report := analyze(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body>
<img src="/wp-content/uploads/logo.png">
<script>gtag('config', 'G-XXXX');</script>
<input type="hidden" name="csrfmiddlewaretoken" value="x">
</body></html>`))
	}))

	names := detectionNames(report)
	if names["WordPress"] != model.TechCategoryCMS {
		t.Errorf("WordPress not detected from wp-content path: %v", names)
	}
	if names["Google Analytics"] != model.TechCategoryAnalytics {
		t.Errorf("Google Analytics not detected from gtag call: %v", names)
	}
	if names["Django"] != model.TechCategoryFramework {
		t.Errorf("Django not detected from CSRF token field: %v", names)
	}
}

// TestAnalyzeDeduplicates verifies that repeated evidence yields one
// detection per name and category.
func TestAnalyzeDeduplicates(t *testing.T) {
	t.Parallel()

	report := analyze(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><head>
<script src="/js/jquery-3.7.js"></script>
<script src="/js/jquery.plugin.js"></script>
</head><body></body></html>`))
	}))

	count := 0
	for _, d := range report.Detections {
		if d.Name == "jQuery" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("jQuery detected %d times, want 1", count)
	}
}

// TestAnalyzeNoDetections verifies a clean page yields an empty but
// valid report.
func TestAnalyzeNoDetections(t *testing.T) {
	t.Parallel()

	report := analyze(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body><p>nothing to see</p></body></html>`))
	}))

	if len(report.Detections) != 0 {
		t.Errorf("expected no detections, got %+v", report.Detections)
	}
	if report.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", report.StatusCode)
	}
}

// TestAnalyzeFetchFailure verifies a non-2xx page fails the analysis.
func TestAnalyzeFetchFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "go away", http.StatusForbidden)
	}))
	defer srv.Close()

	a := New(fetch.New(fetch.WithDelay(0)))
	if _, err := a.Analyze(context.Background(), srv.URL); err == nil {
		t.Error("expected error for 403 response")
	}
}

// TestNormalizeURL verifies scheme defaulting.
func TestNormalizeURL(t *testing.T) {
	t.Parallel()

	if got := normalizeURL("example.com"); got != "https://example.com" {
		t.Errorf("normalizeURL = %q", got)
	}
	if got := normalizeURL("http://example.com"); got != "http://example.com" {
		t.Errorf("normalizeURL = %q", got)
	}
}
