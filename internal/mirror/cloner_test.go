package mirror

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ramaerik/webscout/internal/fetch"
)

// TestClone verifies the end-to-end clone flow: page fetched, assets
// mirrored into a per-site directory, entry file and manifest report
// written.
func TestClone(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head>
<title>Clone Me</title>
<link rel="stylesheet" href="/style.css">
</head><body><img src="/logo.png"></body></html>`))
	})
	mux.HandleFunc("/style.css", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("body {}"))
	})
	mux.HandleFunc("/logo.png", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("png"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	baseDir := t.TempDir()
	cloner := NewCloner(fetch.New(fetch.WithDelay(0)), baseDir)

	result, manifest, err := cloner.Clone(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Clone failed: %v", err)
	}

	if result.AssetCount != 2 || result.Succeeded != 2 || result.Failed != 0 {
		t.Errorf("assets %d succeeded %d failed %d, want 2/2/0",
			result.AssetCount, result.Succeeded, result.Failed)
	}
	if manifest.AssetCount() != 2 {
		t.Errorf("manifest asset count = %d, want 2", manifest.AssetCount())
	}

	// The site directory is named after the host with unsafe characters
	// replaced.
	if !strings.HasPrefix(filepath.Base(result.OutputDir), "127.0.0.1_") {
		t.Errorf("site directory %q not derived from the host", result.OutputDir)
	}

	entry, err := os.ReadFile(result.EntryFile)
	if err != nil {
		t.Fatalf("entry file not written: %v", err)
	}
	if !strings.Contains(string(entry), "Clone Me") {
		t.Error("entry file lost the page content")
	}

	info, err := os.ReadFile(result.ReportPath)
	if err != nil {
		t.Fatalf("clone_info.md not written: %v", err)
	}
	if !strings.Contains(string(info), "Website Clone Info") {
		t.Errorf("manifest report missing its heading:\n%s", info)
	}
}

// TestClonePartialFailureStillWritesMirror verifies that asset failures
// never abort the run.
func TestClonePartialFailureStillWritesMirror(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body><img src="/dead.png"></body></html>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cloner := NewCloner(fetch.New(fetch.WithDelay(0)), t.TempDir())

	result, manifest, err := cloner.Clone(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Clone should not fail on asset errors: %v", err)
	}
	if result.Failed != 1 {
		t.Errorf("failed = %d, want 1", result.Failed)
	}
	if len(manifest.FailedOutcomes()) != 1 {
		t.Errorf("manifest failed outcomes = %d, want 1", len(manifest.FailedOutcomes()))
	}

	info, err := os.ReadFile(result.ReportPath)
	if err != nil {
		t.Fatalf("clone_info.md not written: %v", err)
	}
	if !strings.Contains(string(info), "Failed Downloads") {
		t.Errorf("manifest report should list failed downloads:\n%s", info)
	}
}

// TestClonePageFetchFailure verifies that an unreachable page is a hard
// error: there is nothing to mirror.
func TestClonePageFetchFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NewServeMux())
	deadURL := srv.URL
	srv.Close()

	cloner := NewCloner(fetch.New(fetch.WithDelay(0)), t.TempDir())

	_, _, err := cloner.Clone(context.Background(), deadURL)
	if !errors.Is(err, fetch.ErrConnection) {
		t.Errorf("expected connection error, got %v", err)
	}
}

// TestNormalizeTarget verifies scheme defaulting.
func TestNormalizeTarget(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name, in, want string
	}{
		{"bare host gets https", "example.com", "https://example.com"},
		{"http is preserved", "http://example.com", "http://example.com"},
		{"https is preserved", "https://example.com", "https://example.com"},
		{"surrounding space is trimmed", "  example.com  ", "https://example.com"},
		{"empty stays empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := normalizeTarget(tt.in); got != tt.want {
				t.Errorf("normalizeTarget(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

// TestSiteDirName verifies host extraction and sanitization.
func TestSiteDirName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name, in, want string
	}{
		{"host only", "https://example.com/path", "example.com"},
		{"port is kept but sanitized", "https://example.com:8080", "example.com_8080"},
		{"unparsable input falls back to sanitized text", "%%%", "___"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := siteDirName(tt.in); got != tt.want {
				t.Errorf("siteDirName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
