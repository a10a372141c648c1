package mirror

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ramaerik/webscout/internal/crawler"
	"github.com/ramaerik/webscout/internal/fetch"
	"github.com/ramaerik/webscout/internal/model"
)

// mirrorPage runs a full mirror pass against a test server page and
// returns the manifest plus the rewritten entry file contents.
func mirrorPage(t *testing.T, srv *httptest.Server, pageHTML string, opts ...WriterOption) (*model.Manifest, string, string) {
	t.Helper()

	parser, err := crawler.NewParser(srv.URL + "/")
	if err != nil {
		t.Fatalf("NewParser failed: %v", err)
	}
	doc, err := parser.Parse([]byte(pageHTML))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	resolver, err := crawler.NewResolver(srv.URL+"/", nil)
	if err != nil {
		t.Fatalf("NewResolver failed: %v", err)
	}
	refs := resolver.Resolve(doc)

	outputDir := t.TempDir()
	w := NewWriter(fetch.New(fetch.WithDelay(0)), resolver, outputDir, opts...)

	manifest, err := w.Mirror(context.Background(), doc, refs)
	if err != nil {
		t.Fatalf("Mirror failed: %v", err)
	}

	entry, err := os.ReadFile(filepath.Join(outputDir, EntryFileName))
	if err != nil {
		t.Fatalf("entry file not written: %v", err)
	}
	return manifest, string(entry), outputDir
}

// TestMirrorStoresAllAssets verifies a clean run: every asset stored,
// every reference rewritten.
func TestMirrorStoresAllAssets(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/css/main.css", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/css")
		_, _ = w.Write([]byte("body { color: blue; }"))
	})
	mux.HandleFunc("/logo.png", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("png-bytes"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	page := `<html><head>
<link rel="stylesheet" href="/css/main.css">
</head><body><img src="/logo.png"></body></html>`

	manifest, entry, outputDir := mirrorPage(t, srv, page)

	if manifest.AssetCount() != 2 {
		t.Fatalf("asset count = %d, want 2", manifest.AssetCount())
	}
	if manifest.Succeeded() != 2 || manifest.Failed() != 0 {
		t.Errorf("succeeded/failed = %d/%d, want 2/0",
			manifest.Succeeded(), manifest.Failed())
	}

	for _, outcome := range manifest.Outcomes {
		if outcome.State != model.StateStored {
			t.Errorf("%s: state = %q, want stored", outcome.Ref.AbsoluteURL, outcome.State)
		}
		target := filepath.Join(outputDir, filepath.FromSlash(outcome.Path.LocalRelativePath))
		if _, err := os.Stat(target); err != nil {
			t.Errorf("stored asset missing on disk: %v", err)
		}
		if !strings.Contains(entry, outcome.Path.LocalRelativePath) {
			t.Errorf("entry file does not reference %q", outcome.Path.LocalRelativePath)
		}
	}
}

// TestMirrorPartialFailure verifies failure isolation: one failing
// asset out of three leaves the other two stored, the mirror written,
// and the failed reference pointing at its original URL.
func TestMirrorPartialFailure(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/a.css", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(".a {}"))
	})
	mux.HandleFunc("/b.js", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	})
	mux.HandleFunc("/c.png", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("png"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	page := `<html><head>
<link rel="stylesheet" href="/a.css">
<script src="/b.js"></script>
</head><body><img src="/c.png"></body></html>`

	manifest, entry, outputDir := mirrorPage(t, srv, page)

	if manifest.Succeeded() != 2 {
		t.Errorf("succeeded = %d, want 2", manifest.Succeeded())
	}
	if manifest.Failed() != 1 {
		t.Errorf("failed = %d, want 1", manifest.Failed())
	}

	failed := manifest.FailedOutcomes()
	if len(failed) != 1 {
		t.Fatalf("failed outcomes = %d, want 1", len(failed))
	}
	if !strings.HasSuffix(failed[0].Ref.AbsoluteURL, "/b.js") {
		t.Errorf("wrong asset failed: %s", failed[0].Ref.AbsoluteURL)
	}
	if failed[0].Reason == "" {
		t.Error("failed outcome should carry a reason")
	}

	// The failed script keeps its original URL; the stored assets do not.
	if !strings.Contains(entry, `src="/b.js"`) {
		t.Errorf("failed asset should keep its original reference:\n%s", entry)
	}
	if strings.Contains(entry, `href="/a.css"`) {
		t.Error("stored stylesheet reference was not rewritten")
	}

	// Stored assets made it to disk despite the failure.
	for _, outcome := range manifest.Outcomes {
		if outcome.State != model.StateStored {
			continue
		}
		target := filepath.Join(outputDir, filepath.FromSlash(outcome.Path.LocalRelativePath))
		if _, err := os.Stat(target); err != nil {
			t.Errorf("stored asset missing on disk: %v", err)
		}
	}
}

// TestMirrorNestedStylesheetAssets verifies that url() references found
// inside a fetched stylesheet are mirrored too, and that the stored
// stylesheet is rewritten to point at them.
func TestMirrorNestedStylesheetAssets(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/css/main.css", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/css")
		_, _ = w.Write([]byte(`body { background: url("/images/bg.png"); }`))
	})
	mux.HandleFunc("/images/bg.png", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("bg-bytes"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	page := `<html><head><link rel="stylesheet" href="/css/main.css"></head><body></body></html>`

	manifest, _, outputDir := mirrorPage(t, srv, page)

	// The nested image joins the run even though the page never
	// references it directly.
	if manifest.AssetCount() != 2 {
		t.Fatalf("asset count = %d, want 2 (stylesheet + nested image)", manifest.AssetCount())
	}
	if manifest.Succeeded() != 2 {
		t.Fatalf("succeeded = %d, want 2", manifest.Succeeded())
	}

	var cssPath string
	for _, outcome := range manifest.Outcomes {
		if outcome.Ref.Kind == model.AssetStylesheet {
			cssPath = outcome.Path.LocalRelativePath
		}
	}
	body, err := os.ReadFile(filepath.Join(outputDir, filepath.FromSlash(cssPath)))
	if err != nil {
		t.Fatalf("stored stylesheet missing: %v", err)
	}
	if !strings.Contains(string(body), `url("../images/bg.png")`) {
		t.Errorf("stylesheet not rewritten to the local image:\n%s", body)
	}
}

// TestMirrorNestedFailureKeepsRemoteURL verifies rewrite consistency:
// a stylesheet whose nested asset failed keeps the original remote
// reference instead of pointing at a missing local file.
func TestMirrorNestedFailureKeepsRemoteURL(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/main.css", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/css")
		_, _ = w.Write([]byte(`body { background: url("/missing.png"); }`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	page := `<html><head><link rel="stylesheet" href="/main.css"></head><body></body></html>`

	manifest, _, outputDir := mirrorPage(t, srv, page)

	if manifest.Succeeded() != 1 || manifest.Failed() != 1 {
		t.Fatalf("succeeded/failed = %d/%d, want 1/1",
			manifest.Succeeded(), manifest.Failed())
	}

	var cssPath string
	for _, outcome := range manifest.Outcomes {
		if outcome.Ref.Kind == model.AssetStylesheet {
			cssPath = outcome.Path.LocalRelativePath
		}
	}
	body, err := os.ReadFile(filepath.Join(outputDir, filepath.FromSlash(cssPath)))
	if err != nil {
		t.Fatalf("stored stylesheet missing: %v", err)
	}
	if !strings.Contains(string(body), `url("/missing.png")`) {
		t.Errorf("failed nested reference should stay remote:\n%s", body)
	}
}

// TestMirrorRetries verifies the retry bound: with one retry configured
// a server that fails once then succeeds yields a stored asset.
func TestMirrorRetries(t *testing.T) {
	t.Parallel()

	var attempts int
	mux := http.NewServeMux()
	mux.HandleFunc("/flaky.png", func(w http.ResponseWriter, _ *http.Request) {
		attempts++
		if attempts == 1 {
			http.Error(w, "try again", http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte("png"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	page := `<html><body><img src="/flaky.png"></body></html>`

	manifest, _, _ := mirrorPage(t, srv, page, WithRetries(1))

	if manifest.Succeeded() != 1 {
		t.Fatalf("succeeded = %d, want 1 after retry", manifest.Succeeded())
	}
	if manifest.Outcomes[0].Attempts != 2 {
		t.Errorf("attempts = %d, want 2", manifest.Outcomes[0].Attempts)
	}
}

// TestMirrorNoRetryByDefault verifies that a failing asset is attempted
// exactly once unless retries are configured.
func TestMirrorNoRetryByDefault(t *testing.T) {
	t.Parallel()

	var attempts int
	mux := http.NewServeMux()
	mux.HandleFunc("/down.png", func(w http.ResponseWriter, _ *http.Request) {
		attempts++
		http.Error(w, "down", http.StatusServiceUnavailable)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	page := `<html><body><img src="/down.png"></body></html>`

	manifest, _, _ := mirrorPage(t, srv, page)

	if manifest.Failed() != 1 {
		t.Fatalf("failed = %d, want 1", manifest.Failed())
	}
	if attempts != 1 {
		t.Errorf("server saw %d attempts, want 1", attempts)
	}
	if manifest.Outcomes[0].Attempts != 1 {
		t.Errorf("recorded attempts = %d, want 1", manifest.Outcomes[0].Attempts)
	}
}

// TestMirrorNoAssets verifies that a page without assets still produces
// an entry file and an empty manifest.
func TestMirrorNoAssets(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NewServeMux())
	defer srv.Close()

	page := `<html><body><p>plain page</p></body></html>`

	manifest, entry, _ := mirrorPage(t, srv, page)

	if manifest.AssetCount() != 0 {
		t.Errorf("asset count = %d, want 0", manifest.AssetCount())
	}
	if !strings.Contains(entry, "plain page") {
		t.Error("entry file lost the page content")
	}
}
