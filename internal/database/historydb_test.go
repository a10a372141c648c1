package database

import (
	"context"
	"testing"
	"time"
)

// openTestDB creates a HistoryDB in a temp directory.
func openTestDB(t *testing.T) *HistoryDB {
	t.Helper()

	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Close failed: %v", err)
		}
	})
	return db
}

// TestOpenWithoutCreate verifies that a missing database is an error
// when creation is disabled.
func TestOpenWithoutCreate(t *testing.T) {
	t.Parallel()

	_, err := Open(t.TempDir(), Options{CreateIfNotExists: false})
	if err == nil {
		t.Error("expected error for missing database")
	}
}

// TestSaveAndGetRun verifies the insert/read round trip including the
// JSON detail column.
func TestSaveAndGetRun(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	ctx := context.Background()

	id, err := db.SaveRun(ctx, &RunRecord{
		Mode:       ModeScrape,
		Target:     "https://example.com",
		OutputPath: "reports/example.com_20250601_120000.md",
		PageHash:   "abc123",
		StatusCode: 200,
		Detail: map[string]any{
			"title":     "Example",
			"css_count": float64(3),
		},
	})
	if err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}
	if id == 0 {
		t.Fatal("expected non-zero run ID")
	}

	record, err := db.GetRunByID(ctx, id)
	if err != nil {
		t.Fatalf("GetRunByID failed: %v", err)
	}
	if record == nil {
		t.Fatal("expected a record")
	}

	if record.Mode != ModeScrape {
		t.Errorf("mode = %q", record.Mode)
	}
	if record.Target != "https://example.com" {
		t.Errorf("target = %q", record.Target)
	}
	if record.PageHash != "abc123" {
		t.Errorf("page hash = %q", record.PageHash)
	}
	if record.StatusCode != 200 {
		t.Errorf("status = %d", record.StatusCode)
	}
	if record.Detail["title"] != "Example" {
		t.Errorf("detail = %v", record.Detail)
	}
	if record.Timestamp.IsZero() {
		t.Error("timestamp should be set by the database")
	}
}

// TestGetRunByIDMissing verifies the nil-without-error contract.
func TestGetRunByIDMissing(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)

	record, err := db.GetRunByID(context.Background(), 9999)
	if err != nil {
		t.Fatalf("GetRunByID failed: %v", err)
	}
	if record != nil {
		t.Errorf("expected nil for missing run, got %+v", record)
	}
}

// TestListRuns verifies filtering and newest-first ordering.
func TestListRuns(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	ctx := context.Background()

	runs := []RunRecord{
		{Mode: ModeScrape, Target: "https://a.example"},
		{Mode: ModeClone, Target: "https://a.example", AssetCount: 5, Succeeded: 4, Failed: 1},
		{Mode: ModeScrape, Target: "https://b.example"},
	}
	for i := range runs {
		if _, err := db.SaveRun(ctx, &runs[i]); err != nil {
			t.Fatalf("SaveRun failed: %v", err)
		}
	}

	t.Run("no filter returns all newest first", func(t *testing.T) {
		got, err := db.ListRuns(ctx, "", "", 0)
		if err != nil {
			t.Fatalf("ListRuns failed: %v", err)
		}
		if len(got) != 3 {
			t.Fatalf("got %d runs, want 3", len(got))
		}
		if got[0].Target != "https://b.example" {
			t.Errorf("newest run first, got %q", got[0].Target)
		}
	})

	t.Run("mode filter", func(t *testing.T) {
		got, err := db.ListRuns(ctx, ModeClone, "", 0)
		if err != nil {
			t.Fatalf("ListRuns failed: %v", err)
		}
		if len(got) != 1 || got[0].Succeeded != 4 {
			t.Errorf("got %+v, want the single clone run", got)
		}
	})

	t.Run("target filter", func(t *testing.T) {
		got, err := db.ListRuns(ctx, "", "https://a.example", 0)
		if err != nil {
			t.Fatalf("ListRuns failed: %v", err)
		}
		if len(got) != 2 {
			t.Errorf("got %d runs, want 2", len(got))
		}
	})

	t.Run("limit", func(t *testing.T) {
		got, err := db.ListRuns(ctx, "", "", 1)
		if err != nil {
			t.Fatalf("ListRuns failed: %v", err)
		}
		if len(got) != 1 {
			t.Errorf("got %d runs, want 1", len(got))
		}
	})
}

// TestHasRecentRun verifies the time-window check.
func TestHasRecentRun(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	ctx := context.Background()

	if _, err := db.SaveRun(ctx, &RunRecord{Mode: ModeScrape, Target: "https://example.com"}); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	recent, err := db.HasRecentRun(ctx, ModeScrape, "https://example.com", time.Hour)
	if err != nil {
		t.Fatalf("HasRecentRun failed: %v", err)
	}
	if !recent {
		t.Error("run saved just now should count as recent")
	}

	other, err := db.HasRecentRun(ctx, ModeClone, "https://example.com", time.Hour)
	if err != nil {
		t.Fatalf("HasRecentRun failed: %v", err)
	}
	if other {
		t.Error("different mode should not count")
	}
}

// TestLastPageHash verifies hash retrieval and its empty-result contract.
func TestLastPageHash(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	ctx := context.Background()

	hash, err := db.LastPageHash(ctx, "https://example.com")
	if err != nil {
		t.Fatalf("LastPageHash failed: %v", err)
	}
	if hash != "" {
		t.Errorf("expected empty hash for unknown target, got %q", hash)
	}

	for _, h := range []string{"hash-one", "hash-two"} {
		if _, err := db.SaveRun(ctx, &RunRecord{
			Mode:     ModeScrape,
			Target:   "https://example.com",
			PageHash: h,
		}); err != nil {
			t.Fatalf("SaveRun failed: %v", err)
		}
	}

	hash, err = db.LastPageHash(ctx, "https://example.com")
	if err != nil {
		t.Fatalf("LastPageHash failed: %v", err)
	}
	if hash != "hash-two" {
		t.Errorf("hash = %q, want the most recent one", hash)
	}
}

// TestParseTimestamp covers the formats SQLite hands back.
func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name, in string
		wantZero bool
	}{
		{"sqlite default", "2025-06-01 12:30:00", false},
		{"iso with z", "2025-06-01T12:30:00Z", false},
		{"rfc3339", "2025-06-01T12:30:00+02:00", false},
		{"garbage", "not a timestamp", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := parseTimestamp(tt.in)
			if got.IsZero() != tt.wantZero {
				t.Errorf("parseTimestamp(%q) = %v, wantZero=%v", tt.in, got, tt.wantZero)
			}
		})
	}
}
