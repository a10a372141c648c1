package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// Run modes recorded in history.
const (
	ModeScrape = "scrape"
	ModeClone  = "clone"
	ModeDNS    = "dns"
	ModeTech   = "tech"
)

// HistoryDB provides SQLite-based storage for run history.
// It manages connection pooling and provides methods for saving and
// querying past runs.
//
// Design decision: We use a single database file for all run modes
// rather than separate files per mode. This keeps "what did I analyze
// recently" a single query and simplifies backup.
type HistoryDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a HistoryDB at the specified directory.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, "webscout.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite connection string: mode=rw prevents creating
	// new files, mode=rwc allows creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer; multiple connections don't help.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Close closes the database connection.
func (hdb *HistoryDB) Close() error {
	return hdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (hdb *HistoryDB) createTables() error {
	schema := `
	-- Runs store one row per completed scrape/clone/dns/tech invocation
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		mode TEXT NOT NULL,
		target TEXT NOT NULL,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		output_path TEXT,
		page_hash TEXT,
		status_code INTEGER,
		asset_count INTEGER DEFAULT 0,
		succeeded INTEGER DEFAULT 0,
		failed INTEGER DEFAULT 0,
		detail TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_runs_mode ON runs(mode);
	CREATE INDEX IF NOT EXISTS idx_runs_target ON runs(target);
	CREATE INDEX IF NOT EXISTS idx_runs_timestamp ON runs(timestamp);
	`

	_, err := hdb.db.ExecContext(context.Background(), schema)
	return err
}

// RunRecord represents one stored run.
type RunRecord struct {
	// ID is the unique identifier of the run in the database.
	ID int64

	// Mode is the run mode: ModeScrape, ModeClone, ModeDNS, or ModeTech.
	Mode string

	// Target is the URL or domain the run was invoked with.
	Target string

	// Timestamp is when the run was recorded.
	Timestamp time.Time

	// OutputPath is the report file or mirror directory written.
	OutputPath string

	// PageHash is the SHA-256 of the fetched page, for change detection
	// across runs. Empty for DNS runs.
	PageHash string

	// StatusCode is the HTTP status of the page fetch, when applicable.
	StatusCode int

	// AssetCount, Succeeded, and Failed summarize clone runs.
	AssetCount int
	Succeeded  int
	Failed     int

	// Detail holds mode-specific extra data as a JSON-friendly map.
	Detail map[string]any
}

// SaveRun inserts a run record and returns its ID.
func (hdb *HistoryDB) SaveRun(ctx context.Context, record *RunRecord) (int64, error) {
	detailJSON, err := json.Marshal(record.Detail)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize detail: %w", err)
	}

	query := `
	INSERT INTO runs (mode, target, output_path, page_hash, status_code, asset_count, succeeded, failed, detail)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := hdb.db.ExecContext(ctx, query,
		record.Mode,
		record.Target,
		record.OutputPath,
		record.PageHash,
		record.StatusCode,
		record.AssetCount,
		record.Succeeded,
		record.Failed,
		string(detailJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run record: %w", err)
	}

	return result.LastInsertId()
}

// ListRuns queries run history with optional mode and target filters,
// newest first. A limit of 0 returns all matching rows.
func (hdb *HistoryDB) ListRuns(ctx context.Context, mode, target string, limit int) ([]RunRecord, error) {
	query := `
	SELECT id, mode, target, timestamp, output_path, page_hash, status_code, asset_count, succeeded, failed, detail
	FROM runs
	WHERE 1=1
	`
	args := make([]any, 0)

	if mode != "" {
		query += " AND mode = ?"
		args = append(args, mode)
	}
	if target != "" {
		query += " AND target = ?"
		args = append(args, target)
	}

	query += " ORDER BY timestamp DESC, id DESC"

	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := hdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var results []RunRecord
	for rows.Next() {
		record, err := scanRunRecord(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, record)
	}

	return results, rows.Err()
}

// GetRunByID retrieves a run record by its database ID.
// Returns nil without error when no such run exists.
func (hdb *HistoryDB) GetRunByID(ctx context.Context, id int64) (*RunRecord, error) {
	query := `
	SELECT id, mode, target, timestamp, output_path, page_hash, status_code, asset_count, succeeded, failed, detail
	FROM runs
	WHERE id = ?
	`

	rows, err := hdb.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}

	record, err := scanRunRecord(rows)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// HasRecentRun checks if a target was processed in the given mode
// within the specified duration.
func (hdb *HistoryDB) HasRecentRun(ctx context.Context, mode, target string, duration time.Duration) (bool, error) {
	query := `
	SELECT COUNT(*) FROM runs
	WHERE mode = ? AND target = ? AND timestamp > datetime('now', ?)
	`

	// SQLite datetime modifier format
	modifier := fmt.Sprintf("-%d seconds", int(duration.Seconds()))

	var count int
	err := hdb.db.QueryRowContext(ctx, query, mode, target, modifier).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check recent run: %w", err)
	}

	return count > 0, nil
}

// LastPageHash returns the most recent page hash recorded for a target,
// or "" when the target has no runs with a hash.
func (hdb *HistoryDB) LastPageHash(ctx context.Context, target string) (string, error) {
	query := `
	SELECT page_hash FROM runs
	WHERE target = ? AND page_hash != ''
	ORDER BY timestamp DESC, id DESC
	LIMIT 1
	`

	var hash string
	err := hdb.db.QueryRowContext(ctx, query, target).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get last page hash: %w", err)
	}

	return hash, nil
}

// scanRunRecord reads one run row.
func scanRunRecord(rows *sql.Rows) (RunRecord, error) {
	var record RunRecord
	var timestamp string
	var detailJSON sql.NullString

	err := rows.Scan(
		&record.ID,
		&record.Mode,
		&record.Target,
		&timestamp,
		&record.OutputPath,
		&record.PageHash,
		&record.StatusCode,
		&record.AssetCount,
		&record.Succeeded,
		&record.Failed,
		&detailJSON,
	)
	if err != nil {
		return record, fmt.Errorf("failed to scan run record: %w", err)
	}

	record.Timestamp = parseTimestamp(timestamp)

	if detailJSON.Valid && detailJSON.String != "" {
		if err := json.Unmarshal([]byte(detailJSON.String), &record.Detail); err != nil {
			record.Detail = nil
		}
	}

	return record, nil
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// SQLite may return timestamps in different formats depending on configuration.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
