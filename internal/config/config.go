package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values. These mirror the original toolkit's
// defaults where applicable.
const (
	// DefaultTimeout bounds each HTTP request. 30 seconds is generous
	// enough for slow shared hosting while keeping a stuck run short.
	DefaultTimeout = 30 * time.Second

	// DefaultDelay is the minimum interval between consecutive requests
	// issued by one run. 1 second is a conservative politeness setting
	// that avoids tripping rate limits on most sites.
	DefaultDelay = 1 * time.Second

	// DefaultScrapeDir is the default output directory for scrape reports.
	DefaultScrapeDir = "reports"

	// DefaultCloneDir is the default output directory for mirrored sites.
	DefaultCloneDir = "mirrors"

	// DefaultRetries is the per-asset retry bound during mirroring.
	// No retry by default; a caller opting into retries accepts the
	// extra traffic.
	DefaultRetries = 0

	// DefaultDNSTimeout bounds individual DNS lookups. Lookups are much
	// cheaper than page fetches, so the bound is tighter.
	DefaultDNSTimeout = 10 * time.Second

	// AppName is the application name used for XDG directory paths.
	AppName = "webscout"
)

// Config holds all configuration options for webscout.
// It is populated from CLI flags and passed through the application via
// dependency injection rather than global state.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., FetchConfig, MirrorConfig) for simplicity. The number of options
// is manageable, and nesting would add complexity without benefit.
type Config struct {
	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration

	// Delay is the pacing-gate minimum interval between requests.
	Delay time.Duration

	// OutputDir is the output directory for the current mode. Empty
	// means use the mode's default (DefaultScrapeDir or DefaultCloneDir).
	OutputDir string

	// UserAgent overrides the User-Agent header. Empty means use the
	// Fetcher's realistic browser default.
	UserAgent string

	// Retries is the per-asset retry bound for clone runs.
	Retries int

	// Render fetches pages through a headless browser so script-built
	// markup is visible to the parser. Requires a local Chrome/Chromium.
	Render bool

	// Verbose enables debug-level log output.
	Verbose bool

	// JSONOutput switches reports from Markdown to JSON.
	JSONOutput bool

	// ConfigFilePath is an explicit site-config file path. Empty means
	// search the default locations.
	ConfigFilePath string

	// Sites holds per-site overrides loaded from the config file.
	Sites *File

	// NoHistory disables saving run summaries to the history database.
	NoHistory bool

	// Targets is the list of URLs or domains to process.
	Targets []string
}

// NewConfig creates a Config with default values.
//
// Design decision: We use a constructor instead of relying on zero
// values because most defaults are non-zero, and the constructor doubles
// as documentation of what they are.
func NewConfig() *Config {
	return &Config{
		Timeout: DefaultTimeout,
		Delay:   DefaultDelay,
		Retries: DefaultRetries,
	}
}

// XDGDataDir returns the XDG data directory for webscout, used for the
// run-history database.
// On Linux: ~/.local/share/webscout
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for webscout.
// On Linux: ~/.config/webscout
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks the configuration and returns the first problem found.
// Called once after CLI parsing, before any network work begins.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.Delay < 0 {
		return ErrInvalidDelay
	}
	if c.Retries < 0 {
		return ErrInvalidRetries
	}
	return nil
}
