package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// writeConfig writes a config file into a temp dir and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultConfigFile)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

// TestLoadConfigFile verifies YAML parsing of sites and defaults.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
defaults:
  userAgent: "default-agent/1.0"
  delay: 2s

sites:
  example.com:
    cookie: "session=abc"
    headers:
      X-Custom: "yes"
  slow.example.org:
    delay: 5s
`)

	cf, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile failed: %v", err)
	}

	if cf.Defaults.UserAgent != "default-agent/1.0" {
		t.Errorf("default user agent = %q", cf.Defaults.UserAgent)
	}
	if cf.Defaults.Delay != 2*time.Second {
		t.Errorf("default delay = %v, want 2s", cf.Defaults.Delay)
	}
	if cf.Sites["example.com"].Cookie != "session=abc" {
		t.Errorf("site cookie = %q", cf.Sites["example.com"].Cookie)
	}
	if cf.Sites["example.com"].Headers["X-Custom"] != "yes" {
		t.Errorf("site headers = %v", cf.Sites["example.com"].Headers)
	}
	if cf.Sites["slow.example.org"].Delay != 5*time.Second {
		t.Errorf("site delay = %v, want 5s", cf.Sites["slow.example.org"].Delay)
	}
}

// TestLoadConfigFileEmpty verifies that an empty file still yields a
// usable File with an initialized site map.
func TestLoadConfigFileEmpty(t *testing.T) {
	t.Parallel()

	cf, err := LoadConfigFile(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("LoadConfigFile failed: %v", err)
	}
	if cf.Sites == nil {
		t.Error("Sites map should be initialized")
	}
}

// TestLoadConfigFileMissing verifies the sentinel for absent files.
func TestLoadConfigFileMissing(t *testing.T) {
	t.Parallel()

	_, err := LoadConfigFile(filepath.Join(t.TempDir(), "nope.yml"))
	if !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("expected ErrConfigNotFound, got %v", err)
	}
}

// TestLoadConfigFileInvalidYAML verifies parse errors are surfaced.
func TestLoadConfigFileInvalidYAML(t *testing.T) {
	t.Parallel()

	_, err := LoadConfigFile(writeConfig(t, "sites: [not: a: map"))
	if err == nil {
		t.Error("expected error for invalid YAML")
	}
}

// TestFindConfigFile verifies explicit-path behavior.
func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("explicit existing path is returned", func(t *testing.T) {
		t.Parallel()
		path := writeConfig(t, "")
		if got := FindConfigFile(path); got != path {
			t.Errorf("FindConfigFile(%q) = %q", path, got)
		}
	})

	t.Run("explicit missing path returns empty", func(t *testing.T) {
		t.Parallel()
		missing := filepath.Join(t.TempDir(), "absent.yml")
		if got := FindConfigFile(missing); got != "" {
			t.Errorf("FindConfigFile(%q) = %q, want empty", missing, got)
		}
	})
}

// TestGetSiteConfig verifies the defaults-plus-overrides merge.
func TestGetSiteConfig(t *testing.T) {
	t.Parallel()

	cf := &File{
		Defaults: SiteConfig{
			UserAgent: "default-agent/1.0",
			Delay:     2 * time.Second,
			Headers:   map[string]string{"X-From": "defaults"},
		},
		Sites: map[string]SiteConfig{
			"example.com": {
				Cookie:  "session=abc",
				Headers: map[string]string{"X-Site": "example"},
			},
			"slow.example.org": {
				UserAgent: "slow-agent/2.0",
				Delay:     5 * time.Second,
			},
		},
	}

	t.Run("unknown host gets defaults", func(t *testing.T) {
		t.Parallel()
		got := cf.GetSiteConfig("unknown.test")
		if got.UserAgent != "default-agent/1.0" || got.Delay != 2*time.Second {
			t.Errorf("got %+v, want defaults", got)
		}
	})

	t.Run("site values override defaults", func(t *testing.T) {
		t.Parallel()
		got := cf.GetSiteConfig("slow.example.org")
		if got.UserAgent != "slow-agent/2.0" {
			t.Errorf("user agent = %q", got.UserAgent)
		}
		if got.Delay != 5*time.Second {
			t.Errorf("delay = %v, want 5s", got.Delay)
		}
	})

	t.Run("unset site fields keep defaults", func(t *testing.T) {
		t.Parallel()
		got := cf.GetSiteConfig("example.com")
		if got.UserAgent != "default-agent/1.0" {
			t.Errorf("user agent = %q, want the default", got.UserAgent)
		}
		if got.Cookie != "session=abc" {
			t.Errorf("cookie = %q", got.Cookie)
		}
	})

	t.Run("headers merge instead of replacing", func(t *testing.T) {
		t.Parallel()
		got := cf.GetSiteConfig("example.com")
		if got.Headers["X-Site"] != "example" {
			t.Errorf("site header missing: %v", got.Headers)
		}
		if got.Headers["X-From"] != "defaults" {
			t.Errorf("default header lost in merge: %v", got.Headers)
		}
		if _, leaked := cf.Defaults.Headers["X-Site"]; leaked {
			t.Error("merge mutated the shared defaults map")
		}
	})
}
