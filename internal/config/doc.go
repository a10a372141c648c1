// Package config defines webscout's configuration: CLI-driven defaults,
// validation, and the optional .webscout YAML file with per-site
// overrides (cookies, headers, pacing).
package config
