// Package database provides SQLite-based persistence for run history.
//
// Every completed scrape, clone, DNS, or tech run is recorded as one
// row with its target, timestamp, output path, and summary counts. The
// page hash column supports change detection: comparing the current
// fetch hash against the last recorded one tells whether a page
// changed between runs.
//
// The database lives under the XDG data directory and is entirely
// optional; runs proceed normally when history saving is disabled.
package database
