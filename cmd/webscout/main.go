// Package main provides the entry point for the webscout CLI.
//
// webscout is a website analysis toolkit: it scrapes pages into
// Markdown reports, mirrors a site's static assets for offline
// viewing, inspects DNS records, and fingerprints the technologies
// behind a site.
//
// Usage:
//
//	webscout scrape <url>
//	webscout clone <url>
//	webscout dns <domain>
//	webscout tech <url>
//
// See --help for all available options.
package main

// main is the entry point for webscout.
func main() {
	Execute()
}
