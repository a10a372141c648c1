// Package scraper orchestrates single-page analysis: fetch the page,
// parse its markup, collect inline and external CSS, and write a
// Markdown or JSON report file.
//
// All HTTP requests of one run go through one Fetcher so the pacing
// gate's minimum-interval guarantee covers the page and every external
// stylesheet it references. BatchProcessor scrapes multiple URLs
// concurrently by giving each URL its own Scraper.
package scraper
