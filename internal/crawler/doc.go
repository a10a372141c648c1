// Package crawler provides HTML content parsing and asset discovery.
//
// # Components
//
//   - Parser: builds a PageDocument from fetched HTML bytes, extracting
//     metadata and CSS blocks in a single pass
//   - Resolver: walks a parsed document once and enumerates every asset
//     reference (stylesheets, scripts, images, CSS url() occurrences),
//     resolved to absolute URLs and deduplicated
//
// Design decision: We use golang.org/x/net/html for parsing rather than
// regex because:
//  1. It correctly handles malformed HTML common on the web
//  2. Provides a proper DOM-like structure the mirror writer can rewrite
//  3. More maintainable than complex regex patterns
//
// Malformed HTML never fails parsing; x/net/html produces a best-effort
// tree for any non-empty input. Only empty or clearly non-HTML input
// yields an error.
package crawler
