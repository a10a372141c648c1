// Package render fetches pages through a headless Chrome instance so
// that script-built markup is visible to the parser. The Renderer is a
// drop-in replacement for the plain HTTP fetcher when analyzing
// single-page applications.
//
// Rendering requires a local Chrome or Chromium installation and is
// opt-in; the plain fetcher remains the default.
package render
