// Package techdetect fingerprints the technologies behind a website
// from a single response: server and language headers, session cookie
// names, the meta generator tag, referenced script and stylesheet
// URLs, and markup patterns.
//
// Detection is best-effort by nature. Signatures are substring and
// regex matches that identify the common cases; absence of a detection
// never means absence of the technology.
package techdetect
