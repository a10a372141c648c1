// Package fetch provides rate-limited HTTP retrieval for webscout.
//
// The Fetcher is the sole network entry point of the toolkit. Every page,
// stylesheet, and asset download goes through one Fetcher instance, which
// enforces two guarantees:
//
//   - Pacing: a configurable minimum delay between the start times of
//     consecutive requests issued through the same instance. The gate is
//     a lock-protected slot reservation, so the guarantee holds even if
//     callers share a Fetcher across goroutines.
//   - Timeout: every request is bounded by the configured timeout; no
//     call blocks indefinitely.
//
// The Fetcher never retries on its own. Retry policy belongs to the
// caller (the mirror writer applies a bounded per-asset retry).
//
// Failures are classified into three kinds: connection errors (DNS/TCP),
// timeouts, and HTTP errors (non-2xx status). HTTP errors still return
// the response body so callers can inspect error pages.
package fetch
