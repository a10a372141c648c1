// Package mirror turns a parsed page and its discovered assets into a
// self-consistent local copy.
//
// # Components
//
//   - PathMapper: deterministically maps absolute URLs to collision-free,
//     filesystem-safe relative paths
//   - Writer: downloads each asset through the shared Fetcher, stores it
//     at its mapped path, and rewrites the page's references so the
//     mirror works from disk
//
// # Failure model
//
// Asset failures are partial: a failed asset is recorded in the manifest
// with its reason and the page keeps its original URL for that reference.
// The only error a mirror run itself can return is a filesystem failure
// writing the rewritten entry page.
//
// # Sequencing
//
// Assets are processed strictly sequentially through the Fetcher's pacing
// gate. This is a deliberate simplicity/rate-limit trade-off, not an
// accidental limitation: the pacing invariant is defined per Fetcher
// instance, and sequential processing satisfies it without extra
// synchronization. The gate itself is lock-protected, so a future
// concurrent writer would still preserve the minimum-interval guarantee.
package mirror
