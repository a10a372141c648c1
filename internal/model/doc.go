// Package model defines the core data structures shared across webscout.
//
// All entities in this package are scoped to a single invocation (one
// scrape, clone, dns, or tech run). They are built up during the run,
// rendered into a report, and discarded. Nothing in this package holds
// cross-run state; run history lives in the database package.
package model
