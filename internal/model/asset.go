package model

import "time"

// AssetKind classifies a discovered asset reference.
//
// Design decision: We use an explicit tagged type rather than inferring
// the kind from the URL extension at each use site because:
//  1. The kind is known from the referencing element, which is more
//     reliable than the URL (many asset URLs have no extension)
//  2. Report writers and the path mapper branch on it
//  3. It keeps classification logic in exactly one place (the resolver)
type AssetKind string

// Asset kinds.
const (
	// AssetStylesheet is a CSS file referenced by <link rel="stylesheet">.
	AssetStylesheet AssetKind = "stylesheet"
	// AssetScript is a JavaScript file referenced by <script src>.
	AssetScript AssetKind = "script"
	// AssetImage is an image referenced by <img src>, a favicon link,
	// or a url(...) occurrence in CSS.
	AssetImage AssetKind = "image"
	// AssetOther is any other referenced resource (fonts, manifests, ...).
	AssetOther AssetKind = "other"
)

// String returns the string representation of the asset kind.
func (k AssetKind) String() string {
	if k == "" {
		return string(AssetOther)
	}
	return string(k)
}

// AssetReference is one discovered asset, resolved to an absolute URL.
// The resolver deduplicates references before returning them, so within
// one run each distinct absolute URL appears at most once.
type AssetReference struct {
	// Kind classifies the asset.
	Kind AssetKind `json:"kind"`

	// AbsoluteURL is the fully resolved URL of the asset.
	AbsoluteURL string `json:"absolute_url"`
}

// MappedPath binds an absolute URL to its local relative path.
// Within one mirror run the mapping is a bijection: distinct URLs map to
// distinct paths, and the same URL always maps to the same path.
type MappedPath struct {
	// AbsoluteURL is the asset's absolute URL.
	AbsoluteURL string `json:"absolute_url"`

	// LocalRelativePath is the filesystem-safe path relative to the
	// mirror output directory, using forward slashes.
	LocalRelativePath string `json:"local_relative_path"`
}

// AssetState is the lifecycle state of one asset during a mirror run.
// Transitions: StatePending -> StateFetching -> StateStored or StateFailed.
// With retries configured, StateFailed may transition back to StateFetching
// up to the retry bound.
type AssetState string

// Asset states.
const (
	// StatePending means the asset has not been fetched yet.
	StatePending AssetState = "pending"
	// StateFetching means a fetch for the asset is in flight.
	StateFetching AssetState = "fetching"
	// StateStored means the asset was fetched and written to disk.
	StateStored AssetState = "stored"
	// StateFailed means the asset could not be fetched or written.
	StateFailed AssetState = "failed"
)

// AssetOutcome records the terminal state of one asset in a mirror run.
type AssetOutcome struct {
	// Ref is the asset reference that was processed.
	Ref AssetReference `json:"ref"`

	// Path is the local path the asset was (or would have been) stored at.
	Path MappedPath `json:"path"`

	// State is the terminal state: StateStored or StateFailed.
	State AssetState `json:"state"`

	// Reason describes why the asset failed. Empty for stored assets.
	Reason string `json:"reason,omitempty"`

	// Attempts is the number of fetch attempts made.
	Attempts int `json:"attempts"`
}

// Manifest is the per-run record of every asset's fetch/store outcome.
// It is built incrementally during a mirror run and never mutated after
// the run ends.
type Manifest struct {
	// URL is the page the mirror run started from.
	URL string `json:"url"`

	// EntryFile is the path of the rewritten HTML entry file, relative
	// to the output directory.
	EntryFile string `json:"entry_file"`

	// OutputDir is the absolute output directory of the run.
	OutputDir string `json:"output_dir"`

	// Outcomes lists every asset in processing order.
	Outcomes []AssetOutcome `json:"outcomes"`

	// ClonedAt records when the mirror run started.
	ClonedAt time.Time `json:"cloned_at"`
}

// FailedOutcomes returns the outcomes of assets that ended in StateFailed,
// in processing order.
func (m *Manifest) FailedOutcomes() []AssetOutcome {
	failed := make([]AssetOutcome, 0)
	for _, o := range m.Outcomes {
		if o.State == StateFailed {
			failed = append(failed, o)
		}
	}
	return failed
}

// Succeeded returns the number of stored assets.
func (m *Manifest) Succeeded() int {
	return m.countState(StateStored)
}

// Failed returns the number of failed assets.
func (m *Manifest) Failed() int {
	return m.countState(StateFailed)
}

// AssetCount returns the total number of assets in the manifest.
func (m *Manifest) AssetCount() int {
	return len(m.Outcomes)
}

func (m *Manifest) countState(state AssetState) int {
	n := 0
	for _, o := range m.Outcomes {
		if o.State == state {
			n++
		}
	}
	return n
}
