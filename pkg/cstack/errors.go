package cstack

import "errors"

// The four failure classes of the pipeline. All of them are fatal to
// the current run - retrying a deterministic transform on the same
// input reproduces the same failure - so callers get the first error,
// wrapped with the band and stage it came from.
var (
	// ErrData - malformed or degenerate input array (empty, all-NaN).
	ErrData = errors.New("degenerate input data")

	// ErrAlignment - source and reference coordinate systems cannot be
	// reconciled (missing or singular pixel/sky mapping).
	ErrAlignment = errors.New("incompatible coordinate systems")

	// ErrConfig - caller-supplied configuration references an entity
	// that doesn't exist in the current run.
	ErrConfig = errors.New("configuration references unknown entity")

	// ErrShape - layers destined for one composite disagree on shape.
	// The alignment engine guarantees uniform shape, so seeing this
	// means a bug there, not bad user input.
	ErrShape = errors.New("layer shape mismatch")
)
