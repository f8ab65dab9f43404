package world

import "errors"

// NeighbourNotReady and WorkerStale are deliberately not represented as
// errors: a request blocked on a missing neighbour just stays enqueued,
// and a stale worker result is discarded silently, so both are plain bool
// returns at their call sites instead.
var (
	// ErrCorruptFile means a section or index file had the wrong magic
	// number, was truncated, or its grid parameters disagreed with the
	// world's. Surfaced to the caller; nothing is partially loaded.
	ErrCorruptFile = errors.New("voxelworld: corrupt file")

	// ErrMismatchedConfig means a world was constructed with a chunk size
	// that is not a power of two in [8, 64], or with an LOD count that
	// leaves the coarsest LOD narrower than 2 blocks per edge.
	ErrMismatchedConfig = errors.New("voxelworld: mismatched world configuration")

	// ErrOutOfRangeCoord means an edit targeted a coordinate outside any
	// existing section and the caller asked not to create one.
	ErrOutOfRangeCoord = errors.New("voxelworld: coordinate outside any existing section")

	// ErrIOError wraps a storage-backend failure. On load, the section
	// remains non-resident; on save, it remains Changed and is retried on
	// the next unload or explicit save.
	ErrIOError = errors.New("voxelworld: storage backend error")
)
