package world

import "context"

// Store is the persistence backend a World is wired to. The mcdb package
// implements this interface on top of goleveldb; the world package's own
// tests build their Worlds with a nil Store.
//
// Store implementations must not retain s beyond the call: LoadSection and
// SaveSection are expected to run on the caller's goroutine or a transient
// worker, not to keep a reference for later.
type Store interface {
	// LoadSection decodes a previously-saved section into s, loading LOD
	// bands down to (and including) finestLOD. Returns an error wrapping
	// ErrIOError on backend failure, or ErrCorruptFile if the data is
	// unreadable.
	LoadSection(ctx context.Context, s *Section, finestLOD int32) error

	// SaveSection persists s. s must have LOD 0 loaded for every chunk.
	SaveSection(ctx context.Context, s *Section) error

	// SectionExists reports whether a section file exists at (sx, sy)
	// without loading it.
	SectionExists(sx, sy int32) (bool, error)

	// EnumerateAvailable calls fn once per section coordinate known to
	// exist in the backend, used to prime the World's Index availability
	// bitset at startup. fn returning false stops enumeration early.
	EnumerateAvailable(fn func(sx, sy int32) bool) error
}
