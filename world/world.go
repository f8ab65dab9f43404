// Package world implements the streaming, editable block-volume engine:
// chunks of voxels organized into resizable sections, a sparse world
// index, a distance-driven LOD and streaming scheduler, and the section
// file format used to persist them. Meshing, collision and animation live
// in sibling packages that operate on stable, read-only snapshots of the
// types defined here.
package world

import (
	"context"
	"fmt"
	"sync"

	"github.com/ashenforge/voxelworld/world/chunk"
	"github.com/ashenforge/voxelworld/world/geom"
	"github.com/ashenforge/voxelworld/world/palette"
)

// World owns the section index, the configuration it was built with, and
// (optionally) a persistence backend and block generator. It is meant to
// be driven by a single cooperative "world thread": all exported methods
// except Scheduler.Step's worker dispatch assume a single caller. The type
// does no locking of its own: no method takes mu, and concurrent misuse is
// neither prevented nor detected.
type World struct {
	conf  Config
	index *Index
	store Store

	mu sync.Mutex
}

// New constructs a World. conf is validated and defaulted (see
// Config.Validate); store may be nil for an in-memory-only world with no
// persistence.
func New(conf Config, store Store) (*World, error) {
	conf.fillDefaults()
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	w := &World{conf: conf, index: newIndex(), store: store}
	if store != nil {
		if err := store.EnumerateAvailable(func(sx, sy int32) bool {
			w.index.MarkOnDisk(sx, sy)
			return true
		}); err != nil {
			return nil, fmt.Errorf("voxelworld: enumerate existing sections: %w", err)
		}
	}
	return w, nil
}

// Config returns a copy of the configuration the world was built with.
func (w *World) Config() Config { return w.conf }

// Palette returns the block-type palette backing this world's values.
func (w *World) Palette() *palette.Palette { return w.conf.Palette }

// Index returns the world's section index, for callers (the scheduler,
// tests, diagnostics) that need direct access to residency bookkeeping.
func (w *World) Index() *Index { return w.index }

// Section returns the resident section at (sx, sy), or nil if it isn't
// currently loaded.
func (w *World) Section(sx, sy int32) *Section { return w.index.Get(sx, sy) }

// CreateSection installs a brand-new, empty section at (sx, sy) if one
// isn't already resident.
func (w *World) CreateSection(sx, sy int32) *Section {
	if s := w.index.Get(sx, sy); s != nil {
		return s
	}
	s := newSection(w, sx, sy)
	w.index.Put(s)
	return s
}

// DeleteSection drops a resident section from the index without saving
// it. Callers that want the data preserved should save first.
func (w *World) DeleteSection(sx, sy int32) {
	w.index.Remove(sx, sy)
	w.index.ClearAvailability(sx, sy)
}

// GetBlock reads the LOD-0 block value at global block coordinates. ok is
// false when no section/chunk is resident and editable at that location.
func (w *World) GetBlock(bx, by, bz int32) (v chunk.Value, ok bool) {
	sx, sy, relCX, relCY, cz, lx, ly, lz := BlockToChunk(bx, by, bz, w.conf.ChunkSize, w.conf.SectionSize)
	s := w.index.Get(sx, sy)
	if s == nil {
		return chunk.Air, false
	}
	c := s.GetChunk(relCX, relCY, cz)
	if c == nil || !c.Editable() {
		return chunk.Air, false
	}
	return c.GetBlock(0, lx, ly, lz), true
}

// GetData reads the LOD-0 block-data byte at global block coordinates.
func (w *World) GetData(bx, by, bz int32) (d chunk.Data, ok bool) {
	sx, sy, relCX, relCY, cz, lx, ly, lz := BlockToChunk(bx, by, bz, w.conf.ChunkSize, w.conf.SectionSize)
	s := w.index.Get(sx, sy)
	if s == nil {
		return 0, false
	}
	c := s.GetChunk(relCX, relCY, cz)
	if c == nil || !c.Editable() {
		return 0, false
	}
	return c.GetData(0, lx, ly, lz), true
}

// SetBlock writes a block value and data byte at global block coordinates,
// re-derives the coarser LODs that depend on it, and advances the owning
// chunk's mesh state so the scheduler picks it up for remeshing. If
// createMissing is false, a missing section or chunk yields
// ErrOutOfRangeCoord instead of being allocated.
func (w *World) SetBlock(bx, by, bz int32, v chunk.Value, d chunk.Data, createMissing bool) error {
	sx, sy, relCX, relCY, cz, lx, ly, lz := BlockToChunk(bx, by, bz, w.conf.ChunkSize, w.conf.SectionSize)

	s := w.index.Get(sx, sy)
	if s == nil {
		if !createMissing {
			return ErrOutOfRangeCoord
		}
		s = w.CreateSection(sx, sy)
	}

	c := s.GetChunk(relCX, relCY, cz)
	if c == nil {
		if !createMissing {
			return ErrOutOfRangeCoord
		}
		c = s.CreateChunk(relCX, relCY, cz)
	}
	if !c.Editable() {
		return fmt.Errorf("voxelworld: chunk (%d,%d,%d) is not fully loaded at LOD 0", c.ChunkX, c.ChunkY, c.ChunkZ)
	}

	c.SetBlock(0, lx, ly, lz, v)
	c.SetData(0, lx, ly, lz, d)
	c.UpdateLODs(0, lx, ly, lz)
	c.SetMeshState(c.MeshState().Edited())
	s.SetLoadState(Changed)
	return nil
}

// neighbourChunk resolves the chunk across a face boundary from (sec,
// relX, relY, chunkZ), crossing into an adjacent section if necessary.
// Returns nil if that neighbour's section isn't resident or the chunk
// itself isn't populated.
func (w *World) neighbourChunk(sec *Section, relX, relY, chunkZ int32, f geom.Face) *chunk.Chunk {
	dx, dy, dz := f.Delta()

	gcx := sec.SectionX*w.conf.SectionSize + relX + dx
	gcy := sec.SectionY*w.conf.SectionSize + relY + dy
	gcz := chunkZ + dz

	nsx, relCX := SplitSection(gcx, w.conf.SectionSize)
	nsy, relCY := SplitSection(gcy, w.conf.SectionSize)

	ns := w.index.Get(nsx, nsy)
	if ns == nil {
		return nil
	}
	return ns.GetChunk(relCX, relCY, gcz)
}

// SaveSection explicitly persists the resident section at (sx, sy) if it
// has unsaved changes, without waiting for the scheduler to unload it.
func (w *World) SaveSection(sx, sy int32) error {
	s := w.index.Get(sx, sy)
	if s == nil {
		return ErrOutOfRangeCoord
	}
	if !s.IsChanged() {
		return nil
	}
	return w.saveSection(s)
}

// saveSection persists a resident, fully-loaded (LOD 0) section through
// the world's store. Returns an error wrapping ErrIOError on backend
// failure; the section's load state is left Changed so the caller can
// retry.
func (w *World) saveSection(s *Section) error {
	if w.store == nil {
		return nil
	}
	if err := w.store.SaveSection(context.Background(), s); err != nil {
		return fmt.Errorf("%w: %v", ErrIOError, err)
	}
	s.SetLoadState(Loaded)
	return nil
}
