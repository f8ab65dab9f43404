package world

import (
	"github.com/ashenforge/voxelworld/world/chunk"
	"github.com/ashenforge/voxelworld/world/geom"
	"github.com/google/uuid"
)

// LoadState is a Section's persistence state machine.
type LoadState uint8

const (
	Loaded LoadState = iota
	Changed
	Generating
)

// EntityRef is the small record a Section keeps for an entity whose
// authoritative home is this tile. The entity object model itself lives
// elsewhere; this is only the bookkeeping a Section needs to know which
// entities belong to it and where they are.
type EntityRef struct {
	ID             uuid.UUID
	Position       [3]float32
	BoundingBox    geom.Box
	BoundingSphere float32
}

// Section is a 2D tile of chunks: section_size x section_size in X/Y, with
// a variable, independently resizable Z range.
type Section struct {
	world       *World
	sectionSize int32
	chunkSize   int32
	lodLevels   int32
	SectionX    int32
	SectionY    int32

	minChunkZ, maxChunkZ int32
	chunkCountZ          int32

	chunks       []*chunk.Chunk
	availability []bool // same index space as chunks

	loadState LoadState

	entities map[uuid.UUID]*EntityRef

	boundingBox geom.Box
}

// newSection constructs an empty Section with no chunk storage allocated.
// Storage is allocated by Create, DecodeFrom, or the first CreateChunk.
func newSection(w *World, sx, sy int32) *Section {
	return &Section{
		world:       w,
		sectionSize: w.conf.SectionSize,
		chunkSize:   w.conf.ChunkSize,
		lodLevels:   w.conf.LODLevels,
		SectionX:    sx,
		SectionY:    sy,
		entities:    make(map[uuid.UUID]*EntityRef),
		loadState:   Changed,
	}
}

// Create allocates chunk storage over [minChunkZ, maxChunkZ] inclusive.
func (s *Section) Create(minChunkZ, maxChunkZ int32) {
	s.initChunkArray(minChunkZ, maxChunkZ)
	s.loadState = Changed
	s.recomputeBounds()
}

func (s *Section) initChunkArray(minChunkZ, maxChunkZ int32) {
	s.minChunkZ, s.maxChunkZ = minChunkZ, maxChunkZ
	s.chunkCountZ = maxChunkZ - minChunkZ + 1
	n := s.chunkCountZ * s.sectionSize * s.sectionSize
	s.chunks = make([]*chunk.Chunk, n)
	s.availability = make([]bool, n)
}

func (s *Section) chunkArrayIndex(relX, relY, chunkZ int32) int32 {
	return (chunkZ-s.minChunkZ)*s.sectionSize*s.sectionSize + relY*s.sectionSize + relX
}

// LoadState returns the section's persistence state.
func (s *Section) LoadState() LoadState { return s.loadState }

// SetLoadState overwrites the persistence state directly (used by the
// scheduler when a generator job starts/finishes).
func (s *Section) SetLoadState(st LoadState) { s.loadState = st }

// IsChanged reports whether the section has unsaved modifications:
// anything other than Loaded counts as changed for the scheduler's "must
// save before unload" check; Generating sections are never unloaded at
// all, see Scheduler.
func (s *Section) IsChanged() bool { return s.loadState != Loaded }

// MinChunkZ and MaxChunkZ return the section's current Z range.
func (s *Section) MinChunkZ() int32 { return s.minChunkZ }
func (s *Section) MaxChunkZ() int32 { return s.maxChunkZ }

// BoundingBox returns the section's world-space AABB across its full Z
// range.
func (s *Section) BoundingBox() geom.Box { return s.boundingBox }

func (s *Section) recomputeBounds() {
	baseX := float32(s.SectionX * s.sectionSize * s.chunkSize)
	baseY := float32(s.SectionY * s.sectionSize * s.chunkSize)
	sizeXY := float32(s.sectionSize * s.chunkSize)
	minZ := float32(s.minChunkZ * s.chunkSize)
	maxZ := float32((s.maxChunkZ + 1) * s.chunkSize)
	s.boundingBox = geom.Box{
		Min: [3]float32{baseX, baseY, minZ},
		Max: [3]float32{baseX + sizeXY, baseY + sizeXY, maxZ},
	}
}

// ChunkAvailable reports whether a chunk slot at the given relative/chunkZ
// coordinate is populated, without allocating it.
func (s *Section) ChunkAvailable(relX, relY, chunkZ int32) bool {
	if s.chunks == nil || chunkZ < s.minChunkZ || chunkZ > s.maxChunkZ {
		return false
	}
	return s.availability[s.chunkArrayIndex(relX, relY, chunkZ)]
}

// GetChunk returns the chunk at the given relative/chunkZ coordinate, or
// nil if absent.
func (s *Section) GetChunk(relX, relY, chunkZ int32) *chunk.Chunk {
	if s.chunks == nil || chunkZ < s.minChunkZ || chunkZ > s.maxChunkZ {
		return nil
	}
	return s.chunks[s.chunkArrayIndex(relX, relY, chunkZ)]
}

// CreateChunk allocates a new, fully-zeroed chunk at the given coordinate,
// growing the section's Z range if needed, and marks the section Changed.
func (s *Section) CreateChunk(relX, relY, chunkZ int32) *chunk.Chunk {
	if s.chunks == nil {
		s.initChunkArray(chunkZ, chunkZ)
	} else if chunkZ < s.minChunkZ || chunkZ > s.maxChunkZ {
		s.resize(min32(s.minChunkZ, chunkZ), max32(s.maxChunkZ, chunkZ))
	}
	idx := s.chunkArrayIndex(relX, relY, chunkZ)
	if s.chunks[idx] != nil {
		return s.chunks[idx]
	}
	globalChunkX := s.SectionX*s.sectionSize + relX
	globalChunkY := s.SectionY*s.sectionSize + relY
	c := chunk.New(s.chunkSize, s.lodLevels, globalChunkX, globalChunkY, chunkZ)
	c.Create()
	s.chunks[idx] = c
	s.availability[idx] = true
	s.loadState = Changed
	s.recomputeBounds()
	return c
}

// DeleteChunk removes a chunk from the section, if present, and marks the
// section Changed.
func (s *Section) DeleteChunk(relX, relY, chunkZ int32) {
	if s.chunks == nil || chunkZ < s.minChunkZ || chunkZ > s.maxChunkZ {
		return
	}
	idx := s.chunkArrayIndex(relX, relY, chunkZ)
	if s.chunks[idx] == nil {
		return
	}
	s.chunks[idx].DropRenderProxy()
	s.chunks[idx] = nil
	s.availability[idx] = false
	s.loadState = Changed
}

// resize grows the chunk array to cover [newMin, newMax], preserving
// existing chunks at their relative (rx, ry) but shifted Z index. Cost is
// O(existing chunk count).
func (s *Section) resize(newMin, newMax int32) {
	old := s.chunks
	oldAvail := s.availability
	oldMin := s.minChunkZ
	oldCountZ := s.chunkCountZ

	s.initChunkArray(newMin, newMax)
	for cz := int32(0); cz < oldCountZ; cz++ {
		globalZ := oldMin + cz
		for ry := int32(0); ry < s.sectionSize; ry++ {
			for rx := int32(0); rx < s.sectionSize; rx++ {
				oldIdx := cz*s.sectionSize*s.sectionSize + ry*s.sectionSize + rx
				if old[oldIdx] == nil {
					continue
				}
				newIdx := s.chunkArrayIndex(rx, ry, globalZ)
				s.chunks[newIdx] = old[oldIdx]
				s.availability[newIdx] = oldAvail[oldIdx]
			}
		}
	}
}

// EnumerateChunks calls fn for every populated chunk in the section. fn
// returning false stops iteration early.
func (s *Section) EnumerateChunks(fn func(relX, relY, chunkZ int32, c *chunk.Chunk) bool) {
	if s.chunks == nil {
		return
	}
	for cz := s.minChunkZ; cz <= s.maxChunkZ; cz++ {
		for ry := int32(0); ry < s.sectionSize; ry++ {
			for rx := int32(0); rx < s.sectionSize; rx++ {
				c := s.chunks[s.chunkArrayIndex(rx, ry, cz)]
				if c == nil {
					continue
				}
				if !fn(rx, ry, cz, c) {
					return
				}
			}
		}
	}
}

// AddEntity records that an entity's authoritative home is this section.
func (s *Section) AddEntity(e *EntityRef) { s.entities[e.ID] = e }

// MoveEntity updates a previously-added entity's cached position/bounds.
func (s *Section) MoveEntity(e *EntityRef) { s.entities[e.ID] = e }

// RemoveEntity drops an entity from this section's list.
func (s *Section) RemoveEntity(id uuid.UUID) { delete(s.entities, id) }

// Entities returns the section's current entity references.
func (s *Section) Entities() map[uuid.UUID]*EntityRef { return s.entities }

// UnloadLODsBelow frees every chunk's arrays for LOD levels finer than
// coarsest, leaving [coarsest, LODLevels-1] resident. A chunk whose
// current render LOD is finer than the new floor can't keep an honest
// mesh; its render proxy is dropped outright and remeshing is deferred
// until the finer LODs load again (the scheduler never requests a LOD
// below a chunk's loaded floor).
func (s *Section) UnloadLODsBelow(coarsest int32) {
	s.EnumerateChunks(func(_, _, _ int32, c *chunk.Chunk) bool {
		for l := int32(0); l < coarsest && l < s.lodLevels; l++ {
			c.UnloadLOD(l)
		}
		if c.RenderLOD() < coarsest {
			c.DropRenderProxy()
			c.SetRenderLOD(s.lodLevels)
			c.SetRequestedLOD(s.lodLevels)
			c.SetMeshState(chunk.Idle)
		}
		return true
	})
}

// RebuildLODs recomputes every LOD level above 0 for every chunk in the
// section, used after a bulk load of LOD-0-only data.
func (s *Section) RebuildLODs() {
	s.EnumerateChunks(func(_, _, _ int32, c *chunk.Chunk) bool {
		n := c.Size
		for z := int32(0); z < n; z++ {
			for y := int32(0); y < n; y++ {
				for x := int32(0); x < n; x++ {
					c.UpdateLODs(0, x, y, z)
				}
			}
		}
		return true
	})
}

func min32(a, b int32) int32 {
	if a < b {
		return a
	}
	return b
}

func max32(a, b int32) int32 {
	if a > b {
		return a
	}
	return b
}
