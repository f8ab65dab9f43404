// Package chunk implements the fixed-edge cubic block volume: per-LOD
// dense arrays of block value and block data, LOD derivation, and the
// mesh-state handshake with the streaming scheduler.
package chunk

import (
	"fmt"
	"io"

	"github.com/ashenforge/voxelworld/world/geom"
	"github.com/ashenforge/voxelworld/world/render"
	"github.com/go-gl/mathgl/mgl32"
)

// MeshState is the small state machine governing when a chunk's geometry
// is stale and who currently owns rebuilding it.
type MeshState uint8

const (
	// Idle means the chunk's current mesh (if any) is up to date.
	Idle MeshState = iota
	// Pending means the chunk needs remeshing and is waiting in the
	// scheduler's queue.
	Pending
	// InProgress means a worker currently holds a read-only borrow of the
	// chunk's (and its neighbours') block arrays to build a mesh.
	InProgress
	// InProgressWithChanges means an edit arrived while InProgress; on
	// completion the chunk must be re-enqueued as Pending rather than
	// transitioning to Idle.
	InProgressWithChanges
)

// Edited transitions the mesh state in response to a block/LOD edit,
// implementing the Idle/InProgress -> Pending/InProgressWithChanges
// rules.
func (s MeshState) Edited() MeshState {
	switch s {
	case InProgress, InProgressWithChanges:
		return InProgressWithChanges
	default:
		return Pending
	}
}

// Dequeued is the Pending -> InProgress transition made when the scheduler
// hands the chunk to a worker.
func (s MeshState) Dequeued() MeshState {
	if s == Pending {
		return InProgress
	}
	return s
}

// Completed is the transition applied when a worker finishes; it returns
// the next state and whether the chunk must be re-enqueued immediately
// because it changed while the worker was running.
func (s MeshState) Completed() (next MeshState, requeue bool) {
	if s == InProgressWithChanges {
		return Pending, true
	}
	return Idle, false
}

// Chunk is a cubic block volume of edge Size, owning one dense array pair
// per loaded LOD level.
type Chunk struct {
	Size      int32 // C, power of two, 8 <= C <= 64
	LODLevels int32 // L, 1 <= L <= 3

	// Global chunk coordinates (in units of Size blocks).
	ChunkX, ChunkY, ChunkZ int32

	values [3][]Value
	data   [3][]Data

	// loadedLOD is the finest (lowest-index) LOD level with data present;
	// arrays exist for every LOD in [loadedLOD, LODLevels-1].
	loadedLOD int32
	renderLOD int32

	// requestedLOD is the target LOD the scheduler last decided this chunk
	// should be remeshed at, independent of renderLOD (which only advances
	// once a build actually completes). The scheduler compares a freshly
	// computed target against this field, not against renderLOD, so a
	// multi-frame in-flight build doesn't look like a changed target on
	// every Step.
	requestedLOD int32

	meshState MeshState

	basePosition mgl32.Vec3
	boundingBox  geom.Box

	RenderProxy render.Handle
}

// New constructs an empty, unloaded chunk at the given global chunk
// coordinates. Callers must call Create or LoadLOD before use.
func New(size, lodLevels, chunkX, chunkY, chunkZ int32) *Chunk {
	c := &Chunk{
		Size:         size,
		LODLevels:    lodLevels,
		ChunkX:       chunkX,
		ChunkY:       chunkY,
		ChunkZ:       chunkZ,
		loadedLOD:    lodLevels,
		renderLOD:    lodLevels,
		requestedLOD: lodLevels,
	}
	c.basePosition = mgl32.Vec3{float32(chunkX * size), float32(chunkY * size), float32(chunkZ * size)}
	c.boundingBox = geom.Box{
		Min: c.basePosition,
		Max: c.basePosition.Add(mgl32.Vec3{float32(size), float32(size), float32(size)}),
	}
	return c
}

// edge returns the block edge length of LOD level l: Size >> l.
func (c *Chunk) edge(l int32) int32 { return c.Size >> uint(l) }

// Create allocates and zeroes arrays for every LOD level, marking the chunk
// fully loaded.
func (c *Chunk) Create() {
	for l := int32(0); l < c.LODLevels; l++ {
		n := c.edge(l)
		count := n * n * n
		c.values[l] = make([]Value, count)
		c.data[l] = make([]Data, count)
	}
	c.loadedLOD = 0
}

// LoadedLOD returns the current loaded-LOD floor.
func (c *Chunk) LoadedLOD() int32 { return c.loadedLOD }

// RenderLOD returns the current render-LOD floor.
func (c *Chunk) RenderLOD() int32 { return c.renderLOD }

// SetRenderLOD sets the render-LOD floor. Callers must ensure
// RenderLOD >= LoadedLOD before calling; the scheduler enforces this by
// only requesting remeshes for LODs that are already loaded.
func (c *Chunk) SetRenderLOD(l int32) { c.renderLOD = l }

// RequestedLOD returns the LOD the scheduler last targeted this chunk for,
// whether or not that build has completed yet.
func (c *Chunk) RequestedLOD() int32 { return c.requestedLOD }

// SetRequestedLOD records a new target LOD, so a later call can tell
// whether the scheduler's distance-based decision actually changed.
func (c *Chunk) SetRequestedLOD(l int32) { c.requestedLOD = l }

// Editable reports whether the chunk may be edited: true once LOD 0 is
// loaded.
func (c *Chunk) Editable() bool { return c.loadedLOD == 0 }

// MeshState returns the chunk's current mesh-pending state.
func (c *Chunk) MeshState() MeshState { return c.meshState }

// SetMeshState overwrites the mesh state directly; used by the scheduler to
// drive the Idle/Pending/InProgress/InProgressWithChanges handshake.
func (c *Chunk) SetMeshState(s MeshState) { c.meshState = s }

// BasePosition returns the chunk's world-space origin corner.
func (c *Chunk) BasePosition() mgl32.Vec3 { return c.basePosition }

// BoundingBox returns the chunk's world-space AABB at LOD 0 resolution.
func (c *Chunk) BoundingBox() geom.Box { return c.boundingBox }

func (c *Chunk) index(l, x, y, z int32) int32 {
	n := c.edge(l)
	return z*n*n + y*n + x
}

// GetBlock returns the block value at LOD l, local coordinates (x,y,z).
func (c *Chunk) GetBlock(l, x, y, z int32) Value {
	return c.values[l][c.index(l, x, y, z)]
}

// SetBlock stores a block value at LOD l, local coordinates (x,y,z).
func (c *Chunk) SetBlock(l, x, y, z int32, v Value) {
	c.values[l][c.index(l, x, y, z)] = v
}

// GetData returns the block-data byte at LOD l, local coordinates (x,y,z).
func (c *Chunk) GetData(l, x, y, z int32) Data {
	return c.data[l][c.index(l, x, y, z)]
}

// SetData stores the block-data byte at LOD l, local coordinates (x,y,z).
func (c *Chunk) SetData(l, x, y, z int32, d Data) {
	c.data[l][c.index(l, x, y, z)] = d
}

// Values returns the dense block-value array for LOD l, or nil if that LOD
// is not currently loaded.
func (c *Chunk) Values(l int32) []Value { return c.values[l] }

// DataArray returns the dense block-data array for LOD l, or nil if that LOD
// is not currently loaded.
func (c *Chunk) DataArray(l int32) []Data { return c.data[l] }

// IsAirChunk reports whether every LOD-0 cell holds BlockValue 0.
func (c *Chunk) IsAirChunk() bool {
	for _, v := range c.values[0] {
		if v != Air {
			return false
		}
	}
	return true
}

// UpdateLODs recomputes every LOD level above l that depends on the block
// at (blockX, blockY, blockZ): LOD(l+1) at (x,y,z) is derived from the
// eight LOD(l) children at (2x+dx, 2y+dy, 2z+dz), picking the first
// non-air child in a fixed x,y,z-major scan order.
func (c *Chunk) UpdateLODs(l, blockX, blockY, blockZ int32) {
	if l == c.LODLevels-1 {
		return
	}

	baseX := blockX &^ 1
	baseY := blockY &^ 1
	baseZ := blockZ &^ 1

	var value Value
	var data Data
	found := false
	for _, off := range [8][3]int32{
		{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {1, 1, 0},
		{0, 0, 1}, {1, 0, 1}, {0, 1, 1}, {1, 1, 1},
	} {
		v := c.GetBlock(l, baseX+off[0], baseY+off[1], baseZ+off[2])
		if !found {
			value = v
			data = c.GetData(l, baseX+off[0], baseY+off[1], baseZ+off[2])
			found = true
		}
		if v != Air {
			value = v
			data = c.GetData(l, baseX+off[0], baseY+off[1], baseZ+off[2])
			break
		}
	}

	next := l + 1
	nx, ny, nz := baseX/2, baseY/2, baseZ/2
	c.SetBlock(next, nx, ny, nz, value)
	c.SetData(next, nx, ny, nz, data)
	c.UpdateLODs(next, nx, ny, nz)
}

// DropRenderProxy releases and clears the chunk's render proxy handle, if
// it holds one. Frames still in flight keep the proxy alive through their
// own cloned handles.
func (c *Chunk) DropRenderProxy() {
	if c.RenderProxy.Valid() {
		c.RenderProxy.Release()
		c.RenderProxy = render.Handle{}
	}
}

// UnloadLOD frees the arrays for LOD l and, if l was the loaded-LOD floor,
// advances the floor to the next LOD level that still has data.
func (c *Chunk) UnloadLOD(l int32) {
	c.values[l] = nil
	c.data[l] = nil
	if l == c.loadedLOD {
		for c.loadedLOD = l + 1; c.loadedLOD < c.LODLevels; c.loadedLOD++ {
			if c.values[c.loadedLOD] != nil {
				break
			}
		}
	}
}

// LoadFromStream reads one LOD level's block-value and block-data arrays
// from a stream, in that order.
func (c *Chunk) LoadFromStream(l int32, r io.Reader) error {
	n := c.edge(l)
	count := n * n * n
	values := make([]Value, count)
	data := make([]Data, count)
	if err := readValues(r, values); err != nil {
		return fmt.Errorf("read block values: %w", err)
	}
	if err := readData(r, data); err != nil {
		return fmt.Errorf("read block data: %w", err)
	}
	c.values[l] = values
	c.data[l] = data
	if l < c.loadedLOD {
		c.loadedLOD = l
	}
	return nil
}

// SaveToStream writes one LOD level's block-value and block-data arrays.
func (c *Chunk) SaveToStream(l int32, w io.Writer) error {
	if c.values[l] == nil {
		return fmt.Errorf("chunk: LOD %d not loaded", l)
	}
	if err := writeValues(w, c.values[l]); err != nil {
		return fmt.Errorf("write block values: %w", err)
	}
	if err := writeData(w, c.data[l]); err != nil {
		return fmt.Errorf("write block data: %w", err)
	}
	return nil
}
