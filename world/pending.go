package world

import "github.com/ashenforge/voxelworld/world/chunk"

// Observer is an opaque viewpoint the scheduler streams sections and chunk
// detail around. Hosts supply the current set once per frame; the engine
// has no notion of what an observer actually is (camera, player, AI
// agent) beyond its position.
type Observer struct {
	ID       uint64
	Position [3]float32
}

// PendingMesh is one chunk queued for a mesh rebuild, carrying what the
// scheduler needs to prioritize and dispatch it.
type PendingMesh struct {
	Section            *Section
	RelX, RelY, ChunkZ int32

	// MinDistance is, in blocks, the distance from the closest observer
	// that caused this chunk to be (re)queued. Used purely as a sort key.
	MinDistance float32

	OldLOD, NewLOD int32
}

func (p *PendingMesh) key() chunkKey {
	return chunkKey{sectionX: p.Section.SectionX, sectionY: p.Section.SectionY, relX: p.RelX, relY: p.RelY, chunkZ: p.ChunkZ}
}

// chunkKey uniquely identifies a chunk slot for the scheduler's pending
// dedup map, mirroring the (section, rel, chunkZ) addressing Section
// itself uses internally.
type chunkKey struct {
	sectionX, sectionY int32
	relX, relY, chunkZ int32
}

// pendingQueue holds the scheduler's remesh backlog: a slice for
// sort-by-distance plus a set for O(1) "already queued" checks.
type pendingQueue struct {
	items []*PendingMesh
	set   map[chunkKey]*PendingMesh
}

func newPendingQueue() *pendingQueue {
	return &pendingQueue{set: make(map[chunkKey]*PendingMesh)}
}

// upsert adds a new pending entry or updates the LOD/distance of an
// existing one, so a chunk that moves back into view before it's
// processed doesn't get queued twice.
func (q *pendingQueue) upsert(p *PendingMesh) {
	k := p.key()
	if existing, ok := q.set[k]; ok {
		if p.MinDistance < existing.MinDistance {
			existing.MinDistance = p.MinDistance
		}
		existing.NewLOD = p.NewLOD
		return
	}
	q.set[k] = p
	q.items = append(q.items, p)
}

func (q *pendingQueue) remove(p *PendingMesh) {
	delete(q.set, p.key())
}

func (q *pendingQueue) len() int { return len(q.set) }

// chunkRef resolves a PendingMesh back to its *chunk.Chunk, or nil if the
// chunk was deleted out from under the queue entry since it was enqueued.
func (p *PendingMesh) chunkRef() *chunk.Chunk {
	return p.Section.GetChunk(p.RelX, p.RelY, p.ChunkZ)
}
