package world

import (
	"context"
	"math"
	"sort"

	"github.com/ashenforge/voxelworld/world/chunk"
	"github.com/ashenforge/voxelworld/world/geom"
	"github.com/ashenforge/voxelworld/world/render"
)

// NeighbourChunks is the (up to) six face-adjacent chunks around a chunk
// being meshed, indexed by geom.Face. A nil entry means that neighbour is
// absent (world edge or not yet loaded); the mesher treats an absent
// neighbour as non-occluding.
type NeighbourChunks [6]*chunk.Chunk

// MeshBuilder builds the render proxy for one chunk at a given LOD. It is
// implemented by the mesher package; the scheduler only knows it as a
// pure, side-effect-free function of a chunk and its neighbours.
type MeshBuilder interface {
	BuildMesh(c *chunk.Chunk, neighbours NeighbourChunks, lod int32) (render.Renderable, error)
}

type meshJob struct {
	pending    *PendingMesh
	chunk      *chunk.Chunk
	neighbours NeighbourChunks
	lod        int32
}

type meshResult struct {
	pending *PendingMesh
	chunk   *chunk.Chunk
	lod     int32
	mesh    render.Renderable
	err     error
}

// Scheduler implements the streaming and level-of-detail system: it
// brings sections into and out of residency around a set of observers,
// decides each chunk's target LOD by distance, and drives remeshing
// through a bounded worker pool so no single frame stalls on mesh
// generation.
type Scheduler struct {
	world   *World
	builder MeshBuilder

	pending *pendingQueue

	outOfRange map[chunkSectionKey]float64 // seconds a resident, out-of-range section has been waiting to unload

	jobs    chan meshJob
	results chan meshResult
	closing chan struct{}
}

type chunkSectionKey struct{ sx, sy int32 }

// NewScheduler starts the scheduler's worker pool (workers goroutines, at
// least one; the caller picks the count) and returns a
// Scheduler ready to Step. If w.Config().ParallelChunkBuild is false, mesh
// builds run synchronously on the caller's goroutine during Step instead.
func NewScheduler(w *World, builder MeshBuilder, workers int) *Scheduler {
	s := &Scheduler{
		world:      w,
		builder:    builder,
		pending:    newPendingQueue(),
		outOfRange: make(map[chunkSectionKey]float64),
		jobs:       make(chan meshJob, 256),
		results:    make(chan meshResult, 256),
		closing:    make(chan struct{}),
	}
	if w.conf.ParallelChunkBuild {
		if workers < 1 {
			workers = 1
		}
		for i := 0; i < workers; i++ {
			go s.worker()
		}
	}
	return s
}

// Close stops the worker pool. Step must not be called after Close.
func (s *Scheduler) Close() {
	close(s.closing)
}

func (s *Scheduler) worker() {
	for {
		select {
		case <-s.closing:
			return
		case job, ok := <-s.jobs:
			if !ok {
				return
			}
			mesh, err := s.builder.BuildMesh(job.chunk, job.neighbours, job.lod)
			select {
			case s.results <- meshResult{pending: job.pending, chunk: job.chunk, lod: job.lod, mesh: mesh, err: err}:
			case <-s.closing:
				return
			}
		}
	}
}

// Step advances the scheduler by one frame: it loads newly in-range
// sections, unloads long-out-of-range ones, recomputes each resident
// chunk's desired LOD, and dispatches up to MaxChunksPerFrame mesh builds
// in nearest-first order. dt is the frame's elapsed time in seconds, used
// to accumulate the unload delay T_u.
func (s *Scheduler) Step(ctx context.Context, dt float64, observers []Observer) {
	s.collectResults()
	inRange := s.streamSections(ctx, observers)
	s.ageAndUnload(inRange, dt)
	s.updateChunkLODs(observers)
	s.dispatchRemeshes()

	s.world.conf.Metrics.setPending(s.pending.len())
}

// collectResults drains any mesh builds that finished since the last
// Step, installing the new render proxy and advancing the chunk's mesh
// state per the Idle/Pending/InProgress handshake.
func (s *Scheduler) collectResults() {
	for {
		select {
		case r := <-s.results:
			s.applyResult(r)
		default:
			return
		}
	}
}

func (s *Scheduler) applyResult(r meshResult) {
	// WorkerStale: the chunk was deleted while the worker was building its
	// mesh. Discard the result without error.
	if r.pending.chunkRef() != r.chunk {
		return
	}

	next, requeue := r.chunk.MeshState().Completed()
	r.chunk.SetMeshState(next)

	if r.err == nil && r.mesh != nil {
		if old := r.chunk.RenderProxy; old.Valid() {
			old.Release()
		}
		r.chunk.RenderProxy = render.NewHandle(r.mesh, func(render.Renderable) {})
		r.chunk.SetRenderLOD(r.lod)
	}

	if requeue {
		s.pending.upsert(&PendingMesh{
			Section:     r.pending.Section,
			RelX:        r.pending.RelX,
			RelY:        r.pending.RelY,
			ChunkZ:      r.pending.ChunkZ,
			MinDistance: r.pending.MinDistance,
			OldLOD:      r.lod,
			NewLOD:      r.chunk.RequestedLOD(),
		})
	}
}

// streamSections loads sections within SectionLoadRadius of any observer,
// up to MaxSectionsPerFrame per call, and returns the full in-range set
// for ageAndUnload to compare residents against.
func (s *Scheduler) streamSections(ctx context.Context, observers []Observer) map[chunkSectionKey]bool {
	conf := s.world.conf
	inRange := make(map[chunkSectionKey]bool)

	for _, o := range observers {
		ocx, _ := SplitChunk(int32(o.Position[0]), conf.ChunkSize)
		ocy, _ := SplitChunk(int32(o.Position[1]), conf.ChunkSize)
		osx, _ := SplitSection(ocx, conf.SectionSize)
		osy, _ := SplitSection(ocy, conf.SectionSize)
		for dy := -conf.SectionLoadRadius; dy <= conf.SectionLoadRadius; dy++ {
			for dx := -conf.SectionLoadRadius; dx <= conf.SectionLoadRadius; dx++ {
				inRange[chunkSectionKey{osx + dx, osy + dy}] = true
			}
		}
	}

	loaded := 0
	for k := range inRange {
		if loaded >= conf.MaxSectionsPerFrame {
			break
		}
		if s.world.index.Get(k.sx, k.sy) != nil {
			delete(s.outOfRange, k)
			continue
		}
		if s.loadOrGenerateSection(ctx, k.sx, k.sy) {
			loaded++
		}
		delete(s.outOfRange, k)
	}

	return inRange
}

func (s *Scheduler) loadOrGenerateSection(ctx context.Context, sx, sy int32) bool {
	sec := newSection(s.world, sx, sy)
	if s.world.index.Available(sx, sy) && s.world.store != nil {
		if err := s.world.store.LoadSection(ctx, sec, 0); err != nil {
			s.world.conf.Log.Error("load section failed", "sx", sx, "sy", sy, "err", err)
			s.world.index.ClearAvailability(sx, sy)
			return false
		}
		sec.SetLoadState(Loaded)
		s.world.index.Put(sec)
		s.world.conf.Metrics.incSectionLoads()
		return true
	}
	if s.world.conf.Generator == nil {
		return false
	}
	sec.SetLoadState(Generating)
	s.world.index.Put(sec)
	if err := s.world.conf.Generator.GenerateSection(ctx, sec); err != nil {
		s.world.conf.Log.Error("generate section failed", "sx", sx, "sy", sy, "err", err)
		s.world.index.Remove(sx, sy)
		return false
	}
	sec.SetLoadState(Changed)
	s.world.conf.Metrics.incSectionLoads()
	return true
}

// ageAndUnload accumulates out-of-range duration and evicts sections past
// ChunkRemoveDelaySeconds, saving them first if Changed.
func (s *Scheduler) ageAndUnload(inRange map[chunkSectionKey]bool, dt float64) {
	conf := s.world.conf
	s.world.index.EnumerateResident(func(sec *Section) bool {
		k := chunkSectionKey{sec.SectionX, sec.SectionY}
		if inRange[k] {
			delete(s.outOfRange, k)
			return true
		}
		if sec.LoadState() == Generating {
			return true
		}
		s.outOfRange[k] += dt
		if s.outOfRange[k] < conf.ChunkRemoveDelaySeconds {
			return true
		}
		if sec.IsChanged() {
			if err := s.world.saveSection(sec); err != nil {
				s.world.conf.Log.Error("save section on unload failed", "sx", sec.SectionX, "sy", sec.SectionY, "err", err)
				return true
			}
		}
		s.world.index.Remove(sec.SectionX, sec.SectionY)
		delete(s.outOfRange, k)
		s.world.conf.Metrics.incSectionUnloads()
		return true
	})
	s.world.conf.Metrics.setSectionsLoaded(s.residentCount())
}

func (s *Scheduler) residentCount() int {
	n := 0
	s.world.index.EnumerateResident(func(*Section) bool { n++; return true })
	return n
}

// updateChunkLODs recomputes each resident chunk's desired LOD from its
// distance to the nearest observer, clamped to [0, L_max-1]. The decision
// to (re)request a mesh build is gated on requestedLOD, not on RenderLOD:
// RenderLOD only advances once a build actually completes, so while a
// multi-frame worker build is in flight (MeshState InProgress or
// InProgressWithChanges) the same unchanged target must not be treated as
// a fresh request every Step - that would re-flag the chunk Edited and
// feed dispatchRemeshes a second job for a build already running.
//
// A chunk is only ever inserted into the pending queue here while its
// MeshState is Pending: Idle means nothing is owed, and
// InProgress/InProgressWithChanges means a worker already holds the
// chunk's data and the existing build's completion handshake
// (applyResult/MeshState.Completed) is responsible for re-enqueuing it if
// it went stale in the meantime.
func (s *Scheduler) updateChunkLODs(observers []Observer) {
	conf := s.world.conf
	s.world.index.EnumerateResident(func(sec *Section) bool {
		sec.EnumerateChunks(func(relX, relY, chunkZ int32, c *chunk.Chunk) bool {
			dist := nearestObserverDistance(observers, c.BasePosition())
			desired := desiredLOD(dist, conf.VisibleRadius, conf.ChunkSize, conf.LODLevels)
			if desired < c.LoadedLOD() {
				// The chunk isn't loaded finely enough to honour the
				// distance-based target; render what is loaded and let a
				// later (re)load trigger the finer build.
				desired = c.LoadedLOD()
			}

			if desired != c.RequestedLOD() {
				c.SetRequestedLOD(desired)
				c.SetMeshState(c.MeshState().Edited())
			}

			if c.MeshState() != chunk.Pending {
				return true
			}
			s.pending.upsert(&PendingMesh{
				Section: sec, RelX: relX, RelY: relY, ChunkZ: chunkZ,
				MinDistance: dist, OldLOD: c.RenderLOD(), NewLOD: desired,
			})
			return true
		})
		return true
	})
}

func nearestObserverDistance(observers []Observer, pos [3]float32) float32 {
	if len(observers) == 0 {
		return 0
	}
	best := float32(-1)
	for _, o := range observers {
		dx := pos[0] - o.Position[0]
		dy := pos[1] - o.Position[1]
		dz := pos[2] - o.Position[2]
		d := dx*dx + dy*dy + dz*dz
		if best < 0 || d < best {
			best = d
		}
	}
	return float32(math.Sqrt(float64(best)))
}

func desiredLOD(distanceBlocks float32, visibleRadius, chunkSize, lodLevels int32) int32 {
	if visibleRadius < 1 {
		visibleRadius = 1
	}
	l := int32(distanceBlocks) / (visibleRadius * chunkSize)
	if l < 0 {
		l = 0
	}
	if l > lodLevels-1 {
		l = lodLevels - 1
	}
	return l
}

// dispatchRemeshes sorts the pending queue by distance and dequeues up to
// MaxChunksPerFrame entries, skipping (leaving enqueued) any whose
// face-neighbours aren't ready yet, and dropping (not rebuilding) any
// whose chunk is already InProgress/InProgressWithChanges from an earlier
// dispatch.
func (s *Scheduler) dispatchRemeshes() {
	conf := s.world.conf
	sort.Slice(s.pending.items, func(i, j int) bool {
		return s.pending.items[i].MinDistance < s.pending.items[j].MinDistance
	})

	dispatched := 0
	remaining := s.pending.items[:0]
	for _, p := range s.pending.items {
		if dispatched >= conf.MaxChunksPerFrame {
			remaining = append(remaining, p)
			continue
		}
		c := p.chunkRef()
		if c == nil {
			s.pending.remove(p)
			continue
		}
		if c.MeshState() == chunk.InProgress || c.MeshState() == chunk.InProgressWithChanges {
			// A worker already holds this chunk's data; its completion
			// handshake re-enqueues it if needed. Drop the stale entry
			// rather than dispatching a second concurrent build.
			s.pending.remove(p)
			continue
		}
		if !s.neighboursReady(p.Section, p.RelX, p.RelY, p.ChunkZ, p.NewLOD) {
			remaining = append(remaining, p)
			continue
		}

		nb := s.neighbourChunks(p.Section, p.RelX, p.RelY, p.ChunkZ)

		if conf.ParallelChunkBuild {
			select {
			case s.jobs <- meshJob{pending: p, chunk: c, neighbours: nb, lod: p.NewLOD}:
				c.SetMeshState(c.MeshState().Dequeued())
				s.pending.remove(p)
				dispatched++
			default:
				// Job queue is saturated this frame; leave it enqueued and
				// try again next Step.
				remaining = append(remaining, p)
			}
		} else {
			c.SetMeshState(c.MeshState().Dequeued())
			s.pending.remove(p)
			dispatched++
			mesh, err := s.builder.BuildMesh(c, nb, p.NewLOD)
			s.applyResult(meshResult{pending: p, chunk: c, lod: p.NewLOD, mesh: mesh, err: err})
		}
	}
	s.pending.items = remaining

	conf.Metrics.incChunksRemeshed(dispatched)
	if conf.MaxChunksPerFrame > 0 {
		conf.Metrics.observeFrameBudget(float64(dispatched) / float64(conf.MaxChunksPerFrame))
	}
}

// neighboursReady reports whether every face-adjacent chunk is either
// absent (treated as non-occluding) or loaded at least as finely as lod,
// so the mesher has the data it needs for correct face culling at the
// seam.
func (s *Scheduler) neighboursReady(sec *Section, relX, relY, chunkZ, lod int32) bool {
	for _, f := range geom.Faces {
		n := s.world.neighbourChunk(sec, relX, relY, chunkZ, f)
		if n == nil {
			continue
		}
		if n.LoadedLOD() > lod {
			return false
		}
	}
	return true
}

func (s *Scheduler) neighbourChunks(sec *Section, relX, relY, chunkZ int32) NeighbourChunks {
	var nb NeighbourChunks
	for i, f := range geom.Faces {
		nb[i] = s.world.neighbourChunk(sec, relX, relY, chunkZ, f)
	}
	return nb
}
