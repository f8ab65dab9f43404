package world

import (
	"context"
	"testing"

	"github.com/ashenforge/voxelworld/world/chunk"
	"github.com/ashenforge/voxelworld/world/palette"
	"github.com/ashenforge/voxelworld/world/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubBuilder struct{ calls int }

func (b *stubBuilder) BuildMesh(c *chunk.Chunk, n NeighbourChunks, lod int32) (render.Renderable, error) {
	b.calls++
	return stubRenderable{}, nil
}

type stubRenderable struct{}

func (stubRenderable) Enqueue() {}
func (stubRenderable) Prepare() {}
func (stubRenderable) Draw()    {}

// flatGenerator fills every requested section with a single layer of
// empty chunks at chunkZ 0, standing in for a real terrain generator.
type flatGenerator struct{}

func (flatGenerator) GenerateSection(_ context.Context, s *Section) error {
	s.Create(0, 0)
	for ry := int32(0); ry < 2; ry++ {
		for rx := int32(0); rx < 2; rx++ {
			s.CreateChunk(rx, ry, 0)
		}
	}
	return nil
}

func newSchedulerTestWorld(t *testing.T) *World {
	t.Helper()
	pal := palette.New([]palette.Type{{}, {Name: "stone", Shape: palette.ShapeCube}})
	w, err := New(Config{
		ChunkSize: 8, SectionSize: 2, LODLevels: 1, Palette: pal,
		Generator:     flatGenerator{},
		VisibleRadius: 8, SectionLoadRadius: 1,
		MaxChunksPerFrame: 100, MaxSectionsPerFrame: 100,
		ParallelChunkBuild: false,
	}, nil)
	require.NoError(t, err)
	return w
}

// Repeated Steps around a stationary observer converge: no section
// churns in and out once loaded, and every Pending chunk is eventually
// dispatched.
func TestSchedulerStreamsAndMeshesAroundObserver(t *testing.T) {
	w := newSchedulerTestWorld(t)
	b := &stubBuilder{}
	sched := NewScheduler(w, b, 0)
	defer sched.Close()

	observers := []Observer{{ID: 1, Position: [3]float32{0, 0, 0}}}

	sched.Step(context.Background(), 0.1, observers)
	assert.NotNil(t, w.Section(0, 0), "section at the observer's location must be streamed in")

	// A fresh chunk starts Idle with RenderLOD == LODLevels (unset); the
	// first Step's updateChunkLODs call must have queued and (synchronously)
	// dispatched a mesh build for it.
	assert.Greater(t, b.calls, 0)

	callsAfterFirst := b.calls
	sched.Step(context.Background(), 0.1, observers)
	// Once meshed at the correct LOD, a stationary observer produces no
	// further mesh churn.
	assert.Equal(t, callsAfterFirst, b.calls)
}

func TestSchedulerUnloadsOutOfRangeSectionAfterDelay(t *testing.T) {
	w := newSchedulerTestWorld(t)
	w.conf.ChunkRemoveDelaySeconds = 1.0
	b := &stubBuilder{}
	sched := NewScheduler(w, b, 0)
	defer sched.Close()

	near := []Observer{{ID: 1, Position: [3]float32{0, 0, 0}}}
	sched.Step(context.Background(), 0.1, near)
	require.NotNil(t, w.Section(0, 0))

	far := []Observer{{ID: 1, Position: [3]float32{10000, 10000, 0}}}
	sched.Step(context.Background(), 0.5, far)
	assert.NotNil(t, w.Section(0, 0), "must not unload before ChunkRemoveDelaySeconds elapses")

	sched.Step(context.Background(), 0.6, far)
	assert.Nil(t, w.Section(0, 0), "must unload once accumulated out-of-range time exceeds the delay")
}

func TestSchedulerMeshStateHandshakeSynchronous(t *testing.T) {
	w := newSchedulerTestWorld(t)
	b := &stubBuilder{}
	sched := NewScheduler(w, b, 0)
	defer sched.Close()

	observers := []Observer{{ID: 1, Position: [3]float32{0, 0, 0}}}
	sched.Step(context.Background(), 0.1, observers)

	s := w.Section(0, 0)
	require.NotNil(t, s)
	c := s.GetChunk(0, 0, 0)
	require.NotNil(t, c)
	assert.Equal(t, chunk.Idle, c.MeshState())
	assert.True(t, c.RenderProxy.Valid())
}
