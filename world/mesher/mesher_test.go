package mesher

import (
	"testing"

	"github.com/ashenforge/voxelworld/world"
	"github.com/ashenforge/voxelworld/world/chunk"
	"github.com/ashenforge/voxelworld/world/geom"
	"github.com/ashenforge/voxelworld/world/palette"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func blockingCubePalette() *palette.Palette {
	full := palette.FaceUV{MinU: 0, MinV: 0, MaxU: 1, MaxV: 1}
	return palette.New([]palette.Type{
		{},
		{
			Shape: palette.ShapeCube,
			Flags: palette.FlagVisible | palette.FlagBlocksVision | palette.FlagCollidable | palette.FlagVolumeCube,
			Faces: [6]palette.FaceUV{full, full, full, full, full, full},
		},
	})
}

func slabPalette() *palette.Palette {
	full := palette.FaceUV{MinU: 0, MinV: 0, MaxU: 1, MaxV: 1}
	return palette.New([]palette.Type{
		{},
		{
			Shape:      palette.ShapeSlab,
			Flags:      palette.FlagVisible | palette.FlagCollidable,
			Faces:      [6]palette.FaceUV{full, full, full, full, full, full},
			SlabHeight: 0.5,
		},
	})
}

func volumeSlabPalette() *palette.Palette {
	full := palette.FaceUV{MinU: 0, MinV: 0, MaxU: 1, MaxV: 1}
	return palette.New([]palette.Type{
		{},
		{
			Shape:      palette.ShapeSlab,
			Flags:      palette.FlagVisible | palette.FlagCollidable | palette.FlagVolumeCube,
			Faces:      [6]palette.FaceUV{full, full, full, full, full, full},
			SlabHeight: 0.5,
		},
	})
}

func buildMesh(t *testing.T, pal *palette.Palette, c *chunk.Chunk) *ChunkMesh {
	t.Helper()
	m := New(pal)
	renderable, err := m.BuildMesh(c, world.NeighbourChunks{}, 0)
	require.NoError(t, err)
	cm, ok := renderable.(*ChunkMesh)
	require.True(t, ok)
	return cm
}

// A single fully-blocking cube in an otherwise empty chunk emits all
// six unculled faces: 24 vertices, 12 triangles.
func TestSingleCubeEmitsSixFaces(t *testing.T) {
	pal := blockingCubePalette()
	c := chunk.New(16, 1, 0, 0, 0)
	c.Create()
	c.SetBlock(0, 0, 0, 0, chunk.NewPaletteValue(1))

	cm := buildMesh(t, pal, c)
	assert.Len(t, cm.Vertices, 24)
	assert.Len(t, cm.Indices, 36)
	assert.Len(t, cm.Batches, 1, "all six faces share one material and must run-length merge into a single batch")
}

// A chunk filled entirely with the same block merges each face of the
// sweep into one full-size quad: still 24 vertices, 12 triangles.
func TestFilledChunkMergesToSixQuads(t *testing.T) {
	pal := blockingCubePalette()
	c := chunk.New(16, 1, 0, 0, 0)
	c.Create()
	for z := int32(0); z < 16; z++ {
		for y := int32(0); y < 16; y++ {
			for x := int32(0); x < 16; x++ {
				c.SetBlock(0, x, y, z, chunk.NewPaletteValue(1))
			}
		}
	}

	cm := buildMesh(t, pal, c)
	assert.Len(t, cm.Vertices, 24)
	assert.Len(t, cm.Indices, 36)
	assert.Len(t, cm.Batches, 1, "all six faces share one material and must run-length merge into a single batch")
}

// A checkerboard pattern where every solid cell is surrounded by air
// on every face prevents merging entirely: every solid cell contributes
// its own unmerged six faces.
func TestCheckerboardPreventsMerging(t *testing.T) {
	pal := blockingCubePalette()
	c := chunk.New(8, 1, 0, 0, 0)
	c.Create()

	solid := 0
	for z := int32(0); z < 2; z++ {
		for y := int32(0); y < 2; y++ {
			for x := int32(0); x < 2; x++ {
				if (x+y+z)%2 == 0 {
					c.SetBlock(0, x, y, z, chunk.NewPaletteValue(1))
					solid++
				}
			}
		}
	}
	require.Greater(t, solid, 0)

	cm := buildMesh(t, pal, c)
	assert.Len(t, cm.Vertices, solid*24)
	assert.Len(t, cm.Indices, solid*36)
}

// A 4x4x1 slab-shaped region merges its top and bottom faces into one
// 4x4 quad each (slabs never occlude another slab's top face except when
// stacked identically, and nothing sits above or below this single-layer
// region). Each of the four horizontal directions contributes one quad
// per occupied column along the sweep axis, since a slab only ever
// occludes through its own top face and distinct columns emit physically
// separate planes.
func TestSlabRegionMergesTopAndSides(t *testing.T) {
	pal := slabPalette()
	c := chunk.New(8, 1, 0, 0, 0)
	c.Create()
	for y := int32(0); y < 4; y++ {
		for x := int32(0); x < 4; x++ {
			c.SetBlock(0, x, y, 0, chunk.NewPaletteValue(1))
		}
	}

	cm := buildMesh(t, pal, c)
	// top + bottom (1 quad each) + 4 side directions x 4 columns each.
	wantQuads := 2 + 4*4
	assert.Len(t, cm.Vertices, wantQuads*4)
	assert.Len(t, cm.Indices, wantQuads*6)
}

// A vertical stack of volume-flagged slabs tiles in Z: each side
// direction's faces merge into one quad for the whole column. Without
// the volume flag, the same stack emits one side quad per layer.
func TestVolumeSlabStackMergesSideFacesVertically(t *testing.T) {
	stack := func(pal *palette.Palette) *ChunkMesh {
		c := chunk.New(8, 1, 0, 0, 0)
		c.Create()
		for z := int32(0); z < 3; z++ {
			c.SetBlock(0, 0, 0, z, chunk.NewPaletteValue(1))
		}
		return buildMesh(t, pal, c)
	}

	// Volume slabs: one top (z=2), one bottom (z=0), one merged quad per
	// side direction.
	merged := stack(volumeSlabPalette())
	wantQuads := 2 + 4
	assert.Len(t, merged.Vertices, wantQuads*4)
	assert.Len(t, merged.Indices, wantQuads*6)

	// The merged side quads span the full column: two whole layers plus
	// the topmost slab's half height.
	assert.InDelta(t, 2.5, merged.Bounds.Max[2], 1e-5)

	// Plain slabs never tile in Z: one side quad per layer per direction.
	plain := stack(slabPalette())
	wantQuads = 2 + 4*3
	assert.Len(t, plain.Vertices, wantQuads*4)
	assert.Len(t, plain.Indices, wantQuads*6)
}

func TestQuadUVsShrinksVForSlabSide(t *testing.T) {
	uv := palette.FaceUV{MinU: 0, MinV: 0, MaxU: 1, MaxV: 1}
	corners := quadUVs(uv, 4, 1, true, 0.5)
	expectedV := 0 + (1-0.5)*(1-0)
	assert.InDelta(t, expectedV, corners[2][1], 1e-6)
	assert.InDelta(t, expectedV, corners[3][1], 1e-6)
}

// Running the mesher twice on the same input produces identical output.
func TestMesherIsIdempotent(t *testing.T) {
	pal := blockingCubePalette()
	c := chunk.New(16, 1, 0, 0, 0)
	c.Create()
	c.SetBlock(0, 3, 4, 5, chunk.NewPaletteValue(1))
	c.SetBlock(0, 3, 4, 6, chunk.NewPaletteValue(1))
	c.SetBlock(0, 10, 10, 10, chunk.NewPaletteValue(1))

	first := buildMesh(t, pal, c)
	second := buildMesh(t, pal, c)

	assert.Equal(t, first.Vertices, second.Vertices)
	assert.Equal(t, first.Indices, second.Indices)
	assert.Equal(t, first.Batches, second.Batches)
	assert.Equal(t, first.Instances, second.Instances)
}

// No interior faces survive between two adjacent visibility-blocking
// cubes of the same type.
func TestFaceVisibleCullsSharedFaceBetweenIdenticalCubes(t *testing.T) {
	pal := blockingCubePalette()
	c := chunk.New(8, 1, 0, 0, 0)
	c.Create()
	v := chunk.NewPaletteValue(1)
	c.SetBlock(0, 0, 0, 0, v)
	c.SetBlock(0, 1, 0, 0, v)

	cl, ok := lookupCell(pal, v, 0)
	require.True(t, ok)

	assert.False(t, faceVisible(pal, c, world.NeighbourChunks{}, 0, 0, 0, 0, geom.FaceEast, v, cl.typ))
	assert.False(t, faceVisible(pal, c, world.NeighbourChunks{}, 0, 1, 0, 0, geom.FaceWest, v, cl.typ))
	// The non-shared faces remain visible.
	assert.True(t, faceVisible(pal, c, world.NeighbourChunks{}, 0, 0, 0, 0, geom.FaceUp, v, cl.typ))
}

func TestBuildMeshBoundsCoverEmittedGeometry(t *testing.T) {
	pal := blockingCubePalette()
	c := chunk.New(16, 1, 0, 0, 0)
	c.Create()
	c.SetBlock(0, 3, 4, 5, chunk.NewPaletteValue(1))

	cm := buildMesh(t, pal, c)
	assert.Equal(t, float32(3), cm.Bounds.Min[0])
	assert.Equal(t, float32(4), cm.Bounds.Min[1])
	assert.Equal(t, float32(5), cm.Bounds.Min[2])
	assert.Equal(t, float32(4), cm.Bounds.Max[0])
	assert.Equal(t, float32(5), cm.Bounds.Max[1])
	assert.Equal(t, float32(6), cm.Bounds.Max[2])

	center, radius := cm.BoundingSphere()
	assert.Equal(t, float32(3.5), center[0])
	assert.InDelta(t, 0.8660254, radius, 1e-5)
}

func TestIsAirChunkEmptyMesh(t *testing.T) {
	pal := blockingCubePalette()
	c := chunk.New(8, 1, 0, 0, 0)
	c.Create()
	cm := buildMesh(t, pal, c)
	assert.Empty(t, cm.Vertices)
	assert.Empty(t, cm.Indices)
}

// mergeBatches must run-length collapse contiguous same-material batches
// but leave a gap or a material change as a split.
func TestMergeBatchesCollapsesContiguousRuns(t *testing.T) {
	in := []Batch{
		{MaterialIndex: 0, FirstIndex: 0, IndexCount: 6},
		{MaterialIndex: 0, FirstIndex: 6, IndexCount: 6},
		{MaterialIndex: 0, FirstIndex: 12, IndexCount: 6},
		{MaterialIndex: 1, FirstIndex: 18, IndexCount: 6},
		{MaterialIndex: 0, FirstIndex: 24, IndexCount: 6}, // same material, but not index-contiguous with the run above
	}
	out := mergeBatches(in)
	require.Len(t, out, 3)
	assert.Equal(t, Batch{MaterialIndex: 0, FirstIndex: 0, IndexCount: 18}, out[0])
	assert.Equal(t, Batch{MaterialIndex: 1, FirstIndex: 18, IndexCount: 6}, out[1])
	assert.Equal(t, Batch{MaterialIndex: 0, FirstIndex: 24, IndexCount: 6}, out[2])
}
