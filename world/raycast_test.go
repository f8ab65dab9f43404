package world

import (
	"testing"

	"github.com/ashenforge/voxelworld/world/chunk"
	"github.com/ashenforge/voxelworld/world/geom"
	"github.com/ashenforge/voxelworld/world/palette"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRaycastWorld(t *testing.T) *World {
	t.Helper()
	pal := palette.New([]palette.Type{
		{},
		{Name: "stone", Shape: palette.ShapeCube, Flags: palette.FlagVisible | palette.FlagBlocksVision | palette.FlagCollidable},
		{Name: "slab", Shape: palette.ShapeSlab, Flags: palette.FlagVisible | palette.FlagCollidable, SlabHeight: 0.5},
	})
	w, err := New(Config{ChunkSize: 16, SectionSize: 2, LODLevels: 1, Palette: pal}, nil)
	require.NoError(t, err)
	return w
}

func TestRaycastHitsNearestCube(t *testing.T) {
	w := newRaycastWorld(t)
	require.NoError(t, w.SetBlock(3, 0, 0, chunk.NewPaletteValue(1), 0, true))
	require.NoError(t, w.SetBlock(5, 0, 0, chunk.NewPaletteValue(1), 0, true))

	hit, ok := w.Raycast(mgl32.Vec3{-2.5, 0.5, 0.5}, mgl32.Vec3{1, 0, 0}, 20, nil)
	require.True(t, ok)
	assert.Equal(t, geom.Pos{X: 3, Y: 0, Z: 0}, hit.Block)
	assert.Equal(t, geom.FaceWest, hit.HitFace)
	assert.Equal(t, chunk.NewPaletteValue(1), hit.Value)
	assert.InDelta(t, 5.5, hit.Distance, 1e-4)
}

func TestRaycastRespectsMaxDistance(t *testing.T) {
	w := newRaycastWorld(t)
	require.NoError(t, w.SetBlock(10, 0, 0, chunk.NewPaletteValue(1), 0, true))

	_, ok := w.Raycast(mgl32.Vec3{0.5, 0.5, 0.5}, mgl32.Vec3{1, 0, 0}, 3, nil)
	assert.False(t, ok)
}

func TestRaycastSlabTopAdjustedByHeight(t *testing.T) {
	w := newRaycastWorld(t)
	require.NoError(t, w.SetBlock(0, 0, 0, chunk.NewPaletteValue(2), 0, true))

	hit, ok := w.Raycast(mgl32.Vec3{0.5, 0.5, 5}, mgl32.Vec3{0, 0, -1}, 10, nil)
	require.True(t, ok)
	assert.Equal(t, geom.Pos{X: 0, Y: 0, Z: 0}, hit.Block)
	assert.Equal(t, geom.FaceUp, hit.HitFace)
	// The slab's top sits at z=0.5, so the ray travels 4.5 units, not 4.
	assert.InDelta(t, 4.5, hit.Distance, 1e-4)
}

func TestRaycastPassesOverSlabBelowRay(t *testing.T) {
	w := newRaycastWorld(t)
	require.NoError(t, w.SetBlock(2, 0, 0, chunk.NewPaletteValue(2), 0, true))
	require.NoError(t, w.SetBlock(6, 0, 0, chunk.NewPaletteValue(1), 0, true))

	// A horizontal ray at z=0.75 clears the 0.5-high slab and lands on the
	// full cube behind it.
	hit, ok := w.Raycast(mgl32.Vec3{0.5, 0.5, 0.75}, mgl32.Vec3{1, 0, 0}, 20, nil)
	require.True(t, ok)
	assert.Equal(t, geom.Pos{X: 6, Y: 0, Z: 0}, hit.Block)
}
