package world

import (
	"bytes"
	"testing"

	"github.com/ashenforge/voxelworld/world/chunk"
	"github.com/ashenforge/voxelworld/world/palette"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSection(t *testing.T, lodLevels int32) *Section {
	t.Helper()
	pal := palette.New([]palette.Type{{}, {Name: "stone", Shape: palette.ShapeCube}})
	w, err := New(Config{ChunkSize: 8, SectionSize: 2, LODLevels: lodLevels, Palette: pal}, nil)
	require.NoError(t, err)
	return w.CreateSection(1, -1)
}

func TestSectionCreateChunkGrowsZRangeAndPreservesExisting(t *testing.T) {
	s := newTestSection(t, 1)
	s.CreateChunk(0, 0, 0).SetBlock(0, 1, 1, 1, chunk.NewPaletteValue(3))

	s.CreateChunk(1, 0, 5)
	assert.Equal(t, int32(0), s.MinChunkZ())
	assert.Equal(t, int32(5), s.MaxChunkZ())

	assert.Equal(t, chunk.NewPaletteValue(3), s.GetChunk(0, 0, 0).GetBlock(0, 1, 1, 1))
	assert.NotNil(t, s.GetChunk(1, 0, 5))

	s.CreateChunk(0, 1, -2)
	assert.Equal(t, int32(-2), s.MinChunkZ())
	assert.Equal(t, chunk.NewPaletteValue(3), s.GetChunk(0, 0, 0).GetBlock(0, 1, 1, 1))
}

func TestSectionDeleteChunkClearsAvailability(t *testing.T) {
	s := newTestSection(t, 1)
	s.CreateChunk(0, 0, 0)
	assert.True(t, s.ChunkAvailable(0, 0, 0))

	s.DeleteChunk(0, 0, 0)
	assert.False(t, s.ChunkAvailable(0, 0, 0))
	assert.Nil(t, s.GetChunk(0, 0, 0))
}

func TestSectionEntityLifecycle(t *testing.T) {
	s := newTestSection(t, 1)
	id := uuid.New()
	e := &EntityRef{ID: id, Position: [3]float32{1, 2, 3}}
	s.AddEntity(e)
	assert.Len(t, s.Entities(), 1)

	e.Position = [3]float32{4, 5, 6}
	s.MoveEntity(e)
	assert.Equal(t, [3]float32{4, 5, 6}, s.Entities()[id].Position)

	s.RemoveEntity(id)
	assert.Empty(t, s.Entities())
}

// A multi-LOD section round-trips through EncodeTo/DecodeFrom with every
// LOD level's content intact.
func TestSectionEncodeDecodeRoundTripMultiLOD(t *testing.T) {
	s := newTestSection(t, 3)
	c := s.CreateChunk(0, 0, 0)
	c.SetBlock(0, 2, 3, 4, chunk.NewPaletteValue(7))
	c.UpdateLODs(0, 2, 3, 4)

	var buf bytes.Buffer
	require.NoError(t, s.EncodeTo(&buf))

	w2, err := New(Config{ChunkSize: 8, SectionSize: 2, LODLevels: 3, Palette: s.world.conf.Palette}, nil)
	require.NoError(t, err)
	loaded := w2.CreateSection(1, -1)
	require.NoError(t, loaded.DecodeFrom(bytes.NewReader(buf.Bytes()), 0))

	lc := loaded.GetChunk(0, 0, 0)
	require.NotNil(t, lc)
	assert.Equal(t, chunk.NewPaletteValue(7), lc.GetBlock(0, 2, 3, 4))
	// LOD 2 (coarsest, edge 2) must have propagated the non-air child: block
	// (2,3,4) quantizes to LOD1 cell (1,1,2) then LOD2 cell (0,0,1).
	assert.Equal(t, chunk.NewPaletteValue(7), lc.GetBlock(2, 0, 0, 1))
	assert.Equal(t, int32(0), lc.LoadedLOD())
}

func TestSectionDecodeFromPartialLODSkipsFinerBands(t *testing.T) {
	s := newTestSection(t, 2)
	c := s.CreateChunk(0, 0, 0)
	c.SetBlock(0, 1, 1, 1, chunk.NewPaletteValue(9))
	c.UpdateLODs(0, 1, 1, 1)

	var buf bytes.Buffer
	require.NoError(t, s.EncodeTo(&buf))

	w2, err := New(Config{ChunkSize: 8, SectionSize: 2, LODLevels: 2, Palette: s.world.conf.Palette}, nil)
	require.NoError(t, err)
	loaded := w2.CreateSection(1, -1)
	// finestLOD=1: only LOD 1 (coarsest here) should be decoded.
	require.NoError(t, loaded.DecodeFrom(bytes.NewReader(buf.Bytes()), 1))

	lc := loaded.GetChunk(0, 0, 0)
	require.NotNil(t, lc)
	assert.Equal(t, int32(1), lc.LoadedLOD())
	assert.False(t, lc.Editable())
}

func TestSectionUnloadLODsBelowAdvancesChunkFloor(t *testing.T) {
	s := newTestSection(t, 3)
	c := s.CreateChunk(0, 0, 0)
	require.True(t, c.Editable())

	s.UnloadLODsBelow(1)
	assert.Equal(t, int32(1), c.LoadedLOD())
	assert.False(t, c.Editable())
	assert.Nil(t, c.Values(0))
	assert.NotNil(t, c.Values(1))
}

func TestSectionDecodeFromRejectsMismatchedGridParams(t *testing.T) {
	s := newTestSection(t, 1)
	s.CreateChunk(0, 0, 0)

	var buf bytes.Buffer
	require.NoError(t, s.EncodeTo(&buf))

	pal := palette.New([]palette.Type{{}})
	w2, err := New(Config{ChunkSize: 16, SectionSize: 2, LODLevels: 1, Palette: pal}, nil)
	require.NoError(t, err)
	loaded := w2.CreateSection(1, -1)

	err = loaded.DecodeFrom(bytes.NewReader(buf.Bytes()), 0)
	assert.ErrorIs(t, err, ErrCorruptFile)
}
