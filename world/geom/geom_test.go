package geom

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestFloorDivNegative(t *testing.T) {
	// Block -1 with a 16-wide grid must resolve to cell -1, local 15.
	assert.Equal(t, int32(-1), FloorDiv(-1, 16))
	assert.Equal(t, int32(15), FloorMod(-1, 16))

	assert.Equal(t, int32(0), FloorDiv(0, 16))
	assert.Equal(t, int32(0), FloorMod(0, 16))

	assert.Equal(t, int32(-2), FloorDiv(-17, 16))
	assert.Equal(t, int32(15), FloorMod(-17, 16))

	assert.Equal(t, int32(1), FloorDiv(16, 16))
	assert.Equal(t, int32(0), FloorMod(16, 16))
}

func TestFaceOppositeIsInvolution(t *testing.T) {
	for _, f := range Faces {
		assert.Equal(t, f, f.Opposite().Opposite())
	}
}

func TestRotationCyclesHorizontalFaces(t *testing.T) {
	assert.Equal(t, FaceEast, RotationEast.Rotate(FaceNorth))
	assert.Equal(t, FaceSouth, RotationSouth.Rotate(FaceNorth))
	assert.Equal(t, FaceWest, RotationWest.Rotate(FaceNorth))
	assert.Equal(t, FaceNorth, Rotation(4%4).Rotate(FaceNorth))
}

func TestRotationFixesVerticalFaces(t *testing.T) {
	assert.Equal(t, FaceUp, RotationEast.Rotate(FaceUp))
	assert.Equal(t, FaceDown, RotationWest.Rotate(FaceDown))
}

func TestBoxIntersectAndValid(t *testing.T) {
	a := NewBox(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{2, 2, 2})
	b := NewBox(mgl32.Vec3{1, 1, 1}, mgl32.Vec3{3, 3, 3})

	i := a.Intersect(b)
	assert.True(t, i.Valid())
	assert.Equal(t, mgl32.Vec3{1, 1, 1}, i.Min)
	assert.Equal(t, mgl32.Vec3{2, 2, 2}, i.Max)

	disjoint := NewBox(mgl32.Vec3{5, 5, 5}, mgl32.Vec3{6, 6, 6})
	assert.False(t, a.Intersect(disjoint).Valid())
}

func TestBoxUnionCoversBoth(t *testing.T) {
	a := NewBox(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 1, 1})
	b := NewBox(mgl32.Vec3{-1, -1, -1}, mgl32.Vec3{0.5, 0.5, 0.5})
	u := a.Union(b)
	assert.Equal(t, mgl32.Vec3{-1, -1, -1}, u.Min)
	assert.Equal(t, mgl32.Vec3{1, 1, 1}, u.Max)
}

func TestBoxIntersectRayHitsFace(t *testing.T) {
	box := NewBox(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 1, 1})
	tmin, ok := box.IntersectRay(mgl32.Vec3{-5, 0.5, 0.5}, mgl32.Vec3{1, 0, 0})
	assert.True(t, ok)
	assert.InDelta(t, 5.0, tmin, 1e-5)
}

func TestBoxIntersectRayMisses(t *testing.T) {
	box := NewBox(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 1, 1})
	_, ok := box.IntersectRay(mgl32.Vec3{-5, 5, 5}, mgl32.Vec3{1, 0, 0})
	assert.False(t, ok)
}

func TestDDAWalksExpectedCellSequence(t *testing.T) {
	dda := NewDDA(mgl32.Vec3{0.5, 0.5, 0.5}, mgl32.Vec3{1, 0, 0})
	assert.Equal(t, Pos{0, 0, 0}, dda.Cell)

	face, dist := dda.Next()
	assert.Equal(t, FaceWest, face)
	assert.InDelta(t, 0.5, dist, 1e-5)
	assert.Equal(t, Pos{1, 0, 0}, dda.Cell)

	_, dist2 := dda.Next()
	assert.InDelta(t, 1.5, dist2, 1e-5)
	assert.Equal(t, Pos{2, 0, 0}, dda.Cell)
}

func TestDDANegativeDirection(t *testing.T) {
	dda := NewDDA(mgl32.Vec3{0.5, 0.5, 0.5}, mgl32.Vec3{-1, 0, 0})
	face, _ := dda.Next()
	assert.Equal(t, FaceEast, face)
	assert.Equal(t, Pos{-1, 0, 0}, dda.Cell)
}
