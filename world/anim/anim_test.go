package anim

import (
	"testing"

	"github.com/ashenforge/voxelworld/world/chunk"
	"github.com/ashenforge/voxelworld/world/geom"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLerpInterpolatesPosition(t *testing.T) {
	a := Transform{Position: mgl32.Vec3{0, 0, 0}, Orientation: mgl32.QuatIdent()}
	b := Transform{Position: mgl32.Vec3{10, 0, 0}, Orientation: mgl32.QuatIdent()}
	mid := Lerp(a, b, 0.5)
	assert.InDelta(t, 5.0, mid.Position[0], 1e-5)
}

func TestSpawnRecordAppliesOnExpiry(t *testing.T) {
	target := geom.Pos{X: 1, Y: 2, Z: 3}
	value := chunk.NewPaletteValue(9)
	r := NewSpawnRecord(value, 0, target, Transform{}, Transform{Position: mgl32.Vec3{0, 0, 1}}, 1.0, nil)

	var track Track
	track.Spawn(r)
	require.Equal(t, 1, track.Len())

	expiries := track.Step(0.5)
	assert.Empty(t, expiries)
	assert.Equal(t, 1, track.Len())

	expiries = track.Step(0.6)
	require.Len(t, expiries, 1)
	assert.Equal(t, target, expiries[0].Target)
	assert.Equal(t, value, expiries[0].Value)
	assert.Equal(t, 0, track.Len())
}

func TestSpawnRecordInterpolatesBeforeExpiry(t *testing.T) {
	start := Transform{Position: mgl32.Vec3{0, 0, 0}, Orientation: mgl32.QuatIdent()}
	end := Transform{Position: mgl32.Vec3{2, 0, 0}, Orientation: mgl32.QuatIdent()}
	r := NewSpawnRecord(chunk.NewPaletteValue(1), 0, geom.Pos{}, start, end, 2.0, Linear)

	var track Track
	track.Spawn(r)
	track.Step(1.0)
	assert.InDelta(t, 1.0, r.Current.Position[0], 1e-4)
}

type stubPhysics struct{ t Transform }

func (s stubPhysics) Transform() Transform { return s.t }

func TestPhysicsRecordNeverAppliesOnExpiry(t *testing.T) {
	phys := stubPhysics{t: Transform{Position: mgl32.Vec3{1, 1, 1}}}
	r := NewPhysicsRecord(chunk.NewPaletteValue(2), 0, geom.Pos{}, phys, 0.5)

	var track Track
	track.Spawn(r)

	track.Step(0.1)
	assert.Equal(t, mgl32.Vec3{1, 1, 1}, r.Current.Position)

	expiries := track.Step(1.0)
	assert.Empty(t, expiries)
	assert.Equal(t, 0, track.Len())
}

func TestEaseOutQuadDeceleratesTowardsEnd(t *testing.T) {
	// Past the midpoint, eased progress should exceed linear progress.
	assert.Greater(t, EaseOutQuad(0.75), float32(0.75))
	assert.Equal(t, float32(0), EaseOutQuad(0))
	assert.Equal(t, float32(1), EaseOutQuad(1))
}
