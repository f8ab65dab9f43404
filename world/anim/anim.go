// Package anim implements the block animation track: short-lived,
// purely cosmetic per-block transforms (a block spawning into place, an
// exploded block's debris falling under physics) that ride along beside
// the world without touching it until they expire. A Track never
// mutates a World directly; Step reports expired, apply-on-expiry
// records back to the caller so the (single) world thread can perform
// the actual SetBlock.
package anim

import (
	"github.com/ashenforge/voxelworld/world/chunk"
	"github.com/ashenforge/voxelworld/world/geom"
	"github.com/ashenforge/voxelworld/world/render"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

// Transform is a block's cosmetic placement at a point in time.
type Transform struct {
	Position    mgl32.Vec3
	Orientation mgl32.Quat
}

// Lerp returns the linearly (position) and spherically (orientation)
// interpolated transform between a and b at t in [0, 1].
func Lerp(a, b Transform, t float32) Transform {
	return Transform{
		Position:    a.Position.Add(b.Position.Sub(a.Position).Mul(t)),
		Orientation: mgl32.QuatSlerp(a.Orientation, b.Orientation, t),
	}
}

// EasingFunc remaps a normalized time fraction to an eased fraction.
type EasingFunc func(t float32) float32

// Linear applies no easing.
func Linear(t float32) float32 { return t }

// EaseOutQuad decelerates towards the end of the animation, used for
// spawn-in cosmetic transforms.
func EaseOutQuad(t float32) float32 { return t * (2 - t) }

// PhysicsHandle is the (out-of-scope) physics engine's handle to a
// simulated rigid body driving an explosion/despawn animation's
// transform every frame, in place of a fixed start/end curve.
type PhysicsHandle interface {
	Transform() Transform
}

// Record is one in-flight cosmetic block animation.
type Record struct {
	ID       uuid.UUID
	Value    chunk.Value
	Rotation uint8
	Target   geom.Pos

	Current Transform

	lifetimeRemaining float32
	totalLifetime     float32

	// ApplyOnExpiry, when true, writes Value into the world at Target on
	// expiry (a spawn animation); when false, the record simply vanishes
	// (an explosion's debris).
	ApplyOnExpiry bool

	// Physics, if non-nil, drives Current every frame instead of Start/End
	// interpolation; used for physics-driven despawn animations.
	Physics PhysicsHandle

	Start, End Transform
	Easing     EasingFunc

	Proxy render.Handle
}

// NewSpawnRecord builds a spawn-in animation: Start/End interpolated over
// lifetime seconds with easing, applying value at Target on expiry.
func NewSpawnRecord(value chunk.Value, rotation uint8, target geom.Pos, start, end Transform, lifetime float32, easing EasingFunc) *Record {
	if easing == nil {
		easing = Linear
	}
	return &Record{
		ID: uuid.New(), Value: value, Rotation: rotation, Target: target,
		Current: start, Start: start, End: end,
		lifetimeRemaining: lifetime, totalLifetime: lifetime,
		ApplyOnExpiry: true, Easing: easing,
	}
}

// NewPhysicsRecord builds a despawn animation driven by an external
// physics body for lifetime seconds; it never applies a block on expiry.
func NewPhysicsRecord(value chunk.Value, rotation uint8, target geom.Pos, physics PhysicsHandle, lifetime float32) *Record {
	return &Record{
		ID: uuid.New(), Value: value, Rotation: rotation, Target: target,
		Physics: physics, lifetimeRemaining: lifetime, totalLifetime: lifetime,
	}
}

// Track owns the set of in-flight animation records.
type Track struct {
	records []*Record
}

// Spawn adds a record to the track.
func (t *Track) Spawn(r *Record) { t.records = append(t.records, r) }

// Len returns the number of in-flight records.
func (t *Track) Len() int { return len(t.records) }

// Expiry is one record that finished during a Step call and asked to be
// applied to the world.
type Expiry struct {
	Target geom.Pos
	Value  chunk.Value
}

// Step advances every record by dt seconds, updates each record's
// render proxy (if Transformable) to its new Current transform, and
// returns the set of ApplyOnExpiry records that expired this step so the
// caller can perform the corresponding SetBlock on the world thread. A
// Track never calls into a World itself.
func (t *Track) Step(dt float32) []Expiry {
	var expired []Expiry
	live := t.records[:0]
	for _, r := range t.records {
		r.lifetimeRemaining -= dt

		if r.Physics != nil {
			r.Current = r.Physics.Transform()
		} else if r.totalLifetime > 0 {
			frac := 1 - r.lifetimeRemaining/r.totalLifetime
			if frac < 0 {
				frac = 0
			} else if frac > 1 {
				frac = 1
			}
			r.Current = Lerp(r.Start, r.End, r.Easing(frac))
		}

		if tr, ok := r.Proxy.Get().(render.Transformable); ok {
			tr.SetTransform(r.Current.Position, r.Current.Orientation)
		}

		if r.lifetimeRemaining > 0 {
			live = append(live, r)
			continue
		}

		if r.ApplyOnExpiry {
			expired = append(expired, Expiry{Target: r.Target, Value: r.Value})
		}
		r.Proxy.Release()
	}
	t.records = live
	return expired
}
