// Package geom holds the small set of coordinate, rotation and
// bounding-box primitives the block engine needs, built on top of
// mathgl.
package geom

import "github.com/go-gl/mathgl/mgl32"

// Face identifies one of the six axis-aligned cube faces.
type Face uint8

const (
	FaceEast Face = iota // +X
	FaceWest             // -X
	FaceUp               // +Z (Z is the vertical/height axis)
	FaceDown             // -Z
	FaceSouth            // +Y
	FaceNorth            // -Y
)

// Faces lists all six faces in a fixed, deterministic scan order, used
// wherever a stable order matters: per-face box emission in the mesher and
// the collision provider, and neighbour lookup in the scheduler.
var Faces = [6]Face{FaceEast, FaceWest, FaceUp, FaceDown, FaceSouth, FaceNorth}

// Opposite returns the face pointing the opposite direction.
func (f Face) Opposite() Face {
	switch f {
	case FaceEast:
		return FaceWest
	case FaceWest:
		return FaceEast
	case FaceUp:
		return FaceDown
	case FaceDown:
		return FaceUp
	case FaceSouth:
		return FaceNorth
	default:
		return FaceSouth
	}
}

// Vec3 returns the unit direction vector for the face.
func (f Face) Vec3() mgl32.Vec3 {
	switch f {
	case FaceEast:
		return mgl32.Vec3{1, 0, 0}
	case FaceWest:
		return mgl32.Vec3{-1, 0, 0}
	case FaceUp:
		return mgl32.Vec3{0, 0, 1}
	case FaceDown:
		return mgl32.Vec3{0, 0, -1}
	case FaceSouth:
		return mgl32.Vec3{0, 1, 0}
	default:
		return mgl32.Vec3{0, -1, 0}
	}
}

// Delta returns the unit cell offset for the face in (dx, dy, dz).
func (f Face) Delta() (dx, dy, dz int32) {
	switch f {
	case FaceEast:
		return 1, 0, 0
	case FaceWest:
		return -1, 0, 0
	case FaceUp:
		return 0, 0, 1
	case FaceDown:
		return 0, 0, -1
	case FaceSouth:
		return 0, 1, 0
	default:
		return 0, -1, 0
	}
}

// Rotation is one of the four cardinal block rotations packed into
// BlockData bits 6-7.
type Rotation uint8

const (
	RotationNorth Rotation = iota
	RotationEast
	RotationSouth
	RotationWest
)

// Rotate applies the rotation to a face lying in the horizontal plane
// (North/East/South/West faces cycle; Up/Down are fixed points).
func (r Rotation) Rotate(f Face) Face {
	if f != FaceNorth && f != FaceEast && f != FaceSouth && f != FaceWest {
		return f
	}
	order := [4]Face{FaceNorth, FaceEast, FaceSouth, FaceWest}
	idx := 0
	for i, o := range order {
		if o == f {
			idx = i
			break
		}
	}
	return order[(idx+int(r))%4]
}

// Pos is a signed 3D integer coordinate, used for both block and chunk
// coordinates depending on context.
type Pos struct {
	X, Y, Z int32
}

// FloorDiv performs Euclidean (floor) division: negative coordinates
// floor toward negative infinity, not truncate toward zero.
func FloorDiv(a, b int32) int32 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// FloorMod returns the Euclidean remainder of a/b, always in [0, b).
func FloorMod(a, b int32) int32 {
	m := a % b
	if m < 0 {
		m += abs32(b)
	}
	return m
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

// Box is an axis-aligned bounding box.
type Box struct {
	Min, Max mgl32.Vec3
}

// NewBox constructs a Box from two corners, reordering them if necessary.
func NewBox(a, b mgl32.Vec3) Box {
	return Box{
		Min: mgl32.Vec3{min32(a[0], b[0]), min32(a[1], b[1]), min32(a[2], b[2])},
		Max: mgl32.Vec3{max32(a[0], b[0]), max32(a[1], b[1]), max32(a[2], b[2])},
	}
}

// Union returns the smallest Box containing both b and o.
func (b Box) Union(o Box) Box {
	return Box{
		Min: mgl32.Vec3{min32(b.Min[0], o.Min[0]), min32(b.Min[1], o.Min[1]), min32(b.Min[2], o.Min[2])},
		Max: mgl32.Vec3{max32(b.Max[0], o.Max[0]), max32(b.Max[1], o.Max[1]), max32(b.Max[2], o.Max[2])},
	}
}

// Translate offsets the box by v.
func (b Box) Translate(v mgl32.Vec3) Box {
	return Box{Min: b.Min.Add(v), Max: b.Max.Add(v)}
}

// Intersect clips b to the overlap with o. The result may be degenerate
// (Min > Max on some axis) if the boxes don't overlap; callers should check
// with Valid.
func (b Box) Intersect(o Box) Box {
	return Box{
		Min: mgl32.Vec3{max32(b.Min[0], o.Min[0]), max32(b.Min[1], o.Min[1]), max32(b.Min[2], o.Min[2])},
		Max: mgl32.Vec3{min32(b.Max[0], o.Max[0]), min32(b.Max[1], o.Max[1]), min32(b.Max[2], o.Max[2])},
	}
}

// Valid reports whether the box has non-negative extent on every axis.
func (b Box) Valid() bool {
	return b.Min[0] <= b.Max[0] && b.Min[1] <= b.Max[1] && b.Min[2] <= b.Max[2]
}

// Center returns the midpoint of the box.
func (b Box) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// SphereRadius returns the radius of the bounding sphere derived from
// this box.
func (b Box) SphereRadius() float32 {
	d := b.Max.Sub(b.Min).Mul(0.5)
	return d.Len()
}

func min32(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func max32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
