package geom

import "github.com/go-gl/mathgl/mgl32"

// DDA steps a ray through a voxel grid one cell at a time using the
// classic 3D digital differential analyzer: at each step it advances
// whichever axis reaches its next cell boundary soonest, so cells are
// visited in strict ray order with no skips.
type DDA struct {
	Cell Pos

	dir    mgl32.Vec3
	step   [3]int32
	tMax   mgl32.Vec3
	tDelta mgl32.Vec3
	t      float32
}

// NewDDA starts a DDA walk at origin, heading in direction dir (need not
// be normalized; only its sign and relative magnitude matter).
func NewDDA(origin, dir mgl32.Vec3) DDA {
	d := DDA{
		Cell: Pos{int32(floor32(origin[0])), int32(floor32(origin[1])), int32(floor32(origin[2]))},
		dir:  dir,
	}
	for i := 0; i < 3; i++ {
		switch {
		case dir[i] > 0:
			d.step[i] = 1
			d.tDelta[i] = 1 / dir[i]
			cellEdge := floor32(origin[i]) + 1
			d.tMax[i] = (cellEdge - origin[i]) / dir[i]
		case dir[i] < 0:
			d.step[i] = -1
			d.tDelta[i] = 1 / -dir[i]
			cellEdge := floor32(origin[i])
			d.tMax[i] = (origin[i] - cellEdge) / -dir[i]
		default:
			d.step[i] = 0
			d.tDelta[i] = float32(math32Inf)
			d.tMax[i] = float32(math32Inf)
		}
	}
	return d
}

const math32Inf = 1e30

func floor32(v float32) float32 {
	i := float32(int32(v))
	if v < 0 && i != v {
		i--
	}
	return i
}

// Next advances to the next cell along the ray, returning the face of the
// new cell the ray entered through and the ray distance at which it did
// so.
func (d *DDA) Next() (entered Face, distance float32) {
	axis := 0
	if d.tMax[1] < d.tMax[axis] {
		axis = 1
	}
	if d.tMax[2] < d.tMax[axis] {
		axis = 2
	}

	d.t = d.tMax[axis]
	d.tMax[axis] += d.tDelta[axis]

	switch axis {
	case 0:
		d.Cell.X += d.step[axis]
		if d.step[axis] > 0 {
			entered = FaceWest
		} else {
			entered = FaceEast
		}
	case 1:
		d.Cell.Y += d.step[axis]
		if d.step[axis] > 0 {
			entered = FaceNorth
		} else {
			entered = FaceSouth
		}
	default:
		d.Cell.Z += d.step[axis]
		if d.step[axis] > 0 {
			entered = FaceDown
		} else {
			entered = FaceUp
		}
	}
	return entered, d.t
}

// IntersectRay performs a slab-method ray/box test, returning the entry
// distance along the ray and whether the ray hits the box at all (a hit
// behind the origin, tmin < 0, is reported as ok with tmin clamped to 0).
func (b Box) IntersectRay(origin, dir mgl32.Vec3) (tmin float32, ok bool) {
	tMin, tMax := float32(0), float32(math32Inf)
	for i := 0; i < 3; i++ {
		if dir[i] == 0 {
			if origin[i] < b.Min[i] || origin[i] > b.Max[i] {
				return 0, false
			}
			continue
		}
		inv := 1 / dir[i]
		t0 := (b.Min[i] - origin[i]) * inv
		t1 := (b.Max[i] - origin[i]) * inv
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		if t0 > tMin {
			tMin = t0
		}
		if t1 < tMax {
			tMax = t1
		}
		if tMin > tMax {
			return 0, false
		}
	}
	return tMin, true
}
