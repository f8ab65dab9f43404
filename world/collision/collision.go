// Package collision implements the chunk collision provider: on-demand
// triangle enumeration over an axis-aligned query box, used by the
// (out-of-scope) physics engine's concave-shape callback. Like the
// mesher, every function here is a pure read of the chunk's own block
// arrays: no locks, safe to call concurrently with the mesher on other
// chunks, but never concurrently with an edit of the same chunk.
package collision

import (
	"math"

	"github.com/ashenforge/voxelworld/world/chunk"
	"github.com/ashenforge/voxelworld/world/geom"
	"github.com/ashenforge/voxelworld/world/palette"
	"github.com/go-gl/mathgl/mgl32"
)

// PartID tags which face of a cube/slab a triangle belongs to, so a
// physics callback can tell which face was hit.
type PartID uint8

const (
	PartRight  PartID = iota // +X
	PartLeft                 // -X
	PartBack                 // +Y
	PartFront                // -Y
	PartTop                  // +Z
	PartBottom               // -Z
)

func partFor(f geom.Face) PartID {
	switch f {
	case geom.FaceEast:
		return PartRight
	case geom.FaceWest:
		return PartLeft
	case geom.FaceSouth:
		return PartBack
	case geom.FaceNorth:
		return PartFront
	case geom.FaceUp:
		return PartTop
	default:
		return PartBottom
	}
}

// Triangle is one emitted collision triangle in the same coordinate
// space as the query box (world space, if the caller's box is in world
// space). LocalIndex is the triangle's position within its emitting
// block (0-11 for a cube/slab, mesh-defined for mesh blocks), so a
// caller can recover which of a block's 12 triangles was hit.
type Triangle struct {
	A, B, C    mgl32.Vec3
	Part       PartID
	LocalIndex uint32
}

// MeshShapeProvider is the external collaborator that owns a static mesh
// asset's own concave collision shape, resolved by the palette's
// MeshIndex. The (out-of-scope) asset/physics layer implements this;
// EnumerateTriangles is only ever called with a mesh-local query box.
type MeshShapeProvider interface {
	EnumerateTriangles(meshIndex uint32, box geom.Box, cb func(Triangle) bool)
}

// EnumerateTriangles reports every collision triangle of c overlapping
// box (in world space), in ascending (z, y, x) cell order. Cube and slab
// blocks emit 12 triangles across their six faces; mesh blocks build a
// local placement transform and delegate to meshes, wrapping the result
// back through that transform. Any other shape is skipped: stairs and
// planes are not yet supported at the collision layer. meshes may be nil
// if the chunk contains no mesh-shape blocks; a nil meshes with a
// mesh-shape block present simply skips that block.
func EnumerateTriangles(c *chunk.Chunk, pal *palette.Palette, meshes MeshShapeProvider, box geom.Box, cb func(Triangle) bool) {
	base := c.BasePosition()
	local := box.Translate(base.Mul(-1))
	edge := float32(c.Size)
	clipped := local.Intersect(geom.Box{Max: mgl32.Vec3{edge, edge, edge}})
	if !clipped.Valid() {
		return
	}

	minX, minY, minZ := cellFloor(clipped.Min, c.Size)
	maxX, maxY, maxZ := cellCeil(clipped.Max, c.Size)

	stopped := false
	emit := func(t Triangle) bool {
		if !cb(t) {
			stopped = true
			return false
		}
		return true
	}

	for z := minZ; z <= maxZ && !stopped; z++ {
		for y := minY; y <= maxY && !stopped; y++ {
			for x := minX; x <= maxX && !stopped; x++ {
				v := c.GetBlock(0, x, y, z)
				if v == chunk.Air || v.Colored() {
					continue
				}
				t, ok := pal.Lookup(v.PaletteIndex())
				if !ok {
					continue
				}
				d := c.GetData(0, x, y, z)
				cellBase := base.Add(mgl32.Vec3{float32(x), float32(y), float32(z)})

				switch t.Shape {
				case palette.ShapeCube:
					emitBox(cellBase, 1, emit)
				case palette.ShapeSlab:
					emitBox(cellBase, t.SlabHeight, emit)
				case palette.ShapeMesh:
					if meshes != nil {
						emitMesh(cellBase, t.MeshIndex, geom.Rotation(chunk.Rotation(d)), meshes, box, emit)
					}
				default:
					// stairs, planes: not yet supported at the collision layer.
				}
			}
		}
	}
}

func cellFloor(v mgl32.Vec3, size int32) (x, y, z int32) {
	clamp := func(f float32) int32 {
		i := int32(math.Floor(float64(f)))
		if i < 0 {
			i = 0
		}
		if i >= size {
			i = size - 1
		}
		return i
	}
	return clamp(v[0]), clamp(v[1]), clamp(v[2])
}

func cellCeil(v mgl32.Vec3, size int32) (x, y, z int32) {
	clamp := func(f float32) int32 {
		i := int32(math.Ceil(float64(f))) - 1
		if i < 0 {
			i = 0
		}
		if i >= size {
			i = size - 1
		}
		return i
	}
	return clamp(v[0]), clamp(v[1]), clamp(v[2])
}

// boxCorners returns the eight corners of an axis-aligned box of the
// given height (for a cube, height == 1) based at base, in the fixed
// vertex order used by faceCorners.
func boxCorners(base mgl32.Vec3, height float32) [8]mgl32.Vec3 {
	min, max := base, base.Add(mgl32.Vec3{1, 1, height})
	return [8]mgl32.Vec3{
		{min[0], min[1], min[2]}, {max[0], min[1], min[2]}, {max[0], max[1], min[2]}, {min[0], max[1], min[2]},
		{min[0], min[1], max[2]}, {max[0], min[1], max[2]}, {max[0], max[1], max[2]}, {min[0], max[1], max[2]},
	}
}

// faceCorners indexes, per face, the four boxCorners vertices in
// consistent winding, so quad[0..3] always walks the face
// counter-clockwise when viewed from outside the box.
var faceCorners = map[geom.Face][4]int{
	geom.FaceEast:  {1, 2, 6, 5},
	geom.FaceWest:  {3, 0, 4, 7},
	geom.FaceSouth: {2, 3, 7, 6},
	geom.FaceNorth: {0, 1, 5, 4},
	geom.FaceUp:    {4, 5, 6, 7},
	geom.FaceDown:  {3, 2, 1, 0},
}

// emitBox emits the 12 triangles (two per face, six faces) of an
// axis-aligned box of the given height based at base. Triangle
// LocalIndex runs 0-11 in geom.Faces order, two triangles per face.
func emitBox(base mgl32.Vec3, height float32, emit func(Triangle) bool) bool {
	corners := boxCorners(base, height)
	idx := uint32(0)
	for _, f := range geom.Faces {
		q := faceCorners[f]
		part := partFor(f)
		if !emit(Triangle{A: corners[q[0]], B: corners[q[1]], C: corners[q[2]], Part: part, LocalIndex: idx}) {
			return false
		}
		idx++
		if !emit(Triangle{A: corners[q[0]], B: corners[q[2]], C: corners[q[3]], Part: part, LocalIndex: idx}) {
			return false
		}
		idx++
	}
	return true
}

// quarterRotateXY rotates v's X/Y components by r quarter turns about
// the Z axis, matching geom.Rotation's North->East->South->West cycle.
func quarterRotateXY(v mgl32.Vec3, r geom.Rotation) mgl32.Vec3 {
	switch r % 4 {
	case 1:
		return mgl32.Vec3{-v[1], v[0], v[2]}
	case 2:
		return mgl32.Vec3{-v[0], -v[1], v[2]}
	case 3:
		return mgl32.Vec3{v[1], -v[0], v[2]}
	default:
		return v
	}
}

func invRotation(r geom.Rotation) geom.Rotation { return geom.Rotation((4 - uint8(r)%4) % 4) }

// emitMesh builds the cell's local placement transform (translate to
// cell center, rotate by the block's cardinal rotation), inverse
// transforms the query box into mesh-local space, and wraps every
// triangle the mesh provider reports back through the forward
// transform.
func emitMesh(cellBase mgl32.Vec3, meshIndex uint32, rot geom.Rotation, meshes MeshShapeProvider, worldBox geom.Box, emit func(Triangle) bool) bool {
	center := cellBase.Add(mgl32.Vec3{0.5, 0.5, 0.5})
	inv := invRotation(rot)

	toLocal := func(p mgl32.Vec3) mgl32.Vec3 { return quarterRotateXY(p.Sub(center), inv) }
	toWorld := func(p mgl32.Vec3) mgl32.Vec3 { return quarterRotateXY(p, rot).Add(center) }

	localBox := geom.NewBox(toLocal(worldBox.Min), toLocal(worldBox.Max))

	stopped := false
	meshes.EnumerateTriangles(meshIndex, localBox, func(t Triangle) bool {
		wrapped := Triangle{A: toWorld(t.A), B: toWorld(t.B), C: toWorld(t.C), Part: t.Part, LocalIndex: t.LocalIndex}
		if !emit(wrapped) {
			stopped = true
			return false
		}
		return true
	})
	return !stopped
}

// IntersectRay performs a Möller-Trumbore ray/triangle test, used by the
// raycast fallback path for mesh-shape blocks once their own collision
// shape has narrowed the candidate set down to individual triangles.
func (t Triangle) IntersectRay(origin, dir mgl32.Vec3) (distance float32, ok bool) {
	const epsilon = 1e-7

	edge1 := t.B.Sub(t.A)
	edge2 := t.C.Sub(t.A)
	h := dir.Cross(edge2)
	a := edge1.Dot(h)
	if a > -epsilon && a < epsilon {
		return 0, false
	}
	f := 1 / a
	s := origin.Sub(t.A)
	u := f * s.Dot(h)
	if u < 0 || u > 1 {
		return 0, false
	}
	q := s.Cross(edge1)
	v := f * dir.Dot(q)
	if v < 0 || u+v > 1 {
		return 0, false
	}
	dist := f * edge2.Dot(q)
	if dist <= epsilon {
		return 0, false
	}
	return dist, true
}
