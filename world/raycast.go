package world

import (
	"github.com/ashenforge/voxelworld/world/chunk"
	"github.com/ashenforge/voxelworld/world/collision"
	"github.com/ashenforge/voxelworld/world/geom"
	"github.com/ashenforge/voxelworld/world/palette"
	"github.com/go-gl/mathgl/mgl32"
)

// RaycastHit is the nearest solid block a raycast found along its ray.
type RaycastHit struct {
	Block    geom.Pos
	HitFace  geom.Face
	Value    chunk.Value
	Distance float32
}

// Raycast steps through the block grid with a 3D DDA from origin along
// direction (normalized by the caller), testing each non-air cell it
// visits up to maxDistance. Cubes and slabs use a precise box
// intersection (a slab's top is adjusted by its height); mesh blocks
// defer to their own collision shape through meshes; any other shape
// falls back to the enclosing unit cube. Returns the nearest hit, or
// ok=false if the ray never meets solid ground within maxDistance.
func (w *World) Raycast(origin, direction mgl32.Vec3, maxDistance float32, meshes collision.MeshShapeProvider) (hit RaycastHit, ok bool) {
	dda := geom.NewDDA(origin, direction)

	if h, ok2 := w.testCell(dda.Cell, origin, direction, geom.FaceUp, meshes); ok2 {
		return h, true
	}

	for {
		face, dist := dda.Next()
		if dist > maxDistance {
			return RaycastHit{}, false
		}
		if h, ok2 := w.testCell(dda.Cell, origin, direction, face, meshes); ok2 {
			return h, true
		}
	}
}

func (w *World) testCell(cell geom.Pos, origin, direction mgl32.Vec3, enteredFace geom.Face, meshes collision.MeshShapeProvider) (RaycastHit, bool) {
	v, ok := w.GetBlock(cell.X, cell.Y, cell.Z)
	if !ok || v == chunk.Air {
		return RaycastHit{}, false
	}
	if v.Colored() {
		box := geom.Box{Min: mgl32.Vec3{float32(cell.X), float32(cell.Y), float32(cell.Z)}, Max: mgl32.Vec3{float32(cell.X) + 1, float32(cell.Y) + 1, float32(cell.Z) + 1}}
		if dist, hit := box.IntersectRay(origin, direction); hit {
			return RaycastHit{Block: cell, HitFace: enteredFace, Value: v, Distance: dist}, true
		}
		return RaycastHit{}, false
	}

	t, ok := w.conf.Palette.Lookup(v.PaletteIndex())
	if !ok {
		return RaycastHit{}, false
	}

	switch t.Shape {
	case palette.ShapeCube:
		box := geom.Box{Min: mgl32.Vec3{float32(cell.X), float32(cell.Y), float32(cell.Z)}, Max: mgl32.Vec3{float32(cell.X) + 1, float32(cell.Y) + 1, float32(cell.Z) + 1}}
		if dist, hit := box.IntersectRay(origin, direction); hit {
			return RaycastHit{Block: cell, HitFace: enteredFace, Value: v, Distance: dist}, true
		}
	case palette.ShapeSlab:
		box := geom.Box{Min: mgl32.Vec3{float32(cell.X), float32(cell.Y), float32(cell.Z)}, Max: mgl32.Vec3{float32(cell.X) + 1, float32(cell.Y) + 1, float32(cell.Z) + t.SlabHeight}}
		if dist, hit := box.IntersectRay(origin, direction); hit {
			return RaycastHit{Block: cell, HitFace: enteredFace, Value: v, Distance: dist}, true
		}
	case palette.ShapeMesh:
		if meshes == nil {
			break
		}
		base := mgl32.Vec3{float32(cell.X), float32(cell.Y), float32(cell.Z)}
		box := geom.Box{Min: base, Max: base.Add(mgl32.Vec3{1, 1, 1})}
		if best, hit := w.nearestMeshTriangleHit(cell, box, origin, direction, meshes); hit {
			return RaycastHit{Block: cell, HitFace: enteredFace, Value: v, Distance: best}, true
		}
	default:
		box := geom.Box{Min: mgl32.Vec3{float32(cell.X), float32(cell.Y), float32(cell.Z)}, Max: mgl32.Vec3{float32(cell.X) + 1, float32(cell.Y) + 1, float32(cell.Z) + 1}}
		if dist, hit := box.IntersectRay(origin, direction); hit {
			return RaycastHit{Block: cell, HitFace: enteredFace, Value: v, Distance: dist}, true
		}
	}
	return RaycastHit{}, false
}

// nearestMeshTriangleHit delegates to the mesh's own concave shape
// (through the same cell-center/rotation transform the collision
// provider uses) and returns the nearest triangle intersection, if any.
func (w *World) nearestMeshTriangleHit(cell geom.Pos, box geom.Box, origin, direction mgl32.Vec3, meshes collision.MeshShapeProvider) (float32, bool) {
	sx, sy, relCX, relCY, cz, _, _, _ := BlockToChunk(cell.X, cell.Y, cell.Z, w.conf.ChunkSize, w.conf.SectionSize)
	c := w.index.Get(sx, sy).GetChunk(relCX, relCY, cz)
	found := false
	best := float32(0)
	collision.EnumerateTriangles(c, w.conf.Palette, meshes, box, func(t collision.Triangle) bool {
		if dist, ok := t.IntersectRay(origin, direction); ok {
			if !found || dist < best {
				best, found = dist, true
			}
		}
		return true
	})
	return best, found
}
