package mesher

import (
	"math"

	"github.com/ashenforge/voxelworld/world/chunk"
	"github.com/ashenforge/voxelworld/world/geom"
	"github.com/ashenforge/voxelworld/world/palette"
	"github.com/go-gl/mathgl/mgl32"
)

// MeshInstance is one mesh-shape block's placement: it contributes no
// triangles of its own (its geometry lives in the external static asset
// referenced by the palette entry's MeshIndex), only a transform for the
// renderer to draw that asset at.
type MeshInstance struct {
	MeshIndex uint32
	Position  mgl32.Vec3
	Rotation  uint8
	Scale     float32
}

// MeshSingleBlock builds the geometry for one isolated block, ignoring
// any neighbours so every cube/slab face is emitted unculled. Useful for
// block preview/placeholder rendering, and reused here for every
// non-tileable shape (stairs, planes, mesh blocks) inside the chunk
// sweep, since those shapes never participate in greedy merging
// regardless of their neighbours.
func MeshSingleBlock(t palette.Type, value chunk.Value, data chunk.Data, useLightmaps bool) ChunkMesh {
	rot := geom.Rotation(chunk.Rotation(data))
	light := chunk.Light(data)
	if !useLightmaps {
		light = maxLightLevel
	}
	var m ChunkMesh

	switch t.Shape {
	case palette.ShapeCube, palette.ShapeSlab:
		height := float32(1)
		if t.Shape == palette.ShapeSlab {
			height = t.SlabHeight
		}
		m = boxMesh(t, value, rot, light, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 1, height})
	case palette.ShapeStairs:
		m = stairsMesh(t, value, rot, light)
	case palette.ShapePlane:
		m = planeMesh(t, value, rot, light)
	case palette.ShapeMesh:
		m.Instances = []MeshInstance{{MeshIndex: t.MeshIndex, Position: mgl32.Vec3{0.5, 0.5, 0.5}, Rotation: uint8(rot), Scale: 1}}
	}

	if t.Flags.Has(palette.FlagPointLightEmitter) {
		m.PointLights = append(m.PointLights, PointLight{
			Position: t.Light.Offset,
			Range:    t.Light.Range,
			Color:    t.Light.Color,
			Strength: t.Light.Brightness,
			Falloff:  t.Light.Falloff,
		})
	}
	return m
}

func tintOf(v chunk.Value) ([3]uint8, bool) {
	if !v.Colored() {
		return [3]uint8{255, 255, 255}, false
	}
	r, g, b := v.ColorRGB565()
	return [3]uint8{r, g, b}, true
}

// boxMesh emits all six faces of an axis-aligned box from min to max, in
// local [0,1]^3 block space, with no occlusion culling.
func boxMesh(t palette.Type, v chunk.Value, rot geom.Rotation, light uint8, min, max mgl32.Vec3) ChunkMesh {
	color, _ := tintOf(v)
	alpha := lightToAlpha(light)
	var mesh ChunkMesh

	for _, f := range geom.Faces {
		faceIdx := int(rot.Rotate(f))
		mat := materialFor(t, faceIdx)
		normal := f.Vec3()
		tangent := tangentFor(f)

		var corners [4]mgl32.Vec3
		switch f {
		case geom.FaceEast:
			corners = [4]mgl32.Vec3{{max[0], min[1], min[2]}, {max[0], max[1], min[2]}, {max[0], max[1], max[2]}, {max[0], min[1], max[2]}}
		case geom.FaceWest:
			corners = [4]mgl32.Vec3{{min[0], max[1], min[2]}, {min[0], min[1], min[2]}, {min[0], min[1], max[2]}, {min[0], max[1], max[2]}}
		case geom.FaceSouth:
			corners = [4]mgl32.Vec3{{max[0], max[1], min[2]}, {min[0], max[1], min[2]}, {min[0], max[1], max[2]}, {max[0], max[1], max[2]}}
		case geom.FaceNorth:
			corners = [4]mgl32.Vec3{{min[0], min[1], min[2]}, {max[0], min[1], min[2]}, {max[0], min[1], max[2]}, {min[0], min[1], max[2]}}
		case geom.FaceUp:
			corners = [4]mgl32.Vec3{{min[0], min[1], max[2]}, {max[0], min[1], max[2]}, {max[0], max[1], max[2]}, {min[0], max[1], max[2]}}
		default: // FaceDown
			corners = [4]mgl32.Vec3{{min[0], max[1], min[2]}, {max[0], max[1], min[2]}, {max[0], min[1], min[2]}, {min[0], min[1], min[2]}}
		}

		start := uint32(len(mesh.Vertices))
		uvs := [4][2]float32{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
		for i, c := range corners {
			mesh.Vertices = append(mesh.Vertices, Vertex{
				Position: c, Normal: normal, Tangent: tangent, UV: uvs[i], Color: color, Alpha: alpha,
			})
		}
		mesh.Indices = append(mesh.Indices, start, start+1, start+2, start, start+2, start+3)
		mesh.Batches = append(mesh.Batches, Batch{MaterialIndex: mat, FirstIndex: start / 4 * 6, IndexCount: 6})
	}
	return mesh
}

// stairsMesh emits a stair silhouette as two boxes, eleven quads in all:
// the six faces of a full-footprint lower half, and the five faces of the
// back-set upper half other than its bottom, which rests on the lower half
// and is never drawn. The lower half's top spans its whole footprint,
// including the part under the upper half. The geometry itself is not
// rotated; rot only selects the per-face material of each quad.
func stairsMesh(t palette.Type, v chunk.Value, rot geom.Rotation, light uint8) ChunkMesh {
	lower := boxMesh(t, v, rot, light, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 1, 0.5})
	upper := boxMeshFaces(t, v, rot, light, mgl32.Vec3{0, 0.5, 0.5}, mgl32.Vec3{1, 1, 1},
		[]geom.Face{geom.FaceEast, geom.FaceWest, geom.FaceSouth, geom.FaceNorth, geom.FaceUp})
	return mergeMeshes(lower, upper)
}

// boxMeshFaces is boxMesh restricted to a subset of faces.
func boxMeshFaces(t palette.Type, v chunk.Value, rot geom.Rotation, light uint8, min, max mgl32.Vec3, faces []geom.Face) ChunkMesh {
	full := boxMesh(t, v, rot, light, min, max)
	keep := make(map[geom.Face]bool, len(faces))
	for _, f := range faces {
		keep[f] = true
	}
	var out ChunkMesh
	for i, b := range full.Batches {
		f := geom.Faces[i]
		if !keep[f] {
			continue
		}
		start := uint32(len(out.Vertices))
		out.Vertices = append(out.Vertices, full.Vertices[i*4:i*4+4]...)
		out.Indices = append(out.Indices, start, start+1, start+2, start, start+2, start+3)
		out.Batches = append(out.Batches, Batch{MaterialIndex: b.MaterialIndex, FirstIndex: start / 4 * 6, IndexCount: 6})
	}
	return out
}

func mergeMeshes(a, b ChunkMesh) ChunkMesh {
	offset := uint32(len(a.Vertices))
	a.Vertices = append(a.Vertices, b.Vertices...)
	for _, i := range b.Indices {
		a.Indices = append(a.Indices, i+offset)
	}
	a.Batches = append(a.Batches, b.Batches...)
	a.PointLights = append(a.PointLights, b.PointLights...)
	return a
}

// planeMesh emits PlaneRepeatCount rotated billboard quad pairs (an X
// shape when count is 1), used for foliage-like blocks.
func planeMesh(t palette.Type, v chunk.Value, rot geom.Rotation, light uint8) ChunkMesh {
	color, _ := tintOf(v)
	alpha := lightToAlpha(light)
	mat := materialFor(t, int(rot.Rotate(geom.FaceNorth)))
	count := t.PlaneRepeatCount
	if count == 0 {
		count = 1
	}

	var mesh ChunkMesh
	for i := uint32(0); i < count; i++ {
		angle := float64(i) * (math.Pi / float64(count))
		s, c := math.Sincos(angle)
		dir := mgl32.Vec3{float32(c), float32(s), 0}
		perp := mgl32.Vec3{-dir[1], dir[0], 0}.Mul(0.5)
		center := mgl32.Vec3{0.5, 0.5, 0}

		for _, sign := range [2]float32{1, -1} {
			p := perp.Mul(sign)
			corners := [4]mgl32.Vec3{
				center.Sub(p), center.Add(p),
				center.Add(p).Add(mgl32.Vec3{0, 0, 1}), center.Sub(p).Add(mgl32.Vec3{0, 0, 1}),
			}
			start := uint32(len(mesh.Vertices))
			uvs := [4][2]float32{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
			for j, c := range corners {
				mesh.Vertices = append(mesh.Vertices, Vertex{
					Position: c, Normal: mgl32.Vec3{0, 0, 1}, Tangent: mgl32.Vec3{1, 0, 0},
					UV: uvs[j], Color: color, Alpha: alpha,
				})
			}
			mesh.Indices = append(mesh.Indices, start, start+1, start+2, start, start+2, start+3)
			mesh.Batches = append(mesh.Batches, Batch{MaterialIndex: mat, FirstIndex: start / 4 * 6, IndexCount: 6})
		}
	}
	return mesh
}
