package mesher

import (
	"math"

	"github.com/ashenforge/voxelworld/world"
	"github.com/ashenforge/voxelworld/world/chunk"
	"github.com/ashenforge/voxelworld/world/geom"
	"github.com/ashenforge/voxelworld/world/palette"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/segmentio/fasthash/fnv1a"
)

// maskKey is the equality class a greedy sweep merges cells by: two
// adjacent, same-orientation faces merge into one quad only if every
// field here matches.
type maskKey struct {
	shape      palette.Shape
	material   uint32
	light      uint8
	rotation   uint8
	tinted     bool
	color      [3]uint8
	slabHeight float32
	faceIdx    int
	uv         palette.FaceUV

	// volumeTiled marks shapes whose side faces may merge across a
	// vertical run: cubes always, slabs only when flagged as volume.
	volumeTiled bool
}

// hash returns a cheap hash of the key, used as a fast pre-check before
// the full struct comparison during the greedy sweep: the mask build
// computes one hash per cell so adjacent non-matching cells are rejected
// on a single integer compare without touching every field.
func (k maskKey) hash() uint64 {
	h := fnv1a.HashUint64(uint64(k.material))
	h = fnv1a.AddUint64(h, uint64(k.light))
	h = fnv1a.AddUint64(h, uint64(k.rotation))
	h = fnv1a.AddUint64(h, uint64(k.shape))
	h = fnv1a.AddUint64(h, uint64(k.faceIdx))
	if k.tinted {
		h = fnv1a.AddUint64(h, 1)
		h = fnv1a.AddUint64(h, uint64(k.color[0])<<16|uint64(k.color[1])<<8|uint64(k.color[2]))
	}
	if k.volumeTiled {
		h = fnv1a.AddUint64(h, 1)
	}
	h = fnv1a.AddUint64(h, uint64(math.Float32bits(k.slabHeight)))
	return h
}

type maskCell struct {
	key    maskKey
	keyH   uint64
	active bool
}

// sweepAxis describes one of the six directed face scans a chunk is
// meshed with: the axis held fixed, the scan direction along it, and the
// face that axis/direction pair draws. Whether a sweep caps vertical
// merging for partial-height shapes is derived from axis in BuildMesh
// (limitV) and applied in mergeMask.
type sweepAxis struct {
	axis int32 // 0=X, 1=Y, 2=Z (the axis held fixed while scanning layers)
	dir  int32 // +1 or -1
	face geom.Face
}

var sweeps = [6]sweepAxis{
	{0, 1, geom.FaceEast}, {0, -1, geom.FaceWest},
	{1, 1, geom.FaceSouth}, {1, -1, geom.FaceNorth},
	{2, 1, geom.FaceUp}, {2, -1, geom.FaceDown},
}

// buildMask computes the N x N mask of merge keys for one (sweep, layer)
// pair: mask[v][u] holds the cell occupying local coordinate (x,y,z)
// derived from (axis, layer, u, v), if that cell's face in sweep.face's
// direction is visible.
func buildMask(pal *palette.Palette, c *chunk.Chunk, nb world.NeighbourChunks, lod int32, n int32, sw sweepAxis, layer int32, useLightmaps bool) [][]maskCell {
	mask := make([][]maskCell, n)
	for i := range mask {
		mask[i] = make([]maskCell, n)
	}

	for v := int32(0); v < n; v++ {
		for u := int32(0); u < n; u++ {
			x, y, z := localCoord(sw.axis, layer, u, v)
			val := c.GetBlock(lod, x, y, z)
			cl, ok := lookupCell(pal, val, c.GetData(lod, x, y, z))
			if !ok {
				continue
			}
			if cl.typ.Shape != palette.ShapeCube && cl.typ.Shape != palette.ShapeSlab {
				continue // stairs/plane/mesh are non-tileable, emitted separately
			}
			if !faceVisible(pal, c, nb, lod, x, y, z, sw.face, val, cl.typ) {
				continue
			}
			k := cellMaskKey(cl, sw.face, useLightmaps)
			mask[v][u] = maskCell{key: k, keyH: k.hash(), active: true}
		}
	}
	return mask
}

// localCoord maps a sweep's (layer, u, v) back to chunk-local (x, y, z).
func localCoord(axis, layer, u, v int32) (x, y, z int32) {
	switch axis {
	case 0:
		return layer, u, v
	case 1:
		return u, layer, v
	default:
		return u, v, layer
	}
}

// maxLightLevel is the constant light value written everywhere when the
// host disables lightmaps (Config.UseLightmaps == false): the mesher then
// ignores per-face sampled light entirely.
const maxLightLevel uint8 = 15

func cellMaskKey(cl cell, face geom.Face, useLightmaps bool) maskKey {
	rot := geom.Rotation(chunk.Rotation(cl.data) & 0x3)
	faceIdx := int(rot.Rotate(face))
	light := chunk.Light(cl.data)
	if !useLightmaps {
		light = maxLightLevel
	}
	k := maskKey{
		shape:    cl.typ.Shape,
		material: materialFor(cl.typ, faceIdx),
		light:    light,
		rotation: uint8(rot),
		faceIdx:  faceIdx,
		uv:       cl.typ.Faces[faceIdx],
	}
	switch cl.typ.Shape {
	case palette.ShapeSlab:
		k.slabHeight = cl.typ.SlabHeight
		k.volumeTiled = cl.typ.Flags.Has(palette.FlagVolumeCube)
	default: // cubes
		k.slabHeight = 1
		k.volumeTiled = true
	}
	if cl.value.Colored() {
		r, g, b := cl.value.ColorRGB565()
		k.tinted = true
		k.color = [3]uint8{r, g, b}
	}
	return k
}

// greedyRect is one merged rectangle in mask space, inclusive of its own
// key so the caller can emit a quad without re-deriving it.
type greedyRect struct {
	key                maskKey
	uMin, vMin         int32
	uMax, vMax         int32 // exclusive
}

// mergeMask runs the classic 2D greedy merge over mask, consuming cells as
// it goes. limitV, when true, marks the v axis as vertical (Z) and keeps
// every rectangle's height at exactly 1 row unless its key tiles in Z
// (cubes always, slabs only when flagged as volume): a stack of plain
// slabs leaves a gap between each layer's filled span, so merging their
// side faces would draw across the gaps.
func mergeMask(mask [][]maskCell, limitV bool) []greedyRect {
	n := int32(len(mask))
	var rects []greedyRect

	for v := int32(0); v < n; v++ {
		for u := int32(0); u < n; u++ {
			mc := mask[v][u]
			if !mc.active {
				continue
			}

			width := int32(1)
			for u+width < n {
				nc := mask[v][u+width]
				if !nc.active || nc.keyH != mc.keyH || nc.key != mc.key {
					break
				}
				width++
			}

			height := int32(1)
			if !limitV || mc.key.volumeTiled {
				for v+height < n {
					rowOK := true
					for du := int32(0); du < width; du++ {
						nc := mask[v+height][u+du]
						if !nc.active || nc.keyH != mc.keyH || nc.key != mc.key {
							rowOK = false
							break
						}
					}
					if !rowOK {
						break
					}
					height++
				}
			}

			for dv := int32(0); dv < height; dv++ {
				for du := int32(0); du < width; du++ {
					mask[v+dv][u+du].active = false
				}
			}

			rects = append(rects, greedyRect{key: mc.key, uMin: u, vMin: v, uMax: u + width, vMax: v + height})
		}
	}
	return rects
}

// emitQuad appends the vertices/indices for one merged rectangle on the
// given sweep at the given layer, returning the updated vertex/index
// slices.
func emitQuad(verts []Vertex, idx []uint32, base mgl32.Vec3, cellScale float32, sw sweepAxis, layer int32, r greedyRect) ([]Vertex, []uint32) {
	out := float32(layer) * cellScale
	if sw.dir > 0 {
		if sw.axis == 2 {
			// A slab's +Z face sits at its own height; every other
			// positive face is flush with the full cell boundary.
			out += r.key.slabHeight * cellScale
		} else {
			out += cellScale
		}
	}

	uMin, uMax := float32(r.uMin)*cellScale, float32(r.uMax)*cellScale
	vMin, vMax := float32(r.vMin)*cellScale, float32(r.vMax)*cellScale
	if sw.axis != 2 && r.key.slabHeight < 1 {
		// A slab run's side face spans its full lower rows and reaches
		// only slabHeight into the topmost one.
		vMax = float32(r.vMax-1)*cellScale + r.key.slabHeight*cellScale
	}

	var corners [4]mgl32.Vec3
	switch sw.axis {
	case 0:
		corners = [4]mgl32.Vec3{
			{out, uMin, vMin}, {out, uMax, vMin}, {out, uMax, vMax}, {out, uMin, vMax},
		}
	case 1:
		corners = [4]mgl32.Vec3{
			{uMin, out, vMin}, {uMax, out, vMin}, {uMax, out, vMax}, {uMin, out, vMax},
		}
	default:
		corners = [4]mgl32.Vec3{
			{uMin, vMin, out}, {uMax, vMin, out}, {uMax, vMax, out}, {uMin, vMax, out},
		}
	}
	if sw.dir < 0 {
		corners[1], corners[3] = corners[3], corners[1]
	}

	normal := sw.face.Vec3()
	tangent := tangentFor(sw.face)
	uvs := quadUVs(r.key.uv, float32(r.uMax-r.uMin), float32(r.vMax-r.vMin), sw.axis != 2 && r.key.slabHeight < 1, r.key.slabHeight)

	start := uint32(len(verts))
	for i, c := range corners {
		v := Vertex{
			Position: base.Add(c),
			Normal:   normal,
			Tangent:  tangent,
			UV:       uvs[i],
			Alpha:    lightToAlpha(r.key.light),
		}
		if r.key.tinted {
			v.Color = r.key.color
		} else {
			v.Color = [3]uint8{255, 255, 255}
		}
		verts = append(verts, v)
	}
	idx = append(idx, start, start+1, start+2, start, start+2, start+3)
	return verts, idx
}

// quadUVs maps a merged quad's four corners to the palette face's UV
// rectangle, tiled by the span length along each sweep axis (span counts
// are always integral since the greedy merge only ever grows a rectangle
// one whole cell at a time). For a slab's side face, shrinkV trims the
// topmost row's V extent by the slab's fractional height, so the
// texture's top edge sits at the slab's actual top surface rather than
// the full block height; lower rows of a merged volume-slab run still
// tile whole.
func quadUVs(uv palette.FaceUV, spanU, spanV float32, shrinkV bool, slabHeight float32) [4][2]float32 {
	u0, v0 := uv.MinU, uv.MinV
	u1 := uv.MinU + spanU*(uv.MaxU-uv.MinU)
	v1 := uv.MinV + spanV*(uv.MaxV-uv.MinV)
	if shrinkV {
		v1 = v0 + (spanV-1+(1-slabHeight))*(uv.MaxV-uv.MinV)
	}
	return [4][2]float32{{u0, v0}, {u1, v0}, {u1, v1}, {u0, v1}}
}

func tangentFor(f geom.Face) mgl32.Vec3 {
	switch f {
	case geom.FaceUp, geom.FaceDown:
		return mgl32.Vec3{1, 0, 0}
	default:
		return mgl32.Vec3{0, 0, 1}
	}
}

// lightToAlpha packs a 4-bit light level into the 0-255 vertex alpha
// channel the fragment shader reads as brightness: level * 10, saturating
// at 255 rather than wrapping.
func lightToAlpha(level uint8) uint8 {
	v := int(level&0xF) * 10
	if v > 255 {
		v = 255
	}
	return uint8(v)
}
