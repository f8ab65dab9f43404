package mesher

import (
	"slices"

	"github.com/ashenforge/voxelworld/world"
	"github.com/ashenforge/voxelworld/world/chunk"
	"github.com/ashenforge/voxelworld/world/geom"
	"github.com/ashenforge/voxelworld/world/palette"
	"github.com/ashenforge/voxelworld/world/render"
	"github.com/go-gl/mathgl/mgl32"
)

// Mesher builds ChunkMesh geometry from a chunk's block arrays against a
// fixed block catalog. It carries no mutable state, so the same value is
// shared across every worker in the scheduler's pool.
type Mesher struct {
	Palette   *palette.Palette
	CellScale float32 // world units per LOD-0 cell; defaults to 1 if zero.

	// UseLightmaps, when false, makes every emitted face ignore its
	// sampled per-face light level and write a constant maximum instead
	// (also improving greedy-merge yield, since light level stops being a
	// distinguishing key).
	UseLightmaps bool
}

// New returns a Mesher bound to the given catalog, with lightmaps enabled.
func New(pal *palette.Palette) *Mesher {
	return &Mesher{Palette: pal, CellScale: 1, UseLightmaps: true}
}

// NewFromConfig returns a Mesher whose UseLightmaps flag mirrors the
// world's configured use_lightmaps option, so a host that disables
// lightmaps in Config gets the same behavior out of the mesher it wires
// to the scheduler.
func NewFromConfig(conf world.Config) *Mesher {
	return &Mesher{Palette: conf.Palette, CellScale: 1, UseLightmaps: conf.UseLightmaps}
}

var _ world.MeshBuilder = (*Mesher)(nil)

// BuildMesh implements world.MeshBuilder: it greedy-merges every cube/slab
// face across the chunk's six sweeps, emits non-tileable shapes (stairs,
// planes, mesh blocks) per cell via MeshSingleBlock, collects point lights
// at LOD 0 only, and returns the result sorted into material-ordered
// batches.
func (m *Mesher) BuildMesh(c *chunk.Chunk, nb world.NeighbourChunks, lod int32) (render.Renderable, error) {
	n := c.Size >> uint(lod)
	cellScale := m.CellScale
	if cellScale == 0 {
		cellScale = 1
	}
	lodScale := cellScale * float32(int32(1)<<uint(lod))

	out := &ChunkMesh{}

	for _, sw := range sweeps {
		limitV := sw.axis != 2
		for layer := int32(0); layer < n; layer++ {
			mask := buildMask(m.Palette, c, nb, lod, n, sw, layer, m.UseLightmaps)
			for _, r := range mergeMask(mask, limitV) {
				firstIndex := uint32(len(out.Indices))
				out.Vertices, out.Indices = emitQuad(out.Vertices, out.Indices, mgl32.Vec3{}, lodScale, sw, layer, r)
				out.Batches = append(out.Batches, Batch{MaterialIndex: r.key.material, FirstIndex: firstIndex, IndexCount: 6})
			}
		}
	}

	m.emitNonTileable(out, c, lod, n, lodScale)

	if lod == 0 {
		m.collectPointLights(out, c, n, lodScale)
	}

	sortBatches(out)
	out.Batches = mergeBatches(out.Batches)
	out.Bounds = vertexBounds(out.Vertices)
	return out, nil
}

func vertexBounds(verts []Vertex) geom.Box {
	if len(verts) == 0 {
		return geom.Box{}
	}
	b := geom.Box{Min: verts[0].Position, Max: verts[0].Position}
	for _, v := range verts[1:] {
		b = b.Union(geom.Box{Min: v.Position, Max: v.Position})
	}
	return b
}

// emitNonTileable appends geometry for every stairs/plane/mesh-shape cell
// in the chunk at the given LOD, translated into chunk-local world space.
// These shapes never participate in greedy merging (faces.go/greedy.go
// skip them entirely), so each cell contributes its own isolated mesh.
func (m *Mesher) emitNonTileable(out *ChunkMesh, c *chunk.Chunk, lod, n int32, lodScale float32) {
	for z := int32(0); z < n; z++ {
		for y := int32(0); y < n; y++ {
			for x := int32(0); x < n; x++ {
				v := c.GetBlock(lod, x, y, z)
				cl, ok := lookupCell(m.Palette, v, c.GetData(lod, x, y, z))
				if !ok {
					continue
				}
				if cl.typ.Shape == palette.ShapeCube || cl.typ.Shape == palette.ShapeSlab {
					continue
				}
				single := MeshSingleBlock(cl.typ, cl.value, cl.data, m.UseLightmaps)
				base := mgl32.Vec3{float32(x) * lodScale, float32(y) * lodScale, float32(z) * lodScale}
				appendTranslated(out, single, base, lodScale)
			}
		}
	}
}

// appendTranslated copies a single block's mesh into out, scaling its
// unit-block-local geometry to the current LOD's cell size and
// translating it to the cell's chunk-local position.
func appendTranslated(out *ChunkMesh, m ChunkMesh, base mgl32.Vec3, scale float32) {
	offset := uint32(len(out.Vertices))
	for _, v := range m.Vertices {
		v.Position = v.Position.Mul(scale).Add(base)
		out.Vertices = append(out.Vertices, v)
	}
	for _, i := range m.Indices {
		out.Indices = append(out.Indices, i+offset)
	}
	for _, b := range m.Batches {
		b.FirstIndex += offset / 4 * 6
		out.Batches = append(out.Batches, b)
	}
	for _, inst := range m.Instances {
		inst.Position = inst.Position.Mul(scale).Add(base)
		inst.Scale *= scale
		out.Instances = append(out.Instances, inst)
	}
	// PointLights are deliberately not copied: collectPointLights owns
	// chunk-level light collection, at LOD 0 only.
}

// collectPointLights scans every occupied cell for FlagPointLightEmitter
// types, emitting one PointLight per occurrence. Only called at LOD 0, so
// lodScale is always the mesher's base cell scale.
func (m *Mesher) collectPointLights(out *ChunkMesh, c *chunk.Chunk, n int32, lodScale float32) {
	for z := int32(0); z < n; z++ {
		for y := int32(0); y < n; y++ {
			for x := int32(0); x < n; x++ {
				v := c.GetBlock(0, x, y, z)
				cl, ok := lookupCell(m.Palette, v, c.GetData(0, x, y, z))
				if !ok || !cl.typ.Flags.Has(palette.FlagPointLightEmitter) {
					continue
				}
				pos := mgl32.Vec3{float32(x), float32(y), float32(z)}.Mul(lodScale).Add(cl.typ.Light.Offset)
				out.PointLights = append(out.PointLights, PointLight{
					Position: pos,
					Range:    cl.typ.Light.Range * lodScale,
					Color:    cl.typ.Light.Color,
					Strength: cl.typ.Light.Brightness,
					Falloff:  cl.typ.Light.Falloff,
				})
			}
		}
	}
}

// sortBatches orders batches by (MaterialIndex, FirstIndex) so the
// renderer can draw with minimal material state changes.
func sortBatches(out *ChunkMesh) {
	slices.SortFunc(out.Batches, func(a, b Batch) int {
		if a.MaterialIndex != b.MaterialIndex {
			return int(a.MaterialIndex) - int(b.MaterialIndex)
		}
		return int(a.FirstIndex) - int(b.FirstIndex)
	})
}

// mergeBatches run-length collapses sorted, same-material, index-contiguous
// batches into one, so a quad-per-batch emission ends up as one draw call
// per contiguous same-material run rather than one per quad. in must
// already be sorted as sortBatches leaves it.
func mergeBatches(in []Batch) []Batch {
	if len(in) == 0 {
		return in
	}
	out := make([]Batch, 0, len(in))
	cur := in[0]
	for _, b := range in[1:] {
		if b.MaterialIndex == cur.MaterialIndex && b.FirstIndex == cur.FirstIndex+cur.IndexCount {
			cur.IndexCount += b.IndexCount
			continue
		}
		out = append(out, cur)
		cur = b
	}
	return append(out, cur)
}
