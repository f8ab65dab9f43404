package mesher

import (
	"github.com/ashenforge/voxelworld/world"
	"github.com/ashenforge/voxelworld/world/chunk"
	"github.com/ashenforge/voxelworld/world/geom"
	"github.com/ashenforge/voxelworld/world/palette"
)

// cell is the resolved, visible occupant of one chunk-local cell: its
// catalog type (synthesized for colored/tinted values, which have no
// palette entry) plus the raw value/data the block carried.
type cell struct {
	typ   palette.Type
	value chunk.Value
	data  chunk.Data
}

// coloredCubeType is the implicit catalog entry every tinted BlockValue
// (the high bit selecting an RGB565 tint over a palette index) behaves
// as: a fully opaque, collidable unit cube, differing from a palette
// cube only in that its color comes from the value itself rather than a
// shared material.
var coloredCubeType = palette.Type{
	Shape: palette.ShapeCube,
	Flags: palette.FlagVisible | palette.FlagBlocksVision | palette.FlagCollidable | palette.FlagVolumeCube,
}

// lookupCell resolves a block value/data pair to its renderable cell, or
// ok=false for air or an invisible palette entry.
func lookupCell(pal *palette.Palette, v chunk.Value, d chunk.Data) (cell, bool) {
	if v == chunk.Air {
		return cell{}, false
	}
	if v.Colored() {
		return cell{typ: coloredCubeType, value: v, data: d}, true
	}
	t, ok := pal.Lookup(v.PaletteIndex())
	if !ok || !t.Flags.Has(palette.FlagVisible) {
		return cell{}, false
	}
	return cell{typ: t, value: v, data: d}, true
}

// occludesFace reports whether neighbour value nv (with data nd) occludes
// the face of the current cell pointing toward it, where fromFace is that
// neighbour's own face touching the current cell (the opposite of the
// current cell's face direction). Cube blocks occlude on every face when
// FlagBlocksVision is set, or when FlagVolumeCube is set and the neighbour
// carries the identical value as the current cell (equal-valued volume
// cubes occlude internally, dropping the shared face). Slabs occlude only
// their own top face; stairs occlude only their own top and back faces
// (back rotates with the stair's cardinal rotation). Colored values behave
// as a fully opaque cube regardless of direction. Planes and mesh blocks
// never occlude.
func occludesFace(pal *palette.Palette, currentValue chunk.Value, nv chunk.Value, nd chunk.Data, fromFace geom.Face) bool {
	if nv == chunk.Air {
		return false
	}
	if nv.Colored() {
		return true
	}
	t, ok := pal.Lookup(nv.PaletteIndex())
	if !ok {
		return false
	}
	switch t.Shape {
	case palette.ShapeCube:
		if t.Flags.Has(palette.FlagBlocksVision) {
			return true
		}
		return t.Flags.Has(palette.FlagVolumeCube) && nv == currentValue
	case palette.ShapeSlab:
		return fromFace == geom.FaceUp
	case palette.ShapeStairs:
		if fromFace == geom.FaceUp {
			return true
		}
		rot := geom.Rotation(chunk.Rotation(nd) & 0x3)
		return fromFace == rot.Rotate(geom.FaceNorth)
	default:
		return false
	}
}

// neighbourCell returns the block value and data one cell across face f
// from (x, y, z) at LOD level lod, following into an adjacent chunk via nb
// when the offset crosses the chunk boundary. A missing neighbour chunk
// reads as air (non-occluding), matching the treatment of an
// unloaded/absent neighbour everywhere else in the mesher.
func neighbourCell(c *chunk.Chunk, nb world.NeighbourChunks, lod int32, x, y, z int32, f geom.Face) (chunk.Value, chunk.Data) {
	dx, dy, dz := f.Delta()
	nx, ny, nz := x+dx, y+dy, z+dz
	edge := c.Size >> uint(lod)

	if nx >= 0 && nx < edge && ny >= 0 && ny < edge && nz >= 0 && nz < edge {
		return c.GetBlock(lod, nx, ny, nz), c.GetData(lod, nx, ny, nz)
	}

	nc := nb[int(f)]
	if nc == nil {
		return chunk.Air, 0
	}
	wrap := func(v int32) int32 {
		v %= edge
		if v < 0 {
			v += edge
		}
		return v
	}
	wx, wy, wz := wrap(nx), wrap(ny), wrap(nz)
	return nc.GetBlock(lod, wx, wy, wz), nc.GetData(lod, wx, wy, wz)
}

// faceVisible reports whether the face of the cell at (x,y,z) pointing in
// direction f should be drawn: the cell itself must be visible (handled by
// the caller via lookupCell) and its neighbour across f must not occlude
// it. A slab additionally drops its own top face when the block directly
// above is the identical slab value, so two stacked identical slabs don't
// draw the seam between them.
func faceVisible(pal *palette.Palette, c *chunk.Chunk, nb world.NeighbourChunks, lod, x, y, z int32, f geom.Face, currentValue chunk.Value, currentType palette.Type) bool {
	nv, nd := neighbourCell(c, nb, lod, x, y, z, f)
	if occludesFace(pal, currentValue, nv, nd, f.Opposite()) {
		return false
	}
	if currentType.Shape == palette.ShapeSlab && f == geom.FaceUp && nv == currentValue {
		return false
	}
	return true
}
