// Package palette holds the immutable block-type catalog supplied by the
// host: shape class, per-face visual parameters, flags, and the handful of
// shape-specific extras (slab height, mesh reference, point-light
// parameters). The engine core only reads this catalog; nothing here
// mutates after construction.
package palette

import "github.com/go-gl/mathgl/mgl32"

// Shape is the geometric class of a block type, determining how the mesher
// and collision provider treat it.
type Shape uint8

const (
	ShapeCube Shape = iota
	ShapeSlab
	ShapeStairs
	ShapePlane
	ShapeMesh
)

// Flags are the boolean properties of a block type.
type Flags uint8

const (
	FlagVisible Flags = 1 << iota
	FlagBlocksVision
	FlagCollidable
	FlagVolumeCube
	FlagPointLightEmitter
)

func (f Flags) Has(bit Flags) bool { return f&bit != 0 }

// FaceUV describes the UV rectangle and material index used for one cube
// face of a block type.
type FaceUV struct {
	MaterialIndex uint32
	MinU, MinV    float32
	MaxU, MaxV    float32
}

// PointLight describes a point-light emitter's parameters, used at LOD 0
// only.
type PointLight struct {
	Offset     mgl32.Vec3
	Range      float32
	Color      mgl32.Vec3 // RGB, 0..1
	Brightness float32
	Falloff    float32
}

// Type is a single entry in the block catalog.
type Type struct {
	Name  string
	Shape Shape
	Flags Flags

	// Faces holds the six per-face UV/material entries, indexed by
	// geom.Face. Consulted for cube/slab/stair shapes, and for the material
	// index of plane shapes.
	Faces [6]FaceUV

	// SlabHeight is the fractional height (0,1] of a slab's top face.
	// Only meaningful when Shape == ShapeSlab.
	SlabHeight float32

	// MeshIndex references an external static mesh asset. Only meaningful
	// when Shape == ShapeMesh; resolution of the index to actual geometry
	// is owned by the (out-of-scope) asset/renderer layer.
	MeshIndex uint32

	// PlaneRepeatCount is the number of rotated billboard pairs a
	// ShapePlane block emits.
	PlaneRepeatCount uint32

	Light PointLight
}

// Palette is the immutable, indexable catalog of block types. Index 0 is
// reserved: BlockValue 0 always means air regardless of what (if anything)
// occupies Palette index 0.
type Palette struct {
	types []Type
}

// New builds a Palette from a slice of types. types[0], if present, is
// never consulted for BlockValue 0 (air); callers conventionally leave it as
// the zero Type.
func New(types []Type) *Palette {
	p := &Palette{types: make([]Type, len(types))}
	copy(p.types, types)
	return p
}

// Len returns the number of entries in the catalog.
func (p *Palette) Len() int { return len(p.types) }

// Lookup returns the Type for a palette index, or the zero Type and false if
// the index is out of range.
func (p *Palette) Lookup(index uint16) (Type, bool) {
	if int(index) >= len(p.types) {
		return Type{}, false
	}
	return p.types[index], true
}
