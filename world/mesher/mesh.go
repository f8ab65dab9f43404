// Package mesher turns a chunk's block arrays into render geometry: a
// greedy-merged triangle mesh. Every exported function here is a pure
// function of its inputs, with no package-level state and no locking, so
// it is safe to run from the scheduler's worker pool concurrently across
// chunks.
package mesher

import (
	"github.com/ashenforge/voxelworld/world/geom"
	"github.com/ashenforge/voxelworld/world/palette"
	"github.com/ashenforge/voxelworld/world/render"
	"github.com/go-gl/mathgl/mgl32"
)

// Vertex is one emitted mesh vertex. Color is only meaningful for colored
// (tinted) blocks; Alpha carries the face's light level (see lightToAlpha).
type Vertex struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	Tangent  mgl32.Vec3
	UV       [2]float32
	Color    [3]uint8
	Alpha    uint8
}

// Batch is a contiguous run of indices sharing one material, ordered by
// (MaterialIndex, FirstIndex) so the renderer can draw with minimal state
// changes.
type Batch struct {
	MaterialIndex uint32
	FirstIndex    uint32
	IndexCount    uint32
}

// PointLight is one emitted point-light record, in chunk-local world
// space, produced only at LOD 0. Static is always false: block lights
// move with their chunk's residency, never into a baked lightmap.
type PointLight struct {
	Position mgl32.Vec3
	Range    float32
	Color    mgl32.Vec3
	Strength float32
	Falloff  float32
	Static   bool
}

// ChunkMesh is the CPU-side geometry produced for one chunk at one LOD,
// wrapped as a render.Renderable. Enqueue/Prepare/Draw are left as no-ops
// here: handing the vertex/index/batch data to a GPU is the renderer's
// job; a host wires its own Renderable around this data, or embeds
// ChunkMesh and overrides the three methods.
type ChunkMesh struct {
	Vertices    []Vertex
	Indices     []uint32
	Batches     []Batch
	PointLights []PointLight

	// Instances holds one entry per mesh-shape block, which contribute a
	// placement transform instead of triangles.
	Instances []MeshInstance

	// Bounds is the union of every emitted vertex position, in the same
	// chunk-local space as the vertices. Geometry belonging to
	// mesh-instance blocks is not included; their assets carry their own
	// bounds.
	Bounds geom.Box
}

// BoundingSphere derives the mesh's bounding sphere from Bounds.
func (m *ChunkMesh) BoundingSphere() (center mgl32.Vec3, radius float32) {
	return m.Bounds.Center(), m.Bounds.SphereRadius()
}

var _ render.Renderable = (*ChunkMesh)(nil)

func (m *ChunkMesh) Enqueue() {}
func (m *ChunkMesh) Prepare() {}
func (m *ChunkMesh) Draw()    {}

// materialFor resolves the material index a face quad should draw with,
// given the owning block type and the face it belongs to.
func materialFor(t palette.Type, faceIdx int) uint32 {
	return t.Faces[faceIdx].MaterialIndex
}
