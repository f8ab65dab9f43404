package world

import "github.com/ashenforge/voxelworld/world/geom"

// SplitChunk resolves a global block coordinate to its owning chunk
// coordinate and in-chunk local coordinate: chunk = floor_div(b, C),
// local = b - chunk*C, with Euclidean division so negative coordinates
// resolve correctly.
func SplitChunk(b, chunkSize int32) (chunkCoord, local int32) {
	chunkCoord = geom.FloorDiv(b, chunkSize)
	local = b - chunkCoord*chunkSize
	return
}

// SplitSection resolves a global chunk-X or chunk-Y coordinate to its
// owning section coordinate and relative-within-section coordinate:
// section = floor_div(chunk, S), rel = chunk - section*S.
func SplitSection(chunkCoord, sectionSize int32) (sectionCoord, rel int32) {
	sectionCoord = geom.FloorDiv(chunkCoord, sectionSize)
	rel = chunkCoord - sectionCoord*sectionSize
	return
}

// BlockToChunk resolves global block coordinates (bx, by, bz) all the way
// down to (sectionX, sectionY, relChunkX, relChunkY, chunkZ, localX, localY,
// localZ). chunkZ has no section axis: sections only tile the X/Y plane.
func BlockToChunk(bx, by, bz, chunkSize, sectionSize int32) (sx, sy, relCX, relCY, chunkZ, lx, ly, lz int32) {
	var cx, cy int32
	cx, lx = SplitChunk(bx, chunkSize)
	cy, ly = SplitChunk(by, chunkSize)
	chunkZ, lz = SplitChunk(bz, chunkSize)
	sx, relCX = SplitSection(cx, sectionSize)
	sy, relCY = SplitSection(cy, sectionSize)
	return
}

// LODCoord shifts a LOD-0 block coordinate down to its coordinate at LOD
// level l (arithmetic right shift).
func LODCoord(v, l int32) int32 { return v >> uint(l) }
