package world

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/ashenforge/voxelworld/world/chunk"
	"github.com/google/uuid"
)

// sectionMagic identifies the section file format version.
// Unknown or mismatched magic numbers reject the file outright.
const sectionMagic uint32 = 0xCCBBAA03

// EncodeTo writes the section in its on-disk format: magic, grid
// parameters, availability bitset, per-LOD block bands (coarsest LOD
// first), then the entity band. Saving requires the section to be fully
// loaded at LOD 0.
func (s *Section) EncodeTo(w io.Writer) error {
	if s.chunks == nil {
		return fmt.Errorf("voxelworld: cannot save an uninitialized section")
	}

	hdr := []uint32{
		sectionMagic,
		uint32(s.chunkSize),
		uint32(s.sectionSize),
		uint32(s.lodLevels),
		uint32(int32ToBits(s.minChunkZ)),
		uint32(int32ToBits(s.maxChunkZ)),
	}
	for _, v := range hdr {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}

	words := packBitset(s.availability)
	if err := binary.Write(w, binary.LittleEndian, uint32(len(words))); err != nil {
		return fmt.Errorf("write bitset length: %w", err)
	}
	for _, word := range words {
		if err := binary.Write(w, binary.LittleEndian, word); err != nil {
			return fmt.Errorf("write bitset: %w", err)
		}
	}

	for l := s.lodLevels - 1; l >= 0; l-- {
		band, err := s.encodeLODBand(l)
		if err != nil {
			return fmt.Errorf("encode LOD %d: %w", l, err)
		}
		if err := binary.Write(w, binary.LittleEndian, uint32(len(band))); err != nil {
			return fmt.Errorf("write LOD %d length: %w", l, err)
		}
		if _, err := w.Write(band); err != nil {
			return fmt.Errorf("write LOD %d: %w", l, err)
		}
	}

	return s.encodeEntities(w)
}

func (s *Section) encodeLODBand(l int32) ([]byte, error) {
	buf := new(bytes.Buffer)
	var encErr error
	s.EnumerateChunks(func(rx, ry, cz int32, c *chunk.Chunk) bool {
		if err := c.SaveToStream(l, buf); err != nil {
			encErr = err
			return false
		}
		return true
	})
	return buf.Bytes(), encErr
}

// encodeEntities writes the entity band: an empty class table (entity
// serialization is owned by the out-of-scope entity object model; this
// engine only persists the lightweight EntityRef bookkeeping) followed by
// the entity count and fixed-size records.
func (s *Section) encodeEntities(w io.Writer) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(0)); err != nil { // class table length
		return fmt.Errorf("write class table: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(s.entities))); err != nil {
		return fmt.Errorf("write entity count: %w", err)
	}
	for _, e := range s.entities {
		if _, err := w.Write(e.ID[:]); err != nil {
			return fmt.Errorf("write entity id: %w", err)
		}
		for _, c := range e.Position {
			if err := binary.Write(w, binary.LittleEndian, c); err != nil {
				return fmt.Errorf("write entity position: %w", err)
			}
		}
	}
	return nil
}

// DecodeFrom reads a section previously written by EncodeTo. finestLOD is
// the finest (lowest-numbered) LOD level the caller actually needs; bands
// finer than that are skipped without allocating their arrays, so a
// partial load only reads the LOD bands required. Pass 0 to load every
// band, which is required before the section can be made Editable.
func (s *Section) DecodeFrom(r io.Reader, finestLOD int32) error {
	var magic uint32
	if err := binary.Read(r, binary.LittleEndian, &magic); err != nil {
		return fmt.Errorf("%w: read magic: %v", ErrCorruptFile, err)
	}
	if magic != sectionMagic {
		return fmt.Errorf("%w: bad magic 0x%08X", ErrCorruptFile, magic)
	}

	var chunkSize, sectionSize, lodLevels, minCZ, maxCZ uint32
	for _, p := range []*uint32{&chunkSize, &sectionSize, &lodLevels, &minCZ, &maxCZ} {
		if err := binary.Read(r, binary.LittleEndian, p); err != nil {
			return fmt.Errorf("%w: read grid params: %v", ErrCorruptFile, err)
		}
	}
	if int32(chunkSize) != s.chunkSize || int32(sectionSize) != s.sectionSize || int32(lodLevels) != s.lodLevels {
		return fmt.Errorf("%w: grid parameters disagree with world", ErrCorruptFile)
	}

	s.initChunkArray(bitsToInt32(minCZ), bitsToInt32(maxCZ))

	var bitsetWords uint32
	if err := binary.Read(r, binary.LittleEndian, &bitsetWords); err != nil {
		return fmt.Errorf("%w: read bitset length: %v", ErrCorruptFile, err)
	}
	words := make([]uint32, bitsetWords)
	for i := range words {
		if err := binary.Read(r, binary.LittleEndian, &words[i]); err != nil {
			return fmt.Errorf("%w: read bitset: %v", ErrCorruptFile, err)
		}
	}
	unpackBitset(words, s.availability)

	// Pre-create every chunk flagged available so per-LOD decode has a
	// destination, in ascending (cz, ry, rx) order, matching the encoder.
	for cz := s.minChunkZ; cz <= s.maxChunkZ; cz++ {
		for ry := int32(0); ry < s.sectionSize; ry++ {
			for rx := int32(0); rx < s.sectionSize; rx++ {
				idx := s.chunkArrayIndex(rx, ry, cz)
				if !s.availability[idx] {
					continue
				}
				gx := s.SectionX*s.sectionSize + rx
				gy := s.SectionY*s.sectionSize + ry
				s.chunks[idx] = chunk.New(s.chunkSize, s.lodLevels, gx, gy, cz)
			}
		}
	}

	for l := s.lodLevels - 1; l >= 0; l-- {
		var bandLen uint32
		if err := binary.Read(r, binary.LittleEndian, &bandLen); err != nil {
			return fmt.Errorf("%w: read LOD %d length: %v", ErrCorruptFile, l, err)
		}
		if l < finestLOD {
			if _, err := io.CopyN(io.Discard, r, int64(bandLen)); err != nil {
				return fmt.Errorf("%w: skip LOD %d: %v", ErrCorruptFile, l, err)
			}
			continue
		}
		lr := io.LimitReader(r, int64(bandLen))
		var decErr error
		s.EnumerateChunks(func(rx, ry, cz int32, c *chunk.Chunk) bool {
			if err := c.LoadFromStream(l, lr); err != nil {
				decErr = err
				return false
			}
			return true
		})
		if decErr != nil {
			return fmt.Errorf("%w: decode LOD %d: %v", ErrCorruptFile, l, decErr)
		}
	}

	return s.decodeEntities(r)
}

func (s *Section) decodeEntities(r io.Reader) error {
	var classTableLen uint32
	if err := binary.Read(r, binary.LittleEndian, &classTableLen); err != nil {
		return fmt.Errorf("%w: read class table length: %v", ErrCorruptFile, err)
	}
	if classTableLen > 0 {
		if _, err := io.CopyN(io.Discard, r, int64(classTableLen)); err != nil {
			return fmt.Errorf("%w: skip class table: %v", ErrCorruptFile, err)
		}
	}
	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return fmt.Errorf("%w: read entity count: %v", ErrCorruptFile, err)
	}
	s.entities = make(map[uuid.UUID]*EntityRef, count)
	for i := uint32(0); i < count; i++ {
		var id uuid.UUID
		if _, err := io.ReadFull(r, id[:]); err != nil {
			return fmt.Errorf("%w: read entity id: %v", ErrCorruptFile, err)
		}
		var pos [3]float32
		for j := range pos {
			if err := binary.Read(r, binary.LittleEndian, &pos[j]); err != nil {
				return fmt.Errorf("%w: read entity position: %v", ErrCorruptFile, err)
			}
		}
		s.entities[id] = &EntityRef{ID: id, Position: pos}
	}
	return nil
}

func int32ToBits(v int32) uint32 { return uint32(v) }
func bitsToInt32(v uint32) int32 { return int32(v) }

func packBitset(bits []bool) []uint32 {
	words := make([]uint32, (len(bits)+31)/32)
	for i, b := range bits {
		if b {
			words[i/32] |= 1 << uint(i%32)
		}
	}
	return words
}

func unpackBitset(words []uint32, bits []bool) {
	for i := range bits {
		wi, bit := i/32, uint(i%32)
		if wi < len(words) {
			bits[i] = words[wi]&(1<<bit) != 0
		}
	}
}
