package mcdb

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/ashenforge/voxelworld/world"
	"github.com/df-mc/goleveldb/leveldb"
	"github.com/google/uuid"
)

var indexKey = []byte{tagIndex}
var entityKey = []byte{tagEntity}

// SaveIndex persists the world index's rectangle and availability
// bitset as its own record, letting a host skip a full
// EnumerateAvailable scan on the next startup.
func (p *Provider) SaveIndex(ctx context.Context, ix *world.Index) error {
	minSX, minSY, maxSX, maxSY, initialized := ix.Bounds()
	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, boolToU32(initialized)); err != nil {
		return fmt.Errorf("mcdb: encode index header: %w", err)
	}
	for _, v := range []int32{minSX, minSY, maxSX, maxSY} {
		if err := binary.Write(buf, binary.LittleEndian, v); err != nil {
			return fmt.Errorf("mcdb: encode index bounds: %w", err)
		}
	}
	ix.EnumerateAvailability(func(sx, sy int32, onDisk bool) bool {
		buf.WriteByte(boolToByte(onDisk))
		return true
	})
	if err := p.db.Put(indexKey, buf.Bytes(), nil); err != nil {
		return fmt.Errorf("%w: put index: %v", world.ErrIOError, err)
	}
	return nil
}

// LoadIndex reads a previously-saved index file and marks every on-disk
// coordinate it names as available in ix, growing ix's rectangle to
// cover them. Returns ok=false if no index has been saved yet.
func (p *Provider) LoadIndex(ctx context.Context, ix *world.Index) (ok bool, err error) {
	data, err := p.db.Get(indexKey, nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("%w: get index: %v", world.ErrIOError, err)
	}
	r := bytes.NewReader(data)
	var initialized uint32
	if err := binary.Read(r, binary.LittleEndian, &initialized); err != nil {
		return false, fmt.Errorf("%w: read index header: %v", world.ErrCorruptFile, err)
	}
	if initialized == 0 {
		return true, nil
	}
	var minSX, minSY, maxSX, maxSY int32
	for _, p := range []*int32{&minSX, &minSY, &maxSX, &maxSY} {
		if err := binary.Read(r, binary.LittleEndian, p); err != nil {
			return false, fmt.Errorf("%w: read index bounds: %v", world.ErrCorruptFile, err)
		}
	}
	for sy := minSY; sy <= maxSY; sy++ {
		for sx := minSX; sx <= maxSX; sx++ {
			var b byte
			if err := binary.Read(r, binary.LittleEndian, &b); err != nil {
				return false, fmt.Errorf("%w: read index bitset: %v", world.ErrCorruptFile, err)
			}
			if b != 0 {
				ix.MarkOnDisk(sx, sy)
			}
		}
	}
	return true, nil
}

// SaveGlobalEntities persists entities whose authoritative home is not
// any single section. Entity serialization proper
// is owned by the out-of-scope entity object model; this only persists
// the lightweight world.EntityRef bookkeeping, matching how sections
// persist their own LOD-0 entity list.
func (p *Provider) SaveGlobalEntities(ctx context.Context, entities []world.EntityRef) error {
	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, uint32(len(entities))); err != nil {
		return fmt.Errorf("mcdb: encode entity count: %w", err)
	}
	for _, e := range entities {
		if _, err := buf.Write(e.ID[:]); err != nil {
			return fmt.Errorf("mcdb: encode entity id: %w", err)
		}
		for _, c := range e.Position {
			if err := binary.Write(buf, binary.LittleEndian, c); err != nil {
				return fmt.Errorf("mcdb: encode entity position: %w", err)
			}
		}
		for _, c := range e.BoundingBox.Min {
			if err := binary.Write(buf, binary.LittleEndian, c); err != nil {
				return fmt.Errorf("mcdb: encode entity bounding box: %w", err)
			}
		}
		for _, c := range e.BoundingBox.Max {
			if err := binary.Write(buf, binary.LittleEndian, c); err != nil {
				return fmt.Errorf("mcdb: encode entity bounding box: %w", err)
			}
		}
		if err := binary.Write(buf, binary.LittleEndian, e.BoundingSphere); err != nil {
			return fmt.Errorf("mcdb: encode entity bounding sphere: %w", err)
		}
	}
	if err := p.db.Put(entityKey, buf.Bytes(), nil); err != nil {
		return fmt.Errorf("%w: put global entities: %v", world.ErrIOError, err)
	}
	return nil
}

// LoadGlobalEntities reads the global entity list previously saved by
// SaveGlobalEntities.
func (p *Provider) LoadGlobalEntities(ctx context.Context) ([]world.EntityRef, error) {
	data, err := p.db.Get(entityKey, nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: get global entities: %v", world.ErrIOError, err)
	}
	r := bytes.NewReader(data)
	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("%w: read entity count: %v", world.ErrCorruptFile, err)
	}
	out := make([]world.EntityRef, 0, count)
	for i := uint32(0); i < count; i++ {
		var e world.EntityRef
		var id uuid.UUID
		if _, err := io.ReadFull(r, id[:]); err != nil {
			return nil, fmt.Errorf("%w: read entity id: %v", world.ErrCorruptFile, err)
		}
		e.ID = id
		for j := range e.Position {
			if err := binary.Read(r, binary.LittleEndian, &e.Position[j]); err != nil {
				return nil, fmt.Errorf("%w: read entity position: %v", world.ErrCorruptFile, err)
			}
		}
		for j := range e.BoundingBox.Min {
			if err := binary.Read(r, binary.LittleEndian, &e.BoundingBox.Min[j]); err != nil {
				return nil, fmt.Errorf("%w: read entity bounding box: %v", world.ErrCorruptFile, err)
			}
		}
		for j := range e.BoundingBox.Max {
			if err := binary.Read(r, binary.LittleEndian, &e.BoundingBox.Max[j]); err != nil {
				return nil, fmt.Errorf("%w: read entity bounding box: %v", world.ErrCorruptFile, err)
			}
		}
		if err := binary.Read(r, binary.LittleEndian, &e.BoundingSphere); err != nil {
			return nil, fmt.Errorf("%w: read entity bounding sphere: %v", world.ErrCorruptFile, err)
		}
		out = append(out, e)
	}
	return out, nil
}

func boolToU32(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

func boolToByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
