// Package mcdb implements the section persistence backend on top of
// goleveldb: every section's on-disk blob is keyed by its (sx, sy)
// coordinate in a single LevelDB database, content-hashed with xxhash so
// an unchanged section's save is skipped instead of rewritten. Every
// logical record family (section data, the world index, global entity
// data) lives under its own key tag in one database rather than as
// literal files on disk.
package mcdb

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ashenforge/voxelworld/world"
	"github.com/cespare/xxhash/v2"
	"github.com/df-mc/goleveldb/leveldb"
	"github.com/df-mc/goleveldb/leveldb/opt"
	"github.com/df-mc/goleveldb/leveldb/util"
)

const (
	tagSection byte = 's'
	tagIndex   byte = 'i'
	tagEntity  byte = 'e'
)

// Config configures a Provider before it is opened.
type Config struct {
	// Log receives load/save failures. Defaults to slog.Default().
	Log *slog.Logger
}

// Provider implements world.Store on top of a single LevelDB database
// directory.
type Provider struct {
	db  *leveldb.DB
	log *slog.Logger
}

// Open opens (creating if absent) the LevelDB database at dir with the
// default configuration.
func Open(dir string) (*Provider, error) {
	return Config{}.Open(dir)
}

// Open opens (creating if absent) the LevelDB database at dir.
func (c Config) Open(dir string) (*Provider, error) {
	if c.Log == nil {
		c.Log = slog.Default()
	}
	db, err := leveldb.OpenFile(dir, &opt.Options{})
	if err != nil {
		return nil, fmt.Errorf("mcdb: open %s: %w", dir, err)
	}
	return &Provider{db: db, log: c.Log}, nil
}

// Close closes the underlying database.
func (p *Provider) Close() error {
	if err := p.db.Close(); err != nil {
		return fmt.Errorf("mcdb: close: %w", err)
	}
	return nil
}

func sectionKey(sx, sy int32) []byte {
	k := make([]byte, 9)
	k[0] = tagSection
	binary.BigEndian.PutUint32(k[1:5], uint32(sx))
	binary.BigEndian.PutUint32(k[5:9], uint32(sy))
	return k
}

func decodeSectionKey(k []byte) (sx, sy int32, ok bool) {
	if len(k) != 9 || k[0] != tagSection {
		return 0, 0, false
	}
	return int32(binary.BigEndian.Uint32(k[1:5])), int32(binary.BigEndian.Uint32(k[5:9])), true
}

var _ world.Store = (*Provider)(nil)

// LoadSection implements world.Store.
func (p *Provider) LoadSection(ctx context.Context, s *world.Section, finestLOD int32) error {
	value, err := p.db.Get(sectionKey(s.SectionX, s.SectionY), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return fmt.Errorf("%w: section (%d,%d) not found", world.ErrIOError, s.SectionX, s.SectionY)
		}
		return fmt.Errorf("%w: get section (%d,%d): %v", world.ErrIOError, s.SectionX, s.SectionY, err)
	}
	_, payload, err := unwrap(value)
	if err != nil {
		return err
	}
	if err := s.DecodeFrom(bytes.NewReader(payload), finestLOD); err != nil {
		return err
	}
	return nil
}

// SaveSection implements world.Store. If the section's encoded content
// hashes identically to what's already stored, the write is skipped.
func (p *Provider) SaveSection(ctx context.Context, s *world.Section) error {
	buf := new(bytes.Buffer)
	if err := s.EncodeTo(buf); err != nil {
		return fmt.Errorf("mcdb: encode section (%d,%d): %w", s.SectionX, s.SectionY, err)
	}
	payload := buf.Bytes()
	newHash := xxhash.Sum64(payload)

	key := sectionKey(s.SectionX, s.SectionY)
	if existing, err := p.db.Get(key, nil); err == nil {
		if oldHash, _, derr := unwrap(existing); derr == nil && oldHash == newHash {
			return nil
		}
	}

	wrapped := wrap(newHash, payload)
	if err := p.db.Put(key, wrapped, nil); err != nil {
		return fmt.Errorf("%w: put section (%d,%d): %v", world.ErrIOError, s.SectionX, s.SectionY, err)
	}
	return nil
}

// SectionExists implements world.Store.
func (p *Provider) SectionExists(sx, sy int32) (bool, error) {
	ok, err := p.db.Has(sectionKey(sx, sy), nil)
	if err != nil {
		return false, fmt.Errorf("%w: has section (%d,%d): %v", world.ErrIOError, sx, sy, err)
	}
	return ok, nil
}

// EnumerateAvailable implements world.Store by scanning every key
// tagged as a section blob.
func (p *Provider) EnumerateAvailable(fn func(sx, sy int32) bool) error {
	iter := p.db.NewIterator(util.BytesPrefix([]byte{tagSection}), nil)
	defer iter.Release()
	for iter.Next() {
		sx, sy, ok := decodeSectionKey(iter.Key())
		if !ok {
			continue
		}
		if !fn(sx, sy) {
			break
		}
	}
	if err := iter.Error(); err != nil {
		return fmt.Errorf("%w: enumerate sections: %v", world.ErrIOError, err)
	}
	return nil
}

func wrap(hash uint64, payload []byte) []byte {
	out := make([]byte, 8+len(payload))
	binary.LittleEndian.PutUint64(out, hash)
	copy(out[8:], payload)
	return out
}

func unwrap(value []byte) (hash uint64, payload []byte, err error) {
	if len(value) < 8 {
		return 0, nil, fmt.Errorf("%w: stored value shorter than content-hash header", world.ErrCorruptFile)
	}
	return binary.LittleEndian.Uint64(value[:8]), value[8:], nil
}
