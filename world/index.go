package world

import (
	"github.com/brentp/intintmap"
)

// sectionKey packs (sx, sy) into a single int64 for the intintmap lookup.
// sx/sy are shifted to an unsigned range first so the packed key stays
// injective across the full int32 domain.
func sectionKey(sx, sy int32) int64 {
	ux := int64(uint32(sx))
	uy := int64(uint32(sy))
	return ux<<32 | uy
}

// Index is the sparse 2D grid of section slots over (sx, sy): a dense
// rectangle of pointers covering [minSX..maxSX] x [minSY..maxSY], paired
// with an availability bitset that also tracks sections that exist on
// disk but aren't resident. Lookups go through an int64->int64
// key-to-slot map (github.com/brentp/intintmap) instead of a Go map keyed
// by a struct, to avoid the pointer/interface-key hashing overhead of
// map[[2]int32]int on the hot per-frame streaming path.
type Index struct {
	minSX, minSY, maxSX, maxSY int32
	initialized                bool

	slots    []*Section
	resident []bool // pointer != nil
	onDisk   []bool // availability bit; may be true with slots[i] == nil

	lookup *intintmap.Map
}

func newIndex() *Index {
	return &Index{lookup: intintmap.New(64, 0.75)}
}

func (ix *Index) width() int32  { return ix.maxSX - ix.minSX + 1 }
func (ix *Index) height() int32 { return ix.maxSY - ix.minSY + 1 }

// slotIndex resolves (sx, sy) to a dense slot index through the intintmap,
// which is the sole authority for the sx/sy -> slot translation; the
// rectangle bounds only decide when a resize is needed (ensure) and how
// big the backing arrays are.
func (ix *Index) slotIndex(sx, sy int32) (int32, bool) {
	if !ix.initialized {
		return 0, false
	}
	v, ok := ix.lookup.Get(sectionKey(sx, sy))
	if !ok {
		return 0, false
	}
	return int32(v), true
}

// ensure grows the rectangle, if necessary, so that (sx, sy) is covered.
// The rectangle only ever grows; it never shrinks.
func (ix *Index) ensure(sx, sy int32) int32 {
	if !ix.initialized {
		ix.minSX, ix.maxSX = sx, sx
		ix.minSY, ix.maxSY = sy, sy
		ix.initialized = true
		ix.slots = make([]*Section, 1)
		ix.resident = make([]bool, 1)
		ix.onDisk = make([]bool, 1)
		ix.reindex()
		return 0
	}
	if sx >= ix.minSX && sx <= ix.maxSX && sy >= ix.minSY && sy <= ix.maxSY {
		idx, _ := ix.slotIndex(sx, sy)
		return idx
	}

	newMinSX, newMaxSX := min32(ix.minSX, sx), max32(ix.maxSX, sx)
	newMinSY, newMaxSY := min32(ix.minSY, sy), max32(ix.maxSY, sy)
	newWidth := newMaxSX - newMinSX + 1
	newHeight := newMaxSY - newMinSY + 1

	newSlots := make([]*Section, newWidth*newHeight)
	newResident := make([]bool, newWidth*newHeight)
	newOnDisk := make([]bool, newWidth*newHeight)

	oldWidth := ix.width()
	for y := int32(0); y < ix.height(); y++ {
		for x := int32(0); x < oldWidth; x++ {
			oldIdx := y*oldWidth + x
			gx, gy := ix.minSX+x, ix.minSY+y
			newIdx := (gy-newMinSY)*newWidth + (gx - newMinSX)
			newSlots[newIdx] = ix.slots[oldIdx]
			newResident[newIdx] = ix.resident[oldIdx]
			newOnDisk[newIdx] = ix.onDisk[oldIdx]
		}
	}

	ix.minSX, ix.maxSX, ix.minSY, ix.maxSY = newMinSX, newMaxSX, newMinSY, newMaxSY
	ix.slots, ix.resident, ix.onDisk = newSlots, newResident, newOnDisk
	ix.reindex()

	idx, _ := ix.slotIndex(sx, sy)
	return idx
}

func (ix *Index) reindex() {
	ix.lookup = intintmap.New(int(ix.width()*ix.height())+8, 0.75)
	for y := int32(0); y < ix.height(); y++ {
		for x := int32(0); x < ix.width(); x++ {
			idx := y*ix.width() + x
			ix.lookup.Put(sectionKey(ix.minSX+x, ix.minSY+y), int64(idx))
		}
	}
}

// Get returns the resident section at (sx, sy), or nil if absent.
func (ix *Index) Get(sx, sy int32) *Section {
	idx, ok := ix.slotIndex(sx, sy)
	if !ok {
		return nil
	}
	return ix.slots[idx]
}

// Available reports whether a section exists on disk at (sx, sy), resident
// or not.
func (ix *Index) Available(sx, sy int32) bool {
	idx, ok := ix.slotIndex(sx, sy)
	if !ok {
		return false
	}
	return ix.onDisk[idx]
}

// Put installs a resident section at its own coordinates, growing the
// rectangle if necessary.
func (ix *Index) Put(s *Section) {
	idx := ix.ensure(s.SectionX, s.SectionY)
	ix.slots[idx] = s
	ix.resident[idx] = true
	ix.onDisk[idx] = true
}

// MarkOnDisk sets the availability bit for a coordinate without making it
// resident (used when scanning the persisted index file at startup).
func (ix *Index) MarkOnDisk(sx, sy int32) {
	idx := ix.ensure(sx, sy)
	ix.onDisk[idx] = true
}

// Remove clears the resident pointer at (sx, sy) but leaves the
// availability bit untouched (the section still exists on disk after an
// unload).
func (ix *Index) Remove(sx, sy int32) {
	idx, ok := ix.slotIndex(sx, sy)
	if !ok {
		return
	}
	ix.slots[idx] = nil
	ix.resident[idx] = false
}

// ClearAvailability unsets the on-disk bit, used when a load fails because
// the underlying file is actually absent.
func (ix *Index) ClearAvailability(sx, sy int32) {
	idx, ok := ix.slotIndex(sx, sy)
	if !ok {
		return
	}
	ix.onDisk[idx] = false
}

// Bounds returns the current rectangle, and whether the index has been
// initialized at all.
func (ix *Index) Bounds() (minSX, minSY, maxSX, maxSY int32, ok bool) {
	return ix.minSX, ix.minSY, ix.maxSX, ix.maxSY, ix.initialized
}

// EnumerateAvailability calls fn for every (sx, sy) within the index's
// current rectangle, reporting whether that coordinate's on-disk
// availability bit is set. Used by the persistence layer to serialize
// the availability bitset as its own index file, independent of
// EnumerateResident which only covers sections currently loaded.
func (ix *Index) EnumerateAvailability(fn func(sx, sy int32, onDisk bool) bool) {
	if !ix.initialized {
		return
	}
	for y := int32(0); y < ix.height(); y++ {
		for x := int32(0); x < ix.width(); x++ {
			idx := y*ix.width() + x
			if !fn(ix.minSX+x, ix.minSY+y, ix.onDisk[idx]) {
				return
			}
		}
	}
}

// EnumerateResident calls fn for every currently-resident section.
func (ix *Index) EnumerateResident(fn func(*Section) bool) {
	for _, s := range ix.slots {
		if s != nil {
			if !fn(s) {
				return
			}
		}
	}
}
