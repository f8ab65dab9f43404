package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexPutGrowsRectangleAndIsQueryable(t *testing.T) {
	ix := newIndex()
	minSX, minSY, maxSX, maxSY, ok := ix.Bounds()
	assert.False(t, ok)
	assert.Zero(t, minSX+minSY+maxSX+maxSY)

	s1 := &Section{SectionX: 0, SectionY: 0}
	ix.Put(s1)
	s2 := &Section{SectionX: -2, SectionY: 3}
	ix.Put(s2)

	minSX, minSY, maxSX, maxSY, ok = ix.Bounds()
	require.True(t, ok)
	assert.Equal(t, int32(-2), minSX)
	assert.Equal(t, int32(0), minSY)
	assert.Equal(t, int32(0), maxSX)
	assert.Equal(t, int32(3), maxSY)

	assert.Same(t, s1, ix.Get(0, 0))
	assert.Same(t, s2, ix.Get(-2, 3))
	assert.Nil(t, ix.Get(1, 1))
}

func TestIndexMarkOnDiskWithoutResidency(t *testing.T) {
	ix := newIndex()
	ix.MarkOnDisk(5, 5)
	assert.True(t, ix.Available(5, 5))
	assert.Nil(t, ix.Get(5, 5))
}

func TestIndexRemoveKeepsAvailabilityBit(t *testing.T) {
	ix := newIndex()
	s := &Section{SectionX: 1, SectionY: 1}
	ix.Put(s)

	ix.Remove(1, 1)
	assert.Nil(t, ix.Get(1, 1))
	assert.True(t, ix.Available(1, 1), "unload must preserve the on-disk bit")

	ix.ClearAvailability(1, 1)
	assert.False(t, ix.Available(1, 1))
}

func TestIndexEnumerateAvailabilityCoversFullRectangle(t *testing.T) {
	ix := newIndex()
	ix.MarkOnDisk(0, 0)
	ix.MarkOnDisk(2, 2)

	seen := map[[2]int32]bool{}
	var onDiskCount int
	ix.EnumerateAvailability(func(sx, sy int32, onDisk bool) bool {
		seen[[2]int32{sx, sy}] = true
		if onDisk {
			onDiskCount++
		}
		return true
	})

	// Rectangle spans (0,0)-(2,2): 9 coordinates total, 2 marked available.
	assert.Len(t, seen, 9)
	assert.Equal(t, 2, onDiskCount)
}

func TestIndexEnumerateResidentSkipsUnloadedSlots(t *testing.T) {
	ix := newIndex()
	s := &Section{SectionX: 0, SectionY: 0}
	ix.Put(s)
	ix.MarkOnDisk(1, 0) // available but never resident

	var residents []*Section
	ix.EnumerateResident(func(s *Section) bool {
		residents = append(residents, s)
		return true
	})
	assert.Len(t, residents, 1)
	assert.Same(t, s, residents[0])
}
