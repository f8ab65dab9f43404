package palette

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookupOutOfRange(t *testing.T) {
	p := New([]Type{{}, {Name: "stone", Shape: ShapeCube}})
	ty, ok := p.Lookup(1)
	assert.True(t, ok)
	assert.Equal(t, "stone", ty.Name)

	_, ok = p.Lookup(5)
	assert.False(t, ok)
}

func TestFlagsHas(t *testing.T) {
	f := FlagVisible | FlagCollidable
	assert.True(t, f.Has(FlagVisible))
	assert.True(t, f.Has(FlagCollidable))
	assert.False(t, f.Has(FlagBlocksVision))
}

func TestNewCopiesInput(t *testing.T) {
	src := []Type{{Name: "a"}, {Name: "b"}}
	p := New(src)
	src[1] = Type{Name: "mutated"}

	ty, ok := p.Lookup(1)
	assert.True(t, ok)
	assert.Equal(t, "b", ty.Name)
}

func TestLenMatchesInput(t *testing.T) {
	p := New([]Type{{}, {}, {}})
	assert.Equal(t, 3, p.Len())
}
