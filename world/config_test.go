package world

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadTunablesTOMLAppliesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tunables.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
visible_radius = 24
section_load_radius = 3
chunk_remove_delay = 12.5
parallel_chunk_build = true
max_chunks_per_frame = 8
max_sections_per_frame = 2
use_lightmaps = true
`), 0o644))

	var c Config
	require.NoError(t, c.LoadTunablesTOML(path))

	assert.Equal(t, int32(24), c.VisibleRadius)
	assert.Equal(t, int32(3), c.SectionLoadRadius)
	assert.Equal(t, 12.5, c.ChunkRemoveDelaySeconds)
	assert.True(t, c.ParallelChunkBuild)
	assert.Equal(t, 8, c.MaxChunksPerFrame)
	assert.Equal(t, 2, c.MaxSectionsPerFrame)
	assert.True(t, c.UseLightmaps)
}

func TestLoadTunablesTOMLMissingFileErrors(t *testing.T) {
	var c Config
	assert.Error(t, c.LoadTunablesTOML(filepath.Join(t.TempDir(), "absent.toml")))
}

func TestValidateRejectsTooCoarseLOD(t *testing.T) {
	c := Config{ChunkSize: 8, SectionSize: 1, LODLevels: 3}
	// 8 >> 2 == 2, still legal.
	assert.NoError(t, c.Validate())

	c = Config{ChunkSize: 8, SectionSize: 1, LODLevels: 4}
	assert.ErrorIs(t, c.Validate(), ErrMismatchedConfig)
}
