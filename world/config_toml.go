package world

import (
	"fmt"
	"os"

	toml "github.com/pelletier/go-toml"
)

// tunables mirrors the subset of Config that hosts externalize as TOML,
// loaded with github.com/pelletier/go-toml like the rest of this server's
// configuration files.
type tunables struct {
	VisibleRadius       uint    `toml:"visible_radius"`
	SectionLoadRadius   uint    `toml:"section_load_radius"`
	ChunkRemoveDelay    float64 `toml:"chunk_remove_delay"`
	ParallelChunkBuild  bool    `toml:"parallel_chunk_build"`
	MaxChunksPerFrame   uint    `toml:"max_chunks_per_frame"`
	MaxSectionsPerFrame uint    `toml:"max_sections_per_frame"`
	UseLightmaps        bool    `toml:"use_lightmaps"`
}

// LoadTunablesTOML reads the scheduler tunables from a TOML file and
// applies them on top of c, leaving ChunkSize/SectionSize/LODLevels/Palette
// untouched (those are fixed at world creation and never host-configurable).
func (c *Config) LoadTunablesTOML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read tunables: %w", err)
	}
	var t tunables
	if err := toml.Unmarshal(data, &t); err != nil {
		return fmt.Errorf("parse tunables: %w", err)
	}
	if t.VisibleRadius > 0 {
		c.VisibleRadius = int32(t.VisibleRadius)
	}
	if t.SectionLoadRadius > 0 {
		c.SectionLoadRadius = int32(t.SectionLoadRadius)
	}
	c.ChunkRemoveDelaySeconds = t.ChunkRemoveDelay
	c.ParallelChunkBuild = t.ParallelChunkBuild
	if t.MaxChunksPerFrame > 0 {
		c.MaxChunksPerFrame = int(t.MaxChunksPerFrame)
	}
	if t.MaxSectionsPerFrame > 0 {
		c.MaxSectionsPerFrame = int(t.MaxSectionsPerFrame)
	}
	c.UseLightmaps = t.UseLightmaps
	return nil
}
