package world

import (
	"context"
	"log/slog"

	"github.com/ashenforge/voxelworld/world/palette"
)

// Generator produces initial block content for a section that does not
// yet exist on disk. The scheduler invokes it when a requested section is
// not resident and either is absent from the on-disk availability bitset
// or the world has no Store to load it from.
type Generator interface {
	GenerateSection(ctx context.Context, s *Section) error
}

// Config holds the tunables consumed from the host, plus the ambient
// wiring: logging, generator hook, and metrics. Log and the scheduler
// tunables fall back to usable defaults when left zero (see fillDefaults);
// ChunkSize, SectionSize and LODLevels have no usable zero value and are
// rejected by Validate, and Palette has no default.
type Config struct {
	// Log receives error and debug events. Defaults to slog.Default().
	Log *slog.Logger

	// ChunkSize is C: the cubic chunk edge, a power of two in [8, 64].
	ChunkSize int32
	// SectionSize is S: chunks per section edge in X/Y.
	SectionSize int32
	// LODLevels is L: 1 <= L <= 3.
	LODLevels int32

	Palette   *palette.Palette
	Generator Generator
	Metrics   *Metrics

	// VisibleRadius is R_v in chunks.
	VisibleRadius int32
	// SectionLoadRadius is R_s in sections.
	SectionLoadRadius int32
	// ChunkRemoveDelaySeconds is T_u.
	ChunkRemoveDelaySeconds float64
	// ParallelChunkBuild, when false, forces every mesh build onto the
	// caller of Scheduler.Step instead of a worker pool.
	ParallelChunkBuild bool
	// MaxChunksPerFrame is K_chunks.
	MaxChunksPerFrame int
	// MaxSectionsPerFrame is K_sections.
	MaxSectionsPerFrame int
	// UseLightmaps, when false, makes the mesher ignore per-face light and
	// write a constant maximum instead.
	UseLightmaps bool
}

func (c *Config) fillDefaults() {
	if c.Log == nil {
		c.Log = slog.Default()
	}
	if c.VisibleRadius < 1 {
		c.VisibleRadius = 1
	}
	if c.SectionLoadRadius < 1 {
		c.SectionLoadRadius = 1
	}
	if c.MaxChunksPerFrame < 1 {
		c.MaxChunksPerFrame = 1
	}
	if c.MaxSectionsPerFrame < 1 {
		c.MaxSectionsPerFrame = 1
	}
}

// Validate checks the construction-time constraints that yield
// ErrMismatchedConfig: chunk size must be a power of two in [8, 64], and
// the coarsest LOD (C >> (L-1)) must still be at least 2 blocks wide.
func (c *Config) Validate() error {
	if c.ChunkSize < 8 || c.ChunkSize > 64 || c.ChunkSize&(c.ChunkSize-1) != 0 {
		return ErrMismatchedConfig
	}
	if c.LODLevels < 1 || c.LODLevels > 3 {
		return ErrMismatchedConfig
	}
	if (c.ChunkSize >> uint(c.LODLevels-1)) < 2 {
		return ErrMismatchedConfig
	}
	if c.SectionSize < 1 {
		return ErrMismatchedConfig
	}
	return nil
}
