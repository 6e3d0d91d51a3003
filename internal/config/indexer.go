package config

import (
	"time"

	"github.com/cortexindex/indexd/internal/chunk"
	"github.com/cortexindex/indexd/internal/coordinator"
)

// ToChunkConfig converts a project's chunking settings to the line-window
// splitter's config.
func (c *Config) ToChunkConfig() chunk.Config {
	return chunk.Config{
		TargetLines:  c.Chunking.TargetLines,
		OverlapLines: c.Chunking.OverlapLines,
	}
}

// ToCoordinatorConfig converts a project's configuration to the
// coordinator's Config, rooting per-project state under baseDir.
func (c *Config) ToCoordinatorConfig(baseDir string) coordinator.Config {
	return coordinator.Config{
		BaseDir:               baseDir,
		DefaultEmbedder:       c.Embedding.Provider,
		FileWorkers:           c.Concurrency.FileWorkers,
		MaxConcurrentProjects: c.Concurrency.MaxConcurrentProjects,
		Chunk:                 c.ToChunkConfig(),
		WatchPoll:             c.Watch.Poll,
		PollInterval:          time.Duration(c.Watch.PollIntervalMS) * time.Millisecond,
	}
}
