package config

// Config is a single project's indexing configuration, loaded from
// .indexd/config.yml with environment variable overrides.
type Config struct {
	Embedding   EmbeddingConfig   `yaml:"embedding" mapstructure:"embedding"`
	Paths       PathsConfig       `yaml:"paths" mapstructure:"paths"`
	Chunking    ChunkingConfig    `yaml:"chunking" mapstructure:"chunking"`
	VectorStore VectorStoreConfig `yaml:"vector_store" mapstructure:"vector_store"`
	GraphStore  GraphStoreConfig  `yaml:"graph_store" mapstructure:"graph_store"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Watch       WatchConfig       `yaml:"watch" mapstructure:"watch"`
}

// EmbeddingConfig names the embedpool provider this project indexes with.
// When Endpoint is empty, the CLI registers the deterministic
// local mock provider instead of an HTTP one, which is enough for tests
// and for running entirely offline.
type EmbeddingConfig struct {
	Provider     string `yaml:"provider" mapstructure:"provider"` // registered embedpool provider name
	MaxBatchSize int    `yaml:"max_batch_size" mapstructure:"max_batch_size"`
	Endpoint     string `yaml:"endpoint" mapstructure:"endpoint"`     // HTTP embedding server base URL
	Dimensions   int    `yaml:"dimensions" mapstructure:"dimensions"` // embedding width, required when Endpoint is set
}

// PathsConfig holds project-specific ignore patterns. They are loaded and
// validated but not applied: the ignore matcher is built only from its
// built-in defaults and the project's .gitignore/.indexignore files.
type PathsConfig struct {
	Ignore []string `yaml:"ignore" mapstructure:"ignore"`
}

// ChunkingConfig tunes the line-window splitter.
type ChunkingConfig struct {
	TargetLines  int `yaml:"target_lines" mapstructure:"target_lines"`
	OverlapLines int `yaml:"overlap_lines" mapstructure:"overlap_lines"`
}

// VectorStoreConfig selects and configures the vector store backend.
type VectorStoreConfig struct {
	Backend string `yaml:"backend" mapstructure:"backend"` // "sqlite" or "qdrant"
	Path    string `yaml:"path" mapstructure:"path"`       // sqlite-vec database file
	Addr    string `yaml:"addr" mapstructure:"addr"`       // qdrant gRPC address
}

// GraphStoreConfig configures the embedded graph store.
type GraphStoreConfig struct {
	Path             string `yaml:"path" mapstructure:"path"` // bbolt database file
	MaxConcurrentOps int64  `yaml:"max_concurrent_ops" mapstructure:"max_concurrent_ops"`
}

// ConcurrencyConfig bounds the coordinator's parallelism.
type ConcurrencyConfig struct {
	FileWorkers           int   `yaml:"file_workers" mapstructure:"file_workers"`
	MaxConcurrentProjects int64 `yaml:"max_concurrent_projects" mapstructure:"max_concurrent_projects"`
}

// WatchConfig tunes `indexd index watch` / the index_watch MCP tool.
type WatchConfig struct {
	// Poll selects stat-interval polling over fsnotify, for roots where
	// kernel filesystem notifications are unavailable or undesired.
	Poll bool `yaml:"poll" mapstructure:"poll"`
	// PollIntervalMS tunes the poller when Poll is set. Zero uses
	// walker.DefaultPollInterval.
	PollIntervalMS int `yaml:"poll_interval_ms" mapstructure:"poll_interval_ms"`
}

// Default returns a configuration with sensible defaults: the embedded
// sqlite-vec and bbolt backends, a local embedder, and the concurrency
// limits the component design calls for.
func Default() *Config {
	return &Config{
		Embedding: EmbeddingConfig{
			Provider:     "local",
			MaxBatchSize: 64,
			Dimensions:   768,
		},
		Paths: PathsConfig{
			Ignore: []string{},
		},
		Chunking: ChunkingConfig{
			TargetLines:  60,
			OverlapLines: 10,
		},
		VectorStore: VectorStoreConfig{
			Backend: "sqlite",
			Path:    ".indexd/vectors.db",
		},
		GraphStore: GraphStoreConfig{
			Path:             ".indexd/graph.db",
			MaxConcurrentOps: 8,
		},
		Concurrency: ConcurrencyConfig{
			FileWorkers:           3,
			MaxConcurrentProjects: 10,
		},
		Watch: WatchConfig{
			Poll:           false,
			PollIntervalMS: 200,
		},
	}
}
