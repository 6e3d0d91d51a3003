package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Loader provides configuration loading capabilities.
type Loader interface {
	// Load loads configuration from file and environment variables.
	// Priority: defaults → config file → environment variables (env wins)
	Load() (*Config, error)
}

type loader struct {
	rootDir string
}

// NewLoader creates a new configuration loader for the given project root.
func NewLoader(rootDir string) Loader {
	return &loader{rootDir: rootDir}
}

// Load loads configuration with the following priority (highest to lowest):
// 1. Environment variables (INDEXD_*)
// 2. Config file (.indexd/config.yml or .indexd/config.yaml)
// 3. Default values
func (l *loader) Load() (*Config, error) {
	v := viper.New()

	configDir := filepath.Join(l.rootDir, ".indexd")
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)

	v.SetEnvPrefix("INDEXD")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.BindEnv("embedding.provider")
	v.BindEnv("embedding.max_batch_size")
	v.BindEnv("embedding.endpoint")
	v.BindEnv("embedding.dimensions")
	v.BindEnv("chunking.target_lines")
	v.BindEnv("chunking.overlap_lines")
	v.BindEnv("vector_store.backend")
	v.BindEnv("vector_store.path")
	v.BindEnv("vector_store.addr")
	v.BindEnv("graph_store.path")
	v.BindEnv("graph_store.max_concurrent_ops")
	v.BindEnv("concurrency.file_workers")
	v.BindEnv("concurrency.max_concurrent_projects")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("embedding.provider", d.Embedding.Provider)
	v.SetDefault("embedding.max_batch_size", d.Embedding.MaxBatchSize)
	v.SetDefault("embedding.endpoint", d.Embedding.Endpoint)
	v.SetDefault("embedding.dimensions", d.Embedding.Dimensions)

	v.SetDefault("paths.ignore", d.Paths.Ignore)

	v.SetDefault("chunking.target_lines", d.Chunking.TargetLines)
	v.SetDefault("chunking.overlap_lines", d.Chunking.OverlapLines)

	v.SetDefault("vector_store.backend", d.VectorStore.Backend)
	v.SetDefault("vector_store.path", d.VectorStore.Path)
	v.SetDefault("vector_store.addr", d.VectorStore.Addr)

	v.SetDefault("graph_store.path", d.GraphStore.Path)
	v.SetDefault("graph_store.max_concurrent_ops", d.GraphStore.MaxConcurrentOps)

	v.SetDefault("concurrency.file_workers", d.Concurrency.FileWorkers)
	v.SetDefault("concurrency.max_concurrent_projects", d.Concurrency.MaxConcurrentProjects)

	v.SetDefault("watch.poll", d.Watch.Poll)
	v.SetDefault("watch.poll_interval_ms", d.Watch.PollIntervalMS)
}

// LoadConfig loads configuration using the current working directory as
// the project root.
func LoadConfig() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	return NewLoader(wd).Load()
}

// LoadConfigFromDir loads configuration from a specific project root.
func LoadConfigFromDir(rootDir string) (*Config, error) {
	return NewLoader(rootDir).Load()
}
