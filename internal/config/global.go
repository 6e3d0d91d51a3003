// Package config provides configuration loading for the index
// coordination engine.
//
// It supports two distinct configuration scopes, the same split the
// teacher's daemon-foundation config layer draws between machine-wide and
// per-project settings:
//
// 1. Global configuration (~/.indexd/config.yml)
//   - Daemon socket path and startup timeout
//   - Shared cache/state base directory
//   - Default embedder provider
//   - Loaded via LoadGlobalConfig()
//
// 2. Project configuration (.indexd/config.yml)
//   - Embedder override, ignore patterns, chunking window
//   - Vector/graph store backend selection
//   - Loaded via Load()
//
// Configuration hierarchy (highest to lowest priority):
//  1. Environment variables (INDEXD_*)
//  2. Project config (.indexd/config.yml)
//  3. Built-in defaults
//
// Global config follows the same env-override rule independently, since
// it is machine-wide rather than tied to one project's directory.
package config

// GlobalConfig holds machine-wide daemon configuration, loaded from
// ~/.indexd/config.yml rather than a project's .indexd/config.yml.
type GlobalConfig struct {
	Daemon          DaemonConfig `yaml:"daemon" mapstructure:"daemon"`
	Cache           CacheConfig  `yaml:"cache" mapstructure:"cache"`
	DefaultEmbedder string       `yaml:"default_embedder" mapstructure:"default_embedder"`
}

// DaemonConfig holds the control-plane daemon's process settings.
type DaemonConfig struct {
	SocketPath     string `yaml:"socket_path" mapstructure:"socket_path"`
	StartupTimeout int    `yaml:"startup_timeout" mapstructure:"startup_timeout"` // seconds
}

// CacheConfig holds the coordinator's state directory. The CLI keeps each
// project's hash store under BaseDir (BaseDir/cache/<id>/hashes.db) and
// the registry in a "registry" directory beside BaseDir; the embedded
// vector and graph databases live in each project's own .indexd directory.
type CacheConfig struct {
	BaseDir string `yaml:"base_dir" mapstructure:"base_dir"`
}
