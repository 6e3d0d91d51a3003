package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for Global Config Loader:
// - LoadGlobalConfig() returns defaults when file doesn't exist (not an error)
// - LoadGlobalConfig() loads from ~/.indexd/config.yml when present
// - LoadGlobalConfig() environment variables override YAML values
// - LoadGlobalConfig() returns error for malformed YAML
// - LoadGlobalConfig() merges a partial file with defaults

func TestLoadGlobalConfig_MissingFile(t *testing.T) {
	// Note: Cannot use t.Parallel() with t.Setenv()
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, err := LoadGlobalConfig()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	baseDir := filepath.Join(tempHome, ".indexd")
	assert.Equal(t, filepath.Join(baseDir, "indexd.sock"), cfg.Daemon.SocketPath)
	assert.Equal(t, 30, cfg.Daemon.StartupTimeout)
	assert.Equal(t, filepath.Join(baseDir, "cache"), cfg.Cache.BaseDir)
	assert.Equal(t, "local", cfg.DefaultEmbedder)
}

func TestLoadGlobalConfig_WithFile(t *testing.T) {
	// Note: Cannot use t.Parallel() with t.Setenv()
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	baseDir := filepath.Join(tempHome, ".indexd")
	require.NoError(t, os.MkdirAll(baseDir, 0o755))

	configContent := `
daemon:
  socket_path: /custom/indexd.sock
  startup_timeout: 60

cache:
  base_dir: /custom/cache

default_embedder: openai
`
	configPath := filepath.Join(baseDir, "config.yml")
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0o644))

	cfg, err := LoadGlobalConfig()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "/custom/indexd.sock", cfg.Daemon.SocketPath)
	assert.Equal(t, 60, cfg.Daemon.StartupTimeout)
	assert.Equal(t, "/custom/cache", cfg.Cache.BaseDir)
	assert.Equal(t, "openai", cfg.DefaultEmbedder)
}

func TestLoadGlobalConfig_EnvOverrides(t *testing.T) {
	// Note: Cannot use t.Parallel() with t.Setenv()
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	baseDir := filepath.Join(tempHome, ".indexd")
	require.NoError(t, os.MkdirAll(baseDir, 0o755))

	configContent := `
daemon:
  socket_path: /file/indexd.sock
  startup_timeout: 60

cache:
  base_dir: /file/cache
`
	configPath := filepath.Join(baseDir, "config.yml")
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0o644))

	t.Setenv("INDEXD_DAEMON_SOCKET_PATH", "/env/indexd.sock")
	t.Setenv("INDEXD_DAEMON_STARTUP_TIMEOUT", "120")
	t.Setenv("INDEXD_CACHE_BASE_DIR", "/env/cache")

	cfg, err := LoadGlobalConfig()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "/env/indexd.sock", cfg.Daemon.SocketPath)
	assert.Equal(t, 120, cfg.Daemon.StartupTimeout)
	assert.Equal(t, "/env/cache", cfg.Cache.BaseDir)
}

func TestLoadGlobalConfig_InvalidYAML(t *testing.T) {
	// Note: Cannot use t.Parallel() with t.Setenv()
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	baseDir := filepath.Join(tempHome, ".indexd")
	require.NoError(t, os.MkdirAll(baseDir, 0o755))

	malformedContent := `
daemon:
  socket_path: /path/to/socket
  startup_timeout: "not-a-number
  unclosed_quote_above
`
	configPath := filepath.Join(baseDir, "config.yml")
	require.NoError(t, os.WriteFile(configPath, []byte(malformedContent), 0o644))

	cfg, err := LoadGlobalConfig()
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to")
}

func TestLoadGlobalConfig_PartialConfig(t *testing.T) {
	// Note: Cannot use t.Parallel() with t.Setenv()
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	baseDir := filepath.Join(tempHome, ".indexd")
	require.NoError(t, os.MkdirAll(baseDir, 0o755))

	configContent := `
daemon:
  startup_timeout: 90
`
	configPath := filepath.Join(baseDir, "config.yml")
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0o644))

	cfg, err := LoadGlobalConfig()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, 90, cfg.Daemon.StartupTimeout)
	assert.Equal(t, filepath.Join(baseDir, "indexd.sock"), cfg.Daemon.SocketPath)
	assert.Equal(t, filepath.Join(baseDir, "cache"), cfg.Cache.BaseDir)
}
