package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for Config System:
// - Default() returns valid configuration with all expected defaults
// - LoadConfig() uses defaults when no config file exists
// - LoadConfig() loads from .indexd/config.yml when present
// - LoadConfig() merges config file with defaults
// - Environment variables override config file values
// - Environment variables override defaults when no config file exists
// - LoadConfig() returns error for malformed YAML
// - LoadConfig() returns error for invalid configuration values
// - Validate() accepts valid configuration
// - Validate() rejects invalid embedder provider
// - Validate() rejects invalid chunking window
// - Validate() rejects unsupported vector store backend
// - Validate() rejects qdrant backend without an address
// - Validate() returns multiple errors for multiple invalid fields

func TestDefault_ReturnsValidConfiguration(t *testing.T) {
	cfg := Default()
	require.NotNil(t, cfg)

	assert.Equal(t, "local", cfg.Embedding.Provider)
	assert.Equal(t, 64, cfg.Embedding.MaxBatchSize)

	assert.Equal(t, 60, cfg.Chunking.TargetLines)
	assert.Equal(t, 10, cfg.Chunking.OverlapLines)

	assert.Equal(t, "sqlite", cfg.VectorStore.Backend)
	assert.NotEmpty(t, cfg.VectorStore.Path)

	assert.NotEmpty(t, cfg.GraphStore.Path)
	assert.Equal(t, 3, cfg.Concurrency.FileWorkers)
	assert.Equal(t, int64(10), cfg.Concurrency.MaxConcurrentProjects)

	assert.False(t, cfg.Watch.Poll)
	assert.Equal(t, 200, cfg.Watch.PollIntervalMS)

	assert.NoError(t, Validate(cfg))
}

func TestLoadConfig_UsesDefaultsWhenNoConfigFile(t *testing.T) {
	tempDir := t.TempDir()

	cfg, err := NewLoader(tempDir).Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	expected := Default()
	assert.Equal(t, expected.Embedding.Provider, cfg.Embedding.Provider)
	assert.Equal(t, expected.Chunking.TargetLines, cfg.Chunking.TargetLines)
	assert.Equal(t, expected.VectorStore.Backend, cfg.VectorStore.Backend)
}

func TestLoadConfig_LoadsFromConfigYml(t *testing.T) {
	tempDir := t.TempDir()
	indexdDir := filepath.Join(tempDir, ".indexd")
	require.NoError(t, os.MkdirAll(indexdDir, 0o755))

	configContent := `
embedding:
  provider: openai
  max_batch_size: 32

chunking:
  target_lines: 80
  overlap_lines: 5

vector_store:
  backend: qdrant
  addr: localhost:6334
`
	configPath := filepath.Join(indexdDir, "config.yml")
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0o644))

	cfg, err := NewLoader(tempDir).Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "openai", cfg.Embedding.Provider)
	assert.Equal(t, 32, cfg.Embedding.MaxBatchSize)
	assert.Equal(t, 80, cfg.Chunking.TargetLines)
	assert.Equal(t, 5, cfg.Chunking.OverlapLines)
	assert.Equal(t, "qdrant", cfg.VectorStore.Backend)
	assert.Equal(t, "localhost:6334", cfg.VectorStore.Addr)
}

func TestLoadConfig_MergesConfigWithDefaults(t *testing.T) {
	tempDir := t.TempDir()
	indexdDir := filepath.Join(tempDir, ".indexd")
	require.NoError(t, os.MkdirAll(indexdDir, 0o755))

	configContent := `
embedding:
  provider: openai
  max_batch_size: 16
`
	configPath := filepath.Join(indexdDir, "config.yml")
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0o644))

	cfg, err := NewLoader(tempDir).Load()
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.Embedding.Provider)
	assert.Equal(t, 16, cfg.Embedding.MaxBatchSize)

	assert.Equal(t, 60, cfg.Chunking.TargetLines)
	assert.Equal(t, "sqlite", cfg.VectorStore.Backend)
}

func TestLoadConfig_EnvironmentVariablesOverrideConfigFile(t *testing.T) {
	// Note: Cannot use t.Parallel() with t.Setenv()
	tempDir := t.TempDir()
	indexdDir := filepath.Join(tempDir, ".indexd")
	require.NoError(t, os.MkdirAll(indexdDir, 0o755))

	configContent := `
embedding:
  provider: local
  max_batch_size: 64
`
	configPath := filepath.Join(indexdDir, "config.yml")
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0o644))

	t.Setenv("INDEXD_EMBEDDING_PROVIDER", "openai")
	t.Setenv("INDEXD_EMBEDDING_MAX_BATCH_SIZE", "8")

	cfg, err := NewLoader(tempDir).Load()
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.Embedding.Provider)
	assert.Equal(t, 8, cfg.Embedding.MaxBatchSize)
}

func TestLoadConfig_EnvironmentVariablesOverrideDefaults(t *testing.T) {
	// Note: Cannot use t.Parallel() with t.Setenv()
	tempDir := t.TempDir()

	t.Setenv("INDEXD_EMBEDDING_PROVIDER", "openai")
	t.Setenv("INDEXD_CHUNKING_TARGET_LINES", "100")

	cfg, err := NewLoader(tempDir).Load()
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.Embedding.Provider)
	assert.Equal(t, 100, cfg.Chunking.TargetLines)
	assert.Equal(t, 10, cfg.Chunking.OverlapLines)
}

func TestLoadConfig_ReturnsErrorForMalformedYaml(t *testing.T) {
	tempDir := t.TempDir()
	indexdDir := filepath.Join(tempDir, ".indexd")
	require.NoError(t, os.MkdirAll(indexdDir, 0o755))

	malformedContent := `
embedding:
  provider: "unclosed quote
  max_batch_size: not-a-number
`
	configPath := filepath.Join(indexdDir, "config.yml")
	require.NoError(t, os.WriteFile(configPath, []byte(malformedContent), 0o644))

	cfg, err := NewLoader(tempDir).Load()
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoadConfig_ReturnsErrorForInvalidValues(t *testing.T) {
	tempDir := t.TempDir()
	indexdDir := filepath.Join(tempDir, ".indexd")
	require.NoError(t, os.MkdirAll(indexdDir, 0o755))

	invalidContent := `
vector_store:
  backend: postgres
`
	configPath := filepath.Join(indexdDir, "config.yml")
	require.NoError(t, os.WriteFile(configPath, []byte(invalidContent), 0o644))

	cfg, err := NewLoader(tempDir).Load()
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "invalid")
}

func TestValidate_AcceptsValidConfiguration(t *testing.T) {
	cfg := Default()
	assert.NoError(t, Validate(cfg))
}

func TestValidate_RejectsEmptyProvider(t *testing.T) {
	cfg := Default()
	cfg.Embedding.Provider = ""

	err := Validate(cfg)
	assert.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyProvider)
}

func TestValidate_RejectsInvalidBatchSize(t *testing.T) {
	cfg := Default()
	cfg.Embedding.MaxBatchSize = 0

	err := Validate(cfg)
	assert.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidBatchSize)
}

func TestValidate_RejectsZeroTargetLines(t *testing.T) {
	cfg := Default()
	cfg.Chunking.TargetLines = 0

	err := Validate(cfg)
	assert.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidChunkSize)
}

func TestValidate_RejectsNegativeOverlap(t *testing.T) {
	cfg := Default()
	cfg.Chunking.OverlapLines = -1

	err := Validate(cfg)
	assert.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidOverlap)
}

func TestValidate_RejectsOverlapGreaterThanTargetLines(t *testing.T) {
	cfg := Default()
	cfg.Chunking.TargetLines = 60
	cfg.Chunking.OverlapLines = 60

	err := Validate(cfg)
	assert.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidOverlap)
}

func TestValidate_RejectsUnsupportedVectorBackend(t *testing.T) {
	cfg := Default()
	cfg.VectorStore.Backend = "postgres"

	err := Validate(cfg)
	assert.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidVectorBackend)
}

func TestValidate_RejectsQdrantBackendWithoutAddr(t *testing.T) {
	cfg := Default()
	cfg.VectorStore.Backend = "qdrant"
	cfg.VectorStore.Addr = ""

	err := Validate(cfg)
	assert.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyQdrantAddr)
}

func TestValidate_RejectsInvalidConcurrencyLimits(t *testing.T) {
	cfg := Default()
	cfg.Concurrency.FileWorkers = 0
	cfg.Concurrency.MaxConcurrentProjects = 0

	err := Validate(cfg)
	assert.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConcurrency)
}

func TestValidate_ReturnsMultipleErrorsForMultipleInvalidFields(t *testing.T) {
	cfg := Default()
	cfg.Embedding.Provider = ""
	cfg.Embedding.MaxBatchSize = 0
	cfg.Chunking.TargetLines = 0
	cfg.Chunking.OverlapLines = -1

	err := Validate(cfg)
	assert.Error(t, err)

	msg := err.Error()
	assert.Contains(t, msg, "provider")
	assert.Contains(t, msg, "max_batch_size")
	assert.Contains(t, msg, "target_lines")
}
