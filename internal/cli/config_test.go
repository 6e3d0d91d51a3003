package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/cortexindex/indexd/internal/config"
)

func TestRunConfigInit_WritesDefaultConfig(t *testing.T) {
	dir := t.TempDir()
	oldWD, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(oldWD) })

	err = runConfigInit(nil, nil)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, ".indexd", "config.yml"))
	require.NoError(t, err)

	var cfg config.Config
	require.NoError(t, yaml.Unmarshal(data, &cfg))
	assert.Equal(t, config.Default().Embedding.Provider, cfg.Embedding.Provider)
	assert.Equal(t, config.Default().Chunking.TargetLines, cfg.Chunking.TargetLines)
}

func TestRunConfigInit_RefusesToOverwrite(t *testing.T) {
	dir := t.TempDir()
	oldWD, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(oldWD) })

	require.NoError(t, runConfigInit(nil, nil))
	err = runConfigInit(nil, nil)
	assert.Error(t, err)
}
