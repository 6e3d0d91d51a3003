package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cortexindex/indexd/internal/config"
	"github.com/cortexindex/indexd/internal/coordinator"
	"github.com/cortexindex/indexd/internal/embedpool"
	"github.com/cortexindex/indexd/internal/graphextract"
	"github.com/cortexindex/indexd/internal/graphstore"
	"github.com/cortexindex/indexd/internal/registry"
	"github.com/cortexindex/indexd/internal/vectorstore"
)

// buildCoordinator wires a Coordinator from the current project's and the
// global configuration, the way runIndex/runMCP assemble their dependencies
// in the teacher's cli package — just against this project's own adapters
// instead of a ConnectRPC daemon client.
func buildCoordinator(ctx context.Context) (*coordinator.Coordinator, error) {
	rootDir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	cfg, err := config.LoadConfigFromDir(rootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load project configuration: %w", err)
	}

	globalCfg, err := config.LoadGlobalConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load global configuration: %w", err)
	}

	if err := os.MkdirAll(globalCfg.Cache.BaseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	reg, err := registry.Open(filepath.Join(filepath.Dir(globalCfg.Cache.BaseDir), "registry"))
	if err != nil {
		return nil, fmt.Errorf("failed to open project registry: %w", err)
	}

	pool, err := embedpool.New(embedpool.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to build embedder pool: %w", err)
	}
	registerEmbedders(pool, cfg, globalCfg)

	var vstore vectorstore.Store
	switch cfg.VectorStore.Backend {
	case "qdrant":
		vstore, err = vectorstore.DialQdrant(ctx, cfg.VectorStore.Addr)
	default:
		vstore, err = vectorstore.OpenSQLiteVecStore(filepath.Join(rootDir, cfg.VectorStore.Path))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open vector store: %w", err)
	}

	boltStore, err := graphstore.OpenBoltStore(filepath.Join(rootDir, cfg.GraphStore.Path))
	if err != nil {
		return nil, fmt.Errorf("failed to open graph store: %w", err)
	}
	sessions := graphstore.NewSessionPool(boltStore, cfg.GraphStore.MaxConcurrentOps)

	coordCfg := cfg.ToCoordinatorConfig(globalCfg.Cache.BaseDir)
	coord := coordinator.New(coordCfg, reg, pool, vstore, sessions, graphextract.NewRegistry())
	return coord, nil
}

// registerEmbedders registers the project's default embedder plus every
// embedder named in the global config's default, so project.config files
// that reference either resolve to a live provider.
func registerEmbedders(pool *embedpool.Pool, cfg *config.Config, globalCfg *config.GlobalConfig) {
	names := map[string]bool{cfg.Embedding.Provider: true, globalCfg.DefaultEmbedder: true}
	for name := range names {
		if name == "" {
			continue
		}
		if cfg.Embedding.Endpoint != "" {
			pool.Register(name, embedpool.NewHTTPProvider(cfg.Embedding.Endpoint, cfg.Embedding.Dimensions))
		} else {
			pool.Register(name, embedpool.NewMockProvider(cfg.Embedding.Dimensions))
		}
	}
}
