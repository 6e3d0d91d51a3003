package coordinator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cortexindex/indexd/internal/chunk"
	"github.com/cortexindex/indexd/internal/embedpool"
	"github.com/cortexindex/indexd/internal/graphextract"
	"github.com/cortexindex/indexd/internal/graphstore"
	"github.com/cortexindex/indexd/internal/hashstore"
	"github.com/cortexindex/indexd/internal/registry"
	"github.com/cortexindex/indexd/internal/vectorstore"
)

const testEmbedder = "mock"

func newTestCoordinator(t *testing.T) (*Coordinator, string) {
	t.Helper()
	base := t.TempDir()
	projectRoot := t.TempDir()

	reg, err := registry.Open(filepath.Join(base, "registry"))
	require.NoError(t, err)

	pool, err := embedpool.New(embedpool.DefaultConfig())
	require.NoError(t, err)
	pool.Register(testEmbedder, embedpool.NewMockProvider(4))

	vec, err := vectorstore.OpenSQLiteVecStore(filepath.Join(base, "vec.db"))
	require.NoError(t, err)

	bolt, err := graphstore.OpenBoltStore(filepath.Join(base, "graph.db"))
	require.NoError(t, err)
	sessions := graphstore.NewSessionPool(bolt, 4)

	cfg := DefaultConfig(base, testEmbedder)
	cfg.Chunk = chunk.Config{TargetLines: 10, OverlapLines: 2}

	c := New(cfg, reg, pool, vec, sessions, graphextract.NewRegistry())
	t.Cleanup(func() { c.Close() })
	return c, projectRoot
}

func writeFile(t *testing.T, root, relPath, content string) {
	t.Helper()
	full := filepath.Join(root, relPath)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func waitForTerminal(t *testing.T, c *Coordinator, id string) ProjectState {
	t.Helper()
	deadline := time.Now().Add(30 * time.Second)
	for time.Now().Before(deadline) {
		state, err := c.Status(id)
		require.NoError(t, err)
		if state.Phase == PhaseComplete || state.Phase == PhaseError || state.Phase == PhasePartial {
			return state
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("timed out waiting for indexing run to finish")
	return ProjectState{}
}

func TestCoordinator_StartIndexEmbedsAndExtractsGoFile(t *testing.T) {
	c, root := newTestCoordinator(t)
	writeFile(t, root, "main.go", "package main\n\nfunc Run() {\n\tprintln(\"hi\")\n}\n")

	project, err := c.AddProject(root)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, c.StartIndex(ctx, project.ID, IndexOptions{}))
	state := waitForTerminal(t, c, project.ID)
	require.Equal(t, PhaseComplete, state.Phase)
	require.Equal(t, 1, state.FilesDone)

	matches, err := c.vector.Search(ctx, project.ID, []float32{1, 0, 0, 0}, 10)
	require.NoError(t, err)
	require.NotEmpty(t, matches)

	related, err := c.RelatedTo(ctx, project.ID, "main.go::Run", 1)
	require.NoError(t, err)
	require.NotNil(t, related)
}

func TestCoordinator_StartIndexRejectsConcurrentRun(t *testing.T) {
	c, root := newTestCoordinator(t)
	writeFile(t, root, "a.go", "package main\nfunc A(){}\n")
	project, err := c.AddProject(root)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, c.StartIndex(ctx, project.ID, IndexOptions{}))
	err = c.StartIndex(ctx, project.ID, IndexOptions{})
	if err == nil {
		waitForTerminal(t, c, project.ID)
		return
	}
	var coordErr *Error
	require.ErrorAs(t, err, &coordErr)
	require.Equal(t, KindConflict, coordErr.Kind)
	waitForTerminal(t, c, project.ID)
}

func TestCoordinator_DeletedFileIsRemovedFromBothStores(t *testing.T) {
	c, root := newTestCoordinator(t)
	writeFile(t, root, "keep.go", "package main\nfunc Keep(){}\n")
	writeFile(t, root, "drop.go", "package main\nfunc Drop(){}\n")

	project, err := c.AddProject(root)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, c.StartIndex(ctx, project.ID, IndexOptions{}))
	waitForTerminal(t, c, project.ID)

	require.NoError(t, os.Remove(filepath.Join(root, "drop.go")))
	require.NoError(t, c.StartIndex(ctx, project.ID, IndexOptions{}))
	state := waitForTerminal(t, c, project.ID)
	require.Equal(t, PhaseComplete, state.Phase)

	hs, err := c.hashStoreFor(project.ID)
	require.NoError(t, err)
	info, err := os.Stat(filepath.Join(root, "keep.go"))
	require.NoError(t, err)
	remaining := []hashstore.Candidate{{Path: "keep.go", Size: info.Size(), ModTime: info.ModTime()}}
	diff, err := hs.Diff(ctx, remaining, func(path string) (string, error) {
		return hashstore.HashFile(filepath.Join(root, path))
	})
	require.NoError(t, err)
	require.Empty(t, diff.Deleted, "drop.go's record should already be gone")
}

func TestCoordinator_RemoveProjectTearsDownStores(t *testing.T) {
	c, root := newTestCoordinator(t)
	writeFile(t, root, "main.go", "package main\nfunc Run(){}\n")
	project, err := c.AddProject(root)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, c.StartIndex(ctx, project.ID, IndexOptions{}))
	waitForTerminal(t, c, project.ID)

	require.NoError(t, c.RemoveProject(ctx, project.ID))
	require.Empty(t, c.ListProjects())

	_, err = c.Status(project.ID)
	require.Error(t, err)
}

func TestCoordinator_VectorsOnlySkipsGraphPipeline(t *testing.T) {
	c, root := newTestCoordinator(t)
	writeFile(t, root, "main.go", "package main\nfunc Run(){}\n")
	project, err := c.AddProject(root)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, c.StartIndex(ctx, project.ID, IndexOptions{VectorsOnly: true}))
	state := waitForTerminal(t, c, project.ID)
	require.Equal(t, PhaseComplete, state.Phase)

	matches, err := c.vector.Search(ctx, project.ID, []float32{1, 0, 0, 0}, 10)
	require.NoError(t, err)
	require.NotEmpty(t, matches)
}

func TestCoordinator_SearchReturnsIndexedChunk(t *testing.T) {
	c, root := newTestCoordinator(t)
	body := "package main\n\nfunc Greet() {\n\tprintln(\"hello\")\n}\n"
	writeFile(t, root, "greet.go", body)
	project, err := c.AddProject(root)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, c.StartIndex(ctx, project.ID, IndexOptions{}))
	waitForTerminal(t, c, project.ID)

	results, err := c.Search(ctx, project.ID, body, SearchOptions{Limit: 5})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	require.Equal(t, "greet.go", results[0].FilePath)
}

func TestCoordinator_SearchRejectsUnknownProject(t *testing.T) {
	c, _ := newTestCoordinator(t)
	_, err := c.Search(context.Background(), "does-not-exist", "query", SearchOptions{})
	require.Error(t, err)
	var coordErr *Error
	require.ErrorAs(t, err, &coordErr)
	require.Equal(t, KindNotFound, coordErr.Kind)
}

func TestCoordinator_RelatedToWalksGraph(t *testing.T) {
	c, root := newTestCoordinator(t)
	writeFile(t, root, "main.go", "package main\n\nfunc Run() {\n\tprintln(\"hi\")\n}\n")
	project, err := c.AddProject(root)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, c.StartIndex(ctx, project.ID, IndexOptions{}))
	waitForTerminal(t, c, project.ID)

	related, err := c.RelatedTo(ctx, project.ID, "main.go::Run", 2)
	require.NoError(t, err)
	require.NotNil(t, related)
}

func TestCoordinator_RelatedToRejectsUnknownProject(t *testing.T) {
	c, _ := newTestCoordinator(t)
	_, err := c.RelatedTo(context.Background(), "does-not-exist", "x", 1)
	require.Error(t, err)
	var coordErr *Error
	require.ErrorAs(t, err, &coordErr)
	require.Equal(t, KindNotFound, coordErr.Kind)
}

func TestCoordinator_SettingsOverrideEmbedderUsedForIndexing(t *testing.T) {
	c, root := newTestCoordinator(t)
	c.embed.Register("alt", embedpool.NewMockProvider(6))
	writeFile(t, root, "main.go", "package main\nfunc Run(){}\n")

	project, err := c.AddProject(root)
	require.NoError(t, err)

	_, err = c.UpdateSettings(project.ID, Settings{EmbedderName: "alt"})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, c.StartIndex(ctx, project.ID, IndexOptions{}))
	state := waitForTerminal(t, c, project.ID)
	require.Equal(t, PhaseComplete, state.Phase)

	results, err := c.Search(ctx, project.ID, "Run", SearchOptions{Limit: 5})
	require.NoError(t, err)
	require.NotEmpty(t, results)
}

func TestCoordinator_UpdateSettingsRejectsUnknownProject(t *testing.T) {
	c, _ := newTestCoordinator(t)
	_, err := c.UpdateSettings("does-not-exist", Settings{EmbedderName: "alt"})
	require.Error(t, err)
}

func TestCoordinator_StartWatchReindexesOnChange(t *testing.T) {
	c, root := newTestCoordinator(t)
	writeFile(t, root, "main.go", "package main\nfunc Run(){}\n")
	project, err := c.AddProject(root)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, c.StartIndex(ctx, project.ID, IndexOptions{}))
	waitForTerminal(t, c, project.ID)

	require.NoError(t, c.StartWatch(project.ID))
	defer c.StopWatch(project.ID)

	require.Error(t, c.StartWatch(project.ID), "a second StartWatch for the same project should conflict")

	writeFile(t, root, "added.go", "package main\nfunc Added(){}\n")

	deadline := time.Now().Add(5 * time.Second)
	var addedIsIndexed bool
	for time.Now().Before(deadline) {
		hs, err := c.hashStoreFor(project.ID)
		require.NoError(t, err)
		info, err := os.Stat(filepath.Join(root, "added.go"))
		require.NoError(t, err)
		diff, err := hs.Diff(ctx, []hashstore.Candidate{{Path: "added.go", Size: info.Size(), ModTime: info.ModTime()}},
			func(path string) (string, error) { return hashstore.HashFile(filepath.Join(root, path)) })
		require.NoError(t, err)
		if len(diff.Added) == 0 && len(diff.Modified) == 0 {
			addedIsIndexed = true
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	require.True(t, addedIsIndexed, "watcher should have triggered a reindex that picked up added.go")

	require.NoError(t, c.StopWatch(project.ID))
	require.NoError(t, c.StopWatch(project.ID), "stopping an already-stopped watch is a no-op")
}

func TestCoordinator_StartIndexQueuesReindexWhenAllowed(t *testing.T) {
	c, root := newTestCoordinator(t)
	writeFile(t, root, "main.go", "package main\nfunc Run(){}\n")
	project, err := c.AddProject(root)
	require.NoError(t, err)

	j := c.jobFor(project.ID)
	require.True(t, j.isIndexing.CompareAndSwap(false, true), "simulate a run already in flight")
	defer j.isIndexing.Store(false)

	err = c.StartIndex(context.Background(), project.ID, IndexOptions{AllowReindex: true})
	require.NoError(t, err, "an AllowReindex call against a busy job should queue, not conflict")

	queued := j.rerun.Load()
	require.NotNil(t, queued)
	require.True(t, queued.AllowReindex)
}

func TestCoordinator_PersistentFileFailureEndsRunPartial(t *testing.T) {
	c, root := newTestCoordinator(t)
	broken := embedpool.NewMockProvider(4)
	broken.FailNextCalls(1000, errors.New("embedder unavailable"))
	c.embed.Register("broken", broken)

	writeFile(t, root, "a.go", "package main\nfunc A(){}\n")
	writeFile(t, root, "b.go", "package main\nfunc B(){}\n")
	project, err := c.AddProject(root)
	require.NoError(t, err)
	_, err = c.UpdateSettings(project.ID, Settings{EmbedderName: "broken"})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, c.StartIndex(ctx, project.ID, IndexOptions{}))
	state := waitForTerminal(t, c, project.ID)

	require.Equal(t, PhasePartial, state.Phase, "every file failing should drain as partial, not abort as error")
	require.Equal(t, 2, state.FailedFiles)
	require.Equal(t, 2, state.FilesDone)

	proj, ok := c.reg.Get(project.ID)
	require.True(t, ok)
	require.Equal(t, registry.StatePartial, proj.State)

	hs, err := c.hashStoreFor(project.ID)
	require.NoError(t, err)
	for _, name := range []string{"a.go", "b.go"} {
		info, err := os.Stat(filepath.Join(root, name))
		require.NoError(t, err)
		diff, err := hs.Diff(ctx, []hashstore.Candidate{{Path: name, Size: info.Size(), ModTime: info.ModTime()}},
			func(path string) (string, error) { return hashstore.HashFile(filepath.Join(root, path)) })
		require.NoError(t, err)
		require.NotEmpty(t, diff.Added, "a failed file's hash is never committed, so the next run retries it")
	}
}

func TestCoordinator_ShrinkingFileDropsStaleVectorChunks(t *testing.T) {
	c, root := newTestCoordinator(t)
	var longBody string
	for i := 0; i < 40; i++ {
		longBody += "func Fn" + strconv.Itoa(i) + "() {}\n"
	}
	writeFile(t, root, "shrink.go", "package main\n"+longBody)
	project, err := c.AddProject(root)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, c.StartIndex(ctx, project.ID, IndexOptions{}))
	waitForTerminal(t, c, project.ID)

	matches, err := c.vector.Search(ctx, project.ID, []float32{1, 0, 0, 0}, 100)
	require.NoError(t, err)
	before := 0
	for _, m := range matches {
		if m.FilePath == "shrink.go" {
			before++
		}
	}
	require.Greater(t, before, 1, "a long file should split into multiple chunks")

	writeFile(t, root, "shrink.go", "package main\nfunc Small(){}\n")
	require.NoError(t, c.StartIndex(ctx, project.ID, IndexOptions{}))
	waitForTerminal(t, c, project.ID)

	matches, err = c.vector.Search(ctx, project.ID, []float32{1, 0, 0, 0}, 100)
	require.NoError(t, err)
	after := 0
	for _, m := range matches {
		if m.FilePath == "shrink.go" {
			after++
		}
	}
	require.Equal(t, 1, after, "shrinking the file should leave exactly its new chunk, not stale trailing ones")
}
