package walker

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cortexindex/indexd/internal/ignore"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestWalk_SkipsIgnoredFilesAndDirs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "main.go"), "package main\n")
	writeFile(t, filepath.Join(root, "node_modules", "pkg", "index.js"), "//\n")
	writeFile(t, filepath.Join(root, ".git", "HEAD"), "ref\n")

	m, err := ignore.New(root)
	require.NoError(t, err)

	files, errs := Walk(context.Background(), root, m)
	var got []string
	for f := range files {
		got = append(got, f.RelPath)
	}
	require.NoError(t, drainErr(errs))
	require.ElementsMatch(t, []string{"main.go"}, got)
}

func drainErr(errs <-chan error) error {
	select {
	case err := <-errs:
		return err
	default:
		return nil
	}
}

func TestWatcher_DebouncesAndReportsChangedPaths(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.go"), "package a\n")

	m, err := ignore.New(root)
	require.NoError(t, err)
	w, err := New(root, m)
	require.NoError(t, err)
	t.Cleanup(func() { w.Stop() })

	eventCh := make(chan Event, 4)
	w.Start(context.Background(), func(ev Event) { eventCh <- ev })

	writeFile(t, filepath.Join(root, "a.go"), "package a\n// changed\n")

	select {
	case ev := <-eventCh:
		require.False(t, ev.Resync)
		require.Contains(t, ev.Changed, "a.go")
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for debounced event")
	}
}

func TestWatcher_PauseAccumulatesAndResumeDelivers(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.go"), "package a\n")

	m, err := ignore.New(root)
	require.NoError(t, err)
	w, err := New(root, m)
	require.NoError(t, err)
	t.Cleanup(func() { w.Stop() })

	eventCh := make(chan Event, 4)
	w.Start(context.Background(), func(ev Event) { eventCh <- ev })
	w.Pause()

	writeFile(t, filepath.Join(root, "a.go"), "package a\n// paused edit\n")
	time.Sleep(DebounceInterval + 100*time.Millisecond)

	select {
	case <-eventCh:
		t.Fatal("callback must not fire while paused")
	default:
	}

	w.Resume()
	select {
	case ev := <-eventCh:
		require.Contains(t, ev.Changed, "a.go")
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for resume delivery")
	}
}

func TestWatcher_NewWithDebounceOverridesDefaultWindow(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.go"), "package a\n")

	m, err := ignore.New(root)
	require.NoError(t, err)
	w, err := NewWithDebounce(root, m, 20*time.Millisecond)
	require.NoError(t, err)
	t.Cleanup(func() { w.Stop() })

	eventCh := make(chan Event, 4)
	start := time.Now()
	w.Start(context.Background(), func(ev Event) { eventCh <- ev })

	writeFile(t, filepath.Join(root, "a.go"), "package a\n// changed\n")

	select {
	case <-eventCh:
		require.Less(t, time.Since(start), DebounceInterval, "a shorter override debounce should fire well before the 300ms default")
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for debounced event")
	}
}

func TestPoller_ReportsAddedAndModifiedFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.go"), "package a\n")

	m, err := ignore.New(root)
	require.NoError(t, err)
	p := NewPoller(root, m, 20*time.Millisecond)
	t.Cleanup(func() { p.Stop() })

	eventCh := make(chan Event, 4)
	p.Start(context.Background(), func(ev Event) { eventCh <- ev })

	writeFile(t, filepath.Join(root, "b.go"), "package a\n")

	select {
	case ev := <-eventCh:
		require.False(t, ev.Resync)
		require.Contains(t, ev.Changed, "b.go")
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for polled event")
	}
}

func TestPoller_IgnoresExcludedDirs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.go"), "package a\n")

	m, err := ignore.New(root)
	require.NoError(t, err)
	p := NewPoller(root, m, 20*time.Millisecond)
	t.Cleanup(func() { p.Stop() })

	eventCh := make(chan Event, 4)
	p.Start(context.Background(), func(ev Event) { eventCh <- ev })

	writeFile(t, filepath.Join(root, "node_modules", "pkg", "index.js"), "//\n")

	select {
	case ev := <-eventCh:
		t.Fatalf("unexpected event for ignored path: %+v", ev)
	case <-time.After(200 * time.Millisecond):
	}
}
