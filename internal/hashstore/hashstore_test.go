package hashstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "hashes.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_DiffAddedModifiedDeletedUnchanged(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	now := time.Now().Truncate(time.Second)
	require.NoError(t, s.Upsert(ctx, Record{Path: "a.go", Hash: "hash-a", Size: 10, ModTime: now, IndexedAt: now}))
	require.NoError(t, s.Upsert(ctx, Record{Path: "b.go", Hash: "hash-b", Size: 20, ModTime: now, IndexedAt: now}))
	require.NoError(t, s.Upsert(ctx, Record{Path: "c.go", Hash: "hash-c", Size: 30, ModTime: now, IndexedAt: now}))

	candidates := []Candidate{
		{Path: "a.go", Size: 10, ModTime: now},                  // unchanged, mtime fast path
		{Path: "b.go", Size: 99, ModTime: now.Add(time.Minute)}, // hash differs -> modified
		{Path: "d.go", Size: 5, ModTime: now},                   // new -> added
		// c.go absent -> deleted
	}
	hashCalls := 0
	hasher := func(path string) (string, error) {
		hashCalls++
		if path == "b.go" {
			return "hash-b-new", nil
		}
		return "unused", nil
	}

	diff, err := s.Diff(ctx, candidates, hasher)
	require.NoError(t, err)

	require.Equal(t, []string{"d.go"}, diff.Added)
	require.Equal(t, []string{"b.go"}, diff.Modified)
	require.Equal(t, []string{"a.go"}, diff.Unchanged)
	require.Equal(t, []string{"c.go"}, diff.Deleted)
	require.Equal(t, 1, hashCalls, "mtime+size match on a.go must skip hashing")
}

func TestStore_DiffMtimeDriftSameHashIsUnchanged(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	now := time.Now().Truncate(time.Second)
	require.NoError(t, s.Upsert(ctx, Record{Path: "a.go", Hash: "hash-a", Size: 10, ModTime: now, IndexedAt: now}))

	candidates := []Candidate{
		{Path: "a.go", Size: 10, ModTime: now.Add(time.Hour)},
	}
	diff, err := s.Diff(ctx, candidates, func(string) (string, error) { return "hash-a", nil })
	require.NoError(t, err)

	require.Empty(t, diff.Modified)
	require.Equal(t, []string{"a.go"}, diff.Unchanged)
}

func TestStore_DeleteRemovesRecord(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	now := time.Now()
	require.NoError(t, s.Upsert(ctx, Record{Path: "a.go", Hash: "h", Size: 1, ModTime: now, IndexedAt: now}))
	require.NoError(t, s.Delete(ctx, "a.go"))

	diff, err := s.Diff(ctx, nil, nil)
	require.NoError(t, err)
	require.Empty(t, diff.Deleted)
}
