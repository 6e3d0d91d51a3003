// Package hashstore persists the per-file content hash and modification
// time a project was last indexed at, and diffs that snapshot against the
// current filesystem state to produce the set of files an indexing run
// needs to touch.
//
// The schema and query shape are adapted from the project's SQLite file
// table (internal/storage/schema.go, file_reader.go, file_writer.go in the
// teacher tree), trimmed to the columns change detection actually needs —
// hash, size, and mtime — since symbol extraction is out of scope here.
package hashstore

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"
)

// Record is the last-known state of one indexed file.
type Record struct {
	Path      string // project-relative, slash-separated
	Hash      string // hex SHA-256 of file contents
	Size      int64
	ModTime   time.Time
	IndexedAt time.Time
}

// Diff is the result of comparing a filesystem snapshot against stored
// records.
type Diff struct {
	Added     []string
	Modified  []string
	Deleted   []string
	Unchanged []string
}

// Candidate is one file the walker observed on disk.
type Candidate struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// Store is the per-project content-hash ledger (C2 in the component
// design). A Store is not safe for concurrent use by more than one
// indexing run at a time; the coordinator serializes access per project.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the hash store database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("hashstore: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	if err := ensureSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func ensureSchema(db *sql.DB) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS files (
    path       TEXT PRIMARY KEY,
    hash       TEXT NOT NULL,
    size_bytes INTEGER NOT NULL,
    mod_time   TEXT NOT NULL,
    indexed_at TEXT NOT NULL
)`
	if _, err := db.Exec(ddl); err != nil {
		return fmt.Errorf("hashstore: create schema: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Diff compares candidates (the walker's current view of the filesystem)
// against the stored snapshot and classifies every path.
//
// The mtime fast path mirrors the teacher's change detector: a matching
// mtime skips hashing entirely, a mismatched mtime triggers a hash
// comparison, and only a hash mismatch counts as Modified. Files stored
// but absent from candidates are Deleted.
func (s *Store) Diff(ctx context.Context, candidates []Candidate, hasher func(path string) (string, error)) (*Diff, error) {
	stored, err := s.all(ctx)
	if err != nil {
		return nil, err
	}

	diff := &Diff{}
	seen := make(map[string]bool, len(candidates))

	for _, c := range candidates {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		seen[c.Path] = true

		rec, ok := stored[c.Path]
		if !ok {
			diff.Added = append(diff.Added, c.Path)
			continue
		}
		if c.ModTime.Equal(rec.ModTime) && c.Size == rec.Size {
			diff.Unchanged = append(diff.Unchanged, c.Path)
			continue
		}
		hash, err := hasher(c.Path)
		if err != nil {
			return nil, fmt.Errorf("hashstore: hash %s: %w", c.Path, err)
		}
		if hash == rec.Hash {
			diff.Unchanged = append(diff.Unchanged, c.Path)
		} else {
			diff.Modified = append(diff.Modified, c.Path)
		}
	}

	for path := range stored {
		if !seen[path] {
			diff.Deleted = append(diff.Deleted, path)
		}
	}
	return diff, nil
}

func (s *Store) all(ctx context.Context) (map[string]Record, error) {
	rows, err := sq.Select("path", "hash", "size_bytes", "mod_time", "indexed_at").
		From("files").
		RunWith(s.db).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("hashstore: list files: %w", err)
	}
	defer rows.Close()

	out := make(map[string]Record)
	for rows.Next() {
		var r Record
		var modTime, indexedAt string
		if err := rows.Scan(&r.Path, &r.Hash, &r.Size, &modTime, &indexedAt); err != nil {
			return nil, fmt.Errorf("hashstore: scan file row: %w", err)
		}
		r.ModTime, _ = time.Parse(time.RFC3339Nano, modTime)
		r.IndexedAt, _ = time.Parse(time.RFC3339Nano, indexedAt)
		out[r.Path] = r
	}
	return out, rows.Err()
}

// Upsert records path's current hash/size/mtime after it has been
// successfully processed by the rest of the pipeline.
func (s *Store) Upsert(ctx context.Context, rec Record) error {
	_, err := sq.Insert("files").
		Columns("path", "hash", "size_bytes", "mod_time", "indexed_at").
		Values(rec.Path, rec.Hash, rec.Size, rec.ModTime.Format(time.RFC3339Nano), rec.IndexedAt.Format(time.RFC3339Nano)).
		Options("OR REPLACE").
		RunWith(s.db).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("hashstore: upsert %s: %w", rec.Path, err)
	}
	return nil
}

// TouchModTime corrects a stored mtime without re-hashing, for the
// "unchanged but mtime drifted" case the diff algorithm detects.
func (s *Store) TouchModTime(ctx context.Context, path string, modTime time.Time) error {
	_, err := sq.Update("files").
		Set("mod_time", modTime.Format(time.RFC3339Nano)).
		Where(sq.Eq{"path": path}).
		RunWith(s.db).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("hashstore: touch mtime %s: %w", path, err)
	}
	return nil
}

// Delete removes path's record, typically after its chunks and vectors
// have been successfully removed from the other two stores.
func (s *Store) Delete(ctx context.Context, path string) error {
	_, err := sq.Delete("files").
		Where(sq.Eq{"path": path}).
		RunWith(s.db).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("hashstore: delete %s: %w", path, err)
	}
	return nil
}

// HashFile computes the SHA-256 hex digest of a file's contents. It is the
// default hasher passed to Diff.
func HashFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
