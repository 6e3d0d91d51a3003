// Package vectorstore implements the vector store adapter (C6a): a
// per-project collection of chunk embeddings, queryable by cosine
// similarity, with two backends behind one interface — Qdrant for
// production and an embedded sqlite-vec database for tests and
// single-binary deployments.
package vectorstore

import "context"

// Record is one chunk's embedding and the payload needed to answer a
// search without a second round trip.
type Record struct {
	ChunkID   string
	FilePath  string
	Text      string
	StartLine int
	EndLine   int
	Embedding []float32
}

// Match is one similarity search result, ordered closest-first.
type Match struct {
	Record
	Distance float32 // cosine distance; lower is more similar
}

// Store is the vector-store side of a project's dual-store pair.
// Implementations namespace all state by projectID so one Store instance
// safely serves every registered project.
type Store interface {
	// EnsureCollection creates the project's collection/table if it
	// doesn't already exist, sized for the given embedding dimension.
	// It is idempotent and safe to call before every indexing run.
	EnsureCollection(ctx context.Context, projectID string, dimensions int) error

	// Upsert replaces any existing vectors sharing a record's ChunkID.
	Upsert(ctx context.Context, projectID string, records []Record) error

	// DeleteFile removes every chunk belonging to filePath — the vector
	// side of a per-file compensating delete.
	DeleteFile(ctx context.Context, projectID, filePath string) error

	// Search returns the limit closest records to query.
	Search(ctx context.Context, projectID string, query []float32, limit int) ([]Match, error)

	// DropCollection removes a project's entire collection, used when a
	// project is unregistered.
	DropCollection(ctx context.Context, projectID string) error

	Close() error
}
