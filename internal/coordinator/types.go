package coordinator

import (
	"github.com/cortexindex/indexd/internal/graphstore"
	"github.com/cortexindex/indexd/internal/registry"
	"github.com/cortexindex/indexd/internal/vectorstore"
)

// Settings is the coordinator-facing alias of the registry's per-project
// settings overrides, so callers never need to import internal/registry
// just to build one.
type Settings = registry.Settings

// IndexOptions controls one StartIndex call.
type IndexOptions struct {
	// VectorsOnly indexes the vector store and skips the graph
	// sub-pipeline entirely.
	VectorsOnly bool
	// GraphOnly indexes the graph store and skips the vector
	// sub-pipeline entirely.
	GraphOnly bool
	// AllowReindex lets StartIndex be called against a project that is
	// already indexing: instead of returning AlreadyIndexing, the request
	// is queued and runs as a fresh pass the moment the in-flight run
	// drains. Without it, calling StartIndex on a non-idle project is a
	// conflict.
	AllowReindex bool
}

// Phase names the coordinator's high-level activity for a project.
type Phase string

const (
	PhaseIdle     Phase = "idle"
	PhaseWalking  Phase = "walking"
	PhaseDiffing  Phase = "diffing"
	PhaseIndexing Phase = "indexing"
	PhaseComplete Phase = "complete"
	// PhasePartial is a drained run where some files failed and some
	// succeeded: every file was attempted, FailedFiles > 0, and the failed
	// files (never given a fresh hash-store record) are exactly what the
	// next StartIndex call retries.
	PhasePartial Phase = "partial"
	PhaseError   Phase = "error"
)

// ProjectState is the coordinator's live view of a project, combining
// the registry's durable record with in-flight progress counters.
type ProjectState struct {
	Project       registry.Project
	Phase         Phase
	FilesTotal    int
	FilesDone     int
	FailedFiles   int
	ChunksIndexed int
	CurrentFile   string
	LastError     string
}

// ProgressEvent is one update broadcast to StartIndex subscribers,
// generalizing the teacher's protobuf IndexProgress (internal/mcp,
// gen/indexer/v1 — neither present in this pack) into a plain struct,
// since no protobuf schema for it exists anywhere in the retrieval pack.
type ProgressEvent struct {
	ProjectID string
	State     ProjectState
}

// SearchOptions bounds a vector search.
type SearchOptions struct {
	Limit    int
	MinScore float32
}

// SearchResult is one vector-search hit.
type SearchResult = vectorstore.Match

// RelatedResult is one graph-traversal hop.
type RelatedResult = graphstore.Neighbor
