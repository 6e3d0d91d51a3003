// Package graphstore implements the graph store adapter (C6b): a
// per-project "space" holding code-entity nodes and relationship edges,
// queryable by bounded-depth traversal from a node.
//
// No example repo in the retrieval pack talks to a real graph database —
// searched for Neo4j/Nebula/Dgraph/JanusGraph/ArangoDB clients across every
// go.mod and found none. go.etcd.io/bbolt, already a transitive teacher
// dependency (internal/graph/storage.go's JSON file persistence sits next
// to it in spirit, though that file uses a flat JSON document rather than
// a database), is promoted here to a direct dependency as an embedded,
// transactional, bucket-per-project-per-kind store standing in for a
// networked graph database. The adapter still exposes the async
// ensure-space-then-poll-for-readiness and pooled-session shape a remote
// graph client would need, via the pool in session.go, so swapping the
// backend later doesn't change the coordinator's contract with this
// package.
package graphstore

import "context"

// NodeKind mirrors the teacher's graph.NodeKind (internal/graph/types.go),
// widened with a generic "entity" fallback for languages extraction
// doesn't have a specific kind for yet.
type NodeKind string

const (
	NodeFunction NodeKind = "function"
	NodeMethod   NodeKind = "method"
	NodeType     NodeKind = "type"
	NodePackage  NodeKind = "package"
	NodeEntity   NodeKind = "entity"
)

// EdgeKind mirrors the teacher's graph.EdgeType, extended with Imports'
// sibling Defines/Implements relationships extraction can now emit.
type EdgeKind string

const (
	EdgeCalls      EdgeKind = "calls"
	EdgeImports    EdgeKind = "imports"
	EdgeImplements EdgeKind = "implements"
	EdgeDefines    EdgeKind = "defines"
)

// Node is one code entity.
type Node struct {
	ID        string
	Kind      NodeKind
	FilePath  string
	StartLine int
	EndLine   int
}

// Edge is one relationship between two nodes, both scoped to the same
// project.
type Edge struct {
	From     string
	To       string
	Kind     EdgeKind
	FilePath string
	Line     int
}

// Neighbor is one step of a traversal result.
type Neighbor struct {
	Node  Node
	Edge  Edge
	Depth int
}

// Store is the graph-store side of a project's dual-store pair.
type Store interface {
	// EnsureSpace creates the project's graph space if it doesn't exist
	// yet and blocks until it is ready to accept writes.
	EnsureSpace(ctx context.Context, projectID string) error

	// UpsertFile atomically replaces every node and edge previously
	// recorded as originating from filePath with nodes and edges,
	// implementing per-file incremental graph updates.
	UpsertFile(ctx context.Context, projectID, filePath string, nodes []Node, edges []Edge) error

	// DeleteFile removes every node and edge originating from filePath —
	// the graph side of a per-file compensating delete.
	DeleteFile(ctx context.Context, projectID, filePath string) error

	// RelatedTo returns every node reachable from nodeID within maxDepth
	// hops, following edges in either direction.
	RelatedTo(ctx context.Context, projectID, nodeID string, maxDepth int) ([]Neighbor, error)

	// DropSpace removes a project's entire graph space.
	DropSpace(ctx context.Context, projectID string) error

	Close() error
}
