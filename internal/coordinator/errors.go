package coordinator

import "fmt"

// Kind classifies an Error the way callers across every adapter boundary
// (registry, hash store, embedder, vector store, graph store) need to be
// translated into, so the coordinator never surfaces a raw backend error
// (a Qdrant gRPC status, a bbolt error, an HTTP error from an embedder)
// unwrapped to a caller.
type Kind string

const (
	KindNotFound    Kind = "not_found"
	KindInvalid     Kind = "invalid"
	KindUnavailable Kind = "unavailable"
	KindConflict    Kind = "conflict"
	KindInternal    Kind = "internal"
)

// Scope names which of the coordinator's components raised an Error.
type Scope string

const (
	ScopeRegistry    Scope = "registry"
	ScopeHashStore   Scope = "hashstore"
	ScopeIgnore      Scope = "ignore"
	ScopeWalker      Scope = "walker"
	ScopeEmbedder    Scope = "embedder"
	ScopeVectorStore Scope = "vectorstore"
	ScopeGraphStore  Scope = "graphstore"
	ScopeCoordinator Scope = "coordinator"
)

// Error is the coordinator's uniform error shape: every adapter failure
// is translated into one of these before it crosses a C7 API boundary.
type Error struct {
	Kind  Kind
	Scope Scope
	Msg   string
	Hints []string
	Err   error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s/%s: %s: %v", e.Scope, e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s/%s: %s", e.Scope, e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

func newErr(kind Kind, scope Scope, msg string, err error, hints ...string) *Error {
	return &Error{Kind: kind, Scope: scope, Msg: msg, Err: err, Hints: hints}
}
