// Package chunk defines the unit the coordinator embeds and stores, and
// a size-windowed splitter that turns one file's content into chunks.
//
// The core treats chunk content as opaque text; how a file is split into
// chunks is explicitly a pluggable, external concern (language-aware
// parsing is out of scope here — see SPEC_FULL.md's domain-stack
// rationale for tree-sitter). This splitter exists so the pipeline has a
// concrete, working default: a target-size sliding window with overlap,
// generalized from the paragraph/header splitting the teacher's
// chunker.go applies to markdown (internal/indexer/chunker.go) into a
// language-agnostic line-window algorithm that works on any text file.
package chunk

// Chunk is one embeddable, storable unit of a file's content.
type Chunk struct {
	// ID is unique within a project: "<path>#L<startLine>-L<endLine>".
	ID        string
	FilePath  string // project-relative, slash-separated
	Text      string
	StartLine int // 1-indexed, inclusive
	EndLine   int // 1-indexed, inclusive
}

// Config tunes the window splitter.
type Config struct {
	// TargetLines is the approximate number of lines per chunk.
	TargetLines int
	// OverlapLines is how many trailing lines of one chunk are repeated
	// at the start of the next, so a symbol spanning a window boundary
	// still appears whole in at least one chunk.
	OverlapLines int
}

// DefaultConfig splits into ~60-line windows with 10 lines of overlap.
func DefaultConfig() Config {
	return Config{TargetLines: 60, OverlapLines: 10}
}
