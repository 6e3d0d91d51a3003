// Package graphextract turns a source file's content into the nodes and
// edges graphstore.Store persists for it, generalizing the teacher's
// Go-only internal/graph/extractor.go into a per-language dispatch table
// so every indexed file — not just Go — contributes to the graph.
package graphextract

import (
	"path/filepath"
	"strings"

	"github.com/cortexindex/indexd/internal/graphstore"
)

// Result is one file's contribution to the project graph.
type Result struct {
	Nodes []graphstore.Node
	Edges []graphstore.Edge
}

// Extractor produces graph nodes/edges from one file's content.
type Extractor interface {
	Extract(relPath string, content []byte) (Result, error)
}

// Language names a detected source language, matching the vocabulary
// internal/indexer/parser.go's detectLanguage uses.
type Language string

const (
	LangGo         Language = "go"
	LangPython     Language = "python"
	LangTypeScript Language = "typescript"
	LangJava       Language = "java"
	LangPHP        Language = "php"
	LangRuby       Language = "ruby"
	LangRust       Language = "rust"
	LangC          Language = "c"
	LangUnknown    Language = ""
)

// DetectLanguage maps a file extension to the language graphextract knows
// how to parse, mirroring internal/indexer/parser.go's detectLanguage.
func DetectLanguage(relPath string) Language {
	switch strings.ToLower(filepath.Ext(relPath)) {
	case ".go":
		return LangGo
	case ".py":
		return LangPython
	case ".ts", ".tsx":
		return LangTypeScript
	case ".java":
		return LangJava
	case ".php":
		return LangPHP
	case ".rb":
		return LangRuby
	case ".rs":
		return LangRust
	case ".c", ".h":
		return LangC
	default:
		return LangUnknown
	}
}

// Registry dispatches extraction to a per-language Extractor, so C7 can
// call Extract(relPath, content) once without knowing which language
// backs any given file.
type Registry struct {
	byLang map[Language]Extractor
}

// NewRegistry builds the default registry: go/ast for Go, tree-sitter
// grammars for everything else graphextract supports.
func NewRegistry() *Registry {
	return &Registry{
		byLang: map[Language]Extractor{
			LangGo:         &goExtractor{},
			LangPython:     newTreeSitterExtractor(LangPython),
			LangTypeScript: newTreeSitterExtractor(LangTypeScript),
			LangJava:       newTreeSitterExtractor(LangJava),
			LangPHP:        newTreeSitterExtractor(LangPHP),
			LangRuby:       newTreeSitterExtractor(LangRuby),
			LangRust:       newTreeSitterExtractor(LangRust),
			LangC:          newTreeSitterExtractor(LangC),
		},
	}
}

// Extract dispatches by the file's detected language. Files in languages
// graphextract has no extractor for produce an empty Result, not an
// error — a file that can't be parsed for graph purposes can still be
// indexed for vector search.
func (r *Registry) Extract(relPath string, content []byte) (Result, error) {
	lang := DetectLanguage(relPath)
	ext, ok := r.byLang[lang]
	if !ok {
		return Result{}, nil
	}
	return ext.Extract(relPath, content)
}
