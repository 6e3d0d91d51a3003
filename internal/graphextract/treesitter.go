package graphextract

import (
	"fmt"

	"github.com/cortexindex/indexd/internal/graphstore"
	sitter "github.com/tree-sitter/go-tree-sitter"
	c "github.com/tree-sitter/tree-sitter-c/bindings/go"
	java "github.com/tree-sitter/tree-sitter-java/bindings/go"
	php "github.com/tree-sitter/tree-sitter-php/bindings/go"
	python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	ruby "github.com/tree-sitter/tree-sitter-ruby/bindings/go"
	rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// nodeKinds lists the tree-sitter node kinds that count as a function-like
// or type-like declaration for one language, grounded on the per-language
// walkTree switches in internal/indexer/parsers/*.go (python.go's
// "class_definition"/"function_definition" is the clearest example).
type nodeKinds struct {
	functions []string
	types     []string
	calls     []string
}

var languageTables = map[Language]nodeKinds{
	LangPython: {
		functions: []string{"function_definition"},
		types:     []string{"class_definition"},
		calls:     []string{"call"},
	},
	LangTypeScript: {
		functions: []string{"function_declaration", "method_definition"},
		types:     []string{"class_declaration", "interface_declaration"},
		calls:     []string{"call_expression"},
	},
	LangJava: {
		functions: []string{"method_declaration", "constructor_declaration"},
		types:     []string{"class_declaration", "interface_declaration"},
		calls:     []string{"method_invocation"},
	},
	LangPHP: {
		functions: []string{"function_definition", "method_declaration"},
		types:     []string{"class_declaration", "interface_declaration"},
		calls:     []string{"function_call_expression", "member_call_expression"},
	},
	LangRuby: {
		functions: []string{"method"},
		types:     []string{"class", "module"},
		calls:     []string{"call"},
	},
	LangRust: {
		functions: []string{"function_item"},
		types:     []string{"struct_item", "enum_item", "trait_item"},
		calls:     []string{"call_expression"},
	},
	LangC: {
		functions: []string{"function_definition"},
		types:     []string{"struct_specifier", "enum_specifier"},
		calls:     []string{"call_expression"},
	},
}

func languageGrammar(lang Language) *sitter.Language {
	switch lang {
	case LangPython:
		return sitter.NewLanguage(python.Language())
	case LangTypeScript:
		return sitter.NewLanguage(typescript.LanguageTypescript())
	case LangJava:
		return sitter.NewLanguage(java.Language())
	case LangPHP:
		return sitter.NewLanguage(php.LanguagePHP())
	case LangRuby:
		return sitter.NewLanguage(ruby.Language())
	case LangRust:
		return sitter.NewLanguage(rust.Language())
	case LangC:
		return sitter.NewLanguage(c.Language())
	default:
		return nil
	}
}

// treeSitterExtractor is the language-agnostic part of tree-sitter based
// extraction: declaration/call node kinds are looked up per language,
// but the walk, node-kind matching, and Node/Edge construction are
// identical across languages. Adapted from the shared helpers in
// internal/indexer/parsers/treesitter.go (walkTree, extractNodeText,
// ChildByFieldName("name")).
type treeSitterExtractor struct {
	lang    Language
	grammar *sitter.Language
	kinds   nodeKinds
}

func newTreeSitterExtractor(lang Language) *treeSitterExtractor {
	return &treeSitterExtractor{
		lang:    lang,
		grammar: languageGrammar(lang),
		kinds:   languageTables[lang],
	}
}

func (e *treeSitterExtractor) Extract(relPath string, content []byte) (Result, error) {
	if e.grammar == nil {
		return Result{}, nil
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(e.grammar)

	tree := parser.Parse(content, nil)
	if tree == nil {
		return Result{}, fmt.Errorf("graphextract: %s: failed to parse %s", e.lang, relPath)
	}
	defer tree.Close()

	fileNodeID := relPath
	result := Result{
		Nodes: []graphstore.Node{{
			ID:        fileNodeID,
			Kind:      graphstore.NodePackage,
			FilePath:  relPath,
			StartLine: 1,
			EndLine:   int(tree.RootNode().EndPosition().Row) + 1,
		}},
	}

	e.walk(tree.RootNode(), content, relPath, fileNodeID, "", &result)
	return result, nil
}

// walk visits every node, tracking the innermost enclosing declaration
// (enclosingID) so call edges attribute to the function/method they
// occur in rather than to the file as a whole.
func (e *treeSitterExtractor) walk(node *sitter.Node, source []byte, relPath, fileNodeID, enclosingID string, result *Result) {
	if node == nil {
		return
	}

	kind := node.Kind()
	nextEnclosing := enclosingID

	switch {
	case containsKind(e.kinds.types, kind):
		id := declNodeID(relPath, node, source)
		result.Nodes = append(result.Nodes, graphstore.Node{
			ID:        id,
			Kind:      graphstore.NodeType,
			FilePath:  relPath,
			StartLine: int(node.StartPosition().Row) + 1,
			EndLine:   int(node.EndPosition().Row) + 1,
		})
		result.Edges = append(result.Edges, graphstore.Edge{
			From: fileNodeID, To: id, Kind: graphstore.EdgeDefines,
			FilePath: relPath, Line: int(node.StartPosition().Row) + 1,
		})

	case containsKind(e.kinds.functions, kind):
		id := declNodeID(relPath, node, source)
		nodeKind := graphstore.NodeFunction
		if enclosingID != "" {
			nodeKind = graphstore.NodeMethod
		}
		result.Nodes = append(result.Nodes, graphstore.Node{
			ID:        id,
			Kind:      nodeKind,
			FilePath:  relPath,
			StartLine: int(node.StartPosition().Row) + 1,
			EndLine:   int(node.EndPosition().Row) + 1,
		})
		result.Edges = append(result.Edges, graphstore.Edge{
			From: fileNodeID, To: id, Kind: graphstore.EdgeDefines,
			FilePath: relPath, Line: int(node.StartPosition().Row) + 1,
		})
		nextEnclosing = id

	case containsKind(e.kinds.calls, kind):
		if enclosingID != "" {
			if callee := calleeText(node, source); callee != "" {
				result.Edges = append(result.Edges, graphstore.Edge{
					From: enclosingID, To: relPath + "::" + callee, Kind: graphstore.EdgeCalls,
					FilePath: relPath, Line: int(node.StartPosition().Row) + 1,
				})
			}
		}
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		e.walk(node.Child(uint(i)), source, relPath, fileNodeID, nextEnclosing, result)
	}
}

func containsKind(kinds []string, kind string) bool {
	for _, k := range kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// declNodeID builds a node ID from a declaration's "name" child when the
// grammar exposes one, falling back to its byte offset so every
// declaration still gets a stable, unique ID.
func declNodeID(relPath string, node *sitter.Node, source []byte) string {
	if nameNode := node.ChildByFieldName("name"); nameNode != nil {
		return relPath + "::" + string(source[nameNode.StartByte():nameNode.EndByte()])
	}
	return fmt.Sprintf("%s::anon@%d", relPath, node.StartByte())
}

// calleeText extracts a best-effort callee name from a call-like node,
// preferring its "function"/"method" field when the grammar labels one.
func calleeText(node *sitter.Node, source []byte) string {
	for _, field := range []string{"function", "method"} {
		if n := node.ChildByFieldName(field); n != nil {
			return string(source[n.StartByte():n.EndByte()])
		}
	}
	if node.ChildCount() > 0 {
		first := node.Child(0)
		return string(source[first.StartByte():first.EndByte()])
	}
	return ""
}
