package graphextract

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"strings"

	"github.com/cortexindex/indexd/internal/graphstore"
)

// goExtractor extracts code-entity nodes and relationship edges from Go
// source using go/ast, adapted from internal/graph/extractor.go's
// ExtractFile: the teacher built fully qualified "pkg.Name" node IDs
// global to a whole indexed tree, whereas here every node/edge is
// attributed to the one file that produced it so graphstore.UpsertFile's
// per-file replace semantics stay correct — IDs are "relPath::Name"
// instead, and cross-file call targets are left as unresolved (dangling)
// edges rather than requiring a whole-project symbol table.
type goExtractor struct{}

func (goExtractor) Extract(relPath string, content []byte) (Result, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, relPath, content, 0)
	if err != nil {
		return Result{}, fmt.Errorf("graphextract: parse %s: %w", relPath, err)
	}

	fileNodeID := relPath
	result := Result{
		Nodes: []graphstore.Node{{
			ID:        fileNodeID,
			Kind:      graphstore.NodePackage,
			FilePath:  relPath,
			StartLine: 1,
			EndLine:   fset.Position(file.End()).Line,
		}},
	}

	for _, imp := range file.Imports {
		result.Edges = append(result.Edges, graphstore.Edge{
			From:     fileNodeID,
			To:       strings.Trim(imp.Path.Value, `"`),
			Kind:     graphstore.EdgeImports,
			FilePath: relPath,
			Line:     fset.Position(imp.Pos()).Line,
		})
	}

	ast.Inspect(file, func(n ast.Node) bool {
		switch decl := n.(type) {
		case *ast.GenDecl:
			if decl.Tok == token.TYPE {
				for _, spec := range decl.Specs {
					if ts, ok := spec.(*ast.TypeSpec); ok {
						extractGoType(ts, fset, relPath, fileNodeID, &result)
					}
				}
			}
		case *ast.FuncDecl:
			extractGoFunc(decl, fset, relPath, fileNodeID, &result)
		}
		return true
	})

	return result, nil
}

func extractGoType(ts *ast.TypeSpec, fset *token.FileSet, relPath, fileNodeID string, result *Result) {
	id := relPath + "::" + ts.Name.Name
	result.Nodes = append(result.Nodes, graphstore.Node{
		ID:        id,
		Kind:      graphstore.NodeType,
		FilePath:  relPath,
		StartLine: fset.Position(ts.Pos()).Line,
		EndLine:   fset.Position(ts.End()).Line,
	})
	result.Edges = append(result.Edges, graphstore.Edge{
		From:     fileNodeID,
		To:       id,
		Kind:     graphstore.EdgeDefines,
		FilePath: relPath,
		Line:     fset.Position(ts.Pos()).Line,
	})

	if iface, ok := ts.Type.(*ast.InterfaceType); ok && iface.Methods != nil {
		for _, field := range iface.Methods.List {
			if embeddedIdent, ok2 := field.Type.(*ast.Ident); ok2 && len(field.Names) == 0 {
				result.Edges = append(result.Edges, graphstore.Edge{
					From:     id,
					To:       relPath + "::" + embeddedIdent.Name,
					Kind:     graphstore.EdgeImplements,
					FilePath: relPath,
					Line:     fset.Position(field.Pos()).Line,
				})
			}
		}
	}
}

func extractGoFunc(decl *ast.FuncDecl, fset *token.FileSet, relPath, fileNodeID string, result *Result) {
	name := decl.Name.Name
	kind := graphstore.NodeFunction
	if decl.Recv != nil && len(decl.Recv.List) > 0 {
		kind = graphstore.NodeMethod
		name = receiverTypeName(decl.Recv.List[0].Type) + "." + name
	}

	id := relPath + "::" + name
	result.Nodes = append(result.Nodes, graphstore.Node{
		ID:        id,
		Kind:      kind,
		FilePath:  relPath,
		StartLine: fset.Position(decl.Pos()).Line,
		EndLine:   fset.Position(decl.End()).Line,
	})
	result.Edges = append(result.Edges, graphstore.Edge{
		From:     fileNodeID,
		To:       id,
		Kind:     graphstore.EdgeDefines,
		FilePath: relPath,
		Line:     fset.Position(decl.Pos()).Line,
	})

	if decl.Body == nil {
		return
	}
	ast.Inspect(decl.Body, func(n ast.Node) bool {
		call, ok := n.(*ast.CallExpr)
		if !ok {
			return true
		}
		callee := calleeName(call.Fun)
		if callee == "" {
			return true
		}
		result.Edges = append(result.Edges, graphstore.Edge{
			From:     id,
			To:       relPath + "::" + callee,
			Kind:     graphstore.EdgeCalls,
			FilePath: relPath,
			Line:     fset.Position(call.Pos()).Line,
		})
		return true
	})
}

func receiverTypeName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		if ident, ok := t.X.(*ast.Ident); ok {
			return ident.Name
		}
	}
	return "unknown"
}

// calleeName extracts a best-effort callee identifier, resolving only
// same-file calls (direct identifiers and obj.Method() selectors);
// calls into other packages resolve to a dangling edge target, which
// RelatedTo simply skips when walking the graph.
func calleeName(fun ast.Expr) string {
	switch f := fun.(type) {
	case *ast.Ident:
		return f.Name
	case *ast.SelectorExpr:
		if ident, ok := f.X.(*ast.Ident); ok {
			return ident.Name + "." + f.Sel.Name
		}
	}
	return ""
}
