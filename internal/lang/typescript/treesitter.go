//go:build cgo

package typescript

import (
	"context"
	"path/filepath"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	tsgrammar "github.com/smacker/go-tree-sitter/typescript/typescript"
)

// astImports extracts import specifiers from the syntax tree: static
// imports, re-exports, require calls, and dynamic import expressions.
// A false return means parsing failed and the caller should fall back
// to pattern scanning.
func astImports(path string, content []byte) ([]importOccurrence, bool) {
	parser := sitter.NewParser()
	parser.SetLanguage(grammarFor(path))

	tree, err := parser.ParseCtx(context.Background(), nil, content)
	if err != nil || tree == nil {
		return nil, false
	}
	root := tree.RootNode()
	if root == nil {
		return nil, false
	}

	var occs []importOccurrence
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		switch n.Type() {
		case "import_statement", "export_statement":
			if src := n.ChildByFieldName("source"); src != nil {
				if occ, ok := stringOccurrence(src, content); ok {
					occs = append(occs, occ)
				}
			}
		case "call_expression":
			if occ, ok := callImport(n, content); ok {
				occs = append(occs, occ)
			}
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(root)

	sort.Slice(occs, func(i, j int) bool { return occs[i].start < occs[j].start })
	return occs, true
}

// callImport matches require("x") and import("x") call expressions
// with a literal first argument.
func callImport(n *sitter.Node, content []byte) (importOccurrence, bool) {
	fn := n.ChildByFieldName("function")
	if fn == nil {
		return importOccurrence{}, false
	}
	switch fn.Type() {
	case "import":
	case "identifier":
		if string(content[fn.StartByte():fn.EndByte()]) != "require" {
			return importOccurrence{}, false
		}
	default:
		return importOccurrence{}, false
	}

	args := n.ChildByFieldName("arguments")
	if args == nil || args.NamedChildCount() == 0 {
		return importOccurrence{}, false
	}
	arg := args.NamedChild(0)
	if arg == nil || arg.Type() != "string" {
		return importOccurrence{}, false
	}
	return stringOccurrence(arg, content)
}

// stringOccurrence returns the span of a string node's text between
// the quotes.
func stringOccurrence(n *sitter.Node, content []byte) (importOccurrence, bool) {
	start, end := int(n.StartByte()), int(n.EndByte())
	if end-start < 2 || end > len(content) {
		return importOccurrence{}, false
	}
	return importOccurrence{
		spec:  string(content[start+1 : end-1]),
		start: start + 1,
		end:   end - 1,
	}, true
}

func grammarFor(path string) *sitter.Language {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ts":
		return tsgrammar.GetLanguage()
	case ".tsx":
		return tsx.GetLanguage()
	default:
		return javascript.GetLanguage()
	}
}

// ASTAvailable reports whether tree-sitter parsing is compiled in.
func ASTAvailable() bool {
	return true
}
