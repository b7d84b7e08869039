//go:build !cgo

package typescript

// astImports is unavailable without cgo; import extraction falls back
// to pattern scanning.
func astImports(path string, content []byte) ([]importOccurrence, bool) {
	return nil, false
}

// ASTAvailable reports whether tree-sitter parsing is compiled in.
func ASTAvailable() bool {
	return false
}
