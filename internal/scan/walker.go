package scan

import (
	"bytes"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"remap/internal/paths"
	"remap/internal/scope"
)

// skipDirs are directory names never descended into: VCS metadata,
// dependency trees, and build output.
var skipDirs = map[string]bool{
	".git":        true,
	"node_modules": true,
	"target":      true,
	"dist":        true,
	"build":       true,
	"coverage":    true,
	"__pycache__": true,
	".venv":       true,
	"venv":        true,
	".next":       true,
	".svelte-kit": true,
	".turbo":      true,
	"vendor":      true,
	".idea":       true,
	".vscode":     true,
	".remap":      true,
}

// binaryExtensions are skipped without opening the file.
var binaryExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".ico": true,
	".webp": true, ".pdf": true, ".zip": true, ".tar": true, ".gz": true,
	".zst": true, ".br": true, ".woff": true, ".woff2": true, ".ttf": true,
	".eot": true, ".otf": true, ".exe": true, ".dll": true, ".so": true,
	".dylib": true, ".a": true, ".o": true, ".class": true, ".jar": true,
	".wasm": true, ".mp3": true, ".mp4": true, ".webm": true, ".mov": true,
	".db": true, ".sqlite": true, ".scip": true, ".pyc": true,
}

// walkOptions tunes a file walk.
type walkOptions struct {
	// maxFileSize excludes larger files from content scanning; 0 means
	// no cap
	maxFileSize int64
	// extraSkipDirs extends skipDirs from configuration
	extraSkipDirs []string
	// scope filters files by category; nil includes everything
	scope *scope.Scope
}

// walkFiles lists the scannable files under root as sorted canonical
// repo-relative paths. Skip directories are pruned, binary files are
// excluded by extension and a content sniff, and files over the size
// cap are dropped.
func walkFiles(root string, opts walkOptions) ([]string, error) {
	extraSkip := make(map[string]bool, len(opts.extraSkipDirs))
	for _, d := range opts.extraSkipDirs {
		extraSkip[d] = true
	}

	var out []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable entries are skipped, not fatal
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		name := d.Name()
		if d.IsDir() {
			if p != root && (skipDirs[name] || extraSkip[name]) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if binaryExtensions[strings.ToLower(filepath.Ext(name))] {
			return nil
		}
		if opts.maxFileSize > 0 {
			if info, err := d.Info(); err == nil && info.Size() > opts.maxFileSize {
				return nil
			}
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return nil
		}
		canonical := paths.NormalizePath(rel)
		if opts.scope != nil && !opts.scope.ShouldIncludeFile(canonical) {
			return nil
		}
		if isBinaryFile(p) {
			return nil
		}
		out = append(out, canonical)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

// isBinaryFile sniffs the first 512 bytes for a NUL byte, the same
// heuristic git uses to classify blobs.
func isBinaryFile(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	buf := make([]byte, 512)
	n, err := f.Read(buf)
	if err != nil && err != io.EOF {
		return false
	}
	return bytes.IndexByte(buf[:n], 0) >= 0
}
