// Package golang implements reference support for Go sources and
// module manifests: import extraction, import path resolution against
// the nearest go.mod, and rewriting for moved package directories.
// go.mod replace directives and go.work use directives with relative
// paths follow moves as well.
package golang

import (
	"bytes"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"remap/internal/capability"
	"remap/internal/paths"
)

// Support implements the Go language capabilities. One instance serves
// a repository; it is safe for concurrent use.
type Support struct {
	repoRoot string

	mu    sync.Mutex
	cache map[string]moduleEntry
}

// moduleEntry caches one parsed go.mod, keyed by mtime so edits
// invalidate it.
type moduleEntry struct {
	mtime  time.Time
	module string
}

// New creates Go support rooted at repoRoot.
func New(repoRoot string) *Support {
	return &Support{
		repoRoot: repoRoot,
		cache:    make(map[string]moduleEntry),
	}
}

// Capabilities describes the operations this module provides.
func (s *Support) Capabilities() *capability.Capabilities {
	return &capability.Capabilities{
		Language:           "go",
		Extensions:         []string{".go"},
		Filenames:          []string{"go.mod", "go.work"},
		StringLiteralPaths: true,
		Parser:             s,
		Resolver:           s,
		Move:               s,
		ModuleDecl:         s,
	}
}

var moduleLineRe = regexp.MustCompile(`(?m)^module\s+"?([^\s"]+)"?\s*$`)

// ParseImports extracts import specifiers from a Go source file, both
// single-line imports and parenthesized blocks. Manifests have no
// imports and yield nothing.
func (s *Support) ParseImports(filePath string, content []byte) ([]capability.ImportSpecifier, error) {
	switch path.Base(paths.NormalizePath(filePath)) {
	case "go.mod", "go.work":
		return nil, nil
	}

	var specs []capability.ImportSpecifier
	inBlock := false
	for i, rawLine := range strings.Split(string(content), "\n") {
		line := strings.TrimSuffix(rawLine, "\r")
		trimmed := strings.TrimSpace(line)
		collect := false
		switch {
		case inBlock:
			if strings.HasPrefix(trimmed, ")") {
				inBlock = false
				continue
			}
			collect = true
		case strings.HasPrefix(trimmed, "import ("):
			inBlock = !strings.Contains(trimmed, ")")
			collect = true
		case strings.HasPrefix(trimmed, "import "):
			collect = true
		}
		if !collect {
			continue
		}
		if spec, col, ok := quotedString(line); ok {
			specs = append(specs, capability.ImportSpecifier{
				Specifier: spec,
				Line:      i + 1,
				Col:       col,
			})
		}
	}
	return specs, nil
}

// quotedString extracts the first double-quoted string on a line and
// the 1-based column where its text starts.
func quotedString(line string) (string, int, bool) {
	start := strings.IndexByte(line, '"')
	if start < 0 {
		return "", 0, false
	}
	end := strings.IndexByte(line[start+1:], '"')
	if end < 0 {
		return "", 0, false
	}
	return line[start+1 : start+1+end], start + 2, true
}

// ResolveSpecifier maps an import path to the repo-relative package
// directory it denotes. Paths outside the enclosing module's prefix
// are external dependencies and do not resolve.
func (s *Support) ResolveSpecifier(specifier, contextFile string) (string, bool) {
	if specifier == "" || strings.HasPrefix(specifier, ".") || paths.IsAbsSpecifier(specifier) {
		return "", false
	}
	modPath, modDir, ok := s.moduleAt(path.Dir(paths.NormalizePath(contextFile)))
	if !ok {
		return "", false
	}
	var target string
	switch {
	case specifier == modPath:
		target = modDir
	case strings.HasPrefix(specifier, modPath+"/"):
		target = path.Join(modDir, specifier[len(modPath)+1:])
	default:
		return "", false
	}
	info, err := os.Stat(paths.JoinRepoPath(s.repoRoot, target))
	if err != nil || !info.IsDir() {
		return "", false
	}
	return target, true
}

// moduleAt walks from dir toward the repository root looking for a
// go.mod and returns its module path and directory.
func (s *Support) moduleAt(dir string) (string, string, bool) {
	for {
		modFile := filepath.Join(s.repoRoot, filepath.FromSlash(dir), "go.mod")
		if module, ok := s.readModule(modFile); ok {
			return module, dir, true
		}
		if dir == "." || dir == "" || dir == "/" {
			return "", "", false
		}
		dir = path.Dir(dir)
	}
}

func (s *Support) readModule(modFile string) (string, bool) {
	info, err := os.Stat(modFile)
	if err != nil || info.IsDir() {
		return "", false
	}

	s.mu.Lock()
	entry, ok := s.cache[modFile]
	s.mu.Unlock()
	if ok && entry.mtime.Equal(info.ModTime()) {
		return entry.module, entry.module != ""
	}

	content, err := os.ReadFile(modFile)
	if err != nil {
		return "", false
	}
	module := ""
	if m := moduleLineRe.FindSubmatch(content); m != nil {
		module = string(m[1])
	}

	s.mu.Lock()
	s.cache[modFile] = moduleEntry{mtime: info.ModTime(), module: module}
	s.mu.Unlock()
	return module, module != ""
}

// RewriteForMove updates references to a moved directory: import paths
// in sources, relative replace targets in go.mod, and use directives
// in go.work.
func (s *Support) RewriteForMove(content []byte, contextFile, oldPath, newPath string) ([]byte, bool) {
	oldPath = paths.NormalizePath(oldPath)
	newPath = paths.NormalizePath(newPath)
	if oldPath == newPath || len(content) == 0 {
		return content, false
	}
	switch path.Base(paths.NormalizePath(contextFile)) {
	case "go.mod":
		return rewriteDirectivePaths(content, contextFile, oldPath, newPath, "=>")
	case "go.work":
		return rewriteUseDirectives(content, contextFile, oldPath, newPath)
	}
	return s.rewriteImports(content, oldPath, newPath)
}

func (s *Support) rewriteImports(content []byte, oldPath, newPath string) ([]byte, bool) {
	oldImport, newImport, ok := s.importRename(oldPath, newPath)
	if !ok {
		return content, false
	}

	lines := strings.Split(string(content), "\n")
	changed := false
	inBlock := false
	for i, rawLine := range lines {
		trimmed := strings.TrimSpace(strings.TrimSuffix(rawLine, "\r"))
		importLine := false
		switch {
		case inBlock:
			if strings.HasPrefix(trimmed, ")") {
				inBlock = false
			} else {
				importLine = true
			}
		case strings.HasPrefix(trimmed, "import ("):
			inBlock = !strings.Contains(trimmed, ")")
			importLine = true
		case strings.HasPrefix(trimmed, "import "):
			importLine = true
		}
		if !importLine {
			continue
		}
		spec, _, ok := quotedString(rawLine)
		if !ok {
			continue
		}
		mapped, ok := paths.MapMoved(spec, oldImport, newImport)
		if !ok {
			continue
		}
		lines[i] = strings.Replace(rawLine, `"`+spec+`"`, `"`+mapped+`"`, 1)
		changed = true
	}
	if !changed {
		return content, false
	}
	return []byte(strings.Join(lines, "\n")), true
}

// importRename derives the import path pair for a moved directory. A
// move of a whole nested module keeps its declared path, so only
// directories below their module root produce a rename.
func (s *Support) importRename(oldPath, newPath string) (string, string, bool) {
	modPath, modDir, ok := s.moduleAt(oldPath)
	if !ok || modDir == oldPath {
		return "", "", false
	}
	relOld := paths.RelativeTo(modDir, oldPath)
	relNew := paths.RelativeTo(modDir, newPath)
	if strings.HasPrefix(relOld, "../") || strings.HasPrefix(relNew, "../") || relOld == "." || relNew == "." {
		return "", "", false
	}
	return modPath + "/" + relOld, modPath + "/" + relNew, true
}

// rewriteDirectivePaths updates relative filesystem targets after a
// separator token, the `=> ../dir` form of go.mod replace directives.
func rewriteDirectivePaths(content []byte, contextFile, oldPath, newPath, sep string) ([]byte, bool) {
	dir := path.Dir(paths.NormalizePath(contextFile))
	newDir := dir
	if mapped, ok := paths.MapMoved(paths.NormalizePath(contextFile), oldPath, newPath); ok {
		newDir = path.Dir(mapped)
	}

	lines := strings.Split(string(content), "\n")
	changed := false
	for i, rawLine := range lines {
		idx := strings.Index(rawLine, sep)
		if idx < 0 {
			continue
		}
		target := strings.TrimSpace(strings.TrimSuffix(rawLine[idx+len(sep):], "\r"))
		rel, ok := remapRelativeTarget(target, dir, newDir, oldPath, newPath)
		if !ok {
			continue
		}
		lines[i] = strings.Replace(rawLine, target, rel, 1)
		changed = true
	}
	if !changed {
		return content, false
	}
	return []byte(strings.Join(lines, "\n")), true
}

// rewriteUseDirectives updates go.work use directives, both the single
// line and the parenthesized block form.
func rewriteUseDirectives(content []byte, contextFile, oldPath, newPath string) ([]byte, bool) {
	dir := path.Dir(paths.NormalizePath(contextFile))
	newDir := dir
	if mapped, ok := paths.MapMoved(paths.NormalizePath(contextFile), oldPath, newPath); ok {
		newDir = path.Dir(mapped)
	}

	lines := strings.Split(string(content), "\n")
	changed := false
	inBlock := false
	for i, rawLine := range lines {
		trimmed := strings.TrimSpace(strings.TrimSuffix(rawLine, "\r"))
		var target string
		switch {
		case inBlock:
			if strings.HasPrefix(trimmed, ")") {
				inBlock = false
				continue
			}
			target = trimmed
		case strings.HasPrefix(trimmed, "use ("):
			inBlock = true
			continue
		case strings.HasPrefix(trimmed, "use "):
			target = strings.TrimSpace(trimmed[len("use "):])
		default:
			continue
		}
		rel, ok := remapRelativeTarget(target, dir, newDir, oldPath, newPath)
		if !ok {
			continue
		}
		lines[i] = strings.Replace(rawLine, target, rel, 1)
		changed = true
	}
	if !changed {
		return content, false
	}
	return []byte(strings.Join(lines, "\n")), true
}

// remapRelativeTarget maps one ./ or ../ directive target through a
// move, keeping the explicit ./ convention these directives use.
func remapRelativeTarget(target, dir, newDir, oldPath, newPath string) (string, bool) {
	if !strings.HasPrefix(target, "./") && !strings.HasPrefix(target, "../") && target != "." {
		return "", false
	}
	resolved := path.Join(dir, target)
	if resolved == ".." || strings.HasPrefix(resolved, "../") {
		return "", false
	}
	mapped, ok := paths.MapMoved(resolved, oldPath, newPath)
	if !ok {
		if newDir == dir {
			return "", false
		}
		mapped = resolved
	}
	rel := paths.RelativeTo(newDir, mapped)
	if !strings.HasPrefix(rel, "../") && !strings.HasPrefix(rel, "./") && rel != "." {
		rel = "./" + rel
	}
	if rel == target {
		return "", false
	}
	return rel, true
}

// RenameDeclaration renames the final segment of a go.mod module path,
// or the package clause of a source file. The main package never
// renames.
func (s *Support) RenameDeclaration(content []byte, oldModule, newModule string) ([]byte, bool) {
	if oldModule == "" || oldModule == newModule {
		return content, false
	}

	if !bytes.Contains(content, []byte("package ")) {
		m := moduleLineRe.FindSubmatchIndex(content)
		if m == nil {
			return content, false
		}
		modPath := string(content[m[2]:m[3]])
		if path.Base(modPath) != oldModule {
			return content, false
		}
		renamed := path.Join(path.Dir(modPath), newModule)
		out := make([]byte, 0, len(content)+len(renamed)-len(modPath))
		out = append(out, content[:m[2]]...)
		out = append(out, renamed...)
		out = append(out, content[m[3]:]...)
		return out, true
	}

	oldIdent := packageIdent(oldModule)
	newIdent := packageIdent(newModule)
	if oldIdent == "" || newIdent == "" || oldIdent == newIdent || oldIdent == "main" {
		return content, false
	}
	re := regexp.MustCompile(`(?m)^(package[ \t]+)` + regexp.QuoteMeta(oldIdent) + `([ \t]*(?://.*)?)$`)
	out := re.ReplaceAll(content, []byte("${1}"+newIdent+"${2}"))
	if bytes.Equal(out, content) {
		return content, false
	}
	return out, true
}

// packageIdent converts a directory name to the package identifier it
// conventionally declares. Names that cannot form an identifier yield
// "".
func packageIdent(name string) string {
	ident := strings.ReplaceAll(name, "-", "_")
	for i, r := range ident {
		switch {
		case r == '_',
			r >= 'a' && r <= 'z',
			r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
			if i == 0 {
				return ""
			}
		default:
			return ""
		}
	}
	if ident == "" {
		return ""
	}
	return ident
}
