// Package python implements reference support for Python sources:
// import statement extraction, dotted module resolution by probing
// package conventions, and rewriting for moved modules and packages.
// Conventional src/ layout roots are recognized both at the repository
// root and inside project subdirectories.
package python

import (
	"os"
	"path"
	"path/filepath"
	"strings"

	"remap/internal/capability"
	"remap/internal/paths"
)

// Support implements the Python language capabilities. One instance
// serves a repository; it is safe for concurrent use.
type Support struct {
	repoRoot string
}

// New creates Python support rooted at repoRoot.
func New(repoRoot string) *Support {
	return &Support{repoRoot: repoRoot}
}

// Capabilities describes the operations this module provides. Package
// manifests are pyproject.toml files and belong to the TOML module;
// import names follow directory moves, so no separate rename hook is
// needed.
func (s *Support) Capabilities() *capability.Capabilities {
	return &capability.Capabilities{
		Language:           "python",
		Extensions:         []string{".py"},
		StringLiteralPaths: true,
		Parser:             s,
		Resolver:           s,
		Move:               s,
	}
}

// ParseImports extracts the module path of every import statement:
// plain imports with optional aliases and comma lists, and from-import
// forms including relative dots.
func (s *Support) ParseImports(filePath string, content []byte) ([]capability.ImportSpecifier, error) {
	var specs []capability.ImportSpecifier
	for i, rawLine := range strings.Split(string(content), "\n") {
		line := strings.TrimSuffix(rawLine, "\r")
		if module, start, ok := fromImportModule(line); ok {
			specs = append(specs, capability.ImportSpecifier{
				Specifier: module,
				Line:      i + 1,
				Col:       start + 1,
			})
			continue
		}
		for _, imp := range importList(line) {
			specs = append(specs, capability.ImportSpecifier{
				Specifier: imp.module,
				Line:      i + 1,
				Col:       imp.start + 1,
			})
		}
	}
	return specs, nil
}

type importItem struct {
	module string
	start  int
}

// fromImportModule matches `from X import ...` and returns the module
// and the byte offset where it starts. X may be all dots.
func fromImportModule(line string) (string, int, bool) {
	rest, base, ok := keyword(line, "from")
	if !ok {
		return "", 0, false
	}
	module, n := dottedToken(rest)
	if n == 0 {
		return "", 0, false
	}
	after := strings.TrimLeft(rest[n:], " \t")
	if !strings.HasPrefix(after, "import") {
		return "", 0, false
	}
	return module, base, true
}

// importList matches `import a.b as x, c.d` and returns each module
// with its byte offset.
func importList(line string) []importItem {
	rest, base, ok := keyword(line, "import")
	if !ok {
		return nil
	}
	var items []importItem
	offset := 0
	for {
		for offset < len(rest) && (rest[offset] == ' ' || rest[offset] == '\t') {
			offset++
		}
		module, n := dottedToken(rest[offset:])
		if n == 0 {
			return items
		}
		items = append(items, importItem{module: module, start: base + offset})
		offset += n
		// Skip an alias clause and continue on a comma.
		tail := rest[offset:]
		trimmed := strings.TrimLeft(tail, " \t")
		if strings.HasPrefix(trimmed, "as ") || strings.HasPrefix(trimmed, "as\t") {
			cut := len(tail) - len(trimmed) + 2
			offset += cut
			_, n := dottedToken(strings.TrimLeft(rest[offset:], " \t"))
			offset += len(rest[offset:]) - len(strings.TrimLeft(rest[offset:], " \t")) + n
			tail = rest[offset:]
			trimmed = strings.TrimLeft(tail, " \t")
		}
		if !strings.HasPrefix(trimmed, ",") {
			return items
		}
		offset += len(tail) - len(trimmed) + 1
	}
}

// keyword matches a line that begins, after indentation, with the
// given keyword followed by whitespace. It returns the remainder and
// the offset where it starts.
func keyword(line, kw string) (string, int, bool) {
	indent := len(line) - len(strings.TrimLeft(line, " \t"))
	rest := line[indent:]
	if !strings.HasPrefix(rest, kw) {
		return "", 0, false
	}
	rest = rest[len(kw):]
	if rest == "" || (rest[0] != ' ' && rest[0] != '\t') {
		return "", 0, false
	}
	trimmed := strings.TrimLeft(rest, " \t")
	return trimmed, indent + len(kw) + len(rest) - len(trimmed), true
}

// dottedToken reads a leading dotted module path: dots, identifiers,
// or both. Returns the token and its byte length.
func dottedToken(s string) (string, int) {
	i := 0
	for i < len(s) {
		c := s[i]
		if c == '.' || c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' {
			i++
			continue
		}
		break
	}
	return s[:i], i
}

// ResolveSpecifier maps a dotted module to the repo-relative file or
// package it denotes. Relative imports resolve against the importing
// file's package; absolute imports probe the repository root, src/,
// and the src/ root enclosing the importing file.
func (s *Support) ResolveSpecifier(specifier, contextFile string) (string, bool) {
	if specifier == "" || strings.ContainsAny(specifier, "/\\") {
		return "", false
	}
	context := paths.NormalizePath(contextFile)
	if strings.HasPrefix(specifier, ".") {
		dots := countDots(specifier)
		dir := path.Dir(context)
		for i := 1; i < dots; i++ {
			dir = path.Dir(dir)
		}
		return s.probeModule(dir, specifier[dots:])
	}
	for _, root := range s.rootsFor(context) {
		if resolved, ok := s.probeModule(root, specifier); ok {
			return resolved, true
		}
	}
	return "", false
}

// probeModule checks the module file, the package __init__, and a bare
// namespace package directory, in that order.
func (s *Support) probeModule(baseDir, dotted string) (string, bool) {
	rel := baseDir
	if dotted != "" {
		rel = path.Join(baseDir, strings.ReplaceAll(dotted, ".", "/"))
	}
	abs := paths.JoinRepoPath(s.repoRoot, rel)
	if info, err := os.Stat(abs + ".py"); err == nil && !info.IsDir() {
		return rel + ".py", true
	}
	if info, err := os.Stat(filepath.Join(abs, "__init__.py")); err == nil && !info.IsDir() {
		return rel + "/__init__.py", true
	}
	if info, err := os.Stat(abs); err == nil && info.IsDir() && dotted != "" {
		return rel, true
	}
	return "", false
}

// rootsFor lists the import roots visible from a file.
func (s *Support) rootsFor(context string) []string {
	roots := []string{".", "src"}
	segs := strings.Split(path.Dir(context), "/")
	for i, seg := range segs {
		if seg == "src" {
			root := strings.Join(segs[:i+1], "/")
			if root != "src" {
				roots = append(roots, root)
			}
		}
	}
	return roots
}

// RewriteForMove updates import statements referencing a moved module
// or package. Absolute imports follow the dotted rename; relative
// imports are recomputed when the importing file itself moves and its
// package geometry changes.
func (s *Support) RewriteForMove(content []byte, contextFile, oldPath, newPath string) ([]byte, bool) {
	oldPath = paths.NormalizePath(oldPath)
	newPath = paths.NormalizePath(newPath)
	if oldPath == newPath || len(content) == 0 {
		return content, false
	}

	oldMod := moduleDotted(oldPath)
	newMod := moduleDotted(newPath)
	context := paths.NormalizePath(contextFile)
	newContext, contextMoved := paths.MapMoved(context, oldPath, newPath)
	if !contextMoved {
		newContext = context
	}

	lines := strings.Split(string(content), "\n")
	changed := false
	for i, rawLine := range lines {
		line := strings.TrimSuffix(rawLine, "\r")
		out, ok := s.rewriteImportLine(line, context, newContext, oldPath, newPath, oldMod, newMod)
		if !ok || out == line {
			continue
		}
		if strings.HasSuffix(rawLine, "\r") {
			out += "\r"
		}
		lines[i] = out
		changed = true
	}
	if !changed {
		return content, false
	}
	return []byte(strings.Join(lines, "\n")), true
}

func (s *Support) rewriteImportLine(line, context, newContext, oldPath, newPath, oldMod, newMod string) (string, bool) {
	if module, start, ok := fromImportModule(line); ok {
		var mapped string
		var changed bool
		if strings.HasPrefix(module, ".") {
			mapped, changed = remapRelative(module, context, newContext, oldPath, newPath)
		} else {
			mapped, changed = mapDotted(module, oldMod, newMod)
		}
		if !changed {
			return "", false
		}
		return line[:start] + mapped + line[start+len(module):], true
	}

	items := importList(line)
	if len(items) == 0 {
		return "", false
	}
	out := line
	changed := false
	// Right to left so earlier offsets stay valid.
	for i := len(items) - 1; i >= 0; i-- {
		mapped, ok := mapDotted(items[i].module, oldMod, newMod)
		if !ok {
			continue
		}
		out = out[:items[i].start] + mapped + out[items[i].start+len(items[i].module):]
		changed = true
	}
	if !changed {
		return "", false
	}
	return out, true
}

func mapDotted(module, oldMod, newMod string) (string, bool) {
	if oldMod == "" || oldMod == newMod {
		return "", false
	}
	if module == oldMod {
		return newMod, true
	}
	if strings.HasPrefix(module, oldMod+".") {
		return newMod + module[len(oldMod):], true
	}
	return "", false
}

// remapRelative recomputes a relative import for a file whose own
// location changed. The target is resolved textually against the old
// location, mapped through the move, and re-expressed from the new
// location.
func remapRelative(module, oldContext, newContext, oldPath, newPath string) (string, bool) {
	if newContext == oldContext {
		return "", false
	}
	dots := countDots(module)
	rest := module[dots:]

	dir := path.Dir(oldContext)
	for i := 1; i < dots; i++ {
		dir = path.Dir(dir)
	}
	target := dir
	if rest != "" {
		target = path.Join(dir, strings.ReplaceAll(rest, ".", "/"))
	}
	if mapped, ok := paths.MapMoved(target, oldPath, newPath); ok {
		target = mapped
	}

	newDots, newRest, viaRoot := dottedFrom(path.Dir(newContext), target)
	rebuilt := strings.Repeat(".", newDots) + newRest
	if viaRoot {
		// No shared package directory remains; the absolute spelling
		// is the conventional one there.
		if abs := moduleDotted(target); abs != "" {
			rebuilt = abs
		}
	}
	if rebuilt == module {
		return "", false
	}
	return rebuilt, true
}

// dottedFrom expresses target as a relative import from fromDir: the
// number of leading dots and the trailing dotted path. viaRoot reports
// that the only shared ancestor was the repository root itself.
func dottedFrom(fromDir, target string) (int, string, bool) {
	dir := fromDir
	for k := 1; ; k++ {
		if dir == target {
			return k, "", false
		}
		if dir == "." {
			if target == "." {
				return k, "", false
			}
			return k, strings.ReplaceAll(target, "/", "."), true
		}
		if strings.HasPrefix(target, dir+"/") {
			return k, strings.ReplaceAll(target[len(dir)+1:], "/", "."), false
		}
		dir = path.Dir(dir)
	}
}

func countDots(s string) int {
	n := 0
	for n < len(s) && s[n] == '.' {
		n++
	}
	return n
}

// moduleDotted derives the dotted import name a repo path answers to,
// dropping a conventional src/ root and a trailing __init__ module.
func moduleDotted(p string) string {
	p = strings.TrimSuffix(p, ".py")
	segs := strings.Split(p, "/")
	if last := len(segs) - 1; last >= 0 && segs[last] == "__init__" {
		segs = segs[:last]
	}
	for i := len(segs) - 1; i >= 0; i-- {
		if segs[i] == "src" {
			segs = segs[i+1:]
			break
		}
	}
	return strings.Join(segs, ".")
}
