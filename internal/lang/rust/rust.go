// Package rust implements reference support for Rust sources: use
// statement extraction, crate-path resolution against the enclosing
// crate's src tree, and rewriting for crate renames, module moves, and
// module declaration renames.
package rust

import (
	"bytes"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"remap/internal/capability"
	"remap/internal/paths"
)

// Support implements the Rust language capabilities. One instance
// serves a repository; it is safe for concurrent use.
type Support struct {
	repoRoot string
}

// New creates Rust support rooted at repoRoot.
func New(repoRoot string) *Support {
	return &Support{repoRoot: repoRoot}
}

// Capabilities describes the operations this module provides. Cargo
// manifests belong to the TOML module.
func (s *Support) Capabilities() *capability.Capabilities {
	return &capability.Capabilities{
		Language:           "rust",
		Extensions:         []string{".rs"},
		StringLiteralPaths: true,
		Parser:             s,
		Resolver:           s,
		Rename:             s,
		Move:               s,
		ModuleDecl:         s,
	}
}

// ParseImports extracts the module path of every use statement and
// extern crate declaration. Grouped imports report the path before the
// brace; multi-line groups report the opening line.
func (s *Support) ParseImports(filePath string, content []byte) ([]capability.ImportSpecifier, error) {
	var specs []capability.ImportSpecifier
	inUse := false
	for i, rawLine := range strings.Split(string(content), "\n") {
		line := strings.TrimSuffix(rawLine, "\r")
		trimmed := strings.TrimSpace(line)

		if inUse {
			if strings.Contains(trimmed, ";") {
				inUse = false
			}
			continue
		}
		if ident, col, ok := externCrate(line); ok {
			specs = append(specs, capability.ImportSpecifier{Specifier: ident, Line: i + 1, Col: col})
			continue
		}
		module, col, ok := useStatement(line)
		if !ok {
			continue
		}
		if !strings.Contains(trimmed, ";") {
			inUse = true
		}
		if module == "" {
			continue
		}
		specs = append(specs, capability.ImportSpecifier{Specifier: module, Line: i + 1, Col: col})
	}
	return specs, nil
}

var usePrefixRe = regexp.MustCompile(`^(\s*(?:pub(?:\([^)]*\))?\s+)?use\s+)`)

// useStatement extracts the module path of a use statement: the path
// segments before any brace group, alias, or semicolon.
func useStatement(line string) (string, int, bool) {
	m := usePrefixRe.FindStringSubmatch(line)
	if m == nil {
		return "", 0, false
	}
	start := len(m[1])
	end := start
	for end < len(line) {
		c := line[end]
		if c == ':' || c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' {
			end++
			continue
		}
		break
	}
	module := strings.TrimSuffix(line[start:end], "::")
	return module, start + 1, true
}

func externCrate(line string) (string, int, bool) {
	trimmed := strings.TrimSpace(line)
	const kw = "extern crate "
	if !strings.HasPrefix(trimmed, kw) {
		return "", 0, false
	}
	rest := strings.TrimSuffix(strings.TrimSpace(trimmed[len(kw):]), ";")
	if fields := strings.Fields(rest); len(fields) > 0 {
		rest = fields[0]
	}
	if rest == "" {
		return "", 0, false
	}
	return rest, strings.Index(line, rest) + 1, true
}

// ResolveSpecifier maps a crate:: path to the repo-relative file it
// denotes, probing module file and mod.rs conventions under the
// enclosing crate's src directory. The final segment may be an item
// name rather than a module and is dropped on a second probe. Paths
// through other crates are external and do not resolve.
func (s *Support) ResolveSpecifier(specifier, contextFile string) (string, bool) {
	if specifier != "crate" && !strings.HasPrefix(specifier, "crate::") {
		return "", false
	}
	crateDir, ok := s.crateRootFor(paths.NormalizePath(contextFile))
	if !ok {
		return "", false
	}
	src := path.Join(crateDir, "src")

	var segs []string
	if specifier != "crate" {
		segs = strings.Split(specifier[len("crate::"):], "::")
	}
	if resolved, ok := s.probeModule(src, segs); ok {
		return resolved, true
	}
	if len(segs) > 0 {
		return s.probeModule(src, segs[:len(segs)-1])
	}
	return "", false
}

func (s *Support) probeModule(src string, segs []string) (string, bool) {
	if len(segs) == 0 {
		for _, root := range []string{"lib.rs", "main.rs"} {
			rel := path.Join(src, root)
			if info, err := os.Stat(paths.JoinRepoPath(s.repoRoot, rel)); err == nil && !info.IsDir() {
				return rel, true
			}
		}
		return "", false
	}
	rel := path.Join(src, path.Join(segs...))
	abs := paths.JoinRepoPath(s.repoRoot, rel)
	if info, err := os.Stat(abs + ".rs"); err == nil && !info.IsDir() {
		return rel + ".rs", true
	}
	if info, err := os.Stat(filepath.Join(abs, "mod.rs")); err == nil && !info.IsDir() {
		return rel + "/mod.rs", true
	}
	if info, err := os.Stat(abs); err == nil && info.IsDir() {
		return rel, true
	}
	return "", false
}

// crateRootFor walks from a file toward the repository root looking
// for the directory holding Cargo.toml.
func (s *Support) crateRootFor(file string) (string, bool) {
	dir := path.Dir(file)
	for {
		manifest := filepath.Join(s.repoRoot, filepath.FromSlash(dir), "Cargo.toml")
		if info, err := os.Stat(manifest); err == nil && !info.IsDir() {
			return dir, true
		}
		if dir == "." || dir == "" || dir == "/" {
			return "", false
		}
		dir = path.Dir(dir)
	}
}

// RewriteForRename updates references to a renamed crate: extern crate
// declarations, the first segment of use statements, and qualified
// paths in code. Hyphenated crate names convert to underscores the way
// Rust identifiers require.
func (s *Support) RewriteForRename(content []byte, oldName, newName string) ([]byte, bool) {
	oldIdent := rustIdent(oldName)
	newIdent := rustIdent(newName)
	if oldIdent == "" || newIdent == "" || oldIdent == newIdent {
		return content, false
	}

	qualifiedRe := regexp.MustCompile(`\b` + regexp.QuoteMeta(oldIdent) + `\s*::`)

	lines := strings.Split(string(content), "\n")
	changed := false
	for i, rawLine := range lines {
		line := strings.TrimSuffix(rawLine, "\r")
		trimmed := strings.TrimSpace(line)
		var out string
		switch {
		case strings.HasPrefix(trimmed, "extern crate "):
			out = line
			if ident, _, ok := externCrate(line); ok && ident == oldIdent {
				out = strings.Replace(line, "extern crate "+oldIdent, "extern crate "+newIdent, 1)
			}
		case usePrefixRe.MatchString(line):
			out = rewriteUseFirstSegment(line, oldIdent, newIdent)
		default:
			out = qualifiedRe.ReplaceAllString(line, newIdent+"::")
		}
		if out == line {
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

// rewriteUseFirstSegment renames the leading path segment of a use
// statement when it matches the old crate identifier.
func rewriteUseFirstSegment(line, oldIdent, newIdent string) string {
	m := usePrefixRe.FindStringSubmatch(line)
	if m == nil {
		return line
	}
	rest := line[len(m[1]):]
	if !strings.HasPrefix(rest, oldIdent) {
		return line
	}
	after := rest[len(oldIdent):]
	if after != "" && after[0] != ':' && after[0] != ';' && after[0] != ' ' && after[0] != '\t' {
		return line
	}
	return m[1] + newIdent + after
}

// RewriteForMove updates crate:: paths when a module file or directory
// moves within its crate's src tree. Moves that cross a crate boundary
// are left to the crate's name-based imports and manifests.
func (s *Support) RewriteForMove(content []byte, contextFile, oldPath, newPath string) ([]byte, bool) {
	oldPath = paths.NormalizePath(oldPath)
	newPath = paths.NormalizePath(newPath)
	if oldPath == newPath || len(content) == 0 {
		return content, false
	}

	oldSegs, oldCrate, ok := crateModulePath(oldPath)
	if !ok {
		return content, false
	}
	newSegs, newCrate, ok := crateModulePath(newPath)
	if !ok || oldCrate != newCrate {
		return content, false
	}
	for _, seg := range append(append([]string{}, oldSegs...), newSegs...) {
		if rustIdent(seg) != seg {
			return content, false
		}
	}

	oldModule := "crate::" + strings.Join(oldSegs, "::")
	newModule := "crate::" + strings.Join(newSegs, "::")
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(oldModule) + `\b`)
	out := re.ReplaceAll(content, []byte(newModule))
	if bytes.Equal(out, content) {
		return content, false
	}
	return out, true
}

// crateModulePath derives the crate-relative module segments a path
// answers to: the segments below src/, with module file conventions
// folded in. The crate prefix is everything before src/.
func crateModulePath(p string) ([]string, string, bool) {
	segs := strings.Split(p, "/")
	srcIdx := -1
	for i, seg := range segs {
		if seg == "src" {
			srcIdx = i
		}
	}
	if srcIdx < 0 || srcIdx == len(segs)-1 {
		return nil, "", false
	}
	crate := strings.Join(segs[:srcIdx], "/")
	rest := append([]string{}, segs[srcIdx+1:]...)

	last := strings.TrimSuffix(rest[len(rest)-1], ".rs")
	switch last {
	case "mod":
		rest = rest[:len(rest)-1]
	case "lib", "main":
		if len(rest) == 1 {
			return nil, crate, false
		}
		rest[len(rest)-1] = last
	default:
		rest[len(rest)-1] = last
	}
	if len(rest) == 0 {
		return nil, crate, false
	}
	return rest, crate, true
}

// RenameDeclaration updates module declarations for a renamed sibling
// module file: `mod old;` statements and #[path = "old.rs"] attributes.
func (s *Support) RenameDeclaration(content []byte, oldModule, newModule string) ([]byte, bool) {
	oldIdent := rustIdent(oldModule)
	newIdent := rustIdent(newModule)
	if oldIdent == "" || newIdent == "" || oldIdent == newIdent {
		return content, false
	}

	modRe := regexp.MustCompile(`(?m)^(\s*(?:pub(?:\([^)]*\))?\s+)?mod\s+)` + regexp.QuoteMeta(oldIdent) + `(\s*;)`)
	pathRe := regexp.MustCompile(`(#\[path\s*=\s*")` + regexp.QuoteMeta(oldModule) + `\.rs("\])`)

	out := modRe.ReplaceAll(content, []byte("${1}"+newIdent+"${2}"))
	out = pathRe.ReplaceAll(out, []byte("${1}"+newModule+`.rs${2}`))
	if bytes.Equal(out, content) {
		return content, false
	}
	return out, true
}

// rustIdent converts a crate or module name to its identifier form.
// Names that cannot form an identifier yield "".
func rustIdent(name string) string {
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
