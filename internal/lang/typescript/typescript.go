// Package typescript implements reference support for TypeScript and
// JavaScript sources: import extraction, specifier resolution with
// tsconfig path aliases, and rewriting for renames and moves. Imports
// are parsed from the syntax tree when tree-sitter is available and
// fall back to pattern scanning otherwise.
package typescript

import (
	"bytes"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"remap/internal/alias"
	"remap/internal/capability"
	"remap/internal/paths"
)

// moveExtensions are the extensions stripped from rewritten import
// specifiers, mirroring bundler resolution conventions.
var moveExtensions = []string{".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs"}

// Support implements the TypeScript/JavaScript language capabilities.
// One instance serves a repository; it is safe for concurrent use.
type Support struct {
	repoRoot string
	aliases  *alias.Resolver
}

// New creates TypeScript support rooted at repoRoot. The alias resolver
// supplies tsconfig path mappings and the extension/index conventions
// used when probing relative specifiers.
func New(repoRoot string, aliases *alias.Resolver) *Support {
	return &Support{repoRoot: repoRoot, aliases: aliases}
}

// Capabilities describes the operations this module provides.
func (s *Support) Capabilities() *capability.Capabilities {
	return &capability.Capabilities{
		Language:           "typescript",
		Extensions:         []string{".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs"},
		Filenames:          []string{"package.json", "pnpm-workspace.yaml"},
		StringLiteralPaths: true,
		Parser:             s,
		Resolver:           s,
		Rename:             s,
		Move:               s,
		Manifest:           s,
		ModuleDecl:         s,
		Workspace:          s,
	}
}

// importOccurrence is one import specifier with the byte span of its
// text between the quotes.
type importOccurrence struct {
	spec       string
	start, end int
}

// ParseImports extracts every import specifier from a source file:
// static imports, re-exports, side-effect imports, require calls, and
// dynamic import expressions.
func (s *Support) ParseImports(filePath string, content []byte) ([]capability.ImportSpecifier, error) {
	occs := s.scanImports(filePath, content)
	specs := make([]capability.ImportSpecifier, 0, len(occs))
	for _, occ := range occs {
		line, col := lineCol(content, occ.start)
		specs = append(specs, capability.ImportSpecifier{
			Specifier: occ.spec,
			Line:      line,
			Col:       col,
		})
	}
	return specs, nil
}

func (s *Support) scanImports(filePath string, content []byte) []importOccurrence {
	if occs, ok := astImports(filePath, content); ok {
		return occs
	}
	return scanImportsRegex(content)
}

// Import statement shapes. The from patterns exclude quotes and
// semicolons from the clause so multi-line named imports match while a
// stray keyword cannot span across statements.
var (
	es6ImportRe   = regexp.MustCompile(`import\s+[^'";]*?from\s+['"]([^'"]+)['"]`)
	exportFromRe  = regexp.MustCompile(`export\s+[^'";]*?from\s+['"]([^'"]+)['"]`)
	sideEffectRe  = regexp.MustCompile(`import\s+['"]([^'"]+)['"]`)
	requireCallRe = regexp.MustCompile(`require\s*\(\s*['"]([^'"]+)['"]\s*\)`)
	dynImportRe   = regexp.MustCompile(`import\s*\(\s*['"]([^'"]+)['"]\s*\)`)
)

func scanImportsRegex(content []byte) []importOccurrence {
	seen := make(map[int]bool)
	var occs []importOccurrence

	collect := func(re *regexp.Regexp) {
		for _, m := range re.FindAllSubmatchIndex(content, -1) {
			start, end := m[2], m[3]
			if seen[start] {
				continue
			}
			seen[start] = true
			occs = append(occs, importOccurrence{
				spec:  string(content[start:end]),
				start: start,
				end:   end,
			})
		}
	}
	collect(es6ImportRe)
	collect(exportFromRe)
	collect(sideEffectRe)
	collect(requireCallRe)
	collect(dynImportRe)

	sort.Slice(occs, func(i, j int) bool { return occs[i].start < occs[j].start })
	return occs
}

// lineCol converts a byte offset to a 1-based line and column.
func lineCol(content []byte, off int) (int, int) {
	line := 1
	lineStart := 0
	for i := 0; i < off && i < len(content); i++ {
		if content[i] == '\n' {
			line++
			lineStart = i + 1
		}
	}
	return line, off - lineStart + 1
}

// ResolveSpecifier maps an import specifier to the repo-relative path
// of the file it denotes. Relative specifiers resolve against the
// importing file's directory with extension and index probing; other
// specifiers go through the alias resolver. Bare package names and
// absolute paths do not resolve.
func (s *Support) ResolveSpecifier(specifier, contextFile string) (string, bool) {
	if specifier == "" || paths.IsAbsSpecifier(specifier) {
		return "", false
	}
	if strings.HasPrefix(specifier, ".") {
		return s.resolveRelative(specifier, contextFile)
	}
	absContext := paths.JoinRepoPath(s.repoRoot, contextFile)
	return s.aliases.Resolve(specifier, absContext)
}

func (s *Support) resolveRelative(specifier, contextFile string) (string, bool) {
	absDir := filepath.Dir(paths.JoinRepoPath(s.repoRoot, contextFile))
	candidate := filepath.Join(absDir, filepath.FromSlash(specifier))
	existing, ok := alias.ProbeFile(candidate, s.aliases.Extensions(), s.aliases.IndexNames())
	if !ok {
		return "", false
	}
	canonical, err := paths.CanonicalizePath(existing, s.repoRoot)
	if err != nil {
		return "", false
	}
	return canonical, true
}

// RewriteForRename rewrites import clauses that bind a renamed symbol:
// named imports, aliased imports, and default imports.
func (s *Support) RewriteForRename(content []byte, oldName, newName string) ([]byte, bool) {
	old := regexp.QuoteMeta(oldName)
	rewrites := []struct {
		re   *regexp.Regexp
		repl string
	}{
		{regexp.MustCompile(`\{\s*` + old + `\s*\}`), "{ " + newName + " }"},
		{regexp.MustCompile(`\b` + old + `\s+as\s+`), newName + " as "},
		{regexp.MustCompile(`import\s+` + old + `\s+from`), "import " + newName + " from"},
		{regexp.MustCompile(`([{,]\s*)` + old + `(\s*[,}])`), "${1}" + newName + "${2}"},
	}

	out := content
	changed := false
	for _, rw := range rewrites {
		next := rw.re.ReplaceAll(out, []byte(rw.repl))
		if !bytes.Equal(next, out) {
			changed = true
		}
		out = next
	}
	if !changed {
		return content, false
	}
	return out, true
}

// RewriteForMove updates import specifiers affected by a moved file or
// directory. Each specifier is resolved the same way the scanner
// resolves it; specifiers that land on the moved path, or under it for
// directory moves, are rewritten. When contextFile is itself inside the
// moved path, every relative specifier is recomputed from the file's
// future location instead. Relative specifiers are recomputed from the
// importing file, alias specifiers keep their alias form when the new
// location is still covered by a pattern and otherwise fall back to a
// relative specifier. Quote style and explicit extensions are preserved.
func (s *Support) RewriteForMove(content []byte, contextFile, oldPath, newPath string) ([]byte, bool) {
	oldPath = paths.NormalizePath(oldPath)
	newPath = paths.NormalizePath(newPath)
	if oldPath == newPath {
		return content, false
	}

	occs := s.scanImports(contextFile, content)
	if len(occs) == 0 {
		return content, false
	}

	if newContext, ok := paths.MapMoved(paths.NormalizePath(contextFile), oldPath, newPath); ok {
		return s.rewriteMovedContext(content, occs, contextFile, newContext, oldPath, newPath)
	}

	variants := relativeVariants(contextFile, oldPath, newPath)

	var splices []splice
	for _, occ := range occs {
		newSpec, ok := s.moveReplacement(occ.spec, contextFile, oldPath, newPath, variants)
		if !ok || newSpec == occ.spec {
			continue
		}
		splices = append(splices, splice{occ.start, occ.end, newSpec})
	}
	if len(splices) == 0 {
		return content, false
	}
	return applySplices(content, splices), true
}

// rewriteMovedContext recomputes relative specifiers for a file that is
// itself being moved. Targets are resolved from the old location; each
// target that also moves is mapped to its new path, then the specifier
// is rebuilt relative to the file's new location. Specifiers between
// two files moving together keep their old text and are left alone.
func (s *Support) rewriteMovedContext(content []byte, occs []importOccurrence, oldContext, newContext, oldPath, newPath string) ([]byte, bool) {
	var splices []splice
	for _, occ := range occs {
		if !strings.HasPrefix(occ.spec, ".") {
			continue
		}
		resolved, ok := s.ResolveSpecifier(occ.spec, oldContext)
		if !ok {
			continue
		}
		target := resolved
		if mapped, moved := paths.MapMoved(resolved, oldPath, newPath); moved {
			target = mapped
		}
		var newSpec string
		if hasExplicitExtension(occ.spec) {
			newSpec = relativeImportRaw(newContext, target)
		} else {
			newSpec = relativeImport(newContext, target)
			// A directory-form import stays directory-form: the old
			// specifier did not name index, so strip it here too.
			if dir, ok := indexDirForm(newSpec); ok && !strings.HasSuffix(occ.spec, "/index") && occ.spec != "./index" {
				newSpec = dir
			}
		}
		if newSpec == "" || newSpec == occ.spec {
			continue
		}
		splices = append(splices, splice{occ.start, occ.end, newSpec})
	}
	if len(splices) == 0 {
		return content, false
	}
	return applySplices(content, splices), true
}

// splice is one byte-range replacement within a file.
type splice struct {
	start, end int
	text       string
}

// applySplices replaces each span, back to front so earlier offsets
// stay valid. Spans must be non-overlapping and sorted ascending.
func applySplices(content []byte, splices []splice) []byte {
	out := make([]byte, len(content))
	copy(out, content)
	for i := len(splices) - 1; i >= 0; i-- {
		sp := splices[i]
		out = append(out[:sp.start], append([]byte(sp.text), out[sp.end:]...)...)
	}
	return out
}

func (s *Support) moveReplacement(spec, contextFile, oldPath, newPath string, variants map[string]string) (string, bool) {
	// Exact textual forms first so broken imports of the old path are
	// still carried along even when nothing resolves on disk.
	if repl, ok := variants[spec]; ok {
		return repl, true
	}

	resolved, ok := s.ResolveSpecifier(spec, contextFile)
	if !ok {
		return "", false
	}
	target, moved := paths.MapMoved(resolved, oldPath, newPath)
	if !moved {
		return "", false
	}

	if alias.IsPotentialAlias(spec) {
		absContext := paths.JoinRepoPath(s.repoRoot, contextFile)
		if m, _ := s.aliases.MapFor(absContext); m != nil {
			// When the move relocates the alias's own target tree the
			// alias definition gets rewritten instead; the specifier
			// stays valid as written.
			if p, _, ok := m.Match(spec); ok && s.replacementRootMoved(m, p, oldPath, newPath) {
				return "", false
			}
			absNew := paths.JoinRepoPath(s.repoRoot, target)
			if aliased, ok := m.SpecifierFor(absNew); ok {
				return aliased, true
			}
		}
		return relativeImport(contextFile, target), true
	}

	// Relative specifier in a shape the variant table did not cover,
	// e.g. redundant "./dir/../dir/file" segments.
	if hasExplicitExtension(spec) {
		return relativeImportRaw(contextFile, target), true
	}
	return relativeImport(contextFile, target), true
}

// replacementRootMoved reports whether every replacement directory of
// an alias pattern sits inside the moved tree, meaning the whole alias
// target relocates and the mapping itself will be updated.
func (s *Support) replacementRootMoved(m *alias.Map, p alias.Pattern, oldPath, newPath string) bool {
	if len(p.Replacements) == 0 {
		return false
	}
	for _, repl := range p.Replacements {
		dir := strings.TrimSuffix(repl, "*")
		dir = strings.TrimSuffix(dir, "/")
		if dir == "" {
			return false
		}
		abs := filepath.Join(m.BaseDir, filepath.FromSlash(dir))
		rel, err := filepath.Rel(s.repoRoot, abs)
		if err != nil {
			return false
		}
		canonical := paths.NormalizePath(rel)
		if _, ok := paths.MapMoved(canonical, oldPath, newPath); !ok {
			return false
		}
	}
	return true
}

// relativeVariants maps the textual forms an import of oldPath may take
// from contextFile to the corresponding form for newPath: extensionless,
// with explicit extension, and collapsed directory form for index files.
func relativeVariants(contextFile, oldPath, newPath string) map[string]string {
	oldRaw := relativeImportRaw(contextFile, oldPath)
	newRaw := relativeImportRaw(contextFile, newPath)
	oldSpec := stripMoveExtension(oldRaw)
	newSpec := stripMoveExtension(newRaw)

	variants := map[string]string{
		oldSpec: newSpec,
		oldRaw:  newRaw,
	}
	if oldDir, ok := indexDirForm(oldSpec); ok {
		if newDir, ok := indexDirForm(newSpec); ok {
			variants[oldDir] = newDir
		} else {
			variants[oldDir] = newSpec
		}
	}
	delete(variants, "")
	return variants
}

// relativeImport computes the conventional specifier for importing
// target from contextFile: relative, forward slashes, extension
// stripped, with an explicit ./ prefix.
func relativeImport(contextFile, target string) string {
	return stripMoveExtension(relativeImportRaw(contextFile, target))
}

// relativeImportRaw is relativeImport with the extension kept.
func relativeImportRaw(contextFile, target string) string {
	fromDir := path.Dir(paths.NormalizePath(contextFile))
	rel, err := filepath.Rel(filepath.FromSlash(fromDir), filepath.FromSlash(paths.NormalizePath(target)))
	if err != nil {
		return ""
	}
	rel = filepath.ToSlash(rel)
	if !strings.HasPrefix(rel, "../") && !strings.HasPrefix(rel, "/") {
		rel = "./" + rel
	}
	return rel
}

// stripMoveExtension removes the longest matching import extension so
// foo.test.ts keeps its inner dots.
func stripMoveExtension(spec string) string {
	matched := 0
	stripped := spec
	for _, ext := range moveExtensions {
		if len(ext) > matched && strings.HasSuffix(spec, ext) {
			stripped = spec[:len(spec)-len(ext)]
			matched = len(ext)
		}
	}
	return stripped
}

func hasExplicitExtension(spec string) bool {
	for _, ext := range moveExtensions {
		if strings.HasSuffix(spec, ext) {
			return true
		}
	}
	return false
}

// indexDirForm collapses an extensionless index specifier to its
// directory form: ./lib/index becomes ./lib.
func indexDirForm(spec string) (string, bool) {
	const tail = "/index"
	if !strings.HasSuffix(spec, tail) {
		return "", false
	}
	dir := spec[:len(spec)-len(tail)]
	if dir == "" || dir == "." {
		return "", false
	}
	return dir, true
}
