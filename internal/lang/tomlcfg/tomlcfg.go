// Package tomlcfg implements manifest and config support for TOML
// files: dependency renames in Cargo and Python project manifests,
// package name declarations, workspace member lists, relative path
// values, and exact-match name occurrences in tool configs.
//
// Rewrites are textual splices over the original bytes so comments and
// formatting survive. The document is parsed before any edit and the
// rewritten output is parsed again; an edit that breaks the document
// is discarded.
package tomlcfg

import (
	"path"
	"regexp"
	"strings"

	btoml "github.com/BurntSushi/toml"
	toml "github.com/pelletier/go-toml/v2"

	"remap/internal/capability"
	"remap/internal/errors"
	"remap/internal/paths"
	"remap/internal/scope"
)

// Support implements the TOML capabilities. One instance serves a
// repository; it is safe for concurrent use.
type Support struct {
	scope *scope.Scope
}

// New creates TOML support honoring the given scope's literal and
// exact-match toggles.
func New(sc *scope.Scope) *Support {
	return &Support{scope: sc}
}

// Capabilities describes the operations this module provides. TOML has
// no import graph, so there is no parser or resolver; candidates come
// from rewrite diffs and generic text matching.
func (s *Support) Capabilities() *capability.Capabilities {
	return &capability.Capabilities{
		Language:           "toml",
		Extensions:         []string{".toml"},
		Filenames:          []string{"Cargo.toml", "pyproject.toml"},
		StringLiteralPaths: true,
		Rename:             s,
		Move:               s,
		Manifest:           s,
		ModuleDecl:         s,
		Workspace:          s,
	}
}

// validate parses the document; edits only proceed on TOML that loads.
func validate(content []byte) error {
	var doc map[string]interface{}
	return toml.Unmarshal(content, &doc)
}

// revalidate parses rewritten output; a rewrite that no longer loads
// is discarded.
func revalidate(content []byte) error {
	var doc map[string]interface{}
	return btoml.Unmarshal(content, &doc)
}

// UpdateDependency renames a dependency across the manifest's
// dependency tables: Cargo dependency keys, renamed-package fields,
// `[dependencies.name]` headers, and PEP 621 requirement strings.
// Returns false without error when the dependency is not present.
func (s *Support) UpdateDependency(manifest []byte, oldName, newName string) ([]byte, bool, error) {
	if oldName == newName {
		return manifest, false, nil
	}
	if err := validate(manifest); err != nil {
		return manifest, false, errors.NewRemapError(errors.ManifestMalformed,
			"parse TOML manifest", err)
	}

	lines := strings.Split(string(manifest), "\n")
	var table []string
	depth := 0
	inRequirements := false
	changed := false

	for i, raw := range lines {
		line := strings.TrimSuffix(raw, "\r")

		if depth > 0 {
			if inRequirements {
				if out := renameRequirements(line, 0, oldName, newName); out != line {
					setLine(lines, i, raw, out)
					changed = true
				}
			}
			depth += bracketDelta(line)
			if depth <= 0 {
				depth, inRequirements = 0, false
			}
			continue
		}

		if segs, ok := parseHeader(line); ok {
			if len(segs) > 1 && segs[len(segs)-1] == oldName && isDependencyTable(segs[:len(segs)-1]) {
				if out, ok := renameHeaderSegment(line, oldName, newName); ok {
					setLine(lines, i, raw, out)
					changed = true
					segs[len(segs)-1] = newName
				}
			}
			table = segs
			continue
		}

		key, keySpan, valStart, ok := splitKeyValue(line)
		if !ok {
			continue
		}

		out := line
		if isDependencyTable(table) {
			if key == oldName {
				out = replaceKeyToken(out, keySpan, newName)
			}
			out = renamePackageField(out, valStart, oldName, newName)
		}
		if len(table) > 1 && isDependencyTable(table[:len(table)-1]) && key == "package" {
			out = renameExactValue(out, valStart, oldName, newName)
		}
		if isRequirementArray(table, key) {
			out = renameRequirements(out, valStart, oldName, newName)
		}
		if out != line {
			setLine(lines, i, raw, out)
			changed = true
		}

		depth = bracketDelta(line)
		if depth > 0 {
			inRequirements = isRequirementArray(table, key)
		} else {
			depth = 0
		}
	}

	if !changed {
		return manifest, false, nil
	}
	out := []byte(strings.Join(lines, "\n"))
	if err := revalidate(out); err != nil {
		return manifest, false, errors.NewRemapError(errors.ManifestMalformed,
			"dependency rename produced invalid TOML", err)
	}
	return out, true, nil
}

// RenameDeclaration updates the manifest's own name field: Cargo
// [package], PEP 621 [project], and [tool.poetry].
func (s *Support) RenameDeclaration(content []byte, oldModule, newModule string) ([]byte, bool) {
	if oldModule == newModule || validate(content) != nil {
		return content, false
	}

	lines := strings.Split(string(content), "\n")
	var table []string
	depth := 0
	changed := false

	for i, raw := range lines {
		line := strings.TrimSuffix(raw, "\r")
		if depth > 0 {
			depth += bracketDelta(line)
			if depth < 0 {
				depth = 0
			}
			continue
		}
		if segs, ok := parseHeader(line); ok {
			table = segs
			continue
		}
		key, _, valStart, ok := splitKeyValue(line)
		if !ok {
			continue
		}
		if key == "name" && isPackageTable(table) {
			if out := renameExactValue(line, valStart, oldModule, newModule); out != line {
				setLine(lines, i, raw, out)
				changed = true
			}
		}
		depth = bracketDelta(line)
		if depth < 0 {
			depth = 0
		}
	}

	if !changed {
		return content, false
	}
	out := []byte(strings.Join(lines, "\n"))
	if revalidate(out) != nil {
		return content, false
	}
	return out, true
}

// RenameMember updates workspace member lists and local path
// dependencies when a member directory moves. Paths are relative to
// the manifest's directory; glob entries are left alone.
func (s *Support) RenameMember(manifest []byte, oldPath, newPath string) ([]byte, bool, error) {
	if oldPath == newPath {
		return manifest, false, nil
	}
	if err := validate(manifest); err != nil {
		return manifest, false, errors.NewRemapError(errors.ManifestMalformed,
			"parse TOML manifest", err)
	}

	lines := strings.Split(string(manifest), "\n")
	var table []string
	depth := 0
	inMembers := false
	changed := false

	for i, raw := range lines {
		line := strings.TrimSuffix(raw, "\r")

		if depth > 0 {
			if inMembers {
				if out := rewriteMemberEntries(line, 0, oldPath, newPath); out != line {
					setLine(lines, i, raw, out)
					changed = true
				}
			}
			depth += bracketDelta(line)
			if depth <= 0 {
				depth, inMembers = 0, false
			}
			continue
		}

		if segs, ok := parseHeader(line); ok {
			table = segs
			continue
		}
		key, _, valStart, ok := splitKeyValue(line)
		if !ok {
			continue
		}

		out := line
		if isWorkspaceList(table, key) {
			out = rewriteMemberEntries(out, valStart, oldPath, newPath)
		}
		if isDependencyTable(table) {
			out = rewritePathFields(out, valStart, oldPath, newPath)
		}
		if key == "path" && len(table) > 1 && isDependencyTable(table[:len(table)-1]) {
			out = rewriteExactPathValue(out, valStart, oldPath, newPath)
		}
		if out != line {
			setLine(lines, i, raw, out)
			changed = true
		}

		depth = bracketDelta(line)
		if depth > 0 {
			inMembers = isWorkspaceList(table, key)
		} else {
			depth = 0
		}
	}

	if !changed {
		return manifest, false, nil
	}
	out := []byte(strings.Join(lines, "\n"))
	if err := revalidate(out); err != nil {
		return manifest, false, errors.NewRemapError(errors.ManifestMalformed,
			"member rename produced invalid TOML", err)
	}
	return out, true, nil
}

// RewriteForMove rewrites ./ and ../ string values that resolve to the
// moved path, recomputing them when this file itself moves. Repo-rooted
// values are left to generic text matching so the two passes never
// fight over one span.
func (s *Support) RewriteForMove(content []byte, contextFile, oldPath, newPath string) ([]byte, bool) {
	oldPath = paths.NormalizePath(oldPath)
	newPath = paths.NormalizePath(newPath)
	if oldPath == newPath || len(content) == 0 {
		return content, false
	}
	if !isManifestFile(contextFile) && !s.scope.UpdateStringLiterals {
		return content, false
	}
	if validate(content) != nil {
		return content, false
	}

	contextFile = paths.NormalizePath(contextFile)
	newContext := contextFile
	if mapped, ok := paths.MapMoved(contextFile, oldPath, newPath); ok {
		newContext = mapped
	}

	lines := strings.Split(string(content), "\n")
	changed := false
	for i, raw := range lines {
		line := strings.TrimSuffix(raw, "\r")
		out := line
		spans := stringSpans(out)
		for k := len(spans) - 1; k >= 0; k-- {
			sp := spans[k]
			inner := out[sp[0]+1 : sp[1]-1]
			rewritten, ok := rewriteRelativeValue(inner, contextFile, newContext, oldPath, newPath)
			if !ok {
				continue
			}
			out = out[:sp[0]+1] + rewritten + out[sp[1]-1:]
		}
		if out != line {
			setLine(lines, i, raw, out)
			changed = true
		}
	}

	if !changed {
		return content, false
	}
	out := []byte(strings.Join(lines, "\n"))
	if revalidate(out) != nil {
		return content, false
	}
	return out, true
}

// rewriteRelativeValue maps one relative path value through the move,
// preserving the ./ prefix and trailing slash style of the original.
func rewriteRelativeValue(value, contextFile, newContext, oldPath, newPath string) (string, bool) {
	if !strings.HasPrefix(value, "./") && !strings.HasPrefix(value, "../") {
		return "", false
	}
	target := path.Join(path.Dir(contextFile), strings.TrimSuffix(value, "/"))
	if target == ".." || strings.HasPrefix(target, "../") {
		return "", false
	}
	mapped, moved := paths.MapMoved(target, oldPath, newPath)
	if !moved {
		if newContext == contextFile {
			return "", false
		}
		mapped = target
	}
	rel := paths.RelativeTo(path.Dir(newContext), mapped)
	if strings.HasPrefix(value, "./") && !strings.HasPrefix(rel, "../") {
		rel = "./" + rel
	}
	if strings.HasSuffix(value, "/") {
		rel += "/"
	}
	if rel == value {
		return "", false
	}
	return rel, true
}

// RewriteForRename updates exact-match occurrences of a renamed
// package's name in TOML string values, e.g. deny lists or lint
// configs keyed by crate name. Gated by the exact-match scope toggle.
func (s *Support) RewriteForRename(content []byte, oldName, newName string) ([]byte, bool) {
	if oldName == newName || !s.scope.UpdateExactMatches {
		return content, false
	}
	if validate(content) != nil {
		return content, false
	}

	lines := strings.Split(string(content), "\n")
	changed := false
	for i, raw := range lines {
		line := strings.TrimSuffix(raw, "\r")
		out := line
		spans := stringSpans(out)
		for k := len(spans) - 1; k >= 0; k-- {
			sp := spans[k]
			if out[sp[0]+1:sp[1]-1] != oldName {
				continue
			}
			out = out[:sp[0]+1] + newName + out[sp[1]-1:]
		}
		if out != line {
			setLine(lines, i, raw, out)
			changed = true
		}
	}

	if !changed {
		return content, false
	}
	out := []byte(strings.Join(lines, "\n"))
	if revalidate(out) != nil {
		return content, false
	}
	return out, true
}

// isDependencyTable reports whether a table's keys are package names:
// dependencies, dev-dependencies, and build-dependencies wherever they
// sit, which covers Cargo targets, workspace inheritance, and Poetry
// groups alike.
func isDependencyTable(segs []string) bool {
	if len(segs) == 0 {
		return false
	}
	switch segs[len(segs)-1] {
	case "dependencies", "dev-dependencies", "build-dependencies":
		return true
	}
	return false
}

// isRequirementArray reports whether a key holds PEP 508 requirement
// strings: [project] dependencies, the arrays under
// [project.optional-dependencies], and PEP 735 dependency groups.
func isRequirementArray(table []string, key string) bool {
	if len(table) == 1 && table[0] == "project" && key == "dependencies" {
		return true
	}
	if len(table) == 2 && table[0] == "project" && table[1] == "optional-dependencies" {
		return true
	}
	return len(table) == 1 && table[0] == "dependency-groups"
}

// isWorkspaceList reports whether a key lists workspace member paths.
// Matching on the trailing workspace segment covers Cargo [workspace]
// and [tool.uv.workspace] both.
func isWorkspaceList(table []string, key string) bool {
	if len(table) == 0 || table[len(table)-1] != "workspace" {
		return false
	}
	switch key {
	case "members", "default-members", "exclude":
		return true
	}
	return false
}

// isPackageTable matches the tables that declare the package's own name.
func isPackageTable(table []string) bool {
	if len(table) == 1 && (table[0] == "package" || table[0] == "project") {
		return true
	}
	return len(table) == 2 && table[0] == "tool" && table[1] == "poetry"
}

func isManifestFile(file string) bool {
	switch path.Base(file) {
	case "Cargo.toml", "pyproject.toml":
		return true
	}
	return false
}

var packageFieldRe = regexp.MustCompile(`(\bpackage\s*=\s*["'])([^"']+)(["'])`)

// renamePackageField rewrites `package = "old"` fields in the value
// part of a line, the Cargo spelling for a dependency alias.
func renamePackageField(line string, from int, oldName, newName string) string {
	head, tail := line[:from], line[from:]
	out := packageFieldRe.ReplaceAllStringFunc(tail, func(m string) string {
		sub := packageFieldRe.FindStringSubmatch(m)
		if sub[2] != oldName {
			return m
		}
		return sub[1] + newName + sub[3]
	})
	return head + out
}

var pathFieldRe = regexp.MustCompile(`(\bpath\s*=\s*["'])([^"']+)(["'])`)

// rewritePathFields rewrites `path = "old"` fields in inline dependency
// tables when they name the moved directory.
func rewritePathFields(line string, from int, oldPath, newPath string) string {
	head, tail := line[:from], line[from:]
	out := pathFieldRe.ReplaceAllStringFunc(tail, func(m string) string {
		sub := pathFieldRe.FindStringSubmatch(m)
		rewritten, ok := rewriteMemberPath(sub[2], oldPath, newPath)
		if !ok {
			return m
		}
		return sub[1] + rewritten + sub[3]
	})
	return head + out
}

// rewriteExactPathValue rewrites a standalone `path = "old"` value line
// in a dotted dependency table.
func rewriteExactPathValue(line string, from int, oldPath, newPath string) string {
	inner, span, ok := firstString(line, from)
	if !ok {
		return line
	}
	rewritten, ok := rewriteMemberPath(inner, oldPath, newPath)
	if !ok {
		return line
	}
	return line[:span[0]+1] + rewritten + line[span[1]-1:]
}

// rewriteMemberEntries rewrites matching member strings in the value
// part of a line.
func rewriteMemberEntries(line string, from int, oldPath, newPath string) string {
	head, tail := line[:from], line[from:]
	spans := stringSpans(tail)
	for k := len(spans) - 1; k >= 0; k-- {
		sp := spans[k]
		inner := tail[sp[0]+1 : sp[1]-1]
		rewritten, ok := rewriteMemberPath(inner, oldPath, newPath)
		if !ok {
			continue
		}
		tail = tail[:sp[0]+1] + rewritten + tail[sp[1]-1:]
	}
	return head + tail
}

// rewriteMemberPath rewrites one member or path entry when it names
// the moved directory exactly, keeping the entry's ./ prefix style.
// Glob entries stay as they are.
func rewriteMemberPath(entry, oldPath, newPath string) (string, bool) {
	if strings.ContainsAny(entry, "*?") {
		return "", false
	}
	if strings.TrimPrefix(entry, "./") != strings.TrimPrefix(oldPath, "./") {
		return "", false
	}
	if strings.HasPrefix(entry, "./") {
		return "./" + strings.TrimPrefix(newPath, "./"), true
	}
	return strings.TrimPrefix(newPath, "./"), true
}

// renameExactValue rewrites the first string value at or after from
// when it equals oldName exactly.
func renameExactValue(line string, from int, oldName, newName string) string {
	inner, span, ok := firstString(line, from)
	if !ok || inner != oldName {
		return line
	}
	return line[:span[0]+1] + newName + line[span[1]-1:]
}

// renameRequirements renames the distribution name heading each PEP
// 508 requirement string in the value part of a line.
func renameRequirements(line string, from int, oldName, newName string) string {
	head, tail := line[:from], line[from:]
	spans := stringSpans(tail)
	for k := len(spans) - 1; k >= 0; k-- {
		sp := spans[k]
		inner := tail[sp[0]+1 : sp[1]-1]
		renamed, ok := renameRequirement(inner, oldName, newName)
		if !ok {
			continue
		}
		tail = tail[:sp[0]+1] + renamed + tail[sp[1]-1:]
	}
	return head + tail
}

// renameRequirement renames the distribution name at the head of a
// requirement string, leaving extras, specifiers, and markers alone.
// Names compare the way installers compare them: case-insensitively,
// with runs of - _ . interchangeable.
func renameRequirement(req, oldName, newName string) (string, bool) {
	n := 0
	for n < len(req) && isDistNameChar(req[n]) {
		n++
	}
	if n == 0 || canonicalDistName(req[:n]) != canonicalDistName(oldName) {
		return "", false
	}
	return newName + req[n:], true
}

func isDistNameChar(c byte) bool {
	return c == '-' || c == '_' || c == '.' ||
		c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

func canonicalDistName(name string) string {
	lower := strings.ToLower(name)
	var b strings.Builder
	pendingDash := false
	for i := 0; i < len(lower); i++ {
		c := lower[i]
		if c == '-' || c == '_' || c == '.' {
			pendingDash = true
			continue
		}
		if pendingDash && b.Len() > 0 {
			b.WriteByte('-')
		}
		pendingDash = false
		b.WriteByte(c)
	}
	return b.String()
}

// renameHeaderSegment renames the final segment of a dotted table
// header, e.g. [dependencies.old-name].
func renameHeaderSegment(line, oldName, newName string) (string, bool) {
	re := regexp.MustCompile(`^(\s*\[{1,2}[^\]]*?\.\s*"?)` + regexp.QuoteMeta(oldName) + `("?\s*\]{1,2})`)
	m := re.FindStringSubmatchIndex(line)
	if m == nil {
		return "", false
	}
	return line[:m[3]] + newName + line[m[4]:], true
}

// replaceKeyToken swaps a key token for the new name, keeping the quote
// style and quoting names that cannot be bare keys.
func replaceKeyToken(line string, span [2]int, newName string) string {
	tok := line[span[0]:span[1]]
	repl := newName
	if len(tok) >= 2 && (tok[0] == '"' || tok[0] == '\'') {
		repl = string(tok[0]) + newName + string(tok[0])
	} else if !isBareKey(newName) {
		repl = `"` + newName + `"`
	}
	return line[:span[0]] + repl + line[span[1]:]
}

func isBareKey(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '-' || c == '_' ||
			c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' {
			continue
		}
		return false
	}
	return true
}

// parseHeader parses a [table] or [[array-of-tables]] header into its
// dotted key segments, quotes stripped.
func parseHeader(line string) ([]string, bool) {
	t := strings.TrimSpace(line)
	if len(t) < 2 || t[0] != '[' {
		return nil, false
	}
	body := t[1:]
	if strings.HasPrefix(body, "[") {
		body = body[1:]
	}
	end := -1
	inStr := byte(0)
	for i := 0; i < len(body) && end < 0; i++ {
		c := body[i]
		if inStr != 0 {
			if c == inStr {
				inStr = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			inStr = c
		case ']':
			end = i
		}
	}
	if end < 0 {
		return nil, false
	}
	return splitDotted(body[:end]), true
}

// splitDotted splits a dotted TOML key on dots outside quotes.
func splitDotted(key string) []string {
	var segs []string
	var cur strings.Builder
	inStr := byte(0)
	for i := 0; i < len(key); i++ {
		c := key[i]
		if inStr != 0 {
			if c == inStr {
				inStr = 0
				continue
			}
			cur.WriteByte(c)
			continue
		}
		switch c {
		case '"', '\'':
			inStr = c
		case '.':
			segs = append(segs, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	return append(segs, strings.TrimSpace(cur.String()))
}

// splitKeyValue splits a key/value line at its first unquoted equals
// sign. keySpan covers the key token including any quotes.
func splitKeyValue(line string) (key string, keySpan [2]int, valStart int, ok bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "[") {
		return "", [2]int{}, 0, false
	}
	eq := -1
	inStr := byte(0)
	for i := 0; i < len(line) && eq < 0; i++ {
		c := line[i]
		if inStr != 0 {
			if c == '\\' && inStr == '"' {
				i++
				continue
			}
			if c == inStr {
				inStr = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			inStr = c
		case '#':
			return "", [2]int{}, 0, false
		case '=':
			eq = i
		}
	}
	if eq < 0 {
		return "", [2]int{}, 0, false
	}
	start := 0
	for start < eq && (line[start] == ' ' || line[start] == '\t') {
		start++
	}
	end := eq
	for end > start && (line[end-1] == ' ' || line[end-1] == '\t') {
		end--
	}
	if end <= start {
		return "", [2]int{}, 0, false
	}
	tok := line[start:end]
	key = tok
	if len(tok) >= 2 && (tok[0] == '"' || tok[0] == '\'') && tok[len(tok)-1] == tok[0] {
		key = tok[1 : len(tok)-1]
	}
	return key, [2]int{start, end}, eq + 1, true
}

// stringSpans returns the byte spans of quoted strings in a line,
// quotes included, stopping at an unquoted comment marker. Multi-line
// strings are left alone.
func stringSpans(line string) [][2]int {
	var spans [][2]int
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '#':
			return spans
		case '"':
			j := i + 1
			for j < len(line) && line[j] != '"' {
				if line[j] == '\\' {
					j++
				}
				j++
			}
			if j >= len(line) {
				return spans
			}
			spans = append(spans, [2]int{i, j + 1})
			i = j
		case '\'':
			j := strings.IndexByte(line[i+1:], '\'')
			if j < 0 {
				return spans
			}
			spans = append(spans, [2]int{i, i + j + 2})
			i = i + j + 1
		}
	}
	return spans
}

// firstString returns the first quoted string at or after offset from,
// with its absolute byte span in line.
func firstString(line string, from int) (string, [2]int, bool) {
	spans := stringSpans(line[from:])
	if len(spans) == 0 {
		return "", [2]int{}, false
	}
	sp := [2]int{spans[0][0] + from, spans[0][1] + from}
	return line[sp[0]+1 : sp[1]-1], sp, true
}

// bracketDelta counts array brackets opened minus closed outside
// quotes, for tracking multi-line arrays.
func bracketDelta(line string) int {
	d := 0
	inStr := byte(0)
	for i := 0; i < len(line); i++ {
		c := line[i]
		if inStr != 0 {
			if c == '\\' && inStr == '"' {
				i++
				continue
			}
			if c == inStr {
				inStr = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			inStr = c
		case '#':
			return d
		case '[':
			d++
		case ']':
			d--
		}
	}
	return d
}

// setLine writes a rewritten line back, restoring the CR of CRLF input.
func setLine(lines []string, i int, raw, out string) {
	if strings.HasSuffix(raw, "\r") && !strings.HasSuffix(out, "\r") {
		out += "\r"
	}
	lines[i] = out
}
