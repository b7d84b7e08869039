// Package yamlcfg implements config support for YAML files: relative
// path values that follow moved files, and exact-match occurrences of
// a renamed package's name in tool configs such as dependabot.yml.
//
// The document is parsed into the yaml.v3 node tree for scalar
// positions, then edits splice the original bytes so comments,
// anchors, and formatting survive. A scalar whose source form cannot
// be located exactly is skipped rather than guessed at.
package yamlcfg

import (
	"bytes"
	"io"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"remap/internal/capability"
	"remap/internal/paths"
	"remap/internal/scope"
)

// Support implements the YAML capabilities. One instance serves a
// repository; it is safe for concurrent use.
type Support struct {
	scope *scope.Scope
}

// New creates YAML support honoring the given scope's literal and
// exact-match toggles.
func New(sc *scope.Scope) *Support {
	return &Support{scope: sc}
}

// Capabilities describes the operations this module provides.
// pnpm-workspace.yaml is claimed by filename elsewhere and never
// reaches this module.
func (s *Support) Capabilities() *capability.Capabilities {
	return &capability.Capabilities{
		Language:           "yaml",
		Extensions:         []string{".yaml", ".yml"},
		StringLiteralPaths: true,
		Rename:             s,
		Move:               s,
	}
}

// RewriteForMove rewrites ./ and ../ scalar values that resolve to the
// moved path, recomputing them when this file itself moves. Repo-rooted
// values are left to generic text matching.
func (s *Support) RewriteForMove(content []byte, contextFile, oldPath, newPath string) ([]byte, bool) {
	oldPath = paths.NormalizePath(oldPath)
	newPath = paths.NormalizePath(newPath)
	if oldPath == newPath || len(content) == 0 || !s.scope.UpdateStringLiterals {
		return content, false
	}

	contextFile = paths.NormalizePath(contextFile)
	newContext := contextFile
	if mapped, ok := paths.MapMoved(contextFile, oldPath, newPath); ok {
		newContext = mapped
	}

	return s.rewriteScalars(content, func(value string) (string, bool) {
		return rewriteRelativeValue(value, contextFile, newContext, oldPath, newPath)
	})
}

// RewriteForRename updates scalars that equal the renamed package's
// name exactly. Gated by the exact-match scope toggle.
func (s *Support) RewriteForRename(content []byte, oldName, newName string) ([]byte, bool) {
	if oldName == newName || !s.scope.UpdateExactMatches {
		return content, false
	}
	return s.rewriteScalars(content, func(value string) (string, bool) {
		if value != oldName {
			return "", false
		}
		return newName, true
	})
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

// lineSplice is one pending replacement: byte offsets within a line.
type lineSplice struct {
	line       int
	start, end int
	text       string
}

// rewriteScalars parses every document in the file and splices the
// rewritten scalars back into the original bytes.
func (s *Support) rewriteScalars(content []byte, rewrite func(string) (string, bool)) ([]byte, bool) {
	dec := yaml.NewDecoder(bytes.NewReader(content))
	var docs []*yaml.Node
	for {
		var doc yaml.Node
		if err := dec.Decode(&doc); err != nil {
			if err == io.EOF {
				break
			}
			return content, false
		}
		docs = append(docs, &doc)
	}
	if len(docs) == 0 {
		return content, false
	}

	rawLines := strings.Split(string(content), "\n")
	var splices []lineSplice
	for _, doc := range docs {
		collectSplices(doc, rawLines, rewrite, &splices)
	}
	if len(splices) == 0 {
		return content, false
	}

	sort.Slice(splices, func(i, j int) bool {
		if splices[i].line != splices[j].line {
			return splices[i].line > splices[j].line
		}
		return splices[i].start > splices[j].start
	})
	for _, sp := range splices {
		line := rawLines[sp.line-1]
		rawLines[sp.line-1] = line[:sp.start] + sp.text + line[sp.end:]
	}
	return []byte(strings.Join(rawLines, "\n")), true
}

func collectSplices(node *yaml.Node, lines []string, rewrite func(string) (string, bool), out *[]lineSplice) {
	if node == nil {
		return
	}
	if node.Kind == yaml.ScalarNode && node.Tag == "!!str" {
		if rewritten, changed := rewrite(node.Value); changed {
			if span, ok := scalarSpan(node, lines); ok {
				*out = append(*out, lineSplice{
					line:  node.Line,
					start: span[0],
					end:   span[1],
					text:  renderScalar(node.Style, rewritten),
				})
			}
		}
	}
	for _, child := range node.Content {
		collectSplices(child, lines, rewrite, out)
	}
}

// scalarSpan locates the byte span of a scalar's source text on its
// line, quotes included. Multi-line and block scalars, and any scalar
// whose reported position does not match the source, report false.
func scalarSpan(node *yaml.Node, lines []string) ([2]int, bool) {
	if node.Line < 1 || node.Line > len(lines) {
		return [2]int{}, false
	}
	line := strings.TrimSuffix(lines[node.Line-1], "\r")
	start := byteColumn(line, node.Column)
	if start < 0 || start >= len(line) {
		return [2]int{}, false
	}

	switch node.Style {
	case 0:
		end := start + len(node.Value)
		if end > len(line) || line[start:end] != node.Value {
			return [2]int{}, false
		}
		return [2]int{start, end}, true
	case yaml.DoubleQuotedStyle:
		if line[start] != '"' {
			return [2]int{}, false
		}
		for j := start + 1; j < len(line); j++ {
			if line[j] == '\\' {
				j++
				continue
			}
			if line[j] == '"' {
				return [2]int{start, j + 1}, true
			}
		}
		return [2]int{}, false
	case yaml.SingleQuotedStyle:
		if line[start] != '\'' {
			return [2]int{}, false
		}
		for j := start + 1; j < len(line); {
			idx := strings.IndexByte(line[j:], '\'')
			if idx < 0 {
				return [2]int{}, false
			}
			j += idx + 1
			if j < len(line) && line[j] == '\'' {
				j++
				continue
			}
			return [2]int{start, j}, true
		}
		return [2]int{}, false
	}
	return [2]int{}, false
}

// renderScalar spells the new value in the original scalar's style.
func renderScalar(style yaml.Style, value string) string {
	switch style {
	case yaml.DoubleQuotedStyle:
		escaped := strings.ReplaceAll(value, `\`, `\\`)
		escaped = strings.ReplaceAll(escaped, `"`, `\"`)
		return `"` + escaped + `"`
	case yaml.SingleQuotedStyle:
		return "'" + strings.ReplaceAll(value, "'", "''") + "'"
	}
	return value
}

// byteColumn converts a 1-based rune column to a byte offset, or -1
// when the line is too short.
func byteColumn(line string, col int) int {
	if col < 1 {
		return -1
	}
	n := 1
	for i := range line {
		if n == col {
			return i
		}
		n++
	}
	if n == col {
		return len(line)
	}
	return -1
}
