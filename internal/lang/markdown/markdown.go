// Package markdown rewrites path references in markdown documents:
// inline link and image destinations, reference definitions, autolinks,
// inline code mentions, and plain prose paths. Document structure comes
// from the goldmark syntax tree so fenced code examples stay untouched.
//
// The module deliberately implements no import parser. Markdown has no
// imports; every finding is a rewrite, and the scanner derives its
// candidates from the changed lines.
package markdown

import (
	"bytes"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"remap/internal/capability"
	"remap/internal/paths"
	"remap/internal/scope"
)

// Support implements markdown document rewriting. Link destinations
// follow the docs scope that routed the file here; inline code and
// prose mentions additionally require the markdown prose scope.
type Support struct {
	scope *scope.Scope
}

// New creates markdown support honoring the given scope.
func New(sc *scope.Scope) *Support {
	return &Support{scope: sc}
}

// Capabilities describes the operations this module provides.
func (s *Support) Capabilities() *capability.Capabilities {
	return &capability.Capabilities{
		Language:   "markdown",
		Extensions: []string{".md", ".markdown"},
		Rename:     s,
		Move:       s,
	}
}

// span is a half-open byte range within a document.
type span struct {
	start, end int
}

func (sp span) overlaps(start, end int) bool {
	return start < sp.end && end > sp.start
}

func overlapsAny(spans []span, start, end int) bool {
	for _, sp := range spans {
		if sp.overlaps(start, end) {
			return true
		}
	}
	return false
}

// structure is the byte geography of a document: code block content
// that is never rewritten, and inline code segments that are rewritten
// only under the prose scope.
type structure struct {
	excluded  []span
	codeSpans []span
}

// analyze parses the document and collects the ranges covered by
// fenced and indented code blocks and by inline code spans.
func analyze(source []byte) structure {
	var st structure
	root := goldmark.DefaultParser().Parse(text.NewReader(source))
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.(type) {
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				st.excluded = append(st.excluded, span{seg.Start, seg.Stop})
			}
			return ast.WalkSkipChildren, nil
		case *ast.CodeSpan:
			for c := n.FirstChild(); c != nil; c = c.NextSibling() {
				if t, ok := c.(*ast.Text); ok {
					st.codeSpans = append(st.codeSpans, span{t.Segment.Start, t.Segment.Stop})
				}
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return st
}

// Link construct shapes. The AST locates code blocks but does not
// record destination byte spans, so destinations are found by pattern
// and narrowed to the path portion afterwards.
var (
	inlineLinkRe = regexp.MustCompile(`!?\[[^\]]*\]\(([^()]*)\)`)
	refDefRe     = regexp.MustCompile(`(?m)^[ \t]*\[[^\]]+\]:[ \t]*(\S+)`)
	autoLinkRe   = regexp.MustCompile(`<([^<>\s]+)>`)
)

// RewriteForMove updates every reference to a moved file or directory.
// Destinations are matched two ways: textually against the repo-rooted
// form, the common style in READMEs, and by resolving relative
// destinations against the document's directory. A document that is
// itself inside the moved tree gets its relative destinations
// recomputed from its future location. Anchors, image markers, quote
// styles, and trailing slashes survive the rewrite.
func (s *Support) RewriteForMove(content []byte, contextFile, oldPath, newPath string) ([]byte, bool) {
	oldPath = paths.NormalizePath(oldPath)
	newPath = paths.NormalizePath(newPath)
	if oldPath == newPath || len(content) == 0 {
		return content, false
	}

	context := paths.NormalizePath(contextFile)
	newContext := context
	if mapped, ok := paths.MapMoved(context, oldPath, newPath); ok {
		newContext = mapped
	}

	st := analyze(content)
	dests := collectDestinations(content, st.excluded)

	var splices []splice
	claimed := make([]span, 0, len(dests))
	for _, d := range dests {
		claimed = append(claimed, d)
		dest := string(content[d.start:d.end])
		if repl, ok := s.rewriteDestination(dest, context, newContext, oldPath, newPath); ok {
			splices = append(splices, splice{d.start, d.end, repl})
		}
	}

	// Inline code and bare prose mentions use textual repo-rooted
	// matching only, the same defense generic text scanning applies.
	if s.scope.UpdateMarkdownProse {
		for _, sp := range pathSpans(content, oldPath) {
			if overlapsAny(st.excluded, sp.start, sp.end) || overlapsAny(claimed, sp.start, sp.end) {
				continue
			}
			splices = append(splices, splice{sp.start, sp.end, newPath})
		}
	}

	if len(splices) == 0 {
		return content, false
	}
	sortSplices(splices)
	return applySplices(content, splices), true
}

// RewriteForRename updates mentions of a renamed package inside inline
// code spans. Prose sentences are left alone: a bare name in running
// text is indistinguishable from an ordinary word, while backticks mark
// a deliberate reference.
func (s *Support) RewriteForRename(content []byte, oldName, newName string) ([]byte, bool) {
	if !s.scope.UpdateMarkdownProse || oldName == "" || oldName == newName {
		return content, false
	}
	st := analyze(content)
	var splices []splice
	for _, cs := range st.codeSpans {
		segment := string(content[cs.start:cs.end])
		for _, sp := range tokenSpans(segment, oldName) {
			splices = append(splices, splice{cs.start + sp.start, cs.start + sp.end, newName})
		}
	}
	if len(splices) == 0 {
		return content, false
	}
	sortSplices(splices)
	return applySplices(content, splices), true
}

// collectDestinations returns the byte spans of every link destination
// in the document, skipping code blocks. Inline links are matched
// first; reference definitions and autolinks claim only spans inline
// links did not.
func collectDestinations(content []byte, excluded []span) []span {
	var dests []span
	add := func(start, end int) {
		if start >= end || overlapsAny(excluded, start, end) || overlapsAny(dests, start, end) {
			return
		}
		dests = append(dests, span{start, end})
	}

	for _, m := range inlineLinkRe.FindAllSubmatchIndex(content, -1) {
		start, end := m[2], m[3]
		ds, de := narrowDestination(content[start:end])
		add(start+ds, start+de)
	}
	for _, m := range refDefRe.FindAllSubmatchIndex(content, -1) {
		add(m[2], m[3])
	}
	for _, m := range autoLinkRe.FindAllSubmatchIndex(content, -1) {
		add(m[2], m[3])
	}
	return dests
}

// narrowDestination reduces the parenthesized part of an inline link to
// the destination path: an optional title after whitespace is dropped,
// and an angle-bracketed destination sheds its brackets.
func narrowDestination(inner []byte) (int, int) {
	start := 0
	for start < len(inner) && (inner[start] == ' ' || inner[start] == '\t') {
		start++
	}
	end := len(inner)
	if start < len(inner) && inner[start] == '<' {
		if close := bytes.IndexByte(inner[start:], '>'); close > 0 {
			return start + 1, start + close
		}
	}
	for i := start; i < len(inner); i++ {
		if inner[i] == ' ' || inner[i] == '\t' {
			end = i
			break
		}
	}
	return start, end
}

// rewriteDestination maps one link destination for a move. The repo
// rooted textual form wins when both interpretations apply, matching
// how documentation is conventionally written.
func (s *Support) rewriteDestination(dest, context, newContext, oldPath, newPath string) (string, bool) {
	if dest == "" || isExternal(dest) {
		return "", false
	}
	pathPart, anchor := splitAnchor(dest)
	if pathPart == "" {
		return "", false
	}
	suffix := ""
	if strings.HasSuffix(pathPart, "/") && pathPart != "/" {
		suffix = "/"
		pathPart = strings.TrimSuffix(pathPart, "/")
	}

	prefix := ""
	body := pathPart
	switch {
	case strings.HasPrefix(pathPart, "./"):
		prefix, body = "./", pathPart[2:]
	case strings.HasPrefix(pathPart, "/"):
		prefix, body = "/", pathPart[1:]
	}

	if mapped, ok := paths.MapMoved(body, oldPath, newPath); ok {
		out := prefix + mapped + suffix + anchor
		if out == dest {
			return "", false
		}
		return out, true
	}
	if prefix == "/" {
		return "", false
	}

	resolved := resolveAgainst(context, pathPart)
	if resolved == "" {
		return "", false
	}
	target, moved := paths.MapMoved(resolved, oldPath, newPath)
	if !moved {
		if newContext == context {
			return "", false
		}
		// The document moves and the target stays: recompute the
		// relative path from the document's new directory.
		target = resolved
	}
	rebuilt := paths.RelativeTo(path.Dir(newContext), target)
	if prefix == "./" && !strings.HasPrefix(rebuilt, "../") {
		rebuilt = "./" + rebuilt
	}
	out := rebuilt + suffix + anchor
	if out == dest {
		return "", false
	}
	return out, true
}

// resolveAgainst joins a relative destination onto the document's
// directory. Destinations that climb out of the repository yield "".
func resolveAgainst(contextFile, rel string) string {
	joined := path.Join(path.Dir(contextFile), rel)
	if joined == "" || joined == "." || joined == ".." || strings.HasPrefix(joined, "../") {
		return ""
	}
	return joined
}

func isExternal(dest string) bool {
	return strings.Contains(dest, "://") || strings.HasPrefix(dest, "mailto:")
}

// splitAnchor separates a #fragment from a destination, keeping the
// marker with the fragment so reassembly is concatenation.
func splitAnchor(dest string) (string, string) {
	if idx := strings.IndexByte(dest, '#'); idx >= 0 {
		return dest[:idx], dest[idx:]
	}
	return dest, ""
}

// pathSpans finds delimited occurrences of oldPath anywhere in the
// document. The left boundary must be a token delimiter or a ./ written
// from the repo root; the right boundary may continue into a deeper
// segment so directory prefixes match.
func pathSpans(content []byte, oldPath string) []span {
	if oldPath == "" {
		return nil
	}
	text := string(content)
	var spans []span
	for start := 0; ; {
		idx := strings.Index(text[start:], oldPath)
		if idx < 0 {
			break
		}
		idx += start
		end := idx + len(oldPath)
		if leftBounded(text, idx) && (rightBounded(text, end) || text[end] == '/') {
			spans = append(spans, span{idx, end})
		}
		start = idx + 1
	}
	return spans
}

// tokenSpans finds exact delimited occurrences of a name within a code
// span segment. Unlike pathSpans the right boundary is strict: a name
// followed by a slash is a path mention, not a package mention.
func tokenSpans(segment, name string) []span {
	if name == "" {
		return nil
	}
	var spans []span
	for start := 0; ; {
		idx := strings.Index(segment[start:], name)
		if idx < 0 {
			break
		}
		idx += start
		end := idx + len(name)
		if leftBounded(segment, idx) && rightBounded(segment, end) {
			spans = append(spans, span{idx, end})
		}
		start = idx + 1
	}
	return spans
}

func leftBounded(text string, i int) bool {
	if i == 0 {
		return true
	}
	c := text[i-1]
	if isDelim(c) {
		return true
	}
	if c == '/' && i >= 2 && text[i-2] == '.' && (i == 2 || isDelim(text[i-3])) {
		return true
	}
	return false
}

func rightBounded(text string, i int) bool {
	return i >= len(text) || isDelim(text[i])
}

func isDelim(c byte) bool {
	switch c {
	case '(', ')', '[', ']', '{', '}', '`', '"', '\'', '<', '>', ' ', '\t', '\n', '\r', ':', ',', ';', '#', '*', '!', '?', '=':
		return true
	}
	return false
}

// splice is one byte-range replacement within a document.
type splice struct {
	start, end int
	text       string
}

func sortSplices(splices []splice) {
	sort.Slice(splices, func(i, j int) bool { return splices[i].start < splices[j].start })
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
