package scan

import (
	"path/filepath"
	"strings"

	"remap/internal/capability"
	"remap/internal/plan"
)

// genericScan finds textual mentions of the old path that no language
// capability claims: string literals carrying paths, comment mentions,
// and delimited occurrences in files nothing else governs. Markdown is
// excluded here because its module owns links and prose outright.
func (s *Scanner) genericScan(op plan.Operation, file, addressFile string, content []byte, caps *capability.Capabilities, category plan.Category, res *fileResult) {
	ext := strings.ToLower(filepath.Ext(file))
	if ext == ".md" || ext == ".markdown" {
		return
	}

	literals := s.scope.UpdateStringLiterals && (caps == nil || caps.StringLiteralPaths)
	comments := s.scope.UpdateComments
	plain := caps == nil && s.scope.UpdateMarkdownProse
	if !literals && !comments && !plain {
		return
	}
	markers := commentMarkersFor(file)

	rawLines := strings.Split(string(content), "\n")
	offset := 0
	for i, rawLine := range rawLines {
		line := strings.TrimSuffix(rawLine, "\r")
		lineNo := i + 1
		matched := false
		for _, span := range pathOccurrences(line, op.OldPath, op.IsDir) {
			var allowed bool
			switch classifyAt(line, span[0], markers) {
			case ctxString:
				allowed = literals
			case ctxComment:
				allowed = comments
			default:
				allowed = plain
			}
			if !allowed {
				continue
			}
			res.edits = append(res.edits, editChange{
				edit: plan.TextEdit{
					File:     addressFile,
					Category: plan.CategoryGenericText,
					Line:     lineNo,
					Start:    offset + span[0],
					End:      offset + span[1],
					OldText:  op.OldPath,
					NewText:  op.NewPath,
				},
				diskFile: file,
				content:  content,
			})
			matched = true
		}
		if matched {
			res.candidates = append(res.candidates, plan.CandidateReference{
				File:     file,
				Line:     lineNo,
				Category: plan.CategoryGenericText,
				Method:   plan.MethodText,
				Matched:  op.OldPath,
				LineText: line,
			})
		}
		offset += len(rawLine) + 1
	}
}

type textContext int

const (
	ctxPlain textContext = iota
	ctxString
	ctxComment
)

// classifyAt reports the syntactic context of byte offset i within a
// line: inside a quoted string, after a comment marker, or plain text.
func classifyAt(line string, i int, markers []string) textContext {
	if idx := commentStart(line, markers); idx >= 0 && i >= idx {
		return ctxComment
	}
	if insideQuotes(line, i) {
		return ctxString
	}
	return ctxPlain
}

// commentStart returns the byte offset where a line comment begins, or
// -1. Markers inside quotes do not count, and "//" directly after a
// colon is a URL scheme separator, not a comment.
func commentStart(line string, markers []string) int {
	best := -1
	for _, marker := range markers {
		for start := 0; ; {
			idx := strings.Index(line[start:], marker)
			if idx < 0 {
				break
			}
			idx += start
			if insideQuotes(line, idx) || (marker == "//" && idx > 0 && line[idx-1] == ':') {
				start = idx + 1
				continue
			}
			if best < 0 || idx < best {
				best = idx
			}
			break
		}
	}
	return best
}

// insideQuotes reports whether offset i sits inside an unterminated
// single, double, or backtick quote opened earlier on the line.
func insideQuotes(line string, i int) bool {
	var quote byte
	for j := 0; j < i && j < len(line); j++ {
		c := line[j]
		if quote != 0 {
			if c == '\\' {
				j++
				continue
			}
			if c == quote {
				quote = 0
			}
			continue
		}
		if c == '"' || c == '\'' || c == '`' {
			quote = c
		}
	}
	return quote != 0
}

// pathOccurrences returns byte spans in line where oldPath occurs as a
// delimited path token. For directory operations a span may continue
// into a deeper segment, so "old-dir" matches inside "old-dir/file.ts"
// and the replacement swaps just the prefix.
func pathOccurrences(line, oldPath string, isDir bool) [][2]int {
	if oldPath == "" {
		return nil
	}
	var spans [][2]int
	for start := 0; ; {
		idx := strings.Index(line[start:], oldPath)
		if idx < 0 {
			break
		}
		idx += start
		end := idx + len(oldPath)
		if leftDelimited(line, idx) && rightDelimited(line, end, isDir) {
			spans = append(spans, [2]int{idx, end})
		}
		start = idx + 1
	}
	return spans
}

func leftDelimited(line string, i int) bool {
	if i == 0 {
		return true
	}
	c := line[i-1]
	if isTokenDelim(c) {
		return true
	}
	// "./old" spells the same repo path when written from the root
	if c == '/' && i >= 2 && line[i-2] == '.' && (i == 2 || isTokenDelim(line[i-3])) {
		return true
	}
	return false
}

func rightDelimited(line string, i int, isDir bool) bool {
	if i >= len(line) {
		return true
	}
	c := line[i]
	if isTokenDelim(c) {
		return true
	}
	return isDir && c == '/'
}

func isTokenDelim(c byte) bool {
	switch c {
	case '(', ')', '[', ']', '{', '}', '`', '"', '\'', '<', '>', ' ', '\t', '=', ':', ',', ';', '#':
		return true
	}
	return false
}

// commentMarkersFor picks the line comment syntax for a file. JSON has
// none; unknown extensions try both common markers.
func commentMarkersFor(file string) []string {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".go", ".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs", ".rs":
		return []string{"//"}
	case ".py", ".toml", ".yaml", ".yml", ".sh", ".gitignore", ".ini", ".cfg":
		return []string{"#"}
	case ".json":
		return nil
	default:
		return []string{"#", "//"}
	}
}
