package plan

import "strings"

// diffEdits turns a whole-file rewrite into per-line TextEdits against the
// original content. Capability rewrites only touch lines holding a
// reference, so a line-level diff recovers precise edit ranges. When the
// rewrite changes the line count, the changed middle block collapses into
// a single edit so offsets stay valid.
func diffEdits(file string, original, rewritten []byte, category Category) []TextEdit {
	if string(original) == string(rewritten) {
		return nil
	}

	oldLines := splitKeepEnds(string(original))
	newLines := splitKeepEnds(string(rewritten))

	prefix := 0
	for prefix < len(oldLines) && prefix < len(newLines) && oldLines[prefix] == newLines[prefix] {
		prefix++
	}
	suffix := 0
	for suffix < len(oldLines)-prefix && suffix < len(newLines)-prefix &&
		oldLines[len(oldLines)-1-suffix] == newLines[len(newLines)-1-suffix] {
		suffix++
	}

	oldMid := oldLines[prefix : len(oldLines)-suffix]
	newMid := newLines[prefix : len(newLines)-suffix]

	offset := 0
	for _, l := range oldLines[:prefix] {
		offset += len(l)
	}

	if len(oldMid) != len(newMid) {
		oldText := strings.Join(oldMid, "")
		newText := strings.Join(newMid, "")
		return []TextEdit{{
			File:     file,
			Category: category,
			Line:     prefix + 1,
			Start:    offset,
			End:      offset + len(oldText),
			OldText:  oldText,
			NewText:  newText,
		}}
	}

	var edits []TextEdit
	for i := range oldMid {
		if oldMid[i] != newMid[i] {
			edits = append(edits, TextEdit{
				File:     file,
				Category: category,
				Line:     prefix + i + 1,
				Start:    offset,
				End:      offset + len(oldMid[i]),
				OldText:  oldMid[i],
				NewText:  newMid[i],
			})
		}
		offset += len(oldMid[i])
	}
	return edits
}

// splitKeepEnds splits content into lines that retain their trailing
// newline, so concatenating the slices reproduces the input exactly.
func splitKeepEnds(s string) []string {
	if s == "" {
		return nil
	}
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i+1])
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}
