// Package gitignore rewrites ignore patterns affected by a file or
// directory move. Patterns resolve relative to the directory holding
// the .gitignore, negation and anchoring markers survive the rewrite,
// and wildcard patterns are updated only in their literal prefix.
package gitignore

import (
	"path"
	"strings"

	"remap/internal/capability"
	"remap/internal/paths"
)

// Support implements .gitignore pattern rewriting.
type Support struct{}

// New creates gitignore support.
func New() *Support {
	return &Support{}
}

// Capabilities describes the operations this module provides.
func (s *Support) Capabilities() *capability.Capabilities {
	return &capability.Capabilities{
		Language:  "gitignore",
		Filenames: []string{".gitignore"},
		Move:      s,
	}
}

// RewriteForMove updates patterns that name the moved path. Patterns
// containing a slash anchor to the ignore file's directory; bare
// basename patterns follow the move only when the basename itself
// changes. Comment and blank lines pass through untouched.
func (s *Support) RewriteForMove(content []byte, contextFile, oldPath, newPath string) ([]byte, bool) {
	oldPath = paths.NormalizePath(oldPath)
	newPath = paths.NormalizePath(newPath)
	if oldPath == newPath || len(content) == 0 {
		return content, false
	}

	ignoreDir := path.Dir(paths.NormalizePath(contextFile))
	newDir := ignoreDir
	if mapped, ok := paths.MapMoved(paths.NormalizePath(contextFile), oldPath, newPath); ok {
		newDir = path.Dir(mapped)
	}

	lines := strings.Split(string(content), "\n")
	changed := false
	for i, line := range lines {
		body := strings.TrimSuffix(line, "\r")
		if body == "" || strings.HasPrefix(body, "#") || strings.HasPrefix(body, "\\") {
			continue
		}
		rewritten, ok := rewritePattern(body, ignoreDir, newDir, oldPath, newPath)
		if !ok || rewritten == body {
			continue
		}
		if strings.HasSuffix(line, "\r") {
			rewritten += "\r"
		}
		lines[i] = rewritten
		changed = true
	}
	if !changed {
		return content, false
	}
	return []byte(strings.Join(lines, "\n")), true
}

// rewritePattern maps one ignore pattern onto the moved path. The
// returned pattern keeps the original negation, anchoring, and
// directory-only markers.
func rewritePattern(pattern, ignoreDir, newDir, oldPath, newPath string) (string, bool) {
	body := pattern
	negated := strings.HasPrefix(body, "!")
	if negated {
		body = body[1:]
	}
	dirOnly := strings.HasSuffix(body, "/") && body != "/"
	if dirOnly {
		body = strings.TrimSuffix(body, "/")
	}
	anchored := strings.HasPrefix(body, "/")
	if anchored {
		body = body[1:]
	}
	if body == "" {
		return "", false
	}

	var rel string
	if !strings.Contains(body, "/") {
		// A bare basename matches at any depth below the ignore file.
		// It follows the move only when the name itself changes, so a
		// pattern covering many files is never silently narrowed.
		if strings.ContainsAny(body, "*?[") || body != path.Base(oldPath) {
			return "", false
		}
		rel = path.Base(newPath)
		if rel == body {
			return "", false
		}
	} else {
		mapped, ok := mapPatternPath(body, ignoreDir, oldPath, newPath)
		if !ok {
			return "", false
		}
		rel = paths.RelativeTo(newDir, mapped)
		if rel == "." || strings.HasPrefix(rel, "../") {
			return "", false
		}
	}

	out := rel
	if anchored {
		out = "/" + out
	}
	if dirOnly {
		out += "/"
	}
	if negated {
		out = "!" + out
	}
	return out, true
}

// mapPatternPath resolves a slash-bearing pattern against the ignore
// directory and maps it through the move. Wildcard patterns map their
// literal leading segments and keep the wildcard tail as written.
func mapPatternPath(body, ignoreDir, oldPath, newPath string) (string, bool) {
	if idx := strings.IndexAny(body, "*?["); idx >= 0 {
		cut := strings.LastIndex(body[:idx], "/")
		if cut <= 0 {
			return "", false
		}
		prefix, tail := body[:cut], body[cut+1:]
		full := path.Join(ignoreDir, prefix)
		mapped, ok := paths.MapMoved(full, oldPath, newPath)
		if !ok {
			return "", false
		}
		return mapped + "/" + tail, true
	}

	full := path.Join(ignoreDir, body)
	mapped, ok := paths.MapMoved(full, oldPath, newPath)
	if !ok {
		return "", false
	}
	return mapped, true
}
