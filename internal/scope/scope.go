package scope

import (
	"fmt"
	"path/filepath"
	"strings"

	"remap/internal/errors"
	"remap/internal/paths"
)

// Scope controls which file categories a rename or move touches.
type Scope struct {
	// UpdateCode enables import/module updates in source files
	UpdateCode bool `json:"updateCode"`
	// UpdateStringLiterals enables path-literal updates inside code
	UpdateStringLiterals bool `json:"updateStringLiterals"`
	// UpdateDocs enables markdown link updates
	UpdateDocs bool `json:"updateDocs"`
	// UpdateConfigs enables manifest and config file updates
	UpdateConfigs bool `json:"updateConfigs"`
	// UpdateGitignore enables .gitignore pattern updates
	UpdateGitignore bool `json:"updateGitignore"`
	// UpdateComments enables comment mention updates
	UpdateComments bool `json:"updateComments"`
	// UpdateMarkdownProse enables inline-code and plain-text path updates
	// in markdown. Markdown links are covered by UpdateDocs regardless.
	UpdateMarkdownProse bool `json:"updateMarkdownProse"`
	// UpdateExactMatches enables exact identifier updates in config files,
	// e.g. crate names in deny.toml or dependabot.yml
	UpdateExactMatches bool `json:"updateExactMatches"`
	// ExcludePatterns are user glob patterns removed from every scope
	ExcludePatterns []string `json:"excludePatterns,omitempty"`
}

// Preset names accepted by Parse.
const (
	PresetCode       = "code"
	PresetDocs       = "docs"
	PresetStandard   = "standard"
	PresetEverything = "everything"
)

// ValidPresets lists the accepted scope names in widening order.
var ValidPresets = []string{PresetCode, PresetDocs, PresetStandard, PresetEverything}

// Code returns the minimal scope: imports and path string literals only.
func Code() *Scope {
	return &Scope{
		UpdateCode:           true,
		UpdateStringLiterals: true,
	}
}

// Docs returns the code scope plus markdown links.
func Docs() *Scope {
	s := Code()
	s.UpdateDocs = true
	return s
}

// Standard returns the default scope: code, docs, configs, and
// .gitignore patterns. Comments and markdown prose stay opt-in.
func Standard() *Scope {
	s := Docs()
	s.UpdateConfigs = true
	s.UpdateGitignore = true
	s.UpdateExactMatches = true
	return s
}

// Everything returns the widest scope, adding comment mentions and
// markdown prose on top of the standard scope.
func Everything() *Scope {
	s := Standard()
	s.UpdateComments = true
	s.UpdateMarkdownProse = true
	return s
}

// Default returns the scope used when none is requested.
func Default() *Scope {
	return Standard()
}

// Parse maps a preset name to a scope. Unrecognized names are fatal.
func Parse(name string) (*Scope, error) {
	switch name {
	case PresetCode:
		return Code(), nil
	case PresetDocs:
		return Docs(), nil
	case PresetStandard, "":
		return Standard(), nil
	case PresetEverything:
		return Everything(), nil
	default:
		return nil, errors.NewRemapError(
			errors.ScopeInvalid,
			fmt.Sprintf("unrecognized scope %q (valid: %s)", name, strings.Join(ValidPresets, ", ")),
			nil,
		)
	}
}

// WithExcludes returns a copy of the scope with the given glob patterns added.
func (s *Scope) WithExcludes(patterns []string) *Scope {
	out := *s
	out.ExcludePatterns = append(append([]string{}, s.ExcludePatterns...), patterns...)
	return &out
}

// ShouldIncludeFile reports whether a file participates in this scope.
// Routing is by filename and extension; unknown extensions are included
// so generic text matching can still see them.
func (s *Scope) ShouldIncludeFile(path string) bool {
	normalized := paths.NormalizePath(path)

	// Check exclude patterns first
	for _, pattern := range s.ExcludePatterns {
		if matchesGlob(pattern, normalized) {
			return false
		}
	}

	// Special filenames without extensions
	base := filepath.Base(normalized)
	if base == ".gitignore" {
		return s.UpdateGitignore
	}

	switch strings.TrimPrefix(strings.ToLower(filepath.Ext(base)), ".") {
	case "md", "markdown":
		return s.UpdateDocs
	case "toml", "yaml", "yml", "json":
		return s.UpdateConfigs
	case "rs", "ts", "tsx", "js", "jsx", "mjs", "cjs", "go", "py":
		return s.UpdateCode
	default:
		return true
	}
}

// matchesGlob matches a path against a glob pattern. filepath.Match does
// not cross separators with *, so patterns containing ** additionally
// fall back to a substring check on the pattern with wildcards removed.
func matchesGlob(pattern, path string) bool {
	if matched, _ := filepath.Match(pattern, path); matched {
		return true
	}
	if matched, _ := filepath.Match(pattern, filepath.Base(path)); matched {
		return true
	}
	if strings.Contains(pattern, "**") {
		simplified := strings.ReplaceAll(pattern, "**", "")
		simplified = strings.ReplaceAll(simplified, "*", "")
		simplified = strings.Trim(simplified, "/")
		if simplified != "" && strings.Contains(path, simplified) {
			return true
		}
	}
	return false
}

// LooksLikePath reports whether a token is path evidence: it contains a
// separator or ends with a recognized file extension. Bare words fail.
func LooksLikePath(token string) bool {
	if strings.Contains(token, "/") {
		return true
	}
	return paths.HasPathExtension(token)
}

// KeepProseCandidate decides whether a plain-text or markdown match on
// oldPath is a real path reference. The token must look like a path and
// every retained occurrence must be delimited: bounded by parentheses,
// brackets, backticks, quotes, whitespace, or the line edges. This is
// the only defense against rewriting sentences that merely mention the
// old name.
func KeepProseCandidate(line, oldPath string) bool {
	if oldPath == "" || !LooksLikePath(oldPath) {
		return false
	}
	return hasDelimitedOccurrence(line, oldPath)
}

func hasDelimitedOccurrence(line, token string) bool {
	for start := 0; ; {
		idx := strings.Index(line[start:], token)
		if idx < 0 {
			return false
		}
		idx += start
		end := idx + len(token)
		if isDelimiter(line, idx-1) && isDelimiter(line, end) {
			return true
		}
		start = idx + 1
	}
}

// isDelimiter reports whether position i bounds a path token. Positions
// outside the line count as boundaries.
func isDelimiter(line string, i int) bool {
	if i < 0 || i >= len(line) {
		return true
	}
	switch line[i] {
	case '(', ')', '[', ']', '`', '"', '\'', '<', '>', ' ', '\t':
		return true
	}
	return false
}
