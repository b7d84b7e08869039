package alias

import (
	"path/filepath"
	"strings"
	"time"
)

// Pattern is one alias mapping: a pattern with at most one wildcard
// segment and its replacement templates in declaration order.
type Pattern struct {
	Raw          string
	Prefix       string
	Suffix       string
	Wildcard     bool
	Replacements []string
}

// Match reports whether spec matches this pattern and returns the text
// captured by the wildcard. Exact patterns capture nothing. The prefix
// and suffix carry their own separators, so "$lib/*" cannot match
// "$library".
func (p Pattern) Match(spec string) (string, bool) {
	if !p.Wildcard {
		if spec == p.Raw {
			return "", true
		}
		return "", false
	}
	if len(spec) < len(p.Prefix)+len(p.Suffix) {
		return "", false
	}
	if !strings.HasPrefix(spec, p.Prefix) || !strings.HasSuffix(spec, p.Suffix) {
		return "", false
	}
	return spec[len(p.Prefix) : len(spec)-len(p.Suffix)], true
}

// Substitute expands a replacement template with the captured text.
func Substitute(replacement, captured string) string {
	return strings.Replace(replacement, "*", captured, 1)
}

// Map is the parsed alias configuration for one manifest. Patterns keep
// declaration order; BaseDir is the absolute directory replacement
// templates resolve against (tsconfig dir joined with baseUrl).
type Map struct {
	Patterns   []Pattern
	BaseDir    string
	Source     string
	ModTime    time.Time
	Extensions []string
	IndexNames []string
}

// Match selects the matching pattern for a specifier. Among several
// matching patterns the longest wins; equal lengths keep the earlier
// declaration.
func (m *Map) Match(spec string) (Pattern, string, bool) {
	best := -1
	captured := ""
	for i := range m.Patterns {
		c, ok := m.Patterns[i].Match(spec)
		if !ok {
			continue
		}
		if best == -1 || len(m.Patterns[i].Raw) > len(m.Patterns[best].Raw) {
			best = i
			captured = c
		}
	}
	if best == -1 {
		return Pattern{}, "", false
	}
	return m.Patterns[best], captured, true
}

// SpecifierFor maps an absolute file path back to its alias form, if a
// replacement template covers it. Patterns and replacements are tried
// in declaration order. Import specifiers omit extensions and index
// segments, so those forms are tried as well.
func (m *Map) SpecifierFor(absPath string) (string, bool) {
	rel, err := filepath.Rel(m.BaseDir, absPath)
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	if strings.HasPrefix(rel, "..") {
		return "", false
	}

	for _, form := range m.specifierForms(rel) {
		for _, p := range m.Patterns {
			for _, repl := range p.Replacements {
				captured, ok := matchReplacement(repl, form)
				if !ok {
					continue
				}
				if !p.Wildcard {
					return p.Raw, true
				}
				return p.Prefix + captured + p.Suffix, true
			}
		}
	}
	return "", false
}

// specifierForms returns the shapes an import specifier may take for a
// file, most conventional first: directory form for index files, then
// extension stripped, then the raw path.
func (m *Map) specifierForms(rel string) []string {
	// Longest extension wins so .d.ts strips whole, not as .ts
	stripped := rel
	matched := 0
	for _, ext := range m.Extensions {
		if ext != "" && len(ext) > matched && strings.HasSuffix(rel, ext) {
			stripped = rel[:len(rel)-len(ext)]
			matched = len(ext)
		}
	}
	var forms []string
	for _, idx := range m.IndexNames {
		if tail := "/" + idx; strings.HasSuffix(stripped, tail) {
			forms = append(forms, stripped[:len(stripped)-len(tail)])
		}
	}
	if stripped != rel {
		forms = append(forms, stripped)
	}
	return append(forms, rel)
}

// matchReplacement matches a path form against a replacement template,
// returning the text its wildcard captures.
func matchReplacement(replacement, form string) (string, bool) {
	star := strings.IndexByte(replacement, '*')
	if star < 0 {
		return "", replacement == form
	}
	prefix := replacement[:star]
	suffix := replacement[star+1:]
	if len(form) < len(prefix)+len(suffix) {
		return "", false
	}
	if !strings.HasPrefix(form, prefix) || !strings.HasSuffix(form, suffix) {
		return "", false
	}
	return form[len(prefix) : len(form)-len(suffix)], true
}

// IsPotentialAlias reports whether a specifier could be an alias:
// anything that is not relative or absolute. SvelteKit, Next.js, and
// Vite conventions ($, @, ~) all fall out of this.
func IsPotentialAlias(spec string) bool {
	if spec == "" {
		return false
	}
	return !strings.HasPrefix(spec, ".") && !strings.HasPrefix(spec, "/")
}
