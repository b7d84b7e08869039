package typescript

import (
	"bytes"
	"encoding/json"
	"io"
	"strconv"
	"strings"

	"remap/internal/errors"
)

// dependencySections are the package.json maps whose keys are package
// names.
var dependencySections = map[string]bool{
	"dependencies":         true,
	"devDependencies":      true,
	"peerDependencies":     true,
	"optionalDependencies": true,
}

// UpdateDependency renames a dependency key across every dependency
// section of a package.json. The manifest's formatting is preserved;
// only the key tokens change. Returns false without error when the
// dependency is not present.
func (s *Support) UpdateDependency(manifest []byte, oldName, newName string) ([]byte, bool, error) {
	if !looksLikeJSON(manifest) {
		return manifest, false, nil
	}
	toks, err := jsonStringTokens(manifest)
	if err != nil {
		return manifest, false, errors.NewRemapError(errors.ManifestMalformed,
			"parse package.json", err)
	}

	var splices []splice
	for _, tk := range toks {
		if tk.isKey && tk.value == oldName &&
			len(tk.container) == 1 && dependencySections[tk.container[0]] {
			splices = append(splices, splice{tk.start, tk.end, `"` + newName + `"`})
		}
	}
	if len(splices) == 0 {
		return manifest, false, nil
	}
	return applySplices(manifest, splices), true, nil
}

// RenameDeclaration updates the top-level name field of a package.json,
// the TypeScript equivalent of a module declaration.
func (s *Support) RenameDeclaration(content []byte, oldModule, newModule string) ([]byte, bool) {
	if !looksLikeJSON(content) {
		return content, false
	}
	toks, err := jsonStringTokens(content)
	if err != nil {
		return content, false
	}
	var splices []splice
	for _, tk := range toks {
		if !tk.isKey && tk.value == oldModule &&
			len(tk.container) == 1 && tk.container[0] == "name" {
			splices = append(splices, splice{tk.start, tk.end, `"` + newModule + `"`})
		}
	}
	if len(splices) == 0 {
		return content, false
	}
	return applySplices(content, splices), true
}

// RenameMember updates workspace member entries and local path
// dependencies when a member directory moves. package.json workspaces
// (both the array form and the Yarn object form) and
// pnpm-workspace.yaml are handled; paths are relative to the manifest's
// directory.
func (s *Support) RenameMember(manifest []byte, oldPath, newPath string) ([]byte, bool, error) {
	if !looksLikeJSON(manifest) {
		out, changed := renamePnpmMember(manifest, oldPath, newPath)
		return out, changed, nil
	}
	toks, err := jsonStringTokens(manifest)
	if err != nil {
		return manifest, false, errors.NewRemapError(errors.ManifestMalformed,
			"parse package.json", err)
	}

	var splices []splice
	for _, tk := range toks {
		if tk.isKey {
			continue
		}
		if isWorkspaceEntry(tk.container) && memberMatches(tk.value, oldPath) {
			splices = append(splices, splice{tk.start, tk.end,
				`"` + rewriteMember(tk.value, newPath) + `"`})
			continue
		}
		if len(tk.container) == 2 && dependencySections[tk.container[0]] {
			if rewritten, ok := rewritePathDependency(tk.value, oldPath, newPath); ok {
				splices = append(splices, splice{tk.start, tk.end, `"` + rewritten + `"`})
			}
		}
	}
	if len(splices) == 0 {
		return manifest, false, nil
	}
	return applySplices(manifest, splices), true, nil
}

// isWorkspaceEntry reports whether a token path addresses one element
// of the workspaces list: workspaces[i] or workspaces.packages[i].
func isWorkspaceEntry(container []string) bool {
	switch len(container) {
	case 2:
		return container[0] == "workspaces" && isIndex(container[1])
	case 3:
		return container[0] == "workspaces" && container[1] == "packages" && isIndex(container[2])
	}
	return false
}

func isIndex(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func memberMatches(entry, oldPath string) bool {
	return strings.TrimPrefix(entry, "./") == strings.TrimPrefix(oldPath, "./")
}

// rewriteMember keeps the entry's ./ prefix style.
func rewriteMember(entry, newPath string) string {
	if strings.HasPrefix(entry, "./") {
		return "./" + strings.TrimPrefix(newPath, "./")
	}
	return strings.TrimPrefix(newPath, "./")
}

// rewritePathDependency rewrites a local path dependency value
// (file: prefix, ./, ../, or absolute form) that points at the moved
// member, preserving the original prefix style.
func rewritePathDependency(value, oldPath, newPath string) (string, bool) {
	prefix := ""
	p := value
	if strings.HasPrefix(p, "file:") {
		prefix = "file:"
		p = strings.TrimPrefix(p, "file:")
	}
	if !strings.HasPrefix(p, "./") && !strings.HasPrefix(p, "../") &&
		!strings.HasPrefix(p, "/") && prefix == "" {
		return "", false
	}
	if strings.TrimPrefix(p, "./") != strings.TrimPrefix(oldPath, "./") {
		return "", false
	}
	if strings.HasPrefix(p, "./") {
		return prefix + "./" + strings.TrimPrefix(newPath, "./"), true
	}
	return prefix + strings.TrimPrefix(newPath, "./"), true
}

// renamePnpmMember rewrites matching member lines of a
// pnpm-workspace.yaml in place, keeping indentation and quote style.
func renamePnpmMember(content []byte, oldPath, newPath string) ([]byte, bool) {
	lines := strings.Split(string(content), "\n")
	inPackages := false
	changed := false

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "packages:") {
			inPackages = true
			continue
		}
		if !inPackages {
			continue
		}
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if !strings.HasPrefix(trimmed, "-") {
			inPackages = false
			continue
		}

		member := strings.TrimSpace(strings.TrimPrefix(trimmed, "-"))
		quote := ""
		if len(member) >= 2 && (member[0] == '\'' || member[0] == '"') && member[len(member)-1] == member[0] {
			quote = string(member[0])
			member = member[1 : len(member)-1]
		}
		if member != oldPath {
			continue
		}
		indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
		lines[i] = indent + "- " + quote + newPath + quote
		changed = true
	}
	if !changed {
		return content, false
	}
	return []byte(strings.Join(lines, "\n")), true
}

func looksLikeJSON(content []byte) bool {
	return bytes.HasPrefix(bytes.TrimLeft(content, " \t\r\n"), []byte("{"))
}

// stringToken is one JSON string with its byte span and the path of
// enclosing collections. Object levels contribute their key, array
// levels the element index. Keys carry the path of the enclosing
// object; values include the key or index they sit under.
type stringToken struct {
	value      string
	start, end int
	container  []string
	isKey      bool
}

// jsonStringTokens streams a JSON document and reports every string
// token with exact byte offsets, so edits can splice single tokens
// without reserializing (and reformatting) the whole manifest.
func jsonStringTokens(content []byte) ([]stringToken, error) {
	type frame struct {
		object    bool
		expectKey bool
		key       string
		index     int
	}
	var stack []frame
	var toks []stringToken

	// Current path: object levels contribute the pending key, array
	// levels the element index. A key being read has no pending key
	// yet, so its own object level contributes nothing.
	pathOf := func() []string {
		var parts []string
		for _, f := range stack {
			if f.object {
				if f.key != "" {
					parts = append(parts, f.key)
				}
			} else {
				parts = append(parts, strconv.Itoa(f.index))
			}
		}
		return parts
	}

	consumeValue := func() {
		if len(stack) == 0 {
			return
		}
		top := &stack[len(stack)-1]
		if top.object {
			top.key = ""
			top.expectKey = true
		} else {
			top.index++
		}
	}

	dec := json.NewDecoder(bytes.NewReader(content))
	dec.UseNumber()
	for {
		before := dec.InputOffset()
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case json.Delim:
			switch t {
			case '{':
				stack = append(stack, frame{object: true, expectKey: true})
			case '[':
				stack = append(stack, frame{object: false})
			case '}', ']':
				stack = stack[:len(stack)-1]
				consumeValue()
			}
		case string:
			after := dec.InputOffset()
			start := int(before) + bytes.IndexByte(content[before:after], '"')
			var top *frame
			if len(stack) > 0 {
				top = &stack[len(stack)-1]
			}
			if top != nil && top.object && top.expectKey {
				toks = append(toks, stringToken{
					value:     t,
					start:     start,
					end:       int(after),
					container: pathOf(),
					isKey:     true,
				})
				top.key = t
				top.expectKey = false
			} else {
				toks = append(toks, stringToken{
					value:     t,
					start:     start,
					end:       int(after),
					container: pathOf(),
					isKey:     false,
				})
				consumeValue()
			}
		default:
			consumeValue()
		}
	}
	return toks, nil
}
