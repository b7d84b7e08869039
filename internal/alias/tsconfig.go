package alias

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// TSConfigName is the manifest file probed for path alias mappings.
const TSConfigName = "tsconfig.json"

// FindNearestTSConfig walks from the importing file's directory up to
// stopDir (inclusive) and returns the first tsconfig.json found.
func FindNearestTSConfig(importingFile, stopDir string) (string, bool) {
	dir := filepath.Dir(importingFile)
	stop := filepath.Clean(stopDir)
	for {
		candidate := filepath.Join(dir, TSConfigName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
		if dir == stop {
			return "", false
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

type tsconfigData struct {
	BaseURL  string
	Patterns []Pattern
}

// parseTSConfig extracts compilerOptions.baseUrl and the ordered
// compilerOptions.paths mappings. tsconfig.json allows comments and
// trailing commas, so the content is sanitized first. Declaration order
// of the paths object is semantic and must survive parsing, which rules
// out encoding/json maps; the yaml.v3 node API keeps mapping order.
func parseTSConfig(content []byte) (*tsconfigData, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(sanitizeJSONC(content), &root); err != nil {
		return nil, err
	}

	data := &tsconfigData{BaseURL: "."}
	if len(root.Content) == 0 {
		return data, nil
	}

	compilerOptions := mappingValue(root.Content[0], "compilerOptions")
	if compilerOptions == nil {
		return data, nil
	}

	if baseURL := mappingValue(compilerOptions, "baseUrl"); baseURL != nil && baseURL.Value != "" {
		data.BaseURL = baseURL.Value
	}

	pathsNode := mappingValue(compilerOptions, "paths")
	if pathsNode == nil || pathsNode.Kind != yaml.MappingNode {
		return data, nil
	}

	for i := 0; i+1 < len(pathsNode.Content); i += 2 {
		key := pathsNode.Content[i]
		val := pathsNode.Content[i+1]
		if val.Kind != yaml.SequenceNode {
			continue
		}
		var replacements []string
		for _, repl := range val.Content {
			if repl.Value != "" {
				replacements = append(replacements, repl.Value)
			}
		}
		if pattern, ok := compilePattern(key.Value, replacements); ok {
			data.Patterns = append(data.Patterns, pattern)
		}
	}
	return data, nil
}

// mappingValue returns the value node for a key in a mapping node.
func mappingValue(node *yaml.Node, key string) *yaml.Node {
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}

// sanitizeJSONC strips // and /* */ comments plus trailing commas so
// tsconfig content parses as plain JSON. String contents are preserved.
func sanitizeJSONC(content []byte) []byte {
	stripped := make([]byte, 0, len(content))
	inString := false
	for i := 0; i < len(content); i++ {
		c := content[i]
		if inString {
			stripped = append(stripped, c)
			if c == '\\' && i+1 < len(content) {
				stripped = append(stripped, content[i+1])
				i++
			} else if c == '"' {
				inString = false
			}
			continue
		}
		switch {
		case c == '"':
			inString = true
			stripped = append(stripped, c)
		case c == '/' && i+1 < len(content) && content[i+1] == '/':
			for i < len(content) && content[i] != '\n' {
				i++
			}
			if i < len(content) {
				stripped = append(stripped, '\n')
			}
		case c == '/' && i+1 < len(content) && content[i+1] == '*':
			i += 2
			for i+1 < len(content) && !(content[i] == '*' && content[i+1] == '/') {
				i++
			}
			i++ // loop increment skips the trailing '/'
		default:
			stripped = append(stripped, c)
		}
	}

	// Drop commas directly preceding a closing brace or bracket
	out := make([]byte, 0, len(stripped))
	inString = false
	for i := 0; i < len(stripped); i++ {
		c := stripped[i]
		if inString {
			out = append(out, c)
			if c == '\\' && i+1 < len(stripped) {
				out = append(out, stripped[i+1])
				i++
			} else if c == '"' {
				inString = false
			}
			continue
		}
		if c == '"' {
			inString = true
			out = append(out, c)
			continue
		}
		if c == ',' {
			j := i + 1
			for j < len(stripped) && (stripped[j] == ' ' || stripped[j] == '\t' || stripped[j] == '\n' || stripped[j] == '\r') {
				j++
			}
			if j < len(stripped) && (stripped[j] == '}' || stripped[j] == ']') {
				continue
			}
		}
		out = append(out, c)
	}
	return out
}

// compilePattern splits an alias pattern around its wildcard. Patterns
// with more than one wildcard are not valid tsconfig mappings and are
// skipped, as are patterns with no replacements.
func compilePattern(raw string, replacements []string) (Pattern, bool) {
	if raw == "" || len(replacements) == 0 || strings.Count(raw, "*") > 1 {
		return Pattern{}, false
	}
	p := Pattern{Raw: raw, Replacements: replacements}
	if i := strings.IndexByte(raw, '*'); i >= 0 {
		p.Wildcard = true
		p.Prefix = raw[:i]
		p.Suffix = raw[i+1:]
	}
	return p, true
}
