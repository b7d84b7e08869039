package alias

import (
	"testing"
)

func TestParseTSConfigOrderPreserved(t *testing.T) {
	data, err := parseTSConfig([]byte(`{
  "compilerOptions": {
    "baseUrl": ".",
    "paths": {
      "@legacy/auth/*": ["old/auth-system/*"],
      "@legacy/*": ["legacy/*"],
      "@/*": ["src/*"]
    }
  }
}`))
	if err != nil {
		t.Fatalf("parseTSConfig: %v", err)
	}
	if len(data.Patterns) != 3 {
		t.Fatalf("len(Patterns) = %d, want 3", len(data.Patterns))
	}
	want := []string{"@legacy/auth/*", "@legacy/*", "@/*"}
	for i, w := range want {
		if data.Patterns[i].Raw != w {
			t.Errorf("Patterns[%d] = %q, want %q", i, data.Patterns[i].Raw, w)
		}
	}
}

func TestParseTSConfigComments(t *testing.T) {
	data, err := parseTSConfig([]byte(`{
  // project aliases
  "compilerOptions": {
    /* resolve from the repo root */
    "baseUrl": ".",
    "paths": {
      "$lib/*": ["src/lib/*"], // SvelteKit convention
    },
  },
}`))
	if err != nil {
		t.Fatalf("parseTSConfig with comments: %v", err)
	}
	if data.BaseURL != "." {
		t.Errorf("BaseURL = %q, want %q", data.BaseURL, ".")
	}
	if len(data.Patterns) != 1 || data.Patterns[0].Raw != "$lib/*" {
		t.Fatalf("Patterns = %+v, want the $lib/* mapping", data.Patterns)
	}
	if data.Patterns[0].Replacements[0] != "src/lib/*" {
		t.Errorf("replacement = %q, want %q", data.Patterns[0].Replacements[0], "src/lib/*")
	}
}

func TestParseTSConfigSlashesInsideStrings(t *testing.T) {
	// A // inside a string value is not a comment.
	data, err := parseTSConfig([]byte(`{
  "compilerOptions": {
    "paths": {"@weird/*": ["dir//nested/*"]}
  }
}`))
	if err != nil {
		t.Fatalf("parseTSConfig: %v", err)
	}
	if data.Patterns[0].Replacements[0] != "dir//nested/*" {
		t.Errorf("replacement = %q, comment stripping corrupted a string", data.Patterns[0].Replacements[0])
	}
}

func TestParseTSConfigMissingPaths(t *testing.T) {
	data, err := parseTSConfig([]byte(`{"compilerOptions": {"strict": true}}`))
	if err != nil {
		t.Fatalf("parseTSConfig: %v", err)
	}
	if len(data.Patterns) != 0 {
		t.Errorf("Patterns = %+v, want none", data.Patterns)
	}
	if data.BaseURL != "." {
		t.Errorf("BaseURL = %q, want default", data.BaseURL)
	}
}

func TestParseTSConfigNoCompilerOptions(t *testing.T) {
	data, err := parseTSConfig([]byte(`{"include": ["src"]}`))
	if err != nil {
		t.Fatalf("parseTSConfig: %v", err)
	}
	if len(data.Patterns) != 0 {
		t.Errorf("Patterns = %+v, want none", data.Patterns)
	}
}

func TestCompilePattern(t *testing.T) {
	tests := []struct {
		raw      string
		repls    []string
		ok       bool
		wildcard bool
		prefix   string
		suffix   string
	}{
		{"$lib/*", []string{"src/lib/*"}, true, true, "$lib/", ""},
		{"libs/*/src", []string{"libs/*/src"}, true, true, "libs/", "/src"},
		{"utils", []string{"src/utilities"}, true, false, "", ""},
		{"a/*/b/*", []string{"x/*"}, false, false, "", ""},
		{"", []string{"x"}, false, false, "", ""},
		{"orphan/*", nil, false, false, "", ""},
	}
	for _, tt := range tests {
		p, ok := compilePattern(tt.raw, tt.repls)
		if ok != tt.ok {
			t.Errorf("compilePattern(%q) ok = %v, want %v", tt.raw, ok, tt.ok)
			continue
		}
		if !ok {
			continue
		}
		if p.Wildcard != tt.wildcard || p.Prefix != tt.prefix || p.Suffix != tt.suffix {
			t.Errorf("compilePattern(%q) = %+v, want prefix %q suffix %q", tt.raw, p, tt.prefix, tt.suffix)
		}
	}
}

func TestSanitizeJSONCTrailingCommaInString(t *testing.T) {
	got := string(sanitizeJSONC([]byte(`{"key": "a,}", "other": [1,]}`)))
	want := `{"key": "a,}", "other": [1]}`
	if got != want {
		t.Errorf("sanitizeJSONC = %q, want %q", got, want)
	}
}
