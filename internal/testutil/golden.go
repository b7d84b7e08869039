package testutil

import (
	"bytes"
	"flag"
	"fmt"
	"os"
	"strings"
	"testing"
)

var (
	// updateGolden controls whether golden files should be rewritten.
	// Use: go test ./... -run TestGolden -update
	updateGolden = flag.Bool("update", false, "update golden files")

	// goldenLang filters which fixture languages to test.
	// Use: go test ./... -run TestGolden -goldenLang=go,ts
	goldenLang = flag.String("goldenLang", "", "filter languages (comma-separated: go,ts,py,rs)")
)

// ShouldUpdate reports whether -update was passed.
func ShouldUpdate() bool {
	return *updateGolden
}

// ShouldTestLang reports whether a fixture language passes the
// -goldenLang filter. Short and long language names both match.
func ShouldTestLang(lang string) bool {
	if *goldenLang == "" {
		return true
	}
	for _, l := range strings.Split(*goldenLang, ",") {
		l = strings.TrimSpace(l)
		if l == lang || l == shortLang(lang) || longLang(l) == lang {
			return true
		}
	}
	return false
}

func shortLang(lang string) string {
	switch lang {
	case "typescript":
		return "ts"
	case "python":
		return "py"
	case "golang":
		return "go"
	case "rust":
		return "rs"
	default:
		return lang
	}
}

func longLang(short string) string {
	switch short {
	case "ts":
		return "typescript"
	case "py":
		return "python"
	case "go":
		return "golang"
	case "rs":
		return "rust"
	default:
		return short
	}
}

// CompareGolden normalizes got and compares it against the named
// expected file, failing with a diff on mismatch. With -update the
// expected file is rewritten instead.
func CompareGolden(t *testing.T, fixture *FixtureContext, name string, got any) {
	t.Helper()

	normalized := MarshalNormalized(t, fixture, got)
	goldenPath := fixture.ExpectedPath(name)

	if ShouldUpdate() {
		UpdateGolden(t, fixture, name, normalized)
		t.Logf("Updated golden: %s", goldenPath)
		return
	}

	expected, err := os.ReadFile(goldenPath)
	if err != nil {
		if os.IsNotExist(err) {
			t.Fatalf("Golden file missing: %s\n\nGot:\n%s\n\nRun with -update to create:\n  go test ./... -run %s -update",
				goldenPath, string(normalized), t.Name())
		}
		t.Fatalf("Failed to read golden file: %v", err)
	}

	if !bytes.Equal(normalized, expected) {
		t.Fatalf("Golden mismatch for %s:\n%s\nRun with -update to refresh:\n  go test ./... -run %s -update",
			name, goldenDiff(string(expected), string(normalized), goldenPath), t.Name())
	}
}

// UpdateGolden writes normalized data to the expected file, creating
// the expected/ directory on first use.
func UpdateGolden(t *testing.T, fixture *FixtureContext, name string, data []byte) {
	t.Helper()

	if err := os.MkdirAll(fixture.ExpectedDir, 0o755); err != nil {
		t.Fatalf("Failed to create expected directory: %v", err)
	}
	if err := os.WriteFile(fixture.ExpectedPath(name), data, 0o644); err != nil {
		t.Fatalf("Failed to write golden file: %v", err)
	}
}

// goldenDiff renders the changed region between expected and got as
// one hunk with two lines of context. Equal leading and trailing
// lines are trimmed first, the same prefix/suffix technique the plan
// differ uses on file content.
func goldenDiff(expected, got, path string) string {
	expLines := strings.Split(expected, "\n")
	gotLines := strings.Split(got, "\n")

	prefix := 0
	for prefix < len(expLines) && prefix < len(gotLines) && expLines[prefix] == gotLines[prefix] {
		prefix++
	}
	suffix := 0
	for suffix < len(expLines)-prefix && suffix < len(gotLines)-prefix &&
		expLines[len(expLines)-1-suffix] == gotLines[len(gotLines)-1-suffix] {
		suffix++
	}

	const context = 2
	start := max(0, prefix-context)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "--- %s (expected)\n", path)
	fmt.Fprintf(&buf, "+++ %s (got)\n", path)
	fmt.Fprintf(&buf, "@@ line %d @@\n", start+1)
	for _, line := range expLines[start:prefix] {
		fmt.Fprintf(&buf, " %s\n", line)
	}
	for _, line := range expLines[prefix : len(expLines)-suffix] {
		fmt.Fprintf(&buf, "-%s\n", line)
	}
	for _, line := range gotLines[prefix : len(gotLines)-suffix] {
		fmt.Fprintf(&buf, "+%s\n", line)
	}
	stop := min(len(expLines), len(expLines)-suffix+context)
	for _, line := range expLines[len(expLines)-suffix : stop] {
		fmt.Fprintf(&buf, " %s\n", line)
	}
	return buf.String()
}

// AssertGoldenSlice compares a slice result against its golden file.
func AssertGoldenSlice(t *testing.T, fixture *FixtureContext, name string, got any) {
	t.Helper()
	CompareGolden(t, fixture, name, SliceToMaps(t, got))
}

// AssertGoldenStruct compares a struct result against its golden file.
func AssertGoldenStruct(t *testing.T, fixture *FixtureContext, name string, got any) {
	t.Helper()
	CompareGolden(t, fixture, name, StructToMap(t, got))
}

// ForEachLanguage runs fn once per available fixture language as a
// subtest. Short mode keeps only the first language; -goldenLang
// filters the rest.
func ForEachLanguage(t *testing.T, fn func(t *testing.T, fixture *FixtureContext)) {
	t.Helper()

	langs := AvailableLanguages(t)
	if len(langs) == 0 {
		t.Skip("No fixtures available")
	}
	if testing.Short() && len(langs) > 1 {
		langs = langs[:1]
	}

	for _, lang := range langs {
		if !ShouldTestLang(lang) {
			continue
		}
		t.Run(lang, func(t *testing.T) {
			fn(t, LoadFixture(t, lang))
		})
	}
}
