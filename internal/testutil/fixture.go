// Package testutil is the golden-test harness. It loads language
// fixtures from testdata/fixtures, scrubs scan results into a stable
// form, and compares them against checked-in expected/ JSON.
package testutil

import (
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"testing"
)

// FixtureContext holds information about a loaded fixture.
type FixtureContext struct {
	// Language is the fixture language (e.g., "golang", "typescript")
	Language string

	// Root is a scratch copy of the fixture tree under t.TempDir.
	// Tests scan and mutate this copy freely.
	Root string

	// ExpectedDir is the expected/ directory inside the checked-in
	// fixture. Golden updates write here, never into Root.
	ExpectedDir string
}

// LoadFixture loads a language fixture, failing the test on error.
// The fixture is copied into a temp directory with expected/ left
// out, so golden JSON never shows up in scan results.
func LoadFixture(t *testing.T, lang string) *FixtureContext {
	t.Helper()

	fixtureDir := filepath.Join(fixturesRoot(t), lang)
	if _, err := os.Stat(fixtureDir); err != nil {
		t.Fatalf("fixture %q: %v", lang, err)
	}

	scratch := t.TempDir()
	if err := copyTree(fixtureDir, scratch, "expected"); err != nil {
		t.Fatalf("copy fixture %q: %v", lang, err)
	}

	expectedDir := filepath.Join(fixtureDir, "expected")
	if err := os.MkdirAll(expectedDir, 0o755); err != nil {
		t.Fatalf("create %s: %v", expectedDir, err)
	}

	return &FixtureContext{
		Language:    lang,
		Root:        scratch,
		ExpectedDir: expectedDir,
	}
}

// ExpectedPath returns the path to a golden file within the fixture.
// The name should not include the .json extension.
func (f *FixtureContext) ExpectedPath(name string) string {
	return filepath.Join(f.ExpectedDir, name+".json")
}

// fixturesRoot locates testdata/fixtures relative to this source
// file, so tests pass no matter which package directory go test runs
// in.
func fixturesRoot(t *testing.T) string {
	t.Helper()

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("runtime.Caller failed; cannot locate testdata/fixtures")
	}

	// internal/testutil -> project root
	dir := filepath.Clean(filepath.Join(filepath.Dir(thisFile), "..", "..", "testdata", "fixtures"))
	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("fixtures root: %v", err)
	}
	return dir
}

// AvailableLanguages lists the fixture languages checked in under
// testdata/fixtures, sorted by name.
func AvailableLanguages(t *testing.T) []string {
	t.Helper()

	entries, err := os.ReadDir(fixturesRoot(t))
	if err != nil {
		t.Fatalf("read fixtures root: %v", err)
	}

	langs := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		langs = append(langs, e.Name())
	}
	sort.Strings(langs)
	return langs
}

// copyTree copies src into dst, skipping directories named skipDir.
// Fixtures hold regular files only; anything else is ignored.
func copyTree(src, dst, skipDir string) error {
	return filepath.Walk(src, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		if info.IsDir() {
			if info.Name() == skipDir {
				return filepath.SkipDir
			}
			return os.MkdirAll(filepath.Join(dst, rel), info.Mode().Perm())
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		return copyFile(p, filepath.Join(dst, rel), info.Mode().Perm())
	})
}

func copyFile(src, dst string, perm os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
