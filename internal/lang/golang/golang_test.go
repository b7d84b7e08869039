package golang

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, root string, rel string, content string) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		t.Fatalf("mkdir %s: %v", rel, err)
	}
	if err := os.WriteFile(full, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
}

const sourceWithImports = `package main

import (
	"fmt"

	helper "example.com/app/internal/old"
	"example.com/app/internal/old/deep"
)

import "example.com/app/internal/other"

func main() {
	fmt.Println(helper.X, deep.Y, other.Z)
}
`

func TestParseImports(t *testing.T) {
	s := New(t.TempDir())
	specs, err := s.ParseImports("cmd/main.go", []byte(sourceWithImports))
	if err != nil {
		t.Fatalf("ParseImports: %v", err)
	}

	want := []string{
		"fmt",
		"example.com/app/internal/old",
		"example.com/app/internal/old/deep",
		"example.com/app/internal/other",
	}
	if len(specs) != len(want) {
		t.Fatalf("got %d imports, want %d: %+v", len(specs), len(want), specs)
	}
	for i, w := range want {
		if specs[i].Specifier != w {
			t.Errorf("specs[%d] = %q, want %q", i, specs[i].Specifier, w)
		}
	}
	if specs[0].Line != 4 {
		t.Errorf("specs[0].Line = %d, want 4", specs[0].Line)
	}
}

func TestParseImportsSkipsManifests(t *testing.T) {
	s := New(t.TempDir())
	specs, err := s.ParseImports("go.mod", []byte("module example.com/app\n"))
	if err != nil || specs != nil {
		t.Errorf("go.mod should yield no imports, got %v, %v", specs, err)
	}
}

func TestResolveSpecifier(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "go.mod", "module example.com/app\n\ngo 1.22\n")
	writeFile(t, root, "internal/util/util.go", "package util\n")

	s := New(root)
	resolved, ok := s.ResolveSpecifier("example.com/app/internal/util", "cmd/main.go")
	if !ok || resolved != "internal/util" {
		t.Errorf("got %q, %v; want internal/util", resolved, ok)
	}

	if _, ok := s.ResolveSpecifier("github.com/spf13/cobra", "cmd/main.go"); ok {
		t.Error("external module should not resolve")
	}
	if _, ok := s.ResolveSpecifier("example.com/app/internal/missing", "cmd/main.go"); ok {
		t.Error("missing directory should not resolve")
	}
}

func TestResolvePrefersNearestModule(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "go.mod", "module example.com/app\n")
	writeFile(t, root, "tools/go.mod", "module example.com/tools\n")
	writeFile(t, root, "tools/gen/gen.go", "package gen\n")

	s := New(root)
	resolved, ok := s.ResolveSpecifier("example.com/tools/gen", "tools/main.go")
	if !ok || resolved != "tools/gen" {
		t.Errorf("got %q, %v; want tools/gen", resolved, ok)
	}
	if _, ok := s.ResolveSpecifier("example.com/app/tools/gen", "tools/main.go"); ok {
		t.Error("outer module path should not resolve from inside the nested module")
	}
}

func TestMoveRewritesImports(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "go.mod", "module example.com/app\n")

	s := New(root)
	out, changed := s.RewriteForMove([]byte(sourceWithImports), "cmd/main.go", "internal/old", "internal/new")
	if !changed {
		t.Fatal("expected a rewrite")
	}
	got := string(out)
	if !strings.Contains(got, `helper "example.com/app/internal/new"`) {
		t.Errorf("aliased import not rewritten: %q", got)
	}
	if !strings.Contains(got, `"example.com/app/internal/new/deep"`) {
		t.Errorf("nested import not rewritten: %q", got)
	}
	if !strings.Contains(got, `"example.com/app/internal/other"`) {
		t.Errorf("unrelated import changed: %q", got)
	}
}

func TestMoveLeavesWholeModuleMoves(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "go.mod", "module example.com/app\n")
	writeFile(t, root, "lib/go.mod", "module example.com/lib\n")

	s := New(root)
	src := "package main\n\nimport \"example.com/lib\"\n"
	if _, changed := s.RewriteForMove([]byte(src), "cmd/main.go", "lib", "pkg/lib"); changed {
		t.Error("moving a whole nested module should not rewrite its import path")
	}
}

func TestMoveRewritesReplaceDirective(t *testing.T) {
	root := t.TempDir()
	s := New(root)
	mod := "module example.com/tools\n\nrequire example.com/dep v0.0.0\n\nreplace example.com/dep => ../old-dir\n"
	out, changed := s.RewriteForMove([]byte(mod), "tools/go.mod", "old-dir", "new-dir")
	if !changed {
		t.Fatal("expected a rewrite")
	}
	if !strings.Contains(string(out), "=> ../new-dir") {
		t.Errorf("replace target not rewritten: %q", out)
	}
}

func TestMoveRewritesGoWorkUse(t *testing.T) {
	root := t.TempDir()
	s := New(root)
	work := "go 1.22\n\nuse (\n\t./tools\n\t./services/api\n)\n\nuse ./old-dir\n"
	out, changed := s.RewriteForMove([]byte(work), "go.work", "services/api", "apps/api")
	if !changed {
		t.Fatal("expected a rewrite")
	}
	got := string(out)
	if !strings.Contains(got, "\t./apps/api\n") {
		t.Errorf("use block entry not rewritten: %q", got)
	}
	if !strings.Contains(got, "use ./old-dir") || !strings.Contains(got, "./tools") {
		t.Errorf("unrelated entries changed: %q", got)
	}
}

func TestRenameDeclarationModulePath(t *testing.T) {
	s := New(t.TempDir())
	mod := "module example.com/acme/old-lib\n\ngo 1.22\n"
	out, changed := s.RenameDeclaration([]byte(mod), "old-lib", "new-lib")
	if !changed {
		t.Fatal("expected a rewrite")
	}
	if !strings.HasPrefix(string(out), "module example.com/acme/new-lib\n") {
		t.Errorf("got %q", out)
	}

	if _, changed := s.RenameDeclaration([]byte(mod), "other", "x"); changed {
		t.Error("mismatched final segment should not rewrite")
	}
}

func TestRenameDeclarationPackageClause(t *testing.T) {
	s := New(t.TempDir())
	src := "// Package old_lib does things.\npackage old_lib\n\nvar X = 1\n"
	out, changed := s.RenameDeclaration([]byte(src), "old-lib", "new-lib")
	if !changed {
		t.Fatal("expected a rewrite")
	}
	if !strings.Contains(string(out), "\npackage new_lib\n") {
		t.Errorf("got %q", out)
	}

	if _, changed := s.RenameDeclaration([]byte("package main\n"), "main", "other"); changed {
		t.Error("package main must never rename")
	}
}
