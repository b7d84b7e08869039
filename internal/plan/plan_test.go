package plan

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"remap/internal/logging"
	"remap/internal/scope"
)

func TestHashContentDeterministic(t *testing.T) {
	a := HashContent([]byte("import { x } from './utils'\n"))
	b := HashContent([]byte("import { x } from './utils'\n"))
	if a != b {
		t.Error("identical content produced different hashes")
	}
	if len(a) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(a))
	}
	if a == HashContent([]byte("import { x } from './util'\n")) {
		t.Error("different content produced identical hashes")
	}
}

func TestDiffEditsSingleLine(t *testing.T) {
	original := []byte("a\nimport x from 'old/path'\nc\n")
	rewritten := []byte("a\nimport x from 'new/path'\nc\n")

	edits := diffEdits("f.ts", original, rewritten, CategoryImport)
	if len(edits) != 1 {
		t.Fatalf("expected 1 edit, got %d", len(edits))
	}
	e := edits[0]
	if e.Line != 2 {
		t.Errorf("Line = %d, want 2", e.Line)
	}
	if e.Start != 2 {
		t.Errorf("Start = %d, want 2", e.Start)
	}
	if e.OldText != "import x from 'old/path'\n" {
		t.Errorf("OldText = %q", e.OldText)
	}
	if e.NewText != "import x from 'new/path'\n" {
		t.Errorf("NewText = %q", e.NewText)
	}
	// Splicing the edit back must reproduce the rewrite
	spliced := string(original[:e.Start]) + e.NewText + string(original[e.End:])
	if spliced != string(rewritten) {
		t.Errorf("splice mismatch: %q", spliced)
	}
}

func TestDiffEditsMultipleLines(t *testing.T) {
	original := []byte("import a from 'old'\nkeep\nimport b from 'old'\n")
	rewritten := []byte("import a from 'new'\nkeep\nimport b from 'new'\n")

	edits := diffEdits("f.ts", original, rewritten, CategoryImport)
	if len(edits) != 2 {
		t.Fatalf("expected 2 edits, got %d", len(edits))
	}
	if edits[0].Line != 1 || edits[1].Line != 3 {
		t.Errorf("lines = %d, %d; want 1, 3", edits[0].Line, edits[1].Line)
	}
}

func TestDiffEditsLineCountChange(t *testing.T) {
	original := []byte("one\ntwo\nthree\n")
	rewritten := []byte("one\ntwo-a\ntwo-b\nthree\n")

	edits := diffEdits("f.md", original, rewritten, CategoryGenericText)
	if len(edits) != 1 {
		t.Fatalf("expected 1 collapsed edit, got %d", len(edits))
	}
	e := edits[0]
	spliced := string(original[:e.Start]) + e.NewText + string(original[e.End:])
	if spliced != string(rewritten) {
		t.Errorf("splice mismatch: %q", spliced)
	}
}

func TestDiffEditsNoChange(t *testing.T) {
	content := []byte("unchanged\n")
	if edits := diffEdits("f.ts", content, content, CategoryImport); edits != nil {
		t.Errorf("expected nil, got %d edits", len(edits))
	}
}

func TestDiffEditsNoTrailingNewline(t *testing.T) {
	original := []byte("line 'old/x'")
	rewritten := []byte("line 'new/x'")

	edits := diffEdits("f.ts", original, rewritten, CategoryImport)
	if len(edits) != 1 {
		t.Fatalf("expected 1 edit, got %d", len(edits))
	}
	if edits[0].End != len(original) {
		t.Errorf("End = %d, want %d", edits[0].End, len(original))
	}
}

func testOp() Operation {
	return Operation{Kind: OpMove, OldPath: "src/old.ts", NewPath: "src/new.ts"}
}

func TestBuilderDedupByFileLineCategory(t *testing.T) {
	b := NewBuilder(t.TempDir(), testOp(), scope.Standard(), logging.NewNopLogger())
	original := []byte("import x from './old'\n")
	rewritten := []byte("import x from './new'\n")

	// Same rewrite discovered by two detection passes
	b.AddRewrite("a.ts", "", original, rewritten, CategoryImport)
	b.AddRewrite("a.ts", "", original, rewritten, CategoryImport)

	p, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Edits) != 1 {
		t.Errorf("expected dedup to 1 edit, got %d", len(p.Edits))
	}
}

func TestBuilderOverlapPrecedence(t *testing.T) {
	b := NewBuilder(t.TempDir(), testOp(), scope.Standard(), logging.NewNopLogger())
	original := []byte(`"old-pkg": "workspace:*"` + "\n")

	// Generic text and manifest rewrites touching the same range
	b.AddRewrite("package.json", "", original, []byte(`"new-pkg": "workspace:*"`+"\n"), CategoryGenericText)
	b.AddRewrite("package.json", "", original, []byte(`"new-pkg": "workspace:*"`+"\n"), CategoryManifest)

	p, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Edits) != 1 {
		t.Fatalf("expected 1 surviving edit, got %d", len(p.Edits))
	}
	if p.Edits[0].Category != CategoryManifest {
		t.Errorf("surviving category = %s, want manifest", p.Edits[0].Category)
	}
}

func TestBuilderImportBeatsManifest(t *testing.T) {
	b := NewBuilder(t.TempDir(), testOp(), scope.Standard(), logging.NewNopLogger())
	original := []byte("from 'pkg/old'\n")

	b.AddRewrite("a.ts", "", original, []byte("from 'pkg/new'\n"), CategoryManifest)
	b.AddRewrite("a.ts", "", original, []byte("from 'pkg/new'\n"), CategoryImport)

	p, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Edits) != 1 || p.Edits[0].Category != CategoryImport {
		t.Errorf("import edit should win, got %+v", p.Edits)
	}
}

func TestBuilderSortedDeterministic(t *testing.T) {
	makePlan := func() *EditPlan {
		b := NewBuilder(t.TempDir(), testOp(), scope.Standard(), logging.NewNopLogger())
		b.AddRewrite("z.ts", "", []byte("import './old'\n"), []byte("import './new'\n"), CategoryImport)
		b.AddRewrite("a.ts", "", []byte("x\nimport './old'\n"), []byte("x\nimport './new'\n"), CategoryImport)
		b.AddMove("src/z.ts", "dst/z.ts")
		b.AddMove("src/a.ts", "dst/a.ts")
		p, err := b.Build()
		if err != nil {
			t.Fatal(err)
		}
		return p
	}

	p := makePlan()
	if p.Edits[0].File != "a.ts" || p.Edits[1].File != "z.ts" {
		t.Errorf("edits not sorted by file: %s, %s", p.Edits[0].File, p.Edits[1].File)
	}
	if p.Moves[0].OldPath != "src/a.ts" {
		t.Errorf("moves not sorted by old path: %s", p.Moves[0].OldPath)
	}
}

func TestBuilderSummaryComputed(t *testing.T) {
	b := NewBuilder(t.TempDir(), testOp(), scope.Standard(), logging.NewNopLogger())
	b.AddRewrite("a.ts", "", []byte("import './old'\n"), []byte("import './new'\n"), CategoryImport)
	b.AddRewrite("README.md", "", []byte("[x](old)\n"), []byte("[x](new)\n"), CategoryGenericText)
	b.AddMove("src/old.ts", "src/new.ts")
	b.AddWarning("weird.bin", WarnParseFailure, "binary content")
	b.AddUnresolved(UnresolvedReference{File: "a.ts", Line: 9, Specifier: "$lib/old", Reason: "no alias pattern matched"})

	p, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	s := p.Summary
	if s.TotalEdits != 2 {
		t.Errorf("TotalEdits = %d", s.TotalEdits)
	}
	if s.FilesToModify != 2 {
		t.Errorf("FilesToModify = %d", s.FilesToModify)
	}
	if len(s.AffectedFiles) != 2 || s.AffectedFiles[0] != "README.md" {
		t.Errorf("AffectedFiles = %v", s.AffectedFiles)
	}
	if s.EditsByCategory[CategoryImport] != 1 || s.EditsByCategory[CategoryGenericText] != 1 {
		t.Errorf("EditsByCategory = %v", s.EditsByCategory)
	}
	if s.Moves != 1 {
		t.Errorf("Moves = %d", s.Moves)
	}
	if s.UnresolvedReferences != 1 {
		t.Errorf("UnresolvedReferences = %d", s.UnresolvedReferences)
	}
	if s.Warnings == 0 {
		t.Error("Warnings should be counted")
	}
}

func TestBuilderHashesMoveSources(t *testing.T) {
	root := t.TempDir()
	content := []byte("export const x = 1\n")
	if err := os.MkdirAll(filepath.Join(root, "src"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "src", "old.ts"), content, 0o644); err != nil {
		t.Fatal(err)
	}

	b := NewBuilder(root, testOp(), scope.Standard(), logging.NewNopLogger())
	b.AddMove("src/old.ts", "src/new.ts")

	p, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	if p.ContentHashes["src/old.ts"] != HashContent(content) {
		t.Error("move source not hashed")
	}
}

func TestBuilderIncomplete(t *testing.T) {
	b := NewBuilder(t.TempDir(), testOp(), scope.Standard(), logging.NewNopLogger())
	b.MarkIncomplete()

	p, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	if !p.Incomplete {
		t.Error("plan should be flagged incomplete")
	}
	found := false
	for _, w := range p.Warnings {
		if w.Code == WarnScanIncomplete {
			found = true
		}
	}
	if !found {
		t.Error("expected scan_incomplete warning")
	}
}

func TestSplitKeepEnds(t *testing.T) {
	lines := splitKeepEnds("a\nb\nc")
	if len(lines) != 3 || lines[0] != "a\n" || lines[2] != "c" {
		t.Errorf("splitKeepEnds = %q", lines)
	}
	if got := strings.Join(lines, ""); got != "a\nb\nc" {
		t.Errorf("join mismatch: %q", got)
	}
	if splitKeepEnds("") != nil {
		t.Error("empty input should yield nil")
	}
}
