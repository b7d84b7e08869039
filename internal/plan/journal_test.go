package plan

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"remap/internal/compression"
	"remap/internal/errors"
	"remap/internal/logging"
	"remap/internal/scope"
)

func openTestJournal(t *testing.T, maxPlans int) (*Journal, string) {
	t.Helper()
	root := t.TempDir()
	j, err := OpenJournal(root, maxPlans, logging.NewNopLogger())
	if err != nil {
		t.Fatalf("OpenJournal: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j, root
}

func samplePlan(id string, createdAt time.Time) *EditPlan {
	p := &EditPlan{
		ID:        id,
		Version:   SchemaVersion,
		CreatedAt: createdAt,
		Operation: Operation{Kind: OpMove, OldPath: "src/a.ts", NewPath: "src/b.ts"},
		Scope:     scope.Standard(),
		Edits: []TextEdit{{
			File: "main.ts", Category: CategoryImport, Line: 1,
			Start: 0, End: 20, OldText: "import './src/a'\n", NewText: "import './src/b'\n",
		}},
		Moves:         []FileMove{{OldPath: "src/a.ts", NewPath: "src/b.ts"}},
		ContentHashes: map[string]string{"main.ts": HashContent([]byte("x"))},
	}
	p.Summary = computeSummary(p)
	return p
}

func TestJournalSaveLoadRoundTrip(t *testing.T) {
	j, _ := openTestJournal(t, 10)
	p := samplePlan("plan-1", time.Now().UTC().Truncate(time.Millisecond))

	if err := j.Save(p); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := j.Load("plan-1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	want, _ := json.Marshal(p)
	have, _ := json.Marshal(got)
	if string(want) != string(have) {
		t.Errorf("round trip mismatch:\nwant %s\nhave %s", want, have)
	}
}

func TestJournalLoadMissing(t *testing.T) {
	j, _ := openTestJournal(t, 10)
	_, err := j.Load("nope")
	if errors.CodeOf(err) != errors.PlanNotFound {
		t.Errorf("expected PlanNotFound, got %v", err)
	}
}

func TestJournalLatestAndList(t *testing.T) {
	j, _ := openTestJournal(t, 10)
	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		p := samplePlan(fmt.Sprintf("plan-%d", i), base.Add(time.Duration(i)*time.Minute))
		if err := j.Save(p); err != nil {
			t.Fatal(err)
		}
	}

	latest, err := j.Latest()
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if latest.ID != "plan-2" {
		t.Errorf("Latest = %s, want plan-2", latest.ID)
	}

	entries, err := j.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("len(entries) = %d", len(entries))
	}
	if entries[0].ID != "plan-2" || entries[2].ID != "plan-0" {
		t.Errorf("list not newest-first: %s .. %s", entries[0].ID, entries[2].ID)
	}
	if entries[0].Edits != 1 || entries[0].Moves != 1 {
		t.Errorf("entry counts wrong: %+v", entries[0])
	}
}

func TestJournalPruneRetention(t *testing.T) {
	j, _ := openTestJournal(t, 2)
	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		if err := j.Save(samplePlan(fmt.Sprintf("plan-%d", i), base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := j.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("retention kept %d plans, want 2", len(entries))
	}
	if entries[0].ID != "plan-4" || entries[1].ID != "plan-3" {
		t.Errorf("wrong survivors: %s, %s", entries[0].ID, entries[1].ID)
	}
}

func TestJournalMarkAppliedAndDelete(t *testing.T) {
	j, _ := openTestJournal(t, 10)
	if err := j.Save(samplePlan("plan-x", time.Now().UTC())); err != nil {
		t.Fatal(err)
	}

	if err := j.MarkApplied("plan-x"); err != nil {
		t.Fatalf("MarkApplied: %v", err)
	}
	entries, _ := j.List()
	if !entries[0].Applied {
		t.Error("entry should be marked applied")
	}

	if err := j.Delete("plan-x"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := j.Delete("plan-x"); errors.CodeOf(err) != errors.PlanNotFound {
		t.Errorf("second delete should be PlanNotFound, got %v", err)
	}
}

func TestReadPlanFile(t *testing.T) {
	dir := t.TempDir()
	p := samplePlan("file-plan", time.Now().UTC())
	payload, _ := json.Marshal(p)

	plain := filepath.Join(dir, "plan.json")
	if err := os.WriteFile(plain, payload, 0o644); err != nil {
		t.Fatal(err)
	}
	zst := filepath.Join(dir, "plan.json.zst")
	if err := compression.WriteFile(zst, payload, 0o644); err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{plain, zst} {
		got, err := ReadPlanFile(path)
		if err != nil {
			t.Fatalf("ReadPlanFile(%s): %v", path, err)
		}
		if got.ID != "file-plan" {
			t.Errorf("%s: ID = %s", path, got.ID)
		}
	}

	_, err := ReadPlanFile(filepath.Join(dir, "missing.json"))
	if errors.CodeOf(err) != errors.PlanNotFound {
		t.Errorf("expected PlanNotFound, got %v", err)
	}
}
