package tomlcfg

import (
	"strings"
	"testing"

	"remap/internal/scope"
)

const cargoManifest = `[package]
name = "app"
version = "0.1.0"

[dependencies]
old-name = "1.0"  # pinned
serde = { version = "1", features = ["derive"] }
renamed = { package = "old-name", version = "1.0" }
old-name-extra = "2.0"

[dev-dependencies]
old-name = { path = "../old-name" }

[build-dependencies]
cc = "1"
`

func TestUpdateDependencyCargo(t *testing.T) {
	s := New(scope.Standard())
	out, changed, err := s.UpdateDependency([]byte(cargoManifest), "old-name", "new-name")
	if err != nil {
		t.Fatal(err)
	}
	if !changed {
		t.Fatal("expected a rewrite")
	}
	text := string(out)
	for _, want := range []string{
		"new-name = \"1.0\"  # pinned",
		"renamed = { package = \"new-name\", version = \"1.0\" }",
		"new-name = { path = \"../old-name\" }",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
	if !strings.Contains(text, "old-name-extra = \"2.0\"") {
		t.Errorf("similarly named dependency must stay intact:\n%s", text)
	}
	if !strings.Contains(text, "name = \"app\"") {
		t.Errorf("package name must stay intact:\n%s", text)
	}
}

func TestUpdateDependencyDottedHeader(t *testing.T) {
	s := New(scope.Standard())
	manifest := "[dependencies.old-name]\nversion = \"1.0\"\nfeatures = [\"full\"]\n"
	out, changed, err := s.UpdateDependency([]byte(manifest), "old-name", "new-name")
	if err != nil {
		t.Fatal(err)
	}
	if !changed {
		t.Fatal("expected a rewrite")
	}
	if !strings.HasPrefix(string(out), "[dependencies.new-name]\n") {
		t.Errorf("got %q", out)
	}
}

const pyprojectManifest = `[project]
name = "app"
dependencies = [
    "requests>=2.0",
    "old-name[cli]>=1.0",
]

[project.optional-dependencies]
dev = ["Old_Name==2.0", "pytest"]

[tool.poetry.dependencies]
old-name = "^1.0"
`

func TestUpdateDependencyPyproject(t *testing.T) {
	s := New(scope.Standard())
	out, changed, err := s.UpdateDependency([]byte(pyprojectManifest), "old-name", "new-name")
	if err != nil {
		t.Fatal(err)
	}
	if !changed {
		t.Fatal("expected a rewrite")
	}
	text := string(out)
	for _, want := range []string{
		`"new-name[cli]>=1.0"`,
		`"new-name==2.0"`,
		"new-name = \"^1.0\"",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
	if !strings.Contains(text, `"requests>=2.0"`) {
		t.Errorf("unrelated requirement must stay intact:\n%s", text)
	}
	if !strings.Contains(text, "name = \"app\"") {
		t.Errorf("project name must stay intact:\n%s", text)
	}
}

func TestUpdateDependencyAbsentReportsFalse(t *testing.T) {
	s := New(scope.Standard())
	manifest := "[dependencies]\nserde = \"1\"\n"
	_, changed, err := s.UpdateDependency([]byte(manifest), "old-name", "new-name")
	if err != nil {
		t.Fatal(err)
	}
	if changed {
		t.Error("absent dependency must report no change")
	}
}

func TestUpdateDependencyMalformedErrors(t *testing.T) {
	s := New(scope.Standard())
	if _, _, err := s.UpdateDependency([]byte("not = = toml\n"), "a", "b"); err == nil {
		t.Error("malformed manifest must error")
	}
}

func TestRenameDeclaration(t *testing.T) {
	s := New(scope.Standard())
	manifest := "[package]\nname = \"old-dir\"\nversion = \"0.1.0\"\n\n[[bin]]\nname = \"old-dir\"\n"
	out, changed := s.RenameDeclaration([]byte(manifest), "old-dir", "new-dir")
	if !changed {
		t.Fatal("expected a rewrite")
	}
	text := string(out)
	if !strings.Contains(text, "[package]\nname = \"new-dir\"") {
		t.Errorf("package name not rewritten:\n%s", text)
	}
	if !strings.Contains(text, "[[bin]]\nname = \"old-dir\"") {
		t.Errorf("bin target name must stay intact:\n%s", text)
	}
}

func TestRenameDeclarationPyproject(t *testing.T) {
	s := New(scope.Standard())
	manifest := "[project]\nname = \"old-dir\"\n\n[tool.poetry]\nname = \"old-dir\"\n"
	out, changed := s.RenameDeclaration([]byte(manifest), "old-dir", "new-dir")
	if !changed {
		t.Fatal("expected a rewrite")
	}
	if strings.Count(string(out), "name = \"new-dir\"") != 2 {
		t.Errorf("both declarations should rewrite:\n%s", out)
	}
}

func TestRenameMemberWorkspace(t *testing.T) {
	s := New(scope.Standard())
	manifest := `[workspace]
members = [
    "crates/old-dir",
    "./crates/keep",
    "crates/*",
]
default-members = ["crates/old-dir"]
`
	out, changed, err := s.RenameMember([]byte(manifest), "crates/old-dir", "crates/new-dir")
	if err != nil {
		t.Fatal(err)
	}
	if !changed {
		t.Fatal("expected a rewrite")
	}
	text := string(out)
	if strings.Count(text, `"crates/new-dir"`) != 2 {
		t.Errorf("member entries not rewritten:\n%s", text)
	}
	if !strings.Contains(text, `"./crates/keep"`) || !strings.Contains(text, `"crates/*"`) {
		t.Errorf("unrelated and glob entries must stay intact:\n%s", text)
	}
}

func TestRenameMemberPathDependencies(t *testing.T) {
	s := New(scope.Standard())
	manifest := `[dependencies]
shared = { path = "../old-dir", version = "1" }

[dependencies.other]
path = "../old-dir"
`
	out, changed, err := s.RenameMember([]byte(manifest), "../old-dir", "../new-dir")
	if err != nil {
		t.Fatal(err)
	}
	if !changed {
		t.Fatal("expected a rewrite")
	}
	if strings.Count(string(out), `path = "../new-dir"`) != 2 {
		t.Errorf("path dependencies not rewritten:\n%s", out)
	}
}

func TestRenameMemberUvWorkspace(t *testing.T) {
	s := New(scope.Standard())
	manifest := "[tool.uv.workspace]\nmembers = [\"packages/old-dir\"]\n"
	out, changed, err := s.RenameMember([]byte(manifest), "packages/old-dir", "packages/new-dir")
	if err != nil {
		t.Fatal(err)
	}
	if !changed {
		t.Fatal("expected a rewrite")
	}
	if !strings.Contains(string(out), `"packages/new-dir"`) {
		t.Errorf("got %q", out)
	}
}

func TestMoveRewritesRelativeValues(t *testing.T) {
	s := New(scope.Standard())
	config := "[db]\nschema = \"../db/old.sql\"\nother = \"../db/keep.sql\"\n"
	out, changed := s.RewriteForMove([]byte(config), "tools/config.toml", "db/old.sql", "db/new.sql")
	if !changed {
		t.Fatal("expected a rewrite")
	}
	text := string(out)
	if !strings.Contains(text, `schema = "../db/new.sql"`) {
		t.Errorf("relative value not rewritten:\n%s", text)
	}
	if !strings.Contains(text, `other = "../db/keep.sql"`) {
		t.Errorf("unrelated value must stay intact:\n%s", text)
	}
}

func TestMoveRecomputesForMovedManifest(t *testing.T) {
	s := New(scope.Standard())
	manifest := "[dependencies]\nshared = { path = \"../shared\" }\n"
	out, changed := s.RewriteForMove([]byte(manifest), "crates/old-dir/Cargo.toml", "crates/old-dir", "libs/deep/new-dir")
	if !changed {
		t.Fatal("expected a rewrite")
	}
	if !strings.Contains(string(out), `path = "../../../crates/shared"`) {
		t.Errorf("got %q", out)
	}
}

func TestMoveLeavesRepoRootedValues(t *testing.T) {
	s := New(scope.Standard())
	config := "[db]\nschema = \"db/old.sql\"\n"
	if _, changed := s.RewriteForMove([]byte(config), "config.toml", "db/old.sql", "db/new.sql"); changed {
		t.Error("repo-rooted values belong to generic text matching")
	}
}

func TestMoveRequiresLiteralScopeOutsideManifests(t *testing.T) {
	sc := scope.Standard()
	sc.UpdateStringLiterals = false
	s := New(sc)
	config := "[db]\nschema = \"../db/old.sql\"\n"
	if _, changed := s.RewriteForMove([]byte(config), "tools/config.toml", "db/old.sql", "db/new.sql"); changed {
		t.Error("config literals are gated by the literal scope toggle")
	}

	manifest := "[dependencies]\nshared = { path = \"../old-dir\" }\n"
	if _, changed := s.RewriteForMove([]byte(manifest), "crates/app/Cargo.toml", "crates/old-dir", "crates/new-dir"); !changed {
		t.Error("manifest path values rewrite regardless of the literal toggle")
	}
}

func TestRenameExactMatches(t *testing.T) {
	s := New(scope.Standard())
	deny := "[[bans.deny]]\nname = \"old-name\"\n\n[bans]\nskip = [\"old-name\", \"old-name-extra\"]\n"
	out, changed := s.RewriteForRename([]byte(deny), "old-name", "new-name")
	if !changed {
		t.Fatal("expected a rewrite")
	}
	text := string(out)
	if strings.Count(text, `"new-name"`) != 2 {
		t.Errorf("exact matches not rewritten:\n%s", text)
	}
	if !strings.Contains(text, `"old-name-extra"`) {
		t.Errorf("partial matches must stay intact:\n%s", text)
	}
}

func TestRenameExactMatchesGated(t *testing.T) {
	sc := scope.Standard()
	sc.UpdateExactMatches = false
	s := New(sc)
	deny := "name = \"old-name\"\n"
	if _, changed := s.RewriteForRename([]byte(deny), "old-name", "new-name"); changed {
		t.Error("exact matches are gated by the scope toggle")
	}
}
