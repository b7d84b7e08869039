package typescript

import (
	"encoding/json"
	"strings"
	"testing"

	"remap/internal/errors"
)

func TestUpdateDependencyRenamesAcrossSections(t *testing.T) {
	manifest := `{
  "name": "consumer",
  "version": "1.0.0",
  "dependencies": {
    "old-pkg": "workspace:*",
    "react": "^18.0.0"
  },
  "devDependencies": {
    "old-pkg": "workspace:*"
  }
}`
	s := newSupport(t.TempDir())
	out, changed, err := s.UpdateDependency([]byte(manifest), "old-pkg", "new-pkg")
	if err != nil {
		t.Fatalf("UpdateDependency: %v", err)
	}
	if !changed {
		t.Fatal("expected a change")
	}
	want := strings.ReplaceAll(manifest, `"old-pkg"`, `"new-pkg"`)
	if string(out) != want {
		t.Errorf("out =\n%s\nwant\n%s", out, want)
	}
}

func TestUpdateDependencyMissing(t *testing.T) {
	manifest := `{"name": "a", "dependencies": {"react": "^18.0.0"}}`
	s := newSupport(t.TempDir())
	out, changed, err := s.UpdateDependency([]byte(manifest), "old-pkg", "new-pkg")
	if err != nil {
		t.Fatalf("UpdateDependency: %v", err)
	}
	if changed || string(out) != manifest {
		t.Errorf("expected no change, got %q", out)
	}
}

func TestUpdateDependencyMalformed(t *testing.T) {
	s := newSupport(t.TempDir())
	_, _, err := s.UpdateDependency([]byte(`{"dependencies": `), "a", "b")
	if err == nil {
		t.Fatal("expected an error for truncated JSON")
	}
	if errors.CodeOf(err) != errors.ManifestMalformed {
		t.Errorf("code = %v, want ManifestMalformed", errors.CodeOf(err))
	}
}

func TestUpdateDependencyIgnoresOtherSections(t *testing.T) {
	manifest := `{
  "name": "a",
  "scripts": {
    "old-pkg": "echo hi"
  },
  "dependencies": {
    "react": "^18.0.0"
  }
}`
	s := newSupport(t.TempDir())
	out, changed, err := s.UpdateDependency([]byte(manifest), "old-pkg", "new-pkg")
	if err != nil {
		t.Fatalf("UpdateDependency: %v", err)
	}
	if changed {
		t.Errorf("scripts entry must not be treated as a dependency: %s", out)
	}
}

func TestRenameDeclarationTopLevelNameOnly(t *testing.T) {
	manifest := `{
  "name": "old-pkg",
  "author": {
    "name": "old-pkg"
  }
}`
	s := newSupport(t.TempDir())
	out, changed := s.RenameDeclaration([]byte(manifest), "old-pkg", "new-pkg")
	if !changed {
		t.Fatal("expected a change")
	}

	var parsed struct {
		Name   string `json:"name"`
		Author struct {
			Name string `json:"name"`
		} `json:"author"`
	}
	if err := json.Unmarshal(out, &parsed); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, out)
	}
	if parsed.Name != "new-pkg" {
		t.Errorf("name = %q, want new-pkg", parsed.Name)
	}
	if parsed.Author.Name != "old-pkg" {
		t.Errorf("author.name = %q, want old-pkg untouched", parsed.Author.Name)
	}
}

func TestRenameMemberArrayForm(t *testing.T) {
	manifest := `{
  "name": "monorepo",
  "private": true,
  "workspaces": [
    "packages/old-lib",
    "apps/web"
  ]
}`
	s := newSupport(t.TempDir())
	out, changed, err := s.RenameMember([]byte(manifest), "packages/old-lib", "packages/new-lib")
	if err != nil {
		t.Fatalf("RenameMember: %v", err)
	}
	if !changed {
		t.Fatal("expected a change")
	}
	want := strings.ReplaceAll(manifest, "packages/old-lib", "packages/new-lib")
	if string(out) != want {
		t.Errorf("out =\n%s\nwant\n%s", out, want)
	}
}

func TestRenameMemberYarnObjectForm(t *testing.T) {
	manifest := `{
  "workspaces": {
    "packages": [
      "packages/old-lib"
    ],
    "nohoist": [
      "**/react-native"
    ]
  }
}`
	s := newSupport(t.TempDir())
	out, changed, err := s.RenameMember([]byte(manifest), "packages/old-lib", "packages/new-lib")
	if err != nil || !changed {
		t.Fatalf("RenameMember: changed=%v err=%v", changed, err)
	}
	if !strings.Contains(string(out), `"packages/new-lib"`) {
		t.Errorf("member not renamed:\n%s", out)
	}
	if !strings.Contains(string(out), `"**/react-native"`) {
		t.Errorf("nohoist entry lost:\n%s", out)
	}
}

func TestRenameMemberPathDependencies(t *testing.T) {
	manifest := `{
  "dependencies": {
    "local-lib": "file:../old-lib",
    "rel-lib": "./libs/old"
  }
}`
	s := newSupport(t.TempDir())

	out, changed, err := s.RenameMember([]byte(manifest), "../old-lib", "../new-lib")
	if err != nil || !changed {
		t.Fatalf("RenameMember: changed=%v err=%v", changed, err)
	}
	if !strings.Contains(string(out), `"file:../new-lib"`) {
		t.Errorf("file: prefix not preserved:\n%s", out)
	}

	out, changed, err = s.RenameMember([]byte(manifest), "libs/old", "libs/new")
	if err != nil || !changed {
		t.Fatalf("RenameMember: changed=%v err=%v", changed, err)
	}
	if !strings.Contains(string(out), `"./libs/new"`) {
		t.Errorf("./ style not preserved:\n%s", out)
	}
}

func TestRenameMemberNotListed(t *testing.T) {
	manifest := `{"workspaces": ["packages/a"]}`
	s := newSupport(t.TempDir())
	out, changed, err := s.RenameMember([]byte(manifest), "packages/b", "packages/c")
	if err != nil {
		t.Fatalf("RenameMember: %v", err)
	}
	if changed || string(out) != manifest {
		t.Errorf("expected no change, got %q", out)
	}
}

func TestRenameMemberPnpmWorkspace(t *testing.T) {
	manifest := `packages:
  - 'packages/old-lib'
  - "apps/web"
  - tools/scripts
`
	s := newSupport(t.TempDir())
	out, changed, err := s.RenameMember([]byte(manifest), "packages/old-lib", "packages/new-lib")
	if err != nil || !changed {
		t.Fatalf("RenameMember: changed=%v err=%v", changed, err)
	}
	want := `packages:
  - 'packages/new-lib'
  - "apps/web"
  - tools/scripts
`
	if string(out) != want {
		t.Errorf("out =\n%s\nwant\n%s", out, want)
	}

	out, changed, err = s.RenameMember([]byte(manifest), "tools/scripts", "tools/bin")
	if err != nil || !changed {
		t.Fatalf("RenameMember: changed=%v err=%v", changed, err)
	}
	if !strings.Contains(string(out), "- tools/bin") {
		t.Errorf("unquoted member not renamed:\n%s", out)
	}
}
