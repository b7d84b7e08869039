package markdown

import (
	"strings"
	"testing"

	"remap/internal/scope"
)

func rewriteMove(t *testing.T, sc *scope.Scope, content, contextFile, oldPath, newPath string) (string, bool) {
	t.Helper()
	out, changed := New(sc).RewriteForMove([]byte(content), contextFile, oldPath, newPath)
	return string(out), changed
}

func TestMoveRewritesInlineLink(t *testing.T) {
	content := `See [the helpers](src/utils/helpers.ts#parsing "Utility helpers") for details.`
	out, changed := rewriteMove(t, scope.Standard(), content, "README.md", "src/utils/helpers.ts", "src/common/helpers.ts")
	if !changed {
		t.Fatal("expected a rewrite")
	}
	want := `See [the helpers](src/common/helpers.ts#parsing "Utility helpers") for details.`
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

func TestMoveKeepsImageMarker(t *testing.T) {
	content := `![flow diagram](assets/flow.png)`
	out, changed := rewriteMove(t, scope.Standard(), content, "README.md", "assets/flow.png", "docs/img/flow.png")
	if !changed {
		t.Fatal("expected a rewrite")
	}
	if out != `![flow diagram](docs/img/flow.png)` {
		t.Errorf("got %q", out)
	}
}

func TestMoveRewritesReferenceDefinition(t *testing.T) {
	content := "Read the [guide][g].\n\n[g]: docs/setup.md \"Setup guide\"\n"
	out, changed := rewriteMove(t, scope.Standard(), content, "README.md", "docs/setup.md", "docs/install.md")
	if !changed {
		t.Fatal("expected a rewrite")
	}
	if !strings.Contains(out, "[g]: docs/install.md \"Setup guide\"") {
		t.Errorf("reference definition not rewritten: %q", out)
	}
}

func TestMoveRewritesAutolink(t *testing.T) {
	content := `Full schema at <docs/schema.md>.`
	out, changed := rewriteMove(t, scope.Standard(), content, "README.md", "docs/schema.md", "reference/schema.md")
	if !changed {
		t.Fatal("expected a rewrite")
	}
	if out != `Full schema at <reference/schema.md>.` {
		t.Errorf("got %q", out)
	}
}

func TestMoveResolvesRelativeDestination(t *testing.T) {
	content := `[implementation](../src/old.ts)`
	out, changed := rewriteMove(t, scope.Standard(), content, "docs/guide.md", "src/old.ts", "lib/new.ts")
	if !changed {
		t.Fatal("expected a rewrite")
	}
	if out != `[implementation](../lib/new.ts)` {
		t.Errorf("got %q", out)
	}
}

func TestMovePreservesDotSlashPrefix(t *testing.T) {
	content := `[entry](./src/old.ts)`
	out, changed := rewriteMove(t, scope.Standard(), content, "README.md", "src/old.ts", "lib/new.ts")
	if !changed {
		t.Fatal("expected a rewrite")
	}
	if out != `[entry](./lib/new.ts)` {
		t.Errorf("got %q", out)
	}
}

func TestMoveRecomputesForMovedDocument(t *testing.T) {
	content := `[util](../src/util.ts)`
	out, changed := rewriteMove(t, scope.Standard(), content, "docs/guide.md", "docs/guide.md", "docs/sub/guide.md")
	if !changed {
		t.Fatal("expected a rewrite")
	}
	if out != `[util](../../src/util.ts)` {
		t.Errorf("got %q", out)
	}
}

func TestMoveRewritesDirectoryPrefix(t *testing.T) {
	content := "[a](src/old-dir/file.ts)\n[b](src/old-dir)\n"
	out, changed := rewriteMove(t, scope.Standard(), content, "README.md", "src/old-dir", "src/new-dir")
	if !changed {
		t.Fatal("expected a rewrite")
	}
	if !strings.Contains(out, "(src/new-dir/file.ts)") || !strings.Contains(out, "(src/new-dir)") {
		t.Errorf("directory references not rewritten: %q", out)
	}
}

func TestMoveSkipsFencedCode(t *testing.T) {
	content := "Read [guide](docs/old.md).\n\n```\nimport doc from 'docs/old.md';\n[link](docs/old.md)\n```\n"
	out, changed := rewriteMove(t, scope.Everything(), content, "README.md", "docs/old.md", "docs/new.md")
	if !changed {
		t.Fatal("expected a rewrite")
	}
	if !strings.Contains(out, "[guide](docs/new.md)") {
		t.Errorf("link outside code not rewritten: %q", out)
	}
	if !strings.Contains(out, "import doc from 'docs/old.md';") || !strings.Contains(out, "[link](docs/old.md)") {
		t.Errorf("fenced code was modified: %q", out)
	}
}

func TestMoveLeavesExternalLinks(t *testing.T) {
	content := `[mirror](https://example.com/src/old.ts)`
	if _, changed := rewriteMove(t, scope.Everything(), content, "README.md", "src/old.ts", "lib/new.ts"); changed {
		t.Error("external URL should not be rewritten")
	}
}

func TestProseMentionRequiresProseScope(t *testing.T) {
	content := "The scanner lives in src/old.ts and watches everything.\n"

	if _, changed := rewriteMove(t, scope.Standard(), content, "README.md", "src/old.ts", "lib/new.ts"); changed {
		t.Error("standard scope should not touch prose")
	}

	out, changed := rewriteMove(t, scope.Everything(), content, "README.md", "src/old.ts", "lib/new.ts")
	if !changed {
		t.Fatal("everything scope should rewrite prose mentions")
	}
	if !strings.Contains(out, "lives in lib/new.ts and") {
		t.Errorf("got %q", out)
	}
}

func TestInlineCodeMentionRequiresProseScope(t *testing.T) {
	content := "Run the checks against `src/old.ts` before merging.\n"

	if _, changed := rewriteMove(t, scope.Standard(), content, "README.md", "src/old.ts", "lib/new.ts"); changed {
		t.Error("standard scope should not touch inline code")
	}

	out, changed := rewriteMove(t, scope.Everything(), content, "README.md", "src/old.ts", "lib/new.ts")
	if !changed {
		t.Fatal("everything scope should rewrite inline code")
	}
	if !strings.Contains(out, "`lib/new.ts`") {
		t.Errorf("got %q", out)
	}
}

func TestProseSkipsUnboundedMentions(t *testing.T) {
	content := "Deep link: vendor/src/old.ts and src/old.tsx are different.\n"
	if _, changed := rewriteMove(t, scope.Everything(), content, "README.md", "src/old.ts", "lib/new.ts"); changed {
		t.Error("embedded and extended mentions should not match")
	}
}

func TestRenameRewritesCodeSpansOnly(t *testing.T) {
	content := "Install `old-lib` from the registry. The old-lib project moved.\n"

	if _, changed := New(scope.Standard()).RewriteForRename([]byte(content), "old-lib", "new-lib"); changed {
		t.Error("standard scope should not rename doc mentions")
	}

	out, changed := New(scope.Everything()).RewriteForRename([]byte(content), "old-lib", "new-lib")
	if !changed {
		t.Fatal("expected a rewrite")
	}
	got := string(out)
	if !strings.Contains(got, "`new-lib`") {
		t.Errorf("code span not renamed: %q", got)
	}
	if !strings.Contains(got, "The old-lib project moved.") {
		t.Errorf("prose mention should stay: %q", got)
	}
}

func TestMoveNoChangeReportsFalse(t *testing.T) {
	content := `[elsewhere](src/other.ts)`
	if _, changed := rewriteMove(t, scope.Everything(), content, "README.md", "src/old.ts", "lib/new.ts"); changed {
		t.Error("unrelated document should be untouched")
	}
}
