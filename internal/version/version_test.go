package version

import (
	"strings"
	"testing"
)

func stamp(t *testing.T, version, commit, date string) {
	t.Helper()
	origVersion, origCommit, origDate := Version, Commit, BuildDate
	t.Cleanup(func() {
		Version, Commit, BuildDate = origVersion, origCommit, origDate
	})
	Version, Commit, BuildDate = version, commit, date
}

func TestShort(t *testing.T) {
	tests := []struct {
		name    string
		version string
		commit  string
		want    string
	}{
		{name: "unstamped commit", version: "1.0.0", commit: "unknown", want: "1.0.0"},
		{name: "commit too short to abbreviate", version: "1.0.0", commit: "abc", want: "1.0.0"},
		{name: "exactly seven chars", version: "2.0.0", commit: "1234567", want: "2.0.0"},
		{name: "full hash abbreviated", version: "2.0.0", commit: "abc1234567890", want: "2.0.0 (abc1234)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stamp(t, tt.version, tt.commit, BuildDate)
			if got := Short(); got != tt.want {
				t.Errorf("Short() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFull(t *testing.T) {
	stamp(t, "1.2.3", "abcdef123456", "2024-01-15")

	got := Full()

	for _, part := range []string{
		"remap version 1.2.3",
		"Commit: abcdef123456",
		"Built: 2024-01-15",
	} {
		if !strings.Contains(got, part) {
			t.Errorf("Full() = %q, want to contain %q", got, part)
		}
	}
	if strings.HasSuffix(got, "\n") {
		t.Error("Full() should not end with a newline; callers println it")
	}
}

func TestDefaultVersionIsSemver(t *testing.T) {
	if Version == "" {
		t.Error("Version should not be empty")
	}
	if parts := strings.Split(Version, "."); len(parts) < 2 {
		t.Errorf("Version %q doesn't appear to be semver", Version)
	}
}
