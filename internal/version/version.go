// Package version carries the build identity stamped into the binary.
package version

import (
	"fmt"
	"strings"
)

// Overridden at release time via ldflags:
// go build -ldflags "-X remap/internal/version.Version=1.0.0 -X remap/internal/version.Commit=abc123"
var (
	// Version is the semantic version of remap
	Version = "0.4.0"

	// Commit is the git commit hash (set at build time)
	Commit = "unknown"

	// BuildDate is the build timestamp (set at build time)
	BuildDate = "unknown"
)

// Short returns the version, with an abbreviated commit when one was
// stamped in.
func Short() string {
	if c := shortCommit(); c != "" {
		return fmt.Sprintf("%s (%s)", Version, c)
	}
	return Version
}

// Full returns the multi-line form printed by `remap version`.
func Full() string {
	var b strings.Builder
	fmt.Fprintf(&b, "remap version %s\n", Version)
	fmt.Fprintf(&b, "Commit: %s\n", Commit)
	fmt.Fprintf(&b, "Built: %s", BuildDate)
	return b.String()
}

// shortCommit abbreviates the stamped commit to seven characters, or
// reports empty when no real hash is present.
func shortCommit() string {
	if Commit == "unknown" || len(Commit) <= 7 {
		return ""
	}
	return Commit[:7]
}
