package paths

import (
	"os"
	"path/filepath"
	"strings"
)

// Directory and file names under the project-local .remap dir.
const (
	// RemapDirName is the project-local state directory
	RemapDirName = ".remap"
	// JournalFile is the SQLite plan journal filename
	JournalFile = "plans.db"
	// ConfigFile is the project configuration filename
	ConfigFile = "config.json"
	// LogsSubdir holds apply audit logs
	LogsSubdir = "logs"
	// ApplyLogFile is the apply audit log filename
	ApplyLogFile = "apply.log"
)

// CanonicalizePath converts an absolute path to a repo-relative canonical path
// - Resolves symlinks to real paths
// - Makes path relative to repo root
// - Converts backslashes to forward slashes
// - Returns repo-relative path with forward slashes
func CanonicalizePath(absolutePath string, repoRoot string) (string, error) {
	// Resolve symlinks
	resolved, err := filepath.EvalSymlinks(absolutePath)
	if err != nil {
		// If the file doesn't exist yet, use the path as-is
		if os.IsNotExist(err) {
			resolved = absolutePath
		} else {
			return "", err
		}
	}

	// Make path relative to repo root
	repoRootResolved, err := filepath.EvalSymlinks(repoRoot)
	if err != nil {
		if os.IsNotExist(err) {
			repoRootResolved = repoRoot
		} else {
			return "", err
		}
	}

	relativePath, err := filepath.Rel(repoRootResolved, resolved)
	if err != nil {
		return "", err
	}

	// Convert to forward slashes (platform independent)
	canonicalPath := filepath.ToSlash(relativePath)

	return canonicalPath, nil
}

// IsWithinRepo checks if a path is within the repository root
func IsWithinRepo(path string, repoRoot string) bool {
	canonical, err := CanonicalizePath(path, repoRoot)
	if err != nil {
		return false
	}

	// Path is outside repo if it starts with ..
	return !strings.HasPrefix(canonical, "..")
}

// NormalizePath normalizes a path by converting backslashes to forward slashes
// This is useful for paths that are already relative but need normalization
func NormalizePath(path string) string {
	return filepath.ToSlash(path)
}

// JoinRepoPath joins a repo root with a canonical path
func JoinRepoPath(repoRoot string, canonicalPath string) string {
	// Ensure we use forward slashes in the canonical path
	normalizedPath := strings.ReplaceAll(canonicalPath, "\\", "/")
	// Convert to OS-specific path separator for joining
	parts := strings.Split(normalizedPath, "/")
	return filepath.Join(append([]string{repoRoot}, parts...)...)
}

// MapMoved maps a canonical path through a rename: p equal to oldPath
// becomes newPath, p under oldPath keeps its suffix under newPath, and
// anything else reports false. The prefix check is segment-aware, so
// moving "lib" never captures "library/x".
func MapMoved(p, oldPath, newPath string) (string, bool) {
	if p == oldPath {
		return newPath, true
	}
	if strings.HasPrefix(p, oldPath+"/") {
		return newPath + p[len(oldPath):], true
	}
	return "", false
}

// RelativeTo expresses a canonical target path relative to a canonical
// directory. fromDir "" or "." returns the target unchanged.
func RelativeTo(fromDir, target string) string {
	if fromDir == "" || fromDir == "." {
		return target
	}
	from := strings.Split(fromDir, "/")
	to := strings.Split(target, "/")
	common := 0
	for common < len(from) && common < len(to) && from[common] == to[common] {
		common++
	}
	parts := make([]string, 0, len(from)-common+len(to)-common)
	for i := common; i < len(from); i++ {
		parts = append(parts, "..")
	}
	parts = append(parts, to[common:]...)
	if len(parts) == 0 {
		return "."
	}
	return strings.Join(parts, "/")
}

// IsAbsSpecifier reports whether an import specifier is an absolute path.
// Both POSIX (leading slash) and Windows (drive letter) forms are
// recognized regardless of the host platform, so plans built on one
// platform read correctly on another.
func IsAbsSpecifier(spec string) bool {
	if spec == "" {
		return false
	}
	if spec[0] == '/' {
		return true
	}
	// Drive-letter form: C:\ or C:/
	if len(spec) >= 3 && isDriveLetter(spec[0]) && spec[1] == ':' {
		return spec[2] == '\\' || spec[2] == '/'
	}
	return false
}

func isDriveLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// knownExtensions are the file extensions treated as path evidence when
// classifying prose tokens. Shared by the scope filter and scanners.
var knownExtensions = map[string]bool{
	".ts": true, ".tsx": true, ".js": true, ".jsx": true, ".mjs": true,
	".cjs": true, ".d.ts": true, ".go": true, ".py": true, ".rs": true,
	".java": true, ".kt": true, ".rb": true, ".c": true, ".h": true,
	".cpp": true, ".hpp": true, ".cs": true, ".swift": true,
	".md": true, ".markdown": true, ".toml": true, ".yaml": true,
	".yml": true, ".json": true, ".txt": true, ".sql": true,
	".sh": true, ".css": true, ".scss": true, ".html": true,
	".svelte": true, ".vue": true, ".png": true, ".svg": true,
}

// HasPathExtension reports whether the token ends with a recognized file
// extension.
func HasPathExtension(token string) bool {
	// .d.ts is two dots deep; check it before the generic split
	if strings.HasSuffix(token, ".d.ts") {
		return true
	}
	ext := strings.ToLower(filepath.Ext(token))
	return knownExtensions[ext]
}

// GetRemapDir returns the project-local state directory path
func GetRemapDir(repoRoot string) string {
	return filepath.Join(repoRoot, RemapDirName)
}

// EnsureRemapDir creates the project-local state directory if needed
func EnsureRemapDir(repoRoot string) (string, error) {
	dir := GetRemapDir(repoRoot)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// GetJournalPath returns the plan journal database path
func GetJournalPath(repoRoot string) string {
	return filepath.Join(GetRemapDir(repoRoot), JournalFile)
}

// GetApplyLogPath returns the apply audit log path
func GetApplyLogPath(repoRoot string) string {
	return filepath.Join(GetRemapDir(repoRoot), LogsSubdir, ApplyLogFile)
}

// GetConfigPath returns the project configuration file path
func GetConfigPath(repoRoot string) string {
	return filepath.Join(GetRemapDir(repoRoot), ConfigFile)
}

// GetSCIPIndexPath returns the SCIP index path for a repo.
// An empty configured path falls back to .scip/index.scip; absolute
// configured paths are used verbatim.
func GetSCIPIndexPath(repoRoot string, configured string) string {
	if configured == "" {
		return filepath.Join(repoRoot, ".scip", "index.scip")
	}
	if filepath.IsAbs(configured) {
		return configured
	}
	return filepath.Join(repoRoot, configured)
}
