package scan

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"remap/internal/errors"
	"remap/internal/paths"
	"remap/internal/plan"
)

// manifestFilenames mark a directory as a package. A moved package
// directory additionally triggers manifest and workspace updates.
var manifestFilenames = []string{
	"Cargo.toml",
	"package.json",
	"pyproject.toml",
	"go.mod",
}

// DetectOperation validates a rename or move request and classifies it.
// Both arguments may be absolute or repo-relative. The source must
// exist and the destination must not, except for a case-only rename of
// the same file on a case-insensitive filesystem.
func DetectOperation(repoRoot, oldArg, newArg string) (plan.Operation, error) {
	var op plan.Operation

	oldAbs := absolutize(repoRoot, oldArg)
	newAbs := absolutize(repoRoot, newArg)

	oldCanonical, err := paths.CanonicalizePath(oldAbs, repoRoot)
	if err != nil {
		return op, errors.NewRemapError(errors.IOFailure, fmt.Sprintf("cannot resolve %s", oldArg), err)
	}
	newCanonical, err := paths.CanonicalizePath(newAbs, repoRoot)
	if err != nil {
		return op, errors.NewRemapError(errors.IOFailure, fmt.Sprintf("cannot resolve %s", newArg), err)
	}
	if strings.HasPrefix(oldCanonical, "..") {
		return op, errors.NewRemapError(errors.TargetMissing, fmt.Sprintf("%s is outside the repository", oldArg), nil)
	}
	if strings.HasPrefix(newCanonical, "..") {
		return op, errors.NewRemapError(errors.NameCollision, fmt.Sprintf("%s is outside the repository", newArg), nil)
	}

	oldInfo, err := os.Stat(oldAbs)
	if err != nil {
		return op, errors.NewRemapError(errors.TargetMissing, fmt.Sprintf("%s does not exist", oldCanonical), err)
	}
	if newInfo, err := os.Stat(newAbs); err == nil {
		// Renaming README.md to Readme.md stats the same inode on
		// case-insensitive filesystems; that rename is legal.
		if !os.SameFile(oldInfo, newInfo) || oldCanonical == newCanonical {
			return op, errors.NewRemapError(errors.NameCollision, fmt.Sprintf("%s already exists", newCanonical), nil)
		}
	}
	if oldCanonical == newCanonical {
		return op, errors.NewRemapError(errors.NameCollision, "source and destination are the same path", nil)
	}
	if oldInfo.IsDir() && strings.HasPrefix(newCanonical, oldCanonical+"/") {
		return op, errors.NewRemapError(errors.NameCollision, fmt.Sprintf("cannot move %s into itself", oldCanonical), nil)
	}

	op.OldPath = oldCanonical
	op.NewPath = newCanonical
	op.IsDir = oldInfo.IsDir()
	if path.Dir(oldCanonical) == path.Dir(newCanonical) {
		op.Kind = plan.OpRename
	} else {
		op.Kind = plan.OpMove
	}
	if op.IsDir {
		if _, ok := packageManifest(oldAbs); ok {
			op.IsPackage = true
			op.OldName = path.Base(oldCanonical)
			op.NewName = path.Base(newCanonical)
		}
	}
	return op, nil
}

// EnumerateMoves expands an operation into per-file moves. A file
// operation yields one entry; a directory operation yields one entry
// per contained file, with dependency and build directories pruned.
func EnumerateMoves(repoRoot string, op plan.Operation) ([]plan.FileMove, error) {
	if !op.IsDir {
		return []plan.FileMove{{OldPath: op.OldPath, NewPath: op.NewPath}}, nil
	}

	root := paths.JoinRepoPath(repoRoot, op.OldPath)
	var moves []plan.FileMove
	err := filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if p != root && skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return nil
		}
		sub := paths.NormalizePath(rel)
		moves = append(moves, plan.FileMove{
			OldPath: op.OldPath + "/" + sub,
			NewPath: op.NewPath + "/" + sub,
		})
		return nil
	})
	if err != nil {
		return nil, errors.NewRemapError(errors.IOFailure, fmt.Sprintf("cannot enumerate %s", op.OldPath), err)
	}
	return moves, nil
}

// packageManifest reports the manifest filename found directly in dir.
func packageManifest(dir string) (string, bool) {
	for _, name := range manifestFilenames {
		if info, err := os.Stat(filepath.Join(dir, name)); err == nil && !info.IsDir() {
			return name, true
		}
	}
	return "", false
}

func absolutize(repoRoot, arg string) string {
	if filepath.IsAbs(arg) {
		return filepath.Clean(arg)
	}
	return filepath.Join(repoRoot, filepath.FromSlash(arg))
}
