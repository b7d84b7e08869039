// Package apply commits edit plans to the working tree. Edits land
// before moves, every file is re-verified against its plan-time hash
// immediately before writing, and a dry run walks the identical code
// path with the writes skipped so preview can never diverge from
// execution.
package apply

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"remap/internal/config"
	"remap/internal/errors"
	"remap/internal/logging"
	"remap/internal/paths"
	"remap/internal/plan"
	"remap/internal/slogutil"
)

// Engine applies plans against one repository root.
type Engine struct {
	repoRoot string
	logger   *logging.Logger
	audit    *slog.Logger
	auditC   io.Closer
}

// New creates an apply engine. When auditing is enabled every write
// and move is appended to .remap/logs/apply.log with rotation.
func New(repoRoot string, cfg config.ApplyConfig, logger *logging.Logger) (*Engine, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	e := &Engine{repoRoot: repoRoot, logger: logger}
	if cfg.AuditLog {
		logPath := paths.GetApplyLogPath(repoRoot)
		if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
			return nil, errors.NewRemapError(errors.IOFailure, "cannot create audit log directory", err)
		}
		audit, closer, err := slogutil.NewAuditLogger(logPath, slog.LevelInfo, cfg.AuditLogMaxSize, cfg.AuditLogBackups)
		if err != nil {
			return nil, errors.NewRemapError(errors.IOFailure, "cannot open audit log", err)
		}
		e.audit = audit
		e.auditC = closer
	} else {
		e.audit = slogutil.NewDiscardLogger()
	}
	return e, nil
}

// Close releases the audit log handle.
func (e *Engine) Close() error {
	if e.auditC != nil {
		return e.auditC.Close()
	}
	return nil
}

// Options controls a single apply call.
type Options struct {
	// DryRun verifies and counts without touching the tree
	DryRun bool
}

// Conflict is a per-file failure that did not stop the rest of the
// apply. Code is an error code string such as STALE_CONTENT.
type Conflict struct {
	File   string `json:"file"`
	Code   string `json:"code"`
	Detail string `json:"detail"`
}

// Result reports what an apply (or dry run) did. Summary carries the
// plan's own summary so both calls share one schema.
type Result struct {
	PlanID       string       `json:"planId"`
	DryRun       bool         `json:"dryRun"`
	AppliedEdits int          `json:"appliedEdits"`
	AppliedMoves int          `json:"appliedMoves"`
	SkippedFiles []string     `json:"skippedFiles,omitempty"`
	Conflicts    []Conflict   `json:"conflicts,omitempty"`
	Summary      plan.Summary `json:"summary"`
}

// Apply commits a plan: content edits first, at each file's current
// on-disk location, then the renames and moves. Files whose content no
// longer matches the plan-time hash are skipped and reported as
// conflicts; the rest of the plan still applies.
func (e *Engine) Apply(p *plan.EditPlan, opts Options) (*Result, error) {
	if p == nil {
		return nil, errors.NewRemapError(errors.InternalError, "nil plan", nil)
	}
	if p.Incomplete {
		return nil, errors.NewRemapError(errors.PlanIncomplete,
			"plan was built from an interrupted scan; re-run planning before applying", nil)
	}

	res := &Result{PlanID: p.ID, DryRun: opts.DryRun, Summary: p.Summary}
	e.audit.Info("apply_started",
		"planId", p.ID,
		"dryRun", opts.DryRun,
		"edits", len(p.Edits),
		"moves", len(p.Moves),
	)

	e.applyEdits(p, opts, res)
	e.applyMoves(p, opts, res)

	e.audit.Info("apply_finished",
		"planId", p.ID,
		"dryRun", opts.DryRun,
		"appliedEdits", res.AppliedEdits,
		"appliedMoves", res.AppliedMoves,
		"conflicts", len(res.Conflicts),
	)
	return res, nil
}

// applyEdits groups edits by file and writes each file once. Edits in
// files that are also moving are applied at the old location, since
// moves have not happened yet.
func (e *Engine) applyEdits(p *plan.EditPlan, opts Options, res *Result) {
	byFile := make(map[string][]plan.TextEdit)
	for _, ed := range p.Edits {
		byFile[ed.File] = append(byFile[ed.File], ed)
	}
	files := make([]string, 0, len(byFile))
	for f := range byFile {
		files = append(files, f)
	}
	sort.Strings(files)

	for _, file := range files {
		diskPath := file
		if mv, ok := p.MoveFor(file); ok {
			diskPath = mv.OldPath
		}
		n, conflict := e.editFile(diskPath, byFile[file], p.ContentHashes[diskPath], opts.DryRun)
		if conflict != nil {
			res.Conflicts = append(res.Conflicts, *conflict)
			res.SkippedFiles = append(res.SkippedFiles, file)
			e.audit.Warn("file_skipped", "file", diskPath, "code", conflict.Code, "detail", conflict.Detail)
			continue
		}
		res.AppliedEdits += n
		e.audit.Info("file_edited", "file", diskPath, "edits", n, "dryRun", opts.DryRun)
	}
}

// editFile verifies one file against its plan-time hash and splices in
// its edits from the highest offset down, so earlier ranges stay valid
// as later ones change length. The write is a temp file in the same
// directory renamed over the original, keeping its permission bits.
func (e *Engine) editFile(diskPath string, edits []plan.TextEdit, wantHash string, dryRun bool) (int, *Conflict) {
	abs := paths.JoinRepoPath(e.repoRoot, diskPath)
	info, err := os.Stat(abs)
	if err != nil {
		return 0, &Conflict{File: diskPath, Code: string(errors.TargetMissing), Detail: err.Error()}
	}
	content, err := os.ReadFile(abs)
	if err != nil {
		return 0, &Conflict{File: diskPath, Code: string(errors.IOFailure), Detail: err.Error()}
	}
	if wantHash != "" && plan.HashContent(content) != wantHash {
		return 0, &Conflict{
			File:   diskPath,
			Code:   string(errors.StaleContent),
			Detail: "file changed since the plan was created",
		}
	}

	ordered := make([]plan.TextEdit, len(edits))
	copy(ordered, edits)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Start > ordered[j].Start })

	out := content
	for _, ed := range ordered {
		if ed.Start < 0 || ed.End > len(out) || ed.Start > ed.End {
			return 0, &Conflict{
				File:   diskPath,
				Code:   string(errors.StaleContent),
				Detail: fmt.Sprintf("edit range %d-%d out of bounds", ed.Start, ed.End),
			}
		}
		if string(out[ed.Start:ed.End]) != ed.OldText {
			return 0, &Conflict{
				File:   diskPath,
				Code:   string(errors.StaleContent),
				Detail: fmt.Sprintf("text at %d-%d does not match the plan", ed.Start, ed.End),
			}
		}
		var next []byte
		next = append(next, out[:ed.Start]...)
		next = append(next, ed.NewText...)
		next = append(next, out[ed.End:]...)
		out = next
	}

	if dryRun {
		return len(ordered), nil
	}
	if err := writeAtomic(abs, out, info.Mode().Perm()); err != nil {
		return 0, &Conflict{File: diskPath, Code: string(errors.IOFailure), Detail: err.Error()}
	}
	return len(ordered), nil
}

// applyMoves performs the plan's moves. A directory operation is one
// rename of the directory itself; the per-file move entries exist for
// reporting and hashing, not as separate renames.
func (e *Engine) applyMoves(p *plan.EditPlan, opts Options, res *Result) {
	if len(p.Moves) == 0 {
		return
	}
	if p.Operation.IsDir {
		if conflict := e.moveOne(p.Operation.OldPath, p.Operation.NewPath, opts.DryRun); conflict != nil {
			res.Conflicts = append(res.Conflicts, *conflict)
			e.audit.Warn("move_failed", "from", p.Operation.OldPath, "to", p.Operation.NewPath, "code", conflict.Code)
			return
		}
		res.AppliedMoves += len(p.Moves)
		e.audit.Info("directory_moved", "from", p.Operation.OldPath, "to", p.Operation.NewPath, "files", len(p.Moves), "dryRun", opts.DryRun)
		return
	}
	for _, mv := range p.Moves {
		if conflict := e.moveOne(mv.OldPath, mv.NewPath, opts.DryRun); conflict != nil {
			res.Conflicts = append(res.Conflicts, *conflict)
			e.audit.Warn("move_failed", "from", mv.OldPath, "to", mv.NewPath, "code", conflict.Code)
			continue
		}
		res.AppliedMoves++
		e.audit.Info("file_moved", "from", mv.OldPath, "to", mv.NewPath, "dryRun", opts.DryRun)
	}
}

// moveOne renames a path, creating the destination's parent. The
// same-file check keeps case-only renames legal on case-insensitive
// filesystems while any other existing destination is a conflict.
func (e *Engine) moveOne(oldPath, newPath string, dryRun bool) *Conflict {
	oldAbs := paths.JoinRepoPath(e.repoRoot, oldPath)
	newAbs := paths.JoinRepoPath(e.repoRoot, newPath)

	oldInfo, err := os.Stat(oldAbs)
	if err != nil {
		return &Conflict{File: oldPath, Code: string(errors.TargetMissing), Detail: err.Error()}
	}
	if newInfo, err := os.Stat(newAbs); err == nil && !os.SameFile(oldInfo, newInfo) {
		return &Conflict{File: newPath, Code: string(errors.NameCollision), Detail: "destination already exists"}
	}
	if dryRun {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(newAbs), 0755); err != nil {
		return &Conflict{File: newPath, Code: string(errors.IOFailure), Detail: err.Error()}
	}
	if err := os.Rename(oldAbs, newAbs); err != nil {
		return &Conflict{File: oldPath, Code: string(errors.IOFailure), Detail: err.Error()}
	}
	return nil
}

// writeAtomic replaces a file's content via a temp file in the same
// directory, so a crash never leaves a half-written file behind.
func writeAtomic(abs string, content []byte, perm os.FileMode) error {
	dir := filepath.Dir(abs)
	tmp, err := os.CreateTemp(dir, ".remap-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, abs); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
