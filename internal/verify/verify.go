// Package verify cross-checks an edit plan against a SCIP semantic
// index when one is available. The check is strictly additive: it can
// add advisory notes to output but can never fail, block, or slow a
// plan beyond its timeout.
package verify

import (
	"context"
	"fmt"
	"sort"
	"time"

	"remap/internal/capability"
	"remap/internal/config"
	"remap/internal/logging"
	"remap/internal/paths"
	"remap/internal/plan"
)

// Checker runs plan verification for one repository.
type Checker struct {
	repoRoot string
	cfg      config.VerifyConfig
	logger   *logging.Logger
}

// New creates a checker. Verification only runs when cfg.Enabled is
// set and the configured index exists.
func New(repoRoot string, cfg config.VerifyConfig, logger *logging.Logger) *Checker {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Checker{repoRoot: repoRoot, cfg: cfg, logger: logger}
}

// Note is one advisory finding: a file the index says references the
// moved code but the plan does not touch.
type Note struct {
	File    string `json:"file"`
	Line    int    `json:"line"`
	Message string `json:"message"`
}

// Result reports a verification pass. Skipped carries the reason when
// the check did not run to completion.
type Result struct {
	Checked   bool   `json:"checked"`
	IndexPath string `json:"indexPath,omitempty"`
	Notes     []Note `json:"notes,omitempty"`
	Skipped   string `json:"skipped,omitempty"`
}

// Check compares the plan's coverage against the index. Timeouts and
// load failures discard the check rather than failing the caller.
func (c *Checker) Check(ctx context.Context, p *plan.EditPlan) *Result {
	if !c.cfg.Enabled {
		return &Result{Skipped: "verification disabled"}
	}
	indexPath := paths.GetSCIPIndexPath(c.repoRoot, c.cfg.IndexPath)

	timeout := time.Duration(c.cfg.TimeoutMs) * time.Millisecond
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		notes []Note
		err   error
	}
	ch := make(chan outcome, 1)
	go func() {
		notes, err := c.run(ctx, indexPath, p)
		ch <- outcome{notes: notes, err: err}
	}()

	select {
	case <-ctx.Done():
		c.logger.Warn("Verification timed out; results discarded", map[string]interface{}{
			"index":   indexPath,
			"timeout": timeout.String(),
		})
		return &Result{IndexPath: indexPath, Skipped: "timed out"}
	case out := <-ch:
		if out.err != nil {
			c.logger.Debug("Verification skipped", map[string]interface{}{
				"index": indexPath,
				"error": out.err.Error(),
			})
			return &Result{IndexPath: indexPath, Skipped: out.err.Error()}
		}
		return &Result{Checked: true, IndexPath: indexPath, Notes: out.notes}
	}
}

// run loads the index and reports files that reference symbols defined
// in the moved code without appearing anywhere in the plan. A second
// pass chases each referencing position through the index's reference
// finder so files reachable only through related symbols (re-export
// aliases) are reported too; chase failures discard that position's
// results, never the check.
func (c *Checker) run(ctx context.Context, indexPath string, p *plan.EditPlan) ([]Note, error) {
	idx, err := LoadIndex(indexPath)
	if err != nil {
		return nil, err
	}

	op := p.Operation
	symbols := idx.SymbolsDefinedUnder(op.OldPath, op.IsDir)
	if len(symbols) == 0 {
		return nil, nil
	}

	covered := make(map[string]bool)
	for _, f := range p.Summary.AffectedFiles {
		covered[f] = true
		// Edits in moved files are addressed at the destination; the
		// index only knows the pre-move path.
		if mv, ok := p.MoveFor(f); ok {
			covered[mv.OldPath] = true
		}
	}
	skip := func(file string) bool {
		if covered[file] {
			return true
		}
		// Files moving along with the target reference it trivially
		_, moves := paths.MapMoved(file, op.OldPath, op.NewPath)
		return moves
	}

	refs := idx.ReferencingFiles(symbols)
	noted := make(map[string]bool)
	var notes []Note
	for file, loc := range refs {
		if skip(file) {
			continue
		}
		noted[file] = true
		notes = append(notes, Note{
			File:    file,
			Line:    loc.Line,
			Message: fmt.Sprintf("index shows a reference to %s not covered by the plan", op.OldPath),
		})
	}

	var finder capability.ReferenceFinder = idx
	files := make([]string, 0, len(refs))
	for file := range refs {
		files = append(files, file)
	}
	sort.Strings(files)
	for _, file := range files {
		if ctx.Err() != nil {
			break
		}
		loc := refs[file]
		chased, err := finder.FindReferences(ctx, loc.File, loc.Line, loc.Col)
		if err != nil {
			continue
		}
		for _, ref := range chased {
			if noted[ref.File] || skip(ref.File) {
				continue
			}
			noted[ref.File] = true
			notes = append(notes, Note{
				File:    ref.File,
				Line:    ref.Line,
				Message: fmt.Sprintf("index shows a reference to %s via %s not covered by the plan", op.OldPath, file),
			})
		}
	}

	sort.Slice(notes, func(i, j int) bool {
		if notes[i].File != notes[j].File {
			return notes[i].File < notes[j].File
		}
		return notes[i].Line < notes[j].Line
	})
	return notes, nil
}
