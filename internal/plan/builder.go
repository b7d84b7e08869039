package plan

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"

	"remap/internal/logging"
	"remap/internal/paths"
	"remap/internal/scope"
)

// Builder accumulates rewrites, moves, and warnings from the scan and
// produces one deterministic EditPlan. It is not safe for concurrent use;
// the scan feeds it from a single-threaded reduce.
type Builder struct {
	repoRoot string
	op       Operation
	scope    *scope.Scope
	logger   *logging.Logger

	edits      []TextEdit
	moves      []FileMove
	hashes     map[string]string
	unresolved []UnresolvedReference
	warnings   []Warning
	incomplete bool
}

// NewBuilder creates a plan builder for one operation.
func NewBuilder(repoRoot string, op Operation, sc *scope.Scope, logger *logging.Logger) *Builder {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Builder{
		repoRoot: repoRoot,
		op:       op,
		scope:    sc,
		logger:   logger,
		hashes:   make(map[string]string),
	}
}

// AddRewrite derives edits for one file by diffing the original content
// against a capability rewrite. file is the path edits are addressed at;
// diskFile is the path the content was read from, which differs when the
// file itself is being moved. Returns the number of edits added.
func (b *Builder) AddRewrite(file, diskFile string, original, rewritten []byte, category Category) int {
	if diskFile == "" {
		diskFile = file
	}
	if _, ok := b.hashes[diskFile]; !ok {
		b.hashes[diskFile] = HashContent(original)
	}
	edits := diffEdits(file, original, rewritten, category)
	b.edits = append(b.edits, edits...)
	return len(edits)
}

// AddEdit records a single pre-computed edit, hashing the on-disk file if
// it has not been seen yet.
func (b *Builder) AddEdit(e TextEdit, diskFile string, content []byte) {
	if diskFile == "" {
		diskFile = e.File
	}
	if _, ok := b.hashes[diskFile]; !ok {
		b.hashes[diskFile] = HashContent(content)
	}
	b.edits = append(b.edits, e)
}

// AddMove records one filesystem rename.
func (b *Builder) AddMove(oldPath, newPath string) {
	b.moves = append(b.moves, FileMove{OldPath: oldPath, NewPath: newPath})
}

// AddWarning records a non-fatal scan problem.
func (b *Builder) AddWarning(file, code, message string) {
	b.warnings = append(b.warnings, Warning{File: file, Code: code, Message: message})
}

// AddUnresolved records a matching specifier that could not be resolved.
func (b *Builder) AddUnresolved(u UnresolvedReference) {
	b.unresolved = append(b.unresolved, u)
}

// MarkIncomplete flags the plan as a partial result after cancellation.
func (b *Builder) MarkIncomplete() {
	b.incomplete = true
	b.AddWarning("", WarnScanIncomplete, "scan cancelled before all files were visited")
}

// Build assembles the final plan: dedups by (file, line, category),
// resolves overlapping ranges by category precedence, sorts edits and
// moves, fills hashes for moved-but-unedited files, and computes the
// summary from the surviving edit list.
func (b *Builder) Build() (*EditPlan, error) {
	edits := b.resolveEdits()

	sort.Slice(edits, func(i, j int) bool {
		if edits[i].File != edits[j].File {
			return edits[i].File < edits[j].File
		}
		return edits[i].Start < edits[j].Start
	})

	moves := append([]FileMove{}, b.moves...)
	sort.Slice(moves, func(i, j int) bool { return moves[i].OldPath < moves[j].OldPath })

	// Moved files with no content edits still get a hash so apply can
	// detect staleness before renaming.
	for _, m := range moves {
		if _, ok := b.hashes[m.OldPath]; ok {
			continue
		}
		content, err := os.ReadFile(paths.JoinRepoPath(b.repoRoot, m.OldPath))
		if err != nil {
			b.warnings = append(b.warnings, Warning{
				File:    m.OldPath,
				Code:    WarnParseFailure,
				Message: fmt.Sprintf("cannot hash move source: %v", err),
			})
			continue
		}
		b.hashes[m.OldPath] = HashContent(content)
	}

	p := &EditPlan{
		ID:            uuid.NewString(),
		Version:       SchemaVersion,
		CreatedAt:     time.Now().UTC(),
		Operation:     b.op,
		Scope:         b.scope,
		Edits:         edits,
		Moves:         moves,
		ContentHashes: b.hashes,
		Unresolved:    b.unresolved,
		Warnings:      b.warnings,
		Incomplete:    b.incomplete,
	}
	p.Summary = computeSummary(p)
	return p, nil
}

// resolveEdits applies the dedup and overlap rules. Exactly one edit
// survives per overlapping range; the loser is logged, never an error.
func (b *Builder) resolveEdits() []TextEdit {
	type lineKey struct {
		file     string
		line     int
		category Category
	}
	seen := make(map[lineKey]bool)
	var deduped []TextEdit
	for _, e := range b.edits {
		k := lineKey{e.File, e.Line, e.Category}
		if seen[k] {
			continue
		}
		seen[k] = true
		deduped = append(deduped, e)
	}

	var out []TextEdit
	for _, e := range deduped {
		replaced := false
		dropped := false
		for i, kept := range out {
			if kept.File != e.File || !rangesOverlap(kept.Start, kept.End, e.Start, e.End) {
				continue
			}
			if e.Category.Precedence() > kept.Category.Precedence() {
				b.logOverlap(kept, e)
				out[i] = e
				replaced = true
			} else {
				b.logOverlap(e, kept)
				dropped = true
			}
			break
		}
		if !replaced && !dropped {
			out = append(out, e)
		}
	}
	return out
}

func (b *Builder) logOverlap(loser, winner TextEdit) {
	b.logger.Debug("Overlapping edits resolved by category precedence", map[string]interface{}{
		"file":    loser.File,
		"line":    loser.Line,
		"kept":    string(winner.Category),
		"dropped": string(loser.Category),
	})
}

func rangesOverlap(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && bStart < aEnd
}

// computeSummary derives every summary field from the plan content.
func computeSummary(p *EditPlan) Summary {
	byCategory := make(map[Category]int)
	filesSeen := make(map[string]bool)
	var affected []string
	for _, e := range p.Edits {
		byCategory[e.Category]++
		if !filesSeen[e.File] {
			filesSeen[e.File] = true
			affected = append(affected, e.File)
		}
	}
	sort.Strings(affected)
	return Summary{
		TotalEdits:           len(p.Edits),
		FilesToModify:        len(affected),
		AffectedFiles:        affected,
		EditsByCategory:      byCategory,
		Moves:                len(p.Moves),
		UnresolvedReferences: len(p.Unresolved),
		Warnings:             len(p.Warnings),
	}
}
