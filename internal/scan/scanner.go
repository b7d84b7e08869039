package scan

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"remap/internal/alias"
	"remap/internal/capability"
	"remap/internal/config"
	"remap/internal/errors"
	"remap/internal/logging"
	"remap/internal/output"
	"remap/internal/paths"
	"remap/internal/plan"
	"remap/internal/scope"
)

// Scanner finds every reference a rename or move affects and turns the
// findings into an edit plan. Detection is additive: parsed imports,
// trial rewrites, and generic text matching each contribute what the
// previous method could not see.
type Scanner struct {
	repoRoot string
	registry *capability.Registry
	scope    *scope.Scope
	cfg      config.ScanConfig
	logger   *logging.Logger
}

// New creates a scanner rooted at repoRoot. The registry decides which
// language module governs each file; the scope decides which file
// categories participate at all.
func New(repoRoot string, registry *capability.Registry, sc *scope.Scope, cfg config.ScanConfig, logger *logging.Logger) *Scanner {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Scanner{
		repoRoot: repoRoot,
		registry: registry,
		scope:    sc,
		cfg:      cfg,
		logger:   logger,
	}
}

// Plan scans the repository and builds the full edit plan for op.
// Cancellation or a scan timeout yields a plan marked incomplete
// rather than an error; apply refuses incomplete plans.
func (s *Scanner) Plan(ctx context.Context, op plan.Operation) (*plan.EditPlan, error) {
	moves, err := EnumerateMoves(s.repoRoot, op)
	if err != nil {
		return nil, err
	}

	results, incomplete, err := s.run(ctx, op)
	if err != nil {
		return nil, err
	}

	b := plan.NewBuilder(s.repoRoot, op, s.scope, s.logger)
	if incomplete {
		b.MarkIncomplete()
	}
	for _, r := range results {
		if r == nil {
			continue
		}
		for _, w := range r.warnings {
			b.AddWarning(w.File, w.Code, w.Message)
		}
		for _, u := range r.unresolved {
			b.AddUnresolved(u)
		}
		for _, rw := range r.rewrites {
			b.AddRewrite(rw.file, rw.diskFile, rw.original, rw.rewritten, rw.category)
		}
		for _, e := range r.edits {
			b.AddEdit(e.edit, e.diskFile, e.content)
		}
	}
	for _, m := range moves {
		b.AddMove(m.OldPath, m.NewPath)
	}
	return b.Build()
}

// Candidates scans without building edits: every reference the three
// detection methods find, in display order, with warnings ranked by
// code. This backs the read-only scan command.
func (s *Scanner) Candidates(ctx context.Context, op plan.Operation) ([]plan.CandidateReference, []plan.Warning, error) {
	results, incomplete, err := s.run(ctx, op)
	if err != nil {
		return nil, nil, err
	}

	var candidates []plan.CandidateReference
	var warnings []plan.Warning
	for _, r := range results {
		if r == nil {
			continue
		}
		candidates = append(candidates, r.candidates...)
		warnings = append(warnings, r.warnings...)
	}
	if incomplete {
		warnings = append(warnings, plan.Warning{
			Code:    plan.WarnScanIncomplete,
			Message: "scan stopped before covering every file",
		})
	}
	output.SortCandidates(candidates)
	output.SortWarnings(warnings)
	return candidates, warnings, nil
}

// run walks the repository and scans every file on a bounded worker
// pool. Results come back indexed by walk position so the reduce stays
// deterministic regardless of worker interleaving.
func (s *Scanner) run(ctx context.Context, op plan.Operation) ([]*fileResult, bool, error) {
	if s.cfg.ScanTimeoutMs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(s.cfg.ScanTimeoutMs)*time.Millisecond)
		defer cancel()
	}

	files, err := walkFiles(s.repoRoot, walkOptions{
		maxFileSize:   int64(s.cfg.MaxFileSizeBytes),
		extraSkipDirs: s.cfg.IgnoreDirs,
		scope:         s.scope,
	})
	if err != nil {
		return nil, false, errors.NewRemapError(errors.IOFailure, "repository walk failed", err)
	}

	workers := s.cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(files) {
		workers = len(files)
	}
	if workers < 1 {
		workers = 1
	}
	s.logger.Debug("Scanning repository", map[string]interface{}{
		"files":   len(files),
		"workers": workers,
		"oldPath": op.OldPath,
		"newPath": op.NewPath,
	})

	results := make([]*fileResult, len(files))
	jobs := make(chan int)
	var incomplete atomic.Bool
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				if ctx.Err() != nil {
					incomplete.Store(true)
					continue
				}
				results[idx] = s.scanFile(op, files[idx])
			}
		}()
	}

	for i := range files {
		select {
		case jobs <- i:
		case <-ctx.Done():
			incomplete.Store(true)
		}
		if ctx.Err() != nil {
			break
		}
	}
	close(jobs)
	wg.Wait()

	return results, incomplete.Load(), nil
}

// rewriteChange is one whole-file rewrite awaiting edit derivation.
// file is where the plan addresses the edits (the destination path for
// a file that itself moves); diskFile is where the bytes live now.
type rewriteChange struct {
	file      string
	diskFile  string
	original  []byte
	rewritten []byte
	category  plan.Category
}

// editChange is one pre-positioned edit with the content it was
// computed against, so the builder can hash the file.
type editChange struct {
	edit     plan.TextEdit
	diskFile string
	content  []byte
}

type fileResult struct {
	file       string
	candidates []plan.CandidateReference
	rewrites   []rewriteChange
	edits      []editChange
	unresolved []plan.UnresolvedReference
	warnings   []plan.Warning
}

// scanFile runs all three detection methods against one file.
func (s *Scanner) scanFile(op plan.Operation, file string) *fileResult {
	res := &fileResult{file: file}

	// The destination path only exists for a case-only rename, where
	// it is the source itself.
	if file == op.NewPath {
		return res
	}

	content, err := os.ReadFile(paths.JoinRepoPath(s.repoRoot, file))
	if err != nil {
		res.warnings = append(res.warnings, plan.Warning{
			File:    file,
			Code:    plan.WarnScanIncomplete,
			Message: "unreadable: " + err.Error(),
		})
		return res
	}

	// Files inside the moved tree are scanned where they are but
	// addressed in the plan at their destination.
	addressFile := file
	if mapped, ok := paths.MapMoved(file, op.OldPath, op.NewPath); ok {
		addressFile = mapped
	}

	caps := s.registry.ForFile(file)
	category := categoryFor(file)

	s.collectImports(op, file, content, caps, res)
	s.applyRewrites(op, file, addressFile, content, caps, category, res)
	s.genericScan(op, file, addressFile, content, caps, category, res)
	return res
}

// collectImports reports parsed imports whose resolved target is the
// operation's source or destination. Specifiers that mention the
// target's name but fail to resolve are recorded as unresolved.
func (s *Scanner) collectImports(op plan.Operation, file string, content []byte, caps *capability.Capabilities, res *fileResult) {
	if caps == nil || caps.Parser == nil || caps.Resolver == nil || !s.scope.UpdateCode {
		return
	}
	specs, err := caps.Parser.ParseImports(file, content)
	if err != nil {
		res.warnings = append(res.warnings, plan.Warning{
			File:    file,
			Code:    plan.WarnParseFailure,
			Message: err.Error(),
		})
		return
	}
	if len(specs) == 0 {
		return
	}

	lines := contentLines(content)
	for _, spec := range specs {
		resolved, ok := caps.Resolver.ResolveSpecifier(spec.Specifier, file)
		if !ok {
			if !mentionsTarget(op, spec.Specifier) {
				continue
			}
			reason := "specifier did not resolve to a file"
			if alias.IsPotentialAlias(spec.Specifier) {
				reason = "alias did not match any configured pattern"
				res.warnings = append(res.warnings, plan.Warning{
					File:    file,
					Code:    plan.WarnAliasUnresolved,
					Message: spec.Specifier,
				})
			}
			res.unresolved = append(res.unresolved, plan.UnresolvedReference{
				File:      file,
				Line:      spec.Line,
				Specifier: spec.Specifier,
				Reason:    reason,
			})
			continue
		}
		if !targetsOperation(op, resolved) {
			continue
		}
		res.candidates = append(res.candidates, plan.CandidateReference{
			File:     file,
			Line:     spec.Line,
			Category: plan.CategoryImport,
			Method:   plan.MethodImport,
			Matched:  spec.Specifier,
			LineText: lineAt(lines, spec.Line),
		})
	}
}

// applyRewrites runs every rewrite capability the module offers and
// records the combined before/after pair. Files without a parser also
// contribute per-changed-line candidates here, so rewrite-only modules
// still show up in scan output.
func (s *Scanner) applyRewrites(op plan.Operation, file, addressFile string, content []byte, caps *capability.Capabilities, category plan.Category, res *fileResult) {
	if caps == nil || !s.allowsCategory(category) {
		return
	}
	current := content
	changed := false

	if caps.Move != nil {
		if out, ok := caps.Move.RewriteForMove(current, file, op.OldPath, op.NewPath); ok {
			current, changed = out, true
		}
	}
	if op.IsPackage && op.OldName != op.NewName {
		if caps.Rename != nil && s.scope.UpdateCode {
			if out, ok := caps.Rename.RewriteForRename(current, op.OldName, op.NewName); ok {
				current, changed = out, true
			}
		}
		if caps.Manifest != nil && s.scope.UpdateConfigs {
			out, ok, err := caps.Manifest.UpdateDependency(current, op.OldName, op.NewName)
			if err != nil {
				res.warnings = append(res.warnings, plan.Warning{
					File:    file,
					Code:    plan.WarnParseFailure,
					Message: err.Error(),
				})
			} else if ok {
				current, changed = out, true
			}
		}
	}
	if caps.ModuleDecl != nil && s.scope.UpdateCode {
		if oldDecl, newDecl, ok := declRename(op, file); ok {
			if out, ok := caps.ModuleDecl.RenameDeclaration(current, oldDecl, newDecl); ok {
				current, changed = out, true
			}
		}
	}
	if op.IsDir && caps.Workspace != nil && s.scope.UpdateConfigs {
		dir := path.Dir(file)
		out, ok, err := caps.Workspace.RenameMember(current, paths.RelativeTo(dir, op.OldPath), paths.RelativeTo(dir, op.NewPath))
		if err != nil {
			res.warnings = append(res.warnings, plan.Warning{
				File:    file,
				Code:    plan.WarnParseFailure,
				Message: err.Error(),
			})
		} else if ok {
			current, changed = out, true
		}
	}

	if !changed {
		return
	}
	res.rewrites = append(res.rewrites, rewriteChange{
		file:      addressFile,
		diskFile:  file,
		original:  content,
		rewritten: current,
		category:  category,
	})
	if caps.Parser == nil {
		lines := contentLines(content)
		for _, ln := range changedLineNumbers(content, current) {
			res.candidates = append(res.candidates, plan.CandidateReference{
				File:     file,
				Line:     ln,
				Category: category,
				Method:   plan.MethodRewrite,
				LineText: lineAt(lines, ln),
			})
		}
	}
}

// allowsCategory maps an edit category to its scope gate.
func (s *Scanner) allowsCategory(c plan.Category) bool {
	switch c {
	case plan.CategoryImport:
		return s.scope.UpdateCode
	case plan.CategoryManifest:
		return s.scope.UpdateConfigs
	case plan.CategoryGitignore:
		return s.scope.UpdateGitignore
	default:
		// Markdown and config text files gate per-construct inside
		// their modules; the file-level gate is scope routing.
		return true
	}
}

// targetsOperation reports whether a resolved import target is the
// source or destination of the operation, including paths inside a
// moved directory. Matching both sides keeps a re-scan after apply
// from reporting nothing for the files just rewritten.
func targetsOperation(op plan.Operation, resolved string) bool {
	if _, ok := paths.MapMoved(resolved, op.OldPath, op.NewPath); ok {
		return true
	}
	if _, ok := paths.MapMoved(resolved, op.NewPath, op.OldPath); ok {
		return true
	}
	return false
}

// mentionsTarget filters unresolved specifiers down to ones that
// plausibly reference the operation target, by stem.
func mentionsTarget(op plan.Operation, spec string) bool {
	base := path.Base(op.OldPath)
	stem := strings.TrimSuffix(base, path.Ext(base))
	return stem != "" && strings.Contains(spec, stem)
}

// declRename reports the declaration rename a scanned file may carry:
// in-place renames update `mod name` style declarations in sibling
// files, and package directory renames update the name recorded inside
// the package's own manifest.
func declRename(op plan.Operation, file string) (oldName, newName string, ok bool) {
	if path.Dir(op.OldPath) == path.Dir(op.NewPath) && path.Dir(file) == path.Dir(op.OldPath) {
		o := stemOf(op.OldPath)
		n := stemOf(op.NewPath)
		if o != n {
			return o, n, true
		}
	}
	if op.IsPackage && op.OldName != op.NewName {
		if _, moved := paths.MapMoved(file, op.OldPath, op.NewPath); moved {
			return op.OldName, op.NewName, true
		}
	}
	return "", "", false
}

func stemOf(p string) string {
	base := path.Base(p)
	return strings.TrimSuffix(base, path.Ext(base))
}

// categoryFor classifies a file for edit precedence. Manifest names
// outrank their extensions, so package.json is a manifest while other
// JSON is generic text.
func categoryFor(file string) plan.Category {
	switch filepath.Base(file) {
	case "package.json", "Cargo.toml", "pyproject.toml", "go.mod", "go.work", "pnpm-workspace.yaml":
		return plan.CategoryManifest
	case ".gitignore":
		return plan.CategoryGitignore
	}
	switch strings.ToLower(filepath.Ext(file)) {
	case ".md", ".markdown", ".toml", ".yaml", ".yml", ".json":
		return plan.CategoryGenericText
	}
	return plan.CategoryImport
}

// contentLines splits content for line-text lookups, tolerating CRLF.
func contentLines(content []byte) []string {
	lines := strings.Split(string(content), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// lineAt returns the 1-based line, or "" past the end.
func lineAt(lines []string, n int) string {
	if n < 1 || n > len(lines) {
		return ""
	}
	return lines[n-1]
}

// changedLineNumbers lists 1-based lines that differ between two
// versions of a file. When the line count changed only the first
// divergence is reported.
func changedLineNumbers(original, rewritten []byte) []int {
	a := strings.Split(string(original), "\n")
	b := strings.Split(string(rewritten), "\n")
	if len(a) == len(b) {
		var out []int
		for i := range a {
			if a[i] != b[i] {
				out = append(out, i+1)
			}
		}
		return out
	}
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return []int{i + 1}
		}
	}
	return []int{n + 1}
}
