package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"remap/internal/apply"
	"remap/internal/scan"
)

var (
	moveScope    string
	moveExcludes []string
	moveDryRun   bool
	moveFormat   string
	moveWorkers  int
)

var moveCmd = &cobra.Command{
	Use:   "move <old-path> <new-path>",
	Short: "Plan and apply a rename or move in one step",
	Long: `Plan a rename or move and apply it immediately. The same plan a
separate plan+apply pair would produce is built, applied, and recorded
in the journal.

Examples:
  remap move src/utils.ts src/helpers.ts
  remap move integration-tests tests --scope=everything
  remap move src/old-dir src/new-dir --dry-run`,
	Args: cobra.ExactArgs(2),
	Run:  runMove,
}

func init() {
	moveCmd.Flags().StringVar(&moveScope, "scope", "", "Reference scope (code, docs, standard, everything)")
	moveCmd.Flags().StringArrayVar(&moveExcludes, "exclude", nil, "Glob pattern to exclude (repeatable)")
	moveCmd.Flags().BoolVar(&moveDryRun, "dry-run", false, "Build the plan and report what would change")
	moveCmd.Flags().StringVar(&moveFormat, "format", "text", "Output format (text, json)")
	moveCmd.Flags().IntVar(&moveWorkers, "workers", 0, "Scan worker count (default: number of CPUs)")
	rootCmd.AddCommand(moveCmd)
}

func runMove(cmd *cobra.Command, args []string) {
	start := time.Now()
	repoRoot := mustGetRepoRoot()
	cfg := loadConfig(repoRoot, bootLogger())
	logger := newLogger(cfg)

	sc, err := resolveScope(cfg, moveScope, moveExcludes)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	op, err := scan.DetectOperation(repoRoot, args[0], args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	scanner := newScanner(repoRoot, cfg, sc, moveWorkers, logger)
	p, err := scanner.Plan(newContext(), op)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building plan: %v\n", err)
		os.Exit(1)
	}

	engine, err := apply.New(repoRoot, cfg.Apply, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing apply engine: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	result, err := engine.Apply(p, apply.Options{DryRun: moveDryRun})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error applying plan: %v\n", err)
		os.Exit(1)
	}

	// Journal the plan for history even though it was applied in-process
	if journal, err := openJournal(repoRoot, cfg, logger); err == nil && journal != nil {
		defer journal.Close()
		if err := journal.Save(p); err == nil && !moveDryRun && len(result.Conflicts) == 0 {
			_ = journal.MarkApplied(p.ID)
		}
	}

	resp := &ApplyResponseCLI{Result: result, Source: "move"}
	rendered, err := FormatResponse(resp, OutputFormat(moveFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(rendered)

	logger.Debug("Move completed", map[string]interface{}{
		"planId":   p.ID,
		"dryRun":   moveDryRun,
		"edits":    result.AppliedEdits,
		"moves":    result.AppliedMoves,
		"duration": time.Since(start).Milliseconds(),
	})
}
