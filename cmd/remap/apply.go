package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"remap/internal/apply"
	"remap/internal/config"
	"remap/internal/logging"
	"remap/internal/plan"
)

var (
	applyPlanFile string
	applyLatest   bool
	applyDryRun   bool
	applyFormat   string
)

var applyCmd = &cobra.Command{
	Use:   "apply [plan-id]",
	Short: "Apply a previously built edit plan",
	Long: `Apply a plan from the journal (by id or --latest) or from a plan file.

Every touched file is re-validated against the content hash recorded at
plan time; files that changed since then are reported as conflicts and
skipped. Edits land before moves.

Examples:
  remap apply 3f2a9c1e-8b0d-4e6f-9a21-5c7d8e0f1a2b
  remap apply --latest
  remap apply --plan plan.json.zst --dry-run`,
	Args: cobra.MaximumNArgs(1),
	Run:  runApply,
}

func init() {
	applyCmd.Flags().StringVar(&applyPlanFile, "plan", "", "Apply a plan file (.json or .json.zst)")
	applyCmd.Flags().BoolVar(&applyLatest, "latest", false, "Apply the most recent journaled plan")
	applyCmd.Flags().BoolVar(&applyDryRun, "dry-run", false, "Validate and count without writing")
	applyCmd.Flags().StringVar(&applyFormat, "format", "text", "Output format (text, json)")
	rootCmd.AddCommand(applyCmd)
}

func runApply(cmd *cobra.Command, args []string) {
	start := time.Now()
	repoRoot := mustGetRepoRoot()
	cfg := loadConfig(repoRoot, bootLogger())
	logger := newLogger(cfg)

	p, journal, source := loadPlanForApply(repoRoot, cfg, logger, args)
	if journal != nil {
		defer journal.Close()
	}

	engine, err := apply.New(repoRoot, cfg.Apply, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing apply engine: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	result, err := engine.Apply(p, apply.Options{DryRun: applyDryRun})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error applying plan: %v\n", err)
		os.Exit(1)
	}

	if journal != nil && !applyDryRun && len(result.Conflicts) == 0 {
		if err := journal.MarkApplied(p.ID); err != nil {
			logger.Warn("Could not mark plan applied in journal", map[string]interface{}{
				"planId": p.ID,
				"error":  err.Error(),
			})
		}
	}

	resp := &ApplyResponseCLI{Result: result, Source: source}
	rendered, err := FormatResponse(resp, OutputFormat(applyFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(rendered)

	logger.Debug("Apply completed", map[string]interface{}{
		"planId":    p.ID,
		"dryRun":    applyDryRun,
		"edits":     result.AppliedEdits,
		"moves":     result.AppliedMoves,
		"conflicts": len(result.Conflicts),
		"duration":  time.Since(start).Milliseconds(),
	})
}

// loadPlanForApply resolves which plan to apply. The returned journal is
// non-nil when the plan came from it, so the caller can mark it applied.
func loadPlanForApply(repoRoot string, cfg *config.Config, logger *logging.Logger, args []string) (*plan.EditPlan, *plan.Journal, string) {
	selectors := 0
	if len(args) == 1 {
		selectors++
	}
	if applyPlanFile != "" {
		selectors++
	}
	if applyLatest {
		selectors++
	}
	if selectors == 0 {
		fmt.Fprintf(os.Stderr, "Error: specify a plan id, --plan FILE, or --latest\n")
		os.Exit(1)
	}
	if selectors > 1 {
		fmt.Fprintf(os.Stderr, "Error: plan id, --plan, and --latest are mutually exclusive\n")
		os.Exit(1)
	}

	if applyPlanFile != "" {
		p, err := plan.ReadPlanFile(applyPlanFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading plan file: %v\n", err)
			os.Exit(1)
		}
		return p, nil, applyPlanFile
	}

	journal, err := plan.OpenJournal(repoRoot, cfg.Journal.MaxPlans, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening plan journal: %v\n", err)
		os.Exit(1)
	}

	if applyLatest {
		p, err := journal.Latest()
		if err != nil {
			journal.Close()
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return p, journal, "journal (latest)"
	}

	p, err := journal.Load(args[0])
	if err != nil {
		journal.Close()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return p, journal, "journal"
}

// ApplyResponseCLI reports an apply or dry run for CLI output
type ApplyResponseCLI struct {
	Result *apply.Result `json:"result"`
	Source string        `json:"source"`
}
