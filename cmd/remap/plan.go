package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"remap/internal/compression"
	"remap/internal/output"
	"remap/internal/plan"
	"remap/internal/scan"
	"remap/internal/verify"
)

var (
	planScope    string
	planExcludes []string
	planFormat   string
	planOut      string
	planSave     bool
	planVerify   bool
	planWorkers  int
)

var planCmd = &cobra.Command{
	Use:   "plan <old-path> <new-path>",
	Short: "Build an edit plan for a rename or move",
	Long: `Build the complete edit plan for renaming or moving a file or directory
without touching the working tree.

Examples:
  remap plan src/utils.ts src/helpers.ts
  remap plan integration-tests tests --scope=everything
  remap plan src/old-dir src/new-dir --save
  remap plan crates/old-name crates/new-name --out plan.json.zst`,
	Args: cobra.ExactArgs(2),
	Run:  runPlan,
}

func init() {
	planCmd.Flags().StringVar(&planScope, "scope", "", "Reference scope (code, docs, standard, everything)")
	planCmd.Flags().StringArrayVar(&planExcludes, "exclude", nil, "Glob pattern to exclude (repeatable)")
	planCmd.Flags().StringVar(&planFormat, "format", "text", "Output format (text, json)")
	planCmd.Flags().StringVar(&planOut, "out", "", "Write the plan to a file (.json or .json.zst)")
	planCmd.Flags().BoolVar(&planSave, "save", false, "Persist the plan to the journal")
	planCmd.Flags().BoolVar(&planVerify, "verify", false, "Cross-check the plan against a SCIP index")
	planCmd.Flags().IntVar(&planWorkers, "workers", 0, "Scan worker count (default: number of CPUs)")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) {
	start := time.Now()
	repoRoot := mustGetRepoRoot()
	cfg := loadConfig(repoRoot, bootLogger())
	logger := newLogger(cfg)

	sc, err := resolveScope(cfg, planScope, planExcludes)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	op, err := scan.DetectOperation(repoRoot, args[0], args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	scanner := newScanner(repoRoot, cfg, sc, planWorkers, logger)
	p, err := scanner.Plan(newContext(), op)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building plan: %v\n", err)
		os.Exit(1)
	}

	resp := &PlanResponseCLI{Plan: p}

	if planVerify {
		verifyCfg := cfg.Verify
		verifyCfg.Enabled = true
		checker := verify.New(repoRoot, verifyCfg, logger)
		resp.Verification = checker.Check(newContext(), p)
	}

	if planSave {
		journal, err := plan.OpenJournal(repoRoot, cfg.Journal.MaxPlans, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening plan journal: %v\n", err)
			os.Exit(1)
		}
		defer journal.Close()
		if err := journal.Save(p); err != nil {
			fmt.Fprintf(os.Stderr, "Error saving plan: %v\n", err)
			os.Exit(1)
		}
		resp.SavedToJournal = true
	}

	if planOut != "" {
		data, err := output.DeterministicEncodeIndented(p, "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding plan: %v\n", err)
			os.Exit(1)
		}
		if err := compression.WriteFile(planOut, data, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", planOut, err)
			os.Exit(1)
		}
		resp.OutFile = planOut
	}

	rendered, err := FormatResponse(resp, OutputFormat(planFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(rendered)

	logger.Debug("Plan built", map[string]interface{}{
		"planId":   p.ID,
		"edits":    len(p.Edits),
		"moves":    len(p.Moves),
		"duration": time.Since(start).Milliseconds(),
	})
}

// PlanResponseCLI carries a built plan plus what the command did with it
type PlanResponseCLI struct {
	Plan           *plan.EditPlan `json:"plan"`
	Verification   *verify.Result `json:"verification,omitempty"`
	SavedToJournal bool           `json:"savedToJournal,omitempty"`
	OutFile        string         `json:"outFile,omitempty"`
}
