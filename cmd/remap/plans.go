package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"remap/internal/config"
	"remap/internal/logging"
	"remap/internal/plan"
)

var (
	plansFormat     string
	plansShowFormat string
)

var plansCmd = &cobra.Command{
	Use:   "plans",
	Short: "List journaled plans",
	Long: `List the plans saved in the journal, newest first.

Examples:
  remap plans
  remap plans show 3f2a9c1e-8b0d-4e6f-9a21-5c7d8e0f1a2b
  remap plans delete 3f2a9c1e-8b0d-4e6f-9a21-5c7d8e0f1a2b`,
	Run: runPlansList,
}

var plansShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one journaled plan",
	Args:  cobra.ExactArgs(1),
	Run:   runPlansShow,
}

var plansDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a journaled plan",
	Args:  cobra.ExactArgs(1),
	Run:   runPlansDelete,
}

func init() {
	plansCmd.Flags().StringVar(&plansFormat, "format", "text", "Output format (text, json)")
	plansShowCmd.Flags().StringVar(&plansShowFormat, "format", "text", "Output format (text, json)")

	plansCmd.AddCommand(plansShowCmd)
	plansCmd.AddCommand(plansDeleteCmd)
	rootCmd.AddCommand(plansCmd)
}

// mustOpenJournal opens the journal for the plans subcommands or exits.
func mustOpenJournal(repoRoot string, cfg *config.Config, logger *logging.Logger) *plan.Journal {
	journal, err := plan.OpenJournal(repoRoot, cfg.Journal.MaxPlans, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening plan journal: %v\n", err)
		os.Exit(1)
	}
	return journal
}

func runPlansList(cmd *cobra.Command, args []string) {
	repoRoot := mustGetRepoRoot()
	cfg := loadConfig(repoRoot, bootLogger())
	logger := newLogger(cfg)

	journal := mustOpenJournal(repoRoot, cfg, logger)
	defer journal.Close()

	entries, err := journal.List()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing plans: %v\n", err)
		os.Exit(1)
	}

	resp := &PlansResponseCLI{Plans: entries, Total: len(entries)}
	rendered, err := FormatResponse(resp, OutputFormat(plansFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(rendered)
}

func runPlansShow(cmd *cobra.Command, args []string) {
	repoRoot := mustGetRepoRoot()
	cfg := loadConfig(repoRoot, bootLogger())
	logger := newLogger(cfg)

	journal := mustOpenJournal(repoRoot, cfg, logger)
	defer journal.Close()

	p, err := journal.Load(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	resp := &PlanResponseCLI{Plan: p}
	rendered, err := FormatResponse(resp, OutputFormat(plansShowFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(rendered)
}

func runPlansDelete(cmd *cobra.Command, args []string) {
	repoRoot := mustGetRepoRoot()
	cfg := loadConfig(repoRoot, bootLogger())
	logger := newLogger(cfg)

	journal := mustOpenJournal(repoRoot, cfg, logger)
	defer journal.Close()

	if err := journal.Delete(args[0]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Deleted plan %s\n", args[0])
}

// PlansResponseCLI lists journal entries for CLI output
type PlansResponseCLI struct {
	Plans []plan.JournalEntry `json:"plans"`
	Total int                 `json:"total"`
}
