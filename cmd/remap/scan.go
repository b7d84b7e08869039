package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"remap/internal/plan"
	"remap/internal/scan"
	"remap/internal/scope"
)

var (
	scanScope    string
	scanExcludes []string
	scanAll      bool
	scanFormat   string
)

var scanCmd = &cobra.Command{
	Use:   "scan <old-path> <new-path>",
	Short: "List candidate references without building a plan",
	Long: `Show the raw reference candidates detection finds for a rename or
move, with the detection method that produced each one. This is the
debug view: candidates are listed before overlap resolution.

With --all every category participates regardless of the configured
scope, matching what a plan under --scope=everything would consider.

Examples:
  remap scan src/utils.ts src/helpers.ts
  remap scan src/old-dir src/new-dir --all`,
	Args: cobra.ExactArgs(2),
	Run:  runScan,
}

func init() {
	scanCmd.Flags().StringVar(&scanScope, "scope", "", "Reference scope (code, docs, standard, everything)")
	scanCmd.Flags().StringArrayVar(&scanExcludes, "exclude", nil, "Glob pattern to exclude (repeatable)")
	scanCmd.Flags().BoolVar(&scanAll, "all", false, "Detect across every category regardless of scope")
	scanCmd.Flags().StringVar(&scanFormat, "format", "text", "Output format (text, json)")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) {
	start := time.Now()
	repoRoot := mustGetRepoRoot()
	cfg := loadConfig(repoRoot, bootLogger())
	logger := newLogger(cfg)

	scopeName := scanScope
	if scanAll {
		scopeName = scope.PresetEverything
	}
	sc, err := resolveScope(cfg, scopeName, scanExcludes)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	op, err := scan.DetectOperation(repoRoot, args[0], args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	scanner := newScanner(repoRoot, cfg, sc, 0, logger)
	candidates, warnings, err := scanner.Candidates(newContext(), op)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error scanning: %v\n", err)
		os.Exit(1)
	}

	resp := &ScanResponseCLI{
		Operation:  op,
		Candidates: candidates,
		Warnings:   warnings,
		Total:      len(candidates),
	}
	rendered, err := FormatResponse(resp, OutputFormat(scanFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(rendered)

	logger.Debug("Scan completed", map[string]interface{}{
		"candidates": len(candidates),
		"warnings":   len(warnings),
		"duration":   time.Since(start).Milliseconds(),
	})
}

// ScanResponseCLI lists raw detection candidates for CLI output
type ScanResponseCLI struct {
	Operation  plan.Operation            `json:"operation"`
	Candidates []plan.CandidateReference `json:"candidates"`
	Warnings   []plan.Warning            `json:"warnings,omitempty"`
	Total      int                       `json:"total"`
}
