package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"remap/internal/alias"
)

var aliasesFormat string

var aliasesCmd = &cobra.Command{
	Use:   "aliases [file]",
	Short: "Show the alias rules governing a file",
	Long: `Show the path alias mappings in effect for a file. The nearest
tsconfig.json above the file decides which rules apply, so in a monorepo
different files can see different rules. Without an argument the project
root's configuration is shown.

Examples:
  remap aliases
  remap aliases packages/app/src/main.ts`,
	Args: cobra.MaximumNArgs(1),
	Run:  runAliases,
}

func init() {
	aliasesCmd.Flags().StringVar(&aliasesFormat, "format", "text", "Output format (text, json)")
	rootCmd.AddCommand(aliasesCmd)
}

func runAliases(cmd *cobra.Command, args []string) {
	repoRoot := mustGetRepoRoot()
	cfg := loadConfig(repoRoot, bootLogger())

	// MapFor searches upward from the file's directory, so a synthetic
	// name directly under the root selects the root configuration.
	contextFile := filepath.Join(repoRoot, "_.ts")
	shown := "(project root)"
	if len(args) == 1 {
		shown = args[0]
		if filepath.IsAbs(args[0]) {
			contextFile = args[0]
		} else {
			contextFile = filepath.Join(repoRoot, filepath.FromSlash(args[0]))
		}
	}

	resolver := alias.NewResolver(repoRoot, cfg.Alias)
	m, err := resolver.MapFor(contextFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	resp := &AliasesResponseCLI{File: shown}
	if m == nil {
		resp.Message = fmt.Sprintf("No alias configuration in scope for %s", shown)
	} else {
		resp.Source = m.Source
		resp.BaseDir = m.BaseDir
		for _, p := range m.Patterns {
			resp.Rules = append(resp.Rules, AliasRuleCLI{
				Pattern:      p.Raw,
				Replacements: p.Replacements,
			})
		}
	}

	rendered, err := FormatResponse(resp, OutputFormat(aliasesFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(rendered)
}

// AliasRuleCLI is one alias pattern with its resolution targets
type AliasRuleCLI struct {
	Pattern      string   `json:"pattern"`
	Replacements []string `json:"replacements"`
}

// AliasesResponseCLI reports the alias rules in scope for a file
type AliasesResponseCLI struct {
	File    string         `json:"file"`
	Source  string         `json:"source,omitempty"`
	BaseDir string         `json:"baseDir,omitempty"`
	Rules   []AliasRuleCLI `json:"rules,omitempty"`
	Message string         `json:"message,omitempty"`
}
