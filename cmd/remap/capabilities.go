package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"remap/internal/alias"
	"remap/internal/lang"
	"remap/internal/scope"
)

var capabilitiesFormat string

var capabilitiesCmd = &cobra.Command{
	Use:   "capabilities",
	Short: "List registered language capabilities",
	Long: `List every registered language module: the file extensions and
filenames it claims, and which operations it supports.`,
	Args: cobra.NoArgs,
	Run:  runCapabilities,
}

func init() {
	capabilitiesCmd.Flags().StringVar(&capabilitiesFormat, "format", "text", "Output format (text, json)")
	rootCmd.AddCommand(capabilitiesCmd)
}

func runCapabilities(cmd *cobra.Command, args []string) {
	repoRoot := mustGetRepoRoot()
	cfg := loadConfig(repoRoot, bootLogger())

	aliases := alias.NewResolver(repoRoot, cfg.Alias)
	registry := lang.NewRegistry(repoRoot, aliases, scope.Default())

	resp := &CapabilitiesResponseCLI{}
	for _, c := range registry.Languages() {
		resp.Languages = append(resp.Languages, LanguageCLI{
			Language:   c.Language,
			Extensions: c.Extensions,
			Filenames:  c.Filenames,
			Supports:   c.Supports(),
		})
	}

	rendered, err := FormatResponse(resp, OutputFormat(capabilitiesFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(rendered)
}

// LanguageCLI summarizes one language module for CLI output
type LanguageCLI struct {
	Language   string   `json:"language"`
	Extensions []string `json:"extensions,omitempty"`
	Filenames  []string `json:"filenames,omitempty"`
	Supports   []string `json:"supports"`
}

// CapabilitiesResponseCLI lists registered language modules
type CapabilitiesResponseCLI struct {
	Languages []LanguageCLI `json:"languages"`
}
