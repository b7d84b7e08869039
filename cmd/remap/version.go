package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"remap/internal/plan"
	"remap/internal/version"
)

var versionFormat string

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Args:  cobra.NoArgs,
	Run:   runVersion,
}

func init() {
	versionCmd.Flags().StringVar(&versionFormat, "format", "text", "Output format (text, json)")
	rootCmd.AddCommand(versionCmd)
}

func runVersion(cmd *cobra.Command, args []string) {
	if versionFormat == "json" {
		data, err := json.MarshalIndent(map[string]string{
			"version":    version.Version,
			"commit":     version.Commit,
			"buildDate":  version.BuildDate,
			"planSchema": strconv.Itoa(plan.SchemaVersion),
		}, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(data))
		return
	}
	fmt.Println(version.Full())
	fmt.Printf("Plan schema: %d\n", plan.SchemaVersion)
}
