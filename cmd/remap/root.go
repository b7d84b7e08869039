package main

import (
	"os"

	"remap/internal/config"
	"remap/internal/logging"
	"remap/internal/version"

	"github.com/spf13/cobra"
)

var (
	// logFormatFlag is the CLI --log-format flag value
	logFormatFlag string
	// verboseFlag counts -v occurrences
	verboseFlag int
	// quietFlag suppresses everything below error level
	quietFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "remap",
	Short: "remap - cross-file rename and move planning",
	Long: `remap plans and applies file renames and moves together with every
reference that points at the old location: imports, path aliases, manifests,
workspace member lists, markdown links, and .gitignore patterns. Plans are
previewable, journaled, and re-validated against file content before any
write happens.`,
	Version: version.Version,
}

func init() {
	rootCmd.SetVersionTemplate("remap version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&logFormatFlag, "log-format", "",
		"Log format: human or json (default: human)")
	rootCmd.PersistentFlags().CountVarP(&verboseFlag, "verbose", "v",
		"Increase log verbosity (repeatable)")
	rootCmd.PersistentFlags().BoolVar(&quietFlag, "quiet", false,
		"Only log errors")
}

// resolveLogFormat determines the effective log format from CLI flag, env
// var, and config. Precedence: --log-format > REMAP_LOG_FORMAT > config > human
func resolveLogFormat(cfg *config.Config) logging.Format {
	if logFormatFlag != "" {
		return parseLogFormat(logFormatFlag)
	}
	if env := os.Getenv("REMAP_LOG_FORMAT"); env != "" {
		return parseLogFormat(env)
	}
	if cfg != nil && cfg.Logging.Format != "" {
		return parseLogFormat(cfg.Logging.Format)
	}
	return logging.HumanFormat
}

func parseLogFormat(s string) logging.Format {
	if s == "json" {
		return logging.JSONFormat
	}
	return logging.HumanFormat
}

// resolveLogLevel maps the verbosity flags onto a level, falling back to
// the configured level when neither --quiet nor -v was given.
func resolveLogLevel(cfg *config.Config) logging.LogLevel {
	if quietFlag {
		return logging.ErrorLevel
	}
	if verboseFlag > 0 {
		return logging.DebugLevel
	}
	if cfg != nil && cfg.Logging.Level != "" {
		return logging.ParseLevel(cfg.Logging.Level)
	}
	return logging.InfoLevel
}
