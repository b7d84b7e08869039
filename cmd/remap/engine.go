package main

import (
	"context"
	"fmt"
	"os"

	"remap/internal/alias"
	"remap/internal/config"
	"remap/internal/lang"
	"remap/internal/logging"
	"remap/internal/plan"
	"remap/internal/scan"
	"remap/internal/scope"
)

// loadConfig loads the repository configuration, falling back to
// defaults when no config file exists or it cannot be read.
func loadConfig(repoRoot string, logger *logging.Logger) *config.Config {
	cfg, err := config.LoadConfig(repoRoot)
	if err != nil {
		logger.Warn("Failed to load config, using defaults", map[string]interface{}{
			"error": err.Error(),
		})
		return config.DefaultConfig()
	}
	return cfg
}

// newScanner wires the full scanning pipeline for one invocation: alias
// resolver, language registry, scanner. A workers value > 0 overrides
// the configured pool size.
func newScanner(repoRoot string, cfg *config.Config, sc *scope.Scope, workers int, logger *logging.Logger) *scan.Scanner {
	scanCfg := cfg.Scan
	if workers > 0 {
		scanCfg.Workers = workers
	}
	aliases := alias.NewResolver(repoRoot, cfg.Alias)
	registry := lang.NewRegistry(repoRoot, aliases, sc)
	return scan.New(repoRoot, registry, sc, scanCfg, logger)
}

// resolveScope builds the effective scope from the --scope flag, the
// configured default, and exclude patterns from both sources.
func resolveScope(cfg *config.Config, name string, excludes []string) (*scope.Scope, error) {
	if name == "" {
		name = cfg.Scope.Default
	}
	sc, err := scope.Parse(name)
	if err != nil {
		return nil, err
	}
	patterns := append([]string{}, cfg.Scope.ExcludePatterns...)
	patterns = append(patterns, excludes...)
	if len(patterns) > 0 {
		sc = sc.WithExcludes(patterns)
	}
	return sc, nil
}

// openJournal opens the plan journal, or returns nil when journaling is
// disabled in config.
func openJournal(repoRoot string, cfg *config.Config, logger *logging.Logger) (*plan.Journal, error) {
	if !cfg.Journal.Enabled {
		return nil, nil
	}
	return plan.OpenJournal(repoRoot, cfg.Journal.MaxPlans, logger)
}

// getRepoRoot returns the repository root directory.
func getRepoRoot() (string, error) {
	return os.Getwd()
}

// mustGetRepoRoot returns the repository root or exits on error.
func mustGetRepoRoot() string {
	repoRoot, err := getRepoRoot()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return repoRoot
}

// newContext creates a new context for command execution.
func newContext() context.Context {
	return context.Background()
}

// newLogger creates the command logger honoring the global flags and the
// loaded configuration.
func newLogger(cfg *config.Config) *logging.Logger {
	return logging.NewLogger(logging.Config{
		Format: resolveLogFormat(cfg),
		Level:  resolveLogLevel(cfg),
	})
}

// bootLogger is used before configuration is available.
func bootLogger() *logging.Logger {
	return logging.NewLogger(logging.Config{
		Format: parseLogFormat(logFormatFlag),
		Level:  logging.InfoLevel,
	})
}
