// Copyright 2026 RHSS Authors
// SPDX-License-Identifier: Apache-2.0

// Command rhss-migrate applies the tier migration engine outside of a
// live mount: either a single file (--path) or a full reconciliation
// scan (--all) across a pair of backing roots.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	flag "github.com/spf13/pflag"

	"github.com/rhss-io/rhss/internal/migration"
	"github.com/rhss-io/rhss/internal/pathresolve"
	"github.com/rhss-io/rhss/internal/tier"
	"github.com/rhss-io/rhss/lib/config"
	"github.com/rhss-io/rhss/lib/process"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	var (
		hotRoot    string
		coldRoot   string
		threshold  uint64
		relPath    string
		all        bool
		configPath string
		logLevel   string
	)

	flag.StringVar(&hotRoot, "hot", "", "hot backing root (required)")
	flag.StringVar(&coldRoot, "cold", "", "cold backing root (required)")
	flag.Uint64Var(&threshold, "threshold", config.DefaultThreshold, "tier threshold in bytes")
	flag.StringVar(&relPath, "path", "", "migrate a single logical path")
	flag.BoolVar(&all, "all", false, "scan and reconcile every file against the threshold")
	flag.StringVar(&configPath, "config", "", "optional YAML config file supplying defaults")
	flag.StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	if configPath != "" {
		cfg, err := config.LoadFile(configPath)
		if err != nil {
			return err
		}
		if !flag.CommandLine.Changed("threshold") {
			threshold = cfg.Threshold
		}
		if !flag.CommandLine.Changed("log-level") {
			logLevel = cfg.LogLevel
		}
	}

	if hotRoot == "" || coldRoot == "" {
		return fmt.Errorf("--hot and --cold are both required")
	}
	if relPath == "" && !all {
		return fmt.Errorf("one of --path or --all is required")
	}
	if relPath != "" && all {
		return fmt.Errorf("--path and --all are mutually exclusive")
	}

	level, err := parseLevel(logLevel)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	hotRoot, err = filepath.Abs(hotRoot)
	if err != nil {
		return fmt.Errorf("resolving hot root: %w", err)
	}
	coldRoot, err = filepath.Abs(coldRoot)
	if err != nil {
		return fmt.Errorf("resolving cold root: %w", err)
	}

	resolver := pathresolve.New(hotRoot, coldRoot)
	engine := migration.New(resolver, nil, threshold)

	if all {
		stats := engine.ScanAndReconcile(hotRoot, coldRoot, logger)
		if stats.Failed > 0 {
			return fmt.Errorf("reconciliation completed with %d failures", stats.Failed)
		}
		return nil
	}

	logical, err := pathresolve.Normalize(relPath)
	if err != nil {
		return err
	}
	target := tier.Decide(statSize(resolver, logical, threshold), threshold)
	outcome, err := engine.Migrate(logical, target)
	if err != nil {
		return err
	}
	logger.Info("migration complete", "path", logical, "target", target, "outcome", outcomeName(outcome))
	return nil
}

// statSize looks up the current size of a logical path in whichever
// tier holds it, so --path migrations decide the target tier the same
// way the namespace engine would.
func statSize(resolver *pathresolve.Resolver, logical string, threshold uint64) uint64 {
	hotPath, coldPath, err := resolver.Resolve(logical)
	if err != nil {
		return 0
	}
	if info, err := os.Stat(hotPath); err == nil {
		return uint64(info.Size())
	}
	if info, err := os.Stat(coldPath); err == nil {
		return uint64(info.Size())
	}
	return 0
}

func outcomeName(o migration.Outcome) string {
	switch o {
	case migration.Moved:
		return "moved"
	case migration.Reconciled:
		return "reconciled"
	default:
		return "no-op"
	}
}

func parseLevel(s string) (slog.Level, error) {
	switch s {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("log level must be one of debug, info, warn, error; got %q", s)
	}
}
