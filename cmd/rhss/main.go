// Copyright 2026 RHSS Authors
// SPDX-License-Identifier: Apache-2.0

// Command rhss mounts the tiered-storage union filesystem: a single
// directory hierarchy backed by a hot and a cold root, with files
// placed and migrated between them according to a size threshold.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	flag "github.com/spf13/pflag"

	"github.com/rhss-io/rhss/internal/hidden"
	"github.com/rhss-io/rhss/internal/locationcache"
	"github.com/rhss-io/rhss/internal/namespace"
	"github.com/rhss-io/rhss/internal/pathresolve"
	"github.com/rhss-io/rhss/internal/shutdown"
	"github.com/rhss-io/rhss/internal/storagelock"
	"github.com/rhss-io/rhss/internal/tier"
	"github.com/rhss-io/rhss/lib/clock"
	"github.com/rhss-io/rhss/lib/config"
	"github.com/rhss-io/rhss/lib/process"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	var (
		mountpoint    string
		hotRoot       string
		coldRoot      string
		threshold     uint64
		force         bool
		hiddenStorage bool
		mode          string
		configPath    string
		logLevel      string
		showVersion   bool
	)

	flag.StringVarP(&mountpoint, "mount", "m", "", "mount point (required)")
	flag.StringVarP(&hotRoot, "hot", "H", "", "hot backing root (required)")
	flag.StringVarP(&coldRoot, "cold", "C", "", "cold backing root (required)")
	flag.Uint64VarP(&threshold, "threshold", "t", config.DefaultThreshold, "tier threshold in bytes")
	flag.BoolVar(&force, "force", false, "ignore/override an existing stale storage lock")
	flag.BoolVar(&hiddenStorage, "hidden-storage", false, "redirect through a private scratch workspace, syncing back on shutdown")
	flag.StringVar(&mode, "mode", "fuse", "transport backend (only \"fuse\" is implemented)")
	flag.StringVar(&configPath, "config", "", "optional YAML config file supplying defaults")
	flag.StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	flag.BoolVar(&showVersion, "version", false, "print version and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("rhss %s\n", version)
		return nil
	}

	if configPath != "" {
		cfg, err := config.LoadFile(configPath)
		if err != nil {
			return err
		}
		if !flag.CommandLine.Changed("threshold") {
			threshold = cfg.Threshold
		}
		if !flag.CommandLine.Changed("force") {
			force = cfg.Force
		}
		if !flag.CommandLine.Changed("hidden-storage") {
			hiddenStorage = cfg.HiddenStorage
		}
		if !flag.CommandLine.Changed("mode") {
			mode = cfg.Mode
		}
		if !flag.CommandLine.Changed("log-level") {
			logLevel = cfg.LogLevel
		}
	}

	if mountpoint == "" || hotRoot == "" || coldRoot == "" {
		return fmt.Errorf("--mount, --hot, and --cold are all required")
	}
	if mode != "fuse" {
		return fmt.Errorf("unsupported --mode %q: only \"fuse\" is implemented", mode)
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
	mountpoint, err = filepath.Abs(mountpoint)
	if err != nil {
		return fmt.Errorf("resolving mount point: %w", err)
	}

	originalHot, originalCold := hotRoot, coldRoot

	var workspace *hidden.Workspace
	if hiddenStorage {
		workspace, err = hidden.New(hotRoot, coldRoot)
		if err != nil {
			return fmt.Errorf("setting up hidden storage: %w", err)
		}
		hotRoot, coldRoot = workspace.Hot, workspace.Cold
		logger.Info("hidden storage active", "root", workspace.Root)
	}

	hotLock, err := storagelock.Acquire(tier.Hot, hotRoot, mountpoint, force, clock.Real())
	if err != nil {
		return err
	}
	coldLock, err := storagelock.Acquire(tier.Cold, coldRoot, mountpoint, force, clock.Real())
	if err != nil {
		hotLock.Release()
		return err
	}

	hotMemo, err := storagelock.Restrict(tier.Hot, hotRoot)
	if err != nil {
		return err
	}
	coldMemo, err := storagelock.Restrict(tier.Cold, coldRoot)
	if err != nil {
		return err
	}

	resolver := pathresolve.New(hotRoot, coldRoot)
	cache := locationcache.New(locationcache.DefaultCapacity, locationcache.DefaultTTL, nil)
	engine := namespace.New(resolver, cache, threshold, logger)

	server, err := namespace.Mount(namespace.Options{
		Mountpoint: mountpoint,
		Engine:     engine,
	})
	if err != nil {
		return err
	}
	logger.Info("mounted", "mountpoint", mountpoint, "hot", originalHot, "cold", originalCold, "threshold", threshold)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	coordinator := shutdown.New(logger, server, workspace, hotMemo, coldMemo, hotLock, coldLock)

	done := make(chan struct{})
	go func() {
		server.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
	case <-done:
	}

	result := coordinator.Shutdown()
	<-done

	if code := result.ExitCode(); code != 0 {
		return exitError{code: code}
	}
	return nil
}

type exitError struct{ code int }

func (e exitError) Error() string { return "shutdown completed with errors" }
func (e exitError) ExitCode() int { return e.code }

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
