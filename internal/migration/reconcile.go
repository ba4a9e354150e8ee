// Copyright 2026 RHSS Authors
// SPDX-License-Identifier: Apache-2.0

package migration

import (
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"

	"github.com/rhss-io/rhss/internal/tier"
)

// ReconcileStats summarizes one scan_and_reconcile pass, logged at
// completion as the batch reconciliation's ambient progress line.
type ReconcileStats struct {
	Scanned  int
	Migrated int
	Skipped  int
	Failed   int
}

// ScanAndReconcile walks both backing roots and migrates every regular
// file that disagrees with the size threshold policy. The lock file at
// each root is skipped. Walk failures on individual files are logged
// and counted, not fatal to the scan.
func (e *Engine) ScanAndReconcile(hotRoot, coldRoot string, logger *slog.Logger) ReconcileStats {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	stats := ReconcileStats{}
	seen := make(map[string]bool)

	e.walkAndReconcile(hotRoot, tier.Hot, seen, &stats, logger)
	e.walkAndReconcile(coldRoot, tier.Cold, seen, &stats, logger)

	logger.Info("reconciliation complete",
		"scanned", stats.Scanned,
		"migrated", stats.Migrated,
		"skipped", stats.Skipped,
		"failed", stats.Failed,
	)
	return stats
}

func (e *Engine) walkAndReconcile(root string, current tier.Tier, seen map[string]bool, stats *ReconcileStats, logger *slog.Logger) {
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			stats.Failed++
			logger.Error("walk error", "path", path, "error", err)
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if d.Name() == tier.LockFileName {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			stats.Failed++
			return nil
		}
		logical := filepath.ToSlash(rel)
		if seen[logical] {
			return nil
		}
		seen[logical] = true
		stats.Scanned++

		info, err := d.Info()
		if err != nil {
			stats.Failed++
			logger.Error("stat error", "path", path, "error", err)
			return nil
		}

		target := tier.Decide(uint64(info.Size()), e.Threshold)
		if target == current {
			stats.Skipped++
			return nil
		}

		outcome, err := e.Migrate(logical, target)
		if err != nil {
			stats.Failed++
			logger.Error("migration failed", "path", logical, "target", target, "error", err)
			return nil
		}
		if outcome == Moved || outcome == Reconciled {
			stats.Migrated++
		} else {
			stats.Skipped++
		}
		return nil
	})
}

