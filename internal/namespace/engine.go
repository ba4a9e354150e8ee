// Copyright 2026 RHSS Authors
// SPDX-License-Identifier: Apache-2.0

// Package namespace implements the union-view namespace engine (C6 in
// the design): the component the kernel-facing FUSE transport drives
// for every filesystem operation. It resolves each logical path to a
// backing tier via the cache-first, stat-fallback Locate protocol,
// applies the tier policy on writes, and invokes the migration engine
// when a file's size drifts out of policy or a collision needs
// reconciling.
package namespace

import (
	"log/slog"
	"os"

	"github.com/rhss-io/rhss/internal/locationcache"
	"github.com/rhss-io/rhss/internal/migration"
	"github.com/rhss-io/rhss/internal/pathresolve"
	"github.com/rhss-io/rhss/internal/rhsserr"
	"github.com/rhss-io/rhss/internal/tier"
)

// Engine holds the collaborators the namespace operations drive: the
// path resolver, the location cache, the migration engine, and the
// size threshold the tier policy is evaluated against.
type Engine struct {
	Resolver  *pathresolve.Resolver
	Cache     *locationcache.Cache
	Migration *migration.Engine
	Threshold uint64
	Logger    *slog.Logger
}

// New builds an Engine. logger defaults to a discard logger when nil.
func New(resolver *pathresolve.Resolver, cache *locationcache.Cache, threshold uint64, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(discard{}, nil))
	}
	migrationEngine := migration.New(resolver, cache, threshold)
	return &Engine{
		Resolver:  resolver,
		Cache:     cache,
		Migration: migrationEngine,
		Threshold: threshold,
		Logger:    logger,
	}
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

// Located is the outcome of resolving a logical path: the tier it
// currently lives in and its backing path.
type Located struct {
	Tier        tier.Tier
	BackingPath string
}

// Locate implements the resolution protocol shared by every
// operation: consult the cache; on a hit, verify the indicated tier
// still has the file; on a miss or stale hit, stat both tiers. If both
// tiers have the path (an invariant-1 violation), a copy whose size
// satisfies its own tier's policy wins (the cold copy when both do),
// the most recent mtime decides when neither does, and a
// reconciliation migration is scheduled in the background so the
// caller is not blocked by cleanup.
func (e *Engine) Locate(p string) (Located, error) {
	hotPath, coldPath, err := e.Resolver.Resolve(p)
	if err != nil {
		return Located{}, err
	}

	if loc, res := e.Cache.Lookup(p); res == locationcache.HitPresent {
		backing := hotPath
		if loc.Tier == tier.Cold {
			backing = coldPath
		}
		if _, err := os.Lstat(backing); err == nil {
			return Located{Tier: loc.Tier, BackingPath: backing}, nil
		}
		e.Cache.Invalidate(p)
	} else if res == locationcache.HitAbsent {
		hotInfo, hotErr := os.Lstat(hotPath)
		coldInfo, coldErr := os.Lstat(coldPath)
		if hotErr != nil && coldErr != nil {
			return Located{}, rhsserr.ErrNotFound
		}
		e.Cache.Invalidate(p)
		return e.resolveFromStat(p, hotPath, coldPath, hotInfo, hotErr, coldInfo, coldErr)
	}

	hotInfo, hotErr := os.Lstat(hotPath)
	coldInfo, coldErr := os.Lstat(coldPath)
	if hotErr != nil && coldErr != nil {
		e.Cache.MarkAbsent(p)
		return Located{}, rhsserr.ErrNotFound
	}
	return e.resolveFromStat(p, hotPath, coldPath, hotInfo, hotErr, coldInfo, coldErr)
}

func (e *Engine) resolveFromStat(p, hotPath, coldPath string, hotInfo os.FileInfo, hotErr error, coldInfo os.FileInfo, coldErr error) (Located, error) {
	hotExists := hotErr == nil
	coldExists := coldErr == nil

	if hotExists && !coldExists {
		e.Cache.Insert(p, tier.Hot)
		return Located{Tier: tier.Hot, BackingPath: hotPath}, nil
	}
	if coldExists && !hotExists {
		e.Cache.Insert(p, tier.Cold)
		return Located{Tier: tier.Cold, BackingPath: coldPath}, nil
	}

	// Both exist: invariant-1 violation. Prefer a policy-correct copy
	// (cold first); tie-break by most recent mtime when neither copy
	// is policy-correct; schedule reconciliation.
	winner := tier.Hot
	switch {
	case tier.Satisfies(tier.Cold, uint64(coldInfo.Size()), e.Threshold):
		winner = tier.Cold
	case tier.Satisfies(tier.Hot, uint64(hotInfo.Size()), e.Threshold):
		winner = tier.Hot
	case coldInfo.ModTime().After(hotInfo.ModTime()):
		winner = tier.Cold
	default:
		winner = tier.Hot
	}

	e.Cache.Insert(p, winner)
	e.scheduleReconciliation(p, winner)

	backing := hotPath
	if winner == tier.Cold {
		backing = coldPath
	}
	return Located{Tier: winner, BackingPath: backing}, nil
}

// scheduleReconciliation runs a single-file migration in the
// background so that resolving a collision never blocks the operation
// that discovered it. Failures are logged; the cache already reflects
// the chosen winner regardless of whether cleanup succeeds.
func (e *Engine) scheduleReconciliation(p string, winner tier.Tier) {
	go func() {
		if _, err := e.Migration.Migrate(p, winner); err != nil {
			e.Logger.Error("reconciliation migration failed", "path", p, "tier", winner, "error", err)
		}
	}()
}

// EvaluateTier re-evaluates a file's tier against the threshold after
// a write or truncate completes, invoking a migration if the new size
// disagrees with policy. Called at close/flush time per the
// close-time migration decision.
func (e *Engine) EvaluateTier(p string, size uint64) {
	target := tier.Decide(size, e.Threshold)
	current, err := e.Locate(p)
	if err != nil {
		return
	}
	if current.Tier == target {
		return
	}
	if _, err := e.Migration.Migrate(p, target); err != nil {
		e.Logger.Error("post-write migration failed", "path", p, "target", target, "error", err)
	}
}
