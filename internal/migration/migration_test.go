// Copyright 2026 RHSS Authors
// SPDX-License-Identifier: Apache-2.0

package migration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rhss-io/rhss/internal/locationcache"
	"github.com/rhss-io/rhss/internal/pathresolve"
	"github.com/rhss-io/rhss/internal/tier"
)

func newEngine(t *testing.T) (*Engine, string, string) {
	t.Helper()
	hot := t.TempDir()
	cold := t.TempDir()
	resolver := pathresolve.New(hot, cold)
	cache := locationcache.New(10, 0, nil)
	return New(resolver, cache, 1<<20), hot, cold
}

func writeFile(t *testing.T, path string, size int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, make([]byte, size), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestMigrate_NoOp(t *testing.T) {
	e, hot, _ := newEngine(t)
	writeFile(t, filepath.Join(hot, "a.txt"), 10)

	outcome, err := e.Migrate("a.txt", tier.Hot)
	if err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if outcome != NoOp {
		t.Errorf("expected NoOp, got %v", outcome)
	}
}

func TestMigrate_Moves(t *testing.T) {
	e, hot, cold := newEngine(t)
	writeFile(t, filepath.Join(hot, "a.txt"), 10)

	outcome, err := e.Migrate("a.txt", tier.Cold)
	if err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if outcome != Moved {
		t.Errorf("expected Moved, got %v", outcome)
	}
	if _, err := os.Stat(filepath.Join(cold, "a.txt")); err != nil {
		t.Errorf("expected file present in cold: %v", err)
	}
	if _, err := os.Stat(filepath.Join(hot, "a.txt")); !os.IsNotExist(err) {
		t.Error("expected file removed from hot")
	}

	loc, res := e.Cache.Lookup("a.txt")
	if res != locationcache.HitPresent || loc.Tier != tier.Cold {
		t.Errorf("expected cache to report cold, got %v %v", loc, res)
	}
}

func TestMigrate_Reconciles(t *testing.T) {
	e, hot, cold := newEngine(t)
	writeFile(t, filepath.Join(hot, "a.txt"), 10)
	writeFile(t, filepath.Join(cold, "a.txt"), 2<<20) // correctly cold-sized

	outcome, err := e.Migrate("a.txt", tier.Cold)
	if err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if outcome != Reconciled {
		t.Errorf("expected Reconciled, got %v", outcome)
	}
	if _, err := os.Stat(filepath.Join(hot, "a.txt")); !os.IsNotExist(err) {
		t.Error("expected stale hot copy removed")
	}
	if _, err := os.Stat(filepath.Join(cold, "a.txt")); err != nil {
		t.Error("expected correctly-sized cold copy to survive")
	}
}

func TestMigrate_NotFound(t *testing.T) {
	e, _, _ := newEngine(t)
	_, err := e.Migrate("missing.txt", tier.Cold)
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestScanAndReconcile(t *testing.T) {
	e, hot, cold := newEngine(t)
	writeFile(t, filepath.Join(hot, "small.txt"), 10)
	writeFile(t, filepath.Join(hot, "big.txt"), 2<<20)
	writeFile(t, filepath.Join(cold, "correct.txt"), 2<<20)
	writeFile(t, filepath.Join(hot, ".rhss.lock"), 5)

	stats := e.ScanAndReconcile(hot, cold, nil)

	if stats.Migrated != 1 {
		t.Errorf("expected 1 migration (big.txt), got %d", stats.Migrated)
	}
	if _, err := os.Stat(filepath.Join(cold, "big.txt")); err != nil {
		t.Error("expected big.txt migrated to cold")
	}
	if _, err := os.Stat(filepath.Join(hot, "small.txt")); err != nil {
		t.Error("expected small.txt to remain in hot")
	}
}
