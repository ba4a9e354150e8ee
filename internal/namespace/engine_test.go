// Copyright 2026 RHSS Authors
// SPDX-License-Identifier: Apache-2.0

package namespace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rhss-io/rhss/internal/locationcache"
	"github.com/rhss-io/rhss/internal/pathresolve"
	"github.com/rhss-io/rhss/internal/tier"
)

func newTestEngine(t *testing.T) (*Engine, string, string) {
	t.Helper()
	hot := t.TempDir()
	cold := t.TempDir()
	resolver := pathresolve.New(hot, cold)
	cache := locationcache.New(10, 0, nil)
	return New(resolver, cache, 1<<20, nil), hot, cold
}

func TestLocate_HotFile(t *testing.T) {
	e, hot, _ := newTestEngine(t)
	if err := os.WriteFile(filepath.Join(hot, "a.txt"), []byte("hi"), 0644); err != nil {
		t.Fatalf("seed: %v", err)
	}

	located, err := e.Locate("a.txt")
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if located.Tier != tier.Hot {
		t.Errorf("expected Hot, got %v", located.Tier)
	}
}

func TestLocate_NotFound(t *testing.T) {
	e, _, _ := newTestEngine(t)
	if _, err := e.Locate("missing.txt"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLocate_CachedHitReprobes(t *testing.T) {
	e, hot, _ := newTestEngine(t)
	path := filepath.Join(hot, "a.txt")
	if err := os.WriteFile(path, []byte("hi"), 0644); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if _, err := e.Locate("a.txt"); err != nil {
		t.Fatalf("first Locate: %v", err)
	}

	// Externally remove the file; the cache still claims Hot, but
	// Locate must reprobe and discover it is now absent.
	if err := os.Remove(path); err != nil {
		t.Fatalf("remove: %v", err)
	}

	if _, err := e.Locate("a.txt"); err == nil {
		t.Fatal("expected Locate to reprobe and report not found")
	}
}

func TestLocate_CollisionPrefersPolicyTier(t *testing.T) {
	e, hot, cold := newTestEngine(t)
	if err := os.WriteFile(filepath.Join(hot, "a.txt"), make([]byte, 10), 0644); err != nil {
		t.Fatalf("seed hot: %v", err)
	}
	if err := os.WriteFile(filepath.Join(cold, "a.txt"), make([]byte, 2<<20), 0644); err != nil {
		t.Fatalf("seed cold: %v", err)
	}

	located, err := e.Locate("a.txt")
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if located.Tier != tier.Cold {
		t.Errorf("expected Cold (policy-correct for size), got %v", located.Tier)
	}
}

func TestEvaluateTier_MigratesOnGrowth(t *testing.T) {
	e, hot, cold := newTestEngine(t)
	if err := os.WriteFile(filepath.Join(hot, "a.txt"), make([]byte, 10), 0644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	e.Cache.Insert("a.txt", tier.Hot)

	e.EvaluateTier("a.txt", 2<<20)

	if _, err := os.Stat(filepath.Join(cold, "a.txt")); err != nil {
		t.Errorf("expected file migrated to cold after growth: %v", err)
	}
}
