// Copyright 2026 RHSS Authors
// SPDX-License-Identifier: Apache-2.0

package hidden

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewMirrorsContents(t *testing.T) {
	hot := t.TempDir()
	cold := t.TempDir()

	if err := os.WriteFile(filepath.Join(hot, "a.txt"), []byte("hot-a"), 0644); err != nil {
		t.Fatalf("seed hot: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(cold, "sub"), 0755); err != nil {
		t.Fatalf("seed cold dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(cold, "sub", "b.txt"), []byte("cold-b"), 0644); err != nil {
		t.Fatalf("seed cold: %v", err)
	}

	ws, err := New(hot, cold)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer os.RemoveAll(ws.Root)

	data, err := os.ReadFile(filepath.Join(ws.Hot, "a.txt"))
	if err != nil || string(data) != "hot-a" {
		t.Errorf("expected mirrored hot file, got %q err=%v", data, err)
	}
	data, err = os.ReadFile(filepath.Join(ws.Cold, "sub", "b.txt"))
	if err != nil || string(data) != "cold-b" {
		t.Errorf("expected mirrored cold file, got %q err=%v", data, err)
	}
}

func TestSyncBack(t *testing.T) {
	hot := t.TempDir()
	cold := t.TempDir()

	ws, err := New(hot, cold)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// Simulate work done against the hidden workspace.
	if err := os.WriteFile(filepath.Join(ws.Hot, "new.txt"), []byte("written"), 0644); err != nil {
		t.Fatalf("write into hidden workspace: %v", err)
	}

	if err := ws.SyncBack(); err != nil {
		t.Fatalf("SyncBack: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(hot, "new.txt"))
	if err != nil || string(data) != "written" {
		t.Errorf("expected sync-back to original hot root, got %q err=%v", data, err)
	}
	if _, err := os.Stat(ws.Root); !os.IsNotExist(err) {
		t.Error("expected hidden root removed after sync-back")
	}
}
