// Copyright 2026 RHSS Authors
// SPDX-License-Identifier: Apache-2.0

// Package hidden implements the optional hidden-storage redirector
// (C7 in the design): when enabled, the engine operates against a
// private scratch copy of the backing roots and syncs back to the
// originals at shutdown, so an interrupted run never leaves the real
// roots in a half-migrated state.
package hidden

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Workspace is a live hidden-storage redirection: the original roots
// and their private mirrors under a unique scratch directory.
type Workspace struct {
	Root string // HiddenRoot, e.g. /tmp/.rhss_<uuid>

	OriginalHot  string
	OriginalCold string

	// Hot and Cold are the effective backing roots callers should use
	// in place of OriginalHot/OriginalCold while the workspace is
	// active.
	Hot  string
	Cold string
}

// New creates a HiddenRoot under the system temp directory with a
// unique name, populates HiddenRoot/hot and HiddenRoot/cold by copying
// the contents of the original roots, and returns the resulting
// Workspace. Regular files keep their mode and mtime; hardlinking is
// attempted first and falls back to a byte copy across devices.
// Directories missing on the destination side are created with mode
// 0700; their original mode and mtime are not copied.
func New(originalHot, originalCold string) (*Workspace, error) {
	root := filepath.Join(os.TempDir(), ".rhss_"+uuid.NewString())
	hot := filepath.Join(root, "hot")
	cold := filepath.Join(root, "cold")

	if err := os.MkdirAll(hot, 0700); err != nil {
		return nil, fmt.Errorf("creating hidden hot root: %w", err)
	}
	if err := os.MkdirAll(cold, 0700); err != nil {
		return nil, fmt.Errorf("creating hidden cold root: %w", err)
	}

	if err := mirrorInto(originalHot, hot); err != nil {
		return nil, fmt.Errorf("mirroring hot root into hidden storage: %w", err)
	}
	if err := mirrorInto(originalCold, cold); err != nil {
		return nil, fmt.Errorf("mirroring cold root into hidden storage: %w", err)
	}

	return &Workspace{
		Root:         root,
		OriginalHot:  originalHot,
		OriginalCold: originalCold,
		Hot:          hot,
		Cold:         cold,
	}, nil
}

// SyncBack copies the hidden hot and cold trees back over the
// original roots, then removes the HiddenRoot. Only files present in
// the hidden trees are copied: a file that was deleted, renamed or
// migrated to the other tier while the workspace was active is not
// removed from the original roots. It is best-effort: the
// first error encountered is returned, but the caller is expected to
// log and continue rather than abort the remaining shutdown steps.
func (w *Workspace) SyncBack() error {
	if err := mirrorInto(w.Hot, w.OriginalHot); err != nil {
		return fmt.Errorf("syncing hot storage back: %w", err)
	}
	if err := mirrorInto(w.Cold, w.OriginalCold); err != nil {
		return fmt.Errorf("syncing cold storage back: %w", err)
	}
	if err := os.RemoveAll(w.Root); err != nil {
		return fmt.Errorf("removing hidden root %s: %w", w.Root, err)
	}
	return nil
}

// mirrorInto recursively copies src's contents into dst, creating dst
// if needed. Regular files are hardlinked when src and dst share a
// device (the common case for same-filesystem temp dirs) and copied
// byte-for-byte otherwise; mode bits are preserved either way.
func mirrorInto(src, dst string) error {
	if err := os.MkdirAll(dst, 0700); err != nil {
		return err
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())

		if entry.IsDir() {
			if err := mirrorInto(srcPath, dstPath); err != nil {
				return err
			}
			continue
		}

		info, err := entry.Info()
		if err != nil {
			return err
		}
		if err := copyOrLink(srcPath, dstPath, info); err != nil {
			return err
		}
	}
	return nil
}

// copyOrLink materializes src at dst, preferring a hardlink and
// falling back to a full copy when linking fails (typically because
// src and dst are on different devices, or dst already exists from a
// prior partial sync-back).
func copyOrLink(src, dst string, info os.FileInfo) error {
	_ = os.Remove(dst)
	if err := os.Link(src, dst); err == nil {
		return nil
	}
	return copyFile(src, dst, info)
}

func copyFile(src, dst string, info os.FileInfo) error {
	source, err := os.Open(src)
	if err != nil {
		return err
	}
	defer source.Close()

	dest, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	defer dest.Close()

	if _, err := io.Copy(dest, source); err != nil {
		return err
	}
	if err := dest.Sync(); err != nil {
		return err
	}
	if err := os.Chmod(dst, info.Mode().Perm()); err != nil {
		return err
	}
	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}
