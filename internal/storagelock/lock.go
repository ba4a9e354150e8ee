// Copyright 2026 RHSS Authors
// SPDX-License-Identifier: Apache-2.0

// Package storagelock implements the per-tier advisory lock file that
// asserts exclusive mount ownership (C4 in the design). The lock file
// is created with O_EXCL, so its creation is the atomic step; the JSON
// record is then written and fsynced in place, without a temporary
// file or rename.
package storagelock

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sys/unix"

	"github.com/rhss-io/rhss/internal/rhsserr"
	"github.com/rhss-io/rhss/internal/tier"
	"github.com/rhss-io/rhss/lib/clock"
)

// FileName is the reserved lock file name at the root of each backing
// tier.
const FileName = tier.LockFileName

// MaxLockAge is the wall-clock age at which a lock is treated as stale
// even if its owning pid still happens to be alive (e.g. pid reuse
// after a reboot, or a long-dead lock on a host that recycles pids
// slowly). A lock older than this is reclaimed the same as one whose
// process has exited.
const MaxLockAge = 24 * time.Hour

// Record is the JSON body of a lock file.
type Record struct {
	PID        int       `json:"pid"`
	Hostname   string    `json:"hostname"`
	MountPoint string    `json:"mount_point"`
	StartedAt  time.Time `json:"started_at"`
}

// Lock represents one held advisory lock over a single backing root.
// Release deletes the file; it is safe to call Release more than once.
type Lock struct {
	tier     tier.Tier
	path     string
	released bool
}

// Path returns the on-disk lock file path.
func (l *Lock) Path() string { return l.path }

// Acquire implements the full C4 startup protocol for one backing
// root: read and evaluate any existing lock, then create a fresh one.
//
//   - force=true deletes any existing lock unconditionally before
//     proceeding.
//   - Otherwise, an existing lock is read; if its pid names a live
//     process on this host AND the lock is younger than MaxLockAge,
//     acquisition fails with StorageLockedError. If the pid is not live
//     (a stale lock from a crash) or the lock has simply outlived
//     MaxLockAge, the file is deleted and acquisition proceeds.
//   - The new lock file is created with O_EXCL so a second instance
//     racing to create it loses and fails with StorageLockedError
//     rather than corrupting the winner's file.
func Acquire(t tier.Tier, root string, mountPoint string, force bool, clk clock.Clock) (*Lock, error) {
	if clk == nil {
		clk = clock.Real()
	}
	path := filepath.Join(root, FileName)

	if existing, err := readRecord(path); err == nil {
		if force {
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				return nil, rhsserr.Wrap("remove-stale-lock", t, path, err)
			}
		} else if !isStale(existing, clk) {
			return nil, &rhsserr.StorageLockedError{
				Tier:       t,
				PID:        existing.PID,
				MountPoint: existing.MountPoint,
				LockPath:   path,
			}
		} else {
			// Stale lock: the owning process no longer exists, or the
			// lock has outlived MaxLockAge.
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				return nil, rhsserr.Wrap("remove-stale-lock", t, path, err)
			}
		}
	} else if !os.IsNotExist(err) {
		return nil, rhsserr.Wrap("read-lock", t, path, err)
	}

	hostname, _ := os.Hostname()
	record := Record{
		PID:        os.Getpid(),
		Hostname:   hostname,
		MountPoint: mountPoint,
		StartedAt:  clk.Now(),
	}
	if err := createExclusive(path, record); err != nil {
		if os.IsExist(err) {
			// Lost a creation race against another instance.
			if existing, readErr := readRecord(path); readErr == nil {
				return nil, &rhsserr.StorageLockedError{
					Tier:       t,
					PID:        existing.PID,
					MountPoint: existing.MountPoint,
					LockPath:   path,
				}
			}
			return nil, &rhsserr.StorageLockedError{Tier: t, LockPath: path}
		}
		return nil, rhsserr.Wrap("create-lock", t, path, err)
	}

	return &Lock{tier: t, path: path}, nil
}

// Release deletes the lock file. Idempotent.
func (l *Lock) Release() error {
	if l == nil || l.released {
		return nil
	}
	l.released = true
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return rhsserr.Wrap("release-lock", l.tier, l.path, err)
	}
	return nil
}

func readRecord(path string) (Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Record{}, err
	}
	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return Record{}, fmt.Errorf("parsing lock file %s: %w", path, err)
	}
	return record, nil
}

// createExclusive atomically creates path with O_EXCL, writes the JSON
// record, and fsyncs before close. Unlike the temp-file-then-rename
// pattern used elsewhere for state that must never be read partially
// written, the lock file's existence IS the lock: an O_EXCL create is
// itself the atomic compare-and-swap, so no rename step is needed.
func createExclusive(path string, record Record) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling lock record: %w", err)
	}
	data = append(data, '\n')

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return err
	}
	defer file.Close()

	if _, err := file.Write(data); err != nil {
		os.Remove(path)
		return err
	}
	// fsync is recommended, not required, by the design; best effort.
	_ = file.Sync()
	return nil
}

// isStale reports whether an existing lock record should be reclaimed:
// either its pid is no longer live, or it has outlived MaxLockAge
// regardless of liveness.
func isStale(r Record, clk clock.Clock) bool {
	if !processAlive(r.PID) {
		return true
	}
	return clk.Now().Sub(r.StartedAt) > MaxLockAge
}

// processAlive reports whether pid names a live process on this host.
// Sending signal 0 performs the existence check without side effects —
// the portable way to test liveness without reading /proc directly.
func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	if err == nil {
		return true
	}
	// EPERM means the process exists but we can't signal it (e.g. a
	// different user) — it is still alive.
	return err == unix.EPERM
}
