// Copyright 2026 RHSS Authors
// SPDX-License-Identifier: Apache-2.0

// Package rhsserr defines the error taxonomy shared by every RHSS core
// component. Errors arising from the host filesystem are wrapped with
// enough context (tier, path, operation) to log usefully, then reported
// to the caller unchanged in semantics — the namespace engine is the
// only place that translates these into kernel error codes.
package rhsserr

import (
	"errors"
	"fmt"

	"github.com/rhss-io/rhss/internal/tier"
)

// Sentinel errors the core distinguishes. Use errors.Is to test for
// these; IoError additionally wraps an underlying error via Unwrap.
var (
	// ErrInvalidPath is returned when a logical path escapes its
	// backing root or is otherwise malformed. Never retried.
	ErrInvalidPath = errors.New("invalid path")

	// ErrStorageLocked is returned when a storage lock could not be
	// acquired because another live process holds it. Fatal at
	// startup.
	ErrStorageLocked = errors.New("storage locked by another instance")

	// ErrNotFound is returned when neither tier has the requested
	// path.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists is returned when a create conflicts with an
	// existing file.
	ErrAlreadyExists = errors.New("already exists")

	// ErrNotEmpty is returned by rmdir when the merged directory
	// listing is non-empty.
	ErrNotEmpty = errors.New("directory not empty")

	// ErrMigrationFailed is returned when a single-file migration
	// could not complete. The original file is preserved on the
	// source tier and the location cache is invalidated for the path.
	ErrMigrationFailed = errors.New("migration failed")
)

// StorageLockedError carries the detail spec.md requires for the
// StorageLocked{tier, pid, mount_point} case, while still matching
// errors.Is(err, ErrStorageLocked).
type StorageLockedError struct {
	Tier        tier.Tier
	PID         int
	MountPoint  string
	LockPath    string
}

func (e *StorageLockedError) Error() string {
	return fmt.Sprintf("storage locked: tier=%s pid=%d mount=%s lock=%s", e.Tier, e.PID, e.MountPoint, e.LockPath)
}

func (e *StorageLockedError) Is(target error) bool { return target == ErrStorageLocked }

// ExitCode implements lib/process.ExitCoder: storage-locked is a
// distinct, documented exit status (2).
func (e *StorageLockedError) ExitCode() int { return 2 }

// IoError wraps an underlying filesystem error with the tier, path,
// and operation it occurred under. It satisfies errors.Unwrap so
// callers can still test for the underlying os.* sentinel errors.
type IoError struct {
	Tier tier.Tier
	Path string
	Op   string
	Err  error
}

func (e *IoError) Error() string {
	return fmt.Sprintf("%s %s (tier=%s path=%s): %v", e.Op, e.Path, e.Tier, e.Path, e.Err)
}

func (e *IoError) Unwrap() error { return e.Err }

// Wrap builds an IoError, or returns nil if err is nil.
func Wrap(op string, t tier.Tier, path string, err error) error {
	if err == nil {
		return nil
	}
	return &IoError{Tier: t, Path: path, Op: op, Err: err}
}

// MountError carries a distinct exit code (3) for failures to bring
// the FUSE transport up.
type MountError struct {
	Mountpoint string
	Err        error
}

func (e *MountError) Error() string {
	return fmt.Sprintf("mounting %s: %v", e.Mountpoint, e.Err)
}

func (e *MountError) Unwrap() error { return e.Err }

func (e *MountError) ExitCode() int { return 3 }

// SyncBackError carries exit code 4: hidden-storage sync-back failed
// during shutdown. Unmount and lock release still proceed; this only
// affects the final process exit status.
type SyncBackError struct {
	Err error
}

func (e *SyncBackError) Error() string { return fmt.Sprintf("hidden-storage sync-back: %v", e.Err) }
func (e *SyncBackError) Unwrap() error { return e.Err }
func (e *SyncBackError) ExitCode() int { return 4 }

// UnmountError carries exit code 5: the FUSE transport could not be
// unmounted even after escalation to a lazy unmount.
type UnmountError struct {
	Err error
}

func (e *UnmountError) Error() string { return fmt.Sprintf("unmount: %v", e.Err) }
func (e *UnmountError) Unwrap() error { return e.Err }
func (e *UnmountError) ExitCode() int { return 5 }
