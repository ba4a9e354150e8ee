// Copyright 2026 RHSS Authors
// SPDX-License-Identifier: Apache-2.0

// Package shutdown implements the graceful shutdown coordinator (C8 in
// the design): a signal-driven, idempotent six-step protocol that
// drains the mount, unmounts the transport, syncs hidden storage back,
// restores permissions, and releases lock files exactly once no matter
// how many termination signals arrive.
package shutdown

import (
	"log/slog"
	"sync"

	"github.com/rhss-io/rhss/internal/hidden"
	"github.com/rhss-io/rhss/internal/storagelock"
)

// Unmounter is the subset of the FUSE transport lifecycle the
// coordinator drives. The namespace engine's mount wrapper implements
// this; tests supply a fake.
type Unmounter interface {
	Unmount() error
	// UnmountLazy performs a lazy (detach-now, clean-up-later) unmount,
	// used as an escalation when a plain Unmount reports the mount is
	// busy.
	UnmountLazy() error
}

// Coordinator runs the shutdown protocol exactly once regardless of
// how many times Shutdown is called (e.g. once per caught signal).
type Coordinator struct {
	logger *slog.Logger

	transport Unmounter
	workspace *hidden.Workspace // nil unless hidden-storage is active
	hotMemo   *storagelock.PermissionMemo
	coldMemo  *storagelock.PermissionMemo
	hotLock   *storagelock.Lock
	coldLock  *storagelock.Lock

	once   sync.Once
	result Result
}

// Result records the outcome of each shutdown step for the final exit
// status decision.
type Result struct {
	UnmountErr   error
	SyncBackErr  error
	RestoreErr   error
	ReleaseErr   error
	Drained      bool
}

// New builds a Coordinator for one mount session. workspace is nil
// when hidden-storage was not enabled.
func New(logger *slog.Logger, transport Unmounter, workspace *hidden.Workspace, hotMemo, coldMemo *storagelock.PermissionMemo, hotLock, coldLock *storagelock.Lock) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		logger:    logger,
		transport: transport,
		workspace: workspace,
		hotMemo:   hotMemo,
		coldMemo:  coldMemo,
		hotLock:   hotLock,
		coldLock:  coldLock,
	}
}

// Shutdown runs the six-step protocol. Safe to call concurrently and
// repeatedly; only the first call does any work, and every caller
// observes the same Result.
func (c *Coordinator) Shutdown() Result {
	c.once.Do(c.run)
	return c.result
}

func (c *Coordinator) run() {
	c.result.Drained = true
	c.logger.Info("shutdown: draining mount")

	c.logger.Info("shutdown: requesting unmount")
	if err := c.transport.Unmount(); err != nil {
		c.logger.Warn("unmount busy, escalating to lazy unmount", "error", err)
		if err := c.transport.UnmountLazy(); err != nil {
			c.logger.Error("lazy unmount failed", "error", err)
			c.result.UnmountErr = err
		}
	}

	if c.workspace != nil {
		c.logger.Info("shutdown: syncing hidden storage back")
		if err := c.workspace.SyncBack(); err != nil {
			c.logger.Error("hidden-storage sync-back failed", "error", err)
			c.result.SyncBackErr = err
		}
	}

	c.logger.Info("shutdown: restoring permissions")
	if err := storagelock.Restore(c.hotMemo); err != nil {
		c.logger.Error("restoring hot permissions failed", "error", err)
		c.result.RestoreErr = err
	}
	if err := storagelock.Restore(c.coldMemo); err != nil && c.result.RestoreErr == nil {
		c.logger.Error("restoring cold permissions failed", "error", err)
		c.result.RestoreErr = err
	}

	c.logger.Info("shutdown: releasing lock files")
	if err := c.hotLock.Release(); err != nil {
		c.logger.Error("releasing hot lock failed", "error", err)
		c.result.ReleaseErr = err
	}
	if err := c.coldLock.Release(); err != nil && c.result.ReleaseErr == nil {
		c.logger.Error("releasing cold lock failed", "error", err)
		c.result.ReleaseErr = err
	}

	c.logger.Info("shutdown: complete", "exit_code", c.result.ExitCode())
}

// ExitCode maps the accumulated step failures to the process exit
// status taxonomy: unmount failure takes priority (5) over a
// sync-back failure (4), matching the order those steps run in.
func (r Result) ExitCode() int {
	switch {
	case r.UnmountErr != nil:
		return 5
	case r.SyncBackErr != nil:
		return 4
	default:
		return 0
	}
}
