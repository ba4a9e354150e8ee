// Copyright 2026 RHSS Authors
// SPDX-License-Identifier: Apache-2.0

package storagelock

import (
	"os"

	"github.com/rhss-io/rhss/internal/rhsserr"
	"github.com/rhss-io/rhss/internal/tier"
)

// PermissionMemo remembers a backing root's mode from before RHSS
// restricted it, so the original mode can be restored at shutdown.
// Written once at startup, read once at shutdown — no concurrent
// access, per the design's resource model.
type PermissionMemo struct {
	Root         string
	Tier         tier.Tier
	OriginalMode os.FileMode
}

// Restrict sets root's permissions to owner-only (0700) to prevent
// external writers from bypassing tier placement, and returns a memo
// of the mode it replaced.
func Restrict(t tier.Tier, root string) (*PermissionMemo, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, rhsserr.Wrap("stat-root", t, root, err)
	}
	memo := &PermissionMemo{Root: root, Tier: t, OriginalMode: info.Mode().Perm()}
	if err := os.Chmod(root, 0700); err != nil {
		return nil, rhsserr.Wrap("chmod-restrict", t, root, err)
	}
	return memo, nil
}

// Restore reapplies the memoized original mode. Safe to call on a nil
// memo (no-op) so shutdown code does not need to track whether
// restriction ever happened.
func Restore(memo *PermissionMemo) error {
	if memo == nil {
		return nil
	}
	if err := os.Chmod(memo.Root, memo.OriginalMode); err != nil {
		return rhsserr.Wrap("chmod-restore", memo.Tier, memo.Root, err)
	}
	return nil
}
