// Copyright 2026 RHSS Authors
// SPDX-License-Identifier: Apache-2.0

package namespace

import "golang.org/x/sys/unix"

// unmountLazy detaches the mount immediately and cleans it up once the
// last reference closes, the standard escalation when a plain unmount
// reports EBUSY.
func unmountLazy(mountpoint string) error {
	return unix.Unmount(mountpoint, unix.MNT_DETACH)
}
