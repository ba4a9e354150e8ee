// Copyright 2026 RHSS Authors
// SPDX-License-Identifier: Apache-2.0

package namespace

import (
	"syscall"

	"github.com/hanwen/go-fuse/v2/fuse"
	"golang.org/x/sys/unix"
)

// statfs aggregates free and available space across both effective
// backing roots and reports the smaller of the two block sizes, a
// conservative choice per the design's statfs contract.
func (e *Engine) statfs(out *fuse.StatfsOut) syscall.Errno {
	var hot, cold unix.Statfs_t
	if err := unix.Statfs(e.Resolver.Hot, &hot); err != nil {
		return errnoFor(err)
	}
	if err := unix.Statfs(e.Resolver.Cold, &cold); err != nil {
		return errnoFor(err)
	}

	bsize := hot.Bsize
	if cold.Bsize < bsize {
		bsize = cold.Bsize
	}
	if bsize <= 0 {
		bsize = 4096
	}

	scale := func(blocks uint64, fromBsize int64) uint64 {
		if fromBsize <= 0 || int64(bsize) == fromBsize {
			return blocks
		}
		return blocks * uint64(fromBsize) / uint64(bsize)
	}

	out.Bsize = uint32(bsize)
	out.Frsize = uint32(bsize)
	out.Blocks = scale(hot.Blocks, hot.Bsize) + scale(cold.Blocks, cold.Bsize)
	out.Bfree = scale(hot.Bfree, hot.Bsize) + scale(cold.Bfree, cold.Bsize)
	out.Bavail = scale(hot.Bavail, hot.Bsize) + scale(cold.Bavail, cold.Bsize)
	out.Files = hot.Files + cold.Files
	out.Ffree = hot.Ffree + cold.Ffree
	out.NameLen = uint32(hot.Namelen)
	return 0
}
