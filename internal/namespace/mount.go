// Copyright 2026 RHSS Authors
// SPDX-License-Identifier: Apache-2.0

package namespace

import (
	"fmt"
	"os"
	"time"

	gofuse "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/rhss-io/rhss/internal/rhsserr"
)

// Options configures the FUSE mount.
type Options struct {
	Mountpoint string
	Engine     *Engine
	AllowOther bool
}

// Server wraps the go-fuse server so the shutdown coordinator can
// drive it through the shutdown.Unmounter interface without the rest
// of the codebase depending directly on go-fuse.
type Server struct {
	fuseServer *fuse.Server
	mountpoint string
}

// Mount mounts the union namespace at the configured mountpoint. The
// caller must eventually call Unmount (directly, or via the shutdown
// coordinator).
func Mount(options Options) (*Server, error) {
	if options.Mountpoint == "" {
		return nil, fmt.Errorf("mountpoint is required")
	}
	if options.Engine == nil {
		return nil, fmt.Errorf("engine is required")
	}
	if err := os.MkdirAll(options.Mountpoint, 0755); err != nil {
		return nil, &rhsserr.MountError{Mountpoint: options.Mountpoint, Err: err}
	}

	root := &node{engine: options.Engine, logical: ""}

	entryTimeout := 1 * time.Second
	attrTimeout := 1 * time.Second
	negativeTimeout := 100 * time.Millisecond

	server, err := gofuse.Mount(options.Mountpoint, root, &gofuse.Options{
		EntryTimeout:    &entryTimeout,
		AttrTimeout:     &attrTimeout,
		NegativeTimeout: &negativeTimeout,
		MountOptions: fuse.MountOptions{
			FsName:     "rhss",
			Name:       "rhss",
			AllowOther: options.AllowOther,
		},
	})
	if err != nil {
		return nil, &rhsserr.MountError{Mountpoint: options.Mountpoint, Err: err}
	}

	return &Server{fuseServer: server, mountpoint: options.Mountpoint}, nil
}

// Wait blocks until the filesystem is unmounted, either by Unmount or
// externally (e.g. `fusermount -u`).
func (s *Server) Wait() { s.fuseServer.Wait() }

// Unmount requests a normal unmount. Satisfies shutdown.Unmounter.
func (s *Server) Unmount() error {
	return s.fuseServer.Unmount()
}

// UnmountLazy escalates to a lazy (detach now, clean up once the last
// file reference closes) unmount via the umount2 syscall with
// MNT_DETACH, used when a plain Unmount reports the mount is busy.
// Satisfies shutdown.Unmounter.
func (s *Server) UnmountLazy() error {
	return unmountLazy(s.mountpoint)
}
