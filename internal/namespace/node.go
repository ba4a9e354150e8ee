// Copyright 2026 RHSS Authors
// SPDX-License-Identifier: Apache-2.0

package namespace

import (
	"context"
	"errors"
	"os"
	"path"
	"syscall"

	gofuse "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/rhss-io/rhss/internal/locationcache"
	"github.com/rhss-io/rhss/internal/rhsserr"
	"github.com/rhss-io/rhss/internal/tier"
)

// node is the single Inode implementation backing every path in the
// union view: the root, directories, and regular files all share this
// type, distinguished only by what the backing roots currently hold
// at their logical path.
type node struct {
	gofuse.Inode
	engine  *Engine
	logical string // normalized, "" for the mount root
}

var (
	_ gofuse.InodeEmbedder = (*node)(nil)
	_ gofuse.NodeLookuper  = (*node)(nil)
	_ gofuse.NodeReaddirer = (*node)(nil)
	_ gofuse.NodeGetattrer = (*node)(nil)
	_ gofuse.NodeSetattrer = (*node)(nil)
	_ gofuse.NodeOpener    = (*node)(nil)
	_ gofuse.NodeCreater   = (*node)(nil)
	_ gofuse.NodeUnlinker  = (*node)(nil)
	_ gofuse.NodeMkdirer   = (*node)(nil)
	_ gofuse.NodeRmdirer   = (*node)(nil)
	_ gofuse.NodeRenamer   = (*node)(nil)
	_ gofuse.NodeStatfser  = (*node)(nil)
)

func childLogical(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "/" + name
}

// dirStat reports whether a logical path is a directory, and if so,
// an attr to report (preferring the hot-tier copy per the design's
// getattr contract for merged directories).
func (e *Engine) dirStat(logical string) (os.FileInfo, bool) {
	hotPath, coldPath, err := e.Resolver.Resolve(logical)
	if err != nil {
		return nil, false
	}
	if info, err := os.Stat(hotPath); err == nil && info.IsDir() {
		return info, true
	}
	if info, err := os.Stat(coldPath); err == nil && info.IsDir() {
		return info, true
	}
	return nil, false
}

// Lookup resolves a single path component. Directories are recognized
// first (they may exist, mirrored, in either or both tiers); regular
// files go through the full cache-first Locate protocol.
func (n *node) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*gofuse.Inode, syscall.Errno) {
	if name == tier.LockFileName {
		return nil, syscall.ENOENT
	}
	logical := childLogical(n.logical, name)

	if info, isDir := n.engine.dirStat(logical); isDir {
		fillAttrOut(&out.Attr, info, true)
		child := &node{engine: n.engine, logical: logical}
		return n.NewInode(ctx, child, gofuse.StableAttr{Mode: syscall.S_IFDIR}), 0
	}

	located, err := n.engine.Locate(logical)
	if err != nil {
		return nil, errnoFor(err)
	}
	info, err := os.Lstat(located.BackingPath)
	if err != nil {
		return nil, errnoFor(err)
	}
	fillAttrOut(&out.Attr, info, false)
	child := &node{engine: n.engine, logical: logical}
	return n.NewInode(ctx, child, gofuse.StableAttr{Mode: syscall.S_IFREG}), 0
}

// Readdir lists the set-union of child names across both tiers,
// updates the cache in bulk with each entry's resolved tier, and
// resolves name collisions deterministically (policy-correct tier
// wins; reconciliation is scheduled as a side effect of Locate).
func (n *node) Readdir(ctx context.Context) (gofuse.DirStream, syscall.Errno) {
	hotPath, coldPath, err := n.engine.Resolver.Resolve(n.logical)
	if err != nil {
		return nil, errnoFor(err)
	}

	type childInfo struct {
		isDir bool
		tier  tier.Tier
	}
	children := make(map[string]childInfo)

	for _, root := range []struct {
		path string
		t    tier.Tier
	}{{hotPath, tier.Hot}, {coldPath, tier.Cold}} {
		entries, err := os.ReadDir(root.path)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if entry.Name() == tier.LockFileName {
				continue
			}
			if _, seen := children[entry.Name()]; seen {
				continue
			}
			children[entry.Name()] = childInfo{isDir: entry.IsDir(), tier: root.t}
		}
	}

	var listing []locationcache.ListingEntry
	result := make([]fuse.DirEntry, 0, len(children))
	for name, info := range children {
		mode := uint32(syscall.S_IFREG)
		if info.isDir {
			mode = syscall.S_IFDIR
		} else {
			// Resolve through Locate so collisions are reconciled and
			// the cache reflects the winning tier, not just whichever
			// tier ReadDir happened to see first.
			located, err := n.engine.Locate(childLogical(n.logical, name))
			if err == nil {
				info.tier = located.Tier
			}
		}
		if !info.isDir {
			listing = append(listing, locationcache.ListingEntry{Name: name, Tier: info.tier})
		}
		result = append(result, fuse.DirEntry{Name: name, Mode: mode})
	}
	if len(listing) > 0 {
		n.engine.Cache.BulkUpdateFromListing(n.logical, listing)
	}

	return &sliceDirStream{entries: result}, 0
}

// Getattr fills out from the backing file (or merged directory
// attrs). fh is unused: attrs always come from the backing path, not
// the open handle, since migration can relocate a file between opens.
func (n *node) Getattr(ctx context.Context, f gofuse.FileHandle, out *fuse.AttrOut) syscall.Errno {
	if n.logical == "" {
		out.Mode = syscall.S_IFDIR | 0755
		return 0
	}
	if info, isDir := n.engine.dirStat(n.logical); isDir {
		fillAttrOut(&out.Attr, info, true)
		return 0
	}
	located, err := n.engine.Locate(n.logical)
	if err != nil {
		return errnoFor(err)
	}
	info, err := os.Lstat(located.BackingPath)
	if err != nil {
		return errnoFor(err)
	}
	fillAttrOut(&out.Attr, info, false)
	return 0
}

// Setattr applies chmod/chown/utimens/truncate to whichever tier
// currently holds the file, re-evaluating tier placement afterward
// when the size changed.
func (n *node) Setattr(ctx context.Context, f gofuse.FileHandle, in *fuse.SetAttrIn, out *fuse.AttrOut) syscall.Errno {
	located, err := n.engine.Locate(n.logical)
	if err != nil {
		return errnoFor(err)
	}

	if mode, ok := in.GetMode(); ok {
		if err := os.Chmod(located.BackingPath, os.FileMode(mode).Perm()); err != nil {
			return errnoFor(err)
		}
	}
	if uid, ok := in.GetUID(); ok {
		gid := uint32(os.Getgid())
		if g, ok := in.GetGID(); ok {
			gid = g
		}
		_ = os.Chown(located.BackingPath, int(uid), int(gid))
	}
	if size, ok := in.GetSize(); ok {
		if err := os.Truncate(located.BackingPath, int64(size)); err != nil {
			return errnoFor(err)
		}
		n.engine.EvaluateTier(n.logical, size)
	}
	if mtime, ok := in.GetMTime(); ok {
		atime := mtime
		if a, ok := in.GetATime(); ok {
			atime = a
		}
		_ = os.Chtimes(located.BackingPath, atime, mtime)
	}

	info, err := os.Lstat(located.BackingPath)
	if err != nil {
		return errnoFor(err)
	}
	fillAttrOut(&out.Attr, info, false)
	return 0
}

// Open locates the file's current tier and opens the backing path.
func (n *node) Open(ctx context.Context, flags uint32) (gofuse.FileHandle, uint32, syscall.Errno) {
	located, err := n.engine.Locate(n.logical)
	if err != nil {
		return nil, 0, errnoFor(err)
	}
	file, err := os.OpenFile(located.BackingPath, int(flags), 0644)
	if err != nil {
		return nil, 0, errnoFor(err)
	}
	return &fileHandle{engine: n.engine, logical: n.logical, file: file}, 0, 0
}

// Create computes the initial tier from zero size (always Hot per
// policy), creates mirrored parent directories as needed, and opens
// the new file.
func (n *node) Create(ctx context.Context, name string, flags uint32, mode uint32, out *fuse.EntryOut) (*gofuse.Inode, gofuse.FileHandle, uint32, syscall.Errno) {
	logical := childLogical(n.logical, name)
	hotPath, coldPath, err := n.engine.Resolver.Resolve(logical)
	if err != nil {
		return nil, nil, 0, errnoFor(err)
	}

	if err := os.MkdirAll(path.Dir(hotPath), 0755); err != nil {
		return nil, nil, 0, errnoFor(err)
	}
	if err := os.MkdirAll(path.Dir(coldPath), 0755); err != nil {
		return nil, nil, 0, errnoFor(err)
	}

	file, err := os.OpenFile(hotPath, int(flags)|os.O_CREATE|os.O_EXCL, os.FileMode(mode).Perm())
	if err != nil {
		if os.IsExist(err) {
			return nil, nil, 0, syscall.EEXIST
		}
		return nil, nil, 0, errnoFor(err)
	}

	n.engine.Cache.Insert(logical, tier.Hot)

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, nil, 0, errnoFor(err)
	}
	fillAttrOut(&out.Attr, info, false)

	child := &node{engine: n.engine, logical: logical}
	inode := n.NewInode(ctx, child, gofuse.StableAttr{Mode: syscall.S_IFREG})
	handle := &fileHandle{engine: n.engine, logical: logical, file: file}
	return inode, handle, 0, 0
}

// Unlink deletes the file from whichever tier holds it and, as a
// defensive measure against a prior invariant violation, removes any
// stale copy in the other tier as well.
func (n *node) Unlink(ctx context.Context, name string) syscall.Errno {
	logical := childLogical(n.logical, name)
	hotPath, coldPath, err := n.engine.Resolver.Resolve(logical)
	if err != nil {
		return errnoFor(err)
	}

	hotErr := os.Remove(hotPath)
	coldErr := os.Remove(coldPath)
	n.engine.Cache.Invalidate(logical)

	if hotErr != nil && os.IsNotExist(hotErr) {
		hotErr = nil
	}
	if coldErr != nil && os.IsNotExist(coldErr) {
		coldErr = nil
	}
	if hotErr != nil && coldErr != nil {
		return syscall.ENOENT
	}
	return 0
}

// Mkdir applies to both tiers so the mirrored-directory invariant
// holds immediately.
func (n *node) Mkdir(ctx context.Context, name string, mode uint32, out *fuse.EntryOut) (*gofuse.Inode, syscall.Errno) {
	logical := childLogical(n.logical, name)
	hotPath, coldPath, err := n.engine.Resolver.Resolve(logical)
	if err != nil {
		return nil, errnoFor(err)
	}

	perm := os.FileMode(mode).Perm()
	hotErr := os.Mkdir(hotPath, perm)
	coldErr := os.Mkdir(coldPath, perm)
	if hotErr != nil && !os.IsExist(hotErr) {
		return nil, errnoFor(hotErr)
	}
	if coldErr != nil && !os.IsExist(coldErr) {
		return nil, errnoFor(coldErr)
	}
	if hotErr != nil && coldErr != nil {
		return nil, syscall.EEXIST
	}

	out.Mode = syscall.S_IFDIR | uint32(perm)
	out.Size = 0

	child := &node{engine: n.engine, logical: logical}
	return n.NewInode(ctx, child, gofuse.StableAttr{Mode: syscall.S_IFDIR}), 0
}

// Rmdir removes the directory from both tiers; it fails with ENOTEMPTY
// if the merged listing (union of both tiers) is non-empty.
func (n *node) Rmdir(ctx context.Context, name string) syscall.Errno {
	logical := childLogical(n.logical, name)
	hotPath, coldPath, err := n.engine.Resolver.Resolve(logical)
	if err != nil {
		return errnoFor(err)
	}

	if !unionEmpty(hotPath, coldPath) {
		return syscall.ENOTEMPTY
	}

	hotErr := os.Remove(hotPath)
	coldErr := os.Remove(coldPath)
	n.engine.Cache.InvalidatePrefix(logical)

	if hotErr != nil && os.IsNotExist(hotErr) {
		hotErr = nil
	}
	if coldErr != nil && os.IsNotExist(coldErr) {
		coldErr = nil
	}
	if hotErr != nil && coldErr != nil {
		return syscall.ENOENT
	}
	return 0
}

func unionEmpty(paths ...string) bool {
	names := make(map[string]bool)
	for _, p := range paths {
		entries, err := os.ReadDir(p)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if entry.Name() == tier.LockFileName {
				continue
			}
			names[entry.Name()] = true
		}
	}
	return len(names) == 0
}

// Rename renames within a tier directly when both endpoints share a
// tier; when the destination already exists as a file on the other
// tier, it migrates the source to the destination's tier first, then
// renames within that tier.
func (n *node) Rename(ctx context.Context, name string, newParent gofuse.InodeEmbedder, newName string, flags uint32) syscall.Errno {
	destParent, ok := newParent.(*node)
	if !ok {
		return syscall.EXDEV
	}

	srcLogical := childLogical(n.logical, name)
	dstLogical := childLogical(destParent.logical, newName)

	if _, isDir := n.engine.dirStat(srcLogical); isDir {
		srcHot, _, err := n.engine.Resolver.Resolve(srcLogical)
		if err != nil {
			return errnoFor(err)
		}
		dstHot, _, err := n.engine.Resolver.Resolve(dstLogical)
		if err != nil {
			return errnoFor(err)
		}
		srcCold, dstCold := mirrorPaths(n.engine, srcLogical, dstLogical)
		hotErr := renameIfExists(srcHot, dstHot)
		coldErr := renameIfExists(srcCold, dstCold)
		n.engine.Cache.InvalidatePrefix(srcLogical)
		n.engine.Cache.InvalidatePrefix(dstLogical)
		if hotErr != nil {
			return errnoFor(hotErr)
		}
		if coldErr != nil {
			return errnoFor(coldErr)
		}
		return 0
	}

	located, err := n.engine.Locate(srcLogical)
	if err != nil {
		return errnoFor(err)
	}

	destHot, destCold, err := n.engine.Resolver.Resolve(dstLogical)
	if err != nil {
		return errnoFor(err)
	}
	otherDest := destCold
	if located.Tier == tier.Cold {
		otherDest = destHot
	}
	if info, err := os.Lstat(otherDest); err == nil && !info.IsDir() {
		if _, err := n.engine.Migration.Migrate(srcLogical, located.Tier.Other()); err != nil {
			return errnoFor(err)
		}
		located.Tier = located.Tier.Other()
		if located.BackingPath, err = n.engine.Resolver.InTier(srcLogical, located.Tier == tier.Cold); err != nil {
			return errnoFor(err)
		}
	}
	destPath := destHot
	if located.Tier == tier.Cold {
		destPath = destCold
	}

	if err := os.MkdirAll(path.Dir(destPath), 0755); err != nil {
		return errnoFor(err)
	}
	if err := os.Rename(located.BackingPath, destPath); err != nil {
		return errnoFor(err)
	}

	n.engine.Cache.Invalidate(srcLogical)
	n.engine.Cache.Insert(dstLogical, located.Tier)
	return 0
}

func mirrorPaths(e *Engine, srcLogical, dstLogical string) (string, string) {
	_, srcCold, _ := e.Resolver.Resolve(srcLogical)
	_, dstCold, _ := e.Resolver.Resolve(dstLogical)
	return srcCold, dstCold
}

func renameIfExists(src, dst string) error {
	if _, err := os.Lstat(src); err != nil {
		return nil
	}
	if err := os.MkdirAll(path.Dir(dst), 0755); err != nil {
		return err
	}
	return os.Rename(src, dst)
}

// Statfs aggregates free and total space across both effective
// backing roots, reporting the smaller of the two block sizes
// conservatively.
func (n *node) Statfs(ctx context.Context, out *fuse.StatfsOut) syscall.Errno {
	return n.engine.statfs(out)
}

func fillAttrOut(out *fuse.Attr, info os.FileInfo, isDir bool) {
	out.Size = uint64(info.Size())
	out.Mtime = uint64(info.ModTime().Unix())
	out.Atime = out.Mtime
	out.Ctime = out.Mtime
	mode := uint32(info.Mode().Perm())
	if isDir {
		out.Mode = syscall.S_IFDIR | mode
	} else {
		out.Mode = syscall.S_IFREG | mode
	}
}

func errnoFor(err error) syscall.Errno {
	switch {
	case err == nil:
		return 0
	case isNotFound(err):
		return syscall.ENOENT
	case isExists(err):
		return syscall.EEXIST
	default:
		return syscall.EIO
	}
}

func isNotFound(err error) bool {
	return os.IsNotExist(err) || errors.Is(err, rhsserr.ErrNotFound) || errors.Is(err, rhsserr.ErrInvalidPath)
}

func isExists(err error) bool {
	return os.IsExist(err) || errors.Is(err, rhsserr.ErrAlreadyExists)
}

// sliceDirStream implements gofuse.DirStream over a pre-built slice.
type sliceDirStream struct {
	entries []fuse.DirEntry
	index   int
}

func (s *sliceDirStream) HasNext() bool { return s.index < len(s.entries) }

func (s *sliceDirStream) Next() (fuse.DirEntry, syscall.Errno) {
	if s.index >= len(s.entries) {
		return fuse.DirEntry{}, syscall.EINVAL
	}
	entry := s.entries[s.index]
	s.index++
	return entry, 0
}

func (s *sliceDirStream) Close() {}
