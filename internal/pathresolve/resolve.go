// Copyright 2026 RHSS Authors
// SPDX-License-Identifier: Apache-2.0

// Package pathresolve computes backing paths for a logical path within
// the two effective backing roots (C1 in the design). It performs no
// I/O; it only normalizes and joins paths, refusing any join that would
// escape a root.
package pathresolve

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/rhss-io/rhss/internal/rhsserr"
)

// Normalize cleans a logical path into the canonical form used to key
// the location cache: no leading slash, no ".", no "..", no duplicate
// separators, "/" collapses to "".
func Normalize(logicalPath string) (string, error) {
	cleaned := path.Clean(strings.TrimLeft(logicalPath, "/"))
	if cleaned == "." {
		cleaned = ""
	}
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", rhsserr.ErrInvalidPath
	}
	return cleaned, nil
}

// Resolver computes backing paths in the hot and cold effective
// backing roots for a given logical path.
type Resolver struct {
	Hot  string
	Cold string
}

// New builds a Resolver over the given effective backing roots. Both
// must be absolute; this is the caller's responsibility (typically
// enforced once at startup).
func New(hotRoot, coldRoot string) *Resolver {
	return &Resolver{Hot: hotRoot, Cold: coldRoot}
}

// Resolve normalizes p and joins it against both backing roots,
// refusing to produce a path outside either root.
func (r *Resolver) Resolve(logicalPath string) (hotPath, coldPath string, err error) {
	normalized, err := Normalize(logicalPath)
	if err != nil {
		return "", "", err
	}
	hotPath, err = join(r.Hot, normalized)
	if err != nil {
		return "", "", err
	}
	coldPath, err = join(r.Cold, normalized)
	if err != nil {
		return "", "", err
	}
	return hotPath, coldPath, nil
}

// InTier resolves the backing path in a single tier.
func (r *Resolver) InTier(logicalPath string, isCold bool) (string, error) {
	normalized, err := Normalize(logicalPath)
	if err != nil {
		return "", err
	}
	root := r.Hot
	if isCold {
		root = r.Cold
	}
	return join(root, normalized)
}

// join safely joins root and rel, refusing any result that would
// escape root — the ⊕ operator from the design.
func join(root, rel string) (string, error) {
	joined := filepath.Join(root, rel)
	// filepath.Join already cleans "..", but a rel containing an
	// absolute-looking component or excess ".." segments could still
	// walk above root; guard explicitly.
	if joined != root && !strings.HasPrefix(joined, root+string(filepath.Separator)) {
		return "", rhsserr.ErrInvalidPath
	}
	return joined, nil
}
