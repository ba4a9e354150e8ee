// Copyright 2026 RHSS Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"os"
	"testing"
)

// TierDir creates a temporary directory suitable for use as a backing
// tier root in tests. Unlike t.TempDir(), the returned path is created
// fresh under /tmp with a short, predictable prefix so tests that also
// exercise the hidden-storage redirector (which derives its own scratch
// path from the system temp directory) see distinct, non-nested trees.
//
// The directory is automatically removed when the test completes.
func TierDir(t *testing.T, name string) string {
	t.Helper()
	directory, err := os.MkdirTemp("", "rhss-"+name+"-*")
	if err != nil {
		t.Fatalf("creating %s tier directory: %v", name, err)
	}
	t.Cleanup(func() {
		_ = os.RemoveAll(directory)
	})
	return directory
}
