// Copyright 2026 RHSS Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"fmt"
	"os"
)

// ExitCoder is implemented by errors that carry a specific process exit
// code, such as rhsserr.StorageLockedError. Fatal checks for this interface
// before falling back to the default exit code of 1.
type ExitCoder interface {
	ExitCode() int
}

// Fatal writes "error: err" to stderr and exits with the error's exit
// code if it implements [ExitCoder], or 1 otherwise. This is the
// standard RHSS binary entrypoint error handler. Use it in main() for
// errors from run() where the structured logger may not be initialized.
func Fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	if coder, ok := err.(ExitCoder); ok {
		os.Exit(coder.ExitCode())
	}
	os.Exit(1)
}
