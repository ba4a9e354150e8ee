// Copyright 2026 RHSS Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides binary entrypoint helpers for RHSS's command
// binaries. It centralizes the one legitimate raw I/O pattern that exists
// before the structured logger is initialized: reporting a fatal startup
// error to stderr and exiting with a non-zero status.
package process
