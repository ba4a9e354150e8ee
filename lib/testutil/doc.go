// Copyright 2026 RHSS Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for RHSS packages.
//
// [TierDir] creates a short-named temporary directory under the system
// temp area suitable for use as a hot or cold backing root in tests.
//
// [RequireReceive], [RequireSend], and [RequireClosed] encapsulate the
// timeout safety valve pattern (select with time.After fallback) so
// that individual tests do not need direct time.After calls. These are
// the only place in the test suite where real wall-clock timeouts are
// used.
//
// [UniqueID] generates monotonically increasing identifiers for test
// disambiguation. Use it instead of time.Now() when tests need unique
// names for concurrent lock-acquisition or migration scenarios.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
//
// This package has no RHSS-internal dependencies.
package testutil
