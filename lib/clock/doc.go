// Copyright 2026 RHSS Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time-read abstraction for
// testability.
//
// Production code accepts a Clock interface parameter instead of
// calling time.Now directly. In production, Real() provides the
// standard library's current time. In tests, Fake() provides a fixed
// time that only changes when Advance or Set is called, so assertions on
// timestamps, cache entry age, and lock staleness are deterministic.
//
// # Wiring Pattern
//
// Add a Clock field to structs that read time:
//
//	type Cache struct {
//	    clock clock.Clock
//	    // ...
//	}
//
// In production:
//
//	c := &Cache{clock: clock.Real()}
//
// In tests:
//
//	fc := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	c := &Cache{clock: fc}
//	fc.Set(fc.Now().Add(25 * time.Hour)) // advance deterministically
package clock
