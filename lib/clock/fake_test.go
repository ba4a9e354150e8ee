// Copyright 2026 RHSS Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"testing"
	"time"
)

func TestFakeClockNow(t *testing.T) {
	initial := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := Fake(initial)
	if got := c.Now(); !got.Equal(initial) {
		t.Fatalf("Now() = %v, want %v", got, initial)
	}
}

func TestFakeClockAdvance(t *testing.T) {
	initial := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := Fake(initial)

	c.Advance(5 * time.Second)
	want := initial.Add(5 * time.Second)
	if got := c.Now(); !got.Equal(want) {
		t.Fatalf("Now() = %v, want %v", got, want)
	}

	c.Advance(-2 * time.Second)
	want = want.Add(-2 * time.Second)
	if got := c.Now(); !got.Equal(want) {
		t.Fatalf("Now() = %v, want %v", got, want)
	}
}

func TestFakeClockSet(t *testing.T) {
	c := Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	want := time.Date(2030, 6, 15, 12, 0, 0, 0, time.UTC)
	c.Set(want)
	if got := c.Now(); !got.Equal(want) {
		t.Fatalf("Now() = %v, want %v", got, want)
	}
}

func TestFakeClockConcurrentAdvance(t *testing.T) {
	c := Fake(time.Unix(0, 0))
	done := make(chan struct{})
	const n = 50
	for i := 0; i < n; i++ {
		go func() {
			c.Advance(time.Second)
			done <- struct{}{}
		}()
	}
	for i := 0; i < n; i++ {
		<-done
	}
	if got := c.Now(); got.Sub(time.Unix(0, 0)) != n*time.Second {
		t.Fatalf("Now() = %v, want %v elapsed", got, n*time.Second)
	}
}
