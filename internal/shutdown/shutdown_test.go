// Copyright 2026 RHSS Authors
// SPDX-License-Identifier: Apache-2.0

package shutdown

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rhss-io/rhss/internal/storagelock"
	"github.com/rhss-io/rhss/internal/tier"
	"github.com/rhss-io/rhss/lib/clock"
)

type fakeTransport struct {
	unmountErr   error
	lazyErr      error
	unmountCalls int
	lazyCalls    int
	mu           sync.Mutex
}

func (f *fakeTransport) Unmount() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unmountCalls++
	return f.unmountErr
}

func (f *fakeTransport) UnmountLazy() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lazyCalls++
	return f.lazyErr
}

func newLocks(t *testing.T) (*storagelock.Lock, *storagelock.Lock) {
	t.Helper()
	hotRoot := t.TempDir()
	coldRoot := t.TempDir()
	fakeClock := clock.Fake(time.Now())
	hotLock, err := storagelock.Acquire(tier.Hot, hotRoot, "/mnt", false, fakeClock)
	if err != nil {
		t.Fatalf("acquire hot: %v", err)
	}
	coldLock, err := storagelock.Acquire(tier.Cold, coldRoot, "/mnt", false, fakeClock)
	if err != nil {
		t.Fatalf("acquire cold: %v", err)
	}
	return hotLock, coldLock
}

func TestShutdown_CleanPath(t *testing.T) {
	transport := &fakeTransport{}
	hotLock, coldLock := newLocks(t)

	c := New(nil, transport, nil, nil, nil, hotLock, coldLock)
	result := c.Shutdown()

	if result.ExitCode() != 0 {
		t.Errorf("expected exit code 0, got %d", result.ExitCode())
	}
	if transport.unmountCalls != 1 {
		t.Errorf("expected 1 unmount call, got %d", transport.unmountCalls)
	}
	if transport.lazyCalls != 0 {
		t.Errorf("expected no lazy unmount, got %d", transport.lazyCalls)
	}
}

func TestShutdown_EscalatesToLazyUnmount(t *testing.T) {
	transport := &fakeTransport{unmountErr: errors.New("busy")}
	hotLock, coldLock := newLocks(t)

	c := New(nil, transport, nil, nil, nil, hotLock, coldLock)
	result := c.Shutdown()

	if transport.lazyCalls != 1 {
		t.Errorf("expected lazy unmount called once, got %d", transport.lazyCalls)
	}
	if result.ExitCode() != 0 {
		t.Errorf("expected exit code 0 when lazy unmount succeeds, got %d", result.ExitCode())
	}
}

func TestShutdown_UnmountFailureExitCode(t *testing.T) {
	transport := &fakeTransport{unmountErr: errors.New("busy"), lazyErr: errors.New("still busy")}
	hotLock, coldLock := newLocks(t)

	c := New(nil, transport, nil, nil, nil, hotLock, coldLock)
	result := c.Shutdown()

	if result.ExitCode() != 5 {
		t.Errorf("expected exit code 5, got %d", result.ExitCode())
	}
}

func TestShutdown_RunsExactlyOnce(t *testing.T) {
	transport := &fakeTransport{}
	hotLock, coldLock := newLocks(t)

	c := New(nil, transport, nil, nil, nil, hotLock, coldLock)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Shutdown()
		}()
	}
	wg.Wait()

	if transport.unmountCalls != 1 {
		t.Errorf("expected exactly 1 unmount call across concurrent signals, got %d", transport.unmountCalls)
	}
}
