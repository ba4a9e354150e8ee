// Copyright 2026 RHSS Authors
// SPDX-License-Identifier: Apache-2.0

package pathresolve

import (
	"errors"
	"testing"

	"github.com/rhss-io/rhss/internal/rhsserr"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"a/b/c", "a/b/c"},
		{"/a/b", "a/b"},
		{"a//b", "a/b"},
		{"./a/b", "a/b"},
		{"", ""},
		{"/", ""},
	}
	for _, c := range cases {
		got, err := Normalize(c.in)
		if err != nil {
			t.Errorf("Normalize(%q) unexpected error: %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("Normalize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalize_RejectsEscape(t *testing.T) {
	_, err := Normalize("../../etc/passwd")
	if !errors.Is(err, rhsserr.ErrInvalidPath) {
		t.Fatalf("expected ErrInvalidPath, got %v", err)
	}
}

func TestResolve(t *testing.T) {
	r := New("/hot", "/cold")
	hotPath, coldPath, err := r.Resolve("a/b.txt")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if hotPath != "/hot/a/b.txt" || coldPath != "/cold/a/b.txt" {
		t.Errorf("got hot=%q cold=%q", hotPath, coldPath)
	}
}

func TestResolve_RejectsEscape(t *testing.T) {
	r := New("/hot", "/cold")
	_, _, err := r.Resolve("../outside")
	if !errors.Is(err, rhsserr.ErrInvalidPath) {
		t.Fatalf("expected ErrInvalidPath, got %v", err)
	}
}

func TestInTier(t *testing.T) {
	r := New("/hot", "/cold")
	p, err := r.InTier("x/y", true)
	if err != nil {
		t.Fatalf("InTier: %v", err)
	}
	if p != "/cold/x/y" {
		t.Errorf("got %q, want /cold/x/y", p)
	}
}
