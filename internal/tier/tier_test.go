// Copyright 2026 RHSS Authors
// SPDX-License-Identifier: Apache-2.0

package tier

import "testing"

func TestDecide(t *testing.T) {
	cases := []struct {
		size, threshold uint64
		want            Tier
	}{
		{0, 100, Hot},
		{99, 100, Hot},
		{100, 100, Cold},
		{101, 100, Cold},
		{0, 0, Cold}, // size >= threshold when threshold is 0
	}
	for _, c := range cases {
		if got := Decide(c.size, c.threshold); got != c.want {
			t.Errorf("Decide(%d, %d) = %s, want %s", c.size, c.threshold, got, c.want)
		}
	}
}

func TestOther(t *testing.T) {
	if Hot.Other() != Cold {
		t.Error("Hot.Other() should be Cold")
	}
	if Cold.Other() != Hot {
		t.Error("Cold.Other() should be Hot")
	}
}

func TestSatisfies(t *testing.T) {
	if !Satisfies(Hot, 10, 100) {
		t.Error("10-byte file should satisfy Hot at threshold 100")
	}
	if Satisfies(Cold, 10, 100) {
		t.Error("10-byte file should not satisfy Cold at threshold 100")
	}
}

func TestString(t *testing.T) {
	if Hot.String() != "hot" || Cold.String() != "cold" {
		t.Errorf("unexpected tier strings: %q %q", Hot, Cold)
	}
}
