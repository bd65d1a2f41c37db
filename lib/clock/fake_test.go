// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"testing"
	"time"
)

var epoch = time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

func TestFakeStandsStill(t *testing.T) {
	fake := Fake(epoch)
	if !fake.Now().Equal(epoch) || !fake.Now().Equal(epoch) {
		t.Error("fake clock moved without Advance")
	}
}

func TestFakeAdvanceAndSet(t *testing.T) {
	fake := Fake(epoch)
	fake.Advance(5 * time.Second)
	if got := fake.Now(); !got.Equal(epoch.Add(5 * time.Second)) {
		t.Errorf("after Advance: %v", got)
	}

	fake.Set(epoch)
	if got := fake.Now(); !got.Equal(epoch) {
		t.Errorf("after Set: %v", got)
	}
}

func TestFakeAutoStep(t *testing.T) {
	fake := Fake(epoch)
	fake.SetAutoStep(time.Millisecond)

	first := fake.Now()
	second := fake.Now()
	if second.Sub(first) != time.Millisecond {
		t.Errorf("auto-step delta = %v, want 1ms", second.Sub(first))
	}
}

func TestRealIsMonotonicEnough(t *testing.T) {
	real := Real()
	first := real.Now()
	if real.Now().Before(first) {
		t.Error("real clock went backwards")
	}
}
