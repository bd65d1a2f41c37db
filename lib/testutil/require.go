// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"fmt"
	"time"
)

// Fataler is the subset of testing.TB the Require helpers need.
type Fataler interface {
	Helper()
	Fatalf(format string, args ...any)
}

// RequireReceive returns the next value sent on ch. The test fails if
// ch is closed first or nothing arrives within timeout.
//
//	reply := testutil.RequireReceive(t, replies, 5*time.Second, "waiting for pong")
func RequireReceive[T any](t Fataler, ch <-chan T, timeout time.Duration, msgAndArgs ...any) T {
	t.Helper()
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case value, ok := <-ch:
		if !ok {
			t.Fatalf("%s: channel closed before a value arrived", describe(msgAndArgs))
		}
		return value
	case <-timer.C:
		t.Fatalf("%s: nothing received after %v", describe(msgAndArgs), timeout)
	}
	var zero T
	return zero
}

// RequireSend delivers value on ch, failing the test if the receiver
// does not take it within timeout.
//
//	testutil.RequireSend(t, requests, message, 5*time.Second, "queueing request")
func RequireSend[T any](t Fataler, ch chan<- T, value T, timeout time.Duration, msgAndArgs ...any) {
	t.Helper()
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case ch <- value:
	case <-timer.C:
		t.Fatalf("%s: send blocked for %v", describe(msgAndArgs), timeout)
	}
}

// RequireClosed waits for a done-style channel to close. A value sent
// on ch also satisfies it.
//
//	testutil.RequireClosed(t, loopDone, 5*time.Second, "loop exit")
func RequireClosed(t Fataler, ch <-chan struct{}, timeout time.Duration, msgAndArgs ...any) {
	t.Helper()
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-ch:
	case <-timer.C:
		t.Fatalf("%s: still open after %v", describe(msgAndArgs), timeout)
	}
}

// describe renders the trailing message arguments: nothing, a single
// value, or a format string followed by its operands.
func describe(msgAndArgs []any) string {
	switch {
	case len(msgAndArgs) == 0:
		return "wait failed"
	case len(msgAndArgs) == 1:
		return fmt.Sprint(msgAndArgs[0])
	}
	if format, ok := msgAndArgs[0].(string); ok {
		return fmt.Sprintf(format, msgAndArgs[1:]...)
	}
	return fmt.Sprint(msgAndArgs...)
}
