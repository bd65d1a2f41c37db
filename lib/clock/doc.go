// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source.
//
// The IPC layer defines no timeouts, so the only time it needs is the
// current instant: message tracing stamps send, receipt and dispatch
// times. Components take a Clock instead of calling time.Now so tests
// can produce deterministic trace records.
//
// In production:
//
//	tracer := ipc.NewTracer(clock.Real(), registry, logger)
//
// In tests:
//
//	fake := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	tracer := ipc.NewTracer(fake, registry, logger)
//	fake.Advance(3 * time.Millisecond)
package clock
