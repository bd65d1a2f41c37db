// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for courier packages.
//
// [SocketDir] creates a short directory in /tmp for Unix domain socket
// paths. sun_path is limited to 108 bytes and t.TempDir() paths under
// some build systems are longer than that.
//
// [SocketPair] returns two connected, non-blocking stream sockets for
// exercising channels without a filesystem rendezvous.
//
// [RequireReceive], [RequireSend], and [RequireClosed] wrap the
// select-with-timeout pattern so tests that cross goroutines fail
// instead of hanging.
//
// [UniqueID] generates monotonically increasing identifiers, used for
// channel ids that must not collide between parallel tests.
//
// All helpers call t.Fatalf on failure rather than returning errors.
package testutil
