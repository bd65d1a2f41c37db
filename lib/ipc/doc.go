// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package ipc implements typed message passing between two processes
// over a Unix domain stream socket.
//
// The package has four layers, each usable on its own:
//
//   - [Message] is the wire unit: a 20-byte little-endian header
//     (payload size, routing id, type, flags, descriptor count)
//     followed by a payload built by append-only Write calls and read
//     back with an [Iterator]. [FindNext] recovers message boundaries
//     from a byte stream by reading the header alone.
//
//   - [Traits] values encode, decode and log one Go type. Primitive
//     traits ([Int32], [String], [Bytes], ...) compose into slices,
//     pairs, sets, maps and the fixed-arity tuples of lib/tuple.
//     Types defined elsewhere get their traits next to their
//     definition, implemented against the same interface.
//
//   - [AsyncMessage] and [SyncMessage] bind a name, a type id and a
//     parameter shape into a definition that builds, reads and
//     dispatches messages of that type. A sync request carries a
//     process-unique id as its first payload field; the reply echoes it.
//
//   - [Channel] moves messages over a non-blocking socket driven by a
//     host readiness loop ([IOLoop], implemented by lib/eventloop).
//     Each side first sends a Hello carrying its process id; the
//     receiver reports it through [Listener.OnChannelConnected] before
//     delivering anything else. [SyncChannel] layers blocking request
//     and reply on top by pumping the loop until the reply arrives.
//
// All Channel and SyncChannel methods must be called on the loop
// goroutine. Nothing in this package locks; the loop serializes.
//
// Wire compatibility: both ends must agree on the traits used for each
// message type. A payload that fails to decode is a per-message error.
// A sync request that fails to decode is answered with a reply flagged
// [FlagReplyError] so the caller never waits forever.
package ipc
