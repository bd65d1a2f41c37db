// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package eventloop is a single-threaded readiness loop over epoll.
//
// A Loop owns one goroutine's worth of work: file descriptor watches
// and posted tasks are all invoked on the goroutine running [Loop.Run].
// Code driven by the loop (IPC channels in particular) therefore needs
// no locks of its own.
//
// Watches are level-triggered. A persistent watch keeps firing while
// the descriptor stays ready; a one-shot watch is removed just before
// its callback runs. Read and write interest on the same descriptor
// are independent watches.
//
// [Loop.RunUntil] pumps the loop from inside a callback until a
// condition holds. Synchronous IPC calls use it to wait for their
// reply while the rest of the loop keeps making progress.
//
// [Loop.PostTask] and [Loop.Quit] are the only methods safe to call
// from other goroutines. Everything else belongs to the loop goroutine
// (or to setup before Run starts).
package eventloop
