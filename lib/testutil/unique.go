// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"strconv"
	"sync/atomic"
)

var sequence atomic.Uint64

// UniqueID appends a process-wide sequence number to prefix. Tests use
// it for channel IDs so parallel tests never share a socket path.
//
//	channelID := testutil.UniqueID("echo") // "echo-1", "echo-2", ...
func UniqueID(prefix string) string {
	return prefix + "-" + strconv.FormatUint(sequence.Add(1), 10)
}
