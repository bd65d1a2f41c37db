// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messages

import (
	"github.com/bureau-foundation/courier/lib/ipc"
)

// Test family.
var (
	// Ping asks the peer to answer. The reply carries whether the
	// text was "ping" and the answer text.
	Ping = ipc.NewSyncMessage(ipc.TestStart, 1, "TestMsg_Ping",
		ipc.Tuple1Traits(ipc.String),
		ipc.Tuple2Traits(ipc.Bool, ipc.String))

	// Echo is sent back unchanged by the server.
	Echo = ipc.NewAsyncMessage(ipc.TestStart, 2, "TestMsg_Echo",
		ipc.Tuple2Traits(ipc.Int32, ipc.String))

	// Shutdown asks the server to stop serving.
	Shutdown = ipc.NewAsyncMessage(ipc.TestStart, 3, "TestMsg_Shutdown",
		ipc.Tuple0Traits())

	// SetTracing asks the server to forward its trace records to the
	// sender as log batches.
	SetTracing = ipc.NewAsyncMessage(ipc.TestStart, 4, "TestMsg_SetTracing",
		ipc.Tuple1Traits(ipc.Bool))
)
