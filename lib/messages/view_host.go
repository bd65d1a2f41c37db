// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messages

import (
	"github.com/bureau-foundation/courier/lib/compress"
	"github.com/bureau-foundation/courier/lib/ipc"
)

// ViewHost family.
var (
	// UpdateState reports the serialized state of a page, compressed
	// with LZ4 since it is sent on every navigation.
	UpdateState = ipc.NewAsyncMessage(ipc.ViewHostStart, 1, "ViewHostMsg_UpdateState",
		ipc.Tuple2Traits(ipc.Int32, ipc.Compressed(compress.LZ4, MaxPageStateSize)))

	// GetCookies returns the cookie string for a URL as seen from a
	// first-party URL.
	GetCookies = ipc.NewSyncMessage(ipc.ViewHostStart, 2, "ViewHostMsg_GetCookies",
		ipc.Tuple2Traits(ipc.String, ipc.String),
		ipc.Tuple1Traits(ipc.String))

	// AllocateSharedFile asks the host for a file of the given size
	// and returns a descriptor for it.
	AllocateSharedFile = ipc.NewSyncMessage(ipc.ViewHostStart, 3, "ViewHostMsg_AllocateSharedFile",
		ipc.Tuple1Traits(ipc.Uint32),
		ipc.Tuple1Traits(ipc.Descriptor))

	// UpdateTitle reports a page title. A null title clears it.
	UpdateTitle = ipc.NewAsyncMessage(ipc.ViewHostStart, 4, "ViewHostMsg_UpdateTitle",
		ipc.Tuple2Traits(ipc.Int32, ipc.NullableString16))
)
