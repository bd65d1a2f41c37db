// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messages

import (
	"github.com/bureau-foundation/courier/lib/ipc"
)

// GpuInfo describes the graphics device. It travels as CBOR so fields
// can be added without a new message type.
type GpuInfo struct {
	VendorID      uint32            `cbor:"vendor_id"`
	DeviceID      uint32            `cbor:"device_id"`
	DriverVendor  string            `cbor:"driver_vendor,omitempty"`
	DriverVersion string            `cbor:"driver_version,omitempty"`
	Extensions    []string          `cbor:"extensions,omitempty"`
	Attributes    map[string]string `cbor:"attributes,omitempty"`
}

// Gpu family.
var (
	// EstablishChannel asks the GPU process for a channel to serve the
	// given client. The reply carries the new channel's handle,
	// including a connected socket.
	EstablishChannel = ipc.NewSyncMessage(ipc.GpuStart, 1, "GpuMsg_EstablishChannel",
		ipc.Tuple1Traits(ipc.Int32),
		ipc.Tuple1Traits(ipc.ChannelHandleTraits))

	// SetGpuInfo reports the collected device information.
	SetGpuInfo = ipc.NewAsyncMessage(ipc.GpuStart, 2, "GpuMsg_SetGpuInfo",
		ipc.Tuple1Traits(ipc.CBOR[GpuInfo]()))

	// Synchronize returns once every earlier message has been
	// processed.
	Synchronize = ipc.NewSyncMessage(ipc.GpuStart, 3, "GpuMsg_Synchronize",
		ipc.Tuple0Traits(),
		ipc.Tuple0Traits())

	// SwapBuffersComplete reports that a route presented a frame.
	SwapBuffersComplete = ipc.NewAsyncMessage(ipc.GpuStart, 4, "GpuMsg_SwapBuffersComplete",
		ipc.Tuple2Traits(ipc.Int32, ipc.Time))
)
