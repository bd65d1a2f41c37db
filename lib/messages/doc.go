// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package messages is the catalog of message definitions shared by
// courier processes. Each file declares one message family:
//
//   - Test: the diagnostic family served by "courier serve" (Ping,
//     Echo, Shutdown, SetTracing).
//   - View: commands sent to a page view (Navigate, ClosePage,
//     SetPreferences, ExecuteCode, Resize).
//   - ViewHost: notifications and queries from a view back to its host
//     (UpdateState, GetCookies, AllocateSharedFile, UpdateTitle).
//   - Gpu: the GPU process control family (EstablishChannel,
//     SetGpuInfo, Synchronize, SwapBuffersComplete).
//
// Ordinals within a family are wire constants. Append new messages
// with the next free ordinal; never renumber.
//
// Parameter structs that appear on the wire (NavigateParams,
// ClosePageParams, GpuInfo) have their traits defined next to them.
//
// [Registry] returns an ipc.Registry holding every definition, for
// tracing and for "courier decode".
package messages
