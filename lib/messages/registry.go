// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messages

import (
	"github.com/bureau-foundation/courier/lib/ipc"
)

// All returns every definition in the catalog.
func All() []ipc.Definition {
	return []ipc.Definition{
		Ping, Echo, Shutdown, SetTracing,
		Navigate, ClosePage, SetPreferences, ExecuteCode, Resize,
		UpdateState, GetCookies, AllocateSharedFile, UpdateTitle,
		EstablishChannel, SetGpuInfo, Synchronize, SwapBuffersComplete,
	}
}

// Registry returns a registry holding the whole catalog.
func Registry() (*ipc.Registry, error) {
	return ipc.NewRegistry(All()...)
}
