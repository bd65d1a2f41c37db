// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messages

import (
	"fmt"
	"time"

	"github.com/bureau-foundation/courier/lib/compress"
	"github.com/bureau-foundation/courier/lib/ipc"
)

// MaxPageStateSize bounds a decompressed page state blob.
const MaxPageStateSize = 16 << 20

// NavigationType says how a navigation was started.
type NavigationType int32

const (
	// NavigationReload reloads the current entry.
	NavigationReload NavigationType = iota
	// NavigationRestore restores a session entry, possibly from
	// cache.
	NavigationRestore
	// NavigationNormal is any other navigation.
	NavigationNormal
	navigationTypeLimit
)

func (n NavigationType) String() string {
	switch n {
	case NavigationReload:
		return "reload"
	case NavigationRestore:
		return "restore"
	case NavigationNormal:
		return "normal"
	default:
		return fmt.Sprintf("NavigationType(%d)", int32(n))
	}
}

// NavigationTypeTraits rejects values outside the enumeration.
var NavigationTypeTraits = ipc.Enum(navigationTypeLimit, NavigationType.String)

// NavigateParams describes one navigation request.
type NavigateParams struct {
	PageID      int32
	URL         string
	Referrer    string
	Type        NavigationType
	State       []byte
	RequestTime time.Time
}

var pageStateTraits = ipc.Compressed(compress.Zstd, MaxPageStateSize)

// NavigateParamsTraits encodes NavigateParams field by field. State is
// stored compressed.
var NavigateParamsTraits = ipc.Struct(
	func(m *ipc.Message, p NavigateParams) {
		m.WriteInt32(p.PageID)
		m.WriteString(p.URL)
		m.WriteString(p.Referrer)
		NavigationTypeTraits.Write(m, p.Type)
		pageStateTraits.Write(m, p.State)
		ipc.Time.Write(m, p.RequestTime)
	},
	func(it *ipc.Iterator) (NavigateParams, error) {
		var p NavigateParams
		var err error
		if p.PageID, err = it.ReadInt32(); err != nil {
			return p, fmt.Errorf("page_id: %w", err)
		}
		if p.URL, err = it.ReadString(); err != nil {
			return p, fmt.Errorf("url: %w", err)
		}
		if p.Referrer, err = it.ReadString(); err != nil {
			return p, fmt.Errorf("referrer: %w", err)
		}
		if p.Type, err = NavigationTypeTraits.Read(it); err != nil {
			return p, fmt.Errorf("type: %w", err)
		}
		if p.State, err = pageStateTraits.Read(it); err != nil {
			return p, fmt.Errorf("state: %w", err)
		}
		if p.RequestTime, err = ipc.Time.Read(it); err != nil {
			return p, fmt.Errorf("request_time: %w", err)
		}
		return p, nil
	},
	func(p NavigateParams) string {
		return fmt.Sprintf("page %d %s %s (referrer %q, %s, sent %s)",
			p.PageID, p.Type, p.URL, p.Referrer, pageStateTraits.Log(p.State), ipc.Time.Log(p.RequestTime))
	},
)

// ClosePageParams identifies a page being closed and why.
type ClosePageParams struct {
	ClosingProcessID       int32
	ClosingRouteID         int32
	ForCrossSiteTransition bool
}

// ClosePageParamsTraits encodes ClosePageParams field by field.
var ClosePageParamsTraits = ipc.Struct(
	func(m *ipc.Message, p ClosePageParams) {
		m.WriteInt32(p.ClosingProcessID)
		m.WriteInt32(p.ClosingRouteID)
		m.WriteBool(p.ForCrossSiteTransition)
	},
	func(it *ipc.Iterator) (ClosePageParams, error) {
		fields := it.Fields()
		p := ClosePageParams{
			ClosingProcessID:       fields.NextInt32(),
			ClosingRouteID:         fields.NextInt32(),
			ForCrossSiteTransition: fields.NextBool(),
		}
		return p, fields.Err()
	},
	nil,
)

// View family.
var (
	Navigate = ipc.NewAsyncMessage(ipc.ViewStart, 1, "ViewMsg_Navigate",
		NavigateParamsTraits)

	ClosePage = ipc.NewAsyncMessage(ipc.ViewStart, 2, "ViewMsg_ClosePage",
		ClosePageParamsTraits)

	// SetPreferences replaces the view's preference dictionary.
	SetPreferences = ipc.NewAsyncMessage(ipc.ViewStart, 3, "ViewMsg_SetPreferences",
		ipc.Tuple1Traits(ipc.DictionaryTraits))

	// ExecuteCode runs script in the frame named by the UTF-16 path.
	// The script travels compressed.
	ExecuteCode = ipc.NewAsyncMessage(ipc.ViewStart, 4, "ViewMsg_ExecuteCode",
		ipc.Tuple2Traits(ipc.String16, ipc.Compressed(compress.LZ4, MaxPageStateSize)))

	// Resize carries the new width, height and device scale.
	Resize = ipc.NewAsyncMessage(ipc.ViewStart, 5, "ViewMsg_Resize",
		ipc.Tuple3Traits(ipc.Int32, ipc.Int32, ipc.Float64))
)
