// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messages

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"golang.org/x/sys/unix"

	"github.com/bureau-foundation/courier/lib/ipc"
	"github.com/bureau-foundation/courier/lib/tuple"
)

// captureSender keeps sent messages instead of writing them anywhere.
type captureSender struct {
	sent []*ipc.Message
}

func (s *captureSender) Send(m *ipc.Message) error {
	s.sent = append(s.sent, m)
	return nil
}

func TestCatalogRegistry(t *testing.T) {
	registry, err := Registry()
	if err != nil {
		t.Fatalf("Registry: %v", err)
	}
	if got := len(registry.Definitions()); got != len(All()) {
		t.Fatalf("registry holds %d definitions, catalog has %d", got, len(All()))
	}

	prefixes := map[ipc.MessageStart]string{
		ipc.TestStart:     "TestMsg_",
		ipc.ViewStart:     "ViewMsg_",
		ipc.ViewHostStart: "ViewHostMsg_",
		ipc.GpuStart:      "GpuMsg_",
	}
	for _, definition := range All() {
		start, ok := ipc.TypeStart(definition.Type())
		if !ok {
			t.Errorf("%s has type %#x outside every family", definition.Name(), definition.Type())
			continue
		}
		prefix, known := prefixes[start]
		if !known || !strings.HasPrefix(definition.Name(), prefix) {
			t.Errorf("%s is declared in family %s", definition.Name(), start)
		}
		if ipc.TypeOrdinal(definition.Type()) == 0 {
			t.Errorf("%s uses ordinal 0", definition.Name())
		}
	}
}

func TestNavigateRoundTrip(t *testing.T) {
	params := NavigateParams{
		PageID:      7,
		URL:         "https://example.org/a?b=c",
		Referrer:    "https://example.org/",
		Type:        NavigationRestore,
		State:       bytes.Repeat([]byte("scroll=0;form=empty;"), 200),
		RequestTime: time.Date(2026, 4, 2, 10, 0, 0, 123000, time.UTC),
	}
	m := Navigate.New(3, params)
	if err := m.Err(); err != nil {
		t.Fatalf("build: %v", err)
	}
	if m.PayloadSize() >= len(params.State) {
		t.Errorf("page state was not compressed: payload %d bytes", m.PayloadSize())
	}

	got, err := Navigate.Read(m)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !got.RequestTime.Equal(params.RequestTime) {
		t.Errorf("RequestTime = %v", got.RequestTime)
	}
	got.RequestTime = params.RequestTime
	if !reflect.DeepEqual(got, params) {
		t.Errorf("round trip = %+v", got)
	}

	log := Navigate.LogParams(m)
	for _, want := range []string{"page 7", "restore", params.URL, "<4000 bytes>"} {
		if !strings.Contains(log, want) {
			t.Errorf("LogParams %q lacks %q", log, want)
		}
	}
}

func TestNavigateRejectsUnknownNavigationType(t *testing.T) {
	m := ipc.NewMessage(1, Navigate.Type(), 0)
	m.WriteInt32(1)
	m.WriteString("https://example.org/")
	m.WriteString("")
	m.WriteInt32(int32(navigationTypeLimit))
	if _, err := Navigate.Read(m); !errors.Is(err, ipc.ErrMalformed) {
		t.Fatalf("err = %v, want ErrMalformed", err)
	}
}

func TestClosePage(t *testing.T) {
	params := ClosePageParams{ClosingProcessID: 10, ClosingRouteID: 20, ForCrossSiteTransition: true}
	var got ClosePageParams
	if err := ClosePage.Dispatch(ClosePage.New(1, params), func(p ClosePageParams) { got = p }); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if got != params {
		t.Errorf("got %+v", got)
	}
}

func TestSetPreferences(t *testing.T) {
	preferences := ipc.Dictionary{
		"default_font_size":  uint64(16),
		"javascript_enabled": true,
		"fonts":              map[string]any{"standard": "Times"},
	}
	params, err := SetPreferences.Read(SetPreferences.New(1, tuple.Make1(preferences)))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !reflect.DeepEqual(params.A, preferences) {
		t.Errorf("preferences = %#v", params.A)
	}
}

func TestExecuteCode(t *testing.T) {
	script := strings.Repeat("document.body.appendChild(document.createElement('div'));\n", 100)
	m := ExecuteCode.New(1, tuple.Make2("/html/body/iframe[1]", []byte(script)))
	params, err := ExecuteCode.Read(m)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if params.A != "/html/body/iframe[1]" || string(params.B) != script {
		t.Error("ExecuteCode parameters changed in transit")
	}
}

func TestGetCookies(t *testing.T) {
	request := GetCookies.New(5, tuple.Make2("https://example.org/", "https://example.org/"))
	sender := &captureSender{}
	err := GetCookies.Dispatch(request, sender, tuple.ApplyOut2x1(func(url, firstParty string, cookies *string) {
		*cookies = "session=abc; theme=dark"
	}))
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	reply, err := GetCookies.ReadReplyParams(sender.sent[0])
	if err != nil {
		t.Fatalf("ReadReplyParams: %v", err)
	}
	if reply.A != "session=abc; theme=dark" {
		t.Errorf("cookies = %q", reply.A)
	}
}

func TestAllocateSharedFile(t *testing.T) {
	request := AllocateSharedFile.New(1, tuple.Make1(uint32(4096)))
	sender := &captureSender{}
	err := AllocateSharedFile.Dispatch(request, sender, tuple.ApplyOut1x1(func(size uint32, file *ipc.FileDescriptor) {
		fd, err := unix.MemfdCreate("courier-shared", unix.MFD_CLOEXEC)
		if err != nil {
			t.Errorf("memfd_create: %v", err)
			*file = ipc.NoDescriptor
			return
		}
		if err := unix.Ftruncate(fd, int64(size)); err != nil {
			t.Errorf("ftruncate: %v", err)
		}
		*file = ipc.FileDescriptor{FD: fd, AutoClose: true}
	}))
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	reply := sender.sent[0]
	if reply.DescriptorCount() != 1 || reply.Flags()&ipc.FlagHasDescriptors == 0 {
		t.Fatalf("reply %s carries %d descriptors", reply, reply.DescriptorCount())
	}

	out, err := AllocateSharedFile.ReadReplyParams(reply)
	if err != nil {
		t.Fatalf("ReadReplyParams: %v", err)
	}
	defer unix.Close(out.A.FD)
	var stat unix.Stat_t
	if err := unix.Fstat(out.A.FD, &stat); err != nil {
		t.Fatalf("fstat: %v", err)
	}
	if stat.Size != 4096 {
		t.Errorf("shared file is %d bytes", stat.Size)
	}
}

func TestEstablishChannelCarriesSocket(t *testing.T) {
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		t.Fatalf("socketpair: %v", err)
	}
	defer unix.Close(fds[1])

	request := EstablishChannel.New(1, tuple.Make1(int32(12)))
	sender := &captureSender{}
	err = EstablishChannel.Dispatch(request, sender, tuple.ApplyOut1x1(func(client int32, handle *ipc.ChannelHandle) {
		*handle = ipc.SocketHandle("gpu.12", fds[0])
	}))
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	out, err := EstablishChannel.ReadReplyParams(sender.sent[0])
	if err != nil {
		t.Fatalf("ReadReplyParams: %v", err)
	}
	defer unix.Close(out.A.Socket.FD)
	if out.A.Name != "gpu.12" || !out.A.Socket.Valid() {
		t.Errorf("handle = %+v", out.A)
	}
}

func TestSetGpuInfo(t *testing.T) {
	info := GpuInfo{
		VendorID:      0x10de,
		DeviceID:      0x2204,
		DriverVersion: "550.54",
		Extensions:    []string{"GL_ARB_sync"},
		Attributes:    map[string]string{"vram": "24GiB"},
	}
	m := SetGpuInfo.New(ipc.RoutingControl, tuple.Make1(info))
	params, err := SetGpuInfo.Read(m)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !reflect.DeepEqual(params.A, info) {
		t.Errorf("info = %+v", params.A)
	}
	if log := SetGpuInfo.LogParams(m); !strings.Contains(log, `"driver_version": "550.54"`) {
		t.Errorf("LogParams = %q", log)
	}
}

func TestSynchronizeHasEmptyParameters(t *testing.T) {
	sender := &captureSender{}
	called := false
	err := Synchronize.Dispatch(Synchronize.NewControl(tuple.Tuple0{}), sender, func(tuple.Tuple0, *tuple.Tuple0) {
		called = true
	})
	if err != nil || !called {
		t.Fatalf("Dispatch: err=%v called=%v", err, called)
	}
	if _, err := Synchronize.ReadReplyParams(sender.sent[0]); err != nil {
		t.Errorf("ReadReplyParams: %v", err)
	}
}
