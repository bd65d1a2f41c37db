// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ipc

import (
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/bureau-foundation/courier/lib/clock"
	"github.com/bureau-foundation/courier/lib/eventloop"
	"github.com/bureau-foundation/courier/lib/testutil"
	"github.com/bureau-foundation/courier/lib/tuple"
)

func newTestLoop(t *testing.T) *eventloop.Loop {
	t.Helper()
	loop, err := eventloop.New(testLogger())
	if err != nil {
		t.Fatalf("eventloop.New: %v", err)
	}
	t.Cleanup(func() { loop.Close() })
	return loop
}

// runUntil runs loop until done holds, failing the test if that takes
// more than a few seconds.
func runUntil(t *testing.T, loop *eventloop.Loop, done func() bool) {
	t.Helper()
	stop := quitAfter(loop, 5*time.Second)
	defer stop()
	if err := loop.RunUntil(done); err != nil {
		t.Fatalf("loop stopped before the condition held: %v", err)
	}
}

// quitAfter bounds a blocking call on loop. The returned function
// cancels the bound.
func quitAfter(loop *eventloop.Loop, timeout time.Duration) func() {
	timer := time.AfterFunc(timeout, loop.Quit)
	return func() { timer.Stop() }
}

// eventListener routes messages and appends connection events to a
// log shared by both ends of a pair.
type eventListener struct {
	name      string
	router    *Router
	sender    Sender
	events    *[]string
	connected int
	errors    int
}

func (l *eventListener) OnMessageReceived(m *Message) {
	if !l.router.RouteOrReject(m, l.sender) {
		*l.events = append(*l.events, l.name+": unhandled "+TypeString(m.Type()))
	}
}

func (l *eventListener) OnChannelConnected(int32) { l.connected++ }

func (l *eventListener) OnChannelError() {
	l.errors++
	*l.events = append(*l.events, l.name+": error")
}

// syncPair is two sync channels joined by a socketpair on one loop.
type syncPair struct {
	loop           *eventloop.Loop
	server, client *SyncChannel
	serverListener *eventListener
	clientListener *eventListener
	events         []string
}

func newSyncPair(t *testing.T) *syncPair {
	t.Helper()
	options := ChannelOptions{Logger: testLogger()}
	return newSyncPairWithOptions(t, options, options)
}

func newSyncPairWithOptions(t *testing.T, serverOptions, clientOptions ChannelOptions) *syncPair {
	t.Helper()
	p := &syncPair{loop: newTestLoop(t)}
	p.serverListener = &eventListener{name: "server", router: NewRouter(testLogger()), events: &p.events}
	p.clientListener = &eventListener{name: "client", router: NewRouter(testLogger()), events: &p.events}

	first, second := testutil.SocketPair(t)
	server, err := NewSyncChannel(SocketHandle("pair", first), ModeServer, p.serverListener, p.loop, serverOptions)
	if err != nil {
		t.Fatalf("server: %v", err)
	}
	client, err := NewSyncChannel(SocketHandle("pair", second), ModeClient, p.clientListener, p.loop, clientOptions)
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	p.server, p.client = server, client
	p.serverListener.sender, p.clientListener.sender = server, client
	t.Cleanup(func() {
		server.Close()
		client.Close()
	})
	if err := server.Connect(); err != nil {
		t.Fatalf("server Connect: %v", err)
	}
	if err := client.Connect(); err != nil {
		t.Fatalf("client Connect: %v", err)
	}
	return p
}

func (p *syncPair) record(event string) { p.events = append(p.events, event) }

// call runs a Ping on the client, bounded by a timeout.
func (p *syncPair) call(text string) (tuple.Tuple2[bool, string], error) {
	stop := quitAfter(p.loop, 5*time.Second)
	defer stop()
	return testPing.Call(p.client, 1, tuple.Make1(text))
}

func TestSyncChannelPingPong(t *testing.T) {
	p := newSyncPair(t)
	HandleSync(p.serverListener.router, testPing, p.server, tuple.ApplyOut1x2(func(text string, ok *bool, answer *string) {
		*ok, *answer = text == "ping", "pong"
	}))

	out, err := p.call("ping")
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if out != tuple.Make2(true, "pong") {
		t.Errorf("reply = %+v", out)
	}
	if p.clientListener.connected != 1 || p.serverListener.connected != 1 {
		t.Errorf("connected: client=%d server=%d", p.clientListener.connected, p.serverListener.connected)
	}
}

func TestSyncChannelUnhandledRequestGetsReplyError(t *testing.T) {
	p := newSyncPair(t)

	_, err := p.call("ping")
	if !errors.Is(err, ErrReplyError) {
		t.Fatalf("Call err = %v, want ErrReplyError", err)
	}
	if p.client.Channel().Closed() {
		t.Error("client channel closed after a rejected call")
	}
	want := "server: unhandled " + TypeString(testPing.Type())
	if !slices.Contains(p.events, want) {
		t.Errorf("events = %q, want %q", p.events, want)
	}
}

func TestSyncChannelAsyncMessage(t *testing.T) {
	p := newSyncPair(t)
	var received []tuple.Tuple2[int32, string]
	HandleAsync(p.serverListener.router, testEcho, func(params tuple.Tuple2[int32, string]) {
		received = append(received, params)
	})

	if err := p.client.Send(testEcho.New(1, tuple.Make2(int32(42), "hello"))); err != nil {
		t.Fatalf("Send: %v", err)
	}
	runUntil(t, p.loop, func() bool { return len(received) == 1 })
	if received[0] != tuple.Make2(int32(42), "hello") {
		t.Errorf("received %+v", received[0])
	}
}

func TestSyncChannelDefersAsyncMessagesDuringCall(t *testing.T) {
	p := newSyncPair(t)
	HandleSync(p.serverListener.router, testPing, p.server, tuple.ApplyOut1x2(func(text string, ok *bool, answer *string) {
		p.server.Send(testEcho.New(1, tuple.Make2(int32(1), "first")))
		p.server.Send(testEcho.New(1, tuple.Make2(int32(2), "second")))
		*ok, *answer = true, "pong"
	}))
	HandleAsync(p.clientListener.router, testEcho, tuple.Apply2(func(id int32, text string) {
		p.record("echo " + text)
	}))

	if _, err := p.call("ping"); err != nil {
		t.Fatalf("Call: %v", err)
	}
	p.record("returned")
	if err := p.server.Send(testEcho.New(1, tuple.Make2(int32(3), "third"))); err != nil {
		t.Fatalf("Send: %v", err)
	}
	runUntil(t, p.loop, func() bool { return len(p.events) == 4 })

	want := []string{"returned", "echo first", "echo second", "echo third"}
	if !slices.Equal(p.events, want) {
		t.Errorf("events = %q, want %q", p.events, want)
	}
}

func TestSyncChannelNestedCallsCorrelateReplies(t *testing.T) {
	p := newSyncPair(t)
	var outerReply *Message
	HandleSyncDelayReply(p.serverListener.router, testPing, p.server, func(params tuple.Tuple1[string], reply *Message) {
		switch params.A {
		case "outer":
			outerReply = reply
			unblock := testEcho.New(1, tuple.Make2(int32(0), "call back"))
			unblock.SetFlags(FlagUnblock)
			p.server.Send(unblock)
		case "inner":
			testPing.WriteReplyParams(reply, tuple.Make2(true, "inner reply"))
			p.server.Send(reply)
			testPing.WriteReplyParams(outerReply, tuple.Make2(true, "outer reply"))
			p.server.Send(outerReply)
		}
	})
	HandleAsync(p.clientListener.router, testEcho, tuple.Apply2(func(id int32, text string) {
		p.record("echo " + text)
		out, err := testPing.Call(p.client, 1, tuple.Make1("inner"))
		if err != nil {
			p.record("inner failed: " + err.Error())
			return
		}
		p.record("inner returned " + out.B)
	}))

	out, err := p.call("outer")
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	p.record("outer returned " + out.B)

	want := []string{"echo call back", "inner returned inner reply", "outer returned outer reply"}
	if !slices.Equal(p.events, want) {
		t.Errorf("events = %q, want %q", p.events, want)
	}
}

func TestSyncChannelCallFailsWhenPeerCloses(t *testing.T) {
	p := newSyncPair(t)
	HandleSyncDelayReply(p.serverListener.router, testPing, p.server, func(tuple.Tuple1[string], *Message) {
		p.server.Close()
	})

	_, err := p.call("ping")
	if !errors.Is(err, ErrChannelClosed) {
		t.Fatalf("Call: err = %v, want ErrChannelClosed", err)
	}
	if p.clientListener.errors != 1 {
		t.Errorf("client OnChannelError called %d times, want 1", p.clientListener.errors)
	}
	if p.serverListener.errors != 0 {
		t.Errorf("closed server was notified %d times", p.serverListener.errors)
	}
}

func TestSyncChannelReportsErrorAfterDeferredMessages(t *testing.T) {
	p := newSyncPair(t)
	HandleSyncDelayReply(p.serverListener.router, testPing, p.server, func(tuple.Tuple1[string], *Message) {
		p.server.Send(testEcho.New(1, tuple.Make2(int32(1), "last words")))
		p.server.Close()
	})
	HandleAsync(p.clientListener.router, testEcho, tuple.Apply2(func(id int32, text string) {
		p.record("echo " + text)
	}))

	if _, err := p.call("ping"); !errors.Is(err, ErrChannelClosed) {
		t.Fatalf("Call: err = %v, want ErrChannelClosed", err)
	}
	if p.clientListener.errors != 0 {
		t.Fatal("error reported before the deferred message was delivered")
	}
	runUntil(t, p.loop, func() bool { return p.clientListener.errors == 1 })

	want := []string{"echo last words", "client: error"}
	if !slices.Equal(p.events, want) {
		t.Errorf("events = %q, want %q", p.events, want)
	}
}

func TestSyncChannelReplyError(t *testing.T) {
	p := newSyncPair(t)
	HandleSync(p.serverListener.router, testPing, p.server, tuple.ApplyOut1x2(func(string, *bool, *string) {
		t.Error("handler ran for a malformed request")
	}))

	stop := quitAfter(p.loop, 5*time.Second)
	reply, err := p.client.SendSync(NewSyncRequest(1, testPing.Type()))
	stop()
	if err != nil {
		t.Fatalf("SendSync: %v", err)
	}
	if !reply.IsReplyError() {
		t.Fatalf("reply %s is not a reply-error", reply)
	}
	if _, err := testPing.ReadReplyParams(reply); !errors.Is(err, ErrReplyError) {
		t.Errorf("ReadReplyParams: err = %v, want ErrReplyError", err)
	}
}

func TestSyncChannelCallEndsWhenLoopQuits(t *testing.T) {
	p := newSyncPair(t)
	HandleSyncDelayReply(p.serverListener.router, testPing, p.server, func(tuple.Tuple1[string], *Message) {
		p.loop.Quit()
	})

	_, err := p.call("ping")
	if !errors.Is(err, ErrChannelClosed) || !errors.Is(err, eventloop.ErrQuit) {
		t.Fatalf("Call: err = %v, want ErrChannelClosed wrapping ErrQuit", err)
	}
	if len(p.client.pending) != 0 || p.client.depth != 0 {
		t.Errorf("call state leaked: pending=%d depth=%d", len(p.client.pending), p.client.depth)
	}
}

func TestSyncChannelRejectsAsyncMessageInSendSync(t *testing.T) {
	p := newSyncPair(t)
	if _, err := p.client.SendSync(testEcho.New(1, tuple.Make2(int32(1), "x"))); err == nil {
		t.Error("SendSync accepted an async message")
	}
	p.client.Close()
	if _, err := p.client.SendSync(testPing.New(1, tuple.Make1("x"))); !errors.Is(err, ErrChannelClosed) {
		t.Errorf("SendSync after Close: err = %v", err)
	}
}

func TestSyncChannelTracesRoundTrip(t *testing.T) {
	fakeClock := clock.Fake(time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC))
	fakeClock.SetAutoStep(time.Millisecond)
	registry, err := NewRegistry(testEcho, testPing)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	tracer := NewTracer(fakeClock, registry, testLogger())
	var records []LogData
	tracer.SetSink(func(record LogData) { records = append(records, record) })

	p := newSyncPairWithOptions(t,
		ChannelOptions{Logger: testLogger(), Tracer: tracer},
		ChannelOptions{Logger: testLogger()})
	HandleSync(p.serverListener.router, testPing, p.server, tuple.ApplyOut1x2(func(text string, ok *bool, answer *string) {
		*ok, *answer = true, "pong"
	}))

	if _, err := p.call("ping"); err != nil {
		t.Fatalf("Call: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want one for the round trip", len(records))
	}
	record := records[0]
	if record.Name != "TestMsg_Ping" || record.Flags != "S DR" || record.Params != "ping, true, pong" {
		t.Errorf("record = %+v", record)
	}
	if record.Sent != 0 || record.Receive == 0 || record.Dispatch <= record.Receive {
		t.Errorf("record times: sent=%d receive=%d dispatch=%d", record.Sent, record.Receive, record.Dispatch)
	}
}
