// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bureau-foundation/courier/cmd/courier/cli"
	"github.com/bureau-foundation/courier/lib/clock"
	"github.com/bureau-foundation/courier/lib/eventloop"
	"github.com/bureau-foundation/courier/lib/ipc"
	"github.com/bureau-foundation/courier/lib/messages"
	"github.com/bureau-foundation/courier/lib/testutil"
	"github.com/bureau-foundation/courier/lib/tuple"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// execute runs the command tree with args and returns stdout.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("COURIER_CONFIG", "")
	var stdout bytes.Buffer
	root := Root(IO{Stdin: strings.NewReader(stdin), Stdout: &stdout}, new(slog.LevelVar))
	root.HelpOutput = &bytes.Buffer{}
	err := root.Execute(context.Background(), args, testLogger())
	return stdout.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "", "--version")
	if err != nil {
		t.Fatalf("--version: %v", err)
	}
	if !strings.HasPrefix(out, "courier ") {
		t.Errorf("output = %q", out)
	}
}

func TestDecodeMessage(t *testing.T) {
	request := messages.Ping.New(ipc.RoutingControl, tuple.Make1("ping"))
	path := filepath.Join(t.TempDir(), "ping.hex")
	encoded := hex.EncodeToString(request.Bytes())
	// Split across lines the way captures are usually pasted.
	if err := os.WriteFile(path, []byte(encoded[:16]+"\n"+encoded[16:]+"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "", "decode", path)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, want := range []string{
		"routing id: control",
		"type:       Test#1",
		"sync id:",
		"name:       TestMsg_Ping",
		"params:     ping",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %q:\n%s", want, out)
		}
	}
}

func TestDecodeFromStdin(t *testing.T) {
	m := messages.Echo.New(7, tuple.Make2(int32(42), "hello"))
	out, err := execute(t, "0x"+hex.EncodeToString(m.Bytes()), "decode", "-")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.Contains(out, "routing id: 7") || !strings.Contains(out, "params:     42, hello") {
		t.Errorf("output:\n%s", out)
	}
}

func TestDecodeUnregistered(t *testing.T) {
	m := ipc.NewMessage(1, ipc.MessageType(ipc.ViewStart, 999), 0)
	m.WriteString("opaque")
	out, err := execute(t, hex.EncodeToString(m.Bytes()), "decode", "-")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.Contains(out, "(unregistered)") || !strings.Contains(out, "opaque") {
		t.Errorf("output:\n%s", out)
	}
}

func TestDecodeCBOR(t *testing.T) {
	out, err := execute(t, "a1 61 61 01", "decode", "--cbor", "-")
	if err != nil {
		t.Fatalf("decode --cbor: %v", err)
	}
	if strings.TrimSpace(out) != `{"a": 1}` {
		t.Errorf("output = %q", out)
	}
}

func TestDecodeErrors(t *testing.T) {
	m := messages.Echo.New(7, tuple.Make2(int32(42), "hello"))
	full := hex.EncodeToString(m.Bytes())

	tests := []struct {
		name  string
		input string
		args  []string
		want  error
	}{
		{"truncated", full[:len(full)-8], []string{"decode", "-"}, ipc.ErrTruncated},
		{"trailing bytes", full + "00000000", []string{"decode", "-"}, ipc.ErrMalformed},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := execute(t, test.input, test.args...)
			if !errors.Is(err, test.want) {
				t.Errorf("err = %v, want %v", err, test.want)
			}
		})
	}

	if _, err := execute(t, "zz", "decode", "-"); err == nil || !strings.Contains(err.Error(), "not hex") {
		t.Errorf("non-hex input: err = %v", err)
	}
	if _, err := execute(t, "", "decode"); err == nil {
		t.Error("decode without a file should fail")
	}
}

func TestMessagesListing(t *testing.T) {
	out, err := execute(t, "", "messages", "--color", "never")
	if err != nil {
		t.Fatalf("messages: %v", err)
	}
	for _, definition := range messages.All() {
		if !strings.Contains(out, definition.Name()) {
			t.Errorf("listing lacks %s", definition.Name())
		}
	}
}

func TestNewRendererRejectsUnknownColor(t *testing.T) {
	if _, err := newRenderer(&bytes.Buffer{}, "sometimes"); err == nil {
		t.Error("expected error for --color=sometimes")
	}
}

func TestRenderTrace(t *testing.T) {
	renderer, err := newRenderer(&bytes.Buffer{}, "never")
	if err != nil {
		t.Fatal(err)
	}
	local := []ipc.LogData{{Channel: "demo", Name: "TestMsg_Ping", Flags: "R", Params: "true, pong", Sent: 1000, Receive: 1250, Dispatch: 1300}}
	remote := []ipc.LogData{{Channel: "demo", Name: "TestMsg_Ping", Flags: "S DR", Params: "ping, true, pong", Sent: 900, Receive: 950, Dispatch: 990}}

	var out bytes.Buffer
	renderTrace(&out, renderer, local, remote)
	text := out.String()
	for _, want := range []string{"SIDE", "local", "remote", "ping, true, pong", "250µs", "S DR"} {
		if !strings.Contains(text, want) {
			t.Errorf("table lacks %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "\x1b[") {
		t.Errorf("--color=never output contains escape sequences:\n%q", text)
	}

	out.Reset()
	renderTrace(&out, renderer, nil, nil)
	if strings.TrimSpace(out.String()) != "no trace records" {
		t.Errorf("empty trace = %q", out.String())
	}
}

// startServer runs a one-client server on its own loop goroutine and
// returns the channel id and a channel that yields serve's result.
func startServer(t *testing.T, directory string) (string, <-chan error) {
	t.Helper()
	loop, err := eventloop.New(testLogger())
	if err != nil {
		t.Fatalf("eventloop.New: %v", err)
	}
	registry, err := messages.Registry()
	if err != nil {
		t.Fatal(err)
	}
	options := ipc.ChannelOptions{
		SocketDirectory: directory,
		Logger:          testLogger(),
		Tracer:          ipc.NewTracer(clock.Real(), registry, testLogger()),
	}
	channelID := testutil.UniqueID("serve")
	server := newServer(loop, options, testLogger())

	// The listening socket exists once the channel is created, which
	// happens on the server goroutine.
	listening := make(chan struct{})
	result := make(chan error, 1)
	go func() {
		defer loop.Close()
		channel, err := ipc.NewChannel(ipc.NamedHandle(channelID), ipc.ModeServer, server, loop, options)
		if err != nil {
			close(listening)
			result <- err
			return
		}
		server.channel = channel
		close(listening)
		if err := channel.Connect(); err != nil {
			result <- err
			return
		}
		err = loop.RunUntil(func() bool { return server.disconnected || server.shutdown })
		channel.Close()
		result <- err
	}()
	testutil.RequireClosed(t, listening, 5*time.Second, "waiting for server to listen")
	return channelID, result
}

func TestPingRoundTrip(t *testing.T) {
	directory := testutil.SocketDir(t)
	channelID, serverDone := startServer(t, directory)

	loop, err := eventloop.New(testLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer loop.Close()
	registry, _ := messages.Registry()
	options := ipc.ChannelOptions{
		SocketDirectory: directory,
		Logger:          testLogger(),
		Tracer:          ipc.NewTracer(clock.Real(), registry, testLogger()),
	}

	var out bytes.Buffer
	result, err := runPings(loop, options, channelID, 2, "ping", true, 5*time.Second, &out, testLogger())
	if err != nil {
		t.Fatalf("runPings: %v", err)
	}
	if result.failures != 0 {
		t.Errorf("%d pings failed:\n%s", result.failures, out.String())
	}
	for _, want := range []string{"reply 1 from " + channelID, "reply 2 from " + channelID, "pong matched=true"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output lacks %q:\n%s", want, out.String())
		}
	}

	roundTrips := 0
	for _, record := range result.remote {
		if record.Name == "TestMsg_Ping" {
			roundTrips++
			if !strings.HasSuffix(record.Flags, "DR") || record.Params != "ping, true, pong" {
				t.Errorf("remote ping record = %+v", record)
			}
		}
	}
	if roundTrips != 2 {
		t.Errorf("server forwarded %d ping records, want 2: %+v", roundTrips, result.remote)
	}
	if len(result.local) == 0 {
		t.Error("no local trace records")
	}

	if err := testutil.RequireReceive(t, serverDone, 5*time.Second, "waiting for server to see the disconnect"); err != nil {
		t.Errorf("server: %v", err)
	}
}

func TestPingMismatchedText(t *testing.T) {
	directory := testutil.SocketDir(t)
	channelID, serverDone := startServer(t, directory)

	loop, err := eventloop.New(testLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer loop.Close()

	var out bytes.Buffer
	options := ipc.ChannelOptions{SocketDirectory: directory, Logger: testLogger()}
	if _, err := runPings(loop, options, channelID, 1, "hello", false, time.Second, &out, testLogger()); err != nil {
		t.Fatalf("runPings: %v", err)
	}
	if !strings.Contains(out.String(), "hello matched=false") {
		t.Errorf("output = %q", out.String())
	}
	testutil.RequireReceive(t, serverDone, 5*time.Second, "waiting for server")
}

func TestPingWithoutServer(t *testing.T) {
	directory := testutil.SocketDir(t)
	t.Setenv("COURIER_CONFIG", "")
	configPath := filepath.Join(t.TempDir(), "courier.yaml")
	if err := os.WriteFile(configPath, []byte("socket_directory: "+directory+"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	var stdout bytes.Buffer
	root := Root(IO{Stdin: strings.NewReader(""), Stdout: &stdout}, new(slog.LevelVar))
	err := root.Execute(context.Background(), []string{"ping", "--config", configPath, "--channel", "nobody-home"}, testLogger())
	if err == nil {
		t.Fatal("ping without a server should fail")
	}
	var exit *cli.ExitError
	if errors.As(err, &exit) {
		t.Errorf("connection failure reported as exit code %d instead of an error", exit.Code)
	}
}

func TestServerEchoAndShutdown(t *testing.T) {
	first, second := testutil.SocketPair(t)
	serverLoop, err := eventloop.New(testLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer serverLoop.Close()
	clientLoop, err := eventloop.New(testLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer clientLoop.Close()

	server := newServer(serverLoop, ipc.ChannelOptions{Logger: testLogger()}, testLogger())
	serverChannel, err := ipc.NewChannel(ipc.SocketHandle("echo", first), ipc.ModeServer, server, serverLoop, ipc.ChannelOptions{Logger: testLogger()})
	if err != nil {
		t.Fatal(err)
	}
	defer serverChannel.Close()
	server.channel = serverChannel
	if err := serverChannel.Connect(); err != nil {
		t.Fatal(err)
	}

	echoes := make(chan tuple.Tuple2[int32, string], 1)
	client := &echoListener{echoes: echoes}
	clientChannel, err := ipc.NewChannel(ipc.SocketHandle("echo", second), ipc.ModeClient, client, clientLoop, ipc.ChannelOptions{Logger: testLogger()})
	if err != nil {
		t.Fatal(err)
	}
	defer clientChannel.Close()
	if err := clientChannel.Connect(); err != nil {
		t.Fatal(err)
	}
	if err := clientChannel.Send(messages.Echo.New(5, tuple.Make2(int32(42), "hello"))); err != nil {
		t.Fatal(err)
	}
	if err := clientChannel.Send(messages.Shutdown.NewControl(tuple.Tuple0{})); err != nil {
		t.Fatal(err)
	}

	if err := serverLoop.RunUntil(func() bool { return server.shutdown }); err != nil {
		t.Fatalf("server loop: %v", err)
	}
	if err := clientLoop.RunUntil(func() bool { return len(echoes) == 1 }); err != nil {
		t.Fatalf("client loop: %v", err)
	}
	if got := <-echoes; got.A != 42 || got.B != "hello" {
		t.Errorf("echo = %+v", got)
	}
}

type echoListener struct {
	echoes chan tuple.Tuple2[int32, string]
}

func (l *echoListener) OnChannelConnected(int32) {}
func (l *echoListener) OnChannelError()          {}
func (l *echoListener) OnMessageReceived(m *ipc.Message) {
	_ = messages.Echo.Dispatch(m, func(params tuple.Tuple2[int32, string]) {
		l.echoes <- params
	})
}
