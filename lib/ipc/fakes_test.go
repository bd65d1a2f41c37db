// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ipc

import (
	"testing"

	"golang.org/x/sys/unix"

	"github.com/bureau-foundation/courier/lib/eventloop"
)

// fakePipe is a scripted pipe. Reads return queued chunks, then
// EAGAIN; writes append to written, optionally one byte at a time
// with EAGAIN between bytes.
type fakePipe struct {
	descriptor int
	chunks     [][]byte
	eof        bool
	// rights are delivered as SCM_RIGHTS with the next chunk.
	rights []int

	written      []byte
	writeErr     error
	trickle      bool
	writeBlocked bool

	closeCount int
}

func (p *fakePipe) fd() int { return p.descriptor }

func (p *fakePipe) read(buffer, oob []byte) (int, int, error) {
	if len(p.chunks) == 0 {
		if p.eof {
			return 0, 0, nil
		}
		return 0, 0, unix.EAGAIN
	}
	n := copy(buffer, p.chunks[0])
	if n < len(p.chunks[0]) {
		p.chunks[0] = p.chunks[0][n:]
	} else {
		p.chunks = p.chunks[1:]
	}
	oobn := 0
	if len(p.rights) > 0 {
		oobn = copy(oob, unix.UnixRights(p.rights...))
		p.rights = nil
	}
	return n, oobn, nil
}

func (p *fakePipe) write(data, oob []byte) (int, error) {
	if p.writeErr != nil {
		return 0, p.writeErr
	}
	if p.writeBlocked {
		return 0, unix.EAGAIN
	}
	if p.trickle && len(data) > 1 {
		data = data[:1]
		p.writeBlocked = true
	}
	p.written = append(p.written, data...)
	return len(data), nil
}

func (p *fakePipe) close() error {
	p.closeCount++
	return nil
}

// feed queues data as chunks of at most size bytes.
func (p *fakePipe) feed(data []byte, size int) {
	for len(data) > 0 {
		n := min(size, len(data))
		p.chunks = append(p.chunks, append([]byte(nil), data[:n]...))
		data = data[n:]
	}
}

// fakeLoop is an IOLoop driven explicitly by the test.
type fakeLoop struct {
	watches []*fakeWatch
	tasks   []func()
}

type fakeWatch struct {
	fd         int
	mode       eventloop.WatchMode
	persistent bool
	watcher    eventloop.Watcher
	stopped    bool
}

func (w *fakeWatch) Stop() { w.stopped = true }

func (l *fakeLoop) Watch(fd int, mode eventloop.WatchMode, persistent bool, watcher eventloop.Watcher) (eventloop.Watch, error) {
	watch := &fakeWatch{fd: fd, mode: mode, persistent: persistent, watcher: watcher}
	l.watches = append(l.watches, watch)
	return watch, nil
}

func (l *fakeLoop) PostTask(task func()) { l.tasks = append(l.tasks, task) }

func (l *fakeLoop) runTasks() {
	for len(l.tasks) > 0 {
		task := l.tasks[0]
		l.tasks = l.tasks[1:]
		task()
	}
}

func (l *fakeLoop) active(fd int, mode eventloop.WatchMode) []*fakeWatch {
	var watches []*fakeWatch
	for _, watch := range l.watches {
		if watch.fd == fd && watch.mode == mode && !watch.stopped {
			watches = append(watches, watch)
		}
	}
	return watches
}

func (l *fakeLoop) watching(fd int, mode eventloop.WatchMode) bool {
	return len(l.active(fd, mode)) > 0
}

func (l *fakeLoop) readable(fd int) {
	for _, watch := range l.active(fd, eventloop.WatchRead) {
		if !watch.persistent {
			watch.stopped = true
		}
		watch.watcher.OnFileReadReady(fd)
	}
}

func (l *fakeLoop) writable(fd int) {
	for _, watch := range l.active(fd, eventloop.WatchWrite) {
		if !watch.persistent {
			watch.stopped = true
		}
		watch.watcher.OnFileWriteReady(fd)
	}
}

// recordingListener keeps retained copies of everything it receives.
type recordingListener struct {
	connected []int32
	messages  []*Message
	errors    int
	onMessage func(*Message)
}

func (r *recordingListener) OnMessageReceived(m *Message) {
	r.messages = append(r.messages, m.Retain())
	if r.onMessage != nil {
		r.onMessage(m)
	}
}

func (r *recordingListener) OnChannelConnected(peerPID int32) {
	r.connected = append(r.connected, peerPID)
}

func (r *recordingListener) OnChannelError() { r.errors++ }

// fakeChannel is a connected client channel over a fakePipe.
type fakeChannel struct {
	channel  *Channel
	pipe     *fakePipe
	loop     *fakeLoop
	listener *recordingListener
}

const fakeFD = 100

func newFakeChannel(t *testing.T, options ChannelOptions) *fakeChannel {
	t.Helper()
	if options.PID == 0 {
		options.PID = 1234
	}
	if options.Logger == nil {
		options.Logger = testLogger()
	}
	options = options.withDefaults()
	f := &fakeChannel{
		pipe:     &fakePipe{descriptor: fakeFD},
		loop:     &fakeLoop{},
		listener: &recordingListener{},
	}
	f.channel = newChannel("fake", ModeClient, f.listener, f.loop, options)
	f.channel.pipe = f.pipe
	if err := f.channel.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	return f
}

func helloBytes(pid int32) []byte {
	hello := NewMessage(RoutingNone, HelloMessageType, 0)
	hello.WriteInt32(pid)
	return hello.Bytes()
}

// splitMessages parses a byte stream into messages.
func splitMessages(t *testing.T, stream []byte) []*Message {
	t.Helper()
	var messages []*Message
	for len(stream) > 0 {
		size := FindNext(stream)
		if size == 0 {
			t.Fatalf("stream ends with %d bytes of a partial message", len(stream))
		}
		m, err := ParseMessage(stream[:size])
		if err != nil {
			t.Fatalf("ParseMessage: %v", err)
		}
		messages = append(messages, m)
		stream = stream[size:]
	}
	return messages
}
