// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ipc

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/sys/unix"

	"github.com/bureau-foundation/courier/lib/eventloop"
)

// Mode selects which end of the rendezvous a channel plays.
type Mode int

const (
	// ModeServer binds the socket path and waits for one client.
	ModeServer Mode = iota
	// ModeClient connects to a server's socket path.
	ModeClient
)

func (m Mode) String() string {
	switch m {
	case ModeServer:
		return "server"
	case ModeClient:
		return "client"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Listener receives a channel's events. All methods run on the loop
// goroutine.
type Listener interface {
	// OnMessageReceived delivers one application message. m is valid
	// only for the duration of the call; use m.Retain to keep it.
	OnMessageReceived(m *Message)
	// OnChannelConnected reports the peer's Hello. It precedes every
	// OnMessageReceived.
	OnChannelConnected(peerPID int32)
	// OnChannelError reports a fatal transport or protocol error. It
	// is called at most once, and the channel is already closed.
	OnChannelError()
}

// IOLoop is the host readiness loop a channel plugs into.
// eventloop.Loop implements it.
type IOLoop interface {
	Watch(fd int, mode eventloop.WatchMode, persistent bool, watcher eventloop.Watcher) (eventloop.Watch, error)
	PostTask(task func())
}

// Defaults for ChannelOptions.
const (
	DefaultMaxMessageSize = 128 << 20
	DefaultReadBufferSize = 4096
)

// ChannelOptions tunes a channel. Zero values select defaults.
type ChannelOptions struct {
	// SocketDirectory holds rendezvous sockets. Defaults to
	// DefaultSocketDirectory().
	SocketDirectory string

	// MaxMessageSize caps the total size of a message in either
	// direction. A peer announcing a larger message is a protocol
	// error.
	MaxMessageSize int

	// ReadBufferSize is how much a single read requests.
	ReadBufferSize int

	// MaxDescriptorsPerMessage caps descriptors per outgoing message.
	// It cannot exceed MaxDescriptorsPerMessage.
	MaxDescriptorsPerMessage int

	// PID is sent in the Hello. Defaults to os.Getpid().
	PID int32

	// Tracer, if set, traces every message sent and received.
	Tracer *Tracer

	// Logger receives channel diagnostics. Defaults to slog.Default().
	Logger *slog.Logger
}

func (o ChannelOptions) withDefaults() ChannelOptions {
	if o.SocketDirectory == "" {
		o.SocketDirectory = DefaultSocketDirectory()
	}
	if o.MaxMessageSize <= 0 {
		o.MaxMessageSize = DefaultMaxMessageSize
	}
	if o.ReadBufferSize <= 0 {
		o.ReadBufferSize = DefaultReadBufferSize
	}
	if o.MaxDescriptorsPerMessage <= 0 || o.MaxDescriptorsPerMessage > MaxDescriptorsPerMessage {
		o.MaxDescriptorsPerMessage = MaxDescriptorsPerMessage
	}
	if o.PID == 0 {
		o.PID = int32(os.Getpid())
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

type channelState int

const (
	stateWaitingConnect channelState = iota
	stateConnected
	stateClosed
)

// errPeerClosed reports an orderly shutdown by the peer.
var errPeerClosed = errors.New("peer closed the connection")

// Channel is one end of a point-to-point message stream.
//
// Outgoing messages are queued in FIFO order and written as the socket
// accepts them; a message leaves the queue only once fully written.
// Incoming bytes are reassembled into messages and delivered in
// arrival order. The first message in each direction is a Hello
// carrying the sender's process id.
//
// A Channel is driven entirely by its IOLoop and must only be used on
// the loop goroutine.
type Channel struct {
	name     string
	mode     Mode
	listener Listener
	loop     IOLoop
	options  ChannelOptions
	logger   *slog.Logger

	state channelState

	// Server rendezvous. listenFD is -1 once closed or for clients.
	listenFD    int
	listenWatch eventloop.Watch
	socketPath  string

	pipe       pipe
	readWatch  eventloop.Watch
	writeWatch eventloop.Watch

	output       []*Message
	bytesWritten int

	readBuffer []byte
	oobBuffer  []byte
	inputFDs   []int

	// overflow holds received bytes not yet dispatched, starting at
	// overflowStart.
	overflow      []byte
	overflowStart int

	helloReceived bool
	peerPID       int32

	errorPending  bool
	errorNotified bool
}

// NewChannel creates a channel for handle. A handle with a valid
// Socket adopts that connected socket. Otherwise a server binds the
// socket path derived from handle.Name (removing a stale one) and a
// client connects to it. The Hello is queued immediately; nothing is
// written until Connect.
func NewChannel(handle ChannelHandle, mode Mode, listener Listener, loop IOLoop, options ChannelOptions) (*Channel, error) {
	options = options.withDefaults()
	c := newChannel(handle.Name, mode, listener, loop, options)

	switch {
	case handle.Socket.Valid():
		if err := adoptSocket(handle.Socket.FD); err != nil {
			return nil, fmt.Errorf("channel %s: %w", handle.Name, err)
		}
		c.pipe = &socketPipe{descriptor: handle.Socket.FD}
	case mode == ModeServer:
		path := PipeName(options.SocketDirectory, handle.Name)
		fd, err := listenSocket(path)
		if err != nil {
			return nil, fmt.Errorf("channel %s: %w", handle.Name, err)
		}
		c.listenFD = fd
		c.socketPath = path
	case mode == ModeClient:
		fd, err := connectSocket(PipeName(options.SocketDirectory, handle.Name))
		if err != nil {
			return nil, fmt.Errorf("channel %s: %w", handle.Name, err)
		}
		c.pipe = &socketPipe{descriptor: fd}
	default:
		return nil, fmt.Errorf("channel %s: invalid mode %v", handle.Name, mode)
	}
	return c, nil
}

// newChannel builds the channel state and queues the Hello. The caller
// supplies the pipe or listen socket.
func newChannel(name string, mode Mode, listener Listener, loop IOLoop, options ChannelOptions) *Channel {
	c := &Channel{
		name:       name,
		mode:       mode,
		listener:   listener,
		loop:       loop,
		options:    options,
		logger:     options.Logger.With("channel", name, "mode", mode.String()),
		listenFD:   -1,
		readBuffer: make([]byte, options.ReadBufferSize),
		oobBuffer:  make([]byte, unix.CmsgSpace(MaxDescriptorsPerMessage*4)),
	}
	hello := NewMessage(RoutingNone, HelloMessageType, 0)
	hello.WriteInt32(options.PID)
	c.output = append(c.output, hello)
	return c
}

// Name returns the channel id.
func (c *Channel) Name() string { return c.name }

// PeerPID returns the process id from the peer's Hello, or 0 before it
// arrives.
func (c *Channel) PeerPID() int32 { return c.peerPID }

// Connected reports whether the channel has a live connection.
func (c *Channel) Connected() bool { return c.state == stateConnected }

// Closed reports whether the channel has been closed.
func (c *Channel) Closed() bool { return c.state == stateClosed }

// Connect registers the channel with its loop. A server starts
// watching for its client; a client starts reading and flushes the
// queued Hello and any messages sent since creation.
func (c *Channel) Connect() error {
	if c.state == stateClosed {
		return ErrChannelClosed
	}
	if c.listenFD >= 0 {
		watch, err := c.loop.Watch(c.listenFD, eventloop.WatchRead, true, c)
		if err != nil {
			return fmt.Errorf("channel %s: watching listen socket: %w", c.name, err)
		}
		c.listenWatch = watch
		return nil
	}
	return c.startConnected()
}

// startConnected begins reading from the pipe and flushes the queue.
func (c *Channel) startConnected() error {
	watch, err := c.loop.Watch(c.pipe.fd(), eventloop.WatchRead, true, c)
	if err != nil {
		return fmt.Errorf("channel %s: watching pipe: %w", c.name, err)
	}
	c.readWatch = watch
	c.state = stateConnected
	if err := c.flush(); err != nil {
		c.fail(err)
		return err
	}
	return nil
}

// Send queues m for delivery. The channel takes ownership of m and of
// its AutoClose descriptors. Send returns an error if the message is
// unsendable or the channel is closed; a write failure found while
// draining closes the channel, is returned, and is also reported to
// the listener from a posted task.
func (c *Channel) Send(m *Message) error {
	if c.state == stateClosed {
		m.CloseDescriptors()
		return fmt.Errorf("send %s: %w", m, ErrChannelClosed)
	}
	if err := m.Err(); err != nil {
		m.CloseDescriptors()
		return fmt.Errorf("send %s: %w", m, err)
	}
	if m.Size()+c.options.Tracer.sendOverhead(m) > c.options.MaxMessageSize {
		m.CloseDescriptors()
		return fmt.Errorf("send %s: %w: limit %d", m, ErrMessageTooLarge, c.options.MaxMessageSize)
	}
	if m.DescriptorCount() > c.options.MaxDescriptorsPerMessage {
		m.CloseDescriptors()
		return fmt.Errorf("send %s: %d descriptors, limit %d", m, m.DescriptorCount(), c.options.MaxDescriptorsPerMessage)
	}
	if c.options.Tracer != nil {
		c.options.Tracer.onSend(c.name, m)
	}
	c.output = append(c.output, m)
	if c.state != stateConnected || c.writeWatch != nil {
		return nil
	}
	if err := c.flush(); err != nil {
		c.shutdown()
		c.errorPending = true
		c.loop.PostTask(c.notifyError)
		return fmt.Errorf("send %s: %w", m, err)
	}
	return nil
}

// flush writes queued messages until the queue is empty or the socket
// would block, in which case a one-shot write watch resumes it.
func (c *Channel) flush() error {
	for len(c.output) > 0 {
		m := c.output[0]
		data := m.Bytes()[c.bytesWritten:]
		var oob []byte
		if c.bytesWritten == 0 && m.DescriptorCount() > 0 {
			oob = unix.UnixRights(m.descriptorFDs()...)
		}
		n, err := c.pipe.write(data, oob)
		if err == unix.EINTR {
			continue
		}
		if err == unix.EAGAIN || (err == nil && n == 0) {
			return c.waitWritable()
		}
		if err != nil {
			return fmt.Errorf("write: %w", err)
		}
		c.bytesWritten += n
		if c.bytesWritten < m.Size() {
			return c.waitWritable()
		}
		c.output[0] = nil
		c.output = c.output[1:]
		c.bytesWritten = 0
		m.CloseDescriptors()
	}
	return nil
}

func (c *Channel) waitWritable() error {
	if c.writeWatch != nil {
		return nil
	}
	watch, err := c.loop.Watch(c.pipe.fd(), eventloop.WatchWrite, false, c)
	if err != nil {
		return fmt.Errorf("watching for writability: %w", err)
	}
	c.writeWatch = watch
	return nil
}

// OnFileReadReady implements eventloop.Watcher.
func (c *Channel) OnFileReadReady(fd int) {
	if c.state == stateClosed {
		return
	}
	if c.listenFD >= 0 && fd == c.listenFD {
		c.acceptClient()
		return
	}
	if err := c.readIncoming(); err != nil {
		c.fail(err)
	}
}

// OnFileWriteReady implements eventloop.Watcher.
func (c *Channel) OnFileWriteReady(int) {
	// The watch was one-shot and has already been removed.
	c.writeWatch = nil
	if c.state != stateConnected {
		return
	}
	if err := c.flush(); err != nil {
		c.fail(err)
	}
}

// acceptClient takes the one connection a server channel serves.
func (c *Channel) acceptClient() {
	fd, err := acceptSocket(c.listenFD)
	if err == unix.EAGAIN {
		return
	}
	if err != nil {
		c.fail(fmt.Errorf("accept: %w", err))
		return
	}
	c.listenWatch.Stop()
	c.listenWatch = nil
	unix.Close(c.listenFD)
	c.listenFD = -1
	c.pipe = &socketPipe{descriptor: fd}
	c.logger.Debug("accepted client")

	watch, err := c.loop.Watch(fd, eventloop.WatchRead, true, c)
	if err != nil {
		c.fail(fmt.Errorf("watching accepted pipe: %w", err))
		return
	}
	c.readWatch = watch
	c.state = stateConnected

	// The client's Hello may already be waiting. Read it before sending
	// ours so this side reports the connection first.
	if err := c.readIncoming(); err != nil {
		c.fail(err)
		return
	}
	if c.state != stateConnected {
		return
	}
	if err := c.flush(); err != nil {
		c.fail(err)
	}
}

// readIncoming reads until the socket would block, dispatching every
// complete message.
func (c *Channel) readIncoming() error {
	for c.state == stateConnected {
		n, oobn, err := c.pipe.read(c.readBuffer, c.oobBuffer)
		if err == unix.EINTR {
			continue
		}
		if err == unix.EAGAIN {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		if oobn > 0 {
			fds, err := parseRights(c.oobBuffer[:oobn])
			if err != nil {
				return fmt.Errorf("%w: %v", ErrProtocol, err)
			}
			c.inputFDs = append(c.inputFDs, fds...)
		}
		if n == 0 {
			return errPeerClosed
		}
		c.compactOverflow()
		c.overflow = append(c.overflow, c.readBuffer[:n]...)
		if err := c.dispatchBuffered(); err != nil {
			return err
		}
	}
	return nil
}

// dispatchBuffered carves complete messages off the front of the
// overflow buffer and dispatches them in order. Each frame is consumed
// before its dispatch, so a nested loop run inside a handler resumes
// at the next frame. The incomplete tail stays buffered.
func (c *Channel) dispatchBuffered() error {
	for c.state == stateConnected {
		pending := c.overflow[c.overflowStart:]
		if claimed, ok := ClaimedSize(pending); ok && claimed > c.options.MaxMessageSize {
			return fmt.Errorf("%w: %w: peer announced %d bytes, limit %d", ErrProtocol, ErrMessageTooLarge, claimed, c.options.MaxMessageSize)
		}
		size := FindNext(pending)
		if size == 0 {
			if len(pending) == 0 {
				c.overflow = c.overflow[:0]
				c.overflowStart = 0
			}
			return nil
		}
		m := messageFromFrame(pending[:size])
		c.overflowStart += size
		if err := c.dispatch(m); err != nil {
			return err
		}
	}
	return nil
}

// compactOverflow drops consumed bytes from the front of the buffer.
func (c *Channel) compactOverflow() {
	if c.overflowStart == 0 {
		return
	}
	remaining := copy(c.overflow, c.overflow[c.overflowStart:])
	c.overflow = c.overflow[:remaining]
	c.overflowStart = 0
}

// dispatch attaches received descriptors to m and delivers it.
func (c *Channel) dispatch(m *Message) error {
	count := m.headerDescriptorCount()
	if count > MaxDescriptorsPerMessage || count > len(c.inputFDs) {
		return fmt.Errorf("%w: message claims %d descriptors, %d received", ErrProtocol, count, len(c.inputFDs))
	}
	if count > 0 {
		m.attachReceived(c.inputFDs[:count])
		c.inputFDs = c.inputFDs[count:]
	}
	if err := m.stripSentTime(); err != nil {
		m.CloseDescriptors()
		return err
	}

	isHello := m.Type() == HelloMessageType && m.RoutingID() == RoutingNone
	if !c.helloReceived {
		if !isHello {
			m.CloseDescriptors()
			return fmt.Errorf("%w: first message is %s, not Hello", ErrProtocol, m)
		}
		// Hello carries only the peer pid.
		m.CloseDescriptors()
		pid, err := m.NewIterator().ReadInt32()
		if err != nil {
			return fmt.Errorf("%w: Hello: %v", ErrProtocol, err)
		}
		c.helloReceived = true
		c.peerPID = pid
		c.logger.Debug("channel connected", "peer_pid", pid)
		c.listener.OnChannelConnected(pid)
		return nil
	}
	if isHello {
		m.CloseDescriptors()
		return fmt.Errorf("%w: second Hello", ErrProtocol)
	}

	tracer := c.options.Tracer
	if tracer != nil {
		tracer.onReceive(c.name, m)
	}
	c.listener.OnMessageReceived(m)
	if tracer != nil {
		tracer.onDispatched(m)
	}
	m.CloseDescriptors()
	return nil
}

// fail closes the channel after a transport or protocol error and
// notifies the listener.
func (c *Channel) fail(err error) {
	if c.state == stateClosed && !c.errorPending {
		return
	}
	if errors.Is(err, errPeerClosed) {
		c.logger.Debug("channel closed by peer")
	} else {
		c.logger.Error("channel failed", "error", err)
	}
	c.shutdown()
	c.errorPending = true
	c.notifyError()
}

func (c *Channel) notifyError() {
	if c.errorNotified || !c.errorPending {
		return
	}
	c.errorNotified = true
	c.listener.OnChannelError()
}

// Close tears the channel down: watches are removed, descriptors
// closed, queued messages discarded, and a server's socket path
// unlinked. The listener is not notified. Close is idempotent.
func (c *Channel) Close() {
	c.shutdown()
}

func (c *Channel) shutdown() {
	if c.state == stateClosed {
		return
	}
	c.state = stateClosed
	for _, watch := range []eventloop.Watch{c.listenWatch, c.readWatch, c.writeWatch} {
		if watch != nil {
			watch.Stop()
		}
	}
	c.listenWatch, c.readWatch, c.writeWatch = nil, nil, nil

	if c.listenFD >= 0 {
		unix.Close(c.listenFD)
		c.listenFD = -1
	}
	if c.socketPath != "" {
		if err := unix.Unlink(c.socketPath); err != nil && err != unix.ENOENT {
			c.logger.Warn("removing socket path", "path", c.socketPath, "error", err)
		}
		c.socketPath = ""
	}
	if c.pipe != nil {
		if err := c.pipe.close(); err != nil {
			c.logger.Debug("closing pipe", "error", err)
		}
		c.pipe = nil
	}

	for _, m := range c.output {
		m.CloseDescriptors()
	}
	c.output = nil
	c.bytesWritten = 0
	for _, fd := range c.inputFDs {
		unix.Close(fd)
	}
	c.inputFDs = nil
	c.overflow = nil
	c.overflowStart = 0
}
