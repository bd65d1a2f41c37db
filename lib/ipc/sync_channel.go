// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ipc

import (
	"fmt"
	"log/slog"
)

// SyncLoop is an IOLoop that can also be run re-entrantly until a
// condition holds. eventloop.Loop implements it.
type SyncLoop interface {
	IOLoop
	RunUntil(done func() bool) error
}

// SyncChannel is a Channel that can block on sync calls.
//
// SendSync sends a request and runs the loop nested until the matching
// reply arrives, so the calling goroutine keeps servicing the channel.
// While a call is pending, incoming sync requests and messages flagged
// FlagUnblock are dispatched immediately so the peer can make progress;
// every other message is deferred and delivered, in arrival order,
// after the outermost call returns. A channel error that arrives while
// messages are deferred is reported after they have been delivered.
type SyncChannel struct {
	channel  *Channel
	listener Listener
	loop     SyncLoop
	tracer   *Tracer
	logger   *slog.Logger

	pending map[int32]*pendingCall
	depth   int

	deferred      []*Message
	deferredError bool
	flushPosted   bool
	closed        bool
}

type pendingCall struct {
	reply *Message
	err   error
	done  bool
}

// NewSyncChannel creates a sync-capable channel. Arguments are as for
// NewChannel.
func NewSyncChannel(handle ChannelHandle, mode Mode, listener Listener, loop SyncLoop, options ChannelOptions) (*SyncChannel, error) {
	s := newSyncChannel(listener, loop, options.withDefaults())
	channel, err := NewChannel(handle, mode, syncListener{s}, loop, options)
	if err != nil {
		return nil, err
	}
	s.channel = channel
	s.logger = channel.logger
	return s, nil
}

func newSyncChannel(listener Listener, loop SyncLoop, options ChannelOptions) *SyncChannel {
	return &SyncChannel{
		listener: listener,
		loop:     loop,
		tracer:   options.Tracer,
		logger:   options.Logger,
		pending:  make(map[int32]*pendingCall),
	}
}

// Channel returns the underlying channel.
func (s *SyncChannel) Channel() *Channel { return s.channel }

// Name returns the channel id.
func (s *SyncChannel) Name() string { return s.channel.Name() }

// PeerPID returns the process id from the peer's Hello.
func (s *SyncChannel) PeerPID() int32 { return s.channel.PeerPID() }

// Connect registers the channel with its loop.
func (s *SyncChannel) Connect() error { return s.channel.Connect() }

// Send queues an async message or a reply. See Channel.Send.
func (s *SyncChannel) Send(m *Message) error { return s.channel.Send(m) }

// SendSync sends request, a message built by NewSyncRequest or
// SyncMessage.New, and returns its reply. The loop is run nested until
// the reply arrives, the channel fails, or the loop is told to quit;
// the latter two return an error wrapping ErrChannelClosed. A reply
// flagged FlagReplyError is returned as-is; SyncMessage.ReadReplyParams
// turns it into ErrReplyError. The caller owns the reply's descriptors.
func (s *SyncChannel) SendSync(request *Message) (*Message, error) {
	if !request.IsSync() {
		request.CloseDescriptors()
		return nil, fmt.Errorf("send sync %s: not a sync request", request)
	}
	id, err := SyncID(request)
	if err != nil {
		request.CloseDescriptors()
		return nil, fmt.Errorf("send sync %s: %w", request, err)
	}
	if s.closed {
		request.CloseDescriptors()
		return nil, fmt.Errorf("send sync %s: %w", request, ErrChannelClosed)
	}
	name := request.String()

	call := &pendingCall{}
	s.pending[id] = call
	s.depth++
	defer func() {
		delete(s.pending, id)
		s.depth--
		s.scheduleFlush()
	}()

	if err := s.channel.Send(request); err != nil {
		return nil, fmt.Errorf("send sync: %w", err)
	}
	if err := s.loop.RunUntil(func() bool { return call.done }); err != nil {
		return nil, fmt.Errorf("send sync %s: %w: %w", name, ErrChannelClosed, err)
	}
	if call.err != nil {
		return nil, fmt.Errorf("send sync %s: %w", name, call.err)
	}
	return call.reply, nil
}

// Close closes the channel, fails pending calls with ErrChannelClosed,
// and discards deferred messages. The listener is not notified.
func (s *SyncChannel) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.channel.Close()
	s.failPending()
	s.discardDeferred()
}

func (s *SyncChannel) failPending() {
	for _, call := range s.pending {
		if !call.done {
			call.done = true
			call.err = ErrChannelClosed
		}
	}
}

func (s *SyncChannel) discardDeferred() {
	for _, m := range s.deferred {
		m.CloseDescriptors()
	}
	s.deferred = nil
	s.deferredError = false
}

func (s *SyncChannel) receive(m *Message) {
	if s.closed {
		return
	}
	if m.IsReply() {
		s.receiveReply(m)
		return
	}
	unblocking := m.IsSync() || m.ShouldUnblock()
	if s.depth > 0 && unblocking {
		s.listener.OnMessageReceived(m)
		return
	}
	if s.depth > 0 || len(s.deferred) > 0 {
		// The channel emits the trace record for m when this call
		// returns; the retained copy carries it to the real dispatch.
		retained := m.Retain()
		m.traceClaimed = true
		s.deferred = append(s.deferred, retained)
		return
	}
	s.listener.OnMessageReceived(m)
}

func (s *SyncChannel) receiveReply(m *Message) {
	id, err := SyncID(m)
	if err != nil {
		s.logger.Warn("dropping reply without sync id", "message", m.String(), "error", err)
		return
	}
	call, ok := s.pending[id]
	if !ok || call.done {
		s.logger.Warn("dropping reply to unknown sync call", "message", m.String(), "sync_id", id)
		return
	}
	call.reply = m.Retain()
	call.done = true
}

func (s *SyncChannel) channelError() {
	s.failPending()
	if s.closed {
		return
	}
	if len(s.deferred) > 0 {
		s.deferredError = true
		return
	}
	s.listener.OnChannelError()
}

func (s *SyncChannel) scheduleFlush() {
	if s.depth > 0 || s.flushPosted || s.closed {
		return
	}
	if len(s.deferred) == 0 && !s.deferredError {
		return
	}
	s.flushPosted = true
	s.loop.PostTask(s.flushDeferred)
}

// flushDeferred delivers deferred messages in arrival order. Messages
// deferred by a sync call made from one of these handlers join the end
// of the queue.
func (s *SyncChannel) flushDeferred() {
	s.flushPosted = false
	for s.depth == 0 && !s.closed && len(s.deferred) > 0 {
		m := s.deferred[0]
		s.deferred[0] = nil
		s.deferred = s.deferred[1:]
		s.listener.OnMessageReceived(m)
		if s.tracer != nil {
			s.tracer.onDispatched(m)
		}
		m.CloseDescriptors()
	}
	if s.depth == 0 && !s.closed && len(s.deferred) == 0 && s.deferredError {
		s.deferredError = false
		s.listener.OnChannelError()
	}
}

// syncListener receives the underlying channel's events.
type syncListener struct {
	s *SyncChannel
}

func (l syncListener) OnMessageReceived(m *Message) { l.s.receive(m) }

func (l syncListener) OnChannelConnected(peerPID int32) {
	if !l.s.closed {
		l.s.listener.OnChannelConnected(peerPID)
	}
}

func (l syncListener) OnChannelError() { l.s.channelError() }
