// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ipc

import (
	"fmt"
	"log/slog"
)

// HandlerFunc processes one received message. A returned error means
// the message could not be decoded; the router logs it and drops the
// message.
type HandlerFunc func(m *Message) error

// Router dispatches received messages to handlers by type id.
// Register handlers with Handle (or the typed HandleAsync and
// HandleSync helpers) before messages arrive.
type Router struct {
	handlers map[uint32]HandlerFunc
	logger   *slog.Logger
}

// NewRouter returns an empty router. A nil logger uses slog.Default().
func NewRouter(logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{handlers: make(map[uint32]HandlerFunc), logger: logger}
}

// Handle registers handler for messageType. Panics if the type already
// has a handler.
func (r *Router) Handle(messageType uint32, handler HandlerFunc) {
	if _, exists := r.handlers[messageType]; exists {
		panic(fmt.Sprintf("ipc.Router: duplicate handler for %s", TypeString(messageType)))
	}
	r.handlers[messageType] = handler
}

// Route delivers m to its handler and reports whether one was
// registered. Decode errors are logged, not returned: a malformed
// message is dropped and the channel keeps going.
func (r *Router) Route(m *Message) bool {
	handler, ok := r.handlers[m.Type()]
	if !ok {
		return false
	}
	if err := handler(m); err != nil {
		r.logger.Error("dropping message that failed to dispatch",
			"type", TypeString(m.Type()),
			"routing_id", m.RoutingID(),
			"error", err,
		)
	}
	return true
}

// RouteOrReject routes m like Route. An unrouted sync request is
// answered through sender with a reply-error, so the peer blocked in
// SendSync sees ErrReplyError instead of waiting for the channel to
// die.
func (r *Router) RouteOrReject(m *Message, sender Sender) bool {
	if r.Route(m) {
		return true
	}
	if !m.IsSync() || m.IsReply() {
		return false
	}
	reply, err := GenerateReplyError(m)
	if err != nil {
		r.logger.Error("cannot reject unrouted sync request",
			"type", TypeString(m.Type()),
			"error", err,
		)
		return false
	}
	if err := sender.Send(reply); err != nil {
		r.logger.Warn("sending reply-error for unrouted sync request",
			"type", TypeString(m.Type()),
			"error", err,
		)
	}
	return false
}

// HandleAsync registers handler for an async message definition.
func HandleAsync[P any](r *Router, definition *AsyncMessage[P], handler func(P)) {
	r.Handle(definition.Type(), func(m *Message) error {
		return definition.Dispatch(m, handler)
	})
}

// HandleAsyncWithMessage registers a handler that also receives the
// message header.
func HandleAsyncWithMessage[P any](r *Router, definition *AsyncMessage[P], handler func(*Message, P)) {
	r.Handle(definition.Type(), func(m *Message) error {
		return definition.DispatchWithMessage(m, handler)
	})
}

// HandleSync registers handler for a sync message definition; replies
// go out through sender.
func HandleSync[S, R any](r *Router, definition *SyncMessage[S, R], sender Sender, handler func(S, *R)) {
	r.Handle(definition.Type(), func(m *Message) error {
		return definition.Dispatch(m, sender, handler)
	})
}

// HandleSyncDelayReply registers a handler that sends its reply itself.
func HandleSyncDelayReply[S, R any](r *Router, definition *SyncMessage[S, R], sender Sender, handler func(S, *Message)) {
	r.Handle(definition.Type(), func(m *Message) error {
		return definition.DispatchDelayReply(m, sender, handler)
	})
}
