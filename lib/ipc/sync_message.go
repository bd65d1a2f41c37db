// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ipc

import (
	"fmt"
	"sync/atomic"
)

// lastSyncID is the process-wide sync id counter. Ids only need to be
// unique among the calls outstanding on one channel.
var lastSyncID atomic.Int32

// NewSyncRequest creates a sync request whose payload starts with a
// fresh sync id. Parameters are appended after it.
func NewSyncRequest(routingID int32, messageType uint32) *Message {
	m := NewMessage(routingID, messageType, FlagSync)
	m.WriteInt32(lastSyncID.Add(1))
	return m
}

// SyncID returns the correlation id at the start of a sync request or
// reply payload.
func SyncID(m *Message) (int32, error) {
	if !m.IsSync() && !m.IsReply() {
		return 0, fmt.Errorf("sync id: %s is neither a sync request nor a reply", m)
	}
	id, err := m.NewIterator().ReadInt32()
	if err != nil {
		return 0, fmt.Errorf("sync id: %w", err)
	}
	return id, nil
}

// GenerateReply creates an empty reply to request: same routing id and
// type, FlagReply set, and the request's sync id as the first payload
// field.
func GenerateReply(request *Message) (*Message, error) {
	id, err := SyncID(request)
	if err != nil {
		return nil, err
	}
	reply := NewMessage(request.RoutingID(), request.Type(), FlagReply)
	reply.WriteInt32(id)
	if request.trace != nil {
		reply.syncTrace = request.trace
		request.traceClaimed = true
	}
	return reply, nil
}

// GenerateReplyError creates a reply flagged FlagReplyError, telling
// the caller its request could not be decoded.
func GenerateReplyError(request *Message) (*Message, error) {
	reply, err := GenerateReply(request)
	if err != nil {
		return nil, err
	}
	reply.SetFlags(FlagReplyError)
	return reply, nil
}

// syncPayload returns an iterator positioned after the sync id.
func syncPayload(m *Message) (*Iterator, error) {
	it := m.NewIterator()
	if _, err := it.ReadInt32(); err != nil {
		return nil, fmt.Errorf("sync id: %w", err)
	}
	return it, nil
}

// SyncMessage defines a request carrying S whose reply carries R.
//
//	var Ping = ipc.NewSyncMessage(ipc.TestStart, 1, "TestMsg_Ping",
//		ipc.Tuple1Traits(ipc.String), ipc.Tuple2Traits(ipc.Bool, ipc.String))
//
//	out, err := Ping.Call(syncChannel, routingID, tuple.Make1("ping"))
//
//	err := Ping.Dispatch(request, channel, tuple.ApplyOut1x2(
//		func(text string, ok *bool, answer *string) { *ok, *answer = true, "pong" }))
type SyncMessage[S, R any] struct {
	messageInfo
	send  Traits[S]
	reply Traits[R]
}

// NewSyncMessage defines a sync message type with the given family,
// ordinal and name.
func NewSyncMessage[S, R any](start MessageStart, ordinal uint16, name string, send Traits[S], reply Traits[R]) *SyncMessage[S, R] {
	return &SyncMessage[S, R]{
		messageInfo: messageInfo{messageType: MessageType(start, ordinal), name: name},
		send:        send,
		reply:       reply,
	}
}

// New builds a request addressed to routingID.
func (d *SyncMessage[S, R]) New(routingID int32, params S) *Message {
	m := NewSyncRequest(routingID, d.messageType)
	d.send.Write(m, params)
	return m
}

// NewControl builds a channel-level control request.
func (d *SyncMessage[S, R]) NewControl(params S) *Message {
	return d.New(RoutingControl, params)
}

// ReadSendParams decodes the request parameters of m.
func (d *SyncMessage[S, R]) ReadSendParams(m *Message) (S, error) {
	var zero S
	if err := d.checkType(m); err != nil {
		return zero, err
	}
	it, err := syncPayload(m)
	if err != nil {
		return zero, fmt.Errorf("read %s request: %w", d.name, err)
	}
	params, err := readParams(d.send, it)
	if err != nil {
		return zero, fmt.Errorf("read %s request: %w", d.name, err)
	}
	return params, nil
}

// ReadReplyParams decodes the reply parameters of m. A reply flagged
// FlagReplyError yields ErrReplyError.
func (d *SyncMessage[S, R]) ReadReplyParams(m *Message) (R, error) {
	var zero R
	if err := d.checkType(m); err != nil {
		return zero, err
	}
	if m.IsReplyError() {
		return zero, fmt.Errorf("%s: %w", d.name, ErrReplyError)
	}
	it, err := syncPayload(m)
	if err != nil {
		return zero, fmt.Errorf("read %s reply: %w", d.name, err)
	}
	params, err := readParams(d.reply, it)
	if err != nil {
		return zero, fmt.Errorf("read %s reply: %w", d.name, err)
	}
	return params, nil
}

// WriteReplyParams appends params to a reply built by GenerateReply.
func (d *SyncMessage[S, R]) WriteReplyParams(reply *Message, params R) {
	d.reply.Write(reply, params)
	if reply.syncTrace != nil {
		reply.outputParams = d.reply.Log(params)
	}
}

// Dispatch decodes request, calls handler with the parameters and a
// zeroed reply value to fill in, and sends the reply through sender.
// If the request does not decode, a reply-error is sent instead so the
// caller unblocks, and the decode error is returned.
func (d *SyncMessage[S, R]) Dispatch(request *Message, sender Sender, handler func(S, *R)) error {
	params, err := d.ReadSendParams(request)
	if err != nil {
		return d.rejectRequest(request, sender, err)
	}
	reply, err := GenerateReply(request)
	if err != nil {
		return err
	}
	var out R
	handler(params, &out)
	d.WriteReplyParams(reply, out)
	return sender.Send(reply)
}

// DispatchDelayReply decodes request and hands handler the parameters
// and the unsent reply. The handler owns the reply: it must fill it
// with WriteReplyParams and send it exactly once, possibly after
// Dispatch has returned.
func (d *SyncMessage[S, R]) DispatchDelayReply(request *Message, sender Sender, handler func(S, *Message)) error {
	params, err := d.ReadSendParams(request)
	if err != nil {
		return d.rejectRequest(request, sender, err)
	}
	reply, err := GenerateReply(request)
	if err != nil {
		return err
	}
	handler(params, reply)
	return nil
}

func (d *SyncMessage[S, R]) rejectRequest(request *Message, sender Sender, decodeErr error) error {
	reply, err := GenerateReplyError(request)
	if err != nil {
		return fmt.Errorf("%w (no reply possible: %v)", decodeErr, err)
	}
	if err := sender.Send(reply); err != nil {
		return fmt.Errorf("%w (sending reply-error: %v)", decodeErr, err)
	}
	return decodeErr
}

// Call sends a request on channel, blocks until the reply arrives, and
// returns the decoded reply parameters.
func (d *SyncMessage[S, R]) Call(channel *SyncChannel, routingID int32, params S) (R, error) {
	var zero R
	reply, err := channel.SendSync(d.New(routingID, params))
	if err != nil {
		return zero, fmt.Errorf("%s: %w", d.name, err)
	}
	defer reply.CloseDescriptors()
	return d.ReadReplyParams(reply)
}

// LogParams implements Definition. Requests log their send parameters
// and replies their reply parameters.
func (d *SyncMessage[S, R]) LogParams(m *Message) string {
	if m.IsReply() {
		if m.IsReplyError() {
			return "<reply error>"
		}
		params, err := d.ReadReplyParams(m)
		if err != nil {
			return fmt.Sprintf("<undecodable: %v>", err)
		}
		return d.reply.Log(params)
	}
	params, err := d.ReadSendParams(m)
	if err != nil {
		return fmt.Sprintf("<undecodable: %v>", err)
	}
	return d.send.Log(params)
}
