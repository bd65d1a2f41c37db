// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ipc

import "fmt"

// Sender transmits messages. Channel and SyncChannel implement it.
type Sender interface {
	Send(m *Message) error
}

type messageInfo struct {
	messageType uint32
	name        string
}

// Type returns the wire type id.
func (i messageInfo) Type() uint32 { return i.messageType }

// Name returns the declared message name.
func (i messageInfo) Name() string { return i.name }

func (i messageInfo) checkType(m *Message) error {
	if m.Type() != i.messageType {
		return fmt.Errorf("%s: message has type %s, want %s", i.name, TypeString(m.Type()), TypeString(i.messageType))
	}
	return nil
}

// AsyncMessage defines a one-way message carrying parameters of type P.
// P is usually a tuple from lib/tuple with matching Tuple traits, or a
// single parameter struct.
//
//	var Echo = ipc.NewAsyncMessage(ipc.TestStart, 2, "TestMsg_Echo",
//		ipc.Tuple2Traits(ipc.Int32, ipc.String))
//
//	channel.Send(Echo.New(routingID, tuple.Make2(int32(42), "hello")))
//
//	err := Echo.Dispatch(message, tuple.Apply2(func(id int32, text string) { ... }))
type AsyncMessage[P any] struct {
	messageInfo
	params Traits[P]
}

// NewAsyncMessage defines an async message type with the given
// family, ordinal and name.
func NewAsyncMessage[P any](start MessageStart, ordinal uint16, name string, params Traits[P]) *AsyncMessage[P] {
	return &AsyncMessage[P]{
		messageInfo: messageInfo{messageType: MessageType(start, ordinal), name: name},
		params:      params,
	}
}

// Params returns the parameter traits.
func (d *AsyncMessage[P]) Params() Traits[P] { return d.params }

// New builds a message addressed to routingID.
func (d *AsyncMessage[P]) New(routingID int32, params P) *Message {
	m := NewMessage(routingID, d.messageType, 0)
	d.params.Write(m, params)
	return m
}

// NewControl builds a channel-level control message.
func (d *AsyncMessage[P]) NewControl(params P) *Message {
	return d.New(RoutingControl, params)
}

// Read decodes the parameters of m.
func (d *AsyncMessage[P]) Read(m *Message) (P, error) {
	var zero P
	if err := d.checkType(m); err != nil {
		return zero, err
	}
	params, err := readParams(d.params, m.NewIterator())
	if err != nil {
		return zero, fmt.Errorf("read %s: %w", d.name, err)
	}
	return params, nil
}

// Dispatch decodes m and calls handler with its parameters. A decode
// error is returned without calling handler.
func (d *AsyncMessage[P]) Dispatch(m *Message, handler func(P)) error {
	params, err := d.Read(m)
	if err != nil {
		return err
	}
	handler(params)
	return nil
}

// DispatchWithMessage is Dispatch for handlers that also need the
// message header, such as the routing id.
func (d *AsyncMessage[P]) DispatchWithMessage(m *Message, handler func(*Message, P)) error {
	params, err := d.Read(m)
	if err != nil {
		return err
	}
	handler(m, params)
	return nil
}

// LogParams implements Definition.
func (d *AsyncMessage[P]) LogParams(m *Message) string {
	params, err := d.Read(m)
	if err != nil {
		return fmt.Sprintf("<undecodable: %v>", err)
	}
	return d.params.Log(params)
}
