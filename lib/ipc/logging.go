// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ipc

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bureau-foundation/courier/lib/clock"
)

// LogData is one trace record: a message as seen by the receiving
// side, or for a sync request, the whole round trip as seen by the
// side that replied. Times are microseconds since the Unix epoch; 0
// means the time is unknown (for example, the sender was not tracing).
type LogData struct {
	Channel   string
	RoutingID int32
	Type      uint32
	Flags     string
	Sent      int64
	Receive   int64
	Dispatch  int64
	Name      string
	Params    string
}

func microsBetween(from, to int64) time.Duration {
	if from == 0 || to == 0 || to < from {
		return 0
	}
	return time.Duration(to-from) * time.Microsecond
}

// Transit returns the time between send and receipt, or 0 if either
// is unknown. Clocks of the two processes are assumed comparable,
// which holds for processes on one host.
func (d LogData) Transit() time.Duration { return microsBetween(d.Sent, d.Receive) }

// Processing returns the time between receipt and the end of dispatch
// (or, for a traced sync request, the moment its reply was sent).
func (d LogData) Processing() time.Duration { return microsBetween(d.Receive, d.Dispatch) }

// LogDataTraits encodes a trace record field by field.
var LogDataTraits Traits[LogData] = Struct(writeLogData, readLogData, func(d LogData) string {
	return fmt.Sprintf("%s %s [%s]", d.Channel, d.Name, d.Params)
})

func writeLogData(m *Message, d LogData) {
	m.WriteString(d.Channel)
	m.WriteInt32(d.RoutingID)
	m.WriteUint32(d.Type)
	m.WriteString(d.Flags)
	m.WriteInt64(d.Sent)
	m.WriteInt64(d.Receive)
	m.WriteInt64(d.Dispatch)
	m.WriteString(d.Name)
	m.WriteString(d.Params)
}

func readLogData(it *Iterator) (LogData, error) {
	fields := it.Fields()
	d := LogData{
		Channel:   fields.NextString(),
		RoutingID: fields.NextInt32(),
		Type:      fields.NextUint32(),
		Flags:     fields.NextString(),
		Sent:      fields.NextInt64(),
		Receive:   fields.NextInt64(),
		Dispatch:  fields.NextInt64(),
		Name:      fields.NextString(),
		Params:    fields.NextString(),
	}
	if err := fields.Err(); err != nil {
		return LogData{}, err
	}
	return d, nil
}

// NewLogBatch builds a control message carrying trace records to the
// peer. Tracers never trace these messages themselves.
func NewLogBatch(records []LogData) *Message {
	m := NewMessage(RoutingControl, LoggingMessageType, 0)
	Slice(LogDataTraits).Write(m, records)
	return m
}

// ReadLogBatch decodes a message built by NewLogBatch.
func ReadLogBatch(m *Message) ([]LogData, error) {
	if m.Type() != LoggingMessageType {
		return nil, fmt.Errorf("log batch: message has type %s", TypeString(m.Type()))
	}
	records, err := Slice(LogDataTraits).Read(m.NewIterator())
	if err != nil {
		return nil, fmt.Errorf("log batch: %w", err)
	}
	return records, nil
}

// Tracer records send, receipt and dispatch times for every message on
// the channels it is installed on (see ChannelOptions.Tracer) and
// emits one LogData per message to the debug log and an optional sink.
//
// Senders stamp the send time into the message (FlagHasSentTime); the
// receiving channel strips it before dispatch. A traced sync request
// is not emitted when its handler returns: the record travels with the
// reply and is emitted when the reply is sent, with the reply
// parameters appended, so one record covers the round trip.
type Tracer struct {
	clock    clock.Clock
	registry *Registry
	logger   *slog.Logger

	mutex sync.Mutex
	sink  func(LogData)
}

// NewTracer creates a tracer. registry names messages and renders
// their parameters; it may be nil. A nil logger uses slog.Default().
func NewTracer(clk clock.Clock, registry *Registry, logger *slog.Logger) *Tracer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracer{clock: clk, registry: registry, logger: logger}
}

// SetSink installs a function that receives every record, or removes
// it when sink is nil. The sink runs on the loop goroutine of the
// channel that produced the record.
func (t *Tracer) SetSink(sink func(LogData)) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.sink = sink
}

func (t *Tracer) now() int64 { return t.clock.Now().UnixMicro() }

func traced(m *Message) bool {
	return m.Type() != HelloMessageType && m.Type() != LoggingMessageType
}

// sendOverhead returns the bytes onSend will add to m. A nil tracer
// adds none.
func (t *Tracer) sendOverhead(m *Message) int {
	if t == nil || !traced(m) || m.Flags()&FlagHasSentTime != 0 {
		return 0
	}
	return sentTimeSize
}

// onSend runs as a message is queued.
func (t *Tracer) onSend(channel string, m *Message) {
	if !traced(m) {
		return
	}
	if m.syncTrace != nil {
		record := *m.syncTrace
		m.syncTrace = nil
		record.Channel = channel
		if record.Params != "" && m.outputParams != "" {
			record.Params += ", "
		}
		record.Params += m.outputParams
		record.Flags += " DR"
		record.Dispatch = t.now()
		t.emit(record)
	}
	m.stampSentTime(t.now())
}

// onReceive runs after framing and before the listener sees m.
func (t *Tracer) onReceive(channel string, m *Message) {
	if !traced(m) {
		return
	}
	m.receiveTime = t.now()
	m.trace = &LogData{
		Channel:   channel,
		RoutingID: m.RoutingID(),
		Type:      m.Type(),
		Flags:     m.Flags().String(),
		Sent:      m.sentTime,
		Receive:   m.receiveTime,
		Name:      t.registry.Name(m.Type()),
		Params:    t.registry.LogParams(m),
	}
}

// onDispatched runs after the listener returns.
func (t *Tracer) onDispatched(m *Message) {
	if m.trace == nil || m.traceClaimed {
		return
	}
	record := *m.trace
	record.Dispatch = t.now()
	t.emit(record)
}

func (t *Tracer) emit(record LogData) {
	t.logger.Debug("ipc message",
		"channel", record.Channel,
		"name", record.Name,
		"type", TypeString(record.Type),
		"routing_id", record.RoutingID,
		"flags", record.Flags,
		"params", record.Params,
		"transit", record.Transit(),
		"processing", record.Processing(),
	)
	t.mutex.Lock()
	sink := t.sink
	t.mutex.Unlock()
	if sink != nil {
		sink(record)
	}
}
