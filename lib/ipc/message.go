// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ipc

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"unicode/utf16"

	"golang.org/x/sys/unix"
)

// HeaderSize is the length of the fixed message header.
const HeaderSize = 20

// Header field offsets. All fields are little-endian 32-bit values.
const (
	offsetPayloadSize    = 0
	offsetRoutingID      = 4
	offsetType           = 8
	offsetFlags          = 12
	offsetNumDescriptors = 16
)

// slotAlignment is the payload alignment. Every write is padded to a
// multiple of it.
const slotAlignment = 4

// Routing sentinels.
const (
	// RoutingNone marks messages addressed to no endpoint, such as the
	// Hello handshake.
	RoutingNone int32 = -2

	// RoutingControl marks channel-level control messages that are not
	// addressed to a routed endpoint.
	RoutingControl int32 = math.MaxInt32
)

// Reserved message types. Both sit above every family block.
const (
	HelloMessageType   uint32 = 0xFFFFFFFF
	LoggingMessageType uint32 = 0xFFFFFFF1
)

// Flags are the header flag bits.
type Flags uint32

const (
	FlagSync Flags = 1 << iota
	FlagReply
	FlagReplyError
	// FlagUnblock marks a message that must be delivered even while
	// the receiver is blocked in a sync call.
	FlagUnblock
	FlagHasDescriptors
	// FlagHasSentTime marks a payload whose last 8 bytes are the
	// sender's send timestamp, appended by a Tracer.
	FlagHasSentTime
)

// String renders flags as the compact letters used in trace records:
// S sync, R reply, E reply error, U unblock, D descriptors, T timed.
func (f Flags) String() string {
	var builder strings.Builder
	for _, flag := range []struct {
		bit    Flags
		letter byte
	}{
		{FlagSync, 'S'},
		{FlagReply, 'R'},
		{FlagReplyError, 'E'},
		{FlagUnblock, 'U'},
		{FlagHasDescriptors, 'D'},
		{FlagHasSentTime, 'T'},
	} {
		if f&flag.bit != 0 {
			builder.WriteByte(flag.letter)
		}
	}
	if builder.Len() == 0 {
		return "-"
	}
	return builder.String()
}

// Message is one framed IPC message: the header followed by the
// payload, held in a single buffer.
//
// Payload construction is append-only. Writes that cannot be
// represented (a descriptor beyond the per-message limit, a value the
// CBOR encoder rejects) record a sticky error reported by Err; a
// channel refuses to send a message whose Err is non-nil.
type Message struct {
	buffer      []byte
	descriptors []descriptorEntry
	err         error

	// Trace state, populated only when a Tracer is installed.
	sentTime     int64
	receiveTime  int64
	trace        *LogData
	traceClaimed bool
	syncTrace    *LogData
	outputParams string
}

// descriptorEntry is one file descriptor attached to a message. owned
// entries are closed by CloseDescriptors; reading a descriptor
// parameter transfers ownership to the reader.
type descriptorEntry struct {
	fd    int
	owned bool
}

// NewMessage creates a message with an empty payload.
func NewMessage(routingID int32, messageType uint32, flags Flags) *Message {
	buffer := make([]byte, HeaderSize, HeaderSize+64)
	binary.LittleEndian.PutUint32(buffer[offsetRoutingID:], uint32(routingID))
	binary.LittleEndian.PutUint32(buffer[offsetType:], messageType)
	binary.LittleEndian.PutUint32(buffer[offsetFlags:], uint32(flags))
	return &Message{buffer: buffer}
}

// ParseMessage copies one complete message out of data. data must hold
// exactly one message; descriptors announced by the header are not
// available through this path, so a non-zero descriptor count is
// rejected.
func ParseMessage(data []byte) (*Message, error) {
	size := FindNext(data)
	if size == 0 {
		return nil, fmt.Errorf("parse message: %w: have %d bytes, header needs %d", ErrTruncated, len(data), claimedOrHeader(data))
	}
	if size != len(data) {
		return nil, fmt.Errorf("parse message: %w: %d trailing bytes after message", ErrMalformed, len(data)-size)
	}
	message := messageFromFrame(data)
	if count := message.headerDescriptorCount(); count != 0 {
		return nil, fmt.Errorf("parse message: %w: header announces %d descriptors", ErrMalformed, count)
	}
	if err := message.stripSentTime(); err != nil {
		return nil, fmt.Errorf("parse message: %w", err)
	}
	return message, nil
}

func claimedOrHeader(data []byte) int {
	if claimed, ok := ClaimedSize(data); ok {
		return claimed
	}
	return HeaderSize
}

// messageFromFrame copies a complete frame into a new Message.
func messageFromFrame(frame []byte) *Message {
	buffer := make([]byte, len(frame))
	copy(buffer, frame)
	return &Message{buffer: buffer}
}

// FindNext returns the length of the complete message at the start of
// data, or 0 if data does not yet hold one. It reads only the header.
func FindNext(data []byte) int {
	size, ok := ClaimedSize(data)
	if !ok || size > len(data) {
		return 0
	}
	return size
}

// ClaimedSize returns the total message length announced by the header
// at the start of data. ok is false if data is shorter than a header.
func ClaimedSize(data []byte) (size int, ok bool) {
	if len(data) < HeaderSize {
		return 0, false
	}
	payload := binary.LittleEndian.Uint32(data[offsetPayloadSize:])
	return HeaderSize + int(payload), true
}

// RoutingID returns the header routing id.
func (m *Message) RoutingID() int32 {
	return int32(binary.LittleEndian.Uint32(m.buffer[offsetRoutingID:]))
}

// Type returns the header message type.
func (m *Message) Type() uint32 {
	return binary.LittleEndian.Uint32(m.buffer[offsetType:])
}

// Flags returns the header flags.
func (m *Message) Flags() Flags {
	return Flags(binary.LittleEndian.Uint32(m.buffer[offsetFlags:]))
}

// SetFlags ORs flags into the header.
func (m *Message) SetFlags(flags Flags) {
	m.putFlags(m.Flags() | flags)
}

func (m *Message) clearFlags(flags Flags) {
	m.putFlags(m.Flags() &^ flags)
}

func (m *Message) putFlags(flags Flags) {
	binary.LittleEndian.PutUint32(m.buffer[offsetFlags:], uint32(flags))
}

func (m *Message) IsSync() bool { return m.Flags()&FlagSync != 0 }
func (m *Message) IsReply() bool { return m.Flags()&FlagReply != 0 }
func (m *Message) IsReplyError() bool { return m.Flags()&FlagReplyError != 0 }

// ShouldUnblock reports whether the message is delivered to a receiver
// that is blocked in a sync call.
func (m *Message) ShouldUnblock() bool { return m.Flags()&FlagUnblock != 0 }

// Size returns the total encoded length, header included.
func (m *Message) Size() int { return len(m.buffer) }

// PayloadSize returns the payload length.
func (m *Message) PayloadSize() int { return len(m.buffer) - HeaderSize }

// Payload returns the payload bytes. The slice aliases the message.
func (m *Message) Payload() []byte { return m.buffer[HeaderSize:] }

// Bytes returns the encoded message. The slice aliases the message.
func (m *Message) Bytes() []byte { return m.buffer }

// SentTime returns the sender's timestamp in microseconds since the
// Unix epoch, or 0 if the sender did not trace the message.
func (m *Message) SentTime() int64 { return m.sentTime }

// Err returns the first error recorded while building the payload.
func (m *Message) Err() error { return m.err }

func (m *Message) fail(err error) {
	if m.err == nil {
		m.err = err
	}
}

// String summarizes the header for log output.
func (m *Message) String() string {
	return fmt.Sprintf("type=%s routing=%d flags=%s size=%d", TypeString(m.Type()), m.RoutingID(), m.Flags(), m.Size())
}

// NewIterator returns an iterator positioned at the start of the
// payload.
func (m *Message) NewIterator() *Iterator {
	return &Iterator{message: m, payload: m.Payload()}
}

// Payload writers. Every writer pads to slotAlignment and updates the
// header payload size.

func (m *Message) appendSlot(data []byte) {
	m.buffer = append(m.buffer, data...)
	if padding := alignedLength(len(data)) - len(data); padding > 0 {
		m.buffer = append(m.buffer, make([]byte, padding)...)
	}
	m.syncPayloadSize()
}

func (m *Message) syncPayloadSize() {
	binary.LittleEndian.PutUint32(m.buffer[offsetPayloadSize:], uint32(len(m.buffer)-HeaderSize))
}

func alignedLength(length int) int {
	return (length + slotAlignment - 1) &^ (slotAlignment - 1)
}

// WriteBool appends a boolean as a 4-byte slot holding 0 or 1.
func (m *Message) WriteBool(value bool) {
	if value {
		m.WriteInt32(1)
	} else {
		m.WriteInt32(0)
	}
}

// WriteInt32 appends a 4-byte signed integer.
func (m *Message) WriteInt32(value int32) {
	m.WriteUint32(uint32(value))
}

// WriteUint32 appends a 4-byte unsigned integer.
func (m *Message) WriteUint32(value uint32) {
	m.buffer = binary.LittleEndian.AppendUint32(m.buffer, value)
	m.syncPayloadSize()
}

// WriteInt64 appends an 8-byte signed integer.
func (m *Message) WriteInt64(value int64) {
	m.WriteUint64(uint64(value))
}

// WriteUint64 appends an 8-byte unsigned integer.
func (m *Message) WriteUint64(value uint64) {
	m.buffer = binary.LittleEndian.AppendUint64(m.buffer, value)
	m.syncPayloadSize()
}

// WriteData appends a length-prefixed byte blob.
func (m *Message) WriteData(data []byte) {
	if len(data) > math.MaxInt32 {
		m.fail(fmt.Errorf("write data: %w: %d bytes", ErrMessageTooLarge, len(data)))
		return
	}
	m.WriteInt32(int32(len(data)))
	m.appendSlot(data)
}

// WriteString appends a length-prefixed UTF-8 string.
func (m *Message) WriteString(value string) {
	if len(value) > math.MaxInt32 {
		m.fail(fmt.Errorf("write string: %w: %d bytes", ErrMessageTooLarge, len(value)))
		return
	}
	m.WriteInt32(int32(len(value)))
	m.appendSlot([]byte(value))
}

// WriteString16 appends a string as UTF-16 code units, prefixed by the
// unit count. Invalid UTF-8 is replaced with U+FFFD.
func (m *Message) WriteString16(value string) {
	units := utf16.Encode([]rune(value))
	m.WriteInt32(int32(len(units)))
	encoded := make([]byte, 2*len(units))
	for i, unit := range units {
		binary.LittleEndian.PutUint16(encoded[2*i:], unit)
	}
	m.appendSlot(encoded)
}

// WriteFloat32 appends the IEEE 754 image of value as a data blob.
func (m *Message) WriteFloat32(value float32) {
	m.WriteData(binary.LittleEndian.AppendUint32(nil, math.Float32bits(value)))
}

// WriteFloat64 appends the IEEE 754 image of value as a data blob.
func (m *Message) WriteFloat64(value float64) {
	m.WriteData(binary.LittleEndian.AppendUint64(nil, math.Float64bits(value)))
}

// Descriptors.

func (m *Message) headerDescriptorCount() int {
	return int(binary.LittleEndian.Uint32(m.buffer[offsetNumDescriptors:]))
}

// addDescriptor attaches fd and returns its index within the message.
func (m *Message) addDescriptor(fd int, owned bool) (int, error) {
	if len(m.descriptors) >= MaxDescriptorsPerMessage {
		return 0, fmt.Errorf("attach descriptor: message already carries %d descriptors", len(m.descriptors))
	}
	m.descriptors = append(m.descriptors, descriptorEntry{fd: fd, owned: owned})
	binary.LittleEndian.PutUint32(m.buffer[offsetNumDescriptors:], uint32(len(m.descriptors)))
	m.SetFlags(FlagHasDescriptors)
	return len(m.descriptors) - 1, nil
}

// attachReceived gives the message ownership of descriptors received
// alongside its bytes.
func (m *Message) attachReceived(fds []int) {
	m.descriptors = make([]descriptorEntry, len(fds))
	for i, fd := range fds {
		m.descriptors[i] = descriptorEntry{fd: fd, owned: true}
	}
}

// takeDescriptor transfers ownership of descriptor index to the caller.
func (m *Message) takeDescriptor(index int) (int, error) {
	if index < 0 || index >= len(m.descriptors) {
		return -1, fmt.Errorf("%w: descriptor index %d of %d", ErrMalformed, index, len(m.descriptors))
	}
	entry := &m.descriptors[index]
	if !entry.owned {
		return -1, fmt.Errorf("%w: descriptor %d already taken", ErrMalformed, index)
	}
	entry.owned = false
	return entry.fd, nil
}

// returnDescriptor gives back a descriptor taken by a read that later
// failed.
func (m *Message) returnDescriptor(index int) {
	m.descriptors[index].owned = true
}

// DescriptorCount returns the number of descriptors attached to the
// message.
func (m *Message) DescriptorCount() int { return len(m.descriptors) }

func (m *Message) descriptorFDs() []int {
	fds := make([]int, len(m.descriptors))
	for i, entry := range m.descriptors {
		fds[i] = entry.fd
	}
	return fds
}

// CloseDescriptors closes every descriptor the message still owns. On
// the sending side these are descriptors written with AutoClose; on
// the receiving side, descriptors no handler took.
func (m *Message) CloseDescriptors() {
	for i := range m.descriptors {
		if m.descriptors[i].owned {
			_ = unix.Close(m.descriptors[i].fd)
			m.descriptors[i].owned = false
		}
	}
}

// Retain returns a copy of the message that takes over ownership of
// its descriptors, for handlers that keep a received message beyond
// the dispatch call.
func (m *Message) Retain() *Message {
	retained := &Message{
		buffer:       append([]byte(nil), m.buffer...),
		descriptors:  append([]descriptorEntry(nil), m.descriptors...),
		err:          m.err,
		sentTime:     m.sentTime,
		receiveTime:  m.receiveTime,
		trace:        m.trace,
		traceClaimed: m.traceClaimed,
	}
	for i := range m.descriptors {
		m.descriptors[i].owned = false
	}
	return retained
}

// Sent-time trailer.

// sentTimeSize is the length of the trailer stampSentTime appends.
const sentTimeSize = 8

func (m *Message) stampSentTime(micros int64) {
	if m.Flags()&FlagHasSentTime != 0 {
		return
	}
	m.WriteInt64(micros)
	m.SetFlags(FlagHasSentTime)
}

// stripSentTime removes the sent-time trailer, if any, so parameter
// decoding sees the payload as the sender built it.
func (m *Message) stripSentTime() error {
	if m.Flags()&FlagHasSentTime == 0 {
		return nil
	}
	if m.PayloadSize() < sentTimeSize {
		return fmt.Errorf("%w: sent-time flag on %d-byte payload", ErrProtocol, m.PayloadSize())
	}
	end := len(m.buffer) - sentTimeSize
	m.sentTime = int64(binary.LittleEndian.Uint64(m.buffer[end:]))
	m.buffer = m.buffer[:end]
	m.syncPayloadSize()
	m.clearFlags(FlagHasSentTime)
	return nil
}

// logView returns a message sharing m's bytes whose descriptor table
// is a private copy, so decoding it for logs leaves m's descriptor
// ownership untouched.
func (m *Message) logView() *Message {
	return &Message{
		buffer:      m.buffer,
		descriptors: append([]descriptorEntry(nil), m.descriptors...),
	}
}
