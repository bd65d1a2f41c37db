// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ipc

import (
	"encoding/binary"
	"fmt"
	"math"
	"unicode/utf16"
)

// Iterator reads payload fields in the order they were written. A
// failed read leaves the iterator where it was, and descriptors taken
// by the failed read go back to the message.
type Iterator struct {
	message *Message
	payload []byte
	offset  int
	// taken lists the descriptor indices claimed through this
	// iterator, in order.
	taken []int
}

// checkpoint is a read position that rewind returns to.
type checkpoint struct {
	offset int
	taken  int
}

func (it *Iterator) mark() checkpoint {
	return checkpoint{offset: it.offset, taken: len(it.taken)}
}

// rewind moves back to c and returns ownership of every descriptor
// taken since c to the message.
func (it *Iterator) rewind(c checkpoint) {
	it.offset = c.offset
	for _, index := range it.taken[c.taken:] {
		it.message.returnDescriptor(index)
	}
	it.taken = it.taken[:c.taken]
}

// takeDescriptor claims descriptor index from the message.
func (it *Iterator) takeDescriptor(index int) (int, error) {
	fd, err := it.message.takeDescriptor(index)
	if err != nil {
		return -1, err
	}
	it.taken = append(it.taken, index)
	return fd, nil
}

// readParams reads a complete parameter value. On failure nothing is
// consumed, even if t itself does not rewind.
func readParams[T any](t Traits[T], it *Iterator) (T, error) {
	start := it.mark()
	value, err := t.Read(it)
	if err != nil {
		it.rewind(start)
		var zero T
		return zero, err
	}
	return value, nil
}

// Message returns the message being read.
func (it *Iterator) Message() *Message { return it.message }

// Remaining returns the number of unread payload bytes.
func (it *Iterator) Remaining() int { return len(it.payload) - it.offset }

// Offset returns the read position within the payload.
func (it *Iterator) Offset() int { return it.offset }

// slot returns the next length bytes and advances past their padding.
func (it *Iterator) slot(length int) ([]byte, error) {
	padded := alignedLength(length)
	if length < 0 || padded > it.Remaining() {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrTruncated, padded, it.offset, it.Remaining())
	}
	data := it.payload[it.offset : it.offset+length]
	it.offset += padded
	return data, nil
}

// ReadUint32 reads a 4-byte unsigned integer.
func (it *Iterator) ReadUint32() (uint32, error) {
	data, err := it.slot(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(data), nil
}

// ReadInt32 reads a 4-byte signed integer.
func (it *Iterator) ReadInt32() (int32, error) {
	value, err := it.ReadUint32()
	return int32(value), err
}

// ReadUint64 reads an 8-byte unsigned integer.
func (it *Iterator) ReadUint64() (uint64, error) {
	data, err := it.slot(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(data), nil
}

// ReadInt64 reads an 8-byte signed integer.
func (it *Iterator) ReadInt64() (int64, error) {
	value, err := it.ReadUint64()
	return int64(value), err
}

// ReadBool reads a boolean slot. Values other than 0 and 1 are
// malformed.
func (it *Iterator) ReadBool() (bool, error) {
	start := it.mark()
	value, err := it.ReadUint32()
	if err != nil {
		return false, err
	}
	switch value {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		it.rewind(start)
		return false, fmt.Errorf("%w: bool slot holds %d", ErrMalformed, value)
	}
}

// ReadLength reads an element or byte count and rejects negative
// values.
func (it *Iterator) ReadLength() (int, error) {
	start := it.mark()
	value, err := it.ReadInt32()
	if err != nil {
		return 0, err
	}
	if value < 0 {
		it.rewind(start)
		return 0, fmt.Errorf("%w: negative length %d", ErrMalformed, value)
	}
	return int(value), nil
}

// ReadData reads a length-prefixed blob. The returned slice aliases
// the message; copy it to keep it beyond the message's lifetime.
func (it *Iterator) ReadData() ([]byte, error) {
	start := it.mark()
	length, err := it.ReadLength()
	if err != nil {
		return nil, err
	}
	data, err := it.slot(length)
	if err != nil {
		it.rewind(start)
		return nil, err
	}
	return data, nil
}

// ReadString reads a length-prefixed UTF-8 string.
func (it *Iterator) ReadString() (string, error) {
	data, err := it.ReadData()
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ReadString16 reads a UTF-16 string written by WriteString16.
func (it *Iterator) ReadString16() (string, error) {
	start := it.mark()
	count, err := it.ReadLength()
	if err != nil {
		return "", err
	}
	if count > it.Remaining()/2 {
		it.rewind(start)
		return "", fmt.Errorf("%w: %d code units, %d bytes remain", ErrTruncated, count, it.Remaining())
	}
	data, err := it.slot(2 * count)
	if err != nil {
		it.rewind(start)
		return "", err
	}
	units := make([]uint16, count)
	for i := range units {
		units[i] = binary.LittleEndian.Uint16(data[2*i:])
	}
	return string(utf16.Decode(units)), nil
}

// ReadFloat32 reads a float written by WriteFloat32.
func (it *Iterator) ReadFloat32() (float32, error) {
	data, err := it.readFixedData(4)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(data)), nil
}

// ReadFloat64 reads a float written by WriteFloat64.
func (it *Iterator) ReadFloat64() (float64, error) {
	data, err := it.readFixedData(8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(data)), nil
}

func (it *Iterator) readFixedData(size int) ([]byte, error) {
	start := it.mark()
	data, err := it.ReadData()
	if err != nil {
		return nil, err
	}
	if len(data) != size {
		it.rewind(start)
		return nil, fmt.Errorf("%w: %d-byte blob where %d expected", ErrMalformed, len(data), size)
	}
	return data, nil
}

// MessageIterator reads fields without per-call error checks. The first
// failure is kept and later reads return zero values; check Err once
// after the last read.
//
//	fields := ipc.NewMessageIterator(message)
//	id := fields.NextInt32()
//	name := fields.NextString()
//	if err := fields.Err(); err != nil { ... }
type MessageIterator struct {
	iterator *Iterator
	err      error
}

// NewMessageIterator returns a MessageIterator at the start of the
// payload.
func NewMessageIterator(m *Message) *MessageIterator {
	return &MessageIterator{iterator: m.NewIterator()}
}

// Fields returns a MessageIterator that continues from the iterator's
// position and advances it. Struct read functions use it to read
// several fields with one error check.
func (it *Iterator) Fields() *MessageIterator {
	return &MessageIterator{iterator: it}
}

// Err returns the first read error, if any.
func (mi *MessageIterator) Err() error { return mi.err }

func next[T any](mi *MessageIterator, read func() (T, error)) T {
	var zero T
	if mi.err != nil {
		return zero
	}
	value, err := read()
	if err != nil {
		mi.err = err
		return zero
	}
	return value
}

func (mi *MessageIterator) NextBool() bool { return next(mi, mi.iterator.ReadBool) }
func (mi *MessageIterator) NextInt32() int32 { return next(mi, mi.iterator.ReadInt32) }
func (mi *MessageIterator) NextUint32() uint32 { return next(mi, mi.iterator.ReadUint32) }
func (mi *MessageIterator) NextInt64() int64 { return next(mi, mi.iterator.ReadInt64) }
func (mi *MessageIterator) NextString() string { return next(mi, mi.iterator.ReadString) }
func (mi *MessageIterator) NextString16() string { return next(mi, mi.iterator.ReadString16) }
func (mi *MessageIterator) NextData() []byte { return next(mi, mi.iterator.ReadData) }
