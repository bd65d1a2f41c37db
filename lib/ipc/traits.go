// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ipc

import (
	"fmt"
	"strconv"
	"strings"
)

// Traits encodes, decodes and logs values of one type.
//
// Write appends the encoding of value to m and never reads from it.
// Read decodes one value at the iterator position and returns it; on
// error the value is the zero value and no caller state has changed.
// Log renders value for traces and never fails.
//
// Implementations for application types live next to the type. They
// are built from the Message writers and Iterator readers, or by
// composing the traits in this package.
type Traits[T any] interface {
	Write(m *Message, value T)
	Read(it *Iterator) (T, error)
	Log(value T) string
}

// Primitive traits.
var (
	Bool     Traits[bool]    = boolTraits{}
	Int32    Traits[int32]   = int32Traits{}
	Uint32   Traits[uint32]  = uint32Traits{}
	Int64    Traits[int64]   = int64Traits{}
	Uint64   Traits[uint64]  = uint64Traits{}
	Float32  Traits[float32] = float32Traits{}
	Float64  Traits[float64] = float64Traits{}
	String   Traits[string]  = stringTraits{}
	String16 Traits[string]  = string16Traits{}
	Bytes    Traits[[]byte]  = bytesTraits{}
)

type boolTraits struct{}

func (boolTraits) Write(m *Message, value bool) { m.WriteBool(value) }
func (boolTraits) Read(it *Iterator) (bool, error) { return it.ReadBool() }
func (boolTraits) Log(value bool) string { return strconv.FormatBool(value) }

type int32Traits struct{}

func (int32Traits) Write(m *Message, value int32) { m.WriteInt32(value) }
func (int32Traits) Read(it *Iterator) (int32, error) { return it.ReadInt32() }
func (int32Traits) Log(value int32) string { return strconv.FormatInt(int64(value), 10) }

type uint32Traits struct{}

func (uint32Traits) Write(m *Message, value uint32) { m.WriteUint32(value) }
func (uint32Traits) Read(it *Iterator) (uint32, error) { return it.ReadUint32() }
func (uint32Traits) Log(value uint32) string { return strconv.FormatUint(uint64(value), 10) }

type int64Traits struct{}

func (int64Traits) Write(m *Message, value int64) { m.WriteInt64(value) }
func (int64Traits) Read(it *Iterator) (int64, error) { return it.ReadInt64() }
func (int64Traits) Log(value int64) string { return strconv.FormatInt(value, 10) }

type uint64Traits struct{}

func (uint64Traits) Write(m *Message, value uint64) { m.WriteUint64(value) }
func (uint64Traits) Read(it *Iterator) (uint64, error) { return it.ReadUint64() }
func (uint64Traits) Log(value uint64) string { return strconv.FormatUint(value, 10) }

// Floats are not sanitized. NaN and infinities cross the wire as-is;
// receivers validate ranges themselves.
type float32Traits struct{}

func (float32Traits) Write(m *Message, value float32) { m.WriteFloat32(value) }
func (float32Traits) Read(it *Iterator) (float32, error) { return it.ReadFloat32() }
func (float32Traits) Log(value float32) string { return strconv.FormatFloat(float64(value), 'e', -1, 32) }

type float64Traits struct{}

func (float64Traits) Write(m *Message, value float64) { m.WriteFloat64(value) }
func (float64Traits) Read(it *Iterator) (float64, error) { return it.ReadFloat64() }
func (float64Traits) Log(value float64) string { return strconv.FormatFloat(value, 'e', -1, 64) }

type stringTraits struct{}

func (stringTraits) Write(m *Message, value string) { m.WriteString(value) }
func (stringTraits) Read(it *Iterator) (string, error) { return it.ReadString() }
func (stringTraits) Log(value string) string { return value }

type string16Traits struct{}

func (string16Traits) Write(m *Message, value string) { m.WriteString16(value) }
func (string16Traits) Read(it *Iterator) (string, error) { return it.ReadString16() }
func (string16Traits) Log(value string) string { return value }

type bytesTraits struct{}

func (bytesTraits) Write(m *Message, value []byte) { m.WriteData(value) }

func (bytesTraits) Read(it *Iterator) ([]byte, error) {
	data, err := it.ReadData()
	if err != nil {
		return nil, err
	}
	return append([]byte{}, data...), nil
}

func (bytesTraits) Log(value []byte) string { return LogBytes(value) }

// maxLoggedBytes caps how much of a blob LogBytes renders.
const maxLoggedBytes = 100

// LogBytes renders binary data for traces: printable ASCII as-is,
// other bytes as [XX], truncated after maxLoggedBytes.
func LogBytes(data []byte) string {
	var builder strings.Builder
	for _, b := range data[:min(len(data), maxLoggedBytes)] {
		if b >= 0x20 && b < 0x7f {
			builder.WriteByte(b)
		} else {
			fmt.Fprintf(&builder, "[%02X]", b)
		}
	}
	if len(data) > maxLoggedBytes {
		fmt.Fprintf(&builder, " and %d more bytes", len(data)-maxLoggedBytes)
	}
	return builder.String()
}

// Enum returns traits for an int32-backed enumeration whose valid
// values are 0 through limit-1. Values outside that range are
// rejected on read. name renders a value for logs; nil logs the
// number.
func Enum[E ~int32](limit E, name func(E) string) Traits[E] {
	return enumTraits[E]{limit: limit, name: name}
}

type enumTraits[E ~int32] struct {
	limit E
	name  func(E) string
}

func (t enumTraits[E]) Write(m *Message, value E) { m.WriteInt32(int32(value)) }

func (t enumTraits[E]) Read(it *Iterator) (E, error) {
	start := it.mark()
	raw, err := it.ReadInt32()
	if err != nil {
		return 0, err
	}
	if raw < 0 || E(raw) >= t.limit {
		it.rewind(start)
		return 0, fmt.Errorf("%w: enum value %d outside [0, %d)", ErrMalformed, raw, int32(t.limit))
	}
	return E(raw), nil
}

func (t enumTraits[E]) Log(value E) string {
	if t.name != nil {
		return t.name(value)
	}
	return strconv.FormatInt(int64(value), 10)
}

// Struct builds traits for a struct type from its write and read
// functions, the usual shape for hand-written parameter structs.
// Read functions should fail on the first field error; Struct restores
// the iterator position so a failed read consumes nothing.
func Struct[T any](write func(*Message, T), read func(*Iterator) (T, error), log func(T) string) Traits[T] {
	return structTraits[T]{write: write, read: read, log: log}
}

type structTraits[T any] struct {
	write func(*Message, T)
	read  func(*Iterator) (T, error)
	log   func(T) string
}

func (t structTraits[T]) Write(m *Message, value T) { t.write(m, value) }

func (t structTraits[T]) Read(it *Iterator) (T, error) {
	start := it.mark()
	value, err := t.read(it)
	if err != nil {
		it.rewind(start)
		var zero T
		return zero, err
	}
	return value, nil
}

func (t structTraits[T]) Log(value T) string {
	if t.log == nil {
		return fmt.Sprintf("%+v", value)
	}
	return t.log(value)
}
