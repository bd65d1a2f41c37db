// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ipc

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/bureau-foundation/courier/lib/codec"
	"github.com/bureau-foundation/courier/lib/compress"
)

// Time encodes a time.Time as int64 microseconds since the Unix epoch.
// Decoded times are in UTC; sub-microsecond precision and the monotonic
// reading are dropped.
var Time Traits[time.Time] = timeTraits{}

type timeTraits struct{}

func (timeTraits) Write(m *Message, value time.Time) { m.WriteInt64(value.UnixMicro()) }

func (timeTraits) Read(it *Iterator) (time.Time, error) {
	micros, err := it.ReadInt64()
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMicro(micros).UTC(), nil
}

func (timeTraits) Log(value time.Time) string { return value.UTC().Format(time.RFC3339Nano) }

// Duration encodes a time.Duration as int64 nanoseconds.
var Duration Traits[time.Duration] = durationTraits{}

type durationTraits struct{}

func (durationTraits) Write(m *Message, value time.Duration) { m.WriteInt64(int64(value)) }

func (durationTraits) Read(it *Iterator) (time.Duration, error) {
	nanos, err := it.ReadInt64()
	return time.Duration(nanos), err
}

func (durationTraits) Log(value time.Duration) string { return value.String() }

// FilePath encodes a filesystem path as a string. Reads reject paths
// containing NUL, which no file system accepts.
var FilePath Traits[string] = filePathTraits{}

type filePathTraits struct{}

func (filePathTraits) Write(m *Message, value string) { m.WriteString(value) }

func (filePathTraits) Read(it *Iterator) (string, error) {
	start := it.mark()
	path, err := it.ReadString()
	if err != nil {
		return "", err
	}
	for i := range len(path) {
		if path[i] == 0 {
			it.rewind(start)
			return "", fmt.Errorf("%w: path contains NUL at byte %d", ErrMalformed, i)
		}
	}
	return path, nil
}

func (filePathTraits) Log(value string) string { return filepath.Clean(value) }

// NullableString distinguishes an absent string from an empty one.
type NullableString struct {
	Value  string
	IsNull bool
}

// NullableString16 encodes a NullableString as a UTF-16 string followed
// by the null flag.
var NullableString16 Traits[NullableString] = nullableString16Traits{}

type nullableString16Traits struct{}

func (nullableString16Traits) Write(m *Message, value NullableString) {
	m.WriteString16(value.Value)
	m.WriteBool(value.IsNull)
}

func (nullableString16Traits) Read(it *Iterator) (NullableString, error) {
	start := it.mark()
	value, err := it.ReadString16()
	if err != nil {
		return NullableString{}, err
	}
	isNull, err := it.ReadBool()
	if err != nil {
		it.rewind(start)
		return NullableString{}, err
	}
	return NullableString{Value: value, IsNull: isNull}, nil
}

func (nullableString16Traits) Log(value NullableString) string {
	if value.IsNull {
		return "(null)"
	}
	return value.Value
}

// CBOR returns traits that carry T as a CBOR document in a single blob.
// It is meant for open-ended values (preference dictionaries,
// diagnostic bags) that have no fixed field layout. A value the
// encoder rejects marks the message as failed; see Message.Err.
func CBOR[T any]() Traits[T] { return cborTraits[T]{} }

// Dictionary is a string-keyed CBOR document of arbitrary values.
type Dictionary = map[string]any

// Dictionaries and lists of untyped values.
var (
	DictionaryTraits = CBOR[Dictionary]()
	ListTraits       = CBOR[[]any]()
)

type cborTraits[T any] struct{}

func (cborTraits[T]) Write(m *Message, value T) {
	data, err := codec.Marshal(value)
	if err != nil {
		m.fail(fmt.Errorf("encode %T as CBOR: %w", value, err))
		return
	}
	m.WriteData(data)
}

func (cborTraits[T]) Read(it *Iterator) (T, error) {
	var value T
	start := it.mark()
	data, err := it.ReadData()
	if err != nil {
		return value, err
	}
	if err := codec.Unmarshal(data, &value); err != nil {
		it.rewind(start)
		var zero T
		return zero, fmt.Errorf("%w: CBOR %T: %v", ErrMalformed, value, err)
	}
	return value, nil
}

func (cborTraits[T]) Log(value T) string {
	data, err := codec.Marshal(value)
	if err != nil {
		return fmt.Sprintf("<unencodable %T>", value)
	}
	notation, err := codec.Diagnose(data)
	if err != nil {
		return LogBytes(data)
	}
	return notation
}

// Compressed returns traits for a byte blob stored compressed. The
// wire form is the codec tag, the uncompressed length and the block.
// Blobs that do not shrink are stored uncompressed. Reads reject an
// announced length above maxSize before allocating.
func Compressed(preferred compress.Tag, maxSize int) Traits[[]byte] {
	return compressedTraits{preferred: preferred, maxSize: maxSize}
}

type compressedTraits struct {
	preferred compress.Tag
	maxSize   int
}

func (t compressedTraits) Write(m *Message, value []byte) {
	block, tag, err := compress.Auto(value, t.preferred)
	if err != nil {
		m.fail(fmt.Errorf("compress %d-byte parameter: %w", len(value), err))
		return
	}
	m.WriteInt32(int32(tag))
	m.WriteInt32(int32(len(value)))
	m.WriteData(block)
}

func (t compressedTraits) Read(it *Iterator) ([]byte, error) {
	start := it.mark()
	value, err := t.read(it)
	if err != nil {
		it.rewind(start)
		return nil, err
	}
	return value, nil
}

func (t compressedTraits) read(it *Iterator) ([]byte, error) {
	rawTag, err := it.ReadInt32()
	if err != nil {
		return nil, err
	}
	tag := compress.Tag(rawTag)
	if !tag.Valid() {
		return nil, fmt.Errorf("%w: unknown compression tag %d", ErrMalformed, rawTag)
	}
	size, err := it.ReadLength()
	if err != nil {
		return nil, err
	}
	if size > t.maxSize {
		return nil, fmt.Errorf("%w: compressed parameter announces %d bytes, limit %d", ErrMessageTooLarge, size, t.maxSize)
	}
	block, err := it.ReadData()
	if err != nil {
		return nil, err
	}
	value, err := compress.Decompress(block, tag, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if tag == compress.None {
		value = append([]byte{}, value...)
	}
	return value, nil
}

func (t compressedTraits) Log(value []byte) string {
	return fmt.Sprintf("<%d bytes>", len(value))
}

// FileDescriptor is a descriptor parameter. On the sending side,
// AutoClose hands the descriptor to the channel, which closes it once
// the message is written; without it the descriptor must stay open
// until then. Received descriptors are fresh duplicates owned by the
// reader and always have AutoClose set. FD is -1 for an absent
// descriptor.
type FileDescriptor struct {
	FD        int
	AutoClose bool
}

// Valid reports whether the parameter carries a descriptor.
func (d FileDescriptor) Valid() bool { return d.FD >= 0 }

// NoDescriptor is the absent descriptor.
var NoDescriptor = FileDescriptor{FD: -1}

// MaxDescriptorsPerMessage bounds the descriptors one message can
// carry. They travel in a single SCM_RIGHTS control message.
const MaxDescriptorsPerMessage = 7

// Descriptor encodes a FileDescriptor as a validity flag and an index
// into the message's descriptor list.
var Descriptor Traits[FileDescriptor] = descriptorTraits{}

type descriptorTraits struct{}

func (descriptorTraits) Write(m *Message, value FileDescriptor) {
	if !value.Valid() {
		m.WriteBool(false)
		return
	}
	index, err := m.addDescriptor(value.FD, value.AutoClose)
	if err != nil {
		m.fail(err)
		m.WriteBool(false)
		return
	}
	m.WriteBool(true)
	m.WriteInt32(int32(index))
}

func (descriptorTraits) Read(it *Iterator) (FileDescriptor, error) {
	start := it.mark()
	valid, err := it.ReadBool()
	if err != nil {
		return NoDescriptor, err
	}
	if !valid {
		return NoDescriptor, nil
	}
	index, err := it.ReadInt32()
	if err != nil {
		it.rewind(start)
		return NoDescriptor, err
	}
	fd, err := it.takeDescriptor(int(index))
	if err != nil {
		it.rewind(start)
		return NoDescriptor, err
	}
	return FileDescriptor{FD: fd, AutoClose: true}, nil
}

func (descriptorTraits) Log(value FileDescriptor) string {
	if !value.Valid() {
		return "FD(none)"
	}
	return "FD(" + strconv.Itoa(value.FD) + ")"
}

// ChannelHandle names a channel endpoint. With a valid Socket the
// channel adopts that connected socket; otherwise it rendezvouses
// through the socket path derived from Name.
type ChannelHandle struct {
	Name   string
	Socket FileDescriptor
}

// NamedHandle returns a handle that rendezvouses by name.
func NamedHandle(name string) ChannelHandle {
	return ChannelHandle{Name: name, Socket: NoDescriptor}
}

// SocketHandle returns a handle for an already connected socket. The
// channel built from it takes ownership of fd.
func SocketHandle(name string, fd int) ChannelHandle {
	return ChannelHandle{Name: name, Socket: FileDescriptor{FD: fd, AutoClose: true}}
}

// ChannelHandleTraits encodes a handle as its name and socket, so a
// connected socket can be passed to another process.
var ChannelHandleTraits Traits[ChannelHandle] = channelHandleTraits{}

type channelHandleTraits struct{}

func (channelHandleTraits) Write(m *Message, value ChannelHandle) {
	m.WriteString(value.Name)
	Descriptor.Write(m, value.Socket)
}

func (channelHandleTraits) Read(it *Iterator) (ChannelHandle, error) {
	start := it.mark()
	name, err := it.ReadString()
	if err != nil {
		return ChannelHandle{}, err
	}
	socket, err := Descriptor.Read(it)
	if err != nil {
		it.rewind(start)
		return ChannelHandle{}, err
	}
	return ChannelHandle{Name: name, Socket: socket}, nil
}

func (channelHandleTraits) Log(value ChannelHandle) string {
	return "ChannelHandle(" + value.Name + ", " + Descriptor.Log(value.Socket) + ")"
}

// NestedMessage encodes a whole message, header included, as a
// parameter of another. Nested messages cannot carry descriptors.
var NestedMessage Traits[*Message] = nestedMessageTraits{}

type nestedMessageTraits struct{}

func (nestedMessageTraits) Write(m *Message, value *Message) {
	if value.DescriptorCount() > 0 {
		m.fail(fmt.Errorf("nest %s: nested messages cannot carry descriptors", value))
	}
	m.WriteInt32(int32(value.Size()))
	m.WriteData(value.Bytes())
}

func (nestedMessageTraits) Read(it *Iterator) (*Message, error) {
	start := it.mark()
	size, err := it.ReadLength()
	if err != nil {
		return nil, err
	}
	data, err := it.ReadData()
	if err != nil {
		it.rewind(start)
		return nil, err
	}
	if len(data) != size {
		it.rewind(start)
		return nil, fmt.Errorf("%w: nested message is %d bytes, prefix says %d", ErrMalformed, len(data), size)
	}
	nested, err := ParseMessage(data)
	if err != nil {
		it.rewind(start)
		return nil, fmt.Errorf("%w: nested message: %v", ErrMalformed, err)
	}
	return nested, nil
}

func (nestedMessageTraits) Log(value *Message) string {
	return "<Message " + value.String() + ">"
}
