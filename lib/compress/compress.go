// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package compress

import (
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Tag identifies the codec used for a compressed block. Values are
// written on the wire; changing them breaks compatibility with peers.
type Tag int32

const (
	// None stores the block as-is.
	None Tag = 0

	// LZ4 is LZ4 block compression. Cheap to decode; the default for
	// opaque binary state.
	LZ4 Tag = 1

	// Zstd is zstd at the default level. Better ratios on text-like
	// parameters such as scripts and serialized page state.
	Zstd Tag = 2
)

// String returns the configuration name of a tag.
func (tag Tag) String() string {
	switch tag {
	case None:
		return "none"
	case LZ4:
		return "lz4"
	case Zstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", int32(tag))
	}
}

// Valid reports whether tag names a known codec.
func (tag Tag) Valid() bool {
	return tag == None || tag == LZ4 || tag == Zstd
}

// ParseTag parses a tag from its configuration name.
func ParseTag(name string) (Tag, error) {
	switch name {
	case "none", "":
		return None, nil
	case "lz4":
		return LZ4, nil
	case "zstd":
		return Zstd, nil
	default:
		return 0, fmt.Errorf("unknown compression %q (want none, lz4 or zstd)", name)
	}
}

// ErrIncompressible is returned by Compress when the encoded block
// would not be smaller than the input. Callers fall back to None.
var ErrIncompressible = errors.New("compress: data is incompressible")

// Compress encodes data with the codec named by tag. For None the
// input is returned without copying.
func Compress(data []byte, tag Tag) ([]byte, error) {
	switch tag {
	case None:
		return data, nil
	case LZ4:
		return compressLZ4(data)
	case Zstd:
		return compressZstd(data)
	default:
		return nil, fmt.Errorf("compress: unsupported tag %d", int32(tag))
	}
}

// Decompress decodes a block produced by Compress. size is the
// uncompressed length recorded alongside the block; the output must
// match it exactly.
func Decompress(block []byte, tag Tag, size int) ([]byte, error) {
	if size < 0 {
		return nil, fmt.Errorf("compress: negative uncompressed size %d", size)
	}
	switch tag {
	case None:
		if len(block) != size {
			return nil, fmt.Errorf("compress: stored block is %d bytes, header says %d", len(block), size)
		}
		return block, nil
	case LZ4:
		return decompressLZ4(block, size)
	case Zstd:
		return decompressZstd(block, size)
	default:
		return nil, fmt.Errorf("compress: unsupported tag %d", int32(tag))
	}
}

// Auto compresses data with preferred and falls back to None when the
// data does not shrink. It returns the bytes to store and the tag that
// describes them.
func Auto(data []byte, preferred Tag) ([]byte, Tag, error) {
	if len(data) == 0 {
		return data, None, nil
	}
	block, err := Compress(data, preferred)
	if errors.Is(err, ErrIncompressible) {
		return data, None, nil
	}
	if err != nil {
		return nil, 0, err
	}
	return block, preferred, nil
}

func compressLZ4(data []byte) ([]byte, error) {
	destination := make([]byte, lz4.CompressBlockBound(len(data)))
	written, err := lz4.CompressBlock(data, destination, nil)
	if err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	// CompressBlock reports 0 for input it cannot shrink.
	if written == 0 || written >= len(data) {
		return nil, ErrIncompressible
	}
	return destination[:written], nil
}

func decompressLZ4(block []byte, size int) ([]byte, error) {
	destination := make([]byte, size)
	read, err := lz4.UncompressBlock(block, destination)
	if err != nil {
		return nil, fmt.Errorf("lz4 decompress: %w", err)
	}
	if read != size {
		return nil, fmt.Errorf("lz4 decompress: got %d bytes, expected %d", read, size)
	}
	return destination, nil
}

// zstd.Encoder and zstd.Decoder are safe for concurrent EncodeAll and
// DecodeAll calls.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("compress: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
	if err != nil {
		panic("compress: zstd decoder initialization failed: " + err.Error())
	}
}

func compressZstd(data []byte) ([]byte, error) {
	block := zstdEncoder.EncodeAll(data, nil)
	if len(block) >= len(data) {
		return nil, ErrIncompressible
	}
	return block, nil
}

func decompressZstd(block []byte, size int) ([]byte, error) {
	result, err := zstdDecoder.DecodeAll(block, make([]byte, 0, size))
	if err != nil {
		return nil, fmt.Errorf("zstd decompress: %w", err)
	}
	if len(result) != size {
		return nil, fmt.Errorf("zstd decompress: got %d bytes, expected %d", len(result), size)
	}
	return result, nil
}
