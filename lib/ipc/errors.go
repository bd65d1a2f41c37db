// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ipc

import "errors"

var (
	// ErrChannelClosed is returned for operations on a closed channel,
	// and by sync calls whose channel closed before the reply arrived.
	ErrChannelClosed = errors.New("ipc: channel closed")

	// ErrMessageTooLarge is returned when a message exceeds the
	// configured maximum size, either when sending or when a received
	// header claims more than the limit.
	ErrMessageTooLarge = errors.New("ipc: message too large")

	// ErrProtocol reports a peer that broke the framing or handshake
	// rules. It is always fatal to the channel.
	ErrProtocol = errors.New("ipc: protocol error")

	// ErrTruncated is returned when a read runs past the end of the
	// payload.
	ErrTruncated = errors.New("ipc: payload truncated")

	// ErrMalformed is returned when payload bytes are present but do
	// not form a valid value (negative lengths, bad enum values,
	// undecodable documents).
	ErrMalformed = errors.New("ipc: malformed parameter")

	// ErrReplyError is returned to a sync caller whose peer could not
	// decode the request.
	ErrReplyError = errors.New("ipc: peer rejected request")
)
