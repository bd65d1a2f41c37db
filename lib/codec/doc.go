// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the CBOR configuration used for free-form
// message parameters.
//
// Most IPC parameters have a fixed shape and are written field by
// field in the pickle payload format. Some parameters are open-ended
// dictionaries (preference maps, diagnostic bags) whose keys are not
// known at compile time. Those travel as a CBOR document stored in a
// single blob slot. This package holds the one encoder and decoder
// configuration so every sender produces identical bytes for the same
// logical dictionary.
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2): sorted
// map keys, smallest integer encoding, no indefinite-length items.
// Decoding into an untyped target yields map[string]any rather than
// map[any]any.
//
//	data, err := codec.Marshal(dictionary)
//	err = codec.Unmarshal(data, &dictionary)
//
// Diagnose renders a document in RFC 8949 diagnostic notation, which
// the message dump tooling uses when printing parameters.
package codec
