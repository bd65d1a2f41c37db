// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package tuple provides fixed-arity heterogeneous value bundles used to
// carry message parameter lists through a single generic code path.
//
// [Tuple0] through [Tuple5] hold values; [Ref1] through [Ref5] hold
// pointers to values and are produced by the Refs method of the value
// tuple with the same arity. Tuples have no identity: two tuples are
// equal when their fields are equal, and they are copied freely.
//
// The adapter functions turn an ordinary Go function into a function
// over tuples, which is how the ipc package invokes typed handlers:
//
//   - [Apply0] .. [Apply5] unpack an input tuple into positional
//     arguments.
//   - [ApplyMessage1] .. [ApplyMessage5] do the same for handlers that
//     also want the raw message (or any other leading value).
//   - ApplyOut{N}x{M} unpack an N-field input tuple and pass pointers to
//     the M fields of an output tuple the handler fills in. These cover
//     every combination of 0..5 inputs and 0..5 outputs.
//
// This package has no dependencies outside the standard library.
package tuple

//go:generate go run gen_apply_out.go
