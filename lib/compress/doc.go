// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package compress implements the block codecs available to
// compressed message parameters.
//
// A compressed parameter is written as a tag, the uncompressed length
// and the compressed block. The receiver allocates exactly the
// announced length, so the length is checked against a caller-supplied
// ceiling before any allocation happens. Tags are wire constants.
package compress
