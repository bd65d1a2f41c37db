// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides entrypoint helpers for courier binaries.
// It holds the raw stderr output that happens before the structured
// logger exists or after main has given up.
package process
