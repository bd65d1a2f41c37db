// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads courier configuration.
//
// Configuration is loaded from a single file specified by either the
// COURIER_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). There are no fallbacks, no ~/.config discovery,
// and no automatic file search. Without a file, commands run on
// [Default].
//
// Files ending in .json or .jsonc are read as JSON with comments and
// trailing commas; anything else is read as YAML. Both formats use the
// same field names.
//
// The file may carry environment-specific sections (development,
// staging, production) that override base values when
// [Config].Environment matches. Production defaults are stricter:
// tracing is off and messages are capped at 32 MiB.
//
// ${HOME}, ${XDG_RUNTIME_DIR} and ${VAR:-default} patterns are expanded
// in socket_directory after loading.
//
// Key exports:
//
//   - [Config] -- channel limits, socket location, tracing and log level
//   - [Default] -- returns a Config with development defaults
//   - [Load] and [LoadFile] -- the two entry points for loading
//   - [Config.ChannelOptions] -- converts to ipc.ChannelOptions
package config
