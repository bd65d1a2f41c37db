// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the command-line framework for the courier
// binary.
//
// The central type is [Command]: a named subcommand with optional
// nested [Command.Subcommands], a [pflag.FlagSet] factory, and a Run
// function. Commands are assembled into a tree in cmd/courier/commands
// and dispatched via [Command.Execute], which handles flag parsing,
// subcommand routing, and help output with examples.
//
// Flags are usually declared as tagged struct fields and bound with
// [FlagsFromParams]. An unknown subcommand or flag gets the closest
// known name suggested (edit distance at most 3).
//
// [NewCommandLogger] picks a text or JSON slog handler depending on
// whether stderr is a terminal. [ExitError] ends the process with a
// status code and no extra output.
package cli
