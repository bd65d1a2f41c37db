// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the courier command tree.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/courier/cmd/courier/cli"
	"github.com/bureau-foundation/courier/lib/version"
)

// IO holds the streams commands read and write. Logs go to the logger
// passed to Execute, never here.
type IO struct {
	Stdin  io.Reader
	Stdout io.Writer
}

// Root builds the courier command tree. level is the logger's level;
// commands that load configuration set it from log_level.
func Root(streams IO, level *slog.LevelVar) *cli.Command {
	var showVersion bool
	var root *cli.Command
	root = &cli.Command{
		Name: "courier",
		Description: `courier: typed message passing between local processes.

Channels are Unix domain sockets named by a channel id. A server
listens on the id, one client connects, and both exchange framed,
typed messages, including synchronous calls and file descriptors.`,
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("courier", pflag.ContinueOnError)
			flagSet.BoolVar(&showVersion, "version", false, "print version information")
			return flagSet
		},
		Subcommands: []*cli.Command{
			serveCommand(streams, level),
			pingCommand(streams, level),
			decodeCommand(streams),
			messagesCommand(streams),
		},
		Run: func(_ context.Context, args []string, _ *slog.Logger) error {
			if showVersion {
				fmt.Fprintf(streams.Stdout, "courier %s\n", version.Full())
				return nil
			}
			root.PrintHelp(root.HelpWriter())
			return errors.New("subcommand required")
		},
	}
	return root
}
