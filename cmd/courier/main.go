// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Command courier serves, pings and inspects courier IPC channels.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/bureau-foundation/courier/cmd/courier/cli"
	"github.com/bureau-foundation/courier/cmd/courier/commands"
	"github.com/bureau-foundation/courier/lib/process"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	level := new(slog.LevelVar)
	logger := cli.NewCommandLogger(level)
	root := commands.Root(commands.IO{Stdin: os.Stdin, Stdout: os.Stdout}, level)
	return root.Execute(ctx, os.Args[1:], logger)
}
