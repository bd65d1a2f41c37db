// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/courier/cmd/courier/cli"
	"github.com/bureau-foundation/courier/lib/ipc"
	"github.com/bureau-foundation/courier/lib/messages"
)

func messagesCommand(streams IO) *cli.Command {
	var color string
	return &cli.Command{
		Name:    "messages",
		Summary: "List the message catalog",
		Usage:   "courier messages [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("messages", pflag.ContinueOnError)
			flagSet.StringVar(&color, "color", "auto", "color the table: auto, always or never")
			return flagSet
		},
		Run: func(_ context.Context, args []string, _ *slog.Logger) error {
			if len(args) != 0 {
				return fmt.Errorf("unexpected arguments: %v", args)
			}
			renderer, err := newRenderer(streams.Stdout, color)
			if err != nil {
				return err
			}
			registry, err := messages.Registry()
			if err != nil {
				return err
			}

			headerStyle := renderer.NewStyle().Bold(true).Padding(0, 1)
			cellStyle := renderer.NewStyle().Padding(0, 1)
			catalog := table.New().
				Border(lipgloss.HiddenBorder()).
				Headers("TYPE", "ID", "NAME").
				StyleFunc(func(row, column int) lipgloss.Style {
					if row == table.HeaderRow {
						return headerStyle
					}
					return cellStyle
				})
			for _, definition := range registry.Definitions() {
				catalog.Row(ipc.TypeString(definition.Type()), fmt.Sprintf("0x%08x", definition.Type()), definition.Name())
			}
			fmt.Fprintln(streams.Stdout, catalog.Render())
			return nil
		},
	}
}
