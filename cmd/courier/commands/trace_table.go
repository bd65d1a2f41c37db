// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/muesli/termenv"

	"github.com/bureau-foundation/courier/lib/ipc"
)

// newRenderer returns a lipgloss renderer for w honoring a --color
// value. auto detects from w; never renders plain ASCII.
func newRenderer(w io.Writer, color string) (*lipgloss.Renderer, error) {
	renderer := lipgloss.NewRenderer(w)
	switch color {
	case "auto":
	case "always":
		renderer.SetColorProfile(termenv.ANSI256)
	case "never":
		renderer.SetColorProfile(termenv.Ascii)
	default:
		return nil, fmt.Errorf("--color must be auto, always or never, got %q", color)
	}
	return renderer, nil
}

// renderTrace prints trace records as a table: local records first,
// then the peer's.
func renderTrace(w io.Writer, renderer *lipgloss.Renderer, local, remote []ipc.LogData) {
	if len(local)+len(remote) == 0 {
		fmt.Fprintln(w, "no trace records")
		return
	}

	headerStyle := renderer.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	cellStyle := renderer.NewStyle().Padding(0, 1)
	remoteStyle := cellStyle.Foreground(lipgloss.Color("244"))

	sides := make([]string, 0, len(local)+len(remote))
	traceTable := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(renderer.NewStyle().Foreground(lipgloss.Color("8"))).
		Headers("SIDE", "CHANNEL", "MESSAGE", "FLAGS", "PARAMS", "TRANSIT", "PROCESSING")

	addRows := func(side string, records []ipc.LogData) {
		for _, record := range records {
			sides = append(sides, side)
			traceTable.Row(side, record.Channel, record.Name, record.Flags, record.Params,
				record.Transit().String(), record.Processing().String())
		}
	}
	addRows("local", local)
	addRows("remote", remote)

	traceTable.StyleFunc(func(row, column int) lipgloss.Style {
		if row == table.HeaderRow {
			return headerStyle
		}
		if row >= 0 && row < len(sides) && sides[row] == "remote" {
			return remoteStyle
		}
		return cellStyle
	})
	fmt.Fprintln(w, traceTable.Render())
}
