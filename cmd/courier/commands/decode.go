// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/courier/cmd/courier/cli"
	"github.com/bureau-foundation/courier/lib/codec"
	"github.com/bureau-foundation/courier/lib/ipc"
	"github.com/bureau-foundation/courier/lib/messages"
)

type decodeParams struct {
	CBOR bool `flag:"cbor" desc:"input is a single CBOR item; print it in diagnostic notation"`
}

func decodeCommand(streams IO) *cli.Command {
	var params decodeParams
	return &cli.Command{
		Name:    "decode",
		Summary: "Decode a hex-encoded message",
		Description: `Read one hex-encoded message (as captured from a socket) and print its
header, its registered name and its parameters. Whitespace and a
leading 0x in the input are ignored.

With --cbor the input is a bare CBOR item, such as a dictionary
parameter's payload, printed in diagnostic notation.`,
		Usage: "courier decode [flags] FILE|-",
		Examples: []cli.Example{
			{Description: "Decode a captured message", Command: "courier decode ping.hex"},
			{Description: "Decode a CBOR blob from stdin", Command: "echo a1616101 | courier decode --cbor -"},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("decode", &params)
		},
		Run: func(_ context.Context, args []string, _ *slog.Logger) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one FILE argument (or - for stdin), got %d", len(args))
			}
			data, err := readHex(args[0], streams.Stdin)
			if err != nil {
				return err
			}
			if params.CBOR {
				notation, err := codec.Diagnose(data)
				if err != nil {
					return fmt.Errorf("decoding CBOR: %w", err)
				}
				fmt.Fprintln(streams.Stdout, notation)
				return nil
			}
			registry, err := messages.Registry()
			if err != nil {
				return err
			}
			return describeMessage(streams.Stdout, data, registry)
		},
	}
}

func readHex(path string, stdin io.Reader) ([]byte, error) {
	var raw []byte
	var err error
	if path == "-" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	text := strings.Join(strings.Fields(string(raw)), "")
	text = strings.TrimPrefix(strings.TrimPrefix(text, "0x"), "0X")
	data, err := hex.DecodeString(text)
	if err != nil {
		return nil, fmt.Errorf("%s: not hex: %w", path, err)
	}
	return data, nil
}

func describeMessage(w io.Writer, data []byte, registry *ipc.Registry) error {
	m, err := ipc.ParseMessage(data)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "size:       %d bytes (payload %d)\n", m.Size(), m.PayloadSize())
	fmt.Fprintf(w, "routing id: %s\n", routingString(m.RoutingID()))
	fmt.Fprintf(w, "type:       %s (0x%08x)\n", ipc.TypeString(m.Type()), m.Type())
	fmt.Fprintf(w, "flags:      %s\n", m.Flags())
	if sent := m.SentTime(); sent != 0 {
		fmt.Fprintf(w, "sent:       %d us since epoch\n", sent)
	}
	if m.IsSync() || m.IsReply() {
		if id, err := ipc.SyncID(m); err == nil {
			fmt.Fprintf(w, "sync id:    %d\n", id)
		}
	}

	definition, ok := registry.Lookup(m.Type())
	if !ok {
		fmt.Fprintf(w, "name:       (unregistered)\n")
		fmt.Fprintf(w, "payload:    %s\n", ipc.LogBytes(m.Payload()))
		return nil
	}
	fmt.Fprintf(w, "name:       %s\n", definition.Name())
	fmt.Fprintf(w, "params:     %s\n", registry.LogParams(m))
	return nil
}

func routingString(routingID int32) string {
	switch routingID {
	case ipc.RoutingControl:
		return "control"
	case ipc.RoutingNone:
		return "none"
	}
	return fmt.Sprint(routingID)
}
