// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/courier/cmd/courier/cli"
	"github.com/bureau-foundation/courier/lib/clock"
	"github.com/bureau-foundation/courier/lib/eventloop"
	"github.com/bureau-foundation/courier/lib/ipc"
	"github.com/bureau-foundation/courier/lib/messages"
	"github.com/bureau-foundation/courier/lib/tuple"
)

type pingParams struct {
	cli.ConfigParams
	Channel string        `flag:"channel" desc:"channel id to connect to" default:"courier"`
	Count   int           `flag:"count,c" desc:"number of pings" default:"1"`
	Message string        `flag:"message,m" desc:"text to send" default:"ping"`
	Trace   bool          `flag:"trace" desc:"print a trace of every message, from both ends"`
	Color   string        `flag:"color" desc:"color the trace table: auto, always or never" default:"auto"`
	Timeout time.Duration `flag:"timeout" desc:"how long to wait for the server's trace records" default:"5s"`
}

func pingCommand(streams IO, level *slog.LevelVar) *cli.Command {
	var params pingParams
	return &cli.Command{
		Name:    "ping",
		Summary: "Send sync pings to a courier server",
		Description: `Connect to a channel served by "courier serve" and issue synchronous
Ping calls, printing each answer and its round-trip time.

With --trace, both ends trace their messages: the local records and
the server's (forwarded as a log batch) are printed as one table.
Exits 1 if any ping failed.`,
		Usage: "courier ping [flags]",
		Examples: []cli.Example{
			{Description: "Ping three times", Command: "courier ping --count 3"},
			{Description: "Trace a round trip without color", Command: "courier ping --trace --color never"},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("ping", &params)
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 0 {
				return fmt.Errorf("unexpected arguments: %v", args)
			}
			if params.Count < 1 {
				return fmt.Errorf("--count must be at least 1, got %d", params.Count)
			}
			renderer, err := newRenderer(streams.Stdout, params.Color)
			if err != nil {
				return err
			}
			cfg, err := params.LoadConfig(level)
			if err != nil {
				return err
			}

			loop, err := eventloop.New(logger)
			if err != nil {
				return err
			}
			defer loop.Close()
			stop := context.AfterFunc(ctx, loop.Quit)
			defer stop()

			registry, err := messages.Registry()
			if err != nil {
				return err
			}
			options := cfg.ChannelOptions(logger)
			trace := params.Trace || cfg.Tracing
			if trace {
				options.Tracer = ipc.NewTracer(clock.Real(), registry, logger)
			}

			result, err := runPings(loop, options, params.Channel, params.Count, params.Message, trace, params.Timeout, streams.Stdout, logger)
			if err != nil {
				return err
			}
			if trace {
				renderTrace(streams.Stdout, renderer, result.local, result.remote)
			}
			if result.failures > 0 {
				return &cli.ExitError{Code: 1}
			}
			return nil
		},
	}
}

type pingResult struct {
	failures int
	local    []ipc.LogData
	remote   []ipc.LogData
}

// pingClient receives the asynchronous traffic of a ping session.
type pingClient struct {
	logger *slog.Logger
	remote []ipc.LogData

	batchReceived bool
	failed        bool
}

func (c *pingClient) OnChannelConnected(peerPID int32) {
	c.logger.Debug("server connected", "peer_pid", peerPID)
}

func (c *pingClient) OnMessageReceived(m *ipc.Message) {
	if m.Type() != ipc.LoggingMessageType {
		c.logger.Warn("unexpected message", "type", ipc.TypeString(m.Type()))
		return
	}
	records, err := ipc.ReadLogBatch(m)
	if err != nil {
		c.logger.Warn("undecodable trace records", "error", err)
	}
	c.remote = append(c.remote, records...)
	c.batchReceived = true
}

func (c *pingClient) OnChannelError() {
	c.failed = true
}

// runPings connects to channelID, issues count pings and, when trace
// is set, collects the trace records of both ends.
func runPings(loop *eventloop.Loop, options ipc.ChannelOptions, channelID string, count int, text string,
	trace bool, timeout time.Duration, out io.Writer, logger *slog.Logger) (pingResult, error) {
	var result pingResult
	if trace && options.Tracer != nil {
		options.Tracer.SetSink(func(record ipc.LogData) {
			result.local = append(result.local, record)
		})
		defer options.Tracer.SetSink(nil)
	}

	client := &pingClient{logger: logger}
	channel, err := ipc.NewSyncChannel(ipc.NamedHandle(channelID), ipc.ModeClient, client, loop, options)
	if err != nil {
		return result, err
	}
	defer channel.Close()
	if err := channel.Connect(); err != nil {
		return result, err
	}

	if trace {
		if err := channel.Send(messages.SetTracing.NewControl(tuple.Make1(true))); err != nil {
			return result, err
		}
	}

	for sequence := 1; sequence <= count; sequence++ {
		start := time.Now()
		reply, err := messages.Ping.Call(channel, ipc.RoutingControl, tuple.Make1(text))
		if errors.Is(err, ipc.ErrChannelClosed) {
			return result, err
		}
		if err != nil {
			fmt.Fprintf(out, "ping %d: %v\n", sequence, err)
			result.failures++
			continue
		}
		fmt.Fprintf(out, "reply %d from %s (pid %d): %s matched=%t time=%s\n",
			sequence, channel.Name(), channel.PeerPID(), reply.B, reply.A, time.Since(start).Round(time.Microsecond))
	}

	if trace {
		if err := channel.Send(messages.SetTracing.NewControl(tuple.Make1(false))); err != nil {
			return result, err
		}
		timedOut := false
		timer := time.AfterFunc(timeout, func() {
			loop.PostTask(func() { timedOut = true })
		})
		err := loop.RunUntil(func() bool { return client.batchReceived || client.failed || timedOut })
		timer.Stop()
		if err != nil {
			return result, err
		}
		if !client.batchReceived {
			logger.Warn("server sent no trace records", "timeout", timeout)
		}
		result.remote = client.remote
	}
	return result, nil
}
