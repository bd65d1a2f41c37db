// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/courier/cmd/courier/cli"
	"github.com/bureau-foundation/courier/lib/clock"
	"github.com/bureau-foundation/courier/lib/eventloop"
	"github.com/bureau-foundation/courier/lib/ipc"
	"github.com/bureau-foundation/courier/lib/messages"
	"github.com/bureau-foundation/courier/lib/tuple"
)

type serveParams struct {
	cli.ConfigParams
	Channel string `flag:"channel" desc:"channel id to listen on" default:"courier"`
	Once    bool   `flag:"once" desc:"exit when the first client disconnects"`
}

func serveCommand(streams IO, level *slog.LevelVar) *cli.Command {
	var params serveParams
	return &cli.Command{
		Name:    "serve",
		Summary: "Answer the Test message family on a channel",
		Description: `Listen on a channel and answer the Test message family: Ping is
answered with pong, Echo is sent back, Shutdown stops the server, and
SetTracing forwards the server's trace records to the client.

Clients are served one at a time. The server keeps listening after a
client disconnects unless --once is given.`,
		Usage: "courier serve [flags]",
		Examples: []cli.Example{
			{Description: "Serve on the default channel", Command: "courier serve"},
			{Description: "Serve one client on a named channel", Command: "courier serve --channel render.1 --once"},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("serve", &params)
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 0 {
				return fmt.Errorf("unexpected arguments: %v", args)
			}
			cfg, err := params.LoadConfig(level)
			if err != nil {
				return err
			}
			if err := cfg.EnsureSocketDirectory(); err != nil {
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
			options.Tracer = ipc.NewTracer(clock.Real(), registry, logger)

			server := newServer(loop, options, logger)
			err = server.serve(params.Channel, params.Once)
			if errors.Is(err, eventloop.ErrQuit) && ctx.Err() != nil {
				logger.Info("interrupted")
				return nil
			}
			return err
		},
	}
}

// server answers the Test family on one connection at a time. All of
// its state is touched only from the loop goroutine.
type server struct {
	loop    *eventloop.Loop
	options ipc.ChannelOptions
	logger  *slog.Logger
	router  *ipc.Router

	channel *ipc.Channel

	// records collects trace records while the client has tracing
	// switched on.
	records []ipc.LogData

	disconnected bool
	shutdown     bool
}

func newServer(loop *eventloop.Loop, options ipc.ChannelOptions, logger *slog.Logger) *server {
	s := &server{loop: loop, options: options, logger: logger}
	s.router = ipc.NewRouter(logger)
	ipc.HandleSync(s.router, messages.Ping, s, tuple.ApplyOut1x2(s.ping))
	ipc.HandleAsyncWithMessage(s.router, messages.Echo, s.echo)
	ipc.HandleAsync(s.router, messages.Shutdown, func(tuple.Tuple0) {
		s.logger.Info("shutdown requested")
		s.shutdown = true
	})
	ipc.HandleAsync(s.router, messages.SetTracing, tuple.Apply1(s.setTracing))
	return s
}

// serve accepts clients on channelID until Shutdown arrives, the loop
// quits, or (with once) the first client leaves.
func (s *server) serve(channelID string, once bool) error {
	for {
		if err := s.serveClient(channelID); err != nil {
			return err
		}
		if s.shutdown || once {
			return nil
		}
	}
}

func (s *server) serveClient(channelID string) error {
	channel, err := ipc.NewChannel(ipc.NamedHandle(channelID), ipc.ModeServer, s, s.loop, s.options)
	if err != nil {
		return err
	}
	defer channel.Close()
	s.channel = channel
	s.disconnected = false
	s.stopForwarding()

	if err := channel.Connect(); err != nil {
		return err
	}
	s.logger.Info("listening", "channel", channelID)
	return s.loop.RunUntil(func() bool { return s.disconnected || s.shutdown })
}

// Send implements ipc.Sender for the reply path of sync handlers.
func (s *server) Send(m *ipc.Message) error {
	return s.channel.Send(m)
}

func (s *server) OnChannelConnected(peerPID int32) {
	s.logger.Info("client connected", "peer_pid", peerPID)
}

func (s *server) OnMessageReceived(m *ipc.Message) {
	if !s.router.RouteOrReject(m, s) {
		s.logger.Warn("no handler for message", "type", ipc.TypeString(m.Type()), "routing_id", m.RoutingID())
	}
}

func (s *server) OnChannelError() {
	s.logger.Info("client disconnected")
	s.disconnected = true
}

func (s *server) ping(text string, matched *bool, answer *string) {
	*matched = text == "ping"
	if *matched {
		*answer = "pong"
	} else {
		*answer = text
	}
}

func (s *server) echo(m *ipc.Message, params tuple.Tuple2[int32, string]) {
	if err := s.Send(messages.Echo.New(m.RoutingID(), params)); err != nil {
		s.logger.Warn("echo failed", "error", err)
	}
}

func (s *server) setTracing(enabled bool) {
	if s.options.Tracer == nil {
		s.logger.Warn("tracing requested but no tracer is installed")
		return
	}
	if enabled {
		s.options.Tracer.SetSink(func(record ipc.LogData) {
			s.records = append(s.records, record)
		})
		return
	}
	records := s.records
	s.stopForwarding()
	if err := s.Send(ipc.NewLogBatch(records)); err != nil {
		s.logger.Warn("sending trace records failed", "error", err)
	}
}

func (s *server) stopForwarding() {
	s.records = nil
	if s.options.Tracer != nil {
		s.options.Tracer.SetSink(nil)
	}
}
