package main

import (
	"fmt"
	"log/slog"
	"net"
	"os"

	"github.com/spf13/cobra"

	rferrors "github.com/reflow-dev/reflow/internal/errors"
	"github.com/reflow-dev/reflow/pkg/server"
)

func serveCmd() *cobra.Command {
	var (
		addr        string
		maxSessions int
		listSize    int
		logJSON     bool
		logLevel    string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the built-in demo application",
		Long: `Start a Reflow server hosting the built-in demo component.

Applications embed the server themselves; this command exists to try the
wire protocol and as a target for 'reflow bench'.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := net.ResolveTCPAddr("tcp", addr); err != nil {
				return rferrors.New("R121").
					WithDetail(fmt.Sprintf("cannot listen on %q: %v", addr, err))
			}

			logger, err := newLogger(logJSON, logLevel)
			if err != nil {
				return err
			}

			cfg := server.DefaultConfig().
				WithAddress(addr).
				WithMaxSessions(maxSessions)

			printBanner()
			fmt.Printf("  Serving demo app on %s\n\n", addr)

			srv := server.New(demoApp(listSize), cfg, server.WithLogger(logger))
			return srv.Run()
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", ":8080", "Listen address")
	cmd.Flags().IntVar(&maxSessions, "max-sessions", 0, "Concurrent session limit (0 = unlimited)")
	cmd.Flags().IntVar(&listSize, "list-size", 20, "Demo list length")
	cmd.Flags().BoolVar(&logJSON, "log-json", false, "Log as JSON")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	return cmd
}

func newLogger(jsonOut bool, level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, rferrors.New("R120").
			WithDetail(fmt.Sprintf("unknown log level %q", level)).
			WithSuggestion("Use one of: debug, info, warn, error.")
	}

	opts := &slog.HandlerOptions{Level: lvl}
	var handler slog.Handler
	if jsonOut {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler), nil
}
