// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// mould-console is an interactive terminal UI over a mould connection.
// It has three views: a start page, a request page that issues the
// configured service.action and shows the last result, and a page
// with the connection settings. The status bar follows the
// connection's status notifications.
//
// Logs go to the status bar instead of stderr, which would corrupt the
// alt-screen display; --log-output additionally captures every record
// as JSON lines. --metrics-address serves the client's Prometheus
// metrics while the console runs.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/mould/lib/cli"
	"github.com/bureau-foundation/mould/lib/console"
	"github.com/bureau-foundation/mould/lib/mould"
	"github.com/bureau-foundation/mould/lib/version"
)

const binaryName = "mould-console"

func main() {
	cli.Exit(run(os.Args[1:]), binaryName)
}

func run(args []string) error {
	var (
		connection     cli.ConnectionFlags
		service        string
		action         string
		payload        string
		payloadFile    string
		metricsAddress string
		logOutput      string
		showVersion    bool
	)

	flagSet := pflag.NewFlagSet(binaryName, pflag.ContinueOnError)
	connection.AddFlags(flagSet)
	flagSet.StringVar(&service, "service", "echo", "service the request page calls")
	flagSet.StringVar(&action, "action", "ping", "action the request page calls")
	flagSet.StringVar(&payload, "payload", "", "request payload as JSON")
	flagSet.StringVar(&payloadFile, "payload-file", "", "read the request payload from a JSON or JSONC file")
	flagSet.StringVar(&metricsAddress, "metrics-address", "", "serve Prometheus metrics on this address (overrides metrics.address)")
	flagSet.StringVar(&logOutput, "log-output", "", "write JSON log records to this file (in addition to the status bar)")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")
	flagSet.Usage = func() { printUsage(os.Stderr, flagSet) }

	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}
	if showVersion {
		version.Fprint(os.Stdout, binaryName)
		return nil
	}
	if extra := flagSet.Args(); len(extra) > 0 {
		return fmt.Errorf("unexpected argument: %s", extra[0])
	}

	cfg, err := connection.Load(flagSet)
	if err != nil {
		return err
	}
	if flagSet.Changed("metrics-address") {
		cfg.Metrics.Address = metricsAddress
	}
	level, err := cfg.Logging.SlogLevel()
	if err != nil {
		return err
	}

	// Stdin belongs to the terminal UI, so the payload comes only from
	// flags.
	input, err := cli.ReadPayload(payload, payloadFile, nil)
	if err != nil {
		return err
	}

	statusHandler := console.NewLogHandler(max(level, slog.LevelInfo))
	var logger *slog.Logger
	if logOutput != "" {
		fileHandler, closeFile, err := openFileLogHandler(logOutput, level)
		if err != nil {
			return fmt.Errorf("opening log file %s: %w", logOutput, err)
		}
		defer closeFile()
		logger = slog.New(fanoutHandler{statusHandler, fileHandler})
	} else {
		logger = slog.New(statusHandler)
	}
	logger = logger.With("command", binaryName)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	client, err := cli.NewClient(cfg, logger, registry)
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Metrics.Address != "" {
		_, shutdown, err := serveMetrics(cfg.Metrics.Address, registry, logger)
		if err != nil {
			return err
		}
		defer shutdown()
	}

	model := console.NewModel(
		&console.ClientCaller{
			Client:  client,
			Service: service,
			Action:  action,
			Payload: input,
		},
		console.Settings{
			URL:            cfg.Server.URL,
			Format:         cfg.Server.Format,
			RequestTimeout: cfg.Server.RequestTimeout,
			Service:        service,
			Action:         action,
			Payload:        payloadText(payload, payloadFile),
		},
	)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	statusHandler.SetProgram(program)

	go func() {
		err := client.Connect(ctx, cfg.Server.URL, func(status mould.Status) {
			program.Send(console.StatusMsg{Status: status})
		})
		if err != nil {
			logger.Error("connecting", "url", cfg.Server.URL, "error", err)
			program.Send(console.StatusMsg{Status: mould.Disconnected})
		}
	}()

	_, err = program.Run()
	return err
}

// serveMetrics starts a Prometheus endpoint for registry. It returns
// the bound address and a function that shuts the endpoint down.
func serveMetrics(address string, registry *prometheus.Registry, logger *slog.Logger) (string, func(), error) {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return "", nil, fmt.Errorf("listening for metrics on %s: %w", address, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
	server := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "address", address, "error", err)
		}
	}()
	bound := listener.Addr().String()
	logger.Info("serving metrics", "address", bound)

	return bound, func() {
		shutdownContext, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		server.Shutdown(shutdownContext)
	}, nil
}

// payloadText is what the settings page shows for the payload source.
func payloadText(inline, path string) string {
	switch {
	case inline != "":
		return inline
	case path != "":
		return "from " + path
	default:
		return "null"
	}
}

func openFileLogHandler(path string, level slog.Level) (slog.Handler, func(), error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	handler := slog.NewJSONHandler(file, &slog.HandlerOptions{Level: level})
	return handler, func() { file.Close() }, nil
}

// fanoutHandler sends each record to every sub-handler enabled for its
// level.
type fanoutHandler []slog.Handler

func (handlers fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (handlers fanoutHandler) Handle(ctx context.Context, record slog.Record) error {
	for _, handler := range handlers {
		if handler.Enabled(ctx, record.Level) {
			if err := handler.Handle(ctx, record.Clone()); err != nil {
				return err
			}
		}
	}
	return nil
}

func (handlers fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	derived := make(fanoutHandler, len(handlers))
	for index, handler := range handlers {
		derived[index] = handler.WithAttrs(attrs)
	}
	return derived
}

func (handlers fanoutHandler) WithGroup(name string) slog.Handler {
	derived := make(fanoutHandler, len(handlers))
	for index, handler := range handlers {
		derived[index] = handler.WithGroup(name)
	}
	return derived
}

func printUsage(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintf(w, `mould-console: interactive terminal UI for a mould connection.

Usage:
  mould-console [flags]

Keys:
  1 2 3 / tab   switch view
  enter, r      send the request (view Two)
  c             cancel the request in flight
  q             quit

Examples:
  # Call users.get with a fixed payload
  mould-console --url ws://localhost:8080/rpc --service users --action get --payload '{"id": 7}'

  # Expose client metrics while the console runs
  mould-console --metrics-address 127.0.0.1:9464

Flags:
`)
	flagSet.SetOutput(w)
	flagSet.PrintDefaults()
}
