// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// mould-call issues one request (or a chain of requests) against a
// mould RPC server and prints each result as indented JSON.
//
// The target is given as "service.action" or as two arguments. The
// payload comes from --payload, from a JSONC file via --payload-file,
// or from stdin when it is not a terminal. With --repeat N the request
// is issued N times back to back, each one starting only after the
// previous completed; --rate paces the chain.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/spf13/pflag"
	"golang.org/x/time/rate"

	"github.com/bureau-foundation/mould/lib/cli"
	"github.com/bureau-foundation/mould/lib/mould"
	"github.com/bureau-foundation/mould/lib/version"
)

const binaryName = "mould-call"

func main() {
	cli.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr), binaryName)
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	var (
		connection  cli.ConnectionFlags
		payload     string
		payloadFile string
		repeat      int
		perSecond   float64
		color       string
		showVersion bool
	)

	flagSet := pflag.NewFlagSet(binaryName, pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	connection.AddFlags(flagSet)
	flagSet.StringVar(&payload, "payload", "", "request payload as JSON")
	flagSet.StringVar(&payloadFile, "payload-file", "", "read the request payload from a JSON or JSONC file")
	flagSet.IntVar(&repeat, "repeat", 1, "issue the request this many times, one after another")
	flagSet.Float64Var(&perSecond, "rate", 0, "maximum requests per second for --repeat (0 means unpaced)")
	flagSet.StringVar(&color, "color", "auto", "highlight results: auto, always or never")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")
	flagSet.Usage = func() { printUsage(stderr, flagSet) }

	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}
	if showVersion {
		version.Fprint(stdout, binaryName)
		return nil
	}

	service, action, err := parseTarget(flagSet.Args())
	if err != nil {
		return err
	}
	if repeat < 1 {
		return fmt.Errorf("--repeat must be at least 1, got %d", repeat)
	}
	highlight, err := wantHighlight(color, stdout)
	if err != nil {
		return err
	}

	cfg, err := connection.Load(flagSet)
	if err != nil {
		return err
	}
	logger, err := cli.NewLogger(cfg.Logging, stderr)
	if err != nil {
		return err
	}
	logger = logger.With("command", binaryName, "target", service+"."+action)

	input, err := cli.ReadPayload(payload, payloadFile, stdin)
	if err != nil {
		return err
	}

	client, err := cli.NewClient(cfg, logger, nil)
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := connect(ctx, client, cfg.Server.URL, logger); err != nil {
		return err
	}

	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	limiter := rate.NewLimiter(limit, 1)

	failures := 0
	for iteration := 1; iteration <= repeat; iteration++ {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}
		value, err := mould.Call[any, any](ctx, client, service, action, input)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			kind, isFailure := mould.FailureKindOf(err)
			if !isFailure {
				return err
			}
			failures++
			logger.Warn("request failed", "iteration", iteration, "kind", kind.String(), "reason", err.Error())
			fmt.Fprintf(stderr, "%s.%s failed (%s): %v\n", service, action, kind, err)
			continue
		}
		text, err := formatResult(value, highlight)
		if err != nil {
			return err
		}
		fmt.Fprint(stdout, text)
	}

	if failures > 0 {
		return &cli.ExitError{Code: 1}
	}
	return nil
}

// connect opens the socket and waits until it reports Connected. A
// Disconnected report first means the server closed immediately.
func connect(ctx context.Context, client *mould.Client, url string, logger *slog.Logger) error {
	statuses := make(chan mould.Status, 2)
	err := client.Connect(ctx, url, func(status mould.Status) {
		select {
		case statuses <- status:
		default:
		}
	})
	if err != nil {
		return err
	}

	select {
	case status := <-statuses:
		if status != mould.Connected {
			return fmt.Errorf("connection to %s closed before it opened", url)
		}
		logger.Debug("connected", "url", url)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// parseTarget accepts "service.action" or "service action".
func parseTarget(args []string) (service, action string, err error) {
	switch len(args) {
	case 1:
		before, after, found := strings.Cut(args[0], ".")
		if !found || before == "" || after == "" {
			return "", "", fmt.Errorf("target %q is not of the form service.action", args[0])
		}
		return before, after, nil
	case 2:
		if args[0] == "" || args[1] == "" {
			return "", "", fmt.Errorf("service and action must not be empty")
		}
		return args[0], args[1], nil
	case 0:
		return "", "", fmt.Errorf("missing target: expected service.action")
	default:
		return "", "", fmt.Errorf("unexpected argument: %s", args[2])
	}
}

func wantHighlight(mode string, stdout io.Writer) (bool, error) {
	switch mode {
	case "always":
		return true, nil
	case "never":
		return false, nil
	case "auto":
		return cli.IsTerminal(stdout), nil
	default:
		return false, fmt.Errorf("--color must be auto, always or never, got %q", mode)
	}
}

// formatResult renders value as indented JSON followed by a newline,
// highlighted for a 256-color terminal when highlight is set.
func formatResult(value any, highlight bool) (string, error) {
	encoded, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return "", fmt.Errorf("formatting result: %w", err)
	}
	text := string(encoded) + "\n"
	if !highlight {
		return text, nil
	}
	var buffer bytes.Buffer
	if err := quick.Highlight(&buffer, text, "json", "terminal256", "monokai"); err != nil {
		return text, nil
	}
	return buffer.String(), nil
}

func printUsage(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintf(w, `mould-call: issue a request against a mould RPC server.

Usage:
  mould-call [flags] <service>.<action>
  mould-call [flags] <service> <action>

Examples:
  # Fetch a user, payload inline
  mould-call --url ws://localhost:8080/rpc users.get --payload '{"id": 7}'

  # Payload from a commented file, CBOR on the wire
  mould-call --format cbor --payload-file get-user.jsonc users get

  # Ten chained requests, at most two per second
  echo '{"id": 7}' | mould-call --repeat 10 --rate 2 users.get

Flags:
`)
	flagSet.SetOutput(w)
	flagSet.PrintDefaults()
}
