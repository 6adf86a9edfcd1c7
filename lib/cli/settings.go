// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/mould/lib/config"
)

// ConnectionFlags are the flags every mould command accepts for
// selecting and overriding its configuration.
type ConnectionFlags struct {
	ConfigPath     string
	URL            string
	Format         string
	RequestTimeout time.Duration
	LogLevel       string
}

// AddFlags registers the connection flags on flagSet.
func (f *ConnectionFlags) AddFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&f.ConfigPath, "config", "", "path to mould.yaml (default: $"+config.EnvVar+", else built-in defaults)")
	flagSet.StringVar(&f.URL, "url", "", "websocket URL of the RPC server (overrides server.url)")
	flagSet.StringVar(&f.Format, "format", "", "wire format: json or cbor (overrides server.format)")
	flagSet.DurationVar(&f.RequestTimeout, "timeout", 0, "fail a request after this long (overrides server.request_timeout)")
	flagSet.StringVar(&f.LogLevel, "log-level", "", "debug, info, warn or error (overrides logging.level)")
}

// Load resolves the configuration: --config if given, else the file
// named by MOULD_CONFIG, else the defaults. Flags that were set on
// flagSet override the loaded values, and the result is validated.
func (f *ConnectionFlags) Load(flagSet *pflag.FlagSet) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	switch {
	case f.ConfigPath != "":
		cfg, err = config.LoadFile(f.ConfigPath)
	case os.Getenv(config.EnvVar) != "":
		cfg, err = config.Load()
	default:
		cfg = config.Default()
	}
	if err != nil {
		return nil, err
	}

	if flagSet.Changed("url") {
		cfg.Server.URL = f.URL
	}
	if flagSet.Changed("format") {
		cfg.Server.Format = f.Format
	}
	if flagSet.Changed("timeout") {
		cfg.Server.RequestTimeout = f.RequestTimeout
	}
	if flagSet.Changed("log-level") {
		cfg.Logging.Level = f.LogLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
