// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bureau-foundation/mould/lib/config"
	"github.com/bureau-foundation/mould/lib/mould"
	"github.com/bureau-foundation/mould/transport"
)

// NewClient builds a websocket-backed client from the server section
// of cfg. A nil registerer disables metrics.
func NewClient(cfg *config.Config, logger *slog.Logger, registerer prometheus.Registerer) (*mould.Client, error) {
	format, err := mould.ParseFormat(cfg.Server.Format)
	if err != nil {
		return nil, err
	}

	var metrics *mould.Metrics
	if registerer != nil {
		metrics, err = mould.NewMetrics(registerer)
		if err != nil {
			return nil, err
		}
	}

	return mould.New(mould.Config{
		Transport: &transport.WebSocket{
			WriteTimeout: cfg.Server.WriteTimeout,
			ReadLimit:    cfg.Server.ReadLimit,
			Logger:       logger,
		},
		Format:         format,
		RequestTimeout: cfg.Server.RequestTimeout,
		Logger:         logger,
		Metrics:        metrics,
	}), nil
}
