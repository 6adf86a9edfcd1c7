// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package mould

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels recorded in addition to FailureKind names.
const (
	outcomeSuccess  = "success"
	outcomeCanceled = "canceled_by_caller"
)

// Metrics collects client-side request statistics. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	requests  *prometheus.CounterVec
	latency   prometheus.Histogram
	unmatched prometheus.Counter
	connected prometheus.Gauge
}

// NewMetrics creates the client collectors and registers them with
// registerer.
func NewMetrics(registerer prometheus.Registerer) (*Metrics, error) {
	metrics := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mould",
			Subsystem: "client",
			Name:      "requests_total",
			Help:      "Requests by outcome: success, a failure kind, or canceled_by_caller.",
		}, []string{"outcome"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "mould",
			Subsystem: "client",
			Name:      "request_duration_seconds",
			Help:      "Time from Request to completion for requests that reached the wire.",
			Buckets:   prometheus.DefBuckets,
		}),
		unmatched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mould",
			Subsystem: "client",
			Name:      "unmatched_events_total",
			Help:      "Message and error events that arrived with no active task in the slot.",
		}),
		connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "mould",
			Subsystem: "client",
			Name:      "connected",
			Help:      "1 while the socket is open, 0 otherwise.",
		}),
	}

	for _, collector := range []prometheus.Collector{
		metrics.requests, metrics.latency, metrics.unmatched, metrics.connected,
	} {
		if err := registerer.Register(collector); err != nil {
			return nil, fmt.Errorf("registering mould client metrics: %w", err)
		}
	}
	return metrics, nil
}

func (m *Metrics) observeOutcome(err error) {
	if m == nil {
		return
	}
	label := outcomeSuccess
	if err != nil {
		label = "unknown"
		if kind, ok := FailureKindOf(err); ok {
			label = kind.String()
		}
	}
	m.requests.WithLabelValues(label).Inc()
}

func (m *Metrics) observeCanceled() {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(outcomeCanceled).Inc()
}

func (m *Metrics) observeLatency(elapsed time.Duration) {
	if m == nil {
		return
	}
	m.latency.Observe(elapsed.Seconds())
}

func (m *Metrics) observeUnmatched() {
	if m == nil {
		return
	}
	m.unmatched.Inc()
}

func (m *Metrics) setStatus(status Status) {
	if m == nil {
		return
	}
	if status == Connected {
		m.connected.Set(1)
	} else {
		m.connected.Set(0)
	}
}
