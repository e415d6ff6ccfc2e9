// Copyright 2025 The OrthoInsight Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the facade collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry
	analyses *prometheus.CounterVec
	upstream *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ortho",
			Name:      "analyses_total",
			Help:      "Completed analyses by outcome.",
		}, []string{"outcome"}),
		upstream: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ortho",
			Name:      "upstream_request_duration_seconds",
			Help:      "Latency of calls to the inference service and the clinic directory.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"operation"}),
	}

	m.registry.MustRegister(
		m.analyses,
		m.upstream,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) observeUpstream(operation string, start time.Time) {
	m.upstream.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func (m *Metrics) countAnalysis(outcome string) {
	m.analyses.WithLabelValues(outcome).Inc()
}
