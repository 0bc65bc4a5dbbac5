// Copyright 2021 The ajax Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package ajax

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsCollector provides Prometheus metrics for the request
// lifecycle of one or more controllers. It is safe for concurrent use,
// and a nil *MetricsCollector records nothing.
type MetricsCollector struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	activeRequests  *prometheus.GaugeVec
	staleTotal      *prometheus.CounterVec
	autoFiresTotal  *prometheus.CounterVec
}

// NewMetricsCollector creates a metrics collector on the default
// registerer.
func NewMetricsCollector() *MetricsCollector {
	return NewMetricsCollectorWithRegistry(prometheus.DefaultRegisterer)
}

// NewMetricsCollectorWithRegistry creates a collector using the
// supplied registerer.
func NewMetricsCollectorWithRegistry(registry prometheus.Registerer) *MetricsCollector {
	return &MetricsCollector{
		requestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "ajax_requests_total",
				Help: "Total number of settled requests by outcome",
			},
			[]string{"component", "method", "outcome"},
		),
		requestDuration: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ajax_request_duration_seconds",
				Help:    "Duration of requests from creation to settlement in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"component", "method"},
		),
		activeRequests: promauto.With(registry).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ajax_active_requests",
				Help: "Number of requests created but not yet discarded",
			},
			[]string{"component"},
		),
		staleTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "ajax_stale_results_total",
				Help: "Total number of results ignored because a newer request superseded them",
			},
			[]string{"component"},
		),
		autoFiresTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "ajax_auto_fires_total",
				Help: "Total number of requests generated automatically after a configuration change",
			},
			[]string{"component"},
		),
	}
}

// RecordRequest records the outcome and duration of a settled request.
func (mc *MetricsCollector) RecordRequest(component, method, outcome string, duration time.Duration) {
	if mc == nil {
		return
	}
	mc.requestsTotal.WithLabelValues(component, method, outcome).Inc()
	mc.requestDuration.WithLabelValues(component, method).Observe(duration.Seconds())
}

// RecordActive adds delta to the number of active requests.
func (mc *MetricsCollector) RecordActive(component string, delta float64) {
	if mc == nil {
		return
	}
	mc.activeRequests.WithLabelValues(component).Add(delta)
}

// RecordStale records a result that was not published.
func (mc *MetricsCollector) RecordStale(component string) {
	if mc == nil {
		return
	}
	mc.staleTotal.WithLabelValues(component).Inc()
}

// RecordAutoFire records an automatically generated request.
func (mc *MetricsCollector) RecordAutoFire(component string) {
	if mc == nil {
		return
	}
	mc.autoFiresTotal.WithLabelValues(component).Inc()
}
