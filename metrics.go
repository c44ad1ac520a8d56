/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package entitymapper

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records repository operations. A nil *Metrics records nothing.
type Metrics struct {
	operations     *prometheus.CounterVec
	latency        *prometheus.HistogramVec
	decodeFailures *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "entitymapper_operations_total",
			Help: "Repository operations by kind, operation and outcome",
		}, []string{"kind", "op", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "entitymapper_operation_duration_seconds",
			Help:    "Latency of repository operations",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 16),
		}, []string{"kind", "op"}),
		decodeFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "entitymapper_decode_failures_total",
			Help: "Stored documents that could not be decoded",
		}, []string{"kind"}),
	}
	for _, c := range []prometheus.Collector{m.operations, m.latency, m.decodeFailures} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observe(kind, op string, start time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.operations.WithLabelValues(kind, op, outcome).Inc()
	m.latency.WithLabelValues(kind, op).Observe(time.Since(start).Seconds())
}

func (m *Metrics) decodeFailed(kind string) {
	if m == nil {
		return
	}
	m.decodeFailures.WithLabelValues(kind).Inc()
}
