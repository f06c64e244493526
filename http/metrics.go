package http

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sagarc03/stowgate"
)

// Metrics exposes Prometheus collectors for gateway traffic.
type Metrics struct {
	requestDuration  *prometheus.HistogramVec
	upstreamFailures *prometheus.CounterVec
}

// NewMetrics registers the gateway collectors on reg. Collectors already
// registered under the same names are reused, so several handlers may share
// one registry.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "stowgate",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests handled by the gateway.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
	upstreamFailures := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stowgate",
			Subsystem: "upstream",
			Name:      "failures_total",
			Help:      "Upstream provider failures by operation and kind.",
		},
		[]string{"operation", "kind"},
	)

	if err := reg.Register(requestDuration); err != nil {
		var already prometheus.AlreadyRegisteredError
		if !errors.As(err, &already) {
			return nil, err
		}
		requestDuration = already.ExistingCollector.(*prometheus.HistogramVec)
	}
	if err := reg.Register(upstreamFailures); err != nil {
		var already prometheus.AlreadyRegisteredError
		if !errors.As(err, &already) {
			return nil, err
		}
		upstreamFailures = already.ExistingCollector.(*prometheus.CounterVec)
	}

	return &Metrics{
		requestDuration:  requestDuration,
		upstreamFailures: upstreamFailures,
	}, nil
}

// ObserveRequest records one handled request.
func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

// IncUpstreamFailure counts err when it is an upstream failure.
func (m *Metrics) IncUpstreamFailure(err error) {
	if m == nil {
		return
	}
	var failure *stowgate.UpstreamFailure
	if !errors.As(err, &failure) {
		return
	}
	m.upstreamFailures.WithLabelValues(failure.Operation, string(failure.Kind)).Inc()
}
