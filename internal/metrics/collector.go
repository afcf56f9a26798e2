// Package metrics exposes prometheus instrumentation for measurement sessions and probes.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns its registry; a nil *Collector is a valid no-op
type Collector struct {
	registry *prometheus.Registry

	sessionsStarted  prometheus.Counter
	sessionsFinished *prometheus.CounterVec
	probesTotal      *prometheus.CounterVec
	probeRTT         *prometheus.HistogramVec
	targetQuality    *prometheus.CounterVec
}

// New creates a collector with a private registry
func New() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,

		sessionsStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "latency_sessions_started_total",
			Help: "Total number of measurement sessions started",
		}),

		sessionsFinished: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "latency_sessions_finished_total",
			Help: "Total number of measurement sessions by terminal outcome",
		}, []string{"outcome"}),

		probesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "latency_probes_total",
			Help: "Total number of probe attempts",
		}, []string{"protocol", "result"}),

		probeRTT: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "latency_probe_rtt_milliseconds",
			Help:    "Round trip time of successful probes",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		}, []string{"protocol"}),

		targetQuality: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "latency_target_quality_total",
			Help: "Classified targets by quality tier",
		}, []string{"tier"}),
	}
}

// Handler serves the collector registry
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// Registry returns the underlying registry
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

func (c *Collector) SessionStarted() {
	if c == nil {
		return
	}
	c.sessionsStarted.Inc()
}

// SessionFinished records a terminal outcome: completed, degraded or failed
func (c *Collector) SessionFinished(outcome string) {
	if c == nil {
		return
	}
	c.sessionsFinished.WithLabelValues(outcome).Inc()
}

func (c *Collector) ObserveProbe(protocol string, success bool, rttMs float64) {
	if c == nil {
		return
	}
	result := "lost"
	if success {
		result = "ok"
		c.probeRTT.WithLabelValues(protocol).Observe(rttMs)
	}
	c.probesTotal.WithLabelValues(protocol, result).Inc()
}

func (c *Collector) TargetClassified(tier string) {
	if c == nil {
		return
	}
	c.targetQuality.WithLabelValues(tier).Inc()
}
