// Package metrics exposes the analyzer's operational counters through
// client_golang, the way the rest of the dependency corpus wires a
// prometheus registry behind an HTTP endpoint instead of hand-rolling
// counters.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds the counters and gauges exposed on /metrics.
// cmd/decode and cmd/serve update FramesDecoded and SyncErrors as they
// run; CRCErrors and SamplerIdle are registered and exported, but
// nothing in cmd updates them.
type Registry struct {
	reg *prometheus.Registry

	FramesDecoded prometheus.Counter
	CRCErrors     prometheus.Counter
	SyncErrors    prometheus.Counter
	SamplerIdle   prometheus.Gauge
}

// New creates a fresh registry with all metrics registered.
func New() *Registry {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Registry{
		reg: reg,
		FramesDecoded: factory.NewCounter(prometheus.CounterOpts{
			Name: "flexray_frames_decoded_total",
			Help: "Number of FlexRay frames successfully decoded.",
		}),
		CRCErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "flexray_crc_errors_total",
			Help: "Number of frames committed with a CRC mismatch flag.",
		}),
		SyncErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "flexray_sync_errors_total",
			Help: "Number of times the sampler lost synchronization mid-frame.",
		}),
		SamplerIdle: factory.NewGauge(prometheus.GaugeOpts{
			Name: "flexray_sampler_idle_seconds",
			Help: "Seconds since the last edge was observed on the input channel.",
		}),
	}
}

// Handler returns the HTTP handler to mount at the configured metrics
// listen address.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
