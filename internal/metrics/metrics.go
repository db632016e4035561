// Package metrics exposes resolution counters in the Prometheus format.
package metrics

import (
	"net/http"
	"time"

	"github.com/fortuna/matchday/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder counts fixture and logo resolutions by the tier that produced them.
type Recorder struct {
	registry   *prometheus.Registry
	fixtures   *prometheus.CounterVec
	logos      *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	httpStatus *prometheus.CounterVec
}

// NewRecorder creates a recorder with its own registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	r := &Recorder{
		registry: reg,
		fixtures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "matchday",
			Name:      "fixture_resolutions_total",
			Help:      "Fixture resolutions by resolution source.",
		}, []string{"source"}),
		logos: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "matchday",
			Name:      "logo_resolutions_total",
			Help:      "Logo lookups by waterfall tier.",
		}, []string{"source"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "matchday",
			Name:      "resolution_duration_seconds",
			Help:      "Time spent resolving a fixture or a logo.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"kind"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "matchday",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method and status code.",
		}, []string{"method", "code"}),
	}
	reg.MustRegister(r.fixtures, r.logos, r.duration, r.httpStatus,
		collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return r
}

// ObserveFixture records one fixture resolution.
func (r *Recorder) ObserveFixture(source domain.Source, took time.Duration) {
	if r == nil {
		return
	}
	r.fixtures.WithLabelValues(string(source)).Inc()
	r.duration.WithLabelValues("fixture").Observe(took.Seconds())
}

// ObserveLogo records one logo lookup.
func (r *Recorder) ObserveLogo(source domain.LogoSource, took time.Duration) {
	if r == nil {
		return
	}
	r.logos.WithLabelValues(string(source)).Inc()
	r.duration.WithLabelValues("logo").Observe(took.Seconds())
}

// ObserveHTTP records a served request.
func (r *Recorder) ObserveHTTP(method, code string) {
	if r == nil {
		return
	}
	r.httpStatus.WithLabelValues(method, code).Inc()
}

// Handler serves the registry.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mainly for tests.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}
