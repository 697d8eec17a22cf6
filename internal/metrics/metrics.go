// Package metrics exposes editor counters and render timings to Prometheus.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ironsheep/image-tune/internal/gateway"
)

const namespace = "image_tune"

// Result label values.
const (
	ResultOK        = "ok"
	ResultError     = "error"
	ResultCancelled = "cancelled"
)

// Metrics holds the editor collectors. All collectors live on the registry
// passed to New, so tests can use a fresh registry each time.
type Metrics struct {
	gatherer prometheus.Gatherer

	transitions    *prometheus.CounterVec
	renders        *prometheus.CounterVec
	renderDuration prometheus.Histogram
	stale          prometheus.Counter
	saves          *prometheus.CounterVec
}

// New registers the editor collectors on reg.
func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		gatherer: reg,
		transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "Edit session transitions by name and result.",
		}, []string{"transition", "result"}),
		renders: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "renders_total",
			Help:      "Preview renders by result.",
		}, []string{"result"}),
		renderDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Time spent rendering a saturation preview.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		stale: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_previews_total",
			Help:      "Finished renders dropped because a newer request superseded them.",
		}),
		saves: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "saves_total",
			Help:      "Save attempts by result.",
		}, []string{"result"}),
	}
}

// Result maps an error to a result label.
func Result(err error) string {
	switch {
	case err == nil:
		return ResultOK
	case errors.Is(err, gateway.ErrCancelled):
		return ResultCancelled
	default:
		return ResultError
	}
}

// ObserveTransition counts one session transition.
func (m *Metrics) ObserveTransition(transition string, err error) {
	m.transitions.WithLabelValues(transition, Result(err)).Inc()
}

// ObserveRender records a finished render, stale or not.
func (m *Metrics) ObserveRender(elapsed time.Duration, err error) {
	m.renders.WithLabelValues(Result(err)).Inc()
	m.renderDuration.Observe(elapsed.Seconds())
}

// ObserveStale counts a dropped render.
func (m *Metrics) ObserveStale() {
	m.stale.Inc()
}

// ObserveSave counts one save attempt.
func (m *Metrics) ObserveSave(err error) {
	m.saves.WithLabelValues(Result(err)).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
