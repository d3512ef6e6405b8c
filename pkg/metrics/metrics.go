// Package metrics exports Prometheus counters for page recovery.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/entrhq/gracefulpage/pkg/gracefulpage"
)

const namespace = "gracefulpage"

// Recorder holds the collectors registered for one process.
type Recorder struct {
	recovered   *prometheus.CounterVec
	navigations *prometheus.HistogramVec
}

// NewRecorder registers the collectors with reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		recovered: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recovered_errors_total",
			Help:      "Engine errors swallowed by the recovery loop, by kind and action.",
		}, []string{"kind", "action"}),
		navigations: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "navigation_duration_seconds",
			Help:      "Wall time of Goto calls including retries, by outcome.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}, []string{"outcome"}),
	}
}

// OnError counts err and then passes it to next, if any. Use the result as
// gracefulpage.Options.OnError.
func (r *Recorder) OnError(next func(error)) func(error) {
	return func(err error) {
		kind := gracefulpage.KindOf(err)
		r.recovered.WithLabelValues(kind.String(), kind.Action().String()).Inc()
		if next != nil {
			next(err)
		}
	}
}

// ObserveNavigation records a Goto that took d and ended with err.
func (r *Recorder) ObserveNavigation(d time.Duration, err error) {
	r.navigations.WithLabelValues(outcome(err)).Observe(d.Seconds())
}

func outcome(err error) string {
	if err == nil {
		return "success"
	}
	var gotoErr *gracefulpage.GotoError
	if errors.As(err, &gotoErr) {
		return "rate_limited"
	}
	return "failure"
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
