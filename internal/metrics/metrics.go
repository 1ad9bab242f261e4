// Package metrics exposes benchmark measurements as prometheus collectors.
package metrics

import (
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"gitwalk/internal/scheduler"
)

const namespace = "gitwalk"

// Recorder implements scheduler.Observer and graph.ResolveObserver.
type Recorder struct {
	registry *prometheus.Registry

	roundDuration   prometheus.Histogram
	roundsInFlight  prometheus.Gauge
	walkers         *prometheus.CounterVec
	resolveDuration prometheus.Histogram
	resolveErrors   prometheus.Counter
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		roundDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "round_duration_seconds",
			Help:      "Wall time from launching a round's walkers until the last one reported.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 16),
		}),
		roundsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rounds_in_flight",
			Help:      "Rounds whose fan-in barrier has not completed.",
		}),
		walkers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "walkers_total",
			Help:      "Walker tasks by outcome.",
		}, []string{"outcome"}),
		resolveDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "parent_lookup_duration_seconds",
			Help:      "Latency of commit store lookups.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		}),
		resolveErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parent_lookup_errors_total",
			Help:      "Commit store lookups that failed.",
		}),
	}
	r.registry.MustRegister(r.roundDuration, r.roundsInFlight, r.walkers, r.resolveDuration, r.resolveErrors)
	return r
}

func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

func (r *Recorder) RoundStarted(int) {
	r.roundsInFlight.Inc()
}

func (r *Recorder) RoundFinished(result scheduler.RoundResult) {
	r.roundsInFlight.Dec()
	r.roundDuration.Observe(result.Elapsed.Seconds())
	r.walkers.WithLabelValues("reached_root").Add(float64(result.Walkers - result.Failed))
	r.walkers.WithLabelValues("failed").Add(float64(result.Failed))
}

func (r *Recorder) ObserveResolve(d time.Duration, err error) {
	r.resolveDuration.Observe(d.Seconds())
	if err != nil {
		r.resolveErrors.Inc()
	}
}

// WriteFile writes every collected metric to path in the text exposition format.
func (r *Recorder) WriteFile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return errors.Wrapf(err, "failed to write metrics to %s", path)
	}
	return nil
}
