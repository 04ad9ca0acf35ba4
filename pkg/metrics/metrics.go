// Package metrics provides Prometheus metrics export for scalar maintenance.
package metrics

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the process-wide metrics registry.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// Registry holds all maintenance metrics.
type Registry struct {
	reg        *prometheus.Registry
	stepRuns   *prometheus.CounterVec
	stepDur    *prometheus.HistogramVec
	stepErrors *prometheus.CounterVec
	lockWait   prometheus.Histogram
}

// NewRegistry creates a registry with every scalar collector registered.
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		stepRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scalar_maintenance_step_runs_total",
			Help: "Maintenance step runs by area and result (succeeded, failed, skipped).",
		}, []string{"area", "result"}),
		stepDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "scalar_maintenance_step_duration_seconds",
			Help:    "Wall time of maintenance step bodies.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 14),
		}, []string{"area"}),
		stepErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scalar_maintenance_step_errors_total",
			Help: "Error events emitted by maintenance steps.",
		}, []string{"area"}),
		lockWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "scalar_object_cache_lock_wait_seconds",
			Help:    "Time spent waiting for the object cache lock.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
	}
	r.reg.MustRegister(r.stepRuns, r.stepDur, r.stepErrors, r.lockWait)
	return r
}

// Gatherer exposes the underlying registry for scraping and tests.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// RecordStep records one maintenance step run.
func (r *Registry) RecordStep(area, result string, duration time.Duration, errorCount int) {
	r.stepRuns.WithLabelValues(area, result).Inc()
	r.stepDur.WithLabelValues(area).Observe(duration.Seconds())
	if errorCount > 0 {
		r.stepErrors.WithLabelValues(area).Add(float64(errorCount))
	}
}

// RecordLockWait records how long the object cache lock took to acquire.
func (r *Registry) RecordLockWait(d time.Duration) {
	r.lockWait.Observe(d.Seconds())
}

// Handler returns an HTTP handler serving the registry in Prometheus format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// StartServer serves /metrics for the default registry until the listener fails.
func StartServer(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Default().Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
