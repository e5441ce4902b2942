// Package metrics exposes Prometheus metrics for prune runs.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vfa-khuongdv/lazy-prune/pkg/retention"
)

const namespace = "lazy_prune"

// Run statuses used as the status label of runs_total
const (
	StatusSuccess             = "success"
	StatusConfigurationError  = "configuration_error"
	StatusAuthenticationError = "authentication_error"
	StatusRequestError        = "request_error"
	StatusCanceled            = "canceled"
)

// Collector records prune run metrics on its own registry
type Collector struct {
	registry *prometheus.Registry

	runs           *prometheus.CounterVec
	deleted        prometheus.Counter
	deleteFailures prometheus.Counter
	retained       prometheus.Gauge
	lastRun        prometheus.Gauge
	duration       prometheus.Histogram
}

// NewCollector creates a collector. A nil registry gets a fresh one.
func NewCollector(registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	c := &Collector{
		registry: registry,
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Prune runs by outcome.",
		}, []string{"status"}),
		deleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deleted_total",
			Help:      "Backups deleted.",
		}),
		deleteFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "delete_failures_total",
			Help:      "Delete calls that failed.",
		}),
		retained: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "retained_files",
			Help:      "Backups kept by the last run.",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Prune run duration.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
	}

	registry.MustRegister(c.runs, c.deleted, c.deleteFailures, c.retained, c.lastRun, c.duration)
	return c
}

// Registry returns the registry the collector writes to
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Observe records one finished run. result may be nil when the run failed before listing.
func (c *Collector) Observe(result *retention.Result, err error, elapsed time.Duration) {
	c.runs.WithLabelValues(Status(err)).Inc()
	c.duration.Observe(elapsed.Seconds())
	c.lastRun.SetToCurrentTime()

	if result == nil {
		return
	}
	c.retained.Set(float64(len(result.Retained)))
	c.deleteFailures.Add(float64(len(result.Failed)))
	if !result.DryRun {
		c.deleted.Add(float64(len(result.Deleted)))
	}
}

// Status maps a run error to the status label
func Status(err error) string {
	switch {
	case err == nil:
		return StatusSuccess
	case errors.Is(err, retention.ErrConfiguration):
		return StatusConfigurationError
	case errors.Is(err, retention.ErrAuthentication):
		return StatusAuthenticationError
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return StatusCanceled
	default:
		return StatusRequestError
	}
}

// Handler returns an HTTP handler for the metrics endpoint
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	})
}
