package middleware

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	vgerrors "github.com/vuego-dev/vuego/internal/errors"
	"github.com/vuego-dev/vuego/pkg/ssr"
)

// MetricsConfig configures the Prometheus metrics middleware.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "vuego").
	Namespace string

	// Subsystem is the metrics subsystem (default: "ssr").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for render duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus metrics middleware.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "vuego",
		Subsystem: "ssr",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// metrics holds the Prometheus metrics for server-side rendering.
type metrics struct {
	rendersTotal   *prometheus.CounterVec
	renderDuration *prometheus.HistogramVec
	renderErrors   *prometheus.CounterVec
}

// globalMetrics is the singleton metrics instance.
// Created on first call to Prometheus().
var (
	globalMetrics   *metrics
	globalMetricsMu sync.Mutex
)

func initMetrics(config MetricsConfig) *metrics {
	factory := promauto.With(config.Registry)

	return &metrics{
		rendersTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "renders_total",
			Help:        "Total number of SSR render calls by component and status",
			ConstLabels: config.ConstLabels,
		}, []string{"component", "status"}),

		renderDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "render_duration_seconds",
			Help:        "SSR render duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"component"}),

		renderErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "render_errors_total",
			Help:        "Total number of SSR render failures by component and error kind",
			ConstLabels: config.ConstLabels,
		}, []string{"component", "kind"}),
	}
}

// Prometheus creates render middleware that collects Prometheus metrics
// for every SSR call.
//
// Metrics collected:
//   - vuego_ssr_renders_total: Counter of renders by component and status
//   - vuego_ssr_render_duration_seconds: Histogram of render duration
//   - vuego_ssr_render_errors_total: Counter of failures by component and error kind
//
// Example:
//
//	r := ssr.NewRenderer(transport,
//	    ssr.WithMiddleware(middleware.Prometheus()),
//	)
//
//	// Expose metrics endpoint
//	http.Handle("/metrics", promhttp.Handler())
func Prometheus(opts ...MetricsOption) ssr.Middleware {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	// Initialize metrics once
	globalMetricsMu.Lock()
	if globalMetrics == nil {
		globalMetrics = initMetrics(config)
	}
	m := globalMetrics
	globalMetricsMu.Unlock()

	return func(next ssr.RenderFunc) ssr.RenderFunc {
		return func(ctx context.Context, req *ssr.Request) (string, error) {
			start := time.Now()

			markup, err := next(ctx, req)

			m.renderDuration.WithLabelValues(req.Name).Observe(time.Since(start).Seconds())

			status := "ok"
			if err != nil {
				status = "error"
				m.renderErrors.WithLabelValues(req.Name, errorKind(err)).Inc()
			}
			m.rendersTotal.WithLabelValues(req.Name, status).Inc()

			return markup, err
		}
	}
}

// errorKind returns a bounded label for the error. Structured render
// errors carry their kind; anything else is "internal".
func errorKind(err error) string {
	if re, ok := vgerrors.As(err); ok {
		return string(re.Kind)
	}
	return "internal"
}

// Collector exposes the metrics for custom registrations and tests.
type Collector struct {
	rendersTotal   *prometheus.CounterVec
	renderDuration *prometheus.HistogramVec
	renderErrors   *prometheus.CounterVec
}

// GetMetrics returns the global metrics collector.
// Returns nil if Prometheus middleware has not been initialized.
func GetMetrics() *Collector {
	globalMetricsMu.Lock()
	defer globalMetricsMu.Unlock()
	if globalMetrics == nil {
		return nil
	}
	return &Collector{
		rendersTotal:   globalMetrics.rendersTotal,
		renderDuration: globalMetrics.renderDuration,
		renderErrors:   globalMetrics.renderErrors,
	}
}
