package middleware

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
)

type config struct {
	registry   prometheus.Registerer
	namespace  string
	subsystem  string
	buckets    []float64
	tracerName string
	filter     func(*http.Request) bool
}

func newConfig(opts []Option) *config {
	c := &config{
		registry:   prometheus.DefaultRegisterer,
		namespace:  "reflow",
		subsystem:  "http",
		buckets:    prometheus.DefBuckets,
		tracerName: "github.com/reflow-dev/reflow/pkg/middleware",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Option configures a middleware constructor.
type Option func(*config)

// WithRegistry sets the Prometheus registerer. Defaults to the global one.
func WithRegistry(reg prometheus.Registerer) Option {
	return func(c *config) {
		c.registry = reg
	}
}

// WithNamespace sets the metric namespace. Defaults to "reflow".
func WithNamespace(ns string) Option {
	return func(c *config) {
		c.namespace = ns
	}
}

// WithSubsystem sets the metric subsystem. Defaults to "http".
func WithSubsystem(sub string) Option {
	return func(c *config) {
		c.subsystem = sub
	}
}

// WithBuckets sets the duration histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *config) {
		c.buckets = buckets
	}
}

// WithTracerName sets the tracer name used by OpenTelemetry.
func WithTracerName(name string) Option {
	return func(c *config) {
		c.tracerName = name
	}
}

// WithFilter skips instrumentation for requests the filter rejects.
func WithFilter(keep func(*http.Request) bool) Option {
	return func(c *config) {
		c.filter = keep
	}
}
