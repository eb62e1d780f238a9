// Package middleware provides net/http middleware for Reflow servers:
// Prometheus request metrics and OpenTelemetry tracing.
//
// Both constructors return standard func(http.Handler) http.Handler
// values, so they compose with chi or any mux that accepts middleware:
//
//	r := chi.NewRouter()
//	r.Use(middleware.OpenTelemetry())
//	r.Use(middleware.Prometheus(middleware.WithNamespace("reflow")))
package middleware
