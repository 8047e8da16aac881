// Package middleware provides production-grade render middleware for
// VueGo server-side rendering.
//
// This package includes:
//   - OpenTelemetry distributed tracing middleware
//   - Prometheus metrics middleware
//
// Both produce ssr.Middleware values that wrap the transport call, so
// they observe every render attempt before the fallback policy is
// applied.
//
// # Prometheus Metrics
//
//	r := ssr.NewRenderer(transport,
//	    ssr.WithMiddleware(middleware.Prometheus()),
//	)
//
// Then expose metrics on a separate port:
//
//	http.Handle("/metrics", promhttp.Handler())
//	go http.ListenAndServe(":9090", nil)
//
// # OpenTelemetry Tracing
//
//	r := ssr.NewRenderer(transport,
//	    ssr.WithMiddleware(middleware.OpenTelemetry(
//	        middleware.WithTracerName("my-app"),
//	    )),
//	)
//
// The span context is propagated into the transport call, so the HTTP
// client or worker pool request inherits the trace.
package middleware
