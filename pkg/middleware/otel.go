package middleware

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	vgerrors "github.com/vuego-dev/vuego/internal/errors"
	"github.com/vuego-dev/vuego/pkg/ssr"
)

// Default tracer name for VueGo applications.
const defaultTracerName = "vuego"

// OTelConfig configures the OpenTelemetry middleware.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "vuego").
	TracerName string

	// Filter determines which renders to trace.
	// Return true to trace the render, false to skip.
	// If nil, all renders are traced.
	Filter func(req *ssr.Request) bool

	// AttributeExtractor extracts custom attributes from the request.
	// Called for each traced render.
	AttributeExtractor func(req *ssr.Request) []attribute.KeyValue

	// tracer is the resolved tracer instance.
	tracer trace.Tracer
}

// OTelOption configures the OpenTelemetry middleware.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithRenderFilter sets a filter function for renders.
func WithRenderFilter(filter func(req *ssr.Request) bool) OTelOption {
	return func(c *OTelConfig) {
		c.Filter = filter
	}
}

// WithAttributeExtractor sets a custom attribute extractor.
func WithAttributeExtractor(extractor func(req *ssr.Request) []attribute.KeyValue) OTelOption {
	return func(c *OTelConfig) {
		c.AttributeExtractor = extractor
	}
}

func defaultOTelConfig() OTelConfig {
	return OTelConfig{
		TracerName: defaultTracerName,
	}
}

// OpenTelemetry creates render middleware that traces every SSR call.
//
// The middleware:
//   - Creates a span per render with the component name and payload sizes
//   - Propagates the span context to the transport for downstream calls
//   - Records errors, their kind, and sets span status
//
// The tracer uses the global OpenTelemetry tracer provider. Configure it
// in your main() before starting the server:
//
//	tp := sdktrace.NewTracerProvider(
//	    sdktrace.WithBatcher(exporter),
//	    sdktrace.WithResource(resource.NewWithAttributes(
//	        semconv.SchemaURL,
//	        semconv.ServiceName("my-app"),
//	    )),
//	)
//	otel.SetTracerProvider(tp)
func OpenTelemetry(opts ...OTelOption) ssr.Middleware {
	config := defaultOTelConfig()
	for _, opt := range opts {
		opt(&config)
	}

	// Resolve tracer from global provider
	config.tracer = otel.Tracer(config.TracerName)

	return func(next ssr.RenderFunc) ssr.RenderFunc {
		return func(ctx context.Context, req *ssr.Request) (string, error) {
			if config.Filter != nil && !config.Filter(req) {
				return next(ctx, req)
			}

			attrs := []attribute.KeyValue{
				attribute.String("vuego.component", req.Name),
				attribute.Int("vuego.props_count", len(req.Props)),
				attribute.Int("vuego.slots_count", len(req.Slots)),
			}
			if config.AttributeExtractor != nil {
				attrs = append(attrs, config.AttributeExtractor(req)...)
			}

			spanCtx, span := config.tracer.Start(
				ctx,
				fmt.Sprintf("ssr.render %s", req.Name),
				trace.WithSpanKind(trace.SpanKindClient),
				trace.WithAttributes(attrs...),
			)
			defer span.End()

			markup, err := next(spanCtx, req)

			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				span.SetAttributes(attribute.String("vuego.error_kind", errorKindAttr(err)))
			} else {
				span.SetStatus(codes.Ok, "")
				span.SetAttributes(attribute.Int("vuego.markup_bytes", len(markup)))
			}

			return markup, err
		}
	}
}

func errorKindAttr(err error) string {
	if re, ok := vgerrors.As(err); ok {
		return string(re.Kind)
	}
	return "internal"
}
