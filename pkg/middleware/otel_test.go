package middleware

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"

	vgerrors "github.com/vuego-dev/vuego/internal/errors"
	"github.com/vuego-dev/vuego/pkg/ssr"
)

func TestOpenTelemetryMiddleware_PassesThrough(t *testing.T) {
	var gotName string
	mw := OpenTelemetry(
		WithTracerName("test"),
		WithAttributeExtractor(func(req *ssr.Request) []attribute.KeyValue {
			return []attribute.KeyValue{attribute.String("test.attr", "ok")}
		}),
	)
	render := mw(func(ctx context.Context, req *ssr.Request) (string, error) {
		gotName = req.Name
		if ctx == nil {
			t.Fatal("expected span context to be propagated")
		}
		return "<div>hi</div>", nil
	})

	markup, err := render(context.Background(), testRequest(t, "Greeting"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if markup != "<div>hi</div>" {
		t.Errorf("markup = %q", markup)
	}
	if gotName != "Greeting" {
		t.Errorf("component = %q", gotName)
	}
}

func TestOpenTelemetryMiddleware_ErrorPropagates(t *testing.T) {
	want := vgerrors.Runtime("Error: boom")
	mw := OpenTelemetry()
	render := mw(func(ctx context.Context, req *ssr.Request) (string, error) {
		return "", want
	})

	_, err := render(context.Background(), testRequest(t, "Counter"))
	if err != want {
		t.Errorf("err = %v, want original error", err)
	}
}

func TestOpenTelemetryMiddleware_FilterSkipsTracing(t *testing.T) {
	called := false
	mw := OpenTelemetry(WithRenderFilter(func(req *ssr.Request) bool {
		return req.Name != "Healthz"
	}))
	render := mw(func(ctx context.Context, req *ssr.Request) (string, error) {
		called = true
		return "", nil
	})

	if _, err := render(context.Background(), testRequest(t, "Healthz")); err != nil {
		t.Fatal(err)
	}
	if !called {
		t.Error("filtered render never reached transport")
	}
}
