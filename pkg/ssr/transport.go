package ssr

import (
	"context"
)

// Transport renders a component request against an external rendering
// runtime. Implementations must be safe for concurrent use; each call
// is an independent request/response exchange.
type Transport interface {
	// Render returns the rendered markup verbatim. Any error is a
	// *errors.RenderError describing the failure.
	Render(ctx context.Context, req *Request) (string, error)

	// Name identifies the transport variant for logs and metrics.
	Name() string
}
