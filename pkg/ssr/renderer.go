package ssr

import (
	"context"
	"log/slog"

	"github.com/vuego-dev/vuego/internal/errors"
)

// Policy decides what a failed SSR attempt does to the enclosing render.
type Policy int

const (
	// PolicyFallback suppresses the failure and degrades to a
	// client-only mount. The error is still logged and exposed on the
	// Result for observability.
	PolicyFallback Policy = iota

	// PolicyPropagate returns the failure to the caller, making the
	// enclosing page render fail visibly.
	PolicyPropagate
)

// Outcome is the terminal state of one render attempt.
type Outcome int

const (
	// OutcomeSkipped means SSR was disabled for this call; the client
	// mounts the component without server markup. Not an error.
	OutcomeSkipped Outcome = iota

	// OutcomeRendered means the transport returned markup.
	OutcomeRendered

	// OutcomeSuppressed means the attempt failed and PolicyFallback
	// converted it into a client-only mount.
	OutcomeSuppressed

	// OutcomePropagated means the attempt failed and the error was
	// returned to the caller.
	OutcomePropagated
)

// String returns the outcome label used in logs and metric labels.
func (o Outcome) String() string {
	switch o {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeRendered:
		return "rendered"
	case OutcomeSuppressed:
		return "suppressed"
	case OutcomePropagated:
		return "propagated"
	default:
		return "unknown"
	}
}

// Result is what a render attempt produced. Err is set for both failed
// outcomes so callers and middleware can inspect or log the failure
// regardless of policy.
type Result struct {
	Markup  string
	Outcome Outcome
	Err     *errors.RenderError
}

// RenderFunc is the shape of a transport render call, used by
// middleware to wrap the attempt.
type RenderFunc func(ctx context.Context, req *Request) (string, error)

// Middleware wraps a render attempt (metrics, tracing).
type Middleware func(next RenderFunc) RenderFunc

// Renderer orchestrates one SSR attempt per component render: it
// decides whether to attempt at all, invokes the transport through the
// middleware chain, and applies the failure policy. It holds no mutable
// state and is safe for concurrent use.
type Renderer struct {
	transport Transport
	policy    Policy
	enabled   bool
	logger    *slog.Logger
	render    RenderFunc
}

// RendererOption configures a Renderer.
type RendererOption func(*Renderer)

// WithPolicy sets the default failure policy. Default: PolicyFallback.
func WithPolicy(p Policy) RendererOption {
	return func(r *Renderer) {
		r.policy = p
	}
}

// WithEnabled sets whether SSR is attempted by default. Default: true
// when a transport is present.
func WithEnabled(enabled bool) RendererOption {
	return func(r *Renderer) {
		r.enabled = enabled
	}
}

// WithLogger sets the logger for suppressed failures.
func WithLogger(l *slog.Logger) RendererOption {
	return func(r *Renderer) {
		r.logger = l
	}
}

// WithMiddleware wraps the transport call. Middleware runs in the
// order given, outermost first.
func WithMiddleware(mws ...Middleware) RendererOption {
	return func(r *Renderer) {
		for i := len(mws) - 1; i >= 0; i-- {
			r.render = mws[i](r.render)
		}
	}
}

// NewRenderer creates a renderer over the given transport. A nil
// transport means SSR is not configured: every call is skipped.
func NewRenderer(t Transport, opts ...RendererOption) *Renderer {
	r := &Renderer{
		transport: t,
		policy:    PolicyFallback,
		enabled:   t != nil,
	}
	if t != nil {
		r.render = t.Render
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// callSettings are the per-call overrides.
type callSettings struct {
	enabled bool
	policy  Policy
}

// CallOption overrides renderer defaults for a single render.
type CallOption func(*callSettings)

// WithSSR enables or disables the SSR attempt for this call only.
func WithSSR(enabled bool) CallOption {
	return func(s *callSettings) {
		s.enabled = enabled
	}
}

// WithFailurePolicy overrides the failure policy for this call only.
func WithFailurePolicy(p Policy) CallOption {
	return func(s *callSettings) {
		s.policy = p
	}
}

// Render performs one SSR attempt. It never retries; a transient
// failure is retried naturally by the next render cycle. The returned
// error is non-nil only for OutcomePropagated, and for caller-side
// precondition violations (unserializable props), which propagate
// under every policy.
func (r *Renderer) Render(ctx context.Context, req *Request, opts ...CallOption) (Result, error) {
	settings := callSettings{
		enabled: r.enabled && r.transport != nil,
		policy:  r.policy,
	}
	for _, opt := range opts {
		opt(&settings)
	}

	if !settings.enabled || r.transport == nil {
		return Result{Outcome: OutcomeSkipped}, nil
	}

	markup, err := r.render(ctx, req)
	if err == nil {
		return Result{Markup: markup, Outcome: OutcomeRendered}, nil
	}

	re, ok := errors.As(err)
	if !ok {
		// Serialization failures and other caller-side precondition
		// violations are not render failures; no policy applies.
		return Result{Outcome: OutcomePropagated}, err
	}

	if settings.policy == PolicyPropagate {
		return Result{Outcome: OutcomePropagated, Err: re}, re
	}

	r.log().Warn("ssr failed, falling back to client-only mount",
		"component", req.Name,
		"kind", string(re.Kind),
		"error", re.FormatCompact(),
	)
	return Result{Outcome: OutcomeSuppressed, Err: re}, nil
}

// Transport returns the configured transport, or nil when SSR is not
// configured.
func (r *Renderer) Transport() Transport {
	return r.transport
}

func (r *Renderer) log() *slog.Logger {
	if r.logger != nil {
		return r.logger
	}
	return slog.Default()
}
