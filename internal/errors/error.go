package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind classifies an SSR render failure.
type Kind string

const (
	KindNotConfigured    Kind = "not_configured"
	KindUnreachable      Kind = "transport_unreachable"
	KindParse            Kind = "parse"
	KindRuntime          Kind = "runtime"
	KindUnexpectedStatus Kind = "unexpected_status"
)

// Location represents a source code location reported by the rendering
// process.
type Location struct {
	File   string
	Line   int
	Column int
}

// String returns the location as a formatted string.
func (l *Location) String() string {
	if l == nil {
		return ""
	}
	if l.Column > 0 {
		return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// RenderError is a structured SSR failure. Only the fields relevant to
// its Kind are populated.
type RenderError struct {
	// Kind is the failure classification.
	Kind Kind

	// Message is a short description of the failure.
	Message string

	// Location is where the rendering process located a parse error.
	Location *Location

	// Frame is the source frame the rendering process printed around
	// the parse error, verbatim.
	Frame string

	// Stack is the JavaScript stack trace for runtime errors.
	Stack string

	// Target is the host:port or pool name that could not be reached.
	Target string

	// Detail carries the underlying reason for unreachable targets.
	Detail string

	// Status is the HTTP status for unexpected responses.
	Status int

	// Body is the raw response body for unexpected responses.
	Body string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *RenderError) Error() string {
	switch e.Kind {
	case KindUnreachable:
		if e.Detail != "" {
			return fmt.Sprintf("ssr: %s unreachable: %s", e.Target, e.Detail)
		}
		return fmt.Sprintf("ssr: %s unreachable", e.Target)
	case KindUnexpectedStatus:
		return fmt.Sprintf("ssr: unexpected response (status %d): %s", e.Status, e.Message)
	default:
		return fmt.Sprintf("ssr: %s", e.Message)
	}
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *RenderError) Unwrap() error {
	return e.Wrapped
}

// Wrap attaches an underlying error.
func (e *RenderError) Wrap(err error) *RenderError {
	e.Wrapped = err
	return e
}

// NotConfigured reports an operator misconfiguration. These are never
// retried; the message tells the operator what to set.
func NotConfigured(format string, args ...any) *RenderError {
	return &RenderError{
		Kind:    KindNotConfigured,
		Message: fmt.Sprintf(format, args...),
	}
}

// Unreachable reports that the rendering backend could not be reached.
func Unreachable(target string, cause error) *RenderError {
	e := &RenderError{
		Kind:    KindUnreachable,
		Message: "rendering backend unreachable",
		Target:  target,
		Wrapped: cause,
	}
	if cause != nil {
		e.Detail = cause.Error()
	}
	return e
}

// Parse reports a compile/parse failure in the rendered component's
// source, as located by the rendering process.
func Parse(message string, loc *Location, frame string) *RenderError {
	return &RenderError{
		Kind:     KindParse,
		Message:  message,
		Location: loc,
		Frame:    frame,
	}
}

// Runtime reports a throw inside the rendering process. The first line
// of the stack doubles as the message.
func Runtime(stack string) *RenderError {
	return &RenderError{
		Kind:    KindRuntime,
		Message: firstLine(stack),
		Stack:   stack,
	}
}

// UnexpectedStatus reports a response this package does not recognize.
// The raw body is kept for diagnosis.
func UnexpectedStatus(status int, body string) *RenderError {
	return &RenderError{
		Kind:    KindUnexpectedStatus,
		Message: firstLine(body),
		Status:  status,
		Body:    body,
	}
}

// As extracts a *RenderError from err, unwrapping as needed.
func As(err error) (*RenderError, bool) {
	var re *RenderError
	if stderrors.As(err, &re) {
		return re, true
	}
	return nil, false
}

// IsKind reports whether err is a *RenderError of the given kind.
func IsKind(err error, kind Kind) bool {
	re, ok := As(err)
	return ok && re.Kind == kind
}

func firstLine(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			return s[:i]
		}
	}
	return s
}
