package ssr

import (
	"encoding/json"

	"github.com/vuego-dev/vuego/internal/errors"
)

// Failure bodies arrive as loosely-typed JSON from the rendering
// runtime. The decoder tries an ordered list of shape predicates and
// falls through to a catch-all, so every input maps to a RenderError
// and nothing is silently dropped.

// viteLocation is the "loc" object inside a Vite parse error.
type viteLocation struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
}

// parseShape matches {"message","loc":{"file","line","column"},"frame"}.
type parseShape struct {
	Message string        `json:"message"`
	Loc     *viteLocation `json:"loc"`
	Frame   string        `json:"frame"`
}

// stackShape matches {"stack"}.
type stackShape struct {
	Stack string `json:"stack"`
}

// decodeFailure maps a failure response body onto a RenderError. The
// body is expected to be {"error": {...}}; anything else becomes an
// UnexpectedStatus carrying the raw body for diagnosis.
func decodeFailure(status int, body []byte) *errors.RenderError {
	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Error) == 0 {
		return errors.UnexpectedStatus(status, string(body))
	}

	if re, ok := decodeErrorReport(envelope.Error); ok {
		return re
	}
	return errors.UnexpectedStatus(status, string(body))
}

// decodeErrorReport decodes a bare error report object (the value of
// the "error" key, or a worker's error payload). Shapes are tried in
// priority order: parse error, then runtime stack.
func decodeErrorReport(raw json.RawMessage) (*errors.RenderError, bool) {
	var ps parseShape
	if err := json.Unmarshal(raw, &ps); err == nil && ps.Message != "" && ps.Loc != nil {
		loc := &errors.Location{
			File:   ps.Loc.File,
			Line:   ps.Loc.Line,
			Column: ps.Loc.Column,
		}
		return errors.Parse(ps.Message, loc, ps.Frame), true
	}

	var ss stackShape
	if err := json.Unmarshal(raw, &ss); err == nil && ss.Stack != "" {
		return errors.Runtime(ss.Stack), true
	}

	return nil, false
}
