package ssr

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/vuego-dev/vuego/internal/errors"
)

// Caller is the worker-pool collaborator contract. The pool owns
// process lifecycle (start/stop/restart); this transport only issues
// blocking call/response exchanges against it.
type Caller interface {
	// Call invokes the exported render entry of module with args and
	// returns the raw JSON result. A call must respect ctx: a dropped
	// caller abandons the wait without corrupting the worker, which is
	// reused for the next call.
	Call(ctx context.Context, module string, args []any) (json.RawMessage, error)
}

// errorPayloader is implemented by pool call errors that carry the
// rendering runtime's structured error report.
type errorPayloader interface {
	ErrorPayload() json.RawMessage
}

// Node renders components through a persistent worker pool that keeps
// the SSR bundle loaded in memory across calls.
type Node struct {
	pool   Caller
	module string
}

// NewNode creates the production transport. module is the path of the
// loaded SSR bundle's render entry point inside the workers.
func NewNode(pool Caller, module string) *Node {
	return &Node{pool: pool, module: module}
}

// Name implements Transport.
func (n *Node) Name() string { return "node" }

// Render implements Transport.
func (n *Node) Render(ctx context.Context, req *Request) (string, error) {
	if n.pool == nil {
		return "", errors.NotConfigured(
			"ssr worker pool is not running; start the pool or disable SSR")
	}
	if n.module == "" {
		return "", errors.NotConfigured(
			"ssr bundle module path is not set; set ssr.bundle to the built server bundle")
	}

	raw, err := n.pool.Call(ctx, n.module, req.Args())
	if err != nil {
		if ep, ok := err.(errorPayloader); ok {
			if re, ok := decodeErrorReport(ep.ErrorPayload()); ok {
				return "", re
			}
			return "", errors.Runtime(err.Error())
		}
		// Pool stopped, worker death, or a timed-out acquisition all
		// surface as an unreachable backend, never an indefinite block.
		return "", errors.Unreachable("ssr worker pool", err)
	}

	var markup string
	if err := json.Unmarshal(raw, &markup); err != nil {
		return "", errors.UnexpectedStatus(0, string(raw)).Wrap(
			fmt.Errorf("worker result is not a string: %w", err))
	}
	return markup, nil
}
