package nodepool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrStopped is returned by Call when the pool has not been started or
// has been stopped.
var ErrStopped = errors.New("nodepool: pool is not running")

// DefaultSize is the default number of worker processes.
const DefaultSize = 4

// DefaultCallTimeout bounds a single call, acquisition included.
const DefaultCallTimeout = 10 * time.Second

// Config configures a worker pool.
type Config struct {
	// Command launches one worker, e.g. ["node", "priv/vuego/worker.js"].
	Command []string

	// Dir is the working directory for worker processes.
	Dir string

	// Env are additional environment variables for worker processes.
	Env []string

	// Size is the number of worker processes. Default: DefaultSize.
	Size int

	// CallTimeout bounds a Call when the caller's context carries no
	// deadline. Default: DefaultCallTimeout.
	CallTimeout time.Duration
}

// WorkerError is a render failure reported by the worker itself, as
// opposed to a transport-level failure. Payload is the structured
// error report from the rendering runtime.
type WorkerError struct {
	Payload json.RawMessage
}

func (e *WorkerError) Error() string {
	return fmt.Sprintf("nodepool: worker reported error: %s", e.Payload)
}

// ErrorPayload returns the raw error report for shape-based decoding.
func (e *WorkerError) ErrorPayload() json.RawMessage {
	return e.Payload
}

// callRequest is one line written to a worker's stdin.
type callRequest struct {
	Module string `json:"module"`
	Args   []any  `json:"args"`
}

// callResponse is one line read from a worker's stdout.
type callResponse struct {
	Ok    json.RawMessage `json:"ok,omitempty"`
	Error json.RawMessage `json:"error,omitempty"`
}

type callResult struct {
	data json.RawMessage
	err  error
}

type job struct {
	req callRequest
	// reply is buffered so a worker never blocks on a caller that has
	// already abandoned the call.
	reply chan callResult
}

// Pool is a fixed-size pool of Node worker processes.
type Pool struct {
	cfg     Config
	spawn   spawnFunc
	jobs    chan job
	quit    chan struct{}
	workers []*worker
	mu      sync.Mutex
	running bool
}

// New creates a pool. The pool does not spawn anything until Start.
func New(cfg Config) *Pool {
	if cfg.Size <= 0 {
		cfg.Size = DefaultSize
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = DefaultCallTimeout
	}
	return &Pool{
		cfg:   cfg,
		spawn: spawnNode(cfg),
	}
}

// Start spawns the worker processes. It is a no-op when already
// running.
func (p *Pool) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return nil
	}
	if len(p.cfg.Command) == 0 && p.spawn == nil {
		return fmt.Errorf("nodepool: no worker command configured")
	}

	p.jobs = make(chan job)
	p.quit = make(chan struct{})
	p.workers = make([]*worker, 0, p.cfg.Size)

	for i := 0; i < p.cfg.Size; i++ {
		w := newWorker(i, p.spawn)
		if err := w.start(); err != nil {
			for _, started := range p.workers {
				started.stop()
			}
			p.workers = nil
			return fmt.Errorf("nodepool: starting worker %d: %w", i, err)
		}
		p.workers = append(p.workers, w)
	}

	// Serve loops start only once the full pool is up, so a failed
	// spawn leaves no goroutine behind.
	for _, w := range p.workers {
		go w.serve(p.jobs, p.quit)
	}

	p.running = true
	return nil
}

// Stop terminates all workers. In-flight exchanges are cut off.
func (p *Pool) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}
	p.running = false

	// Signal instead of closing jobs: a racing Call may still try to
	// send, and it backs off on its own deadline.
	close(p.quit)
	for _, w := range p.workers {
		w.stop()
	}
	p.workers = nil
}

// Call sends [module, args] to an idle worker and waits for its result.
// The wait is bounded: the caller's deadline applies, or CallTimeout
// when the context has none. A timed-out or cancelled call returns the
// context error; the worker completes the exchange on its own and is
// reused afterwards.
func (p *Pool) Call(ctx context.Context, module string, args []any) (json.RawMessage, error) {
	p.mu.Lock()
	running := p.running
	jobs := p.jobs
	p.mu.Unlock()

	if !running {
		return nil, ErrStopped
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.CallTimeout)
		defer cancel()
	}

	j := job{
		req:   callRequest{Module: module, Args: args},
		reply: make(chan callResult, 1),
	}

	select {
	case jobs <- j:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case r := <-j.reply:
		return r.data, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Size returns the configured worker count.
func (p *Pool) Size() int {
	return p.cfg.Size
}

// Running reports whether the pool has been started.
func (p *Pool) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}
