// Package vuego embeds server-rendered Vue components in Go web
// applications.
//
// This is the recommended import for most applications:
//
//	import "github.com/vuego-dev/vuego"
//
// Usage:
//
//	bridge, err := vuego.New(vuego.Config{
//	    Mode:   vuego.ModeNode,
//	    Bundle: "dist/server.js",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer bridge.Close()
//
//	html, err := bridge.Component(ctx, "Counter", map[string]any{"count": 1}, nil)
package vuego

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"sync"
	"sync/atomic"

	"github.com/vuego-dev/vuego/internal/errors"
	"github.com/vuego-dev/vuego/pkg/bundle"
	"github.com/vuego-dev/vuego/pkg/live"
	"github.com/vuego-dev/vuego/pkg/nodepool"
	"github.com/vuego-dev/vuego/pkg/ssr"
)

// Bridge connects a Go application to the Vue render service. It owns
// the transport (Vite client or worker pool), the fallback policy, and
// the live prop channel.
type Bridge struct {
	config   Config
	renderer *ssr.Renderer
	workers  *workerHandle
	resolver *bundle.Resolver
	hub      *live.Hub
	seq      atomic.Uint64
}

// New creates a Bridge from the configuration. In ModeNode the worker
// pool is started before New returns; a bundle that cannot be resolved
// or workers that cannot spawn fail fast here rather than on the first
// render.
func New(cfg Config) (*Bridge, error) {
	cfg.applyDefaults()

	b := &Bridge{
		config: cfg,
		hub:    live.NewHub(),
	}

	var transport ssr.Transport
	enabled := true

	switch cfg.Mode {
	case ModeOff:
		enabled = false

	case ModeVite:
		opts := []ssr.ViteOption{}
		if cfg.HTTPClient != nil {
			opts = append(opts, ssr.WithHTTPClient(cfg.HTTPClient))
		}
		transport = ssr.NewVite(cfg.ViteHost, opts...)

	case ModeNode:
		var resolverOpts []bundle.ResolverOption
		if cfg.S3 != nil {
			resolverOpts = append(resolverOpts, bundle.WithS3(bundle.NewS3Fetcher(cfg.S3, cfg.CacheDir)))
		}
		b.resolver = bundle.NewResolver(resolverOpts...)

		pool, err := b.startPool(context.Background())
		if err != nil {
			return nil, err
		}
		b.workers = &workerHandle{pool: pool}
		transport = ssr.NewNode(b.workers, cfg.Module)

	default:
		return nil, fmt.Errorf("unknown render mode %q", cfg.Mode)
	}

	rendererOpts := []ssr.RendererOption{
		ssr.WithPolicy(cfg.Policy),
		ssr.WithEnabled(enabled),
		ssr.WithLogger(cfg.Logger),
	}
	if len(cfg.Middleware) > 0 {
		rendererOpts = append(rendererOpts, ssr.WithMiddleware(cfg.Middleware...))
	}
	b.renderer = ssr.NewRenderer(transport, rendererOpts...)

	return b, nil
}

// Component renders the named component and returns the embed HTML: a
// host element carrying the hydration payload, with the server markup
// spliced inside when rendering succeeded.
//
// Per-call options override the bridge configuration:
//
//	html, err := bridge.Component(ctx, "Chart", props, nil,
//	    ssr.WithFailurePolicy(ssr.PolicyPropagate),
//	)
func (b *Bridge) Component(ctx context.Context, name string, props map[string]any, slots map[string]string, opts ...ssr.CallOption) (template.HTML, error) {
	req, err := ssr.NewRequest(name, props, slots)
	if err != nil {
		return "", err
	}

	result, err := b.renderer.Render(ctx, req, opts...)
	if err != nil {
		return "", err
	}

	id := fmt.Sprintf("vuego-%d", b.seq.Add(1))
	return componentHost(id, req, result.Markup)
}

// Renderer exposes the underlying renderer for direct use.
func (b *Bridge) Renderer() *ssr.Renderer {
	return b.renderer
}

// Hub returns the live channel for prop sync and dev messages.
func (b *Bridge) Hub() *live.Hub {
	return b.hub
}

// PushProps ships an updated prop set to the component mounted at the
// host element with the given id.
func (b *Bridge) PushProps(id string, props map[string]any) {
	b.hub.PushProps(id, props)
}

// ReloadWorkers replaces the worker pool with one running the current
// bundle. Renders in flight finish against the old pool. Only
// meaningful in ModeNode; a no-op otherwise.
func (b *Bridge) ReloadWorkers(ctx context.Context) error {
	if b.workers == nil {
		return nil
	}

	pool, err := b.startPool(ctx)
	if err != nil {
		return err
	}

	old := b.workers.swap(pool)
	if old != nil {
		old.Stop()
	}
	return nil
}

// Close stops the worker pool and disconnects live clients.
func (b *Bridge) Close() {
	if b.workers != nil {
		if pool := b.workers.swap(nil); pool != nil {
			pool.Stop()
		}
	}
	b.hub.Close()
}

// startPool resolves the bundle and starts a worker pool running it.
func (b *Bridge) startPool(ctx context.Context) (*nodepool.Pool, error) {
	path, err := b.resolver.Resolve(ctx, b.config.Bundle)
	if err != nil {
		return nil, fmt.Errorf("resolve bundle: %w", err)
	}

	pool := nodepool.New(nodepool.Config{
		Command:     []string{"node", path},
		Size:        b.config.PoolSize,
		CallTimeout: b.config.Timeout,
	})
	if err := pool.Start(); err != nil {
		return nil, fmt.Errorf("start render workers: %w", err)
	}
	return pool, nil
}

// workerHandle is the stable Caller handed to the Node transport. The
// pool behind it is swapped on bundle reload without rebuilding the
// renderer.
type workerHandle struct {
	mu   sync.RWMutex
	pool *nodepool.Pool
}

func (h *workerHandle) Call(ctx context.Context, module string, args []any) (json.RawMessage, error) {
	h.mu.RLock()
	pool := h.pool
	h.mu.RUnlock()

	if pool == nil {
		return nil, errors.Unreachable("ssr worker pool", nodepool.ErrStopped)
	}
	return pool.Call(ctx, module, args)
}

func (h *workerHandle) swap(pool *nodepool.Pool) *nodepool.Pool {
	h.mu.Lock()
	old := h.pool
	h.pool = pool
	h.mu.Unlock()
	return old
}
