package dev

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"
)

// ViteConfig configures the Vite process runner.
type ViteConfig struct {
	// Command is the command used to start Vite, e.g. ["npm", "run", "dev"].
	Command []string

	// Dir is the directory the command runs in.
	Dir string

	// Host is the address Vite serves on, including scheme.
	Host string

	// Env are additional environment variables.
	Env []string
}

// ViteRunner starts and supervises the Vite dev server process.
type ViteRunner struct {
	config ViteConfig
	proc   *processHandle
	mu     sync.Mutex
}

// NewViteRunner creates a new Vite process runner.
func NewViteRunner(config ViteConfig) *ViteRunner {
	return &ViteRunner{config: config}
}

// Start launches the Vite process. The process runs in its own process
// group so npm's child processes die with it.
func (v *ViteRunner) Start(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.proc != nil {
		return nil
	}
	if len(v.config.Command) == 0 {
		return fmt.Errorf("vite command not configured")
	}

	env := append(os.Environ(), v.config.Env...)
	proc, err := startProcess(ctx, v.config.Command, v.config.Dir, env)
	if err != nil {
		return fmt.Errorf("start vite: %w", err)
	}

	v.proc = proc
	return nil
}

// Stop terminates the Vite process and its children.
func (v *ViteRunner) Stop() {
	v.mu.Lock()
	defer v.mu.Unlock()

	stopProcess(v.proc)
	v.proc = nil
}

// IsRunning returns whether the process has been started.
func (v *ViteRunner) IsRunning() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.proc != nil
}

// WaitReady polls the Vite host until it answers or the context is
// cancelled. Vite returns an answer on any path once it is up; the
// status code does not matter.
func (v *ViteRunner) WaitReady(ctx context.Context) error {
	client := &http.Client{Timeout: time.Second}
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.config.Host, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err == nil {
			resp.Body.Close()
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("vite at %s never became ready: %w", v.config.Host, ctx.Err())
		case <-ticker.C:
		}
	}
}
