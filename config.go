package vuego

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/vuego-dev/vuego/internal/config"
	"github.com/vuego-dev/vuego/pkg/bundle"
	"github.com/vuego-dev/vuego/pkg/ssr"
)

// Render modes.
const (
	// ModeVite renders through the Vite dev server. Development only.
	ModeVite = "vite"

	// ModeNode renders through a persistent pool of Node workers
	// executing the compiled server bundle.
	ModeNode = "node"

	// ModeOff disables server rendering. Components mount client-side
	// only.
	ModeOff = "off"
)

// Config is the main bridge configuration.
// This is the user-friendly entry point for configuring VueGo.
type Config struct {
	// Mode selects the render transport: ModeVite, ModeNode, or ModeOff.
	Mode string

	// ViteHost is the address of the Vite dev server, including scheme.
	// Used in ModeVite. Default: "http://localhost:5173".
	ViteHost string

	// Bundle is the server bundle reference for ModeNode: a local path
	// or an s3://bucket/key URL.
	Bundle string

	// Module is the bundle module invoked per render. Default: "server".
	Module string

	// Policy selects what happens when a render fails. With
	// PolicyFallback (the default) the component mounts client-side
	// only; with PolicyPropagate the error surfaces to the caller.
	Policy ssr.Policy

	// PoolSize is the number of Node render workers. Default: 4.
	PoolSize int

	// Timeout is the per-render timeout. Default: 10s.
	Timeout time.Duration

	// CacheDir is where S3 bundles are cached locally.
	// Default: os.TempDir()/vuego.
	CacheDir string

	// Logger is the structured logger for the bridge.
	// If nil, slog.Default() is used.
	Logger *slog.Logger

	// Middleware wraps every render call, e.g. middleware.Prometheus().
	Middleware []ssr.Middleware

	// HTTPClient overrides the client used for Vite requests.
	HTTPClient *http.Client

	// S3 fetches s3:// bundle references. Required only when Bundle
	// uses the s3 scheme.
	S3 bundle.S3API
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Mode:     ModeVite,
		ViteHost: "http://localhost:5173",
		Module:   "server",
		Policy:   ssr.PolicyFallback,
		PoolSize: 4,
		Timeout:  10 * time.Second,
	}
}

// FromFile loads vuego.json from dir and converts it to a Config.
func FromFile(dir string) (Config, error) {
	fileCfg, err := config.Load(dir)
	if err != nil {
		return Config{}, err
	}

	cfg := DefaultConfig()
	cfg.Mode = fileCfg.SSR.Mode
	cfg.ViteHost = fileCfg.SSR.ViteHost
	cfg.Bundle = fileCfg.BundlePath()
	cfg.Module = fileCfg.SSR.Module
	cfg.PoolSize = fileCfg.SSR.PoolSize
	cfg.Timeout = fileCfg.RenderTimeout()
	if fileCfg.SSR.Policy == config.PolicyPropagate {
		cfg.Policy = ssr.PolicyPropagate
	}
	return cfg, nil
}

// applyDefaults fills in default values for zero fields.
func (c *Config) applyDefaults() {
	if c.Mode == "" {
		c.Mode = ModeVite
	}
	if c.ViteHost == "" {
		c.ViteHost = "http://localhost:5173"
	}
	if c.Module == "" {
		c.Module = "server"
	}
	if c.PoolSize == 0 {
		c.PoolSize = 4
	}
	if c.Timeout == 0 {
		c.Timeout = 10 * time.Second
	}
	if c.CacheDir == "" {
		c.CacheDir = filepath.Join(os.TempDir(), "vuego")
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}
