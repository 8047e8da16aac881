package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "vuego.json"

	// DefaultPort is the default development server port.
	DefaultPort = 3000

	// DefaultHost is the default development server host.
	DefaultHost = "localhost"

	// DefaultViteHost is the default address of the Vite dev server.
	DefaultViteHost = "http://localhost:5173"

	// DefaultPoolSize is the default number of render workers.
	DefaultPoolSize = 4

	// DefaultTimeout is the default per-render timeout.
	DefaultTimeout = "10s"
)

// SSR modes. ModeVite renders through the Vite dev server, ModeNode
// through the persistent worker pool, ModeOff disables server
// rendering entirely.
const (
	ModeVite = "vite"
	ModeNode = "node"
	ModeOff  = "off"
)

// Failure policies for SSR errors.
const (
	PolicyFallback  = "fallback"
	PolicyPropagate = "propagate"
)

// Config represents the complete vuego.json configuration.
type Config struct {
	// Name is the project name.
	Name string `json:"name,omitempty"`

	// Version is the project version.
	Version string `json:"version,omitempty"`

	// Dev contains development server configuration.
	Dev DevConfig `json:"dev,omitempty"`

	// SSR contains server-side rendering configuration.
	SSR SSRConfig `json:"ssr,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// DevConfig contains development server settings.
type DevConfig struct {
	// Port is the port to run the dev server on.
	Port int `json:"port,omitempty"`

	// Host is the host to bind to.
	Host string `json:"host,omitempty"`

	// ViteCommand is the command used to start the Vite dev server.
	// Default: ["npm", "run", "dev"]
	ViteCommand []string `json:"viteCommand,omitempty"`

	// Watch contains paths to watch for bundle changes.
	Watch []string `json:"watch,omitempty"`

	// OpenBrowser opens the browser automatically on start.
	OpenBrowser bool `json:"openBrowser,omitempty"`
}

// SSRConfig contains server-side rendering settings.
type SSRConfig struct {
	// Mode selects the render transport: "vite", "node", or "off".
	Mode string `json:"mode,omitempty"`

	// ViteHost is the address of the Vite dev server, including scheme.
	ViteHost string `json:"viteHost,omitempty"`

	// Bundle is the server bundle reference: a local path or an
	// s3://bucket/key URL.
	Bundle string `json:"bundle,omitempty"`

	// Module is the bundle module invoked per render (node mode).
	Module string `json:"module,omitempty"`

	// Policy selects what happens when a render fails: "fallback"
	// serves the client-only mount, "propagate" surfaces the error.
	Policy string `json:"policy,omitempty"`

	// PoolSize is the number of render workers (node mode).
	PoolSize int `json:"poolSize,omitempty"`

	// Timeout is the per-render timeout as a duration string.
	Timeout string `json:"timeout,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Version: "0.1.0",
		Dev: DevConfig{
			Port:        DefaultPort,
			Host:        DefaultHost,
			ViteCommand: []string{"npm", "run", "dev"},
			Watch:       []string{"dist"},
		},
		SSR: SSRConfig{
			Mode:     ModeVite,
			ViteHost: DefaultViteHost,
			Module:   "server",
			Policy:   PolicyFallback,
			PoolSize: DefaultPoolSize,
			Timeout:  DefaultTimeout,
		},
	}
}

// Load reads configuration from the specified directory.
// It looks for vuego.json in the directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no %s found in %s", ConfigFileName, filepath.Dir(path))
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	cfg.configPath = path
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return fmt.Errorf("no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return err
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Dev.Port == 0 {
		c.Dev.Port = DefaultPort
	}
	if c.Dev.Host == "" {
		c.Dev.Host = DefaultHost
	}
	if len(c.Dev.ViteCommand) == 0 {
		c.Dev.ViteCommand = []string{"npm", "run", "dev"}
	}
	if c.Dev.Watch == nil {
		c.Dev.Watch = []string{"dist"}
	}

	if c.SSR.Mode == "" {
		c.SSR.Mode = ModeVite
	}
	if c.SSR.ViteHost == "" {
		c.SSR.ViteHost = DefaultViteHost
	}
	if c.SSR.Module == "" {
		c.SSR.Module = "server"
	}
	if c.SSR.Policy == "" {
		c.SSR.Policy = PolicyFallback
	}
	if c.SSR.PoolSize == 0 {
		c.SSR.PoolSize = DefaultPoolSize
	}
	if c.SSR.Timeout == "" {
		c.SSR.Timeout = DefaultTimeout
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Dev.Port < 0 || c.Dev.Port > 65535 {
		return fmt.Errorf("dev.port must be between 0 and 65535, got %d", c.Dev.Port)
	}

	switch c.SSR.Mode {
	case ModeVite, ModeNode, ModeOff:
	default:
		return fmt.Errorf("ssr.mode must be %q, %q, or %q, got %q", ModeVite, ModeNode, ModeOff, c.SSR.Mode)
	}

	switch c.SSR.Policy {
	case PolicyFallback, PolicyPropagate:
	default:
		return fmt.Errorf("ssr.policy must be %q or %q, got %q", PolicyFallback, PolicyPropagate, c.SSR.Policy)
	}

	if c.SSR.PoolSize < 0 {
		return fmt.Errorf("ssr.poolSize must not be negative, got %d", c.SSR.PoolSize)
	}

	if c.SSR.Mode == ModeNode && c.SSR.Bundle == "" {
		return fmt.Errorf("ssr.bundle is required when ssr.mode is %q", ModeNode)
	}

	if _, err := time.ParseDuration(c.SSR.Timeout); err != nil {
		return fmt.Errorf("ssr.timeout: %w", err)
	}

	return nil
}

// RenderTimeout returns the per-render timeout as a duration.
// Validate guarantees the field parses.
func (c *Config) RenderTimeout() time.Duration {
	d, err := time.ParseDuration(c.SSR.Timeout)
	if err != nil {
		d, _ = time.ParseDuration(DefaultTimeout)
	}
	return d
}

// BundlePath returns the bundle reference resolved against the config
// directory. S3 references are returned unchanged.
func (c *Config) BundlePath() string {
	ref := c.SSR.Bundle
	if ref == "" || filepath.IsAbs(ref) {
		return ref
	}
	if len(ref) > 5 && ref[:5] == "s3://" {
		return ref
	}
	return filepath.Join(c.Dir(), ref)
}

// DevAddress returns the address string for the dev server.
func (c *Config) DevAddress() string {
	return c.Dev.Host + ":" + itoa(c.Dev.Port)
}

// DevURL returns the full URL for the dev server.
func (c *Config) DevURL() string {
	return "http://" + c.DevAddress()
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}

// FindProjectRoot walks up directories to find the project root.
// Returns the directory containing vuego.json, or an error if not found.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no %s found in %s or any parent directory", ConfigFileName, startDir)
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads configuration from the current working directory.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	root, err := FindProjectRoot(wd)
	if err != nil {
		return nil, err
	}

	return Load(root)
}

// itoa converts int to string without importing strconv.
func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	if n < 0 {
		return "-" + itoa(-n)
	}
	digits := make([]byte, 0, 10)
	for n > 0 {
		digits = append(digits, byte('0'+n%10))
		n /= 10
	}
	// Reverse
	for i, j := 0, len(digits)-1; i < j; i, j = i+1, j-1 {
		digits[i], digits[j] = digits[j], digits[i]
	}
	return string(digits)
}
