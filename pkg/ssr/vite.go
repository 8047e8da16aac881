package ssr

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/vuego-dev/vuego/internal/errors"
)

// RenderPath is the Vite dev-server endpoint that renders a component.
const RenderPath = "/ssr_render"

// defaultViteTimeout bounds a single dev-server render call.
const defaultViteTimeout = 10 * time.Second

// Vite renders components against a locally running Vite dev server.
// Each call opens a short-lived HTTP request; no connection reuse is
// assumed beyond what net/http provides.
type Vite struct {
	host   string
	client *http.Client
}

// ViteOption configures the Vite transport.
type ViteOption func(*Vite)

// WithHTTPClient replaces the HTTP client used for render calls.
func WithHTTPClient(c *http.Client) ViteOption {
	return func(v *Vite) {
		v.client = c
	}
}

// NewVite creates the development transport. The host may be empty; the
// misconfiguration is reported on first render, before any network
// attempt, so a partially configured app still boots.
func NewVite(host string, opts ...ViteOption) *Vite {
	v := &Vite{
		host:   host,
		client: &http.Client{Timeout: defaultViteTimeout},
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Name implements Transport.
func (v *Vite) Name() string { return "vite" }

// Render implements Transport.
func (v *Vite) Render(ctx context.Context, req *Request) (string, error) {
	if v.host == "" {
		return "", errors.NotConfigured(
			"vite host is not set; set ssr.vite_host (e.g. \"http://localhost:5173\") before rendering")
	}

	payload, err := req.Encode()
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, v.host+RenderPath, bytes.NewReader(payload))
	if err != nil {
		return "", errors.NotConfigured("vite host %q is not a valid URL", v.host).Wrap(err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(httpReq)
	if err != nil {
		return "", errors.Unreachable(v.target(), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Unreachable(v.target(), err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		// The body is the rendered markup, returned verbatim.
		return string(body), nil
	case http.StatusInternalServerError:
		return "", decodeFailure(resp.StatusCode, body)
	default:
		return "", errors.UnexpectedStatus(resp.StatusCode, http.StatusText(resp.StatusCode))
	}
}

// target reduces the configured host to host:port for error reporting.
func (v *Vite) target() string {
	if u, err := url.Parse(v.host); err == nil && u.Host != "" {
		return u.Host
	}
	return v.host
}
