package ssr

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/vuego-dev/vuego/internal/errors"
)

func mustRequest(t *testing.T) *Request {
	t.Helper()
	req, err := NewRequest("Card", map[string]any{"title": "hi"}, map[string]string{"default": "<p>x</p>"})
	if err != nil {
		t.Fatal(err)
	}
	return req
}

func TestViteRenderSuccess(t *testing.T) {
	var gotMethod, gotPath, gotContentType string
	var gotBody []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		io.WriteString(w, "<div>rendered</div>")
	}))
	defer srv.Close()

	v := NewVite(srv.URL)
	markup, err := v.Render(context.Background(), mustRequest(t))
	if err != nil {
		t.Fatal(err)
	}

	// The response body is the markup, verbatim.
	if markup != "<div>rendered</div>" {
		t.Errorf("markup = %q", markup)
	}
	if gotMethod != http.MethodPost {
		t.Errorf("method = %q, want POST", gotMethod)
	}
	if gotPath != RenderPath {
		t.Errorf("path = %q, want %q", gotPath, RenderPath)
	}
	if gotContentType != "application/json" {
		t.Errorf("content-type = %q", gotContentType)
	}

	var payload struct {
		Name  string            `json:"name"`
		Props map[string]any    `json:"props"`
		Slots map[string]string `json:"slots"`
	}
	if err := json.Unmarshal(gotBody, &payload); err != nil {
		t.Fatalf("request body is not JSON: %v", err)
	}
	if payload.Name != "Card" {
		t.Errorf("payload name = %q", payload.Name)
	}
}

func TestViteRenderStructuredFailures(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantKind errors.Kind
	}{
		{
			name:     "parse error",
			body:     `{"error":{"message":"m","loc":{"file":"f","line":1,"column":2},"frame":"fr"}}`,
			wantKind: errors.KindParse,
		},
		{
			name:     "runtime error",
			body:     `{"error":{"stack":"s"}}`,
			wantKind: errors.KindRuntime,
		},
		{
			name:     "unrecognized body",
			body:     `oops`,
			wantKind: errors.KindUnexpectedStatus,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			_, err := NewVite(srv.URL).Render(context.Background(), mustRequest(t))
			if !errors.IsKind(err, tt.wantKind) {
				t.Errorf("err = %v, want kind %q", err, tt.wantKind)
			}
		})
	}
}

func TestViteRenderUnexpectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewVite(srv.URL).Render(context.Background(), mustRequest(t))
	re, ok := errors.As(err)
	if !ok || re.Kind != errors.KindUnexpectedStatus {
		t.Fatalf("err = %v, want unexpected_status", err)
	}
	if re.Status != http.StatusNotFound {
		t.Errorf("Status = %d, want 404", re.Status)
	}
	if re.Body != "Not Found" {
		t.Errorf("Body = %q, want status text", re.Body)
	}
}

func TestViteRenderUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	host := srv.URL
	srv.Close()

	_, err := NewVite(host).Render(context.Background(), mustRequest(t))
	re, ok := errors.As(err)
	if !ok || re.Kind != errors.KindUnreachable {
		t.Fatalf("err = %v, want transport_unreachable", err)
	}

	u, _ := url.Parse(host)
	if re.Target != u.Host {
		t.Errorf("Target = %q, want %q", re.Target, u.Host)
	}
	if re.Detail == "" {
		t.Error("Detail should carry the underlying dial error")
	}
}

// failingTransport fails the test if any network request is attempted.
type failingTransport struct {
	t *testing.T
}

func (ft *failingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	ft.t.Errorf("network request attempted to %s despite missing host", r.URL)
	return nil, io.ErrClosedPipe
}

func TestViteRenderNotConfigured(t *testing.T) {
	v := NewVite("", WithHTTPClient(&http.Client{Transport: &failingTransport{t}}))

	_, err := v.Render(context.Background(), mustRequest(t))
	re, ok := errors.As(err)
	if !ok || re.Kind != errors.KindNotConfigured {
		t.Fatalf("err = %v, want not_configured", err)
	}
	if !strings.Contains(re.Message, "vite_host") {
		t.Errorf("message should tell the operator what to set, got %q", re.Message)
	}
}
