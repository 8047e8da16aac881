package dev

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vuego-dev/vuego/internal/config"
)

func TestWatcher_ReportsWrite(t *testing.T) {
	tmpDir := t.TempDir()
	bundle := filepath.Join(tmpDir, "server.js")
	if err := os.WriteFile(bundle, []byte("v1"), 0644); err != nil {
		t.Fatal(err)
	}

	watcher := NewWatcher(WatcherConfig{
		Paths:    []string{tmpDir},
		Debounce: 50 * time.Millisecond,
	})

	changes := make(chan string, 10)
	watcher.OnChange(func(path string) {
		changes <- path
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go watcher.Start(ctx)

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(bundle, []byte("v2"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case path := <-changes:
		if path != bundle {
			t.Errorf("change path = %q, want %q", path, bundle)
		}
	case <-time.After(2 * time.Second):
		t.Error("timeout waiting for change")
	}

	watcher.Stop()
}

func TestWatcher_DebouncesBursts(t *testing.T) {
	tmpDir := t.TempDir()

	watcher := NewWatcher(WatcherConfig{
		Paths:    []string{tmpDir},
		Debounce: 100 * time.Millisecond,
	})

	changes := make(chan string, 10)
	watcher.OnChange(func(path string) {
		changes <- path
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go watcher.Start(ctx)
	time.Sleep(100 * time.Millisecond)

	// Burst of writes within the debounce window.
	for i := 0; i < 5; i++ {
		name := filepath.Join(tmpDir, fmt.Sprintf("chunk-%d.js", i))
		if err := os.WriteFile(name, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case <-changes:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for change")
	}

	// The burst should have collapsed into a single report.
	select {
	case path := <-changes:
		t.Errorf("unexpected second change: %q", path)
	case <-time.After(300 * time.Millisecond):
	}

	watcher.Stop()
}

func TestWatcher_IsRunning(t *testing.T) {
	watcher := NewWatcher(WatcherConfig{Paths: []string{"."}})
	if watcher.IsRunning() {
		t.Error("watcher should not be running initially")
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"dist/server.js", false},
		{"dist/server.js.tmp", true},
		{"dist/.server.js.swp", true},
		{"dist/server.js~", true},
	}

	for _, tt := range tests {
		if got := isTransient(tt.path); got != tt.want {
			t.Errorf("isTransient(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestInjectClientScript(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"before body close", "<html><body><h1>hi</h1></body></html>"},
		{"before html close", "<html><h1>hi</h1></html>"},
		{"appended", "<h1>hi</h1>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := injectClientScript(tt.body)
			if !strings.Contains(got, "_vuego/live") {
				t.Error("script not injected")
			}
			if !strings.Contains(got, "<h1>hi</h1>") {
				t.Error("original content lost")
			}
			if idx := strings.Index(tt.body, "</body>"); idx != -1 {
				if strings.Index(got, "_vuego/live") > strings.Index(got, "</body>") {
					t.Error("script injected after </body>")
				}
			}
		})
	}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, config.ConfigFileName)
	if err := os.WriteFile(path, []byte(`{"name": "test"}`), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	return cfg
}

func TestServer_AppProxyInjectsScript(t *testing.T) {
	app := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<html><body><h1>app</h1></body></html>")
	}))
	defer app.Close()

	srv := NewServer(ServerOptions{
		Config: testConfig(t),
		AppURL: app.URL,
	})

	front := httptest.NewServer(srv.router())
	defer front.Close()

	resp, err := http.Get(front.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "<h1>app</h1>") {
		t.Error("app content missing")
	}
	if !strings.Contains(string(body), "_vuego/live") {
		t.Error("live script not injected")
	}
}

func TestServer_AppProxyNonHTMLUntouched(t *testing.T) {
	app := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"ok": true}`)
	}))
	defer app.Close()

	srv := NewServer(ServerOptions{
		Config: testConfig(t),
		AppURL: app.URL,
	})

	front := httptest.NewServer(srv.router())
	defer front.Close()

	resp, err := http.Get(front.URL + "/api")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if string(body) != `{"ok": true}` {
		t.Errorf("body = %q", body)
	}
}

func TestServer_NoAppShowsErrorPage(t *testing.T) {
	srv := NewServer(ServerOptions{
		Config: testConfig(t),
	})

	front := httptest.NewServer(srv.router())
	defer front.Close()

	resp, err := http.Get(front.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "Application Not Running") {
		t.Error("error page content missing")
	}
}

func TestServer_ViteProxyForwards(t *testing.T) {
	vite := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "vite:%s", r.URL.Path)
	}))
	defer vite.Close()

	cfg := testConfig(t)
	cfg.SSR.ViteHost = vite.URL

	srv := NewServer(ServerOptions{Config: cfg})

	front := httptest.NewServer(srv.router())
	defer front.Close()

	resp, err := http.Get(front.URL + "/src/main.ts")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if string(body) != "vite:/src/main.ts" {
		t.Errorf("body = %q", body)
	}
}

func TestViteRunner_WaitReady(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer backend.Close()

	runner := NewViteRunner(ViteConfig{Host: backend.URL})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := runner.WaitReady(ctx); err != nil {
		t.Fatalf("WaitReady: %v", err)
	}
}

func TestViteRunner_WaitReadyTimeout(t *testing.T) {
	runner := NewViteRunner(ViteConfig{Host: "http://localhost:1"})

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	if err := runner.WaitReady(ctx); err == nil {
		t.Error("WaitReady succeeded against dead host")
	}
}

func TestViteRunner_StartWithoutCommand(t *testing.T) {
	runner := NewViteRunner(ViteConfig{})
	if err := runner.Start(context.Background()); err == nil {
		t.Error("Start succeeded without command")
	}
}
