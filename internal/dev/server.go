package dev

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vuego-dev/vuego/internal/config"
	"github.com/vuego-dev/vuego/pkg/live"
)

// vitePrefixes are request paths served by the Vite dev server rather
// than the application.
var vitePrefixes = []string{
	"/@vite/",
	"/@id/",
	"/@fs/",
	"/src/",
	"/node_modules/",
}

// ServerOptions configures the development server.
type ServerOptions struct {
	// Config is the project configuration.
	Config *config.Config

	// Logger receives server logs. Defaults to slog.Default().
	Logger *slog.Logger

	// Hub is the live channel used for reload and error messages.
	// A new hub is created when nil.
	Hub *live.Hub

	// AppURL is the address of the application server requests are
	// proxied to.
	AppURL string

	// OnBundleChange is called when the watched bundle output changes,
	// before browsers are reloaded. Used to restart the render workers.
	OnBundleChange func(path string)
}

// Server is the development server. It supervises the Vite process,
// watches the bundle output, and proxies requests between the browser,
// Vite, and the application.
type Server struct {
	config     *config.Config
	options    ServerOptions
	logger     *slog.Logger
	hub        *live.Hub
	vite       *ViteRunner
	watcher    *Watcher
	httpServer *http.Server
	mu         sync.Mutex
	running    bool
}

// NewServer creates a new development server.
func NewServer(options ServerOptions) *Server {
	cfg := options.Config

	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "dev")

	hub := options.Hub
	if hub == nil {
		hub = live.NewHub()
	}

	vite := NewViteRunner(ViteConfig{
		Command: cfg.Dev.ViteCommand,
		Dir:     cfg.Dir(),
		Host:    cfg.SSR.ViteHost,
	})

	watchPaths := make([]string, 0, len(cfg.Dev.Watch))
	for _, p := range cfg.Dev.Watch {
		watchPaths = append(watchPaths, resolvePath(cfg.Dir(), p))
	}
	watcher := NewWatcher(WatcherConfig{Paths: watchPaths})

	return &Server{
		config:  cfg,
		options: options,
		logger:  logger,
		hub:     hub,
		vite:    vite,
		watcher: watcher,
	}
}

// Hub returns the live channel used by the server.
func (s *Server) Hub() *live.Hub {
	return s.hub
}

// Start starts the development server. It blocks until the context is
// cancelled or the HTTP server fails.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.mu.Unlock()

	// Start Vite and wait for it to answer.
	s.logger.Info("starting vite", "command", strings.Join(s.config.Dev.ViteCommand, " "))
	if err := s.vite.Start(ctx); err != nil {
		s.Stop()
		return err
	}

	readyCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	err := s.vite.WaitReady(readyCtx)
	cancel()
	if err != nil {
		s.Stop()
		return err
	}
	s.logger.Info("vite ready", "host", s.config.SSR.ViteHost)

	// Watch the bundle output.
	s.watcher.OnChange(s.handleBundleChange)
	go s.watcher.Start(ctx)

	s.httpServer = &http.Server{
		Addr:    s.config.DevAddress(),
		Handler: s.router(),
	}

	s.logger.Info("dev server running", "url", s.config.DevURL())

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		s.Stop()
		return nil
	case err := <-errCh:
		s.Stop()
		return err
	}
}

// Stop stops the development server and the Vite process.
func (s *Server) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.running = false

	s.watcher.Stop()
	s.vite.Stop()
	s.hub.Close()

	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.httpServer.Shutdown(ctx)
	}
}

// router builds the request mux: live channel, Vite assets, then the
// application proxy for everything else.
func (s *Server) router() http.Handler {
	r := chi.NewRouter()

	r.Get("/_vuego/live", s.hub.HandleWebSocket)

	for _, prefix := range vitePrefixes {
		r.Handle(prefix+"*", s.viteProxy())
	}

	r.NotFound(s.appProxy)
	return r
}

func (s *Server) handleBundleChange(path string) {
	s.logger.Info("bundle changed", "path", path)

	if s.options.OnBundleChange != nil {
		s.options.OnBundleChange(path)
	}

	s.hub.ClearError()
	s.hub.NotifyReload()
	s.logger.Info("reloaded browsers", "clients", s.hub.ClientCount())
}

// viteProxy forwards asset requests to the Vite dev server.
func (s *Server) viteProxy() http.Handler {
	target, err := url.Parse(s.config.SSR.ViteHost)
	if err != nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "invalid vite host", http.StatusInternalServerError)
		})
	}
	return httputil.NewSingleHostReverseProxy(target)
}

// appProxy forwards requests to the application, injecting the live
// client script into HTML responses.
func (s *Server) appProxy(w http.ResponseWriter, r *http.Request) {
	if s.options.AppURL == "" {
		s.notRunningPage(w)
		return
	}

	targetURL, err := url.Parse(s.options.AppURL)
	if err != nil {
		http.Error(w, "invalid app url", http.StatusInternalServerError)
		return
	}

	proxy := httputil.NewSingleHostReverseProxy(targetURL)

	proxy.ModifyResponse = func(resp *http.Response) error {
		contentType := resp.Header.Get("Content-Type")
		if !strings.Contains(contentType, "text/html") {
			return nil
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		resp.Body.Close()

		injected := injectClientScript(string(body))
		resp.Body = io.NopCloser(strings.NewReader(injected))
		resp.ContentLength = int64(len(injected))
		resp.Header.Set("Content-Length", fmt.Sprintf("%d", len(injected)))
		return nil
	}

	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		s.notRunningPage(w)
	}

	proxy.ServeHTTP(w, r)
}

// notRunningPage tells the developer the app is not answering yet. The
// live script reloads the page once the bundle rebuild lands.
func (s *Server) notRunningPage(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusBadGateway)
	fmt.Fprintf(w, `<!DOCTYPE html>
<html>
<head><title>VueGo Dev Server</title></head>
<body style="font-family: system-ui; padding: 40px; background: #1a1a1a; color: #fff;">
<h1 style="color: #ff5555;">Application Not Running</h1>
<p>The application server is not responding. This could mean:</p>
<ul>
<li>The app is still starting up</li>
<li>There was a build error (check your terminal)</li>
<li>The app crashed on startup</li>
</ul>
<p style="color: #888;">The page will automatically reload when the app is ready.</p>
%s
</body>
</html>`, live.ClientScript)
}

// injectClientScript splices the live client script before </body>.
func injectClientScript(body string) string {
	if idx := strings.LastIndex(body, "</body>"); idx != -1 {
		return body[:idx] + live.ClientScript + body[idx:]
	}
	if idx := strings.LastIndex(body, "</html>"); idx != -1 {
		return body[:idx] + live.ClientScript + body[idx:]
	}
	return body + live.ClientScript
}

func resolvePath(dir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}
