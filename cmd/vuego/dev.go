package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vuego-dev/vuego/internal/config"
	"github.com/vuego-dev/vuego/internal/dev"
)

func devCmd() *cobra.Command {
	var (
		port        int
		host        string
		appURL      string
		openBrowser bool
	)

	cmd := &cobra.Command{
		Use:   "dev",
		Short: "Start the development server",
		Long: `Start the development server with hot reload.

The dev server starts Vite, proxies requests between the browser,
Vite, and your application, and refreshes connected browsers when
the server bundle changes.

Examples:
  vuego dev
  vuego dev --port=8080
  vuego dev --app=http://localhost:4000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDev(port, host, appURL, openBrowser)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to run on (default from vuego.json)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from vuego.json)")
	cmd.Flags().StringVarP(&appURL, "app", "a", "", "Address of the application server to proxy to")
	cmd.Flags().BoolVarP(&openBrowser, "open", "o", false, "Open browser on start")

	return cmd
}

func runDev(port int, host, appURL string, openBrowser bool) error {
	// Vite runs through npm.
	if _, err := exec.LookPath("npm"); err != nil {
		errorMsg("npm is not installed or not in PATH")
		info("Install Node.js from https://nodejs.org/")
		return err
	}

	cfg, err := config.LoadFromWorkingDir()
	if err != nil {
		return err
	}

	// Apply command-line overrides
	if port > 0 {
		cfg.Dev.Port = port
	}
	if host != "" {
		cfg.Dev.Host = host
	}
	if openBrowser {
		cfg.Dev.OpenBrowser = true
	}

	printBanner()
	fmt.Println("  dev")
	fmt.Println()

	server := dev.NewServer(dev.ServerOptions{
		Config: cfg,
		AppURL: appURL,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Println("\n\n  Shutting down...")
		cancel()
		server.Stop()
	}()

	if cfg.Dev.OpenBrowser {
		go openURL(cfg.DevURL())
	}

	return server.Start(ctx)
}

// openURL opens a URL in the default browser.
func openURL(url string) {
	var cmd *exec.Cmd

	switch {
	case commandExists("xdg-open"):
		cmd = exec.Command("xdg-open", url)
	case commandExists("open"):
		cmd = exec.Command("open", url)
	case commandExists("start"):
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return
	}

	cmd.Start()
}

// commandExists checks if a command exists in PATH.
func commandExists(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
