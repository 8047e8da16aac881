// Package dev provides the development server.
//
// This package implements:
//   - Vite dev server process management
//   - Bundle watching for worker pool restarts
//   - WebSocket-based browser refresh and error overlay
//   - Request proxying between the browser, Vite, and the app
//
// # Architecture
//
// The development server consists of several components:
//
//   - ViteRunner: Starts and supervises the Vite process
//   - Watcher: Monitors the server bundle for changes
//   - Server: Routes requests to Vite or the application
//   - live.Hub: Notifies browsers of changes via WebSocket
//
// # Usage
//
//	srv := dev.NewServer(dev.ServerOptions{
//	    Config: cfg,
//	    Hub:    live.NewHub(),
//	})
//
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//
//	if err := srv.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
package dev
