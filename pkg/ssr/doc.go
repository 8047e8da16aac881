// Package ssr implements the server-side rendering bridge.
//
// A render call flows through four stages:
//
//	Request (name, props, slots)
//	   → Transport (Vite dev server over HTTP, or Node worker pool)
//	   → failure decoding (internal/errors.RenderError)
//	   → Renderer (fallback policy: propagate or client-only fallback)
//
// The transport variant is chosen once from configuration, never per
// request. Every transport failure is a typed *errors.RenderError; only
// the Renderer decides, by policy, whether the caller sees it or the
// render silently degrades to a client-only mount.
//
// All types in this package are safe for concurrent use. A Renderer
// holds no per-call state and reads its configuration immutably.
package ssr
