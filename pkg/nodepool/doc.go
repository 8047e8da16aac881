// Package nodepool runs a fixed pool of persistent Node.js worker
// processes for server-side rendering.
//
// Each worker loads the SSR bundle once and keeps it in memory, so a
// render call is a single line-delimited JSON exchange over the
// worker's stdin/stdout instead of a process spawn. Calls block for at
// most the configured timeout; a caller that gives up (context
// cancellation) abandons its wait without corrupting the worker, which
// finishes the in-flight exchange and serves the next call.
//
// The pool owns process lifecycle: Start spawns the workers, Stop
// terminates their process groups. Supervision beyond a single respawn
// after a broken pipe is out of scope; a worker that cannot be
// respawned leaves the pool degraded and calls report the failure.
package nodepool
