package nodepool

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
)

// maxResponseLine caps a single worker response (16 MiB); rendered
// markup for one component should stay far below this.
const maxResponseLine = 16 << 20

// spawnFunc starts one worker process and returns its stdin, stdout
// and a stop function. Injected so tests can run without a Node
// binary.
type spawnFunc func() (io.WriteCloser, io.ReadCloser, func(), error)

// spawnNode builds the production spawner for cfg.Command.
func spawnNode(cfg Config) spawnFunc {
	if len(cfg.Command) == 0 {
		return nil
	}
	return func() (io.WriteCloser, io.ReadCloser, func(), error) {
		cmd := exec.Command(cfg.Command[0], cfg.Command[1:]...)
		cmd.Dir = cfg.Dir
		cmd.Env = append(os.Environ(), cfg.Env...)
		cmd.Stderr = os.Stderr
		setProcAttr(cmd)

		stdin, err := cmd.StdinPipe()
		if err != nil {
			return nil, nil, nil, err
		}
		stdout, err := cmd.StdoutPipe()
		if err != nil {
			return nil, nil, nil, err
		}
		if err := cmd.Start(); err != nil {
			return nil, nil, nil, err
		}

		stop := func() {
			stdin.Close()
			killProcessGroup(cmd)
		}
		return stdin, stdout, stop, nil
	}
}

// worker owns one Node process and serializes exchanges over its
// stdin/stdout.
type worker struct {
	id    int
	spawn spawnFunc

	mu     sync.Mutex
	in     io.WriteCloser
	scan   *bufio.Scanner
	stopFn func()
}

func newWorker(id int, spawn spawnFunc) *worker {
	return &worker{id: id, spawn: spawn}
}

// start spawns the worker process.
func (w *worker) start() error {
	in, out, stopFn, err := w.spawn()
	if err != nil {
		return err
	}

	scan := bufio.NewScanner(out)
	scan.Buffer(make([]byte, 64<<10), maxResponseLine)

	w.mu.Lock()
	w.in = in
	w.scan = scan
	w.stopFn = func() {
		if stopFn != nil {
			stopFn()
		}
		out.Close()
	}
	w.mu.Unlock()
	return nil
}

// stop tears the worker process down.
func (w *worker) stop() {
	w.mu.Lock()
	stopFn := w.stopFn
	w.stopFn = nil
	w.mu.Unlock()
	if stopFn != nil {
		stopFn()
	}
}

// serve pulls jobs until the pool shuts down. A broken pipe triggers
// one respawn attempt; if that fails the worker exits and the pool
// runs degraded.
func (w *worker) serve(jobs <-chan job, quit <-chan struct{}) {
	for {
		var j job
		select {
		case <-quit:
			return
		case j = <-jobs:
		}

		data, err := w.roundTrip(j.req)

		if err != nil && isPipeError(err) {
			if rerr := w.restart(); rerr != nil {
				j.reply <- callResult{err: fmt.Errorf("nodepool: worker %d died: %w", w.id, err)}
				return
			}
			err = fmt.Errorf("nodepool: worker %d restarted: %w", w.id, err)
		}

		// Buffered channel: a dropped caller never blocks the worker.
		j.reply <- callResult{data: data, err: err}
	}
}

// roundTrip writes one request line and reads one response line.
func (w *worker) roundTrip(req callRequest) (json.RawMessage, error) {
	line, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	line = append(line, '\n')

	if _, err := w.in.Write(line); err != nil {
		return nil, &pipeError{err}
	}

	if !w.scan.Scan() {
		if err := w.scan.Err(); err != nil {
			return nil, &pipeError{err}
		}
		return nil, &pipeError{io.ErrUnexpectedEOF}
	}

	var resp callResponse
	if err := json.Unmarshal(w.scan.Bytes(), &resp); err != nil {
		return nil, fmt.Errorf("nodepool: malformed worker response: %w", err)
	}
	if len(resp.Error) > 0 {
		return nil, &WorkerError{Payload: append(json.RawMessage(nil), resp.Error...)}
	}
	return append(json.RawMessage(nil), resp.Ok...), nil
}

// restart tears the process down and spawns a fresh one.
func (w *worker) restart() error {
	w.stop()
	return w.start()
}

// pipeError marks I/O failures on the worker pipes, which warrant a
// respawn as opposed to worker-reported render errors.
type pipeError struct {
	err error
}

func (e *pipeError) Error() string { return e.err.Error() }
func (e *pipeError) Unwrap() error { return e.err }

func isPipeError(err error) bool {
	var pe *pipeError
	return errors.As(err, &pe)
}
