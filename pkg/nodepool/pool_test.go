package nodepool

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"runtime"
	"sync"
	"testing"
	"time"
)

// fakeSpawn runs an in-process responder over pipes instead of a Node
// process.
func fakeSpawn(handler func(req callRequest) callResponse) spawnFunc {
	return func() (io.WriteCloser, io.ReadCloser, func(), error) {
		inR, inW := io.Pipe()
		outR, outW := io.Pipe()

		go func() {
			scan := bufio.NewScanner(inR)
			scan.Buffer(make([]byte, 64<<10), maxResponseLine)
			for scan.Scan() {
				var req callRequest
				if err := json.Unmarshal(scan.Bytes(), &req); err != nil {
					continue
				}
				data, _ := json.Marshal(handler(req))
				outW.Write(append(data, '\n'))
			}
			outW.Close()
		}()

		stop := func() {
			inW.Close()
			inR.Close()
			outR.Close()
		}
		return inW, outR, stop, nil
	}
}

func echoHandler(req callRequest) callResponse {
	markup := fmt.Sprintf("<div>%v</div>", req.Args[0])
	ok, _ := json.Marshal(markup)
	return callResponse{Ok: ok}
}

func startPool(t *testing.T, cfg Config, handler func(callRequest) callResponse) *Pool {
	t.Helper()
	p := New(cfg)
	p.spawn = fakeSpawn(handler)
	if err := p.Start(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(p.Stop)
	return p
}

func TestPoolCall(t *testing.T) {
	p := startPool(t, Config{Size: 2}, echoHandler)

	raw, err := p.Call(context.Background(), "server.js", []any{"Card", map[string]any{}, map[string]any{}})
	if err != nil {
		t.Fatal(err)
	}

	var markup string
	if err := json.Unmarshal(raw, &markup); err != nil {
		t.Fatal(err)
	}
	if markup != "<div>Card</div>" {
		t.Errorf("markup = %q", markup)
	}
}

func TestPoolCallConcurrent(t *testing.T) {
	p := startPool(t, Config{Size: 4}, echoHandler)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("C%d", i)
			raw, err := p.Call(context.Background(), "server.js", []any{name})
			if err != nil {
				t.Errorf("call %d: %v", i, err)
				return
			}
			var markup string
			json.Unmarshal(raw, &markup)
			if markup != fmt.Sprintf("<div>%s</div>", name) {
				t.Errorf("call %d: markup = %q", i, markup)
			}
		}(i)
	}
	wg.Wait()
}

func TestPoolWorkerError(t *testing.T) {
	p := startPool(t, Config{Size: 1}, func(req callRequest) callResponse {
		return callResponse{Error: json.RawMessage(`{"stack":"TypeError: boom"}`)}
	})

	_, err := p.Call(context.Background(), "server.js", []any{"Card"})
	var we *WorkerError
	if !errors.As(err, &we) {
		t.Fatalf("err = %v, want *WorkerError", err)
	}
	if string(we.ErrorPayload()) != `{"stack":"TypeError: boom"}` {
		t.Errorf("payload = %s", we.ErrorPayload())
	}
}

func TestPoolCallStopped(t *testing.T) {
	p := New(Config{Size: 1})
	if _, err := p.Call(context.Background(), "server.js", nil); !errors.Is(err, ErrStopped) {
		t.Errorf("err = %v, want ErrStopped", err)
	}

	p.spawn = fakeSpawn(echoHandler)
	if err := p.Start(); err != nil {
		t.Fatal(err)
	}
	p.Stop()
	if _, err := p.Call(context.Background(), "server.js", nil); !errors.Is(err, ErrStopped) {
		t.Errorf("after Stop: err = %v, want ErrStopped", err)
	}
}

func TestPoolCallTimeout(t *testing.T) {
	block := make(chan struct{})
	defer close(block)

	p := startPool(t, Config{Size: 1, CallTimeout: 50 * time.Millisecond}, func(req callRequest) callResponse {
		<-block
		return callResponse{Ok: json.RawMessage(`"late"`)}
	})

	start := time.Now()
	_, err := p.Call(context.Background(), "server.js", []any{"Card"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
	if time.Since(start) > time.Second {
		t.Error("Call blocked past its bounded wait")
	}
}

func TestPoolDroppedCallerReusesWorker(t *testing.T) {
	release := make(chan struct{})
	var calls int
	var mu sync.Mutex

	p := startPool(t, Config{Size: 1}, func(req callRequest) callResponse {
		mu.Lock()
		calls++
		first := calls == 1
		mu.Unlock()
		if first {
			<-release
		}
		return echoHandler(req)
	})

	// First caller gives up while the worker is mid-render.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if _, err := p.Call(ctx, "server.js", []any{"Slow"}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}

	// Let the abandoned exchange finish; the worker must be reusable.
	close(release)

	raw, err := p.Call(context.Background(), "server.js", []any{"Next"})
	if err != nil {
		t.Fatalf("worker not reusable after dropped caller: %v", err)
	}
	var markup string
	json.Unmarshal(raw, &markup)
	if markup != "<div>Next</div>" {
		t.Errorf("markup = %q", markup)
	}
}

func TestPoolStartPartialFailure(t *testing.T) {
	before := runtime.NumGoroutine()

	// The second spawn fails after the first worker is already up.
	var spawned int
	var mu sync.Mutex
	good := fakeSpawn(echoHandler)

	p := New(Config{Size: 4})
	p.spawn = func() (io.WriteCloser, io.ReadCloser, func(), error) {
		mu.Lock()
		n := spawned
		spawned++
		mu.Unlock()
		if n >= 1 {
			return nil, nil, nil, errors.New("spawn refused")
		}
		return good()
	}

	if err := p.Start(); err == nil {
		t.Fatal("Start succeeded with failing spawn")
	}
	if p.Running() {
		t.Error("pool reports running after failed Start")
	}
	if _, err := p.Call(context.Background(), "server.js", nil); !errors.Is(err, ErrStopped) {
		t.Errorf("err = %v, want ErrStopped", err)
	}

	// No serve goroutine may survive the failed Start.
	deadline := time.Now().Add(2 * time.Second)
	for runtime.NumGoroutine() > before+1 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if got := runtime.NumGoroutine(); got > before+1 {
		t.Errorf("goroutines = %d after failed Start, was %d before", got, before)
	}

	// The pool recovers once spawning works again.
	p.spawn = good
	if err := p.Start(); err != nil {
		t.Fatal(err)
	}
	defer p.Stop()
	if _, err := p.Call(context.Background(), "server.js", []any{"Card"}); err != nil {
		t.Errorf("Call after recovery: %v", err)
	}
}

func TestPoolStartIdempotent(t *testing.T) {
	p := startPool(t, Config{Size: 1}, echoHandler)
	if err := p.Start(); err != nil {
		t.Errorf("second Start = %v, want nil", err)
	}
	if !p.Running() {
		t.Error("pool should be running")
	}
}
