package watch

import (
	"context"
	"sync"
)

// worker runs at most one build at a time. Requests arriving during a build
// collapse into a single follow-up run.
type worker struct {
	run func(ctx context.Context)

	mu      sync.Mutex
	running bool
	pending bool
	closed  bool
	wg      sync.WaitGroup
}

// request starts a run, or marks one pending if a run is in progress. It
// reports whether the request was queued.
func (w *worker) request(ctx context.Context) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return false
	}
	if w.running {
		w.pending = true
		return true
	}
	w.running = true
	w.wg.Add(1)
	go w.loop(ctx)
	return false
}

func (w *worker) loop(ctx context.Context) {
	defer w.wg.Done()
	for {
		w.run(ctx)

		w.mu.Lock()
		if !w.pending || ctx.Err() != nil {
			w.running = false
			w.pending = false
			w.mu.Unlock()
			return
		}
		w.pending = false
		w.mu.Unlock()
	}
}

// wait refuses further requests and blocks until the running build ends.
func (w *worker) wait() {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
	w.wg.Wait()
}
