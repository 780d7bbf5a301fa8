/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package startStop wraps a pair of closures - a run function and a close
// function - into a restartable background worker with Start/Stop/IsRunning/
// Uptime and a bounded error history. It is the generic lifecycle underneath
// things like the logger's hookfile aggregator.
package startStop

import (
	"context"
	"sync"
	"time"
)

// maxErrorHistory bounds the ring buffer returned by ErrorsList.
const maxErrorHistory = 16

// StartStop is a restartable background worker built from a run function
// and a close function.
type StartStop interface {
	// Start launches run in a new goroutine and returns once it has been
	// launched; it does not wait for run to return. Calling Start while
	// already running replaces the previous goroutine bookkeeping.
	Start(ctx context.Context) error

	// Stop cancels the running goroutine's context, waits for it to
	// return (bounded by ctx), then calls the close function. Stop is a
	// no-op if the worker was never started.
	Stop(ctx context.Context) error

	// IsRunning reports whether the run goroutine is currently active.
	IsRunning() bool

	// Uptime returns the time since the last Start, or 0 if not running.
	Uptime() time.Duration

	// ErrorsLast returns the most recent error from run or the close
	// function, or nil if none occurred.
	ErrorsLast() error

	// ErrorsList returns up to maxErrorHistory of the most recent errors,
	// oldest first.
	ErrorsList() []error
}

type worker struct {
	run   func(ctx context.Context) error
	close func(ctx context.Context) error

	mu        sync.Mutex
	running   bool
	startTime time.Time
	cancel    context.CancelFunc
	done      chan struct{}
	errs      []error
}

// New returns a StartStop that calls run in a background goroutine on
// Start, and close once that goroutine has returned on Stop.
func New(run func(ctx context.Context) error, closeFn func(ctx context.Context) error) StartStop {
	return &worker{run: run, close: closeFn}
}

func (w *worker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	cctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})
	w.startTime = time.Now()
	w.running = true

	done := w.done
	go func() {
		defer close(done)
		if err := w.run(cctx); err != nil {
			w.recordError(err)
		}
	}()

	return nil
}

func (w *worker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	cancel := w.cancel
	done := w.done
	w.mu.Unlock()

	cancel()

	select {
	case <-done:
	case <-ctx.Done():
	}

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	var err error
	if w.close != nil {
		err = w.close(ctx)
		if err != nil {
			w.recordError(err)
		}
	}

	return err
}

func (w *worker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *worker) Uptime() time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return 0
	}
	return time.Since(w.startTime)
}

func (w *worker) recordError(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.errs = append(w.errs, err)
	if len(w.errs) > maxErrorHistory {
		w.errs = w.errs[len(w.errs)-maxErrorHistory:]
	}
}

func (w *worker) ErrorsLast() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.errs) == 0 {
		return nil
	}
	return w.errs[len(w.errs)-1]
}

func (w *worker) ErrorsList() []error {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]error, len(w.errs))
	copy(out, w.errs)
	return out
}
