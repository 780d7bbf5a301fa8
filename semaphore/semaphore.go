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

// Package semaphore bounds the number of goroutines allowed to run
// concurrently for a given task (the logger's file/aggregator writers, in
// this tree) and optionally tracks progress of the work each worker does
// through a small Bar abstraction. There is no visual renderer behind Bar
// here - see the BarOpts/BarBytes/BarTime/BarNumber doc comments.
package semaphore

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

var simultaneous = int64(runtime.GOMAXPROCS(0))

// MaxSimultaneous returns the current default worker ceiling, derived from
// GOMAXPROCS unless overridden by SetSimultaneous.
func MaxSimultaneous() int64 {
	return atomic.LoadInt64(&simultaneous)
}

// SetSimultaneous overrides the default worker ceiling. A non-positive
// value is ignored and the current ceiling is returned unchanged.
func SetSimultaneous(n int64) int64 {
	if n <= 0 {
		return MaxSimultaneous()
	}
	atomic.StoreInt64(&simultaneous, n)
	return n
}

// Bar tracks progress for one unit of work queued behind a Semaphore. With
// no progress container backing it (Semaphore created with progress=false,
// or the package-level fallback), Inc/Inc64/Complete are bookkeeping only.
type Bar interface {
	// Total returns the bar's declared total, or 0 if the bar carries no
	// progress container.
	Total() int64

	// Inc advances the bar by n units.
	Inc(n int)

	// Inc64 advances the bar by n units (byte-oriented bars).
	Inc64(n int64)

	// Complete marks the bar as finished regardless of how much progress
	// was reported.
	Complete()

	// Completed reports whether Complete was called.
	Completed() bool

	// NewWorker acquires a slot on the owning semaphore for this bar's work.
	NewWorker() error

	// DeferWorker increments the bar by one and releases the semaphore slot
	// acquired by NewWorker.
	DeferWorker()
}

// Semaphore bounds concurrent access to a resource while doubling as a
// context.Context: Done/Err/Deadline/Value delegate to the context it was
// created with, and the returned Context is cancelled by DeferMain.
type Semaphore interface {
	context.Context

	// Weighted returns the configured concurrency limit, or -1 if unbounded.
	Weighted() int64

	// NewWorker blocks until a slot is available or the semaphore's
	// context is done, whichever happens first.
	NewWorker() error

	// NewWorkerTry attempts to acquire a slot without blocking.
	NewWorkerTry() bool

	// DeferWorker releases a slot acquired by NewWorker/NewWorkerTry.
	DeferWorker()

	// DeferMain cancels the semaphore's context, unblocking any pending
	// NewWorker/WaitAll callers. Intended to be deferred by the caller that
	// owns the semaphore, mirroring the worker-side DeferWorker.
	DeferMain()

	// WaitAll blocks until every acquired slot has been released, or the
	// semaphore's context is done.
	WaitAll() error

	// Clone returns an independent Semaphore with the same concurrency
	// limit and progress setting, derived from the same parent context.
	Clone() Semaphore

	// New is equivalent to Clone; it exists to match call sites that read
	// more naturally as "give me a fresh one like this".
	New() Semaphore

	// BarBytes returns a progress bar sized for a byte count (downloads,
	// file copies). prev, if non-nil, is ignored by the no-render
	// implementation but kept for call-site compatibility.
	BarBytes(title, name string, total int64, drop bool, prev Bar) Bar

	// BarTime returns a progress bar for a task measured by elapsed steps.
	BarTime(title, name string, total int64, drop bool, prev Bar) Bar

	// BarNumber returns a progress bar for a task measured by item count.
	BarNumber(title, name string, total int64, drop bool, prev Bar) Bar

	// BarOpts returns a bare progress bar with the given total and drop
	// behavior, without title/name decoration.
	BarOpts(total int64, drop bool) Bar
}

type sem struct {
	ctx      context.Context
	cancel   context.CancelFunc
	weight   int64
	progress bool

	mu   sync.Mutex
	slot chan struct{}
	wg   sync.WaitGroup
}

// New returns a Semaphore allowing up to n concurrent workers. n <= 0 means
// unbounded. progress enables the Bar-returning constructors; without it,
// bars report a zero Total and are otherwise inert bookkeeping.
func New(ctx context.Context, n int64, progress bool) Semaphore {
	if ctx == nil {
		ctx = context.Background()
	}

	cctx, cancel := context.WithCancel(ctx)

	s := &sem{
		ctx:      cctx,
		cancel:   cancel,
		weight:   n,
		progress: progress,
	}

	if n > 0 {
		s.slot = make(chan struct{}, n)
	}

	return s
}

// NewSemaphoreWithContext is equivalent to New(ctx, n, false); it exists for
// call sites that don't need progress bars.
func NewSemaphoreWithContext(ctx context.Context, n int64) Semaphore {
	return New(ctx, n, false)
}

func (s *sem) Deadline() (deadline time.Time, ok bool) {
	return s.ctx.Deadline()
}

func (s *sem) Done() <-chan struct{} {
	return s.ctx.Done()
}

func (s *sem) Err() error {
	return s.ctx.Err()
}

func (s *sem) Value(key interface{}) interface{} {
	return s.ctx.Value(key)
}

func (s *sem) Weighted() int64 {
	if s.weight <= 0 {
		return -1
	}
	return s.weight
}

func (s *sem) NewWorker() error {
	if s.slot == nil {
		s.wg.Add(1)
		return nil
	}

	select {
	case s.slot <- struct{}{}:
		s.wg.Add(1)
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	}
}

func (s *sem) NewWorkerTry() bool {
	if s.slot == nil {
		s.wg.Add(1)
		return true
	}

	select {
	case s.slot <- struct{}{}:
		s.wg.Add(1)
		return true
	default:
		return false
	}
}

func (s *sem) DeferWorker() {
	if s.slot != nil {
		select {
		case <-s.slot:
		default:
		}
	}
	s.wg.Done()
}

func (s *sem) WaitAll() error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	}
}

func (s *sem) DeferMain() {
	s.cancel()
}

func (s *sem) Clone() Semaphore {
	return New(s.ctx, s.weight, s.progress)
}

func (s *sem) New() Semaphore {
	return s.Clone()
}

func (s *sem) BarBytes(title, name string, total int64, drop bool, prev Bar) Bar {
	return s.newBar(total, drop)
}

func (s *sem) BarTime(title, name string, total int64, drop bool, prev Bar) Bar {
	return s.newBar(total, drop)
}

func (s *sem) BarNumber(title, name string, total int64, drop bool, prev Bar) Bar {
	return s.newBar(total, drop)
}

func (s *sem) BarOpts(total int64, drop bool) Bar {
	return s.newBar(total, drop)
}

func (s *sem) newBar(total int64, drop bool) Bar {
	b := &bar{owner: s, drop: drop}
	if s.progress {
		b.total = total
	}
	return b
}

type bar struct {
	owner *sem
	total int64
	drop  bool

	cur       int64
	completed int32
}

func (b *bar) Total() int64 {
	return b.total
}

func (b *bar) Inc(n int) {
	atomic.AddInt64(&b.cur, int64(n))
}

func (b *bar) Inc64(n int64) {
	atomic.AddInt64(&b.cur, n)
}

func (b *bar) Complete() {
	atomic.StoreInt32(&b.completed, 1)
}

func (b *bar) Completed() bool {
	return atomic.LoadInt32(&b.completed) == 1
}

func (b *bar) NewWorker() error {
	return b.owner.NewWorker()
}

func (b *bar) DeferWorker() {
	b.Inc(1)
	b.owner.DeferWorker()
}
