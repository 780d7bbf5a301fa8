/*
 * MIT License
 *
 * Copyright (c) 2024 Nicolas JUHEL
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

package session

import (
	"sync"
	"time"

	"github.com/sabouaram/coord/wire"
)

// state tracks one submitted session from registration to retention expiry.
// complete and manifest are only ever written by the session's own worker
// goroutine; every other field access goes through mu/cond.
type state struct {
	mu   sync.Mutex
	cond *sync.Cond

	id       string
	running  bool
	complete bool
	manifest wire.SessionManifest

	submittedAt time.Time
	completedAt time.Time
	lastAccess  time.Time
}

func newState(id string) *state {
	s := &state{id: id, running: true, submittedAt: time.Now(), lastAccess: time.Now()}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// finish records m as the session's final manifest and wakes every waiter.
func (s *state) finish(m wire.SessionManifest) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.manifest = m
	s.running = false
	s.complete = true
	s.completedAt = time.Now()
	s.cond.Broadcast()
}

// wait blocks until the session completes and returns a copy of its manifest.
func (s *state) wait() wire.SessionManifest {
	s.mu.Lock()
	defer s.mu.Unlock()

	for !s.complete {
		s.cond.Wait()
	}

	s.lastAccess = time.Now()
	return s.manifest
}

// isComplete reports whether the worker has already stored a manifest.
func (s *state) isComplete() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.complete
}

func (s *state) status() wire.Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastAccess = time.Now()
	return wire.Status{SessionID: s.id, Result: s.manifest.Result, Complete: s.complete}
}

// idle reports whether this session may be pruned: it must be complete and
// its retention window, measured from the later of completion and last
// access, must have elapsed.
func (s *state) idle(now time.Time, retention time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running || !s.complete {
		return false
	}

	since := s.completedAt
	if s.lastAccess.After(since) {
		since = s.lastAccess
	}
	return now.Sub(since) >= retention
}
