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

// Package readiness blocks until a node instance satisfies its ReadinessSpec
// or a deadline expires. Any deadline expiry is attributed to the offending
// instance as a readiness failure.
package readiness

import (
	"context"
	"net"
	"os"
	"time"

	liberr "github.com/sabouaram/coord/errors"
	"github.com/sabouaram/coord/wire"
)

const pollInterval = 100 * time.Millisecond

// TokenSource exposes the two edge-triggered events a running instance
// publishes while its stdout is being scanned for a readiness token.
type TokenSource interface {
	TokenFound() <-chan struct{}
	StreamDone() <-chan struct{}
}

// Wait blocks until spec is satisfied or deadline passes, whichever is
// first. src is only consulted for ReadinessStdoutToken.
func Wait(ctx context.Context, spec wire.ReadinessSpec, src TokenSource, deadline time.Time) liberr.Error {
	switch spec.Kind {
	case wire.ReadinessNone:
		return nil
	case wire.ReadinessStdoutToken:
		return waitToken(ctx, src, deadline)
	case wire.ReadinessFile:
		return waitFile(ctx, spec.Path, deadline)
	case wire.ReadinessSocket:
		return waitSocket(ctx, spec.Addr, deadline)
	default:
		return nil
	}
}

func waitToken(ctx context.Context, src TokenSource, deadline time.Time) liberr.Error {
	timer := time.NewTimer(time.Until(deadline))
	defer timer.Stop()

	select {
	case <-src.TokenFound():
		return nil
	case <-src.StreamDone():
		select {
		case <-src.TokenFound():
			return nil
		default:
			return ErrorStreamClosed.Error(nil)
		}
	case <-timer.C:
		return ErrorDeadline.Error(nil)
	case <-ctx.Done():
		return ErrorDeadline.Error(ctx.Err())
	}
}

func waitFile(ctx context.Context, path string, deadline time.Time) liberr.Error {
	for {
		if _, err := os.Stat(path); err == nil {
			return nil
		}

		if !time.Now().Before(deadline) {
			return ErrorDeadline.Error(nil)
		}

		select {
		case <-ctx.Done():
			return ErrorDeadline.Error(ctx.Err())
		case <-time.After(pollInterval):
		}
	}
}

func waitSocket(ctx context.Context, addr string, deadline time.Time) liberr.Error {
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return ErrorDeadline.Error(nil)
		}

		dialTimeout := remaining
		if dialTimeout > pollInterval {
			dialTimeout = pollInterval
		}

		conn, err := net.DialTimeout("tcp", addr, dialTimeout)
		if err == nil {
			_ = conn.Close()
			return nil
		}

		if !time.Now().Before(deadline) {
			return ErrorDeadline.Error(nil)
		}

		select {
		case <-ctx.Done():
			return ErrorDeadline.Error(ctx.Err())
		default:
		}
	}
}
