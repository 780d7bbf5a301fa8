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

// Package session keeps the daemon's in-memory registry of submitted
// sessions: it assigns ids, runs each one through the executor (locally or
// by delegating to a peer daemon), and lets callers Wait or poll Status on
// them until a retention sweep prunes the completed ones.
package session

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	libctx "github.com/sabouaram/coord/context"
	"github.com/sabouaram/coord/duration"
	liberr "github.com/sabouaram/coord/errors"

	"github.com/sabouaram/coord/codec"
	"github.com/sabouaram/coord/executor"
	"github.com/sabouaram/coord/transport"
	"github.com/sabouaram/coord/wire"
)

// DefaultRetention is the inactivity window after which a completed session
// becomes eligible for pruning. It is not part of the wire protocol.
const DefaultRetention = 60 * time.Minute

// ParseRetention parses an operator-supplied retention window such as
// "90m" or "2d12h" (see duration.Parse) into a time.Duration. An empty
// string yields DefaultRetention.
func ParseRetention(s string) (time.Duration, error) {
	if s == "" {
		return DefaultRetention, nil
	}
	d, err := duration.Parse(s)
	if err != nil {
		return 0, err
	}
	return d.Time(), nil
}

// Manager owns the session registry for one daemon instance.
type Manager struct {
	exec      *executor.Executor
	peerTLS   transport.TLSMaterial
	retention time.Duration

	reg libctx.Config[string]
	seq int64

	pruneMu sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
}

// New returns a Manager whose local executions are rooted at rootDir.
// peerTLS is used when dialing peer: placements.
func New(rootDir string, peerTLS transport.TLSMaterial, retention time.Duration) *Manager {
	if retention <= 0 {
		retention = DefaultRetention
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Manager{
		exec:      executor.New(rootDir),
		peerTLS:   peerTLS,
		retention: retention,
		reg:       libctx.NewConfig[string](nil),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Shutdown cancels every session still running locally. It does not wait
// for them to finish; the caller observes completion through Wait.
func (m *Manager) Shutdown() {
	m.cancel()
}

// Submit assigns a session id when spec.SessionID is empty, registers the
// session and starts its worker in the background. It returns the assigned
// id immediately.
func (m *Manager) Submit(spec wire.SessionSpec) string {
	m.prune()

	id := spec.SessionID
	if id == "" {
		id = m.nextID()
	}
	spec.SessionID = id

	st := newState(id)
	m.reg.Store(id, st)

	go m.run(spec, st)

	return id
}

// Wait blocks until the session completes and returns a copy of its
// manifest. An unknown id returns a synthetic Error manifest immediately.
func (m *Manager) Wait(id string) wire.SessionManifest {
	m.prune()

	st, ok := m.lookup(id)
	if !ok {
		return unknownManifest(id)
	}
	return st.wait()
}

// Status returns a non-blocking snapshot. An unknown id is reported as a
// completed Error session.
func (m *Manager) Status(id string) wire.Status {
	m.prune()

	st, ok := m.lookup(id)
	if !ok {
		return wire.Status{SessionID: id, Result: wire.ResultError, Complete: true}
	}
	return st.status()
}

// Counts returns the number of sessions currently running versus the
// number that have completed and are still held in the registry.
func (m *Manager) Counts() (active, completed int) {
	m.reg.Walk(func(_ string, val interface{}) bool {
		if st, ok := val.(*state); ok {
			if st.isComplete() {
				completed++
			} else {
				active++
			}
		}
		return true
	})
	return
}

func (m *Manager) lookup(id string) (*state, bool) {
	v, ok := m.reg.Load(id)
	if !ok {
		return nil, false
	}
	st, ok := v.(*state)
	return st, ok
}

func (m *Manager) nextID() string {
	n := atomic.AddInt64(&m.seq, 1)
	return fmt.Sprintf("sess-%d-%d", time.Now().UnixMilli(), n)
}

func (m *Manager) run(spec wire.SessionSpec, st *state) {
	var manifest wire.SessionManifest

	if spec.Placement.IsPeer() {
		manifest = m.delegate(spec)
	} else {
		manifest = m.exec.Execute(m.ctx, spec)
	}

	st.finish(manifest)
}

// delegate forwards spec to a peer daemon: Submit, await Accepted, then
// Wait for its manifest and adopt it verbatim. There is no retry; a peer
// that is unreachable or misbehaves yields a local Error manifest.
func (m *Manager) delegate(spec wire.SessionSpec) wire.SessionManifest {
	ep := transport.ParseEndpoint(spec.Placement.PeerEndpoint())

	serverName, _, _ := net.SplitHostPort(ep.Addr)

	conn, cerr := transport.Connect(ep, m.peerTLS, serverName)
	if cerr != nil {
		return peerErrManifest(spec, ErrorPeerDial.Error(cerr))
	}
	defer func() { _ = conn.Close() }()

	accepted, aerr := m.peerRoundTrip(conn, wire.NewSubmit(spec), wire.TagAccepted)
	if aerr != nil {
		return peerErrManifest(spec, aerr)
	}

	reply, werr := m.peerRoundTrip(conn, wire.NewWait(accepted.Accepted.SessionID), wire.TagManifest)
	if werr != nil {
		return peerErrManifest(spec, werr)
	}

	return reply.Manifest
}

func (m *Manager) peerRoundTrip(conn net.Conn, req wire.Message, want wire.Tag) (wire.Message, liberr.Error) {
	if werr := codec.WriteMessage(conn, req); werr != nil {
		return wire.Message{}, ErrorPeerDial.Error(werr)
	}

	reply, rerr := codec.ReadMessage(conn)
	if rerr != nil {
		return wire.Message{}, ErrorPeerDial.Error(rerr)
	}
	if reply.Tag != want {
		return wire.Message{}, ErrorPeerProtocol.Error(nil)
	}

	return reply, nil
}

// prune drops completed sessions whose retention window has elapsed. It
// never touches a session that is still running.
func (m *Manager) prune() {
	m.pruneMu.Lock()
	defer m.pruneMu.Unlock()

	now := time.Now()
	var stale []string

	m.reg.Walk(func(id string, val interface{}) bool {
		if st, ok := val.(*state); ok && st.idle(now, m.retention) {
			stale = append(stale, id)
		}
		return true
	})

	for _, id := range stale {
		m.reg.Delete(id)
	}
}

func unknownManifest(id string) wire.SessionManifest {
	now := uint64(time.Now().UnixMilli())
	return wire.SessionManifest{
		SessionID:  id,
		Result:     wire.ResultError,
		FailReason: ErrorUnknownSession.Error(nil).Error(),
		StartMs:    now,
		EndMs:      now,
	}
}

func peerErrManifest(spec wire.SessionSpec, err liberr.Error) wire.SessionManifest {
	now := uint64(time.Now().UnixMilli())
	return wire.SessionManifest{
		SessionID:  spec.SessionID,
		Group:      spec.Group,
		Mode:       spec.Mode,
		Result:     wire.ResultError,
		FailReason: err.Error(),
		StartMs:    now,
		EndMs:      now,
	}
}
