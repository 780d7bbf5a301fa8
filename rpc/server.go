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

// Package rpc runs the daemon's accept loop and dispatches each of the
// eight wire.Message tags onto the session manager. One goroutine per
// accepted connection runs an independent request/response pump so a
// blocking Wait never stalls another client.
package rpc

import (
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sabouaram/coord/codec"
	liberr "github.com/sabouaram/coord/errors"
	"github.com/sabouaram/coord/monitor"
	"github.com/sabouaram/coord/session"
	"github.com/sabouaram/coord/transport"
	"github.com/sabouaram/coord/wire"
)

const selfDialTimeout = 5 * time.Second

// Server owns one listener and dispatches requests onto a session.Manager.
// Shutdown is cooperative: it flips a flag and self-dials the listener to
// unblock the accept loop's next Accept call.
type Server struct {
	ln  *transport.Listener
	ep  transport.Endpoint
	mat transport.TLSMaterial

	mgr   *session.Manager
	mon   *monitor.Collector
	token string

	idleMu sync.RWMutex
	onIdle func()

	down atomic.Bool
}

// New returns a Server that serves mgr over ln. token is the shared secret
// required on a Shutdown request; an empty token rejects every Shutdown.
// mon is optional: when set, a StatusReq with an empty session id returns
// its snapshot instead of an unknown-session error.
func New(ln *transport.Listener, ep transport.Endpoint, mat transport.TLSMaterial, mgr *session.Manager, mon *monitor.Collector, token string) *Server {
	return &Server{ln: ln, ep: ep, mat: mat, mgr: mgr, mon: mon, token: token}
}

// OnIdle registers a callback invoked once per accept-loop iteration,
// right before the loop blocks on the next Accept. The daemon uses this to
// write its status.json snapshot opportunistically rather than on a timer.
func (s *Server) OnIdle(fct func()) {
	s.idleMu.Lock()
	defer s.idleMu.Unlock()
	s.onIdle = fct
}

// Serve runs the accept loop until Shutdown flips the internal flag. It
// always returns nil; accept errors besides a deliberate shutdown are
// logged by the caller via its own Accept return and retried.
func (s *Server) Serve() liberr.Error {
	for {
		s.idleMu.RLock()
		idle := s.onIdle
		s.idleMu.RUnlock()
		if idle != nil {
			idle()
		}

		conn, aerr := s.ln.Accept()

		if s.down.Load() {
			if aerr == nil {
				_ = conn.Close()
			}
			return nil
		}

		if aerr != nil {
			continue
		}

		go s.handle(conn)
	}
}

// IsDown reports whether Shutdown has been requested.
func (s *Server) IsDown() bool {
	return s.down.Load()
}

func (s *Server) handle(conn net.Conn) {
	defer func() { _ = conn.Close() }()

	for {
		payload, rerr := codec.ReadFrame(conn)
		if rerr != nil {
			return
		}

		msg, derr := codec.DecodeMessage(payload)
		if derr != nil {
			_ = codec.WriteMessage(conn, wire.NewError(derr.Error()))
			continue
		}

		reply := s.dispatch(msg)
		if werr := codec.WriteMessage(conn, reply); werr != nil {
			return
		}
	}
}

func (s *Server) dispatch(msg wire.Message) wire.Message {
	switch msg.Tag {
	case wire.TagSubmit:
		id := s.mgr.Submit(msg.Submit.Spec)
		return wire.NewAccepted(id)

	case wire.TagWait:
		return wire.NewManifest(s.mgr.Wait(msg.Wait.SessionID))

	case wire.TagStatusReq:
		if msg.StatusReq.SessionID == "" && s.mon != nil {
			return wire.NewStatus(s.daemonStatus())
		}
		return wire.NewStatus(s.mgr.Status(msg.StatusReq.SessionID))

	case wire.TagShutdown:
		return s.dispatchShutdown(msg.Shutdown)

	default:
		return wire.NewError("unexpected request tag: " + msg.Tag.String())
	}
}

func (s *Server) daemonStatus() wire.Status {
	snap := s.mon.Snapshot()
	return wire.Status{
		Complete:                true,
		DaemonHealth:            snap.Health,
		DaemonUptimeSeconds:     snap.UptimeSeconds,
		DaemonActiveSessions:    snap.ActiveSessions,
		DaemonCompletedSessions: snap.CompletedSessions,
	}
}

func (s *Server) dispatchShutdown(req wire.Shutdown) wire.Message {
	if s.token == "" || req.Token != s.token {
		return wire.NewError("invalid shutdown token")
	}

	s.down.Store(true)
	go s.unblockAccept()

	return wire.NewStatus(wire.Status{Complete: true})
}

// unblockAccept dials the listener's own bound address so the blocked
// Accept call in Serve returns and observes the shutdown flag. It always
// uses the address actually bound (not the configured one), so an
// ephemeral port or a wildcard host resolves correctly.
func (s *Server) unblockAccept() {
	ep := transport.Endpoint{Kind: s.ep.Kind, Addr: s.ln.Addr().String()}

	serverName, host, isTCP := splitDialHost(ep)
	if isTCP && (host == "0.0.0.0" || host == "::" || host == "") {
		_, port, _ := net.SplitHostPort(ep.Addr)
		ep.Addr = net.JoinHostPort("127.0.0.1", port)
	}

	conn, cerr := transport.Connect(ep, s.mat, serverName)
	if cerr != nil {
		return
	}
	_ = conn.SetDeadline(time.Now().Add(selfDialTimeout))
	_ = conn.Close()
}

func splitDialHost(ep transport.Endpoint) (serverName, host string, isTCP bool) {
	if ep.Kind != transport.KindTCP {
		return "", "", false
	}
	host, _, _ = net.SplitHostPort(ep.Addr)
	return host, host, true
}
