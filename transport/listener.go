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

package transport

import (
	"crypto/tls"
	"net"
	"os"

	liberr "github.com/sabouaram/coord/errors"
)

const backlog = 128

// Listener wraps a net.Listener bound to an Endpoint, optionally upgrading
// accepted connections to TLS.
type Listener struct {
	ln  net.Listener
	tls *tls.Config
}

// Listen binds the endpoint and returns a Listener ready to Accept. A
// non-loopback TCP endpoint without enabled TLS material is refused before
// any socket is created.
func Listen(ep Endpoint, mat TLSMaterial) (*Listener, liberr.Error) {
	if ep.Kind == KindTCP && !ep.IsLoopback() && !mat.Enabled {
		return nil, ErrorTLSRequired.Error(nil)
	}

	cfg, err := mat.build("")
	if err != nil {
		return nil, err
	}

	if ep.Kind == KindUnix {
		_ = os.Remove(ep.Addr)
	}

	raw, e := net.Listen(ep.network(), ep.Addr)
	if e != nil {
		return nil, ErrorListen.Error(e)
	}

	if lc, ok := raw.(*net.TCPListener); ok {
		raw = tcpKeepAliveListener{lc}
	}

	return &Listener{ln: raw, tls: cfg}, nil
}

// Addr returns the bound local address.
func (l *Listener) Addr() net.Addr {
	return l.ln.Addr()
}

// Close releases the listening socket.
func (l *Listener) Close() error {
	return l.ln.Close()
}

// Accept waits for and returns the next connection, performing the TLS
// server handshake when the listener was bound with TLS material enabled.
func (l *Listener) Accept() (net.Conn, liberr.Error) {
	conn, e := l.ln.Accept()
	if e != nil {
		return nil, ErrorAccept.Error(e)
	}

	if l.tls == nil {
		return conn, nil
	}

	tc := tls.Server(conn, l.tls)
	if e = tc.Handshake(); e != nil {
		_ = conn.Close()
		return nil, ErrorHandshake.Error(e)
	}

	return tc, nil
}

// Connect dials the endpoint, performing the TLS client handshake when mat
// is enabled. serverName is used for SNI and certificate verification; it
// is ignored for Unix domain sockets.
func Connect(ep Endpoint, mat TLSMaterial, serverName string) (net.Conn, liberr.Error) {
	if ep.Kind == KindTCP && !ep.IsLoopback() && !mat.Enabled {
		return nil, ErrorTLSRequired.Error(nil)
	}

	cfg, err := mat.build(serverName)
	if err != nil {
		return nil, err
	}

	conn, e := net.Dial(ep.network(), ep.Addr)
	if e != nil {
		return nil, ErrorConnect.Error(e)
	}

	if cfg == nil {
		return conn, nil
	}

	tc := tls.Client(conn, cfg)
	if e = tc.Handshake(); e != nil {
		_ = conn.Close()
		return nil, ErrorHandshake.Error(e)
	}

	return tc, nil
}

// tcpKeepAliveListener mirrors the net/http server's accept loop, enabling
// keep-alives on freshly accepted TCP connections so idle peers are reaped.
type tcpKeepAliveListener struct {
	*net.TCPListener
}

func (ln tcpKeepAliveListener) Accept() (net.Conn, error) {
	tc, err := ln.AcceptTCP()
	if err != nil {
		return nil, err
	}
	_ = tc.SetKeepAlive(true)
	return tc, nil
}
