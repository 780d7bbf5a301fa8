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

// Package transport implements the stream listener/connector abstraction
// over loopback TCP and local domain sockets, with optional mutual TLS.
package transport

import (
	"net"
	"strings"
)

// Kind discriminates the endpoint family encoded in an endpoint string.
type Kind uint8

const (
	KindTCP Kind = iota
	KindUnix
)

// Endpoint is a parsed listen/connect target: either a TCP host:port or a
// filesystem path to a Unix domain socket.
type Endpoint struct {
	Kind Kind
	Addr string // "host:port" for TCP, filesystem path for Unix.
}

// ParseEndpoint recognizes "unix:<path>" as a domain socket and anything
// else as a TCP host:port.
func ParseEndpoint(s string) Endpoint {
	if strings.HasPrefix(s, "unix:") {
		return Endpoint{Kind: KindUnix, Addr: strings.TrimPrefix(s, "unix:")}
	}
	return Endpoint{Kind: KindTCP, Addr: s}
}

func (e Endpoint) network() string {
	if e.Kind == KindUnix {
		return "unix"
	}
	return "tcp"
}

func (e Endpoint) String() string {
	if e.Kind == KindUnix {
		return "unix:" + e.Addr
	}
	return e.Addr
}

// IsLoopback reports whether a TCP endpoint resolves to a loopback host.
// Unix domain sockets are always treated as implicitly trusted/local.
func (e Endpoint) IsLoopback() bool {
	if e.Kind == KindUnix {
		return true
	}

	host, _, err := net.SplitHostPort(e.Addr)
	if err != nil {
		host = e.Addr
	}

	if host == "localhost" {
		return true
	}

	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
