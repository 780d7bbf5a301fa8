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

// Package portalloc reserves ephemeral loopback ports for a session's
// PortRequest list by binding, reading back the assigned port, and closing
// before the child process is spawned. The bind/read/close window leaves a
// known re-bind race; callers accept it rather than holding the socket open
// across the child's lifetime.
package portalloc

import (
	"fmt"
	"net"

	"github.com/sabouaram/coord/wire"
)

const loopback = "127.0.0.1"

// Allocate resolves every PortRequest into a PortAssignment. Allocation
// failures are soft: they shorten the assignment's Ports slice and are
// appended to the returned diagnostics instead of aborting the call.
func Allocate(reqs []wire.PortRequest) ([]wire.PortAssignment, []string) {
	out := make([]wire.PortAssignment, 0, len(reqs))
	var diagnostics []string

	for _, r := range reqs {
		ports := make([]uint16, 0, r.Count)

		for i := uint32(0); i < r.Count; i++ {
			p, err := bindEphemeral(r.Protocol)
			if err != nil {
				diagnostics = append(diagnostics, fmt.Sprintf(
					"port allocation failed for %q index %d (%s): %s", r.Name, i, r.Protocol, err.Error()))
				continue
			}
			ports = append(ports, p)
		}

		out = append(out, wire.PortAssignment{
			Name:     r.Name,
			Protocol: r.Protocol,
			Ports:    ports,
		})
	}

	return out, diagnostics
}

func bindEphemeral(proto wire.Protocol) (uint16, error) {
	if proto == wire.ProtocolUDP {
		conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.ParseIP(loopback), Port: 0})
		if err != nil {
			return 0, err
		}
		defer func() { _ = conn.Close() }()
		return uint16(conn.LocalAddr().(*net.UDPAddr).Port), nil
	}

	ln, err := net.ListenTCP("tcp", &net.TCPAddr{IP: net.ParseIP(loopback), Port: 0})
	if err != nil {
		return 0, err
	}
	defer func() { _ = ln.Close() }()
	return uint16(ln.Addr().(*net.TCPAddr).Port), nil
}
