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

package wire

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	EnvSessionID = "COORD_SESSION_ID"
	EnvGroup     = "COORD_GROUP"
	EnvNodeName  = "COORD_NODE_NAME"
	EnvNodeIndex = "COORD_NODE_INDEX"
)

// Sanitize maps every non-ASCII-alphanumeric rune of s to an underscore and
// uppercases the rest, matching the COORD_* env var naming contract.
func Sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r - ('a' - 'A'))
		case (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}

	return b.String()
}

// EnvNodeAddr is the name of the injected variable carrying node's address.
func EnvNodeAddr(node string) string {
	return "COORD_NODE_ADDR_" + Sanitize(node)
}

// EnvPort is the name of the injected variable carrying the single port of a
// port assignment, valid only when the assignment has exactly one port.
func EnvPort(name string) string {
	return "COORD_PORT_" + Sanitize(name)
}

// EnvPortIndexed is the name of the injected variable carrying the i-th port
// of a port assignment.
func EnvPortIndexed(name string, i int) string {
	return fmt.Sprintf("COORD_PORT_%s_%d", Sanitize(name), i)
}

// InjectedEnv builds the deterministic set of COORD_* variables for one
// instance, in the order described in §6.2, before any node-provided entries
// are applied. addrs maps every declared node name to its resolved address.
func InjectedEnv(sessionID, group, nodeName string, index uint32, addrs map[string]string, ports []PortAssignment) []string {
	env := make([]string, 0, 4+len(addrs)+2*len(ports))

	env = append(env,
		EnvSessionID+"="+sessionID,
		EnvGroup+"="+group,
		EnvNodeName+"="+nodeName,
		EnvNodeIndex+"="+strconv.FormatUint(uint64(index), 10),
	)

	for n, a := range addrs {
		env = append(env, EnvNodeAddr(n)+"="+a)
	}

	for _, p := range ports {
		if len(p.Ports) == 1 {
			env = append(env, EnvPort(p.Name)+"="+strconv.Itoa(int(p.Ports[0])))
		}
		for i, port := range p.Ports {
			env = append(env, EnvPortIndexed(p.Name, i)+"="+strconv.Itoa(int(port)))
		}
	}

	return env
}

// MergeEnv applies overrides on top of base, overrides winning on key
// collision, preserving base's ordering for keys not overridden.
func MergeEnv(base, overrides []string) []string {
	key := func(kv string) string {
		if i := strings.IndexByte(kv, '='); i >= 0 {
			return kv[:i]
		}
		return kv
	}

	seen := make(map[string]int, len(base))
	out := make([]string, 0, len(base)+len(overrides))

	for _, kv := range base {
		seen[key(kv)] = len(out)
		out = append(out, kv)
	}

	for _, kv := range overrides {
		k := key(kv)
		if idx, ok := seen[k]; ok {
			out[idx] = kv
		} else {
			seen[k] = len(out)
			out = append(out, kv)
		}
	}

	return out
}
