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

// Package monitor publishes a read-only health snapshot of the daemon to
// disk so external supervisors can poll liveness without speaking the RPC
// protocol.
package monitor

import "encoding/json"

// Health is an ordered liveness grade: Warn and KO both mean "degraded",
// but KO additionally means no session can currently make progress.
type Health int

const (
	KO Health = iota
	Warn
	OK
)

// String defaults to "KO" for any value outside the known range, matching
// the fail-closed behavior expected of a liveness probe.
func (h Health) String() string {
	switch h {
	case Warn:
		return "Warn"
	case OK:
		return "OK"
	default:
		return "KO"
	}
}

func (h Health) Int() int {
	return int(h)
}

func (h Health) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.String())
}
