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

package supervisor

import (
	"syscall"
	"time"
)

const reapPoll = 20 * time.Millisecond

// Teardown sends SIGTERM to every still-running instance, waits up to
// shutdown for all of them to exit, then sends SIGKILL to any survivors.
// It never auto-restarts a child and returns once every instance has either
// exited or been sent SIGKILL.
func Teardown(instances []*Instance, shutdown time.Duration) {
	live := make([]*Instance, 0, len(instances))
	for _, in := range instances {
		if in.IsRunning() {
			_ = in.Signal(syscall.SIGTERM)
			live = append(live, in)
		}
	}

	if len(live) == 0 {
		return
	}

	deadline := time.Now().Add(shutdown)

	for time.Now().Before(deadline) {
		if allDone(live) {
			return
		}
		time.Sleep(reapPoll)
	}

	for _, in := range live {
		if in.IsRunning() {
			_ = in.Signal(syscall.SIGKILL)
		}
	}

	for _, in := range live {
		<-in.Done()
	}
}

func allDone(instances []*Instance) bool {
	for _, in := range instances {
		if in.IsRunning() {
			return false
		}
	}
	return true
}
