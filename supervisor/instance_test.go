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

package supervisor_test

import (
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/sabouaram/coord/supervisor"
	"github.com/sabouaram/coord/wire"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Spawn", func() {
	var dir string

	BeforeEach(func() {
		d, err := os.MkdirTemp("", "coord-supervisor")
		Expect(err).To(BeNil())
		dir = d
	})

	AfterEach(func() {
		_ = os.RemoveAll(dir)
	})

	It("runs a successful instance to completion", func() {
		node := wire.NodeDef{Name: "n", Exec: "/bin/true", Instances: 1}
		in, err := supervisor.Spawn(filepath.Join(dir, "inst0"), node, 0, os.Environ())
		Expect(err).To(BeNil())

		Eventually(in.Done(), "2s").Should(BeClosed())
		code, sig, _ := in.Result()
		Expect(code).To(BeZero())
		Expect(sig).To(BeZero())
		Expect(in.IsRunning()).To(BeFalse())
	})

	It("publishes token-found when the stdout token appears", func() {
		node := wire.NodeDef{
			Name: "n", Exec: "/bin/sh", Args: []string{"-c", "echo READY; sleep 1"},
			Instances: 1,
			Readiness: wire.ReadinessSpec{Kind: wire.ReadinessStdoutToken, Token: "READY"},
		}
		in, err := supervisor.Spawn(filepath.Join(dir, "inst0"), node, 0, os.Environ())
		Expect(err).To(BeNil())
		defer func() { _ = in.Signal(syscall.SIGKILL) }()

		Eventually(in.TokenFound(), "2s").Should(BeClosed())
	})

	It("publishes stream-done without a token match when the process exits silently", func() {
		node := wire.NodeDef{
			Name: "n", Exec: "/bin/true", Instances: 1,
			Readiness: wire.ReadinessSpec{Kind: wire.ReadinessStdoutToken, Token: "NEVER"},
		}
		in, err := supervisor.Spawn(filepath.Join(dir, "inst0"), node, 0, os.Environ())
		Expect(err).To(BeNil())

		Eventually(in.StreamDone(), "2s").Should(BeClosed())
		Expect(in.TokenMatched()).To(BeFalse())
	})

	It("writes captured output to stdout.log", func() {
		node := wire.NodeDef{Name: "n", Exec: "/bin/sh", Args: []string{"-c", "echo hello"}, Instances: 1}
		in, err := supervisor.Spawn(filepath.Join(dir, "inst0"), node, 0, os.Environ())
		Expect(err).To(BeNil())

		Eventually(in.Done(), "2s").Should(BeClosed())
		content, rerr := os.ReadFile(in.LogPath)
		Expect(rerr).To(BeNil())
		Expect(string(content)).To(ContainSubstring("hello"))
	})
})

var _ = Describe("Teardown", func() {
	It("terminates a long-running instance with SIGTERM before the shutdown deadline", func() {
		dir, derr := os.MkdirTemp("", "coord-supervisor")
		Expect(derr).To(BeNil())
		defer func() { _ = os.RemoveAll(dir) }()

		node := wire.NodeDef{Name: "n", Exec: "/bin/sleep", Args: []string{"10"}, Instances: 1}
		in, err := supervisor.Spawn(filepath.Join(dir, "inst0"), node, 0, os.Environ())
		Expect(err).To(BeNil())

		start := time.Now()
		supervisor.Teardown([]*supervisor.Instance{in}, 2*time.Second)
		Expect(time.Since(start)).To(BeNumerically("<", 2*time.Second))
		Expect(in.IsRunning()).To(BeFalse())

		_, sig, _ := in.Result()
		Expect(sig).To(Equal(int32(syscall.SIGTERM)))
	})
})
