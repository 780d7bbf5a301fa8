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

package session_test

import (
	"os"
	"time"

	"github.com/sabouaram/coord/session"
	"github.com/sabouaram/coord/transport"
	"github.com/sabouaram/coord/wire"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Manager", func() {
	var root string

	BeforeEach(func() {
		d, err := os.MkdirTemp("", "coord-session")
		Expect(err).To(BeNil())
		root = d
	})

	AfterEach(func() {
		_ = os.RemoveAll(root)
	})

	It("runs a submitted session locally and assigns an id", func() {
		mgr := session.New(root, transport.TLSMaterial{}, session.DefaultRetention)

		id := mgr.Submit(wire.SessionSpec{
			Nodes:    []wire.NodeDef{{Name: "n", Exec: "/bin/true", Instances: 1}},
			Timeouts: wire.Timeouts{StartupMs: 2000, SessionMs: 5000, ShutdownMs: 500},
		})
		Expect(id).ToNot(BeEmpty())

		m := mgr.Wait(id)
		Expect(m.Result).To(Equal(wire.ResultSuccess))
		Expect(m.SessionID).To(Equal(id))
	})

	It("preserves a caller-supplied session id", func() {
		mgr := session.New(root, transport.TLSMaterial{}, session.DefaultRetention)

		id := mgr.Submit(wire.SessionSpec{
			SessionID: "fixed-id",
			Nodes:     []wire.NodeDef{{Name: "n", Exec: "/bin/true", Instances: 1}},
			Timeouts:  wire.Timeouts{StartupMs: 2000, SessionMs: 5000, ShutdownMs: 500},
		})
		Expect(id).To(Equal("fixed-id"))
	})

	It("reports status without blocking and reflects completion", func() {
		mgr := session.New(root, transport.TLSMaterial{}, session.DefaultRetention)

		id := mgr.Submit(wire.SessionSpec{
			Nodes:    []wire.NodeDef{{Name: "n", Exec: "/bin/true", Instances: 1}},
			Timeouts: wire.Timeouts{StartupMs: 2000, SessionMs: 5000, ShutdownMs: 500},
		})

		Eventually(func() bool {
			return mgr.Status(id).Complete
		}, time.Second, 10*time.Millisecond).Should(BeTrue())

		Expect(mgr.Status(id).Result).To(Equal(wire.ResultSuccess))
	})

	It("returns a synthetic error for an unknown session id", func() {
		mgr := session.New(root, transport.TLSMaterial{}, session.DefaultRetention)

		st := mgr.Status("does-not-exist")
		Expect(st.Complete).To(BeTrue())
		Expect(st.Result).To(Equal(wire.ResultError))

		m := mgr.Wait("does-not-exist")
		Expect(m.Result).To(Equal(wire.ResultError))
	})

	It("prunes a completed session once its retention window elapses", func() {
		mgr := session.New(root, transport.TLSMaterial{}, 20*time.Millisecond)

		id := mgr.Submit(wire.SessionSpec{
			Nodes:    []wire.NodeDef{{Name: "n", Exec: "/bin/true", Instances: 1}},
			Timeouts: wire.Timeouts{StartupMs: 2000, SessionMs: 5000, ShutdownMs: 500},
		})
		_ = mgr.Wait(id)

		time.Sleep(50 * time.Millisecond)

		// The next Submit call triggers an opportunistic prune.
		_ = mgr.Submit(wire.SessionSpec{
			Nodes:    []wire.NodeDef{{Name: "n", Exec: "/bin/true", Instances: 1}},
			Timeouts: wire.Timeouts{StartupMs: 2000, SessionMs: 5000, ShutdownMs: 500},
		})

		st := mgr.Status(id)
		Expect(st.Complete).To(BeTrue())
		Expect(st.Result).To(Equal(wire.ResultError))
	})

	It("never prunes a session that is still running", func() {
		mgr := session.New(root, transport.TLSMaterial{}, time.Nanosecond)

		id := mgr.Submit(wire.SessionSpec{
			Nodes:    []wire.NodeDef{{Name: "n", Exec: "/bin/sleep", Args: []string{"1"}, Instances: 1}},
			Timeouts: wire.Timeouts{StartupMs: 2000, SessionMs: 5000, ShutdownMs: 500},
		})

		time.Sleep(10 * time.Millisecond)
		_ = mgr.Submit(wire.SessionSpec{
			Nodes:    []wire.NodeDef{{Name: "n", Exec: "/bin/true", Instances: 1}},
			Timeouts: wire.Timeouts{StartupMs: 2000, SessionMs: 5000, ShutdownMs: 500},
		})

		m := mgr.Wait(id)
		Expect(m.Result).To(Equal(wire.ResultSuccess))
	})
})

var _ = Describe("ParseRetention", func() {
	It("returns DefaultRetention for an empty string", func() {
		d, err := session.ParseRetention("")
		Expect(err).To(BeNil())
		Expect(d).To(Equal(session.DefaultRetention))
	})

	It("parses an hours-minutes window", func() {
		d, err := session.ParseRetention("90m")
		Expect(err).To(BeNil())
		Expect(d).To(Equal(90 * time.Minute))
	})

	It("parses an hours window", func() {
		d, err := session.ParseRetention("6h")
		Expect(err).To(BeNil())
		Expect(d).To(Equal(6 * time.Hour))
	})

	It("rejects an invalid window", func() {
		_, err := session.ParseRetention("not-a-duration")
		Expect(err).ToNot(BeNil())
	})
})
