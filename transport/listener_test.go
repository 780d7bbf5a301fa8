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

package transport_test

import (
	"os"
	"path/filepath"

	"github.com/sabouaram/coord/transport"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Listen/Connect/Accept", func() {
	It("round-trips a plaintext loopback tcp connection", func() {
		ln, err := transport.Listen(transport.ParseEndpoint("127.0.0.1:0"), transport.TLSMaterial{})
		Expect(err).To(BeNil())
		defer func() { _ = ln.Close() }()

		accepted := make(chan []byte, 1)
		go func() {
			conn, aerr := ln.Accept()
			if aerr != nil {
				accepted <- nil
				return
			}
			buf := make([]byte, 5)
			_, _ = conn.Read(buf)
			accepted <- buf
			_ = conn.Close()
		}()

		client, cerr := transport.Connect(transport.ParseEndpoint(ln.Addr().String()), transport.TLSMaterial{}, "")
		Expect(cerr).To(BeNil())
		_, werr := client.Write([]byte("hello"))
		Expect(werr).To(BeNil())
		_ = client.Close()

		Expect(<-accepted).To(Equal([]byte("hello")))
	})

	It("round-trips over a unix domain socket", func() {
		dir, derr := os.MkdirTemp("", "coord-transport")
		Expect(derr).To(BeNil())
		defer func() { _ = os.RemoveAll(dir) }()

		sock := filepath.Join(dir, "coord.sock")
		ln, err := transport.Listen(transport.ParseEndpoint("unix:"+sock), transport.TLSMaterial{})
		Expect(err).To(BeNil())
		defer func() { _ = ln.Close() }()

		accepted := make(chan []byte, 1)
		go func() {
			conn, aerr := ln.Accept()
			if aerr != nil {
				accepted <- nil
				return
			}
			buf := make([]byte, 3)
			_, _ = conn.Read(buf)
			accepted <- buf
			_ = conn.Close()
		}()

		client, cerr := transport.Connect(transport.ParseEndpoint("unix:"+sock), transport.TLSMaterial{}, "")
		Expect(cerr).To(BeNil())
		_, werr := client.Write([]byte("hey"))
		Expect(werr).To(BeNil())
		_ = client.Close()

		Expect(<-accepted).To(Equal([]byte("hey")))
	})

	It("refuses plaintext listen on a non-loopback tcp endpoint", func() {
		_, err := transport.Listen(transport.ParseEndpoint("10.0.0.5:9000"), transport.TLSMaterial{})
		Expect(err).ToNot(BeNil())
	})

	It("refuses plaintext connect to a non-loopback tcp endpoint", func() {
		_, err := transport.Connect(transport.ParseEndpoint("10.0.0.5:9000"), transport.TLSMaterial{}, "")
		Expect(err).ToNot(BeNil())
	})

	It("fails before touching a socket when tls is enabled but material is missing", func() {
		_, err := transport.Listen(transport.ParseEndpoint("127.0.0.1:0"), transport.TLSMaterial{Enabled: true})
		Expect(err).ToNot(BeNil())
	})
})
