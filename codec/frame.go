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

// Package codec implements the length-prefixed frame format and the
// self-describing encoding of wire.Message records carried over it.
package codec

import (
	"encoding/binary"
	"io"

	liberr "github.com/sabouaram/coord/errors"
)

// MaxFrameLen bounds a single frame's payload to guard against a corrupt or
// hostile length prefix forcing an unbounded allocation.
const MaxFrameLen = 64 << 20

// WriteFrame writes a big-endian 32-bit length prefix followed by payload.
// A zero-length payload is valid. Short writes are retried internally.
func WriteFrame(w io.Writer, payload []byte) liberr.Error {
	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], uint32(len(payload)))

	if _, err := writeFull(w, hdr[:]); err != nil {
		return ErrorIO.Error(err)
	}

	if len(payload) == 0 {
		return nil
	}

	if _, err := writeFull(w, payload); err != nil {
		return ErrorIO.Error(err)
	}

	return nil
}

// ReadFrame reads exactly one frame: a 4-byte length prefix followed by that
// many payload bytes. Short reads are retried internally until the full
// length is transferred or the peer closes.
func ReadFrame(r io.Reader) ([]byte, liberr.Error) {
	var hdr [4]byte

	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, ErrorIO.Error(err)
	}

	n := binary.BigEndian.Uint32(hdr[:])
	if n > MaxFrameLen {
		return nil, ErrorFrameTooLarge.Error(nil)
	}

	if n == 0 {
		return []byte{}, nil
	}

	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, ErrorIO.Error(err)
	}

	return buf, nil
}

func writeFull(w io.Writer, b []byte) (int, error) {
	total := 0
	for total < len(b) {
		n, err := w.Write(b[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
