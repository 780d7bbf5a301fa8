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

package codec

import (
	"io"

	"github.com/fxamacker/cbor/v2"

	liberr "github.com/sabouaram/coord/errors"
	"github.com/sabouaram/coord/wire"
)

// EncodeMessage serializes a Message to its self-describing CBOR payload.
// The result is what WriteFrame expects as its payload argument.
func EncodeMessage(m wire.Message) ([]byte, liberr.Error) {
	b, err := cbor.Marshal(m)
	if err != nil {
		return nil, ErrorEncode.Error(err)
	}
	return b, nil
}

// DecodeMessage deserializes a frame payload into a Message. An unknown tag
// is rejected with ErrorUnknownTag even if the CBOR structure otherwise
// decodes cleanly.
func DecodeMessage(payload []byte) (wire.Message, liberr.Error) {
	var m wire.Message

	if err := cbor.Unmarshal(payload, &m); err != nil {
		return wire.Message{}, ErrorDecode.Error(err)
	}

	switch m.Tag {
	case wire.TagSubmit, wire.TagAccepted, wire.TagWait, wire.TagManifest,
		wire.TagStatusReq, wire.TagStatus, wire.TagShutdown, wire.TagError:
		return m, nil
	default:
		return wire.Message{}, wire.ErrorUnknownTag.Error(nil)
	}
}

// WriteMessage encodes m and writes it as one frame.
func WriteMessage(w io.Writer, m wire.Message) liberr.Error {
	payload, e := EncodeMessage(m)
	if e != nil {
		return e
	}
	return WriteFrame(w, payload)
}

// ReadMessage reads one frame and decodes it into a Message.
func ReadMessage(r io.Reader) (wire.Message, liberr.Error) {
	payload, e := ReadFrame(r)
	if e != nil {
		return wire.Message{}, e
	}
	return DecodeMessage(payload)
}
