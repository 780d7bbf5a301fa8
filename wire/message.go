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

// ProtocolVersion is the current Message.Version value. Decoders of a higher
// version are expected to tolerate unknown tagged members, not to reject it.
const ProtocolVersion uint32 = 1

// Tag discriminates the OneOf payload carried by a Message. It is the
// exhaustive set of the RPC message kinds in the wire protocol.
type Tag uint8

const (
	TagSubmit Tag = iota + 1
	TagAccepted
	TagWait
	TagManifest
	TagStatusReq
	TagStatus
	TagShutdown
	TagError
)

func (t Tag) String() string {
	switch t {
	case TagSubmit:
		return "Submit"
	case TagAccepted:
		return "Accepted"
	case TagWait:
		return "Wait"
	case TagManifest:
		return "Manifest"
	case TagStatusReq:
		return "StatusReq"
	case TagStatus:
		return "Status"
	case TagShutdown:
		return "Shutdown"
	case TagError:
		return "Error"
	default:
		return "unknown"
	}
}

// Submit carries a session spec to run, optionally addressed at a peer via
// spec.Placement.
type Submit struct {
	Spec SessionSpec
}

// Accepted acknowledges a Submit with the session id assigned to it.
type Accepted struct {
	SessionID string
}

// Wait requests the manifest for a session, blocking server-side until the
// session completes.
type Wait struct {
	SessionID string
}

// StatusReq requests a non-blocking status snapshot for a session.
type StatusReq struct {
	SessionID string
}

// Shutdown requests the daemon stop accepting new connections. Token must
// match the daemon's configured shutdown token, when one is configured.
type Shutdown struct {
	Token string
}

// ErrorMsg is the payload of a failed request/response.
type ErrorMsg struct {
	Reason string
}

// Message is the tagged union over the eight RPC variants. Exactly one of
// the payload fields matching Tag is populated; the rest are zero values.
// Implementations must switch exhaustively on Tag rather than probe fields.
type Message struct {
	Version   uint32
	Tag       Tag
	Submit    Submit
	Accepted  Accepted
	Wait      Wait
	Manifest  SessionManifest
	StatusReq StatusReq
	Status    Status
	Shutdown  Shutdown
	Error     ErrorMsg
}

// NewSubmit builds a Submit-tagged Message.
func NewSubmit(spec SessionSpec) Message {
	return Message{Version: ProtocolVersion, Tag: TagSubmit, Submit: Submit{Spec: spec}}
}

// NewAccepted builds an Accepted-tagged Message.
func NewAccepted(sessionID string) Message {
	return Message{Version: ProtocolVersion, Tag: TagAccepted, Accepted: Accepted{SessionID: sessionID}}
}

// NewWait builds a Wait-tagged Message.
func NewWait(sessionID string) Message {
	return Message{Version: ProtocolVersion, Tag: TagWait, Wait: Wait{SessionID: sessionID}}
}

// NewManifest builds a Manifest-tagged Message.
func NewManifest(m SessionManifest) Message {
	return Message{Version: ProtocolVersion, Tag: TagManifest, Manifest: m}
}

// NewStatusReq builds a StatusReq-tagged Message.
func NewStatusReq(sessionID string) Message {
	return Message{Version: ProtocolVersion, Tag: TagStatusReq, StatusReq: StatusReq{SessionID: sessionID}}
}

// NewStatus builds a Status-tagged Message.
func NewStatus(s Status) Message {
	return Message{Version: ProtocolVersion, Tag: TagStatus, Status: s}
}

// NewShutdown builds a Shutdown-tagged Message.
func NewShutdown(token string) Message {
	return Message{Version: ProtocolVersion, Tag: TagShutdown, Shutdown: Shutdown{Token: token}}
}

// NewError builds an Error-tagged Message.
func NewError(reason string) Message {
	return Message{Version: ProtocolVersion, Tag: TagError, Error: ErrorMsg{Reason: reason}}
}
