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

// Package wire defines the shape of sessions, nodes, manifests and RPC
// envelopes exchanged between the control client, the daemon and its peers.
// Every record carries a stable numeric tag; decoders must reject unknown
// tags rather than guess at forward compatibility.
package wire

// Mode selects the execution strategy for a session. Only ModeA is
// implemented; the others are reserved and always rejected by the executor.
type Mode uint8

const (
	ModeA Mode = iota
	ModeB
	ModeC
	ModeD
)

func (m Mode) String() string {
	switch m {
	case ModeA:
		return "A"
	case ModeB:
		return "B"
	case ModeC:
		return "C"
	case ModeD:
		return "D"
	default:
		return "unknown"
	}
}

// Protocol is the socket family backing a PortRequest/PortAssignment.
type Protocol uint8

const (
	ProtocolTCP Protocol = iota
	ProtocolUDP
)

func (p Protocol) String() string {
	if p == ProtocolUDP {
		return "udp"
	}
	return "tcp"
}

// Result is the terminal outcome of a session.
type Result uint8

const (
	ResultSuccess Result = iota
	ResultFailed
	ResultTimeout
	ResultCancelled
	ResultError
)

func (r Result) String() string {
	switch r {
	case ResultSuccess:
		return "Success"
	case ResultFailed:
		return "Failed"
	case ResultTimeout:
		return "Timeout"
	case ResultCancelled:
		return "Cancelled"
	case ResultError:
		return "Error"
	default:
		return "Unknown"
	}
}

// ReadinessKind discriminates the ReadinessSpec payload.
type ReadinessKind uint8

const (
	ReadinessNone ReadinessKind = iota
	ReadinessStdoutToken
	ReadinessSocket
	ReadinessFile
)

// ReadinessSpec is a discriminated record of {None | StdoutToken | Socket | File}.
// Only the field matching Kind is meaningful.
type ReadinessSpec struct {
	Kind  ReadinessKind
	Token string // StdoutToken text to scan for.
	Addr  string // Socket "host:port" to probe.
	Path  string // File path to poll for.
}

// PortRequest asks the allocator for Count distinct ephemeral ports of
// Protocol, addressable later under the wire-level Name.
type PortRequest struct {
	Name     string
	Count    uint32
	Protocol Protocol
}

// PortAssignment mirrors a PortRequest once ports have been bound. Ports may
// be shorter than Count when allocation partially failed (a soft failure).
type PortAssignment struct {
	Name     string
	Protocol Protocol
	Ports    []uint16
}

// NodeDef is a template for one or more homogeneous child processes sharing
// the same executable, arguments and readiness probe.
type NodeDef struct {
	Name      string
	Exec      string
	Args      []string
	Env       []string // "KEY=VALUE" entries, applied after injected vars.
	Cwd       string
	Instances uint32
	Readiness ReadinessSpec
}

// Timeouts bounds the three phases of a session's lifetime, in milliseconds.
// SessionMs == 0 means the running phase has no wall-clock bound.
type Timeouts struct {
	StartupMs  uint64
	SessionMs  uint64
	ShutdownMs uint64
}

// NetworkSpec describes the per-session port requests and the bridge address
// nodes are reachable on.
type NetworkSpec struct {
	BridgeAddr string
	Ports      []PortRequest
}

// Placement routes a session either to the local executor or to a named peer
// daemon reached over the same RPC.
type Placement struct {
	Target string
}

// IsPeer reports whether the placement targets a remote daemon.
func (p Placement) IsPeer() bool {
	return len(p.Target) > len(peerPrefix) && p.Target[:len(peerPrefix)] == peerPrefix
}

// PeerEndpoint returns the transport endpoint string for a peer placement.
// Only meaningful when IsPeer() is true.
func (p Placement) PeerEndpoint() string {
	if !p.IsPeer() {
		return ""
	}
	return p.Target[len(peerPrefix):]
}

const peerPrefix = "peer:"

// SessionSpec is the declarative description of a group of nodes to launch
// together. SessionID is assigned by the manager when empty.
type SessionSpec struct {
	SessionID   string
	Group       string
	Mode        Mode
	Nodes       []NodeDef
	Network     NetworkSpec
	Timeouts    Timeouts
	ArtifactDir string
	Placement   Placement
}

// InstanceInfo records one concrete child process derived from a NodeDef.
// It is created on spawn, mutated only by the owning executor, and becomes
// immutable once EndMs is non-zero.
type InstanceInfo struct {
	Node          string
	Index         uint32
	Pid           int32
	ExitCode      int32
	TermSignal    int32
	LogPath       string
	ErrPath       string
	Addr          string
	Ports         []PortAssignment
	StartMs       uint64
	EndMs         uint64
	FailureReason string
}

// SessionManifest is the immutable record describing a session's outcome.
// It is produced exactly once per session.
type SessionManifest struct {
	SessionID   string
	Group       string
	Mode        Mode
	Result      Result
	FailReason  string
	Instances   []InstanceInfo
	StartMs     uint64
	EndMs       uint64
	Diagnostics []string
}

// Status is a non-blocking snapshot of a session's progress. A request
// with an empty SessionID is the reserved degenerate form asking for the
// daemon's own health snapshot instead of a session's: the reply carries
// Complete=true, an empty SessionID, and the Daemon* fields populated.
type Status struct {
	SessionID string
	Result    Result
	Complete  bool

	DaemonHealth            string
	DaemonUptimeSeconds     int64
	DaemonActiveSessions    int
	DaemonCompletedSessions int
}
