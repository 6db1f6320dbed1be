/*
MIT License

Copyright (c) 2024 Nicolas JUHEL

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
*/

// Package session models the per-connection lifecycle: state, idle
// tracking, and the byte budget that caps how much of an attacker's
// payload is ever inspected.
package session

import (
	"time"

	"github.com/blackfennetworks/honeytrap/internal/protocol"
)

// State is the session's lifecycle stage. Only the reactor goroutine that
// owns a Session may call Transition on it.
type State uint8

const (
	StateNew State = iota
	Active
	Closing
	Closed
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case Active:
		return "active"
	case Closing:
		return "closing"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// legalEdges lists the transitions allowed by §4.F: creation enters
// Active directly (after any protocol greeting is queued); a handler call
// may move Active to Closing; the reactor moves Closing to Closed.
var legalEdges = map[State]map[State]bool{
	StateNew: {Active: true},
	Active:  {Closing: true},
	Closing: {Closed: true},
	Closed:  {},
}

// MaxPayloadSize bounds bytes_in; further bytes are read-and-discard.
const MaxPayloadSize = 1024

// HandlerState is an opaque per-protocol state value (e.g. Telnet's
// AWAIT_USER/AWAIT_PASS), owned and interpreted only by that protocol's
// handler.
type HandlerState interface{}

// Session is per-accepted-connection state. It is mutated only by the
// reactor goroutine that owns it; protocol handlers receive a pointer for
// the duration of a single call and must not retain it.
type Session struct {
	ID           uint64
	Port         uint16
	Proto        protocol.Service
	PeerIP       string
	OpenedAt     time.Time
	LastActiveAt time.Time
	BytesIn      int
	State        State
	HandlerState HandlerState
}

// New creates a Session already in the Active state - protocol greetings
// are queued by the caller immediately after construction, before any
// data is processed, so there is no externally observable StateNew.
func New(id uint64, port uint16, proto protocol.Service, peerIP string, now time.Time) *Session {
	return &Session{
		ID:           id,
		Port:         port,
		Proto:        proto,
		PeerIP:       peerIP,
		OpenedAt:     now,
		LastActiveAt: now,
		State:        Active,
	}
}

// Touch updates LastActiveAt and the byte budget on receipt of n new
// bytes. Returns how many of those bytes should actually be handed to the
// protocol handler: once BytesIn reaches MaxPayloadSize, further bytes are
// discarded without being counted (DoS guard), consistent with bytes_in <=
// MAX_PAYLOAD_SIZE.
func (s *Session) Touch(now time.Time, n int) (toHandler int) {
	s.LastActiveAt = now
	room := MaxPayloadSize - s.BytesIn
	if room < 0 {
		room = 0
	}
	accept := n
	if accept > room {
		accept = room
	}
	s.BytesIn += accept
	return accept
}

// Idle reports whether the session has been silent for at least
// timeout, per the reactor's "now - last_active_at >= timeout_ms ⇒
// Closing" rule.
func (s *Session) Idle(now time.Time, timeout time.Duration) bool {
	return now.Sub(s.LastActiveAt) >= timeout
}

// Transition moves the session to next if the edge is legal, returning
// false (and leaving State unchanged) otherwise.
func (s *Session) Transition(next State) bool {
	if !legalEdges[s.State][next] {
		return false
	}
	s.State = next
	return true
}
