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

// Package sockets is the Socket Manager: it owns every net.Listener and
// every accepted net.Conn, and is the only package in this module that
// touches the network directly. Every accept and every read is turned into
// an Event and handed to the reactor's single event channel; nothing here
// ever mutates session or listener state itself, keeping the reactor goroutine
// the sole owner of that state.
package sockets

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"

	"github.com/blackfennetworks/honeytrap/internal/errcode"
)

// EventKind discriminates the Event union below.
type EventKind uint8

const (
	EventAccepted EventKind = iota
	EventData
	EventClosed
)

// Event is produced by an accept loop or a per-connection read loop and
// consumed exclusively by the reactor goroutine.
type Event struct {
	Kind      EventKind
	Port      uint16
	Conn      net.Conn // set on EventAccepted only
	SessionID uint64   // set on EventData/EventClosed
	Data      []byte   // set on EventData
	Err       error    // set on EventClosed when the close was due to an error
}

// readBufSize is the per-read buffer, larger than the session payload cap;
// every read is delivered in full and Session.Touch decides how much the
// handler sees.
const readBufSize = 4096

// Manager owns listeners and live connections. All exported methods are
// safe to call from the reactor goroutine; they are not meant to be called
// concurrently from multiple goroutines (the reactor is single-threaded by
// design), aside from the unexported accept/read loops feeding Events in.
type Manager struct {
	mu        sync.Mutex
	listeners map[uint16]net.Listener
	conns     map[uint64]net.Conn
	nextID    uint64
	events    chan Event
}

// New builds a Manager that delivers Events on a channel of the given
// buffer size - a large buffer absorbs bursts of accepts/reads without
// backpressuring the per-connection goroutines.
func New(eventBuffer int) *Manager {
	return &Manager{
		listeners: make(map[uint16]net.Listener),
		conns:     make(map[uint64]net.Conn),
		events:    make(chan Event, eventBuffer),
	}
}

// Events is the single channel the reactor selects on.
func (m *Manager) Events() <-chan Event { return m.events }

// Listen opens a TCP listener on port and starts its accept loop in a new
// goroutine. The accept loop's only job is to push EventAccepted events;
// admission control lives entirely in the reactor.
func (m *Manager) Listen(port uint16) error {
	l, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return errcode.Wrap(errcode.PersistentIO, fmt.Sprintf("listen on port %d", port), err)
	}

	m.mu.Lock()
	m.listeners[port] = l
	m.mu.Unlock()

	go m.acceptLoop(port, l)
	return nil
}

func (m *Manager) acceptLoop(port uint16, l net.Listener) {
	for {
		conn, err := l.Accept()
		if err != nil {
			return // listener closed during shutdown
		}
		select {
		case m.events <- Event{Kind: EventAccepted, Port: port, Conn: conn}:
		default:
			// event channel saturated; drop the connection rather than
			// block the accept loop indefinitely.
			_ = conn.Close()
		}
	}
}

// Admit registers conn under a fresh session ID and starts its read loop.
// The reactor calls this only after its own admission checks (capacity,
// rate limit) have passed.
func (m *Manager) Admit(conn net.Conn) uint64 {
	m.mu.Lock()
	m.nextID++
	id := m.nextID
	m.conns[id] = conn
	m.mu.Unlock()

	go m.readLoop(id, conn)
	return id
}

func (m *Manager) readLoop(id uint64, conn net.Conn) {
	buf := make([]byte, readBufSize)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			m.events <- Event{Kind: EventData, SessionID: id, Data: data}
		}
		if err != nil {
			m.events <- Event{Kind: EventClosed, SessionID: id, Err: normalizeCloseErr(err)}
			return
		}
	}
}

// normalizeCloseErr collapses the expected "use of closed network
// connection" error from our own CloseSession calls into nil, so the
// reactor doesn't log a warning for closes it initiated itself.
func normalizeCloseErr(err error) error {
	if errors.Is(err, net.ErrClosed) || strings.Contains(err.Error(), "use of closed network connection") {
		return nil
	}
	return err
}

// Write sends data on the session's connection verbatim.
func (m *Manager) Write(id uint64, data []byte) error {
	m.mu.Lock()
	conn := m.conns[id]
	m.mu.Unlock()
	if conn == nil {
		return errcode.New(errcode.TransientIO, fmt.Sprintf("unknown session %d", id))
	}
	_, err := conn.Write(data)
	if err != nil {
		return errcode.Wrap(errcode.TransientIO, fmt.Sprintf("write to session %d", id), err)
	}
	return nil
}

// CloseSession closes and forgets a single connection.
func (m *Manager) CloseSession(id uint64) {
	m.mu.Lock()
	conn := m.conns[id]
	delete(m.conns, id)
	m.mu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}
}

// OpenConnections reports the number of currently tracked sessions.
func (m *Manager) OpenConnections() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.conns)
}

// CloseAll closes every listener and every open connection, used during
// shutdown. Accept/read loops observe the resulting errors and exit on
// their own; CloseAll does not wait for them.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, l := range m.listeners {
		_ = l.Close()
	}
	for _, c := range m.conns {
		_ = c.Close()
	}
	m.listeners = make(map[uint16]net.Listener)
	m.conns = make(map[uint64]net.Conn)
}
