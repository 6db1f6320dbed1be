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

// Package reactor is the honeypot's event loop: the single goroutine that
// owns the session table, the Stats block, and every decision about
// admission, dispatch and reclaim. Listener accept loops and per-session
// read loops (both living in sockets.Manager) only ever produce Events;
// this package is the sole consumer and the sole mutator of everything
// downstream of them.
package reactor

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/blackfennetworks/honeytrap/internal/attacklog"
	"github.com/blackfennetworks/honeytrap/internal/clock"
	"github.com/blackfennetworks/honeytrap/internal/hplog"
	"github.com/blackfennetworks/honeytrap/internal/logstore"
	"github.com/blackfennetworks/honeytrap/internal/protocol"
	"github.com/blackfennetworks/honeytrap/internal/protohandlers"
	"github.com/blackfennetworks/honeytrap/internal/ratelimit"
	"github.com/blackfennetworks/honeytrap/internal/session"
	"github.com/blackfennetworks/honeytrap/internal/sockets"
)

// idleSweepInterval is the period at which the reactor looks for sessions
// that have been silent past the connection timeout.
const idleSweepInterval = 5 * time.Second

// eventBufferSize bounds how many Events can be queued for the reactor;
// once it is full, sockets.Manager's accept loops drop new connections and
// its read loops block until there is room.
const eventBufferSize = 256

// Config is the subset of the honeypot's configuration the reactor itself
// consumes; internal/config owns parsing it from file/env/flags.
type Config struct {
	Ports             []uint16
	Table             protocol.Table
	MaxConnections    int
	ConnectionTimeout time.Duration
	EnableLogging     bool
}

// Stats is the reactor's own counter block, the sole mutator of which is
// the reactor goroutine; Snapshot is the only way anything else observes
// it.
type Stats struct {
	StartTime        time.Time
	TotalConnections uint64
	AttacksLogged    uint64
	RateLimited      uint64
	HTTPAttacks      uint64
	TelnetAttacks    uint64
	FTPAttacks       uint64
	MQTTAttacks      uint64
}

// Reactor wires the Clock, RateLimiter, Log Store and Socket Manager
// together and drives the honeypot's single thread of control.
type Reactor struct {
	cfg     Config
	clk     clock.Clock
	limiter *ratelimit.Limiter
	store   *logstore.Store
	sock    *sockets.Manager
	log     hplog.Logger

	sessions map[uint64]*session.Session

	statsMu sync.Mutex
	stats   Stats

	runningMu sync.Mutex
	running   bool

	cancel context.CancelFunc
	group  *errgroup.Group
}

// New builds a Reactor. clk, limiter and store are injected so tests can
// substitute a Fake clock and an in-memory flash mirror.
func New(cfg Config, clk clock.Clock, limiter *ratelimit.Limiter, store *logstore.Store, logger hplog.Logger) *Reactor {
	if logger == nil {
		logger = hplog.NewSilent()
	}
	return &Reactor{
		cfg:      cfg,
		clk:      clk,
		limiter:  limiter,
		store:    store,
		sock:     sockets.New(eventBufferSize),
		log:      logger,
		sessions: make(map[uint64]*session.Session),
	}
}

// IsRunning reports whether Start has been called without a matching Stop.
func (r *Reactor) IsRunning() bool {
	r.runningMu.Lock()
	defer r.runningMu.Unlock()
	return r.running
}

// Snapshot returns a copy of the current Stats block.
func (r *Reactor) Snapshot() Stats {
	r.statsMu.Lock()
	defer r.statsMu.Unlock()
	return r.stats
}

// OpenConnections reports the Socket Manager's live connection count.
func (r *Reactor) OpenConnections() int {
	return r.sock.OpenConnections()
}

// Start opens every configured listener and launches the event loop, which
// also runs the idle sweep, under an errgroup.Group, then returns immediately -
// it does not block waiting for Stop. Calling Start twice without an
// intervening Stop is an error.
func (r *Reactor) Start(ctx context.Context) error {
	r.runningMu.Lock()
	if r.running {
		r.runningMu.Unlock()
		return fmt.Errorf("reactor: already running")
	}
	r.running = true
	r.runningMu.Unlock()

	for _, port := range r.cfg.Ports {
		if r.cfg.Table.Classify(port) == protocol.Unknown {
			continue // closed-set invariant: never listen on an unclassified port
		}
		if err := r.sock.Listen(port); err != nil {
			return fmt.Errorf("reactor: listen on port %d: %w", port, err)
		}
	}

	loopCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	group, groupCtx := errgroup.WithContext(loopCtx)
	r.group = group

	r.statsMu.Lock()
	r.stats.StartTime = r.clk.WallClock()
	r.statsMu.Unlock()

	group.Go(func() error {
		r.loop(groupCtx)
		return nil
	})

	return nil
}

// Stop closes every listener and connection and waits for the event loop
// to drain and exit.
func (r *Reactor) Stop() error {
	r.runningMu.Lock()
	if !r.running {
		r.runningMu.Unlock()
		return nil
	}
	r.running = false
	r.runningMu.Unlock()

	if r.cancel != nil {
		r.cancel()
	}
	r.sock.CloseAll()

	if r.group != nil {
		return r.group.Wait()
	}
	return nil
}

// loop is the single reactor goroutine: it is the only place session
// state, the rate limiter and Stats are mutated.
func (r *Reactor) loop(ctx context.Context) {
	ticker := time.NewTicker(idleSweepInterval)
	defer ticker.Stop()

	events := r.sock.Events()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			r.handleEvent(ev)
		case <-ticker.C:
			r.sweepIdle()
		}
	}
}

func (r *Reactor) handleEvent(ev sockets.Event) {
	switch ev.Kind {
	case sockets.EventAccepted:
		r.onAccept(ev)
	case sockets.EventData:
		r.onData(ev)
	case sockets.EventClosed:
		r.onClosed(ev)
	}
}

func (r *Reactor) onAccept(ev sockets.Event) {
	now := r.clk.Now()

	if r.cfg.MaxConnections > 0 && len(r.sessions) >= r.cfg.MaxConnections {
		_ = ev.Conn.Close()
		return
	}

	host := connHost(ev.Conn)
	if r.limiter.Check(host, now) == ratelimit.Deny {
		r.statsMu.Lock()
		r.stats.RateLimited++
		r.statsMu.Unlock()
		_ = ev.Conn.Close()
		return
	}

	proto := r.cfg.Table.Classify(ev.Port)
	id := r.sock.Admit(ev.Conn)
	sess := session.New(id, ev.Port, proto, host, r.clk.WallClock())
	r.sessions[id] = sess

	r.statsMu.Lock()
	r.stats.TotalConnections++
	r.statsMu.Unlock()

	if banner := greeting(proto); len(banner) > 0 {
		_ = r.sock.Write(id, banner)
	}
}

// connHost extracts the dotted IP (no port) from a connection's remote
// address.
func connHost(conn net.Conn) string {
	host, _, err := net.SplitHostPort(conn.RemoteAddr().String())
	if err != nil {
		return conn.RemoteAddr().String()
	}
	return host
}

// greeting returns the protocol-specific banner sent immediately on
// accept, before any data has been read.
func greeting(proto protocol.Service) []byte {
	switch proto {
	case protocol.TELNET:
		return []byte(protohandlers.TelnetBanner + "login: ")
	case protocol.FTP:
		return []byte(protohandlers.FTPBanner)
	default:
		return nil
	}
}

func (r *Reactor) onData(ev sockets.Event) {
	sess := r.sessions[ev.SessionID]
	if sess == nil {
		return
	}

	now := r.clk.WallClock()
	accepted := sess.Touch(now, len(ev.Data))
	in := ev.Data[:accepted]

	var res protohandlers.Result
	switch sess.Proto {
	case protocol.HTTP:
		res = protohandlers.HandleHTTP(sess, in, now)
	case protocol.TELNET:
		res = protohandlers.HandleTelnet(sess, in, now)
	case protocol.FTP:
		res = protohandlers.HandleFTP(sess, in, now)
	case protocol.MQTT:
		res = protohandlers.HandleMQTT(sess, in, now)
	default:
		res = protohandlers.Result{Close: true}
	}

	for _, w := range res.Warnings {
		r.log.Warning(w, hplog.Fields{"session_id": sess.ID, "source_ip": sess.PeerIP})
	}

	if len(res.Reply) > 0 {
		_ = r.sock.Write(ev.SessionID, res.Reply)
	}

	if res.Record != nil {
		r.recordAttack(*res.Record)
	}

	if res.Close {
		sess.Transition(session.Closing)
		r.sock.CloseSession(ev.SessionID)
		return
	}

	// Telnet and FTP consume one buffered line per call; run the handler
	// again with no new input so a read carrying several lines gets a
	// reply to each of them.
	if len(res.Reply) > 0 || res.Record != nil {
		r.onData(sockets.Event{Kind: sockets.EventData, SessionID: ev.SessionID})
	}
}

func (r *Reactor) recordAttack(rec attacklog.Record) {
	if r.cfg.EnableLogging {
		r.store.Log(rec)
	}

	r.statsMu.Lock()
	r.stats.AttacksLogged++
	switch rec.Service {
	case protocol.HTTP:
		r.stats.HTTPAttacks++
	case protocol.TELNET:
		r.stats.TelnetAttacks++
	case protocol.FTP:
		r.stats.FTPAttacks++
	case protocol.MQTT:
		r.stats.MQTTAttacks++
	}
	r.statsMu.Unlock()
}

func (r *Reactor) onClosed(ev sockets.Event) {
	sess := r.sessions[ev.SessionID]
	delete(r.sessions, ev.SessionID)
	if sess != nil && sess.State != session.Closed {
		sess.Transition(session.Closing)
		sess.Transition(session.Closed)
	}
	if ev.Err != nil {
		r.log.Debug("session read error", hplog.Fields{"session_id": ev.SessionID, "error": ev.Err.Error()})
	}
}

// sweepIdle closes every session that has been silent past the configured
// connection timeout.
func (r *Reactor) sweepIdle() {
	if r.cfg.ConnectionTimeout <= 0 {
		return
	}
	now := r.clk.WallClock()
	for id, sess := range r.sessions {
		if sess.Idle(now, r.cfg.ConnectionTimeout) {
			sess.Transition(session.Closing)
			r.sock.CloseSession(id)
			delete(r.sessions, id)
		}
	}
}
