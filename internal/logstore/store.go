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

// Package logstore is the Attack Log Store: a bounded in-memory ring
// mirrored to a durable SQLite-backed flash mirror, with well-defined
// overwrite semantics on the ring and best-effort durability on the
// mirror.
package logstore

import (
	"sync"

	"github.com/blackfennetworks/honeytrap/internal/attacklog"
	"github.com/blackfennetworks/honeytrap/internal/hplog"
)

// flashMirror is the durable append-only replica contract, named "flash"
// after the collaborator in the original design even though this
// implementation backs it with a local database file instead of raw NAND.
type flashMirror interface {
	// Append persists one record. Failure must not fail Store.Log; the
	// caller only logs and counts it.
	Append(rec attacklog.Record) error
	// LoadRecent returns up to max records, oldest first, for ring replay
	// on startup.
	LoadRecent(max int) ([]attacklog.Record, error)
	Clear() error
	Close() error
}

// Stats are the Log Store's own monotonic counters, independent of the
// reactor's Stats block.
type Stats struct {
	TotalLogged    uint64
	FlashFailures  uint64
	LastLogUnixSec int64
}

// Store owns the LogRing and the flash mirror exclusively; no other
// component may read or write either directly.
type Store struct {
	mu    sync.Mutex
	ring  *ring
	flash flashMirror
	log   hplog.Logger
	stats Stats
}

// New builds a Store around the given flash mirror implementation and
// ring capacity (MAX_LOG_ENTRIES).
func New(capacity int, flash flashMirror, logger hplog.Logger) *Store {
	if logger == nil {
		logger = hplog.NewSilent()
	}
	return &Store{
		ring:  newRing(capacity),
		flash: flash,
		log:   logger,
	}
}

// Init loads up to capacity prior records from the flash mirror into the
// ring (oldest discarded beyond capacity), matching §4.C's init contract.
func (s *Store) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs, err := s.flash.LoadRecent(s.ring.cap())
	if err != nil {
		return err
	}
	s.ring.loadOrdered(recs)
	return nil
}

// Log appends rec to the ring (overwriting the oldest entry if full),
// mirrors it to flash, and emits a formatted console line. A flash
// append failure is recorded in Stats and logged at warn, but never
// fails this call - the in-memory record is retained regardless.
func (s *Store) Log(rec attacklog.Record) {
	s.mu.Lock()
	s.ring.append(rec)
	s.stats.TotalLogged++
	s.stats.LastLogUnixSec = rec.Timestamp.Unix()
	s.mu.Unlock()

	if err := s.flash.Append(rec); err != nil {
		s.mu.Lock()
		s.stats.FlashFailures++
		s.mu.Unlock()
		s.log.Warning("flash mirror append failed, record kept in memory only", hplog.Fields{
			"source_ip": rec.SourceIP,
			"service":   rec.Service.String(),
			"error":     err.Error(),
		})
	}

	s.log.Info("attack logged", hplog.Fields{
		"source_ip": rec.SourceIP,
		"target":    rec.TargetPort,
		"service":   rec.Service.String(),
		"username":  rec.Username,
		"password":  rec.Password,
		"hash":      rec.PayloadHash,
	})
}

// Recent returns the last min(n, count) records, newest first.
func (s *Store) Recent(n int) []attacklog.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ring.recent(n)
}

// Clear empties the ring and the flash mirror. Calling Clear twice in a
// row yields the same observable state as calling it once.
func (s *Store) Clear() error {
	s.mu.Lock()
	s.ring.clear()
	s.mu.Unlock()
	return s.flash.Clear()
}

// Count returns the number of records currently held in the ring.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ring.count
}

// Stats returns a snapshot of the store's own counters.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Close releases the flash mirror's underlying resources.
func (s *Store) Close() error {
	return s.flash.Close()
}
