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

// Package monitor runs a periodic health snapshot of the running
// reactor, the Go-native counterpart of the original firmware's 30-second
// free-heap monitor task: where the firmware watched heap headroom, this
// watches goroutine count, open sessions and log store occupancy.
package monitor

import (
	"context"
	"runtime"
	"time"

	"github.com/blackfennetworks/honeytrap/internal/hplog"
	"github.com/blackfennetworks/honeytrap/internal/logstore"
	"github.com/blackfennetworks/honeytrap/internal/reactor"
	"github.com/blackfennetworks/honeytrap/internal/upload"
)

// DefaultInterval matches the original firmware's health task period.
const DefaultInterval = 30 * time.Second

// uploadBatchSize caps how many recent records are forwarded per tick.
const uploadBatchSize = 64

// Snapshot is one point-in-time health reading.
type Snapshot struct {
	Goroutines      int
	OpenConnections int
	LogEntries      int
	HeapAllocBytes  uint64
}

// Monitor periodically logs a Snapshot of r and store at Interval, and, if
// an Uploader was injected, forwards the log store's recent tail to it on
// the same tick - the supervisor is the only caller of Uploader.Upload, per
// §6's external-interfaces contract.
type Monitor struct {
	r        *reactor.Reactor
	store    *logstore.Store
	log      hplog.Logger
	uploader upload.Uploader
	Interval time.Duration
}

// New builds a Monitor. A zero Interval falls back to DefaultInterval at
// Run time. uploader may be nil or upload.Noop{}, in which case no
// forwarding happens.
func New(r *reactor.Reactor, store *logstore.Store, logger hplog.Logger, uploader upload.Uploader) *Monitor {
	if logger == nil {
		logger = hplog.NewSilent()
	}
	if uploader == nil {
		uploader = upload.Noop{}
	}
	return &Monitor{r: r, store: store, log: logger, uploader: uploader, Interval: DefaultInterval}
}

// Snapshot takes one reading immediately, independent of Run's ticker.
func (m *Monitor) Snapshot() Snapshot {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return Snapshot{
		Goroutines:      runtime.NumGoroutine(),
		OpenConnections: m.r.OpenConnections(),
		LogEntries:      m.store.Count(),
		HeapAllocBytes:  mem.HeapAlloc,
	}
}

// Run blocks, logging a Snapshot on every tick, until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	interval := m.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap := m.Snapshot()
			m.log.Info("health snapshot", hplog.Fields{
				"goroutines":       snap.Goroutines,
				"open_connections": snap.OpenConnections,
				"log_entries":      snap.LogEntries,
				"heap_alloc_bytes": snap.HeapAllocBytes,
			})

			if recent := m.store.Recent(uploadBatchSize); len(recent) > 0 {
				if err := m.uploader.Upload(ctx, recent); err != nil {
					m.log.Warning("remote upload failed", hplog.Fields{"error": err.Error()})
				}
			}
		}
	}
}
