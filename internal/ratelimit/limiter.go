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

// Package ratelimit implements the honeypot's per-source-IP sliding window
// admission control.
package ratelimit

import (
	"sync"
	"time"
)

// Decision is the outcome of a Check call. It is deliberately not an error:
// rate limiting is a policy decision, counted by the caller, not a failure
// of the limiter.
type Decision uint8

const (
	Admit Decision = iota
	Deny
)

// bucket is a per-IP FIFO of admission timestamps within the window.
type bucket struct {
	timestamps []time.Time
	lastTouch  time.Time
}

// Limiter tracks one bucket per source IP and bounds both the per-bucket
// timestamp count and the total number of distinct buckets it retains.
type Limiter struct {
	window    time.Duration
	maxPerWin int
	maxIPs    int

	mu      sync.Mutex
	buckets map[string]*bucket
}

// Option 4x the per-IP connection cap is the recommended default ceiling on
// distinct tracked IPs (see Resource Policy).
const defaultMaxIPsMultiplier = 4

// New builds a Limiter with the given sliding window and per-IP admission
// cap. The distinct-IP ceiling defaults to 4x maxPerWindow, matching the
// recommended eviction policy.
func New(window time.Duration, maxPerWindow int) *Limiter {
	return &Limiter{
		window:    window,
		maxPerWin: maxPerWindow,
		maxIPs:    maxPerWindow * defaultMaxIPsMultiplier,
		buckets:   make(map[string]*bucket),
	}
}

// Check evicts timestamps at or before now-window from ip's bucket, then
// admits if the remaining count is still below the per-window cap -
// eviction always happens before the count check, so an arrival exactly at
// the window boundary is admitted. A bounded number of other stale buckets
// are opportunistically swept on the way out.
func (l *Limiter) Check(ip string, now time.Time) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.buckets[ip]
	if b == nil {
		b = &bucket{}
		l.buckets[ip] = b
	}

	b.timestamps = evict(b.timestamps, now, l.window)
	b.lastTouch = now

	if len(b.timestamps) >= l.maxPerWin {
		l.sweepStale(now, 8)
		return Deny
	}

	b.timestamps = append(b.timestamps, now)
	l.sweepStale(now, 8)
	return Admit
}

func evict(ts []time.Time, now time.Time, window time.Duration) []time.Time {
	cutoff := now.Add(-window)
	i := 0
	for i < len(ts) && !ts[i].After(cutoff) {
		i++
	}
	if i == 0 {
		return ts
	}
	return append(ts[:0], ts[i:]...)
}

// sweepStale drops empty buckets and, if the total distinct-IP count
// exceeds the configured ceiling, evicts the least-recently-touched
// buckets until back under it. Caller must hold l.mu. budget caps how many
// buckets this single call inspects, so Check stays O(1)-ish per call even
// under many distinct IPs.
func (l *Limiter) sweepStale(now time.Time, budget int) {
	for ip, b := range l.buckets {
		if budget <= 0 {
			break
		}
		budget--
		if len(evict(b.timestamps, now, l.window)) == 0 && !b.lastTouch.Equal(now) {
			delete(l.buckets, ip)
		}
	}

	if len(l.buckets) <= l.maxIPs {
		return
	}

	type entry struct {
		ip   string
		last time.Time
	}
	all := make([]entry, 0, len(l.buckets))
	for ip, b := range l.buckets {
		all = append(all, entry{ip, b.lastTouch})
	}
	for len(l.buckets) > l.maxIPs {
		oldest := 0
		for i := range all {
			if all[i].last.Before(all[oldest].last) {
				oldest = i
			}
		}
		delete(l.buckets, all[oldest].ip)
		all = append(all[:oldest], all[oldest+1:]...)
		if len(all) == 0 {
			break
		}
	}
}

// BucketCount reports the number of distinct IPs currently tracked, for
// tests and the monitor snapshot.
func (l *Limiter) BucketCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}
