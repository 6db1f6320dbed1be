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

package logstore

import "github.com/blackfennetworks/honeytrap/internal/attacklog"

// ring is a fixed-capacity circular buffer of AttackRecords. head always
// points at the next write slot, i.e. one past the newest entry - which is
// what keeps Recent's backward walk correct whether or not the ring has
// wrapped, since head never means anything else.
type ring struct {
	buf   []attacklog.Record
	head  int
	count int
}

func newRing(capacity int) *ring {
	return &ring{buf: make([]attacklog.Record, capacity)}
}

func (r *ring) cap() int { return len(r.buf) }

// append overwrites the oldest entry when full. Store.Log mirrors every
// record to flash right after appending it here, so an entry dropped by
// a later append is already on flash.
func (r *ring) append(rec attacklog.Record) {
	if len(r.buf) == 0 {
		return
	}
	r.buf[r.head] = rec
	r.head = (r.head + 1) % len(r.buf)
	if r.count < len(r.buf) {
		r.count++
	}
}

// recent returns the last min(n, count) entries, newest first.
func (r *ring) recent(n int) []attacklog.Record {
	count := n
	if count > r.count {
		count = r.count
	}
	if count <= 0 {
		return nil
	}
	out := make([]attacklog.Record, 0, count)
	idx := r.head
	for i := 0; i < count; i++ {
		idx = (idx - 1 + len(r.buf)) % len(r.buf)
		out = append(out, r.buf[idx])
	}
	return out
}

func (r *ring) clear() {
	for i := range r.buf {
		r.buf[i] = attacklog.Record{}
	}
	r.head = 0
	r.count = 0
}

// loadOrdered seeds the ring from records in oldest-to-newest order,
// discarding the oldest entries beyond the ring's capacity, matching
// init()'s "best-effort load up to cap prior records, oldest discarded if
// more exist" contract.
func (r *ring) loadOrdered(records []attacklog.Record) {
	if len(records) > len(r.buf) {
		records = records[len(records)-len(r.buf):]
	}
	for _, rec := range records {
		r.append(rec)
	}
}
