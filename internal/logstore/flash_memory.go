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

import (
	"sync"

	"github.com/blackfennetworks/honeytrap/internal/attacklog"
)

// MemoryFlash is an in-process flashMirror used by tests, avoiding a
// SQLite file on disk.
type MemoryFlash struct {
	mu       sync.Mutex
	records  []attacklog.Record
	failNext bool
}

func NewMemoryFlash() *MemoryFlash {
	return &MemoryFlash{}
}

// FailNextAppend makes the next single Append call return an error, for
// exercising the "flash append failure must not fail Log" contract.
func (m *MemoryFlash) FailNextAppend() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = true
}

func (m *MemoryFlash) Append(rec attacklog.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNext {
		m.failNext = false
		return errFlashUnavailable
	}
	m.records = append(m.records, rec)
	return nil
}

func (m *MemoryFlash) LoadRecent(max int) ([]attacklog.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	recs := m.records
	if len(recs) > max {
		recs = recs[len(recs)-max:]
	}
	out := make([]attacklog.Record, len(recs))
	copy(out, recs)
	return out, nil
}

func (m *MemoryFlash) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = nil
	return nil
}

func (m *MemoryFlash) Close() error { return nil }

type flashError string

func (e flashError) Error() string { return string(e) }

const errFlashUnavailable = flashError("flash mirror unavailable")
