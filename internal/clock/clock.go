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

// Package clock isolates wall-clock and monotonic time behind an interface
// so the reactor's timeout and sweep logic can be driven deterministically
// in tests, mirroring the "Clock & Yield" collaborator from the honeypot's
// design.
package clock

import "time"

// Clock exposes monotonic ticks for timeouts, wall-clock seconds for
// AttackRecord timestamps, and a cooperative sleep.
type Clock interface {
	// Now returns the current instant; callers needing a monotonic delta
	// should use Sub on two Now() results (time.Time carries a monotonic
	// reading internally on real clocks).
	Now() time.Time

	// WallClock returns the current UTC time truncated to the second, the
	// resolution AttackRecord timestamps use.
	WallClock() time.Time

	// Sleep cooperatively yields for d. On the real clock this is
	// time.Sleep; the fake clock returns immediately and records the call.
	Sleep(d time.Duration)
}

// System is the production Clock, a thin wrapper over the time package.
type System struct{}

func NewSystem() System { return System{} }

func (System) Now() time.Time { return time.Now() }

func (System) WallClock() time.Time { return time.Now().UTC().Truncate(time.Second) }

func (System) Sleep(d time.Duration) { time.Sleep(d) }
