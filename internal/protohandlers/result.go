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

// Package protohandlers implements the per-service emulation logic: HTTP,
// Telnet, FTP and MQTT. Each handler is a pure function of (session,
// incoming bytes) that never retains a reference to either beyond the
// call, so the reactor goroutine stays the sole owner of session memory.
package protohandlers

import "github.com/blackfennetworks/honeytrap/internal/attacklog"

// Result is what a protocol handler hands back to the reactor: bytes to
// write verbatim, whether the session should close after writing them, and
// an optional AttackRecord to hand to the Log Store.
type Result struct {
	Reply    []byte
	Close    bool
	Record   *attacklog.Record
	Warnings []string // surfaced by the reactor at warn level; handlers never log directly
}
