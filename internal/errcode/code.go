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

// Package errcode implements the honeypot's error taxonomy: a small set of
// named, numeric codes a caller can switch on instead of string-matching
// error text.
package errcode

import "errors"

// Code is a numeric error classification, modeled after the teacher's
// errors.CodeError: a small uint16 space with named constants instead of an
// open string taxonomy.
type Code uint16

const (
	// Unknown is the zero value, never returned deliberately.
	Unknown Code = iota

	// InvalidArg is a caller contract violation (nil/oversize input). Never
	// recovered by the reactor; it always indicates a programming error at
	// the call site.
	InvalidArg

	// Capacity means a listener, session table, or log store is full. The
	// event loop treats it as "drop this arrival" and continues.
	Capacity

	// TransientIO is a read/write/accept failure scoped to a single
	// session. Only that session is closed.
	TransientIO

	// PersistentIO is a flash/database init failure. Surfaced to startup;
	// the core refuses to start.
	PersistentIO

	// MalformedProtocol is a handler-local framing error. The session is
	// closed silently and no AttackRecord is emitted.
	MalformedProtocol
)

func (c Code) String() string {
	switch c {
	case InvalidArg:
		return "invalid_arg"
	case Capacity:
		return "capacity"
	case TransientIO:
		return "transient_io"
	case PersistentIO:
		return "persistent_io"
	case MalformedProtocol:
		return "malformed_protocol"
	default:
		return "unknown"
	}
}

// Error wraps a Code with a human-readable message and an optional cause,
// satisfying the standard error interface.
type Error struct {
	Code  Code
	Msg   string
	Cause error
}

func New(code Code, msg string) *Error {
	return &Error{Code: code, Msg: msg}
}

func Wrap(code Code, msg string, cause error) *Error {
	return &Error{Code: code, Msg: msg, Cause: cause}
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Cause != nil {
		return e.Code.String() + ": " + e.Msg + ": " + e.Cause.Error()
	}
	return e.Code.String() + ": " + e.Msg
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is reports whether err carries the given Code, unwrapping plain wrapped
// errors along the way.
func Is(err error, code Code) bool {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Code == code {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}
