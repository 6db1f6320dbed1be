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

// Package protocol classifies listening ports to the emulated service
// family they belong to. The set of known ports is closed: any port not
// named here has no Protocol and must not be listened on.
package protocol

import "strings"

// Service identifies which emulated service a port belongs to.
type Service uint8

const (
	// Unknown is returned for any port outside the closed classification
	// table; callers must treat it as "do not listen".
	Unknown Service = iota
	HTTP
	TELNET
	FTP
	MQTT
)

// String renders the canonical upper-case service name used in
// AttackRecord.Service and the console log line.
func (s Service) String() string {
	switch s {
	case HTTP:
		return "HTTP"
	case TELNET:
		return "TELNET"
	case FTP:
		return "FTP"
	case MQTT:
		return "MQTT"
	default:
		return "UNKNOWN"
	}
}

// Parse maps a case-insensitive service name back to a Service, the
// counterpart of String, used when decoding AttackRecords from JSON or
// from the SQLite flash mirror. Returns Unknown for any unrecognized name.
func Parse(s string) Service {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "HTTP":
		return HTTP
	case "TELNET":
		return TELNET
	case "FTP":
		return FTP
	case "MQTT":
		return MQTT
	default:
		return Unknown
	}
}

// MarshalText implements encoding.TextMarshaler so a Service can be
// embedded in JSON/YAML config without a custom codec.
func (s Service) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Service) UnmarshalText(text []byte) error {
	*s = Parse(string(text))
	return nil
}

// defaultPortTable is the closed port → service classification named in
// the data model: {80, 8080} → HTTP, {23, 2323} → TELNET, {21} → FTP,
// {1883} → MQTT. Any port absent from this table classifies as Unknown.
var defaultPortTable = map[uint16]Service{
	80:   HTTP,
	8080: HTTP,
	23:   TELNET,
	2323: TELNET,
	21:   FTP,
	1883: MQTT,
}

// DefaultPorts returns the honeypot's default listen set in a stable
// order, matching the original firmware's configured port list.
func DefaultPorts() []uint16 {
	return []uint16{21, 23, 80, 1883, 2323, 8080}
}

// Table is a caller-supplied port→Service classification, allowing a
// Config to override or extend the default set while keeping the
// "closed set" invariant — any port without an entry classifies as
// Unknown and must not be listened on.
type Table map[uint16]Service

// DefaultTable returns a fresh copy of the default port classification, so
// callers can safely mutate it (e.g. to add non-default ports) without
// affecting the package-level default.
func DefaultTable() Table {
	t := make(Table, len(defaultPortTable))
	for k, v := range defaultPortTable {
		t[k] = v
	}
	return t
}

// Classify looks up the service family bound to port, or Unknown if the
// port is not present in the table.
func (t Table) Classify(port uint16) Service {
	if t == nil {
		return Unknown
	}
	if svc, ok := t[port]; ok {
		return svc
	}
	return Unknown
}
