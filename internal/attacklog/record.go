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

// Package attacklog defines the immutable AttackRecord emitted by every
// protocol handler, and its bounded, truncating JSON encoding used for the
// remote-upload wire format.
package attacklog

import (
	"crypto/md5" //nolint:gosec // fingerprinting only, not a security boundary
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/blackfennetworks/honeytrap/internal/protocol"
)

// NotAvailable is the sentinel username/password value used when no
// credential was extracted.
const NotAvailable = "N/A"

// Field caps from the external interface contract. Overflow truncates
// silently; it is never an encoding error.
const (
	capSourceIP  = 16
	capService   = 16
	capUsername  = 64
	capPassword  = 64
	capUserAgent = 255
	capMetadata  = 255
)

// Record is the immutable, bounded description of one capture. Every
// string field is truncated to its cap at construction time via New, so a
// Record in memory is already wire-safe.
type Record struct {
	Timestamp   time.Time
	SourceIP    string
	TargetPort  uint16
	Service     protocol.Service
	Username    string
	Password    string
	UserAgent   string
	PayloadHash string
	Metadata    string
}

// New builds a Record, applying the field caps and the username/password
// "N/A" sentinel. ts should come from a Clock's WallClock, not time.Now,
// so tests stay deterministic.
func New(ts time.Time, sourceIP string, port uint16, svc protocol.Service, username, password, userAgent, payloadHash, metadata string) Record {
	if username == "" {
		username = NotAvailable
	}
	if password == "" {
		password = NotAvailable
	}
	return Record{
		Timestamp:   ts.UTC(),
		SourceIP:    truncate(sourceIP, capSourceIP),
		TargetPort:  port,
		Service:     svc,
		Username:    truncate(username, capUsername),
		Password:    truncate(password, capPassword),
		UserAgent:   truncate(userAgent, capUserAgent),
		PayloadHash: payloadHash,
		Metadata:    truncate(metadata, capMetadata),
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// HashPayload returns the hex MD5 digest of at most the first 512 bytes of
// buf, the payload_hash used by every protocol handler. MD5 here is a
// fingerprint, not a security primitive: the spec calls it a pure
// byte-to-digest function, and changing it would break comparisons against
// previously recorded hashes.
func HashPayload(buf []byte) string {
	if len(buf) > 512 {
		buf = buf[:512]
	}
	sum := md5.Sum(buf) //nolint:gosec
	return hex.EncodeToString(sum[:])
}

// wireRecord is the exact JSON shape from the external interface contract.
type wireRecord struct {
	Timestamp   string `json:"timestamp"`
	SourceIP    string `json:"source_ip"`
	TargetPort  uint16 `json:"target_port"`
	Service     string `json:"service"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	UserAgent   string `json:"user_agent"`
	PayloadHash string `json:"payload_hash"`
	Metadata    string `json:"metadata"`
}

// MarshalJSON emits the compact wire object with an ISO-8601 UTC "Z"
// timestamp. Fields are already capped by New, so this never truncates;
// it exists to pin the exact field order/names/timestamp format of the
// external contract rather than leaving them to struct tag defaults.
func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireRecord{
		Timestamp:   r.Timestamp.UTC().Format("2006-01-02T15:04:05Z"),
		SourceIP:    r.SourceIP,
		TargetPort:  r.TargetPort,
		Service:     r.Service.String(),
		Username:    r.Username,
		Password:    r.Password,
		UserAgent:   r.UserAgent,
		PayloadHash: r.PayloadHash,
		Metadata:    r.Metadata,
	})
}

// UnmarshalJSON is the inverse of MarshalJSON, parsing the wire object
// back into a Record.
func (r *Record) UnmarshalJSON(data []byte) error {
	var w wireRecord
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	ts, err := time.Parse("2006-01-02T15:04:05Z", w.Timestamp)
	if err != nil {
		return err
	}
	*r = Record{
		Timestamp:   ts,
		SourceIP:    w.SourceIP,
		TargetPort:  w.TargetPort,
		Service:     protocol.Parse(w.Service),
		Username:    w.Username,
		Password:    w.Password,
		UserAgent:   w.UserAgent,
		PayloadHash: w.PayloadHash,
		Metadata:    w.Metadata,
	}
	return nil
}
