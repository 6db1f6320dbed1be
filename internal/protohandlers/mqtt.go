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

package protohandlers

import (
	"time"

	"github.com/blackfennetworks/honeytrap/internal/attacklog"
	"github.com/blackfennetworks/honeytrap/internal/protocol"
	"github.com/blackfennetworks/honeytrap/internal/session"
)

// MQTTConnAck is the canned "Not Authorized" CONNACK every CONNECT gets.
var MQTTConnAck = []byte{0x20, 0x02, 0x00, 0x05}

const mqttPacketTypeConnect = 1

const (
	mqttFlagUsername = 1 << 7
	mqttFlagPassword = 1 << 6
	mqttFlagWill     = 1 << 2
)

// HandleMQTT parses one binary CONNECT packet. Any malformed framing closes
// the session without a reply and without a record, per the scanner
// amplification guard: scanners probing with garbage get nothing back.
func HandleMQTT(sess *session.Session, in []byte, now time.Time) Result {
	// Bytes of a packet split across reads are kept on the session until
	// the whole packet has arrived.
	buf, _ := sess.HandlerState.([]byte)
	in = append(buf, in...)
	sess.HandlerState = in

	if len(in) < 2 {
		return Result{Close: true}
	}

	packetType := in[0] >> 4
	remLen, headerLen, ok := decodeRemainingLength(in[1:])
	if !ok {
		return Result{Close: true}
	}
	headerLen++ // account for the fixed-header type/flags byte

	if len(in) < headerLen+remLen {
		return Result{} // wait for the rest of the packet
	}

	payload := in[headerLen : headerLen+remLen]

	if packetType != mqttPacketTypeConnect {
		return Result{Close: true}
	}

	username, password, ok := parseConnectPayload(payload)
	if !ok {
		return Result{Close: true}
	}

	rec := attacklog.New(now, sess.PeerIP, sess.Port, protocol.MQTT, username, password, "", attacklog.HashPayload(in), "")

	return Result{
		Reply:  MQTTConnAck,
		Close:  true,
		Record: &rec,
	}
}

// decodeRemainingLength parses MQTT's variable-length encoding: up to 4
// bytes, each carrying 7 bits of value and a continuation bit in the MSB.
func decodeRemainingLength(buf []byte) (value, consumed int, ok bool) {
	multiplier := 1
	for i := 0; i < 4 && i < len(buf); i++ {
		b := buf[i]
		value += int(b&0x7f) * multiplier
		consumed++
		if b&0x80 == 0 {
			return value, consumed, true
		}
		multiplier *= 128
	}
	return 0, 0, false
}

func parseConnectPayload(payload []byte) (username, password string, ok bool) {
	r := &byteReader{buf: payload}

	if _, ok = r.readUTF8(); !ok { // protocol name
		return "", "", false
	}
	protoLevel, ok := r.readByte()
	if !ok {
		return "", "", false
	}
	_ = protoLevel
	flags, ok := r.readByte()
	if !ok {
		return "", "", false
	}
	if _, ok = r.readUint16(); !ok { // keepalive
		return "", "", false
	}
	if _, ok = r.readUTF8(); !ok { // ClientID
		return "", "", false
	}
	if flags&mqttFlagWill != 0 {
		if _, ok = r.readUTF8(); !ok { // will topic
			return "", "", false
		}
		if _, ok = r.readBinary(); !ok { // will message
			return "", "", false
		}
	}
	if flags&mqttFlagUsername != 0 {
		username, ok = r.readUTF8()
		if !ok {
			return "", "", false
		}
	}
	if flags&mqttFlagPassword != 0 {
		password, ok = r.readUTF8()
		if !ok {
			return "", "", false
		}
	}
	return username, password, true
}

// byteReader is a minimal cursor over an MQTT CONNECT payload.
type byteReader struct {
	buf []byte
	pos int
}

func (r *byteReader) readByte() (byte, bool) {
	if r.pos >= len(r.buf) {
		return 0, false
	}
	b := r.buf[r.pos]
	r.pos++
	return b, true
}

func (r *byteReader) readUint16() (uint16, bool) {
	if r.pos+2 > len(r.buf) {
		return 0, false
	}
	v := uint16(r.buf[r.pos])<<8 | uint16(r.buf[r.pos+1])
	r.pos += 2
	return v, true
}

func (r *byteReader) readBinary() ([]byte, bool) {
	n, ok := r.readUint16()
	if !ok || r.pos+int(n) > len(r.buf) {
		return nil, false
	}
	v := r.buf[r.pos : r.pos+int(n)]
	r.pos += int(n)
	return v, true
}

func (r *byteReader) readUTF8() (string, bool) {
	b, ok := r.readBinary()
	if !ok {
		return "", false
	}
	return string(b), true
}
