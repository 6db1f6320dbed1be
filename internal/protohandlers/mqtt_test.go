package protohandlers_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/blackfennetworks/honeytrap/internal/protocol"
	"github.com/blackfennetworks/honeytrap/internal/protohandlers"
	"github.com/blackfennetworks/honeytrap/internal/session"
)

func newMQTTSession() *session.Session {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return session.New(4, 1883, protocol.MQTT, "203.0.113.9", start)
}

func utf8Field(s string) []byte {
	b := []byte(s)
	out := []byte{byte(len(b) >> 8), byte(len(b))}
	return append(out, b...)
}

// buildConnect constructs an MQTT 3.1.1 CONNECT packet with the given
// clientID, username and password, username/password flags set.
func buildConnect(clientID, username, password string) []byte {
	var payload bytes.Buffer
	payload.Write(utf8Field(clientID))
	payload.Write(utf8Field(username))
	payload.Write(utf8Field(password))

	var variable bytes.Buffer
	variable.Write(utf8Field("MQTT"))
	variable.WriteByte(4) // protocol level 3.1.1
	variable.WriteByte(0xC0 | 0x02) // username | password | clean session
	variable.Write([]byte{0x00, 0x3c}) // keepalive 60s

	body := append(variable.Bytes(), payload.Bytes()...)

	var packet bytes.Buffer
	packet.WriteByte(0x10) // CONNECT, flags 0
	packet.Write(encodeRemainingLength(len(body)))
	packet.Write(body)
	return packet.Bytes()
}

func encodeRemainingLength(n int) []byte {
	var out []byte
	for {
		b := byte(n % 128)
		n /= 128
		if n > 0 {
			b |= 0x80
		}
		out = append(out, b)
		if n == 0 {
			break
		}
	}
	return out
}

func TestHandleMQTTConnectWithCredentials(t *testing.T) {
	sess := newMQTTSession()
	packet := buildConnect("bot", "iot", "pass")

	res := protohandlers.HandleMQTT(sess, packet, time.Now().UTC())

	if !bytes.Equal(res.Reply, protohandlers.MQTTConnAck) {
		t.Fatalf("Reply = % x, want 20 02 00 05", res.Reply)
	}
	if !res.Close {
		t.Fatalf("MQTT handler must close after CONNACK")
	}
	if res.Record == nil {
		t.Fatalf("expected an AttackRecord")
	}
	if res.Record.Username != "iot" || res.Record.Password != "pass" {
		t.Fatalf("Username/Password = %q/%q, want iot/pass", res.Record.Username, res.Record.Password)
	}
	if res.Record.Service != protocol.MQTT {
		t.Fatalf("Service = %v, want MQTT", res.Record.Service)
	}
}

func TestHandleMQTTMalformedFramingClosesWithoutRecord(t *testing.T) {
	sess := newMQTTSession()
	garbage := []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF}

	res := protohandlers.HandleMQTT(sess, garbage, time.Now().UTC())

	if !res.Close {
		t.Fatalf("malformed framing must close")
	}
	if res.Reply != nil {
		t.Fatalf("malformed framing must not reply, got % x", res.Reply)
	}
	if res.Record != nil {
		t.Fatalf("malformed framing must not record")
	}
}

func TestHandleMQTTWaitsForMorePacketBytes(t *testing.T) {
	sess := newMQTTSession()
	full := buildConnect("c", "u", "p")
	partial := full[:len(full)-3]

	res := protohandlers.HandleMQTT(sess, partial, time.Now().UTC())
	if res.Close || res.Reply != nil || res.Record != nil {
		t.Fatalf("a truncated packet must produce no close/reply/record yet, got %+v", res)
	}
}
