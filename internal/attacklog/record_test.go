package attacklog_test

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/blackfennetworks/honeytrap/internal/attacklog"
	"github.com/blackfennetworks/honeytrap/internal/protocol"
)

func TestNewAppliesSentinelsAndCaps(t *testing.T) {
	ts := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	r := attacklog.New(ts, "10.0.0.1", 80, protocol.HTTP, "", "", strings.Repeat("a", 300), attacklog.HashPayload([]byte("x")), "m")

	if r.Username != attacklog.NotAvailable || r.Password != attacklog.NotAvailable {
		t.Fatalf("expected N/A sentinels, got user=%q pass=%q", r.Username, r.Password)
	}
	if len(r.UserAgent) != 255 {
		t.Fatalf("user agent not truncated to cap: len=%d", len(r.UserAgent))
	}
}

func TestHashPayloadIsLowercaseHex32(t *testing.T) {
	h := attacklog.HashPayload([]byte("POST /login HTTP/1.1\r\n\r\nusername=admin&password=1234"))
	if len(h) != 32 {
		t.Fatalf("hash length = %d, want 32", len(h))
	}
	for _, c := range h {
		if !strings.ContainsRune("0123456789abcdef", c) {
			t.Fatalf("hash contains non-hex-lowercase char %q in %q", c, h)
		}
	}
}

func TestHashPayloadCapsAt512Bytes(t *testing.T) {
	short := strings.Repeat("a", 512)
	long := short + strings.Repeat("b", 1000)
	if attacklog.HashPayload([]byte(short)) != attacklog.HashPayload([]byte(long)) {
		t.Fatalf("hash must only consider the first 512 bytes")
	}
}

func TestJSONRoundTrip(t *testing.T) {
	ts := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	want := attacklog.New(ts, "192.168.1.5", 1883, protocol.MQTT, "iot", "pass", "", attacklog.HashPayload([]byte("x")), "ClientID: bot")

	buf, err := json.Marshal(want)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(buf), `"timestamp":"2026-03-04T05:06:07Z"`) {
		t.Fatalf("timestamp not ISO8601 Z: %s", buf)
	}

	var got attacklog.Record
	if err := json.Unmarshal(buf, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got != want {
		t.Fatalf("round trip mismatch:\n got=%+v\nwant=%+v", got, want)
	}
}
