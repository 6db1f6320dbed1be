package protohandlers_test

import (
	"strings"
	"testing"
	"time"

	"github.com/blackfennetworks/honeytrap/internal/protocol"
	"github.com/blackfennetworks/honeytrap/internal/protohandlers"
	"github.com/blackfennetworks/honeytrap/internal/session"
)

func newTelnetSession() *session.Session {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return session.New(2, 23, protocol.TELNET, "198.51.100.7", start)
}

func TestHandleTelnetTwoLineLogin(t *testing.T) {
	sess := newTelnetSession()
	now := time.Now().UTC()

	res := protohandlers.HandleTelnet(sess, []byte("root\r\n"), now)
	if res.Close {
		t.Fatalf("must not close after username line")
	}
	if string(res.Reply) != "Password: " {
		t.Fatalf("Reply after username = %q, want the password prompt", res.Reply)
	}
	if res.Record != nil {
		t.Fatalf("no record should be emitted until password is captured")
	}

	res = protohandlers.HandleTelnet(sess, []byte("toor\r\n"), now)
	if !res.Close {
		t.Fatalf("must close after password line")
	}
	if string(res.Reply) != "Login incorrect\r\n" {
		t.Fatalf("Reply = %q, want Login incorrect", res.Reply)
	}
	if res.Record == nil {
		t.Fatalf("expected an AttackRecord after password line")
	}
	if res.Record.Username != "root" || res.Record.Password != "toor" {
		t.Fatalf("Username/Password = %q/%q, want root/toor", res.Record.Username, res.Record.Password)
	}
	if res.Record.Service != protocol.TELNET {
		t.Fatalf("Service = %v, want TELNET", res.Record.Service)
	}
}

func TestHandleTelnetBuffersPartialLine(t *testing.T) {
	sess := newTelnetSession()
	now := time.Now().UTC()

	res := protohandlers.HandleTelnet(sess, []byte("ro"), now)
	if res.Close || res.Record != nil || len(res.Reply) != 0 {
		t.Fatalf("a partial line must produce no reply, no close, no record")
	}
	res = protohandlers.HandleTelnet(sess, []byte("ot\r\n"), now)
	if strings.TrimSpace(string(res.Reply)) != "Password:" {
		t.Fatalf("Reply = %q after the line completes, want the password prompt", res.Reply)
	}
}
