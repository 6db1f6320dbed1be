package protohandlers_test

import (
	"testing"
	"time"

	"github.com/blackfennetworks/honeytrap/internal/protocol"
	"github.com/blackfennetworks/honeytrap/internal/protohandlers"
	"github.com/blackfennetworks/honeytrap/internal/session"
)

func newFTPSession() *session.Session {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return session.New(3, 21, protocol.FTP, "203.0.113.4", start)
}

func TestHandleFTPUserPass(t *testing.T) {
	sess := newFTPSession()
	now := time.Now().UTC()

	res := protohandlers.HandleFTP(sess, []byte("USER admin\r\n"), now)
	if string(res.Reply) != "331 Password required for admin\r\n" {
		t.Fatalf("Reply = %q", res.Reply)
	}
	if res.Close || res.Record != nil {
		t.Fatalf("USER alone must not close or record")
	}

	res = protohandlers.HandleFTP(sess, []byte("PASS hunter2\r\n"), now)
	if string(res.Reply) != "530 Login incorrect\r\n" {
		t.Fatalf("Reply = %q", res.Reply)
	}
	if !res.Close {
		t.Fatalf("PASS must close the session")
	}
	if res.Record == nil || res.Record.Username != "admin" || res.Record.Password != "hunter2" {
		t.Fatalf("record = %+v, want admin/hunter2", res.Record)
	}
}

func TestHandleFTPQuitWithoutCredsEmitsNoRecord(t *testing.T) {
	sess := newFTPSession()
	res := protohandlers.HandleFTP(sess, []byte("QUIT\r\n"), time.Now().UTC())
	if string(res.Reply) != "221 Goodbye\r\n" || !res.Close {
		t.Fatalf("unexpected QUIT result: %+v", res)
	}
	if res.Record != nil {
		t.Fatalf("QUIT with no prior credential should not record")
	}
}

func TestHandleFTPUnknownCommand(t *testing.T) {
	sess := newFTPSession()
	res := protohandlers.HandleFTP(sess, []byte("FOO bar\r\n"), time.Now().UTC())
	if string(res.Reply) != "502 Command not implemented\r\n" || res.Close {
		t.Fatalf("unexpected result for unknown command: %+v", res)
	}
}
