package protohandlers_test

import (
	"strings"
	"testing"
	"time"

	"github.com/blackfennetworks/honeytrap/internal/protocol"
	"github.com/blackfennetworks/honeytrap/internal/protohandlers"
	"github.com/blackfennetworks/honeytrap/internal/session"
)

func newHTTPSession() *session.Session {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return session.New(1, 8080, protocol.HTTP, "192.0.2.10", start)
}

func TestHandleHTTPCapturesPostCredentials(t *testing.T) {
	sess := newHTTPSession()
	raw := "POST /login HTTP/1.1\r\n" +
		"Host: 192.168.1.1\r\n" +
		"User-Agent: curl/7.81.0\r\n" +
		"Content-Type: application/x-www-form-urlencoded\r\n" +
		"\r\n" +
		"username=admin&password=hunter2"

	res := protohandlers.HandleHTTP(sess, []byte(raw), time.Now().UTC())

	if res.Record == nil {
		t.Fatalf("expected an AttackRecord")
	}
	if res.Record.Username != "admin" {
		t.Fatalf("Username = %q, want admin", res.Record.Username)
	}
	if res.Record.Password != "hunter2" {
		t.Fatalf("Password = %q, want hunter2", res.Record.Password)
	}
	if res.Record.UserAgent != "curl/7.81.0" {
		t.Fatalf("UserAgent = %q", res.Record.UserAgent)
	}
	if !res.Close {
		t.Fatalf("HTTP handler must close after one reply")
	}
	if !strings.Contains(string(res.Reply), "403 Forbidden") {
		t.Fatalf("reply must be the 403 fake login page, got %q", res.Reply)
	}
	if !strings.Contains(string(res.Reply), "Router Administration") {
		t.Fatalf("reply must contain the fake admin panel body")
	}
	if len(res.Warnings) != 0 {
		t.Fatalf("plain login POST should not raise warnings, got %v", res.Warnings)
	}
}

func TestHandleHTTPFirstMatchWinsAcrossKeyLists(t *testing.T) {
	sess := newHTTPSession()
	// "user=" would match before "login=" in the username list; "pass="
	// before "passwd=" in the password list.
	raw := "POST /submit HTTP/1.1\r\n\r\n" +
		"login=second&user=first&passwd=second&pass=first"

	res := protohandlers.HandleHTTP(sess, []byte(raw), time.Now().UTC())

	if res.Record.Username != "first" {
		t.Fatalf("Username = %q, want first (user= precedes login= in the list)", res.Record.Username)
	}
	if res.Record.Password != "first" {
		t.Fatalf("Password = %q, want first (pass= precedes passwd= in the list)", res.Record.Password)
	}
}

func TestHandleHTTPPathTraversalWarning(t *testing.T) {
	sess := newHTTPSession()
	raw := "GET /../../etc/passwd HTTP/1.1\r\n\r\n"

	res := protohandlers.HandleHTTP(sess, []byte(raw), time.Now().UTC())

	if len(res.Warnings) == 0 {
		t.Fatalf("expected a path traversal warning")
	}
	if res.Record.Username != "N/A" || res.Record.Password != "N/A" {
		t.Fatalf("GET with no credentials should record N/A sentinels, got %q/%q", res.Record.Username, res.Record.Password)
	}
}

func TestHandleHTTPAuthorizationHeaderFallback(t *testing.T) {
	sess := newHTTPSession()
	raw := "GET /admin HTTP/1.1\r\n" +
		"Authorization: Basic YWRtaW46c2VjcmV0\r\n" +
		"\r\n"

	res := protohandlers.HandleHTTP(sess, []byte(raw), time.Now().UTC())

	if res.Record.Password != "Basic YWRtaW46c2VjcmV0" {
		t.Fatalf("Password = %q, want the raw Authorization header value", res.Record.Password)
	}
}

func TestHandleHTTPMalformedRequestLine(t *testing.T) {
	sess := newHTTPSession()
	res := protohandlers.HandleHTTP(sess, []byte("not a valid http request"), time.Now().UTC())

	if !res.Close {
		t.Fatalf("malformed request must still close")
	}
	if !strings.Contains(string(res.Reply), "400 Bad Request") {
		t.Fatalf("expected a 400 reply, got %q", res.Reply)
	}
	if res.Record != nil {
		t.Fatalf("malformed request line before any method/path parsed should not record")
	}
}
