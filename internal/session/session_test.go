package session_test

import (
	"testing"
	"time"

	"github.com/blackfennetworks/honeytrap/internal/protocol"
	"github.com/blackfennetworks/honeytrap/internal/session"
)

func TestNewSessionInvariants(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := session.New(1, 80, protocol.HTTP, "10.0.0.1", start)

	if s.State != session.Active {
		t.Fatalf("new session state = %v, want Active", s.State)
	}
	if s.LastActiveAt.Before(s.OpenedAt) {
		t.Fatalf("last_active_at (%v) before opened_at (%v)", s.LastActiveAt, s.OpenedAt)
	}
}

func TestTouchCapsBytesInAtMaxPayload(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := session.New(1, 80, protocol.HTTP, "10.0.0.1", start)

	accepted := s.Touch(start, session.MaxPayloadSize-10)
	if accepted != session.MaxPayloadSize-10 {
		t.Fatalf("accepted = %d, want %d", accepted, session.MaxPayloadSize-10)
	}

	accepted = s.Touch(start, 100)
	if accepted != 10 {
		t.Fatalf("second Touch accepted = %d, want 10 (room left)", accepted)
	}
	if s.BytesIn != session.MaxPayloadSize {
		t.Fatalf("BytesIn = %d, want %d (capped at MaxPayloadSize)", s.BytesIn, session.MaxPayloadSize)
	}

	accepted = s.Touch(start, 50)
	if accepted != 0 {
		t.Fatalf("accepted once over budget = %d, want 0 (read-and-discard)", accepted)
	}
}

func TestLegalTransitions(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := session.New(1, 23, protocol.TELNET, "10.0.0.1", start)

	if !s.Transition(session.Closing) {
		t.Fatalf("Active -> Closing should be legal")
	}
	if s.Transition(session.Active) {
		t.Fatalf("Closing -> Active must not be legal")
	}
	if !s.Transition(session.Closed) {
		t.Fatalf("Closing -> Closed should be legal")
	}
	if s.Transition(session.Active) || s.Transition(session.Closing) {
		t.Fatalf("Closed must be terminal")
	}
}

func TestIdleDetection(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := session.New(1, 80, protocol.HTTP, "10.0.0.1", start)

	if s.Idle(start.Add(5*time.Second), 10*time.Second) {
		t.Fatalf("must not be idle before timeout")
	}
	if !s.Idle(start.Add(10*time.Second), 10*time.Second) {
		t.Fatalf("must be idle once elapsed >= timeout")
	}
}
