package clock_test

import (
	"testing"
	"time"

	"github.com/blackfennetworks/honeytrap/internal/clock"
)

func TestFakeAdvanceAndSleep(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	f := clock.NewFake(start)

	if got := f.Now(); !got.Equal(start) {
		t.Fatalf("Now() = %v, want %v", got, start)
	}

	f.Sleep(10 * time.Second)
	if got := f.Now(); !got.Equal(start.Add(10 * time.Second)) {
		t.Fatalf("after Sleep: Now() = %v", got)
	}
	if f.SleepCount() != 1 {
		t.Fatalf("SleepCount() = %d, want 1", f.SleepCount())
	}

	f.Advance(5 * time.Second)
	if got := f.Now(); !got.Equal(start.Add(15 * time.Second)) {
		t.Fatalf("after Advance: Now() = %v", got)
	}
	if f.SleepCount() != 1 {
		t.Fatalf("Advance must not count as Sleep, got %d", f.SleepCount())
	}
}

func TestSystemClock(t *testing.T) {
	s := clock.NewSystem()
	before := time.Now()
	got := s.WallClock()
	if got.Location() != time.UTC {
		t.Fatalf("WallClock() must be UTC, got %v", got.Location())
	}
	if got.Nanosecond() != 0 {
		t.Fatalf("WallClock() must be truncated to the second, got %v", got)
	}
	if got.Before(before.UTC().Truncate(time.Second).Add(-time.Second)) {
		t.Fatalf("WallClock() too far in the past: %v vs %v", got, before)
	}
}
