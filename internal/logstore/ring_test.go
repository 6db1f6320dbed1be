package logstore

import (
	"testing"
	"time"

	"github.com/blackfennetworks/honeytrap/internal/attacklog"
	"github.com/blackfennetworks/honeytrap/internal/protocol"
)

func rec(n int) attacklog.Record {
	return attacklog.New(time.Unix(int64(n), 0), "1.2.3.4", 80, protocol.HTTP, "", "", "", "", "seq")
}

func ips(recs []attacklog.Record) []int64 {
	out := make([]int64, len(recs))
	for i, r := range recs {
		out[i] = r.Timestamp.Unix()
	}
	return out
}

func TestRingRecentNonFull(t *testing.T) {
	r := newRing(5)
	for i := 1; i <= 3; i++ {
		r.append(rec(i))
	}
	if r.count != 3 {
		t.Fatalf("count = %d, want 3", r.count)
	}
	got := ips(r.recent(10))
	want := []int64{3, 2, 1}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestRingRecentWrapAround(t *testing.T) {
	r := newRing(3)
	for i := 1; i <= 7; i++ { // wraps twice
		r.append(rec(i))
	}
	if r.count != 3 {
		t.Fatalf("count = %d, want cap 3", r.count)
	}
	got := ips(r.recent(10))
	want := []int64{7, 6, 5}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestRingRecentNeverExceedsCount(t *testing.T) {
	r := newRing(10)
	r.append(rec(1))
	r.append(rec(2))
	for _, k := range []int{0, 1, 2, 5, 100} {
		got := r.recent(k)
		want := k
		if want > r.count {
			want = r.count
		}
		if len(got) != want {
			t.Fatalf("recent(%d) returned %d entries, want %d", k, len(got), want)
		}
	}
}

func TestRingClearIsIdempotent(t *testing.T) {
	r := newRing(4)
	r.append(rec(1))
	r.append(rec(2))
	r.clear()
	first := r.recent(10)
	r.clear()
	second := r.recent(10)
	if len(first) != 0 || len(second) != 0 {
		t.Fatalf("clear did not empty the ring: %v %v", first, second)
	}
	if r.count != 0 {
		t.Fatalf("count after clear = %d, want 0", r.count)
	}
}

func TestRingLoadOrderedDiscardsOldestBeyondCap(t *testing.T) {
	r := newRing(2)
	r.loadOrdered([]attacklog.Record{rec(1), rec(2), rec(3)})
	got := ips(r.recent(10))
	want := []int64{3, 2}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
