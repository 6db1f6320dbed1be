package duration_test

import (
	"testing"
	"time"

	"github.com/blackfennetworks/honeytrap/duration"
)

func TestStringOmitsDaysWhenZero(t *testing.T) {
	d := duration.ParseDuration(90 * time.Second)
	if got, want := d.String(), (90 * time.Second).String(); got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestStringOmitsRemainderOnWholeDays(t *testing.T) {
	d := duration.ParseDuration(2 * 24 * time.Hour)
	if got, want := d.String(), "2d"; got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestStringCombinesDaysAndRemainder(t *testing.T) {
	d := duration.ParseDuration(5*24*time.Hour + 23*time.Hour + 15*time.Minute + 13*time.Second)
	want := "5d" + (23*time.Hour + 15*time.Minute + 13*time.Second).String()
	if got := d.String(); got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestDaysTruncatesTowardZero(t *testing.T) {
	d := duration.ParseDuration(47 * time.Hour)
	if got := d.Days(); got != 1 {
		t.Fatalf("Days() = %d, want 1", got)
	}
}

func TestTimeRoundTrips(t *testing.T) {
	want := 30*time.Minute + 5*time.Second
	d := duration.ParseDuration(want)
	if got := d.Time(); got != want {
		t.Fatalf("Time() = %v, want %v", got, want)
	}
}
