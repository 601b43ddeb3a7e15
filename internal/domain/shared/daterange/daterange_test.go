package daterange

import (
	"testing"
	"time"
)

func TestWholeDaysUntilFloors(t *testing.T) {
	now := time.Date(2026, 10, 1, 18, 0, 0, 0, time.UTC)
	target := time.Date(2026, 10, 6, 0, 0, 0, 0, time.UTC)
	if got := WholeDaysUntil(target, now); got != 4 {
		t.Fatalf("expected 4 whole days, got %d", got)
	}
	if got := WholeDaysUntil(now.Add(-time.Hour), now); got != -1 {
		t.Fatalf("expected -1 for past target, got %d", got)
	}
}

func TestFormatAllDeduplicatesAndSorts(t *testing.T) {
	days := []time.Time{
		time.Date(2026, 12, 5, 10, 0, 0, 0, time.UTC),
		time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 12, 5, 0, 0, 0, 0, time.UTC),
	}
	got := FormatAll(days)
	if len(got) != 2 || got[0] != "2026-12-01" || got[1] != "2026-12-05" {
		t.Fatalf("unexpected formatted days %v", got)
	}
}

func TestParseAcceptsTimestamps(t *testing.T) {
	d, err := Parse("2026-12-05T15:04:05Z")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if Format(d) != "2026-12-05" {
		t.Fatalf("expected day 2026-12-05, got %s", Format(d))
	}
	if _, err := Parse("05/12/2026"); err == nil {
		t.Fatalf("expected error for unsupported layout")
	}
}
