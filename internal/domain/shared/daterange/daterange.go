package daterange

import (
	"errors"
	"math"
	"sort"
	"strings"
	"time"
)

// Layout is the calendar-day format used by service date sets.
const Layout = "2006-01-02"

var ErrInvalidDay = errors.New("daterange: invalid calendar day")

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func Format(t time.Time) string {
	return t.UTC().Format(Layout)
}

func Parse(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, ErrInvalidDay
	}
	if len(raw) > len(Layout) {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			return Day(t), nil
		}
	}
	t, err := time.Parse(Layout, raw)
	if err != nil {
		return time.Time{}, ErrInvalidDay
	}
	return t, nil
}

// FormatAll renders days as sorted, de-duplicated YYYY-MM-DD strings.
func FormatAll(days []time.Time) []string {
	seen := make(map[string]struct{}, len(days))
	out := make([]string, 0, len(days))
	for _, d := range days {
		s := Format(d)
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Normalize truncates, de-duplicates and sorts the provided days.
func Normalize(days []time.Time) []time.Time {
	formatted := FormatAll(days)
	out := make([]time.Time, 0, len(formatted))
	for _, s := range formatted {
		t, _ := time.Parse(Layout, s)
		out = append(out, t)
	}
	return out
}

// First returns the earliest day, or the zero time when days is empty.
func First(days []time.Time) time.Time {
	var first time.Time
	for i, d := range days {
		if i == 0 || d.Before(first) {
			first = d
		}
	}
	return first
}

// WholeDaysUntil is floor((target - now) / 24h) and may be negative.
func WholeDaysUntil(target, now time.Time) int {
	return int(math.Floor(target.Sub(now).Hours() / 24))
}
