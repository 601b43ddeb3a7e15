package money

import (
	"errors"
	"testing"
)

func TestPercentRoundsDown(t *testing.T) {
	m := Must(1999, "inr")
	if got := m.Percent(50); got.Amount != 999 || got.Currency != "INR" {
		t.Fatalf("expected 999 INR, got %v", got)
	}
	if got := m.Percent(0); got.Amount != 0 {
		t.Fatalf("expected zero for 0%%, got %d", got.Amount)
	}
	if got := m.Percent(120); got.Amount != 1999 {
		t.Fatalf("expected percent to cap at full amount, got %d", got.Amount)
	}
}

func TestBasisPointsRoundsHalfUp(t *testing.T) {
	// 4% of 1250 paise is 50; 7% of 150 paise is 10.5 -> 11.
	if got := Must(1250, "INR").BasisPoints(400); got.Amount != 50 {
		t.Fatalf("expected 50, got %d", got.Amount)
	}
	if got := Must(150, "INR").BasisPoints(700); got.Amount != 11 {
		t.Fatalf("expected 11, got %d", got.Amount)
	}
}

func TestAddRejectsCurrencyMismatch(t *testing.T) {
	_, err := Must(1, "INR").Add(Must(1, "USD"))
	if !errors.Is(err, ErrCurrencyMismatch) {
		t.Fatalf("expected currency mismatch, got %v", err)
	}
}

func TestFromMajorAndString(t *testing.T) {
	m := FromMajor(1500, "INR")
	if m.Amount != 150000 {
		t.Fatalf("expected 150000 minor units, got %d", m.Amount)
	}
	if m.String() != "1500.00 INR" {
		t.Fatalf("unexpected string %q", m.String())
	}
}
