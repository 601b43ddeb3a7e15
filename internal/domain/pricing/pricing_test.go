package pricing

import (
	"testing"
	"time"

	"vendorhub/internal/domain/catalog"
	"vendorhub/internal/domain/shared/money"
)

func TestCalculateStaysWithinBounds(t *testing.T) {
	cfg := Config{
		PeakDays:            []string{"Saturday", "Sunday"},
		PeakMonths:          []string{"December"},
		HighDemandLocations: []string{"Mumbai"},
	}
	base := time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)
	for days := -5; days <= 60; days += 5 {
		for _, occupancy := range []float64{0, 0.5, 0.95} {
			for _, rating := range []float64{0, 3, 4, 5} {
				for _, trend := range []float64{-80, 0, 15, 300} {
					for _, hour := range []int{3, 12, 23} {
						event := base.AddDate(0, 0, days)
						in := Input{
							MinPrice:           1000,
							MaxPrice:           5000,
							OccupancyRate:      occupancy,
							DayOfWeek:          event.Weekday(),
							EventDate:          event,
							DaysBeforeEvent:    days,
							VendorRating:       rating,
							Location:           " mumbai ",
							BookingTime:        time.Date(2026, 11, 1, hour, 0, 0, 0, time.UTC),
							DemandTrendPercent: trend,
						}
						got := Calculate(in, cfg)
						if got < 1000 || got > 5000 {
							t.Fatalf("price %d out of bounds for %+v", got, in)
						}
					}
				}
			}
		}
	}
}

func TestCalculateLastMinuteHitsMax(t *testing.T) {
	// One day out: weight 29/30, base ≈ 4866.67, urgency ×1.25 pushes past max.
	in := Input{
		MinPrice:        1000,
		MaxPrice:        5000,
		OccupancyRate:   0.5,
		DayOfWeek:       time.Wednesday,
		DaysBeforeEvent: 1,
		VendorRating:    4.0,
		BookingTime:     time.Date(2026, 3, 3, 14, 0, 0, 0, time.UTC),
	}
	if got := Calculate(in, Config{}); got != 5000 {
		t.Fatalf("expected clamp to 5000, got %d", got)
	}
}

func TestCalculateFarOutDiscount(t *testing.T) {
	in := Input{
		MinPrice:        1000,
		MaxPrice:        5000,
		DaysBeforeEvent: 45,
		VendorRating:    4.0,
		BookingTime:     time.Date(2026, 3, 3, 14, 0, 0, 0, time.UTC),
	}
	// Base is min (weight 0); ×0.9 for booking early is clamped back to min.
	if got := Calculate(in, Config{}); got != 1000 {
		t.Fatalf("expected 1000, got %d", got)
	}
}

func TestCalculateIsDeterministic(t *testing.T) {
	in := Input{MinPrice: 800, MaxPrice: 2400, DaysBeforeEvent: 12, VendorRating: 4.7, OccupancyRate: 0.85, DemandTrendPercent: 7}
	first := Calculate(in, Config{})
	for i := 0; i < 10; i++ {
		if got := Calculate(in, Config{}); got != first {
			t.Fatalf("expected %d on every call, got %d", first, got)
		}
	}
}

func TestCheckoutPerHourVenue(t *testing.T) {
	b, err := Checkout(money.FromMajor(100, "INR"), catalog.PricingPerHour, 2, "Venues")
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if b.Units != 48 || b.Base.Amount != 480000 {
		t.Fatalf("unexpected base %+v", b)
	}
	if b.GuestFee.Amount != 33600 {
		t.Fatalf("expected 7%% venue fee, got %d", b.GuestFee.Amount)
	}
	if b.Total.Amount != 513600 || b.VendorReceives.Amount != 432000 {
		t.Fatalf("unexpected totals %+v", b)
	}
}

func TestCheckoutDefaultsToPerDay(t *testing.T) {
	b, err := Checkout(money.FromMajor(2000, "INR"), "", 3, "florists")
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if b.PricingType != catalog.PricingPerDay || b.Base.Amount != 600000 || b.GuestFee.Amount != 24000 {
		t.Fatalf("unexpected breakdown %+v", b)
	}
	if _, err := Checkout(money.FromMajor(1, "INR"), "perWeek", 1, "x"); err != ErrUnknownPricingType {
		t.Fatalf("expected unknown pricing type, got %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	ok := Config{ServiceID: "svc", PeakDays: []string{"saturday"}, PeakMonths: []string{"December"}, SpecialDates: []string{"2026-12-31"}}
	if err := ok.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
	bad := Config{ServiceID: "svc", PeakDays: []string{"Caturday"}}
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected invalid weekday error")
	}
}

func TestPeakMonthFollowsEventDate(t *testing.T) {
	cfg := Config{PeakMonths: []string{"December"}, SpecialDates: []string{"2026-12-31"}}
	in := Input{
		MinPrice:        1000,
		MaxPrice:        100000,
		DayOfWeek:       time.Wednesday,
		EventDate:       time.Date(2026, 12, 16, 0, 0, 0, 0, time.UTC),
		DaysBeforeEvent: 20,
		VendorRating:    4.0,
		BookingTime:     time.Date(2026, 11, 26, 14, 0, 0, 0, time.UTC),
	}
	plain := Calculate(in, Config{})
	if got := Calculate(in, cfg); got <= plain {
		t.Fatalf("december event should be peak: got %d, plain %d", got, plain)
	}

	offSeason := in
	offSeason.EventDate = time.Date(2027, 3, 17, 0, 0, 0, 0, time.UTC)
	offSeason.BookingTime = time.Date(2026, 12, 31, 14, 0, 0, 0, time.UTC)
	if got, want := Calculate(offSeason, cfg), Calculate(offSeason, Config{}); got != want {
		t.Fatalf("booking in december must not make a march event peak: got %d, want %d", got, want)
	}
}
