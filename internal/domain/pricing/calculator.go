package pricing

import (
	"math"
	"strings"
	"time"

	"vendorhub/internal/domain/shared/daterange"
)

const (
	urgencyWindowDays  = 30
	highOccupancy      = 0.8
	lastMinuteDays     = 3
	topRating          = 4.5
	lowRating          = 3.5
	lateNightFromHour  = 22
	lateNightUntilHour = 6
	maxTrendAdjustment = 0.2
)

// Input carries the signals that drive a dynamic quote. Prices are whole major units.
type Input struct {
	MinPrice           int64
	MaxPrice           int64
	OccupancyRate      float64
	DayOfWeek          time.Weekday
	EventDate          time.Time
	DaysBeforeEvent    int
	VendorRating       float64
	Location           string
	BookingTime        time.Time
	DemandTrendPercent float64
}

// Calculate returns the dynamic price for in under cfg, always within [MinPrice, MaxPrice].
func Calculate(in Input, cfg Config) int64 {
	lo, hi := float64(in.MinPrice), float64(in.MaxPrice)
	if hi < lo {
		hi = lo
	}

	weight := clamp(1-float64(in.DaysBeforeEvent)/urgencyWindowDays, 0, 1)
	price := lo + (hi-lo)*weight

	if in.OccupancyRate > highOccupancy {
		price *= 1.2
	}
	if cfg.isPeak(in.DayOfWeek, in.EventDate) {
		price *= 1.15
	}
	switch {
	case in.DaysBeforeEvent < lastMinuteDays:
		price *= 1.25
	case in.DaysBeforeEvent > urgencyWindowDays:
		price *= 0.9
	}
	switch {
	case in.VendorRating > topRating:
		price *= 1.1
	case in.VendorRating < lowRating:
		price *= 0.9
	}
	if cfg.isHighDemand(in.Location) {
		price *= 1.1
	}
	if !in.BookingTime.IsZero() {
		hour := in.BookingTime.Hour()
		if hour >= lateNightFromHour || hour <= lateNightUntilHour {
			price *= 0.95
		}
	}
	price *= 1 + clamp(in.DemandTrendPercent/100, -maxTrendAdjustment, maxTrendAdjustment)

	return int64(math.Round(clamp(price, lo, hi)))
}

func (c Config) isPeak(day time.Weekday, eventDate time.Time) bool {
	for _, d := range c.PeakDays {
		if strings.EqualFold(strings.TrimSpace(d), day.String()) {
			return true
		}
	}
	if eventDate.IsZero() {
		return false
	}
	for _, m := range c.PeakMonths {
		if strings.EqualFold(strings.TrimSpace(m), eventDate.Month().String()) {
			return true
		}
	}
	day0 := daterange.Format(eventDate)
	for _, s := range c.SpecialDates {
		if strings.TrimSpace(s) == day0 {
			return true
		}
	}
	return false
}

func (c Config) isHighDemand(location string) bool {
	location = strings.ToLower(strings.TrimSpace(location))
	if location == "" {
		return false
	}
	for _, l := range c.HighDemandLocations {
		if strings.ToLower(strings.TrimSpace(l)) == location {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
