package quoting

import (
	"context"
	"time"

	"vendorhub/internal/app/policies"
	domainbooking "vendorhub/internal/domain/booking"
	"vendorhub/internal/domain/catalog"
	domainpricing "vendorhub/internal/domain/pricing"
	"vendorhub/internal/domain/shared/daterange"
	"vendorhub/internal/domain/shared/money"
)

// defaultRating stands in for vendors without reviews.
const defaultRating = 3.0

type Quote struct {
	Service       *catalog.Service
	UnitPrice     money.Money
	EventDate     time.Time
	DaysBefore    int
	ConfigVersion string
	Checkout      domainpricing.Breakdown
}

// Quoter prices a service for a set of reserved days.
type Quoter struct {
	Services *policies.ServiceRegistry
	Configs  domainpricing.ConfigRepository
	Currency string
	Now      func() time.Time
}

func (q *Quoter) Quote(ctx context.Context, ref catalog.Ref, days []time.Time, bookingTime time.Time) (Quote, error) {
	days = daterange.Normalize(days)
	if len(days) == 0 {
		return Quote{}, domainbooking.Invalid("dates", "at least one date is required")
	}
	svc, err := q.Services.Find(ctx, ref)
	if err != nil {
		return Quote{}, err
	}
	if svc.MaxPrice <= 0 && svc.MinPrice <= 0 {
		return Quote{}, domainbooking.Invalid("service", "has no price range")
	}

	var cfg domainpricing.Config
	version := ""
	if q.Configs != nil {
		latest, err := q.Configs.Latest(ctx, ref.ID)
		if err != nil {
			return Quote{}, err
		}
		if latest != nil {
			cfg = *latest
			version = latest.ID
		}
	}

	now := q.now()
	if bookingTime.IsZero() {
		bookingTime = now
	}
	event := daterange.First(days)
	daysBefore := daterange.WholeDaysUntil(event, now)
	if daysBefore < 0 {
		daysBefore = 0
	}
	rating := svc.Rating
	if rating <= 0 {
		rating = defaultRating
	}

	price := domainpricing.Calculate(domainpricing.Input{
		MinPrice:           svc.MinPrice,
		MaxPrice:           svc.MaxPrice,
		OccupancyRate:      svc.Dates.Occupancy(),
		DayOfWeek:          event.Weekday(),
		EventDate:          event,
		DaysBeforeEvent:    daysBefore,
		VendorRating:       rating,
		Location:           svc.Location,
		BookingTime:        bookingTime,
		DemandTrendPercent: svc.DemandTrendPercent,
	}, cfg)

	unit := money.FromMajor(price, q.currency())
	checkout, err := domainpricing.Checkout(unit, svc.PricingType, len(days), ref.Category)
	if err != nil {
		return Quote{}, domainbooking.Invalid("pricing_type", err.Error())
	}
	return Quote{
		Service:       svc,
		UnitPrice:     unit,
		EventDate:     event,
		DaysBefore:    daysBefore,
		ConfigVersion: version,
		Checkout:      checkout,
	}, nil
}

func (q *Quoter) now() time.Time {
	if q.Now != nil {
		return q.Now().UTC()
	}
	return time.Now().UTC()
}

func (q *Quoter) currency() string {
	if q.Currency != "" {
		return q.Currency
	}
	return "INR"
}
