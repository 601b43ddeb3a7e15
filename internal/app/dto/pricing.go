package dto

import "time"

type QuoteView struct {
	Category      string         `json:"category"`
	ServiceID     string         `json:"service_id"`
	ServiceName   string         `json:"service_name"`
	EventDate     string         `json:"event_date"`
	DaysBefore    int            `json:"days_before"`
	ConfigVersion string         `json:"config_version,omitempty"`
	UnitPrice     MoneyDTO       `json:"unit_price"`
	Checkout      PriceBreakdown `json:"checkout"`
}

type PricingConfigView struct {
	ID                  string    `json:"id"`
	ServiceID           string    `json:"service_id"`
	Category            string    `json:"category"`
	PeakDays            []string  `json:"peak_days"`
	PeakMonths          []string  `json:"peak_months"`
	SpecialDates        []string  `json:"special_dates"`
	HighDemandLocations []string  `json:"high_demand_locations"`
	EditedBy            string    `json:"edited_by"`
	CreatedAt           time.Time `json:"created_at"`
}
