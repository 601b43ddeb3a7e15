package pricing

import (
	"context"
	"errors"
	"strings"
	"time"

	"vendorhub/internal/domain/shared/daterange"
)

var ErrInvalidConfig = errors.New("pricing: invalid pricing config")

// Config is one version of a service's pricing configuration. Versions are append-only and the
// most recently created one wins.
type Config struct {
	ID                  string
	ServiceID           string
	Category            string
	PeakDays            []string
	PeakMonths          []string
	SpecialDates        []string
	HighDemandLocations []string
	EditedBy            string
	CreatedAt           time.Time
}

// Validate checks weekday and month names and special date layout.
func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceID) == "" {
		return errors.Join(ErrInvalidConfig, errors.New("service id is required"))
	}
	for _, d := range c.PeakDays {
		if !validWeekday(d) {
			return errors.Join(ErrInvalidConfig, errors.New("unknown weekday "+d))
		}
	}
	for _, m := range c.PeakMonths {
		if !validMonth(m) {
			return errors.Join(ErrInvalidConfig, errors.New("unknown month "+m))
		}
	}
	for _, s := range c.SpecialDates {
		if _, err := daterange.Parse(s); err != nil {
			return errors.Join(ErrInvalidConfig, errors.New("special date must be YYYY-MM-DD: "+s))
		}
	}
	return nil
}

type ConfigRepository interface {
	// Latest returns the newest config version, or nil when the service has none.
	Latest(ctx context.Context, serviceID string) (*Config, error)
	Append(ctx context.Context, cfg Config) error
}

func validWeekday(name string) bool {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(strings.TrimSpace(name), d.String()) {
			return true
		}
	}
	return false
}

func validMonth(name string) bool {
	for m := time.January; m <= time.December; m++ {
		if strings.EqualFold(strings.TrimSpace(name), m.String()) {
			return true
		}
	}
	return false
}
