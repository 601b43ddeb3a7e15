package catalog

import (
	"errors"
	"strings"

	"vendorhub/internal/domain/availability"
)

var (
	ErrServiceNotFound  = errors.New("catalog: service not found")
	ErrUnknownCategory  = errors.New("catalog: unknown service category")
	ErrInvalidReference = errors.New("catalog: service reference requires category and id")
)

// Ref points at a service document in one of the per-category stores.
type Ref struct {
	Category string `json:"category"`
	ID       string `json:"id"`
}

// NewRef normalizes the category tag.
func NewRef(category, id string) (Ref, error) {
	ref := Ref{Category: NormalizeCategory(category), ID: strings.TrimSpace(id)}
	if ref.Category == "" || ref.ID == "" {
		return Ref{}, ErrInvalidReference
	}
	return ref, nil
}

func NormalizeCategory(category string) string {
	return strings.ToLower(strings.TrimSpace(category))
}

func (r Ref) String() string {
	return r.Category + "/" + r.ID
}

type PricingType string

const (
	PricingPerHour  PricingType = "perHour"
	PricingPerDay   PricingType = "perDay"
	PricingPerEvent PricingType = "perEvent"
	PricingPackage  PricingType = "package"
)

// Service is the read model of a vendor service document.
type Service struct {
	Ref                Ref
	VendorID           string
	Name               string
	Location           string
	MinPrice           int64
	MaxPrice           int64
	Rating             float64
	DemandTrendPercent float64
	CancellationPolicy string
	PricingType        PricingType
	Dates              availability.Dates
}
