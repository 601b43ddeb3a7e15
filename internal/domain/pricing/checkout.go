package pricing

import (
	"errors"
	"strings"

	"vendorhub/internal/domain/catalog"
	"vendorhub/internal/domain/shared/money"
)

var ErrUnknownPricingType = errors.New("pricing: unknown pricing type")

const platformCommissionBP = 1000

var guestFeeByCategory = []struct {
	keywords []string
	bp       int64
}{
	{[]string{"photo", "video"}, 300},
	{[]string{"hall", "venue"}, 700},
	{[]string{"catering", "decoration", "makeup", "dj", "mehndi", "music"}, 500},
}

const defaultGuestFeeBP = 400

// Breakdown is the checkout split of a quote. Total is what the customer pays;
// VendorReceives is the base less platform commission.
type Breakdown struct {
	PricingType    catalog.PricingType `json:"pricing_type"`
	UnitPrice      money.Money         `json:"unit_price"`
	Units          int64               `json:"units"`
	Base           money.Money         `json:"base"`
	GuestFee       money.Money         `json:"guest_fee"`
	PlatformFee    money.Money         `json:"platform_fee"`
	VendorReceives money.Money         `json:"vendor_receives"`
	Total          money.Money         `json:"total"`
}

// Checkout multiplies the unit price by the units implied by the pricing type and adds the
// category guest fee. An empty pricing type is charged per reserved day.
func Checkout(unit money.Money, pricingType catalog.PricingType, days int, category string) (Breakdown, error) {
	if days <= 0 {
		return Breakdown{}, errors.New("pricing: at least one day is required")
	}
	var units int64
	switch pricingType {
	case catalog.PricingPerHour:
		units = int64(days) * 24
	case catalog.PricingPerDay, "":
		pricingType = catalog.PricingPerDay
		units = int64(days)
	case catalog.PricingPerEvent, catalog.PricingPackage:
		units = 1
	default:
		return Breakdown{}, ErrUnknownPricingType
	}

	base := unit.Multiply(units)
	guestFee := base.BasisPoints(GuestFeeBasisPoints(category))
	platformFee := base.BasisPoints(platformCommissionBP)
	vendor, err := base.Sub(platformFee)
	if err != nil {
		return Breakdown{}, err
	}
	total, err := base.Add(guestFee)
	if err != nil {
		return Breakdown{}, err
	}
	return Breakdown{
		PricingType:    pricingType,
		UnitPrice:      unit,
		Units:          units,
		Base:           base,
		GuestFee:       guestFee,
		PlatformFee:    platformFee,
		VendorReceives: vendor,
		Total:          total,
	}, nil
}

// GuestFeeBasisPoints returns the guest service fee rate for a category.
func GuestFeeBasisPoints(category string) int64 {
	category = strings.ToLower(category)
	for _, rule := range guestFeeByCategory {
		for _, kw := range rule.keywords {
			if strings.Contains(category, kw) {
				return rule.bp
			}
		}
	}
	return defaultGuestFeeBP
}
