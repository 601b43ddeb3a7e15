package booking

import (
	"strings"
	"time"

	"vendorhub/internal/domain/shared/daterange"
	"vendorhub/internal/domain/shared/money"
)

type PolicyTier string

const (
	PolicyFlexible PolicyTier = "flexible"
	PolicyModerate PolicyTier = "moderate"
	PolicyStrict   PolicyTier = "strict"
)

// refundRule grants Percent when at least MinDays whole days remain before the service.
type refundRule struct {
	MinDays int
	Percent int
}

// Rules are ordered by MinDays descending; the first match wins.
var refundRules = map[PolicyTier][]refundRule{
	PolicyFlexible: {{7, 100}, {3, 100}, {0, 50}},
	PolicyModerate: {{7, 100}, {3, 50}, {0, 0}},
	PolicyStrict:   {{7, 50}, {0, 0}},
}

// ParsePolicyTier falls back to moderate for unknown or empty tiers.
func ParsePolicyTier(raw string) PolicyTier {
	tier := PolicyTier(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := refundRules[tier]; ok {
		return tier
	}
	return PolicyModerate
}

func (t PolicyTier) RefundPercent(daysBefore int) int {
	for _, rule := range refundRules[ParsePolicyTier(string(t))] {
		if daysBefore >= rule.MinDays {
			return rule.Percent
		}
	}
	return 0
}

// RefundQuote is the outcome of applying a tier to a booking at a point in time.
type RefundQuote struct {
	Tier       PolicyTier
	DaysBefore int
	Percent    int
	Amount     money.Money
}

// QuoteRefund applies tier to total using whole days between now and the first service date.
func QuoteRefund(total money.Money, tier PolicyTier, firstServiceDate, now time.Time) RefundQuote {
	tier = ParsePolicyTier(string(tier))
	days := daterange.WholeDaysUntil(firstServiceDate, now)
	pct := tier.RefundPercent(days)
	return RefundQuote{Tier: tier, DaysBefore: days, Percent: pct, Amount: total.Percent(pct)}
}
