package pricing

import (
	"context"
	"strings"
	"time"

	"vendorhub/internal/app/dto"
	"vendorhub/internal/app/queries"
	"vendorhub/internal/app/quoting"
	domainbooking "vendorhub/internal/domain/booking"
	"vendorhub/internal/domain/catalog"
	"vendorhub/internal/domain/shared/daterange"
)

const quotePriceKey = "pricing.quote"

// QuotePriceQuery is public; anyone browsing a service can ask for a price.
type QuotePriceQuery struct {
	Category  string
	ServiceID string
	Dates     []time.Time
}

func (q QuotePriceQuery) Key() string { return quotePriceKey }

type QuotePriceHandler struct {
	Quoter *quoting.Quoter
}

func (h *QuotePriceHandler) Handle(ctx context.Context, q QuotePriceQuery) (*dto.QuoteView, error) {
	if strings.TrimSpace(q.ServiceID) == "" {
		return nil, domainbooking.Invalid("service_id", "is required")
	}
	ref, err := catalog.NewRef(q.Category, q.ServiceID)
	if err != nil {
		return nil, err
	}
	quote, err := h.Quoter.Quote(ctx, ref, q.Dates, time.Time{})
	if err != nil {
		return nil, err
	}
	return &dto.QuoteView{
		Category:      ref.Category,
		ServiceID:     ref.ID,
		ServiceName:   quote.Service.Name,
		EventDate:     daterange.Format(quote.EventDate),
		DaysBefore:    quote.DaysBefore,
		ConfigVersion: quote.ConfigVersion,
		UnitPrice:     dto.Money(quote.UnitPrice),
		Checkout:      dto.Breakdown(quote.Checkout),
	}, nil
}

var _ queries.Handler[QuotePriceQuery, *dto.QuoteView] = (*QuotePriceHandler)(nil)
