package ginserver

import (
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"vendorhub/internal/app/commands"
	"vendorhub/internal/app/dto"
	pricingapp "vendorhub/internal/app/handlers/pricing"
	"vendorhub/internal/app/queries"
	domainbooking "vendorhub/internal/domain/booking"
)

type ServiceHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

// Quote accepts ?date=2026-12-01 repeated or comma separated.
func (h ServiceHandler) Quote(c *gin.Context) {
	var raw []string
	for _, v := range c.QueryArray("date") {
		raw = append(raw, splitCSV(v)...)
	}
	dates, err := parseDates(raw)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	q := pricingapp.QuotePriceQuery{Category: c.Param("category"), ServiceID: c.Param("id"), Dates: dates}
	result, err := queries.Ask[pricingapp.QuotePriceQuery, *dto.QuoteView](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type pricingConfigRequest struct {
	PeakDays            []string `json:"peak_days"`
	PeakMonths          []string `json:"peak_months"`
	SpecialDates        []string `json:"special_dates"`
	HighDemandLocations []string `json:"high_demand_locations"`
}

func (h ServiceHandler) AppendPricingConfig(c *gin.Context) {
	user, ok := requireRole(c, domainbooking.RoleVendor, domainbooking.RoleAdmin)
	if !ok {
		return
	}
	var req pricingConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cmd := pricingapp.AppendPricingConfigCommand{
		Category:            c.Param("category"),
		ServiceID:           c.Param("id"),
		PeakDays:            req.PeakDays,
		PeakMonths:          req.PeakMonths,
		SpecialDates:        req.SpecialDates,
		HighDemandLocations: req.HighDemandLocations,
		ActorID:             user.ID,
		ActorRoleV:          string(user.Role),
	}
	result, err := commands.Dispatch[pricingapp.AppendPricingConfigCommand, *dto.PricingConfigView](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func splitCSV(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}
