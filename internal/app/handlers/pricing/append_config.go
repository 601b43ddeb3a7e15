package pricing

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"vendorhub/internal/app/commands"
	"vendorhub/internal/app/dto"
	"vendorhub/internal/app/policies"
	domainbooking "vendorhub/internal/domain/booking"
	"vendorhub/internal/domain/catalog"
	domainpricing "vendorhub/internal/domain/pricing"
)

const appendConfigKey = "pricing.append_config"

var ErrPricingUnavailable = errors.New("pricing: config repository unavailable")

type AppendPricingConfigCommand struct {
	Category            string
	ServiceID           string
	PeakDays            []string
	PeakMonths          []string
	SpecialDates        []string
	HighDemandLocations []string
	ActorID             string
	ActorRoleV          string
}

func (c AppendPricingConfigCommand) Key() string { return appendConfigKey }

func (c AppendPricingConfigCommand) ActorRole() string { return c.ActorRoleV }

func (c AppendPricingConfigCommand) AllowedRoles() []string {
	return []string{string(domainbooking.RoleVendor), string(domainbooking.RoleAdmin)}
}

func (c AppendPricingConfigCommand) Validate() error {
	cfg := domainpricing.Config{
		ServiceID:    c.ServiceID,
		PeakDays:     c.PeakDays,
		PeakMonths:   c.PeakMonths,
		SpecialDates: c.SpecialDates,
	}
	if err := cfg.Validate(); err != nil {
		return domainbooking.Invalid("pricing_config", err.Error())
	}
	return nil
}

type AppendPricingConfigHandler struct {
	Services *policies.ServiceRegistry
	Configs  domainpricing.ConfigRepository
	Logger   *slog.Logger
	Now      func() time.Time
}

func (h *AppendPricingConfigHandler) Handle(ctx context.Context, cmd AppendPricingConfigCommand) (*dto.PricingConfigView, error) {
	if h.Configs == nil {
		return nil, ErrPricingUnavailable
	}
	ref, err := catalog.NewRef(cmd.Category, cmd.ServiceID)
	if err != nil {
		return nil, err
	}
	svc, err := h.Services.Find(ctx, ref)
	if err != nil {
		return nil, err
	}
	if domainbooking.Role(cmd.ActorRoleV) != domainbooking.RoleAdmin && svc.VendorID != cmd.ActorID {
		return nil, domainbooking.ErrNotOwned
	}

	cfg := domainpricing.Config{
		ID:                  uuid.NewString(),
		ServiceID:           ref.ID,
		Category:            ref.Category,
		PeakDays:            cmd.PeakDays,
		PeakMonths:          cmd.PeakMonths,
		SpecialDates:        cmd.SpecialDates,
		HighDemandLocations: cmd.HighDemandLocations,
		EditedBy:            cmd.ActorID,
		CreatedAt:           h.now(),
	}
	if err := h.Configs.Append(ctx, cfg); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("pricing config appended", "service", ref.String(), "version", cfg.ID, "actor", cmd.ActorID)
	}
	view := ConfigView(cfg)
	return &view, nil
}

func (h *AppendPricingConfigHandler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

func ConfigView(cfg domainpricing.Config) dto.PricingConfigView {
	return dto.PricingConfigView{
		ID:                  cfg.ID,
		ServiceID:           cfg.ServiceID,
		Category:            cfg.Category,
		PeakDays:            cfg.PeakDays,
		PeakMonths:          cfg.PeakMonths,
		SpecialDates:        cfg.SpecialDates,
		HighDemandLocations: cfg.HighDemandLocations,
		EditedBy:            cfg.EditedBy,
		CreatedAt:           cfg.CreatedAt,
	}
}

var _ commands.Handler[AppendPricingConfigCommand, *dto.PricingConfigView] = (*AppendPricingConfigHandler)(nil)
