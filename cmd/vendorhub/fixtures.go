package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"vendorhub/internal/app/policies"
	"vendorhub/internal/domain/availability"
	"vendorhub/internal/domain/catalog"
	"vendorhub/internal/infra/storage/memory"
)

type serviceFixture struct {
	ID                 string  `json:"id"`
	Category           string  `json:"category"`
	VendorID           string  `json:"vendor_id"`
	Name               string  `json:"name"`
	Location           string  `json:"location"`
	MinPrice           int64   `json:"min_price"`
	MaxPrice           int64   `json:"max_price"`
	Rating             float64 `json:"rating"`
	DemandTrendPercent float64 `json:"demand_trend_percent"`
	CancellationPolicy string  `json:"cancellation_policy"`
	PricingType        string  `json:"pricing_type"`
	Dates              struct {
		Booked    []string `json:"booked"`
		Waiting   []string `json:"waiting"`
		Available []string `json:"available"`
	} `json:"dates"`
}

// loadServiceFixtures seeds the in-memory catalog so the sandbox stack is usable out of the box.
func loadServiceFixtures(ctx context.Context, path string, registry *policies.ServiceRegistry, logger *slog.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("service fixtures file not found, skipping", "path", path)
			return nil
		}
		return fmt.Errorf("read fixtures: %w", err)
	}
	if len(data) == 0 {
		logger.Warn("service fixtures file empty", "path", path)
		return nil
	}

	var fixtures []serviceFixture
	if err := json.Unmarshal(data, &fixtures); err != nil {
		return fmt.Errorf("decode fixtures: %w", err)
	}

	for _, fx := range fixtures {
		ref, err := catalog.NewRef(fx.Category, fx.ID)
		if err != nil {
			logger.Error("fixture invalid", "service_id", fx.ID, "error", err)
			continue
		}
		resolved, err := registry.Resolve(ref.Category)
		if err != nil {
			logger.Error("fixture category not registered", "service", ref.String(), "error", err)
			continue
		}
		store, ok := resolved.(*memory.ServiceStore)
		if !ok {
			return fmt.Errorf("fixtures: category %s is not an in-memory store", ref.Category)
		}
		store.Put(catalog.Service{
			Ref:                ref,
			VendorID:           fx.VendorID,
			Name:               fx.Name,
			Location:           fx.Location,
			MinPrice:           fx.MinPrice,
			MaxPrice:           fx.MaxPrice,
			Rating:             fx.Rating,
			DemandTrendPercent: fx.DemandTrendPercent,
			CancellationPolicy: fx.CancellationPolicy,
			PricingType:        catalog.PricingType(fx.PricingType),
			Dates: availability.Dates{
				Booked:    append([]string(nil), fx.Dates.Booked...),
				Waiting:   append([]string(nil), fx.Dates.Waiting...),
				Available: append([]string(nil), fx.Dates.Available...),
			},
		})
		logger.DebugContext(ctx, "service fixture imported", "service", ref.String())
	}
	logger.Info("service fixtures loaded", "count", len(fixtures), "path", path)
	return nil
}
