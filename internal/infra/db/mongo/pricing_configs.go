package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainpricing "vendorhub/internal/domain/pricing"
)

// PricingConfigRepository stores append-only config versions.
type PricingConfigRepository struct {
	col *mongo.Collection
}

func NewPricingConfigRepository(db *mongo.Database) *PricingConfigRepository {
	return &PricingConfigRepository{col: db.Collection(pricingCollection)}
}

func (r *PricingConfigRepository) Latest(ctx context.Context, serviceID string) (*domainpricing.Config, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	var doc pricingConfigDocument
	if err := r.col.FindOne(ctx, bson.M{"service_id": serviceID}, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	cfg := doc.toConfig()
	return &cfg, nil
}

func (r *PricingConfigRepository) Append(ctx context.Context, cfg domainpricing.Config) error {
	_, err := r.col.InsertOne(ctx, pricingConfigDocument{
		ID:                  cfg.ID,
		ServiceID:           cfg.ServiceID,
		Category:            cfg.Category,
		PeakDays:            cfg.PeakDays,
		PeakMonths:          cfg.PeakMonths,
		SpecialDates:        cfg.SpecialDates,
		HighDemandLocations: cfg.HighDemandLocations,
		EditedBy:            cfg.EditedBy,
		CreatedAt:           cfg.CreatedAt,
	})
	return err
}

type pricingConfigDocument struct {
	ID                  string    `bson:"_id"`
	ServiceID           string    `bson:"service_id"`
	Category            string    `bson:"category"`
	PeakDays            []string  `bson:"peak_days"`
	PeakMonths          []string  `bson:"peak_months"`
	SpecialDates        []string  `bson:"special_dates"`
	HighDemandLocations []string  `bson:"high_demand_locations"`
	EditedBy            string    `bson:"edited_by"`
	CreatedAt           time.Time `bson:"created_at"`
}

func (d pricingConfigDocument) toConfig() domainpricing.Config {
	return domainpricing.Config{
		ID:                  d.ID,
		ServiceID:           d.ServiceID,
		Category:            d.Category,
		PeakDays:            d.PeakDays,
		PeakMonths:          d.PeakMonths,
		SpecialDates:        d.SpecialDates,
		HighDemandLocations: d.HighDemandLocations,
		EditedBy:            d.EditedBy,
		CreatedAt:           d.CreatedAt.UTC(),
	}
}

var _ domainpricing.ConfigRepository = (*PricingConfigRepository)(nil)
