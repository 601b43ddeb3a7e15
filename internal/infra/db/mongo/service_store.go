package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"vendorhub/internal/app/policies"
	"vendorhub/internal/domain/availability"
	"vendorhub/internal/domain/catalog"
)

// ServiceStore reads one category collection of vendor services. Collections are named after
// the category tag.
type ServiceStore struct {
	category string
	col      *mongo.Collection
}

func NewServiceStore(db *mongo.Database, category string) *ServiceStore {
	category = catalog.NormalizeCategory(category)
	return &ServiceStore{category: category, col: db.Collection(category)}
}

// RegisterCategories adds one store per category to the registry.
func RegisterCategories(db *mongo.Database, registry *policies.ServiceRegistry, categories []string) {
	for _, c := range categories {
		if catalog.NormalizeCategory(c) == "" {
			continue
		}
		registry.Register(c, NewServiceStore(db, c))
	}
}

func (s *ServiceStore) FindByID(ctx context.Context, id string) (*catalog.Service, error) {
	var doc serviceDocument
	if err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, catalog.ErrServiceNotFound
		}
		return nil, err
	}
	return doc.toService(s.category), nil
}

// UpdateDates only issues set operations so concurrent reserve and release calls commute.
func (s *ServiceStore) UpdateDates(ctx context.Context, id string, update policies.DateUpdate) error {
	if len(update.Book) > 0 {
		change := bson.M{
			"$addToSet": bson.M{"dates.booked": bson.M{"$each": update.Book}},
			"$pull": bson.M{
				"dates.waiting":   bson.M{"$in": update.Book},
				"dates.available": bson.M{"$in": update.Book},
			},
		}
		if err := s.apply(ctx, id, change); err != nil {
			return err
		}
	}
	if len(update.Release) > 0 {
		change := bson.M{"$pull": bson.M{"dates.booked": bson.M{"$in": update.Release}}}
		if err := s.apply(ctx, id, change); err != nil {
			return err
		}
	}
	return nil
}

func (s *ServiceStore) apply(ctx context.Context, id string, change bson.M) error {
	res, err := s.col.UpdateByID(ctx, id, change)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return catalog.ErrServiceNotFound
	}
	return nil
}

type serviceDocument struct {
	ID                 string        `bson:"_id"`
	VendorID           string        `bson:"vendor_id"`
	Name               string        `bson:"name"`
	Location           string        `bson:"location"`
	MinPrice           int64         `bson:"min_price"`
	MaxPrice           int64         `bson:"max_price"`
	Rating             float64       `bson:"rating"`
	DemandTrendPercent float64       `bson:"demand_trend_percent"`
	CancellationPolicy string        `bson:"cancellation_policy"`
	PricingType        string        `bson:"pricing_type"`
	Dates              datesDocument `bson:"dates"`
}

type datesDocument struct {
	Booked    []string `bson:"booked"`
	Waiting   []string `bson:"waiting"`
	Available []string `bson:"available"`
}

func (d serviceDocument) toService(category string) *catalog.Service {
	return &catalog.Service{
		Ref:                catalog.Ref{Category: category, ID: d.ID},
		VendorID:           d.VendorID,
		Name:               d.Name,
		Location:           d.Location,
		MinPrice:           d.MinPrice,
		MaxPrice:           d.MaxPrice,
		Rating:             d.Rating,
		DemandTrendPercent: d.DemandTrendPercent,
		CancellationPolicy: d.CancellationPolicy,
		PricingType:        catalog.PricingType(d.PricingType),
		Dates: availability.Dates{
			Booked:    d.Dates.Booked,
			Waiting:   d.Dates.Waiting,
			Available: d.Dates.Available,
		},
	}
}

var _ policies.ServiceStore = (*ServiceStore)(nil)
