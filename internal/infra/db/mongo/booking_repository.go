package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "vendorhub/internal/domain/booking"
	"vendorhub/internal/domain/catalog"
	domainpricing "vendorhub/internal/domain/pricing"
	"vendorhub/internal/domain/shared/money"
)

type BookingRepository struct {
	col *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	return &BookingRepository{col: db.Collection(bookingsCollection)}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	return r.findOne(ctx, bson.M{"_id": string(id)})
}

func (r *BookingRepository) ByOrderRef(ctx context.Context, orderRef string) (*domainbooking.Booking, error) {
	if orderRef == "" {
		return nil, domainbooking.ErrBookingNotFound
	}
	return r.findOne(ctx, bson.M{"order_ref": orderRef})
}

func (r *BookingRepository) findOne(ctx context.Context, filter bson.M) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainbooking.ErrBookingNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

// Save upserts on (_id, version); a stale version collides with the stored _id and surfaces
// as a state conflict.
func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	doc := newBookingDocument(b)
	filter := bson.M{"_id": doc.ID, "version": b.Version}
	doc.Version = b.Version + 1
	if err := versionedUpsert(ctx, r.col, filter, doc); err != nil {
		return err
	}
	b.Version = doc.Version
	return nil
}

func versionedUpsert(ctx context.Context, col *mongo.Collection, filter bson.M, doc any) error {
	res, err := col.UpdateOne(ctx, filter, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: stale version", domainbooking.ErrStateConflict)
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return fmt.Errorf("%w: stale version", domainbooking.ErrStateConflict)
	}
	return nil
}

type bookingDocument struct {
	ID           string                      `bson:"_id"`
	CustomerID   string                      `bson:"customer_id"`
	VendorID     string                      `bson:"vendor_id"`
	Category     string                      `bson:"category"`
	ServiceID    string                      `bson:"service_id"`
	ServiceName  string                      `bson:"service_name"`
	Package      packageDocument             `bson:"package"`
	Amount       money.Money                 `bson:"amount"`
	Price        domainpricing.Breakdown     `bson:"price"`
	Preference   string                      `bson:"payment_preference"`
	Status       string                      `bson:"status"`
	OrderRef     string                      `bson:"order_ref,omitempty"`
	PaymentRef   string                      `bson:"payment_ref,omitempty"`
	Rejection    *domainbooking.Rejection    `bson:"rejection,omitempty"`
	Cancellation *domainbooking.Cancellation `bson:"cancellation,omitempty"`
	LeaseOp      string                      `bson:"lease_op,omitempty"`
	LeaseExpires time.Time                   `bson:"lease_expires,omitempty"`
	CreatedAt    time.Time                   `bson:"created_at"`
	UpdatedAt    time.Time                   `bson:"updated_at"`
	Version      int64                       `bson:"version"`
}

type packageDocument struct {
	Title             string      `bson:"title"`
	Description       string      `bson:"description"`
	UnitPrice         money.Money `bson:"unit_price"`
	Dates             []time.Time `bson:"dates"`
	AdditionalRequest string      `bson:"additional_request,omitempty"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	return bookingDocument{
		ID:          string(b.ID),
		CustomerID:  b.CustomerID,
		VendorID:    b.VendorID,
		Category:    b.Service.Category,
		ServiceID:   b.Service.ID,
		ServiceName: b.ServiceName,
		Package: packageDocument{
			Title:             b.Package.Title,
			Description:       b.Package.Description,
			UnitPrice:         b.Package.UnitPrice,
			Dates:             b.Package.Dates,
			AdditionalRequest: b.Package.AdditionalRequest,
		},
		Amount:       b.Amount,
		Price:        b.Price,
		Preference:   string(b.Preference),
		Status:       string(b.Status),
		OrderRef:     b.OrderRef,
		PaymentRef:   b.PaymentRef,
		Rejection:    b.Rejection,
		Cancellation: b.Cancellation,
		LeaseOp:      b.Lease.Op,
		LeaseExpires: b.Lease.Expires,
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.UpdatedAt,
		Version:      b.Version,
	}
}

func (d bookingDocument) toAggregate() *domainbooking.Booking {
	return &domainbooking.Booking{
		ID:          domainbooking.BookingID(d.ID),
		CustomerID:  d.CustomerID,
		VendorID:    d.VendorID,
		Service:     catalog.Ref{Category: d.Category, ID: d.ServiceID},
		ServiceName: d.ServiceName,
		Package: domainbooking.Package{
			Title:             d.Package.Title,
			Description:       d.Package.Description,
			UnitPrice:         d.Package.UnitPrice,
			Dates:             utcAll(d.Package.Dates),
			AdditionalRequest: d.Package.AdditionalRequest,
		},
		Amount:       d.Amount,
		Price:        d.Price,
		Preference:   domainbooking.PaymentPreference(d.Preference),
		Status:       domainbooking.Status(d.Status),
		OrderRef:     d.OrderRef,
		PaymentRef:   d.PaymentRef,
		Rejection:    d.Rejection,
		Cancellation: d.Cancellation,
		Lease:        domainbooking.Lease{Op: d.LeaseOp, Expires: d.LeaseExpires.UTC()},
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
		Version:      d.Version,
	}
}

func utcAll(days []time.Time) []time.Time {
	out := make([]time.Time, len(days))
	for i, d := range days {
		out[i] = d.UTC()
	}
	return out
}

var _ domainbooking.Repository = (*BookingRepository)(nil)
