package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "vendorhub/internal/domain/booking"
	"vendorhub/internal/domain/shared/money"
)

// ScheduleRepository relies on the one_pending_per_booking partial index to refuse a second
// pending schedule.
type ScheduleRepository struct {
	col *mongo.Collection
}

func NewScheduleRepository(db *mongo.Database) *ScheduleRepository {
	return &ScheduleRepository{col: db.Collection(schedulesCollection)}
}

func (r *ScheduleRepository) ByID(ctx context.Context, id string) (*domainbooking.ScheduledCapture, error) {
	sc, err := r.findOne(ctx, bson.M{"_id": id})
	if err != nil {
		return nil, err
	}
	if sc == nil {
		return nil, domainbooking.ErrScheduleNotFound
	}
	return sc, nil
}

func (r *ScheduleRepository) PendingByBooking(ctx context.Context, id domainbooking.BookingID) (*domainbooking.ScheduledCapture, error) {
	return r.findOne(ctx, bson.M{"booking_id": string(id), "status": string(domainbooking.SchedulePending)})
}

func (r *ScheduleRepository) findOne(ctx context.Context, filter bson.M) (*domainbooking.ScheduledCapture, error) {
	var doc scheduleDocument
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *ScheduleRepository) Due(ctx context.Context, now time.Time, limit int) ([]*domainbooking.ScheduledCapture, error) {
	filter := bson.M{
		"status": string(domainbooking.SchedulePending),
		"due_at": bson.M{"$lte": now.UTC()},
	}
	opts := options.Find().SetSort(bson.D{{Key: "due_at", Value: 1}, {Key: "_id", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []*domainbooking.ScheduledCapture
	for cur.Next(ctx) {
		var doc scheduleDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toAggregate())
	}
	return out, cur.Err()
}

func (r *ScheduleRepository) Save(ctx context.Context, s *domainbooking.ScheduledCapture) error {
	doc := newScheduleDocument(s)
	filter := bson.M{"_id": doc.ID, "version": s.Version}
	doc.Version = s.Version + 1
	if err := versionedUpsert(ctx, r.col, filter, doc); err != nil {
		return err
	}
	s.Version = doc.Version
	return nil
}

type scheduleDocument struct {
	ID          string      `bson:"_id"`
	BookingID   string      `bson:"booking_id"`
	CustomerID  string      `bson:"customer_id"`
	VendorID    string      `bson:"vendor_id"`
	PaymentRef  string      `bson:"payment_ref"`
	Amount      money.Money `bson:"amount"`
	DueAt       time.Time   `bson:"due_at"`
	Status      string      `bson:"status"`
	LastError   string      `bson:"last_error,omitempty"`
	AttemptedAt time.Time   `bson:"attempted_at,omitempty"`
	CreatedAt   time.Time   `bson:"created_at"`
	UpdatedAt   time.Time   `bson:"updated_at"`
	Version     int64       `bson:"version"`
}

func newScheduleDocument(s *domainbooking.ScheduledCapture) scheduleDocument {
	return scheduleDocument{
		ID:          s.ID,
		BookingID:   string(s.BookingID),
		CustomerID:  s.CustomerID,
		VendorID:    s.VendorID,
		PaymentRef:  s.PaymentRef,
		Amount:      s.Amount,
		DueAt:       s.DueAt,
		Status:      string(s.Status),
		LastError:   s.LastError,
		AttemptedAt: s.AttemptedAt,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
		Version:     s.Version,
	}
}

func (d scheduleDocument) toAggregate() *domainbooking.ScheduledCapture {
	return &domainbooking.ScheduledCapture{
		ID:          d.ID,
		BookingID:   domainbooking.BookingID(d.BookingID),
		CustomerID:  d.CustomerID,
		VendorID:    d.VendorID,
		PaymentRef:  d.PaymentRef,
		Amount:      d.Amount,
		DueAt:       d.DueAt.UTC(),
		Status:      domainbooking.ScheduleStatus(d.Status),
		LastError:   d.LastError,
		AttemptedAt: d.AttemptedAt.UTC(),
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
		Version:     d.Version,
	}
}

var _ domainbooking.ScheduleRepository = (*ScheduleRepository)(nil)
