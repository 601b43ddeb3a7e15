package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	domainbooking "vendorhub/internal/domain/booking"
	"vendorhub/internal/domain/catalog"
	"vendorhub/internal/domain/shared/money"
)

type TransactionRepository struct {
	col *mongo.Collection
}

func NewTransactionRepository(db *mongo.Database) *TransactionRepository {
	return &TransactionRepository{col: db.Collection(transactionsCollection)}
}

func (r *TransactionRepository) ByBookingID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Transaction, error) {
	var doc transactionDocument
	if err := r.col.FindOne(ctx, bson.M{"booking_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainbooking.ErrBookingNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *TransactionRepository) Save(ctx context.Context, tx *domainbooking.Transaction) error {
	doc := newTransactionDocument(tx)
	filter := bson.M{"_id": doc.ID, "version": tx.Version}
	doc.Version = tx.Version + 1
	if err := versionedUpsert(ctx, r.col, filter, doc); err != nil {
		return err
	}
	tx.Version = doc.Version
	return nil
}

type transactionDocument struct {
	ID         string                      `bson:"_id"`
	BookingID  string                      `bson:"booking_id"`
	CustomerID string                      `bson:"customer_id"`
	VendorID   string                      `bson:"vendor_id"`
	Category   string                      `bson:"category"`
	ServiceID  string                      `bson:"service_id"`
	Provider   string                      `bson:"provider"`
	Amount     money.Money                 `bson:"amount"`
	Status     string                      `bson:"status"`
	Gateway    domainbooking.GatewayRecord `bson:"gateway"`
	CreatedAt  time.Time                   `bson:"created_at"`
	UpdatedAt  time.Time                   `bson:"updated_at"`
	Version    int64                       `bson:"version"`
}

func newTransactionDocument(tx *domainbooking.Transaction) transactionDocument {
	return transactionDocument{
		ID:         tx.ID,
		BookingID:  string(tx.BookingID),
		CustomerID: tx.CustomerID,
		VendorID:   tx.VendorID,
		Category:   tx.Service.Category,
		ServiceID:  tx.Service.ID,
		Provider:   tx.Provider,
		Amount:     tx.Amount,
		Status:     string(tx.Status),
		Gateway:    tx.Gateway,
		CreatedAt:  tx.CreatedAt,
		UpdatedAt:  tx.UpdatedAt,
		Version:    tx.Version,
	}
}

func (d transactionDocument) toAggregate() *domainbooking.Transaction {
	return &domainbooking.Transaction{
		ID:         d.ID,
		BookingID:  domainbooking.BookingID(d.BookingID),
		CustomerID: d.CustomerID,
		VendorID:   d.VendorID,
		Service:    catalog.Ref{Category: d.Category, ID: d.ServiceID},
		Provider:   d.Provider,
		Amount:     d.Amount,
		Status:     domainbooking.TxStatus(d.Status),
		Gateway:    d.Gateway,
		CreatedAt:  d.CreatedAt.UTC(),
		UpdatedAt:  d.UpdatedAt.UTC(),
		Version:    d.Version,
	}
}

var _ domainbooking.TransactionRepository = (*TransactionRepository)(nil)
