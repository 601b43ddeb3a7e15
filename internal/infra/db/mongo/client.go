package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	bookingsCollection     = "bookings"
	transactionsCollection = "transactions"
	schedulesCollection    = "scheduled_captures"
	pricingCollection      = "service_pricing_configs"
	idempotencyCollection  = "app_idempotency"
)

type Client struct {
	DB *mongo.Database
}

func New(uri, database string) (*Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	opts := options.Client().ApplyURI(uri).SetRetryWrites(true)
	m, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &Client{DB: m.Database(database)}, nil
}

func (c *Client) Ping(ctx context.Context) error {
	return c.DB.Client().Ping(ctx, nil)
}

func (c *Client) Close(ctx context.Context) error {
	return c.DB.Client().Disconnect(ctx)
}

// EnsureIndexes creates the lookup and uniqueness indexes the repositories rely on.
func (c *Client) EnsureIndexes(ctx context.Context) error {
	specs := map[string][]mongo.IndexModel{
		bookingsCollection: {
			{Keys: bson.D{{Key: "order_ref", Value: 1}}, Options: options.Index().SetSparse(true)},
			{Keys: bson.D{{Key: "customer_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "vendor_id", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		transactionsCollection: {
			{Keys: bson.D{{Key: "booking_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		schedulesCollection: {
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "due_at", Value: 1}}},
			{
				Keys: bson.D{{Key: "booking_id", Value: 1}},
				Options: options.Index().
					SetUnique(true).
					SetName("one_pending_per_booking").
					SetPartialFilterExpression(bson.M{"status": "pending"}),
			},
		},
		pricingCollection: {
			{Keys: bson.D{{Key: "service_id", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		idempotencyCollection: {
			{Keys: bson.D{{Key: "expires_at", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0)},
		},
	}
	for name, models := range specs {
		if _, err := c.DB.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return err
		}
	}
	return nil
}
