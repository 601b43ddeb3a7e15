package inbox

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collection = "webhook_inbox"

// Store remembers processed gateway deliveries so redelivered webhooks are acknowledged
// without being applied twice. Records expire after the retention window.
type Store struct {
	col       *mongo.Collection
	consumer  string
	retention time.Duration
	now       func() time.Time
}

func NewStore(db *mongo.Database, consumer string, retention time.Duration) *Store {
	return &Store{col: db.Collection(collection), consumer: consumer, retention: retention, now: time.Now}
}

// EnsureIndexes creates the dedup key and the retention TTL.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "event_id", Value: 1}, {Key: "consumer", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "expires_at", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0)},
	})
	return err
}

func (s *Store) Seen(ctx context.Context, eventID string) (bool, error) {
	err := s.col.FindOne(ctx, bson.M{"event_id": eventID, "consumer": s.consumer}).Err()
	if err == nil {
		return true, nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	return false, err
}

// Record marks eventID processed. Recording twice is not an error.
func (s *Store) Record(ctx context.Context, eventID string) error {
	now := s.now().UTC()
	doc := bson.M{"event_id": eventID, "consumer": s.consumer, "received_at": now, "expires_at": now.Add(s.retention)}
	if _, err := s.col.InsertOne(ctx, doc); err != nil && !mongo.IsDuplicateKeyError(err) {
		return err
	}
	return nil
}
