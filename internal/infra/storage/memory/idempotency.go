package memory

import (
	"context"
	"time"

	"vendorhub/internal/app/middleware"
)

// IdempotencyStore keeps command results in an expiring map.
type IdempotencyStore struct {
	records *Expiring[string, middleware.IdempotencyRecord]
	now     func() time.Time
}

func NewIdempotencyStore(now func() time.Time) *IdempotencyStore {
	if now == nil {
		now = time.Now
	}
	return &IdempotencyStore{records: NewExpiring[string, middleware.IdempotencyRecord](now), now: now}
}

func (s *IdempotencyStore) Get(ctx context.Context, key string) (middleware.IdempotencyRecord, bool, error) {
	rec, ok := s.records.Get(key)
	return rec, ok, nil
}

func (s *IdempotencyStore) Save(ctx context.Context, rec middleware.IdempotencyRecord) error {
	ttl := rec.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	s.records.Set(rec.Key, rec, ttl)
	return nil
}

// Janitor evicts expired records until ctx is done.
func (s *IdempotencyStore) Janitor(ctx context.Context, every time.Duration) {
	s.records.Run(ctx, every)
}

var _ middleware.IdempotencyStore = (*IdempotencyStore)(nil)
