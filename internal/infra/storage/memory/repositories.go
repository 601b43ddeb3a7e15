package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	domainbooking "vendorhub/internal/domain/booking"
)

// BookingRepository keeps bookings in memory. Stored values are copies so callers never share
// state with the store.
type BookingRepository struct {
	mu    sync.RWMutex
	items map[domainbooking.BookingID]*domainbooking.Booking
}

func NewBookingRepository() *BookingRepository {
	return &BookingRepository{items: make(map[domainbooking.BookingID]*domainbooking.Booking)}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.items[id]
	if !ok {
		return nil, domainbooking.ErrBookingNotFound
	}
	return b.Clone(), nil
}

func (r *BookingRepository) ByOrderRef(ctx context.Context, orderRef string) (*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, b := range r.items {
		if b.OrderRef != "" && b.OrderRef == orderRef {
			return b.Clone(), nil
		}
	}
	return nil, domainbooking.ErrBookingNotFound
}

// Save inserts when Version is zero and otherwise updates only if the stored version matches.
func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, exists := r.items[b.ID]
	if err := checkVersion(exists, b.Version, func() int64 { return current.Version }); err != nil {
		return err
	}
	b.Version++
	r.items[b.ID] = b.Clone()
	return nil
}

type TransactionRepository struct {
	mu    sync.RWMutex
	items map[domainbooking.BookingID]*domainbooking.Transaction
}

func NewTransactionRepository() *TransactionRepository {
	return &TransactionRepository{items: make(map[domainbooking.BookingID]*domainbooking.Transaction)}
}

func (r *TransactionRepository) ByBookingID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tx, ok := r.items[id]
	if !ok {
		return nil, domainbooking.ErrBookingNotFound
	}
	return tx.Clone(), nil
}

func (r *TransactionRepository) Save(ctx context.Context, tx *domainbooking.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, exists := r.items[tx.BookingID]
	if err := checkVersion(exists, tx.Version, func() int64 { return current.Version }); err != nil {
		return err
	}
	tx.Version++
	r.items[tx.BookingID] = tx.Clone()
	return nil
}

type ScheduleRepository struct {
	mu    sync.RWMutex
	items map[string]*domainbooking.ScheduledCapture
}

func NewScheduleRepository() *ScheduleRepository {
	return &ScheduleRepository{items: make(map[string]*domainbooking.ScheduledCapture)}
}

func (r *ScheduleRepository) ByID(ctx context.Context, id string) (*domainbooking.ScheduledCapture, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.items[id]
	if !ok {
		return nil, domainbooking.ErrScheduleNotFound
	}
	return s.Clone(), nil
}

func (r *ScheduleRepository) PendingByBooking(ctx context.Context, id domainbooking.BookingID) (*domainbooking.ScheduledCapture, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.items {
		if s.BookingID == id && s.Status == domainbooking.SchedulePending {
			return s.Clone(), nil
		}
	}
	return nil, nil
}

// Due returns pending schedules due at now, oldest due date first.
func (r *ScheduleRepository) Due(ctx context.Context, now time.Time, limit int) ([]*domainbooking.ScheduledCapture, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domainbooking.ScheduledCapture
	for _, s := range r.items {
		if s.IsDue(now) {
			out = append(out, s.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DueAt.Equal(out[j].DueAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].DueAt.Before(out[j].DueAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *ScheduleRepository) Save(ctx context.Context, s *domainbooking.ScheduledCapture) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, exists := r.items[s.ID]
	if err := checkVersion(exists, s.Version, func() int64 { return current.Version }); err != nil {
		return err
	}
	if s.Status == domainbooking.SchedulePending {
		for id, other := range r.items {
			if id != s.ID && other.BookingID == s.BookingID && other.Status == domainbooking.SchedulePending {
				return domainbooking.ErrStateConflict
			}
		}
	}
	s.Version++
	r.items[s.ID] = s.Clone()
	return nil
}

func checkVersion(exists bool, version int64, stored func() int64) error {
	if version == 0 {
		if exists {
			return domainbooking.ErrStateConflict
		}
		return nil
	}
	if !exists || stored() != version {
		return domainbooking.ErrStateConflict
	}
	return nil
}

var (
	_ domainbooking.Repository            = (*BookingRepository)(nil)
	_ domainbooking.TransactionRepository = (*TransactionRepository)(nil)
	_ domainbooking.ScheduleRepository    = (*ScheduleRepository)(nil)
)
