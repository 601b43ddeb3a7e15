package memory

import (
	"context"
	"errors"

	"vendorhub/internal/app/uow"
	domainbooking "vendorhub/internal/domain/booking"
)

// Factory wires in-memory repositories into a unit-of-work boundary.
type Factory struct {
	Bookings     domainbooking.Repository
	Transactions domainbooking.TransactionRepository
	Schedules    domainbooking.ScheduleRepository
}

var ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")

// Begin starts a lightweight boundary. Writes apply immediately and Rollback undoes nothing;
// each repository save is individually version-checked. Use the mongo factory where the
// booking, transaction and outbox rows must commit together.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.Bookings == nil || f.Transactions == nil || f.Schedules == nil {
		return nil, ErrFactoryMisconfigured
	}
	return &Unit{bookings: f.Bookings, transactions: f.Transactions, schedules: f.Schedules}, nil
}

type Unit struct {
	bookings     domainbooking.Repository
	transactions domainbooking.TransactionRepository
	schedules    domainbooking.ScheduleRepository
}

func (u *Unit) Bookings() domainbooking.Repository {
	return u.bookings
}

func (u *Unit) Transactions() domainbooking.TransactionRepository {
	return u.transactions
}

func (u *Unit) Schedules() domainbooking.ScheduleRepository {
	return u.schedules
}

func (u *Unit) Commit(ctx context.Context) error {
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	return nil
}

var _ uow.UoWFactory = Factory{}
