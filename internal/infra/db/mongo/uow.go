package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"vendorhub/internal/app/uow"
	domainbooking "vendorhub/internal/domain/booking"
)

// Factory wires Mongo transactions into the generic UnitOfWork interface.
type Factory struct {
	DB *mongo.Database

	BookingRepo     domainbooking.Repository
	TransactionRepo domainbooking.TransactionRepository
	ScheduleRepo    domainbooking.ScheduleRepository
}

var ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory missing database")

// NewFactory builds a factory whose repositories share db.
func NewFactory(db *mongo.Database) Factory {
	return Factory{
		DB:              db,
		BookingRepo:     NewBookingRepository(db),
		TransactionRepo: NewTransactionRepository(db),
		ScheduleRepo:    NewScheduleRepository(db),
	}
}

// Begin starts a MongoDB session/transaction.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	session, err := f.DB.Client().StartSession()
	if err != nil {
		return nil, err
	}
	txnOpts := options.Transaction().SetReadConcern(f.DB.ReadConcern()).SetWriteConcern(f.DB.WriteConcern())
	if opts.ReadOnly {
		txnOpts = txnOpts.SetReadConcern(f.DB.ReadConcern())
	}
	if err := session.StartTransaction(txnOpts); err != nil {
		session.EndSession(ctx)
		return nil, err
	}
	return &Unit{
		session:      session,
		bookings:     f.BookingRepo,
		transactions: f.TransactionRepo,
		schedules:    f.ScheduleRepo,
	}, nil
}

type Unit struct {
	session mongo.Session

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
	defer u.session.EndSession(ctx)
	return u.session.CommitTransaction(ctx)
}

func (u *Unit) Rollback(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	return u.session.AbortTransaction(ctx)
}

// InjectContext ensures Mongo session is available in context for downstream repos.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, u.session)
}

var (
	_ uow.UoWFactory      = Factory{}
	_ uow.ContextInjector = (*Unit)(nil)
)
