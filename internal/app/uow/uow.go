package uow

import (
	"context"

	domainbooking "vendorhub/internal/domain/booking"
)

// UnitOfWork groups the booking, transaction and schedule writes of one ledger step.
type UnitOfWork interface {
	Bookings() domainbooking.Repository
	Transactions() domainbooking.TransactionRepository
	Schedules() domainbooking.ScheduleRepository

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UoWFactory starts unit of work instances.
type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

type TxOptions struct {
	ReadOnly bool
}

// ContextInjector is implemented by units that bind a driver session to the context.
type ContextInjector interface {
	InjectContext(ctx context.Context) context.Context
}

// Run begins a unit, executes fn with a context bound to it and commits; any error rolls back.
func Run(ctx context.Context, factory UoWFactory, opts TxOptions, fn func(ctx context.Context, unit UnitOfWork) error) error {
	unit, err := factory.Begin(ctx, opts)
	if err != nil {
		return err
	}
	execCtx := ctx
	if injector, ok := unit.(ContextInjector); ok {
		execCtx = injector.InjectContext(ctx)
	}
	execCtx = ContextWithUnitOfWork(execCtx, unit)
	if err := fn(execCtx, unit); err != nil {
		_ = unit.Rollback(execCtx)
		return err
	}
	return unit.Commit(execCtx)
}
