package availability

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"vendorhub/internal/app/policies"
	"vendorhub/internal/domain/catalog"
	"vendorhub/internal/domain/shared/daterange"
)

// Updater applies booked/released dates to the owning category store.
type Updater struct {
	Services *policies.ServiceRegistry
	Logger   *slog.Logger
}

// Reserve marks days booked and drops them from the waiting and available sets.
func (u *Updater) Reserve(ctx context.Context, ref catalog.Ref, days []time.Time) error {
	return u.apply(ctx, ref, policies.DateUpdate{Book: daterange.FormatAll(days)})
}

// Release returns booked days to the pool.
func (u *Updater) Release(ctx context.Context, ref catalog.Ref, days []time.Time) error {
	return u.apply(ctx, ref, policies.DateUpdate{Release: daterange.FormatAll(days)})
}

func (u *Updater) apply(ctx context.Context, ref catalog.Ref, update policies.DateUpdate) error {
	if len(update.Book) == 0 && len(update.Release) == 0 {
		return nil
	}
	store, err := u.Services.Resolve(ref.Category)
	if err != nil {
		return err
	}
	if err := store.UpdateDates(ctx, ref.ID, update); err != nil {
		return fmt.Errorf("availability: update %s: %w", ref, err)
	}
	u.logger().Info("service dates updated", "service", ref.String(), "booked", update.Book, "released", update.Release)
	return nil
}

func (u *Updater) logger() *slog.Logger {
	if u.Logger != nil {
		return u.Logger
	}
	return slog.Default()
}
