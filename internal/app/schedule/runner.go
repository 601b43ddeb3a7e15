package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"vendorhub/internal/app/ledger"
	"vendorhub/internal/app/outbox"
	"vendorhub/internal/app/policies"
	domainbooking "vendorhub/internal/domain/booking"
)

var ErrRunnerNotConfigured = errors.New("schedule: runner not configured")

type ItemReport struct {
	ScheduleID string                `json:"schedule_id"`
	BookingID  string                `json:"booking_id"`
	Outcome    ledger.CaptureOutcome `json:"outcome"`
	Error      string                `json:"error,omitempty"`
}

type CycleReport struct {
	ID         string       `json:"id"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Due        int          `json:"due"`
	Succeeded  int          `json:"succeeded"`
	Failed     int          `json:"failed"`
	Cancelled  int          `json:"cancelled"`
	Skipped    int          `json:"skipped"`
	Items      []ItemReport `json:"items"`
}

// CaptureRunner executes due scheduled captures on a ticker. Each job runs isolated; one
// failing or panicking job does not stop the cycle.
type CaptureRunner struct {
	Schedules domainbooking.ScheduleRepository
	Ledger    *ledger.Ledger
	Outbox    outbox.Outbox
	Archive   policies.ReportArchiver
	Interval  time.Duration
	BatchSize int
	Logger    *slog.Logger
	Now       func() time.Time
}

// Run executes a cycle immediately and then once per interval until ctx ends.
func (r *CaptureRunner) Run(ctx context.Context) error {
	if r.Schedules == nil || r.Ledger == nil {
		return ErrRunnerNotConfigured
	}
	if _, err := r.RunOnce(ctx); err != nil {
		r.logger().Error("capture cycle failed", "error", err)
	}
	ticker := time.NewTicker(r.interval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := r.RunOnce(ctx); err != nil {
				r.logger().Error("capture cycle failed", "error", err)
			}
		}
	}
}

func (r *CaptureRunner) RunOnce(ctx context.Context) (CycleReport, error) {
	if r.Schedules == nil || r.Ledger == nil {
		return CycleReport{}, ErrRunnerNotConfigured
	}
	started := r.now()
	report := CycleReport{ID: started.Format("20060102T150405Z"), StartedAt: started}
	due, err := r.Schedules.Due(ctx, started, r.BatchSize)
	if err != nil {
		return report, fmt.Errorf("schedule: load due captures: %w", err)
	}
	report.Due = len(due)

	for _, sc := range due {
		if ctx.Err() != nil {
			break
		}
		item := r.runItem(ctx, sc)
		switch item.Outcome {
		case ledger.OutcomeCaptured, ledger.OutcomeAlreadyCaptured:
			report.Succeeded++
		case ledger.OutcomeFailed:
			report.Failed++
		case ledger.OutcomeCancelled:
			report.Cancelled++
		default:
			report.Skipped++
		}
		report.Items = append(report.Items, item)
	}
	report.FinishedAt = r.now()

	if r.Outbox != nil {
		if err := r.Outbox.Flush(ctx); err != nil {
			r.logger().Error("outbox flush after capture cycle", "error", err)
		}
	}
	r.logger().Info("capture cycle finished",
		"due", report.Due,
		"succeeded", report.Succeeded,
		"failed", report.Failed,
		"cancelled", report.Cancelled,
		"skipped", report.Skipped,
		"duration", report.FinishedAt.Sub(report.StartedAt),
	)
	r.archive(ctx, report)
	return report, nil
}

func (r *CaptureRunner) runItem(ctx context.Context, sc *domainbooking.ScheduledCapture) (item ItemReport) {
	item = ItemReport{ScheduleID: sc.ID, BookingID: string(sc.BookingID)}
	defer func() {
		if rec := recover(); rec != nil {
			item.Outcome = ledger.OutcomeSkipped
			item.Error = fmt.Sprintf("panic: %v", rec)
			r.logger().Error("scheduled capture panicked", "schedule_id", sc.ID, "panic", rec)
		}
	}()
	outcome, err := r.Ledger.CaptureScheduled(ctx, sc)
	item.Outcome = outcome
	if err != nil {
		item.Error = err.Error()
		r.logger().Warn("scheduled capture", "schedule_id", sc.ID, "booking_id", sc.BookingID, "outcome", outcome, "error", err)
	}
	return item
}

func (r *CaptureRunner) archive(ctx context.Context, report CycleReport) {
	if r.Archive == nil || report.Due == 0 {
		return
	}
	payload, err := json.Marshal(report)
	if err != nil {
		r.logger().Error("encode capture report", "error", err)
		return
	}
	key := fmt.Sprintf("captures/%s/%s.json", report.StartedAt.Format("2006/01/02"), report.ID)
	if err := r.Archive.Archive(ctx, key, payload); err != nil {
		r.logger().Warn("archive capture report", "key", key, "error", err)
	}
}

// Requeue creates a new pending schedule for a failed one whose booking still awaits capture.
func (r *CaptureRunner) Requeue(ctx context.Context, scheduleID string) (*domainbooking.ScheduledCapture, error) {
	if r.Schedules == nil || r.Ledger == nil {
		return nil, ErrRunnerNotConfigured
	}
	failed, err := r.Schedules.ByID(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	if failed.Status != domainbooking.ScheduleFailed {
		return nil, fmt.Errorf("%w: schedule %s is %s", domainbooking.ErrStateConflict, failed.ID, failed.Status)
	}
	b, _, err := r.Ledger.Get(ctx, failed.BookingID, "", domainbooking.RoleAdmin)
	if err != nil {
		return nil, err
	}
	if b.Status != domainbooking.StatusRequested && b.Status != domainbooking.StatusAuthorized {
		return nil, fmt.Errorf("%w: booking %s is %s", domainbooking.ErrStateConflict, b.ID, b.Status)
	}
	pending, err := r.Schedules.PendingByBooking(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	if pending != nil {
		return nil, fmt.Errorf("%w: booking %s already has pending schedule %s", domainbooking.ErrStateConflict, b.ID, pending.ID)
	}
	now := r.now()
	next := domainbooking.NewScheduledCapture(r.Ledger.NewID(), b, now, now)
	if err := r.Schedules.Save(ctx, next); err != nil {
		return nil, err
	}
	r.logger().Info("scheduled capture requeued", "schedule_id", next.ID, "previous", failed.ID, "booking_id", b.ID)
	return next, nil
}

func (r *CaptureRunner) interval() time.Duration {
	if r.Interval > 0 {
		return r.Interval
	}
	return time.Hour
}

func (r *CaptureRunner) now() time.Time {
	if r.Now != nil {
		return r.Now().UTC()
	}
	return time.Now().UTC()
}

func (r *CaptureRunner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}
