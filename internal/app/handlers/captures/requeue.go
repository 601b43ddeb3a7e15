package captures

import (
	"context"
	"strings"

	"vendorhub/internal/app/commands"
	"vendorhub/internal/app/dto"
	"vendorhub/internal/app/schedule"
	domainbooking "vendorhub/internal/domain/booking"
)

const requeueKey = "captures.requeue"

type RequeueScheduledCaptureCommand struct {
	ScheduleID string
	ActorRoleV string
}

func (c RequeueScheduledCaptureCommand) Key() string { return requeueKey }

func (c RequeueScheduledCaptureCommand) ActorRole() string { return c.ActorRoleV }

func (c RequeueScheduledCaptureCommand) AllowedRoles() []string {
	return []string{string(domainbooking.RoleAdmin)}
}

func (c RequeueScheduledCaptureCommand) Validate() error {
	if strings.TrimSpace(c.ScheduleID) == "" {
		return domainbooking.Invalid("schedule_id", "is required")
	}
	return nil
}

type RequeueScheduledCaptureHandler struct {
	Runner *schedule.CaptureRunner
}

func (h *RequeueScheduledCaptureHandler) Handle(ctx context.Context, cmd RequeueScheduledCaptureCommand) (*dto.ScheduleView, error) {
	sc, err := h.Runner.Requeue(ctx, cmd.ScheduleID)
	if err != nil {
		return nil, err
	}
	view := dto.ScheduleFrom(sc)
	return &view, nil
}

func Register(cmds *commands.InMemoryBus, runner *schedule.CaptureRunner) {
	commands.RegisterHandler(cmds, requeueKey, &RequeueScheduledCaptureHandler{Runner: runner})
}

var _ commands.Handler[RequeueScheduledCaptureCommand, *dto.ScheduleView] = (*RequeueScheduledCaptureHandler)(nil)
