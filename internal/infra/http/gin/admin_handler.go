package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"vendorhub/internal/app/commands"
	"vendorhub/internal/app/dto"
	capturesapp "vendorhub/internal/app/handlers/captures"
	domainbooking "vendorhub/internal/domain/booking"
)

type AdminHandler struct {
	Commands commands.Bus
	Logger   *slog.Logger
}

func (h AdminHandler) RequeueCapture(c *gin.Context) {
	user, ok := requireRole(c, domainbooking.RoleAdmin)
	if !ok {
		return
	}
	cmd := capturesapp.RequeueScheduledCaptureCommand{ScheduleID: c.Param("id"), ActorRoleV: string(user.Role)}
	result, err := commands.Dispatch[capturesapp.RequeueScheduledCaptureCommand, *dto.ScheduleView](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	if h.Logger != nil {
		h.Logger.Info("scheduled capture requeued", "from", c.Param("id"), "to", result.ID, "booking_id", result.BookingID, "admin", user.ID)
	}
	c.JSON(http.StatusCreated, result)
}
