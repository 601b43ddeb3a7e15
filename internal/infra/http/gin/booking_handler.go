package ginserver

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	gin "github.com/gin-gonic/gin"

	"vendorhub/internal/app/commands"
	"vendorhub/internal/app/dto"
	bookingapp "vendorhub/internal/app/handlers/booking"
	"vendorhub/internal/app/queries"
	domainbooking "vendorhub/internal/domain/booking"
	"vendorhub/internal/domain/shared/daterange"
)

type BookingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type createBookingRequest struct {
	Service struct {
		Category string `json:"category"`
		ID       string `json:"id"`
	} `json:"service"`
	Package struct {
		Title             string   `json:"title"`
		Description       string   `json:"description"`
		Dates             []string `json:"dates"`
		AdditionalRequest string   `json:"additional_request"`
	} `json:"package"`
	PaymentPreference string `json:"payment_preference"`
}

func (h BookingHandler) Create(c *gin.Context) {
	user, ok := requireRole(c, domainbooking.RoleCustomer)
	if !ok {
		return
	}
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	dates, err := parseDates(req.Package.Dates)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	cmd := bookingapp.CreateBookingCommand{
		CustomerID:        user.ID,
		Category:          req.Service.Category,
		ServiceID:         req.Service.ID,
		Title:             req.Package.Title,
		Description:       req.Package.Description,
		AdditionalRequest: req.Package.AdditionalRequest,
		Dates:             dates,
		Preference:        req.PaymentPreference,
		ActorRoleV:        string(user.Role),
		IdempotencyKeyV:   scopedIdempotencyKey(c, user),
	}
	result, err := commands.Dispatch[bookingapp.CreateBookingCommand, *dto.CheckoutView](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

type confirmPaymentRequest struct {
	OrderID           string `json:"razorpay_order_id"`
	PaymentID         string `json:"razorpay_payment_id"`
	Signature         string `json:"razorpay_signature"`
	PaymentPreference string `json:"payment_preference"`
}

func (h BookingHandler) Confirm(c *gin.Context) {
	user, ok := requireRole(c, domainbooking.RoleCustomer)
	if !ok {
		return
	}
	var req confirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cmd := bookingapp.ConfirmPaymentCommand{
		OrderRef:        req.OrderID,
		PaymentRef:      req.PaymentID,
		Signature:       req.Signature,
		Preference:      req.PaymentPreference,
		CustomerID:      user.ID,
		ActorRoleV:      string(user.Role),
		IdempotencyKeyV: scopedIdempotencyKey(c, user),
	}
	result, err := commands.Dispatch[bookingapp.ConfirmPaymentCommand, *dto.BookingView](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type approveRequest struct {
	AutoBookDates bool `json:"auto_book_dates"`
}

func (h BookingHandler) Approve(c *gin.Context) {
	user, ok := requireRole(c, domainbooking.RoleVendor)
	if !ok {
		return
	}
	var req approveRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}
	cmd := bookingapp.ApproveBookingCommand{
		BookingID:     c.Param("id"),
		VendorID:      user.ID,
		AutoBookDates: req.AutoBookDates,
		ActorRoleV:    string(user.Role),
	}
	h.dispatchBooking(c, cmd)
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

func (h BookingHandler) Cancel(c *gin.Context) {
	user, ok := requireRole(c, domainbooking.RoleCustomer, domainbooking.RoleVendor)
	if !ok {
		return
	}
	var req reasonRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}
	cmd := bookingapp.CancelBookingCommand{
		BookingID:  c.Param("id"),
		ActorID:    user.ID,
		Reason:     req.Reason,
		ActorRoleV: string(user.Role),
	}
	h.dispatchBooking(c, cmd)
}

func (h BookingHandler) Reject(c *gin.Context) {
	user, ok := requireRole(c, domainbooking.RoleVendor)
	if !ok {
		return
	}
	var req reasonRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}
	cmd := bookingapp.RejectBookingCommand{
		BookingID:  c.Param("id"),
		VendorID:   user.ID,
		Reason:     req.Reason,
		ActorRoleV: string(user.Role),
	}
	h.dispatchBooking(c, cmd)
}

func (h BookingHandler) RefundPreview(c *gin.Context) {
	user, ok := requireRole(c)
	if !ok {
		return
	}
	q := bookingapp.PreviewRefundQuery{BookingID: c.Param("id"), ActorID: user.ID, ActorRoleV: string(user.Role)}
	result, err := queries.Ask[bookingapp.PreviewRefundQuery, *dto.RefundPreviewView](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) Get(c *gin.Context) {
	user, ok := requireRole(c)
	if !ok {
		return
	}
	q := bookingapp.GetBookingQuery{BookingID: c.Param("id"), ActorID: user.ID, ActorRoleV: string(user.Role)}
	result, err := queries.Ask[bookingapp.GetBookingQuery, *dto.BookingView](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) dispatchBooking(c *gin.Context, cmd commands.Command) {
	result, err := h.Commands.Dispatch(c.Request.Context(), cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	view, ok := result.(*dto.BookingView)
	if !ok {
		respondError(c, h.Logger, commands.ErrResultType)
		return
	}
	c.JSON(http.StatusOK, view)
}

func parseDates(raw []string) ([]time.Time, error) {
	if len(raw) == 0 {
		return nil, domainbooking.Invalid("package.dates", "at least one date is required")
	}
	out := make([]time.Time, 0, len(raw))
	for _, r := range raw {
		d, err := daterange.Parse(r)
		if err != nil {
			return nil, domainbooking.Invalid("package.dates", "dates must be YYYY-MM-DD")
		}
		out = append(out, d)
	}
	return out, nil
}

// scopedIdempotencyKey prefixes the client key with the caller so two users never share one.
func scopedIdempotencyKey(c *gin.Context, p principal) string {
	key := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
	if key == "" {
		return ""
	}
	return p.ID + ":" + key
}
