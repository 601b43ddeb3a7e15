package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"vendorhub/internal/infra/obs"
)

type BookingHTTP interface {
	Create(c *gin.Context)
	Confirm(c *gin.Context)
	Approve(c *gin.Context)
	Cancel(c *gin.Context)
	Reject(c *gin.Context)
	RefundPreview(c *gin.Context)
	Get(c *gin.Context)
}

type WebhookHTTP interface {
	Receive(c *gin.Context)
}

type ServiceHTTP interface {
	Quote(c *gin.Context)
	AppendPricingConfig(c *gin.Context)
}

type AdminHTTP interface {
	RequeueCapture(c *gin.Context)
}

type Handlers struct {
	Booking        BookingHTTP
	Webhook        WebhookHTTP
	Service        ServiceHTTP
	Admin          AdminHTTP
	AuthMiddleware gin.HandlerFunc
}

// NewRouter builds the gin engine; NewServer wraps it in an http.Server.
func NewRouter(env string, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *gin.Engine {
	mode := configureGinMode(env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(obsMW.Tracing())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key", "traceparent"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}))
	if h.AuthMiddleware != nil {
		router.Use(h.AuthMiddleware)
	}

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	if h.Booking != nil {
		api.POST("/bookings", h.Booking.Create)
		api.POST("/bookings/confirm", h.Booking.Confirm)
		api.GET("/bookings/:id", h.Booking.Get)
		api.POST("/bookings/:id/approve", h.Booking.Approve)
		api.POST("/bookings/:id/cancel", h.Booking.Cancel)
		api.POST("/bookings/:id/reject", h.Booking.Reject)
		api.GET("/bookings/:id/refund-preview", h.Booking.RefundPreview)
	}
	if h.Webhook != nil {
		api.POST("/payments/webhook", h.Webhook.Receive)
	}
	if h.Service != nil {
		api.GET("/services/:category/:id/quote", h.Service.Quote)
		api.POST("/services/:category/:id/pricing-config", h.Service.AppendPricingConfig)
	}
	if h.Admin != nil {
		api.POST("/admin/scheduled-captures/:id/requeue", h.Admin.RequeueCapture)
	}
	return router
}

func NewServer(addr, env string, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           NewRouter(env, obsMW, health, h),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug", "dev", "local":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}

var (
	_ BookingHTTP = BookingHandler{}
	_ WebhookHTTP = WebhookHandler{}
	_ ServiceHTTP = ServiceHandler{}
	_ AdminHTTP   = AdminHandler{}
)
