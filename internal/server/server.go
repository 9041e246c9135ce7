package server

import (
	"context"
	"net/http"
	"time"

	"marketplace/internal/auth"
	"marketplace/internal/booking"
	"marketplace/internal/catalog"
	"marketplace/internal/commission"
	"marketplace/internal/config"
	"marketplace/internal/coupon"
	"marketplace/internal/invoice"
	"marketplace/internal/payment"
	"marketplace/internal/points"
	"marketplace/internal/settlement"
	"marketplace/internal/user"
	"marketplace/internal/wallet"
	"marketplace/internal/webhook"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Server struct {
	router *gin.Engine
	http   *http.Server
}

func New(cfg *config.Config, svcs *Services, checks map[string]Check) *Server {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery(), RequestLoggingMiddleware(), MetricsMiddleware(), corsMiddleware(cfg.CORSOrigins))

	router.GET("/health", Health(checks))
	router.GET("/metrics", Metrics())
	SetupSwagger(router)

	userHandler := user.NewHandler(svcs.Users)
	catalogHandler := catalog.NewHandler(svcs.Catalog)
	bookingHandler := booking.NewHandler(svcs.Bookings)
	walletHandler := wallet.NewHandler(svcs.Wallets)
	paymentHandler := payment.NewHandler(svcs.Payments)
	pointsHandler := points.NewHandler(svcs.Points)
	couponHandler := coupon.NewHandler(svcs.Coupons)
	commissionHandler := commission.NewHandler(svcs.Commission)
	invoiceHandler := invoice.NewHandler(svcs.Invoices)
	settlementHandler := settlement.NewHandler(svcs.Settlement)
	webhookHandler := webhook.NewHandler(svcs.Webhooks, cfg.TapWebhookSecret)

	v1 := router.Group("/api/v1")

	// Gateway callbacks are not rate limited per IP; Tap sends from a
	// small pool of addresses.
	v1.POST("/webhooks/tap", webhookHandler.Tap)

	api := v1.Group("")
	api.Use(RateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst))

	public := api.Group("")
	{
		public.POST("/auth/register", userHandler.Register)
		public.POST("/auth/login", userHandler.Login)
		public.POST("/auth/refresh", userHandler.RefreshToken)
		public.GET("/services", catalogHandler.List)
		public.GET("/services/:id", catalogHandler.Get)
	}

	authMiddleware := auth.AuthMiddleware(svcs.Tokens)
	protected := api.Group("")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", userHandler.GetMe)

		protected.POST("/bookings/quote", bookingHandler.Quote)
		protected.POST("/bookings/checkout", bookingHandler.Checkout)
		protected.GET("/bookings", bookingHandler.ListMine)
		protected.GET("/bookings/:id", bookingHandler.Get)
		protected.POST("/bookings/:id/cancel", bookingHandler.Cancel)
		protected.GET("/bookings/:id/invoice", invoiceHandler.GetByBooking)
		protected.GET("/invoices/:id", invoiceHandler.Get)

		protected.GET("/wallet", walletHandler.GetBalance)
		protected.GET("/wallet/transactions", walletHandler.GetTransactions)
		protected.POST("/wallet/topup", walletHandler.TopUp)
		protected.POST("/wallet/transfer", walletHandler.Transfer)

		protected.GET("/payments", paymentHandler.ListMine)
		protected.GET("/points", pointsHandler.GetBalance)
		protected.GET("/points/history", pointsHandler.GetHistory)
		protected.POST("/coupons/validate", couponHandler.Validate)
	}

	provider := api.Group("/provider")
	provider.Use(authMiddleware, auth.RequireRole(auth.RoleProvider, auth.RoleAdmin))
	{
		provider.GET("/services", catalogHandler.Mine)
		provider.POST("/services", catalogHandler.Create)
		provider.PATCH("/services/:id", catalogHandler.Update)
		provider.DELETE("/services/:id", catalogHandler.Delete)
		provider.GET("/bookings", bookingHandler.ListForProvider)
		provider.POST("/bookings/:id/complete", bookingHandler.Complete)
		provider.GET("/invoices", invoiceHandler.ListMine)
		provider.GET("/settlements", settlementHandler.ListMine)
	}

	admin := api.Group("/admin")
	admin.Use(authMiddleware, auth.RequireRole(auth.RoleAdmin))
	{
		admin.DELETE("/users/:id", userHandler.Deactivate)
		admin.POST("/commission-rules", commissionHandler.CreateRule)
		admin.GET("/commission-rules", commissionHandler.ListRules)
		admin.DELETE("/commission-rules/:id", commissionHandler.DeactivateRule)
		admin.POST("/coupons", couponHandler.Create)
		admin.GET("/coupons", couponHandler.List)
		admin.GET("/services/:id/bookings", bookingHandler.ListByService)
		admin.GET("/invoices", invoiceHandler.List)
		admin.GET("/settlements", settlementHandler.List)
		admin.POST("/settlements/:id/release", settlementHandler.Release)
		admin.POST("/payments/:id/refund", paymentHandler.Refund)
	}

	return &Server{
		router: router,
		http: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	c := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		c.AllowOriginFunc = func(string) bool { return true }
	} else {
		c.AllowOrigins = origins
	}
	return cors.New(c)
}
