package server

import (
	"context"
	"net/http"
	"time"

	"mentorbook/internal/auth"
	"mentorbook/internal/booking"
	"mentorbook/internal/catalog"
	"mentorbook/internal/config"
	"mentorbook/internal/meeting"
	"mentorbook/internal/pricing"
	"mentorbook/internal/search"
	"mentorbook/internal/wallet"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Deps are the engine components the HTTP API exposes.
type Deps struct {
	Catalog  *catalog.Store
	Search   *search.Engine
	Bookings booking.Service
	Ledger   *wallet.Ledger
	Meetings *meeting.Binder
	Checks   map[string]Check
}

type Server struct {
	router *gin.Engine
	http   *http.Server
	config *config.Config
	stop   context.CancelFunc
}

func New(deps Deps, cfg *config.Config) *Server {
	ctx, stop := context.WithCancel(context.Background())

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLoggingMiddleware())
	router.Use(MetricsMiddleware())
	router.Use(corsMiddleware(cfg.CORSOrigins))

	router.GET("/health", Health(deps.Checks))
	router.GET("/metrics", Metrics())

	formatter := pricing.Formatter{Symbol: cfg.CurrencySymbol}
	catalogHandler := catalog.NewHandler(deps.Catalog, formatter, deps.Bookings)
	searchHandler := search.NewHandler(deps.Search)
	bookingHandler := booking.NewHandler(deps.Bookings)
	walletHandler := wallet.NewHandler(deps.Ledger, formatter)
	meetingHandler := meeting.NewHandler(deps.Meetings)

	public := router.Group("/")
	public.Use(RateLimitMiddleware(ctx, cfg.RateLimitRPS, cfg.RateLimitBurst))
	{
		public.GET("/providers", searchHandler.Browse)
		public.GET("/providers/:id", catalogHandler.GetProvider)
		public.GET("/providers/:id/services", catalogHandler.ListServices)
		public.GET("/service-kinds", catalogHandler.ListKinds)
		public.GET("/quote", catalogHandler.Quote)
	}

	protected := public.Group("/")
	protected.Use(auth.AuthMiddleware(cfg.JWTSecret))
	{
		protected.POST("/providers/:id/reviews", catalogHandler.Review)

		protected.POST("/bookings", bookingHandler.Create)
		protected.GET("/bookings", bookingHandler.List)
		protected.GET("/bookings/:id", bookingHandler.Get)
		protected.POST("/bookings/:id/accept", bookingHandler.Accept)
		protected.POST("/bookings/:id/decline", bookingHandler.Decline)
		protected.POST("/bookings/:id/reschedule", bookingHandler.Reschedule)
		protected.POST("/bookings/:id/cancel", bookingHandler.Cancel)

		protected.GET("/wallet", walletHandler.GetBalance)
		protected.POST("/wallet/topup", walletHandler.TopUp)
		protected.GET("/wallet/transactions", walletHandler.ListTransactions)
		protected.GET("/earnings", walletHandler.GetEarnings)
		protected.GET("/earnings/transactions", walletHandler.ListEarnings)
		protected.POST("/earnings/withdraw", walletHandler.Withdraw)
	}

	providers := protected.Group("/")
	providers.Use(auth.RequireRole(auth.RoleProvider))
	{
		providers.PUT("/providers/:id", catalogHandler.SaveProfile)
		providers.DELETE("/providers/:id", catalogHandler.Deactivate)
		providers.POST("/providers/:id/services", catalogHandler.CreateService)
		providers.PUT("/providers/:id/services/:serviceID", catalogHandler.UpdateService)

		providers.GET("/meeting-links", meetingHandler.List)
		providers.PUT("/meeting-links/:platform", meetingHandler.Connect)
		providers.DELETE("/meeting-links/:platform", meetingHandler.Disconnect)
	}

	return &Server{
		router: router,
		config: cfg,
		stop:   stop,
	}
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start(port string) error {
	s.http = &http.Server{
		Addr:              ":" + port,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.stop()
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	corsConfig := cors.DefaultConfig()
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = origins
		corsConfig.AllowCredentials = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	return cors.New(corsConfig)
}
