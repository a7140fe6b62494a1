package http

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	handlers "github.com/loopware/billing-webhook/internal/adapter/handler/http"
	"github.com/loopware/billing-webhook/internal/config"
	"github.com/loopware/billing-webhook/internal/infrastructure/database"
	"github.com/loopware/billing-webhook/internal/infrastructure/provider/recurly"
	"github.com/loopware/billing-webhook/internal/logger"
	"github.com/loopware/billing-webhook/internal/middleware/auth"
	"github.com/loopware/billing-webhook/internal/usecase"
	"go.uber.org/zap"
)

type Server struct {
	config *config.Config
	logger *zap.Logger
	echo   *echo.Echo
	repos  *database.Repositories
}

func NewServer(cfg *config.Config, log *zap.Logger, repos *database.Repositories) *Server {
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(logger.NewEchoRequestLogger(log))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	return &Server{
		config: cfg,
		logger: log,
		echo:   e,
		repos:  repos,
	}
}

func (s *Server) Start() error {
	// Setup routes
	s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", s.config.Server.HTTP.Host, s.config.Server.HTTP.Port)
	s.logger.Info("Starting HTTP server", zap.String("address", addr))

	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) setupRoutes() {
	// Health check
	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "healthy",
			"service": s.config.Service.Name,
		})
	})

	// Provider client and pipelines
	resolver := recurly.NewClient(s.config.Recurly, s.logger)
	attribution := usecase.NewPaymentAttributionService(
		s.repos.SignupAttempt,
		s.repos.WebhookEvent,
		resolver,
		s.logger,
		s.config.Service.AttributionWindow,
	)
	subscriptionSync := usecase.NewSubscriptionSyncService(
		s.repos.Subscription,
		s.repos.Shop,
		s.repos.WebhookEvent,
		resolver,
		s.logger,
	)
	replay := usecase.NewEventReplayService(s.repos.WebhookEvent, attribution, subscriptionSync, s.logger)

	// Initialize handlers
	webhookHandler := handlers.NewWebhookHandler(s.logger, s.repos.WebhookEvent, attribution, subscriptionSync)
	opsHandler := handlers.NewOpsHandler(s.logger, s.repos.WebhookEvent, replay)

	// Webhook routes (outside API versioning). Providers probe the
	// endpoint with GET, HEAD or OPTIONS before enabling it.
	s.echo.POST("/webhooks/recurly", webhookHandler.Handle)
	s.echo.Match([]string{http.MethodGet, http.MethodHead, http.MethodOptions}, "/webhooks/recurly", webhookHandler.Alive)

	// JWT middleware configuration
	jwtConfig := auth.JWTConfig{
		Secret: s.config.JWT.Secret,
		Logger: s.logger,
	}

	// API v1 routes (operator surface, all require authentication)
	v1 := s.echo.Group("/api/v1")
	ops := v1.Group("/ops", auth.JWTMiddleware(jwtConfig))
	ops.GET("/events", opsHandler.ListEvents)
	ops.POST("/events/:id/replay", opsHandler.ReplayEvent)
}
