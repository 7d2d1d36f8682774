package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/dafibh/atelier/atelier-backend/docs"
	"github.com/dafibh/atelier/atelier-backend/internal/config"
	"github.com/dafibh/atelier/atelier-backend/internal/handler"
	"github.com/dafibh/atelier/atelier-backend/internal/middleware"
	"github.com/dafibh/atelier/atelier-backend/internal/repository/postgres"
	"github.com/dafibh/atelier/atelier-backend/internal/repository/storage"
	"github.com/dafibh/atelier/atelier-backend/internal/service"
	"github.com/dafibh/atelier/atelier-backend/internal/websocket"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	echoSwagger "github.com/swaggo/echo-swagger"
)

// @title Atelier API
// @version 1.0
// @description Quote and order computation for agency budgets: sections, lines, payment schedules and margins.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Auth0 access token as "Bearer <token>"
func main() {
	// Initialize zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Connect to database
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	// Verify database connection
	if err := pool.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Connected to database")

	// Initialize repositories
	workspaceRepo := postgres.NewWorkspaceRepository(pool)
	profileRepo := postgres.NewRateProfileRepository(pool)
	quoteRepo := postgres.NewQuoteRepository(pool)
	taskRepo := postgres.NewTaskRepository(pool)

	// Export storage is optional; without it quotes cannot be exported
	var exportRepo storage.ExportRepository
	s3Repo, err := storage.NewS3ExportRepository(context.Background(), cfg.S3)
	if err != nil {
		log.Warn().Err(err).Str("bucket", cfg.S3.Bucket).Msg("Export storage unavailable, quote exports disabled")
	} else {
		exportRepo = s3Repo
		log.Info().Str("bucket", cfg.S3.Bucket).Msg("Export storage ready")
	}

	// Real-time updates
	hub := websocket.NewHub()

	// Initialize services
	workspaceService := service.NewWorkspaceService(workspaceRepo)
	profileService := service.NewRateProfileService(profileRepo)
	calculationService := service.NewQuoteCalculationService(quoteRepo, profileRepo)
	quoteService := service.NewQuoteService(quoteRepo, profileRepo, calculationService)
	workflowService := service.NewQuoteWorkflowService(quoteRepo, calculationService)
	taskService := service.NewTaskDerivationService(taskRepo, calculationService)
	exportService := service.NewQuoteExportService(calculationService, exportRepo, cfg.ExportURLTTL)

	profileService.SetEventPublisher(hub)
	quoteService.SetEventPublisher(hub)
	workflowService.SetEventPublisher(hub)
	taskService.SetEventPublisher(hub)
	exportService.SetEventPublisher(hub)

	// Background repair of drifted cached totals
	recomputeWorker := service.NewRecomputeWorker(
		calculationService,
		quoteRepo,
		workspaceRepo,
		log.Logger,
		service.RecomputeWorkerConfig{Interval: cfg.RecomputeInterval},
	)
	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	recomputeWorker.Start(workerCtx)

	// Create workspace provider adapter for auth middleware and WebSocket auth
	workspaceProvider := &workspaceProviderAdapter{workspaceService: workspaceService}

	// Initialize auth middleware
	authMiddleware, err := middleware.NewAuthMiddleware(cfg.Auth0Domain, cfg.Auth0Audience, workspaceProvider)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create auth middleware")
	}
	rateLimiter := middleware.NewRateLimiterWithConfig(cfg.RateLimitPerMinute, cfg.RateLimitBurst)
	defer rateLimiter.Stop()

	wsValidator, err := websocket.NewAuth0JWTValidator(cfg.Auth0Domain, cfg.Auth0Audience, workspaceProvider)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create WebSocket token validator")
	}

	// Initialize handlers
	handlers := handler.Handlers{
		Workspace:   handler.NewWorkspaceHandler(workspaceService),
		RateProfile: handler.NewRateProfileHandler(profileService),
		Quote:       handler.NewQuoteHandler(quoteService, calculationService, workflowService, taskService, exportService),
	}
	wsHandler := handler.NewWebSocketHandler(hub, wsValidator, cfg.CORSOrigins)

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Request ID middleware
	e.Use(echomiddleware.RequestID())

	// CORS middleware
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Security headers middleware (helmet-like)
	e.Use(echomiddleware.SecureWithConfig(echomiddleware.SecureConfig{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
		HSTSMaxAge:         31536000,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
	}))

	// Request logging middleware with zerolog
	e.Use(zerologMiddleware())

	// Recovery middleware
	e.Use(echomiddleware.Recover())

	// Health check endpoint
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// WebSocket endpoint, authenticated with ?token=
	e.GET("/ws", wsHandler.HandleWS)

	// API documentation
	e.GET("/swagger/*", echoSwagger.WrapHandler)
	e.GET("/openapi.json", handler.ServeOpenAPI3Spec)

	// Register API routes
	handler.RegisterRoutes(e, authMiddleware, rateLimiter, handlers)

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Port).Bool("exports_enabled", exportService.IsEnabled()).Msg("Starting server")
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	recomputeWorker.Stop()
	hub.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// workspaceProviderAdapter adapts WorkspaceService to middleware.WorkspaceProvider
// and websocket.WorkspaceLookup
type workspaceProviderAdapter struct {
	workspaceService *service.WorkspaceService
}

// GetWorkspaceByAuth0ID implements middleware.WorkspaceProvider
func (a *workspaceProviderAdapter) GetWorkspaceByAuth0ID(auth0ID string) (int32, error) {
	workspace, err := a.workspaceService.GetWorkspaceByAuth0ID(auth0ID)
	if err != nil {
		return 0, err
	}
	return workspace.ID, nil
}

// zerologMiddleware returns a middleware that logs requests using zerolog
func zerologMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()

			log.Info().
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", res.Status).
				Dur("latency", time.Since(start)).
				Str("request_id", res.Header().Get(echo.HeaderXRequestID)).
				Int32("workspace_id", middleware.GetWorkspaceID(c)).
				Msg("request")

			return nil
		}
	}
}
