package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tempora-app/tempora-backend/internal/config"
	"github.com/tempora-app/tempora-backend/internal/handler"
	"github.com/tempora-app/tempora-backend/internal/middleware"
	"github.com/tempora-app/tempora-backend/internal/repository/postgres"
	"github.com/tempora-app/tempora-backend/internal/repository/storage"
	"github.com/tempora-app/tempora-backend/internal/service"
	"github.com/tempora-app/tempora-backend/internal/websocket"
)

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

	if err := pool.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Connected to database")

	// Initialize repositories
	userRepo := postgres.NewUserRepository(pool)
	workspaceRepo := postgres.NewWorkspaceRepository(pool)
	memberRepo := postgres.NewWorkspaceMemberRepository(pool)
	taskRepo := postgres.NewTaskRepository(pool)
	categoryRepo := postgres.NewCategoryRepository(pool)
	timerRepo := postgres.NewActiveTimerRepository(pool)
	entryRepo := postgres.NewTimeEntryRepository(pool)
	activityRepo := postgres.NewActivityLogRepository(pool)

	exportRepo, err := storage.NewS3ExportRepository(context.Background(), cfg.S3)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize export storage")
	}

	// Initialize services
	identityService := service.NewIdentityService(userRepo, workspaceRepo)
	categoryResolver := service.NewCategoryResolver(categoryRepo)
	timerService := service.NewTimerService(
		timerRepo, taskRepo, memberRepo, categoryRepo, activityRepo,
		categoryResolver, nil,
	)
	entryService := service.NewTimeEntryService(entryRepo, categoryRepo, memberRepo)
	exportService := service.NewExportService(entryRepo, categoryRepo, memberRepo, exportRepo, nil)

	// WebSocket hub and event publishing
	hub := websocket.NewHub()
	timerService.SetEventPublisher(hub)

	wsValidator, err := websocket.NewAuth0JWTValidator(cfg.Auth0Domain, cfg.Auth0Audience, identityService)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create WebSocket token validator")
	}

	// Stale-timer sweeper
	sweeper := service.NewTimerSweeper(timerService, timerRepo, log.Logger, service.TimerSweeperConfig{
		Interval:    cfg.SweepInterval,
		MaxTimerAge: cfg.MaxTimerAge,
	}, nil)
	sweeper.Start(context.Background())
	defer sweeper.Stop()

	// Auth middleware
	identityAdapter := &identityProviderAdapter{identityService: identityService}
	authMiddleware, err := middleware.NewAuthMiddleware(cfg.Auth0Domain, cfg.Auth0Audience, identityAdapter)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create auth middleware")
	}

	rateLimiter := middleware.NewRateLimiter()
	defer rateLimiter.Stop()

	// Initialize handlers
	timerHandler := handler.NewTimerHandler(timerService)
	entryHandler := handler.NewTimeEntryHandler(entryService)
	categoryHandler := handler.NewCategoryHandler(categoryResolver)
	activityHandler := handler.NewActivityHandler(timerService)
	reportHandler := handler.NewReportHandler(exportService)
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

	// Security headers middleware
	e.Use(echomiddleware.SecureWithConfig(echomiddleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'self'",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
	}))

	// Request logging middleware with zerolog
	e.Use(zerologMiddleware())

	// Recovery middleware
	e.Use(echomiddleware.Recover())

	// Health check endpoint
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// Register API routes
	handler.RegisterRoutes(e, authMiddleware, rateLimiter, timerHandler, entryHandler, categoryHandler, activityHandler, reportHandler, wsHandler)

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// identityProviderAdapter adapts IdentityService to middleware.IdentityProvider
type identityProviderAdapter struct {
	identityService *service.IdentityService
}

// ResolveIdentity implements middleware.IdentityProvider
func (a *identityProviderAdapter) ResolveIdentity(auth0ID, email string, name *string) (*middleware.Identity, error) {
	resolved, err := a.identityService.Resolve(auth0ID, email, name)
	if err != nil {
		return nil, err
	}
	return &middleware.Identity{
		UserID:      resolved.UserID,
		WorkspaceID: resolved.WorkspaceID,
	}, nil
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
				Msg("request")

			return nil
		}
	}
}
