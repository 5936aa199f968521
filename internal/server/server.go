// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"errors"
	"log/slog"
	"time"

	_ "feedhub/docs" // swagger docs
	"feedhub/internal/config"
	"feedhub/internal/featureflags"
	"feedhub/internal/middleware"
	"feedhub/internal/models"
	"feedhub/internal/notifications"
	"feedhub/internal/repository"
	"feedhub/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	userRepo     repository.UserRepository
	notifier     *notifications.Notifier
	feedHub      *notifications.FeedHub
	featureFlags *featureflags.Manager

	feedService       *service.FeedService
	userService       *service.UserService
	profileService    *service.ProfileService
	connectionService *service.ConnectionService
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil, in which case caching, rate limiting and feed
// events are disabled.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	if cfg == nil || db == nil {
		return nil, errors.New("server requires a config and a database")
	}

	userRepo := repository.NewUserRepository(db)
	flags := featureflags.NewManager(cfg.FeatureFlags)

	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("feedhub-api"),
		userRepo:       userRepo,
		featureFlags:   flags,
		feedHub:        notifications.NewFeedHub(),
	}

	deps := service.FeedServiceDeps{
		Feeds:    repository.NewFeedRepository(db),
		Likes:    repository.NewFeedLikeRepository(db),
		Comments: repository.NewFeedCommentRepository(db),
		Tags:     repository.NewTagRepository(db),
		Users:    userRepo,
		Flags:    flags,
	}
	if redisClient != nil {
		server.notifier = notifications.NewNotifier(redisClient)
		deps.Events = server.notifier
	}

	server.feedService = service.NewFeedService(deps)
	server.userService = service.NewUserService(userRepo)
	server.profileService = service.NewProfileService(repository.NewProfileRepository(db), userRepo)
	server.connectionService = service.NewConnectionService(repository.NewConnectionRepository(db), userRepo)

	return server, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())

	// Propagates request and user IDs into the user context for logging.
	app.Use(middleware.ContextMiddleware())
	app.Use(middleware.TracingMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected requests still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return models.RespondWithError(c, fiber.StatusTooManyRequests, &models.AppError{
				Code:    models.CodeRateLimitExceeded,
				Message: "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api")
	api.Get("/swagger/*", swagger.HandlerDefault)

	auth := api.Group("/auth")
	auth.Post("/signup", middleware.RateLimit(s.redis, 5, 10*time.Minute, "signup"), s.Signup)
	auth.Post("/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)

	feeds := api.Group("/feeds")
	feeds.Get("/", middleware.OptionalAuth, s.GetFeeds)
	feeds.Post("/", middleware.AuthRequired,
		middleware.RateLimit(s.redis, 10, time.Minute, "create_feed"), s.CreateFeed)
	// Specific /:id/:resource routes before the generic /:id routes.
	feeds.Get("/:id/comments", s.GetFeedComments)
	feeds.Post("/:id/comments", middleware.AuthRequired,
		middleware.RateLimit(s.redis, 20, time.Minute, "create_comment"), s.CreateFeedComment)
	feeds.Put("/:id/comments/:commentId", middleware.AuthRequired, s.UpdateFeedComment)
	feeds.Delete("/:id/comments/:commentId", middleware.AuthRequired, s.DeleteFeedComment)
	feeds.Post("/:id/likes", middleware.AuthRequired, s.CreateFeedLike)
	feeds.Delete("/:id/likes", middleware.AuthRequired, s.DeleteFeedLike)
	feeds.Get("/:id", middleware.OptionalAuth, s.GetFeed)
	feeds.Put("/:id", middleware.AuthRequired, s.UpdateFeed)
	feeds.Delete("/:id", middleware.AuthRequired, s.DeleteFeed)

	profiles := api.Group("/profiles")
	// /me routes must be registered before /:id.
	profiles.Get("/me", middleware.AuthRequired, s.GetMyProfile)
	profiles.Put("/me", middleware.AuthRequired, s.UpsertMyProfile)
	profiles.Get("/me/experiences", middleware.AuthRequired, s.GetMyExperiences)
	profiles.Post("/me/experiences", middleware.AuthRequired, s.CreateMyExperience)
	profiles.Put("/me/experiences/:experienceId", middleware.AuthRequired, s.UpdateMyExperience)
	profiles.Delete("/me/experiences/:experienceId", middleware.AuthRequired, s.DeleteMyExperience)
	profiles.Get("/me/websites", middleware.AuthRequired, s.GetMyWebsites)
	profiles.Post("/me/websites", middleware.AuthRequired, s.CreateMyWebsite)
	profiles.Get("/:id", s.GetProfile)

	users := api.Group("/users")
	users.Get("/me", middleware.AuthRequired, s.GetMe)
	users.Put("/me", middleware.AuthRequired, s.UpdateMe)
	users.Get("/:id/profile", s.GetUserProfile)

	connections := api.Group("/connections", middleware.AuthRequired)
	connections.Get("/", s.GetConnections)
	connections.Post("/:connectionId/accept", s.AcceptConnection)
	connections.Post("/:userId", middleware.RateLimit(s.redis, 10, 5*time.Minute, "connection_request"), s.RequestConnection)
	connections.Delete("/:connectionId", s.RemoveConnection)

	api.Get("/feature-flags", middleware.AuthRequired, s.GetFeatureFlags)

	api.Get("/ws/feed", middleware.WebSocketAuthRequired, s.FeedWebSocketUpgrade, s.FeedWebSocketHandler())
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	// Redis is optional: without it the API serves uncached reads.
	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// errorHandler renders errors that escape handlers, such as unknown routes.
func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code := models.CodeInternalError
		switch fe.Code {
		case fiber.StatusNotFound, fiber.StatusMethodNotAllowed:
			code = models.CodeNotFound
		case fiber.StatusBadRequest, fiber.StatusRequestEntityTooLarge, fiber.StatusUnprocessableEntity:
			code = models.CodeInvalidInput
		}
		return models.RespondWithError(c, fe.Code, &models.AppError{Code: code, Message: fe.Message})
	}

	middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
	return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
}

// NewApp builds the Fiber app with middleware and routes installed.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "feedhub API",
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
		ErrorHandler: errorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// Start wires the feed hub to Redis and serves HTTP until Shutdown.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	s.app = s.NewApp()

	if s.notifier != nil {
		go func() {
			if err := s.feedHub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
				middleware.Logger.Error("failed to start feed hub wiring", slog.String("error", err.Error()))
			}
		}()
	}

	middleware.Logger.Info("server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	// Stops the Redis subscriber.
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if err := s.feedHub.Shutdown(ctx); err != nil {
		middleware.Logger.Error("error shutting down feed hub", slog.String("error", err.Error()))
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
