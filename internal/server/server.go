// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"log"
	"time"

	_ "campusnest/docs" // swagger docs
	"campusnest/internal/bootstrap"
	"campusnest/internal/config"
	"campusnest/internal/featureflags"
	"campusnest/internal/middleware"
	"campusnest/internal/models"
	"campusnest/internal/notifications"
	"campusnest/internal/repository"
	"campusnest/internal/service"
	"campusnest/internal/storage"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/gofiber/websocket/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// wireableHub is implemented by every WebSocket hub that can be wired to
// Redis pub/sub and gracefully shut down.
type wireableHub interface {
	Name() string
	StartWiring(ctx context.Context, n *notifications.Notifier) error
	Shutdown(ctx context.Context) error
}

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc
	store          *repository.Store
	notifier       *notifications.Notifier
	hub            *notifications.Hub
	chatHub        *notifications.ChatHub
	hubs           []wireableHub // all hubs for wiring/shutdown iteration
	featureFlags   *featureflags.Manager

	notificationService *service.NotificationService
	chatService         *service.ChatService
	listingService      *service.ListingService
	moderationService   *service.ModerationService
	userService         *service.UserService
	mediaService        *service.MediaService
}

// NewServer creates a new server instance with all dependencies
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	db, redisClient, err := bootstrap.InitRuntime(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewServerWithDeps(cfg, db, redisClient)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("campusnest-api"),
		store:          repository.NewStore(db),
		notifier:       notifications.NewNotifier(redisClient),
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
	}

	server.notificationService = service.NewNotificationService(server.store.Notifications, server.notifier, redisClient)
	server.chatService = service.NewChatService(server.store, server.notificationService, server.notifier, server.featureFlags)
	server.listingService = service.NewListingService(server.store, server.notificationService)
	server.moderationService = service.NewModerationService(server.store, server.notificationService, redisClient)
	server.userService = service.NewUserService(server.store.Users)
	server.mediaService = service.NewMediaService(
		storage.NewLocalStore(cfg.StorageDir, cfg.PublicBaseURL), cfg.MaxUploadBytes())

	// Initialize hubs if Redis is available
	if redisClient != nil {
		server.hub = notifications.NewHub()
		server.chatHub = notifications.NewChatHub()
		server.hubs = []wireableHub{server.hub, server.chatHub}
	}

	return server, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())

	// Propagate request ID and user ID into the UserContext
	app.Use(middleware.ContextMiddleware())

	if s.config.TracingEnabled {
		app.Use(middleware.TracingMiddleware())
	}

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New(helmet.Config{
		// Uploaded media is served to the web client from another origin.
		CrossOriginResourcePolicy: "cross-origin",
	}))

	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so error responses still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:3000,http://127.0.0.1:3000"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: origins != "*",
		MaxAge:           86400, // 24 hours
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || s.config.Env == "test"
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "CampusNest Metrics Dashboard",
	}))

	api.Get("/swagger/*", swagger.HandlerDefault)

	// Stored media
	app.Static("/uploads", s.config.StorageDir, fiber.Static{
		MaxAge: 86400,
	})

	api.Get("/config", s.GetClientConfig)

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/signup", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "signup"), s.Signup)
	auth.Post("/login", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.Login)
	auth.Post("/logout", s.Logout)

	// Public listing routes
	publicListings := api.Group("/listings")
	publicListings.Get("/", s.GetListings)
	publicListings.Post("/:id/view", middleware.RateLimit(
		s.redis, 30, time.Minute, "listing_view"), s.RecordListingView)
	publicListings.Get("/:id", s.GetListing)

	// Protected routes
	protected := api.Group("", s.AuthRequired())

	users := protected.Group("/users")
	users.Get("/me", s.GetMyProfile)
	users.Put("/me", s.UpdateMyProfile)
	users.Get("/:id", s.GetUserProfile)

	listings := protected.Group("/listings")
	listings.Post("/", middleware.RateLimit(
		s.redis, 10, time.Hour, "create_listing"), s.CreateListing)
	listings.Put("/:id", s.UpdateListing)
	listings.Delete("/:id", s.DeleteListing)

	protected.Get("/seller/listings", s.GetMyListings)

	chats := protected.Group("/chats")
	chats.Post("/", s.StartChat)
	chats.Get("/", s.GetChats)
	// Define specific /:id/:resource routes BEFORE generic /:id route
	chats.Get("/:id/messages", s.GetMessages)
	chats.Post("/:id/messages", middleware.RateLimit(
		s.redis, 15, time.Minute, "send_chat"), s.SendMessage)
	chats.Get("/:id", s.GetChat)

	notifs := protected.Group("/notifications")
	notifs.Get("/", s.GetNotifications)
	notifs.Get("/unread-count", s.GetUnreadCount)
	notifs.Post("/read-all", s.MarkAllNotificationsRead)
	notifs.Post("/:id/read", s.MarkNotificationRead)

	protected.Post("/reports", middleware.RateLimit(
		s.redis, 5, 10*time.Minute, "submit_report"), s.SubmitReport)

	protected.Post("/uploads/:bucket", middleware.RateLimit(
		s.redis, 30, 10*time.Minute, "upload"), s.UploadMedia)

	// Websocket endpoints
	ws := protected.Group("/ws")
	ws.Get("/", s.WebsocketHandler())              // Notifications for the caller
	ws.Get("/chats/:id", s.WebSocketChatHandler()) // New messages of one chat

	// Admin routes
	admin := protected.Group("/admin", s.AdminRequired())
	admin.Get("/stats", s.GetAdminStats)
	admin.Get("/logs", s.GetAdminLogs)
	admin.Get("/feature-flags", s.GetFeatureFlags)
	admin.Get("/users", s.GetAllUsers)
	admin.Post("/users/:id/ban", s.BanUser)
	admin.Post("/users/:id/unban", s.UnbanUser)
	admin.Get("/listings", s.GetAdminListings)
	admin.Delete("/listings/:id", s.AdminDeleteListing)
	admin.Get("/chats", s.GetAdminChats)

	reports := admin.Group("/reports")
	reports.Get("/", s.GetReports)
	reports.Post("/:id/review", s.ReviewReport)
	reports.Post("/:id/warn", s.WarnSeller)
	reports.Post("/:id/delete-listing", s.DeleteReportedListing)
	reports.Post("/:id/resolve", s.ResolveReport)
}

// NewApp builds a Fiber app with the error handler, middleware and routes installed.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:   "CampusNest API",
		BodyLimit: int(s.config.MaxUploadBytes()) + 1<<20,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
			}
			log.Printf("Error: %v", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})

	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// LivenessCheck handles liveness probe requests
// @Summary Liveness probe
// @Tags health
// @Produce json
// @Success 200 {object} object{status=string,time=string}
// @Router /health/live [get]
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
// @Summary Readiness probe
// @Tags health
// @Produce json
// @Success 200 {object} object{status=string,checks=object}
// @Failure 503 {object} object{status=string,checks=object}
// @Router /health/ready [get]
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	// Redis only carries caching and push, so its absence degrades but does not fail readiness.
	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	switch {
	case dbStatus == "unhealthy":
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	case redisStatus != "healthy":
		overallStatus = "degraded"
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

// GetClientConfig returns the settings web clients need before they log in.
// @Summary Client configuration
// @Tags config
// @Produce json
// @Success 200 {object} object{chatPollIntervalMs=int,realtimeChat=bool}
// @Router /config [get]
func (s *Server) GetClientConfig(c *fiber.Ctx) error {
	interval := s.config.ChatPollInterval
	if interval <= 0 {
		interval = 3 * time.Second
	}
	return c.JSON(fiber.Map{
		"chatPollIntervalMs": interval.Milliseconds(),
		"realtimeChat":       s.chatHub != nil && s.featureFlags.Enabled(featureflags.RealtimeChat, 0),
	})
}

// AdminRequired returns middleware that rejects non-admin users with 403.
// Must be placed after AuthRequired so that userID is available in locals.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals("userID").(uint)

		admin, err := s.store.Users.IsAdmin(c.UserContext(), userID)
		if err != nil {
			return s.respondServiceError(c, err)
		}
		if !admin {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Admin access required"))
		}

		return c.Next()
	}
}

// AuthRequired returns the authentication middleware. It accepts a Bearer
// token, or a token query parameter on WebSocket upgrades, and rejects revoked
// tokens and banned users.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := middleware.BearerToken(c)
		if tokenString == "" && websocket.IsWebSocketUpgrade(c) {
			// Browsers cannot set headers on a WebSocket handshake.
			tokenString = c.Query("token")
		}
		if tokenString == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		claims, err := middleware.ParseToken(s.config.JWTSecret, tokenString)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError(upperFirst(err.Error())))
		}

		if claims.JTI != "" && s.redis != nil {
			revoked, err := s.redis.Exists(c.UserContext(), blacklistKey(claims.JTI)).Result()
			if err == nil && revoked > 0 {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Token has been revoked"))
			}
		}

		user, err := s.store.Users.GetByID(c.UserContext(), claims.UserID)
		if err != nil {
			if models.ErrorCode(err) == models.CodeNotFound {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Account no longer exists"))
			}
			return s.respondServiceError(c, err)
		}
		if user.IsBanned {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Your account has been banned"))
		}

		c.Locals("userID", user.ID)
		c.Locals("user", user)
		// Sync to UserContext for logging and downstream services
		ctx := context.WithValue(c.UserContext(), middleware.UserIDKey, user.ID)
		c.SetUserContext(ctx)

		return c.Next()
	}
}

// Start starts the server
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	s.app = s.NewApp()

	// Wire all hubs to the Redis subscriber
	if s.notifier.Enabled() {
		for _, h := range s.hubs {
			go func() {
				if err := h.StartWiring(s.shutdownCtx, s.notifier); err != nil {
					log.Printf("failed to start %s wiring: %v", h.Name(), err)
				}
			}()
		}
	}

	log.Printf("Server starting on port %s...", s.config.Port)
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	// Stop the wiring goroutines
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Printf("error shutting down HTTP server: %v", err)
		}
	}

	for _, h := range s.hubs {
		if err := h.Shutdown(ctx); err != nil {
			log.Printf("error shutting down %s: %v", h.Name(), err)
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Printf("error closing sql DB: %v", cerr)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			log.Printf("error closing redis: %v", rerr)
		}
	}

	log.Println("Server shutdown complete")
	return nil
}
