// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"homestash/internal/ai"
	"homestash/internal/cache"
	"homestash/internal/config"
	"homestash/internal/database"
	"homestash/internal/middleware"
	"homestash/internal/models"
	"homestash/internal/notifications"
	"homestash/internal/observability"
	"homestash/internal/repository"
	"homestash/internal/service"
	"homestash/internal/storage"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
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
	itemRepo     repository.ItemRepository
	categoryRepo repository.CategoryRepository
	photoRepo    repository.PhotoRepository

	store    *storage.Store
	notifier notifications.Notifier
	hub      *notifications.Hub

	itemService     *service.ItemService
	photoService    *service.PhotoService
	exportService   *service.ExportService
	avatarService   *service.AvatarService
	searchService   *service.SearchService
	identifyService *service.IdentifyService
}

// NewServer creates a new server instance, connecting its own database and
// Redis. Use NewServerWithDeps when a bootstrap layer owns the connections.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	return NewServerWithDeps(cfg, db, cache.GetClient())
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	store, err := storage.NewStore(cfg.UploadDir)
	if err != nil {
		return nil, fmt.Errorf("storage initialization failed: %w", err)
	}

	middleware.InitMiddleware(cfg)

	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: fiberprometheus.New("homestash-api"),
		store:          store,
		userRepo:       repository.NewUserRepository(db),
		itemRepo:       repository.NewItemRepository(db),
		categoryRepo:   repository.NewCategoryRepository(db),
		photoRepo:      repository.NewPhotoRepository(db),
	}
	server.shutdownCtx, server.shutdownFn = context.WithCancel(context.Background())

	server.notifier = notifications.NewRedisNotifier(redisClient)
	server.hub = notifications.NewHub()
	server.hub.StartWiring(server.shutdownCtx, redisClient)

	var aiClient *ai.Client
	if cfg.AIConfigured() {
		aiClient = ai.NewClient(cfg.AIAPIURL, cfg.AIAPIKey, cfg.AIModel)
	}

	server.itemService = service.NewItemService(db, server.itemRepo, cfg, server.notifier)
	server.photoService = service.NewPhotoService(db, server.photoRepo, server.itemRepo, store, cfg)
	server.exportService = service.NewExportService(server.itemRepo)
	server.avatarService = service.NewAvatarService(server.userRepo, store, cfg)
	server.searchService = service.NewSearchService(server.itemRepo, aiClient, cfg)
	server.identifyService = service.NewIdentifyService(aiClient, cfg)

	return server, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	if s.config.TracingEnabled {
		app.Use(middleware.TracingMiddleware())
	}

	// Prometheus metrics
	if s.promMiddleware != nil {
		app.Use(s.promMiddleware.Middleware)
	}

	// Security headers
	app.Use(helmet.New())

	// Structured logging (after requestid so the request ID is available)
	app.Use(middleware.StructuredLogger())

	// CORS must run before middlewares that can short-circuit, so browser
	// clients still receive CORS headers on error responses.
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

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		// Never rate-limit preflight requests; they are handled by CORS.
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(models.Response{
				Success: false,
				Message: "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api/v1")
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Homestash Metrics Dashboard",
	}))

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/register", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "register"), s.Register)
	auth.Post("/login", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.Login)

	// Photo files are fetched by <img> tags that cannot attach headers.
	api.Get("/photos/:id/file", s.GetPhotoFile)

	// Protected routes
	protected := api.Group("", middleware.AuthRequired)

	users := protected.Group("/users")
	users.Get("/me", s.GetMyProfile)
	users.Put("/me", s.UpdateMyProfile)
	users.Post("/me/avatar", s.UploadAvatar)

	items := protected.Group("/items")
	items.Get("/", s.GetItems)
	items.Post("/", s.CreateItem)
	// Specific /:id/:resource routes BEFORE generic /:id routes
	items.Get("/:id/history", s.GetItemHistory)
	items.Post("/:id/photos", s.UploadPhotos)
	items.Get("/:id", s.GetItem)
	items.Put("/:id", s.UpdateItem)
	items.Delete("/:id", s.DeleteItem)

	photos := protected.Group("/photos")
	photos.Put("/:id", s.UpdatePhoto)
	photos.Delete("/:id", s.DeletePhoto)

	categories := protected.Group("/categories")
	categories.Get("/", s.GetCategories)
	categories.Post("/", s.CreateCategory)
	categories.Delete("/:id", s.DeleteCategory)

	export := protected.Group("/export")
	export.Get("/csv", s.ExportCSV)
	export.Get("/json", s.ExportJSON)

	aiRoutes := protected.Group("/ai")
	aiRoutes.Post("/identify", middleware.RateLimit(
		s.redis, 10, time.Minute, "ai_identify"), s.IdentifyPhoto)
	aiRoutes.Post("/search", middleware.RateLimit(
		s.redis, 20, time.Minute, "ai_search"), s.SemanticSearch)

	// Websocket event feed
	api.Get("/ws/events", middleware.AuthRequired, s.WebsocketHandler())
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests. Redis is optional, so
// only the database gates readiness.
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
	if dbStatus == "unhealthy" {
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

// generateToken creates a signed JWT for the given user.
func (s *Server) generateToken(user *models.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   strconv.FormatUint(uint64(user.ID), 10),
		"email": user.Email,
		"name":  user.Name,
		"iss":   middleware.TokenIssuer,
		"aud":   middleware.TokenAudience,
		"exp":   now.Add(24 * time.Hour).Unix(),
		"iat":   now.Unix(),
		"nbf":   now.Unix(),
		"jti":   uuid.New().String(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

// NewApp constructs the Fiber app with middleware and routes configured.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit: int(s.config.MaxFileSizeBytes()) * 2,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fiberErr, ok := err.(*fiber.Error); ok {
				return c.Status(fiberErr.Code).JSON(models.Response{
					Success: false,
					Message: fiberErr.Message,
				})
			}
			return models.RespondWithError(c, err)
		},
	})

	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	// Catch-all 404 in the uniform envelope
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(models.Response{
			Success: false,
			Message: "Route not found",
		})
	})

	s.app = app
	return app
}

// Start runs the HTTP server until it fails or is shut down.
func (s *Server) Start() error {
	app := s.NewApp()
	observability.Logger.Info("Server starting",
		slog.String("port", s.config.Port),
		slog.String("env", s.config.Env))
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully stops the server and its background wiring.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}
	if s.app != nil {
		return s.app.ShutdownWithContext(ctx)
	}
	return nil
}
