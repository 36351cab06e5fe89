// Package server contains the HTTP handlers and page rendering for the site.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"yatube/internal/cache"
	"yatube/internal/config"
	"yatube/internal/database"
	"yatube/internal/events"
	"yatube/internal/featureflags"
	"yatube/internal/media"
	"yatube/internal/middleware"
	"yatube/internal/repository"
	"yatube/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/template/html/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps are the already-initialized infrastructure a Server is built from.
type Deps struct {
	DB     *gorm.DB
	Redis  *redis.Client
	Media  *media.Storage
	Events events.Publisher
}

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	media          *media.Storage
	publisher      events.Publisher
	app            *fiber.App
	views          *html.Engine
	promMiddleware *fiberprometheus.FiberPrometheus
	featureFlags   *featureflags.Manager

	userRepo repository.UserRepository

	feedService    *service.FeedService
	postService    *service.PostService
	commentService *service.CommentService
	followService  *service.FollowService
	authService    *service.AuthService
}

// NewServer connects to the database, Redis, media storage and the event
// broker described by cfg.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	if err := database.ApplySchema(context.Background(), db, cfg); err != nil {
		return nil, fmt.Errorf("schema migration failed: %w", err)
	}

	// Redis is optional: without it the page cache is in-memory and logout
	// cannot revoke tokens.
	rdb := cache.Connect(cfg.RedisURL)

	store, err := media.NewOSStorage(cfg.MediaRoot, int64(cfg.MaxUploadMB)<<20)
	if err != nil {
		return nil, err
	}

	publisher := newPublisher(cfg, featureflags.NewManager(cfg.FeatureFlags))
	return NewServerWithDeps(cfg, Deps{DB: db, Redis: rdb, Media: store, Events: publisher})
}

// newPublisher returns a Kafka publisher when brokers are configured and the
// events switch is on, and a no-op publisher otherwise.
func newPublisher(cfg *config.Config, flags *featureflags.Manager) events.Publisher {
	brokers := cfg.Brokers()
	if len(brokers) == 0 || !flags.Switch(featureflags.Events, true) {
		return events.Noop{}
	}
	return events.NewKafkaPublisher(events.KafkaConfig{
		Brokers: brokers,
		Topic:   cfg.KafkaTopic,
	})
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer owns the connections.
func NewServerWithDeps(cfg *config.Config, deps Deps) (*Server, error) {
	if deps.DB == nil {
		return nil, errors.New("database is required")
	}
	if deps.Media == nil {
		return nil, errors.New("media storage is required")
	}
	if deps.Events == nil {
		deps.Events = events.Noop{}
	}

	userRepo := repository.NewUserRepository(deps.DB)
	postRepo := repository.NewPostRepository(deps.DB)
	commentRepo := repository.NewCommentRepository(deps.DB)
	groupRepo := repository.NewGroupRepository(deps.DB)
	followRepo := repository.NewFollowRepository(deps.DB)

	s := &Server{
		config:         cfg,
		db:             deps.DB,
		redis:          deps.Redis,
		media:          deps.Media,
		publisher:      deps.Events,
		promMiddleware: middleware.InitMetrics("yatube"),
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
		userRepo:       userRepo,
	}
	s.feedService = service.NewFeedService(postRepo, groupRepo, userRepo, followRepo, cfg.PostsPerPage)
	s.postService = service.NewPostService(postRepo, commentRepo, groupRepo, deps.Media, deps.Events, deps.Redis)
	s.commentService = service.NewCommentService(commentRepo, postRepo, deps.Events)
	s.followService = service.NewFollowService(followRepo, userRepo, deps.Events)
	s.authService = service.NewAuthService(userRepo, cfg.JWTSecret, cfg.JWTTTL, deps.Redis)

	engine, err := newViews(cfg.MediaURL)
	if err != nil {
		return nil, err
	}
	s.views = engine
	return s, nil
}

// App builds the Fiber application with middleware and routes installed.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}

	app := fiber.New(fiber.Config{
		AppName:      "Yatube",
		Views:        s.views,
		ErrorHandler: s.ErrorHandler,
		BodyLimit:    (s.config.MaxUploadMB + 1) << 20,
		ReadTimeout:  30 * time.Second,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())

	// Context Middleware to propagate Request ID and trace ID to services
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(s.promMiddleware.Middleware)
	}

	// Templates load images from MEDIA_URL and Bootstrap from a CDN.
	app.Use(helmet.New(helmet.Config{
		ContentSecurityPolicy: "default-src 'self'; style-src 'self' https://cdn.jsdelivr.net; img-src 'self' data:",
	}))

	app.Use(middleware.StructuredLogger())

	app.Use(cors.New(cors.Config{
		AllowOrigins:     s.config.AllowedOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Every page knows who is looking at it.
	app.Use(s.OptionalAuth())
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	app.Use(strings.TrimSuffix(s.config.MediaURL, "/"), filesystem.New(filesystem.Config{
		Root:   s.media.FileSystem(),
		MaxAge: 3600,
	}))

	auth := app.Group("/auth")
	auth.Get("/signup/", s.SignupPage)
	auth.Post("/signup/", s.rateLimit(3, 10*time.Minute, "signup"), s.Signup)
	auth.Get("/login/", s.LoginPage)
	auth.Post("/login/", s.rateLimit(10, 5*time.Minute, "login"), s.Login)
	auth.Get("/logout/", s.Logout)

	app.Get("/", s.indexCache(), s.Index)
	app.Get("/group/:slug/", s.GroupPosts)
	app.Get("/profile/:username/", s.Profile)
	app.Get("/posts/:id/", s.PostDetail)

	requireAuth := s.AuthRequired()
	app.Get("/create/", requireAuth, s.CreatePostPage)
	app.Post("/create/", requireAuth, s.CreatePost)
	app.Get("/posts/:id/edit/", requireAuth, s.EditPostPage)
	app.Post("/posts/:id/edit/", requireAuth, s.EditPost)
	app.Post("/posts/:id/comment/", requireAuth, s.AddComment)
	app.Get("/follow/", requireAuth, s.FollowIndex)
	app.Get("/profile/:username/follow/", requireAuth, s.ProfileFollow)
	app.Get("/profile/:username/unfollow/", requireAuth, s.ProfileUnfollow)
}

// rateLimit throttles form submissions outside development and tests.
func (s *Server) rateLimit(limit int, window time.Duration, name string) fiber.Handler {
	switch s.config.Env {
	case "test", "development":
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	return middleware.RateLimit(s.redis, limit, window, name, middleware.FailOpen)
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
	if err := database.Ping(ctx, s.db); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "disabled"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

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
		"features": s.featureFlags.Snapshot(0),
		"time":     time.Now(),
	})
}

// Start starts the server
func (s *Server) Start() error {
	app := s.App()
	middleware.Logger.Info("server starting", slog.String("port", s.config.Port))
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			middleware.Logger.Error("error closing event publisher", slog.String("error", err.Error()))
		}
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
