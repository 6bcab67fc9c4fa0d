// Package server contains the HTTP handlers for the hearth API.
package server

import (
	"context"
	"fmt"
	"sync"
	"time"

	"hearth/internal/cache"
	"hearth/internal/config"
	"hearth/internal/database"
	"hearth/internal/mail"
	"hearth/internal/markdown"
	"hearth/internal/media"
	"hearth/internal/middleware"
	"hearth/internal/notifications"
	"hearth/internal/repository"
	"hearth/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	markdownCacheSize = 1024
	loginTokenTTL     = 30 * 24 * time.Hour
)

var (
	promOnce       sync.Once
	promMiddleware *fiberprometheus.FiberPrometheus
)

// initMetrics registers the HTTP collectors once per process.
func initMetrics() *fiberprometheus.FiberPrometheus {
	promOnce.Do(func() {
		promMiddleware = fiberprometheus.New("hearth-api")
	})
	return promMiddleware
}

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	settings       config.Settings
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	notifier       *notifications.Notifier

	accountService       *service.AccountService
	moderationService    *service.ModerationService
	postService          *service.PostService
	commentService       *service.CommentService
	pollService          *service.PollService
	likeService          *service.LikeService
	activityService      *service.ActivityService
	mediaService         *service.MediaService
	notificationService  *service.NotificationService
	passwordResetService *service.PasswordResetService
}

// NewServer connects to Postgres and Redis and builds a server from cfg.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	// Redis is optional; without it the cache and live notifications are off.
	redisClient := cache.InitRedis(cfg.RedisURL)

	return NewServerWithDeps(cfg, db, redisClient)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	middleware.InitMiddleware(cfg.JWTSecret)

	renderer, err := markdown.NewRenderer(markdownCacheSize)
	if err != nil {
		return nil, fmt.Errorf("markdown renderer: %w", err)
	}

	userRepo := repository.NewUserRepository(db)
	communityRepo := repository.NewCommunityRepository(db)
	postRepo := repository.NewPostRepository(db)
	pollRepo := repository.NewPollRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	forgotKeyRepo := repository.NewForgotPasswordKeyRepository(db)
	mediaRepo := repository.NewMediaRepository(db)
	likeRepo := repository.NewLikeRepository(db)

	// Interfaces stay nil when the backing service is not configured so the
	// engine reports email_not_configured / media_upload_not_configured.
	var mailer mail.Mailer
	if m := mail.NewSMTPMailer(cfg); m != nil {
		mailer = m
	}
	var store media.Store
	if cfg.MediaLocation != "" {
		fs, err := media.NewFSStore(cfg.MediaLocation)
		if err != nil {
			return nil, fmt.Errorf("media store: %w", err)
		}
		store = fs
	}

	notifier := notifications.NewNotifier(redisClient)
	notificationService := service.NewNotificationService(notificationRepo, notifier)

	return &Server{
		config:         cfg,
		settings:       cfg.Settings(),
		db:             db,
		redis:          redisClient,
		promMiddleware: initMetrics(),
		notifier:       notifier,

		accountService:       service.NewAccountService(userRepo),
		moderationService:    service.NewModerationService(userRepo, communityRepo, postRepo),
		postService:          service.NewPostService(userRepo, communityRepo, postRepo, renderer),
		commentService:       service.NewCommentService(userRepo, postRepo, commentRepo, notificationService, renderer),
		pollService:          service.NewPollService(userRepo, postRepo, pollRepo, communityRepo),
		likeService:          service.NewLikeService(userRepo, postRepo, commentRepo, likeRepo),
		activityService:      service.NewActivityService(userRepo, postRepo, commentRepo),
		mediaService:         service.NewMediaService(userRepo, mediaRepo, store),
		notificationService:  notificationService,
		passwordResetService: service.NewPasswordResetService(userRepo, forgotKeyRepo, mailer),
	}, nil
}

// NewApp builds the fiber app with middleware and routes installed.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:   "hearth",
		BodyLimit: s.config.MediaMaxUploadMB * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
			}
			return respondError(c, err)
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	app.Use(middleware.TracingMiddleware())

	// Context Middleware to propagate Request ID and User ID
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(s.promMiddleware.Middleware)
	}

	// Security headers
	app.Use(helmet.New(helmet.Config{
		CrossOriginResourcePolicy: "cross-origin",
	}))

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
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
	auth := middleware.AuthRequired
	optional := middleware.AuthOptional

	api.Post("/users", s.Register)
	api.Post("/logins", s.Login)
	api.Get("/logins/~current", auth, s.GetCurrentLogin)

	users := api.Group("/users")
	// Specific /me routes before generic /:id
	users.Get("/me", auth, s.GetMe)
	users.Patch("/me", auth, s.UpdateMe)
	users.Put("/me/password", auth, s.ChangePassword)
	users.Put("/me/avatar", auth, s.SetMyAvatar)
	users.Get("/:id/avatar", s.GetUserAvatar)
	users.Post("/:id/suspend", auth, s.SetUserSuspended)
	users.Get("/:id/things", s.ListUserThings)
	users.Get("/:id", s.GetUser)

	forgot := api.Group("/forgot_password/keys")
	forgot.Post("/", s.IssueForgotPasswordKey)
	forgot.Get("/:key", s.CheckForgotPasswordKey)
	forgot.Post("/:key/reset", s.ResetPassword)

	communities := api.Group("/communities")
	communities.Post("/", auth, s.CreateCommunity)
	communities.Patch("/:id", auth, s.EditCommunity)
	communities.Get("/:id/moderators", s.ListModerators)
	communities.Put("/:id/moderators/:userId", auth, s.AddModerator)
	communities.Delete("/:id/moderators/:userId", auth, s.RemoveModerator)
	communities.Get("/:id/posts", s.ListCommunityPosts)
	communities.Patch("/:id/posts/:postId", auth, s.ModeratePost)
	communities.Delete("/:id/posts/:postId", auth, s.RemoveCommunityPost)

	posts := api.Group("/posts")
	posts.Get("/", s.ListPosts)
	posts.Post("/", auth, s.CreatePost)
	posts.Get("/:id/href", s.GetPostHref)
	posts.Get("/:id/poll", optional, s.GetPollResults)
	posts.Post("/:id/poll/votes", auth, s.VotePoll)
	posts.Post("/:id/poll/close", auth, s.ClosePoll)
	posts.Get("/:id/replies", s.ListPostReplies)
	posts.Post("/:id/replies", auth, s.ReplyToPost)
	posts.Post("/:id/like", auth, s.LikePost)
	posts.Post("/:id/unlike", auth, s.UnlikePost)
	posts.Get("/:id", optional, s.GetPost)
	posts.Patch("/:id", auth, s.EditPost)
	posts.Delete("/:id", auth, s.DeletePost)

	comments := api.Group("/comments")
	comments.Post("/:id/replies", auth, s.ReplyToComment)
	comments.Post("/:id/like", auth, s.LikeComment)
	comments.Post("/:id/unlike", auth, s.UnlikeComment)
	comments.Get("/:id", optional, s.GetComment)
	comments.Patch("/:id", auth, s.EditComment)
	comments.Delete("/:id", auth, s.DeleteComment)

	mediaGroup := api.Group("/media")
	mediaGroup.Post("/", auth, s.UploadMedia)
	mediaGroup.Get("/:id", s.GetMedia)

	// The stream authenticates from the query string, so it sits outside the
	// header-authenticated group and is registered first.
	api.Get("/notifications/stream", s.requireStreamUpgrade, middleware.WebSocketAuthRequired, s.NotificationStream())

	notifs := api.Group("/notifications", auth)
	notifs.Get("/", s.ListNotifications)
	notifs.Post("/seen", s.MarkNotificationsSeen)
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

	// Redis is optional; its absence degrades features but not readiness.
	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
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

// Start builds the app and blocks serving on the configured port.
func (s *Server) Start() error {
	s.app = s.NewApp()
	middleware.Logger.Info("Server starting", "port", s.config.Port)
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", "error", err)
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", "error", cerr)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", "error", rerr)
		}
	}

	middleware.Logger.Info("Server shutdown complete")
	return nil
}
