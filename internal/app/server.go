package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"religious_services_backend/internal/auth"
	"religious_services_backend/internal/badge"
	"religious_services_backend/internal/config"
	"religious_services_backend/internal/content"
	"religious_services_backend/internal/filestorage"
	"religious_services_backend/internal/jobs"
	"religious_services_backend/internal/middleware"
	"religious_services_backend/internal/notification"
	es "religious_services_backend/internal/platform/elasticsearch"
	"religious_services_backend/internal/push"
	"religious_services_backend/internal/question"
	"religious_services_backend/internal/shared"
	"religious_services_backend/internal/synagogue"
	"religious_services_backend/internal/user"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handlers groups the HTTP handlers mounted under /api.
type Handlers struct {
	Auth         *auth.Handler
	User         *user.Handler
	Question     *question.Handler
	Notification *notification.Handler
	Badge        *badge.Handler
	Synagogue    *synagogue.Handler
	Content      *content.Handler
}

// Server struct holds the dependencies for the HTTP server.
type Server struct {
	httpServer *http.Server
	router     *gin.Engine
	cfg        *config.Config
	logger     *zap.Logger

	esClient   *es.ESClientWrapper
	cleanupJob *jobs.NotificationCleanupJob
	dispatcher *push.Dispatcher

	stopBackground context.CancelFunc
}

// NewServer creates a new instance of our application server.
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	handlers Handlers,
	tokenService shared.TokenService,
	blocklist shared.TokenBlocklist,
	users shared.UserLookup,
	storage *filestorage.FileStorageService,
	esClient *es.ESClientWrapper,
	cleanupJob *jobs.NotificationCleanupJob,
	dispatcher *push.Dispatcher,
) *Server {
	gin.SetMode(cfg.GinMode)
	router := gin.New()

	// --- Global Middleware ---
	router.Use(middleware.ZapLogger(logger, cfg))
	router.Use(middleware.ErrorHandler(logger))
	router.Use(gin.Recovery())
	router.Use(cors.New(corsConfig(cfg.CORSOrigins)))

	authMW := middleware.AuthMiddleware(tokenService, blocklist, users, logger.Named("AuthMiddleware"))
	optionalAuthMW := middleware.OptionalAuthMiddleware(tokenService, blocklist, users, logger.Named("AuthMiddleware"))
	adminMW := middleware.AdminMiddleware()

	// --- Setup Routes ---
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP", "message": "Religious services API is healthy!"})
	})
	if storage != nil {
		router.Static(storage.URLPrefix(), storage.Root())
	}

	api := router.Group("/api")
	handlers.Auth.RegisterRoutes(api, authMW)
	handlers.User.RegisterRoutes(api, authMW, adminMW)
	handlers.Question.RegisterRoutes(api, authMW, optionalAuthMW, adminMW)
	handlers.Notification.RegisterRoutes(api, authMW)
	handlers.Badge.RegisterRoutes(api, authMW)
	handlers.Synagogue.RegisterRoutes(api, authMW, adminMW)
	handlers.Content.RegisterRoutes(api, authMW, adminMW)

	addr := fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		cfg:        cfg,
		logger:     logger,
		esClient:   esClient,
		cleanupJob: cleanupJob,
		dispatcher: dispatcher,
	}
}

func corsConfig(origins []string) cors.Config {
	corsCfg := cors.DefaultConfig()
	corsCfg.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader}
	corsCfg.ExposeHeaders = []string{"Content-Length", "Content-Disposition", middleware.RequestIDHeader}

	allowAll := len(origins) == 0
	for _, o := range origins {
		if o == "*" {
			allowAll = true
		}
	}
	if allowAll {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = origins
		corsCfg.AllowCredentials = true
	}
	return corsCfg
}

// Router exposes the configured engine.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// startBackground prepares the search index and starts the cron job and the
// event dispatcher. Failures are logged; the API still serves without them.
func (s *Server) startBackground() {
	ctx, cancel := context.WithCancel(context.Background())
	s.stopBackground = cancel

	if s.esClient != nil {
		if err := es.CreateQuestionsIndexIfNotExists(ctx, s.esClient, s.cfg.QuestionsIndexName, s.logger); err != nil {
			s.logger.Error("Failed to create Elasticsearch questions index", zap.Error(err))
		}
	} else {
		s.logger.Info("Elasticsearch client not initialized, skipping index creation.")
	}

	if s.cleanupJob != nil {
		if err := s.cleanupJob.SetupAndStart(); err != nil {
			s.logger.Error("Failed to setup and start notification cleanup job", zap.Error(err))
		}
	}
	if s.dispatcher != nil {
		if err := s.dispatcher.Start(ctx); err != nil {
			s.logger.Error("Failed to start push dispatcher", zap.Error(err))
		}
	}
}

// Start runs the background workers and blocks serving HTTP until Shutdown.
func (s *Server) Start() error {
	s.startBackground()

	s.logger.Info("HTTP Server starting",
		zap.String("address", s.httpServer.Addr),
		zap.String("gin_mode", s.cfg.GinMode),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Error("Failed to start HTTP server", zap.Error(err))
		return err
	}
	s.logger.Info("HTTP Server stopped")
	return nil
}

// Shutdown stops accepting requests, then stops the background workers.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Attempting graceful server shutdown...")
	err := s.httpServer.Shutdown(ctx)

	if s.cleanupJob != nil {
		s.cleanupJob.Stop()
	}
	if s.stopBackground != nil {
		s.stopBackground()
	}
	if s.dispatcher != nil {
		s.dispatcher.Wait()
	}
	return err
}
