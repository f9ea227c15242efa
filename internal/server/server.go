package server

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"easylist/internal/config"
	"easylist/internal/database"
	"easylist/internal/handler"
	"easylist/internal/middleware"
	"easylist/internal/notify"
	"easylist/internal/repository"
	"easylist/internal/sanitize"
	"easylist/internal/service"

	"github.com/cockroachdb/errors"
	"github.com/gin-contrib/cors"
	limits "github.com/gin-contrib/size"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

type Server struct {
	Engine *gin.Engine
	DB     *gorm.DB
	Config *config.Config
	Logger *slog.Logger

	dispatcher *notify.Dispatcher
}

func Init(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if err := database.Migrate(cfg, logger); err != nil {
		return nil, err
	}

	db, err := database.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("connected to database", slog.String("host", cfg.DBHost), slog.String("name", cfg.DBName))

	mailClient, err := notify.NewMailClient(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to configure mail client")
	}
	dispatcher := notify.NewDispatcher(
		notify.NewMailSender(mailClient, cfg.MailFrom),
		logger,
		notify.DispatcherConfig{
			Workers:   cfg.NotifyWorkers,
			QueueSize: cfg.NotifyQueueSize,
			Attempts:  cfg.NotifyAttempts,
			Delay:     time.Second,
		},
	)

	listService := service.NewListService(
		repository.NewListRepository(db),
		repository.NewUserRepository(db),
		sanitize.New(),
		dispatcher,
		logger,
		service.Options{
			ShareBaseURL:          cfg.ShareBaseURL,
			DeleteRequiresOwner:   cfg.DeleteRequiresOwner,
			TrustClientTimestamps: cfg.TrustClientTimestamps,
		},
	)

	return &Server{
		Engine:     NewRouter(cfg, logger, handler.NewListHandler(listService, logger)),
		DB:         db,
		Config:     cfg,
		Logger:     logger,
		dispatcher: dispatcher,
	}, nil
}

func corsOption(cfg *config.Config) cors.Config {
	return cors.Config{
		AllowOrigins: []string{cfg.CORSOrigin},
		AllowMethods: []string{
			http.MethodOptions, http.MethodHead, http.MethodGet,
			http.MethodPost, http.MethodPut, http.MethodDelete,
		},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
}

// NewRouter builds the engine with every route mounted.
func NewRouter(cfg *config.Config, logger *slog.Logger, lists *handler.ListHandler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))
	r.Use(cors.New(corsOption(cfg)))
	r.Use(limits.RequestSizeLimiter(cfg.MaxBodyBytes))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Reading a list works anonymously; private lists still need their owner's token.
	public := r.Group("/lists")
	public.Use(middleware.OptionalJWTAuth(cfg.JWTSecret))
	{
		public.GET("/:id", lists.GetByID)
	}

	authorized := r.Group("/lists")
	authorized.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))
	{
		authorized.GET("", lists.GetAll)
		authorized.POST("", lists.Create)
		authorized.GET("/:id/edit", lists.Edit)
		authorized.PUT("/:id", lists.Update)
		authorized.DELETE("/:id", lists.Delete)
		authorized.PUT("/:id/share", lists.Share)
		authorized.POST("/:id/copy", lists.Copy)
		authorized.GET("/:id/copy", lists.Copy)
		authorized.PUT("/:id/complete", lists.Complete)
	}

	return r
}

func (s *Server) Run() {
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()
	s.dispatcher.Start(workerCtx)

	srv := &http.Server{
		Addr:              ":" + s.Config.ServerPort,
		Handler:           s.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		s.Logger.Info("server running", slog.String("port", s.Config.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.Logger.Error("failed to listen", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	s.Logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		s.Logger.Error("server forced to shutdown", slog.String("error", err.Error()))
	}

	// queued notices are flushed before the process exits
	s.dispatcher.Close()

	if sqlDB, err := s.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	s.Logger.Info("server exited properly")
}
