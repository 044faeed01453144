package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/sync/errgroup"

	"document-ingestion-service/config"
	_ "document-ingestion-service/docs"
	"document-ingestion-service/internal/handler"
	"document-ingestion-service/internal/metrics"
	"document-ingestion-service/internal/repository"
	"document-ingestion-service/internal/security"
	"document-ingestion-service/internal/service"
	"document-ingestion-service/internal/util"
	"document-ingestion-service/migrations"
)

const shutdownTimeout = 10 * time.Second

// @title Document ingestion service
// @version 1.0
// @description Idempotent upload, confirmation and lifecycle of compliance documents

// @host localhost:8080

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
func main() {
	configPath := flag.String("config", envOr("DOCS_CONFIG", "config.yaml"), "path to the yaml config")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("service stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return util.LogError("load config", err)
	}
	util.SetupLogger(cfg.Logging.Level, cfg.Logging.Format)

	db, err := config.SetupDatabase(&cfg.DatabaseConfig)
	if err != nil {
		return util.LogError("connect database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			slog.Warn("close database", "error", err)
		}
	}()

	if cfg.DatabaseConfig.AutoMigrate {
		if err := migrations.Up(ctx, db.DB.DB); err != nil {
			return util.LogError("apply migrations", err)
		}
	}

	redisClient, err := config.SetupRedis(&cfg.RedisConfig)
	if err != nil {
		return util.LogError("connect redis", err)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			slog.Warn("close redis", "error", err)
		}
	}()

	appMetrics := metrics.New()

	docRepo := repository.NewDocumentRepository(db)
	idempotencyRepo := repository.NewIdempotencyRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, time.Duration(cfg.TTL.CacheSeconds)*time.Second)

	s3Service, err := service.NewS3Service(ctx, &cfg.S3Config, appMetrics)
	if err != nil {
		return util.LogError("create storage gateway", err)
	}

	idempotencyService := service.NewIdempotencyService(idempotencyRepo, appMetrics)
	docService := service.NewDocumentService(docRepo, cacheRepo, idempotencyService, s3Service, cfg.Ingestion(), appMetrics)
	reconciler := service.NewStorageReconciler(docRepo, s3Service, cfg.Reconciler, appMetrics)

	jwtService := security.NewJWTService(&cfg.JWT)
	docHandler := handler.NewDocumentHandler(docService)

	srv, router := config.SetupServer(cfg.ServerAddr)
	router.Use(appMetrics.Middleware)

	router.Get("/healthz", healthHandler(db, redisClient))
	router.Handle("/metrics", appMetrics.Handler())
	router.Get("/swagger/*", httpSwagger.WrapHandler)

	setupDocumentRoutes(router, docHandler, jwtService, cfg)
	setupAdminRoutes(router, docHandler, jwtService, cfg)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return runServer(groupCtx, srv)
	})
	if cfg.Reconciler.Enabled {
		group.Go(func() error {
			return reconciler.Run(groupCtx)
		})
	}

	return group.Wait()
}

func setupDocumentRoutes(r chi.Router, h *handler.DocumentHandler, jwtService *security.JWTService, cfg *config.AppConfig) {
	r.Route("/documents", func(r chi.Router) {
		r.Use(security.JWTMiddleware(jwtService, cfg.Admin.AdminTokenHash))
		r.Get("/", h.ListMyDocuments)
		r.Post("/upload-url", h.RequestUploadURL)

		r.Route("/{id}", func(r chi.Router) {
			r.Post("/complete", h.CompleteUpload)
			r.Get("/download-url", h.GetDownloadURL)
			r.Delete("/", h.DeleteMyDocument)
		})
	})
}

func setupAdminRoutes(r chi.Router, h *handler.DocumentHandler, jwtService *security.JWTService, cfg *config.AppConfig) {
	r.Route("/admin/documents/{id}", func(r chi.Router) {
		r.Use(security.JWTMiddleware(jwtService, cfg.Admin.AdminTokenHash))
		r.Use(security.RequireAdmin)
		r.Delete("/", h.DeleteDocumentAsAdmin)
		r.Post("/review", h.ReviewDocument)
	})
}

func healthHandler(db *config.Database, redisClient *config.RedisClient) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := map[string]string{"database": "ok", "redis": "ok"}
		code := http.StatusOK
		if err := db.PingContext(ctx); err != nil {
			status["database"] = err.Error()
			code = http.StatusServiceUnavailable
		}
		if err := redisClient.Client.Ping(ctx).Err(); err != nil {
			status["redis"] = err.Error()
			code = http.StatusServiceUnavailable
		}
		util.WriteJSON(w, code, status)
	}
}

// runServer : serves until ctx is cancelled, then drains in-flight requests
func runServer(ctx context.Context, server *http.Server) error {
	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("server started", "addr", server.Addr)
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return util.LogError("server failed", err)
		}
		return nil
	case <-ctx.Done():
		slog.Info("shutdown requested")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return util.LogError("server shutdown", err)
	}
	slog.Info("server stopped")
	return nil
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
