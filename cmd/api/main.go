package main

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tripdocs/docs"
	"tripdocs/internal/config"
	"tripdocs/internal/database"
	"tripdocs/internal/database/migration"
	handlers "tripdocs/internal/http/handler"
	"tripdocs/internal/http/middleware"
	"tripdocs/internal/logger"
	"tripdocs/internal/otel"
	"tripdocs/internal/repository"
	"tripdocs/internal/repository/memory"
	"tripdocs/internal/repository/postgres"
	"tripdocs/internal/service"
	"tripdocs/internal/storage"
)

// @title Trip Documents API
// @version 1.0
// @description Offline copies of trip documents: tickets, passports, photos and notes.
// @BasePath /
func main() {
	cfg := config.Load()
	log := logger.New(os.Stdout, cfg.Location, cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "event", "startup", "status", "failed", "error", err.Error())
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, log)
	if err != nil {
		log.Error("failed to initialize tracing", "error", err.Error())
		os.Exit(1)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(sctx)
	}()

	var (
		docRepo  repository.DocumentRepository
		tripRepo repository.TripRepository
		db       *sql.DB
	)
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		store := memory.NewStore()
		docRepo, tripRepo = store.Documents(), store.Trips()
		log.Warn("using in-memory store, documents are lost on restart", "component", "database")
	default:
		db, err = database.NewPostgres(ctx, cfg.Database, log)
		if err != nil {
			log.Error("failed to connect to database", "component", "database", "error", err.Error())
			os.Exit(1)
		}
		defer db.Close()

		if err := migration.EnsureMigrated(db, log, cfg.Database.Host); err != nil {
			os.Exit(1)
		}
		docRepo, tripRepo = postgres.NewDocumentPostgres(db), postgres.NewTripPostgres(db)
	}

	if cfg.Cache.Size > 0 {
		cache := repository.NewDocumentCache(docRepo, cfg.Cache.Size, cfg.Cache.TTL)
		docRepo, tripRepo = cache, cache.Trips(tripRepo)
	}
	writer := repository.NewSingleWriter()
	docRepo, tripRepo = writer.Documents(docRepo), writer.Trips(tripRepo)

	var inbox storage.Storage
	if cfg.MinIO.Enabled() {
		inbox, err = storage.NewMinIO(cfg.MinIO)
		if err != nil {
			log.Error("failed to initialize import inbox", "component", "storage", "error", err.Error())
			os.Exit(1)
		}
	}

	docSvc := service.NewDocumentService(docRepo, tripRepo, service.Options{
		MaxFileSizeBytes:        cfg.Documents.MaxFileSizeBytes,
		MaxImageDimensionPx:     cfg.Documents.MaxImageDimensionPx,
		ImageCompressionQuality: cfg.Documents.ImageCompressionQuality,
	}, log)
	tripSvc := service.NewTripService(tripRepo, log)

	promMiddleware, err := middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer)
	if err != nil {
		log.Error("failed to register http metrics", "error", err.Error())
		os.Exit(1)
	}

	// Multipart overhead on top of the largest admissible file.
	app := fiber.New(handlers.AppConfig(int(cfg.Documents.MaxFileSizeBytes) + 1<<20))

	app.Use(otelfiber.Middleware())
	app.Use(middleware.RequestID())
	app.Use(middleware.RequestLogger(log))
	app.Use(promMiddleware.Handler())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	deps := handlers.Dependencies{
		Documents: docSvc,
		Trips:     tripSvc,
		Inbox:     inbox,
		Logger:    log,
	}
	if db != nil {
		deps.DB = db
	}
	handlers.RegisterRoutes(app, deps)

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(sctx); err != nil {
			log.Error("graceful shutdown failed", "error", err.Error())
		}
	}()

	log.Info("server starting",
		"event", "startup",
		"port", cfg.Port,
		"store_driver", cfg.StoreDriver,
		"import_enabled", inbox != nil,
		"max_file_size_bytes", cfg.Documents.MaxFileSizeBytes,
	)
	if err := app.Listen(":" + cfg.Port); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("failed to start server", "error", err.Error())
		os.Exit(1)
	}
}
