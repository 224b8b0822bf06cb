package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/coupon-pdf-tools/internal/archive"
	"github.com/fairyhunter13/coupon-pdf-tools/internal/config"
	"github.com/fairyhunter13/coupon-pdf-tools/internal/handler"
	"github.com/fairyhunter13/coupon-pdf-tools/internal/pdftext"
	"github.com/fairyhunter13/coupon-pdf-tools/internal/rename"
	"github.com/fairyhunter13/coupon-pdf-tools/internal/repository"
	"github.com/fairyhunter13/coupon-pdf-tools/internal/service"
	"github.com/fairyhunter13/coupon-pdf-tools/internal/stamp"
	"github.com/fairyhunter13/coupon-pdf-tools/internal/validator"
	"github.com/fairyhunter13/coupon-pdf-tools/pkg/database"
)

// folioStore is a folio counter that can also report its health.
type folioStore interface {
	service.FolioCounter
	handler.Pinger
}

func main() {
	// Load configuration first
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Initialize zerolog based on configuration
	initLogger(cfg)

	// Create context for startup
	ctx := context.Background()

	store, closeStore, err := openFolioStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("store", cfg.Folio.Store).Msg("failed to open folio store")
	}

	// Initialize Fiber with production-ready configuration
	app := fiber.New(fiber.Config{
		AppName:      "Coupon PDF Tools",
		ReadTimeout:  60 * time.Second,  // uploads can be large
		WriteTimeout: 60 * time.Second,  // renamed archive is streamed back whole
		IdleTimeout:  120 * time.Second, // Max time for keep-alive connections
		BodyLimit:    cfg.Server.BodyLimitBytes(),
	})

	// Middleware
	app.Use(recover.New())
	app.Use(requestid.New()) // Adds X-Request-ID header to all requests
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		ExposeHeaders: fmt.Sprintf("Content-Disposition, %s, %s, %s",
			handler.HeaderRenamedCount, handler.HeaderAlreadyNamedCount, handler.HeaderIssueCount),
	}))

	// Initialize validator
	validate := validator.New()

	// Coupon components (layered architecture)
	renderer := stamp.NewRenderer(cfg.Coupon.BaseImagePath, cfg.Coupon.FontPath, stamp.DefaultLayout(), log.Logger)
	couponService := service.NewCouponService(store, renderer, log.Logger)
	couponHandler := handler.NewCouponHandler(couponService, validate)

	// Rename components
	engine := rename.NewEngine(pdftext.New(log.Logger), nil, log.Logger)
	archiveService := service.NewArchiveService(engine, cfg.Rename.WorkDir, archive.Limits{
		MaxEntries: cfg.Rename.MaxEntries,
		MaxBytes:   cfg.Rename.MaxExtractBytes(),
	}, log.Logger)
	renameHandler := handler.NewRenameHandler(archiveService)

	// Health handler
	healthHandler := handler.NewHealthHandler(store)
	app.Get("/health", healthHandler.Check)

	// API routes
	app.Post("/api/generateCoupon", couponHandler.GenerateCoupon)
	app.Post("/api/renamePDF", renameHandler.RenamePDF)

	// Start server with graceful shutdown
	go func() {
		log.Info().
			Str("port", cfg.Server.Port).
			Str("folio_store", cfg.Folio.Store).
			Msg("starting server")
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
	log.Info().Int("timeout_seconds", cfg.Server.ShutdownTimeout).Msg("shutting down server...")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer shutdownCancel()

	// Shutdown server (waits for in-flight requests)
	log.Info().Msg("waiting for in-flight requests to complete...")
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	// Close the folio store AFTER server shutdown (even if shutdown timed out)
	log.Info().Msg("closing folio store...")
	closeStore()
	log.Info().Msg("server stopped")
}

// openFolioStore builds the configured folio counter and returns a function
// that releases it.
func openFolioStore(ctx context.Context, cfg *config.Config) (folioStore, func(), error) {
	switch cfg.Folio.Store {
	case config.FolioStorePostgres:
		// Initialize database pool with retry
		pool, err := database.NewPool(ctx, cfg.DB.DSN(), 5)
		if err != nil {
			return nil, nil, err
		}
		repo := repository.NewFolioRepository(pool)
		if err := repo.Seed(ctx, cfg.Folio.Start); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return repo, pool.Close, nil

	case config.FolioStoreSQLite:
		db, err := database.OpenSQLite(ctx, cfg.Folio.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		repo := repository.NewSQLiteFolioRepository(db)
		if err := repo.Seed(ctx, cfg.Folio.Start); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return repo, func() {
			if err := db.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close sqlite database")
			}
		}, nil

	default:
		log.Warn().Int64("start", cfg.Folio.Start).Msg("using in-memory folio counter, folios reset on restart")
		return repository.NewMemoryFolioCounter(cfg.Folio.Start), func() {}, nil
	}
}

// initLogger configures zerolog based on the application configuration.
func initLogger(cfg *config.Config) {
	// Set log level
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	// Configure output format
	if cfg.Log.Pretty {
		// Human-readable output for development
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).
			With().Timestamp().Logger()
	} else {
		// JSON output for production
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
}
