package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	authhandler "github.com/thequantifier/quantifier/internal/domain/auth/handler"
	authrepo "github.com/thequantifier/quantifier/internal/domain/auth/repository"
	authservice "github.com/thequantifier/quantifier/internal/domain/auth/service"
	receiptshandler "github.com/thequantifier/quantifier/internal/domain/receipts/handler"
	receiptsrepo "github.com/thequantifier/quantifier/internal/domain/receipts/repository"
	receiptsservice "github.com/thequantifier/quantifier/internal/domain/receipts/service"
	recordshandler "github.com/thequantifier/quantifier/internal/domain/records/handler"
	recordsrepo "github.com/thequantifier/quantifier/internal/domain/records/repository"
	recordsservice "github.com/thequantifier/quantifier/internal/domain/records/service"
	"github.com/thequantifier/quantifier/internal/extract"
	"github.com/thequantifier/quantifier/internal/extract/pdftext"
	"github.com/thequantifier/quantifier/internal/ocr"
	"github.com/thequantifier/quantifier/pkg/config"
	"github.com/thequantifier/quantifier/pkg/cron"
	"github.com/thequantifier/quantifier/pkg/db"
	"github.com/thequantifier/quantifier/pkg/server"
	"github.com/thequantifier/quantifier/pkg/storage"
)

const migrationsDir = "db/migrations"

// Dependencies holds all application dependencies
type Dependencies struct {
	Config *config.Config
	DB     *db.DB
	Logger *slog.Logger

	// Repositories
	AuthRepo    authrepo.AuthRepository
	RecordRepo  recordsrepo.RecordRepository
	ReceiptRepo receiptsrepo.ReceiptRepository

	// Services
	TokenManager   authservice.TokenManager
	AuthService    *authservice.AuthService
	SearchIndex    *recordsservice.SearchIndex
	RecordsService *recordsservice.Service
	ReceiptService *receiptsservice.Service

	// Infrastructure
	FileStorage storage.Store
	Scheduler   *cron.Scheduler
	Server      *server.Server
}

// NewDependencies wires the full application graph from configuration.
func NewDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to init database: %w", err)
	}

	if err := deps.initRepositories(); err != nil {
		return nil, fmt.Errorf("failed to init repositories: %w", err)
	}

	if err := deps.initServices(); err != nil {
		return nil, fmt.Errorf("failed to init services: %w", err)
	}

	if err := deps.initServer(); err != nil {
		return nil, fmt.Errorf("failed to init server: %w", err)
	}

	logger.Info("all dependencies initialized successfully")

	return deps, nil
}

// initDatabase initializes the database connection and runs migrations
func (d *Dependencies) initDatabase() error {
	database, err := db.New(db.Config{
		DSN:             d.Config.Database.DSN(),
		MaxConns:        25,
		MinConns:        5,
		MaxConnLifetime: 5 * time.Minute,
	})
	if err != nil {
		return err
	}

	d.DB = database

	if err := d.DB.Migrate(migrationsDir); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	d.Logger.Info("database connected and migrations completed successfully")
	return nil
}

// initRepositories initializes all repository layer dependencies
func (d *Dependencies) initRepositories() error {
	d.AuthRepo = authrepo.NewPostgresAuthRepository(d.DB.Pool)
	d.RecordRepo = recordsrepo.NewPostgresRecordRepository(d.DB.Pool)
	d.ReceiptRepo = receiptsrepo.NewPostgresReceiptRepository(d.DB.Pool)

	d.Logger.Info("repositories initialized")
	return nil
}

// initServices initializes all service layer dependencies
func (d *Dependencies) initServices() error {
	if d.Config.Auth.JWTSecret == "" {
		return fmt.Errorf("jwt secret is required")
	}

	d.TokenManager = authservice.NewJWTManager(d.Config.Auth.JWTSecret, d.Config.Auth.TokenTTL)
	d.AuthService = authservice.NewAuthService(d.AuthRepo, d.TokenManager, d.Logger)

	searchIndex, err := recordsservice.NewSearchIndex()
	if err != nil {
		return fmt.Errorf("failed to init search index: %w", err)
	}
	d.SearchIndex = searchIndex
	d.RecordsService = recordsservice.NewService(d.RecordRepo, d.SearchIndex, d.Logger)

	fileStorage, err := storage.NewLocal(d.Config.Storage.LocalPath)
	if err != nil {
		return fmt.Errorf("failed to init file storage: %w", err)
	}
	d.FileStorage = fileStorage

	// OCR stays optional. Without a configured worker command image
	// uploads are stored but carry no recognized text.
	var ocrRunner ocr.Runner
	if d.Config.OCR.Command != "" {
		ocrRunner = ocr.NewExecRunner(ocr.Config{
			Command: d.Config.OCR.Command,
			Args:    d.Config.OCR.Args,
			Timeout: d.Config.OCR.Timeout,
		}, d.Logger)
	}

	extractor := extract.NewExtractor(pdftext.NewDecoder(), d.Logger)

	d.ReceiptService = receiptsservice.NewService(
		d.ReceiptRepo,
		d.FileStorage,
		ocrRunner,
		extractor,
		d.RecordsService,
		d.Logger,
	)

	d.Scheduler = cron.NewScheduler(d.FileStorage, d.ReceiptRepo, d.Config.Retention.CleanupSchedule, d.Logger)

	d.Logger.Info("services initialized")
	return nil
}

// initServer builds the HTTP chassis and mounts the domain routers.
func (d *Dependencies) initServer() error {
	srv := server.New(server.Config{
		Host:               d.Config.Server.Host,
		Port:               d.Config.Server.Port,
		AllowedOrigins:     d.Config.Server.AllowedOrigins,
		RateLimitPerSecond: d.Config.Server.RateLimitPerSecond,
		RateLimitBurst:     d.Config.Server.RateLimitBurst,
		MetricsEnabled:     d.Config.Observability.MetricsEnabled,
	}, d.Logger)

	requireAuth := authhandler.RequireAuth(d.AuthService)
	secureCookie := d.Config.Server.BaseURL != "" && !isLocalBaseURL(d.Config.Server.BaseURL)

	srv.Mount("/api/auth", authhandler.NewAuthHandler(d.AuthService, d.Config.Auth.TokenTTL, secureCookie).Routes(requireAuth))
	srv.Mount("/api/records", recordshandler.NewRecordsHandler(d.RecordsService).Routes(requireAuth))
	srv.Mount("/api/receipts", receiptshandler.NewReceiptsHandler(d.ReceiptService).Routes(requireAuth))

	d.Server = srv
	return nil
}

// rebuildSearchIndex loads existing records into the in-memory search
// index so search works across restarts.
func (d *Dependencies) rebuildSearchIndex(ctx context.Context) error {
	userIDs, err := d.RecordRepo.UserIDs(ctx)
	if err != nil {
		return fmt.Errorf("list record owners: %w", err)
	}
	return d.RecordsService.RebuildSearchIndex(ctx, userIDs)
}

// isLocalBaseURL reports whether the public base URL points at a dev
// host, in which case session cookies skip the Secure flag.
func isLocalBaseURL(baseURL string) bool {
	return strings.Contains(baseURL, "localhost") || strings.Contains(baseURL, "127.0.0.1")
}

// Cleanup closes all resources
func (d *Dependencies) Cleanup() {
	if d.SearchIndex != nil {
		if err := d.SearchIndex.Close(); err != nil {
			d.Logger.Warn("closing search index", slog.Any("error", err))
		}
	}
	if d.DB != nil {
		d.DB.Close()
	}
	d.Logger.Info("cleanup completed")
}
