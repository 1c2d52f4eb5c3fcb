package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/tripdesk/tripdesk/internal/application/service"
	"github.com/tripdesk/tripdesk/internal/config"
	"github.com/tripdesk/tripdesk/internal/export"
	"github.com/tripdesk/tripdesk/internal/infrastructure/persistence/repository"
	httpiface "github.com/tripdesk/tripdesk/internal/interfaces/http"
	"github.com/tripdesk/tripdesk/pkg/database"
	"github.com/tripdesk/tripdesk/pkg/utils"
)

func main() {
	// Local overrides from .env, if present
	_ = gotenv.Load()

	// Load configuration
	cfg, err := config.Load(configPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting trip approval service",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port))

	// Initialize database
	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db.DB, logger)
	policyRepo := repository.NewPolicyRepository(db.DB, logger)
	tripRepo := repository.NewTripRepository(db.DB, logger)
	itemRepo := repository.NewItemRepository(db.DB, logger)
	violationRepo := repository.NewViolationRepository(db.DB, logger)
	approvalRepo := repository.NewApprovalRepository(db.DB, logger)
	txManager := repository.NewTxManager(db)

	svcLogger := kvLogger{sugar: logger.Sugar()}

	// Initialize application services
	tripService := service.NewTripService(
		tripRepo, itemRepo, violationRepo, approvalRepo, policyRepo, userRepo, txManager, svcLogger)
	decisionService := service.NewDecisionService(tripRepo, approvalRepo, txManager, svcLogger)
	analyticsService := service.NewAnalyticsService(tripRepo, itemRepo, violationRepo, userRepo, svcLogger)

	exporter := export.NewExcelExporter(cfg.Export.SheetName, cfg.Export.CompanyName, logger)

	// Initialize HTTP server
	server := httpiface.NewServer(
		httpiface.ServerConfig{
			Host:         cfg.Server.Host,
			Port:         cfg.Server.Port,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
		tripService,
		decisionService,
		analyticsService,
		userRepo,
		exporter,
		svcLogger,
	)

	// Run until interrupted, then shut down gracefully
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		logger.Error("Server exited with error", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("Server exited successfully")
}

func configPath() string {
	if path := os.Getenv("TRIPDESK_CONFIG"); path != "" {
		return path
	}
	return "configs/config.yaml"
}

// kvLogger adapts the zap sugared logger to the key/value logging
// interface the application layer expects.
type kvLogger struct {
	sugar *zap.SugaredLogger
}

func (l kvLogger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Infow(msg, keysAndValues...)
}

func (l kvLogger) Error(msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, keysAndValues...)
}
