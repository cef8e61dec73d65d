package app

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/godilite/nps-insights/internal/config"
	handler "github.com/godilite/nps-insights/internal/grpc"
	"github.com/godilite/nps-insights/internal/repository"
	"github.com/godilite/nps-insights/internal/service"
	"github.com/godilite/nps-insights/pkg/cache"
	dbbuilder "github.com/godilite/nps-insights/pkg/database"
	grpcsrv "github.com/godilite/nps-insights/pkg/grpc/server"
)

const (
	shutdownTimeout = 10 * time.Second
	cacheKeyPrefix  = "nps:"
)

type App struct {
	logger     *zap.Logger
	dbPool     *sql.DB
	cache      *cache.Cache
	handlers   *handler.GRPCHandlers
	grpcServer *grpcsrv.Server
}

// NewApp wires storage, cache, reporting service and the gRPC server. extra
// server options are appended after the configured ones.
func NewApp(ctx context.Context, cfg *config.Config, logger *zap.Logger, extra ...grpcsrv.Option) (*App, error) {
	dbPool, err := dbbuilder.New(ctx,
		dbbuilder.WithDriver(cfg.DBDriver),
		dbbuilder.WithDataSource(cfg.DBPath),
		dbbuilder.WithMigrations(repository.Schema...),
	)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}
	logger.Info("Database pool initialized", zap.String("path", cfg.DBPath))

	repo := repository.NewFeedbackRepository(dbPool)
	if err := seedCalendar(ctx, repo, cfg.CalendarPath, logger); err != nil {
		dbPool.Close()
		return nil, err
	}

	cacheClient, err := cache.New(ctx,
		cache.WithAddress(cfg.RedisAddr),
		cache.WithPassword(cfg.RedisPassword),
		cache.WithDB(cfg.RedisDB),
		cache.WithKeyPrefix(cacheKeyPrefix),
	)
	if err != nil {
		dbPool.Close()
		return nil, fmt.Errorf("cache init failed: %w", err)
	}
	logger.Info("Cache client initialized", zap.String("addr", cfg.RedisAddr))

	reportService := service.NewReportService(repo, logger)

	grpcHandlers := handler.NewGRPCHandlers(reportService, cacheClient, logger, cfg.CacheTTL)

	opts := append([]grpcsrv.Option{
		grpcsrv.WithPort(cfg.GRPCPort),
		grpcsrv.WithLogger(logger),
		grpcsrv.WithReflection(cfg.GRPCReflectionEnabled),
		grpcsrv.WithLogging(true),
		grpcsrv.WithRecovery(true),
	}, extra...)
	grpcServer, err := grpcsrv.New(opts...)
	if err != nil {
		cacheClient.Close()
		dbPool.Close()
		return nil, fmt.Errorf("failed to create gRPC server: %w", err)
	}

	grpcServer.RegisterServiceWithHealth(handler.FeedbackReportingServiceName, func(s *grpc.Server) {
		handler.RegisterFeedbackReportingServer(s, grpcHandlers)
	})

	return &App{
		logger:     logger,
		dbPool:     dbPool,
		cache:      cacheClient,
		handlers:   grpcHandlers,
		grpcServer: grpcServer,
	}, nil
}

// seedCalendar stores the calendar file when no settings exist yet. Stored
// settings always win over the file.
func seedCalendar(ctx context.Context, repo *repository.FeedbackRepository, path string, logger *zap.Logger) error {
	if path == "" {
		return nil
	}

	_, found, err := repo.GetSettings(ctx)
	if err != nil {
		return fmt.Errorf("read settings: %w", err)
	}
	if found {
		logger.Info("Report settings already stored, calendar file ignored", zap.String("path", path))
		return nil
	}

	calendar, err := config.LoadCalendar(path)
	if err != nil {
		return err
	}
	if err := repo.SaveSettings(ctx, service.SettingsModel(calendar)); err != nil {
		return fmt.Errorf("seed settings: %w", err)
	}
	logger.Info("Report settings seeded from calendar",
		zap.String("path", path),
		zap.Int("month_ranges", len(calendar.MonthRanges)))
	return nil
}

// Run starts the application and blocks until ctx is done or a shutdown
// signal is received.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("application starting")

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.grpcServer.Start()
	<-ctx.Done()

	a.logger.Info("application shutting down")
	return a.Shutdown()
}

// Shutdown stops the server and releases the cache and database.
func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := a.grpcServer.Shutdown(ctx)
	if err != nil {
		a.logger.Warn("gRPC shutdown deadline exceeded", zap.Error(err))
	}
	a.handlers.Wait()

	if cerr := a.cache.Close(); cerr != nil {
		a.logger.Error("cache shutdown error", zap.Error(cerr))
	}
	if derr := a.dbPool.Close(); derr != nil {
		a.logger.Error("database shutdown error", zap.Error(derr))
	}

	if err == nil {
		a.logger.Info("graceful shutdown completed successfully")
	}
	_ = a.logger.Sync()
	return err
}
