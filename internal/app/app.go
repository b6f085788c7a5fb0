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
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/godilite/perf-dashboard/internal/config"
	"github.com/godilite/perf-dashboard/internal/dataset"
	handler "github.com/godilite/perf-dashboard/internal/grpc"
	"github.com/godilite/perf-dashboard/internal/loader"
	"github.com/godilite/perf-dashboard/internal/repository"
	"github.com/godilite/perf-dashboard/internal/service"
	"github.com/godilite/perf-dashboard/internal/telemetry"
	"github.com/godilite/perf-dashboard/internal/web"
	"github.com/godilite/perf-dashboard/pkg/cache"
	dbbuilder "github.com/godilite/perf-dashboard/pkg/database"
	grpcsrv "github.com/godilite/perf-dashboard/pkg/grpc/server"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	logger     *zap.Logger
	dbPool     *sql.DB
	cache      cache.Cacher
	store      *dataset.Store
	grpcServer *grpcsrv.Server
	httpServer *web.Server
}

// loadObserver forwards load outcomes to the metrics and flips the gRPC
// health status of the report service.
type loadObserver struct {
	metrics *telemetry.Metrics
	server  *grpcsrv.Server
}

func (o loadObserver) ObserveLoad(ok bool, elapsed time.Duration, records int) {
	o.metrics.ObserveLoad(ok, elapsed, records)
	status := healthpb.HealthCheckResponse_SERVING
	if !ok {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	o.server.SetServiceHealth(handler.ServiceName, status)
}

func NewApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (_ *App, err error) {
	a := &App{logger: logger}
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	a.dbPool, err = dbbuilder.New(
		dbbuilder.WithDriver(cfg.DBDriver),
		dbbuilder.WithDataSource(cfg.DBPath),
		dbbuilder.WithMaxOpenConns(cfg.DBMaxOpenConns),
		dbbuilder.WithMaxIdleConns(cfg.DBMaxIdleConns),
		dbbuilder.WithConnMaxLifetime(cfg.DBConnMaxLifetime),
		dbbuilder.WithConnMaxIdleTime(cfg.DBConnMaxIdleTime),
	)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}
	logger.Info("Database pool initialized", zap.String("path", cfg.DBPath))

	repo := repository.NewPerformanceRepository(a.dbPool, cfg.DBDriver)
	if err = repo.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("database migration failed: %w", err)
	}

	a.cache = cache.Nop{}
	if cfg.CacheEnabled {
		var c *cache.Cache
		c, err = cache.New(ctx,
			cache.WithAddress(cfg.RedisAddr),
			cache.WithPassword(cfg.RedisPassword),
			cache.WithDB(cfg.RedisDB),
			cache.WithPrefix(cfg.RedisPrefix),
		)
		if err != nil {
			return nil, fmt.Errorf("cache init failed: %w", err)
		}
		a.cache = c
		logger.Info("Cache client initialized", zap.String("addr", cfg.RedisAddr))
	} else {
		logger.Info("Cache disabled")
	}

	metrics := telemetry.New()
	readThrough := cache.NewReadThrough(a.cache, cfg.CacheTTL, logger, cache.WithObserver(metrics))

	a.grpcServer, err = grpcsrv.New(
		grpcsrv.WithPort(cfg.GRPCPort),
		grpcsrv.WithLogger(logger),
		grpcsrv.WithReflection(cfg.GRPCReflectionEnabled),
		grpcsrv.WithLogging(true),
		grpcsrv.WithRecovery(cfg.GRPCRecoveryEnabled),
		grpcsrv.WithUnaryInterceptors(metrics.UnaryServerInterceptor()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC server: %w", err)
	}

	a.store = dataset.NewStore(cfg.DataFile, loader.New(logger), repo,
		dataset.WithLogger(logger),
		dataset.WithObserver(loadObserver{metrics: metrics, server: a.grpcServer}),
	)

	perfService := service.NewPerformanceService(repo, a.store, logger)

	grpcHandlers := handler.NewGRPCHandlers(perfService, readThrough, logger)
	a.grpcServer.RegisterServiceWithHealth(handler.ServiceName, func(s *grpc.Server) {
		handler.RegisterPerformanceReportServer(s, grpcHandlers)
	})

	webHandler := web.NewHandler(perfService,
		web.WithCache(readThrough),
		web.WithLogger(logger),
		web.WithMetrics(metrics.Handler(), metrics),
	)
	a.httpServer, err = web.NewServer(fmt.Sprintf(":%d", cfg.HTTPPort), webHandler.Routes(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP server: %w", err)
	}

	// A bad workbook must not keep the process down: requests report the
	// load error until the file is fixed.
	if v, loadErr := a.store.Ensure(ctx); loadErr != nil {
		logger.Error("initial dataset load failed", zap.String("file", a.store.Path()), zap.Error(loadErr))
	} else {
		logger.Info("Dataset loaded",
			zap.String("file", v.Path),
			zap.Int("records", v.Records),
			zap.Strings("sheets", v.Sheets))
	}

	return a, nil
}

// Run starts the application and blocks until a shutdown signal is received.
func (a *App) Run() error {
	a.logger.Info("application starting")

	a.grpcServer.Start()
	a.httpServer.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	a.logger.Info("application shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.httpServer.Shutdown(ctx); err != nil {
		a.logger.Error("HTTP shutdown error", zap.Error(err))
	}
	if err := a.grpcServer.Shutdown(ctx); err != nil {
		a.logger.Error("gRPC shutdown error", zap.Error(err))
	}

	a.close()

	select {
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			a.logger.Warn("shutdown completed but deadline exceeded")
		}
	default:
		a.logger.Info("graceful shutdown completed successfully")
	}

	_ = a.logger.Sync()
	return nil
}

func (a *App) close() {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error("cache shutdown error", zap.Error(err))
		}
	}
	if a.dbPool != nil {
		if err := a.dbPool.Close(); err != nil {
			a.logger.Error("database shutdown error", zap.Error(err))
		}
	}
}
