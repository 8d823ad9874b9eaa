// Package container provides dependency injection using Uber FX
package container

import (
	"context"
	"fmt"
	"time"

	"github.com/embedora/embedora/internal/application/delivery"
	"github.com/embedora/embedora/internal/application/monitor"
	"github.com/embedora/embedora/internal/domain/telemetry"
	"github.com/embedora/embedora/internal/infrastructure/cache"
	"github.com/embedora/embedora/internal/infrastructure/cdn"
	"github.com/embedora/embedora/internal/infrastructure/config"
	"github.com/embedora/embedora/internal/infrastructure/http/handlers"
	"github.com/embedora/embedora/internal/infrastructure/http/server"
	"github.com/embedora/embedora/internal/infrastructure/monitoring"
	"github.com/embedora/embedora/internal/infrastructure/optimize"
	gormRepo "github.com/embedora/embedora/internal/infrastructure/persistence/gorm"
	"github.com/embedora/embedora/internal/infrastructure/persistence/memory"
	"github.com/embedora/embedora/internal/infrastructure/persistence/postgres"
	"github.com/embedora/embedora/internal/infrastructure/persistence/sqlite"
	"github.com/embedora/embedora/internal/ports/inbound"
	"github.com/embedora/embedora/internal/ports/outbound"
	"github.com/embedora/embedora/pkg/healthcheck"
	"github.com/embedora/embedora/pkg/logger"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// Module provides all dependency injection modules
var Module = fx.Options(
	ConfigModule,
	LoggerModule,
	DatabaseModule,
	CacheModule,
	EdgeModule,
	RepositoryModule,
	ServiceModule,
	HTTPModule,
	LifecycleModule,
)

// ConfigModule provides configuration
var ConfigModule = fx.Provide(
	func() (*config.Config, error) {
		return config.Load("")
	},
)

// LoggerModule provides logging
var LoggerModule = fx.Provide(
	func(cfg *config.Config) (*zap.Logger, error) {
		return logger.New(logger.Config{
			Level:       cfg.App.LogLevel,
			Format:      cfg.App.LogFormat,
			Development: cfg.App.Debug,
		})
	},
)

// DatabaseModule provides the relational store. Postgres is the production
// driver; anything else falls back to SQLite with demo seed data.
var DatabaseModule = fx.Provide(
	func(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
		if cfg.Database.Driver == "postgres" {
			db, err := postgres.Connect(cfg, log)
			if err != nil {
				return nil, err
			}
			if cfg.Database.AutoMigrate {
				if err := migrate(db); err != nil {
					return nil, fmt.Errorf("failed to migrate database: %w", err)
				}
			}
			return db, nil
		}

		logLevel := gormLogger.Silent
		if cfg.App.Debug {
			logLevel = gormLogger.Info
		}

		dbPath := ""
		if cfg.Database.Database != "" {
			dbPath = cfg.Database.Database + ".db"
		}

		db, err := sqlite.SetupDatabase(dbPath, logLevel)
		if err != nil {
			return nil, fmt.Errorf("failed to setup sqlite database: %w", err)
		}
		if err := sqlite.SeedDatabase(db); err != nil {
			log.Warn("failed to seed database", zap.Error(err))
		}

		log.Info("connected to sqlite database",
			zap.String("path", dbPath),
			zap.Bool("in_memory", dbPath == ""),
		)
		return db, nil
	},
)

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&gormRepo.WidgetConfigModel{},
		&gormRepo.BrandConfigModel{},
		&gormRepo.ContentItemModel{},
		&gormRepo.PerformanceMetricModel{},
		&gormRepo.AlertRuleModel{},
	)
}

// CacheModule provides the cache store, key builder, and codec. Redis is
// used when configured; an in-memory store otherwise.
var CacheModule = fx.Provide(
	func(cfg *config.Config, log *zap.Logger) (outbound.CacheStore, error) {
		if cfg.Redis.Host == "" {
			log.Info("using in-memory cache store")
			return memory.NewCacheStore(), nil
		}
		return cache.NewRedisStore(&cfg.Redis, &cfg.Cache, log)
	},
	func(cfg *config.Config) *cache.KeyBuilder {
		return cache.NewKeyBuilder(cfg.Cache.KeyPrefix)
	},
	func(cfg *config.Config) *cache.Codec {
		return cache.NewCodec(cfg.Cache.CompressionThreshold)
	},
)

// EdgeModule provides the CDN policy and the optimization engine
var EdgeModule = fx.Provide(
	func(cfg *config.Config) *cdn.Policy {
		return cdn.NewPolicy(cfg.CDN)
	},
	optimize.NewEngine,
)

// RepositoryModule provides repository implementations
var RepositoryModule = fx.Provide(
	gormRepo.NewWidgetConfigRepository,
	gormRepo.NewBrandConfigRepository,
	gormRepo.NewContentRepository,
	gormRepo.NewMetricRepository,
	gormRepo.NewAlertRuleRepository,
)

// ServiceModule provides application services
var ServiceModule = fx.Provide(
	func(
		metrics outbound.MetricRepository,
		rules outbound.AlertRuleRepository,
		store outbound.CacheStore,
		keys *cache.KeyBuilder,
		cfg *config.Config,
		log *zap.Logger,
	) inbound.MonitorService {
		return monitor.NewService(metrics, rules, store, keys, cfg.Monitoring, log)
	},
	delivery.NewService,
)

// HTTPModule provides the HTTP server, handlers, and health checks
var HTTPModule = fx.Provide(
	monitoring.NewMetricsCollector,
	handlers.NewWidgetHandlers,
	handlers.NewMonitorHandlers,
	newHealthCheck,
	server.NewServer,
)

func newHealthCheck(cfg *config.Config, log *zap.Logger, db *gorm.DB, store outbound.CacheStore) *healthcheck.HealthCheck {
	health := healthcheck.New(cfg.App.Version, log)

	health.Register("database", healthcheck.CheckerFunc(func(ctx context.Context) healthcheck.Check {
		start := time.Now()
		check := healthcheck.Check{
			Name:        "database",
			Status:      healthcheck.StatusHealthy,
			LastChecked: start.UTC(),
		}
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			check.Status = healthcheck.StatusUnhealthy
			check.Message = err.Error()
		}
		check.Duration = time.Since(start)
		return check
	}))

	if pinger, ok := store.(healthcheck.Pinger); ok {
		health.Register("cache", healthcheck.NewPingChecker("cache", pinger, 2*time.Second))
	}

	return health
}

// LifecycleModule starts the HTTP server and the metric retention janitor
var LifecycleModule = fx.Invoke(RegisterLifecycleHooks)

// RegisterLifecycleHooks registers application lifecycle hooks
func RegisterLifecycleHooks(
	lc fx.Lifecycle,
	cfg *config.Config,
	log *zap.Logger,
	db *gorm.DB,
	metrics outbound.MetricRepository,
	srv *server.Server,
) {
	janitorCtx, cancelJanitor := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("starting embedora delivery service",
				zap.String("version", cfg.App.Version),
				zap.String("environment", cfg.App.Environment),
			)

			go func() {
				if err := srv.Start(); err != nil {
					log.Fatal("failed to start http server", zap.Error(err))
				}
			}()

			go retentionJanitor(janitorCtx, metrics, log)

			return nil
		},
		OnStop: func(ctx context.Context) error {
			cancelJanitor()

			if err := srv.Shutdown(ctx); err != nil {
				log.Error("failed to shutdown http server", zap.Error(err))
			}

			sqlDB, err := db.DB()
			if err == nil {
				if err := sqlDB.Close(); err != nil {
					log.Error("failed to close database connection", zap.Error(err))
				}
			}

			_ = log.Sync()
			return nil
		},
	})
}

// retentionJanitor deletes metric rows past the retention window once a
// day. Deletion is idempotent, so missed runs only delay cleanup.
func retentionJanitor(ctx context.Context, metrics outbound.MetricRepository, log *zap.Logger) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().UTC().Add(-telemetry.RetentionWindow)
			deleted, err := metrics.DeleteOlderThan(ctx, cutoff)
			if err != nil {
				log.Error("metric retention sweep failed", zap.Error(err))
				continue
			}
			log.Info("metric retention sweep complete",
				zap.Int64("rows_deleted", deleted),
				zap.Time("cutoff", cutoff),
			)
		}
	}
}
