// Package container provides dependency injection using Uber FX.
package container

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/menuforge/v1/internal/application/planner"
	"github.com/menuforge/v1/internal/application/tasks"
	"github.com/menuforge/v1/internal/domain/job"
	catalogAdapter "github.com/menuforge/v1/internal/infrastructure/catalog"
	"github.com/menuforge/v1/internal/infrastructure/config"
	"github.com/menuforge/v1/internal/infrastructure/http/apiserver"
	"github.com/menuforge/v1/internal/infrastructure/monitoring"
	"github.com/menuforge/v1/internal/infrastructure/persistence/memory"
	redisRepo "github.com/menuforge/v1/internal/infrastructure/persistence/redis"
	"github.com/menuforge/v1/internal/ports/inbound"
	"github.com/menuforge/v1/internal/ports/outbound"
	"github.com/menuforge/v1/pkg/logger"
)

// Module provides all dependency injection modules.
var Module = fx.Options(
	ConfigModule,
	LoggerModule,
	MetricsModule,
	CatalogModule,
	RepositoryModule,
	ServiceModule,
	HTTPModule,
)

// ConfigModule provides configuration.
var ConfigModule = fx.Provide(
	func() (*config.Config, error) {
		return config.Load("")
	},
)

// LoggerModule provides logging.
var LoggerModule = fx.Provide(
	func(cfg *config.Config) (*zap.Logger, error) {
		return logger.New(logger.Config{
			Level:       cfg.App.LogLevel,
			Format:      cfg.App.LogFormat,
			Development: cfg.App.Debug,
		})
	},
)

// MetricsModule provides Prometheus instrumentation.
var MetricsModule = fx.Provide(monitoring.NewMetrics)

// CatalogModule provides the catalog snapshot source.
var CatalogModule = fx.Provide(
	func(cfg *config.Config, log *zap.Logger) (outbound.CatalogProvider, error) {
		provider, err := catalogAdapter.NewStaticProvider(cfg.Catalog.Path)
		if err != nil {
			return nil, fmt.Errorf("loading catalog: %w", err)
		}
		log.Info("Catalog loaded", zap.String("path", cfg.Catalog.Path))
		return provider, nil
	},
)

// RepositoryModule provides the job store: Redis when enabled, the
// in-memory store otherwise.
var RepositoryModule = fx.Provide(
	func(cfg *config.Config, log *zap.Logger, lc fx.Lifecycle) outbound.JobRepository {
		if cfg.Redis.Enable {
			client := goredis.NewClient(&goredis.Options{
				Addr:         cfg.RedisAddr(),
				Password:     cfg.Redis.Password,
				DB:           cfg.Redis.Database,
				DialTimeout:  cfg.Redis.DialTimeout,
				ReadTimeout:  cfg.Redis.ReadTimeout,
				WriteTimeout: cfg.Redis.WriteTimeout,
				PoolSize:     cfg.Redis.PoolSize,
			})
			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					return client.Ping(ctx).Err()
				},
				OnStop: func(ctx context.Context) error {
					return client.Close()
				},
			})
			log.Info("Using Redis job store", zap.String("addr", cfg.RedisAddr()))
			return redisRepo.NewJobRepository(client, cfg.Planner.JobTTL)
		}

		repo := memory.NewJobRepository(cfg.Planner.JobTTL, cfg.Planner.ReapInterval)
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				repo.Close()
				return nil
			},
		})
		log.Info("Using in-memory job store")
		return repo
	},
)

// ServiceModule provides the application services.
var ServiceModule = fx.Provide(
	func(
		catalog outbound.CatalogProvider,
		jobs outbound.JobRepository,
		metrics *monitoring.Metrics,
		log *zap.Logger,
	) inbound.PlannerService {
		return planner.NewService(catalog, jobs, metrics, log)
	},
	func(cfg *config.Config, p inbound.PlannerService, log *zap.Logger) inbound.TaskService {
		return tasks.NewService(p, cfg.Planner.TaskTTL, log)
	},
)

// HTTPModule provides and runs the API server.
var HTTPModule = fx.Options(
	fx.Provide(apiserver.New),
	fx.Invoke(func(lc fx.Lifecycle, server *apiserver.Server, jobs outbound.JobRepository, log *zap.Logger) {
		// The store is healthy when it answers at all; an unknown id is
		// the expected answer.
		server.RegisterHealthCheck("job_store", func(ctx context.Context) error {
			_, err := jobs.Get(ctx, "healthcheck-probe")
			if errors.Is(err, job.ErrNotFound) {
				return nil
			}
			return err
		})
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				go func() {
					if err := server.Start(); err != nil {
						log.Error("API server stopped", zap.Error(err))
					}
				}()
				return nil
			},
			OnStop: func(ctx context.Context) error {
				return server.Shutdown(ctx)
			},
		})
	}),
)
