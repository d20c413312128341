// Package app wires configuration, storage and the dues service together for
// the server and scheduler binaries.
package app

import (
	"context"
	"fmt"

	"github.com/segyhp/dues-engine/internal/cache"
	"github.com/segyhp/dues-engine/internal/config"
	"github.com/segyhp/dues-engine/internal/metrics"
	"github.com/segyhp/dues-engine/internal/reconcile"
	"github.com/segyhp/dues-engine/internal/repository"
	"github.com/segyhp/dues-engine/internal/service"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type App struct {
	DB      *sqlx.DB
	Redis   *redis.Client
	KV      *cache.RedisKVStore
	Repo    repository.TenantRepository
	Metrics *metrics.Metrics
	Service *service.DuesService
}

// New connects to postgres and redis and builds the dues service.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	db, err := initDB(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("initialize database: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	policy, err := service.PolicyFromConfig(cfg)
	if err != nil {
		db.Close()
		redisClient.Close()
		return nil, fmt.Errorf("build penalty policy: %w", err)
	}

	m := metrics.NewMetrics()
	engine := reconcile.NewEngine(logger.Named("reconcile"),
		reconcile.WithObserver(m),
		reconcile.WithWorkers(cfg.Business.ReportWorkers),
	)

	a := &App{
		DB:      db,
		Redis:   redisClient,
		KV:      cache.NewRedisKVStore(redisClient),
		Repo:    repository.NewTenantRepository(db),
		Metrics: m,
	}

	opts := []service.Option{service.WithRunRecorder(m)}
	if cfg.Cache.Enabled {
		opts = append(opts, service.WithCache(cache.NewPortfolioCache(a.KV, cfg.Cache.TTL, logger.Named("cache"))))
	}
	a.Service = service.NewDuesService(a.Repo, engine, policy, cfg, logger.Named("service"), opts...)

	logger.Info("application initialized",
		zap.String("penalty_policy", cfg.Business.PenaltyPolicy),
		zap.Bool("cache_enabled", cfg.Cache.Enabled),
		zap.Int("report_workers", cfg.Business.ReportWorkers),
		zap.String("timezone", cfg.Location().String()),
	)
	return a, nil
}

func initDB(ctx context.Context, cfg *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.Database.DSN())
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	return db, nil
}

// Close releases the database and redis connections.
func (a *App) Close() {
	if a.Redis != nil {
		a.Redis.Close()
	}
	if a.DB != nil {
		a.DB.Close()
	}
}
