package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/af-corp/chat-orchestrator/internal/config"
	"github.com/af-corp/chat-orchestrator/internal/orchestrator"
	"github.com/af-corp/chat-orchestrator/internal/router"
	"github.com/af-corp/chat-orchestrator/internal/store"
	"github.com/af-corp/chat-orchestrator/internal/telemetry"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// core is the immutable routing state shared by every command.
type core struct {
	registry *router.Registry
	profiles *router.ProfileTable
}

// buildCore constructs the provider registry and profile table. Problems are
// logged as warnings; none of them stops startup.
func buildCore(ctx context.Context, loader *config.Loader, logger *slog.Logger) *core {
	cfg := loader.Config()

	registry, errs := router.BuildFromConfig(ctx, loader.Providers(), cfg.Routing.ProviderTimeout)
	for _, err := range errs {
		logger.Warn("provider configuration problem", "error", err)
	}

	profiles, errs := router.NewProfileTable(loader.Profiles(), registry)
	for _, err := range errs {
		logger.Warn("profile configuration problem", "error", err)
	}

	return &core{registry: registry, profiles: profiles}
}

func (c *core) orchestrator(st store.Reader, cfg config.RoutingConfig, metrics *telemetry.Metrics, logger *slog.Logger) *orchestrator.Orchestrator {
	return orchestrator.New(orchestrator.Deps{
		Store:      st,
		Registry:   c.registry,
		Profiles:   c.profiles,
		Classifier: orchestrator.NewClassifier(c.registry, cfg.Classifier, metrics, logger),
		Metrics:    metrics,
		Logger:     logger,
	}, cfg)
}

// openStore returns the configured conversation store and a cleanup func.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.Store, func(), error) {
	if cfg.Store.Backend == "memory" {
		logger.Warn("using in-memory conversation store; data is lost on restart")
		return store.NewMemoryStore(), func() {}, nil
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.Database.DSN())
	if err != nil {
		return nil, nil, fmt.Errorf("parse database config: %w", err)
	}
	if cfg.Database.MaxOpenConns > 0 {
		poolCfg.MaxConns = int32(cfg.Database.MaxOpenConns)
	}
	if cfg.Database.ConnMaxLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.Database.ConnMaxLifetime
	}
	dbPool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		logger.Warn("database not reachable (conversation calls will fail until it is)", "error", err)
	} else {
		logger.Info("database connected")
	}

	var rdb *redis.Client
	if len(cfg.Redis.Addresses) > 0 && cfg.Redis.Addresses[0] != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addresses[0],
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis not reachable (conversation cache disabled)", "error", err)
			_ = rdb.Close()
			rdb = nil
		} else {
			logger.Info("redis connected")
		}
	}

	st := store.NewCachedStore(store.NewPostgresStore(dbPool), rdb, cfg.Redis.CacheTTL, logger)
	cleanup := func() {
		if rdb != nil {
			_ = rdb.Close()
		}
		dbPool.Close()
	}
	return st, cleanup, nil
}
