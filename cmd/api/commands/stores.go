package commands

import (
	"context"
	"fmt"

	"github.com/taskmate/core/internal/adapters/cache"
	"github.com/taskmate/core/internal/adapters/memstore"
	"github.com/taskmate/core/internal/adapters/mongostore"
	"github.com/taskmate/core/internal/adapters/repository"
	"github.com/taskmate/core/internal/infrastructure/config"
	"github.com/taskmate/core/internal/infrastructure/database"
	"github.com/taskmate/core/internal/infrastructure/logger"
	"github.com/taskmate/core/internal/infrastructure/server"
	"github.com/taskmate/core/internal/ports"
)

// storeSet is the persistence selected by storage.driver, plus the health
// checks, pool stats and close hooks of whatever connections it opened
type storeSet struct {
	tasks   ports.TaskStore
	users   ports.UserStore
	checks  map[string]server.HealthCheck
	stats   map[string]server.ConnectionStats
	closers map[string]func(ctx context.Context) error
}

func (s *storeSet) Close(ctx context.Context) {
	for _, closeFn := range s.closers {
		_ = closeFn(ctx)
	}
}

func openStores(ctx context.Context, cfg *config.Config, appLogger *logger.Logger) (*storeSet, error) {
	set := &storeSet{
		checks:  make(map[string]server.HealthCheck),
		stats:   make(map[string]server.ConnectionStats),
		closers: make(map[string]func(ctx context.Context) error),
	}

	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		db, err := database.New(cfg.Database)
		if err != nil {
			return nil, err
		}
		set.tasks = repository.NewTaskRepository(db.DB)
		set.users = repository.NewUserRepository(db.DB)
		set.checks["database"] = db.HealthCheck
		set.stats["database"] = db.GetConnectionInfo
		set.closers["database"] = func(context.Context) error { return db.Close() }

	case config.DriverMongo:
		mongoDB, err := database.NewMongo(ctx, cfg.Mongo)
		if err != nil {
			return nil, err
		}
		set.closers["mongo"] = mongoDB.Close
		if err := mongostore.EnsureIndexes(ctx, mongoDB.Database); err != nil {
			set.Close(ctx)
			return nil, err
		}
		set.tasks = mongostore.NewTaskStore(mongoDB.Database)
		set.users = mongostore.NewUserStore(mongoDB.Database)
		set.checks["mongo"] = mongoDB.HealthCheck

	case config.DriverMemory:
		appLogger.Warnw("Using in-memory storage; data is lost on restart")
		set.tasks = memstore.NewTaskStore()
		set.users = memstore.NewUserStore()

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	if cfg.Redis.Enabled {
		client, err := database.NewRedis(ctx, cfg.Redis)
		if err != nil {
			set.Close(ctx)
			return nil, err
		}
		redisCache := cache.NewRedisCache(client, cfg.Redis.Prefix)
		set.users = cache.NewCachedUserStore(set.users, redisCache, cfg.Redis.TTL, appLogger)
		set.checks["redis"] = redisCache.Ping
		set.closers["redis"] = func(context.Context) error { return client.Close() }
	}

	appLogger.Infow("Storage ready",
		"driver", cfg.Storage.Driver,
		"profile_cache", cfg.Redis.Enabled,
	)

	return set, nil
}
