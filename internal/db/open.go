package pricing

import (
	"context"
	"fmt"

	config "github.com/glkeru/hotel/pricing/internal/config"
	interf "github.com/glkeru/hotel/pricing/internal/interfaces"
	"go.uber.org/zap"
)

// Open подключает хранилище из конфигурации и применяет миграции.
// close освобождает соединения.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (interf.Storage, func(), error) {
	switch cfg.Storage {
	case config.StoragePostgres:
		pg, err := NewPostgresStore(ctx, cfg.DB.DSN(), logger)
		if err != nil {
			return nil, nil, err
		}
		if err := pg.Migrate(ctx); err != nil {
			pg.Close()
			return nil, nil, err
		}
		return pg, pg.Close, nil
	case config.StorageMongo:
		mgo, err := NewMongoStore(ctx, cfg.Mongo, logger)
		if err != nil {
			return nil, nil, err
		}
		if err := mgo.Migrate(ctx); err != nil {
			_ = mgo.Close(context.Background())
			return nil, nil, err
		}
		return mgo, func() {
			if err := mgo.Close(context.Background()); err != nil {
				logger.Error("mongo disconnect", zap.Error(err))
			}
		}, nil
	case config.StorageMemory:
		logger.Warn("in-memory storage, data is lost on restart")
		return NewMemoryStore(), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown storage %q", cfg.Storage)
}

// RuleCache оборачивает хранилище правил кэшем Redis, если он настроен.
// Недоступный Redis не мешает запуску.
func RuleCache(ctx context.Context, cfg *config.Config, inner interf.RuleStorage, logger *zap.Logger) (interf.RuleStorage, func()) {
	if !cfg.CacheEnabled() {
		return inner, func() {}
	}
	client, err := NewRedisClient(ctx, cfg.Cache.URL, cfg.Cache.User, cfg.Cache.Password)
	if err != nil {
		logger.Error("redis is unavailable, rules cache disabled", zap.Error(err))
		return inner, func() {}
	}
	return NewCachedRuleStorage(inner, client, cfg.Cache.TTL, logger), func() { _ = client.Close() }
}
