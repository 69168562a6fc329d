package cache

import (
	"context"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/exactsync/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("cache",
	fx.Provide(Provide),
)

type Params struct {
	fx.In

	Lc  fx.Lifecycle
	Cfg config.Config
	Log *zap.Logger
}

type Result struct {
	fx.Out

	Store  Store
	Locker Locker
}

// Provide selects the memory or redis backend from CACHE_DRIVER.
func Provide(p Params) Result {
	log := p.Log.Named("cache")
	if p.Cfg.Cache.Driver != config.CacheDriverRedis {
		log.Info("using in-process cache")
		return Result{Store: NewMemoryStore(), Locker: NewMemoryLocker()}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     p.Cfg.Cache.RedisAddr,
		Password: p.Cfg.Cache.RedisPassword,
		DB:       p.Cfg.Cache.RedisDB,
	})

	p.Lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				return err
			}
			log.Info("redis cache connected", zap.String("addr", p.Cfg.Cache.RedisAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})

	prefix := p.Cfg.Cache.KeyPrefix
	return Result{
		Store:  NewRedisStore(client, prefix),
		Locker: NewRedisLocker(client, prefix+"lock:"),
	}
}
