package redis

import (
	"context"
	"strings"

	goredis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/frontdesk/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// NewClient returns nil when no redis address is configured; consumers fall
// back to in-process implementations.
func NewClient(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) *goredis.Client {
	if !cfg.Redis.Enabled() {
		log.Info("redis.disabled")
		return nil
	}

	client := goredis.NewClient(&goredis.Options{
		Addr:     strings.TrimSpace(cfg.Redis.Addr),
		Password: strings.TrimSpace(cfg.Redis.Password),
		DB:       cfg.Redis.DB,
	})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				return err
			}
			log.Info("redis.connected", zap.String("addr", cfg.Redis.Addr))
			return nil
		},
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return client
}

var Module = fx.Module("redis",
	fx.Provide(NewClient),
)
