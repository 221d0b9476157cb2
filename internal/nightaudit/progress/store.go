// Package progress implements the night audit progress stores.
package progress

import (
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/frontdesk/internal/clock"
	"github.com/smallbiznis/frontdesk/internal/config"
	"github.com/smallbiznis/frontdesk/internal/nightaudit/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log         *zap.Logger
	Clock       clock.Clock
	AuditConfig *config.AuditConfigHolder `optional:"true"`
	Redis       *redis.Client             `optional:"true"`
}

// NewStore picks the backend named by the audit config. Asking for redis
// without a configured client degrades to memory.
func NewStore(p Params) domain.ProgressStore {
	cfg := p.AuditConfig.Get()
	log := p.Log.Named("nightaudit.progress")
	now := func() time.Time { return p.Clock.Now() }

	if cfg.ProgressBackend == config.ProgressBackendRedis {
		if p.Redis != nil {
			log.Info("nightaudit.progress.backend", zap.String("backend", config.ProgressBackendRedis))
			return NewRedisStore(p.Redis, cfg.ProgressTTL, now)
		}
		log.Warn("nightaudit.progress.redis_unavailable", zap.String("fallback", config.ProgressBackendMemory))
	}
	return NewMemoryStore(cfg.ProgressTTL, now)
}
