package ratelimit

import (
	"context"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/frontdesk/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const keyOperator = "frontdesk:ratelimit:operator:%s"

// OperatorLimiter throttles admin requests per operator across instances.
// A nil limiter allows everything.
type OperatorLimiter struct {
	bucket *TokenBucket
	rate   float64
	burst  int
}

type Params struct {
	fx.In

	Cfg   config.Config
	Log   *zap.Logger
	Redis *redis.Client `optional:"true"`
}

func NewOperatorLimiter(p Params) *OperatorLimiter {
	log := p.Log.Named("ratelimit")
	limitCfg := p.Cfg.RateLimit
	if p.Redis == nil || limitCfg.OperatorRate <= 0 || limitCfg.OperatorBurst <= 0 {
		log.Info("ratelimit.disabled")
		return nil
	}
	log.Info("ratelimit.enabled",
		zap.Float64("rate", limitCfg.OperatorRate),
		zap.Int("burst", limitCfg.OperatorBurst),
	)
	return New(p.Redis, limitCfg.OperatorRate, limitCfg.OperatorBurst)
}

func New(client *redis.Client, rate float64, burst int) *OperatorLimiter {
	return &OperatorLimiter{
		bucket: NewTokenBucket(client),
		rate:   rate,
		burst:  burst,
	}
}

func (l *OperatorLimiter) Enabled() bool {
	return l != nil && l.bucket != nil
}

func (l *OperatorLimiter) Allow(ctx context.Context, operatorID string) (Result, error) {
	if !l.Enabled() {
		return Result{Allowed: true}, nil
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyOperator, strings.TrimSpace(operatorID)), l.rate, l.burst)
}
