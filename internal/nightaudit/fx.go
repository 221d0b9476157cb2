package nightaudit

import (
	"context"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/frontdesk/internal/config"
	"github.com/smallbiznis/frontdesk/internal/nightaudit/domain"
	"github.com/smallbiznis/frontdesk/internal/nightaudit/guard"
	"github.com/smallbiznis/frontdesk/internal/nightaudit/progress"
	"github.com/smallbiznis/frontdesk/internal/nightaudit/repository"
	"github.com/smallbiznis/frontdesk/internal/nightaudit/service"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type guardParams struct {
	fx.In

	Log         *zap.Logger
	AuditConfig *config.AuditConfigHolder `optional:"true"`
	Redis       *redis.Client             `optional:"true"`
}

func provideGuard(p guardParams) *guard.Guard {
	g := guard.New(p.Redis, p.AuditConfig.Get().LockTTL)
	p.Log.Named("nightaudit.guard").Info("nightaudit.guard.ready", zap.Bool("distributed", g.Distributed()))
	return g
}

// drainRuns lets in-flight runs finish on shutdown until the stop deadline.
func drainRuns(lc fx.Lifecycle, svc domain.Service, log *zap.Logger) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			done := make(chan struct{})
			go func() {
				svc.Wait()
				close(done)
			}()
			select {
			case <-done:
				return nil
			case <-ctx.Done():
				log.Named("nightaudit.service").Warn("nightaudit.shutdown.abandoned_run")
				return ctx.Err()
			}
		},
	})
}

var Module = fx.Module("nightaudit.service",
	fx.Provide(repository.Provide),
	fx.Provide(progress.NewStore),
	fx.Provide(provideGuard),
	fx.Provide(service.New),
	fx.Invoke(drainRuns),
)
