package scheduler

import (
	"context"

	"go.uber.org/fx"
)

var Module = fx.Module("scheduler",
	fx.Provide(ProvideConfig, New),
	fx.Invoke(startLoop),
)

// startLoop runs the tick loop for the life of the app. The loop always
// runs; the night audit job checks the auto-run switch on every tick so it
// follows config reloads. Stop waits for the current tick to return.
func startLoop(lc fx.Lifecycle, sched *Scheduler) {
	loopCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				sched.RunForever(loopCtx)
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			cancel()
			select {
			case <-done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})
}
