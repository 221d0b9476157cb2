// Package guard serializes night audit runs. A process-local flag always
// applies; with redis configured a distributed lock also spans instances.
package guard

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/bsm/redislock"
	redis "github.com/redis/go-redis/v9"
)

const LockKey = "frontdesk:nightaudit:lock"

var ErrHeld = errors.New("night_audit_guard_held")

// Lease is held for the lifetime of one run.
type Lease interface {
	// Refresh extends the distributed lock before a long step.
	Refresh(ctx context.Context) error
	Release(ctx context.Context) error
}

type Guard struct {
	running atomic.Bool
	locker  *redislock.Client
	ttl     time.Duration
}

// New builds a guard; client may be nil for single-instance deployments.
func New(client *redis.Client, ttl time.Duration) *Guard {
	g := &Guard{ttl: ttl}
	if client != nil {
		g.locker = redislock.New(client)
	}
	return g
}

func (g *Guard) Distributed() bool {
	return g.locker != nil
}

// Acquire returns ErrHeld when another run holds the guard.
func (g *Guard) Acquire(ctx context.Context) (Lease, error) {
	if !g.running.CompareAndSwap(false, true) {
		return nil, ErrHeld
	}

	lease := &lease{guard: g}
	if g.locker == nil {
		return lease, nil
	}

	lock, err := g.locker.Obtain(ctx, LockKey, g.ttl, nil)
	if err != nil {
		g.running.Store(false)
		if errors.Is(err, redislock.ErrNotObtained) {
			return nil, ErrHeld
		}
		return nil, err
	}
	lease.lock = lock
	return lease, nil
}

type lease struct {
	guard    *Guard
	lock     *redislock.Lock
	released atomic.Bool
}

func (l *lease) Refresh(ctx context.Context) error {
	if l.lock == nil {
		return nil
	}
	return l.lock.Refresh(ctx, l.guard.ttl, nil)
}

func (l *lease) Release(ctx context.Context) error {
	if !l.released.CompareAndSwap(false, true) {
		return nil
	}
	defer l.guard.running.Store(false)
	if l.lock == nil {
		return nil
	}
	err := l.lock.Release(ctx)
	if errors.Is(err, redislock.ErrLockNotHeld) {
		return nil
	}
	return err
}
