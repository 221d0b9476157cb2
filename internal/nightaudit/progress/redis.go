package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/frontdesk/internal/nightaudit/domain"
)

const (
	redisKeyPrefix   = "frontdesk:nightaudit:progress:"
	redisUpdateRetry = 5
	defaultRedisTTL  = 72 * time.Hour
)

// RedisStore shares progress across instances. Each update is an optimistic
// WATCH/MULTI transaction on the record key.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

func NewRedisStore(client *redis.Client, ttl time.Duration, now func() time.Time) *RedisStore {
	if ttl <= 0 {
		ttl = defaultRedisTTL
	}
	if now == nil {
		now = time.Now
	}
	return &RedisStore{client: client, ttl: ttl, now: now}
}

func (s *RedisStore) Create(ctx context.Context, seed domain.ProgressRecord) (domain.ProgressRecord, error) {
	record := seed.Clone()
	record.ID = ulid.Make().String()
	if record.StartedAt.IsZero() {
		record.StartedAt = s.now()
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return domain.ProgressRecord{}, err
	}
	ok, err := s.client.SetNX(ctx, redisKey(record.ID), payload, s.ttl).Result()
	if err != nil {
		return domain.ProgressRecord{}, err
	}
	if !ok {
		return domain.ProgressRecord{}, fmt.Errorf("progress record %s already exists", record.ID)
	}
	return record, nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (domain.ProgressRecord, bool, error) {
	payload, err := s.client.Get(ctx, redisKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.ProgressRecord{}, false, nil
	}
	if err != nil {
		return domain.ProgressRecord{}, false, err
	}

	var record domain.ProgressRecord
	if err := json.Unmarshal(payload, &record); err != nil {
		return domain.ProgressRecord{}, false, err
	}
	return record.Clone(), true, nil
}

func (s *RedisStore) Update(ctx context.Context, id string, mutate func(*domain.ProgressRecord)) error {
	key := redisKey(id)
	txf := func(tx *redis.Tx) error {
		payload, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return domain.ErrRunNotFound
		}
		if err != nil {
			return err
		}

		var record domain.ProgressRecord
		if err := json.Unmarshal(payload, &record); err != nil {
			return err
		}
		mutate(&record)
		record.ID = id

		next, err := json.Marshal(record.Clone())
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, next, s.ttl)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < redisUpdateRetry; attempt++ {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("progress record %s: update contended", id)
}

func redisKey(id string) string {
	return redisKeyPrefix + id
}
