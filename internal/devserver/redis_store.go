package devserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/2beens/fitcalc/internal/calculations"
	"github.com/2beens/fitcalc/internal/telemetry/tracing"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
)

const redisKeyPrefix = "fitcalc::calculations::"

var _ Store = (*RedisStore)(nil)

// RedisStore keeps one hash per user, record id -> record JSON.
type RedisStore struct {
	rdb redis.Cmdable
}

func NewRedisStore(rdb redis.Cmdable) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func userKey(userID string) string {
	return redisKeyPrefix + userID
}

func (s *RedisStore) Add(ctx context.Context, calc calculations.Calculation) (err error) {
	ctx, span := tracing.DevServerTracer.Start(ctx, "redisStore.add")
	defer tracing.EndSpanWithErrCheck(span, &err)

	if calc.UserID == "" {
		return ErrEmptyUser
	}
	recordJSON, err := json.Marshal(calc)
	if err != nil {
		return fmt.Errorf("marshal record %s: %w", calc.ID, err)
	}
	if err := s.rdb.HSet(ctx, userKey(calc.UserID), calc.ID, recordJSON).Err(); err != nil {
		return fmt.Errorf("redis hset: %w", err)
	}
	return nil
}

func (s *RedisStore) List(ctx context.Context, userID string) (_ []calculations.Calculation, err error) {
	ctx, span := tracing.DevServerTracer.Start(ctx, "redisStore.list")
	defer tracing.EndSpanWithErrCheck(span, &err)

	values, err := s.rdb.HGetAll(ctx, userKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall: %w", err)
	}

	calcs := make([]calculations.Calculation, 0, len(values))
	for id, recordJSON := range values {
		calc, err := calculations.Decode(json.RawMessage(recordJSON))
		if err != nil {
			log.Warnf("redis store: skipping record %s of user %s: %s", id, userID, err)
			continue
		}
		calcs = append(calcs, calc)
	}
	calculations.SortNewestFirst(calcs)
	return calcs, nil
}

func (s *RedisStore) Delete(ctx context.Context, userID string, ids []string) (_ []string, err error) {
	ctx, span := tracing.DevServerTracer.Start(ctx, "redisStore.delete")
	defer tracing.EndSpanWithErrCheck(span, &err)

	deleted := make([]string, 0, len(ids))
	for _, id := range ids {
		n, err := s.rdb.HDel(ctx, userKey(userID), id).Result()
		if err != nil {
			return nil, fmt.Errorf("redis hdel %s: %w", id, err)
		}
		if n > 0 {
			deleted = append(deleted, id)
		}
	}
	return deleted, nil
}
