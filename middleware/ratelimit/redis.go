package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps one hash per (identity, endpoint); the hash TTL is the
// window end, so expired windows disappear on their own and a subsequent
// request starts a fresh record.
type RedisStore struct {
	client redis.UniversalClient
}

func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func redisKey(identity, endpoint string) string {
	return fmt.Sprintf("ratelimit:%s:%s", identity, endpoint)
}

func (s *RedisStore) FindLive(ctx context.Context, identity, endpoint string, now time.Time) (*RateLimitRecord, error) {
	key := redisKey(identity, endpoint)

	fields, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read rate limit hash: %w", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}

	record, err := recordFromHash(key, identity, endpoint, fields)
	if err != nil {
		return nil, err
	}

	if now.After(record.WindowEnd) {
		return nil, nil
	}

	return record, nil
}

func (s *RedisStore) Create(ctx context.Context, record *RateLimitRecord) error {
	key := redisKey(record.Identity, record.Endpoint)
	record.ID = key

	fields := map[string]any{
		"attempts":     record.Attempts,
		"window_start": record.WindowStart.UnixMilli(),
		"window_end":   record.WindowEnd.UnixMilli(),
		"blocked":      boolField(record.Blocked),
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, fields)
	pipe.PExpireAt(ctx, key, record.WindowEnd)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to create rate limit hash: %w", err)
	}

	return nil
}

func (s *RedisStore) Increment(ctx context.Context, id string, block bool, now time.Time) error {
	pipe := s.client.TxPipeline()
	pipe.HIncrBy(ctx, id, "attempts", 1)
	if block {
		pipe.HSet(ctx, id, "blocked", 1, "blocked_at", now.UnixMilli())
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to increment rate limit hash: %w", err)
	}

	return nil
}

func recordFromHash(key, identity, endpoint string, fields map[string]string) (*RateLimitRecord, error) {
	attempts, err := strconv.Atoi(fields["attempts"])
	if err != nil {
		return nil, fmt.Errorf("malformed rate limit hash %s: %w", key, err)
	}

	windowStart, err := strconv.ParseInt(fields["window_start"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("malformed rate limit hash %s: %w", key, err)
	}

	windowEnd, err := strconv.ParseInt(fields["window_end"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("malformed rate limit hash %s: %w", key, err)
	}

	record := &RateLimitRecord{
		ID:          key,
		Identity:    identity,
		Endpoint:    endpoint,
		Attempts:    attempts,
		WindowStart: time.UnixMilli(windowStart),
		WindowEnd:   time.UnixMilli(windowEnd),
		Blocked:     fields["blocked"] == "1",
	}

	if raw, ok := fields["blocked_at"]; ok && raw != "" {
		if millis, err := strconv.ParseInt(raw, 10, 64); err == nil {
			blockedAt := time.UnixMilli(millis)
			record.BlockedAt = &blockedAt
		}
	}

	return record, nil
}

func boolField(b bool) int {
	if b {
		return 1
	}
	return 0
}
