package dialogue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix namespaces pending intents in a shared Redis.
const DefaultKeyPrefix = "deskmate:pending:"

// RedisStore keeps pending intents in Redis so that open dialogues survive a
// restart. Keys expire after the idle timeout, which makes Sweep a backstop
// for entries written without a TTL.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore returns a store writing keys under prefix with the given TTL.
func NewRedisStore(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) key(userID string) string { return s.prefix + userID }

func (s *RedisStore) Get(ctx context.Context, userID string) (PendingIntent, error) {
	data, err := s.client.Get(ctx, s.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return PendingIntent{}, ErrNotFound
	}
	if err != nil {
		return PendingIntent{}, fmt.Errorf("reading pending intent: %w", err)
	}
	var p PendingIntent
	if err := json.Unmarshal(data, &p); err != nil {
		return PendingIntent{}, fmt.Errorf("decoding pending intent: %w", err)
	}
	return p, nil
}

func (s *RedisStore) Put(ctx context.Context, p PendingIntent) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding pending intent: %w", err)
	}
	if err := s.client.Set(ctx, s.key(p.UserID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("writing pending intent: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, s.key(userID)).Err(); err != nil {
		return fmt.Errorf("deleting pending intent: %w", err)
	}
	return nil
}

func (s *RedisStore) Sweep(ctx context.Context, cutoff time.Time) (int, error) {
	removed := 0
	err := s.scan(ctx, func(key string) error {
		data, err := s.client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return err
		}
		var p PendingIntent
		if err := json.Unmarshal(data, &p); err != nil {
			// Unreadable entries can never be answered.
			return s.del(ctx, key, &removed)
		}
		last := p.UpdatedAt
		if last.IsZero() {
			last = p.CreatedAt
		}
		if last.Before(cutoff) {
			return s.del(ctx, key, &removed)
		}
		return nil
	})
	if err != nil {
		return removed, fmt.Errorf("sweeping pending intents: %w", err)
	}
	return removed, nil
}

func (s *RedisStore) Count(ctx context.Context) (int, error) {
	n := 0
	err := s.scan(ctx, func(string) error {
		n++
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("counting pending intents: %w", err)
	}
	return n, nil
}

func (s *RedisStore) scan(ctx context.Context, fn func(key string) error) error {
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := fn(iter.Val()); err != nil {
			return err
		}
	}
	return iter.Err()
}

func (s *RedisStore) del(ctx context.Context, key string, removed *int) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return err
	}
	*removed++
	return nil
}
