package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kalambet/intervue/internal/interview"
)

const (
	defaultKeyPrefix = "intervue:session:"
	defaultRedisTTL  = 24 * time.Hour
)

// redisStore keeps sessions as JSON values with optimistic WATCH/MULTI
// updates.
type redisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func newRedisStore(client *redis.Client, prefix string, ttl time.Duration) *redisStore {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	if ttl <= 0 {
		ttl = defaultRedisTTL
	}
	return &redisStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *redisStore) key(id string) string {
	return s.prefix + id
}

func (s *redisStore) Create(ctx context.Context, st *interview.State) error {
	st.Version = 1
	val, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}

	ok, err := s.client.SetNX(ctx, s.key(st.SessionID), val, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("creating session: %w", err)
	}
	if !ok {
		return ErrExists
	}
	return nil
}

func (s *redisStore) Get(ctx context.Context, id string) (*interview.State, error) {
	key := s.key(id)
	val, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading session: %w", err)
	}

	var st interview.State
	if err := json.Unmarshal(val, &st); err != nil {
		return nil, fmt.Errorf("decoding session: %w", err)
	}

	if err := s.client.Expire(ctx, key, s.ttl).Err(); err != nil {
		slog.Debug("refreshing session ttl", "session_id", id, "error", err)
	}
	return &st, nil
}

func (s *redisStore) Put(ctx context.Context, st *interview.State) error {
	key := s.key(st.SessionID)

	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		val, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		var stored struct {
			Version int64 `json:"version"`
		}
		if err := json.Unmarshal(val, &stored); err != nil {
			return fmt.Errorf("decoding session: %w", err)
		}
		if stored.Version != st.Version {
			return ErrVersionConflict
		}

		next := st.Clone()
		next.Version++
		newVal, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("encoding session: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, newVal, s.ttl)
			return nil
		})
		return err
	}, key)

	if errors.Is(err, redis.TxFailedErr) {
		return ErrVersionConflict
	}
	if err != nil {
		return err
	}
	st.Version++
	return nil
}

func (s *redisStore) Delete(ctx context.Context, id string) error {
	n, err := s.client.Del(ctx, s.key(id)).Result()
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *redisStore) Close() error {
	return s.client.Close()
}
