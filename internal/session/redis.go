package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bankdesk/bankdesk/internal/domain/model"
)

const keyFormat = "session:%d"

// RedisStore keeps sessions in Redis with a TTL. Losing the cache is safe:
// consumers rebuild context from the order ledger.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects a session store to the given Redis address.
func NewRedisStore(addr string, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		ttl:    ttl,
	}
}

func (r *RedisStore) Get(ctx context.Context, customerID int64) (*model.Session, bool, error) {
	raw, err := r.client.Get(ctx, fmt.Sprintf(keyFormat, customerID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("session get: %w", err)
	}

	var s model.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, false, fmt.Errorf("session decode: %w", err)
	}
	return &s, true, nil
}

func (r *RedisStore) Put(ctx context.Context, s *model.Session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("session encode: %w", err)
	}
	if err := r.client.Set(ctx, fmt.Sprintf(keyFormat, s.CustomerID), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("session put: %w", err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, customerID int64) error {
	if err := r.client.Del(ctx, fmt.Sprintf(keyFormat, customerID)).Err(); err != nil {
		return fmt.Errorf("session delete: %w", err)
	}
	return nil
}

// Close releases the underlying Redis connection.
func (r *RedisStore) Close() error {
	return r.client.Close()
}
