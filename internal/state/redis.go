package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore persists session state in Redis with a TTL, for deployments
// where the dashboard runs long-lived and sessions should expire on their
// own rather than accumulate on disk.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects to Redis and returns a store. A non-positive TTL
// keeps state indefinitely.
func NewRedisStore(redisURL string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{client: client, ttl: ttl}, nil
}

// NewRedisStoreWithClient wraps an existing client (used by tests)
func NewRedisStoreWithClient(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// Save writes the state under the session key, refreshing the TTL
func (r *RedisStore) Save(ctx context.Context, st *AppState) error {
	if st == nil || st.SessionID == "" {
		return fmt.Errorf("state must carry a session id")
	}

	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}

	var ttl time.Duration
	if r.ttl > 0 {
		ttl = r.ttl
	}
	if err := r.client.Set(ctx, stateKey(st.SessionID), data, ttl).Err(); err != nil {
		return fmt.Errorf("storing state: %w", err)
	}
	return nil
}

// Load reads the state for a session, returning (nil, nil) when absent
// or expired
func (r *RedisStore) Load(ctx context.Context, sessionID string) (*AppState, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session id cannot be empty")
	}

	data, err := r.client.Get(ctx, stateKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetching state: %w", err)
	}

	var st AppState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("decoding state: %w", err)
	}
	return &st, nil
}

// Delete removes the session key; missing keys are not an error
func (r *RedisStore) Delete(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("session id cannot be empty")
	}
	if err := r.client.Del(ctx, stateKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("deleting state: %w", err)
	}
	return nil
}

// Close closes the Redis connection
func (r *RedisStore) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

func stateKey(sessionID string) string {
	return fmt.Sprintf("prepdash:state:%s", sessionID)
}

var _ Store = (*RedisStore)(nil)
