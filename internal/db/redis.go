package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrSessionNotFound is returned when no session is stored under an id.
var ErrSessionNotFound = errors.New("session not found")

// Session is the persisted identity of a connected operator.
type Session struct {
	ID        string `redis:"-"`
	Token     string `redis:"token"`
	ProfileID string `redis:"profile_id"`
	AccountID string `redis:"account_id"`
	UserName  string `redis:"user_name"`
	Email     string `redis:"email"`
	Picture   string `redis:"picture"`
	CreatedAt int64  `redis:"created_at"`
}

// RedisStore persists sessions in Redis hashes with a sliding TTL.
type RedisStore struct {
	Client *redis.Client
	TTL    time.Duration
}

// InitRedis initializes a Redis client and returns a RedisStore.
func InitRedis(ctx context.Context, addr string, ttl time.Duration) (*RedisStore, error) {
	rs := NewRedisStore(redis.NewClient(&redis.Options{Addr: addr}), ttl)

	// Add OpenTelemetry instrumentation to Redis client
	if err := redisotel.InstrumentTracing(rs.Client); err != nil {
		return nil, fmt.Errorf("failed to instrument redis tracing: %w", err)
	}

	if err := rs.Client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	zap.L().Info("Connected to Redis", zap.String("addr", addr))
	return rs, nil
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{Client: client, TTL: ttl}
}

func sessionKey(id string) string {
	return "session:" + id
}

// SaveSession writes s and (re)starts its TTL.
func (r *RedisStore) SaveSession(ctx context.Context, s Session) error {
	if s.ID == "" {
		return errors.New("session id is required")
	}
	if s.CreatedAt == 0 {
		s.CreatedAt = time.Now().Unix()
	}
	key := sessionKey(s.ID)
	_, err := r.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, s)
		if r.TTL > 0 {
			pipe.Expire(ctx, key, r.TTL)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// LoadSession returns the session stored under id and refreshes its TTL.
// A missing or token-less session yields ErrSessionNotFound.
func (r *RedisStore) LoadSession(ctx context.Context, id string) (Session, error) {
	if id == "" {
		return Session{}, ErrSessionNotFound
	}
	key := sessionKey(id)
	res := r.Client.HGetAll(ctx, key)
	if err := res.Err(); err != nil {
		return Session{}, fmt.Errorf("load session: %w", err)
	}
	if len(res.Val()) == 0 {
		return Session{}, ErrSessionNotFound
	}
	var s Session
	if err := res.Scan(&s); err != nil {
		return Session{}, fmt.Errorf("decode session: %w", err)
	}
	if s.Token == "" {
		return Session{}, ErrSessionNotFound
	}
	s.ID = id
	if r.TTL > 0 {
		if err := r.Client.Expire(ctx, key, r.TTL).Err(); err != nil {
			zap.L().Warn("session ttl refresh failed", zap.Error(err))
		}
	}
	return s, nil
}

// DeleteSession removes the session. Deleting an absent session is not an error.
func (r *RedisStore) DeleteSession(ctx context.Context, id string) error {
	if err := r.Client.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Ping reports whether Redis is reachable.
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.Client.Ping(ctx).Err()
}

// Close shuts down the Redis client.
func (r *RedisStore) Close() {
	if r != nil && r.Client != nil {
		if err := r.Client.Close(); err != nil {
			zap.L().Error("redis close", zap.Error(err))
		}
	}
}
