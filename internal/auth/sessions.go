package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionStore tracks issued token ids so they can be revoked before they
// expire.
type SessionStore interface {
	Save(ctx context.Context, tokenID, userID string, ttl time.Duration) error
	Active(ctx context.Context, tokenID string) (bool, error)
	Revoke(ctx context.Context, tokenID string) error
	Close() error
}

// NoopSessionStore treats every signed token as active
type NoopSessionStore struct{}

func (NoopSessionStore) Save(context.Context, string, string, time.Duration) error { return nil }
func (NoopSessionStore) Active(context.Context, string) (bool, error)              { return true, nil }
func (NoopSessionStore) Revoke(context.Context, string) error                      { return nil }
func (NoopSessionStore) Close() error                                              { return nil }

const sessionKeyPrefix = "bookstore:session:"

// RedisSessionStore keeps one key per token id, expiring with the token
type RedisSessionStore struct {
	client *redis.Client
}

// NewRedisSessionStore connects to redis and checks the connection.
func NewRedisSessionStore(ctx context.Context, addr, password string, db int) (*RedisSessionStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return &RedisSessionStore{client: client}, nil
}

func sessionKey(tokenID string) string {
	return sessionKeyPrefix + tokenID
}

func (s *RedisSessionStore) Save(ctx context.Context, tokenID, userID string, ttl time.Duration) error {
	return s.client.Set(ctx, sessionKey(tokenID), userID, ttl).Err()
}

func (s *RedisSessionStore) Active(ctx context.Context, tokenID string) (bool, error) {
	err := s.client.Get(ctx, sessionKey(tokenID)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *RedisSessionStore) Revoke(ctx context.Context, tokenID string) error {
	return s.client.Del(ctx, sessionKey(tokenID)).Err()
}

func (s *RedisSessionStore) Close() error {
	return s.client.Close()
}
