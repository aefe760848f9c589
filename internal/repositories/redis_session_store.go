package repositories

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"miniblog/internal/logger"
	"miniblog/pkg/apperrors"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keySession = "miniblog:session:"

// RedisSessionStore keeps sessions in Redis with native key expiry.
type RedisSessionStore struct {
	client *redis.Client
}

// NewRedisSessionStore connects using a redis:// URL and pings the server.
func NewRedisSessionStore(redisURL string) (*RedisSessionStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("connected to Redis", zap.String("addr", opts.Addr))
	return &RedisSessionStore{client: client}, nil
}

// NewRedisSessionStoreFromClient wraps an existing client.
func NewRedisSessionStoreFromClient(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

func (s *RedisSessionStore) Save(ctx context.Context, id string, userID uint, ttl time.Duration) error {
	if err := s.client.Set(ctx, keySession+id, strconv.FormatUint(uint64(userID), 10), ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) Get(ctx context.Context, id string) (uint, error) {
	val, err := s.client.Get(ctx, keySession+id).Result()
	if errors.Is(err, redis.Nil) {
		return 0, fmt.Errorf("session: %w", apperrors.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get session: %w", err)
	}

	userID, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt session value: %w", apperrors.ErrNotFound)
	}
	return uint(userID), nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, keySession+id).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) Close() error {
	return s.client.Close()
}
