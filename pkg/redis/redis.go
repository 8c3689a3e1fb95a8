package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ikkim/bizdir-backend/config"
	"github.com/ikkim/bizdir-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned by Store.Get when the key does not exist
var ErrCacheMiss = errors.New("cache miss")

var client *redis.Client

// Init connects to Redis. A disabled config leaves the client nil and every
// helper in this package degrades to a no-op.
func Init(cfg *config.RedisConfig) error {
	if !cfg.Enabled {
		logger.Info("Redis disabled, caching and token revocation are off", nil)
		return nil
	}

	logger.Info("Initializing Redis connection", map[string]interface{}{
		"addr": cfg.Addr(),
		"db":   cfg.DB,
	})

	c := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.Ping(ctx).Err(); err != nil {
		logger.Error("Failed to connect to Redis", err, map[string]interface{}{
			"addr": cfg.Addr(),
		})
		_ = c.Close()
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	client = c
	logger.Info("Redis connection established successfully", nil)
	return nil
}

// GetClient returns the Redis client, nil when Redis is disabled
func GetClient() *redis.Client {
	return client
}

func Available() bool {
	return client != nil
}

// Close closes the Redis connection
func Close() error {
	if client != nil {
		logger.Info("Closing Redis connection", nil)
		err := client.Close()
		client = nil
		return err
	}
	return nil
}

// BlacklistToken revokes a token until it would have expired anyway
func BlacklistToken(ctx context.Context, token string, expiry time.Duration) error {
	if client == nil {
		logger.Warn("Token revocation skipped, Redis is disabled", nil)
		return nil
	}
	if expiry <= 0 {
		return nil
	}

	key := fmt.Sprintf("blacklist:%s", token)
	if err := client.Set(ctx, key, "revoked", expiry).Err(); err != nil {
		logger.Error("Failed to blacklist token", err, nil)
		return err
	}

	logger.Debug("Token blacklisted", map[string]interface{}{
		"expiry": expiry.String(),
	})
	return nil
}

// IsTokenBlacklisted checks if a token has been revoked
func IsTokenBlacklisted(ctx context.Context, token string) (bool, error) {
	if client == nil {
		return false, nil
	}

	key := fmt.Sprintf("blacklist:%s", token)
	val, err := client.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		logger.Error("Failed to check token blacklist", err, nil)
		return false, err
	}

	return val == "revoked", nil
}

// Store is a byte-oriented view over the shared client used by the listing cache.
type Store struct {
	c *redis.Client
}

// NewStore returns nil when Redis is disabled so callers can fall back.
func NewStore() *Store {
	if client == nil {
		return nil
	}
	return &Store{c: client}
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := s.c.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, ErrCacheMiss
	}
	return b, err
}

func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.c.Set(ctx, key, value, ttl).Err()
}

func (s *Store) Incr(ctx context.Context, key string) (int64, error) {
	return s.c.Incr(ctx, key).Result()
}

func (s *Store) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.c.Del(ctx, keys...).Err()
}
