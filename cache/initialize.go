package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"auth-demo/config"

	redis "github.com/redis/go-redis/v9"
	"github.com/umakantv/go-utils/cache"
	"github.com/umakantv/go-utils/logger"
	"go.uber.org/zap"
)

// InitializeCache connects the shared cache. It exits the process on failure.
func InitializeCache(cfg config.CacheConfig) cache.Cache {
	c, err := cache.New(cache.Config{
		Type:          cfg.Type,
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		RedisDB:       cfg.RedisDB,
	})
	if err != nil {
		logger.Error("Failed to initialize cache:", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("Cache initialized", zap.String("type", cfg.Type))
	return c
}

// Store narrows the shared cache to the key/value calls the app makes.
// Take uses GETDEL when a Redis client is attached; otherwise it serializes
// Get and Delete, which is atomic for the in-process memory cache.
type Store struct {
	cache cache.Cache
	redis *redis.Client

	mu sync.Mutex
}

// NewStore wraps c. client may be nil.
func NewStore(c cache.Cache, client *redis.Client) *Store {
	return &Store{cache: c, redis: client}
}

func (s *Store) Get(key string) (interface{}, error) {
	return s.cache.Get(key)
}

func (s *Store) Set(key string, value interface{}, ttl time.Duration) error {
	if err := s.cache.Set(key, value, ttl); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(key string) error {
	if err := s.cache.Delete(key); err != nil {
		return fmt.Errorf("cache delete %s: %w", key, err)
	}
	return nil
}

// Take returns the value under key and removes it in one step. At most one
// caller gets a given value.
func (s *Store) Take(key string) (interface{}, error) {
	if s.redis != nil {
		return s.getDel(key)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	v, err := s.cache.Get(key)
	if err != nil {
		return nil, err
	}
	if err := s.Delete(key); err != nil {
		return nil, err
	}
	return v, nil
}

// getDel decodes the value the way the go-utils Redis cache does on Get.
func (s *Store) getDel(key string) (interface{}, error) {
	val, err := s.redis.GetDel(context.Background(), key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, cache.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("cache getdel %s: %w", key, err)
	}

	var decoded interface{}
	if err := json.Unmarshal([]byte(val), &decoded); err != nil {
		return val, nil
	}
	return decoded, nil
}
