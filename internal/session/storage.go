package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// ErrNotFound 键不存在或已过期。
var ErrNotFound = errors.New("session: key not found")

// Storage 是会话数据的键值存储。
type Storage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// SetNX 仅在键不存在时写入，返回是否写入成功。
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, keys ...string) error
}

// RedisStorage 基于 go-redis 的实现，多实例部署时使用。
type RedisStorage struct {
	client redis.UniversalClient
}

// NewRedisStorage wraps an existing redis client.
func NewRedisStorage(client redis.UniversalClient) *RedisStorage {
	return &RedisStorage{client: client}
}

func (s *RedisStorage) Get(ctx context.Context, key string) (string, error) {
	value, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis get %q: %w", key, err)
	}
	return value, nil
}

func (s *RedisStorage) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %q: %w", key, err)
	}
	return nil
}

func (s *RedisStorage) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx %q: %w", key, err)
	}
	return ok, nil
}

func (s *RedisStorage) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// MemoryStorage 单进程内存实现，开发和测试用。
type MemoryStorage struct {
	cache *gocache.Cache
}

// NewMemoryStorage creates a store whose entries default to ttl and are swept every cleanup interval.
func NewMemoryStorage(ttl, cleanup time.Duration) *MemoryStorage {
	return &MemoryStorage{cache: gocache.New(ttl, cleanup)}
}

func (s *MemoryStorage) Get(_ context.Context, key string) (string, error) {
	value, ok := s.cache.Get(key)
	if !ok {
		return "", ErrNotFound
	}
	str, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("memory session %q holds %T", key, value)
	}
	return str, nil
}

func (s *MemoryStorage) Set(_ context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	s.cache.Set(key, value, ttl)
	return nil
}

func (s *MemoryStorage) SetNX(_ context.Context, key, value string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	return s.cache.Add(key, value, ttl) == nil, nil
}

func (s *MemoryStorage) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		s.cache.Delete(key)
	}
	return nil
}
