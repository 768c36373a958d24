package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/spf13/viper"
)

// Cache is a simple string cache with TTLs
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Manager fronts Redis when available and falls back to an in-process map
type Manager struct {
	enabled   bool
	keyPrefix string
	primary   Cache
	fallback  Cache
}

// NewManager creates a cache manager from configuration
func NewManager(cfg *viper.Viper) *Manager {
	manager := &Manager{
		enabled:   cfg.GetBool("cache.enabled"),
		keyPrefix: cfg.GetString("cache.key_prefix"),
	}
	if manager.keyPrefix == "" {
		manager.keyPrefix = "cattle:"
	}

	if manager.enabled && cfg.GetBool("redis.enabled") {
		redisCache, err := newRedisCache(cfg)
		if err == nil {
			manager.primary = redisCache
		}
	}

	// Always have memory cache as fallback
	manager.fallback = newMemoryCache()

	return manager
}

func (m *Manager) key(key string) string {
	return m.keyPrefix + key
}

// Get returns a cached value or an error when absent
func (m *Manager) Get(ctx context.Context, key string) (string, error) {
	if !m.enabled {
		return "", fmt.Errorf("cache not enabled")
	}
	fullKey := m.key(key)
	if m.primary != nil {
		if value, err := m.primary.Get(ctx, fullKey); err == nil {
			return value, nil
		}
	}
	return m.fallback.Get(ctx, fullKey)
}

// Set stores a value with a TTL
func (m *Manager) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if !m.enabled {
		return nil
	}
	fullKey := m.key(key)
	if m.primary != nil {
		if err := m.primary.Set(ctx, fullKey, value, ttl); err == nil {
			return nil
		}
	}
	return m.fallback.Set(ctx, fullKey, value, ttl)
}

// Delete removes a key from every tier
func (m *Manager) Delete(ctx context.Context, key string) error {
	if !m.enabled {
		return nil
	}
	fullKey := m.key(key)
	if m.primary != nil {
		_ = m.primary.Delete(ctx, fullKey)
	}
	return m.fallback.Delete(ctx, fullKey)
}

// redisCache backs the cache with Redis
type redisCache struct {
	client *redis.Client
}

func newRedisCache(cfg *viper.Viper) (*redisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.GetString("redis.addr"),
		Password:     cfg.GetString("redis.password"),
		DB:           cfg.GetInt("redis.db"),
		DialTimeout:  time.Second * 5,
		ReadTimeout:  time.Second * 3,
		WriteTimeout: time.Second * 3,
		PoolSize:     10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &redisCache{client: client}, nil
}

func (r *redisCache) Get(ctx context.Context, key string) (string, error) {
	return r.client.Get(ctx, key).Result()
}

func (r *redisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *redisCache) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

// memoryCache is the in-process fallback
type memoryCache struct {
	mu   sync.RWMutex
	data map[string]string
	ttls map[string]time.Time
}

func newMemoryCache() *memoryCache {
	return &memoryCache{
		data: make(map[string]string),
		ttls: make(map[string]time.Time),
	}
}

func (m *memoryCache) Get(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	value, ok := m.data[key]
	expiry, hasTTL := m.ttls[key]
	m.mu.RUnlock()

	if !ok {
		return "", fmt.Errorf("key not found")
	}
	if hasTTL && time.Now().After(expiry) {
		m.mu.Lock()
		delete(m.data, key)
		delete(m.ttls, key)
		m.mu.Unlock()
		return "", fmt.Errorf("key expired")
	}
	return value, nil
}

func (m *memoryCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	if ttl > 0 {
		m.ttls[key] = time.Now().Add(ttl)
	} else {
		delete(m.ttls, key)
	}
	return nil
}

func (m *memoryCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	delete(m.ttls, key)
	return nil
}
