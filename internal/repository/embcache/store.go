// Package embcache caches chunk embeddings in Redis so repeated text across
// requests skips the embedding provider.
package embcache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/rueidis"
)

// ErrCacheMiss signals a missing cache key.
var ErrCacheMiss = errors.New("cache miss")

// StoreConfig holds Redis connection parameters for the cache.
type StoreConfig struct {
	Addrs    []string
	Password string
	TTL      time.Duration
}

// Store is a Redis-backed byte store with a fixed TTL per entry.
type Store struct {
	client rueidis.Client
	ttl    time.Duration
}

// NewStore connects to Redis via rueidis.
func NewStore(cfg StoreConfig) (*Store, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("addrs is required")
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Password:     cfg.Password,
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create redis client: %w", err)
	}
	return &Store{client: client, ttl: cfg.TTL}, nil
}

// Get retrieves a value by key. Missing keys return ErrCacheMiss.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	cmd := s.client.B().Get().Key(key).Build()
	data, err := s.client.Do(ctx, cmd).AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("cache get: %w", err)
	}
	return data, nil
}

// Set stores a value with the configured TTL.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	cmd := s.client.B().Set().Key(key).Value(rueidis.BinaryString(value)).Ex(s.ttl).Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Close releases the Redis connection.
func (s *Store) Close() {
	s.client.Close()
}
