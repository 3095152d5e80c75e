// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/pdiddy/deep-research/pkg/types"
)

// ErrCacheMiss is returned by a Store when the key is absent.
var ErrCacheMiss = errors.New("cache miss")

// Store is the key/value surface the search cache needs. RedisStore is the
// production implementation.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Cached wraps a Searcher and memoizes its hits in a Store. Cache failures
// are logged and never fail the search.
type Cached struct {
	Next  Searcher
	Store Store
	TTL   time.Duration

	// Scope is folded into every key so hits cached under different search
	// settings are kept apart. New sets it from CacheScope.
	Scope string

	Logger *zap.Logger
}

// Name returns the wrapped backend's name.
func (c *Cached) Name() string { return c.Next.Name() }

// Search returns cached hits for query or delegates and stores the result.
// Errors from the wrapped searcher are not cached.
func (c *Cached) Search(ctx context.Context, query string) ([]types.SearchHit, error) {
	log := c.Logger
	if log == nil {
		log = zap.NewNop()
	}
	key := cacheKey(c.Next.Name(), c.Scope, query)

	data, err := c.Store.Get(ctx, key)
	switch {
	case err == nil:
		var hits []types.SearchHit
		jerr := json.Unmarshal(data, &hits)
		if jerr == nil {
			log.Debug("search cache hit", zap.String("query", query))
			return hits, nil
		}
		log.Warn("discarding corrupt cache entry", zap.String("key", key), zap.Error(jerr))
	case !errors.Is(err, ErrCacheMiss):
		log.Warn("search cache read failed", zap.Error(err))
	}

	hits, err := c.Next.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	data, err = json.Marshal(hits)
	if err == nil {
		err = c.Store.Set(ctx, key, data, c.TTL)
	}
	if err != nil {
		log.Warn("search cache write failed", zap.Error(err))
	}
	return hits, nil
}

func cacheKey(backend, scope, query string) string {
	h := sha256.New()
	h.Write([]byte(scope))
	h.Write([]byte{0})
	h.Write([]byte(strings.ToLower(strings.TrimSpace(query))))
	return "deep-research:search:" + backend + ":" + hex.EncodeToString(h.Sum(nil))
}

// CacheScope renders the settings that change what a backend returns for
// the same query.
func CacheScope(cfg types.SearchConfig) string {
	return fmt.Sprintf("url=%s max=%d cat=%s lang=%s safe=%d engines=%s",
		strings.TrimRight(cfg.SearxNGURL, "/"), cfg.MaxResults, cfg.Category,
		cfg.Language, cfg.SafeSearch, strings.Join(cfg.Engines, ","))
}

// RedisStore adapts a go-redis client to Store.
type RedisStore struct {
	Client *redis.Client
}

// Get reads key, mapping redis.Nil to ErrCacheMiss.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := s.Client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	return b, err
}

// Set writes key with the given expiry.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.Client.Set(ctx, key, value, ttl).Err()
}

// NewRedisStore connects to Redis and verifies the connection with PING.
func NewRedisStore(ctx context.Context, cfg types.CacheConfig) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", cfg.RedisAddr, err)
	}
	return &RedisStore{Client: rdb}, nil
}

// Close releases the Redis connection pool.
func (s *RedisStore) Close() error { return s.Client.Close() }
