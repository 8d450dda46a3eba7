package poster

import (
	"container/list"
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kamusis/reel/internal/logging"
)

// Store is a poster URL cache keyed by movie id.
type Store interface {
	Get(ctx context.Context, movieID int64) (string, bool, error)
	Set(ctx context.Context, movieID int64, url string) error
}

// Cached wraps a Resolver with a Store. Only successful lookups are stored,
// so a missing poster is retried on the next request.
type Cached struct {
	next  Resolver
	store Store
}

// NewCached returns next decorated with store.
func NewCached(next Resolver, store Store) *Cached {
	return &Cached{next: next, store: store}
}

// Resolve implements Resolver. Store failures are logged and bypassed.
func (c *Cached) Resolve(ctx context.Context, movieID int64) (string, error) {
	if u, ok, err := c.store.Get(ctx, movieID); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Int64("movie_id", movieID).Msg("poster cache read failed")
	} else if ok {
		return u, nil
	}

	u, err := c.next.Resolve(ctx, movieID)
	if err != nil {
		return "", err
	}
	if err := c.store.Set(ctx, movieID, u); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Int64("movie_id", movieID).Msg("poster cache write failed")
	}
	return u, nil
}

// MemoryStore is an LRU cache with per-entry TTL.
type MemoryStore struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	ll       *list.List
	items    map[int64]*list.Element
	now      func() time.Time
}

type memoryEntry struct {
	id        int64
	url       string
	expiresAt time.Time
}

// NewMemoryStore creates an LRU store. Non-positive arguments get defaults
// of 1024 entries and 24h.
func NewMemoryStore(capacity int, ttl time.Duration) *MemoryStore {
	if capacity <= 0 {
		capacity = 1024
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &MemoryStore{
		capacity: capacity,
		ttl:      ttl,
		ll:       list.New(),
		items:    make(map[int64]*list.Element, capacity),
		now:      time.Now,
	}
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, movieID int64) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	el, ok := s.items[movieID]
	if !ok {
		return "", false, nil
	}
	e := el.Value.(*memoryEntry)
	if s.now().After(e.expiresAt) {
		s.ll.Remove(el)
		delete(s.items, movieID)
		return "", false, nil
	}
	s.ll.MoveToFront(el)
	return e.url, true, nil
}

// Set implements Store.
func (s *MemoryStore) Set(_ context.Context, movieID int64, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp := s.now().Add(s.ttl)
	if el, ok := s.items[movieID]; ok {
		e := el.Value.(*memoryEntry)
		e.url, e.expiresAt = url, exp
		s.ll.MoveToFront(el)
		return nil
	}
	s.items[movieID] = s.ll.PushFront(&memoryEntry{id: movieID, url: url, expiresAt: exp})
	for s.ll.Len() > s.capacity {
		last := s.ll.Back()
		s.ll.Remove(last)
		delete(s.items, last.Value.(*memoryEntry).id)
	}
	return nil
}

// Len returns the number of cached entries, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ll.Len()
}

// RedisStore keeps poster URLs in Redis under reel:poster:{id}.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// RedisConfig locates a Redis server.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// NewRedisStore connects to Redis and verifies the connection with PING.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("cannot connect to redis %s: %w", cfg.Addr, err)
	}
	return newRedisStore(client, cfg.TTL), nil
}

func newRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisStore{client: client, ttl: ttl}
}

func redisKey(movieID int64) string {
	return "reel:poster:" + strconv.FormatInt(movieID, 10)
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, movieID int64) (string, bool, error) {
	v, err := s.client.Get(ctx, redisKey(movieID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

// Set implements Store.
func (s *RedisStore) Set(ctx context.Context, movieID int64, url string) error {
	return s.client.Set(ctx, redisKey(movieID), url, s.ttl).Err()
}

// Close releases the Redis connection pool.
func (s *RedisStore) Close() error { return s.client.Close() }
