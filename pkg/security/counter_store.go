package security

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// CounterStore keeps expiring counters and flags shared by the login tracker,
// the upload limiter and the rate limit middleware.
type CounterStore interface {
	// Incr increments key, starting a window of ttl on the first hit, and
	// returns the new count and the time left in the window.
	Incr(ctx context.Context, key string, ttl time.Duration) (int, time.Duration, error)
	Get(ctx context.Context, key string) (int, error)
	SetFlag(ctx context.Context, key string, ttl time.Duration) error
	// TTL returns the remaining lifetime of key, or a negative duration when absent.
	TTL(ctx context.Context, key string) (time.Duration, error)
	Del(ctx context.Context, keys ...string) error
}

// incrWithTTLScript increments KEYS[1], sets EXPIRE ARGV[1] on the first
// hit and returns {count, ttl_seconds}.
const incrWithTTLScript = `
local count = redis.call('INCR', KEYS[1])
if count == 1 then
    redis.call('EXPIRE', KEYS[1], ARGV[1])
end
local ttl = redis.call('TTL', KEYS[1])
return {count, ttl}
`

type RedisCounterStore struct {
	client *goredis.Client
}

func NewRedisCounterStore(client *goredis.Client) *RedisCounterStore {
	return &RedisCounterStore{client: client}
}

func (s *RedisCounterStore) Incr(ctx context.Context, key string, ttl time.Duration) (int, time.Duration, error) {
	result, err := s.client.Eval(ctx, incrWithTTLScript, []string{key}, int(ttl.Seconds())).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("redis incr %s: %w", key, err)
	}
	arr, ok := result.([]interface{})
	if !ok || len(arr) < 2 {
		return 0, 0, errors.New("unexpected redis result format")
	}
	count, _ := arr[0].(int64)
	left, _ := arr[1].(int64)
	return int(count), time.Duration(left) * time.Second, nil
}

func (s *RedisCounterStore) Get(ctx context.Context, key string) (int, error) {
	n, err := s.client.Get(ctx, key).Int()
	if errors.Is(err, goredis.Nil) {
		return 0, nil
	}
	return n, err
}

func (s *RedisCounterStore) SetFlag(ctx context.Context, key string, ttl time.Duration) error {
	return s.client.Set(ctx, key, "1", ttl).Err()
}

func (s *RedisCounterStore) TTL(ctx context.Context, key string) (time.Duration, error) {
	return s.client.TTL(ctx, key).Result()
}

func (s *RedisCounterStore) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.client.Del(ctx, keys...).Err()
}

type memoryEntry struct {
	count    int
	expireAt time.Time
}

// MemoryCounterStore is the single-process fallback used when Redis is not
// configured.
type MemoryCounterStore struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	now     func() time.Time
}

func NewMemoryCounterStore() *MemoryCounterStore {
	return &MemoryCounterStore{
		entries: make(map[string]*memoryEntry),
		now:     time.Now,
	}
}

// live returns the entry for key, dropping it when expired. Caller holds mu.
func (s *MemoryCounterStore) live(key string) *memoryEntry {
	e, ok := s.entries[key]
	if !ok {
		return nil
	}
	if !s.now().Before(e.expireAt) {
		delete(s.entries, key)
		return nil
	}
	return e
}

func (s *MemoryCounterStore) Incr(_ context.Context, key string, ttl time.Duration) (int, time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.live(key)
	if e == nil {
		e = &memoryEntry{expireAt: s.now().Add(ttl)}
		s.entries[key] = e
	}
	e.count++
	return e.count, e.expireAt.Sub(s.now()), nil
}

func (s *MemoryCounterStore) Get(_ context.Context, key string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e := s.live(key); e != nil {
		return e.count, nil
	}
	return 0, nil
}

func (s *MemoryCounterStore) SetFlag(_ context.Context, key string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = &memoryEntry{count: 1, expireAt: s.now().Add(ttl)}
	return nil
}

func (s *MemoryCounterStore) TTL(_ context.Context, key string) (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e := s.live(key); e != nil {
		return e.expireAt.Sub(s.now()), nil
	}
	return -1, nil
}

func (s *MemoryCounterStore) Del(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.entries, k)
	}
	return nil
}

// Sweep drops expired entries; callers run it periodically.
func (s *MemoryCounterStore) Sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for k, e := range s.entries {
		if !now.Before(e.expireAt) {
			delete(s.entries, k)
		}
	}
}
