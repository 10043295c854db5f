package cache

import (
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/yungbote/catalog-backend/internal/platform/logger"
)

// Store is an in-process key/value snapshot cache. It never reads through to
// a backing store; callers own population and invalidation.
//
// Values pass through the clone function on the way in and on the way out, so
// a caller mutating what it put or got never changes what other readers see.
//
// Every write stamps its key from a monotonic clock. A caller that fills the
// cache from a backing store takes a Mark before its read and stores with
// PutIfUnchanged, so a fill that raced a newer Put, Evict or Flush is dropped
// instead of overwriting it.
type Store[V any] struct {
	name  string
	ttl   time.Duration
	clone func(V) V
	cache *gocache.Cache
	log   *logger.Logger

	mu       sync.Mutex
	clock    uint64
	flushed  uint64
	versions map[string]uint64
}

// New creates a Store. A ttl <= 0 keeps entries until they are evicted.
func New[V any](name string, ttl time.Duration, clone func(V) V, log *logger.Logger) *Store[V] {
	expiration := gocache.NoExpiration
	cleanup := time.Duration(0)
	if ttl > 0 {
		expiration = ttl
		cleanup = 2 * ttl
	}
	if clone == nil {
		clone = func(v V) V { return v }
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Store[V]{
		name:     name,
		ttl:      expiration,
		clone:    clone,
		cache:    gocache.New(expiration, cleanup),
		log:      log.With("cache", name),
		versions: make(map[string]uint64),
	}
}

func (s *Store[V]) Get(key string) (V, bool) {
	var zero V
	raw, found := s.cache.Get(key)
	if !found {
		return zero, false
	}
	v, ok := raw.(V)
	if !ok {
		s.log.Error("wrong type assertion when getting value", "key", key)
		return zero, false
	}
	return s.clone(v), true
}

// Put overwrites the entry for key unconditionally.
func (s *Store[V]) Put(key string, value V) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stamp(key)
	s.cache.Set(key, s.clone(value), gocache.DefaultExpiration)
}

// Mark returns the current write clock.
func (s *Store[V]) Mark() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clock
}

// PutIfUnchanged stores value only when no Put, Evict or Flush has touched
// key since mark was taken, and reports whether it did.
func (s *Store[V]) PutIfUnchanged(key string, value V, mark uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.version(key) > mark {
		return false
	}
	s.stamp(key)
	s.cache.Set(key, s.clone(value), gocache.DefaultExpiration)
	return true
}

func (s *Store[V]) Evict(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stamp(key)
	s.cache.Delete(key)
}

// Flush drops every entry. Fills that marked before the flush are rejected.
func (s *Store[V]) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clock++
	s.flushed = s.clock
	s.versions = make(map[string]uint64)
	s.cache.Flush()
}

func (s *Store[V]) Len() int {
	return s.cache.ItemCount()
}

// callers hold s.mu
func (s *Store[V]) stamp(key string) {
	s.clock++
	s.versions[key] = s.clock
}

func (s *Store[V]) version(key string) uint64 {
	if v := s.versions[key]; v > s.flushed {
		return v
	}
	return s.flushed
}
