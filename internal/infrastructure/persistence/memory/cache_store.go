// Package memory provides an in-memory cache store used in development
// and tests, mirroring the semantics of the Redis-backed store.
package memory

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/embedora/embedora/internal/ports/outbound"
)

type entry struct {
	value     []byte
	expiresAt time.Time
}

type zmember struct {
	member string
	score  float64
}

// CacheStore is a mutex-guarded in-memory implementation of the cache
// store port. Expiry is checked lazily on access.
type CacheStore struct {
	mu      sync.Mutex
	entries map[string]entry
	hashes  map[string]map[string]string
	zsets   map[string][]zmember
	expiry  map[string]time.Time
}

// NewCacheStore creates an empty in-memory cache store
func NewCacheStore() *CacheStore {
	return &CacheStore{
		entries: make(map[string]entry),
		hashes:  make(map[string]map[string]string),
		zsets:   make(map[string][]zmember),
		expiry:  make(map[string]time.Time),
	}
}

// Get returns the value stored at key, or ErrCacheMiss
func (s *CacheStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok || (!e.expiresAt.IsZero() && time.Now().After(e.expiresAt)) {
		delete(s.entries, key)
		return nil, outbound.ErrCacheMiss
	}
	return e.value, nil
}

// Set stores a value with a TTL
func (s *CacheStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}
	s.entries[key] = entry{value: value, expiresAt: expiresAt}
	return nil
}

// Delete removes keys across all structures
func (s *CacheStore) Delete(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range keys {
		delete(s.entries, key)
		delete(s.hashes, key)
		delete(s.zsets, key)
		delete(s.expiry, key)
	}
	return nil
}

// DeleteByPrefix removes every key starting with prefix
func (s *CacheStore) DeleteByPrefix(ctx context.Context, prefix string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := 0
	for key := range s.entries {
		if strings.HasPrefix(key, prefix) {
			delete(s.entries, key)
			deleted++
		}
	}
	for key := range s.hashes {
		if strings.HasPrefix(key, prefix) {
			delete(s.hashes, key)
			delete(s.expiry, key)
			deleted++
		}
	}
	for key := range s.zsets {
		if strings.HasPrefix(key, prefix) {
			delete(s.zsets, key)
			delete(s.expiry, key)
			deleted++
		}
	}
	return deleted, nil
}

// HGetAll returns all fields of a hash; missing hashes yield an empty map
func (s *CacheStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.expired(key) {
		return map[string]string{}, nil
	}

	out := make(map[string]string, len(s.hashes[key]))
	for k, v := range s.hashes[key] {
		out[k] = v
	}
	return out, nil
}

// HSet writes hash fields and refreshes the key expiry
func (s *CacheStore) HSet(ctx context.Context, key string, fields map[string]interface{}, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	h := s.hashes[key]
	if h == nil {
		h = make(map[string]string)
		s.hashes[key] = h
	}
	for k, v := range fields {
		h[k] = formatValue(v)
	}
	if ttl > 0 {
		s.expiry[key] = time.Now().Add(ttl)
	}
	return nil
}

// ZAdd appends a scored member and refreshes the key expiry
func (s *CacheStore) ZAdd(ctx context.Context, key string, score float64, member string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.expired(key) {
		s.zsets[key] = nil
	}
	s.zsets[key] = append(s.zsets[key], zmember{member: member, score: score})
	sort.Slice(s.zsets[key], func(i, j int) bool {
		return s.zsets[key][i].score < s.zsets[key][j].score
	})
	if ttl > 0 {
		s.expiry[key] = time.Now().Add(ttl)
	}
	return nil
}

// ZRemRangeByScore removes members with scores in [min, max]
func (s *CacheStore) ZRemRangeByScore(ctx context.Context, key string, min, max string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lo, _ := strconv.ParseFloat(min, 64)
	hi, _ := strconv.ParseFloat(max, 64)

	kept := s.zsets[key][:0]
	for _, m := range s.zsets[key] {
		if m.score < lo || m.score > hi {
			kept = append(kept, m)
		}
	}
	s.zsets[key] = kept
	return nil
}

// ZCard returns the member count of a sorted set
func (s *CacheStore) ZCard(ctx context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.expired(key) {
		return 0, nil
	}
	return int64(len(s.zsets[key])), nil
}

// expired checks and clears a lazily expired hash or zset key.
// Caller must hold the mutex.
func (s *CacheStore) expired(key string) bool {
	exp, ok := s.expiry[key]
	if ok && time.Now().After(exp) {
		delete(s.hashes, key)
		delete(s.zsets, key)
		delete(s.expiry, key)
		return true
	}
	return false
}

func formatValue(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}
