// Package cache provides the Redis-backed cache store shared by the
// delivery engine and the performance monitor.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/embedora/embedora/internal/infrastructure/config"
	"github.com/embedora/embedora/internal/ports/outbound"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisStore implements outbound.CacheStore on top of go-redis. Every
// operation runs under a bounded timeout; a slow or unreachable Redis can
// degrade deliveries to cache misses but never stall them.
type RedisStore struct {
	client    redis.UniversalClient
	opTimeout time.Duration
	logger    *zap.Logger
	metrics   *StoreMetrics
	breaker   *circuitBreaker
}

// StoreMetrics tracks cache store performance and health
type StoreMetrics struct {
	TotalCommands   int64         `json:"total_commands"`
	SuccessfulOps   int64         `json:"successful_ops"`
	FailedOps       int64         `json:"failed_ops"`
	Hits            int64         `json:"hits"`
	Misses          int64         `json:"misses"`
	AvgResponseTime time.Duration `json:"avg_response_time"`
	LastUpdate      time.Time     `json:"last_update"`
	mu              sync.Mutex
}

// NewRedisStore creates a Redis-backed cache store
func NewRedisStore(cfg *config.RedisConfig, cacheCfg *config.CacheConfig, logger *zap.Logger) (*RedisStore, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config cannot be nil")
	}

	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:        []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		Password:     cfg.Password,
		DB:           cfg.Database,
		MaxRetries:   cfg.MaxRetries,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	store := &RedisStore{
		client:    client,
		opTimeout: cacheCfg.OpTimeout,
		logger:    logger,
		metrics:   &StoreMetrics{LastUpdate: time.Now()},
		breaker: &circuitBreaker{
			maxFailures: 5,
			cooldown:    time.Second * 30,
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis cache store initialized",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.Int("database", cfg.Database),
		zap.Duration("op_timeout", cacheCfg.OpTimeout))

	return store, nil
}

// Get retrieves a value. A missing key returns outbound.ErrCacheMiss.
func (r *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	if !r.breaker.allow() {
		r.metrics.miss()
		return nil, fmt.Errorf("cache circuit breaker is open")
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	result, err := r.client.Get(ctx, key).Bytes()
	r.record(err, time.Since(start))

	if err == redis.Nil {
		r.metrics.miss()
		return nil, outbound.ErrCacheMiss
	}
	if err != nil {
		r.breaker.fail()
		r.metrics.miss()
		r.logger.Error("Redis GET failed", zap.String("key", key), zap.Error(err))
		return nil, err
	}

	r.breaker.ok()
	r.metrics.hit()
	return result, nil
}

// Set stores a value with a TTL
func (r *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if !r.breaker.allow() {
		return fmt.Errorf("cache circuit breaker is open")
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	err := r.client.Set(ctx, key, value, ttl).Err()
	r.record(err, time.Since(start))

	if err != nil {
		r.breaker.fail()
		r.logger.Error("Redis SET failed", zap.String("key", key), zap.Error(err))
		return err
	}

	r.breaker.ok()
	return nil
}

// Delete removes keys
func (r *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if !r.breaker.allow() {
		return fmt.Errorf("cache circuit breaker is open")
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	err := r.client.Del(ctx, keys...).Err()
	r.record(err, time.Since(start))

	if err != nil {
		r.breaker.fail()
		r.logger.Error("Redis DEL failed", zap.Strings("keys", keys), zap.Error(err))
		return err
	}

	r.breaker.ok()
	return nil
}

// DeleteByPrefix scans for keys matching prefix* and deletes them in
// batches. Returns the number of keys removed.
func (r *RedisStore) DeleteByPrefix(ctx context.Context, prefix string) (int, error) {
	if !r.breaker.allow() {
		return 0, fmt.Errorf("cache circuit breaker is open")
	}

	// Scans can exceed a single op timeout; give them a wider bound.
	ctx, cancel := context.WithTimeout(ctx, r.opTimeout*10)
	defer cancel()

	var keys []string
	iter := r.client.Scan(ctx, 0, prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		r.breaker.fail()
		r.logger.Error("Redis SCAN failed", zap.String("prefix", prefix), zap.Error(err))
		return 0, err
	}

	deleted := 0
	const batchSize = 100
	for i := 0; i < len(keys); i += batchSize {
		end := i + batchSize
		if end > len(keys) {
			end = len(keys)
		}
		if err := r.client.Del(ctx, keys[i:end]...).Err(); err != nil {
			r.logger.Error("Redis DEL batch failed",
				zap.String("prefix", prefix),
				zap.Int("batch_start", i),
				zap.Error(err))
			continue
		}
		deleted += end - i
	}

	r.breaker.ok()
	return deleted, nil
}

// HGetAll reads all fields of a hash. An absent hash returns an empty map.
func (r *RedisStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	result, err := r.client.HGetAll(ctx, key).Result()
	r.record(err, time.Since(start))

	if err != nil {
		r.logger.Error("Redis HGETALL failed", zap.String("key", key), zap.Error(err))
		return nil, err
	}
	return result, nil
}

// HSet writes hash fields and refreshes the key expiry in one pipeline.
// The expiry refresh keeps a busy widget's rolling state alive.
func (r *RedisStore) HSet(ctx context.Context, key string, fields map[string]interface{}, ttl time.Duration) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	pipe := r.client.Pipeline()
	pipe.HSet(ctx, key, fields)
	if ttl > 0 {
		pipe.Expire(ctx, key, ttl)
	}

	start := time.Now()
	_, err := pipe.Exec(ctx)
	r.record(err, time.Since(start))

	if err != nil {
		r.logger.Error("Redis HSET failed", zap.String("key", key), zap.Error(err))
		return err
	}
	return nil
}

// ZAdd adds a scored member and refreshes the key expiry
func (r *RedisStore) ZAdd(ctx context.Context, key string, score float64, member string, ttl time.Duration) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	pipe := r.client.Pipeline()
	pipe.ZAdd(ctx, key, redis.Z{Score: score, Member: member})
	if ttl > 0 {
		pipe.Expire(ctx, key, ttl)
	}

	start := time.Now()
	_, err := pipe.Exec(ctx)
	r.record(err, time.Since(start))

	if err != nil {
		r.logger.Error("Redis ZADD failed", zap.String("key", key), zap.Error(err))
		return err
	}
	return nil
}

// ZRemRangeByScore trims sorted-set members within a score range
func (r *RedisStore) ZRemRangeByScore(ctx context.Context, key string, min, max string) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	err := r.client.ZRemRangeByScore(ctx, key, min, max).Err()
	r.record(err, time.Since(start))

	if err != nil {
		r.logger.Error("Redis ZREMRANGEBYSCORE failed", zap.String("key", key), zap.Error(err))
		return err
	}
	return nil
}

// ZCard returns the sorted-set cardinality
func (r *RedisStore) ZCard(ctx context.Context, key string) (int64, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	count, err := r.client.ZCard(ctx, key).Result()
	r.record(err, time.Since(start))

	if err != nil {
		r.logger.Error("Redis ZCARD failed", zap.String("key", key), zap.Error(err))
		return 0, err
	}
	return count, nil
}

// Ping tests the Redis connection
func (r *RedisStore) Ping(ctx context.Context) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	return r.client.Ping(ctx).Err()
}

// Close closes the underlying client
func (r *RedisStore) Close() error {
	return r.client.Close()
}

// GetMetrics returns a snapshot of store metrics
func (r *RedisStore) GetMetrics() StoreMetrics {
	r.metrics.mu.Lock()
	defer r.metrics.mu.Unlock()
	return StoreMetrics{
		TotalCommands:   r.metrics.TotalCommands,
		SuccessfulOps:   r.metrics.SuccessfulOps,
		FailedOps:       r.metrics.FailedOps,
		Hits:            r.metrics.Hits,
		Misses:          r.metrics.Misses,
		AvgResponseTime: r.metrics.AvgResponseTime,
		LastUpdate:      r.metrics.LastUpdate,
	}
}

func (r *RedisStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.opTimeout)
}

func (r *RedisStore) record(err error, duration time.Duration) {
	r.metrics.mu.Lock()
	defer r.metrics.mu.Unlock()

	r.metrics.TotalCommands++
	if err != nil && err != redis.Nil {
		r.metrics.FailedOps++
	} else {
		r.metrics.SuccessfulOps++
	}

	if r.metrics.TotalCommands == 1 {
		r.metrics.AvgResponseTime = duration
	} else {
		// Exponential moving average with alpha = 0.1
		alpha := 0.1
		r.metrics.AvgResponseTime = time.Duration(float64(r.metrics.AvgResponseTime)*(1-alpha) + float64(duration)*alpha)
	}
	r.metrics.LastUpdate = time.Now()
}

func (m *StoreMetrics) hit() {
	m.mu.Lock()
	m.Hits++
	m.mu.Unlock()
}

func (m *StoreMetrics) miss() {
	m.mu.Lock()
	m.Misses++
	m.mu.Unlock()
}

// circuitBreaker trips after consecutive failures so a down Redis does not
// add latency to every delivery
type circuitBreaker struct {
	maxFailures int
	cooldown    time.Duration

	mu       sync.Mutex
	failures int
	openedAt time.Time
	open     bool
}

func (cb *circuitBreaker) allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if !cb.open {
		return true
	}
	if time.Since(cb.openedAt) > cb.cooldown {
		// Half-open: let one request probe.
		cb.open = false
		cb.failures = cb.maxFailures - 1
		return true
	}
	return false
}

func (cb *circuitBreaker) ok() {
	cb.mu.Lock()
	cb.failures = 0
	cb.open = false
	cb.mu.Unlock()
}

func (cb *circuitBreaker) fail() {
	cb.mu.Lock()
	cb.failures++
	if cb.failures >= cb.maxFailures {
		cb.open = true
		cb.openedAt = time.Now()
	}
	cb.mu.Unlock()
}
