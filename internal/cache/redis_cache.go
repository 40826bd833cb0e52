package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/go-redis/redis/v8"
	"github.com/goccy/go-json"
	"github.com/klauspost/compress/zstd"

	"github.com/annel0/survival-server/internal/config"
	"github.com/annel0/survival-server/internal/logging"
	"github.com/annel0/survival-server/internal/world"
	"github.com/annel0/survival-server/internal/world/entity"
)

// RedisSnapshotStore реализует SnapshotStore поверх Redis.
//
// Ключи (prefix из конфигурации):
//   - <prefix>:snapshot: последний снимок, JSON сжатый zstd
//   - <prefix>:digest: xxhash набора сущностей последнего записанного снимка
//   - <prefix>:entities: hash id -> JSON сущности
//
// Снимок с тем же набором сущностей, что и записанный, не пишется повторно,
// продлевается только TTL. Поэтому tick сохранённого снимка это тик последнего изменения.
type RedisSnapshotStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration

	encoder *zstd.Encoder
	decoder *zstd.Decoder

	mu         sync.Mutex
	lastDigest uint64
	written    bool

	metrics      *CacheMetrics
	metricsMutex sync.RWMutex
	logger       *logging.Logger
}

var _ SnapshotStore = (*RedisSnapshotStore)(nil)

// NewRedisSnapshotStore подключается к Redis и проверяет соединение
func NewRedisSnapshotStore(cfg config.CacheConfig) (*RedisSnapshotStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "survival"
	}
	store := &RedisSnapshotStore{
		client:  rdb,
		prefix:  prefix,
		ttl:     cfg.TTL(),
		encoder: encoder,
		decoder: decoder,
		metrics: &CacheMetrics{LastUpdate: time.Now()},
		logger:  logging.GetComponentLogger("cache"),
	}
	store.logger.Info("Redis snapshot store initialized: %s (prefix %s, ttl %v)", cfg.Addr, prefix, store.ttl)
	return store, nil
}

func (r *RedisSnapshotStore) key(name string) string {
	return r.prefix + ":" + name
}

// PublishSnapshot сохраняет снимок, если набор сущностей изменился
func (r *RedisSnapshotStore) PublishSnapshot(ctx context.Context, snap *world.Snapshot, delta world.Delta) error {
	entitiesJSON, err := json.Marshal(snap.Entities)
	if err != nil {
		return fmt.Errorf("encode entities: %w", err)
	}
	digest := xxhash.Sum64(entitiesJSON)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.written && digest == r.lastDigest {
		pipe := r.client.Pipeline()
		pipe.Expire(ctx, r.key("snapshot"), r.ttl)
		pipe.Expire(ctx, r.key("digest"), r.ttl)
		pipe.Expire(ctx, r.key("entities"), r.ttl)
		if _, err := pipe.Exec(ctx); err != nil {
			return fmt.Errorf("redis expire error: %w", err)
		}
		atomic.AddInt64(&r.metrics.Skipped, 1)
		return nil
	}

	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	compressed := r.encoder.EncodeAll(payload, nil)

	pipe := r.client.Pipeline()
	pipe.Set(ctx, r.key("snapshot"), compressed, r.ttl)
	pipe.Set(ctx, r.key("digest"), strconv.FormatUint(digest, 16), r.ttl)
	if !r.written {
		pipe.Del(ctx, r.key("entities"))
	}
	for _, removed := range delta.Removed {
		pipe.HDel(ctx, r.key("entities"), removed.ID)
	}
	for _, raw := range snap.Entities {
		data, err := json.Marshal(raw)
		if err != nil {
			return fmt.Errorf("encode entity %s: %w", raw.ID(), err)
		}
		pipe.HSet(ctx, r.key("entities"), raw.ID(), data)
	}
	pipe.Expire(ctx, r.key("entities"), r.ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Error("Redis snapshot write error (tick %d): %v", snap.Tick, err)
		return fmt.Errorf("redis snapshot write error: %w", err)
	}

	r.lastDigest = digest
	r.written = true
	atomic.AddInt64(&r.metrics.Writes, 1)
	r.logger.Trace("Снимок тика %d сохранён: %d байт (%d сжато)", snap.Tick, len(payload), len(compressed))
	return nil
}

// Latest возвращает последний сохранённый снимок
func (r *RedisSnapshotStore) Latest(ctx context.Context) (*world.Snapshot, error) {
	data, err := r.get(ctx, func() ([]byte, error) {
		return r.client.Get(ctx, r.key("snapshot")).Bytes()
	})
	if err != nil {
		return nil, err
	}

	payload, err := r.decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCacheCorrupt, err)
	}
	var snap world.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCacheCorrupt, err)
	}
	return &snap, nil
}

// Entity возвращает сущность последнего записанного снимка
func (r *RedisSnapshotStore) Entity(ctx context.Context, id string) (entity.RawEntity, error) {
	data, err := r.get(ctx, func() ([]byte, error) {
		return r.client.HGet(ctx, r.key("entities"), id).Bytes()
	})
	if err != nil {
		return nil, err
	}

	var raw entity.RawEntity
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCacheCorrupt, err)
	}
	return raw, nil
}

// get выполняет чтение и учитывает попадания и промахи
func (r *RedisSnapshotStore) get(ctx context.Context, read func() ([]byte, error)) ([]byte, error) {
	atomic.AddInt64(&r.metrics.TotalRequests, 1)
	defer r.updateHitRatio()

	val, err := read()
	if err == nil {
		atomic.AddInt64(&r.metrics.CacheHits, 1)
		return val, nil
	}
	atomic.AddInt64(&r.metrics.CacheMisses, 1)
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	r.logger.Error("Redis read error: %v", err)
	return nil, fmt.Errorf("redis get error: %w", err)
}

// Close закрывает соединение с Redis
func (r *RedisSnapshotStore) Close() error {
	r.decoder.Close()
	_ = r.encoder.Close()
	if err := r.client.Close(); err != nil {
		r.logger.Error("Error closing Redis connection: %v", err)
		return err
	}
	r.logger.Info("Redis snapshot store closed")
	return nil
}

// GetMetrics возвращает копию текущих метрик
func (r *RedisSnapshotStore) GetMetrics() *CacheMetrics {
	r.metricsMutex.RLock()
	defer r.metricsMutex.RUnlock()

	return &CacheMetrics{
		TotalRequests: atomic.LoadInt64(&r.metrics.TotalRequests),
		CacheHits:     atomic.LoadInt64(&r.metrics.CacheHits),
		CacheMisses:   atomic.LoadInt64(&r.metrics.CacheMisses),
		HitRatio:      r.metrics.HitRatio,
		Writes:        atomic.LoadInt64(&r.metrics.Writes),
		Skipped:       atomic.LoadInt64(&r.metrics.Skipped),
		LastUpdate:    time.Now(),
	}
}

// updateHitRatio обновляет hit ratio в метриках.
func (r *RedisSnapshotStore) updateHitRatio() {
	hits := atomic.LoadInt64(&r.metrics.CacheHits)
	misses := atomic.LoadInt64(&r.metrics.CacheMisses)
	total := hits + misses

	if total > 0 {
		r.metricsMutex.Lock()
		r.metrics.HitRatio = float64(hits) / float64(total)
		r.metricsMutex.Unlock()
	}
}
