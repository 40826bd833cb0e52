package cache

import (
	"context"
	"errors"
	"time"

	"github.com/annel0/survival-server/internal/world"
	"github.com/annel0/survival-server/internal/world/entity"
)

// SnapshotStore хранит последний снимок мира вне процесса симуляции.
// Реализует world.SnapshotSink, поэтому подключается к WorldManager как получатель.
//
// Использование:
//
//	store, err := NewRedisSnapshotStore(cfg.Cache)
//	wm.AddSink(store)
//	snap, err := store.Latest(ctx)
type SnapshotStore interface {
	world.SnapshotSink

	// Latest возвращает последний сохранённый снимок.
	// Возвращает ErrCacheMiss, если снимка нет или истёк TTL.
	Latest(ctx context.Context) (*world.Snapshot, error)

	// Entity возвращает сериализованную сущность из последнего снимка.
	Entity(ctx context.Context, id string) (entity.RawEntity, error)

	// Close закрывает соединение с хранилищем.
	Close() error

	// GetMetrics возвращает метрики хранилища.
	GetMetrics() *CacheMetrics
}

// CacheMetrics содержит метрики работы хранилища снимков.
type CacheMetrics struct {
	TotalRequests int64   `json:"total_requests"`
	CacheHits     int64   `json:"cache_hits"`
	CacheMisses   int64   `json:"cache_misses"`
	HitRatio      float64 `json:"hit_ratio"`

	// Записи снимков и пропуски неизменившихся
	Writes  int64 `json:"writes"`
	Skipped int64 `json:"skipped"`

	LastUpdate time.Time `json:"last_update"`
}

// Ошибки кеша
var (
	ErrCacheMiss    = NewCacheError("cache miss")
	ErrCacheCorrupt = NewCacheError("cache corrupt")
)

// CacheError представляет ошибку кеша.
type CacheError struct {
	Message string
}

func (e *CacheError) Error() string {
	return e.Message
}

func NewCacheError(message string) *CacheError {
	return &CacheError{Message: message}
}

// IsCacheMiss проверяет, является ли ошибка промахом кеша.
func IsCacheMiss(err error) bool {
	return errors.Is(err, ErrCacheMiss)
}
