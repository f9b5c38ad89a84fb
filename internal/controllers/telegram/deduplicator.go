package telegram

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

const updateKey = "tg_update:%d"

// UpdateCache - часть кеш-репозитория для отметки обработанных апдейтов.
type UpdateCache interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error)
}

// UpdateDeduplicator отсекает повторную доставку одного и того же update_id.
// Telegram повторяет апдейт, если не получил 200 вовремя.
// Основное хранилище - Redis, при его недоступности - память процесса.
type UpdateDeduplicator struct {
	cache  UpdateCache
	ttl    time.Duration
	locks  sync.Map
	logger *zap.Logger
}

func NewUpdateDeduplicator(cache UpdateCache, ttl time.Duration, logger *zap.Logger) *UpdateDeduplicator {
	return &UpdateDeduplicator{cache: cache, ttl: ttl, logger: logger}
}

// TryAcquire возвращает true, если апдейт видим впервые.
func (d *UpdateDeduplicator) TryAcquire(ctx context.Context, updateID int64) bool {
	if d.cache != nil {
		ok, err := d.cache.SetNX(ctx, fmt.Sprintf(updateKey, updateID), 1, d.ttl)
		if err == nil {
			return ok
		}
		d.logger.Warn("кеш недоступен, дедупликация в памяти", zap.Int64("update_id", updateID), zap.Error(err))
	}

	now := time.Now()
	if val, exists := d.locks.Load(updateID); exists {
		if now.Before(val.(time.Time)) {
			return false
		}
	}
	d.locks.Store(updateID, now.Add(d.ttl))
	return true
}

func (d *UpdateDeduplicator) Cleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := time.Now()
			d.locks.Range(func(key, value interface{}) bool {
				if now.After(value.(time.Time)) {
					d.locks.Delete(key)
				}
				return true
			})
		}
	}
}
