// Package cache stores serialized candle series between runs.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"TrendSentinel/internal/model"
)

// Cache is a byte-oriented key/value store with expiry.
type Cache interface {
	// Get returns ok=false on a miss.
	Get(ctx context.Context, key string) (val []byte, ok bool, err error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
}

// CandleKey builds the key for one session series.
func CandleKey(symbol string, date time.Time, res model.Resolution) string {
	return fmt.Sprintf("candles:%s:%s:%d", symbol, date.Format("2006-01-02"), int(res))
}

type entry struct {
	val     []byte
	expires time.Time
}

// MemoryCache is an in-process Cache.
type MemoryCache struct {
	mu    sync.RWMutex
	items map[string]entry
	now   func() time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{items: make(map[string]entry), now: time.Now}
}

func (m *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	e, ok := m.items[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !e.expires.IsZero() && !m.now().Before(e.expires) {
		m.mu.Lock()
		delete(m.items, key)
		m.mu.Unlock()
		return nil, false, nil
	}
	return e.val, true, nil
}

// Set stores val. A ttl <= 0 never expires.
func (m *MemoryCache) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	e := entry{val: append([]byte(nil), val...)}
	if ttl > 0 {
		e.expires = m.now().Add(ttl)
	}
	m.mu.Lock()
	m.items[key] = e
	m.mu.Unlock()
	return nil
}
