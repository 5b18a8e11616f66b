package cache

import (
	"context"
	"testing"
	"time"

	"TrendSentinel/internal/model"
)

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	c := NewMemoryCache()
	c.now = func() time.Time { return now }

	if _, ok, _ := c.Get(ctx, "missing"); ok {
		t.Error("unexpected hit")
	}
	c.Set(ctx, "a", []byte("1"), time.Minute)
	c.Set(ctx, "b", []byte("2"), 0)

	if v, ok, err := c.Get(ctx, "a"); err != nil || !ok || string(v) != "1" {
		t.Errorf("get a = %q %v %v", v, ok, err)
	}
	now = now.Add(time.Minute)
	if _, ok, _ := c.Get(ctx, "a"); ok {
		t.Error("a should have expired")
	}
	if _, ok, _ := c.Get(ctx, "b"); !ok {
		t.Error("b should never expire")
	}
}

func TestMemoryCache_CopiesValue(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	buf := []byte("abc")
	c.Set(ctx, "k", buf, 0)
	buf[0] = 'x'
	if v, _, _ := c.Get(ctx, "k"); string(v) != "abc" {
		t.Errorf("stored value changed to %q", v)
	}
}

func TestCandleKey(t *testing.T) {
	got := CandleKey("NIFTY", time.Date(2025, 3, 14, 9, 15, 0, 0, time.UTC), model.FiveMinutes)
	if got != "candles:NIFTY:2025-03-14:5" {
		t.Errorf("key = %s", got)
	}
}
