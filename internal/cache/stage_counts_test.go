package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"practice_portal_backend/platform/logger"
)

func newTestCache(t *testing.T) (*StageCounts, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStageCounts(client, time.Minute, logger.New("development")), mr
}

func TestStageCounts_RoundTrip(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()
	typeID := uuid.New()

	if _, ok := cache.Get(ctx, typeID); ok {
		t.Fatal("expected miss on empty cache")
	}

	counts := map[string]int{"Intake": 3, "In Progress": 7}
	cache.Set(ctx, typeID, counts)

	got, ok := cache.Get(ctx, typeID)
	if !ok {
		t.Fatal("expected hit after set")
	}
	if got["Intake"] != 3 || got["In Progress"] != 7 {
		t.Fatalf("unexpected counts: %v", got)
	}
}

func TestStageCounts_Invalidate(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()
	typeID := uuid.New()

	cache.Set(ctx, typeID, map[string]int{"Done": 1})
	cache.Invalidate(ctx, typeID)

	if _, ok := cache.Get(ctx, typeID); ok {
		t.Fatal("expected miss after invalidation")
	}
}

func TestStageCounts_Expiry(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cache := NewStageCounts(client, time.Second, logger.New("development"))

	ctx := context.Background()
	typeID := uuid.New()
	cache.Set(ctx, typeID, map[string]int{"Review": 2})

	mr.FastForward(2 * time.Second)
	if _, ok := cache.Get(ctx, typeID); ok {
		t.Fatal("expected miss after TTL elapsed")
	}
}

func TestStageCounts_DisabledWithoutClient(t *testing.T) {
	cache := NewStageCounts(nil, time.Minute, logger.New("development"))
	ctx := context.Background()
	typeID := uuid.New()

	cache.Set(ctx, typeID, map[string]int{"Intake": 9})
	cache.Invalidate(ctx, typeID)
	if _, ok := cache.Get(ctx, typeID); ok {
		t.Fatal("nil client must always miss")
	}
}
