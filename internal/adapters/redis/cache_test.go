package redisad_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	redisad "reviewpulse/internal/adapters/redis"
)

func newCache(t *testing.T) (*redisad.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := redisad.NewWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestCache_RoundTripAndMiss(t *testing.T) {
	c, mr := newCache(t)
	ctx := context.Background()

	var out []string
	ok, err := c.Get(ctx, "history:o1", &out)
	if err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}

	if err := c.Set(ctx, "history:o1", []string{"a", "b"}, 30); err != nil {
		t.Fatalf("set: %v", err)
	}
	if !mr.Exists("reviewpulse:history:o1") {
		t.Fatalf("expected prefixed key in redis")
	}

	ok, err = c.Get(ctx, "history:o1", &out)
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if len(out) != 2 || out[1] != "b" {
		t.Fatalf("unexpected value: %+v", out)
	}

	if err := c.Del(ctx, "history:o1"); err != nil {
		t.Fatalf("del: %v", err)
	}
	if mr.Exists("reviewpulse:history:o1") {
		t.Fatalf("expected key removed")
	}
}

func TestCache_TTL(t *testing.T) {
	c, mr := newCache(t)
	ctx := context.Background()

	if err := c.Set(ctx, "k", 1, 10); err != nil {
		t.Fatalf("set: %v", err)
	}
	mr.FastForward(11 * time.Second)

	var n int
	ok, err := c.Get(ctx, "k", &n)
	if err != nil || ok {
		t.Fatalf("expected expired key, got ok=%v err=%v", ok, err)
	}
}
