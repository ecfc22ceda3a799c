// Package memcache is the in-process Cache used when no Redis address is configured.
package memcache

import (
	"context"
	"encoding/json"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"reviewpulse/internal/adapters/observability"
)

type entry struct {
	b   []byte
	exp time.Time
}

type Cache struct {
	c   *lru.Cache[string, entry]
	now func() time.Time
}

func New(size int) (*Cache, error) {
	if size <= 0 {
		size = 1024
	}
	c, err := lru.New[string, entry](size)
	if err != nil {
		return nil, err
	}
	return &Cache{c: c, now: time.Now}, nil
}

func (m *Cache) Get(_ context.Context, key string, dst any) (bool, error) {
	e, ok := m.c.Get(key)
	if ok && !e.exp.IsZero() && m.now().After(e.exp) {
		m.c.Remove(key)
		ok = false
	}
	if !ok {
		observability.ObserveCache("lru", "miss")
		return false, nil
	}
	observability.ObserveCache("lru", "hit")
	return true, json.Unmarshal(e.b, dst)
}

// Set stores a JSON copy so callers never share mutable values with the cache.
func (m *Cache) Set(_ context.Context, key string, v any, ttlSec int) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	e := entry{b: b}
	if ttlSec > 0 {
		e.exp = m.now().Add(time.Duration(ttlSec) * time.Second)
	}
	m.c.Add(key, e)
	observability.ObserveCache("lru", "set")
	return nil
}

func (m *Cache) Del(_ context.Context, key string) error {
	m.c.Remove(key)
	observability.ObserveCache("lru", "del")
	return nil
}
