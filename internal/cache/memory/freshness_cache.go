package memory

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/whoknows/weather/internal/domain"
	"github.com/whoknows/weather/internal/ports"
	"github.com/whoknows/weather/pkg/metrics"
)

var _ ports.WeatherCache = (*FreshnessCache)(nil)

const defaultShards = 16

type entry struct {
	key        string
	payload    *domain.Weather
	freshUntil time.Time
	staleUntil time.Time
}

type shard struct {
	mu       sync.RWMutex
	capacity int // 0 — без ограничения
	ll       *list.List
	index    map[string]*list.Element
}

// FreshnessCache — in-memory кэш с горизонтами fresh/stale.
// Ключи раскладываются по шардам (xxhash), у каждого шарда свой мьютекс.
// Записи никогда не удаляются по времени; при capacity > 0 вытесняются по LRU.
type FreshnessCache struct {
	shards []*shard
	now    func() time.Time
	size   atomic.Int64
}

// NewFreshnessCache — конструктор. capacity <= 0 — без ограничения числа ключей,
// clock == nil — time.Now.
func NewFreshnessCache(capacity int, clock func() time.Time) *FreshnessCache {
	if clock == nil {
		clock = time.Now
	}
	if capacity < 0 {
		capacity = 0
	}

	n := defaultShards
	if capacity > 0 && capacity < defaultShards {
		n = 1
	}
	perShard := 0
	if capacity > 0 {
		perShard = (capacity + n - 1) / n
	}

	c := &FreshnessCache{
		shards: make([]*shard, n),
		now:    clock,
	}
	for i := range c.shards {
		c.shards[i] = &shard{
			capacity: perShard,
			ll:       list.New(),
			index:    make(map[string]*list.Element),
		}
	}
	return c
}

// Get — копия записи по ключу. Время не сравнивается: классификация — забота вызывающего.
func (c *FreshnessCache) Get(_ context.Context, key string) (*domain.CacheEntry, bool) {
	s := c.shardFor(key)

	if s.capacity == 0 {
		s.mu.RLock()
		elem, ok := s.index[key]
		var out *domain.CacheEntry
		if ok {
			out = snapshot(elem)
		}
		s.mu.RUnlock()
		return c.recordLookup(out, ok)
	}

	// Bounded-режим двигает элемент в голову списка, нужен эксклюзивный лок.
	s.mu.Lock()
	elem, ok := s.index[key]
	var out *domain.CacheEntry
	if ok {
		s.ll.MoveToFront(elem)
		out = snapshot(elem)
	}
	s.mu.Unlock()
	return c.recordLookup(out, ok)
}

// Put — перезаписывает запись целиком. Отрицательные TTL трактуются как 0.
func (c *FreshnessCache) Put(_ context.Context, key string, payload *domain.Weather, ttlFresh, ttlStale time.Duration) {
	if ttlFresh < 0 {
		ttlFresh = 0
	}
	if ttlStale < 0 {
		ttlStale = 0
	}
	now := c.now()
	freshUntil := now.Add(ttlFresh)
	ent := &entry{
		key:        key,
		payload:    payload.Clone(),
		freshUntil: freshUntil,
		staleUntil: freshUntil.Add(ttlStale),
	}

	s := c.shardFor(key)
	s.mu.Lock()
	if elem, ok := s.index[key]; ok {
		elem.Value = ent
		s.ll.MoveToFront(elem)
		s.mu.Unlock()
		metrics.CacheOps.WithLabelValues("put").Inc()
		return
	}
	s.index[key] = s.ll.PushFront(ent)
	evicted := s.evictOverflow()
	s.mu.Unlock()

	metrics.CacheOps.WithLabelValues("put").Inc()
	if evicted > 0 {
		metrics.CacheOps.WithLabelValues("evicted").Add(float64(evicted))
	}
	metrics.CacheSize.Set(float64(c.size.Add(int64(1 - evicted))))
}

// Len — текущее количество ключей.
func (c *FreshnessCache) Len() int {
	return int(c.size.Load())
}
