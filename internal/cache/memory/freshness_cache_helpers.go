package memory

import (
	"container/list"

	"github.com/cespare/xxhash/v2"
	"github.com/whoknows/weather/internal/domain"
	"github.com/whoknows/weather/pkg/metrics"
)

// shardFor — шард по xxhash ключа.
func (c *FreshnessCache) shardFor(key string) *shard {
	if len(c.shards) == 1 {
		return c.shards[0]
	}
	return c.shards[xxhash.Sum64String(key)%uint64(len(c.shards))]
}

// recordLookup — метрика hit/miss и проброс результата Get.
func (c *FreshnessCache) recordLookup(out *domain.CacheEntry, ok bool) (*domain.CacheEntry, bool) {
	if !ok {
		metrics.CacheOps.WithLabelValues("miss").Inc()
		return nil, false
	}
	metrics.CacheOps.WithLabelValues("hit").Inc()
	return out, true
}

// evictOverflow — вытесняет наименее используемые элементы сверх capacity.
// Вызывается под s.mu. Возвращает число вытесненных.
func (s *shard) evictOverflow() int {
	if s.capacity == 0 {
		return 0
	}
	evicted := 0
	for s.ll.Len() > s.capacity {
		back := s.ll.Back()
		if back == nil {
			break
		}
		s.removeElement(back)
		evicted++
	}
	return evicted
}

// removeElement — удаляет элемент из списка и индекса.
func (s *shard) removeElement(elem *list.Element) {
	if ent, ok := elem.Value.(*entry); ok {
		delete(s.index, ent.key)
	}
	s.ll.Remove(elem)
}

// snapshot — копия записи, чтобы внешние изменения не отражались на данных внутри кэша.
func snapshot(elem *list.Element) *domain.CacheEntry {
	ent := elem.Value.(*entry)
	return &domain.CacheEntry{
		Key:        ent.key,
		Payload:    ent.payload.Clone(),
		FreshUntil: ent.freshUntil,
		StaleUntil: ent.staleUntil,
	}
}
