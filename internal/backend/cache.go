package backend

import (
	"sync"
	"time"
)

// slotCache: кэш деталей слота с жизнью по времени. Мутации его не
// инвалидируют: запись просто устаревает.
type slotCache struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	items map[string]slotEntry
}

type slotEntry struct {
	val     SlotDetail
	expires time.Time
}

func newSlotCache(ttl time.Duration) *slotCache {
	return &slotCache{ttl: ttl, now: time.Now, items: map[string]slotEntry{}}
}

func (c *slotCache) get(key string) (SlotDetail, bool) {
	if c.ttl <= 0 {
		return SlotDetail{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.items[key]
	if !ok || !c.now().Before(e.expires) {
		return SlotDetail{}, false
	}
	return e.val, true
}

func (c *slotCache) put(key string, v SlotDetail) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.items[key] = slotEntry{val: v, expires: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

func (c *slotCache) purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	n := 0
	for k, e := range c.items {
		if !now.Before(e.expires) {
			delete(c.items, k)
			n++
		}
	}
	return n
}
