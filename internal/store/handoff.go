package store

import (
	"sync"
	"time"
)

// Handoff: передача предзаполненных данных формы между экранами одного оператора.
// Запись живёт ttl и читается один раз.
type Handoff struct {
	mu  sync.Mutex
	ttl time.Duration
	now func() time.Time
	m   map[string]handoffEntry
}

type handoffEntry struct {
	data    map[string]any
	expires time.Time
}

func NewHandoff(ttl time.Duration) *Handoff {
	return &Handoff{ttl: ttl, now: time.Now, m: map[string]handoffEntry{}}
}

func handoffKey(session, key string) string { return session + "|" + key }

// Put перезаписывает прежнее значение под тем же ключом.
func (h *Handoff) Put(session, key string, data map[string]any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.m[handoffKey(session, key)] = handoffEntry{data: data, expires: h.now().Add(h.ttl)}
}

// Take отдаёт данные и удаляет их. Просроченные записи не отдаются.
func (h *Handoff) Take(session, key string) (map[string]any, bool) {
	k := handoffKey(session, key)
	h.mu.Lock()
	defer h.mu.Unlock()
	e, ok := h.m[k]
	if !ok {
		return nil, false
	}
	delete(h.m, k)
	if !h.now().Before(e.expires) {
		return nil, false
	}
	return e.data, true
}

// Purge чистит просроченные записи; возвращает число удалённых.
func (h *Handoff) Purge() int {
	now := h.now()
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for k, e := range h.m {
		if !now.Before(e.expires) {
			delete(h.m, k)
			n++
		}
	}
	return n
}

func (h *Handoff) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.m)
}
