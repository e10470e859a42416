package calendar

import (
	"sync"
	"time"

	"swimlms/internal/backend"
)

// Registry хранит календари по операторам (арендатор + пользователь).
type Registry struct {
	api ScheduleAPI
	mu  sync.Mutex
	m   map[string]*Calendar
}

func NewRegistry(api ScheduleAPI) *Registry {
	return &Registry{api: api, m: map[string]*Calendar{}}
}

// For возвращает календарь оператора, создавая его при первом обращении.
func (r *Registry) For(s backend.Session) *Calendar {
	key := s.Key()
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.m[key]; ok {
		c.SetSession(s)
		return c
	}
	c := New(r.api, s)
	r.m[key] = c
	return c
}

// EvictIdle удаляет календари, не тронутые дольше maxIdle.
func (r *Registry) EvictIdle(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for k, c := range r.m {
		if c.LastUsed().Before(cutoff) {
			delete(r.m, k)
			n++
		}
	}
	return n
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.m)
}
