package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore: схемы в памяти процесса; пропадают при рестарте.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]SchemaRecord
	ids  *idGen
	now  func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string]SchemaRecord{}, ids: newIDGen(), now: time.Now}
}

func (s *MemoryStore) Create(_ context.Context, rec SchemaRecord) (SchemaRecord, error) {
	rec, err := prepare(rec)
	if err != nil {
		return SchemaRecord{}, err
	}
	now := s.now().UTC()
	rec.ID = s.ids.next(now)
	rec.Version = 1
	rec.CreatedAt, rec.UpdatedAt = now, now

	s.mu.Lock()
	s.data[rec.ID] = cloneRecord(rec)
	s.mu.Unlock()
	return rec, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (SchemaRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.data[id]
	if !ok {
		return SchemaRecord{}, ErrNotFound
	}
	return cloneRecord(rec), nil
}

// List: по возрастанию id (ULID сортируется по времени создания)
func (s *MemoryStore) List(_ context.Context, f Filter) ([]SchemaRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]SchemaRecord, 0, len(s.data))
	for _, rec := range s.data {
		if f.match(rec) {
			out = append(out, cloneRecord(rec))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) Update(_ context.Context, rec SchemaRecord) (SchemaRecord, error) {
	rec, err := prepare(rec)
	if err != nil {
		return SchemaRecord{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.data[rec.ID]
	if !ok {
		return SchemaRecord{}, ErrNotFound
	}
	rec.CreatedAt = cur.CreatedAt
	rec.Version = cur.Version + 1
	rec.UpdatedAt = s.now().UTC()
	s.data[rec.ID] = cloneRecord(rec)
	return rec, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[id]; !ok {
		return ErrNotFound
	}
	delete(s.data, id)
	return nil
}

func (s *MemoryStore) Close() error { return nil }

func cloneRecord(r SchemaRecord) SchemaRecord {
	r.Schema = r.Schema.Clone()
	return r
}
