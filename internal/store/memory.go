package store

import (
	"context"
	"sync"
)

type memoryStore struct {
	mu   sync.RWMutex
	byID map[string][]Record // oldest first
}

func NewMemoryStore() Store {
	return &memoryStore{byID: make(map[string][]Record)}
}

func (s *memoryStore) Close() error { return nil }

func (s *memoryStore) Save(_ context.Context, npcID string, blob []byte) (Meta, error) {
	rec, err := newRecord(npcID, blob)
	if err != nil {
		return Meta{}, err
	}
	s.mu.Lock()
	s.byID[npcID] = append(s.byID[npcID], rec)
	s.mu.Unlock()
	return rec.Meta, nil
}

func (s *memoryStore) Latest(_ context.Context, npcID string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	recs := s.byID[npcID]
	if len(recs) == 0 {
		return Record{}, ErrNotFound
	}
	return copyRecord(recs[len(recs)-1]), nil
}

func (s *memoryStore) History(_ context.Context, npcID string, limit int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	recs := s.byID[npcID]
	n := len(recs)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]Record, 0, n)
	for i := len(recs) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, copyRecord(recs[i]))
	}
	return out, nil
}

func (s *memoryStore) Prune(_ context.Context, npcID string, keep int) (int, error) {
	if keep <= 0 {
		return 0, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	recs := s.byID[npcID]
	if len(recs) <= keep {
		return 0, nil
	}
	removed := len(recs) - keep
	s.byID[npcID] = append([]Record(nil), recs[removed:]...)
	return removed, nil
}

func copyRecord(r Record) Record {
	r.Blob = append([]byte(nil), r.Blob...)
	return r
}
