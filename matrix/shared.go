package matrix

import "sync"

// Shared guards a Matrix for NPCs of one archetype that pool their learning.
// Selection also takes the write lock because it advances the matrix RNG.
type Shared struct {
	mu sync.RWMutex
	m  *Matrix
}

func NewShared(m *Matrix) *Shared {
	return &Shared{m: m}
}

func (s *Shared) SelectAction(ctx Context, candidates []Action, mood Mood) (Action, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m.SelectAction(ctx, candidates, mood)
}

func (s *Shared) Greedy(ctx Context, candidates []Action) (Action, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.m.Greedy(ctx, candidates)
}

func (s *Shared) Update(ctx Context, action Action, reward float64, next Context, nextCandidates []Action, discount float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m.Update(ctx, action, reward, next, nextCandidates, discount)
}

func (s *Shared) Seed(ctx Context, action Action, value float64, visits int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m.Seed(ctx, action, value, visits)
}

func (s *Shared) SeedAll(demos []Demonstration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m.SeedAll(demos)
}

func (s *Shared) Lookup(ctx Context, action Action) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.m.Lookup(ctx, action)
}

func (s *Shared) Config() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.m.Config()
}

func (s *Shared) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.m.Len()
}

func (s *Shared) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.m.Snapshot()
}

func (s *Shared) Encode() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.m.Encode()
}

// Replace swaps in a freshly decoded matrix.
func (s *Shared) Replace(m *Matrix) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m = m
}
