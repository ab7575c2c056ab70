package matrix

import (
	"math/rand"
	"time"
)

// Matrix holds learned action values per context and picks actions under a
// mood-modulated epsilon-greedy policy.
//
// A Matrix belongs to a single decision loop and is not safe for concurrent
// use; see Shared for pooled learning.
type Matrix struct {
	cfg     Config
	rng     *rand.Rand
	entries map[key]Entry
}

// New creates an empty matrix.
func New(cfg Config) (*Matrix, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Matrix{
		cfg:     cfg,
		rng:     rand.New(rand.NewSource(seed)),
		entries: make(map[key]Entry),
	}, nil
}

func (m *Matrix) Config() Config { return m.cfg }

// Len returns the number of stored (context, action) pairs.
func (m *Matrix) Len() int { return len(m.entries) }

// Lookup returns the stored entry for a pair.
func (m *Matrix) Lookup(ctx Context, action Action) (Entry, bool) {
	e, ok := m.entries[key{ctx, action}]
	return e, ok
}

func (m *Matrix) value(ctx Context, action Action) float64 {
	if e, ok := m.entries[key{ctx, action}]; ok {
		return e.Value
	}
	return m.cfg.OptimisticInit
}

// SelectAction picks one of candidates for ctx. With probability
// ExplorationRate(BaseEpsilon, mood) the pick is uniform; otherwise it is the
// greedy choice. Entries are not modified.
func (m *Matrix) SelectAction(ctx Context, candidates []Action, mood Mood) (Action, error) {
	if len(candidates) == 0 {
		return "", invalidArgf("no candidate actions for context %q", ctx)
	}
	mood, err := ClampMood(mood)
	if err != nil {
		return "", err
	}
	eps := ExplorationRate(m.cfg.BaseEpsilon, mood)
	if eps > 0 && m.rng.Float64() < eps {
		return candidates[m.rng.Intn(len(candidates))], nil
	}
	return m.greedy(ctx, candidates), nil
}

// Greedy returns the highest-valued candidate, ties going to the earliest one.
func (m *Matrix) Greedy(ctx Context, candidates []Action) (Action, error) {
	if len(candidates) == 0 {
		return "", invalidArgf("no candidate actions for context %q", ctx)
	}
	return m.greedy(ctx, candidates), nil
}

func (m *Matrix) greedy(ctx Context, candidates []Action) Action {
	best := candidates[0]
	bestValue := m.value(ctx, best)
	for _, a := range candidates[1:] {
		// strict comparison keeps the first of equal candidates
		if v := m.value(ctx, a); v > bestValue {
			best, bestValue = a, v
		}
	}
	return best
}

// MaxValue is the bootstrap estimate for ctx. A terminal state (no
// candidates) is worth 0.
func (m *Matrix) MaxValue(ctx Context, candidates []Action) float64 {
	if len(candidates) == 0 {
		return 0
	}
	return m.value(ctx, m.greedy(ctx, candidates))
}

// Update applies one temporal-difference step to (ctx, action):
//
//	v += LearningRate * (reward + discount*MaxValue(next, nextCandidates) - v)
//
// and counts the visit. Nothing is changed when an argument is rejected.
func (m *Matrix) Update(ctx Context, action Action, reward float64, next Context, nextCandidates []Action, discount float64) error {
	if !isFinite(reward) {
		return invalidArgf("reward must be finite, got %v", reward)
	}
	if !isFinite(discount) || discount < 0 || discount > 1 {
		return invalidArgf("discount must be in [0,1], got %v", discount)
	}

	k := key{ctx, action}
	e, ok := m.entries[k]
	if !ok {
		e.Value = m.cfg.OptimisticInit
	}
	target := reward + discount*m.MaxValue(next, nextCandidates)
	v := e.Value + m.cfg.LearningRate*(target-e.Value)
	if !isFinite(v) {
		return invalidArgf("update of %q/%q overflows (value=%v target=%v)", ctx, action, e.Value, target)
	}
	e.Value = v
	e.Visits++
	m.entries[k] = e
	return nil
}

// Seed overwrites the entry for (ctx, action). Used to load demonstrations
// before live learning starts.
func (m *Matrix) Seed(ctx Context, action Action, value float64, visits int64) error {
	if visits < 0 {
		return invalidArgf("visit count must be >= 0, got %d", visits)
	}
	if !isFinite(value) {
		return invalidArgf("seed value must be finite, got %v", value)
	}
	m.entries[key{ctx, action}] = Entry{Value: value, Visits: uint64(visits)}
	return nil
}
