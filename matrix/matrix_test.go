package matrix

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMatrix(t *testing.T, cfg Config) *Matrix {
	t.Helper()
	if cfg.Seed == 0 {
		cfg.Seed = 7
	}
	m, err := New(cfg)
	require.NoError(t, err)
	return m
}

func TestNew_RejectsBadConfig(t *testing.T) {
	cases := []Config{
		{BaseEpsilon: -0.1, LearningRate: 0.5},
		{BaseEpsilon: 1.5, LearningRate: 0.5},
		{BaseEpsilon: 0.1, LearningRate: 0},
		{BaseEpsilon: 0.1, LearningRate: 1.01},
		{BaseEpsilon: 0.1, LearningRate: 0.5, OptimisticInit: math.Inf(1)},
		{BaseEpsilon: math.NaN(), LearningRate: 0.5},
	}
	for _, cfg := range cases {
		_, err := New(cfg)
		assert.ErrorIs(t, err, ErrInvalidArgument, "config %+v", cfg)
	}
}

func TestSelectAction_UnseenPairsUseOptimisticInitAndCandidateOrder(t *testing.T) {
	m := newTestMatrix(t, Config{BaseEpsilon: 0, LearningRate: 0.5, OptimisticInit: 2})

	got, err := m.SelectAction("A", []Action{"wait", "flee", "attack"}, 0)
	require.NoError(t, err)
	assert.Equal(t, Action("wait"), got)

	// a seeded pair below the optimistic value loses to unseen ones
	require.NoError(t, m.Seed("A", "wait", 1, 3))
	got, err = m.SelectAction("A", []Action{"wait", "flee", "attack"}, 0)
	require.NoError(t, err)
	assert.Equal(t, Action("flee"), got)

	// and a seeded pair above it wins
	require.NoError(t, m.Seed("A", "attack", 5, 1))
	got, err = m.SelectAction("A", []Action{"wait", "flee", "attack"}, 0)
	require.NoError(t, err)
	assert.Equal(t, Action("attack"), got)
}

func TestSelectAction_RejectsEmptyCandidatesAndNaNMood(t *testing.T) {
	m := newTestMatrix(t, DefaultConfig())

	_, err := m.SelectAction("A", nil, 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = m.SelectAction("A", []Action{"x"}, Mood(math.NaN()))
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestSelectAction_DoesNotTouchEntries(t *testing.T) {
	m := newTestMatrix(t, Config{BaseEpsilon: 0.5, LearningRate: 0.5})
	require.NoError(t, m.Seed("A", "x", 1, 2))

	for i := 0; i < 100; i++ {
		_, err := m.SelectAction("A", []Action{"x", "y"}, 0.3)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, m.Len())
	e, ok := m.Lookup("A", "x")
	require.True(t, ok)
	assert.Equal(t, Entry{Value: 1, Visits: 2}, e)
}

func TestSelectAction_FullExplorationIsRoughlyUniform(t *testing.T) {
	m := newTestMatrix(t, Config{BaseEpsilon: 0.5, LearningRate: 0.5, Seed: 11})
	require.NoError(t, m.Seed("A", "x", 100, 1))

	// mood 1 doubles 0.5 to a rate of 1: the stored value is ignored
	counts := map[Action]int{}
	const rounds = 6000
	for i := 0; i < rounds; i++ {
		a, err := m.SelectAction("A", []Action{"x", "y", "z"}, 1)
		require.NoError(t, err)
		counts[a]++
	}
	for _, a := range []Action{"x", "y", "z"} {
		rate := float64(counts[a]) / rounds
		assert.InDelta(t, 1.0/3, rate, 0.05, "action %s", a)
	}
}

func TestSelectAction_ClampsMoodBeyondRange(t *testing.T) {
	a := newTestMatrix(t, Config{BaseEpsilon: 0.3, LearningRate: 0.5, Seed: 5})
	b := newTestMatrix(t, Config{BaseEpsilon: 0.3, LearningRate: 0.5, Seed: 5})
	for _, m := range []*Matrix{a, b} {
		require.NoError(t, m.Seed("A", "x", 1, 1))
	}

	for i := 0; i < 200; i++ {
		got, err := a.SelectAction("A", []Action{"x", "y"}, -7)
		require.NoError(t, err)
		want, err := b.SelectAction("A", []Action{"x", "y"}, -1)
		require.NoError(t, err)
		require.Equal(t, want, got, "step %d", i)
	}
}

func TestUpdate_Scenario(t *testing.T) {
	m := newTestMatrix(t, Config{BaseEpsilon: 0.1, LearningRate: 0.5})
	require.NoError(t, m.Seed("A", "X", 0, 0))

	require.NoError(t, m.Update("A", "X", 10, "B", nil, 0.9))

	e, ok := m.Lookup("A", "X")
	require.True(t, ok)
	assert.Equal(t, 5.0, e.Value)
	assert.Equal(t, uint64(1), e.Visits)
}

func TestUpdate_TerminalReducesToRewardStep(t *testing.T) {
	m := newTestMatrix(t, Config{BaseEpsilon: 0.1, LearningRate: 0.25})
	require.NoError(t, m.Seed("A", "X", 4, 2))
	// next context has a large value, but an empty candidate set makes it terminal
	require.NoError(t, m.Seed("B", "Y", 1000, 1))

	require.NoError(t, m.Update("A", "X", 2, "B", []Action{}, 1))

	e, _ := m.Lookup("A", "X")
	assert.InDelta(t, 4+0.25*(2-4), e.Value, 1e-12)
	assert.Equal(t, uint64(3), e.Visits)
}

func TestUpdate_BootstrapsFromBestNextCandidate(t *testing.T) {
	m := newTestMatrix(t, Config{BaseEpsilon: 0.1, LearningRate: 1, OptimisticInit: 0.5})
	require.NoError(t, m.Seed("B", "left", 3, 1))
	require.NoError(t, m.Seed("B", "right", -2, 1))

	// unseen (A, X) starts from OptimisticInit; learning rate 1 jumps to target
	require.NoError(t, m.Update("A", "X", 1, "B", []Action{"right", "left"}, 0.5))
	e, _ := m.Lookup("A", "X")
	assert.InDelta(t, 1+0.5*3, e.Value, 1e-12)

	// unseen next candidates bootstrap from OptimisticInit
	require.NoError(t, m.Update("C", "X", 0, "D", []Action{"up"}, 1))
	e, _ = m.Lookup("C", "X")
	assert.InDelta(t, 0.5, e.Value, 1e-12)
}

func TestUpdate_RejectsBadDiscountAndReward(t *testing.T) {
	m := newTestMatrix(t, DefaultConfig())

	for _, d := range []float64{-0.01, 1.01, math.NaN()} {
		err := m.Update("A", "X", 1, "B", nil, d)
		assert.ErrorIs(t, err, ErrInvalidArgument, "discount %v", d)
	}
	for _, r := range []float64{math.Inf(1), math.Inf(-1), math.NaN()} {
		err := m.Update("A", "X", r, "B", nil, 0.5)
		assert.ErrorIs(t, err, ErrInvalidArgument, "reward %v", r)
	}
	assert.Equal(t, 0, m.Len())
}

func TestUpdate_OverflowIsRejectedWithoutChange(t *testing.T) {
	m := newTestMatrix(t, Config{BaseEpsilon: 0, LearningRate: 1})
	require.NoError(t, m.Seed("A", "X", 1, 4))
	require.NoError(t, m.Seed("B", "Y", math.MaxFloat64, 1))

	err := m.Update("A", "X", math.MaxFloat64, "B", []Action{"Y"}, 1)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	e, _ := m.Lookup("A", "X")
	assert.Equal(t, Entry{Value: 1, Visits: 4}, e)
}

func TestUpdate_RandomSequencesStayFiniteAndCountVisits(t *testing.T) {
	m := newTestMatrix(t, Config{BaseEpsilon: 0.2, LearningRate: 0.7, OptimisticInit: 1})
	rng := rand.New(rand.NewSource(3))
	contexts := []Context{"a", "b", "c", "d"}
	actions := []Action{"x", "y", "z"}
	applied := map[key]uint64{}

	for i := 0; i < 5000; i++ {
		ctx := contexts[rng.Intn(len(contexts))]
		act := actions[rng.Intn(len(actions))]
		next := contexts[rng.Intn(len(contexts))]
		var nextCandidates []Action
		if rng.Intn(5) > 0 {
			nextCandidates = actions[:1+rng.Intn(len(actions))]
		}
		reward := (rng.Float64() - 0.5) * 200
		discount := rng.Float64()
		require.NoError(t, m.Update(ctx, act, reward, next, nextCandidates, discount))
		applied[key{ctx, act}]++
	}

	for k, n := range applied {
		e, ok := m.Lookup(k.ctx, k.action)
		require.True(t, ok)
		assert.True(t, isFinite(e.Value), "value for %v", k)
		assert.Equal(t, n, e.Visits, "visits for %v", k)
	}
}

func TestSeed_Validation(t *testing.T) {
	m := newTestMatrix(t, DefaultConfig())

	assert.ErrorIs(t, m.Seed("A", "X", 1, -1), ErrInvalidArgument)
	assert.ErrorIs(t, m.Seed("A", "X", math.NaN(), 1), ErrInvalidArgument)

	require.NoError(t, m.Seed("A", "X", 1, 5))
	require.NoError(t, m.Seed("A", "X", -3, 2))
	e, _ := m.Lookup("A", "X")
	assert.Equal(t, Entry{Value: -3, Visits: 2}, e)
}

func TestMaxValue_TerminalIsZero(t *testing.T) {
	m := newTestMatrix(t, Config{BaseEpsilon: 0, LearningRate: 0.5, OptimisticInit: 9})
	assert.Equal(t, 0.0, m.MaxValue("T", nil))
	assert.Equal(t, 9.0, m.MaxValue("T", []Action{"x"}))
}

func TestSnapshot_SortedCopy(t *testing.T) {
	m := newTestMatrix(t, DefaultConfig())
	require.NoError(t, m.Seed("b", "y", 2, 1))
	require.NoError(t, m.Seed("a", "z", 1, 1))
	require.NoError(t, m.Seed("a", "x", 3, 1))

	s := m.Snapshot()
	require.Len(t, s.Entries, 3)
	assert.Equal(t, EntrySnapshot{Context: "a", Action: "x", Value: 3, Visits: 1}, s.Entries[0])
	assert.Equal(t, EntrySnapshot{Context: "a", Action: "z", Value: 1, Visits: 1}, s.Entries[1])
	assert.Equal(t, EntrySnapshot{Context: "b", Action: "y", Value: 2, Visits: 1}, s.Entries[2])
	assert.Equal(t, []Context{"a", "b"}, m.Contexts())

	s.Entries[0].Value = 100
	e, _ := m.Lookup("a", "x")
	assert.Equal(t, 3.0, e.Value)
}
