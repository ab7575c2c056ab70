package npc

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FREDSAYS-dev/Thesis/matrix"
)

type staticSeeder []matrix.Demonstration

func (s staticSeeder) Demonstrations() []matrix.Demonstration { return s }

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	r := NewRegistry()
	for _, p := range DefaultPersonas() {
		require.NoError(t, r.Register(p))
	}
	return NewManager(r, ManagerOptions{Seed: 5, Logger: zerolog.Nop()})
}

func TestManagerSpawnsRuleAndLearner(t *testing.T) {
	m := newTestManager(t)

	learner, err := m.SpawnNPC(m.Registry().Get("main_agent"), 0)
	require.NoError(t, err)
	rival, err := m.SpawnNPC(m.Registry().Get("competitor_npc"), 1)
	require.NoError(t, err)

	assert.Equal(t, "main_agent@0", learner.ID)
	assert.NotNil(t, learner.Table)
	assert.NotNil(t, learner.Emotions)
	assert.IsType(t, &MatrixBrain{}, learner.Brain)
	assert.Nil(t, rival.Table)
	assert.IsType(t, &RuleBrain{}, rival.Brain)

	_, err = m.SpawnNPC(m.Registry().Get("main_agent"), 0)
	assert.Error(t, err, "double spawn")

	insts := m.Instances()
	require.Len(t, insts, 2)
	assert.Equal(t, 0, insts[0].Agent)
	assert.True(t, m.IsNPC("competitor_npc@1"))
}

func TestManagerTurnAndObserve(t *testing.T) {
	m := newTestManager(t)
	inst, err := m.SpawnNPC(m.Registry().Get("main_agent"), 0)
	require.NoError(t, err)

	d, err := m.OnTurn(inst.ID, View{Context: "c", Legal: corridorMoves})
	require.NoError(t, err)
	assert.Contains(t, corridorMoves, d.Action)

	require.NoError(t, m.Observe(inst.ID, Transition{Context: "c", Action: d.Action, Reward: 1, Next: "c2"}))
	e, ok := m.Table(inst.ID).Lookup("c", d.Action)
	require.True(t, ok)
	assert.Equal(t, uint64(1), e.Visits)

	_, err = m.OnTurn("ghost@9", View{Legal: corridorMoves})
	assert.Error(t, err)
	assert.Error(t, m.Observe("ghost@9", Transition{}))
}

func TestManagerObserveIgnoredByRuleBrains(t *testing.T) {
	m := newTestManager(t)
	inst, err := m.SpawnNPC(m.Registry().Get("ally_npc"), 1)
	require.NoError(t, err)
	assert.NoError(t, m.Observe(inst.ID, Transition{Reward: 1}))
}

func TestManagerSharedPool(t *testing.T) {
	m := newTestManager(t)
	p := &Persona{ID: "guard", Name: "Guard", Role: RoleAlly, Kind: KindLearner,
		Learning: LearningProfile{SharedPool: true, Archetype: "guards"}}
	require.NoError(t, m.Registry().Register(p))

	a, err := m.SpawnNPC(p, 0)
	require.NoError(t, err)
	b, err := m.SpawnNPC(p, 1)
	require.NoError(t, err)
	assert.Same(t, a.Table, b.Table)
	assert.IsType(t, &matrix.Shared{}, a.Table)

	require.NoError(t, m.Observe(a.ID, Transition{Context: "c", Action: "right", Reward: 1, Next: "d"}))
	require.NoError(t, m.Observe(b.ID, Transition{Context: "c", Action: "right", Reward: 1, Next: "d"}))
	e, _ := a.Table.Lookup("c", "right")
	assert.Equal(t, uint64(2), e.Visits)

	// despawning one member keeps the pool for the next spawn
	m.DespawnNPC(a.ID)
	assert.False(t, m.IsNPC(a.ID))
	c, err := m.SpawnNPC(p, 2)
	require.NoError(t, err)
	assert.Same(t, b.Table, c.Table)
}

func TestManagerSeed(t *testing.T) {
	m := newTestManager(t)
	inst, err := m.SpawnNPC(m.Registry().Get("main_agent"), 0)
	require.NoError(t, err)

	n, err := m.Seed(inst.ID, staticSeeder{
		{Context: "c", Action: "right", Value: 0.8, Visits: 4},
		{Context: "c", Action: "left", Value: -0.2, Visits: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, inst.Table.Len())

	_, err = m.Seed(inst.ID, staticSeeder{{Context: "c", Action: "x", Visits: -1}})
	assert.ErrorIs(t, err, matrix.ErrInvalidArgument)
	assert.Equal(t, 2, inst.Table.Len())

	rule, err := m.SpawnNPC(m.Registry().Get("ally_npc"), 1)
	require.NoError(t, err)
	_, err = m.Seed(rule.ID, staticSeeder{})
	assert.Error(t, err)
}

func TestManagerSpawnWithTable(t *testing.T) {
	m := newTestManager(t)
	restored, err := matrix.New(matrix.Config{BaseEpsilon: 0, LearningRate: 0.5, Seed: 1})
	require.NoError(t, err)
	require.NoError(t, restored.Seed("c", "left", 2, 3))

	inst, err := m.SpawnWithTable(m.Registry().Get("main_agent"), 0, restored)
	require.NoError(t, err)
	assert.Same(t, restored, inst.Table.(*matrix.Matrix))

	_, err = m.SpawnWithTable(m.Registry().Get("main_agent"), 1, nil)
	assert.Error(t, err)
}

func TestManagerSeedRejectsWholeBatch(t *testing.T) {
	m := newTestManager(t)
	inst, err := m.SpawnNPC(m.Registry().Get("main_agent"), 0)
	require.NoError(t, err)

	n, err := m.Seed(inst.ID, staticSeeder{
		{Context: "c", Action: "right", Value: 0.8, Visits: 4},
		{Context: "c", Action: "left", Value: 1, Visits: -1},
		{Context: "d", Action: "right", Value: 0.3, Visits: 1},
	})
	assert.ErrorIs(t, err, matrix.ErrInvalidArgument)
	assert.Equal(t, 0, n)
	assert.Equal(t, 0, inst.Table.Len(), "a bad demonstration leaves the table untouched")
}

func TestManagerDiscountOption(t *testing.T) {
	r := NewRegistry()
	for _, p := range DefaultPersonas() {
		require.NoError(t, r.Register(p))
	}
	m := NewManager(r, ManagerOptions{
		Matrix:   matrix.Config{LearningRate: 1},
		Seed:     5,
		Logger:   zerolog.Nop(),
		Discount: Float(0),
	})
	inst, err := m.SpawnNPC(r.Get("main_agent"), 0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, inst.Brain.(*MatrixBrain).Discount())

	require.NoError(t, inst.Table.Seed("b", "right", 10, 1))
	require.NoError(t, m.Observe(inst.ID, Transition{Context: "a", Action: "right", Next: "b", NextLegal: corridorMoves}))
	e, ok := inst.Table.Lookup("a", "right")
	require.True(t, ok)
	assert.Equal(t, 0.0, e.Value)

	// a persona discount still beats the manager default
	p := &Persona{ID: "farsighted", Name: "Farsighted", Role: RoleMain, Kind: KindLearner,
		Learning: LearningProfile{Discount: Float(0.99)}}
	far, err := m.SpawnNPC(p, 1)
	require.NoError(t, err)
	assert.Equal(t, 0.99, far.Brain.(*MatrixBrain).Discount())
}

func TestManagerConcurrentWrapsTables(t *testing.T) {
	r := NewRegistry()
	for _, p := range DefaultPersonas() {
		require.NoError(t, r.Register(p))
	}
	m := NewManager(r, ManagerOptions{Seed: 5, Logger: zerolog.Nop(), Concurrent: true})

	inst, err := m.SpawnNPC(r.Get("main_agent"), 0)
	require.NoError(t, err)
	assert.IsType(t, &matrix.Shared{}, inst.Table)

	restored, err := matrix.New(matrix.DefaultConfig())
	require.NoError(t, err)
	require.NoError(t, restored.Seed("c", "left", 2, 3))
	again, err := m.SpawnWithTable(r.Get("main_agent"), 1, restored)
	require.NoError(t, err)
	require.IsType(t, &matrix.Shared{}, again.Table)
	e, ok := again.Table.Lookup("c", "left")
	require.True(t, ok)
	assert.Equal(t, 2.0, e.Value)
}

func TestManagerForbiddenActions(t *testing.T) {
	m := newTestManager(t)
	p := &Persona{ID: "pacifist", Name: "Pacifist", Role: RoleAlly, Kind: KindLearner,
		Learning: LearningProfile{BaseEpsilon: 1, Forbid: []matrix.Action{"right"}}}
	inst, err := m.SpawnNPC(p, 0)
	require.NoError(t, err)
	require.NoError(t, inst.Table.Seed("c", "right", 100, 1))

	for i := 0; i < 50; i++ {
		d, err := m.OnTurn(inst.ID, View{Context: "c", Legal: corridorMoves})
		require.NoError(t, err)
		require.Equal(t, matrix.Action("left"), d.Action)
	}
}

func TestManagerDecayEmotions(t *testing.T) {
	m := newTestManager(t)
	inst, err := m.SpawnNPC(m.Registry().Get("main_agent"), 0)
	require.NoError(t, err)
	_, err = m.SpawnNPC(m.Registry().Get("ally_npc"), 1)
	require.NoError(t, err)

	inst.Emotions.ObserveReward(1)
	before := inst.Emotions.State().Joy
	require.Greater(t, before, 0.0)

	m.DecayEmotions(0)
	assert.Equal(t, before, inst.Emotions.State().Joy)

	m.DecayEmotions(100 * time.Second)
	assert.Less(t, inst.Emotions.State().Joy, before)

	m.DecayEmotions(24 * time.Hour)
	assert.Equal(t, 0.0, inst.Emotions.State().Joy)
}
