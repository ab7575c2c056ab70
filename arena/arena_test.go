package arena

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FREDSAYS-dev/Thesis/matrix"
)

func newDefaultArena(t *testing.T) *Arena {
	t.Helper()
	a, err := New(DefaultConfig())
	require.NoError(t, err)
	return a
}

func TestNew_RejectsBadConfig(t *testing.T) {
	bad := []Config{
		{Cells: 1, Goal: 0, Starts: []int{0}},
		{Cells: 5, Goal: 5, Starts: []int{0}},
		{Cells: 5, Goal: 4},
		{Cells: 5, Goal: 4, Starts: []int{7}},
		{Cells: 5, Goal: 4, Starts: []int{0}, MaxSteps: -1},
	}
	for _, cfg := range bad {
		_, err := New(cfg)
		assert.Error(t, err, "config %+v", cfg)
	}
}

func TestStep_AllyRaceReachesGoal(t *testing.T) {
	a := newDefaultArena(t)

	// both move right: [1,3], then [2,4] with agent 1 on the goal
	res, err := a.Step([]matrix.Action{ActionRight, ActionRight})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, res.Positions)
	assert.Equal(t, []float64{0, 0}, res.Rewards)
	assert.False(t, res.Done)

	res, err = a.Step([]matrix.Action{ActionRight, ActionRight})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 4}, res.Positions)
	assert.Equal(t, []float64{0, 1}, res.Rewards)
	assert.True(t, res.Done)
	assert.False(t, res.Truncated)
	assert.True(t, res.Info[1].AtGoal)

	_, err = a.Step([]matrix.Action{ActionRight, ActionRight})
	assert.ErrorIs(t, err, ErrEpisodeEnded)
}

func TestStep_CollisionPenalisesBothAgents(t *testing.T) {
	a := newDefaultArena(t)

	// main moves right to 1, competitor moves left to 1
	res, err := a.Step([]matrix.Action{ActionRight, ActionLeft})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1}, res.Positions)
	assert.Equal(t, []float64{-1, -1}, res.Rewards)
	assert.True(t, res.Info[0].Collided)
	assert.True(t, res.Info[1].Collided)
	assert.False(t, res.Done)
}

func TestStep_SharingTheGoalIsNotACollision(t *testing.T) {
	a, err := New(Config{Cells: 5, Goal: 4, Starts: []int{3, 3}, CollisionPenalty: -1, GoalReward: 1})
	require.NoError(t, err)

	res, err := a.Step([]matrix.Action{ActionRight, ActionRight})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1}, res.Rewards)
	assert.True(t, res.Done)
}

func TestStep_MovementClampsAtWalls(t *testing.T) {
	a, err := New(Config{Cells: 3, Goal: 2, Starts: []int{0}, MaxSteps: 2, StepPenalty: -0.1})
	require.NoError(t, err)

	res, err := a.Step([]matrix.Action{ActionLeft})
	require.NoError(t, err)
	assert.Equal(t, []int{0}, res.Positions)
	assert.InDelta(t, -0.1, res.Rewards[0], 1e-12)

	res, err = a.Step([]matrix.Action{ActionLeft})
	require.NoError(t, err)
	assert.True(t, res.Done)
	assert.True(t, res.Truncated)
}

func TestStep_RejectsBadActions(t *testing.T) {
	a := newDefaultArena(t)

	_, err := a.Step([]matrix.Action{ActionRight})
	assert.Error(t, err)

	_, err = a.Step([]matrix.Action{ActionRight, "jump"})
	assert.ErrorIs(t, err, ErrInvalidAction)

	assert.Equal(t, []int{0, 2}, a.Snapshot().Positions, "rejected steps must not move anyone")
}

func TestReset(t *testing.T) {
	a := newDefaultArena(t)
	_, err := a.Step([]matrix.Action{ActionRight, ActionRight})
	require.NoError(t, err)

	assert.Equal(t, []int{0, 2}, a.Reset())
	snap := a.Snapshot()
	assert.Equal(t, 0, snap.Step)
	assert.False(t, snap.Done)
	assert.Empty(t, snap.Rewards)
}

func TestCurrentContext(t *testing.T) {
	a, err := New(Config{Cells: 6, Goal: 5, Starts: []int{0, 2, 4}})
	require.NoError(t, err)

	assert.Equal(t, matrix.Context("self=0|others=2,4|goal=5"), a.CurrentContext(0))
	assert.Equal(t, matrix.Context("self=2|others=0,4|goal=5"), a.CurrentContext(1))
	assert.Equal(t, matrix.Context(""), a.CurrentContext(3))
	assert.Equal(t, []matrix.Action{ActionLeft, ActionRight}, a.LegalActions("anything"))
}
