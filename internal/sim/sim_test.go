package sim

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/FREDSAYS-dev/Thesis/arena"
	"github.com/FREDSAYS-dev/Thesis/emotion"
	"github.com/FREDSAYS-dev/Thesis/matrix"
	"github.com/FREDSAYS-dev/Thesis/npc"
)

func newRunner(t *testing.T, personaIDs ...string) *Runner {
	t.Helper()
	return newRunnerWith(t, npc.ManagerOptions{Seed: 11, Logger: zerolog.Nop()}, personaIDs...)
}

func newRunnerWith(t *testing.T, opts npc.ManagerOptions, personaIDs ...string) *Runner {
	t.Helper()
	reg := npc.NewRegistry()
	for _, p := range npc.DefaultPersonas() {
		require.NoError(t, reg.Register(p))
	}
	mgr := npc.NewManager(reg, opts)

	cast := make([]*npc.Persona, 0, len(personaIDs))
	for _, id := range personaIDs {
		cast = append(cast, reg.Get(id))
	}
	ids, err := SpawnCast(mgr, cast)
	require.NoError(t, err)

	a, err := arena.New(arena.DefaultConfig())
	require.NoError(t, err)
	return &Runner{Arena: a, Manager: mgr, NPCs: ids, Logger: zerolog.Nop()}
}

func TestRunEpisode_ScriptedCast(t *testing.T) {
	r := newRunner(t, "ally_npc", "competitor_npc")
	var events []Event
	r.Observer = func(ev Event) { events = append(events, ev) }

	ep, err := r.RunEpisode(context.Background())
	require.NoError(t, err)

	// The ally walks 0→4 and bumps into the retreating competitor on cell 1.
	assert.Equal(t, 1, ep.Index)
	assert.Equal(t, 4, ep.Steps)
	assert.Equal(t, []float64{0, -1}, ep.Returns)
	assert.Equal(t, []bool{true, false}, ep.Reached)
	assert.False(t, ep.Truncated)

	require.Len(t, events, 5)
	for _, ev := range events[:4] {
		assert.Equal(t, EventStep, ev.Type)
	}
	assert.Equal(t, EventEpisodeEnd, events[4].Type)
	assert.Equal(t, []int{4, 0}, events[4].Positions)
	assert.True(t, events[3].Done)
}

func TestTrain_LearnerUpdatesItsTable(t *testing.T) {
	r := newRunner(t, "main_agent", "competitor_npc")

	rep, err := r.Train(context.Background(), 30)
	require.NoError(t, err)

	assert.Equal(t, 30, rep.Episodes)
	assert.GreaterOrEqual(t, rep.Steps, 4*30)
	assert.Len(t, rep.MeanReturns, 2)
	assert.GreaterOrEqual(t, rep.GoalRate, 0.0)
	assert.LessOrEqual(t, rep.GoalRate, 1.0)

	table := r.Manager.Table(r.NPCs[0])
	require.NotNil(t, table)
	assert.Positive(t, table.Len())
}

func TestTrain_Cancelled(t *testing.T) {
	r := newRunner(t, "main_agent", "competitor_npc")
	ctx, cancel := context.WithCancel(context.Background())
	seen := 0
	r.Observer = func(ev Event) {
		if ev.Type == EventEpisodeEnd {
			seen++
			if seen == 2 {
				cancel()
			}
		}
	}

	rep, err := r.Train(ctx, 100)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 2, rep.Episodes)
}

func TestRun_StopsOnCancel(t *testing.T) {
	r := newRunner(t, "ally_npc", "competitor_npc")
	r.Limiter = rate.NewLimiter(rate.Inf, 1)
	ctx, cancel := context.WithCancel(context.Background())
	r.Observer = func(ev Event) {
		if ev.Episode == 3 {
			cancel()
		}
	}
	assert.NoError(t, r.Run(ctx))
}

func TestRunEpisode_RejectsBadCast(t *testing.T) {
	r := newRunner(t, "ally_npc", "competitor_npc")
	r.NPCs = r.NPCs[:1]
	_, err := r.RunEpisode(context.Background())
	assert.Error(t, err)

	r.NPCs = []string{"ally_npc@0", "ghost@1"}
	_, err = r.RunEpisode(context.Background())
	assert.Error(t, err)

	_, err = r.Train(context.Background(), -1)
	assert.Error(t, err)
}

func TestRun_TablesReadableWhileLearning(t *testing.T) {
	r := newRunnerWith(t, npc.ManagerOptions{Seed: 11, Logger: zerolog.Nop(), Concurrent: true},
		"main_agent", "competitor_npc")
	id := r.NPCs[0]
	require.IsType(t, &matrix.Shared{}, r.Manager.Table(id))

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, r.Run(ctx))
	}()

	deadline := time.Now().Add(300 * time.Millisecond)
	reads, seen := 0, 0
	for time.Now().Before(deadline) {
		table := r.Manager.Table(id)
		snap := table.Snapshot()
		require.GreaterOrEqual(t, len(snap.Entries), seen, "entries are never dropped")
		seen = len(snap.Entries)
		_ = table.Encode()
		reads++
	}
	cancel()
	wg.Wait()

	assert.Positive(t, reads)
	assert.Positive(t, r.Manager.Table(id).Len())
}

func TestRunEpisode_FadesEmotionsBetweenEpisodes(t *testing.T) {
	for _, tc := range []struct {
		name  string
		idle  time.Duration
		faded bool
	}{
		{name: "no idle time", idle: 0, faded: false},
		{name: "a day idle", idle: 24 * time.Hour, faded: true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			r := newRunner(t, "main_agent", "competitor_npc")
			clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
			r.Now = func() time.Time { return clock }
			drv := r.Manager.GetInstance(r.NPCs[0]).Emotions

			_, err := r.RunEpisode(context.Background())
			require.NoError(t, err)
			drv.Set(emotion.State{Fatigue: 1})
			clock = clock.Add(tc.idle)

			var fatigue float64
			r.Observer = func(ev Event) {
				if ev.Type == EventStep && ev.Step == 1 {
					fatigue = drv.State().Fatigue
				}
			}
			_, err = r.RunEpisode(context.Background())
			require.NoError(t, err)

			if tc.faded {
				assert.Less(t, fatigue, 0.1)
			} else {
				assert.Equal(t, 1.0, fatigue)
			}
		})
	}
}
