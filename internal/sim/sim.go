// Package sim drives NPCs through arena episodes.
package sim

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/FREDSAYS-dev/Thesis/arena"
	"github.com/FREDSAYS-dev/Thesis/emotion"
	"github.com/FREDSAYS-dev/Thesis/matrix"
	"github.com/FREDSAYS-dev/Thesis/npc"
)

const (
	EventStep       = "step"
	EventEpisodeEnd = "episodeEnd"
)

// Event is published to the Observer after every arena step and at the end
// of each episode.
type Event struct {
	Type      string          `json:"type"`
	Episode   int             `json:"episode"`
	Step      int             `json:"step"`
	NPCs      []string        `json:"npcs"`
	Positions []int           `json:"positions"`
	Actions   []matrix.Action `json:"actions,omitempty"`
	Rewards   []float64       `json:"rewards,omitempty"`
	Moods     []float64       `json:"moods,omitempty"`
	Returns   []float64       `json:"returns,omitempty"`
	Done      bool            `json:"done"`
	Truncated bool            `json:"truncated,omitempty"`
}

// Episode summarises one finished episode.
type Episode struct {
	Index     int
	Steps     int
	Returns   []float64
	Reached   []bool // agent i stood on the goal at the end
	Truncated bool
}

// Report aggregates episodes. MeanReturn and GoalRate describe agent 0.
type Report struct {
	Episodes    int       `json:"episodes"`
	Steps       int       `json:"steps"`
	MeanReturn  float64   `json:"meanReturn"`
	MeanReturns []float64 `json:"meanReturns"`
	GoalRate    float64   `json:"goalRate"`
}

type Runner struct {
	Arena   *arena.Arena
	Manager *npc.Manager
	// NPCs[i] is the instance id playing agent i.
	NPCs   []string
	Logger zerolog.Logger
	// Limiter paces arena steps when set.
	Limiter  *rate.Limiter
	Observer func(Event)
	// Now is the wall clock used to fade emotions between episodes.
	// nil means time.Now.
	Now func() time.Time

	episodes int
	lastEnd  time.Time
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *Runner) validate() error {
	if r.Arena == nil || r.Manager == nil {
		return errors.New("runner needs an arena and a manager")
	}
	if len(r.NPCs) != r.Arena.Agents() {
		return fmt.Errorf("runner has %d NPCs for %d agents", len(r.NPCs), r.Arena.Agents())
	}
	for _, id := range r.NPCs {
		if !r.Manager.IsNPC(id) {
			return fmt.Errorf("runner: unknown NPC %s", id)
		}
	}
	return nil
}

// RunEpisode resets the arena and plays until the episode ends. Learners
// observe every transition.
func (r *Runner) RunEpisode(ctx context.Context) (Episode, error) {
	if err := r.validate(); err != nil {
		return Episode{}, err
	}
	log := r.Logger.With().Str("component", "sim").Logger()

	r.episodes++
	ep := Episode{
		Index:   r.episodes,
		Returns: make([]float64, len(r.NPCs)),
		Reached: make([]bool, len(r.NPCs)),
	}
	r.Arena.Reset()
	if !r.lastEnd.IsZero() {
		r.Manager.DecayEmotions(r.now().Sub(r.lastEnd))
	}

	contexts := make([]matrix.Context, len(r.NPCs))
	actions := make([]matrix.Action, len(r.NPCs))
	moods := make([]float64, len(r.NPCs))
	for !r.Arena.Done() {
		if err := ctx.Err(); err != nil {
			return ep, err
		}
		if r.Limiter != nil {
			if err := r.Limiter.Wait(ctx); err != nil {
				return ep, err
			}
		}

		for i, id := range r.NPCs {
			view := npc.ViewFor(r.Arena, i)
			d, err := r.Manager.OnTurn(id, view)
			if err != nil {
				return ep, err
			}
			contexts[i] = view.Context
			actions[i] = d.Action
			moods[i] = float64(d.Mood)
		}

		res, err := r.Arena.Step(actions)
		if err != nil {
			return ep, fmt.Errorf("episode %d step %d: %w", ep.Index, ep.Steps, err)
		}
		ep.Steps = res.Step

		for i, id := range r.NPCs {
			next := r.Arena.CurrentContext(i)
			var nextLegal []matrix.Action
			if !res.Done {
				nextLegal = r.Arena.LegalActions(next)
			}
			t := npc.Transition{
				Context:   contexts[i],
				Action:    actions[i],
				Reward:    res.Rewards[i],
				Next:      next,
				NextLegal: nextLegal,
				Events:    eventsFor(res.Info[i]),
			}
			if err := r.Manager.Observe(id, t); err != nil {
				return ep, fmt.Errorf("episode %d step %d: %w", ep.Index, ep.Steps, err)
			}
			ep.Returns[i] += res.Rewards[i]
			ep.Reached[i] = res.Info[i].AtGoal
		}
		ep.Truncated = res.Truncated

		r.publish(Event{
			Type:      EventStep,
			Episode:   ep.Index,
			Step:      res.Step,
			NPCs:      r.NPCs,
			Positions: res.Positions,
			Actions:   append([]matrix.Action(nil), actions...),
			Rewards:   res.Rewards,
			Moods:     append([]float64(nil), moods...),
			Done:      res.Done,
			Truncated: res.Truncated,
		})
	}

	r.publish(Event{
		Type:      EventEpisodeEnd,
		Episode:   ep.Index,
		Step:      ep.Steps,
		NPCs:      r.NPCs,
		Positions: r.Arena.Snapshot().Positions,
		Returns:   append([]float64(nil), ep.Returns...),
		Done:      true,
		Truncated: ep.Truncated,
	})
	r.lastEnd = r.now()
	log.Debug().
		Int("episode", ep.Index).
		Int("steps", ep.Steps).
		Floats64("returns", ep.Returns).
		Bool("truncated", ep.Truncated).
		Msg("episode finished")
	return ep, nil
}

// Train plays n episodes. On cancellation it returns the report so far
// together with the context error.
func (r *Runner) Train(ctx context.Context, n int) (Report, error) {
	if n < 0 {
		return Report{}, fmt.Errorf("episode count must be >= 0, got %d", n)
	}
	log := r.Logger.With().Str("component", "sim").Logger()

	var agg aggregate
	for i := 0; i < n; i++ {
		ep, err := r.RunEpisode(ctx)
		if err != nil {
			return agg.report(), err
		}
		agg.add(ep)
	}
	rep := agg.report()
	log.Info().
		Int("episodes", rep.Episodes).
		Int("steps", rep.Steps).
		Float64("mean_return", rep.MeanReturn).
		Float64("goal_rate", rep.GoalRate).
		Msg("training finished")
	return rep, nil
}

// Run plays episodes until ctx is cancelled. It returns nil on cancellation.
func (r *Runner) Run(ctx context.Context) error {
	for {
		if _, err := r.RunEpisode(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
}

func (r *Runner) publish(ev Event) {
	if r.Observer != nil {
		r.Observer(ev)
	}
}

func eventsFor(info arena.AgentInfo) []emotion.Event {
	var evs []emotion.Event
	if info.Collided {
		evs = append(evs, emotion.Event{Kind: emotion.KindCollision, Intensity: 1})
	}
	if info.AtGoal {
		evs = append(evs, emotion.Event{Kind: emotion.KindGoalReached, Intensity: 1})
	}
	return evs
}

type aggregate struct {
	episodes int
	steps    int
	returns  []float64
	goals    int
}

func (a *aggregate) add(ep Episode) {
	if a.returns == nil {
		a.returns = make([]float64, len(ep.Returns))
	}
	a.episodes++
	a.steps += ep.Steps
	for i, g := range ep.Returns {
		a.returns[i] += g
	}
	if len(ep.Reached) > 0 && ep.Reached[0] {
		a.goals++
	}
}

func (a *aggregate) report() Report {
	rep := Report{Episodes: a.episodes, Steps: a.steps}
	if a.episodes == 0 {
		return rep
	}
	rep.MeanReturns = make([]float64, len(a.returns))
	for i, g := range a.returns {
		rep.MeanReturns[i] = g / float64(a.episodes)
	}
	if len(rep.MeanReturns) > 0 {
		rep.MeanReturn = rep.MeanReturns[0]
	}
	rep.GoalRate = float64(a.goals) / float64(a.episodes)
	return rep
}

// SpawnCast spawns personas[i] as agent i and returns the instance ids.
func SpawnCast(m *npc.Manager, personas []*npc.Persona) ([]string, error) {
	ids := make([]string, 0, len(personas))
	for i, p := range personas {
		inst, err := m.SpawnNPC(p, i)
		if err != nil {
			return nil, err
		}
		ids = append(ids, inst.ID)
	}
	return ids, nil
}
