package npc

import (
	"fmt"

	"github.com/FREDSAYS-dev/Thesis/emotion"
	"github.com/FREDSAYS-dev/Thesis/matrix"
)

const defaultDiscount = 0.9

// MatrixBrain picks actions from a behavior matrix under the NPC's current
// mood and learns from every observed transition.
type MatrixBrain struct {
	Persona  *Persona
	table    ValueTable
	emotions *emotion.Driver
	planner  Planner
	discount float64
	greedy   bool
}

type MatrixBrainOption func(*MatrixBrain)

// WithPlanner restricts candidates through p before selection.
func WithPlanner(p Planner) MatrixBrainOption {
	return func(b *MatrixBrain) { b.planner = p }
}

// WithDiscount sets the discount used when the persona does not name one.
func WithDiscount(d float64) MatrixBrainOption {
	return func(b *MatrixBrain) { b.discount = d }
}

// WithGreedy disables exploration, for evaluation runs.
func WithGreedy() MatrixBrainOption {
	return func(b *MatrixBrain) { b.greedy = true }
}

func NewMatrixBrain(persona *Persona, table ValueTable, emotions *emotion.Driver, opts ...MatrixBrainOption) *MatrixBrain {
	if emotions == nil {
		emotions = emotion.NewDriver(emotion.DefaultConfig())
	}
	b := &MatrixBrain{
		Persona:  persona,
		table:    table,
		emotions: emotions,
		discount: defaultDiscount,
	}
	for _, opt := range opts {
		opt(b)
	}
	if d := persona.Learning.Discount; d != nil {
		b.discount = *d
	}
	return b
}

func (b *MatrixBrain) Name() string { return b.Persona.Name }

func (b *MatrixBrain) Table() ValueTable { return b.table }

func (b *MatrixBrain) Emotions() *emotion.Driver { return b.emotions }

// Discount is the discount applied in every update.
func (b *MatrixBrain) Discount() float64 { return b.discount }

// Decide implements BrainDecider.
func (b *MatrixBrain) Decide(view View) (Decision, error) {
	candidates := view.Legal
	if b.planner != nil {
		if restricted := b.planner.Candidates(view.Context, view.Legal); len(restricted) > 0 {
			candidates = restricted
		}
	}

	mood := b.emotions.CurrentMood()
	if b.greedy {
		a, err := b.table.Greedy(view.Context, candidates)
		if err != nil {
			return Decision{}, err
		}
		return Decision{Action: a, Mood: mood}, nil
	}

	a, err := b.table.SelectAction(view.Context, candidates, mood)
	if err != nil {
		return Decision{}, err
	}
	return Decision{
		Action:  a,
		Mood:    mood,
		Epsilon: matrix.ExplorationRate(b.baseEpsilon(), mood),
	}, nil
}

func (b *MatrixBrain) baseEpsilon() float64 {
	return b.table.Config().BaseEpsilon
}

// Observe implements Learner. The emotional reaction is applied even when
// the value update is rejected.
func (b *MatrixBrain) Observe(t Transition) error {
	b.emotions.ObserveReward(t.Reward)
	for _, ev := range t.Events {
		b.emotions.Apply(ev)
	}
	b.emotions.Tick()

	if b.greedy {
		return nil
	}
	if err := b.table.Update(t.Context, t.Action, t.Reward, t.Next, t.NextLegal, b.discount); err != nil {
		return fmt.Errorf("%s: %w", b.Persona.Name, err)
	}
	return nil
}
