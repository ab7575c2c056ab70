package npc

import (
	"github.com/FREDSAYS-dev/Thesis/emotion"
	"github.com/FREDSAYS-dev/Thesis/matrix"
)

// View is the read-only projection of the world handed to a brain on its turn.
type View struct {
	Agent   int
	Context matrix.Context
	Legal   []matrix.Action
}

// Decision is what a BrainDecider returns.
type Decision struct {
	Action  matrix.Action
	Mood    matrix.Mood
	Epsilon float64
}

// BrainDecider is the core interface all NPC types implement.
type BrainDecider interface {
	// Decide is called when it's the NPC's turn.
	Decide(view View) (Decision, error)
	// Name returns a human-readable identifier for debugging.
	Name() string
}

// Transition is one observed step from the NPC's point of view. An empty
// NextLegal marks a terminal state.
type Transition struct {
	Context   matrix.Context
	Action    matrix.Action
	Reward    float64
	Next      matrix.Context
	NextLegal []matrix.Action
	Events    []emotion.Event
}

// Learner is implemented by brains that adapt from experience.
type Learner interface {
	Observe(t Transition) error
}

// ValueTable is satisfied by *matrix.Matrix and *matrix.Shared.
type ValueTable interface {
	SelectAction(ctx matrix.Context, candidates []matrix.Action, mood matrix.Mood) (matrix.Action, error)
	Greedy(ctx matrix.Context, candidates []matrix.Action) (matrix.Action, error)
	Update(ctx matrix.Context, action matrix.Action, reward float64, next matrix.Context, nextCandidates []matrix.Action, discount float64) error
	Seed(ctx matrix.Context, action matrix.Action, value float64, visits int64) error
	SeedAll(demos []matrix.Demonstration) error
	Lookup(ctx matrix.Context, action matrix.Action) (matrix.Entry, bool)
	Len() int
	Config() matrix.Config
	Snapshot() matrix.Snapshot
	Encode() []byte
}

// Environment supplies situations and the actions legal in them.
type Environment interface {
	CurrentContext(agent int) matrix.Context
	LegalActions(ctx matrix.Context) []matrix.Action
}

// EmotionDriver supplies the mood read during selection.
type EmotionDriver interface {
	CurrentMood() matrix.Mood
}

// ImitationSeeder supplies demonstration values to pre-populate a table.
type ImitationSeeder interface {
	Demonstrations() []matrix.Demonstration
}

// ViewFor builds the view of agent from env.
func ViewFor(env Environment, agent int) View {
	ctx := env.CurrentContext(agent)
	return View{Agent: agent, Context: ctx, Legal: env.LegalActions(ctx)}
}
