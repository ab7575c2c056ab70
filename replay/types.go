package replay

import (
	"github.com/FREDSAYS-dev/Thesis/arena"
	"github.com/FREDSAYS-dev/Thesis/matrix"
	"github.com/FREDSAYS-dev/Thesis/npc"
)

const TapeVersion = 1

// EpisodeSpec describes a scripted episode to record.
type EpisodeSpec struct {
	Arena  arena.Config `json:"arena"`
	Agents []AgentSpec  `json:"agents"`
	Seed   int64        `json:"seed"`
	// Hard cap on recorded steps when the arena has no MaxSteps.
	StepLimit int `json:"step_limit,omitempty"`
}

type AgentSpec struct {
	Name       string   `json:"name"`
	Role       npc.Role `json:"role"`
	Randomness float64  `json:"randomness,omitempty"`
}

type Tape struct {
	TapeVersion int         `json:"tape_version"`
	EpisodeID   string      `json:"episode_id"`
	Agents      []AgentSpec `json:"agents"`
	Steps       []Step      `json:"steps"`
	Returns     []float64   `json:"returns"`
	Truncated   bool        `json:"truncated,omitempty"`
}

// Step is one agent's transition within an arena step.
type Step struct {
	Index     int             `json:"index"`
	Agent     int             `json:"agent"`
	Context   matrix.Context  `json:"context"`
	Action    matrix.Action   `json:"action"`
	Reward    float64         `json:"reward"`
	Next      matrix.Context  `json:"next"`
	NextLegal []matrix.Action `json:"next_legal,omitempty"`
	Done      bool            `json:"done,omitempty"`
}

// Trajectory returns the steps of one agent in order.
func (t *Tape) Trajectory(agent int) []Step {
	var out []Step
	for _, s := range t.Steps {
		if s.Agent == agent {
			out = append(out, s)
		}
	}
	return out
}
