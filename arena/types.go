package arena

import "github.com/FREDSAYS-dev/Thesis/matrix"

const (
	ActionLeft  matrix.Action = "left"
	ActionRight matrix.Action = "right"
)

// Actions is the closed action set of the corridor, in a fixed order.
var Actions = []matrix.Action{ActionLeft, ActionRight}

// AgentInfo mirrors the per-agent info of a step result.
type AgentInfo struct {
	Index    int  `json:"index"`
	Pos      int  `json:"pos"`
	AtGoal   bool `json:"atGoal"`
	Collided bool `json:"collided"`
}

type StepResult struct {
	Step      int         `json:"step"`
	Positions []int       `json:"positions"`
	Rewards   []float64   `json:"rewards"`
	Done      bool        `json:"done"`
	Truncated bool        `json:"truncated"`
	Info      []AgentInfo `json:"info"`
}
