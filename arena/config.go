package arena

import (
	"fmt"
	"math"
)

type Config struct {
	// Corridor
	Cells int
	Goal  int

	// Start cell per agent; the agent count is len(Starts).
	Starts []int

	// Rewards
	CollisionPenalty float64
	GoalReward       float64
	StepPenalty      float64

	// Episode cut-off (0 disables truncation)
	MaxSteps int
}

// DefaultConfig is the two-agent corridor: five cells, goal on the right end.
func DefaultConfig() Config {
	return Config{
		Cells:            5,
		Goal:             4,
		Starts:           []int{0, 2},
		CollisionPenalty: -1,
		GoalReward:       1,
		MaxSteps:         50,
	}
}

func (c Config) validate() error {
	if c.Cells < 2 {
		return fmt.Errorf("Cells must be >= 2")
	}
	if c.Goal < 0 || c.Goal >= c.Cells {
		return fmt.Errorf("Goal %d outside corridor [0,%d)", c.Goal, c.Cells)
	}
	if len(c.Starts) == 0 {
		return fmt.Errorf("at least one start position is required")
	}
	for i, s := range c.Starts {
		if s < 0 || s >= c.Cells {
			return fmt.Errorf("start %d of agent %d outside corridor", s, i)
		}
	}
	for name, v := range map[string]float64{
		"CollisionPenalty": c.CollisionPenalty,
		"GoalReward":       c.GoalReward,
		"StepPenalty":      c.StepPenalty,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%s must be finite", name)
		}
	}
	if c.MaxSteps < 0 {
		return fmt.Errorf("MaxSteps must be >= 0")
	}
	return nil
}

func (c Config) Validate() error { return c.validate() }
