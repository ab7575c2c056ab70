// Package arena is a one-dimensional corridor in which several NPCs race for
// a goal cell and are penalised for bumping into each other.
package arena

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/FREDSAYS-dev/Thesis/matrix"
)

type Arena struct {
	cfg Config

	mu sync.Mutex

	positions []int
	step      int
	done      bool
	truncated bool
	last      StepResult
}

func New(cfg Config) (*Arena, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	a := &Arena{cfg: cfg}
	a.reset()
	return a, nil
}

func (a *Arena) Config() Config { return a.cfg }

// Agents returns the number of agents in the corridor.
func (a *Arena) Agents() int { return len(a.cfg.Starts) }

// Reset puts every agent back on its start cell and returns the positions.
func (a *Arena) Reset() []int {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.reset()
	return append([]int(nil), a.positions...)
}

func (a *Arena) reset() {
	a.positions = append(a.positions[:0], a.cfg.Starts...)
	a.step = 0
	a.done = false
	a.truncated = false
	a.last = StepResult{}
}

// Step moves all agents at once. actions[i] belongs to agent i.
func (a *Arena) Step(actions []matrix.Action) (StepResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.done {
		return StepResult{}, ErrEpisodeEnded
	}
	if len(actions) != len(a.positions) {
		return StepResult{}, fmt.Errorf("expected %d actions, got %d", len(a.positions), len(actions))
	}
	for i, act := range actions {
		if act != ActionLeft && act != ActionRight {
			return StepResult{}, fmt.Errorf("agent %d: %w %q", i, ErrInvalidAction, act)
		}
	}

	for i, act := range actions {
		if act == ActionLeft {
			a.positions[i] = max(0, a.positions[i]-1)
		} else {
			a.positions[i] = min(a.cfg.Cells-1, a.positions[i]+1)
		}
	}
	a.step++

	res := StepResult{
		Step:      a.step,
		Positions: append([]int(nil), a.positions...),
		Rewards:   make([]float64, len(a.positions)),
		Info:      make([]AgentInfo, len(a.positions)),
	}

	occupancy := make(map[int]int, len(a.positions))
	for _, p := range a.positions {
		occupancy[p]++
	}
	for i, p := range a.positions {
		res.Rewards[i] = a.cfg.StepPenalty
		info := AgentInfo{Index: i, Pos: p}
		if p != a.cfg.Goal && occupancy[p] > 1 {
			res.Rewards[i] += a.cfg.CollisionPenalty
			info.Collided = true
		}
		if p == a.cfg.Goal {
			res.Rewards[i] += a.cfg.GoalReward
			info.AtGoal = true
			res.Done = true
		}
		res.Info[i] = info
	}
	if !res.Done && a.cfg.MaxSteps > 0 && a.step >= a.cfg.MaxSteps {
		res.Done = true
		res.Truncated = true
	}

	a.done = res.Done
	a.truncated = res.Truncated
	a.last = res
	return res, nil
}

// Done reports whether the current episode has finished.
func (a *Arena) Done() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.done
}

// CurrentContext encodes what agent sees: its own cell, the other agents'
// cells in index order, and the goal.
func (a *Arena) CurrentContext(agent int) matrix.Context {
	a.mu.Lock()
	defer a.mu.Unlock()
	return encodeContext(a.positions, agent, a.cfg.Goal)
}

// LegalActions returns the corridor moves. Both moves are always legal;
// movement is clamped at the walls.
func (a *Arena) LegalActions(matrix.Context) []matrix.Action {
	return append([]matrix.Action(nil), Actions...)
}

func encodeContext(positions []int, agent, goal int) matrix.Context {
	if agent < 0 || agent >= len(positions) {
		return ""
	}
	others := make([]string, 0, len(positions)-1)
	for i, p := range positions {
		if i != agent {
			others = append(others, strconv.Itoa(p))
		}
	}
	return matrix.Context(fmt.Sprintf("self=%d|others=%s|goal=%d", positions[agent], strings.Join(others, ","), goal))
}
