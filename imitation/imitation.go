// Package imitation turns recorded episodes into demonstrations that warm-start
// a value matrix before it learns on its own.
package imitation

import (
	"fmt"
	"math"
	"sort"

	"github.com/FREDSAYS-dev/Thesis/matrix"
	"github.com/FREDSAYS-dev/Thesis/replay"
)

// AgentFilter selects which agents of a tape contribute demonstrations.
// A nil filter accepts every agent.
type AgentFilter func(agent int, spec replay.AgentSpec) bool

// ByRole accepts agents whose recorded role matches one of roles.
func ByRole(roles ...string) AgentFilter {
	set := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		set[r] = struct{}{}
	}
	return func(_ int, spec replay.AgentSpec) bool {
		_, ok := set[string(spec.Role)]
		return ok
	}
}

type pairKey struct {
	ctx    matrix.Context
	action matrix.Action
}

type aggregate struct {
	sum   float64
	count int64
}

// FromTapes computes the discounted return from every recorded step and
// averages them per (context, action). The result is sorted by context,
// then action.
func FromTapes(tapes []*replay.Tape, discount float64, filter AgentFilter) ([]matrix.Demonstration, error) {
	if math.IsNaN(discount) || discount < 0 || discount > 1 {
		return nil, fmt.Errorf("%w: discount must be in [0,1], got %v", matrix.ErrInvalidArgument, discount)
	}

	agg := make(map[pairKey]*aggregate)
	for ti, tape := range tapes {
		if tape == nil {
			return nil, fmt.Errorf("%w: tape %d is nil", matrix.ErrInvalidArgument, ti)
		}
		for agent, spec := range tape.Agents {
			if filter != nil && !filter(agent, spec) {
				continue
			}
			steps := tape.Trajectory(agent)
			g := 0.0
			for i := len(steps) - 1; i >= 0; i-- {
				g = steps[i].Reward + discount*g
				k := pairKey{steps[i].Context, steps[i].Action}
				a := agg[k]
				if a == nil {
					a = &aggregate{}
					agg[k] = a
				}
				a.sum += g
				a.count++
			}
		}
	}

	out := make([]matrix.Demonstration, 0, len(agg))
	for k, a := range agg {
		out = append(out, matrix.Demonstration{
			Context: k.ctx,
			Action:  k.action,
			Value:   a.sum / float64(a.count),
			Visits:  a.count,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Context != out[j].Context {
			return out[i].Context < out[j].Context
		}
		return out[i].Action < out[j].Action
	})
	return out, nil
}

// Table is the part of a value matrix the seeder writes to. SeedAll must
// write nothing when any demonstration is rejected.
type Table interface {
	SeedAll(demos []matrix.Demonstration) error
}

// Seeder holds demonstrations and loads them into tables.
type Seeder struct {
	demos []matrix.Demonstration
}

func NewSeeder(demos []matrix.Demonstration) *Seeder {
	return &Seeder{demos: append([]matrix.Demonstration(nil), demos...)}
}

// FromTapeFile reads tapes written by replay.WriteFile and builds a seeder.
func FromTapeFile(path string, discount float64, filter AgentFilter) (*Seeder, error) {
	tapes, err := replay.ReadFile(path)
	if err != nil {
		return nil, err
	}
	demos, err := FromTapes(tapes, discount, filter)
	if err != nil {
		return nil, err
	}
	return NewSeeder(demos), nil
}

func (s *Seeder) Demonstrations() []matrix.Demonstration {
	return append([]matrix.Demonstration(nil), s.demos...)
}

func (s *Seeder) Len() int { return len(s.demos) }

// Apply seeds every demonstration into t and returns how many were written.
// Either all of them land or none do.
func (s *Seeder) Apply(t Table) (int, error) {
	if err := t.SeedAll(s.demos); err != nil {
		return 0, fmt.Errorf("apply demonstrations: %w", err)
	}
	return len(s.demos), nil
}
