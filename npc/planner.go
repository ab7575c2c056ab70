package npc

import (
	"sync"

	"github.com/FREDSAYS-dev/Thesis/matrix"
)

// Planner narrows the legal actions before the matrix chooses. An empty
// result means "no opinion" and the full legal set is used.
type Planner interface {
	Candidates(ctx matrix.Context, legal []matrix.Action) []matrix.Action
}

// PlannerFunc adapts a function to Planner.
type PlannerFunc func(ctx matrix.Context, legal []matrix.Action) []matrix.Action

func (f PlannerFunc) Candidates(ctx matrix.Context, legal []matrix.Action) []matrix.Action {
	return f(ctx, legal)
}

// MaskPlanner forbids actions, either everywhere or in specific contexts.
type MaskPlanner struct {
	mu        sync.RWMutex
	global    map[matrix.Action]bool
	byContext map[matrix.Context]map[matrix.Action]bool
}

func NewMaskPlanner() *MaskPlanner {
	return &MaskPlanner{
		global:    make(map[matrix.Action]bool),
		byContext: make(map[matrix.Context]map[matrix.Action]bool),
	}
}

// Forbid bans action in every context.
func (p *MaskPlanner) Forbid(action matrix.Action) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.global[action] = true
}

// ForbidIn bans action in ctx only.
func (p *MaskPlanner) ForbidIn(ctx matrix.Context, action matrix.Action) {
	p.mu.Lock()
	defer p.mu.Unlock()
	m := p.byContext[ctx]
	if m == nil {
		m = make(map[matrix.Action]bool)
		p.byContext[ctx] = m
	}
	m[action] = true
}

// Candidates keeps the order of legal.
func (p *MaskPlanner) Candidates(ctx matrix.Context, legal []matrix.Action) []matrix.Action {
	p.mu.RLock()
	defer p.mu.RUnlock()
	local := p.byContext[ctx]
	out := make([]matrix.Action, 0, len(legal))
	for _, a := range legal {
		if p.global[a] || local[a] {
			continue
		}
		out = append(out, a)
	}
	return out
}
