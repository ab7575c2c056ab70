package npc

import (
	"fmt"
	"math/rand"

	"github.com/FREDSAYS-dev/Thesis/matrix"
)

const (
	defaultToward matrix.Action = "right"
	defaultAway   matrix.Action = "left"
)

// RuleBrain plays a scripted role: main and ally NPCs head for the objective,
// competitive ones retreat from it, dialogue NPCs wander.
type RuleBrain struct {
	Persona *Persona
	rng     *rand.Rand
}

// NewRuleBrain creates a RuleBrain from a persona definition.
func NewRuleBrain(persona *Persona, seed int64) *RuleBrain {
	return &RuleBrain{
		Persona: persona,
		rng:     rand.New(rand.NewSource(seed)),
	}
}

func (b *RuleBrain) Name() string { return b.Persona.Name }

// Decide implements BrainDecider.
func (b *RuleBrain) Decide(view View) (Decision, error) {
	legal := view.Legal
	if len(legal) == 0 {
		return Decision{}, fmt.Errorf("%w: %s has no legal actions", matrix.ErrInvalidArgument, b.Persona.Name)
	}

	p := b.Persona.Script
	if p.Randomness > 0 && b.rng.Float64() < p.Randomness {
		return Decision{Action: legal[b.rng.Intn(len(legal))], Epsilon: p.Randomness}, nil
	}

	toward, away := p.Toward, p.Away
	if toward == "" {
		toward = defaultToward
	}
	if away == "" {
		away = defaultAway
	}

	switch b.Persona.Role {
	case RoleMain, RoleAlly:
		return Decision{Action: pick(legal, toward)}, nil
	case RoleCompetitive:
		return Decision{Action: pick(legal, away)}, nil
	default:
		return Decision{Action: legal[b.rng.Intn(len(legal))], Epsilon: 1}, nil
	}
}

// pick returns want when it is legal, otherwise the first legal action.
func pick(legal []matrix.Action, want matrix.Action) matrix.Action {
	for _, a := range legal {
		if a == want {
			return a
		}
	}
	return legal[0]
}
