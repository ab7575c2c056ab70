package replay

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/FREDSAYS-dev/Thesis/arena"
	"github.com/FREDSAYS-dev/Thesis/matrix"
	"github.com/FREDSAYS-dev/Thesis/npc"
)

const defaultStepLimit = 1000

// episodeNamespace scopes episode IDs so identical specs map to the same tape.
var episodeNamespace = uuid.MustParse("6f1c1f43-4d0a-4b7e-9a36-2f4c8e0b7d51")

// RecordEpisode plays one episode with scripted brains and records every
// agent transition. The same spec always yields the same tape.
func RecordEpisode(spec EpisodeSpec) (*Tape, error) {
	env, err := arena.New(spec.Arena)
	if err != nil {
		return nil, &ReplayError{StepIndex: -1, Reason: "arena_init_failed", Message: err.Error()}
	}
	if len(spec.Agents) != env.Agents() {
		return nil, &ReplayError{
			StepIndex: -1,
			Reason:    "agent_count_mismatch",
			Message:   fmt.Sprintf("arena has %d start cells, spec names %d agents", env.Agents(), len(spec.Agents)),
		}
	}

	brains := make([]*npc.RuleBrain, len(spec.Agents))
	for i, a := range spec.Agents {
		p := &npc.Persona{
			ID:     a.Name,
			Name:   a.Name,
			Role:   a.Role,
			Kind:   npc.KindRule,
			Script: npc.ScriptProfile{Randomness: a.Randomness},
		}
		if p.Name == "" {
			p.ID = fmt.Sprintf("agent%d", i)
			p.Name = p.ID
		}
		if err := validateAgent(p); err != nil {
			return nil, &ReplayError{StepIndex: -1, Reason: "invalid_agent", Message: err.Error()}
		}
		// Offset per agent so two agents with the same role do not mirror each other.
		brains[i] = npc.NewRuleBrain(p, spec.Seed+int64(i))
	}

	id, err := episodeID(spec)
	if err != nil {
		return nil, &ReplayError{StepIndex: -1, Reason: "spec_encode_failed", Message: err.Error()}
	}

	limit := spec.StepLimit
	if limit <= 0 {
		limit = defaultStepLimit
	}

	tape := &Tape{
		TapeVersion: TapeVersion,
		EpisodeID:   id,
		Agents:      append([]AgentSpec(nil), spec.Agents...),
		Returns:     make([]float64, len(spec.Agents)),
	}

	env.Reset()
	for stepIdx := 0; !env.Done(); stepIdx++ {
		if stepIdx >= limit {
			tape.Truncated = true
			break
		}

		contexts := make([]matrix.Context, len(brains))
		actions := make([]matrix.Action, len(brains))
		for i, b := range brains {
			view := npc.ViewFor(env, i)
			d, err := b.Decide(view)
			if err != nil {
				return nil, &ReplayError{StepIndex: stepIdx, Reason: "decide_failed", Message: err.Error()}
			}
			contexts[i] = view.Context
			actions[i] = d.Action
		}

		res, err := env.Step(actions)
		if err != nil {
			return nil, &ReplayError{StepIndex: stepIdx, Reason: "step_failed", Message: err.Error()}
		}

		for i := range brains {
			next := env.CurrentContext(i)
			var nextLegal []matrix.Action
			if !res.Done {
				nextLegal = env.LegalActions(next)
			}
			tape.Steps = append(tape.Steps, Step{
				Index:     stepIdx,
				Agent:     i,
				Context:   contexts[i],
				Action:    actions[i],
				Reward:    res.Rewards[i],
				Next:      next,
				NextLegal: nextLegal,
				Done:      res.Done,
			})
			tape.Returns[i] += res.Rewards[i]
		}
		if res.Truncated {
			tape.Truncated = true
		}
	}
	return tape, nil
}

// RecordEpisodes records n episodes, bumping the seed for each one.
func RecordEpisodes(spec EpisodeSpec, n int) ([]*Tape, error) {
	tapes := make([]*Tape, 0, n)
	for i := 0; i < n; i++ {
		s := spec
		s.Seed = spec.Seed + int64(i)*int64(len(spec.Agents)+1)
		tape, err := RecordEpisode(s)
		if err != nil {
			return nil, fmt.Errorf("episode %d: %w", i, err)
		}
		tapes = append(tapes, tape)
	}
	return tapes, nil
}

func validateAgent(p *npc.Persona) error {
	switch p.Role {
	case npc.RoleMain, npc.RoleAlly, npc.RoleCompetitive, npc.RoleDialogue:
	default:
		return fmt.Errorf("agent %s: unknown role %q", p.Name, p.Role)
	}
	if p.Script.Randomness < 0 || p.Script.Randomness > 1 {
		return fmt.Errorf("agent %s: randomness must be in [0,1]", p.Name)
	}
	return nil
}

func episodeID(spec EpisodeSpec) (string, error) {
	raw, err := json.Marshal(spec)
	if err != nil {
		return "", err
	}
	return uuid.NewSHA1(episodeNamespace, raw).String(), nil
}
