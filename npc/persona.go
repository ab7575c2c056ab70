package npc

import "github.com/FREDSAYS-dev/Thesis/matrix"

// Role is the part an NPC plays next to the main agent.
type Role string

const (
	RoleMain        Role = "main"
	RoleAlly        Role = "ally"
	RoleCompetitive Role = "competitive"
	RoleDialogue    Role = "dialogue"
)

// Kind selects the brain implementation.
type Kind string

const (
	KindRule    Kind = "rule"
	KindLearner Kind = "learner"
)

// ScriptProfile tunes a RuleBrain.
type ScriptProfile struct {
	Toward     matrix.Action `json:"toward" yaml:"toward"`         // move that approaches the objective
	Away       matrix.Action `json:"away" yaml:"away"`             // move that retreats from it
	Randomness float64       `json:"randomness" yaml:"randomness"` // 0.0–1.0: chance of a random legal move
}

// LearningProfile tunes a MatrixBrain and the matrix behind it.
type LearningProfile struct {
	BaseEpsilon  float64 `json:"baseEpsilon" yaml:"base_epsilon"`
	LearningRate float64 `json:"learningRate" yaml:"learning_rate"`
	// nil falls back to the manager default; 0 is a valid, myopic discount.
	Discount       *float64 `json:"discount,omitempty" yaml:"discount,omitempty"`
	OptimisticInit float64  `json:"optimisticInit" yaml:"optimistic_init"`
	// NPCs with SharedPool set and the same Archetype learn into one matrix.
	SharedPool bool   `json:"sharedPool" yaml:"shared_pool"`
	Archetype  string `json:"archetype" yaml:"archetype"`
	// Actions the learner may never choose, e.g. a pacifist ally that never
	// closes in on another agent.
	Forbid []matrix.Action `json:"forbid,omitempty" yaml:"forbid,omitempty"`
}

// EmotionProfile tunes the NPC's emotion driver.
type EmotionProfile struct {
	Sensitivity  float64 `json:"sensitivity" yaml:"sensitivity"`
	DecayPerTick float64 `json:"decayPerTick" yaml:"decay_per_tick"`
}

// Persona defines a named NPC character.
type Persona struct {
	ID       string          `json:"id" yaml:"id"`
	Name     string          `json:"name" yaml:"name"`
	Role     Role            `json:"role" yaml:"role"`
	Kind     Kind            `json:"kind" yaml:"kind"`
	Tier     int             `json:"tier" yaml:"tier"` // 1=lead, 2=supporting, 3=background
	Script   ScriptProfile   `json:"script" yaml:"script"`
	Learning LearningProfile `json:"learning" yaml:"learning"`
	Emotion  EmotionProfile  `json:"emotion" yaml:"emotion"`
}

// MatrixConfig derives the matrix configuration, falling back to base for
// unset fields.
func (p *Persona) MatrixConfig(base matrix.Config) matrix.Config {
	cfg := base
	if p.Learning.BaseEpsilon > 0 {
		cfg.BaseEpsilon = p.Learning.BaseEpsilon
	}
	if p.Learning.LearningRate > 0 {
		cfg.LearningRate = p.Learning.LearningRate
	}
	if p.Learning.OptimisticInit != 0 {
		cfg.OptimisticInit = p.Learning.OptimisticInit
	}
	return cfg
}

// Float returns a pointer to v, for optional persona fields.
func Float(v float64) *float64 { return &v }

// ArchetypeKey names the pool a shared-learning persona belongs to.
func (p *Persona) ArchetypeKey() string {
	if p.Learning.Archetype != "" {
		return p.Learning.Archetype
	}
	return string(p.Role)
}
