// Package emotion turns game events into the mood signal that biases NPC
// exploration.
package emotion

import (
	"math"
	"time"

	"github.com/FREDSAYS-dev/Thesis/matrix"
)

// State holds the raw emotions, each in [0,1].
type State struct {
	Joy     float64 `json:"joy"`
	Anger   float64 `json:"anger"`
	Fear    float64 `json:"fear"`
	Fatigue float64 `json:"fatigue"`
}

type Config struct {
	// Scales every event's intensity.
	Sensitivity float64
	// Fraction of each emotion lost per Tick.
	DecayPerTick float64
	// Fatigue gained per Tick.
	FatigueLoad float64
	// Wall-clock decay used by DecaySince, per second.
	DecayPerSecond float64
}

func DefaultConfig() Config {
	return Config{
		Sensitivity:    1,
		DecayPerTick:   0.05,
		FatigueLoad:    0.002,
		DecayPerSecond: 0.002,
	}
}

// Driver tracks one NPC's emotions. Not safe for concurrent use.
type Driver struct {
	cfg   Config
	state State
}

func NewDriver(cfg Config) *Driver {
	if cfg.Sensitivity <= 0 {
		cfg.Sensitivity = 1
	}
	cfg.DecayPerTick = clamp01(cfg.DecayPerTick)
	cfg.FatigueLoad = clamp01(cfg.FatigueLoad)
	if cfg.DecayPerSecond < 0 {
		cfg.DecayPerSecond = 0
	}
	return &Driver{cfg: cfg}
}

func (d *Driver) State() State { return d.state }

// Set replaces the state, clamping each field.
func (d *Driver) Set(s State) {
	d.state = State{
		Joy:     clamp01(s.Joy),
		Anger:   clamp01(s.Anger),
		Fear:    clamp01(s.Fear),
		Fatigue: clamp01(s.Fatigue),
	}
}

func (d *Driver) Reset() { d.state = State{} }

// CurrentMood folds the emotions into one scalar: positive when joy dominates,
// negative when anger or fear does, damped by fatigue.
func (d *Driver) CurrentMood() matrix.Mood {
	s := d.state
	valence := s.Joy - math.Max(s.Anger, s.Fear)
	mood := valence * (1 - 0.5*s.Fatigue)
	m, err := matrix.ClampMood(matrix.Mood(mood))
	if err != nil {
		return 0
	}
	return m
}

// Tick advances one decision step: emotions fade and fatigue builds.
func (d *Driver) Tick() {
	keep := 1 - d.cfg.DecayPerTick
	d.state.Joy = clamp01(d.state.Joy * keep)
	d.state.Anger = clamp01(d.state.Anger * keep)
	d.state.Fear = clamp01(d.state.Fear * keep)
	d.state.Fatigue = clamp01(d.state.Fatigue + d.cfg.FatigueLoad)
}

// DecaySince fades every emotion, fatigue included, for an idle period.
func (d *Driver) DecaySince(since time.Duration) {
	sec := since.Seconds()
	if sec < 0 {
		sec = 0
	}
	keep := 1 - d.cfg.DecayPerSecond*sec
	if keep < 0 {
		keep = 0
	}
	d.state.Joy = clamp01(d.state.Joy * keep)
	d.state.Anger = clamp01(d.state.Anger * keep)
	d.state.Fear = clamp01(d.state.Fear * keep)
	d.state.Fatigue = clamp01(d.state.Fatigue * keep)
}

func clamp01(x float64) float64 {
	if math.IsNaN(x) || x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
