package emotion

import "math"

// Kind names something that happened to the NPC.
type Kind string

const (
	KindReward      Kind = "reward"
	KindPenalty     Kind = "penalty"
	KindCollision   Kind = "collision"
	KindGoalReached Kind = "goal_reached"
	KindThreat      Kind = "threat"
	KindCalm        Kind = "calm"
)

// Event is one stimulus with an intensity in [0,1].
type Event struct {
	Kind      Kind
	Intensity float64
}

// Apply shifts the emotions according to the event. Unknown kinds are ignored.
func (d *Driver) Apply(ev Event) {
	i := clamp01(ev.Intensity) * d.cfg.Sensitivity
	s := &d.state
	switch ev.Kind {
	case KindReward:
		s.Joy = clamp01(s.Joy + i*0.3)
		s.Anger = clamp01(s.Anger - i*0.1)
	case KindPenalty:
		s.Anger = clamp01(s.Anger + i*0.3)
		s.Joy = clamp01(s.Joy - i*0.1)
	case KindCollision:
		s.Anger = clamp01(s.Anger + i*0.4)
		s.Fear = clamp01(s.Fear + i*0.2)
	case KindGoalReached:
		s.Joy = clamp01(s.Joy + i*0.6)
		s.Fear = clamp01(s.Fear - i*0.3)
		s.Anger = clamp01(s.Anger - i*0.3)
	case KindThreat:
		s.Fear = clamp01(s.Fear + i*0.5)
	case KindCalm:
		s.Anger = clamp01(s.Anger - i*0.4)
		s.Fear = clamp01(s.Fear - i*0.4)
		s.Fatigue = clamp01(s.Fatigue - i*0.2)
	}
}

// ObserveReward maps a scalar reward onto a Reward or Penalty event whose
// intensity saturates at |r| = 1. Zero rewards change nothing.
func (d *Driver) ObserveReward(r float64) {
	if r == 0 || math.IsNaN(r) {
		return
	}
	intensity := math.Min(1, math.Abs(r))
	if r > 0 {
		d.Apply(Event{Kind: KindReward, Intensity: intensity})
		return
	}
	d.Apply(Event{Kind: KindPenalty, Intensity: intensity})
}
