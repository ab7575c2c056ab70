package matrix

import "math"

// Context identifies a discretized game situation. The matrix treats it as an
// opaque key; the environment decides how situations are encoded.
type Context string

// Action identifies one discrete NPC behavior.
type Action string

// Mood is the emotional signal read during action selection, in [-1, 1].
type Mood float64

const (
	MoodMin Mood = -1
	MoodMax Mood = 1
)

// Entry is the learned state for one (Context, Action) pair.
type Entry struct {
	Value  float64
	Visits uint64
}

type key struct {
	ctx    Context
	action Action
}

// ClampMood bounds m to [MoodMin, MoodMax]. NaN is reported as invalid.
func ClampMood(m Mood) (Mood, error) {
	if math.IsNaN(float64(m)) {
		return 0, invalidArgf("mood is NaN")
	}
	if m < MoodMin {
		return MoodMin, nil
	}
	if m > MoodMax {
		return MoodMax, nil
	}
	return m, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
