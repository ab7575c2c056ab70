package matrix

import "sort"

type EntrySnapshot struct {
	Context Context `json:"context"`
	Action  Action  `json:"action"`
	Value   float64 `json:"value"`
	Visits  uint64  `json:"visits"`
}

type Snapshot struct {
	BaseEpsilon    float64         `json:"baseEpsilon"`
	LearningRate   float64         `json:"learningRate"`
	OptimisticInit float64         `json:"optimisticInit"`
	Entries        []EntrySnapshot `json:"entries"`
}

// Snapshot returns a copy of all entries ordered by context, then action.
func (m *Matrix) Snapshot() Snapshot {
	s := Snapshot{
		BaseEpsilon:    m.cfg.BaseEpsilon,
		LearningRate:   m.cfg.LearningRate,
		OptimisticInit: m.cfg.OptimisticInit,
		Entries:        make([]EntrySnapshot, 0, len(m.entries)),
	}
	for _, k := range m.sortedKeys() {
		e := m.entries[k]
		s.Entries = append(s.Entries, EntrySnapshot{
			Context: k.ctx,
			Action:  k.action,
			Value:   e.Value,
			Visits:  e.Visits,
		})
	}
	return s
}

// Contexts returns the distinct contexts with at least one entry, sorted.
func (m *Matrix) Contexts() []Context {
	seen := make(map[Context]bool)
	for k := range m.entries {
		seen[k.ctx] = true
	}
	out := make([]Context, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (m *Matrix) sortedKeys() []key {
	keys := make([]key, 0, len(m.entries))
	for k := range m.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].ctx != keys[j].ctx {
			return keys[i].ctx < keys[j].ctx
		}
		return keys[i].action < keys[j].action
	})
	return keys
}
