package matrix

// Demonstration is a value estimate recovered from recorded play, ready to be
// loaded with Seed.
type Demonstration struct {
	Context Context `json:"context"`
	Action  Action  `json:"action"`
	Value   float64 `json:"value"`
	Visits  int64   `json:"visits"`
}

// SeedAll loads demos in order. All demonstrations are validated first, so
// an invalid one leaves the matrix unchanged.
func (m *Matrix) SeedAll(demos []Demonstration) error {
	for i, d := range demos {
		if d.Visits < 0 {
			return invalidArgf("demonstration %d: visit count must be >= 0, got %d", i, d.Visits)
		}
		if !isFinite(d.Value) {
			return invalidArgf("demonstration %d: value must be finite, got %v", i, d.Value)
		}
	}
	for _, d := range demos {
		m.entries[key{d.Context, d.Action}] = Entry{Value: d.Value, Visits: uint64(d.Visits)}
	}
	return nil
}
