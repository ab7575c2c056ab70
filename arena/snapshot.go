package arena

type Snapshot struct {
	Step      int       `json:"step"`
	Cells     int       `json:"cells"`
	Goal      int       `json:"goal"`
	Positions []int     `json:"positions"`
	Done      bool      `json:"done"`
	Truncated bool      `json:"truncated"`
	Rewards   []float64 `json:"rewards,omitempty"`
}

func (a *Arena) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	return Snapshot{
		Step:      a.step,
		Cells:     a.cfg.Cells,
		Goal:      a.cfg.Goal,
		Positions: append([]int(nil), a.positions...),
		Done:      a.done,
		Truncated: a.truncated,
		Rewards:   append([]float64(nil), a.last.Rewards...),
	}
}
