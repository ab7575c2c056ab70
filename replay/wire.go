package replay

import (
	"encoding/json"
	"fmt"
	"os"
)

// WireTape is the camelCase form served to spectators.
type WireTape struct {
	TapeVersion int        `json:"tapeVersion"`
	EpisodeID   string     `json:"episodeId"`
	Agents      []string   `json:"agents"`
	Steps       []WireStep `json:"steps"`
	Returns     []float64  `json:"returns"`
}

type WireStep struct {
	Index   int     `json:"index"`
	Agent   int     `json:"agent"`
	Context string  `json:"context"`
	Action  string  `json:"action"`
	Reward  float64 `json:"reward"`
	Done    bool    `json:"done"`
}

func ToWireStep(s Step) WireStep {
	return WireStep{
		Index:   s.Index,
		Agent:   s.Agent,
		Context: string(s.Context),
		Action:  string(s.Action),
		Reward:  s.Reward,
		Done:    s.Done,
	}
}

func ToWireTape(tape *Tape) *WireTape {
	if tape == nil {
		return nil
	}
	out := &WireTape{
		TapeVersion: tape.TapeVersion,
		EpisodeID:   tape.EpisodeID,
		Agents:      make([]string, 0, len(tape.Agents)),
		Steps:       make([]WireStep, 0, len(tape.Steps)),
		Returns:     append([]float64(nil), tape.Returns...),
	}
	for _, a := range tape.Agents {
		out.Agents = append(out.Agents, a.Name)
	}
	for _, s := range tape.Steps {
		out.Steps = append(out.Steps, ToWireStep(s))
	}
	return out
}

// WriteFile stores tapes as indented JSON.
func WriteFile(path string, tapes []*Tape) error {
	data, err := json.MarshalIndent(tapes, "", "  ")
	if err != nil {
		return fmt.Errorf("encode tapes: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write tapes: %w", err)
	}
	return nil
}

// ReadFile loads tapes written by WriteFile and checks their version.
func ReadFile(path string) ([]*Tape, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tapes: %w", err)
	}
	var tapes []*Tape
	if err := json.Unmarshal(data, &tapes); err != nil {
		return nil, fmt.Errorf("parse tapes: %w", err)
	}
	for i, t := range tapes {
		if t == nil {
			return nil, fmt.Errorf("tape %d is empty", i)
		}
		if t.TapeVersion != TapeVersion {
			return nil, fmt.Errorf("tape %d: unsupported version %d", i, t.TapeVersion)
		}
	}
	return tapes, nil
}
