package npc

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// PersonaRegistry holds all NPC persona definitions.
type PersonaRegistry struct {
	mu       sync.RWMutex
	personas map[string]*Persona
}

// NewRegistry creates an empty registry.
func NewRegistry() *PersonaRegistry {
	return &PersonaRegistry{
		personas: make(map[string]*Persona),
	}
}

// LoadFromFile loads personas from a JSON or YAML file, chosen by extension.
func (r *PersonaRegistry) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read personas file: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return r.LoadFromYAML(data)
	default:
		return r.LoadFromJSON(data)
	}
}

// LoadFromJSON loads personas from raw JSON bytes.
func (r *PersonaRegistry) LoadFromJSON(data []byte) error {
	var list []*Persona
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("parse personas JSON: %w", err)
	}
	return r.add(list)
}

// LoadFromYAML loads personas from raw YAML bytes.
func (r *PersonaRegistry) LoadFromYAML(data []byte) error {
	var list []*Persona
	if err := yaml.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("parse personas YAML: %w", err)
	}
	return r.add(list)
}

// Register adds or replaces a single persona.
func (r *PersonaRegistry) Register(p *Persona) error {
	return r.add([]*Persona{p})
}

func (r *PersonaRegistry) add(list []*Persona) error {
	for _, p := range list {
		if p == nil || p.ID == "" {
			continue
		}
		if err := normalizePersona(p); err != nil {
			return fmt.Errorf("persona %s: %w", p.ID, err)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range list {
		if p == nil || p.ID == "" {
			continue
		}
		r.personas[p.ID] = p
	}
	return nil
}

func normalizePersona(p *Persona) error {
	if p.Name == "" {
		p.Name = p.ID
	}
	switch p.Role {
	case "":
		p.Role = RoleAlly
	case RoleMain, RoleAlly, RoleCompetitive, RoleDialogue:
	default:
		return fmt.Errorf("unknown role %q", p.Role)
	}
	switch p.Kind {
	case "":
		p.Kind = KindRule
	case KindRule, KindLearner:
	default:
		return fmt.Errorf("unknown kind %q", p.Kind)
	}
	if p.Script.Randomness < 0 || p.Script.Randomness > 1 {
		return fmt.Errorf("script randomness must be in [0,1]")
	}
	if d := p.Learning.Discount; d != nil && (math.IsNaN(*d) || *d < 0 || *d > 1) {
		return fmt.Errorf("discount must be in [0,1]")
	}
	return nil
}

// Get returns a persona by ID.
func (r *PersonaRegistry) Get(id string) *Persona {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.personas[id]
}

// All returns every persona ordered by ID.
func (r *PersonaRegistry) All() []*Persona {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Persona, 0, len(r.personas))
	for _, p := range r.personas {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ByRole returns all personas of the given role, ordered by ID.
func (r *PersonaRegistry) ByRole(role Role) []*Persona {
	var out []*Persona
	for _, p := range r.All() {
		if p.Role == role {
			out = append(out, p)
		}
	}
	return out
}

// Count returns the total number of registered personas.
func (r *PersonaRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.personas)
}

// DefaultPersonas is the cast of the two-agent corridor.
func DefaultPersonas() []*Persona {
	return []*Persona{
		{ID: "main_agent", Name: "Main", Role: RoleMain, Kind: KindLearner, Tier: 1,
			Learning: LearningProfile{BaseEpsilon: 0.1, LearningRate: 0.5}},
		{ID: "ally_npc", Name: "Ally", Role: RoleAlly, Kind: KindRule, Tier: 2},
		{ID: "competitor_npc", Name: "Competitor", Role: RoleCompetitive, Kind: KindRule, Tier: 2},
		{ID: "dialogue_npc", Name: "Dialogue", Role: RoleDialogue, Kind: KindRule, Tier: 3},
	}
}
