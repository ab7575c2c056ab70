package npc

import (
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/FREDSAYS-dev/Thesis/emotion"
	"github.com/FREDSAYS-dev/Thesis/matrix"
)

// NPCInstance represents an active NPC bound to an agent slot.
type NPCInstance struct {
	ID       string
	Agent    int
	Persona  *Persona
	Brain    BrainDecider
	Table    ValueTable      // nil for scripted NPCs
	Emotions *emotion.Driver // nil for scripted NPCs
}

type ManagerOptions struct {
	// Defaults for fields a persona leaves unset.
	Matrix  matrix.Config
	Emotion emotion.Config
	// Seed for brain RNGs (0 => time-based).
	Seed   int64
	Logger zerolog.Logger
	// Discount applied by learners whose persona leaves it unset. nil keeps
	// the brain default.
	Discount *float64
	// Greedy spawns learners without exploration or updates.
	Greedy bool
	// Concurrent guards every learner table with a lock so tables can be
	// read while a runner is updating them.
	Concurrent bool
}

// Manager manages NPC lifecycle and decision-making.
type Manager struct {
	registry  *PersonaRegistry
	opts      ManagerOptions
	instances map[string]*NPCInstance
	pools     map[string]*matrix.Shared // keyed by archetype
	mu        sync.RWMutex
	rng       *rand.Rand
	logger    zerolog.Logger
}

// NewManager creates an NPC manager with the given persona registry.
func NewManager(registry *PersonaRegistry, opts ManagerOptions) *Manager {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if opts.Matrix == (matrix.Config{}) {
		opts.Matrix = matrix.DefaultConfig()
	}
	if opts.Emotion == (emotion.Config{}) {
		opts.Emotion = emotion.DefaultConfig()
	}
	return &Manager{
		registry:  registry,
		opts:      opts,
		instances: make(map[string]*NPCInstance),
		pools:     make(map[string]*matrix.Shared),
		rng:       rand.New(rand.NewSource(seed)),
		logger:    opts.Logger.With().Str("component", "npc").Logger(),
	}
}

// Registry returns the underlying PersonaRegistry.
func (m *Manager) Registry() *PersonaRegistry {
	return m.registry
}

// InstanceID is the stable id of persona when it plays agent.
func InstanceID(persona *Persona, agent int) string {
	return fmt.Sprintf("%s@%d", persona.ID, agent)
}

// SpawnNPC creates an NPC for persona and binds it to agent. Learners get a
// fresh matrix, or their archetype's pool when the persona shares learning.
func (m *Manager) SpawnNPC(persona *Persona, agent int) (*NPCInstance, error) {
	return m.spawn(persona, agent, nil)
}

// SpawnWithTable spawns a learner around an existing table, e.g. one
// restored from a snapshot.
func (m *Manager) SpawnWithTable(persona *Persona, agent int, table ValueTable) (*NPCInstance, error) {
	if table == nil {
		return nil, fmt.Errorf("spawn NPC %s: nil table", persona.Name)
	}
	if mx, ok := table.(*matrix.Matrix); ok && m.opts.Concurrent {
		table = matrix.NewShared(mx)
	}
	return m.spawn(persona, agent, table)
}

func (m *Manager) spawn(persona *Persona, agent int, table ValueTable) (*NPCInstance, error) {
	if persona == nil {
		return nil, fmt.Errorf("spawn NPC: nil persona")
	}
	id := InstanceID(persona, agent)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.instances[id] != nil {
		return nil, fmt.Errorf("spawn NPC %s at agent %d: already spawned", persona.Name, agent)
	}
	seed := m.rng.Int63()

	inst := &NPCInstance{ID: id, Agent: agent, Persona: persona}
	switch persona.Kind {
	case KindLearner:
		if table == nil {
			var err error
			table, err = m.tableForLocked(persona, seed)
			if err != nil {
				return nil, fmt.Errorf("spawn NPC %s at agent %d: %w", persona.Name, agent, err)
			}
		}
		ecfg := m.opts.Emotion
		if persona.Emotion.Sensitivity > 0 {
			ecfg.Sensitivity = persona.Emotion.Sensitivity
		}
		if persona.Emotion.DecayPerTick > 0 {
			ecfg.DecayPerTick = persona.Emotion.DecayPerTick
		}
		drv := emotion.NewDriver(ecfg)
		var opts []MatrixBrainOption
		if m.opts.Discount != nil {
			opts = append(opts, WithDiscount(*m.opts.Discount))
		}
		if m.opts.Greedy {
			opts = append(opts, WithGreedy())
		}
		if len(persona.Learning.Forbid) > 0 {
			mask := NewMaskPlanner()
			for _, a := range persona.Learning.Forbid {
				mask.Forbid(a)
			}
			opts = append(opts, WithPlanner(mask))
		}
		inst.Brain = NewMatrixBrain(persona, table, drv, opts...)
		inst.Table = table
		inst.Emotions = drv
	default:
		inst.Brain = NewRuleBrain(persona, seed)
	}

	m.instances[id] = inst
	m.logger.Info().
		Str("npc", id).
		Str("persona", persona.Name).
		Str("role", string(persona.Role)).
		Str("kind", string(persona.Kind)).
		Int("agent", agent).
		Msg("spawned")
	return inst, nil
}

func (m *Manager) tableForLocked(persona *Persona, seed int64) (ValueTable, error) {
	cfg := persona.MatrixConfig(m.opts.Matrix)
	cfg.Seed = seed
	if !persona.Learning.SharedPool {
		mx, err := matrix.New(cfg)
		if err != nil {
			return nil, err
		}
		if m.opts.Concurrent {
			return matrix.NewShared(mx), nil
		}
		return mx, nil
	}
	key := persona.ArchetypeKey()
	if pool := m.pools[key]; pool != nil {
		return pool, nil
	}
	mx, err := matrix.New(cfg)
	if err != nil {
		return nil, err
	}
	pool := matrix.NewShared(mx)
	m.pools[key] = pool
	return pool, nil
}

// Seed pre-populates the table of learner id from seeder.
func (m *Manager) Seed(id string, seeder ImitationSeeder) (int, error) {
	inst := m.GetInstance(id)
	if inst == nil || inst.Table == nil {
		return 0, fmt.Errorf("seed %s: no learner with that id", id)
	}
	demos := seeder.Demonstrations()
	if err := inst.Table.SeedAll(demos); err != nil {
		return 0, fmt.Errorf("seed %s: %w", id, err)
	}
	m.logger.Info().Str("npc", id).Int("demonstrations", len(demos)).Msg("seeded")
	return len(demos), nil
}

// DecayEmotions fades the emotions of every learner for an idle period of
// wall-clock time.
func (m *Manager) DecayEmotions(idle time.Duration) {
	if idle <= 0 {
		return
	}
	for _, inst := range m.Instances() {
		if inst.Emotions != nil {
			inst.Emotions.DecaySince(idle)
		}
	}
}

// OnTurn asks the NPC's brain for a decision.
func (m *Manager) OnTurn(id string, view View) (Decision, error) {
	inst := m.GetInstance(id)
	if inst == nil {
		return Decision{}, fmt.Errorf("on turn: unknown NPC %s", id)
	}
	d, err := inst.Brain.Decide(view)
	if err != nil {
		return Decision{}, fmt.Errorf("%s decide: %w", id, err)
	}
	m.logger.Debug().
		Str("npc", id).
		Str("context", string(view.Context)).
		Str("action", string(d.Action)).
		Float64("mood", float64(d.Mood)).
		Float64("epsilon", d.Epsilon).
		Msg("decided")
	return d, nil
}

// Observe hands a transition to a learning NPC. Scripted NPCs ignore it.
func (m *Manager) Observe(id string, t Transition) error {
	inst := m.GetInstance(id)
	if inst == nil {
		return fmt.Errorf("observe: unknown NPC %s", id)
	}
	l, ok := inst.Brain.(Learner)
	if !ok {
		return nil
	}
	return l.Observe(t)
}

// GetInstance returns the NPC instance for id, or nil.
func (m *Manager) GetInstance(id string) *NPCInstance {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.instances[id]
}

// Table returns the value table of learner id, or nil.
func (m *Manager) Table(id string) ValueTable {
	inst := m.GetInstance(id)
	if inst == nil {
		return nil
	}
	return inst.Table
}

// IsNPC checks if id belongs to a spawned NPC.
func (m *Manager) IsNPC(id string) bool {
	return m.GetInstance(id) != nil
}

// Instances returns all NPCs ordered by agent slot.
func (m *Manager) Instances() []*NPCInstance {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*NPCInstance, 0, len(m.instances))
	for _, inst := range m.instances {
		out = append(out, inst)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Agent != out[j].Agent {
			return out[i].Agent < out[j].Agent
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// DespawnNPC removes an NPC from tracking. Pools outlive their members.
func (m *Manager) DespawnNPC(id string) {
	m.mu.Lock()
	inst := m.instances[id]
	delete(m.instances, id)
	m.mu.Unlock()

	if inst != nil {
		m.logger.Info().Str("npc", id).Str("persona", inst.Persona.Name).Msg("despawned")
	}
}
