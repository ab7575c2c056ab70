// Command npcsim trains, evaluates and serves matrix-driven NPCs in the
// corridor arena.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/FREDSAYS-dev/Thesis/internal/config"
	"github.com/FREDSAYS-dev/Thesis/internal/logging"
	"github.com/FREDSAYS-dev/Thesis/npc"
)

var (
	cfgPath string
	npcID   string
	castIDs string
	verbose bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "npcsim",
		Short: "Train and watch emotion-modulated Q-matrix NPCs",
		Long: `npcsim runs NPCs in a one-dimensional corridor arena.

Train the default cast:     npcsim train --episodes 500
Evaluate greedily:          npcsim eval --episodes 50
Record scripted episodes:   npcsim record --out tapes.json
Warm-start from tapes:      npcsim seed --tapes tapes.json
Look at a learned matrix:   npcsim inspect --npc main_agent@0
Stream live episodes:       npcsim serve`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (YAML)")
	rootCmd.PersistentFlags().StringVar(&npcID, "npc", "main_agent@0", "NPC instance id (persona@agent)")
	rootCmd.PersistentFlags().StringVar(&castIDs, "cast", "main_agent,competitor_npc", "comma-separated persona ids, one per arena agent")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(trainCmd())
	rootCmd.AddCommand(evalCmd())
	rootCmd.AddCommand(recordCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(inspectCmd())
	rootCmd.AddCommand(serveCmd())
	return rootCmd
}

// app bundles what every command loads first.
type app struct {
	cfg      *config.Config
	log      zerolog.Logger
	registry *npc.PersonaRegistry
}

func loadApp() (*app, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	log := logging.New(cfg.Logging)

	registry := npc.NewRegistry()
	if cfg.Personas != "" {
		if err := registry.LoadFromFile(cfg.Personas); err != nil {
			return nil, fmt.Errorf("load personas: %w", err)
		}
	} else {
		for _, p := range npc.DefaultPersonas() {
			if err := registry.Register(p); err != nil {
				return nil, err
			}
		}
	}
	log.Debug().Int("personas", registry.Count()).Str("store", cfg.Store.Mode).Msg("config loaded")
	return &app{cfg: cfg, log: log, registry: registry}, nil
}

// cast resolves --cast against the registry.
func (a *app) cast() ([]*npc.Persona, error) {
	var out []*npc.Persona
	for _, id := range strings.Split(castIDs, ",") {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		p := a.registry.Get(id)
		if p == nil {
			return nil, fmt.Errorf("unknown persona %q", id)
		}
		out = append(out, p)
	}
	if want := len(a.cfg.Arena.Starts); len(out) != want {
		return nil, fmt.Errorf("cast has %d personas but the arena has %d start cells", len(out), want)
	}
	return out, nil
}

// sessionMode picks how a session's learners behave.
type sessionMode struct {
	// Greedy learners neither explore nor update.
	Greedy bool
	// Live sessions expose their tables while the runner updates them.
	Live bool
}

func (a *app) newManager(mode sessionMode) *npc.Manager {
	return npc.NewManager(a.registry, npc.ManagerOptions{
		Matrix:     a.cfg.MatrixConfig(),
		Emotion:    a.cfg.EmotionConfig(),
		Discount:   npc.Float(a.cfg.Matrix.Discount),
		Seed:       a.cfg.Matrix.Seed,
		Logger:     a.log,
		Greedy:     mode.Greedy,
		Concurrent: mode.Live,
	})
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
