package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/FREDSAYS-dev/Thesis/arena"
	"github.com/FREDSAYS-dev/Thesis/internal/sim"
	"github.com/FREDSAYS-dev/Thesis/internal/store"
	"github.com/FREDSAYS-dev/Thesis/npc"
)

// session is a spawned cast around one arena, with its store.
type session struct {
	runner *sim.Runner
	mgr    *npc.Manager
	cp     *store.Checkpointer
}

func (s *session) Close() error { return s.cp.Store().Close() }

// newSession spawns the cast. Learners resume from their newest usable
// snapshot when one exists.
func (a *app) newSession(ctx context.Context, mode sessionMode) (*session, error) {
	personas, err := a.cast()
	if err != nil {
		return nil, err
	}
	env, err := arena.New(a.cfg.ArenaConfig())
	if err != nil {
		return nil, err
	}
	st, storeMode, err := store.NewFromConfig(a.cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", a.cfg.Store.Mode, err)
	}
	a.log.Info().Str("store", storeMode).Msg("store opened")
	cp := store.NewCheckpointer(st, a.cfg.Store.Keep, a.log)

	mgr := a.newManager(mode)
	ids := make([]string, 0, len(personas))
	for i, p := range personas {
		inst, err := a.spawn(ctx, mgr, cp, p, i)
		if err != nil {
			_ = st.Close()
			return nil, err
		}
		ids = append(ids, inst.ID)
	}

	return &session{
		runner: &sim.Runner{Arena: env, Manager: mgr, NPCs: ids, Logger: a.log},
		mgr:    mgr,
		cp:     cp,
	}, nil
}

func (a *app) spawn(ctx context.Context, mgr *npc.Manager, cp *store.Checkpointer, p *npc.Persona, agent int) (*npc.NPCInstance, error) {
	if p.Kind != npc.KindLearner {
		return mgr.SpawnNPC(p, agent)
	}
	id := npc.InstanceID(p, agent)
	m, _, err := cp.Restore(ctx, id, p.MatrixConfig(a.cfg.MatrixConfig()))
	switch {
	case err == nil:
		return mgr.SpawnWithTable(p, agent, m)
	case errors.Is(err, store.ErrNotFound):
		return mgr.SpawnNPC(p, agent)
	default:
		return nil, err
	}
}

// checkpoint saves every learner's table.
func (s *session) checkpoint(ctx context.Context) error {
	for _, inst := range s.mgr.Instances() {
		if inst.Table == nil {
			continue
		}
		if _, err := s.cp.Checkpoint(ctx, inst.ID, inst.Table); err != nil {
			return err
		}
	}
	return nil
}

func trainCmd() *cobra.Command {
	var episodes int
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Run learning episodes and checkpoint the learners",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			s, err := a.newSession(ctx, sessionMode{})
			if err != nil {
				return err
			}
			defer s.Close()

			rep, trainErr := s.runner.Train(ctx, episodes)
			// Keep what was learned even when interrupted.
			if err := s.checkpoint(context.Background()); err != nil {
				return err
			}
			if trainErr != nil && !errors.Is(trainErr, context.Canceled) {
				return trainErr
			}
			return printJSON(cmd.OutOrStdout(), rep)
		},
	}
	cmd.Flags().IntVarP(&episodes, "episodes", "n", 500, "episodes to train")
	return cmd
}

func evalCmd() *cobra.Command {
	var episodes int
	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Play greedily from the stored matrices without learning",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			s, err := a.newSession(ctx, sessionMode{Greedy: true})
			if err != nil {
				return err
			}
			defer s.Close()

			rep, err := s.runner.Train(ctx, episodes)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), rep)
		},
	}
	cmd.Flags().IntVarP(&episodes, "episodes", "n", 50, "episodes to evaluate")
	return cmd
}
