package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/FREDSAYS-dev/Thesis/imitation"
	"github.com/FREDSAYS-dev/Thesis/replay"
)

func recordCmd() *cobra.Command {
	var (
		episodes int
		out      string
	)
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record scripted episodes of the cast to a tape file",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			personas, err := a.cast()
			if err != nil {
				return err
			}
			spec := replay.EpisodeSpec{Arena: a.cfg.ArenaConfig(), Seed: a.cfg.Matrix.Seed}
			for _, p := range personas {
				spec.Agents = append(spec.Agents, replay.AgentSpec{
					Name:       p.ID,
					Role:       p.Role,
					Randomness: p.Script.Randomness,
				})
			}
			tapes, err := replay.RecordEpisodes(spec, episodes)
			if err != nil {
				return err
			}
			if err := replay.WriteFile(out, tapes); err != nil {
				return err
			}
			a.log.Info().Int("episodes", len(tapes)).Str("out", out).Msg("tapes recorded")
			return nil
		},
	}
	cmd.Flags().IntVarP(&episodes, "episodes", "n", 20, "episodes to record")
	cmd.Flags().StringVarP(&out, "out", "o", "tapes.json", "output file")
	return cmd
}

func seedCmd() *cobra.Command {
	var (
		tapesPath string
		roles     []string
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Warm-start a learner from recorded tapes",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			var filter imitation.AgentFilter
			if len(roles) > 0 {
				filter = imitation.ByRole(roles...)
			}
			seeder, err := imitation.FromTapeFile(tapesPath, a.cfg.Matrix.Discount, filter)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			s, err := a.newSession(ctx, sessionMode{})
			if err != nil {
				return err
			}
			defer s.Close()

			n, err := s.mgr.Seed(npcID, seeder)
			if err != nil {
				return err
			}
			inst := s.mgr.GetInstance(npcID)
			meta, err := s.cp.Checkpoint(ctx, npcID, inst.Table)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %s with %d demonstrations (snapshot %s)\n", npcID, n, meta.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&tapesPath, "tapes", "tapes.json", "tape file written by record")
	cmd.Flags().StringSliceVar(&roles, "role", nil, "only learn from agents with these roles")
	return cmd
}
