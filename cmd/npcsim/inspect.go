package main

import (
	"github.com/spf13/cobra"

	"github.com/FREDSAYS-dev/Thesis/internal/store"
)

func inspectCmd() *cobra.Command {
	var history int
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print the stored matrix of --npc, or its snapshot history",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			st, _, err := store.NewFromConfig(a.cfg.Store)
			if err != nil {
				return err
			}
			defer st.Close()

			ctx := cmd.Context()
			if history > 0 {
				recs, err := st.History(ctx, npcID, history)
				if err != nil {
					return err
				}
				metas := make([]store.Meta, 0, len(recs))
				for _, r := range recs {
					metas = append(metas, r.Meta)
				}
				return printJSON(cmd.OutOrStdout(), metas)
			}

			m, meta, err := store.LoadMatrix(ctx, st, npcID, a.cfg.MatrixConfig())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"snapshot": meta,
				"matrix":   m.Snapshot(),
			})
		},
	}
	cmd.Flags().IntVar(&history, "history", 0, "list the newest N snapshots instead")
	return cmd
}
