package cli

import (
	"github.com/spf13/cobra"

	"github.com/dgallion1/docdialog/internal/store"
)

func newStatsCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize the knowledge base",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			st, err := store.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer st.Close()

			stats, err := st.Stats(cmd.Context())
			if err != nil {
				return err
			}
			FormatStats(cmd.OutOrStdout(), st.Path(), stats)
			return nil
		},
	}
}
