package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smnsjas/rebootcheck/config"
	"github.com/smnsjas/rebootcheck/history"
)

func newHistoryCmd() *cobra.Command {
	var (
		target string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent stored check results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.ConfigPath)
			if err != nil {
				return err
			}
			if cfg.HistoryPath == "" {
				return fmt.Errorf("no history_path configured")
			}

			ctx := context.Background()
			store, err := history.Open(ctx, cfg.HistoryPath)
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.RecentResults(ctx, target, limit)
			if err != nil {
				return err
			}

			stdout := cmd.OutOrStdout()
			for _, e := range entries {
				fmt.Fprintf(stdout, "%s Target=%s RebootRequired=%s RegistryPending=%s ServicingMarkerPresent=%s RemoteConnectionDenied=%v\n",
					e.CheckedAt.Format("2006-01-02 15:04:05"), e.Target, e.RebootRequired,
					e.RegistryPending(), e.ServicingMarkerPresent(), e.RemoteConnectionDenied)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&target, "target", "", "limit to one target")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum entries to show")

	return cmd
}
