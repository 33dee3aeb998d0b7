package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tbourn/yt-vantage/internal/config"
)

func newPruneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Delete expired cache rows and old message state once, then exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			a, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer a.close()

			res, err := a.pruner.RunOnce(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pruned %d cache rows, %d message states\n", res.CacheRows, res.StateRows)
			return nil
		},
	}
}
