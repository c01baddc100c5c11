package cmd

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/skedda-booker/internal/config"
)

func newHistoryCmd(configPath *string) *cobra.Command {
	var limit int

	c := &cobra.Command{
		Use:   "history",
		Short: "List recorded booking runs (needs DATABASE_URL)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return errors.New("DATABASE_URL is not set; run history is disabled")
			}

			ctx := context.Background()
			repo, closeDB, err := openHistory(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeDB()

			rs, err := repo.List(ctx, limit)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "STARTED\tDATE\tOUTCOME\tSPACE\tDETAIL")
			for _, r := range rs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
					r.StartedAt.In(cfg.Location).Format(time.DateTime),
					r.TargetDate.Format(time.DateOnly),
					r.Outcome, r.BookedName, r.Detail)
			}
			return tw.Flush()
		},
	}

	c.Flags().IntVar(&limit, "limit", 20, "number of runs to show")
	return c
}
