package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/example/skedda-booker/internal/config"
	"github.com/example/skedda-booker/internal/scheduler"
)

func newDaemonCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Stay running and book once a day at RUN_AT",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			log := newLogger(cfg.LogLevel)

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			repo, closeDB, err := openHistory(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeDB()

			r := newRunner(cfg, log, cmd.OutOrStdout())
			if repo != nil {
				r.history = repo
			}

			s := &scheduler.Scheduler{
				At:       cfg.RunAt,
				Location: cfg.Location,
				Interval: cfg.PollInterval,
				Log:      log,
				Job: func(ctx context.Context) {
					if err := r.once(ctx, ""); err != nil && !errors.Is(err, errNoSpace) {
						log.Error("run failed", "err", err)
					}
				},
			}
			log.Info("daemon started", "run_at", cfg.RunAt, "timezone", cfg.Location.String())
			err = s.Run(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}
