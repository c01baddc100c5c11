package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/skedda-booker/internal/config"
)

var (
	Version   = "dev"
	CommitSHA = "none"
	BuildDate = "unknown"
)

func NewRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "skeddabook",
		Short:         "Books the first free Skedda space on the day bookings open",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", config.DefaultFile, "path to the JSON config file")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newKeysCmd())
	root.AddCommand(newSealCmd())
	root.AddCommand(newSetupCmd(&configPath))
	root.AddCommand(newRunCmd(&configPath))
	root.AddCommand(newDaemonCmd(&configPath))
	root.AddCommand(newHistoryCmd(&configPath))
	root.AddCommand(newTokenCmd(&configPath))

	return root
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
