package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/skedda-booker/internal/config"
	"github.com/example/skedda-booker/internal/skedda"
)

func newTokenCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Fetch the request verification token for the configured cookies",
		RunE: func(cmd *cobra.Command, args []string) error {
			base, cookies, err := config.LoadCookies(*configPath)
			if err != nil {
				return err
			}
			s, err := skedda.New(skedda.Options{BaseURL: base, Cookies: cookies})
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			tok, err := s.DiscoverToken(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "SKEDDA_TOKEN=%s\n", tok)
			return nil
		},
	}
}
