package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/skedda-booker/internal/config"
)

func newSetupCmd(configPath *string) *cobra.Command {
	var force bool

	c := &cobra.Command{
		Use:   "setup",
		Short: "Write a config file template to fill in",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.WriteTemplate(*configPath, force); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "created %s\n", *configPath)
			fmt.Fprintln(out, "fill it in from the browser dev tools:")
			fmt.Fprintln(out, "  SKEDDA_COOKIES  the Cookie header of any request to your venue")
			fmt.Fprintln(out, "  SKEDDA_TOKEN    the x-skedda-requestverificationtoken header (or run `skeddabook token`)")
			fmt.Fprintln(out, "  SKEDDA_SPACES   space ids to names, most preferred first")
			return nil
		},
	}

	c.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")
	return c
}
