package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/skedda-booker/internal/secrets"
)

func newKeysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "Generate a SKEDDA_CRED_KEY value (base64) for sealing credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := secrets.GenerateKey()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "export SKEDDA_CRED_KEY=%s\n", key)
			return nil
		},
	}
}

func newSealCmd() *cobra.Command {
	var name string

	c := &cobra.Command{
		Use:   "seal [value]",
		Short: "Seal a credential with SKEDDA_CRED_KEY so it can be stored in config",
		Long: "Seal encrypts SKEDDA_COOKIES or SKEDDA_TOKEN with the key in SKEDDA_CRED_KEY.\n" +
			"The value is read from the argument, or from stdin when no argument is given.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := strings.TrimSpace(os.Getenv("SKEDDA_CRED_KEY"))
			if key == "" {
				return errors.New("SKEDDA_CRED_KEY is not set (generate one with `skeddabook keys`)")
			}
			box, err := secrets.FromBase64(key)
			if err != nil {
				return err
			}

			var value string
			if len(args) == 1 {
				value = args[0]
			} else if value, err = readValue(cmd.InOrStdin()); err != nil {
				return err
			}
			if value == "" {
				return errors.New("nothing to seal")
			}

			sealed, err := box.Seal(name, value)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", name, sealed)
			return nil
		},
	}

	c.Flags().StringVar(&name, "name", "SKEDDA_COOKIES", "config key the value belongs to (SKEDDA_COOKIES or SKEDDA_TOKEN)")
	return c
}

func readValue(r io.Reader) (string, error) {
	b, err := io.ReadAll(bufio.NewReader(r))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}
