package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"evonft/pkg/platform/secrets"
)

func newSecretCmd() *cobra.Command {
	var token string
	cmd := &cobra.Command{
		Use:   "secret",
		Short: "Generate a metrics bearer token and the hash for EVONFT_METRICS_TOKEN_HASH",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if token == "" {
				var err error
				if token, err = secrets.Generate(); err != nil {
					return err
				}
			}
			hash, err := secrets.Hash(token)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "token: %s\nhash:  %s\n", token, hash)
			return err
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "hash this token instead of generating one")
	return cmd
}
