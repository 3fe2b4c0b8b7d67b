package main

import (
	"fmt"

	"taste-match/internal/pkg/jwt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// newTokenCmd mints an access token for local testing. Production tokens
// come from the OAuth exchange.
func newTokenCmd(opts *rootOptions) *cobra.Command {
	var user string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print a bearer token for a user id",
		RunE: func(cmd *cobra.Command, _ []string) error {
			userID, err := uuid.Parse(user)
			if err != nil {
				return fmt.Errorf("invalid --user: %w", err)
			}

			cfg, _, err := opts.setup()
			if err != nil {
				return err
			}

			token, err := jwt.NewHMACService(cfg.JWT.AccessSecret, cfg.JWT.AccessExpiresIn).GenerateAccessToken(userID)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().StringVarP(&user, "user", "u", "", "user id to issue the token for")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
