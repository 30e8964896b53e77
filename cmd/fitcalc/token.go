package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/2beens/fitcalc/internal/auth"

	"github.com/spf13/cobra"
)

func newTokenCmd() *cobra.Command {
	var userID, secret string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an access token for the dev server",
		Args:  cobra.NoArgs,
		// no config or session needed
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, _ []string) error {
			if userID == "" {
				return errors.New("--user is required")
			}
			if secret == "" {
				secret = os.Getenv("FITCALC_DEV_TOKEN_SECRET")
			}
			if secret == "" {
				secret = "fitcalc-dev"
			}
			token, err := auth.IssueDevToken(secret, userID, ttl, time.Now())
			if err != nil {
				return fmt.Errorf("issue token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id the token is issued for")
	cmd.Flags().StringVar(&secret, "secret", "", "signing secret, defaults to FITCALC_DEV_TOKEN_SECRET")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}
