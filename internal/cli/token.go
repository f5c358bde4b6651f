package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	httpapi "github.com/rcarvalho-pb/bakery_payments-go/internal/infrastructure/http"
)

func newTokenCommand(opts *rootOptions) *cobra.Command {
	var (
		subject string
		role    string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for local testing",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if cfg.Auth.JWTSecret == "" {
				return errors.New("auth.jwt_secret is not set")
			}
			if role != httpapi.RoleAdmin && role != httpapi.RoleCustomer {
				return fmt.Errorf("unknown role %q", role)
			}
			if ttl == 0 {
				ttl = cfg.Auth.TokenTTL
			}

			tok, err := httpapi.IssueToken([]byte(cfg.Auth.JWTSecret), cfg.Auth.Issuer, subject, role, ttl, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "dev", "token subject (user id)")
	cmd.Flags().StringVar(&role, "role", httpapi.RoleCustomer, "admin or customer")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (defaults to auth.token_ttl)")
	return cmd
}
