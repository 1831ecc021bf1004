package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rmacdonaldsmith/aomesh/internal/httpapi"
)

func newTokenCommand(opts *options) *cobra.Command {
	var (
		subject string
		ttl     time.Duration
		admin   bool
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a token for the HTTP admin API",
		Long: `Token signs a JWT with http.secret. Admin tokens grant access to the
/api/v1/admin endpoints.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			if cfg.HTTP.Secret == "" {
				return errors.New("http.secret is not configured")
			}

			tok, expiresAt, err := httpapi.NewJWTAuth(cfg.HTTP.Secret).GenerateToken(subject, admin, ttl)
			if err != nil {
				return fmt.Errorf("failed to generate token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires at %s\n", expiresAt.Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "admin", "Token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", httpapi.DefaultTokenTTL, "Token lifetime")
	cmd.Flags().BoolVar(&admin, "admin", true, "Grant admin access")
	return cmd
}
