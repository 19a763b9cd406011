package cli

import (
	"errors"
	"fmt"
	"time"

	"eventregistration/internal/adapters/auth"
	"eventregistration/internal/domain"

	"github.com/spf13/cobra"
)

// TokenOptions holds flags for the token command.
type TokenOptions struct {
	*RootOptions
	UserID string
	Email  string
	Role   string
	Expiry time.Duration
}

// NewTokenCommand creates the token command. Tokens are for local development;
// production callers bring tokens from the identity provider.
func NewTokenCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TokenOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print a signed development bearer token",
		Long: `Sign a bearer token with JWT_SECRET for local testing.

Example:
  eventreg token --user alice --email alice@example.com --role attendee
  eventreg token --user root --role admin --expiry 1h`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := opts.setup()
			if err != nil {
				return err
			}
			if cfg.JWTSecret == "" {
				return errors.New("JWT_SECRET is required to sign tokens")
			}
			role, err := domain.ParseRole(opts.Role)
			if err != nil {
				return err
			}
			expiry := opts.Expiry
			if expiry <= 0 {
				expiry = cfg.JWTExpiry
			}
			token, err := auth.NewJWTIssuer(cfg.JWTSecret).Issue(domain.Principal{
				UserID: opts.UserID,
				Email:  opts.Email,
				Role:   role,
			}, expiry)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}

	cmd.Flags().StringVar(&opts.UserID, "user", "", "user ID placed in the sub claim (required)")
	cmd.Flags().StringVar(&opts.Email, "email", "", "email claim, used for notifications")
	cmd.Flags().StringVar(&opts.Role, "role", "attendee", "attendee, organizer or admin")
	cmd.Flags().DurationVar(&opts.Expiry, "expiry", 0, "token lifetime (default: JWT_EXPIRY)")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}
