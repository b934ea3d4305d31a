package cli

import (
	"fmt"
	"time"

	"github.com/blueplan/recipebot/internal/recipebot/api"
	"github.com/blueplan/recipebot/internal/recipebot/config"
	"github.com/spf13/cobra"
)

// NewTokenCmd creates the token command, which issues API bearer tokens.
func NewTokenCmd() *cobra.Command {
	var (
		userID string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID == "" {
				return fmt.Errorf("--user is required")
			}
			cfg := config.Load()
			token, err := api.GenerateToken(cfg.Security.JWTSecretKey, userID, ttl)
			if err != nil {
				return fmt.Errorf("issue token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "", "user id the token is issued for")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}
