package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dkeye/OneVoice/internal/config"
	"github.com/dkeye/OneVoice/internal/domain"
	"github.com/dkeye/OneVoice/internal/identity"
)

// tokenCmd mints a bearer token signed with the configured secret, for
// local testing without the account service.
func tokenCmd(cfg *config.Config) *cobra.Command {
	var (
		userID string
		name   string
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "issue a bearer token for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			id := uuid.New()
			if userID != "" {
				parsed, err := uuid.Parse(userID)
				if err != nil {
					return fmt.Errorf("--user: %w", err)
				}
				id = parsed
			}
			who, err := domain.NewIdentity(id, name)
			if err != nil {
				return err
			}
			v, err := identity.NewVerifier(cfg.Secret)
			if err != nil {
				return err
			}
			tok, err := v.Issue(who, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "user_id: %s\ntoken: %s\n", who.UserID, tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id (random when empty)")
	cmd.Flags().StringVar(&name, "name", "", "full name")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime, 0 for no expiry")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}
