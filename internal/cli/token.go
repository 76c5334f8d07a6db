package cli

import (
	"encoding/json"
	"fmt"

	"lms-quiz-service/internal/config"
	"lms-quiz-service/internal/domain"

	"github.com/spf13/cobra"
)

// NewTokenCmd issues a signed access/refresh pair, mainly for local testing.
func NewTokenCmd(configPath *string) *cobra.Command {
	var (
		userID string
		name   string
		role   string
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an access and refresh token for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Auth.JWTSecret == "" {
				return fmt.Errorf("auth.jwt_secret not configured")
			}
			session := domain.Session{UserID: userID, DisplayName: name, Role: domain.Role(role)}
			if session.DisplayName == "" {
				session.DisplayName = userID
			}
			if session.Role != domain.RoleLearner && session.Role != domain.RoleTeacher {
				return fmt.Errorf("unknown role %q", role)
			}
			pair, err := newTokenManager(cfg).IssuePair(session)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(pair)
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&role, "role", string(domain.RoleLearner), "learner or teacher")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
