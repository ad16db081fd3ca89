package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	jwttoken "caseflow/internal/jwt_token"
	"caseflow/internal/platform/config"
	id "caseflow/pkg/domain"
)

const (
	tokenIssuer   = "caseflow"
	tokenAudience = "caseflow-api"
)

// newTokenCommand issues a signed access token for local testing.
func newTokenCommand() *cobra.Command {
	var (
		userID        string
		institutionID string
		role          string
		ttl           time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an access token for a caller",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}

			caller := id.Identity{UserID: id.NewUserID()}
			if userID != "" {
				if caller.UserID, err = id.ParseUserID(userID); err != nil {
					return err
				}
			}
			if institutionID != "" {
				if caller.InstitutionID, err = id.ParseInstitutionID(institutionID); err != nil {
					return err
				}
			}
			if caller.Role, err = id.ParseRole(role); err != nil {
				return err
			}
			if err := caller.Validate(); err != nil {
				return err
			}

			svc := jwttoken.NewJWTService(cfg.JWTSigningKey, tokenIssuer, tokenAudience)
			token, err := svc.GenerateAccessToken(caller, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user-id", "", "caller user id (random when empty)")
	cmd.Flags().StringVar(&institutionID, "institution-id", "", "caller institution id")
	cmd.Flags().StringVar(&role, "role", string(id.RoleSchoolAdmin), "SUPER_ADMIN, SCHOOL_ADMIN or TUTOR_CENTRE_ADMIN")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	return cmd
}
