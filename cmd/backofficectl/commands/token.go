package commands

import (
	"fmt"
	"time"

	"github.com/erp/backoffice/internal/infrastructure/auth"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newTokenCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue access tokens",
	}

	var (
		tenantRef   string
		userID      string
		username    string
		permissions []string
	)
	issue := &cobra.Command{
		Use:   "issue",
		Short: "Sign an access token with the configured JWT secret",
		Long: `Sign an access token. A token without --tenant is an operator token: it
carries no tenant claim and addresses tenants through the tenant header.
A slug passed to --tenant is resolved against the database.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			input := auth.GenerateTokenInput{Username: username, Permissions: permissions}

			if userID == "" {
				input.UserID = uuid.New()
			} else {
				id, err := uuid.Parse(userID)
				if err != nil {
					return err
				}
				input.UserID = id
			}

			if tenantRef != "" {
				id, err := a.tenantID(cmd, tenantRef)
				if err != nil {
					return err
				}
				input.TenantID = &id
			}

			token, err := auth.NewJWTService(a.cfg.JWT).GenerateToken(input)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token.AccessToken)
			a.log.Info("token issued",
				zap.String("user_id", input.UserID.String()),
				zap.Bool("operator", input.TenantID == nil),
				zap.Time("expires_at", token.ExpiresAt.UTC().Truncate(time.Second)),
			)
			return nil
		},
	}
	issue.Flags().StringVarP(&tenantRef, "tenant", "t", "", "Tenant id or slug the token is pinned to")
	issue.Flags().StringVar(&userID, "user-id", "", "Subject of the token; a random id when omitted")
	issue.Flags().StringVarP(&username, "username", "u", "", "Username claim")
	issue.Flags().StringSliceVarP(&permissions, "permission", "p", nil, "Permission to grant, repeatable (e.g. partner.sensitive.view)")
	_ = issue.MarkFlagRequired("username")

	cmd.AddCommand(issue)
	return cmd
}

// tenantID returns ref when it is a uuid and resolves it as a slug otherwise
func (a *app) tenantID(cmd *cobra.Command, ref string) (uuid.UUID, error) {
	if id, err := uuid.Parse(ref); err == nil {
		return id, nil
	}
	services, closeDB, err := a.openServices()
	if err != nil {
		return uuid.Nil, err
	}
	defer closeDB()
	tenant, err := services.Tenants.Resolve(cmd.Context(), ref)
	if err != nil {
		return uuid.Nil, err
	}
	return tenant.ID, nil
}
