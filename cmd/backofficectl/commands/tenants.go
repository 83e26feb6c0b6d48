package commands

import (
	"fmt"

	identityapp "github.com/erp/backoffice/internal/application/identity"
	"github.com/spf13/cobra"
)

func newTenantsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tenants",
		Short: "Manage tenants",
	}

	var name, slug string
	create := &cobra.Command{
		Use:   "create",
		Short: "Register a tenant and print its id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			services, closeDB, err := a.openServices()
			if err != nil {
				return err
			}
			defer closeDB()

			tenant, err := services.Tenants.Create(cmd.Context(), identityapp.CreateTenantInput{Name: name, Slug: slug})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", tenant.ID, tenant.Slug, tenant.Name)
			return nil
		},
	}
	create.Flags().StringVar(&name, "name", "", "Display name")
	create.Flags().StringVar(&slug, "slug", "", "Unique slug used in the tenant header")
	_ = create.MarkFlagRequired("name")
	_ = create.MarkFlagRequired("slug")

	cmd.AddCommand(create)
	return cmd
}
