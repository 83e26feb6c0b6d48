package commands

import (
	"fmt"

	domnum "github.com/erp/backoffice/internal/domain/numbering"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/spf13/cobra"
)

// countersFor maps the names accepted by --counter to counters of year
func countersFor(names []string, year int) ([]domnum.Counter, error) {
	all := map[string]domnum.Counter{
		"proposals":       domnum.Proposals(),
		"entities":        domnum.Entities(),
		"sales-orders":    domnum.SalesOrders(year),
		"purchase-orders": domnum.PurchaseOrders(year),
	}
	if len(names) == 0 {
		names = []string{"entities", "proposals", "sales-orders", "purchase-orders"}
	}
	counters := make([]domnum.Counter, 0, len(names))
	for _, name := range names {
		c, ok := all[name]
		if !ok {
			return nil, fmt.Errorf("unknown counter %q (want proposals, entities, sales-orders or purchase-orders)", name)
		}
		counters = append(counters, c)
	}
	return counters, nil
}

func newSequencesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sequences",
		Short: "Inspect and repair document counters",
	}

	var (
		tenantRef string
		names     []string
		year      int
	)
	adopt := &cobra.Command{
		Use:   "adopt",
		Short: "Raise counters past the numbers already stored",
		Long: `Create missing counters and raise existing ones to one past the largest
number stored for the tenant. Run it after importing documents that carry
their own numbers. Counters never move backwards.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if year == 0 {
				year = a.clock.Now().Year()
			}
			counters, err := countersFor(names, year)
			if err != nil {
				return err
			}

			services, closeDB, err := a.openServices()
			if err != nil {
				return err
			}
			defer closeDB()

			ctx := cmd.Context()
			tc := shared.NoTenant()
			if tenantRef != "" {
				if tc, err = services.Tenants.ResolveContext(ctx, tenantRef); err != nil {
					return err
				}
			}
			for _, c := range counters {
				next, err := services.Adopter.Adopt(ctx, tc, c)
				if err != nil {
					return fmt.Errorf("adopt %s: %w", c.Key, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\tnext=%d\n", tc.ScopeKey(), c.Key, next)
			}
			return nil
		},
	}
	adopt.Flags().StringVarP(&tenantRef, "tenant", "t", "", "Tenant id or slug; omitted adopts the tenantless counters")
	adopt.Flags().StringSliceVar(&names, "counter", nil, "Counters to adopt (proposals, entities, sales-orders, purchase-orders); all when omitted")
	adopt.Flags().IntVar(&year, "year", 0, "Year of the sales and purchase order series; defaults to the current year")

	cmd.AddCommand(adopt)
	return cmd
}
