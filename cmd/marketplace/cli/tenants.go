package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/marketplace/svc/provision"
	"github.com/dmitrymomot/marketplace/svc/registry"
)

func init() {
	f := provisionCmd.Flags()
	f.StringVar(&provisionParams.Name, "name", "", "tenant display name")
	f.StringVar(&provisionParams.Email, "email", "", "tenant contact email")
	f.StringVar(&provisionParams.SchemaName, "schema", "", "schema name (lowercase letters, digits, underscores)")
	f.StringVar(&provisionParams.Domain, "domain", "", "primary domain")
	f.StringVar(&provisionParams.Description, "description", "", "tenant description")
	f.BoolVar(&provisionParams.OnTrial, "on-trial", true, "start the tenant on trial")
	f.StringVar(&provisionPaidUntil, "paid-until", "", "paid-until date (YYYY-MM-DD)")
	for _, name := range []string{"name", "email", "schema", "domain"} {
		_ = provisionCmd.MarkFlagRequired(name)
	}

	deprovisionCmd.Flags().StringVar(&deprovisionSchema, "schema", "", "schema of the tenant to delete")
	deprovisionCmd.Flags().StringVar(&deprovisionConfirm, "confirm", "", "repeat the schema name to confirm")
	_ = deprovisionCmd.MarkFlagRequired("schema")
	_ = deprovisionCmd.MarkFlagRequired("confirm")

	u := tenantsUpdateCmd.Flags()
	u.StringVar(&updateSchema, "schema", "", "schema of the tenant to update")
	u.String("name", "", "new display name")
	u.String("email", "", "new contact email")
	u.String("description", "", "new description")
	u.Bool("active", true, "whether the tenant serves requests")
	u.Bool("on-trial", false, "whether the tenant is on trial")
	u.String("paid-until", "", "paid-until date (YYYY-MM-DD)")
	u.Bool("clear-paid-until", false, "remove the paid-until date")
	_ = tenantsUpdateCmd.MarkFlagRequired("schema")

	tenantsListCmd.Flags().BoolVar(&listJSON, "json", false, "print JSON instead of a table")

	tenantsCmd.AddCommand(tenantsListCmd, tenantsUpdateCmd)
	rootCmd.AddCommand(provisionCmd, deprovisionCmd, tenantsCmd)
}

var (
	provisionParams    provision.Params
	provisionPaidUntil string
	deprovisionSchema  string
	deprovisionConfirm string
	updateSchema       string
	listJSON           bool
)

var provisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "Create a tenant with its schema, tables and primary domain",
	RunE: func(cmd *cobra.Command, _ []string) error {
		p := provisionParams
		if provisionPaidUntil != "" {
			d, err := parseDate(provisionPaidUntil)
			if err != nil {
				return err
			}
			p.PaidUntil = &d
		}
		return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
			res, err := a.provisioner().Provision(ctx, p)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		})
	},
}

var deprovisionCmd = &cobra.Command{
	Use:   "deprovision",
	Short: "Delete a tenant with its domains, schema, data and media",
	Long:  `Delete a tenant irreversibly. --confirm must repeat the schema name.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
			if err := a.provisioner().Deprovision(ctx, deprovisionSchema, deprovisionConfirm); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "tenant %s deleted\n", deprovisionSchema)
			return nil
		})
	},
}

var tenantsCmd = &cobra.Command{
	Use:   "tenants",
	Short: "Inspect and edit registered tenants",
}

var tenantsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tenants with their primary domains",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
			tenants, err := a.registry.ListTenants(ctx)
			if err != nil {
				return err
			}
			if listJSON {
				return printJSON(cmd.OutOrStdout(), tenants)
			}
			primary, err := a.registry.PrimaryDomains(ctx)
			if err != nil {
				return err
			}
			return printTenants(cmd.OutOrStdout(), tenants, primary)
		})
	},
}

var tenantsUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Edit tenant fields; only the given flags are changed",
	RunE: func(cmd *cobra.Command, _ []string) error {
		patch, err := patchFromFlags(cmd)
		if err != nil {
			return err
		}
		return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
			t, err := a.registry.UpdateTenant(ctx, updateSchema, patch)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), t)
		})
	},
}

// patchFromFlags builds a patch from the flags set on the command line.
func patchFromFlags(cmd *cobra.Command) (registry.Patch, error) {
	var p registry.Patch
	f := cmd.Flags()

	str := func(name string) *string {
		if !f.Changed(name) {
			return nil
		}
		v, _ := f.GetString(name)
		return &v
	}
	boolean := func(name string) *bool {
		if !f.Changed(name) {
			return nil
		}
		v, _ := f.GetBool(name)
		return &v
	}

	p.Name = str("name")
	p.Email = str("email")
	p.Description = str("description")
	p.Active = boolean("active")
	p.OnTrial = boolean("on-trial")
	p.ClearPaidUntil, _ = f.GetBool("clear-paid-until")
	if s := str("paid-until"); s != nil {
		d, err := parseDate(*s)
		if err != nil {
			return p, err
		}
		p.PaidUntil = &d
	}
	return p, nil
}

func parseDate(s string) (time.Time, error) {
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return d, nil
}
