package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/marketplace/pkg/tenant"
)

var (
	domainsSchema string
	domainHost    string
	domainPrimary bool
	domainSSL     bool
)

func init() {
	domainsListCmd.Flags().StringVar(&domainsSchema, "schema", "", "only list domains of this tenant")

	domainsAddCmd.Flags().StringVar(&domainsSchema, "schema", "", "tenant owning the domain")
	domainsAddCmd.Flags().StringVar(&domainHost, "domain", "", "host name to bind")
	domainsAddCmd.Flags().BoolVar(&domainPrimary, "primary", false, "make it the tenant's primary domain")
	domainsAddCmd.Flags().BoolVar(&domainSSL, "ssl", false, "mark the domain as served over TLS")
	_ = domainsAddCmd.MarkFlagRequired("schema")
	_ = domainsAddCmd.MarkFlagRequired("domain")

	domainsSetPrimaryCmd.Flags().StringVar(&domainHost, "domain", "", "domain to promote")
	_ = domainsSetPrimaryCmd.MarkFlagRequired("domain")

	domainsCmd.AddCommand(domainsListCmd, domainsAddCmd, domainsSetPrimaryCmd)
	rootCmd.AddCommand(domainsCmd)
}

var domainsCmd = &cobra.Command{
	Use:   "domains",
	Short: "Manage the host names bound to tenants",
}

var domainsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List domains",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
			domains, err := a.registry.ListDomains(ctx, domainsSchema)
			if err != nil {
				return err
			}
			return printDomains(cmd.OutOrStdout(), domains)
		})
	},
}

var domainsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Bind a domain to a tenant",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
			d, err := a.registry.AddDomain(ctx, tenant.Domain{
				Host:         domainHost,
				TenantSchema: domainsSchema,
				IsPrimary:    domainPrimary,
				SSLEnabled:   domainSSL,
			})
			if err != nil {
				return err
			}
			return printDomains(cmd.OutOrStdout(), []tenant.Domain{d})
		})
	},
}

var domainsSetPrimaryCmd = &cobra.Command{
	Use:   "set-primary",
	Short: "Make a domain the only primary domain of its tenant",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
			if err := a.registry.SetPrimaryDomain(ctx, domainHost); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now primary\n", domainHost)
			return nil
		})
	},
}
