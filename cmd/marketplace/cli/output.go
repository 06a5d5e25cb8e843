package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dmitrymomot/marketplace/pkg/tenant"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printTenants(w io.Writer, tenants []*tenant.Tenant, primary map[string]string) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SCHEMA\tNAME\tDOMAIN\tACTIVE\tTRIAL\tPAID UNTIL")
	for _, t := range tenants {
		paid := "-"
		if t.PaidUntil != nil {
			paid = t.PaidUntil.Format(time.DateOnly)
		}
		domain := primary[t.SchemaName]
		if domain == "" {
			domain = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%t\t%s\n", t.SchemaName, t.Name, domain, t.Active, t.OnTrial, paid)
	}
	return tw.Flush()
}

func printDomains(w io.Writer, domains []tenant.Domain) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DOMAIN\tSCHEMA\tPRIMARY\tSSL")
	for _, d := range domains {
		fmt.Fprintf(tw, "%s\t%s\t%t\t%t\n", d.Host, d.TenantSchema, d.IsPrimary, d.SSLEnabled)
	}
	return tw.Flush()
}

func joinOrDash(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}
