package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newCustomersCmd(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "customers",
		Short: "List customers (administrators only)",
		RunE: a.withSession(func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			sess, err := a.mgr.RestoreSession(cmd.Context())
			if err != nil {
				return err
			}
			if sess == nil {
				return errors.New("not logged in; run: authkit login --admin")
			}

			customers, err := a.mgr.ListCustomers(cmd.Context())
			if err != nil {
				return fmt.Errorf("list customers: %w", err)
			}

			out := cmd.OutOrStdout()
			if format != formatText {
				return writeStructured(out, format, customers)
			}
			if len(customers) == 0 {
				fmt.Fprintln(out, "No customers found.")
				return nil
			}

			fmt.Fprintf(out, "%-6s  %-24s  %-32s  %-12s  %s\n", "ID", "NAME", "EMAIL", "ROLE", "CREATED")
			fmt.Fprintf(out, "%-6s  %-24s  %-32s  %-12s  %s\n", "--", "----", "-----", "----", "-------")
			for _, c := range customers {
				created := ""
				if !c.CreatedAt.IsZero() {
					created = c.CreatedAt.Format("2006-01-02 15:04")
				}
				fmt.Fprintf(out, "%-6d  %-24s  %-32s  %-12s  %s\n", c.ID, c.Name, c.Email, strings.Join(c.Roles, ","), created)
			}
			return nil
		}),
	}

	cmd.Flags().StringVarP(&format, "output", "o", formatText, "Output format (text, json, yaml)")
	return cmd
}
