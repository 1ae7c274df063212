package cmd

import (
	"github.com/jmehdipour/rate-table-editor/internal/lineitem"
	"github.com/spf13/cobra"
)

func newCustomersCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "customers",
		Short: "List and register customer instances",
	}

	cmd.AddCommand(newCustomersListCmd(g), newCustomersRegisterCmd(g))

	return cmd
}

func newCustomersListCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List customers of the target environment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cmd.Context(), g)
			if err != nil {
				return err
			}
			defer a.Close()

			customers, err := a.editor.ListCustomers(cmd.Context(), a.sess)
			if err != nil {
				return err
			}

			t := newTable(cmd.OutOrStdout(), "ACCOUNT ID", "NAME", "INSTANCE ID")
			for _, c := range customers {
				t.Append([]string{c.AccountID, c.ShortName, c.ID})
			}
			t.Render()
			return nil
		},
	}
}

func newCustomersRegisterCmd(g *globalFlags) *cobra.Command {
	var (
		req lineitem.EntitlementRequest
		yes bool
	)

	cmd := &cobra.Command{
		Use:   "register ACCOUNT_ID SHORT_NAME",
		Short: "Register a customer and optionally entitle tokens to it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cmd.Context(), g)
			if err != nil {
				return err
			}
			defer a.Close()

			entitle := req.Quantity != 0
			if entitle {
				// reject bad input before anything is created remotely
				if _, err := lineitem.NewEntitlement(req, a.editor.Dates()); err != nil {
					return err
				}
			}

			reg, err := a.editor.RegisterCustomer(cmd.Context(), a.sess, args[0], args[1])
			if err != nil {
				return err
			}

			if reg.Existed {
				if !entitle {
					warn(cmd, "customer account %s already exists (instance %s)", reg.Instance.AccountID, reg.Instance.ID)
					return nil
				}
				if err := confirm(cmd, yes, "Customer Account ID %s already exists. Entitle additional tokens?", reg.Instance.AccountID); err != nil {
					return err
				}
			} else {
				success(cmd, "Customer registered successfully, elastic instance id %s", reg.Instance.ID)
			}

			if !entitle {
				return nil
			}

			item, err := a.editor.Entitle(cmd.Context(), a.sess, reg.Instance.ID, req)
			if err != nil {
				return err
			}
			success(cmd, "%d tokens successfully entitled to %s (activation id %s)", item.Quantity, reg.Instance.AccountID, item.ActivationID)
			return nil
		},
	}

	addEntitlementFlags(cmd, &req)
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "entitle without asking when the customer already exists")

	return cmd
}

func addEntitlementFlags(cmd *cobra.Command, req *lineitem.EntitlementRequest) {
	cmd.Flags().Int64Var(&req.Quantity, "tokens", 0, "number of tokens to entitle")
	cmd.Flags().StringVar(&req.StartDate, "start", "", "entitlement start date, YYYY-MM-DD")
	cmd.Flags().StringVar(&req.EndDate, "end", "", "entitlement end date, YYYY-MM-DD")
	cmd.Flags().BoolVar(&req.Permanent, "permanent", false, "entitlement never expires (ignores --end)")
	cmd.Flags().StringVar(&req.RateTableSeries, "series", "", "rate table series the tokens are charged against")
}
