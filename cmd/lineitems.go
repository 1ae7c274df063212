package cmd

import (
	"fmt"

	"github.com/jmehdipour/rate-table-editor/internal/apperr"
	"github.com/jmehdipour/rate-table-editor/internal/lineitem"
	"github.com/jmehdipour/rate-table-editor/internal/model"
	"github.com/spf13/cobra"
)

func newLineItemsCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "line-items",
		Aliases: []string{"li"},
		Short:   "Inspect and change a customer's token entitlements",
	}

	cmd.AddCommand(
		newLineItemsListCmd(g),
		newLineItemsAddCmd(g),
		newLineItemsEditCmd(g),
		newLineItemsDeleteCmd(g),
	)

	return cmd
}

func newLineItemsListCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list ACCOUNT_ID",
		Short: "List a customer's line items ordered by start date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cmd.Context(), g)
			if err != nil {
				return err
			}
			defer a.Close()

			cust, err := a.editor.ResolveCustomer(cmd.Context(), a.sess, args[0])
			if err != nil {
				return err
			}

			rows, err := a.editor.LineItems(cmd.Context(), a.sess, cust.ID)
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				warn(cmd, "no line items found for %s", cust.AccountID)
				return nil
			}

			t := newTable(cmd.OutOrStdout(), "START", "END", "QUANTITY", "USED", "% USED", "SERIES", "STATE", "ACTIVATION ID")
			for _, r := range rows {
				t.Append([]string{
					r.Start, r.End, fmt.Sprint(r.Quantity), r.Used.StringFixed(1), r.PercentUsed.StringFixed(1),
					r.RateTableSeries, r.State.String(), r.Item.ActivationID,
				})
			}
			t.Render()
			return nil
		},
	}
}

func newLineItemsAddCmd(g *globalFlags) *cobra.Command {
	var req lineitem.EntitlementRequest

	cmd := &cobra.Command{
		Use:   "add ACCOUNT_ID",
		Short: "Entitle tokens to an existing customer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cmd.Context(), g)
			if err != nil {
				return err
			}
			defer a.Close()

			cust, err := a.editor.ResolveCustomer(cmd.Context(), a.sess, args[0])
			if err != nil {
				return err
			}

			item, err := a.editor.Entitle(cmd.Context(), a.sess, cust.ID, req)
			if err != nil {
				return err
			}
			success(cmd, "%d tokens successfully entitled to %s (activation id %s)", item.Quantity, cust.AccountID, item.ActivationID)
			return nil
		},
	}

	addEntitlementFlags(cmd, &req)

	return cmd
}

func newLineItemsEditCmd(g *globalFlags) *cobra.Command {
	var (
		state     string
		quantity  int64
		endDate   string
		permanent bool
		series    string
		yes       bool
	)

	cmd := &cobra.Command{
		Use:   "edit ACCOUNT_ID ACTIVATION_ID",
		Short: "Change state, quantity, end date or series of a line item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e := lineitem.Edit{EndDate: endDate, Permanent: permanent}
			if cmd.Flags().Changed("state") {
				st, ok := model.ParseLineItemState(state)
				if !ok {
					return apperr.New(apperr.ErrFormat, "state", fmt.Sprintf("unknown state %q, want DEPLOYED, INACTIVE or OBSOLETE", state))
				}
				e.State = st
			}
			if cmd.Flags().Changed("quantity") {
				e.Quantity = &quantity
			}
			if cmd.Flags().Changed("series") {
				e.RateTableSeries = &series
			}

			a, err := bootstrap(cmd.Context(), g)
			if err != nil {
				return err
			}
			defer a.Close()

			cust, err := a.editor.ResolveCustomer(cmd.Context(), a.sess, args[0])
			if err != nil {
				return err
			}

			cur, next, err := a.editor.PreviewEdit(cmd.Context(), a.sess, cust.ID, args[1], e)
			if err != nil {
				return err
			}
			if lineitem.IsDestructive(cur.State, next.State) {
				if err := confirm(cmd, yes, "Setting %s to %s cannot be undone. Continue?", cur.ActivationID, next.State); err != nil {
					return err
				}
			}

			if _, err := a.editor.EditLineItem(cmd.Context(), a.sess, cust.ID, args[1], e); err != nil {
				return err
			}
			success(cmd, "Successfully Updated Line Item")
			return nil
		},
	}

	cmd.Flags().StringVar(&state, "state", "", "DEPLOYED, INACTIVE or OBSOLETE")
	cmd.Flags().Int64Var(&quantity, "quantity", 0, "new token quantity, must exceed tokens used")
	cmd.Flags().StringVar(&endDate, "end", "", "new end date, YYYY-MM-DD")
	cmd.Flags().BoolVar(&permanent, "permanent", false, "make the entitlement permanent")
	cmd.Flags().StringVar(&series, "series", "", "new rate table series")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask before obsoleting")

	return cmd
}

func newLineItemsDeleteCmd(g *globalFlags) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete ACCOUNT_ID ACTIVATION_ID",
		Short: "Delete an OBSOLETE line item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cmd.Context(), g)
			if err != nil {
				return err
			}
			defer a.Close()

			cust, err := a.editor.ResolveCustomer(cmd.Context(), a.sess, args[0])
			if err != nil {
				return err
			}

			if err := confirm(cmd, yes, "Delete line item %s of %s?", args[1], cust.AccountID); err != nil {
				return err
			}

			if err := a.editor.DeleteLineItem(cmd.Context(), a.sess, cust.ID, args[1]); err != nil {
				return err
			}
			success(cmd, "Successfully Deleted Line Item")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")

	return cmd
}
