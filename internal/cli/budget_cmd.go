package cli

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/obra/internal/cli/formatter"
	"github.com/alexanderramin/obra/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newBudgetCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Manage budget versions and their lines",
	}

	cmd.AddCommand(
		newBudgetCreateCmd(app),
		newBudgetListCmd(app),
		newBudgetShowCmd(app),
		newBudgetSetLineCmd(app),
		newBudgetRemoveLineCmd(app),
		newBudgetApproveCmd(app),
	)

	return cmd
}

func newBudgetCreateCmd(app *App) *cobra.Command {
	var code, typ string

	cmd := &cobra.Command{
		Use:   "create PROJECT",
		Short: "Open a WORKING or PROPOSAL budget version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := resolveProject(cmd.Context(), app, args[0])
			if err != nil {
				return err
			}
			vt := domain.VersionType(strings.ToUpper(typ))
			if !domain.ValidVersionTypes[string(vt)] {
				return fmt.Errorf("invalid version type %q", typ)
			}
			v, err := app.Budgets.CreateVersion(cmd.Context(), p.ID, code, vt)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s budget version %s\n", v.VersionType, v.VersionCode)
			return nil
		},
	}

	cmd.Flags().StringVar(&code, "code", "", "Version code, e.g. B2")
	cmd.Flags().StringVar(&typ, "type", string(domain.VersionWorking), "WORKING or PROPOSAL")
	_ = cmd.MarkFlagRequired("code")

	return cmd
}

func newBudgetListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list PROJECT",
		Short: "List budget versions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := resolveProject(cmd.Context(), app, args[0])
			if err != nil {
				return err
			}
			versions, err := app.Budgets.ListVersions(cmd.Context(), p.ID)
			if err != nil {
				return err
			}
			if len(versions) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No budget versions found.")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatVersionList(versions))
			return nil
		},
	}
}

func newBudgetShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show PROJECT VERSION",
		Short: "Show a budget version with priced lines",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := resolveProject(cmd.Context(), app, args[0])
			if err != nil {
				return err
			}
			v, err := resolveVersion(cmd.Context(), app, p.ID, args[1])
			if err != nil {
				return err
			}
			summary, err := app.Budgets.Summary(cmd.Context(), v.ID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatBudgetSummary(summary))
			return nil
		},
	}
}

func newBudgetSetLineCmd(app *App) *cobra.Command {
	var qty, price, indirect decimal.Decimal

	cmd := &cobra.Command{
		Use:   "set-line PROJECT VERSION CODE",
		Short: "Add or replace the budget line of a task",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := resolveProject(ctx, app, args[0])
			if err != nil {
				return err
			}
			v, err := resolveVersion(ctx, app, p.ID, args[1])
			if err != nil {
				return err
			}
			n, err := resolveNode(ctx, app, p.ID, args[2])
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("qty") {
				qty = n.Quantity
			}
			line, err := app.Budgets.SetLine(ctx, v.ID, n.ID, qty, price, indirect)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set %s %s: %s × %s\n", v.VersionCode, n.Code,
				formatter.Quantity(line.Quantity), formatter.Money(line.UnitPrice))
			return nil
		},
	}

	cmd.Flags().Var(newDecimalValue("0", &qty), "qty", "Quantity (default: the task's contractual quantity)")
	cmd.Flags().Var(newDecimalValue("0", &price), "price", "Unit price")
	cmd.Flags().Var(newDecimalValue("0", &indirect), "indirect", "Indirect cost percentage")
	_ = cmd.MarkFlagRequired("price")

	return cmd
}

func newBudgetRemoveLineCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "rm-line PROJECT VERSION CODE",
		Short: "Remove a task's line from an unlocked version",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := resolveProject(ctx, app, args[0])
			if err != nil {
				return err
			}
			v, err := resolveVersion(ctx, app, p.ID, args[1])
			if err != nil {
				return err
			}
			n, err := resolveNode(ctx, app, p.ID, args[2])
			if err != nil {
				return err
			}
			if err := app.Budgets.RemoveLine(ctx, v.ID, n.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s from %s\n", n.Code, v.VersionCode)
			return nil
		},
	}
}

func newBudgetApproveCmd(app *App) *cobra.Command {
	var as string
	var yes bool

	cmd := &cobra.Command{
		Use:   "approve PROJECT VERSION",
		Short: "Lock a version as BASELINE or APPROVED",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := resolveProject(ctx, app, args[0])
			if err != nil {
				return err
			}
			v, err := resolveVersion(ctx, app, p.ID, args[1])
			if err != nil {
				return err
			}
			vt := domain.VersionType(strings.ToUpper(as))
			if err := confirm(app, yes,
				fmt.Sprintf("Lock budget %s as %s?", v.VersionCode, vt),
				"A locked version can no longer be edited."); err != nil {
				return err
			}
			locked, err := app.Budgets.Approve(ctx, v.ID, vt)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Locked %s as %s, total %s\n",
				locked.VersionCode, locked.VersionType, formatter.Money(locked.TotalCost))
			return nil
		},
	}

	cmd.Flags().StringVar(&as, "as", string(domain.VersionApproved), "BASELINE or APPROVED")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation")

	return cmd
}
