package cli

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/obra/internal/cli/formatter"
	"github.com/alexanderramin/obra/internal/domain"
	"github.com/alexanderramin/obra/internal/service"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newWbsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wbs",
		Short: "Manage the work breakdown structure",
	}

	cmd.AddCommand(
		newWbsAddCmd(app),
		newWbsTreeCmd(app),
		newWbsDeactivateCmd(app),
		newWbsRemoveCmd(app),
	)

	return cmd
}

func newWbsAddCmd(app *App) *cobra.Command {
	var (
		parentCode, code, name, category, typ, unit string
		sortOrder                                   int
		qty                                         decimal.Decimal
	)

	cmd := &cobra.Command{
		Use:   "add PROJECT",
		Short: "Add a PHASE, ACTIVITY or TASK node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := resolveProject(ctx, app, args[0])
			if err != nil {
				return err
			}

			nodeType := domain.WbsType(strings.ToUpper(typ))
			if !domain.ValidWbsTypes[string(nodeType)] {
				return fmt.Errorf("invalid node type %q (use PHASE, ACTIVITY or TASK)", typ)
			}

			in := service.NodeInput{
				ProjectID: p.ID,
				Code:      code,
				Name:      name,
				Category:  category,
				Type:      nodeType,
				Unit:      unit,
				Quantity:  qty,
				SortOrder: sortOrder,
			}
			if parentCode != "" {
				parent, err := resolveNode(ctx, app, p.ID, parentCode)
				if err != nil {
					return err
				}
				in.ParentID = &parent.ID
			}

			n, err := app.Wbs.CreateNode(ctx, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s %s %s\n", n.Type, n.Code, n.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Node name")
	cmd.Flags().StringVar(&typ, "type", "", "PHASE, ACTIVITY or TASK")
	cmd.Flags().StringVar(&parentCode, "parent", "", "Parent node code (omit for a top-level phase)")
	cmd.Flags().StringVar(&code, "code", "", "Explicit code (default: next free sequence under the parent)")
	cmd.Flags().StringVar(&category, "category", "", "Cost category")
	cmd.Flags().StringVar(&unit, "unit", "", "Unit of measure (tasks)")
	cmd.Flags().Var(newDecimalValue("0", &qty), "qty", "Contractual quantity (tasks)")
	cmd.Flags().IntVar(&sortOrder, "sort", 0, "Sort order among siblings")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("type")

	return cmd
}

func newWbsTreeCmd(app *App) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "tree PROJECT",
		Short: "Show the WBS as a tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := resolveProject(cmd.Context(), app, args[0])
			if err != nil {
				return err
			}
			entries, err := app.Wbs.Tree(cmd.Context(), p.ID, all)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatWbsTree(p, entries))
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Include inactive nodes")
	return cmd
}

func newWbsDeactivateCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "deactivate PROJECT CODE",
		Short: "Deactivate a node and everything below it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := resolveProject(cmd.Context(), app, args[0])
			if err != nil {
				return err
			}
			n, err := resolveNode(cmd.Context(), app, p.ID, args[1])
			if err != nil {
				return err
			}
			if err := app.Wbs.Deactivate(cmd.Context(), n.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deactivated %s %s\n", n.Code, n.Name)
			return nil
		},
	}
}

func newWbsRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "rm PROJECT CODE",
		Short: "Delete a node that no budget or certification references",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := resolveProject(cmd.Context(), app, args[0])
			if err != nil {
				return err
			}
			n, err := resolveNode(cmd.Context(), app, p.ID, args[1])
			if err != nil {
				return err
			}
			if err := app.Wbs.Delete(cmd.Context(), n.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s %s\n", n.Code, n.Name)
			return nil
		},
	}
}
