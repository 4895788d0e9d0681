package cli

import (
	"fmt"

	"github.com/alexanderramin/obra/internal/cli/formatter"
	"github.com/alexanderramin/obra/internal/domain"
	"github.com/spf13/cobra"
)

func newVarianceCmd(app *App) *cobra.Command {
	var version string

	cmd := &cobra.Command{
		Use:   "variance PROJECT",
		Short: "Compare budgeted against certified amounts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := resolveProject(ctx, app, args[0])
			if err != nil {
				return err
			}

			var v *domain.BudgetVersion
			if version != "" {
				if v, err = resolveVersion(ctx, app, p.ID, version); err != nil {
					return err
				}
			} else {
				versions, err := app.Budgets.ListVersions(ctx, p.ID)
				if err != nil {
					return err
				}
				if v = latestLockedVersion(versions); v == nil {
					return fmt.Errorf("project %s has no locked budget version; pass --version", p.DisplayID())
				}
			}

			report, err := app.Variance.Report(ctx, p.ID, v.ID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatVarianceReport(report, app.VarianceThresholdPct))
			return nil
		},
	}

	cmd.Flags().StringVar(&version, "version", "", "Budget version code (default: latest locked version)")
	return cmd
}
