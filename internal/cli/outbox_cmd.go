package cli

import (
	"fmt"

	"github.com/alexanderramin/obra/internal/cli/formatter"
	"github.com/alexanderramin/obra/internal/domain"
	"github.com/spf13/cobra"
)

func newOutboxCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "outbox",
		Short: "Inspect queued integration events",
	}
	cmd.AddCommand(newOutboxListCmd(app))
	return cmd
}

func newOutboxListCmd(app *App) *cobra.Command {
	var limit int
	var project, number string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List pending events, or every event of one certification",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var events []*domain.OutboxEvent
			var err error
			if number != "" {
				if project == "" {
					return fmt.Errorf("--cert requires --project")
				}
				_, c, err := resolveCert(ctx, app, project, number)
				if err != nil {
					return err
				}
				events, err = app.Outbox.ForEntity(ctx, c.ID)
				if err != nil {
					return err
				}
			} else {
				events, err = app.Outbox.Pending(ctx, limit)
				if err != nil {
					return err
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatOutbox(events))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum pending events to show")
	cmd.Flags().StringVar(&project, "project", "", "Project of --cert")
	cmd.Flags().StringVar(&number, "cert", "", "Show all events of this certification number")

	return cmd
}
