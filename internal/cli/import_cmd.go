package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newImportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Import a project WBS and budget from a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := app.Import.ImportFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Imported project %s [%s]: %d nodes", res.Project.Name, res.Project.ShortID, res.NodeCount)
			if res.Version != nil {
				fmt.Fprintf(out, ", budget %s (%s) with %d lines", res.Version.VersionCode, res.Version.VersionType, res.LineCount)
			}
			fmt.Fprintln(out)
			return nil
		},
	}
}
