package cli

import (
	"github.com/alexanderramin/obra/internal/service"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

// App holds references to all service interfaces used by CLI commands.
type App struct {
	Projects       service.ProjectService
	Wbs            service.WbsService
	Budgets        service.BudgetService
	Certifications service.CertificationService
	Variance       service.VarianceService
	Import         service.ImportService
	Outbox         service.OutboxService

	// Actor is the default author and approver name.
	Actor string
	// VarianceThresholdPct is shown alongside variance reports.
	VarianceThresholdPct decimal.Decimal

	// IsInteractive reports whether stdin is a terminal. Nil means never.
	IsInteractive func() bool
	// Confirm asks a yes/no question. Nil uses a huh confirm form.
	Confirm func(title, description string) (bool, error)
}

// NewRootCmd creates the top-level "obra" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "obra",
		Short:         "Construction cost control: WBS, budgets and progress certifications",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	// Read by main before the command tree is built; declared here so cobra
	// accepts it and lists it in help.
	root.PersistentFlags().String(ConfigFlag, "", "Config file (default ~/.obra/config.yaml)")

	root.AddCommand(
		newProjectCmd(app),
		newWbsCmd(app),
		newBudgetCmd(app),
		newCertCmd(app),
		newVarianceCmd(app),
		newImportCmd(app),
		newOutboxCmd(app),
	)

	return root
}
