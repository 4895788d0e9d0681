package main

import (
	"fmt"
	"os"

	"github.com/alexanderramin/obra/internal/cli"
	"github.com/alexanderramin/obra/internal/config"
	"github.com/alexanderramin/obra/internal/db"
	"github.com/alexanderramin/obra/internal/repository"
	"github.com/alexanderramin/obra/internal/service"
	"github.com/mattn/go-isatty"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(cli.ConfigPathFromArgs(os.Args[1:]))
	if err != nil {
		return err
	}

	logOut, err := cfg.OpenLog()
	if err != nil {
		return err
	}
	defer logOut.Close()
	logger := cfg.NewLogger(logOut)
	observer := service.NewSlogUseCaseObserver(logger)

	database, err := db.OpenDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()
	logger.Debug("database opened", "path", cfg.DBPath, "config", cfg.Source)

	// Wire repositories
	projectRepo := repository.NewSQLiteProjectRepo(database)
	nodeRepo := repository.NewSQLiteWbsNodeRepo(database)
	budgetRepo := repository.NewSQLiteBudgetRepo(database)
	certRepo := repository.NewSQLiteCertificationRepo(database)
	outboxRepo := repository.NewSQLiteOutboxRepo(database)

	// Wire unit of work for transactional operations
	uow := db.NewSQLiteUnitOfWork(database)

	app := &cli.App{
		Projects:       service.NewProjectService(projectRepo, observer),
		Wbs:            service.NewWbsService(nodeRepo, uow, observer),
		Budgets:        service.NewBudgetService(budgetRepo, nodeRepo, uow, observer),
		Certifications: service.NewCertificationService(certRepo, uow, observer),
		Variance:       service.NewVarianceService(budgetRepo, nodeRepo, certRepo, cfg.VarianceThresholdPct),
		Import:         service.NewImportService(uow, observer),
		Outbox:         service.NewOutboxService(outboxRepo),

		Actor:                cfg.Actor,
		VarianceThresholdPct: cfg.VarianceThresholdPct,
	}

	// Confirmation prompts only make sense on a terminal.
	app.IsInteractive = func() bool {
		return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	}

	return cli.NewRootCmd(app).Execute()
}
