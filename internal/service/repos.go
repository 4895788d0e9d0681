package service

import (
	"github.com/alexanderramin/obra/internal/db"
	"github.com/alexanderramin/obra/internal/repository"
)

// txRepos bundles the repositories a use case needs inside one transaction.
type txRepos struct {
	projects  repository.ProjectRepo
	nodes     repository.WbsNodeRepo
	budgets   repository.BudgetRepo
	certs     repository.CertificationRepo
	sequences repository.CertificationSequenceRepo
	heads     repository.ProgressHeadRepo
	outbox    repository.OutboxRepo
}

func newTxRepos(tx db.DBTX) txRepos {
	return txRepos{
		projects:  repository.NewSQLiteProjectRepo(tx),
		nodes:     repository.NewSQLiteWbsNodeRepo(tx),
		budgets:   repository.NewSQLiteBudgetRepo(tx),
		certs:     repository.NewSQLiteCertificationRepo(tx),
		sequences: repository.NewSQLiteCertificationSequenceRepo(tx),
		heads:     repository.NewSQLiteProgressHeadRepo(tx),
		outbox:    repository.NewSQLiteOutboxRepo(tx),
	}
}
