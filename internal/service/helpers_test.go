package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/alexanderramin/obra/internal/db"
	"github.com/alexanderramin/obra/internal/domain"
	"github.com/alexanderramin/obra/internal/importer"
	"github.com/alexanderramin/obra/internal/repository"
	"github.com/alexanderramin/obra/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// testEnv wires every service against one database.
type testEnv struct {
	db       *sql.DB
	projects ProjectService
	wbs      WbsService
	budgets  BudgetService
	certs    CertificationService
	variance VarianceService
	imports  ImportService
	outbox   OutboxService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWith(t, testutil.NewTestDB(t), nil)
}

// newTestEnvWith builds the services on database. A nil uow uses a plain
// SQLite unit of work.
func newTestEnvWith(t *testing.T, database *sql.DB, uow db.UnitOfWork) *testEnv {
	t.Helper()
	if uow == nil {
		uow = testutil.NewTestUoW(database)
	}
	projects := repository.NewSQLiteProjectRepo(database)
	nodes := repository.NewSQLiteWbsNodeRepo(database)
	budgets := repository.NewSQLiteBudgetRepo(database)
	certs := repository.NewSQLiteCertificationRepo(database)
	return &testEnv{
		db:       database,
		projects: NewProjectService(projects),
		wbs:      NewWbsService(nodes, uow),
		budgets:  NewBudgetService(budgets, nodes, uow),
		certs:    NewCertificationService(certs, uow),
		variance: NewVarianceService(budgets, nodes, certs, decimal.Zero),
		imports:  NewImportService(uow),
		outbox:   NewOutboxService(repository.NewSQLiteOutboxRepo(database)),
	}
}

func ptrStr(s string) *string { return &s }

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// towerDocument prices Slab at 100 m3 x 10 and Columns at 40 m3 x 120 in a
// BASELINE version B1.
func towerDocument() *importer.ImportDocument {
	return &importer.ImportDocument{
		Project: importer.ProjectImport{ShortID: "TOWER01", Name: "Tower A"},
		Wbs: []importer.NodeImport{
			{Ref: "struct", Type: "PHASE", Name: "Structure"},
			{Ref: "conc", ParentRef: ptrStr("struct"), Type: "ACTIVITY", Name: "Concrete"},
			{Ref: "slab", ParentRef: ptrStr("conc"), Type: "TASK", Name: "Slab", Unit: "m3", Quantity: "100", SortOrder: 1},
			{Ref: "cols", ParentRef: ptrStr("conc"), Type: "TASK", Name: "Columns", Unit: "m3", Quantity: "40", SortOrder: 2},
		},
		Budget: &importer.BudgetImport{
			VersionCode: "B1",
			VersionType: "BASELINE",
			Lines: []importer.LineImport{
				{NodeRef: "slab", Quantity: "100", UnitPrice: "10"},
				{NodeRef: "cols", Quantity: "40", UnitPrice: "120", IndirectPct: "10"},
			},
		},
	}
}

type tower struct {
	Project  *domain.Project
	Version  *domain.BudgetVersion
	Activity *domain.WbsNode
	Slab     *domain.WbsNode
	Columns  *domain.WbsNode
}

func seedTower(t *testing.T, e *testEnv) tower {
	t.Helper()
	ctx := context.Background()
	res, err := e.imports.Import(ctx, towerDocument())
	require.NoError(t, err)

	tw := tower{Project: res.Project, Version: res.Version}
	tw.Activity, err = e.wbs.GetByCode(ctx, res.Project.ID, "1.1")
	require.NoError(t, err)
	tw.Slab, err = e.wbs.GetByCode(ctx, res.Project.ID, "1.1.1")
	require.NoError(t, err)
	tw.Columns, err = e.wbs.GetByCode(ctx, res.Project.ID, "1.1.2")
	require.NoError(t, err)
	return tw
}

// draft creates a certification for the period with one line per entry.
func draft(t *testing.T, e *testEnv, tw tower, year, month int, pcts map[*domain.WbsNode]string) *domain.Certification {
	t.Helper()
	ctx := context.Background()
	c, err := e.certs.Create(ctx, tw.Project.ID, tw.Version.ID, domain.Period{Year: year, Month: month}, "site-engineer")
	require.NoError(t, err)
	for node, pct := range pcts {
		_, err := e.certs.AddOrUpdateLine(ctx, c.ID, node.ID, d(pct))
		require.NoError(t, err)
	}
	return c
}

// issue drafts, submits and approves a certification.
func issue(t *testing.T, e *testEnv, tw tower, year, month int, pcts map[*domain.WbsNode]string) *domain.Certification {
	t.Helper()
	ctx := context.Background()
	c := draft(t, e, tw, year, month, pcts)
	_, err := e.certs.Submit(ctx, c.ID)
	require.NoError(t, err)
	approved, err := e.certs.Approve(ctx, c.ID, "resident")
	require.NoError(t, err)
	return approved
}

func lineFor(t *testing.T, e *testEnv, certID, nodeID string) *domain.CertificationLine {
	t.Helper()
	lines, err := e.certs.Lines(context.Background(), certID)
	require.NoError(t, err)
	for _, l := range lines {
		if l.WbsNodeID == nodeID {
			return l
		}
	}
	t.Fatalf("certification %s has no line for node %s", certID, nodeID)
	return nil
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	require.Truef(t, d(want).Equal(got), "want %s, got %s %v", want, got, msgAndArgs)
}
