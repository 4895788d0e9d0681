package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/alexanderramin/obra/internal/domain"
	"github.com/alexanderramin/obra/internal/testutil"
	"github.com/stretchr/testify/require"
)

// seededTree is a project with one PHASE > ACTIVITY chain and two TASKs,
// plus a BASELINE budget pricing both tasks.
type seededTree struct {
	Project  *domain.Project
	Phase    *domain.WbsNode
	Activity *domain.WbsNode
	Slab     *domain.WbsNode
	Columns  *domain.WbsNode
	Version  *domain.BudgetVersion
}

func seedTree(t *testing.T, conn *sql.DB) seededTree {
	t.Helper()
	ctx := context.Background()

	var s seededTree
	s.Project = testutil.NewTestProject("Tower")
	require.NoError(t, NewSQLiteProjectRepo(conn).Create(ctx, s.Project))

	nodes := NewSQLiteWbsNodeRepo(conn)
	s.Phase = testutil.NewTestWbsNode(s.Project.ID, "1", domain.WbsPhase)
	s.Activity = testutil.NewTestWbsNode(s.Project.ID, "1.1", domain.WbsActivity, testutil.WithParent(s.Phase))
	s.Slab = testutil.NewTestWbsNode(s.Project.ID, "1.1.1", domain.WbsTask,
		testutil.WithParent(s.Activity), testutil.WithQuantity("m3", "100"), testutil.WithSortOrder(1))
	s.Columns = testutil.NewTestWbsNode(s.Project.ID, "1.1.2", domain.WbsTask,
		testutil.WithParent(s.Activity), testutil.WithQuantity("m3", "40"), testutil.WithSortOrder(2))
	for _, n := range []*domain.WbsNode{s.Phase, s.Activity, s.Slab, s.Columns} {
		require.NoError(t, nodes.Create(ctx, n))
	}

	budgets := NewSQLiteBudgetRepo(conn)
	s.Version = testutil.NewTestBudgetVersion(s.Project.ID, "B1")
	require.NoError(t, budgets.CreateVersion(ctx, s.Version))
	require.NoError(t, budgets.UpsertLine(ctx, testutil.NewTestBudgetLine(s.Version.ID, s.Slab.ID, "100", "50")))
	require.NoError(t, budgets.UpsertLine(ctx, testutil.NewTestBudgetLine(s.Version.ID, s.Columns.ID, "40", "120")))
	return s
}

// createCert inserts a certification with one line per node at the given
// cumulative percentages (computed from a zero baseline).
func createCert(t *testing.T, conn *sql.DB, s seededTree, number int, status domain.CertificationStatus, year, month int, pcts map[*domain.WbsNode]string) *domain.Certification {
	t.Helper()
	ctx := context.Background()
	certs := NewSQLiteCertificationRepo(conn)

	c := testutil.NewTestCertification(s.Project.ID, s.Version.ID, number,
		testutil.WithCertStatus(status), testutil.WithPeriod(year, month))
	require.NoError(t, certs.Create(ctx, c))
	for node, pct := range pcts {
		l := testutil.NewTestCertificationLine(c.ID, node.ID, node.Quantity.String(), "50", pct)
		require.NoError(t, certs.UpsertLine(ctx, l))
	}
	return c
}
