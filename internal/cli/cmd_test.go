package cli

import (
	"bytes"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/alexanderramin/obra/internal/domain"
	"github.com/alexanderramin/obra/internal/repository"
	"github.com/alexanderramin/obra/internal/service"
	"github.com/alexanderramin/obra/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testApp wires a full App backed by an in-memory DB for CLI integration tests.
func testApp(t *testing.T) (*App, *sql.DB) {
	t.Helper()
	database := testutil.NewTestDB(t)
	uow := testutil.NewTestUoW(database)

	projects := repository.NewSQLiteProjectRepo(database)
	nodes := repository.NewSQLiteWbsNodeRepo(database)
	budgets := repository.NewSQLiteBudgetRepo(database)
	certs := repository.NewSQLiteCertificationRepo(database)
	outbox := repository.NewSQLiteOutboxRepo(database)

	return &App{
		Projects:             service.NewProjectService(projects),
		Wbs:                  service.NewWbsService(nodes, uow),
		Budgets:              service.NewBudgetService(budgets, nodes, uow),
		Certifications:       service.NewCertificationService(certs, uow),
		Variance:             service.NewVarianceService(budgets, nodes, certs, decimal.NewFromInt(10)),
		Import:               service.NewImportService(uow),
		Outbox:               service.NewOutboxService(outbox),
		Actor:                "site-engineer",
		VarianceThresholdPct: decimal.NewFromInt(10),
	}, database
}

// executeCmd runs a cobra command and captures stdout/stderr.
func executeCmd(t *testing.T, app *App, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(app)
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func mustRun(t *testing.T, app *App, args ...string) string {
	t.Helper()
	out, err := executeCmd(t, app, args...)
	require.NoError(t, err, "obra %v", args)
	return out
}

const towerJSON = `{
  "project": {"short_id": "tower01", "name": "Harbour Tower", "client": "Port Authority"},
  "wbs": [
    {"ref": "struct", "type": "PHASE", "name": "Structure"},
    {"ref": "conc", "parent_ref": "struct", "type": "ACTIVITY", "name": "Concrete"},
    {"ref": "slab", "parent_ref": "conc", "type": "TASK", "name": "Slab", "unit": "m3", "quantity": "100", "sort_order": 1},
    {"ref": "cols", "parent_ref": "conc", "type": "TASK", "name": "Columns", "unit": "m3", "quantity": "40", "sort_order": 2}
  ],
  "budget": {
    "version_code": "B1",
    "version_type": "BASELINE",
    "lines": [
      {"node_ref": "slab", "quantity": "100", "unit_price": "10"},
      {"node_ref": "cols", "quantity": "40", "unit_price": "120", "indirect_pct": "10"}
    ]
  }
}`

func importTower(t *testing.T, app *App) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tower.json")
	require.NoError(t, os.WriteFile(path, []byte(towerJSON), 0o644))
	out := mustRun(t, app, "import", path)
	require.Contains(t, out, "Imported project Harbour Tower [TOWER01]: 4 nodes, budget B1 (BASELINE) with 2 lines")
}

func TestRootCmd_NoArgs_ShowsHelp(t *testing.T) {
	app, _ := testApp(t)

	out, err := executeCmd(t, app)
	require.NoError(t, err)
	assert.Contains(t, out, "obra")
	assert.Contains(t, out, "cert")
}

func TestProjectCmd_CreateListArchive(t *testing.T) {
	app, _ := testApp(t)

	out := mustRun(t, app, "project", "create", "--id", "mall02", "--name", "City Mall", "--client", "Retail Co")
	assert.Contains(t, out, "Created project City Mall [MALL02]")

	_, err := executeCmd(t, app, "project", "create", "--id", "MALL02", "--name", "Again")
	assert.Error(t, err)

	out = mustRun(t, app, "project", "list")
	assert.Contains(t, out, "MALL02")
	assert.Contains(t, out, "Retail Co")

	mustRun(t, app, "project", "archive", "mall02")
	out = mustRun(t, app, "project", "list")
	assert.Contains(t, out, "No projects found.")
	out = mustRun(t, app, "project", "list", "--all")
	assert.Contains(t, out, "MALL02")

	mustRun(t, app, "project", "unarchive", "MALL02")
	out = mustRun(t, app, "project", "list")
	assert.Contains(t, out, "MALL02")
}

func TestProjectCmd_RequiresFlags(t *testing.T) {
	app, _ := testApp(t)

	_, err := executeCmd(t, app, "project", "create", "--name", "No id")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "id")
}

func TestWbsAndBudgetCmd_BuildByHand(t *testing.T) {
	app, _ := testApp(t)
	mustRun(t, app, "project", "create", "--id", "MALL02", "--name", "City Mall")

	assert.Contains(t, mustRun(t, app, "wbs", "add", "MALL02", "--type", "phase", "--name", "Works"), "Added PHASE 1 Works")
	assert.Contains(t, mustRun(t, app, "wbs", "add", "MALL02", "--type", "ACTIVITY", "--name", "Paving", "--parent", "1"), "Added ACTIVITY 1.1 Paving")
	assert.Contains(t, mustRun(t, app, "wbs", "add", "MALL02", "--type", "TASK", "--name", "Asphalt", "--parent", "1.1", "--unit", "m2", "--qty", "2500"), "Added TASK 1.1.1 Asphalt")

	_, err := executeCmd(t, app, "wbs", "add", "MALL02", "--type", "TASK", "--name", "Orphan")
	assert.ErrorIs(t, err, domain.ErrInvalidHierarchy)

	_, err = executeCmd(t, app, "wbs", "add", "MALL02", "--type", "BLOCK", "--name", "Bad")
	assert.Error(t, err)

	out := mustRun(t, app, "wbs", "tree", "MALL02")
	assert.Contains(t, out, "1.1.1 Asphalt")
	assert.Contains(t, out, "TASK 2,500 m2")

	mustRun(t, app, "budget", "create", "MALL02", "--code", "W1")
	// --qty defaults to the task's contractual quantity.
	out = mustRun(t, app, "budget", "set-line", "MALL02", "W1", "1.1.1", "--price", "12.5", "--indirect", "8")
	assert.Contains(t, out, "Set W1 1.1.1: 2,500 × 12.50")

	out = mustRun(t, app, "budget", "show", "MALL02", "W1")
	assert.Contains(t, out, "31,250.00")
	assert.Contains(t, out, "33,750.00")

	out = mustRun(t, app, "budget", "approve", "MALL02", "W1", "--as", "BASELINE", "--yes")
	assert.Contains(t, out, "Locked W1 as BASELINE, total 33,750.00")

	_, err = executeCmd(t, app, "budget", "set-line", "MALL02", "W1", "1.1.1", "--price", "13")
	assert.ErrorIs(t, err, domain.ErrImmutableDocument)

	out = mustRun(t, app, "budget", "list", "MALL02")
	assert.Contains(t, out, "W1")
	assert.Contains(t, out, "33,750.00")
}

func TestWbsCmd_DeactivateAndRemove(t *testing.T) {
	app, _ := testApp(t)
	importTower(t, app)

	_, err := executeCmd(t, app, "wbs", "rm", "TOWER01", "1.1.1")
	assert.ErrorIs(t, err, domain.ErrNodeReferenced)

	mustRun(t, app, "wbs", "deactivate", "TOWER01", "1.1")
	out := mustRun(t, app, "wbs", "tree", "TOWER01")
	assert.NotContains(t, out, "Slab")
	out = mustRun(t, app, "wbs", "tree", "TOWER01", "--all")
	assert.Contains(t, out, "(inactive)")
}

func TestCertCmd_Lifecycle(t *testing.T) {
	app, _ := testApp(t)
	importTower(t, app)

	out := mustRun(t, app, "cert", "create", "TOWER01", "--period", "2026-01")
	assert.Contains(t, out, "Created certification #1 for 2026-01 against B1")

	out = mustRun(t, app, "cert", "line", "TOWER01", "1", "1.1.1", "--pct", "25")
	assert.Contains(t, out, "#1 1.1.1: 25.00% this period, 25.00% cumulative, 250.00")

	mustRun(t, app, "cert", "submit", "TOWER01", "#1")
	out = mustRun(t, app, "cert", "approve", "TOWER01", "1", "--by", "resident", "--yes")
	assert.Contains(t, out, "Approved certification #1: 250.00")

	out = mustRun(t, app, "cert", "verify", "TOWER01", "1")
	assert.Contains(t, out, "seal verified")

	out = mustRun(t, app, "cert", "show", "TOWER01", "1")
	assert.Contains(t, out, "APPROVED")
	assert.Contains(t, out, "Slab")
	assert.Contains(t, out, "resident")

	// Second period builds on the first.
	mustRun(t, app, "cert", "create", "TOWER01", "--period", "2026-02", "--version", "B1")
	out = mustRun(t, app, "cert", "line", "TOWER01", "2", "1.1.1", "--pct", "30")
	assert.Contains(t, out, "55.00% cumulative")

	out = mustRun(t, app, "cert", "list", "TOWER01")
	assert.Contains(t, out, "#1")
	assert.Contains(t, out, "#2")
	assert.Contains(t, out, "DRAFT")

	_, err := executeCmd(t, app, "cert", "line", "TOWER01", "2", "1.1.1", "--pct", "80")
	assert.ErrorIs(t, err, domain.ErrProgressOverrun)

	out = mustRun(t, app, "outbox", "list")
	assert.Contains(t, out, domain.EventCertificationApproved)

	out = mustRun(t, app, "outbox", "list", "--project", "TOWER01", "--cert", "1")
	assert.Contains(t, out, domain.EventCertificationSubmitted)
}

func TestCertCmd_RejectRefreshAndVoid(t *testing.T) {
	app, _ := testApp(t)
	importTower(t, app)

	mustRun(t, app, "cert", "create", "TOWER01", "--period", "2026-01")
	mustRun(t, app, "cert", "line", "TOWER01", "1", "1.1.2", "--pct", "10")
	mustRun(t, app, "cert", "submit", "TOWER01", "1")

	_, err := executeCmd(t, app, "cert", "reject", "TOWER01", "1")
	assert.Error(t, err)
	mustRun(t, app, "cert", "reject", "TOWER01", "1", "--comment", "recheck column count")

	out := mustRun(t, app, "cert", "refresh", "TOWER01", "1")
	assert.Contains(t, out, "Recomputed 1 lines")

	mustRun(t, app, "cert", "rm-line", "TOWER01", "1", "1.1.2")
	_, err = executeCmd(t, app, "cert", "submit", "TOWER01", "1")
	assert.ErrorIs(t, err, domain.ErrEmptyDocument)

	mustRun(t, app, "cert", "line", "TOWER01", "1", "1.1.2", "--pct", "10")
	mustRun(t, app, "cert", "submit", "TOWER01", "1")
	mustRun(t, app, "cert", "approve", "TOWER01", "1", "-y")

	mustRun(t, app, "cert", "void", "TOWER01", "1", "--yes")
	out = mustRun(t, app, "cert", "show", "TOWER01", "1")
	assert.Contains(t, out, "VOID")
}

func TestCertCmd_VerifyDetectsTampering(t *testing.T) {
	app, database := testApp(t)
	importTower(t, app)

	mustRun(t, app, "cert", "create", "TOWER01", "--period", "2026-01")
	mustRun(t, app, "cert", "line", "TOWER01", "1", "1.1.1", "--pct", "50")
	mustRun(t, app, "cert", "submit", "TOWER01", "1")
	mustRun(t, app, "cert", "approve", "TOWER01", "1", "--yes")

	_, err := database.Exec(`UPDATE certification_lines SET total_amount = '9999'`)
	require.NoError(t, err)

	_, err = executeCmd(t, app, "cert", "verify", "TOWER01", "1")
	assert.ErrorIs(t, err, domain.ErrSealMismatch)

	out := mustRun(t, app, "cert", "show", "TOWER01", "1")
	assert.Contains(t, out, "MISMATCH")
}

func TestCertCmd_CreateValidation(t *testing.T) {
	app, _ := testApp(t)
	mustRun(t, app, "project", "create", "--id", "MALL02", "--name", "City Mall")

	_, err := executeCmd(t, app, "cert", "create", "MALL02", "--period", "2026-01")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no locked budget version")

	_, err = executeCmd(t, app, "cert", "create", "MALL02", "--period", "2026-13")
	assert.Error(t, err)

	_, err = executeCmd(t, app, "cert", "show", "MALL02", "0")
	assert.Error(t, err)

	_, err = executeCmd(t, app, "cert", "show", "NOPE01", "1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCertCmd_ApproveConfirmation(t *testing.T) {
	app, _ := testApp(t)
	importTower(t, app)
	mustRun(t, app, "cert", "create", "TOWER01", "--period", "2026-01")
	mustRun(t, app, "cert", "line", "TOWER01", "1", "1.1.1", "--pct", "10")
	mustRun(t, app, "cert", "submit", "TOWER01", "1")

	_, err := executeCmd(t, app, "cert", "approve", "TOWER01", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--yes")

	var asked string
	app.IsInteractive = func() bool { return true }
	app.Confirm = func(title, _ string) (bool, error) {
		asked = title
		return false, nil
	}
	_, err = executeCmd(t, app, "cert", "approve", "TOWER01", "1")
	assert.ErrorIs(t, err, errNotConfirmed)
	assert.Contains(t, asked, "Approve certification #1")

	app.Confirm = func(string, string) (bool, error) { return true, nil }
	out := mustRun(t, app, "cert", "approve", "TOWER01", "1")
	assert.Contains(t, out, "Approved certification #1")
}

func TestVarianceCmd(t *testing.T) {
	app, _ := testApp(t)
	importTower(t, app)

	mustRun(t, app, "cert", "create", "TOWER01", "--period", "2026-01")
	mustRun(t, app, "cert", "line", "TOWER01", "1", "1.1.1", "--pct", "100")
	mustRun(t, app, "cert", "line", "TOWER01", "1", "1.1.2", "--pct", "100")
	mustRun(t, app, "cert", "submit", "TOWER01", "1")
	mustRun(t, app, "cert", "approve", "TOWER01", "1", "--yes")

	out := mustRun(t, app, "variance", "TOWER01")
	assert.Contains(t, out, "band ±10%")
	assert.Contains(t, out, "Slab")
	assert.Contains(t, out, "1,000.00")
	assert.Contains(t, out, "ON TRACK")
}

func TestImportCmd_Errors(t *testing.T) {
	app, _ := testApp(t)

	_, err := executeCmd(t, app, "import", filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	importTower(t, app)
	path := filepath.Join(t.TempDir(), "again.json")
	require.NoError(t, os.WriteFile(path, []byte(towerJSON), 0o644))
	_, err = executeCmd(t, app, "import", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}
