package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alexanderramin/obra/internal/domain"
	"github.com/alexanderramin/obra/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCertificationRepo_CreateGetUpdate(t *testing.T) {
	db := testutil.NewTestDB(t)
	s := seedTree(t, db)
	repo := NewSQLiteCertificationRepo(db)
	ctx := context.Background()

	c := testutil.NewTestCertification(s.Project.ID, s.Version.ID, 1, testutil.WithPeriod(2025, 3))
	require.NoError(t, repo.Create(ctx, c))

	fetched, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CertDraft, fetched.Status)
	assert.Equal(t, domain.Period{Year: 2025, Month: 3}, fetched.Period)
	assert.Nil(t, fetched.IssuedDate)
	assert.False(t, fetched.Sealed())

	issued := time.Now().UTC().Truncate(time.Second)
	c.Status = domain.CertApproved
	c.IssuedDate = &issued
	c.IssuedBy = "site-manager"
	c.ApprovedBy = "director"
	c.TotalAmount = testutil.D("1500.00")
	c.IntegritySeal = "sha256:abc"
	c.UpdatedAt = issued
	require.NoError(t, repo.Update(ctx, c))

	byNumber, err := repo.GetByNumber(ctx, s.Project.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.CertApproved, byNumber.Status)
	require.NotNil(t, byNumber.IssuedDate)
	assert.True(t, issued.Equal(*byNumber.IssuedDate))
	assert.Equal(t, "director", byNumber.ApprovedBy)
	assert.Equal(t, "1500", byNumber.TotalAmount.String())
	assert.Equal(t, "sha256:abc", byNumber.IntegritySeal)

	_, err = repo.GetByNumber(ctx, s.Project.ID, 2)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCertificationRepo_UpsertLineKeepsSnapshots(t *testing.T) {
	db := testutil.NewTestDB(t)
	s := seedTree(t, db)
	repo := NewSQLiteCertificationRepo(db)
	ctx := context.Background()

	c := createCert(t, db, s, 1, domain.CertDraft, 2025, 1, map[*domain.WbsNode]string{s.Slab: "30"})

	again := testutil.NewTestCertificationLine(c.ID, s.Slab.ID, "999", "999", "45")
	require.NoError(t, repo.UpsertLine(ctx, again))

	l, err := repo.GetLine(ctx, c.ID, s.Slab.ID)
	require.NoError(t, err)
	assert.Equal(t, "100", l.ContractualQtySnapshot.String(), "snapshot frozen at first insert")
	assert.Equal(t, "50", l.UnitPriceSnapshot.String())
	assert.Equal(t, "45", l.TotalProgressPct.String(), "computed figures overwritten")
}

func TestCertificationRepo_LineRoundTripPreservesBaseline(t *testing.T) {
	db := testutil.NewTestDB(t)
	s := seedTree(t, db)
	repo := NewSQLiteCertificationRepo(db)
	ctx := context.Background()

	first := createCert(t, db, s, 1, domain.CertApproved, 2025, 1, map[*domain.WbsNode]string{s.Slab: "30"})
	second := testutil.NewTestCertification(s.Project.ID, s.Version.ID, 2, testutil.WithPeriod(2025, 2))
	require.NoError(t, repo.Create(ctx, second))

	l := testutil.NewTestCertificationLine(second.ID, s.Slab.ID, "100", "50", "45")
	l.BaselineCertificationID = &first.ID
	l.BaselineVersion = 3
	require.NoError(t, repo.UpsertLine(ctx, l))

	lines, err := repo.ListLines(ctx, second.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	require.NotNil(t, lines[0].BaselineCertificationID)
	assert.Equal(t, first.ID, *lines[0].BaselineCertificationID)
	assert.Equal(t, 3, lines[0].BaselineVersion)
	assert.Equal(t, "45", lines[0].PeriodQty.String())

	require.NoError(t, repo.DeleteLine(ctx, second.ID, s.Slab.ID))
	lines, err = repo.ListLines(ctx, second.ID)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestCertificationRepo_LatestApprovedLine_OrdersByPeriodThenNumber(t *testing.T) {
	db := testutil.NewTestDB(t)
	s := seedTree(t, db)
	repo := NewSQLiteCertificationRepo(db)
	ctx := context.Background()

	// Number 3 carries the earliest period; number 2 is the latest period.
	createCert(t, db, s, 1, domain.CertApproved, 2025, 1, map[*domain.WbsNode]string{s.Slab: "10"})
	latest := createCert(t, db, s, 2, domain.CertApproved, 2025, 3, map[*domain.WbsNode]string{s.Slab: "40"})
	createCert(t, db, s, 3, domain.CertApproved, 2024, 12, map[*domain.WbsNode]string{s.Slab: "5"})

	a, err := repo.LatestApprovedLine(ctx, s.Project.ID, s.Slab.ID)
	require.NoError(t, err)
	assert.Equal(t, latest.ID, a.Line.CertificationID)
	assert.Equal(t, 2, a.Number)
	assert.Equal(t, domain.Period{Year: 2025, Month: 3}, a.Period)

	// Same period: higher number wins.
	tie := createCert(t, db, s, 4, domain.CertApproved, 2025, 3, map[*domain.WbsNode]string{s.Slab: "50"})
	a, err = repo.LatestApprovedLine(ctx, s.Project.ID, s.Slab.ID)
	require.NoError(t, err)
	assert.Equal(t, tie.ID, a.Line.CertificationID)
}

func TestCertificationRepo_LatestApprovedLine_IgnoresDraftsAndVoided(t *testing.T) {
	db := testutil.NewTestDB(t)
	s := seedTree(t, db)
	repo := NewSQLiteCertificationRepo(db)
	ctx := context.Background()

	approved := createCert(t, db, s, 1, domain.CertApproved, 2025, 1, map[*domain.WbsNode]string{s.Slab: "30"})
	createCert(t, db, s, 2, domain.CertDraft, 2025, 2, map[*domain.WbsNode]string{s.Slab: "60"})
	createCert(t, db, s, 3, domain.CertSubmitted, 2025, 3, map[*domain.WbsNode]string{s.Slab: "70"})
	createCert(t, db, s, 4, domain.CertVoid, 2025, 4, map[*domain.WbsNode]string{s.Slab: "80"})

	a, err := repo.LatestApprovedLine(ctx, s.Project.ID, s.Slab.ID)
	require.NoError(t, err)
	assert.Equal(t, approved.ID, a.Line.CertificationID)
	assert.Equal(t, "30", a.Line.TotalProgressPct.String())

	_, err = repo.LatestApprovedLine(ctx, s.Project.ID, s.Columns.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCertificationRepo_LatestApprovedLines(t *testing.T) {
	db := testutil.NewTestDB(t)
	s := seedTree(t, db)
	repo := NewSQLiteCertificationRepo(db)
	ctx := context.Background()

	createCert(t, db, s, 1, domain.CertApproved, 2025, 1, map[*domain.WbsNode]string{s.Slab: "30", s.Columns: "10"})
	second := createCert(t, db, s, 2, domain.CertApproved, 2025, 2, map[*domain.WbsNode]string{s.Slab: "60"})
	createCert(t, db, s, 3, domain.CertDraft, 2025, 3, map[*domain.WbsNode]string{s.Columns: "90"})

	latest, err := repo.LatestApprovedLines(ctx, s.Project.ID)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, second.ID, latest[s.Slab.ID].Line.CertificationID)
	assert.Equal(t, "10", latest[s.Columns.ID].Line.TotalProgressPct.String())
}

func TestCertificationRepo_HasApprovedSuccessor(t *testing.T) {
	db := testutil.NewTestDB(t)
	s := seedTree(t, db)
	repo := NewSQLiteCertificationRepo(db)
	ctx := context.Background()

	first := createCert(t, db, s, 1, domain.CertApproved, 2025, 1, map[*domain.WbsNode]string{s.Slab: "30"})

	next := testutil.NewTestCertification(s.Project.ID, s.Version.ID, 2, testutil.WithPeriod(2025, 2))
	require.NoError(t, repo.Create(ctx, next))
	l := testutil.NewTestCertificationLine(next.ID, s.Slab.ID, "100", "50", "50")
	l.BaselineCertificationID = &first.ID
	require.NoError(t, repo.UpsertLine(ctx, l))

	has, err := repo.HasApprovedSuccessor(ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, has, "a draft successor does not count")

	next.Status = domain.CertApproved
	require.NoError(t, repo.Update(ctx, next))
	has, err = repo.HasApprovedSuccessor(ctx, first.ID)
	require.NoError(t, err)
	assert.True(t, has)
}

func TestCertificationRepo_ListByProjectOrdersByNumber(t *testing.T) {
	db := testutil.NewTestDB(t)
	s := seedTree(t, db)
	repo := NewSQLiteCertificationRepo(db)
	ctx := context.Background()

	createCert(t, db, s, 2, domain.CertDraft, 2025, 2, nil)
	createCert(t, db, s, 1, domain.CertApproved, 2025, 1, nil)

	certs, err := repo.ListByProject(ctx, s.Project.ID)
	require.NoError(t, err)
	require.Len(t, certs, 2)
	assert.Equal(t, 1, certs[0].Number)
	assert.Equal(t, 2, certs[1].Number)
}
