package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/alexanderramin/pdptrack/internal/domain"
	"github.com/alexanderramin/pdptrack/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ledgerFixture struct {
	owner, curator *domain.User
	plan           *domain.Plan
	skill          *domain.Skill
}

func seedLedger(t *testing.T, db *sql.DB) ledgerFixture {
	t.Helper()
	ctx := context.Background()
	users := seedUsers(t, db, "Owner", "Curator")
	p := testutil.NewTestPlan(users[0].ID, "Plan")
	plans := NewSQLitePlanRepo(db)
	require.NoError(t, plans.Create(ctx, p))
	require.NoError(t, plans.AddCurator(ctx, p.ID, users[1].ID))
	s := testutil.NewTestSkill(p.ID, "Go", testutil.WithCriteria(`["a","b","c"]`))
	require.NoError(t, NewSQLiteSkillRepo(db).Create(ctx, s))
	return ledgerFixture{owner: users[0], curator: users[1], plan: p, skill: s}
}

func TestProgressRepo_CreateGetUpdateDelete(t *testing.T) {
	db := testutil.NewTestDB(t)
	f := seedLedger(t, db)
	repo := NewSQLiteProgressRepo(db)
	ctx := context.Background()

	e := testutil.NewTestEntry(f.skill.ID, 1, f.owner.ID, testutil.WithNote("first"))
	require.NoError(t, repo.Create(ctx, e))

	got, err := repo.GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, e, got)
	assert.False(t, got.Approved)
	assert.Nil(t, got.ApprovedAt)

	at := time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)
	comment := "nice"
	got.Approved = true
	got.ApprovedAt = &at
	got.CuratorComment = &comment
	got.UpdatedAt = at
	require.NoError(t, repo.Update(ctx, got))

	again, err := repo.GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.True(t, again.Approved)
	require.NotNil(t, again.ApprovedAt)
	assert.True(t, at.Equal(*again.ApprovedAt))
	assert.Equal(t, "nice", *again.CuratorComment)

	require.NoError(t, repo.Delete(ctx, e.ID))
	_, err = repo.GetByID(ctx, e.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, e.ID), domain.ErrNotFound)
}

func TestProgressRepo_ListByCriterionOrdered(t *testing.T) {
	db := testutil.NewTestDB(t)
	f := seedLedger(t, db)
	repo := NewSQLiteProgressRepo(db)
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	late := testutil.NewTestEntry(f.skill.ID, 0, f.owner.ID, testutil.WithNote("late"), testutil.WithEntryCreatedAt(base.Add(time.Hour)))
	early := testutil.NewTestEntry(f.skill.ID, 0, f.owner.ID, testutil.WithNote("early"), testutil.WithEntryCreatedAt(base),
		testutil.WithApprovedAt(base.Add(2*time.Hour)))
	elsewhere := testutil.NewTestEntry(f.skill.ID, 1, f.owner.ID)
	for _, e := range []*domain.ProgressEntry{late, early, elsewhere} {
		require.NoError(t, repo.Create(ctx, e))
	}

	all, err := repo.ListByCriterion(ctx, f.skill.ID, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "early", all[0].Note)
	assert.Equal(t, "late", all[1].Note)

	approved, err := repo.ListApprovedByCriterion(ctx, f.skill.ID, 0)
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.Equal(t, "early", approved[0].Note)

	byPlan, err := repo.ListApprovedByPlan(ctx, f.plan.ID)
	require.NoError(t, err)
	assert.Len(t, byPlan, 1)

	pending, err := repo.CountPendingByPlan(ctx, f.plan.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, pending)
}

func TestProgressRepo_ListPendingForCurator(t *testing.T) {
	db := testutil.NewTestDB(t)
	f := seedLedger(t, db)
	repo := NewSQLiteProgressRepo(db)
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		e := testutil.NewTestEntry(f.skill.ID, i, f.owner.ID, testutil.WithEntryCreatedAt(base.Add(time.Duration(3-i)*time.Minute)))
		require.NoError(t, repo.Create(ctx, e))
	}
	require.NoError(t, repo.Create(ctx, testutil.NewTestEntry(f.skill.ID, 0, f.owner.ID, testutil.WithApprovedAt(base))))

	pending, err := repo.ListPendingForCurator(ctx, f.curator.ID, 100)
	require.NoError(t, err)
	require.Len(t, pending, 3)
	assert.Equal(t, 2, pending[0].Entry.CriterionIndex, "oldest first")
	assert.Equal(t, f.plan.ID, pending[0].PlanID)
	assert.Equal(t, "Plan", pending[0].PlanTitle)
	assert.Equal(t, "Go", pending[0].SkillName)
	assert.Equal(t, f.owner.ID, pending[0].OwnerID)
	assert.Equal(t, "Owner", pending[0].OwnerName)

	capped, err := repo.ListPendingForCurator(ctx, f.curator.ID, 2)
	require.NoError(t, err)
	assert.Len(t, capped, 2)

	none, err := repo.ListPendingForCurator(ctx, f.owner.ID, 100)
	require.NoError(t, err)
	assert.Empty(t, none, "owners do not see their own plan as pending")
}

func TestProgressRepo_DistinctApprovedAndWindow(t *testing.T) {
	db := testutil.NewTestDB(t)
	f := seedLedger(t, db)
	repo := NewSQLiteProgressRepo(db)
	ctx := context.Background()
	base := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

	entries := []*domain.ProgressEntry{
		testutil.NewTestEntry(f.skill.ID, 0, f.owner.ID, testutil.WithApprovedAt(base.AddDate(0, 0, -40))),
		testutil.NewTestEntry(f.skill.ID, 0, f.owner.ID, testutil.WithApprovedAt(base.AddDate(0, 0, -1))),
		testutil.NewTestEntry(f.skill.ID, 2, f.owner.ID, testutil.WithApprovedAt(base)),
		testutil.NewTestEntry(f.skill.ID, 1, f.owner.ID),
	}
	for _, e := range entries {
		require.NoError(t, repo.Create(ctx, e))
	}

	refs, err := repo.DistinctApprovedByPlan(ctx, f.plan.ID)
	require.NoError(t, err)
	assert.Equal(t, []CriterionRef{{SkillID: f.skill.ID, Index: 0}, {SkillID: f.skill.ID, Index: 2}}, refs)

	window, err := repo.ListApprovedBetween(ctx, f.plan.ID, base.AddDate(0, 0, -30), base.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, window, 2)
	assert.Equal(t, 0, window[0].CriterionIndex)
	assert.Equal(t, 2, window[1].CriterionIndex)

	exclusive, err := repo.ListApprovedBetween(ctx, f.plan.ID, base.AddDate(0, 0, -30), base)
	require.NoError(t, err)
	assert.Len(t, exclusive, 1, "upper bound is exclusive")
}

func TestProgressRepo_CriterionIndexMustBeNonNegative(t *testing.T) {
	db := testutil.NewTestDB(t)
	f := seedLedger(t, db)

	e := testutil.NewTestEntry(f.skill.ID, -1, f.owner.ID)
	assert.Error(t, NewSQLiteProgressRepo(db).Create(context.Background(), e))
}
