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

func seedUsers(t *testing.T, db *sql.DB, names ...string) []*domain.User {
	t.Helper()
	repo := NewSQLiteUserRepo(db)
	users := make([]*domain.User, 0, len(names))
	for _, n := range names {
		u := testutil.NewTestUser(n)
		require.NoError(t, repo.Create(context.Background(), u))
		users = append(users, u)
	}
	return users
}

func TestPlanRepo_CreateAndGetByID(t *testing.T) {
	db := testutil.NewTestDB(t)
	users := seedUsers(t, db, "Owner", "Curator")
	repo := NewSQLitePlanRepo(db)
	ctx := context.Background()

	p := testutil.NewTestPlan(users[0].ID, "Growth", testutil.WithPlanETA("Q4"))
	require.NoError(t, repo.Create(ctx, p))
	require.NoError(t, repo.AddCurator(ctx, p.ID, users[1].ID))
	require.NoError(t, repo.AddCurator(ctx, p.ID, users[1].ID), "adding twice is a no-op")

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Growth", got.Title)
	assert.Equal(t, domain.PriorityMedium, got.Priority)
	assert.Equal(t, domain.StatusPlanned, got.Status)
	require.NotNil(t, got.ETA)
	assert.Equal(t, "Q4", *got.ETA)
	assert.Nil(t, got.TemplateID)
	assert.Equal(t, []string{users[1].ID}, got.CuratorIDs)
}

func TestPlanRepo_GetByID_NotFound(t *testing.T) {
	db := testutil.NewTestDB(t)
	_, err := NewSQLitePlanRepo(db).GetByID(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPlanRepo_UpdateAndDelete(t *testing.T) {
	db := testutil.NewTestDB(t)
	users := seedUsers(t, db, "Owner")
	repo := NewSQLitePlanRepo(db)
	ctx := context.Background()

	p := testutil.NewTestPlan(users[0].ID, "Old")
	require.NoError(t, repo.Create(ctx, p))

	p.Title = "New"
	p.Status = domain.StatusDone
	p.UpdatedAt = p.UpdatedAt.Add(time.Minute)
	require.NoError(t, repo.Update(ctx, p))

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "New", got.Title)
	assert.True(t, got.IsFinalized())

	require.NoError(t, repo.Delete(ctx, p.ID))
	assert.ErrorIs(t, repo.Delete(ctx, p.ID), domain.ErrNotFound)
	assert.ErrorIs(t, repo.Update(ctx, p), domain.ErrNotFound)
}

func TestPlanRepo_ListByOwnerAndCurator(t *testing.T) {
	db := testutil.NewTestDB(t)
	users := seedUsers(t, db, "Owner", "Curator")
	repo := NewSQLitePlanRepo(db)
	ctx := context.Background()

	mine := testutil.NewTestPlan(users[0].ID, "Mine")
	theirs := testutil.NewTestPlan(users[1].ID, "Theirs")
	require.NoError(t, repo.Create(ctx, mine))
	require.NoError(t, repo.Create(ctx, theirs))
	require.NoError(t, repo.AddCurator(ctx, mine.ID, users[1].ID))

	owned, err := repo.ListByOwner(ctx, users[0].ID)
	require.NoError(t, err)
	require.Len(t, owned, 1)
	assert.Equal(t, []string{users[1].ID}, owned[0].CuratorIDs)

	shared, err := repo.ListByCurator(ctx, users[1].ID)
	require.NoError(t, err)
	require.Len(t, shared, 1)
	assert.Equal(t, mine.ID, shared[0].ID)

	curators, err := repo.ListCurators(ctx, mine.ID)
	require.NoError(t, err)
	require.Len(t, curators, 1)
	assert.Equal(t, "Curator", curators[0].Name)

	require.NoError(t, repo.RemoveCurator(ctx, mine.ID, users[1].ID))
	shared, err = repo.ListByCurator(ctx, users[1].ID)
	require.NoError(t, err)
	assert.Empty(t, shared)
}

func TestPlanRepo_ListVisible_RecencyAndLimit(t *testing.T) {
	db := testutil.NewTestDB(t)
	users := seedUsers(t, db, "Me", "Other")
	repo := NewSQLitePlanRepo(db)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	oldest := testutil.NewTestPlan(users[0].ID, "oldest", testutil.WithPlanUpdatedAt(base))
	curated := testutil.NewTestPlan(users[1].ID, "curated", testutil.WithPlanUpdatedAt(base.Add(2*time.Hour)))
	newest := testutil.NewTestPlan(users[0].ID, "newest", testutil.WithPlanUpdatedAt(base.Add(3*time.Hour)))
	hidden := testutil.NewTestPlan(users[1].ID, "hidden", testutil.WithPlanUpdatedAt(base.Add(4*time.Hour)))
	for _, p := range []*domain.Plan{oldest, curated, newest, hidden} {
		require.NoError(t, repo.Create(ctx, p))
	}
	require.NoError(t, repo.AddCurator(ctx, curated.ID, users[0].ID))

	visible, err := repo.ListVisible(ctx, users[0].ID, 50)
	require.NoError(t, err)
	require.Len(t, visible, 3)
	assert.Equal(t, "newest", visible[0].Title)
	assert.Equal(t, "curated", visible[1].Title)
	assert.Equal(t, "oldest", visible[2].Title)

	limited, err := repo.ListVisible(ctx, users[0].ID, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	require.NoError(t, repo.Touch(ctx, oldest.ID, base.Add(5*time.Hour)))
	visible, err = repo.ListVisible(ctx, users[0].ID, 1)
	require.NoError(t, err)
	assert.Equal(t, "oldest", visible[0].Title)
}

func TestPlanRepo_ListSyncCandidates(t *testing.T) {
	db := testutil.NewTestDB(t)
	users := seedUsers(t, db, "Owner")
	plans := NewSQLitePlanRepo(db)
	skills := NewSQLiteSkillRepo(db)
	templates := NewSQLiteTemplateRepo(db)
	ctx := context.Background()

	tpl := testutil.NewTestTemplate(users[0].ID, "Backend", testutil.TemplateSkillDef("Go", "k-go", ""))
	require.NoError(t, templates.Create(ctx, tpl))

	linked := testutil.NewTestPlan(users[0].ID, "linked", testutil.WithTemplateID(tpl.ID))
	composed := testutil.NewTestPlan(users[0].ID, "composed")
	unrelated := testutil.NewTestPlan(users[0].ID, "unrelated")
	for _, p := range []*domain.Plan{linked, composed, unrelated} {
		require.NoError(t, plans.Create(ctx, p))
	}
	require.NoError(t, skills.Create(ctx, testutil.NewTestSkill(composed.ID, "Go", testutil.WithTemplateKey("k-go"))))
	require.NoError(t, skills.Create(ctx, testutil.NewTestSkill(unrelated.ID, "Rust", testutil.WithTemplateKey("k-rust"))))

	got, err := plans.ListSyncCandidates(ctx, tpl.ID, []string{"k-go"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "linked", got[0].Title)
	assert.Equal(t, "composed", got[1].Title)

	onlyLinked, err := plans.ListSyncCandidates(ctx, tpl.ID, nil)
	require.NoError(t, err)
	require.Len(t, onlyLinked, 1)
	assert.Equal(t, linked.ID, onlyLinked[0].ID)

	n, err := plans.UnlinkTemplate(ctx, tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	reloaded, err := plans.GetByID(ctx, linked.ID)
	require.NoError(t, err)
	assert.Nil(t, reloaded.TemplateID)
}

func TestPlanRepo_DeleteCascadesToSkills(t *testing.T) {
	db := testutil.NewTestDB(t)
	users := seedUsers(t, db, "Owner")
	plans := NewSQLitePlanRepo(db)
	skills := NewSQLiteSkillRepo(db)
	ctx := context.Background()

	p := testutil.NewTestPlan(users[0].ID, "P")
	require.NoError(t, plans.Create(ctx, p))
	s := testutil.NewTestSkill(p.ID, "S")
	require.NoError(t, skills.Create(ctx, s))

	require.NoError(t, plans.Delete(ctx, p.ID))
	_, err := skills.GetByID(ctx, s.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
