package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alexanderramin/pdptrack/internal/domain"
	"github.com/alexanderramin/pdptrack/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateRepo_CreateAndGet(t *testing.T) {
	db := testutil.NewTestDB(t)
	users := seedUsers(t, db, "Author")
	repo := NewSQLiteTemplateRepo(db)
	ctx := context.Background()

	tpl := testutil.NewTestTemplate(users[0].ID, "Backend",
		testutil.TemplateSkillDef("Go", "k-go", `["Write tests"]`),
		testutil.TemplateSkillDef("SQL", "", ""),
	)
	require.NoError(t, repo.Create(ctx, tpl))

	got, err := repo.GetByID(ctx, tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, tpl, got)
	assert.Equal(t, []string{"k-go", "idx-1"}, got.Data.Keys())
}

func TestTemplateRepo_GetByID_NotFound(t *testing.T) {
	db := testutil.NewTestDB(t)
	_, err := NewSQLiteTemplateRepo(db).GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTemplateRepo_ListsAndUpdate(t *testing.T) {
	db := testutil.NewTestDB(t)
	users := seedUsers(t, db, "A", "B")
	repo := NewSQLiteTemplateRepo(db)
	ctx := context.Background()

	older := testutil.NewTestTemplate(users[0].ID, "older")
	older.CreatedAt = older.CreatedAt.Add(-time.Hour)
	newer := testutil.NewTestTemplate(users[0].ID, "newer")
	draft := testutil.NewTestTemplate(users[1].ID, "draft")
	draft.Published = false
	for _, tpl := range []*domain.Template{older, newer, draft} {
		require.NoError(t, repo.Create(ctx, tpl))
	}

	published, err := repo.ListPublished(ctx)
	require.NoError(t, err)
	require.Len(t, published, 2)
	assert.Equal(t, "newer", published[0].Title)

	mine, err := repo.ListByOwner(ctx, users[1].ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.False(t, mine[0].Published)

	draft.Title = "draft v2"
	draft.Data.Skills = append(draft.Data.Skills, testutil.TemplateSkillDef("New", "k-new", "a;b"))
	require.NoError(t, repo.Update(ctx, draft))
	got, err := repo.GetByID(ctx, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, "draft v2", got.Title)
	require.Len(t, got.Data.Skills, 1)
	assert.Equal(t, "a;b", got.Data.Skills[0].Criteria)

	require.NoError(t, repo.Delete(ctx, draft.ID))
	assert.ErrorIs(t, repo.Delete(ctx, draft.ID), domain.ErrNotFound)
}

func TestTemplateRepo_DeleteNullsPlanLink(t *testing.T) {
	db := testutil.NewTestDB(t)
	users := seedUsers(t, db, "A")
	templates := NewSQLiteTemplateRepo(db)
	plans := NewSQLitePlanRepo(db)
	ctx := context.Background()

	tpl := testutil.NewTestTemplate(users[0].ID, "T")
	require.NoError(t, templates.Create(ctx, tpl))
	p := testutil.NewTestPlan(users[0].ID, "P", testutil.WithTemplateID(tpl.ID))
	require.NoError(t, plans.Create(ctx, p))

	require.NoError(t, templates.Delete(ctx, tpl.ID))
	got, err := plans.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, got.TemplateID)
}
