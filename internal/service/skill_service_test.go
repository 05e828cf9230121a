package service

import (
	"context"
	"testing"

	"github.com/alexanderramin/pdptrack/internal/criteria"
	"github.com/alexanderramin/pdptrack/internal/domain"
	"github.com/alexanderramin/pdptrack/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSkillService_ToggleCriterionDone_DerivesStatus(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()
	owner := r.user(t, "Owner")
	plan := r.plan(t, owner.ID, "Backend")
	sk := r.skill(t, plan.ID, "Testing",
		testutil.WithCriteria(`[{"text":"Unit","done":true},{"text":"Integration","done":false}]`))

	svc := NewSkillService(r.skills, r.plans, r.uow)

	got, err := svc.ToggleCriterionDone(ctx, owner.ID, sk.ID, 1, true)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDone, got.Status)
	assert.Equal(t, domain.StatusDone, r.reload(t, sk.ID).Status)

	got, err = svc.ToggleCriterionDone(ctx, owner.ID, sk.ID, 0, false)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, got.Status)

	items := criteria.Parse(r.reload(t, sk.ID).Criteria)
	require.Len(t, items, 2)
	assert.False(t, items[0].Done)
	assert.True(t, items[1].Done)
}

func TestSkillService_ToggleCriterionDone_LegacyCriteriaBecomeStructured(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()
	owner := r.user(t, "Owner")
	plan := r.plan(t, owner.ID, "Backend")
	sk := r.skill(t, plan.ID, "Go", testutil.WithCriteria("Channels; Generics"))

	svc := NewSkillService(r.skills, r.plans, r.uow)
	got, err := svc.ToggleCriterionDone(ctx, owner.ID, sk.ID, 0, true)
	require.NoError(t, err)

	assert.Equal(t, `[{"text":"Channels","done":true,"comment":null},{"text":"Generics","done":false,"comment":null}]`, got.Criteria)
	assert.Equal(t, domain.StatusInProgress, got.Status)
}

func TestSkillService_ToggleCriterionDone_InvalidIndex(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()
	owner := r.user(t, "Owner")
	plan := r.plan(t, owner.ID, "Backend")
	sk := r.skill(t, plan.ID, "Go", testutil.WithCriteria(`["a","b"]`))
	empty := r.skill(t, plan.ID, "Empty")

	svc := NewSkillService(r.skills, r.plans, r.uow)

	for _, idx := range []int{-1, 2, 10} {
		_, err := svc.ToggleCriterionDone(ctx, owner.ID, sk.ID, idx, true)
		assert.ErrorIs(t, err, domain.ErrInvalidIndex, "index %d", idx)
	}
	_, err := svc.ToggleCriterionDone(ctx, owner.ID, empty.ID, 0, true)
	assert.ErrorIs(t, err, domain.ErrInvalidIndex)
	assert.Equal(t, domain.StatusPlanned, r.reload(t, empty.ID).Status)
}

func TestSkillService_CriterionAccess(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()
	owner := r.user(t, "Owner")
	curator := r.user(t, "Curator")
	stranger := r.user(t, "Stranger")
	plan := r.plan(t, owner.ID, "Backend")
	r.curate(t, plan.ID, curator.ID)
	sk := r.skill(t, plan.ID, "Go", testutil.WithCriteria(`["a"]`))

	svc := NewSkillService(r.skills, r.plans, r.uow)

	_, err := svc.ToggleCriterionDone(ctx, curator.ID, sk.ID, 0, true)
	require.NoError(t, err, "curators may check criteria")

	_, err = svc.UpdateCriterionComment(ctx, curator.ID, sk.ID, 0, "nice")
	require.NoError(t, err)

	_, err = svc.ToggleCriterionDone(ctx, stranger.ID, sk.ID, 0, false)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	// Forbidden wins over a bad index.
	_, err = svc.ToggleCriterionDone(ctx, stranger.ID, sk.ID, 5, false)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.ToggleCriterionDone(ctx, owner.ID, "missing", 0, true)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSkillService_UpdateCriterionComment(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()
	owner := r.user(t, "Owner")
	plan := r.plan(t, owner.ID, "Backend")
	sk := r.skill(t, plan.ID, "Go",
		testutil.WithCriteria(`[{"text":"a","done":true}]`),
		testutil.WithSkillStatus(domain.StatusBlocked))

	svc := NewSkillService(r.skills, r.plans, r.uow)

	got, err := svc.UpdateCriterionComment(ctx, owner.ID, sk.ID, 0, "see PR #12")
	require.NoError(t, err)
	items := criteria.Parse(got.Criteria)
	require.NotNil(t, items[0].Comment)
	assert.Equal(t, "see PR #12", *items[0].Comment)
	assert.True(t, items[0].Done)
	assert.Equal(t, domain.StatusBlocked, got.Status, "comments never change status")

	got, err = svc.UpdateCriterionComment(ctx, owner.ID, sk.ID, 0, "   ")
	require.NoError(t, err)
	assert.Nil(t, criteria.Parse(got.Criteria)[0].Comment)

	_, err = svc.UpdateCriterionComment(ctx, owner.ID, sk.ID, 1, "x")
	assert.ErrorIs(t, err, domain.ErrInvalidIndex)
}

func TestSkillService_Create_AssignsNextSortOrder(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()
	owner := r.user(t, "Owner")
	plan := r.plan(t, owner.ID, "Backend")
	r.skill(t, plan.ID, "First", testutil.WithSortOrder(4))

	svc := NewSkillService(r.skills, r.plans, r.uow)

	sk, err := svc.Create(ctx, owner.ID, plan.ID, SkillInput{Name: "Second"})
	require.NoError(t, err)
	assert.Equal(t, 5, sk.SortOrder)
	assert.Equal(t, domain.PriorityMedium, sk.Priority)
	assert.Equal(t, domain.StatusPlanned, sk.Status)
	assert.Nil(t, sk.TemplateSkillKey)

	sk, err = svc.Create(ctx, owner.ID, plan.ID, SkillInput{Name: "Pinned", SortOrder: intPtr(1)})
	require.NoError(t, err)
	assert.Equal(t, 1, sk.SortOrder)

	list, err := svc.ListByPlan(ctx, owner.ID, plan.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "Pinned", list[0].Name)
}

func TestSkillService_Create_FirstSkillStartsAtZero(t *testing.T) {
	r := setupRepos(t)
	owner := r.user(t, "Owner")
	plan := r.plan(t, owner.ID, "Backend")

	sk, err := NewSkillService(r.skills, r.plans, r.uow).Create(context.Background(), owner.ID, plan.ID, SkillInput{Name: "Only"})
	require.NoError(t, err)
	assert.Equal(t, 0, sk.SortOrder)
}

func TestSkillService_Create_Validation(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()
	owner := r.user(t, "Owner")
	curator := r.user(t, "Curator")
	plan := r.plan(t, owner.ID, "Backend")
	r.curate(t, plan.ID, curator.ID)

	svc := NewSkillService(r.skills, r.plans, r.uow)

	_, err := svc.Create(ctx, owner.ID, plan.ID, SkillInput{Name: " "})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.Create(ctx, owner.ID, plan.ID, SkillInput{Name: "X", Priority: "Urgent"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.Create(ctx, owner.ID, plan.ID, SkillInput{Name: "X", SortOrder: intPtr(-1)})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.Create(ctx, curator.ID, plan.ID, SkillInput{Name: "X"})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestSkillService_Update(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()
	owner := r.user(t, "Owner")
	plan := r.plan(t, owner.ID, "Backend")
	sk := r.skill(t, plan.ID, "Go", testutil.WithCriteria(`["a"]`))

	svc := NewSkillService(r.skills, r.plans, r.uow)

	high := domain.PriorityHigh
	blocked := domain.StatusBlocked
	got, err := svc.Update(ctx, owner.ID, sk.ID, SkillUpdate{
		Name:     strPtr("Go advanced"),
		Priority: &high,
		Status:   &blocked,
		ETA:      strPtr("2026-12"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Go advanced", got.Name)

	stored := r.reload(t, sk.ID)
	assert.Equal(t, domain.PriorityHigh, stored.Priority)
	assert.Equal(t, domain.StatusBlocked, stored.Status)
	require.NotNil(t, stored.ETA)
	assert.Equal(t, "2026-12", *stored.ETA)
	assert.Equal(t, `["a"]`, stored.Criteria)

	got, err = svc.Update(ctx, owner.ID, sk.ID, SkillUpdate{ETA: strPtr("")})
	require.NoError(t, err)
	assert.Nil(t, got.ETA)
}

func TestSkillService_SetManualOverride(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()
	owner := r.user(t, "Owner")
	curator := r.user(t, "Curator")
	plan := r.plan(t, owner.ID, "Backend")
	r.curate(t, plan.ID, curator.ID)
	sk := r.skill(t, plan.ID, "Go", testutil.WithTemplateKey("k1"))

	svc := NewSkillService(r.skills, r.plans, r.uow)

	_, err := svc.SetManualOverride(ctx, curator.ID, sk.ID, true)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	got, err := svc.SetManualOverride(ctx, owner.ID, sk.ID, true)
	require.NoError(t, err)
	assert.True(t, got.ManualOverride)
	assert.False(t, r.reload(t, sk.ID).SubjectToSync())

	got, err = svc.SetManualOverride(ctx, owner.ID, sk.ID, false)
	require.NoError(t, err)
	assert.True(t, r.reload(t, got.ID).SubjectToSync())
}

func TestSkillService_Delete(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()
	owner := r.user(t, "Owner")
	curator := r.user(t, "Curator")
	plan := r.plan(t, owner.ID, "Backend")
	r.curate(t, plan.ID, curator.ID)
	sk := r.skill(t, plan.ID, "Go")

	svc := NewSkillService(r.skills, r.plans, r.uow)

	assert.ErrorIs(t, svc.Delete(ctx, curator.ID, sk.ID), domain.ErrForbidden)
	require.NoError(t, svc.Delete(ctx, owner.ID, sk.ID))

	_, err := svc.Get(ctx, owner.ID, sk.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSkillService_MutationTouchesPlan(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()
	owner := r.user(t, "Owner")
	plan := r.plan(t, owner.ID, "Backend")
	sk := r.skill(t, plan.ID, "Go", testutil.WithCriteria(`["a"]`))

	_, err := NewSkillService(r.skills, r.plans, r.uow).ToggleCriterionDone(ctx, owner.ID, sk.ID, 0, true)
	require.NoError(t, err)

	after, err := r.plans.GetByID(ctx, plan.ID)
	require.NoError(t, err)
	assert.False(t, after.UpdatedAt.Before(plan.UpdatedAt))
}
