package service

import (
	"context"
	"errors"
	"testing"

	"github.com/alexanderramin/pdptrack/internal/criteria"
	"github.com/alexanderramin/pdptrack/internal/domain"
	"github.com/alexanderramin/pdptrack/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func skillsByKey(t *testing.T, r *testRepos, planID string) map[string]*domain.Skill {
	t.Helper()
	list, err := r.skills.ListByPlan(context.Background(), planID)
	require.NoError(t, err)
	out := make(map[string]*domain.Skill, len(list))
	for _, sk := range list {
		if sk.TemplateSkillKey != nil {
			out[*sk.TemplateSkillKey] = sk
		}
	}
	return out
}

func TestTemplateSync_MergesCriteriaAndIsIdempotent(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()
	author := r.user(t, "Author")
	owner := r.user(t, "Owner")
	tpl := r.template(t, author.ID, "Backend",
		testutil.TemplateSkillDef("Testing", "k1", `["Unit", "Integration"]`),
		testutil.TemplateSkillDef("Go", "k2", `["Generics"]`),
	)
	plan := r.plan(t, owner.ID, "Mine", testutil.WithTemplateID(tpl.ID))
	sk := r.skill(t, plan.ID, "Testing",
		testutil.WithTemplateKey("k1"),
		testutil.WithCriteria(`[{"text":"  unit ","done":true,"comment":"ok"},{"text":"Dropped","done":true}]`))

	syncer := r.syncer()
	report, err := syncer.Sync(ctx, tpl)
	require.NoError(t, err)
	assert.Equal(t, 1, report.PlansScanned)
	assert.Equal(t, 1, report.PlansSynced)
	assert.Equal(t, 1, report.SkillsUpdated)
	assert.Equal(t, 1, report.SkillsCreated)
	assert.Zero(t, report.SkillsDeleted)
	assert.Empty(t, report.Failures)

	items := criteria.Parse(r.reload(t, sk.ID).Criteria)
	require.Len(t, items, 2)
	assert.Equal(t, "Unit", items[0].Text)
	assert.True(t, items[0].Done)
	require.NotNil(t, items[0].Comment)
	assert.Equal(t, "ok", *items[0].Comment)
	assert.Equal(t, "Integration", items[1].Text)
	assert.False(t, items[1].Done)

	created := skillsByKey(t, r, plan.ID)["k2"]
	require.NotNil(t, created)
	assert.Equal(t, 1, created.SortOrder)

	synced, err := r.plans.GetByID(ctx, plan.ID)
	require.NoError(t, err)

	report, err = syncer.Sync(ctx, tpl)
	require.NoError(t, err)
	assert.Zero(t, report.Writes(), "second pass must be a no-op")
	assert.Equal(t, 1, report.PlansSynced)

	again, err := r.plans.GetByID(ctx, plan.ID)
	require.NoError(t, err)
	assert.True(t, again.UpdatedAt.Equal(synced.UpdatedAt))
}

func TestTemplateSync_ManualOverrideIsImmune(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()
	author := r.user(t, "Author")
	owner := r.user(t, "Owner")
	tpl := r.template(t, author.ID, "Backend", testutil.TemplateSkillDef("Testing", "k1", `["New"]`))
	plan := r.plan(t, owner.ID, "Mine", testutil.WithTemplateID(tpl.ID))
	kept := r.skill(t, plan.ID, "My testing",
		testutil.WithTemplateKey("k1"), testutil.WithManualOverride(), testutil.WithCriteria(`["Old"]`))
	orphan := r.skill(t, plan.ID, "Orphan",
		testutil.WithTemplateKey("gone"), testutil.WithManualOverride())

	report, err := r.syncer().Sync(ctx, tpl)
	require.NoError(t, err)
	assert.Zero(t, report.Writes())

	got := r.reload(t, kept.ID)
	assert.Equal(t, "My testing", got.Name)
	assert.Equal(t, `["Old"]`, got.Criteria)
	r.reload(t, orphan.ID)

	assert.Len(t, skillsByKey(t, r, plan.ID), 2, "overridden key is not recreated")
}

func TestTemplateSync_SkipsFinalizedPlans(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()
	author := r.user(t, "Author")
	owner := r.user(t, "Owner")
	tpl := r.template(t, author.ID, "Backend", testutil.TemplateSkillDef("Testing", "k1", `["New"]`))
	plan := r.plan(t, owner.ID, "Closed",
		testutil.WithTemplateID(tpl.ID), testutil.WithPlanStatus(domain.StatusDone))
	sk := r.skill(t, plan.ID, "Testing", testutil.WithTemplateKey("k1"), testutil.WithCriteria(`["Old"]`))

	report, err := r.syncer().Sync(ctx, tpl)
	require.NoError(t, err)
	assert.Equal(t, 1, report.PlansScanned)
	assert.Equal(t, 1, report.SkippedFinalized)
	assert.Zero(t, report.PlansSynced)
	assert.Equal(t, `["Old"]`, r.reload(t, sk.ID).Criteria)
}

func TestTemplateSync_DeletesOnlyFromLinkedPlans(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()
	author := r.user(t, "Author")
	owner := r.user(t, "Owner")
	tpl := r.template(t, author.ID, "Backend", testutil.TemplateSkillDef("Testing", "k1", `["A"]`))

	linked := r.plan(t, owner.ID, "Linked", testutil.WithTemplateID(tpl.ID))
	r.skill(t, linked.ID, "Testing", testutil.WithTemplateKey("k1"), testutil.WithCriteria(`["A"]`))
	stale := r.skill(t, linked.ID, "Removed", testutil.WithTemplateKey("removed"))
	own := r.skill(t, linked.ID, "Personal")

	composed := r.plan(t, owner.ID, "Composed")
	r.skill(t, composed.ID, "Testing", testutil.WithTemplateKey("k1"), testutil.WithCriteria(`["A"]`))
	foreign := r.skill(t, composed.ID, "Other template", testutil.WithTemplateKey("removed"))

	report, err := r.syncer().Sync(ctx, tpl)
	require.NoError(t, err)
	assert.Equal(t, 2, report.PlansScanned)
	assert.Equal(t, 1, report.SkillsDeleted)

	_, err = r.skills.GetByID(ctx, stale.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	r.reload(t, own.ID)
	r.reload(t, foreign.ID)
}

func TestTemplateSync_CreatedSkillsKeepPlanTimeline(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()
	author := r.user(t, "Author")
	owner := r.user(t, "Owner")

	def := testutil.TemplateSkillDef("Go", "k1", `["Generics"]`)
	eta := "2027-01"
	def.ETA = &eta
	def.Status = domain.StatusDone
	def.Priority = ""
	tpl := r.template(t, author.ID, "Backend", def)

	plan := r.plan(t, owner.ID, "Mine",
		testutil.WithTemplateID(tpl.ID),
		testutil.WithPlanStatus(domain.StatusInProgress),
		testutil.WithPlanETA("2026-12"))

	_, err := r.syncer().Sync(ctx, tpl)
	require.NoError(t, err)

	created := skillsByKey(t, r, plan.ID)["k1"]
	require.NotNil(t, created)
	assert.Equal(t, domain.StatusPlanned, created.Status)
	assert.Nil(t, created.ETA)
	assert.Equal(t, domain.PriorityMedium, created.Priority)
	assert.False(t, created.ManualOverride)

	after, err := r.plans.GetByID(ctx, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, after.Status)
	require.NotNil(t, after.ETA)
	assert.Equal(t, "2026-12", *after.ETA)
}

func TestTemplateSync_SyntheticKeysForKeylessSkills(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()
	author := r.user(t, "Author")
	owner := r.user(t, "Owner")
	tpl := r.template(t, author.ID, "Backend",
		testutil.TemplateSkillDef("First", "", `["A"]`),
		testutil.TemplateSkillDef("Second", "", `["B"]`),
	)
	plan := r.plan(t, owner.ID, "Mine", testutil.WithTemplateID(tpl.ID))
	r.skill(t, plan.ID, "First", testutil.WithTemplateKey("idx-0"), testutil.WithCriteria(`["A"]`))

	report, err := r.syncer().Sync(ctx, tpl)
	require.NoError(t, err)
	assert.Equal(t, 1, report.SkillsCreated)

	keys := skillsByKey(t, r, plan.ID)
	assert.Contains(t, keys, "idx-0")
	assert.Contains(t, keys, "idx-1")
}

func TestTemplateSync_FailingPlanIsRolledBackAndReported(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()
	author := r.user(t, "Author")
	owner := r.user(t, "Owner")
	tpl := r.template(t, author.ID, "Backend", testutil.TemplateSkillDef("Testing", "k1", `["New"]`))

	first := r.plan(t, owner.ID, "First", testutil.WithTemplateID(tpl.ID))
	firstSkill := r.skill(t, first.ID, "Testing", testutil.WithTemplateKey("k1"), testutil.WithCriteria(`["Old"]`))
	second := r.plan(t, owner.ID, "Second", testutil.WithTemplateID(tpl.ID))
	secondSkill := r.skill(t, second.ID, "Testing", testutil.WithTemplateKey("k1"), testutil.WithCriteria(`["Old"]`))
	third := r.plan(t, owner.ID, "Third", testutil.WithTemplateID(tpl.ID))
	thirdSkill := r.skill(t, third.ID, "Testing", testutil.WithTemplateKey("k1"), testutil.WithCriteria(`["Old"]`))

	injected := errors.New("injected")
	uow := &nthTxUoW{
		inner:   r.uow,
		failing: &testutil.FailOnNthExecUoW{DB: r.db, FailOn: 1, Err: injected},
		n:       2,
	}
	report, err := NewTemplateSyncEngine(r.plans, uow, zap.NewNop()).Sync(ctx, tpl)
	require.NoError(t, err)

	assert.Equal(t, 3, report.PlansScanned)
	assert.Equal(t, 2, report.PlansSynced)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, second.ID, report.Failures[0].PlanID)
	assert.ErrorIs(t, report.Failures[0].Err, injected)

	assert.Equal(t, `["Old"]`, r.reload(t, secondSkill.ID).Criteria)
	assert.Equal(t, "New", criteria.Parse(r.reload(t, firstSkill.ID).Criteria)[0].Text)
	assert.Equal(t, "New", criteria.Parse(r.reload(t, thirdSkill.ID).Criteria)[0].Text)
}
