package service

import (
	"context"
	"testing"
	"time"

	"github.com/alexanderramin/pdptrack/internal/domain"
	"github.com/alexanderramin/pdptrack/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type progressFixture struct {
	r        *testRepos
	svc      ProgressService
	owner    *domain.User
	curator  *domain.User
	stranger *domain.User
	plan     *domain.Plan
	skill    *domain.Skill
}

func newProgressFixture(t *testing.T) *progressFixture {
	t.Helper()
	r := setupRepos(t)
	f := &progressFixture{
		r:        r,
		svc:      NewProgressService(r.entries, r.skills, r.plans, 0),
		owner:    r.user(t, "Owner"),
		curator:  r.user(t, "Curator"),
		stranger: r.user(t, "Stranger"),
	}
	f.plan = r.plan(t, f.owner.ID, "Backend")
	r.curate(t, f.plan.ID, f.curator.ID)
	f.skill = r.skill(t, f.plan.ID, "Go", testutil.WithCriteria(`["Channels","Generics"]`))
	return f
}

func (f *progressFixture) ref(i int) CriterionRef {
	return CriterionRef{SkillID: f.skill.ID, Index: i}
}

func TestProgressService_AddAndList(t *testing.T) {
	f := newProgressFixture(t)
	ctx := context.Background()

	e, err := f.svc.Add(ctx, f.owner.ID, f.ref(1), "wrote a worker pool")
	require.NoError(t, err)
	assert.False(t, e.Approved)
	assert.Nil(t, e.ApprovedAt)
	assert.Equal(t, f.owner.ID, e.AuthorID)

	list, err := f.svc.List(ctx, f.curator.ID, f.ref(1))
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, e.ID, list[0].ID)

	list, err = f.svc.List(ctx, f.owner.ID, f.ref(0))
	require.NoError(t, err)
	assert.Empty(t, list)

	approved, err := f.svc.ListApproved(ctx, f.owner.ID, f.ref(1))
	require.NoError(t, err)
	assert.Empty(t, approved)
}

func TestProgressService_Add_Validation(t *testing.T) {
	f := newProgressFixture(t)
	ctx := context.Background()

	_, err := f.svc.Add(ctx, f.owner.ID, f.ref(0), "  ")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.Add(ctx, f.owner.ID, f.ref(2), "note")
	assert.ErrorIs(t, err, domain.ErrInvalidIndex)

	_, err = f.svc.Add(ctx, f.owner.ID, f.ref(-1), "note")
	assert.ErrorIs(t, err, domain.ErrInvalidIndex)

	_, err = f.svc.Add(ctx, f.owner.ID, CriterionRef{SkillID: "missing"}, "note")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProgressService_RoleSeparation(t *testing.T) {
	f := newProgressFixture(t)
	ctx := context.Background()
	e := f.r.entry(t, f.skill.ID, 0, f.owner.ID)

	_, err := f.svc.Add(ctx, f.curator.ID, f.ref(0), "note")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	assert.ErrorIs(t, f.svc.Delete(ctx, f.curator.ID, f.ref(0), e.ID), domain.ErrForbidden)

	_, err = f.svc.UpdateNote(ctx, f.curator.ID, f.ref(0), e.ID, "changed")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.svc.Approve(ctx, f.owner.ID, f.ref(0), e.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden, "owners never approve their own progress")

	_, err = f.svc.SetCuratorComment(ctx, f.owner.ID, f.ref(0), e.ID, "hmm")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.svc.List(ctx, f.stranger.ID, f.ref(0))
	assert.ErrorIs(t, err, domain.ErrForbidden)

	// A bad index does not leak past the role check.
	_, err = f.svc.Approve(ctx, f.stranger.ID, f.ref(9), e.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestProgressService_OwnerCuratingElsewhereStillCannotApproveOwnPlan(t *testing.T) {
	f := newProgressFixture(t)
	ctx := context.Background()

	other := f.r.plan(t, f.curator.ID, "Curator's plan")
	f.r.curate(t, other.ID, f.owner.ID)
	e := f.r.entry(t, f.skill.ID, 0, f.owner.ID)

	_, err := f.svc.Approve(ctx, f.owner.ID, f.ref(0), e.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestProgressService_EntryMismatch(t *testing.T) {
	f := newProgressFixture(t)
	ctx := context.Background()
	e := f.r.entry(t, f.skill.ID, 0, f.owner.ID)
	otherSkill := f.r.skill(t, f.plan.ID, "SQL", testutil.WithCriteria(`["Joins"]`))

	_, err := f.svc.Approve(ctx, f.curator.ID, f.ref(1), e.ID)
	assert.ErrorIs(t, err, domain.ErrEntryMismatch)

	_, err = f.svc.Approve(ctx, f.curator.ID, CriterionRef{SkillID: otherSkill.ID, Index: 0}, e.ID)
	assert.ErrorIs(t, err, domain.ErrEntryMismatch)

	assert.ErrorIs(t, f.svc.Delete(ctx, f.owner.ID, f.ref(1), e.ID), domain.ErrEntryMismatch)

	_, err = f.svc.Approve(ctx, f.curator.ID, f.ref(0), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Index is checked before the entry is loaded.
	_, err = f.svc.Approve(ctx, f.curator.ID, f.ref(5), "missing")
	assert.ErrorIs(t, err, domain.ErrInvalidIndex)
}

func TestProgressService_Approve(t *testing.T) {
	f := newProgressFixture(t)
	ctx := context.Background()
	e := f.r.entry(t, f.skill.ID, 1, f.owner.ID)

	before := now()
	got, err := f.svc.Approve(ctx, f.curator.ID, f.ref(1), e.ID)
	require.NoError(t, err)
	assert.True(t, got.Approved)
	require.NotNil(t, got.ApprovedAt)
	assert.False(t, got.ApprovedAt.Before(before))
	first := *got.ApprovedAt

	time.Sleep(2 * time.Millisecond)
	again, err := f.svc.Approve(ctx, f.curator.ID, f.ref(1), e.ID)
	require.NoError(t, err)
	assert.True(t, again.ApprovedAt.Equal(first))

	approved, err := f.svc.ListApproved(ctx, f.owner.ID, f.ref(1))
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.True(t, approved[0].ApprovedAt.Equal(first))
}

func TestProgressService_UpdateNote(t *testing.T) {
	f := newProgressFixture(t)
	ctx := context.Background()
	e := f.r.entry(t, f.skill.ID, 0, f.owner.ID)

	got, err := f.svc.UpdateNote(ctx, f.owner.ID, f.ref(0), e.ID, "rewritten")
	require.NoError(t, err)
	assert.Equal(t, "rewritten", got.Note)

	_, err = f.svc.UpdateNote(ctx, f.owner.ID, f.ref(0), e.ID, "")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.Approve(ctx, f.curator.ID, f.ref(0), e.ID)
	require.NoError(t, err)

	_, err = f.svc.UpdateNote(ctx, f.owner.ID, f.ref(0), e.ID, "too late")
	assert.ErrorIs(t, err, domain.ErrImmutable)
}

func TestProgressService_CuratorComment(t *testing.T) {
	f := newProgressFixture(t)
	ctx := context.Background()
	e := f.r.entry(t, f.skill.ID, 0, f.owner.ID)

	got, err := f.svc.SetCuratorComment(ctx, f.curator.ID, f.ref(0), e.ID, "add a benchmark")
	require.NoError(t, err)
	require.NotNil(t, got.CuratorComment)
	assert.Equal(t, "add a benchmark", *got.CuratorComment)

	got, err = f.svc.SetCuratorComment(ctx, f.curator.ID, f.ref(0), e.ID, " ")
	require.NoError(t, err)
	assert.Nil(t, got.CuratorComment)
}

func TestProgressService_Delete(t *testing.T) {
	f := newProgressFixture(t)
	ctx := context.Background()
	e := f.r.entry(t, f.skill.ID, 0, f.owner.ID)

	require.NoError(t, f.svc.Delete(ctx, f.owner.ID, f.ref(0), e.ID))
	_, err := f.r.entries.GetByID(ctx, e.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProgressService_Pending(t *testing.T) {
	f := newProgressFixture(t)
	ctx := context.Background()

	f.r.entry(t, f.skill.ID, 1, f.owner.ID, testutil.WithNote("pending one"))
	f.r.entry(t, f.skill.ID, 0, f.owner.ID, testutil.WithApprovedAt(now()))
	stale := f.r.skill(t, f.plan.ID, "Shrunk", testutil.WithCriteria(`["Only"]`))
	f.r.entry(t, stale.ID, 3, f.owner.ID)

	// The curator's own plan never shows up in their queue.
	own := f.r.plan(t, f.curator.ID, "Own")
	ownSkill := f.r.skill(t, own.ID, "X", testutil.WithCriteria(`["x"]`))
	f.r.entry(t, ownSkill.ID, 0, f.curator.ID)

	items, err := f.svc.Pending(ctx, f.curator.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "pending one", items[0].Entry.Note)
	assert.Equal(t, "Generics", items[0].CriterionText)
	assert.Equal(t, f.plan.ID, items[0].PlanID)
	assert.Equal(t, f.owner.Name, items[0].OwnerName)
	assert.Empty(t, items[1].CriterionText)

	none, err := f.svc.Pending(ctx, f.owner.ID)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestProgressService_PendingLimit(t *testing.T) {
	f := newProgressFixture(t)
	svc := NewProgressService(f.r.entries, f.r.skills, f.r.plans, 2)
	for range 3 {
		f.r.entry(t, f.skill.ID, 0, f.owner.ID)
	}

	items, err := svc.Pending(context.Background(), f.curator.ID)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}
