package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexanderramin/pdptrack/internal/criteria"
	"github.com/alexanderramin/pdptrack/internal/domain"
	"github.com/alexanderramin/pdptrack/internal/repository"
	"github.com/google/uuid"
)

type progressService struct {
	entries      repository.ProgressRepo
	skills       repository.SkillRepo
	plans        repository.PlanRepo
	pendingLimit int
}

func NewProgressService(
	entries repository.ProgressRepo,
	skills repository.SkillRepo,
	plans repository.PlanRepo,
	pendingLimit int,
) ProgressService {
	if pendingLimit <= 0 {
		pendingLimit = 100
	}
	return &progressService{entries: entries, skills: skills, plans: plans, pendingLimit: pendingLimit}
}

// criterion resolves ref for op: the skill must exist, the actor must hold a
// role allowed for op on its plan, and the index must address a criterion.
func (s *progressService) criterion(ctx context.Context, actor string, ref CriterionRef, op domain.Operation) (*domain.Skill, error) {
	sk, _, err := authorizedSkill(ctx, s.skills, s.plans, ref.SkillID, actor, op)
	if err != nil {
		return nil, err
	}
	if err := criteria.CheckIndex(criteria.Parse(sk.Criteria), ref.Index); err != nil {
		return nil, err
	}
	return sk, nil
}

// entry resolves ref and loads an entry that must be recorded against it.
func (s *progressService) entry(ctx context.Context, actor string, ref CriterionRef, entryID string, op domain.Operation) (*domain.ProgressEntry, error) {
	if _, err := s.criterion(ctx, actor, ref, op); err != nil {
		return nil, err
	}
	e, err := s.entries.GetByID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if !e.BelongsTo(ref.SkillID, ref.Index) {
		return nil, fmt.Errorf("entry %s: %w", entryID, domain.ErrEntryMismatch)
	}
	return e, nil
}

func (s *progressService) Add(ctx context.Context, actor string, ref CriterionRef, note string) (*domain.ProgressEntry, error) {
	if _, err := s.criterion(ctx, actor, ref, domain.OpAddProgress); err != nil {
		return nil, err
	}
	if strings.TrimSpace(note) == "" {
		return nil, fmt.Errorf("note is required: %w", domain.ErrValidation)
	}

	ts := now()
	e := &domain.ProgressEntry{
		ID:             uuid.New().String(),
		SkillID:        ref.SkillID,
		CriterionIndex: ref.Index,
		AuthorID:       actor,
		Note:           note,
		CreatedAt:      ts,
		UpdatedAt:      ts,
	}
	if err := s.entries.Create(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *progressService) Delete(ctx context.Context, actor string, ref CriterionRef, entryID string) error {
	e, err := s.entry(ctx, actor, ref, entryID, domain.OpDeleteProgress)
	if err != nil {
		return err
	}
	return s.entries.Delete(ctx, e.ID)
}

// Approve marks the entry approved. Approving twice keeps the first
// approval time.
func (s *progressService) Approve(ctx context.Context, actor string, ref CriterionRef, entryID string) (*domain.ProgressEntry, error) {
	e, err := s.entry(ctx, actor, ref, entryID, domain.OpApproveProgress)
	if err != nil {
		return nil, err
	}
	if e.Approved {
		return e, nil
	}

	ts := now()
	e.Approved = true
	e.ApprovedAt = &ts
	e.UpdatedAt = ts
	if err := s.entries.Update(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *progressService) SetCuratorComment(ctx context.Context, actor string, ref CriterionRef, entryID, comment string) (*domain.ProgressEntry, error) {
	e, err := s.entry(ctx, actor, ref, entryID, domain.OpCommentProgress)
	if err != nil {
		return nil, err
	}

	e.CuratorComment = criteria.NormalizeComment(comment)
	e.UpdatedAt = now()
	if err := s.entries.Update(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *progressService) UpdateNote(ctx context.Context, actor string, ref CriterionRef, entryID, note string) (*domain.ProgressEntry, error) {
	e, err := s.entry(ctx, actor, ref, entryID, domain.OpEditNote)
	if err != nil {
		return nil, err
	}
	if e.Approved {
		return nil, fmt.Errorf("entry %s is approved: %w", e.ID, domain.ErrImmutable)
	}
	if strings.TrimSpace(note) == "" {
		return nil, fmt.Errorf("note is required: %w", domain.ErrValidation)
	}

	e.Note = note
	e.UpdatedAt = now()
	if err := s.entries.Update(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *progressService) List(ctx context.Context, actor string, ref CriterionRef) ([]*domain.ProgressEntry, error) {
	if _, err := s.criterion(ctx, actor, ref, domain.OpViewProgress); err != nil {
		return nil, err
	}
	return s.entries.ListByCriterion(ctx, ref.SkillID, ref.Index)
}

func (s *progressService) ListApproved(ctx context.Context, actor string, ref CriterionRef) ([]*domain.ProgressEntry, error) {
	if _, err := s.criterion(ctx, actor, ref, domain.OpViewProgress); err != nil {
		return nil, err
	}
	return s.entries.ListApprovedByCriterion(ctx, ref.SkillID, ref.Index)
}

// Pending lists unapproved entries on every plan the actor curates, oldest
// first. Entries whose index no longer addresses a criterion get empty text.
func (s *progressService) Pending(ctx context.Context, actor string) ([]PendingItem, error) {
	rows, err := s.entries.ListPendingForCurator(ctx, actor, s.pendingLimit)
	if err != nil {
		return nil, err
	}
	out := make([]PendingItem, 0, len(rows))
	for _, r := range rows {
		item := PendingItem{PendingApproval: r}
		items := criteria.Parse(r.Criteria)
		if criteria.CheckIndex(items, r.Entry.CriterionIndex) == nil {
			item.CriterionText = items[r.Entry.CriterionIndex].Text
		}
		out = append(out, item)
	}
	return out, nil
}
