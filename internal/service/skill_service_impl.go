package service

import (
	"context"
	"fmt"

	"github.com/alexanderramin/pdptrack/internal/criteria"
	"github.com/alexanderramin/pdptrack/internal/db"
	"github.com/alexanderramin/pdptrack/internal/domain"
	"github.com/alexanderramin/pdptrack/internal/repository"
	"github.com/google/uuid"
)

type skillService struct {
	skills repository.SkillRepo
	plans  repository.PlanRepo
	uow    db.UnitOfWork
}

func NewSkillService(skills repository.SkillRepo, plans repository.PlanRepo, uow db.UnitOfWork) SkillService {
	return &skillService{skills: skills, plans: plans, uow: uow}
}

func (s *skillService) Create(ctx context.Context, actor, planID string, in SkillInput) (*domain.Skill, error) {
	if _, _, err := authorizedPlan(ctx, s.plans, planID, actor, domain.OpManageSkills); err != nil {
		return nil, err
	}
	if err := requireText("name", in.Name); err != nil {
		return nil, err
	}
	if err := validateETA(in.ETA); err != nil {
		return nil, err
	}
	if in.SortOrder != nil && *in.SortOrder < 0 {
		return nil, fmt.Errorf("sort order must be >= 0: %w", domain.ErrValidation)
	}
	priority, err := domain.ParsePriority(string(in.Priority))
	if err != nil {
		return nil, err
	}
	status, err := domain.ParseStatus(string(in.Status))
	if err != nil {
		return nil, err
	}

	ts := now()
	sk := &domain.Skill{
		ID:          uuid.New().String(),
		PlanID:      planID,
		Name:        in.Name,
		Description: in.Description,
		Criteria:    in.Criteria,
		Priority:    priority,
		ETA:         normalizeETA(in.ETA),
		Status:      status,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txSkills := repository.NewSQLiteSkillRepo(tx)
		if in.SortOrder != nil {
			sk.SortOrder = *in.SortOrder
		} else {
			max, err := txSkills.MaxSortOrder(ctx, planID)
			if err != nil {
				return err
			}
			sk.SortOrder = max + 1
		}
		if err := txSkills.Create(ctx, sk); err != nil {
			return err
		}
		return repository.NewSQLitePlanRepo(tx).Touch(ctx, planID, ts)
	})
	if err != nil {
		return nil, err
	}
	return sk, nil
}

func (s *skillService) Get(ctx context.Context, actor, skillID string) (*domain.Skill, error) {
	sk, _, err := authorizedSkill(ctx, s.skills, s.plans, skillID, actor, domain.OpViewPlan)
	return sk, err
}

func (s *skillService) ListByPlan(ctx context.Context, actor, planID string) ([]*domain.Skill, error) {
	if _, _, err := authorizedPlan(ctx, s.plans, planID, actor, domain.OpViewPlan); err != nil {
		return nil, err
	}
	return s.skills.ListByPlan(ctx, planID)
}

// Update applies field changes as given. Status is not re-derived from the
// criteria here.
func (s *skillService) Update(ctx context.Context, actor, skillID string, upd SkillUpdate) (*domain.Skill, error) {
	sk, _, err := authorizedSkill(ctx, s.skills, s.plans, skillID, actor, domain.OpManageSkills)
	if err != nil {
		return nil, err
	}

	if upd.Name != nil {
		if err := requireText("name", *upd.Name); err != nil {
			return nil, err
		}
		sk.Name = *upd.Name
	}
	if upd.Description != nil {
		sk.Description = *upd.Description
	}
	if upd.Criteria != nil {
		sk.Criteria = *upd.Criteria
	}
	if upd.Priority != nil {
		if sk.Priority, err = domain.ParsePriority(string(*upd.Priority)); err != nil {
			return nil, err
		}
	}
	if upd.ETA != nil {
		if err := validateETA(upd.ETA); err != nil {
			return nil, err
		}
		sk.ETA = normalizeETA(upd.ETA)
	}
	if upd.Status != nil {
		if sk.Status, err = domain.ParseStatus(string(*upd.Status)); err != nil {
			return nil, err
		}
	}
	if upd.SortOrder != nil {
		if *upd.SortOrder < 0 {
			return nil, fmt.Errorf("sort order must be >= 0: %w", domain.ErrValidation)
		}
		sk.SortOrder = *upd.SortOrder
	}

	if err := s.save(ctx, sk); err != nil {
		return nil, err
	}
	return sk, nil
}

func (s *skillService) Delete(ctx context.Context, actor, skillID string) error {
	sk, _, err := authorizedSkill(ctx, s.skills, s.plans, skillID, actor, domain.OpManageSkills)
	if err != nil {
		return err
	}
	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		if err := repository.NewSQLiteSkillRepo(tx).Delete(ctx, sk.ID); err != nil {
			return err
		}
		return repository.NewSQLitePlanRepo(tx).Touch(ctx, sk.PlanID, now())
	})
}

// SetManualOverride detaches the skill from template sync, or reattaches it.
func (s *skillService) SetManualOverride(ctx context.Context, actor, skillID string, on bool) (*domain.Skill, error) {
	sk, _, err := authorizedSkill(ctx, s.skills, s.plans, skillID, actor, domain.OpManageSkills)
	if err != nil {
		return nil, err
	}
	if sk.ManualOverride == on {
		return sk, nil
	}
	sk.ManualOverride = on
	if err := s.save(ctx, sk); err != nil {
		return nil, err
	}
	return sk, nil
}

// ToggleCriterionDone sets one criterion's done flag and derives the skill
// status from the result.
func (s *skillService) ToggleCriterionDone(ctx context.Context, actor, skillID string, index int, done bool) (*domain.Skill, error) {
	sk, _, err := authorizedSkill(ctx, s.skills, s.plans, skillID, actor, domain.OpEditCriteria)
	if err != nil {
		return nil, err
	}
	items := criteria.Parse(sk.Criteria)
	if err := criteria.CheckIndex(items, index); err != nil {
		return nil, err
	}

	items[index].Done = done
	sk.Criteria = criteria.Serialize(items)
	sk.Status = domain.StatusForCriteria(sk.Status, len(items), criteria.DoneCount(items))

	if err := s.save(ctx, sk); err != nil {
		return nil, err
	}
	return sk, nil
}

// UpdateCriterionComment sets or, with a blank comment, clears one
// criterion's comment.
func (s *skillService) UpdateCriterionComment(ctx context.Context, actor, skillID string, index int, comment string) (*domain.Skill, error) {
	sk, _, err := authorizedSkill(ctx, s.skills, s.plans, skillID, actor, domain.OpEditCriteria)
	if err != nil {
		return nil, err
	}
	items := criteria.Parse(sk.Criteria)
	if err := criteria.CheckIndex(items, index); err != nil {
		return nil, err
	}

	items[index].Comment = criteria.NormalizeComment(comment)
	sk.Criteria = criteria.Serialize(items)

	if err := s.save(ctx, sk); err != nil {
		return nil, err
	}
	return sk, nil
}

func (s *skillService) save(ctx context.Context, sk *domain.Skill) error {
	sk.UpdatedAt = now()
	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		if err := repository.NewSQLiteSkillRepo(tx).Update(ctx, sk); err != nil {
			return err
		}
		return repository.NewSQLitePlanRepo(tx).Touch(ctx, sk.PlanID, sk.UpdatedAt)
	})
}
