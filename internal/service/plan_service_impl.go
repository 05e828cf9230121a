package service

import (
	"context"
	"fmt"
	"time"

	"github.com/alexanderramin/pdptrack/internal/criteria"
	"github.com/alexanderramin/pdptrack/internal/db"
	"github.com/alexanderramin/pdptrack/internal/domain"
	"github.com/alexanderramin/pdptrack/internal/importer"
	"github.com/alexanderramin/pdptrack/internal/repository"
	"github.com/google/uuid"
)

type planService struct {
	plans    repository.PlanRepo
	skills   repository.SkillRepo
	users    repository.UserRepo
	uow      db.UnitOfWork
	observer UseCaseObserver
}

func NewPlanService(
	plans repository.PlanRepo,
	skills repository.SkillRepo,
	users repository.UserRepo,
	uow db.UnitOfWork,
	observers ...UseCaseObserver,
) PlanService {
	return &planService{
		plans:    plans,
		skills:   skills,
		users:    users,
		uow:      uow,
		observer: useCaseObserverOrNoop(observers),
	}
}

func (s *planService) Create(ctx context.Context, actor string, in PlanInput) (*domain.Plan, error) {
	if _, err := s.users.GetByID(ctx, actor); err != nil {
		return nil, err
	}
	if err := requireText("title", in.Title); err != nil {
		return nil, err
	}
	if err := validateETA(in.ETA); err != nil {
		return nil, err
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
	p := &domain.Plan{
		ID:          uuid.New().String(),
		OwnerID:     actor,
		Title:       in.Title,
		Description: in.Description,
		Priority:    priority,
		ETA:         normalizeETA(in.ETA),
		Status:      status,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
	if err := s.plans.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *planService) Get(ctx context.Context, actor, planID string) (*domain.Plan, error) {
	p, _, err := authorizedPlan(ctx, s.plans, planID, actor, domain.OpViewPlan)
	return p, err
}

func (s *planService) ListOwned(ctx context.Context, actor string) ([]*domain.Plan, error) {
	return s.plans.ListByOwner(ctx, actor)
}

// ListShared returns plans the actor curates but does not own.
func (s *planService) ListShared(ctx context.Context, actor string) ([]*domain.Plan, error) {
	return s.plans.ListByCurator(ctx, actor)
}

func (s *planService) Update(ctx context.Context, actor, planID string, upd PlanUpdate) (*domain.Plan, error) {
	p, _, err := authorizedPlan(ctx, s.plans, planID, actor, domain.OpUpdatePlan)
	if err != nil {
		return nil, err
	}

	if upd.Title != nil {
		if err := requireText("title", *upd.Title); err != nil {
			return nil, err
		}
		p.Title = *upd.Title
	}
	if upd.Description != nil {
		p.Description = *upd.Description
	}
	if upd.Priority != nil {
		if p.Priority, err = domain.ParsePriority(string(*upd.Priority)); err != nil {
			return nil, err
		}
	}
	if upd.ETA != nil {
		if err := validateETA(upd.ETA); err != nil {
			return nil, err
		}
		p.ETA = normalizeETA(upd.ETA)
	}
	if upd.Status != nil {
		if p.Status, err = domain.ParseStatus(string(*upd.Status)); err != nil {
			return nil, err
		}
	}

	p.UpdatedAt = now()
	if err := s.plans.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *planService) Delete(ctx context.Context, actor, planID string) error {
	if _, _, err := authorizedPlan(ctx, s.plans, planID, actor, domain.OpDeletePlan); err != nil {
		return err
	}
	return s.plans.Delete(ctx, planID)
}

// AddCurator is idempotent. Naming the owner is accepted and ignored.
func (s *planService) AddCurator(ctx context.Context, actor, planID, userID string) error {
	p, _, err := authorizedPlan(ctx, s.plans, planID, actor, domain.OpManageCurators)
	if err != nil {
		return err
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return err
	}
	if userID == p.OwnerID {
		return nil
	}
	return s.plans.AddCurator(ctx, planID, userID)
}

func (s *planService) RemoveCurator(ctx context.Context, actor, planID, userID string) error {
	p, _, err := authorizedPlan(ctx, s.plans, planID, actor, domain.OpManageCurators)
	if err != nil {
		return err
	}
	if userID == p.OwnerID {
		return fmt.Errorf("cannot remove the owner from curators: %w", domain.ErrValidation)
	}
	return s.plans.RemoveCurator(ctx, planID, userID)
}

func (s *planService) ListCurators(ctx context.Context, actor, planID string) ([]*domain.User, error) {
	if _, _, err := authorizedPlan(ctx, s.plans, planID, actor, domain.OpManageCurators); err != nil {
		return nil, err
	}
	return s.plans.ListCurators(ctx, planID)
}

func (s *planService) Export(ctx context.Context, actor, planID string, mode importer.ExportMode) (*importer.Document, error) {
	p, _, err := authorizedPlan(ctx, s.plans, planID, actor, domain.OpExportPlan)
	if err != nil {
		return nil, err
	}
	switch mode {
	case importer.ExportTemplate, importer.ExportFull:
	default:
		return nil, fmt.Errorf("export mode %q: %w", mode, domain.ErrValidation)
	}
	skills, err := s.skills.ListByPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	return importer.FromPlan(p, skills, mode), nil
}

// Import recreates a document as a new plan owned by the actor. Imported
// skills are never linked to a template.
func (s *planService) Import(ctx context.Context, actor string, doc *importer.Document) (res *ImportResult, err error) {
	defer observe(ctx, s.observer, "plan.import", time.Now(), &err, map[string]any{"skills": len(doc.Skills)})

	if _, err := s.users.GetByID(ctx, actor); err != nil {
		return nil, err
	}
	if err := validationErrors(importer.ValidateDocument(doc)); err != nil {
		return nil, err
	}

	plan, skills := importer.ToPlan(doc, actor, now())
	if err := s.persist(ctx, plan, skills); err != nil {
		return nil, err
	}
	return &ImportResult{Plan: plan, Skills: skills}, nil
}

// Transfer copies the plan to another user with the timeline reset and
// every criterion unchecked. The source plan is untouched.
func (s *planService) Transfer(ctx context.Context, actor, planID, targetUserID string) (res *ImportResult, err error) {
	defer observe(ctx, s.observer, "plan.transfer", time.Now(), &err, map[string]any{"plan_id": planID})

	src, _, err := authorizedPlan(ctx, s.plans, planID, actor, domain.OpTransferPlan)
	if err != nil {
		return nil, err
	}
	if targetUserID == src.OwnerID {
		return nil, fmt.Errorf("cannot transfer to the same owner: %w", domain.ErrValidation)
	}
	if _, err := s.users.GetByID(ctx, targetUserID); err != nil {
		return nil, err
	}
	srcSkills, err := s.skills.ListByPlan(ctx, planID)
	if err != nil {
		return nil, err
	}

	ts := now()
	plan := &domain.Plan{
		ID:          uuid.New().String(),
		OwnerID:     targetUserID,
		Title:       src.Title,
		Description: src.Description,
		Priority:    src.Priority,
		Status:      domain.StatusPlanned,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
	skills := make([]*domain.Skill, 0, len(srcSkills))
	for _, sk := range srcSkills {
		skills = append(skills, &domain.Skill{
			ID:          uuid.New().String(),
			PlanID:      plan.ID,
			Name:        sk.Name,
			Description: sk.Description,
			Criteria:    criteria.ResetProgress(sk.Criteria),
			Priority:    sk.Priority,
			Status:      domain.StatusPlanned,
			SortOrder:   sk.SortOrder,
			CreatedAt:   ts,
			UpdatedAt:   ts,
		})
	}

	if err := s.persist(ctx, plan, skills); err != nil {
		return nil, err
	}
	return &ImportResult{Plan: plan, Skills: skills}, nil
}

func (s *planService) persist(ctx context.Context, plan *domain.Plan, skills []*domain.Skill) error {
	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txPlans := repository.NewSQLitePlanRepo(tx)
		txSkills := repository.NewSQLiteSkillRepo(tx)

		if err := txPlans.Create(ctx, plan); err != nil {
			return fmt.Errorf("creating plan: %w", err)
		}
		for _, sk := range skills {
			if err := txSkills.Create(ctx, sk); err != nil {
				return fmt.Errorf("creating skill %q: %w", sk.Name, err)
			}
		}
		return nil
	})
}
