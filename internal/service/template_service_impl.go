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

type templateService struct {
	templates  repository.TemplateRepo
	plans      repository.PlanRepo
	skills     repository.SkillRepo
	users      repository.UserRepo
	uow        db.UnitOfWork
	syncer     TemplateSyncer
	syncOnSave bool
	observer   UseCaseObserver
}

func NewTemplateService(
	templates repository.TemplateRepo,
	plans repository.PlanRepo,
	skills repository.SkillRepo,
	users repository.UserRepo,
	uow db.UnitOfWork,
	syncer TemplateSyncer,
	syncOnSave bool,
	observers ...UseCaseObserver,
) TemplateService {
	return &templateService{
		templates:  templates,
		plans:      plans,
		skills:     skills,
		users:      users,
		uow:        uow,
		syncer:     syncer,
		syncOnSave: syncOnSave,
		observer:   useCaseObserverOrNoop(observers),
	}
}

// Create stores a new published template. Skills without a key get a
// generated one; skill target dates and statuses are not part of a template.
func (s *templateService) Create(ctx context.Context, actor string, doc *importer.Document) (*domain.Template, error) {
	if _, err := s.users.GetByID(ctx, actor); err != nil {
		return nil, err
	}
	if err := validationErrors(importer.ValidateDocument(doc)); err != nil {
		return nil, err
	}

	data := importer.ToTemplateData(doc)
	normalizeTemplateData(&data, nil)

	ts := now()
	t := &domain.Template{
		ID:          uuid.New().String(),
		OwnerID:     actor,
		Title:       data.Plan.Title,
		Description: data.Plan.Description,
		Published:   true,
		Data:        data,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
	if err := s.templates.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *templateService) Get(ctx context.Context, actor, templateID string) (*domain.Template, error) {
	return s.owned(ctx, actor, templateID)
}

func (s *templateService) ListPublished(ctx context.Context) ([]*domain.Template, error) {
	return s.templates.ListPublished(ctx)
}

// Update replaces the template definition and, when sync on save is enabled,
// pushes it into every derived plan.
func (s *templateService) Update(ctx context.Context, actor, templateID string, doc *importer.Document) (res *TemplateUpdateResult, err error) {
	defer observe(ctx, s.observer, "template.update", time.Now(), &err, map[string]any{"template_id": templateID})

	t, err := s.owned(ctx, actor, templateID)
	if err != nil {
		return nil, err
	}
	if err := validationErrors(importer.ValidateDocument(doc)); err != nil {
		return nil, err
	}

	prev := t.Data
	data := importer.ToTemplateData(doc)
	if data.Version == 0 {
		data.Version = prev.Version
	}
	normalizeTemplateData(&data, &prev)

	t.Title = data.Plan.Title
	t.Description = data.Plan.Description
	t.Data = data
	t.UpdatedAt = now()
	if err := s.templates.Update(ctx, t); err != nil {
		return nil, err
	}

	res = &TemplateUpdateResult{Template: t}
	if s.syncOnSave {
		if res.Sync, err = s.syncer.Sync(ctx, t); err != nil {
			return res, err
		}
	}
	return res, nil
}

// Delete removes the template. Skills carrying any of its keys are removed
// from every plan unless manually overridden, and linked plans are
// detached.
func (s *templateService) Delete(ctx context.Context, actor, templateID string) (res *TemplateDeleteResult, err error) {
	defer observe(ctx, s.observer, "template.delete", time.Now(), &err, map[string]any{"template_id": templateID})

	t, err := s.owned(ctx, actor, templateID)
	if err != nil {
		return nil, err
	}

	res = &TemplateDeleteResult{}
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		var err error
		if res.SkillsDeleted, err = repository.NewSQLiteSkillRepo(tx).DeleteUnmanagedByKeys(ctx, t.Data.Keys()); err != nil {
			return err
		}
		if res.PlansUnlinked, err = repository.NewSQLitePlanRepo(tx).UnlinkTemplate(ctx, t.ID); err != nil {
			return err
		}
		return repository.NewSQLiteTemplateRepo(tx).Delete(ctx, t.ID)
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *templateService) Sync(ctx context.Context, actor, templateID string) (*SyncReport, error) {
	t, err := s.owned(ctx, actor, templateID)
	if err != nil {
		return nil, err
	}
	return s.syncer.Sync(ctx, t)
}

// Assign instantiates a published template as a new plan owned by actor and
// linked to the template.
func (s *templateService) Assign(ctx context.Context, actor, templateID string) (res *ImportResult, err error) {
	defer observe(ctx, s.observer, "template.assign", time.Now(), &err, map[string]any{"template_id": templateID})

	if _, err := s.users.GetByID(ctx, actor); err != nil {
		return nil, err
	}
	t, err := s.published(ctx, templateID)
	if err != nil {
		return nil, err
	}

	ts := now()
	d := t.Data
	tid := t.ID
	plan := &domain.Plan{
		ID:          uuid.New().String(),
		OwnerID:     actor,
		Title:       domain.CoalesceStr(d.Plan.Title, t.Title, "PDP Template"),
		Description: d.Plan.Description,
		Priority:    priorityOrMedium(d.Plan.Priority),
		ETA:         d.Plan.ETA,
		Status:      statusOrPlanned(d.Plan.Status),
		TemplateID:  &tid,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
	skills := make([]*domain.Skill, 0, len(d.Skills))
	for i := range d.Skills {
		skills = append(skills, skillFromTemplate(plan.ID, &d, i, d.SkillOrder(i), ts))
	}

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		if err := repository.NewSQLitePlanRepo(tx).Create(ctx, plan); err != nil {
			return fmt.Errorf("creating plan: %w", err)
		}
		txSkills := repository.NewSQLiteSkillRepo(tx)
		for _, sk := range skills {
			if err := txSkills.Create(ctx, sk); err != nil {
				return fmt.Errorf("creating skill %q: %w", sk.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &ImportResult{Plan: plan, Skills: skills}, nil
}

// Compose adds the template's skills that the plan does not already carry,
// optionally restricted to keys. The plan's template link is left as is, so
// a plan can be composed from several templates.
func (s *templateService) Compose(ctx context.Context, actor, planID, templateID string, keys []string) (res *ComposeResult, err error) {
	defer observe(ctx, s.observer, "template.compose", time.Now(), &err, map[string]any{
		"template_id": templateID,
		"plan_id":     planID,
	})

	plan, _, err := authorizedPlan(ctx, s.plans, planID, actor, domain.OpComposePlan)
	if err != nil {
		return nil, err
	}
	if plan.IsFinalized() {
		return nil, fmt.Errorf("plan %s is finalized: %w", plan.ID, domain.ErrImmutable)
	}
	t, err := s.published(ctx, templateID)
	if err != nil {
		return nil, err
	}

	var only map[string]bool
	if keys != nil {
		only = make(map[string]bool, len(keys))
		for _, k := range keys {
			only[k] = true
		}
	}

	res = &ComposeResult{PlanID: plan.ID}
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txSkills := repository.NewSQLiteSkillRepo(tx)
		existing, err := txSkills.ListByPlan(ctx, plan.ID)
		if err != nil {
			return err
		}
		have := make(map[string]bool, len(existing))
		for _, sk := range existing {
			if sk.TemplateSkillKey != nil {
				have[*sk.TemplateSkillKey] = true
			}
		}
		maxOrder, err := txSkills.MaxSortOrder(ctx, plan.ID)
		if err != nil {
			return err
		}

		ts := now()
		d := t.Data
		for i := range d.Skills {
			key := d.SkillKey(i)
			if only != nil && !only[key] {
				continue
			}
			if have[key] {
				continue
			}
			maxOrder++
			sk := skillFromTemplate(plan.ID, &d, i, domain.IntFromPtrWithDefault(maxOrder, d.Skills[i].Order), ts)
			if err := txSkills.Create(ctx, sk); err != nil {
				return fmt.Errorf("creating skill %q: %w", sk.Name, err)
			}
			have[key] = true
			res.Added = append(res.Added, sk)
		}
		if len(res.Added) == 0 {
			return nil
		}
		return repository.NewSQLitePlanRepo(tx).Touch(ctx, plan.ID, ts)
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *templateService) owned(ctx context.Context, actor, templateID string) (*domain.Template, error) {
	t, err := s.templates.GetByID(ctx, templateID)
	if err != nil {
		return nil, err
	}
	if t.OwnerID != actor {
		return nil, fmt.Errorf("template %s: %w", templateID, domain.ErrForbidden)
	}
	return t, nil
}

func (s *templateService) published(ctx context.Context, templateID string) (*domain.Template, error) {
	t, err := s.templates.GetByID(ctx, templateID)
	if err != nil {
		return nil, err
	}
	if !t.Published {
		return nil, fmt.Errorf("template %s: %w", templateID, domain.ErrNotFound)
	}
	return t, nil
}

// normalizeTemplateData applies template defaults in place. Keyless skills
// get a fresh key, except that on update a position whose stored skill was
// itself keyless keeps the synthetic key plans were linked with.
func normalizeTemplateData(d *domain.TemplateData, prev *domain.TemplateData) {
	if d.Version == 0 {
		d.Version = domain.TemplatePayloadVersion
	}
	d.Plan.Priority = priorityOrMedium(d.Plan.Priority)
	d.Plan.Status = statusOrPlanned(d.Plan.Status)

	for i := range d.Skills {
		sk := &d.Skills[i]
		sk.Priority = priorityOrMedium(sk.Priority)
		sk.ETA = nil
		sk.Status = domain.StatusPlanned
		if sk.Order == nil {
			order := i
			sk.Order = &order
		}
		if sk.Key != nil && *sk.Key != "" {
			continue
		}
		key := uuid.New().String()
		if prev != nil && i < len(prev.Skills) && (prev.Skills[i].Key == nil || *prev.Skills[i].Key == "") {
			key = domain.SyntheticSkillKey(i)
		}
		sk.Key = &key
	}
}

// skillFromTemplate builds a plan skill from a template definition. Criteria
// are stored normalized, the same form sync writes, so the skill reports
// completion from done flags however it entered the plan.
func skillFromTemplate(planID string, d *domain.TemplateData, i, order int, ts time.Time) *domain.Skill {
	def := d.Skills[i]
	key := d.SkillKey(i)
	return &domain.Skill{
		ID:               uuid.New().String(),
		PlanID:           planID,
		Name:             def.Name,
		Description:      def.Description,
		Criteria:         criteria.Merge("", def.Criteria),
		Priority:         priorityOrMedium(def.Priority),
		ETA:              def.ETA,
		Status:           statusOrPlanned(def.Status),
		SortOrder:        order,
		TemplateSkillKey: &key,
		CreatedAt:        ts,
		UpdatedAt:        ts,
	}
}

func statusOrPlanned(st domain.Status) domain.Status {
	if st == "" {
		return domain.StatusPlanned
	}
	return st
}
