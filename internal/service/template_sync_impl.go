package service

import (
	"context"
	"fmt"
	"time"

	"github.com/alexanderramin/pdptrack/internal/criteria"
	"github.com/alexanderramin/pdptrack/internal/db"
	"github.com/alexanderramin/pdptrack/internal/domain"
	"github.com/alexanderramin/pdptrack/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SyncReport summarizes one template sync pass.
type SyncReport struct {
	TemplateID       string
	PlansScanned     int
	PlansSynced      int
	SkippedFinalized int
	SkillsUpdated    int
	SkillsCreated    int
	SkillsDeleted    int
	Failures         []SyncFailure
}

// SyncFailure records a plan whose sync was rolled back.
type SyncFailure struct {
	PlanID string
	Err    error
}

// Writes is the number of skill rows changed by the pass.
func (r *SyncReport) Writes() int {
	return r.SkillsUpdated + r.SkillsCreated + r.SkillsDeleted
}

type templateSyncEngine struct {
	plans    repository.PlanRepo
	uow      db.UnitOfWork
	logger   *zap.Logger
	observer UseCaseObserver
}

func NewTemplateSyncEngine(plans repository.PlanRepo, uow db.UnitOfWork, logger *zap.Logger, observers ...UseCaseObserver) TemplateSyncer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &templateSyncEngine{
		plans:    plans,
		uow:      uow,
		logger:   logger.Named("sync"),
		observer: useCaseObserverOrNoop(observers),
	}
}

// syncTarget is one template skill definition resolved to its key and order.
type syncTarget struct {
	key   string
	def   domain.TemplateSkill
	order int
}

// Sync reconciles every candidate plan with the template, one transaction
// per plan. A failing plan is rolled back, logged and reported; the pass
// continues with the next plan. The returned error is reserved for failures
// that prevent the pass from starting.
func (e *templateSyncEngine) Sync(ctx context.Context, t *domain.Template) (report *SyncReport, err error) {
	started := time.Now()
	report = &SyncReport{TemplateID: t.ID}
	defer func() {
		observe(ctx, e.observer, "template.sync", started, &err, map[string]any{
			"template_id": t.ID,
			"plans":       report.PlansScanned,
			"writes":      report.Writes(),
			"failures":    len(report.Failures),
		})
	}()

	// Later definitions win when a key repeats; position follows the first.
	keys := t.Data.Keys()
	byKey := make(map[string]syncTarget, len(keys))
	var ordered []string
	for i, key := range keys {
		if _, seen := byKey[key]; !seen {
			ordered = append(ordered, key)
		}
		byKey[key] = syncTarget{key: key, def: t.Data.Skills[i], order: t.Data.SkillOrder(i)}
	}
	targets := make([]syncTarget, 0, len(ordered))
	for _, key := range ordered {
		targets = append(targets, byKey[key])
	}

	candidates, err := e.plans.ListSyncCandidates(ctx, t.ID, keys)
	if err != nil {
		return report, fmt.Errorf("listing sync candidates: %w", err)
	}

	for _, p := range candidates {
		report.PlansScanned++
		if p.IsFinalized() {
			report.SkippedFinalized++
			continue
		}

		var counts planSyncCounts
		err := e.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
			var err error
			counts, err = syncPlan(ctx, tx, p.ID, t.ID, targets, byKey)
			return err
		})
		if err != nil {
			e.logger.Error("plan sync failed",
				zap.String("template_id", t.ID),
				zap.String("plan_id", p.ID),
				zap.Error(err),
			)
			report.Failures = append(report.Failures, SyncFailure{PlanID: p.ID, Err: err})
			continue
		}
		if counts.finalized {
			report.SkippedFinalized++
			continue
		}

		report.PlansSynced++
		report.SkillsUpdated += counts.updated
		report.SkillsCreated += counts.created
		report.SkillsDeleted += counts.deleted
		if counts.writes() > 0 {
			e.logger.Debug("plan synced",
				zap.String("template_id", t.ID),
				zap.String("plan_id", p.ID),
				zap.Int("updated", counts.updated),
				zap.Int("created", counts.created),
				zap.Int("deleted", counts.deleted),
			)
		}
	}
	return report, nil
}

type planSyncCounts struct {
	updated, created, deleted int
	finalized                 bool
}

func (c planSyncCounts) writes() int {
	return c.updated + c.created + c.deleted
}

// syncPlan applies the template to one plan using tx-scoped repositories.
func syncPlan(ctx context.Context, tx db.DBTX, planID, templateID string, targets []syncTarget, byKey map[string]syncTarget) (planSyncCounts, error) {
	var counts planSyncCounts
	txPlans := repository.NewSQLitePlanRepo(tx)
	txSkills := repository.NewSQLiteSkillRepo(tx)

	// Re-read inside the transaction; the plan may have been closed since
	// the candidate scan.
	plan, err := txPlans.GetByID(ctx, planID)
	if err != nil {
		return counts, err
	}
	if plan.IsFinalized() {
		counts.finalized = true
		return counts, nil
	}

	existing, err := txSkills.ListByPlan(ctx, planID)
	if err != nil {
		return counts, err
	}
	linked := make(map[string]*domain.Skill)
	for _, sk := range existing {
		if sk.TemplateSkillKey != nil {
			linked[*sk.TemplateSkillKey] = sk
		}
	}

	ts := now()
	for _, tgt := range targets {
		sk, ok := linked[tgt.key]
		if !ok || sk.ManualOverride {
			continue
		}
		if !applyTemplateSkill(sk, tgt) {
			continue
		}
		sk.UpdatedAt = ts
		if err := txSkills.Update(ctx, sk); err != nil {
			return counts, fmt.Errorf("updating skill %s: %w", sk.ID, err)
		}
		counts.updated++
	}

	for _, tgt := range targets {
		if _, ok := linked[tgt.key]; ok {
			continue
		}
		key := tgt.key
		sk := &domain.Skill{
			ID:               uuid.New().String(),
			PlanID:           planID,
			Name:             tgt.def.Name,
			Description:      tgt.def.Description,
			Criteria:         criteria.Merge("", tgt.def.Criteria),
			Priority:         priorityOrMedium(tgt.def.Priority),
			Status:           domain.StatusPlanned,
			SortOrder:        tgt.order,
			TemplateSkillKey: &key,
			CreatedAt:        ts,
			UpdatedAt:        ts,
		}
		if err := txSkills.Create(ctx, sk); err != nil {
			return counts, fmt.Errorf("creating skill %q: %w", sk.Name, err)
		}
		counts.created++
	}

	// Removal is limited to plans instantiated from this template so that
	// composed plans keep skills picked from it.
	if plan.LinkedTo(templateID) {
		for _, sk := range existing {
			if !sk.SubjectToSync() {
				continue
			}
			if _, ok := byKey[*sk.TemplateSkillKey]; ok {
				continue
			}
			if err := txSkills.Delete(ctx, sk.ID); err != nil {
				return counts, fmt.Errorf("deleting skill %s: %w", sk.ID, err)
			}
			counts.deleted++
		}
	}

	if counts.writes() > 0 {
		if err := txPlans.Touch(ctx, planID, ts); err != nil {
			return counts, err
		}
	}
	return counts, nil
}

// applyTemplateSkill copies template-owned fields onto sk and reports
// whether anything changed. Target date and status stay with the plan owner.
func applyTemplateSkill(sk *domain.Skill, tgt syncTarget) bool {
	changed := false
	if tgt.def.Name != "" && sk.Name != tgt.def.Name {
		sk.Name = tgt.def.Name
		changed = true
	}
	if sk.Description != tgt.def.Description {
		sk.Description = tgt.def.Description
		changed = true
	}
	if merged := criteria.Merge(sk.Criteria, tgt.def.Criteria); sk.Criteria != merged {
		sk.Criteria = merged
		changed = true
	}
	if p := priorityOrMedium(tgt.def.Priority); sk.Priority != p {
		sk.Priority = p
		changed = true
	}
	if sk.SortOrder != tgt.order {
		sk.SortOrder = tgt.order
		changed = true
	}
	return changed
}

func priorityOrMedium(p domain.Priority) domain.Priority {
	if p == "" {
		return domain.PriorityMedium
	}
	return p
}
