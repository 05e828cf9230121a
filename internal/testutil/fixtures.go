package testutil

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/alexanderramin/pdptrack/internal/domain"
	"github.com/google/uuid"
)

var testEmailCounter atomic.Int64

func NewTestUser(name string) *domain.User {
	n := testEmailCounter.Add(1)
	local := strings.ToLower(strings.ReplaceAll(name, " ", "."))
	return &domain.User{
		ID:        uuid.New().String(),
		Name:      name,
		Email:     fmt.Sprintf("%s.%d@example.com", local, n),
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
}

// Plan options
type PlanOption func(*domain.Plan)

func WithPlanStatus(s domain.Status) PlanOption {
	return func(p *domain.Plan) {
		p.Status = s
	}
}

func WithTemplateID(id string) PlanOption {
	return func(p *domain.Plan) {
		p.TemplateID = &id
	}
}

func WithPlanETA(eta string) PlanOption {
	return func(p *domain.Plan) {
		p.ETA = &eta
	}
}

func WithPlanUpdatedAt(t time.Time) PlanOption {
	return func(p *domain.Plan) {
		p.UpdatedAt = t
	}
}

func NewTestPlan(ownerID, title string, opts ...PlanOption) *domain.Plan {
	now := time.Now().UTC().Truncate(time.Microsecond)
	p := &domain.Plan{
		ID:        uuid.New().String(),
		OwnerID:   ownerID,
		Title:     title,
		Priority:  domain.PriorityMedium,
		Status:    domain.StatusPlanned,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Skill options
type SkillOption func(*domain.Skill)

func WithCriteria(raw string) SkillOption {
	return func(s *domain.Skill) {
		s.Criteria = raw
	}
}

func WithTemplateKey(key string) SkillOption {
	return func(s *domain.Skill) {
		s.TemplateSkillKey = &key
	}
}

func WithManualOverride() SkillOption {
	return func(s *domain.Skill) {
		s.ManualOverride = true
	}
}

func WithSortOrder(o int) SkillOption {
	return func(s *domain.Skill) {
		s.SortOrder = o
	}
}

func WithSkillStatus(st domain.Status) SkillOption {
	return func(s *domain.Skill) {
		s.Status = st
	}
}

func WithSkillPriority(p domain.Priority) SkillOption {
	return func(s *domain.Skill) {
		s.Priority = p
	}
}

func NewTestSkill(planID, name string, opts ...SkillOption) *domain.Skill {
	now := time.Now().UTC().Truncate(time.Microsecond)
	s := &domain.Skill{
		ID:        uuid.New().String(),
		PlanID:    planID,
		Name:      name,
		Priority:  domain.PriorityMedium,
		Status:    domain.StatusPlanned,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Progress entry options
type EntryOption func(*domain.ProgressEntry)

// WithApprovedAt marks the entry approved at the given time.
func WithApprovedAt(t time.Time) EntryOption {
	return func(e *domain.ProgressEntry) {
		e.Approved = true
		e.ApprovedAt = &t
		e.UpdatedAt = t
	}
}

func WithEntryCreatedAt(t time.Time) EntryOption {
	return func(e *domain.ProgressEntry) {
		e.CreatedAt = t
		e.UpdatedAt = t
	}
}

func WithNote(n string) EntryOption {
	return func(e *domain.ProgressEntry) {
		e.Note = n
	}
}

func NewTestEntry(skillID string, index int, authorID string, opts ...EntryOption) *domain.ProgressEntry {
	now := time.Now().UTC().Truncate(time.Microsecond)
	e := &domain.ProgressEntry{
		ID:             uuid.New().String(),
		SkillID:        skillID,
		CriterionIndex: index,
		AuthorID:       authorID,
		Note:           "progress note",
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// TemplateSkillDef builds a template skill definition. An empty key leaves
// the definition keyless.
func TemplateSkillDef(name, key, criteria string) domain.TemplateSkill {
	ts := domain.TemplateSkill{
		Name:     name,
		Criteria: criteria,
		Priority: domain.PriorityMedium,
		Status:   domain.StatusPlanned,
	}
	if key != "" {
		ts.Key = &key
	}
	return ts
}

func NewTestTemplate(ownerID, title string, skills ...domain.TemplateSkill) *domain.Template {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.Template{
		ID:        uuid.New().String(),
		OwnerID:   ownerID,
		Title:     title,
		Published: true,
		Data: domain.TemplateData{
			Version: 1,
			Plan: domain.TemplatePlan{
				Title:    title,
				Priority: domain.PriorityMedium,
				Status:   domain.StatusPlanned,
			},
			Skills: skills,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}
