package service

import (
	"context"

	"github.com/alexanderramin/pdptrack/internal/domain"
	"github.com/alexanderramin/pdptrack/internal/importer"
	"github.com/alexanderramin/pdptrack/internal/repository"
)

// Every method taking an actor checks the caller's role on the plan or
// template it touches. actor is a user id.

type UserService interface {
	Register(ctx context.Context, name, email string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	// Resolve accepts a user id or an email address.
	Resolve(ctx context.Context, ref string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	Search(ctx context.Context, query string, limit int) ([]*domain.User, error)
}

type PlanService interface {
	Create(ctx context.Context, actor string, in PlanInput) (*domain.Plan, error)
	Get(ctx context.Context, actor, planID string) (*domain.Plan, error)
	ListOwned(ctx context.Context, actor string) ([]*domain.Plan, error)
	ListShared(ctx context.Context, actor string) ([]*domain.Plan, error)
	Update(ctx context.Context, actor, planID string, upd PlanUpdate) (*domain.Plan, error)
	Delete(ctx context.Context, actor, planID string) error

	AddCurator(ctx context.Context, actor, planID, userID string) error
	RemoveCurator(ctx context.Context, actor, planID, userID string) error
	ListCurators(ctx context.Context, actor, planID string) ([]*domain.User, error)

	Export(ctx context.Context, actor, planID string, mode importer.ExportMode) (*importer.Document, error)
	Import(ctx context.Context, actor string, doc *importer.Document) (*ImportResult, error)
	Transfer(ctx context.Context, actor, planID, targetUserID string) (*ImportResult, error)
}

type SkillService interface {
	Create(ctx context.Context, actor, planID string, in SkillInput) (*domain.Skill, error)
	Get(ctx context.Context, actor, skillID string) (*domain.Skill, error)
	ListByPlan(ctx context.Context, actor, planID string) ([]*domain.Skill, error)
	Update(ctx context.Context, actor, skillID string, upd SkillUpdate) (*domain.Skill, error)
	Delete(ctx context.Context, actor, skillID string) error
	SetManualOverride(ctx context.Context, actor, skillID string, on bool) (*domain.Skill, error)

	ToggleCriterionDone(ctx context.Context, actor, skillID string, index int, done bool) (*domain.Skill, error)
	UpdateCriterionComment(ctx context.Context, actor, skillID string, index int, comment string) (*domain.Skill, error)
}

// ProgressService is the criterion-level progress ledger.
type ProgressService interface {
	Add(ctx context.Context, actor string, ref CriterionRef, note string) (*domain.ProgressEntry, error)
	Delete(ctx context.Context, actor string, ref CriterionRef, entryID string) error
	Approve(ctx context.Context, actor string, ref CriterionRef, entryID string) (*domain.ProgressEntry, error)
	SetCuratorComment(ctx context.Context, actor string, ref CriterionRef, entryID, comment string) (*domain.ProgressEntry, error)
	UpdateNote(ctx context.Context, actor string, ref CriterionRef, entryID, note string) (*domain.ProgressEntry, error)

	List(ctx context.Context, actor string, ref CriterionRef) ([]*domain.ProgressEntry, error)
	ListApproved(ctx context.Context, actor string, ref CriterionRef) ([]*domain.ProgressEntry, error)
	Pending(ctx context.Context, actor string) ([]PendingItem, error)
}

type TemplateService interface {
	Create(ctx context.Context, actor string, doc *importer.Document) (*domain.Template, error)
	Get(ctx context.Context, actor, templateID string) (*domain.Template, error)
	ListPublished(ctx context.Context) ([]*domain.Template, error)
	Update(ctx context.Context, actor, templateID string, doc *importer.Document) (*TemplateUpdateResult, error)
	Delete(ctx context.Context, actor, templateID string) (*TemplateDeleteResult, error)
	Sync(ctx context.Context, actor, templateID string) (*SyncReport, error)

	// Assign creates a new plan for actor from a published template.
	Assign(ctx context.Context, actor, templateID string) (*ImportResult, error)
	// Compose adds a published template's missing skills to an existing plan.
	Compose(ctx context.Context, actor, planID, templateID string, keys []string) (*ComposeResult, error)
}

// TemplateSyncer reconciles every plan derived from a template with its
// current definition.
type TemplateSyncer interface {
	Sync(ctx context.Context, t *domain.Template) (*SyncReport, error)
}

type ReportService interface {
	Summary(ctx context.Context, actor, planID string) (*PlanSummary, error)
	Latency(ctx context.Context, actor, planID string) (*LatencyStats, error)
	Overview(ctx context.Context, actor string) ([]OverviewRow, error)
	Annex(ctx context.Context, actor, planID string) (*Annex, error)
	PlanProgress(ctx context.Context, actor, planID string) (*PlanProgress, error)
	ProfessionalLevel(ctx context.Context, userID string) (*LevelStatus, error)
}

// CriterionRef addresses one criterion of one skill.
type CriterionRef struct {
	SkillID string
	Index   int
}

type PlanInput struct {
	Title       string
	Description string
	Priority    domain.Priority
	ETA         *string
	Status      domain.Status
}

// PlanUpdate holds optional changes. A non-nil empty ETA clears it.
type PlanUpdate struct {
	Title       *string
	Description *string
	Priority    *domain.Priority
	ETA         *string
	Status      *domain.Status
}

type SkillInput struct {
	Name        string
	Description string
	Criteria    string
	Priority    domain.Priority
	ETA         *string
	Status      domain.Status
	// SortOrder defaults to one past the plan's current maximum.
	SortOrder *int
}

// SkillUpdate holds optional changes. A non-nil empty ETA clears it.
type SkillUpdate struct {
	Name        *string
	Description *string
	Criteria    *string
	Priority    *domain.Priority
	ETA         *string
	Status      *domain.Status
	SortOrder   *int
}

// ImportResult is a plan created from a document, template or transfer.
type ImportResult struct {
	Plan   *domain.Plan
	Skills []*domain.Skill
}

// PendingItem is an unapproved entry awaiting the curator, with the
// criterion text resolved.
type PendingItem struct {
	repository.PendingApproval
	CriterionText string
}

type TemplateUpdateResult struct {
	Template *domain.Template
	// Sync is nil when sync on save is disabled.
	Sync *SyncReport
}

type TemplateDeleteResult struct {
	SkillsDeleted int64
	PlansUnlinked int64
}

type ComposeResult struct {
	PlanID string
	Added  []*domain.Skill
}
