package repository

import (
	"context"
	"time"

	"github.com/alexanderramin/pdptrack/internal/domain"
)

// PendingApproval is an unapproved entry joined with the plan and skill it
// belongs to, as seen by a curator.
type PendingApproval struct {
	Entry      domain.ProgressEntry
	PlanID     string
	PlanTitle  string
	SkillName  string
	Criteria   string
	OwnerID    string
	OwnerName  string
	OwnerEmail string
}

// CriterionRef identifies one criterion of one skill.
type CriterionRef struct {
	SkillID string
	Index   int
}

type UserRepo interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	Search(ctx context.Context, query string, limit int) ([]*domain.User, error)
}

type PlanRepo interface {
	Create(ctx context.Context, p *domain.Plan) error
	GetByID(ctx context.Context, id string) (*domain.Plan, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*domain.Plan, error)
	ListByCurator(ctx context.Context, userID string) ([]*domain.Plan, error)
	ListVisible(ctx context.Context, userID string, limit int) ([]*domain.Plan, error)
	ListSyncCandidates(ctx context.Context, templateID string, keys []string) ([]*domain.Plan, error)
	Update(ctx context.Context, p *domain.Plan) error
	Touch(ctx context.Context, id string, at time.Time) error
	UnlinkTemplate(ctx context.Context, templateID string) (int64, error)
	Delete(ctx context.Context, id string) error

	AddCurator(ctx context.Context, planID, userID string) error
	RemoveCurator(ctx context.Context, planID, userID string) error
	ListCurators(ctx context.Context, planID string) ([]*domain.User, error)
}

type SkillRepo interface {
	Create(ctx context.Context, s *domain.Skill) error
	GetByID(ctx context.Context, id string) (*domain.Skill, error)
	ListByPlan(ctx context.Context, planID string) ([]*domain.Skill, error)
	MaxSortOrder(ctx context.Context, planID string) (int, error)
	Update(ctx context.Context, s *domain.Skill) error
	Delete(ctx context.Context, id string) error
	DeleteUnmanagedByKeys(ctx context.Context, keys []string) (int64, error)
	CountByOwnerAndStatus(ctx context.Context, ownerID string, status domain.Status) (int, error)
}

type ProgressRepo interface {
	Create(ctx context.Context, e *domain.ProgressEntry) error
	GetByID(ctx context.Context, id string) (*domain.ProgressEntry, error)
	ListByCriterion(ctx context.Context, skillID string, index int) ([]*domain.ProgressEntry, error)
	ListApprovedByCriterion(ctx context.Context, skillID string, index int) ([]*domain.ProgressEntry, error)
	ListApprovedByPlan(ctx context.Context, planID string) ([]*domain.ProgressEntry, error)
	ListApprovedBetween(ctx context.Context, planID string, from, to time.Time) ([]*domain.ProgressEntry, error)
	ListPendingForCurator(ctx context.Context, curatorID string, limit int) ([]PendingApproval, error)
	CountPendingByPlan(ctx context.Context, planID string) (int, error)
	DistinctApprovedByPlan(ctx context.Context, planID string) ([]CriterionRef, error)
	Update(ctx context.Context, e *domain.ProgressEntry) error
	Delete(ctx context.Context, id string) error
}

type TemplateRepo interface {
	Create(ctx context.Context, t *domain.Template) error
	GetByID(ctx context.Context, id string) (*domain.Template, error)
	ListPublished(ctx context.Context) ([]*domain.Template, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*domain.Template, error)
	Update(ctx context.Context, t *domain.Template) error
	Delete(ctx context.Context, id string) error
}
