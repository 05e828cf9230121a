package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/pdptrack/internal/domain"
	"github.com/alexanderramin/pdptrack/internal/repository"
)

const maxFieldLen = 255

// now returns the current time at the storage precision.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// authorizedPlan loads the plan and checks the actor may perform op on it.
func authorizedPlan(ctx context.Context, plans repository.PlanRepo, planID, actor string, op domain.Operation) (*domain.Plan, domain.Role, error) {
	p, err := plans.GetByID(ctx, planID)
	if err != nil {
		return nil, domain.RoleNone, err
	}
	role, err := domain.Authorize(p, actor, op)
	if err != nil {
		return nil, role, err
	}
	return p, role, nil
}

// authorizedSkill loads the skill and its plan and checks op against the plan.
func authorizedSkill(ctx context.Context, skills repository.SkillRepo, plans repository.PlanRepo, skillID, actor string, op domain.Operation) (*domain.Skill, *domain.Plan, error) {
	s, err := skills.GetByID(ctx, skillID)
	if err != nil {
		return nil, nil, err
	}
	p, _, err := authorizedPlan(ctx, plans, s.PlanID, actor, op)
	if err != nil {
		return nil, nil, err
	}
	return s, p, nil
}

func requireText(field, v string) error {
	v = strings.TrimSpace(v)
	if v == "" {
		return fmt.Errorf("%s is required: %w", field, domain.ErrValidation)
	}
	if len(v) > maxFieldLen {
		return fmt.Errorf("%s must be at most %d characters: %w", field, maxFieldLen, domain.ErrValidation)
	}
	return nil
}

func validateETA(eta *string) error {
	if eta != nil && len(*eta) > maxFieldLen {
		return fmt.Errorf("eta must be at most %d characters: %w", maxFieldLen, domain.ErrValidation)
	}
	return nil
}

// normalizeETA maps a blank target date to none.
func normalizeETA(eta *string) *string {
	if eta == nil || strings.TrimSpace(*eta) == "" {
		return nil
	}
	v := strings.TrimSpace(*eta)
	return &v
}

// validationErrors folds importer findings into one ErrValidation.
func validationErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return fmt.Errorf("%s: %w", strings.Join(msgs, "; "), domain.ErrValidation)
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
