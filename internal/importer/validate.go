package importer

import (
	"fmt"

	"github.com/alexanderramin/pdptrack/internal/domain"
)

const maxTitleLen = 255

// ValidateDocument checks a document before conversion.
// Returns a slice of all validation errors found.
func ValidateDocument(doc *Document) []error {
	var errs []error

	errs = append(errs, validatePlan(&doc.Plan)...)

	keys := make(map[string]int)
	for i := range doc.Skills {
		errs = append(errs, validateSkill(i, &doc.Skills[i], keys)...)
	}
	return errs
}

func validatePlan(p *PlanImport) []error {
	var errs []error

	if p.Title == "" {
		errs = append(errs, fmt.Errorf("plan.title is required"))
	} else if len(p.Title) > maxTitleLen {
		errs = append(errs, fmt.Errorf("plan.title must be at most %d characters", maxTitleLen))
	}
	if _, err := domain.ParsePriority(p.Priority); err != nil {
		errs = append(errs, fmt.Errorf("plan.priority: invalid value %q", p.Priority))
	}
	if _, err := domain.ParseStatus(p.Status); err != nil {
		errs = append(errs, fmt.Errorf("plan.status: invalid value %q", p.Status))
	}
	if p.ETA != nil && len(*p.ETA) > maxTitleLen {
		errs = append(errs, fmt.Errorf("plan.eta must be at most %d characters", maxTitleLen))
	}
	return errs
}

func validateSkill(i int, s *SkillImport, keys map[string]int) []error {
	var errs []error
	prefix := fmt.Sprintf("skills[%d]", i)

	if s.Skill == "" {
		errs = append(errs, fmt.Errorf("%s.skill is required", prefix))
	} else if len(s.Skill) > maxTitleLen {
		errs = append(errs, fmt.Errorf("%s.skill must be at most %d characters", prefix, maxTitleLen))
	}
	if _, err := domain.ParsePriority(s.Priority); err != nil {
		errs = append(errs, fmt.Errorf("%s.priority: invalid value %q", prefix, s.Priority))
	}
	if _, err := domain.ParseStatus(s.Status); err != nil {
		errs = append(errs, fmt.Errorf("%s.status: invalid value %q", prefix, s.Status))
	}
	if s.Order != nil && *s.Order < 0 {
		errs = append(errs, fmt.Errorf("%s.order must be >= 0, got %d", prefix, *s.Order))
	}
	if s.Key != nil && *s.Key != "" {
		if prev, dup := keys[*s.Key]; dup {
			errs = append(errs, fmt.Errorf("%s.key %q duplicates skills[%d].key", prefix, *s.Key, prev))
		} else {
			keys[*s.Key] = i
		}
	}
	return errs
}
