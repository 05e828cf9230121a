package domain

import "time"

type Skill struct {
	ID               string
	PlanID           string
	Name             string
	Description      string
	Criteria         string
	Priority         Priority
	ETA              *string
	Status           Status
	SortOrder        int
	TemplateSkillKey *string
	ManualOverride   bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// SubjectToSync reports whether template sync may modify or remove the skill.
func (s *Skill) SubjectToSync() bool {
	return s.TemplateSkillKey != nil && !s.ManualOverride
}

// StatusForCriteria derives a skill status from criterion completion.
// A skill without criteria keeps its current status.
func StatusForCriteria(current Status, total, done int) Status {
	switch {
	case total == 0:
		return current
	case done == total:
		return StatusDone
	default:
		return StatusInProgress
	}
}
