package domain

import "time"

type Plan struct {
	ID          string
	OwnerID     string
	Title       string
	Description string
	Priority    Priority
	ETA         *string
	Status      Status
	TemplateID  *string
	CuratorIDs  []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsFinalized reports whether the plan is closed to template synchronization.
func (p *Plan) IsFinalized() bool {
	return p.Status == StatusDone
}

// LinkedTo reports whether the plan was instantiated from the given template.
func (p *Plan) LinkedTo(templateID string) bool {
	return p.TemplateID != nil && *p.TemplateID == templateID
}

// HasCurator reports whether userID is in the plan's curator set.
func (p *Plan) HasCurator(userID string) bool {
	for _, id := range p.CuratorIDs {
		if id == userID {
			return true
		}
	}
	return false
}
