package domain

import "time"

type ProgressEntry struct {
	ID             string
	SkillID        string
	CriterionIndex int
	AuthorID       string
	Note           string
	Approved       bool
	CuratorComment *string
	ApprovedAt     *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// BelongsTo reports whether the entry is recorded against the given criterion.
func (e *ProgressEntry) BelongsTo(skillID string, index int) bool {
	return e.SkillID == skillID && e.CriterionIndex == index
}
