package domain

import (
	"strconv"
	"time"
)

const TemplatePayloadVersion = 1

type Template struct {
	ID          string
	OwnerID     string
	Title       string
	Description string
	Published   bool
	Data        TemplateData
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TemplateData is the stored payload: plan defaults plus ordered skill
// definitions.
type TemplateData struct {
	Version int
	Plan    TemplatePlan
	Skills  []TemplateSkill
}

type TemplatePlan struct {
	Title       string
	Description string
	Priority    Priority
	ETA         *string
	Status      Status
}

type TemplateSkill struct {
	Name        string
	Description string
	Criteria    string
	Priority    Priority
	ETA         *string
	Status      Status
	Order       *int
	Key         *string
}

// SkillKey returns the stable key of the skill at position i, synthesizing
// "idx-<i>" for definitions stored without one.
func (d *TemplateData) SkillKey(i int) string {
	if k := d.Skills[i].Key; k != nil && *k != "" {
		return *k
	}
	return SyntheticSkillKey(i)
}

// SkillOrder returns the declared order of the skill at position i, or i.
func (d *TemplateData) SkillOrder(i int) int {
	return IntFromPtrWithDefault(i, d.Skills[i].Order)
}

// Keys returns every skill key in template order.
func (d *TemplateData) Keys() []string {
	keys := make([]string, len(d.Skills))
	for i := range d.Skills {
		keys[i] = d.SkillKey(i)
	}
	return keys
}

func SyntheticSkillKey(i int) string {
	return "idx-" + strconv.Itoa(i)
}
