package importer

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/alexanderramin/pdptrack/internal/domain"
	"github.com/google/uuid"
)

// ExportMode selects how much state an export carries.
type ExportMode string

const (
	// ExportTemplate drops the timeline: eta is cleared and status reset to Planned.
	ExportTemplate ExportMode = "template"
	// ExportFull copies every field verbatim.
	ExportFull ExportMode = "full"
)

// FromPlan renders a plan and its ordered skills as a document. Template keys
// are never exported.
func FromPlan(p *domain.Plan, skills []*domain.Skill, mode ExportMode) *Document {
	doc := &Document{
		Version: CurrentVersion,
		Plan: PlanImport{
			Title:       p.Title,
			Description: optional(p.Description),
			Priority:    string(p.Priority),
			ETA:         p.ETA,
			Status:      string(p.Status),
		},
		Skills: make([]SkillImport, 0, len(skills)),
	}
	if mode == ExportTemplate {
		doc.Plan.ETA = nil
		doc.Plan.Status = string(domain.StatusPlanned)
	}

	for _, s := range skills {
		order := s.SortOrder
		si := SkillImport{
			Skill:       s.Name,
			Description: optional(s.Description),
			Criteria:    optional(s.Criteria),
			Priority:    string(s.Priority),
			ETA:         s.ETA,
			Status:      string(s.Status),
			Order:       &order,
		}
		if mode == ExportTemplate {
			si.ETA = nil
			si.Status = string(domain.StatusPlanned)
		}
		doc.Skills = append(doc.Skills, si)
	}
	return doc
}

// ToPlan converts a validated document into a new plan owned by ownerID.
// Imported skills carry no template key. Call ValidateDocument first.
func ToPlan(doc *Document, ownerID string, now time.Time) (*domain.Plan, []*domain.Skill) {
	plan := &domain.Plan{
		ID:          uuid.New().String(),
		OwnerID:     ownerID,
		Title:       doc.Plan.Title,
		Description: deref(doc.Plan.Description),
		Priority:    priorityOrDefault(doc.Plan.Priority),
		ETA:         doc.Plan.ETA,
		Status:      statusOrDefault(doc.Plan.Status),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	skills := make([]*domain.Skill, 0, len(doc.Skills))
	for i, s := range doc.Skills {
		skills = append(skills, &domain.Skill{
			ID:          uuid.New().String(),
			PlanID:      plan.ID,
			Name:        s.Skill,
			Description: deref(s.Description),
			Criteria:    deref(s.Criteria),
			Priority:    priorityOrDefault(s.Priority),
			ETA:         s.ETA,
			Status:      statusOrDefault(s.Status),
			SortOrder:   domain.IntFromPtrWithDefault(i, s.Order),
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}
	return plan, skills
}

// ToTemplateData converts a validated document into a template payload.
func ToTemplateData(doc *Document) domain.TemplateData {
	data := domain.TemplateData{
		Version: doc.Version,
		Plan: domain.TemplatePlan{
			Title:       doc.Plan.Title,
			Description: deref(doc.Plan.Description),
			Priority:    priorityOrDefault(doc.Plan.Priority),
			ETA:         doc.Plan.ETA,
			Status:      statusOrDefault(doc.Plan.Status),
		},
		Skills: make([]domain.TemplateSkill, 0, len(doc.Skills)),
	}
	for _, s := range doc.Skills {
		ts := domain.TemplateSkill{
			Name:        s.Skill,
			Description: deref(s.Description),
			Criteria:    deref(s.Criteria),
			Priority:    priorityOrDefault(s.Priority),
			ETA:         s.ETA,
			Status:      statusOrDefault(s.Status),
			Order:       s.Order,
		}
		if s.Key != nil && *s.Key != "" {
			k := *s.Key
			ts.Key = &k
		}
		data.Skills = append(data.Skills, ts)
	}
	return data
}

// FromTemplateData renders a template payload as a document, keys included.
func FromTemplateData(d domain.TemplateData) *Document {
	doc := &Document{
		Version: d.Version,
		Plan: PlanImport{
			Title:       d.Plan.Title,
			Description: optional(d.Plan.Description),
			Priority:    string(d.Plan.Priority),
			ETA:         d.Plan.ETA,
			Status:      string(d.Plan.Status),
		},
		Skills: make([]SkillImport, 0, len(d.Skills)),
	}
	for _, s := range d.Skills {
		doc.Skills = append(doc.Skills, SkillImport{
			Skill:       s.Name,
			Description: optional(s.Description),
			Criteria:    optional(s.Criteria),
			Priority:    string(s.Priority),
			ETA:         s.ETA,
			Status:      string(s.Status),
			Order:       s.Order,
			Key:         s.Key,
		})
	}
	if doc.Version == 0 {
		doc.Version = CurrentVersion
	}
	return doc
}

// MarshalTemplateData encodes a template payload for storage.
func MarshalTemplateData(d domain.TemplateData) (string, error) {
	b, err := json.Marshal(FromTemplateData(d))
	if err != nil {
		return "", fmt.Errorf("encoding template data: %w", err)
	}
	return string(b), nil
}

// UnmarshalTemplateData decodes a stored template payload.
func UnmarshalTemplateData(raw string) (domain.TemplateData, error) {
	doc, err := Decode([]byte(raw), FormatJSON)
	if err != nil {
		return domain.TemplateData{}, fmt.Errorf("decoding template data: %w", err)
	}
	return ToTemplateData(doc), nil
}

func priorityOrDefault(s string) domain.Priority {
	p, err := domain.ParsePriority(s)
	if err != nil {
		return domain.PriorityMedium
	}
	return p
}

func statusOrDefault(s string) domain.Status {
	st, err := domain.ParseStatus(s)
	if err != nil {
		return domain.StatusPlanned
	}
	return st
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
