package importer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptrStr(s string) *string { return &s }
func ptrInt(i int) *int       { return &i }

func validMinimalDocument() *Document {
	return &Document{
		Version: 1,
		Plan:    PlanImport{Title: "Backend growth", Priority: "High", Status: "Planned"},
		Skills: []SkillImport{
			{Skill: "Go", Priority: "Medium", Criteria: ptrStr(`["Write tests"]`)},
		},
	}
}

func TestValidateDocument_ValidMinimal(t *testing.T) {
	assert.Empty(t, ValidateDocument(validMinimalDocument()))
}

func TestValidateDocument_DefaultsAccepted(t *testing.T) {
	doc := &Document{Plan: PlanImport{Title: "T"}, Skills: []SkillImport{{Skill: "S"}}}
	assert.Empty(t, ValidateDocument(doc))
}

func TestValidateDocument_MissingTitle(t *testing.T) {
	doc := validMinimalDocument()
	doc.Plan.Title = ""

	errs := ValidateDocument(doc)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "plan.title is required")
}

func TestValidateDocument_TitleTooLong(t *testing.T) {
	doc := validMinimalDocument()
	doc.Plan.Title = strings.Repeat("x", 256)

	errs := ValidateDocument(doc)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "at most 255")
}

func TestValidateDocument_InvalidEnums(t *testing.T) {
	doc := validMinimalDocument()
	doc.Plan.Priority = "Urgent"
	doc.Plan.Status = "Archived"
	doc.Skills[0].Priority = "low"
	doc.Skills[0].Status = "done"

	errs := ValidateDocument(doc)
	assert.Len(t, errs, 4)
}

func TestValidateDocument_SkillErrors(t *testing.T) {
	doc := validMinimalDocument()
	doc.Skills = append(doc.Skills,
		SkillImport{Skill: "", Order: ptrInt(-1)},
	)

	errs := ValidateDocument(doc)
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0].Error(), "skills[1].skill is required")
	assert.Contains(t, errs[1].Error(), "skills[1].order must be >= 0")
}

func TestValidateDocument_DuplicateKeys(t *testing.T) {
	doc := validMinimalDocument()
	doc.Skills[0].Key = ptrStr("k1")
	doc.Skills = append(doc.Skills, SkillImport{Skill: "Rust", Key: ptrStr("k1")})

	errs := ValidateDocument(doc)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), `skills[1].key "k1" duplicates skills[0].key`)
}
