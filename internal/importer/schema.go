package importer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// CurrentVersion is written into every exported document.
const CurrentVersion = 1

// Document is the file format shared by plan export/import and template
// payloads. Template payloads additionally carry a stable key per skill.
type Document struct {
	Version int           `json:"version" yaml:"version"`
	Plan    PlanImport    `json:"plan" yaml:"plan"`
	Skills  []SkillImport `json:"skills" yaml:"skills"`

	// Older exports named these "pdp" and "order_column".
	LegacyPlan *PlanImport `json:"pdp,omitempty" yaml:"pdp,omitempty"`
}

// PlanImport holds the plan-level fields.
type PlanImport struct {
	Title       string  `json:"title" yaml:"title"`
	Description *string `json:"description" yaml:"description"`
	Priority    string  `json:"priority" yaml:"priority"`
	ETA         *string `json:"eta" yaml:"eta"`
	Status      string  `json:"status" yaml:"status"`
}

// SkillImport holds one skill definition.
type SkillImport struct {
	Skill       string  `json:"skill" yaml:"skill"`
	Description *string `json:"description" yaml:"description"`
	Criteria    *string `json:"criteria" yaml:"criteria"`
	Priority    string  `json:"priority" yaml:"priority"`
	ETA         *string `json:"eta" yaml:"eta"`
	Status      string  `json:"status" yaml:"status"`
	Order       *int    `json:"order" yaml:"order"`
	Key         *string `json:"key,omitempty" yaml:"key,omitempty"`

	LegacyOrder *int `json:"order_column,omitempty" yaml:"order_column,omitempty"`
}

// Format selects the document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatForPath picks YAML for .yaml/.yml files and JSON otherwise.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Load reads and parses a document file.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := Decode(data, FormatForPath(path))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return doc, nil
}

// Decode parses a document and folds legacy field names into current ones.
func Decode(data []byte, format Format) (*Document, error) {
	var doc Document
	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &doc)
	default:
		err = json.Unmarshal(data, &doc)
	}
	if err != nil {
		return nil, err
	}
	doc.normalize()
	return &doc, nil
}

// Encode renders a document in the given format.
func Encode(doc *Document, format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		return yaml.Marshal(doc)
	default:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
}

// Save writes a document to path, choosing the format from its extension.
func Save(doc *Document, path string) error {
	data, err := Encode(doc, FormatForPath(path))
	if err != nil {
		return fmt.Errorf("encoding document: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func (d *Document) normalize() {
	if d.LegacyPlan != nil {
		if d.Plan.Title == "" {
			d.Plan = *d.LegacyPlan
		}
		d.LegacyPlan = nil
	}
	for i := range d.Skills {
		s := &d.Skills[i]
		if s.Order == nil && s.LegacyOrder != nil {
			s.Order = s.LegacyOrder
		}
		s.LegacyOrder = nil
	}
	if d.Version == 0 {
		d.Version = CurrentVersion
	}
}
