// Package criteria decodes and encodes a skill's criteria field and merges
// template criteria into existing ones without losing completion state.
package criteria

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/alexanderramin/pdptrack/internal/domain"
)

var legacySeparators = regexp.MustCompile(`[\n,;]+`)

// Item is one criterion in normalized form. Its position in the list is its
// identity for progress entries.
type Item struct {
	Text    string
	Comment *string
	Done    bool
}

// Source is a decoded criteria field in one of its stored formats.
type Source interface {
	Items() []Item
	// TracksDone reports whether at least one item carried an explicit done flag.
	TracksDone() bool
}

// LegacyText is free text with items separated by newlines, commas or semicolons.
type LegacyText string

func (t LegacyText) Items() []Item {
	var items []Item
	for _, part := range legacySeparators.Split(string(t), -1) {
		if text := strings.TrimSpace(part); text != "" {
			items = append(items, Item{Text: text})
		}
	}
	return items
}

func (LegacyText) TracksDone() bool { return false }

// StructuredItems is the JSON list form. Done is nil when the stored item had
// no done key.
type StructuredItems []StructuredItem

type StructuredItem struct {
	Text    string
	Comment *string
	Done    *bool
}

func (s StructuredItems) Items() []Item {
	items := make([]Item, 0, len(s))
	for _, it := range s {
		items = append(items, Item{Text: it.Text, Comment: it.Comment, Done: it.Done != nil && *it.Done})
	}
	return items
}

func (s StructuredItems) TracksDone() bool {
	for _, it := range s {
		if it.Done != nil {
			return true
		}
	}
	return false
}

// Decode classifies a stored criteria field. A JSON array with at least one
// usable element is structured, and so is the empty array "[]". Everything
// else, including an array whose elements are all unusable, is legacy text.
// Decode never fails.
func Decode(raw string) Source {
	var elems []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &elems); err != nil || elems == nil {
		return LegacyText(raw)
	}

	items := make(StructuredItems, 0, len(elems))
	for _, el := range elems {
		if it, ok := decodeElement(el); ok {
			items = append(items, it)
		}
	}
	if len(items) == 0 && len(elems) > 0 {
		return LegacyText(raw)
	}
	return items
}

// Parse decodes raw and returns its items.
func Parse(raw string) []Item {
	return Decode(raw).Items()
}

func decodeElement(el json.RawMessage) (StructuredItem, bool) {
	var s string
	if err := json.Unmarshal(el, &s); err == nil {
		text := strings.TrimSpace(s)
		return StructuredItem{Text: text}, text != ""
	}

	var obj map[string]any
	if err := json.Unmarshal(el, &obj); err != nil || obj == nil {
		return StructuredItem{}, false
	}

	text := strings.TrimSpace(scalarString(obj["text"]))
	if text == "" {
		return StructuredItem{}, false
	}
	it := StructuredItem{Text: text, Comment: NormalizeComment(scalarString(obj["comment"]))}
	if v, ok := obj["done"]; ok && v != nil {
		done := truthy(v)
		it.Done = &done
	}
	return it, true
}

// NormalizeComment maps blank comments to nil.
func NormalizeComment(c string) *string {
	if strings.TrimSpace(c) == "" {
		return nil
	}
	return &c
}

func scalarString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		if x {
			return "1"
		}
	}
	return ""
}

// truthy follows loose boolean casting: zero, "", "0" and empty containers
// are false.
func truthy(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case float64:
		return x != 0
	case string:
		return x != "" && x != "0"
	case []any:
		return len(x) > 0
	case map[string]any:
		return len(x) > 0
	}
	return false
}

type wireItem struct {
	Text    string  `json:"text"`
	Done    bool    `json:"done"`
	Comment *string `json:"comment"`
}

// Serialize encodes items in the structured form. Items with blank text are
// dropped and blank comments are stored as null.
func Serialize(items []Item) string {
	out := make([]wireItem, 0, len(items))
	for _, it := range items {
		text := strings.TrimSpace(it.Text)
		if text == "" {
			continue
		}
		var comment *string
		if it.Comment != nil {
			comment = NormalizeComment(*it.Comment)
		}
		out = append(out, wireItem{Text: text, Done: it.Done, Comment: comment})
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		// wireItem holds only strings and bools
		panic(fmt.Sprintf("criteria: encoding items: %v", err))
	}
	return strings.TrimRight(buf.String(), "\n")
}

// DoneCount returns the number of completed items.
func DoneCount(items []Item) int {
	n := 0
	for _, it := range items {
		if it.Done {
			n++
		}
	}
	return n
}

// CheckIndex validates a criterion index against items.
func CheckIndex(items []Item, index int) error {
	if index < 0 || index >= len(items) {
		return fmt.Errorf("index %d of %d criteria: %w", index, len(items), domain.ErrInvalidIndex)
	}
	return nil
}

// ResetProgress strips completion and comments, keeping text and order.
// A field with no items encodes to an empty string.
func ResetProgress(raw string) string {
	items := Parse(raw)
	if len(items) == 0 {
		return ""
	}
	reset := make([]Item, len(items))
	for i, it := range items {
		reset[i] = Item{Text: it.Text}
	}
	return Serialize(reset)
}
