package criteria

import "strings"

// Merge rebuilds a skill's criteria from the template's item list, carrying
// done and comment over from existing items whose text matches after
// trimming and lower-casing. The result follows template order and content
// exactly. When existing items share a match key the last one wins.
func Merge(existingRaw, templateRaw string) string {
	prior := make(map[string]Item)
	for _, it := range Parse(existingRaw) {
		prior[matchKey(it.Text)] = it
	}

	tpl := Parse(templateRaw)
	merged := make([]Item, 0, len(tpl))
	for _, t := range tpl {
		it := Item{Text: t.Text}
		if p, ok := prior[matchKey(t.Text)]; ok {
			it.Done = p.Done
			it.Comment = p.Comment
		}
		merged = append(merged, it)
	}
	return Serialize(merged)
}

func matchKey(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}
