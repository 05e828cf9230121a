package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/pdptrack/internal/criteria"
	"github.com/alexanderramin/pdptrack/internal/domain"
	"github.com/alexanderramin/pdptrack/internal/service"
)

// FormatTemplateList renders published templates inside a bordered box.
func FormatTemplateList(templates []*domain.Template) string {
	headers := []string{"ID", "TITLE", "SKILLS", "UPDATED"}
	rows := make([][]string, 0, len(templates))
	for _, t := range templates {
		rows = append(rows, []string{
			TruncID(t.ID),
			Bold(t.Title),
			fmt.Sprintf("%d", len(t.Data.Skills)),
			Dim(HumanTimestamp(t.UpdatedAt)),
		})
	}
	return RenderBox("Templates", RenderTable(headers, rows))
}

// FormatTemplateShow renders a template with its skill keys.
func FormatTemplateShow(t *domain.Template) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n", Bold(t.Title), PriorityBadge(t.Data.Plan.Priority))
	if t.Description != "" {
		fmt.Fprintf(&b, "%s\n", Dim(t.Description))
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "  %s  %s\n", StyleDim.Render("ID "), t.ID)
	fmt.Fprintf(&b, "  %s  %s\n", StyleDim.Render("ETA"), OrDash(t.Data.Plan.ETA))

	b.WriteString("\n")
	b.WriteString(Header("Skills"))
	b.WriteString("\n")
	for i, s := range t.Data.Skills {
		fmt.Fprintf(&b, "  %s %s  %s\n", Dim(fmt.Sprintf("%2d", t.Data.SkillOrder(i))), Bold(s.Name), Dim(t.Data.SkillKey(i)))
		for _, it := range criteria.Parse(s.Criteria) {
			fmt.Fprintf(&b, "      • %s\n", it.Text)
		}
	}
	return RenderBox("", b.String())
}

// FormatSyncReport renders the outcome of a template sync pass.
func FormatSyncReport(r *service.SyncReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Plans scanned %d, synced %d, skipped (done) %d\n",
		r.PlansScanned, r.PlansSynced, r.SkippedFinalized)
	fmt.Fprintf(&b, "Skills updated %s, created %s, deleted %s\n",
		StyleBlue.Render(fmt.Sprint(r.SkillsUpdated)),
		StyleGreen.Render(fmt.Sprint(r.SkillsCreated)),
		StyleRed.Render(fmt.Sprint(r.SkillsDeleted)))
	if r.Writes() == 0 && len(r.Failures) == 0 {
		b.WriteString(Dim("Everything already up to date.") + "\n")
	}
	for _, f := range r.Failures {
		fmt.Fprintf(&b, "%s plan %s: %v\n", StyleRed.Render("✖"), f.PlanID, f.Err)
	}
	return b.String()
}
