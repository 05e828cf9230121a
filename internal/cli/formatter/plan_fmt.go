package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/pdptrack/internal/criteria"
	"github.com/alexanderramin/pdptrack/internal/domain"
)

// FormatPlanList renders plans as a table inside a bordered box.
func FormatPlanList(title string, plans []*domain.Plan) string {
	headers := []string{"ID", "TITLE", "STATUS", "PRIORITY", "ETA", "UPDATED"}
	rows := make([][]string, 0, len(plans))
	for _, p := range plans {
		rows = append(rows, []string{
			TruncID(p.ID),
			Bold(p.Title),
			StatusPill(p.Status),
			PriorityBadge(p.Priority),
			OrDash(p.ETA),
			Dim(HumanTimestamp(p.UpdatedAt)),
		})
	}
	return RenderBox(title, RenderTable(headers, rows))
}

// PlanDetailData groups what the plan detail card shows.
type PlanDetailData struct {
	Plan     *domain.Plan
	Skills   []*domain.Skill
	Curators []*domain.User
}

// FormatPlanDetail renders a plan card with its skills and criteria.
func FormatPlanDetail(d PlanDetailData) string {
	p := d.Plan
	var b strings.Builder

	fmt.Fprintf(&b, "%s  %s  %s\n", Bold(p.Title), StatusPill(p.Status), PriorityBadge(p.Priority))
	if p.Description != "" {
		fmt.Fprintf(&b, "%s\n", Dim(p.Description))
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "  %s  %s\n", StyleDim.Render("ID      "), p.ID)
	fmt.Fprintf(&b, "  %s  %s\n", StyleDim.Render("ETA     "), OrDash(p.ETA))
	fmt.Fprintf(&b, "  %s  %s\n", StyleDim.Render("TEMPLATE"), OrDash(p.TemplateID))
	if len(d.Curators) > 0 {
		names := make([]string, 0, len(d.Curators))
		for _, u := range d.Curators {
			names = append(names, u.Name)
		}
		fmt.Fprintf(&b, "  %s  %s\n", StyleDim.Render("CURATORS"), strings.Join(names, ", "))
	}

	b.WriteString("\n")
	b.WriteString(Header("Skills"))
	b.WriteString("\n")
	if len(d.Skills) == 0 {
		b.WriteString(Dim("  No skills yet.") + "\n")
	}
	for _, sk := range d.Skills {
		b.WriteString(FormatSkillLines(sk))
	}
	return RenderBox("", b.String())
}

// FormatSkillLines renders one skill and its indexed criteria.
func FormatSkillLines(sk *domain.Skill) string {
	var b strings.Builder
	items := criteria.Parse(sk.Criteria)

	marker := ""
	switch {
	case sk.ManualOverride:
		marker = StylePurple.Render(" [override]")
	case sk.TemplateSkillKey != nil:
		marker = Dim(" [template]")
	}
	fmt.Fprintf(&b, "  %s %s  %s  %s%s\n",
		TruncID(sk.ID), Bold(sk.Name), StatusPill(sk.Status), Ratio(criteria.DoneCount(items), len(items)), marker)
	for i, it := range items {
		fmt.Fprintf(&b, "      %s %s %s\n", Dim(fmt.Sprintf("%2d", i)), Checkbox(it.Done), it.Text)
		if it.Comment != nil {
			fmt.Fprintf(&b, "           %s\n", StyleYellow.Render("» "+*it.Comment))
		}
	}
	return b.String()
}

// FormatCuratorList renders a plan's curators.
func FormatCuratorList(users []*domain.User) string {
	if len(users) == 0 {
		return Dim("No curators.")
	}
	return FormatUserList(users)
}
