package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/pdptrack/internal/domain"
	"github.com/alexanderramin/pdptrack/internal/service"
)

func approvalPill(e *domain.ProgressEntry) string {
	if e.Approved {
		return StyleGreen.Render("✔ approved")
	}
	return StyleYellow.Render("… pending")
}

// FormatEntries renders the progress ledger of one criterion, oldest first.
func FormatEntries(entries []*domain.ProgressEntry) string {
	if len(entries) == 0 {
		return Dim("No progress recorded.")
	}
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "%s  %s  %s\n", TruncID(e.ID), approvalPill(e), Dim(HumanTimestamp(e.CreatedAt)))
		fmt.Fprintf(&b, "  %s\n", e.Note)
		if e.CuratorComment != nil {
			fmt.Fprintf(&b, "  %s\n", StyleBlue.Render("curator: "+*e.CuratorComment))
		}
	}
	return b.String()
}

// FormatPending renders a curator's approval queue.
func FormatPending(items []service.PendingItem) string {
	if len(items) == 0 {
		return Dim("Nothing awaiting approval.")
	}
	headers := []string{"ENTRY", "OWNER", "PLAN", "SKILL", "CRITERION", "NOTE"}
	rows := make([][]string, 0, len(items))
	for _, it := range items {
		criterion := fmt.Sprintf("#%d", it.Entry.CriterionIndex)
		if it.CriterionText != "" {
			criterion += " " + it.CriterionText
		}
		rows = append(rows, []string{
			TruncID(it.Entry.ID),
			it.OwnerName,
			it.PlanTitle,
			it.SkillName,
			criterion,
			it.Entry.Note,
		})
	}
	return RenderBox("Pending approvals", RenderTable(headers, rows))
}
