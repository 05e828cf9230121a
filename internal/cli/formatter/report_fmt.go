package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/pdptrack/internal/service"
)

// FormatSummary renders plan and per-skill criteria completion plus the
// daily approvals series.
func FormatSummary(s *service.PlanSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n", Bold("Criteria"), Ratio(s.ApprovedCount, s.TotalCriteria))
	fmt.Fprintf(&b, "%s  %d   %s  %d   %s  %d\n",
		Dim("open"), s.PendingCount,
		Dim("approved in ledger"), s.LedgerApproved,
		Dim("awaiting approval"), s.PendingEntries)

	if len(s.Skills) > 0 {
		b.WriteString("\n")
		headers := []string{"SKILL", "DONE", "OPEN", "SOURCE"}
		rows := make([][]string, 0, len(s.Skills))
		for _, sk := range s.Skills {
			source := "ledger"
			if sk.TracksDone {
				source = "checks"
			}
			rows = append(rows, []string{
				sk.Name,
				Ratio(sk.ApprovedCount, sk.TotalCriteria),
				fmt.Sprint(sk.PendingCount),
				Dim(source),
			})
		}
		b.WriteString(RenderTable(headers, rows))
	}

	b.WriteString("\n")
	b.WriteString(Header("Wins"))
	b.WriteString("\n")
	b.WriteString(Sparkline(s.Wins))
	b.WriteString("\n")
	return RenderBox("Summary", b.String())
}

var sparkLevels = []rune("▁▂▃▄▅▆▇█")

// Sparkline renders daily counts as a single line of block characters
// scaled to the busiest day.
func Sparkline(days []service.DailyCount) string {
	if len(days) == 0 {
		return ""
	}
	peak, total := 0, 0
	for _, d := range days {
		peak = max(peak, d.Count)
		total += d.Count
	}
	var b strings.Builder
	for _, d := range days {
		if d.Count == 0 {
			b.WriteString(Dim("·"))
			continue
		}
		idx := (d.Count*len(sparkLevels) - 1) / peak
		b.WriteString(StyleGreen.Render(string(sparkLevels[idx])))
	}
	return fmt.Sprintf("%s  %s", b.String(),
		Dim(fmt.Sprintf("%d approvals %s..%s", total, days[0].Date, days[len(days)-1].Date)))
}

func FormatLatency(l *service.LatencyStats) string {
	if l.Samples == 0 {
		return Dim(fmt.Sprintf("No approvals in the last %d days.", l.WindowDays))
	}
	return fmt.Sprintf("Approval latency over %d days (%d entries): mean %.1fh, median %.1fh",
		l.WindowDays, l.Samples, l.MeanHours, l.MedianHours)
}

// FormatOverview renders every visible plan with criteria progress.
func FormatOverview(rows []service.OverviewRow) string {
	if len(rows) == 0 {
		return Dim("No plans.")
	}
	headers := []string{"ID", "TITLE", "ROLE", "OWNER", "STATUS", "ETA", "CRITERIA", "LEFT"}
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		owner := Dim("--")
		if r.Owner != nil {
			owner = r.Owner.Name
		}
		out = append(out, []string{
			TruncID(r.PlanID),
			Bold(r.Title),
			RoleBadge(r.Role),
			owner,
			StatusPill(r.Status),
			OrDash(r.ETA),
			Ratio(r.Closed, r.TotalCriteria),
			fmt.Sprint(r.Remaining),
		})
	}
	return RenderBox("Overview", RenderTable(headers, out))
}

// FormatAnnex renders the plan with the approved evidence for each criterion.
func FormatAnnex(a *service.Annex) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n", Bold(a.Plan.Title), StatusPill(a.Plan.Status))
	for _, s := range a.Skills {
		b.WriteString("\n")
		b.WriteString(Header(s.Skill.Name))
		b.WriteString("\n")
		for _, c := range s.Criteria {
			fmt.Fprintf(&b, "  %s %s\n", Dim(fmt.Sprintf("%2d", c.Index)), c.Text)
			if c.Comment != nil {
				fmt.Fprintf(&b, "       %s\n", StyleYellow.Render("» "+*c.Comment))
			}
			for _, e := range c.Entries {
				fmt.Fprintf(&b, "       %s %s\n", StyleGreen.Render("✔"), e.Note)
				if e.CuratorComment != nil {
					fmt.Fprintf(&b, "         %s\n", StyleBlue.Render("curator: "+*e.CuratorComment))
				}
			}
		}
	}
	return RenderBox("Annex", b.String())
}

func FormatPlanProgress(p *service.PlanProgress) string {
	return fmt.Sprintf("Skills done %d/%d %s", p.Completed, p.Total, RenderProgress(p.Percent, 20))
}

// FormatLevel renders the professional level and the distance to the next.
func FormatLevel(l *service.LevelStatus) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n", StylePurple.Render(l.Title), Dim(fmt.Sprintf("%d skills closed", l.ClosedSkills)))
	if l.AtMax {
		b.WriteString(Dim("Top level reached."))
		return b.String()
	}
	fmt.Fprintf(&b, "%s  %d more to reach %d\n", RenderProgress(l.Percent, 20), *l.RemainingToNext, *l.NextThreshold)
	return b.String()
}
