package service

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/alexanderramin/pdptrack/internal/criteria"
	"github.com/alexanderramin/pdptrack/internal/domain"
	"github.com/alexanderramin/pdptrack/internal/repository"
)

const dayLayout = "2006-01-02"

// Level is one rung of the professional ladder.
type Level struct {
	Key       string
	Title     string
	Threshold int
}

// ReportSettings controls windows, limits and the level ladder.
type ReportSettings struct {
	Location      *time.Location
	WindowDays    int
	OverviewLimit int
	// Levels must be sorted by ascending threshold.
	Levels []Level
}

type ReportOption func(*reportService)

// WithClock overrides the time source used for trailing windows.
func WithClock(clock func() time.Time) ReportOption {
	return func(s *reportService) {
		s.clock = clock
	}
}

type SkillSummary struct {
	SkillID       string
	Name          string
	TotalCriteria int
	ApprovedCount int
	PendingCount  int
	// TracksDone is true when completion came from done flags rather than
	// approved ledger entries.
	TracksDone bool
}

type DailyCount struct {
	Date  string
	Count int
}

type PlanSummary struct {
	PlanID        string
	TotalCriteria int
	ApprovedCount int
	PendingCount  int
	// LedgerApproved counts distinct (skill, criterion) pairs with an
	// approved entry, regardless of done flags.
	LedgerApproved int
	// PendingEntries counts entries awaiting curator approval.
	PendingEntries int
	Wins           []DailyCount
	Skills         []SkillSummary
}

type LatencyStats struct {
	PlanID      string
	WindowDays  int
	Samples     int
	MeanHours   float64
	MedianHours float64
}

type OverviewRow struct {
	PlanID        string
	Title         string
	Role          domain.Role
	Status        domain.Status
	ETA           *string
	TotalCriteria int
	Closed        int
	Remaining     int
	UpdatedAt     time.Time
	Owner         *domain.User
}

type Annex struct {
	Plan   *domain.Plan
	Skills []AnnexSkill
}

type AnnexSkill struct {
	Skill    *domain.Skill
	Criteria []AnnexCriterion
}

type AnnexCriterion struct {
	Index   int
	Text    string
	Comment *string
	// Entries holds approved entries only.
	Entries []*domain.ProgressEntry
}

type PlanProgress struct {
	PlanID    string
	Total     int
	Completed int
	Percent   int
}

type LevelStatus struct {
	Key              string
	Title            string
	Index            int
	ClosedSkills     int
	CurrentThreshold int
	// NextThreshold and RemainingToNext are nil at the top level.
	NextThreshold   *int
	Percent         int
	RemainingToNext *int
	AtMax           bool
}

type reportService struct {
	plans    repository.PlanRepo
	skills   repository.SkillRepo
	entries  repository.ProgressRepo
	users    repository.UserRepo
	settings ReportSettings
	clock    func() time.Time
}

func NewReportService(
	plans repository.PlanRepo,
	skills repository.SkillRepo,
	entries repository.ProgressRepo,
	users repository.UserRepo,
	settings ReportSettings,
	opts ...ReportOption,
) ReportService {
	if settings.Location == nil {
		settings.Location = time.UTC
	}
	if settings.WindowDays <= 0 {
		settings.WindowDays = 30
	}
	if settings.OverviewLimit <= 0 {
		settings.OverviewLimit = 50
	}
	s := &reportService{
		plans:    plans,
		skills:   skills,
		entries:  entries,
		users:    users,
		settings: settings,
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Summary rolls criteria completion up from skills to the plan and adds the
// daily approvals series for the trailing window.
func (s *reportService) Summary(ctx context.Context, actor, planID string) (*PlanSummary, error) {
	if _, _, err := authorizedPlan(ctx, s.plans, planID, actor, domain.OpViewPlan); err != nil {
		return nil, err
	}
	skills, err := s.skills.ListByPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	refs, err := s.entries.DistinctApprovedByPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	pending, err := s.entries.CountPendingByPlan(ctx, planID)
	if err != nil {
		return nil, err
	}

	sum := &PlanSummary{
		PlanID:         planID,
		LedgerApproved: len(refs),
		PendingEntries: pending,
		Skills:         make([]SkillSummary, 0, len(skills)),
	}
	ledger := approvedIndexCounts(refs)
	for _, sk := range skills {
		row := summarizeSkill(sk, ledger)
		sum.TotalCriteria += row.TotalCriteria
		sum.ApprovedCount += row.ApprovedCount
		sum.Skills = append(sum.Skills, row)
	}
	sum.PendingCount = max(0, sum.TotalCriteria-sum.ApprovedCount)

	from, to := s.window()
	approved, err := s.entries.ListApprovedBetween(ctx, planID, from, to)
	if err != nil {
		return nil, err
	}
	sum.Wins = dailyWins(approved, from, s.settings.WindowDays, s.settings.Location)
	return sum, nil
}

// Latency reports hours from entry creation to approval for entries
// approved in the trailing window.
func (s *reportService) Latency(ctx context.Context, actor, planID string) (*LatencyStats, error) {
	if _, _, err := authorizedPlan(ctx, s.plans, planID, actor, domain.OpViewPlan); err != nil {
		return nil, err
	}
	from, to := s.window()
	approved, err := s.entries.ListApprovedBetween(ctx, planID, from, to)
	if err != nil {
		return nil, err
	}

	hours := make([]float64, 0, len(approved))
	for _, e := range approved {
		if e.ApprovedAt == nil {
			continue
		}
		hours = append(hours, e.ApprovedAt.Sub(e.CreatedAt).Hours())
	}
	stats := &LatencyStats{PlanID: planID, WindowDays: s.settings.WindowDays, Samples: len(hours)}
	if len(hours) > 0 {
		stats.MeanHours = round1(mean(hours))
		stats.MedianHours = round1(median(hours))
	}
	return stats, nil
}

// Overview lists plans the actor owns or curates, most recently updated
// first, with criteria closed and remaining.
func (s *reportService) Overview(ctx context.Context, actor string) ([]OverviewRow, error) {
	plans, err := s.plans.ListVisible(ctx, actor, s.settings.OverviewLimit)
	if err != nil {
		return nil, err
	}

	rows := make([]OverviewRow, 0, len(plans))
	for _, p := range plans {
		skills, err := s.skills.ListByPlan(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		refs, err := s.entries.DistinctApprovedByPlan(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		ledger := approvedIndexCounts(refs)

		row := OverviewRow{
			PlanID:    p.ID,
			Title:     p.Title,
			Role:      domain.RoleOf(p, actor),
			Status:    p.Status,
			ETA:       p.ETA,
			UpdatedAt: p.UpdatedAt,
		}
		for _, sk := range skills {
			sm := summarizeSkill(sk, ledger)
			row.TotalCriteria += sm.TotalCriteria
			row.Closed += sm.ApprovedCount
		}
		row.Remaining = max(0, row.TotalCriteria-row.Closed)

		owner, err := s.users.GetByID(ctx, p.OwnerID)
		if err != nil && !isNotFound(err) {
			return nil, err
		}
		row.Owner = owner
		rows = append(rows, row)
	}
	return rows, nil
}

// Annex renders the plan with approved entries only, skills in plan order.
func (s *reportService) Annex(ctx context.Context, actor, planID string) (*Annex, error) {
	p, _, err := authorizedPlan(ctx, s.plans, planID, actor, domain.OpViewPlan)
	if err != nil {
		return nil, err
	}
	skills, err := s.skills.ListByPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	approved, err := s.entries.ListApprovedByPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	byCriterion := make(map[repository.CriterionRef][]*domain.ProgressEntry)
	for _, e := range approved {
		ref := repository.CriterionRef{SkillID: e.SkillID, Index: e.CriterionIndex}
		byCriterion[ref] = append(byCriterion[ref], e)
	}

	annex := &Annex{Plan: p, Skills: make([]AnnexSkill, 0, len(skills))}
	for _, sk := range skills {
		items := criteria.Parse(sk.Criteria)
		as := AnnexSkill{Skill: sk, Criteria: make([]AnnexCriterion, 0, len(items))}
		for i, it := range items {
			as.Criteria = append(as.Criteria, AnnexCriterion{
				Index:   i,
				Text:    it.Text,
				Comment: it.Comment,
				Entries: byCriterion[repository.CriterionRef{SkillID: sk.ID, Index: i}],
			})
		}
		annex.Skills = append(annex.Skills, as)
	}
	return annex, nil
}

// PlanProgress counts skills with status Done against all skills.
func (s *reportService) PlanProgress(ctx context.Context, actor, planID string) (*PlanProgress, error) {
	if _, _, err := authorizedPlan(ctx, s.plans, planID, actor, domain.OpViewPlan); err != nil {
		return nil, err
	}
	skills, err := s.skills.ListByPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	pp := &PlanProgress{PlanID: planID, Total: len(skills)}
	for _, sk := range skills {
		if sk.Status == domain.StatusDone {
			pp.Completed++
		}
	}
	if pp.Total > 0 {
		pp.Percent = pp.Completed * 100 / pp.Total
	}
	return pp, nil
}

// ProfessionalLevel maps the user's closed skills across owned plans onto
// the configured ladder.
func (s *reportService) ProfessionalLevel(ctx context.Context, userID string) (*LevelStatus, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	levels := s.settings.Levels
	if len(levels) == 0 {
		return &LevelStatus{Key: "unranked", Title: "Unranked", Percent: 0, AtMax: true}, nil
	}
	closed, err := s.skills.CountByOwnerAndStatus(ctx, userID, domain.StatusDone)
	if err != nil {
		return nil, err
	}
	return levelFor(levels, closed), nil
}

func levelFor(levels []Level, closed int) *LevelStatus {
	idx := 0
	for i, l := range levels {
		if closed < l.Threshold {
			break
		}
		idx = i
	}
	cur := levels[idx]
	st := &LevelStatus{
		Key:              cur.Key,
		Title:            cur.Title,
		Index:            idx,
		ClosedSkills:     closed,
		CurrentThreshold: cur.Threshold,
		Percent:          100,
		AtMax:            idx == len(levels)-1,
	}
	if st.AtMax {
		return st
	}

	to := levels[idx+1].Threshold
	span := max(1, to-cur.Threshold)
	progress := min(span, max(0, closed-cur.Threshold))
	remaining := max(0, to-closed)
	st.NextThreshold = &to
	st.RemainingToNext = &remaining
	st.Percent = progress * 100 / span
	return st
}

// window returns [start of the first day, start of tomorrow) in the report
// time zone.
func (s *reportService) window() (time.Time, time.Time) {
	loc := s.settings.Location
	t := s.clock().In(loc)
	today := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	return today.AddDate(0, 0, -(s.settings.WindowDays - 1)), today.AddDate(0, 0, 1)
}

// summarizeSkill prefers done flags; skills whose criteria never carried one
// fall back to distinct approved criterion indices in the ledger.
func summarizeSkill(sk *domain.Skill, ledger map[string]int) SkillSummary {
	src := criteria.Decode(sk.Criteria)
	items := src.Items()
	row := SkillSummary{SkillID: sk.ID, Name: sk.Name, TotalCriteria: len(items), TracksDone: src.TracksDone()}
	if row.TracksDone {
		row.ApprovedCount = criteria.DoneCount(items)
	} else {
		row.ApprovedCount = ledger[sk.ID]
	}
	row.PendingCount = max(0, row.TotalCriteria-row.ApprovedCount)
	return row
}

func approvedIndexCounts(refs []repository.CriterionRef) map[string]int {
	counts := make(map[string]int)
	for _, r := range refs {
		counts[r.SkillID]++
	}
	return counts
}

func dailyWins(approved []*domain.ProgressEntry, from time.Time, days int, loc *time.Location) []DailyCount {
	counts := make(map[string]int)
	for _, e := range approved {
		if e.ApprovedAt != nil {
			counts[e.ApprovedAt.In(loc).Format(dayLayout)]++
		}
	}
	wins := make([]DailyCount, days)
	for i := range wins {
		day := from.AddDate(0, 0, i).Format(dayLayout)
		wins[i] = DailyCount{Date: day, Count: counts[day]}
	}
	return wins
}

func mean(xs []float64) float64 {
	var total float64
	for _, x := range xs {
		total += x
	}
	return total / float64(len(xs))
}

func median(xs []float64) float64 {
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
