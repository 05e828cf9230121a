package cli

import (
	"github.com/alexanderramin/pdptrack/internal/cli/formatter"
	"github.com/spf13/cobra"
)

func newReportCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Progress summaries, curator overviews and levels",
	}
	cmd.AddCommand(
		newPlanReportCmd(app, "summary", "Per-skill completion with recent wins",
			func(cmd *cobra.Command, actor, planID string) (string, error) {
				s, err := app.Reports.Summary(cmd.Context(), actor, planID)
				if err != nil {
					return "", err
				}
				return formatter.FormatSummary(s), nil
			}),
		newPlanReportCmd(app, "latency", "How long approvals take on a plan",
			func(cmd *cobra.Command, actor, planID string) (string, error) {
				l, err := app.Reports.Latency(cmd.Context(), actor, planID)
				if err != nil {
					return "", err
				}
				return formatter.FormatLatency(l), nil
			}),
		newPlanReportCmd(app, "annex", "Approved evidence per criterion",
			func(cmd *cobra.Command, actor, planID string) (string, error) {
				a, err := app.Reports.Annex(cmd.Context(), actor, planID)
				if err != nil {
					return "", err
				}
				return formatter.FormatAnnex(a), nil
			}),
		newPlanReportCmd(app, "progress", "Share of skills completed",
			func(cmd *cobra.Command, actor, planID string) (string, error) {
				p, err := app.Reports.PlanProgress(cmd.Context(), actor, planID)
				if err != nil {
					return "", err
				}
				return formatter.FormatPlanProgress(p), nil
			}),
		newReportOverviewCmd(app),
		newReportLevelCmd(app),
	)
	return cmd
}

type planReportFunc func(cmd *cobra.Command, actor, planID string) (string, error)

func newPlanReportCmd(app *App, name, short string, render planReportFunc) *cobra.Command {
	return &cobra.Command{
		Use:   name + " PLAN",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			actor, err := app.actor(ctx)
			if err != nil {
				return err
			}
			planID, err := resolvePlanID(ctx, app, actor, args[0])
			if err != nil {
				return err
			}
			out, err := render(cmd, actor, planID)
			if err != nil {
				return err
			}
			printOut(cmd, out)
			return nil
		},
	}
}

func newReportOverviewCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "overview",
		Short: "Every plan you own or curate, most recently updated first",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			actor, err := app.actor(ctx)
			if err != nil {
				return err
			}
			rows, err := app.Reports.Overview(ctx, actor)
			if err != nil {
				return err
			}
			printOut(cmd, formatter.FormatOverview(rows))
			return nil
		},
	}
}

func newReportLevelCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "level [USER]",
		Short: "Professional level from closed criteria (default: you)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var userID string
			if len(args) == 1 {
				u, err := app.Users.Resolve(ctx, args[0])
				if err != nil {
					return err
				}
				userID = u.ID
			} else {
				actor, err := app.actor(ctx)
				if err != nil {
					return err
				}
				userID = actor
			}
			l, err := app.Reports.ProfessionalLevel(ctx, userID)
			if err != nil {
				return err
			}
			printOut(cmd, formatter.FormatLevel(l))
			return nil
		},
	}
}
