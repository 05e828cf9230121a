package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/alexanderramin/pdptrack/internal/cli/formatter"
	"github.com/alexanderramin/pdptrack/internal/domain"
	"github.com/alexanderramin/pdptrack/internal/importer"
	"github.com/alexanderramin/pdptrack/internal/service"
	"github.com/spf13/cobra"
)

func newPlanCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Manage development plans",
	}
	cmd.AddCommand(
		newPlanCreateCmd(app),
		newPlanListCmd(app),
		newPlanShowCmd(app),
		newPlanUpdateCmd(app),
		newPlanDeleteCmd(app),
		newPlanCuratorCmd(app),
		newPlanExportCmd(app),
		newPlanImportCmd(app),
		newPlanTransferCmd(app),
	)
	return cmd
}

func newPlanCreateCmd(app *App) *cobra.Command {
	var (
		title, description string
		priority, status   string
		eta                string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new plan owned by the acting user",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			actor, err := app.actor(ctx)
			if err != nil {
				return err
			}
			prio, err := domain.ParsePriority(priority)
			if err != nil {
				return err
			}
			st, err := domain.ParseStatus(status)
			if err != nil {
				return err
			}
			p, err := app.Plans.Create(ctx, actor, service.PlanInput{
				Title:       title,
				Description: description,
				Priority:    prio,
				ETA:         optionalETA(eta),
				Status:      st,
			})
			if err != nil {
				return err
			}
			printOut(cmd, fmt.Sprintf("Created plan %s (%s)", formatter.Bold(p.Title), p.ID))
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Plan title (required)")
	cmd.Flags().StringVar(&description, "description", "", "Plan description")
	cmd.Flags().StringVar(&priority, "priority", "", "Low, Medium or High (default Medium)")
	cmd.Flags().StringVar(&status, "status", "", "Planned, In Progress, Done or Blocked (default Planned)")
	cmd.Flags().StringVar(&eta, "eta", "", "Target date (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func newPlanListCmd(app *App) *cobra.Command {
	var shared bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List plans you own, or with --shared, plans you curate",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			actor, err := app.actor(ctx)
			if err != nil {
				return err
			}
			if shared {
				plans, err := app.Plans.ListShared(ctx, actor)
				if err != nil {
					return err
				}
				printOut(cmd, formatter.FormatPlanList("Curated plans", plans))
				return nil
			}
			plans, err := app.Plans.ListOwned(ctx, actor)
			if err != nil {
				return err
			}
			printOut(cmd, formatter.FormatPlanList("My plans", plans))
			return nil
		},
	}
	cmd.Flags().BoolVar(&shared, "shared", false, "List plans where you are a curator")
	return cmd
}

func newPlanShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show PLAN",
		Short: "Show a plan with its skills and criteria",
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
			p, err := app.Plans.Get(ctx, actor, planID)
			if err != nil {
				return err
			}
			skills, err := app.Skills.ListByPlan(ctx, actor, planID)
			if err != nil {
				return err
			}
			// Only the owner may see the curator list.
			curators, err := app.Plans.ListCurators(ctx, actor, planID)
			if err != nil && !errors.Is(err, domain.ErrForbidden) {
				return err
			}
			printOut(cmd, formatter.FormatPlanDetail(formatter.PlanDetailData{
				Plan:     p,
				Skills:   skills,
				Curators: curators,
			}))
			return nil
		},
	}
}

func newPlanUpdateCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update PLAN",
		Short: "Update plan fields; only flags you pass are changed",
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
			prio, err := priorityFlag(cmd, "priority")
			if err != nil {
				return err
			}
			st, err := statusFlag(cmd, "status")
			if err != nil {
				return err
			}
			p, err := app.Plans.Update(ctx, actor, planID, service.PlanUpdate{
				Title:       stringFlag(cmd, "title"),
				Description: stringFlag(cmd, "description"),
				Priority:    prio,
				ETA:         stringFlag(cmd, "eta"),
				Status:      st,
			})
			if err != nil {
				return err
			}
			printOut(cmd, fmt.Sprintf("Updated plan %s  %s", formatter.Bold(p.Title), formatter.StatusPill(p.Status)))
			return nil
		},
	}
	cmd.Flags().String("title", "", "New title")
	cmd.Flags().String("description", "", "New description")
	cmd.Flags().String("priority", "", "Low, Medium or High")
	cmd.Flags().String("status", "", "Planned, In Progress, Done or Blocked")
	cmd.Flags().String("eta", "", "Target date; pass an empty value to clear")
	return cmd
}

func newPlanDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete PLAN",
		Short: "Delete a plan with its skills and progress",
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
			if err := app.Plans.Delete(ctx, actor, planID); err != nil {
				return err
			}
			printOut(cmd, "Deleted plan "+planID)
			return nil
		},
	}
}

func newPlanCuratorCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "curator",
		Short: "Manage who reviews a plan",
	}

	add := &cobra.Command{
		Use:   "add PLAN USER",
		Short: "Add a curator by id or email",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCuratorChange(cmd, app, args, app.Plans.AddCurator, "Added")
		},
	}
	remove := &cobra.Command{
		Use:   "remove PLAN USER",
		Short: "Remove a curator by id or email",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCuratorChange(cmd, app, args, app.Plans.RemoveCurator, "Removed")
		},
	}
	list := &cobra.Command{
		Use:   "list PLAN",
		Short: "List a plan's curators",
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
			users, err := app.Plans.ListCurators(ctx, actor, planID)
			if err != nil {
				return err
			}
			printOut(cmd, formatter.FormatCuratorList(users))
			return nil
		},
	}

	cmd.AddCommand(add, remove, list)
	return cmd
}

type curatorChangeFunc func(ctx context.Context, actor, planID, userID string) error

func runCuratorChange(cmd *cobra.Command, app *App, args []string, change curatorChangeFunc, verb string) error {
	ctx := cmd.Context()
	actor, err := app.actor(ctx)
	if err != nil {
		return err
	}
	planID, err := resolvePlanID(ctx, app, actor, args[0])
	if err != nil {
		return err
	}
	u, err := app.Users.Resolve(ctx, args[1])
	if err != nil {
		return err
	}
	if err := change(ctx, actor, planID, u.ID); err != nil {
		return err
	}
	printOut(cmd, fmt.Sprintf("%s curator %s <%s>", verb, u.Name, u.Email))
	return nil
}

func newPlanExportCmd(app *App) *cobra.Command {
	var mode, out, format string

	cmd := &cobra.Command{
		Use:   "export PLAN",
		Short: "Export a plan as a JSON or YAML document",
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
			doc, err := app.Plans.Export(ctx, actor, planID, importer.ExportMode(mode))
			if err != nil {
				return err
			}
			if out != "" {
				if err := importer.Save(doc, out); err != nil {
					return err
				}
				printOut(cmd, fmt.Sprintf("Exported %d skills to %s", len(doc.Skills), out))
				return nil
			}
			data, err := importer.Encode(doc, importer.Format(format))
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().StringVar(&mode, "mode", string(importer.ExportTemplate), "template (reset timeline) or full")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write to file; format follows the extension")
	cmd.Flags().StringVar(&format, "format", string(importer.FormatJSON), "Output format for stdout: json or yaml")
	return cmd
}

func newPlanImportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Create a plan from a JSON or YAML document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			actor, err := app.actor(ctx)
			if err != nil {
				return err
			}
			doc, err := importer.Load(args[0])
			if err != nil {
				return err
			}
			res, err := app.Plans.Import(ctx, actor, doc)
			if err != nil {
				return err
			}
			printOut(cmd, fmt.Sprintf("Imported plan %s (%s) with %d skills",
				formatter.Bold(res.Plan.Title), res.Plan.ID, len(res.Skills)))
			return nil
		},
	}
}

func newPlanTransferCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "transfer PLAN USER",
		Short: "Copy a plan into a fresh plan owned by another user",
		Args:  cobra.ExactArgs(2),
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
			target, err := app.Users.Resolve(ctx, args[1])
			if err != nil {
				return err
			}
			res, err := app.Plans.Transfer(ctx, actor, planID, target.ID)
			if err != nil {
				return err
			}
			printOut(cmd, fmt.Sprintf("Transferred to %s as plan %s", target.Name, res.Plan.ID))
			return nil
		},
	}
}
