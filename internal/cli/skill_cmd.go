package cli

import (
	"fmt"

	"github.com/alexanderramin/pdptrack/internal/cli/formatter"
	"github.com/alexanderramin/pdptrack/internal/domain"
	"github.com/alexanderramin/pdptrack/internal/service"
	"github.com/spf13/cobra"
)

func newSkillCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "skill",
		Short: "Manage skills and their acceptance criteria",
	}
	cmd.AddCommand(
		newSkillAddCmd(app),
		newSkillListCmd(app),
		newSkillUpdateCmd(app),
		newSkillDeleteCmd(app),
		newSkillDoneCmd(app),
		newSkillCommentCmd(app),
		newSkillOverrideCmd(app),
	)
	return cmd
}

func newSkillAddCmd(app *App) *cobra.Command {
	var (
		name, description, criteriaRaw string
		priority, status, eta          string
	)

	cmd := &cobra.Command{
		Use:   "add PLAN",
		Short: "Add a skill to a plan",
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
			prio, err := domain.ParsePriority(priority)
			if err != nil {
				return err
			}
			st, err := domain.ParseStatus(status)
			if err != nil {
				return err
			}
			sk, err := app.Skills.Create(ctx, actor, planID, service.SkillInput{
				Name:        name,
				Description: description,
				Criteria:    criteriaRaw,
				Priority:    prio,
				ETA:         optionalETA(eta),
				Status:      st,
				SortOrder:   intFlag(cmd, "order"),
			})
			if err != nil {
				return err
			}
			printOut(cmd, fmt.Sprintf("Added skill %s (%s) at position %d", formatter.Bold(sk.Name), sk.ID, sk.SortOrder))
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Skill name (required)")
	cmd.Flags().StringVar(&description, "description", "", "Skill description")
	cmd.Flags().StringVar(&criteriaRaw, "criteria", "", "Criteria: JSON list or one per line")
	cmd.Flags().StringVar(&priority, "priority", "", "Low, Medium or High (default Medium)")
	cmd.Flags().StringVar(&status, "status", "", "Planned, In Progress, Done or Blocked (default Planned)")
	cmd.Flags().StringVar(&eta, "eta", "", "Target date (YYYY-MM-DD)")
	cmd.Flags().Int("order", 0, "Position in the plan (default: last)")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newSkillListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list PLAN",
		Short: "List a plan's skills with their criteria",
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
			skills, err := app.Skills.ListByPlan(ctx, actor, planID)
			if err != nil {
				return err
			}
			if len(skills) == 0 {
				printOut(cmd, formatter.Dim("No skills."))
				return nil
			}
			for _, sk := range skills {
				printOut(cmd, formatter.FormatSkillLines(sk))
			}
			return nil
		},
	}
}

func newSkillUpdateCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update SKILL",
		Short: "Update skill fields; only flags you pass are changed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			actor, err := app.actor(ctx)
			if err != nil {
				return err
			}
			skillID, err := resolveSkillID(ctx, app, actor, args[0])
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
			sk, err := app.Skills.Update(ctx, actor, skillID, service.SkillUpdate{
				Name:        stringFlag(cmd, "name"),
				Description: stringFlag(cmd, "description"),
				Criteria:    stringFlag(cmd, "criteria"),
				Priority:    prio,
				ETA:         stringFlag(cmd, "eta"),
				Status:      st,
				SortOrder:   intFlag(cmd, "order"),
			})
			if err != nil {
				return err
			}
			printOut(cmd, formatter.FormatSkillLines(sk))
			return nil
		},
	}
	cmd.Flags().String("name", "", "New name")
	cmd.Flags().String("description", "", "New description")
	cmd.Flags().String("criteria", "", "Replacement criteria (existing done flags are kept by text)")
	cmd.Flags().String("priority", "", "Low, Medium or High")
	cmd.Flags().String("status", "", "Planned, In Progress, Done or Blocked")
	cmd.Flags().String("eta", "", "Target date; pass an empty value to clear")
	cmd.Flags().Int("order", 0, "Position in the plan")
	return cmd
}

func newSkillDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete SKILL",
		Short: "Delete a skill with its progress entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			actor, err := app.actor(ctx)
			if err != nil {
				return err
			}
			skillID, err := resolveSkillID(ctx, app, actor, args[0])
			if err != nil {
				return err
			}
			if err := app.Skills.Delete(ctx, actor, skillID); err != nil {
				return err
			}
			printOut(cmd, "Deleted skill "+skillID)
			return nil
		},
	}
}

func newSkillDoneCmd(app *App) *cobra.Command {
	var undo bool

	cmd := &cobra.Command{
		Use:   "done SKILL INDEX",
		Short: "Mark a criterion done (or not done with --undo)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			actor, err := app.actor(ctx)
			if err != nil {
				return err
			}
			skillID, err := resolveSkillID(ctx, app, actor, args[0])
			if err != nil {
				return err
			}
			idx, err := parseIndex(args[1])
			if err != nil {
				return err
			}
			sk, err := app.Skills.ToggleCriterionDone(ctx, actor, skillID, idx, !undo)
			if err != nil {
				return err
			}
			printOut(cmd, formatter.FormatSkillLines(sk))
			return nil
		},
	}
	cmd.Flags().BoolVar(&undo, "undo", false, "Clear the done flag instead")
	return cmd
}

func newSkillCommentCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "comment SKILL INDEX [TEXT]",
		Short: "Set or clear the comment on a criterion",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			actor, err := app.actor(ctx)
			if err != nil {
				return err
			}
			skillID, err := resolveSkillID(ctx, app, actor, args[0])
			if err != nil {
				return err
			}
			idx, err := parseIndex(args[1])
			if err != nil {
				return err
			}
			text := ""
			if len(args) == 3 {
				text = args[2]
			}
			sk, err := app.Skills.UpdateCriterionComment(ctx, actor, skillID, idx, text)
			if err != nil {
				return err
			}
			printOut(cmd, formatter.FormatSkillLines(sk))
			return nil
		},
	}
}

func newSkillOverrideCmd(app *App) *cobra.Command {
	var off bool

	cmd := &cobra.Command{
		Use:   "override SKILL",
		Short: "Protect a template skill from sync (or release it with --off)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			actor, err := app.actor(ctx)
			if err != nil {
				return err
			}
			skillID, err := resolveSkillID(ctx, app, actor, args[0])
			if err != nil {
				return err
			}
			sk, err := app.Skills.SetManualOverride(ctx, actor, skillID, !off)
			if err != nil {
				return err
			}
			state := "on"
			if !sk.ManualOverride {
				state = "off"
			}
			printOut(cmd, fmt.Sprintf("Manual override %s for %s", state, formatter.Bold(sk.Name)))
			return nil
		},
	}
	cmd.Flags().BoolVar(&off, "off", false, "Let template sync manage the skill again")
	return cmd
}
