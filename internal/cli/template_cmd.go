package cli

import (
	"fmt"

	"github.com/alexanderramin/pdptrack/internal/cli/formatter"
	"github.com/alexanderramin/pdptrack/internal/importer"
	"github.com/spf13/cobra"
)

func newTemplateCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "template",
		Aliases: []string{"tpl"},
		Short:   "Publish reusable plan templates and keep derived plans in sync",
	}
	cmd.AddCommand(
		newTemplateCreateCmd(app),
		newTemplateListCmd(app),
		newTemplateShowCmd(app),
		newTemplateUpdateCmd(app),
		newTemplateDeleteCmd(app),
		newTemplateSyncCmd(app),
		newTemplateAssignCmd(app),
		newTemplateComposeCmd(app),
	)
	return cmd
}

func newTemplateCreateCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "create FILE",
		Short: "Publish a template from a JSON or YAML document",
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
			t, err := app.Templates.Create(ctx, actor, doc)
			if err != nil {
				return err
			}
			printOut(cmd, fmt.Sprintf("Published template %s (%s) with %d skills",
				formatter.Bold(t.Title), t.ID, len(t.Data.Skills)))
			return nil
		},
	}
}

func newTemplateListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List published templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			templates, err := app.Templates.ListPublished(cmd.Context())
			if err != nil {
				return err
			}
			printOut(cmd, formatter.FormatTemplateList(templates))
			return nil
		},
	}
}

func newTemplateShowCmd(app *App) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "show TEMPLATE",
		Short: "Show one of your templates, or write its definition with --out",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			actor, err := app.actor(ctx)
			if err != nil {
				return err
			}
			id, err := resolveTemplateID(ctx, app, args[0])
			if err != nil {
				return err
			}
			t, err := app.Templates.Get(ctx, actor, id)
			if err != nil {
				return err
			}
			if out != "" {
				if err := importer.Save(importer.FromTemplateData(t.Data), out); err != nil {
					return err
				}
				printOut(cmd, "Wrote template definition to "+out)
				return nil
			}
			printOut(cmd, formatter.FormatTemplateShow(t))
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write the editable definition (with skill keys) to a file")
	return cmd
}

func newTemplateUpdateCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "update TEMPLATE FILE",
		Short: "Replace a template's definition",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			actor, err := app.actor(ctx)
			if err != nil {
				return err
			}
			id, err := resolveTemplateID(ctx, app, args[0])
			if err != nil {
				return err
			}
			doc, err := importer.Load(args[1])
			if err != nil {
				return err
			}
			res, err := app.Templates.Update(ctx, actor, id, doc)
			if err != nil {
				return err
			}
			printOut(cmd, "Updated template "+formatter.Bold(res.Template.Title))
			if res.Sync != nil {
				printOut(cmd, formatter.FormatSyncReport(res.Sync))
			}
			return nil
		},
	}
}

func newTemplateDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete TEMPLATE",
		Short: "Delete a template and the unmodified skills it created",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			actor, err := app.actor(ctx)
			if err != nil {
				return err
			}
			id, err := resolveTemplateID(ctx, app, args[0])
			if err != nil {
				return err
			}
			res, err := app.Templates.Delete(ctx, actor, id)
			if err != nil {
				return err
			}
			printOut(cmd, fmt.Sprintf("Deleted template; removed %d skills, unlinked %d plans",
				res.SkillsDeleted, res.PlansUnlinked))
			return nil
		},
	}
}

func newTemplateSyncCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "sync TEMPLATE",
		Short: "Push a template's definition into every derived plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			actor, err := app.actor(ctx)
			if err != nil {
				return err
			}
			id, err := resolveTemplateID(ctx, app, args[0])
			if err != nil {
				return err
			}
			report, err := app.Templates.Sync(ctx, actor, id)
			if err != nil {
				return err
			}
			printOut(cmd, formatter.FormatSyncReport(report))
			return nil
		},
	}
}

func newTemplateAssignCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "assign TEMPLATE",
		Short: "Start a new plan from a published template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			actor, err := app.actor(ctx)
			if err != nil {
				return err
			}
			id, err := resolveTemplateID(ctx, app, args[0])
			if err != nil {
				return err
			}
			res, err := app.Templates.Assign(ctx, actor, id)
			if err != nil {
				return err
			}
			printOut(cmd, fmt.Sprintf("Created plan %s (%s) with %d skills",
				formatter.Bold(res.Plan.Title), res.Plan.ID, len(res.Skills)))
			return nil
		},
	}
}

func newTemplateComposeCmd(app *App) *cobra.Command {
	var keys []string

	cmd := &cobra.Command{
		Use:   "compose PLAN TEMPLATE",
		Short: "Add a template's missing skills to an existing plan",
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
			templateID, err := resolveTemplateID(ctx, app, args[1])
			if err != nil {
				return err
			}
			res, err := app.Templates.Compose(ctx, actor, planID, templateID, keys)
			if err != nil {
				return err
			}
			if len(res.Added) == 0 {
				printOut(cmd, formatter.Dim("Plan already has every selected skill."))
				return nil
			}
			printOut(cmd, fmt.Sprintf("Added %d skills:", len(res.Added)))
			for _, sk := range res.Added {
				printOut(cmd, formatter.FormatSkillLines(sk))
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&keys, "key", nil, "Only add skills with these template keys (repeatable)")
	return cmd
}
