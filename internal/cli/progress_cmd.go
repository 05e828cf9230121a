package cli

import (
	"fmt"

	"github.com/alexanderramin/pdptrack/internal/cli/formatter"
	"github.com/alexanderramin/pdptrack/internal/service"
	"github.com/spf13/cobra"
)

func newProgressCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "progress",
		Aliases: []string{"p"},
		Short:   "Record and review progress against criteria",
	}
	cmd.AddCommand(
		newProgressAddCmd(app),
		newProgressListCmd(app),
		newProgressApproveCmd(app),
		newProgressCommentCmd(app),
		newProgressNoteCmd(app),
		newProgressDeleteCmd(app),
		newProgressPendingCmd(app),
	)
	return cmd
}

// criterionTarget resolves the leading SKILL INDEX arguments shared by
// every progress subcommand.
func criterionTarget(cmd *cobra.Command, app *App, args []string) (string, service.CriterionRef, error) {
	ctx := cmd.Context()
	actor, err := app.actor(ctx)
	if err != nil {
		return "", service.CriterionRef{}, err
	}
	skillID, err := resolveSkillID(ctx, app, actor, args[0])
	if err != nil {
		return "", service.CriterionRef{}, err
	}
	idx, err := parseIndex(args[1])
	if err != nil {
		return "", service.CriterionRef{}, err
	}
	return actor, service.CriterionRef{SkillID: skillID, Index: idx}, nil
}

func newProgressAddCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "add SKILL INDEX NOTE",
		Short: "Record progress on one of your criteria",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, ref, err := criterionTarget(cmd, app, args)
			if err != nil {
				return err
			}
			e, err := app.Progress.Add(cmd.Context(), actor, ref, args[2])
			if err != nil {
				return err
			}
			printOut(cmd, fmt.Sprintf("Recorded entry %s on criterion #%d", e.ID, e.CriterionIndex))
			return nil
		},
	}
}

func newProgressListCmd(app *App) *cobra.Command {
	var approvedOnly bool

	cmd := &cobra.Command{
		Use:   "list SKILL INDEX",
		Short: "Show the ledger of one criterion",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, ref, err := criterionTarget(cmd, app, args)
			if err != nil {
				return err
			}
			list := app.Progress.List
			if approvedOnly {
				list = app.Progress.ListApproved
			}
			entries, err := list(cmd.Context(), actor, ref)
			if err != nil {
				return err
			}
			printOut(cmd, formatter.FormatEntries(entries))
			return nil
		},
	}
	cmd.Flags().BoolVar(&approvedOnly, "approved", false, "Only approved entries")
	return cmd
}

func newProgressApproveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "approve SKILL INDEX ENTRY",
		Short: "Approve an entry on a plan you curate",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, ref, err := criterionTarget(cmd, app, args)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			entryID, err := resolveEntryID(ctx, app, actor, ref, args[2])
			if err != nil {
				return err
			}
			e, err := app.Progress.Approve(ctx, actor, ref, entryID)
			if err != nil {
				return err
			}
			printOut(cmd, fmt.Sprintf("Approved entry %s", e.ID))
			return nil
		},
	}
}

func newProgressCommentCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "comment SKILL INDEX ENTRY [TEXT]",
		Short: "Set or clear curator feedback on an entry",
		Args:  cobra.RangeArgs(3, 4),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, ref, err := criterionTarget(cmd, app, args)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			entryID, err := resolveEntryID(ctx, app, actor, ref, args[2])
			if err != nil {
				return err
			}
			text := ""
			if len(args) == 4 {
				text = args[3]
			}
			if _, err := app.Progress.SetCuratorComment(ctx, actor, ref, entryID, text); err != nil {
				return err
			}
			printOut(cmd, "Comment saved on entry "+entryID)
			return nil
		},
	}
}

func newProgressNoteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "note SKILL INDEX ENTRY NOTE",
		Short: "Edit the note of an unapproved entry",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, ref, err := criterionTarget(cmd, app, args)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			entryID, err := resolveEntryID(ctx, app, actor, ref, args[2])
			if err != nil {
				return err
			}
			if _, err := app.Progress.UpdateNote(ctx, actor, ref, entryID, args[3]); err != nil {
				return err
			}
			printOut(cmd, "Note updated on entry "+entryID)
			return nil
		},
	}
}

func newProgressDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete SKILL INDEX ENTRY",
		Short: "Delete an entry from your plan",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, ref, err := criterionTarget(cmd, app, args)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			entryID, err := resolveEntryID(ctx, app, actor, ref, args[2])
			if err != nil {
				return err
			}
			if err := app.Progress.Delete(ctx, actor, ref, entryID); err != nil {
				return err
			}
			printOut(cmd, "Deleted entry "+entryID)
			return nil
		},
	}
}

func newProgressPendingCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "List entries awaiting your approval",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			actor, err := app.actor(ctx)
			if err != nil {
				return err
			}
			items, err := app.Progress.Pending(ctx, actor)
			if err != nil {
				return err
			}
			printOut(cmd, formatter.FormatPending(items))
			return nil
		},
	}
}
