package cli

import (
	"fmt"

	"github.com/alexanderramin/pdptrack/internal/cli/formatter"
	"github.com/spf13/cobra"
)

func newUserCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Register and look up users",
	}
	cmd.AddCommand(
		newUserRegisterCmd(app),
		newUserListCmd(app),
		newUserSearchCmd(app),
		newUserWhoamiCmd(app),
	)
	return cmd
}

func newUserRegisterCmd(app *App) *cobra.Command {
	var name, email string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a new user",
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := app.Users.Register(cmd.Context(), name, email)
			if err != nil {
				return err
			}
			printOut(cmd, fmt.Sprintf("Registered %s <%s> (%s)", u.Name, u.Email, u.ID))
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Display name (required)")
	cmd.Flags().StringVar(&email, "email", "", "Email address (required)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newUserListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all users",
		RunE: func(cmd *cobra.Command, args []string) error {
			users, err := app.Users.List(cmd.Context())
			if err != nil {
				return err
			}
			printOut(cmd, formatter.FormatUserList(users))
			return nil
		},
	}
}

func newUserSearchCmd(app *App) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search QUERY",
		Short: "Find users by name or email",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			users, err := app.Users.Search(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}
			printOut(cmd, formatter.FormatUserList(users))
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum results (1-20)")
	return cmd
}

func newUserWhoamiCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the acting user",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			actor, err := app.actor(ctx)
			if err != nil {
				return err
			}
			u, err := app.Users.GetByID(ctx, actor)
			if err != nil {
				return err
			}
			printOut(cmd, fmt.Sprintf("%s <%s> (%s)", u.Name, u.Email, u.ID))
			return nil
		},
	}
}
