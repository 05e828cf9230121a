package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/alexanderramin/pdptrack/internal/config"
	"github.com/alexanderramin/pdptrack/internal/domain"
	"github.com/alexanderramin/pdptrack/internal/service"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// App holds references to all service interfaces used by CLI commands.
type App struct {
	Users     service.UserService
	Plans     service.PlanService
	Skills    service.SkillService
	Progress  service.ProgressService
	Templates service.TemplateService
	Reports   service.ReportService

	Logger *zap.Logger
	Config *config.Config

	// Connect wires the services above from the resolved configuration and
	// returns a cleanup func. Tests leave it nil and preset the services.
	Connect func(cfg *config.Config) (func() error, error)

	cleanup func() error
}

// NewRootCmd creates the top-level "pdp" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:           "pdp",
		Short:         "Personal development plans with curator-approved progress",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.setup(cmd, configFile)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return app.Close()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "Config file (default ./pdp.yaml, then ~/.pdp/pdp.yaml)")
	pf.String("as", "", "Acting user: id or email (config key user, env PDP_USER)")
	pf.String("db", "", "SQLite database path")
	pf.String("log-level", "", "Log level: debug, info, warn, error")
	pf.String("timezone", "", "Time zone for daily report buckets")

	root.AddCommand(
		newUserCmd(app),
		newPlanCmd(app),
		newSkillCmd(app),
		newProgressCmd(app),
		newTemplateCmd(app),
		newReportCmd(app),
	)
	return root
}

func (a *App) setup(cmd *cobra.Command, configFile string) error {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return err
	}
	a.Config = cfg

	if a.Connect != nil {
		cleanup, err := a.Connect(cfg)
		if err != nil {
			return err
		}
		a.cleanup = cleanup
	}
	if a.Logger == nil {
		a.Logger = zap.NewNop()
	}
	a.Logger.Debug("command started",
		zap.String("command", cmd.CommandPath()),
		zap.String("config", cfg.File),
	)
	return nil
}

// Close releases what Connect opened. Safe to call more than once.
func (a *App) Close() error {
	if a.cleanup == nil {
		return nil
	}
	err := a.cleanup()
	a.cleanup = nil
	return err
}

// actor resolves the acting user from --as, PDP_USER or the config file.
func (a *App) actor(ctx context.Context) (string, error) {
	ref := ""
	if a.Config != nil {
		ref = a.Config.User
	}
	if ref == "" {
		return "", errors.New("no acting user: pass --as <id|email> or set user in pdp.yaml")
	}
	u, err := a.Users.Resolve(ctx, ref)
	if err != nil {
		return "", fmt.Errorf("acting user %q: %w", ref, err)
	}
	return u.ID, nil
}

// ErrorMessage turns service errors into a line for the terminal.
func ErrorMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrEntryMismatch):
		return "forbidden: the entry does not belong to that criterion"
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden: your role on this plan does not allow that (" + err.Error() + ")"
	case errors.Is(err, domain.ErrInvalidIndex):
		return "no such criterion: " + err.Error()
	case errors.Is(err, domain.ErrImmutable):
		return "cannot change: " + err.Error()
	default:
		return err.Error()
	}
}
