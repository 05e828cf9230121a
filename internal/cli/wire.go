package cli

import (
	"database/sql"

	"github.com/alexanderramin/pdptrack/internal/config"
	"github.com/alexanderramin/pdptrack/internal/db"
	"github.com/alexanderramin/pdptrack/internal/repository"
	"github.com/alexanderramin/pdptrack/internal/service"
	"go.uber.org/zap"
)

// Wire builds every service over database using cfg and logger.
func (a *App) Wire(database *sql.DB, cfg *config.Config, logger *zap.Logger) {
	userRepo := repository.NewSQLiteUserRepo(database)
	planRepo := repository.NewSQLitePlanRepo(database)
	skillRepo := repository.NewSQLiteSkillRepo(database)
	progressRepo := repository.NewSQLiteProgressRepo(database)
	templateRepo := repository.NewSQLiteTemplateRepo(database)

	uow := db.NewSQLiteUnitOfWork(database)
	observer := service.NewZapUseCaseObserver(logger)

	levels := make([]service.Level, 0, len(cfg.Levels))
	for _, l := range cfg.Levels {
		levels = append(levels, service.Level{Key: l.Key, Title: l.Title, Threshold: l.Threshold})
	}

	syncer := service.NewTemplateSyncEngine(planRepo, uow, logger, observer)

	a.Users = service.NewUserService(userRepo)
	a.Plans = service.NewPlanService(planRepo, skillRepo, userRepo, uow, observer)
	a.Skills = service.NewSkillService(skillRepo, planRepo, uow)
	a.Progress = service.NewProgressService(progressRepo, skillRepo, planRepo, cfg.Approvals.PendingLimit)
	a.Templates = service.NewTemplateService(templateRepo, planRepo, skillRepo, userRepo, uow, syncer, cfg.Sync.OnTemplateSave, observer)
	a.Reports = service.NewReportService(planRepo, skillRepo, progressRepo, userRepo, service.ReportSettings{
		Location:      cfg.Location(),
		WindowDays:    cfg.Report.WindowDays,
		OverviewLimit: cfg.Overview.Limit,
		Levels:        levels,
	})
	a.Logger = logger
}
