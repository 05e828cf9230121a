package main

import (
	"fmt"
	"os"

	"github.com/alexanderramin/pdptrack/internal/cli"
	"github.com/alexanderramin/pdptrack/internal/config"
	"github.com/alexanderramin/pdptrack/internal/db"
	"github.com/alexanderramin/pdptrack/internal/logging"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", cli.ErrorMessage(err))
		os.Exit(1)
	}
}

func run() error {
	app := &cli.App{}

	// Services are wired after flags and config are resolved, since --db,
	// --log-level and --timezone all feed into them.
	app.Connect = func(cfg *config.Config) (func() error, error) {
		logger, err := logging.New(cfg.Log)
		if err != nil {
			return nil, err
		}

		database, err := db.OpenDB(cfg.DB)
		if err != nil {
			_ = logger.Sync()
			return nil, fmt.Errorf("opening database: %w", err)
		}
		logger.Debug("database opened", zap.String("path", cfg.DB))

		app.Wire(database, cfg, logger)

		return func() error {
			_ = logger.Sync()
			return database.Close()
		}, nil
	}

	rootCmd := cli.NewRootCmd(app)
	err := rootCmd.Execute()
	if cerr := app.Close(); err == nil {
		err = cerr
	}
	return err
}
