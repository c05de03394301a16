package main

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"habit-planner/internal/config"
	"habit-planner/internal/repository"
)

var (
	dbPath string
	debug  bool
	logger = log.New()
)

var rootCmd = &cobra.Command{
	Use:   "planner",
	Short: "Personal task and habit planner",
	Long: `Planner tracks daily tasks and habits with XP scores.

QUICK START:

  $ planner hash-password 'secret'      # Print a bcrypt hash for PLANNER_PASSWORD_HASH
  $ planner init-db                     # Create db/database.db
  $ planner serve                       # Web UI on :8501
  $ planner export                      # Write data_exports/planner_items.csv
  $ planner sync -m "Weekly backup"     # Export, commit and push to origin

CONFIGURATION:

  Settings come from the environment. serve requires PLANNER_PASSWORD_HASH
  (or PLANNER_PASSWORD) and COOKIE_KEY. TELEGRAM_TOKEN together with
  TELEGRAM_CHAT_ID enables the chat channel and the daily report.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.SetOutput(os.Stderr)
		logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
		if debug || config.LoadStorage().Debug {
			logger.SetLevel(log.DebugLevel)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path (overrides DATABASE_URL)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "verbose logging")
}

// applyFlags lets command line flags win over the environment.
func applyFlags(cfg *config.Config) {
	if dbPath != "" {
		cfg.DatabaseURL = dbPath
	}
	if debug {
		cfg.Debug = true
	}
}

func openDB(cfg config.Config) (*gorm.DB, func(), error) {
	db, err := repository.NewDB(cfg.DatabaseURL, logger)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	return db, closeFn, nil
}
