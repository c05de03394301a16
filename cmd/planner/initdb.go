package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"habit-planner/internal/config"
	"habit-planner/internal/repository"
)

var initDBCmd = &cobra.Command{
	Use:   "init-db",
	Short: "Create the database file and planner_items table",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadStorage()
		applyFlags(&cfg)

		db, closeDB, err := openDB(cfg)
		if err != nil {
			return fmt.Errorf("db: %w", err)
		}
		defer closeDB()

		n, err := repository.NewItemRepository(db).Count(cmd.Context())
		if err != nil {
			return err
		}
		color.Green("✓ Database ready at %s", cfg.DatabaseURL)
		fmt.Println(color.New(color.Faint).Sprintf("%d planner items", n))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initDBCmd)
}
