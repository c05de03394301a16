package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"habit-planner/internal/backup"
	"habit-planner/internal/config"
)

var syncMessage string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write every planner item to data_exports/planner_items.csv",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeDB, err := openBackup()
		if err != nil {
			return err
		}
		defer closeDB()

		path, err := svc.ExportToFile(cmd.Context())
		if err != nil {
			return err
		}
		color.Green("✓ Exported to %s", path)
		return nil
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Export, then commit and push the CSV to origin",
	Long: `Export the planner table and commit the CSV in the enclosing git repository.

Git problems never fail the command: a missing repository, an unchanged
file, a missing origin remote or a rejected push are reported and the
export stays on disk.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeDB, err := openBackup()
		if err != nil {
			return err
		}
		defer closeDB()

		msg := syncMessage
		if msg == "" {
			msg = "Sync planner: " + time.Now().Format(time.RFC3339)
		}
		path, res, err := svc.ExportAndSync(cmd.Context(), msg)
		if err != nil {
			return err
		}

		color.Green("✓ Exported to %s", path)
		printSyncResult(res)
		return nil
	},
}

func init() {
	syncCmd.Flags().StringVarP(&syncMessage, "message", "m", "", "commit message")
	rootCmd.AddCommand(exportCmd, syncCmd)
}

func openBackup() (*backup.Service, func(), error) {
	cfg := config.LoadStorage()
	applyFlags(&cfg)
	db, closeDB, err := openDB(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("db: %w", err)
	}
	return backup.NewService(db, cfg.Backup(), logger), closeDB, nil
}

func printSyncResult(res backup.SyncResult) {
	switch {
	case res.Pushed:
		color.Green("✓ Pushed to %s", backup.DefaultRemote)
	case res.Committed:
		color.Yellow("• Committed locally")
	default:
		color.Yellow("• Nothing committed")
	}
	if res.Reason != "" {
		fmt.Println(color.New(color.Faint).Sprint(res.Reason))
	}
}
