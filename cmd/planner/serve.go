package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"habit-planner/internal/auth"
	"habit-planner/internal/backup"
	"habit-planner/internal/bot"
	"habit-planner/internal/config"
	"habit-planner/internal/repository"
	"habit-planner/internal/service"
	"habit-planner/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web UI, scheduler and optional Telegram bot",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		applyFlags(&cfg)
		return serve(cmd.Context(), cfg)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(parent context.Context, cfg config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, closeDB, err := openDB(cfg)
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	defer closeDB()

	planner := service.NewPlannerService(repository.NewItemRepository(db))
	summary := service.NewSummaryService(planner)
	backupSvc := backup.NewService(db, cfg.Backup(), logger)

	gate, err := auth.NewGate(cfg.Auth())
	if err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	srv, err := web.NewServer(cfg.ListenAddr, planner, backupSvc, gate, logger)
	if err != nil {
		return fmt.Errorf("web: %w", err)
	}

	var telegramBot *bot.Bot
	if cfg.TelegramToken != "" {
		telegramBot, err = bot.New(cfg.TelegramToken, cfg.TelegramChatID, cfg.Username, planner, summary, backupSvc, logger)
		if err != nil {
			return fmt.Errorf("bot: %w", err)
		}
	}

	scheduler := service.NewSchedulerService(time.Local)
	if cfg.SyncInterval > 0 {
		if _, err := scheduler.ScheduleInterval(cfg.SyncInterval, func() {
			path, res, err := backupSvc.ExportAndSync(ctx, "Auto-sync planner: "+time.Now().Format(time.RFC3339))
			if err != nil {
				logger.WithError(err).Error("scheduled export")
				return
			}
			logger.WithField("path", path).WithField("pushed", res.Pushed).Debug("scheduled sync done")
		}); err != nil {
			return fmt.Errorf("schedule sync: %w", err)
		}
	}
	if telegramBot != nil {
		if _, err := scheduler.ScheduleDaily(cfg.ReportTime, func() {
			jobCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			defer cancel()
			if err := telegramBot.SendDailyReport(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
				logger.WithError(err).Warn("daily report")
			}
		}); err != nil {
			return fmt.Errorf("schedule report: %w", err)
		}
	}
	if scheduler.Entries() > 0 {
		scheduler.Start()
		defer scheduler.Stop()
	}

	errCh := make(chan error, 2)
	go func() { errCh <- srv.Start() }()
	if telegramBot != nil {
		go func() {
			if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.WithError(err).Error("bot stopped")
			}
		}()
	}

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("web: %w", err)
		}
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("shutdown complete")
	return nil
}
