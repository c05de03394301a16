package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"habit-planner/internal/auth"
	"habit-planner/internal/backup"
	"habit-planner/internal/repository"
)

// Config keeps runtime settings for the planner.
type Config struct {
	ListenAddr  string
	DatabaseURL string
	Debug       bool

	Username         string
	DisplayName      string
	PasswordHash     string
	CookieName       string
	CookieSigningKey string
	CookieExpiryDays int

	RepoDir      string
	SyncInterval time.Duration
	SyncTimeout  time.Duration

	TelegramToken  string
	TelegramChatID int64
	ReportTime     string
}

// Load reads configuration from environment variables with sane defaults.
// A plain PLANNER_PASSWORD is hashed here when no hash is configured.
func Load() (Config, error) {
	cfg := Config{
		ListenAddr:       env("LISTEN_ADDR", ":8501"),
		DatabaseURL:      env("DATABASE_URL", repository.DefaultDSN),
		Debug:            parseBool(env("DEBUG", "")),
		Username:         env("PLANNER_USERNAME", "anish"),
		DisplayName:      env("PLANNER_DISPLAY_NAME", "Anish"),
		PasswordHash:     env("PLANNER_PASSWORD_HASH", ""),
		CookieName:       env("COOKIE_NAME", auth.DefaultCookieName),
		CookieSigningKey: env("COOKIE_KEY", ""),
		RepoDir:          env("REPO_DIR", "."),
		TelegramToken:    env("TELEGRAM_TOKEN", ""),
		ReportTime:       env("REPORT_TIME", "21:00"),
	}

	var err error
	if cfg.CookieExpiryDays, err = parseNonNegativeInt("COOKIE_EXPIRY_DAYS", auth.DefaultCookieExpiryDays); err != nil {
		return cfg, err
	}
	if cfg.CookieExpiryDays == 0 {
		return cfg, fmt.Errorf("COOKIE_EXPIRY_DAYS must be at least 1")
	}
	minutes, err := parseNonNegativeInt("SYNC_INTERVAL_MINUTES", 0)
	if err != nil {
		return cfg, err
	}
	cfg.SyncInterval = time.Duration(minutes) * time.Minute

	cfg.SyncTimeout = backup.DefaultTimeout
	if raw := env("SYNC_TIMEOUT", ""); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return cfg, fmt.Errorf("invalid SYNC_TIMEOUT %q", raw)
		}
		cfg.SyncTimeout = d
	}

	if raw := env("TELEGRAM_CHAT_ID", ""); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("invalid TELEGRAM_CHAT_ID %q", raw)
		}
		cfg.TelegramChatID = id
	}
	if cfg.TelegramToken != "" && cfg.TelegramChatID == 0 {
		return cfg, fmt.Errorf("TELEGRAM_CHAT_ID is required when TELEGRAM_TOKEN is set")
	}

	if cfg.PasswordHash == "" {
		plain := os.Getenv("PLANNER_PASSWORD")
		if plain == "" {
			return cfg, fmt.Errorf("PLANNER_PASSWORD_HASH or PLANNER_PASSWORD is required")
		}
		if cfg.PasswordHash, err = auth.HashPassword(plain); err != nil {
			return cfg, err
		}
	}
	if cfg.CookieSigningKey == "" {
		return cfg, fmt.Errorf("COOKIE_KEY is required")
	}

	return cfg, nil
}

// LoadStorage reads only the settings needed by commands that never serve HTTP.
func LoadStorage() Config {
	return Config{
		DatabaseURL: env("DATABASE_URL", repository.DefaultDSN),
		Debug:       parseBool(env("DEBUG", "")),
		RepoDir:     env("REPO_DIR", "."),
		SyncTimeout: backup.DefaultTimeout,
	}
}

// Auth projects the auth gate settings.
func (c Config) Auth() auth.Config {
	return auth.Config{
		Username:         c.Username,
		DisplayName:      c.DisplayName,
		PasswordHash:     c.PasswordHash,
		CookieName:       c.CookieName,
		CookieSigningKey: []byte(c.CookieSigningKey),
		CookieExpiryDays: c.CookieExpiryDays,
	}
}

func (c Config) Backup() backup.Config {
	return backup.Config{
		RepoDir:    c.RepoDir,
		ExportPath: backup.DefaultExportPath,
		Timeout:    c.SyncTimeout,
	}
}

func env(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func parseBool(raw string) bool {
	v, err := strconv.ParseBool(raw)
	return err == nil && v
}

func parseNonNegativeInt(key string, fallback int) (int, error) {
	raw := env(key, "")
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s %q", key, raw)
	}
	return n, nil
}
