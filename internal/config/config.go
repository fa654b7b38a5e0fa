package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime settings for the assistant service.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string

	AllowAnyOrigin bool

	SystemPrompt string

	CompletionMode    string
	CompletionURL     string
	CompletionTimeout time.Duration

	HistoryCap      int
	ShortHistoryCap int

	DatabaseURL string
	SQLitePath  string

	WhatsAppEnabled bool
	WhatsAppDBPath  string

	OTPTTL time.Duration

	BackupEnabled  bool
	BackupDir      string
	BackupRemote   string
	BackupInterval time.Duration
}

// DefaultSystemPrompt is the assistant persona attached to every
// completion request unless BOT_SYSTEM_PROMPT overrides it.
const DefaultSystemPrompt = `You are StackVerify's helpful assistant. Always reply with short, clear, human-like messages that attract developers and digital marketers to use StackVerify.
StackVerify is an email, WhatsApp, and SMS verification and marketing platform. Website: https://stackverify.vercel.app
Email and WhatsApp verification are free. Full marketing tools cost only 0.75 KES.
Keep the tone friendly and helpful, focus only on StackVerify's services, and refer users to the website for billing, integrations, and full details.
Do not mention AI, chatbots, or technical implementation details.`

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:          envOrDefault("APP_BIND_ADDR", ":3000"),
		MetricsNamespace:  envOrDefault("APP_METRICS_NAMESPACE", "stackbot"),
		AllowAnyOrigin:    false,
		SystemPrompt:      envOrDefault("BOT_SYSTEM_PROMPT", DefaultSystemPrompt),
		CompletionMode:    envOrDefault("COMPLETION_MODE", "http"),
		CompletionURL:     envOrDefault("COMPLETION_URL", "https://api.dreaded.site/api/chatgpt"),
		CompletionTimeout: 30 * time.Second,
		HistoryCap:        20,
		ShortHistoryCap:   4,
		DatabaseURL:       strings.TrimSpace(os.Getenv("DATABASE_URL")),
		SQLitePath:        envOrDefault("SQLITE_PATH", "data/stackbot.db"),
		WhatsAppEnabled:   true,
		WhatsAppDBPath:    envOrDefault("WHATSAPP_DB_PATH", "data/session.db"),
		OTPTTL:            5 * time.Minute,
		BackupEnabled:     false,
		BackupDir:         envOrDefault("BACKUP_DIR", "backup"),
		BackupRemote:      strings.TrimSpace(os.Getenv("BACKUP_REMOTE")),
		BackupInterval:    2 * time.Minute,
		ShutdownTimeout:   15 * time.Second,
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.CompletionTimeout, err = durationFromEnv("COMPLETION_TIMEOUT", cfg.CompletionTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.HistoryCap, err = intFromEnv("CHAT_HISTORY_CAP", cfg.HistoryCap)
	if err != nil {
		return Config{}, err
	}
	cfg.ShortHistoryCap, err = intFromEnv("CHAT_SHORT_HISTORY_CAP", cfg.ShortHistoryCap)
	if err != nil {
		return Config{}, err
	}
	cfg.OTPTTL, err = durationFromEnv("OTP_TTL", cfg.OTPTTL)
	if err != nil {
		return Config{}, err
	}
	cfg.BackupInterval, err = durationFromEnv("BACKUP_INTERVAL", cfg.BackupInterval)
	if err != nil {
		return Config{}, err
	}
	cfg.WhatsAppEnabled, err = boolFromEnv("WHATSAPP_ENABLED", cfg.WhatsAppEnabled)
	if err != nil {
		return Config{}, err
	}
	cfg.BackupEnabled, err = boolFromEnv("BACKUP_ENABLED", cfg.BackupEnabled)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}

	if cfg.HistoryCap <= 0 {
		return Config{}, fmt.Errorf("CHAT_HISTORY_CAP must be positive")
	}
	if cfg.ShortHistoryCap <= 0 || cfg.ShortHistoryCap > cfg.HistoryCap {
		return Config{}, fmt.Errorf("CHAT_SHORT_HISTORY_CAP must be in 1..CHAT_HISTORY_CAP")
	}
	if cfg.CompletionTimeout <= 0 {
		return Config{}, fmt.Errorf("COMPLETION_TIMEOUT must be positive")
	}
	if cfg.OTPTTL < time.Minute {
		return Config{}, fmt.Errorf("OTP_TTL must be at least 1m")
	}
	if cfg.BackupEnabled && strings.TrimSpace(cfg.BackupDir) == "" {
		return Config{}, fmt.Errorf("BACKUP_DIR must be set when BACKUP_ENABLED=true")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
