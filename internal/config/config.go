package config

import (
	"os"

	apperrors "calistenia/pkg/errors"

	"github.com/hiendaovinh/toolkit/pkg/env"
)

// Config is the typed view over the process environment. Required
// variables fail fast at startup; everything else has a default.
type Config struct {
	BotToken    string
	GuildID     string
	AdminRoleID string

	DBDSN      string
	DBPassword string
	RedisURL   string

	OpenAIAPIKey    string
	OpenAIBaseURL   string
	RoutineSheetURL string

	HTTPAddr string
	Mode     string

	LogLevel  string
	LogFormat string

	CronInactivity string
	CronClasses    string
	CronAdvisory   string
	CronRanking    string
	CronRoutine    string
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Load reads the environment into a Config.
func Load() (*Config, error) {
	vs, err := env.EnvsRequired(
		"DISCORD_BOT_TOKEN",
		"DB_DSN",
		"REDIS_URL",
	)
	if err != nil {
		return nil, apperrors.New(apperrors.ErrConfigLoad, "missing required environment", err)
	}

	return &Config{
		BotToken:    vs["DISCORD_BOT_TOKEN"],
		GuildID:     os.Getenv("GUILD_ID"),
		AdminRoleID: os.Getenv("ADMIN_ROLE_ID"),

		DBDSN:      vs["DB_DSN"],
		DBPassword: os.Getenv("DB_PASSWORD"),
		RedisURL:   vs["REDIS_URL"],

		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:   envOr("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		RoutineSheetURL: os.Getenv("ROUTINE_SHEET_URL"),

		HTTPAddr: envOr("HTTP_ADDR", "0.0.0.0:8080"),
		Mode:     envOr("MODE", "production"),

		LogLevel:  envOr("LOG_LEVEL", "info"),
		LogFormat: envOr("LOG_FORMAT", "text"),

		CronInactivity: envOr("CRON_INACTIVITY", "@every 24h"),
		CronClasses:    envOr("CRON_CLASSES", "@every 1h"),
		CronAdvisory:   envOr("CRON_ADVISORY", "@every 48h"),
		CronRanking:    envOr("CRON_RANKING", "0 20 * * 0"),
		CronRoutine:    envOr("CRON_ROUTINE", "0 12 * * *"),
	}, nil
}
