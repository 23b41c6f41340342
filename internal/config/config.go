package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds process-level settings read once at startup. Escalation
// timings live in the store and are edited through the admin API; only
// deployment concerns belong here.
type Config struct {
	Port    string
	DBPath  string
	BaseURL string

	Location *time.Location

	SlackBotToken      string
	SlackSigningSecret string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	AdminUsername     string
	AdminPasswordHash string
	SecretKey         string
}

// Load reads configuration from the environment, with a .env file as a
// convenience for local runs.
func Load() (Config, error) {
	_ = godotenv.Load()

	location, err := time.LoadLocation(envOrDefault("TZ", "UTC"))
	if err != nil {
		return Config{}, fmt.Errorf("parse TZ: %w", err)
	}

	smtpPort := 587
	if raw := os.Getenv("SMTP_PORT"); raw != "" {
		smtpPort, err = strconv.Atoi(raw)
		if err != nil {
			return Config{}, fmt.Errorf("parse SMTP_PORT: %w", err)
		}
	}

	cfg := Config{
		Port:    envOrDefault("PORT", "8080"),
		DBPath:  envOrDefault("DB_PATH", "data/rollcall.db"),
		BaseURL: envOrDefault("BASE_URL", "http://localhost:8080"),

		Location: location,

		SlackBotToken:      os.Getenv("SLACK_BOT_TOKEN"),
		SlackSigningSecret: os.Getenv("SLACK_SIGNING_SECRET"),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     smtpPort,
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:     os.Getenv("SMTP_FROM"),

		AdminUsername:     envOrDefault("ADMIN_USERNAME", "admin"),
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
		SecretKey:         os.Getenv("SECRET_KEY"),
	}

	if cfg.SlackBotToken == "" {
		return Config{}, fmt.Errorf("SLACK_BOT_TOKEN is required")
	}
	if cfg.AdminPasswordHash == "" {
		return Config{}, fmt.Errorf("ADMIN_PASSWORD_HASH is required")
	}
	if cfg.SecretKey == "" {
		return Config{}, fmt.Errorf("SECRET_KEY is required")
	}
	return cfg, nil
}

// EmailConfigured reports whether the SMTP transport can be wired at all.
// The store-level email toggle only matters when this is true.
func (cfg Config) EmailConfigured() bool {
	return cfg.SMTPHost != "" && cfg.SMTPFrom != ""
}

func envOrDefault(key string, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
