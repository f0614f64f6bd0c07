package config

import (
	"log/slog"
	"os"
	"strings"
	"time"
)

type Config struct {
	Port        string
	Env         string
	DatabaseDSN string
	JWTSecret   string
	JWTExpiry   time.Duration

	// SMTP settings for outbound transactional email. Email is disabled
	// when SMTPHost is empty.
	SMTPHost       string
	SMTPUser       string
	SMTPPass       string
	MailAddress    string
	MailSkipVerify bool

	// FrontBaseURLs is the allowlist of frontend base URLs that may be
	// embedded in verification and reset links. Empty means any absolute
	// http(s) URL is accepted.
	FrontBaseURLs []string
}

func Load() Config {
	cfg := Config{
		Port:           getEnv("PORT", "8080"),
		Env:            getEnv("ENV", "development"),
		DatabaseDSN:    getEnv("DATABASE_DSN", "root:password@tcp(127.0.0.1:3306)/users?parseTime=true"),
		JWTSecret:      getEnv("JWT_SECRET", "dev-secret-change-in-production"),
		JWTExpiry:      24 * time.Hour,
		SMTPHost:       getEnv("SMTP_HOST", ""),
		SMTPUser:       getEnv("SMTP_USER", ""),
		SMTPPass:       getEnv("SMTP_PASS", ""),
		MailAddress:    getEnv("MAIL_ADDRESS", "Accounts <no-reply@localhost>"),
		MailSkipVerify: getEnv("MAIL_SKIP_VERIFY", "") == "true",
		FrontBaseURLs:  splitList(getEnv("FRONT_BASE_URLS", "")),
	}

	if cfg.Env == "production" && cfg.JWTSecret == "dev-secret-change-in-production" {
		slog.Error("JWT_SECRET must be set in production environment")
		os.Exit(1)
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
