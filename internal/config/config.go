package config

import (
	"fmt"
	"os"
	"strconv"
)

// SMTPConfig is resolved once at startup and handed to the mailer. The
// mailer never reads the environment itself.
type SMTPConfig struct {
	Host       string
	Port       int
	Auth       bool
	User       string
	Pass       string
	FromEmail  string
	FromName   string
	DebugLevel int // 0 = off, 1 = client, 2 = client+server
}

type Config struct {
	SMTP             SMTPConfig
	SiteName         string
	SiteURL          string
	AdminEmail       string
	UnsubRedirectURL string
	Port             string
}

func Load() (*Config, error) {
	smtpPortStr := os.Getenv("SMTP_PORT")
	if smtpPortStr == "" {
		smtpPortStr = "587"
	}
	smtpPort, err := strconv.Atoi(smtpPortStr)
	if err != nil {
		return nil, fmt.Errorf("invalid SMTP_PORT: %w", err)
	}

	debugStr := os.Getenv("SMTP_DEBUG")
	if debugStr == "" {
		debugStr = "0"
	}
	debug, err := strconv.Atoi(debugStr)
	if err != nil || debug < 0 || debug > 2 {
		return nil, fmt.Errorf("invalid SMTP_DEBUG: %q (want 0, 1 or 2)", debugStr)
	}

	cfg := &Config{
		SMTP: SMTPConfig{
			Host:       os.Getenv("SMTP_HOST"),
			Port:       smtpPort,
			Auth:       os.Getenv("SMTP_AUTH") != "0",
			User:       os.Getenv("SMTP_USER"),
			Pass:       os.Getenv("SMTP_PASS"),
			FromEmail:  os.Getenv("FROM_EMAIL"),
			FromName:   os.Getenv("FROM_NAME"),
			DebugLevel: debug,
		},
		SiteName:         os.Getenv("SITE_NAME"),
		SiteURL:          os.Getenv("SITE_URL"),
		AdminEmail:       os.Getenv("ADMIN_EMAIL"),
		UnsubRedirectURL: os.Getenv("UNSUB_REDIRECT_URL"),
		Port:             os.Getenv("PORT"),
	}

	if cfg.SMTP.Host == "" {
		return nil, fmt.Errorf("SMTP_HOST environment variable is not set")
	}
	if cfg.SMTP.FromEmail == "" {
		return nil, fmt.Errorf("FROM_EMAIL environment variable is not set")
	}
	if cfg.SiteName == "" {
		cfg.SiteName = "Newsletter"
	}
	if cfg.SMTP.FromName == "" {
		cfg.SMTP.FromName = cfg.SiteName
	}
	if cfg.SiteURL == "" {
		cfg.SiteURL = "http://localhost:8080"
	}
	if cfg.UnsubRedirectURL == "" {
		cfg.UnsubRedirectURL = cfg.SiteURL + "/thanks?unsub=ok"
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}

	return cfg, nil
}
