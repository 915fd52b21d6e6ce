// Package config содержит логику чтения конфигурации сервиса магазина продуктов.
package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config содержит параметры конфигурации сервиса магазина продуктов.
type Config struct {
	RunAddress      string `env:"RUN_ADDRESS"`
	DatabaseURI     string `env:"DATABASE_URI"`
	JWTSecret       string `env:"JWT_SECRET"`
	TokenTTLMinutes int    `env:"TOKEN_TTL"`
	SMTPAddr        string `env:"SMTP_ADDR"`
	SMTPFrom        string `env:"SMTP_FROM"`
	SMTPUsername    string `env:"SMTP_USERNAME"`
	SMTPPassword    string `env:"SMTP_PASSWORD"`
	AdminEmail      string `env:"ADMIN_EMAIL"`
}

// TokenTTL возвращает время жизни токена доступа.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLMinutes) * time.Minute
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
func Parse() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envRunAddress := cfg.RunAddress
	envDatabaseURI := cfg.DatabaseURI
	envJWTSecret := cfg.JWTSecret
	envSMTPAddr := cfg.SMTPAddr
	envAdminEmail := cfg.AdminEmail

	flag.StringVar(&cfg.RunAddress, "a", "localhost:8080", "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI")
	flag.StringVar(&cfg.JWTSecret, "s", "grocery-secret", "secret key for signing access tokens")
	flag.StringVar(&cfg.SMTPAddr, "m", "", "SMTP server address (host:port)")
	flag.StringVar(&cfg.AdminEmail, "e", "", "email for contact form notifications")

	flag.Parse()

	if envRunAddress != "" {
		cfg.RunAddress = envRunAddress
	}
	if envDatabaseURI != "" {
		cfg.DatabaseURI = envDatabaseURI
	}
	if envJWTSecret != "" {
		cfg.JWTSecret = envJWTSecret
	}
	if envSMTPAddr != "" {
		cfg.SMTPAddr = envSMTPAddr
	}
	if envAdminEmail != "" {
		cfg.AdminEmail = envAdminEmail
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = "localhost:8080"
	}
	if cfg.TokenTTLMinutes <= 0 {
		cfg.TokenTTLMinutes = 30
	}

	return cfg, nil
}
