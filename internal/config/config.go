// Package config содержит логику чтения конфигурации краудфандинговой платформы.
package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	defaultRunAddress    = "localhost:8080"
	defaultPaymentAPIURL = "https://api.razorpay.com/v1"
	defaultTokenTTL      = 720 * time.Hour
	defaultSweepInterval = time.Minute
)

// Config содержит параметры конфигурации сервера.
type Config struct {
	RunAddress  string `env:"RUN_ADDRESS"`
	DatabaseURI string `env:"DATABASE_URI"`

	PaymentAPIURL    string `env:"PAYMENT_API_URL"`
	PaymentKeyID     string `env:"PAYMENT_KEY_ID"`
	PaymentKeySecret string `env:"PAYMENT_KEY_SECRET"`
	PaymentSandbox   bool   `env:"PAYMENT_SANDBOX"`

	JWTSecret string        `env:"JWT_SECRET"`
	TokenTTL  time.Duration `env:"TOKEN_TTL"`

	StatusSweepInterval time.Duration `env:"STATUS_SWEEP_INTERVAL"`
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
// Переменные окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	cfg := &Config{
		TokenTTL:            defaultTokenTTL,
		StatusSweepInterval: defaultSweepInterval,
	}

	flag.StringVar(&cfg.RunAddress, "a", defaultRunAddress, "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI")
	flag.StringVar(&cfg.PaymentAPIURL, "r", defaultPaymentAPIURL, "payment provider API base URL")

	flag.Parse()

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = defaultRunAddress
	}
	if cfg.PaymentAPIURL == "" {
		cfg.PaymentAPIURL = defaultPaymentAPIURL
	}
	if cfg.TokenTTL <= 0 {
		return nil, fmt.Errorf("TOKEN_TTL must be positive, got %s", cfg.TokenTTL)
	}
	if cfg.StatusSweepInterval <= 0 {
		return nil, fmt.Errorf("STATUS_SWEEP_INTERVAL must be positive, got %s", cfg.StatusSweepInterval)
	}

	return cfg, nil
}
