// Copyright (c) 2025 Aysel Karaca.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cliparse

import (
	"errors"
	"flag"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port         int
	DatabaseURL  string
	DatabaseType string

	// Secrets
	SessionSecret string
	RateLimitSalt string

	// Captcha
	CaptchaProvider string
	CaptchaSecret   string
	CaptchaMode     string // "monitor" or "enforce"

	// Base URL used when building magic-link redirect URLs
	AuthBaseURL string
}

// Captcha mode constants
const (
	CaptchaMonitor = "monitor"
	CaptchaEnforce = "enforce"
)

// ParseFlags validates flags and fills the config from CLI args with
// environment fallback. A .env file is loaded first if present.
func ParseFlags(args []string) (Config, error) {
	// Silent no-op when no .env exists
	_ = godotenv.Load()

	var cfg Config

	fs := flag.NewFlagSet("proverbly", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.SessionSecret, "session-secret", "", "Session JWT signing secret (prefer env)")
	fs.StringVar(&cfg.RateLimitSalt, "ratelimit-salt", "", "Salt for hashed rate-limit keys (prefer env)")

	// Captcha
	fs.StringVar(&cfg.CaptchaProvider, "captcha-provider", "", "Captcha provider (turnstile)")
	fs.StringVar(&cfg.CaptchaSecret, "captcha-secret", "", "Captcha secret key (prefer env)")
	fs.StringVar(&cfg.CaptchaMode, "captcha-mode", "", "Captcha mode (monitor or enforce)")

	fs.StringVar(&cfg.AuthBaseURL, "auth-base-url", "", "Base URL for magic-link redirects")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	// Fall back to environment variables
	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = 3419 // default
		}
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}

	if cfg.DatabaseType == "" {
		cfg.DatabaseType = os.Getenv("DATABASE_TYPE")
		if cfg.DatabaseType == "" {
			cfg.DatabaseType = "sqlite"
		}
	}
	if cfg.DatabaseType != "sqlite" && cfg.DatabaseType != "postgres" {
		return Config{}, errors.New("database type must be sqlite or postgres")
	}

	// Secrets - session secret MUST be provided
	if cfg.SessionSecret == "" {
		cfg.SessionSecret = os.Getenv("SESSION_SECRET")
	}
	if cfg.SessionSecret == "" {
		return Config{}, errors.New("SESSION_SECRET required")
	}

	if cfg.RateLimitSalt == "" {
		cfg.RateLimitSalt = os.Getenv("RATELIMIT_SALT")
	}
	if cfg.RateLimitSalt == "" {
		return Config{}, errors.New("RATELIMIT_SALT required")
	}

	// Captcha settings are optional; a missing secret means verification
	// is skipped (rejected at request time only under enforce mode).
	if cfg.CaptchaProvider == "" {
		cfg.CaptchaProvider = os.Getenv("CAPTCHA_PROVIDER")
		if cfg.CaptchaProvider == "" {
			cfg.CaptchaProvider = "turnstile"
		}
	}
	if cfg.CaptchaSecret == "" {
		cfg.CaptchaSecret = os.Getenv("CAPTCHA_SECRET_KEY")
	}
	if cfg.CaptchaMode == "" {
		cfg.CaptchaMode = os.Getenv("CAPTCHA_MODE")
		if cfg.CaptchaMode == "" {
			cfg.CaptchaMode = CaptchaMonitor
		}
	}
	if cfg.CaptchaMode != CaptchaMonitor && cfg.CaptchaMode != CaptchaEnforce {
		return Config{}, errors.New("captcha mode must be monitor or enforce")
	}

	if cfg.AuthBaseURL == "" {
		cfg.AuthBaseURL = os.Getenv("AUTH_BASE_URL")
	}

	return cfg, nil
}
