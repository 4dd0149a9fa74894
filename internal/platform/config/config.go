// Package config builds runtime configuration from the environment so
// main stays lean.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Server captures the full runtime configuration for the service.
type Server struct {
	Addr string

	// StoreDriver selects the backing store: sqlite (default), postgres,
	// or memory for throwaway runs.
	StoreDriver string
	StoreDSN    string

	// ReportWindow is the minimum gap between accepted reports for one
	// number. RecentWindow bounds the "recent reports" totals figure.
	ReportWindow time.Duration
	RecentWindow time.Duration

	// Dialing-plan knobs for the normalizer.
	CountryCode   string
	MobilePrefix  string
	SubscriberLen int

	// AdminPINHash is a bcrypt hash of the operator PIN. AdminPIN is a
	// plaintext development fallback used only when no hash is set.
	// Neither has a default; startup fails when both are empty.
	AdminPINHash  string
	AdminPIN      string
	JWTSigningKey string
	SessionTTL    time.Duration
}

// FromEnv reads SAFELINE_* environment variables, applying development
// defaults for anything unset.
func FromEnv() (Server, error) {
	cfg := Server{
		Addr:          envOr("SAFELINE_ADDR", ":8080"),
		StoreDriver:   envOr("SAFELINE_STORE_DRIVER", "sqlite"),
		StoreDSN:      envOr("SAFELINE_STORE_DSN", "safeline.db"),
		CountryCode:   envOr("SAFELINE_COUNTRY_CODE", "90"),
		MobilePrefix:  envOr("SAFELINE_MOBILE_PREFIX", "5"),
		AdminPINHash:  os.Getenv("SAFELINE_ADMIN_PIN_HASH"),
		AdminPIN:      os.Getenv("SAFELINE_ADMIN_PIN"),
		JWTSigningKey: envOr("SAFELINE_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
	}

	var err error
	if cfg.ReportWindow, err = envDuration("SAFELINE_REPORT_WINDOW", 24*time.Hour); err != nil {
		return Server{}, err
	}
	if cfg.RecentWindow, err = envDuration("SAFELINE_RECENT_WINDOW", 24*time.Hour); err != nil {
		return Server{}, err
	}
	if cfg.SessionTTL, err = envDuration("SAFELINE_SESSION_TTL", 12*time.Hour); err != nil {
		return Server{}, err
	}
	if cfg.SubscriberLen, err = envInt("SAFELINE_SUBSCRIBER_LEN", 10); err != nil {
		return Server{}, err
	}

	switch cfg.StoreDriver {
	case "sqlite", "postgres", "memory":
	default:
		return Server{}, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}

	if cfg.AdminPINHash == "" && cfg.AdminPIN == "" {
		return Server{}, fmt.Errorf("set SAFELINE_ADMIN_PIN_HASH (or SAFELINE_ADMIN_PIN for development)")
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}
