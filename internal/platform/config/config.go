// Package config builds runtime configuration from environment variables so
// main stays lean.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config captures everything the registry server needs at startup.
type Config struct {
	Addr string

	// PostgresDSN selects the durable store. Empty means in-memory stores,
	// which is the development and test default.
	PostgresDSN string

	// RedisURL enables the token revocation list. Empty means the in-memory
	// fallback, which is fine for a single instance.
	RedisURL string

	// KafkaBrokers enables audit event publishing. Empty disables it; audit
	// events are still persisted through the audit store.
	KafkaBrokers string
	AuditTopic   string

	JWTSigningKey string
	TokenTTL      time.Duration

	// SeedBootstrap loads the initial super admin and reference data on
	// startup when the actor store is empty.
	SeedBootstrap bool
}

// FromEnv reads configuration from the environment, applying development
// defaults.
func FromEnv() Config {
	cfg := Config{
		Addr:          envOr("REESTR_ADDR", ":8080"),
		PostgresDSN:   os.Getenv("REESTR_POSTGRES_DSN"),
		RedisURL:      os.Getenv("REESTR_REDIS_URL"),
		KafkaBrokers:  os.Getenv("REESTR_KAFKA_BROKERS"),
		AuditTopic:    envOr("REESTR_AUDIT_TOPIC", "reestr.audit"),
		JWTSigningKey: envOr("REESTR_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		TokenTTL:      envDurationOr("REESTR_TOKEN_TTL", 12*time.Hour),
		SeedBootstrap: os.Getenv("REESTR_SEED_BOOTSTRAP") == "true",
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	// Accept plain seconds for operator convenience.
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
