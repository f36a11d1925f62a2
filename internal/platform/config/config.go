// Package config builds runtime configuration from the environment so main
// stays lean. Every knob has a development-safe default; production deploys
// override via VEIL_* variables.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"veil/internal/schema"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// Postgres configures the snapshot and audit stores. An empty DSN selects the
// in-memory stores, which keeps local development dependency-free.
type Postgres struct {
	DSN string
}

// Redis configures the optional snapshot cache. An empty URL disables it.
type Redis struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// SnapshotTTL bounds how long a cached snapshot may be served before the
	// store of record is consulted again.
	SnapshotTTL time.Duration
}

// Kafka configures the optional audit event publisher. No brokers disables it.
type Kafka struct {
	Brokers []string
	Topic   string
}

// Auth configures party token issuance and validation.
type Auth struct {
	JWTSigningKey string
	Issuer        string
	Audience      string
	TokenTTL      time.Duration
	// AdminKey guards party registration. Empty disables the endpoint.
	AdminKey string
}

// Config is the root configuration assembled by FromEnv.
type Config struct {
	Server   Server
	Postgres Postgres
	Redis    Redis
	Kafka    Kafka
	Auth     Auth
	// SchemaFields is the disclosure schema in ordinal order. Set once at
	// startup; the registry built from it is immutable.
	SchemaFields []string
}

// FromEnv reads configuration from environment variables.
func FromEnv() Config {
	return Config{
		Server: Server{
			Addr:            getString("VEIL_ADDR", ":8080"),
			ShutdownTimeout: getDuration("VEIL_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Postgres: Postgres{
			DSN: os.Getenv("VEIL_POSTGRES_DSN"),
		},
		Redis: Redis{
			URL:          os.Getenv("VEIL_REDIS_URL"),
			PoolSize:     getInt("VEIL_REDIS_POOL_SIZE", 10),
			MinIdleConns: getInt("VEIL_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDuration("VEIL_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDuration("VEIL_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDuration("VEIL_REDIS_WRITE_TIMEOUT", 3*time.Second),
			SnapshotTTL:  getDuration("VEIL_REDIS_SNAPSHOT_TTL", 5*time.Minute),
		},
		Kafka: Kafka{
			Brokers: getStrings("VEIL_KAFKA_BROKERS", nil),
			Topic:   getString("VEIL_KAFKA_AUDIT_TOPIC", "veil.audit"),
		},
		Auth: Auth{
			// Default is for development only; override in production.
			JWTSigningKey: getString("VEIL_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
			Issuer:        getString("VEIL_JWT_ISSUER", "veil"),
			Audience:      getString("VEIL_JWT_AUDIENCE", "veil-api"),
			TokenTTL:      getDuration("VEIL_TOKEN_TTL", 15*time.Minute),
			AdminKey:      os.Getenv("VEIL_ADMIN_KEY"),
		},
		SchemaFields: getStrings("VEIL_SCHEMA_FIELDS", schema.DefaultFields),
	}
}

func getString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func getStrings(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
