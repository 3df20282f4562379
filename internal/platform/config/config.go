package config

import (
	"os"
	"strings"
	"time"
)

// Server captures process level configuration.
type Server struct {
	Addr          string
	DatabaseURL   string
	RedisURL      string
	KafkaBrokers  []string
	KafkaTopic    string
	JWTSigningKey string
	JWTIssuer     string

	DashboardCacheTTL time.Duration
	ShutdownTimeout   time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
// Empty DatabaseURL, RedisURL or KafkaBrokers select the in-process fallbacks
// (memory store, no cache, log-only audit sink).
func FromEnv() Server {
	addr := os.Getenv("LOAN_API_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	jwtIssuer := os.Getenv("JWT_ISSUER")
	if jwtIssuer == "" {
		jwtIssuer = "loan-approval"
	}

	var brokers []string
	if raw := os.Getenv("KAFKA_BROKERS"); raw != "" {
		for _, b := range strings.Split(raw, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
	}
	topic := os.Getenv("KAFKA_AUDIT_TOPIC")
	if topic == "" {
		topic = "loan.audit.events"
	}

	cacheTTL := 30 * time.Second
	if raw := os.Getenv("DASHBOARD_CACHE_TTL"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			cacheTTL = d
		}
	}

	shutdown := 10 * time.Second
	if raw := os.Getenv("SHUTDOWN_TIMEOUT"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			shutdown = d
		}
	}

	return Server{
		Addr:              addr,
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		RedisURL:          os.Getenv("REDIS_URL"),
		KafkaBrokers:      brokers,
		KafkaTopic:        topic,
		JWTSigningKey:     jwtSigningKey,
		JWTIssuer:         jwtIssuer,
		DashboardCacheTTL: cacheTTL,
		ShutdownTimeout:   shutdown,
	}
}
