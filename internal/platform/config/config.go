package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr          string
	LogLevel      string
	JWTSigningKey string

	PostgresDSN string
	RedisURL    string

	KafkaBrokers []string
	AuditTopic   string

	ECFRBaseURL string

	// Query facade tuning. PaceInterval is the delay budget between
	// consecutive group queries against the shared store; GroupCap bounds
	// how many groups one request may select.
	PaceInterval time.Duration
	PaceBurst    int
	GroupCap     int
	CacheTTL     time.Duration

	// Ingest tuning.
	IngestConcurrency int
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	return Server{
		Addr:              envOr("REGPULSE_ADDR", ":8080"),
		LogLevel:          envOr("REGPULSE_LOG_LEVEL", "info"),
		JWTSigningKey:     envOr("REGPULSE_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		PostgresDSN:       envOr("REGPULSE_POSTGRES_DSN", ""),
		RedisURL:          envOr("REGPULSE_REDIS_URL", ""),
		KafkaBrokers:      envList("REGPULSE_KAFKA_BROKERS"),
		AuditTopic:        envOr("REGPULSE_AUDIT_TOPIC", "regpulse.ingest.audit"),
		ECFRBaseURL:       envOr("REGPULSE_ECFR_BASE_URL", "https://www.ecfr.gov"),
		PaceInterval:      envDuration("REGPULSE_PACE_INTERVAL", 500*time.Millisecond),
		PaceBurst:         envInt("REGPULSE_PACE_BURST", 10),
		GroupCap:          envInt("REGPULSE_GROUP_CAP", 3),
		CacheTTL:          envDuration("REGPULSE_CACHE_TTL", 10*time.Minute),
		IngestConcurrency: envInt("REGPULSE_INGEST_CONCURRENCY", 5),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
