package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Version is set at build time through -ldflags.
var Version = "dev"

// Server captures process level configuration.
type Server struct {
	Addr          string
	JWTSigningKey string
	LogLevel      slog.Level
	LogFormat     string

	DatabaseURL string
	TxTimeout   time.Duration

	Redis RedisConfig
	Kafka KafkaConfig

	InstitutionCacheTTL time.Duration
	OutboxPollInterval  time.Duration
	OutboxBatchSize     int

	// SeedDemoData loads a school, a tutor centre and two learners into the in-memory
	// stores when no database is configured.
	SeedDemoData bool
}

// RedisConfig configures the shared go-redis client. An empty URL disables Redis.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the audit outbox relay. No brokers disables the relay.
type KafkaConfig struct {
	Brokers    []string
	AuditTopic string
	ClientID   string
}

// UsesPostgres reports whether stores should be backed by Postgres.
func (s Server) UsesPostgres() bool { return s.DatabaseURL != "" }

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	cfg := Server{
		Addr:                getEnvDefault("CASEFLOW_ADDR", ":8080"),
		JWTSigningKey:       os.Getenv("JWT_SIGNING_KEY"),
		LogFormat:           strings.ToLower(getEnvDefault("LOG_FORMAT", "json")),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		InstitutionCacheTTL: 5 * time.Minute,
		OutboxPollInterval:  2 * time.Second,
		OutboxBatchSize:     100,
		TxTimeout:           5 * time.Second,
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers:    splitList(os.Getenv("KAFKA_BROKERS")),
			AuditTopic: getEnvDefault("AUDIT_TOPIC", "caseflow.audit"),
			ClientID:   getEnvDefault("KAFKA_CLIENT_ID", "caseflow"),
		},
		SeedDemoData: os.Getenv("SEED_DEMO_DATA") == "true",
	}

	var err error
	if cfg.LogLevel, err = parseLogLevel(getEnvDefault("LOG_LEVEL", "info")); err != nil {
		return Server{}, err
	}
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return Server{}, fmt.Errorf("LOG_FORMAT must be json or text, got %q", cfg.LogFormat)
	}
	if cfg.TxTimeout, err = getEnvDuration("TX_TIMEOUT", cfg.TxTimeout); err != nil {
		return Server{}, err
	}
	if cfg.InstitutionCacheTTL, err = getEnvDuration("INSTITUTION_CACHE_TTL", cfg.InstitutionCacheTTL); err != nil {
		return Server{}, err
	}
	if cfg.OutboxPollInterval, err = getEnvDuration("OUTBOX_POLL_INTERVAL", cfg.OutboxPollInterval); err != nil {
		return Server{}, err
	}
	if cfg.OutboxBatchSize, err = getEnvInt("OUTBOX_BATCH_SIZE", cfg.OutboxBatchSize); err != nil {
		return Server{}, err
	}
	if cfg.Redis.PoolSize, err = getEnvInt("REDIS_POOL_SIZE", cfg.Redis.PoolSize); err != nil {
		return Server{}, err
	}

	if cfg.JWTSigningKey == "" {
		// Development default; production deployments must set JWT_SIGNING_KEY.
		cfg.JWTSigningKey = "dev-secret-key-change-in-production"
	}
	return cfg, nil
}

func getEnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q", key, v)
	}
	return n, nil
}

func getEnvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q", key, v)
	}
	return d, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("LOG_LEVEL: unknown level %q", s)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
