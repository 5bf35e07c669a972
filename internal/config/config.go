package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	SLA          SLAConfig
	Mail         MailConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// SLAConfig drives the periodic violation scan and its job lock. Lock
// name, hold and rearm times are deployment configuration so several
// service instances can share one schedule safely.
type SLAConfig struct {
	JobName             string
	ScanIntervalSeconds int
	LockName            string
	LockMaxHoldSeconds  int
	LockMinRearmSeconds int
	BatchLimit          int
	DedupTTLHours       int
	EventBufferSize     int
}

// MailConfig holds SMTP delivery settings. An empty host disables the
// email channel.
type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// NotificationConfig controls rendered notification content.
type NotificationConfig struct {
	BaseURL string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "workflow-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		SLA: SLAConfig{
			JobName:             getEnv("SLA_JOB_NAME", "sla_violation_scan"),
			ScanIntervalSeconds: getEnvAsInt("SLA_SCAN_INTERVAL_SECONDS", 60),
			LockName:            getEnv("SLA_LOCK_NAME", "locks:sla_violation_scan"),
			LockMaxHoldSeconds:  getEnvAsInt("SLA_LOCK_MAX_HOLD_SECONDS", 120),
			LockMinRearmSeconds: getEnvAsInt("SLA_LOCK_MIN_REARM_SECONDS", 30),
			BatchLimit:          getEnvAsInt("SLA_SCAN_BATCH_LIMIT", 500),
			DedupTTLHours:       getEnvAsInt("SLA_DEDUP_TTL_HOURS", 24),
			EventBufferSize:     getEnvAsInt("EVENT_BUFFER_SIZE", 256),
		},
		Mail: MailConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     getEnvAsInt("SMTP_PORT", 587),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     getEnv("SMTP_FROM", "noreply@example.com"),
		},
		Notification: NotificationConfig{
			BaseURL: getEnv("NOTIFY_BASE_URL", "http://localhost:3000"),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// ScanInterval returns the detector tick period.
func (s SLAConfig) ScanInterval() time.Duration {
	if s.ScanIntervalSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(s.ScanIntervalSeconds) * time.Second
}

// LockMaxHold returns the longest a scan may keep the job lock.
func (s SLAConfig) LockMaxHold() time.Duration {
	if s.LockMaxHoldSeconds <= 0 {
		return 2 * time.Minute
	}
	return time.Duration(s.LockMaxHoldSeconds) * time.Second
}

// LockMinRearm returns the minimum time the lock stays held after a scan
// finishes, guarding against clock-skewed double ticks.
func (s SLAConfig) LockMinRearm() time.Duration {
	if s.LockMinRearmSeconds < 0 {
		return 0
	}
	return time.Duration(s.LockMinRearmSeconds) * time.Second
}

// DedupTTL returns the notification suppression window.
func (s SLAConfig) DedupTTL() time.Duration {
	if s.DedupTTLHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(s.DedupTTLHours) * time.Hour
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
